package search

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/repositories"
)

func TestStoreDocument(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &entities.Store{
		ID:           "s1",
		Name:         "Mall Security Center",
		Location:     "456 Mall Ave, Los Angeles, CA",
		Type:         entities.StoreTypeMall,
		Status:       entities.StoreStatusActive,
		Subscription: entities.TierEnterprise,
		CameraCount:  12,
		NVR:          entities.NVRConnection{LoginPassword: "secret"},
		CreatedAt:    created,
	}

	doc := storeDocument(store)

	assert.Equal(t, "Shopping Mall", doc["type_label"])
	assert.Equal(t, "mall", doc["type"])
	assert.Equal(t, "Enterprise", doc["subscription"])
	assert.Equal(t, created.Unix(), doc["created_at"])
	for _, v := range doc {
		assert.NotEqual(t, "secret", v)
	}
}

func TestSearchParams(t *testing.T) {
	params, err := searchParams(repositories.StoreFilter{
		Search: " chicago ", Status: "inactive", Type: "all", Subscription: "BASIC", Limit: 10, Offset: 20,
	})
	require.NoError(t, err)

	assert.Equal(t, "chicago", *params.Q)
	assert.Equal(t, queryBy, *params.QueryBy)
	require.NotNil(t, params.FilterBy)
	assert.Equal(t, "status:=`Inactive` && subscription:=`Basic`", *params.FilterBy)
	assert.Equal(t, 3, *params.Page)
	assert.Equal(t, 10, *params.PerPage)
}

func TestSearchParamsMatchExactly(t *testing.T) {
	params, err := searchParams(repositories.StoreFilter{Search: "town"})
	require.NoError(t, err)

	require.NotNil(t, params.NumTypos)
	assert.Equal(t, "0", *params.NumTypos)
	require.NotNil(t, params.Infix)
	assert.Equal(t, len(strings.Split(queryBy, ",")), len(strings.Split(*params.Infix, ",")))
	require.NotNil(t, params.DropTokensThreshold)
	assert.Equal(t, 0, *params.DropTokensThreshold)
}

func TestSearchParamsDefaults(t *testing.T) {
	params, err := searchParams(repositories.StoreFilter{})
	require.NoError(t, err)

	assert.Equal(t, "*", *params.Q)
	assert.Nil(t, params.FilterBy)
	assert.Equal(t, 1, *params.Page)
	assert.Equal(t, maxPerPage, *params.PerPage)
}

func TestSearchParamsUnknownEnum(t *testing.T) {
	_, err := searchParams(repositories.StoreFilter{Status: "archived"})
	assert.ErrorIs(t, err, errNoMatch)
}
