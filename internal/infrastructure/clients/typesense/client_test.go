package typesense

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/storeguard/pkg/config"
)

func TestStoresSchema(t *testing.T) {
	schema := StoresSchema()
	assert.Equal(t, StoresCollection, schema.Name)

	facets := map[string]bool{}
	for _, f := range schema.Fields {
		if f.Facet != nil && *f.Facet {
			facets[f.Name] = true
		}
	}
	assert.Equal(t, map[string]bool{"type": true, "status": true, "subscription": true}, facets)

	infix := map[string]bool{}
	for _, f := range schema.Fields {
		if f.Infix != nil && *f.Infix {
			infix[f.Name] = true
		}
	}
	assert.Equal(t, map[string]bool{"name": true, "location": true, "type_label": true}, infix)
	require.NotNil(t, schema.DefaultSortingField)
	assert.Equal(t, "created_at", *schema.DefaultSortingField)
}

func TestClient_Integration(t *testing.T) {
	if os.Getenv("TEST_INTEGRATION") != "true" {
		t.Skip("set TEST_INTEGRATION=true to run against a local Typesense")
	}

	client, err := NewClient(context.Background(), &config.TypesenseConfig{
		URL:    "http://localhost:8108",
		APIKey: "xyz",
	})
	require.NoError(t, err)
	assert.NoError(t, client.InitSchema(context.Background()))
	assert.NoError(t, client.InitSchema(context.Background()), "second call must be a no-op")
}
