package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/storeguard/internal/domain/entities"
)

func TestSearchIndexService_ReindexAll(t *testing.T) {
	db := newTestDB(t)
	index := &MockStoreSearch{}

	index.On("Index", mock.Anything, mock.MatchedBy(func(s *entities.Store) bool {
		return s.ID == retailID
	})).Return(errors.New("document rejected")).Once()
	index.On("Index", mock.Anything, mock.AnythingOfType("*entities.Store")).Return(nil).Times(3)

	svc := NewSearchIndexService(db.Stores(), index, 2)
	summary, err := svc.ReindexAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, summary.TotalProcessed)
	assert.Equal(t, 3, summary.SuccessCount)
	assert.Equal(t, 1, summary.FailureCount)
	index.AssertExpectations(t)
}
