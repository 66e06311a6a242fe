package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/temcen/reelmatch/pkg/models"
)

type MockMediaCatalog struct {
	mock.Mock
}

func (m *MockMediaCatalog) GetMedia(ctx context.Context, id int) (*models.Media, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Media), args.Error(1)
}

func (m *MockMediaCatalog) ListMedia(ctx context.Context, filter models.MediaFilter) ([]models.Media, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Media), args.Error(1)
}

func (m *MockMediaCatalog) UpsertMedia(ctx context.Context, items []models.Media) error {
	return m.Called(ctx, items).Error(0)
}

type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func (m *MockProfileStore) ApplyPreferenceEvent(ctx context.Context, event *models.PreferenceUpdateEvent) error {
	return m.Called(ctx, event).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishPreferenceUpdate(ctx context.Context, event *models.PreferenceUpdateEvent) error {
	return m.Called(ctx, event).Error(0)
}

type MockIndexer struct {
	mock.Mock
}

func (m *MockIndexer) IndexInteraction(ctx context.Context, userID string, interaction models.UserInteraction) error {
	return m.Called(ctx, userID, interaction).Error(0)
}
