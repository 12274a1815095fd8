package services

import (
	"context"

	"github.com/EO-DataHub/eodhp-scim-services/internal/events"
	"github.com/EO-DataHub/eodhp-scim-services/models"
	"github.com/stretchr/testify/mock"
)

type MockResourceStore struct {
	mock.Mock
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockResourceStore) ResourceType() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockResourceStore) List() []models.Document {
	args := m.Called()
	return args.Get(0).([]models.Document)
}

func (m *MockResourceStore) Create(ctx context.Context, doc models.Document) (models.Document, error) {
	args := m.Called(doc)
	out, _ := args.Get(0).(models.Document)
	return out, args.Error(1)
}

func (m *MockResourceStore) Delete(ctx context.Context, id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.Event) error {
	args := m.Called(event.Action, event.ResourceType, event.ID)
	return args.Error(0)
}

func (m *MockEventPublisher) Close() {}
