package services

import (
	"context"

	"github.com/EO-DataHub/eodhp-scim-services/internal/appconfig"
	"github.com/EO-DataHub/eodhp-scim-services/internal/events"
	"github.com/EO-DataHub/eodhp-scim-services/models"
)

// ResourceStore is a collection of SCIM resources of one type.
type ResourceStore interface {
	ResourceType() string
	List() []models.Document
	Create(ctx context.Context, doc models.Document) (models.Document, error)
	Delete(ctx context.Context, id string) error
}

// Service contains all shared dependencies for handlers.
type Service struct {
	Config    *appconfig.Config
	Users     ResourceStore
	Groups    ResourceStore
	Publisher events.Notifier
}
