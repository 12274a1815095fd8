package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/EO-DataHub/eodhp-scim-services/internal/events"
	"github.com/EO-DataHub/eodhp-scim-services/models"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// ListResourcesService returns every resource in the store.
func ListResourcesService(store ResourceStore, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())

	resources := store.List()

	logger.Info().Str("resource_type", store.ResourceType()).Int("count", len(resources)).
		Msg("Successfully retrieved resources")
	WriteResponse(w, http.StatusOK, models.ListResponse{
		Resources:    resources,
		TotalResults: len(resources),
	})
}

// CreateResourceService stores the request body as a new resource under a server-assigned id.
func CreateResourceService(svc *Service, store ResourceStore, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())

	doc, err := decodeDocument(r)
	if err != nil {
		logger.Warn().Err(err).Msg("Invalid request payload")
		HandleErrResponse(w, http.StatusBadRequest, err)
		return
	}

	created, err := store.Create(r.Context(), doc)
	if err != nil {
		logger.Error().Err(err).Str("resource_type", store.ResourceType()).Msg("Failed to create resource")
		HandleErrResponse(w, http.StatusInternalServerError, err)
		return
	}

	logger.Info().Str("resource_type", store.ResourceType()).Str("id", created.ID()).
		Msg("Resource created successfully")

	publishEvent(r.Context(), svc, events.NewEvent(events.ActionCreated, store.ResourceType(), created.ID()))

	// Send response
	location := fmt.Sprintf("%s/%s", strings.TrimSuffix(r.URL.Path, "/"), created.ID())
	WriteResponse(w, http.StatusCreated, created, location)
}

// DeleteResourceService removes the resource named by the {id} path variable. Unknown ids
// are not an error.
func DeleteResourceService(svc *Service, store ResourceStore, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())

	id := mux.Vars(r)["id"]

	if err := store.Delete(r.Context(), id); err != nil {
		logger.Error().Err(err).Str("resource_type", store.ResourceType()).Str("id", id).
			Msg("Failed to delete resource")
		HandleErrResponse(w, http.StatusInternalServerError, err)
		return
	}

	logger.Info().Str("resource_type", store.ResourceType()).Str("id", id).Msg("Resource deleted successfully")

	publishEvent(r.Context(), svc, events.NewEvent(events.ActionDeleted, store.ResourceType(), id))

	WriteResponse(w, http.StatusOK, models.StatusResponse{Status: "deleted"})
}

// decodeDocument reads a JSON object from the request body. Numbers are kept as
// json.Number so they are stored exactly as sent.
func decodeDocument(r *http.Request) (models.Document, error) {
	var doc models.Document

	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: body is null", ErrInvalidPayload)
	}

	// The body must hold exactly one JSON value
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after JSON object", ErrInvalidPayload)
	}
	return doc, nil
}

// publishEvent announces a change. A broker failure is logged and otherwise ignored, the
// change itself is already durable.
func publishEvent(ctx context.Context, svc *Service, event events.Event) {
	if svc == nil || svc.Publisher == nil {
		return
	}

	if err := svc.Publisher.Publish(ctx, event); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("action", event.Action).Str("id", event.ID).
			Msg("Failed to publish provisioning event")
	}
}
