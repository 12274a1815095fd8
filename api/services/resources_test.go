package services

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/EO-DataHub/eodhp-scim-services/internal/events"
	"github.com/EO-DataHub/eodhp-scim-services/models"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestListResourcesService(t *testing.T) {
	store := new(MockResourceStore)
	store.On("ResourceType").Return(models.ResourceTypeUser)
	store.On("List").Return([]models.Document{
		{"id": "a", "userName": "alice"},
		{"id": "b", "userName": "bob"},
	})

	req := httptest.NewRequest(http.MethodGet, "/scim/v2/Users", nil)
	rr := httptest.NewRecorder()

	ListResourcesService(store, rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "max-age=0", rr.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{
		"Resources": [{"id":"a","userName":"alice"},{"id":"b","userName":"bob"}],
		"totalResults": 2
	}`, rr.Body.String())
}

func TestListResourcesService_Empty(t *testing.T) {
	store := new(MockResourceStore)
	store.On("ResourceType").Return(models.ResourceTypeGroup)
	store.On("List").Return([]models.Document{})

	req := httptest.NewRequest(http.MethodGet, "/scim/v2/Groups", nil)
	rr := httptest.NewRecorder()

	ListResourcesService(store, rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"Resources":[],"totalResults":0}`, rr.Body.String())
}

func TestCreateResourceService(t *testing.T) {
	store := new(MockResourceStore)
	store.On("ResourceType").Return(models.ResourceTypeUser)
	store.On("Create", models.Document{"userName": "alice", "age": json.Number("30")}).
		Return(models.Document{"id": "0b7a", "userName": "alice", "age": json.Number("30")}, nil)

	publisher := new(MockEventPublisher)
	publisher.On("Publish", events.ActionCreated, models.ResourceTypeUser, "0b7a").Return(nil)

	svc := &Service{Users: store, Publisher: publisher}

	req := httptest.NewRequest(http.MethodPost, "/scim/v2/Users", strings.NewReader(`{"userName":"alice","age":30}`))
	rr := httptest.NewRecorder()

	CreateResourceService(svc, store, rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "/scim/v2/Users/0b7a", rr.Header().Get("Location"))
	assert.JSONEq(t, `{"id":"0b7a","userName":"alice","age":30}`, rr.Body.String())
	store.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestCreateResourceService_InvalidPayload(t *testing.T) {
	for name, body := range map[string]string{
		"empty":       "",
		"array":       `[{"userName":"alice"}]`,
		"string":      `"alice"`,
		"null":        `null`,
		"broken":      `{"userName":`,
		"trailing":    `{"userName":"alice"} not-json`,
		"two objects": `{"userName":"alice"}{"userName":"bob"}`,
	} {
		t.Run(name, func(t *testing.T) {
			store := new(MockResourceStore)
			svc := &Service{Users: store}

			req := httptest.NewRequest(http.MethodPost, "/scim/v2/Users", strings.NewReader(body))
			rr := httptest.NewRecorder()

			CreateResourceService(svc, store, rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.JSONEq(t, `{"detail":"Invalid request payload"}`, rr.Body.String())
			store.AssertNotCalled(t, "Create", mock.Anything)
		})
	}
}

func TestCreateResourceService_StoreFailure(t *testing.T) {
	store := new(MockResourceStore)
	store.On("ResourceType").Return(models.ResourceTypeGroup)
	store.On("Create", mock.Anything).Return(nil, errors.New("disk full"))

	publisher := new(MockEventPublisher)
	svc := &Service{Groups: store, Publisher: publisher}

	req := httptest.NewRequest(http.MethodPost, "/scim/v2/Groups", strings.NewReader(`{"displayName":"admins"}`))
	rr := httptest.NewRecorder()

	CreateResourceService(svc, store, rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"detail":"Internal server error"}`, rr.Body.String())
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateResourceService_PublishFailureIsIgnored(t *testing.T) {
	store := new(MockResourceStore)
	store.On("ResourceType").Return(models.ResourceTypeGroup)
	store.On("Create", mock.Anything).Return(models.Document{"id": "g1", "displayName": "admins"}, nil)

	publisher := new(MockEventPublisher)
	publisher.On("Publish", events.ActionCreated, models.ResourceTypeGroup, "g1").Return(errors.New("broker down"))

	svc := &Service{Groups: store, Publisher: publisher}

	req := httptest.NewRequest(http.MethodPost, "/scim/v2/Groups", strings.NewReader(`{"displayName":"admins"}`))
	rr := httptest.NewRecorder()

	CreateResourceService(svc, store, rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	publisher.AssertExpectations(t)
}

func TestDeleteResourceService(t *testing.T) {
	store := new(MockResourceStore)
	store.On("ResourceType").Return(models.ResourceTypeUser)
	store.On("Delete", "0b7a").Return(nil)

	publisher := new(MockEventPublisher)
	publisher.On("Publish", events.ActionDeleted, models.ResourceTypeUser, "0b7a").Return(nil)

	svc := &Service{Users: store, Publisher: publisher}

	req := httptest.NewRequest(http.MethodDelete, "/scim/v2/Users/0b7a", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "0b7a"})
	rr := httptest.NewRecorder()

	DeleteResourceService(svc, store, rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"deleted"}`, rr.Body.String())
	store.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestDeleteResourceService_StoreFailure(t *testing.T) {
	store := new(MockResourceStore)
	store.On("ResourceType").Return(models.ResourceTypeUser)
	store.On("Delete", "0b7a").Return(errors.New("permission denied"))

	svc := &Service{Users: store}

	req := httptest.NewRequest(http.MethodDelete, "/scim/v2/Users/0b7a", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "0b7a"})
	rr := httptest.NewRecorder()

	DeleteResourceService(svc, store, rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"detail":"Internal server error"}`, rr.Body.String())
}

func TestDecodeDocument_TrailingWhitespace(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{\"userName\":\"alice\"}\n  \n"))

	doc, err := decodeDocument(req)
	require.NoError(t, err)
	assert.Equal(t, "alice", doc["userName"])
}

func TestDecodeDocument_KeepsNumbers(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"n":12345678901234567890}`))

	doc, err := decodeDocument(req)
	require.NoError(t, err)
	assert.Equal(t, json.Number("12345678901234567890"), doc["n"])
}
