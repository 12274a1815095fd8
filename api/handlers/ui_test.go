package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/EO-DataHub/eodhp-scim-services/api/services"
	"github.com/EO-DataHub/eodhp-scim-services/models"
	"github.com/stretchr/testify/assert"
)

// staticStore serves a fixed list of documents.
type staticStore struct {
	resourceType string
	docs         []models.Document
}

func (s *staticStore) ResourceType() string     { return s.resourceType }
func (s *staticStore) List() []models.Document { return s.docs }
func (s *staticStore) Create(ctx context.Context, doc models.Document) (models.Document, error) {
	return doc, nil
}
func (s *staticStore) Delete(ctx context.Context, id string) error { return nil }

func TestUsersPage(t *testing.T) {
	svc := &services.Service{
		Users: &staticStore{resourceType: models.ResourceTypeUser, docs: []models.Document{
			{"id": "u1", "userName": "alice", "active": true, "emails": []any{"alice@example.com"}},
			{"id": "u2", "title": "<script>alert(1)</script>"},
		}},
	}

	rr := httptest.NewRecorder()
	UsersPage(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ui/users", nil))

	body := rr.Body.String()
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, body, "<h1>Users (2)</h1>")
	assert.Contains(t, body, "<td>alice</td>")
	assert.Contains(t, body, "alice@example.com")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.NotContains(t, body, "<script>alert(1)</script>")

	// u2 has no userName so it's labelled by id
	assert.Equal(t, 2, strings.Count(body, "<td>u2</td>"))
}

func TestGroupsPage_Empty(t *testing.T) {
	svc := &services.Service{
		Groups: &staticStore{resourceType: models.ResourceTypeGroup, docs: []models.Document{}},
	}

	rr := httptest.NewRecorder()
	GroupsPage(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ui/groups", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "<h1>Groups (0)</h1>")
	assert.Contains(t, rr.Body.String(), "No resources provisioned.")
}

func TestToRows(t *testing.T) {
	rows := toRows([]models.Document{
		{"id": "g1", "displayName": "admins", "members": []any{map[string]any{"value": "u1"}}, "count": json.Number("3"), "note": nil},
	}, "displayName")

	if assert.Len(t, rows, 1) {
		assert.Equal(t, "g1", rows[0].ID)
		assert.Equal(t, "admins", rows[0].Label)
		assert.Equal(t, []attribute{
			{Name: "count", Value: "3"},
			{Name: "members", Value: `[{"value":"u1"}]`},
			{Name: "note", Value: "null"},
		}, rows[0].Attributes)
	}
}
