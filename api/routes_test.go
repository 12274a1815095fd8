package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/EO-DataHub/eodhp-scim-services/api/services"
	"github.com/EO-DataHub/eodhp-scim-services/db"
	"github.com/EO-DataHub/eodhp-scim-services/models"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "s3cr3t"

type testServer struct {
	router    *mux.Router
	usersPath string
	users     *db.Collection
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	usersPath := filepath.Join(dir, "users.json")
	userFile, err := db.NewFilePersister(usersPath)
	require.NoError(t, err)
	groupFile, err := db.NewFilePersister(filepath.Join(dir, "groups.json"))
	require.NoError(t, err)

	users, err := db.NewCollection(ctx, models.ResourceTypeUser, userFile, nil)
	require.NoError(t, err)
	groups, err := db.NewCollection(ctx, models.ResourceTypeGroup, groupFile, nil)
	require.NoError(t, err)

	svc := &services.Service{Users: users, Groups: groups}
	return &testServer{router: NewRouter(svc, testSecret), usersPath: usersPath, users: users}
}

func (s *testServer) do(method, target, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func TestCreateThenListUsers(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(http.MethodPost, "/scim/v2/Users", `{"userName":"alice"}`, testSecret)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	id, _ := created["id"].(string)
	assert.Len(t, id, 36)
	assert.Equal(t, "alice", created["userName"])
	assert.Equal(t, "/scim/v2/Users/"+id, rr.Header().Get("Location"))

	rr = s.do(http.MethodGet, "/scim/v2/Users", "", testSecret)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"Resources":[{"userName":"alice","id":"`+id+`"}],"totalResults":1}`, rr.Body.String())

	// The file holds the same mapping
	raw, err := os.ReadFile(s.usersPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"`+id+`":{"userName":"alice","id":"`+id+`"}}`, string(raw))
}

func TestAuthFailures(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(http.MethodGet, "/scim/v2/Users", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"detail":"Missing or invalid Authorization header"}`, rr.Body.String())

	rr = s.do(http.MethodPost, "/scim/v2/Groups", `{"displayName":"admins"}`, "wrong")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.JSONEq(t, `{"detail":"Invalid bearer token"}`, rr.Body.String())

	// Rejected requests never touch storage
	_, err := os.Stat(s.usersPath)
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteUser(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(http.MethodPost, "/scim/v2/Users", `{"userName":"bob"}`, testSecret)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created models.Document
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	rr = s.do(http.MethodDelete, "/scim/v2/Users/"+created.ID(), "", testSecret)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"deleted"}`, rr.Body.String())
	assert.Equal(t, 0, s.users.Len())

	// Unknown ids succeed and still rewrite the file
	require.NoError(t, os.Remove(s.usersPath))
	rr = s.do(http.MethodDelete, "/scim/v2/Users/does-not-exist", "", testSecret)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"deleted"}`, rr.Body.String())

	raw, err := os.ReadFile(s.usersPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))
}

func TestCreateUser_MalformedBody(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{`["alice"]`, `{"userName":"alice"} not-json`} {
		rr := s.do(http.MethodPost, "/scim/v2/Users", body, testSecret)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
		assert.JSONEq(t, `{"detail":"Invalid request payload"}`, rr.Body.String())
	}
	assert.Equal(t, 0, s.users.Len())

	_, err := os.Stat(s.usersPath)
	assert.True(t, os.IsNotExist(err))
}

func TestGroupsHaveNoDelete(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(http.MethodDelete, "/scim/v2/Groups/x", "", testSecret)
	assert.NotEqual(t, http.StatusOK, rr.Code)
}

func TestUIPagesAreUnauthenticated(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(http.MethodPost, "/scim/v2/Users", `{"userName":"carol"}`, testSecret)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = s.do(http.MethodGet, "/ui/users", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "carol")

	rr = s.do(http.MethodGet, "/ui/groups", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestDocsJSON(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(http.MethodGet, "/docs/doc.json", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
	assert.Equal(t, BasePath, doc["basePath"])
}
