package api

import (
	"net/http"
	"path"

	"github.com/EO-DataHub/eodhp-scim-services/api/handlers"
	"github.com/EO-DataHub/eodhp-scim-services/api/middleware"
	"github.com/EO-DataHub/eodhp-scim-services/api/services"
	"github.com/EO-DataHub/eodhp-scim-services/docs"
	"github.com/gorilla/mux"

	httpSwagger "github.com/swaggo/http-swagger"
)

// BasePath prefixes every SCIM route.
const BasePath = "/scim/v2"

const defaultDocsPath = "/docs"

// NewRouter registers the SCIM API, the HTML views and the API docs.
func NewRouter(svc *services.Service, secret string) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.WithLogger)

	// SCIM routes all require the bearer token
	api := r.PathPrefix(BasePath).Subrouter()
	api.Use(middleware.BearerTokenMiddleware(secret))

	api.HandleFunc("/Users", handlers.ListUsers(svc)).Methods(http.MethodGet)
	api.HandleFunc("/Users", handlers.CreateUser(svc)).Methods(http.MethodPost)
	api.HandleFunc("/Users/{id}", handlers.DeleteUser(svc)).Methods(http.MethodDelete)
	api.HandleFunc("/Groups", handlers.ListGroups(svc)).Methods(http.MethodGet)
	api.HandleFunc("/Groups", handlers.CreateGroup(svc)).Methods(http.MethodPost)

	// Read-only views
	r.HandleFunc("/ui/users", handlers.UsersPage(svc)).Methods(http.MethodGet)
	r.HandleFunc("/ui/groups", handlers.GroupsPage(svc)).Methods(http.MethodGet)

	// Docs
	docsPath := defaultDocsPath
	if svc.Config != nil && svc.Config.DocsPath != "" {
		docsPath = svc.Config.DocsPath
	}
	docs.SwaggerInfo.BasePath = BasePath
	r.PathPrefix(docsPath).Handler(httpSwagger.Handler(
		httpSwagger.URL(path.Join(docsPath, "/doc.json")),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	)).Methods(http.MethodGet)

	return r
}
