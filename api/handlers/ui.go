package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/EO-DataHub/eodhp-scim-services/api/services"
	"github.com/rs/zerolog"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.gohtml"))

type pageData struct {
	Title        string
	LabelHeading string
	Rows         []resourceRow
}

// UsersPage renders all users as an HTML table.
func UsersPage(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		renderPage(w, r, "users.gohtml", pageData{
			Title:        "Users",
			LabelHeading: "User name",
			Rows:         toRows(svc.Users.List(), "userName"),
		})
	}
}

// GroupsPage renders all groups as an HTML table.
func GroupsPage(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		renderPage(w, r, "groups.gohtml", pageData{
			Title:        "Groups",
			LabelHeading: "Display name",
			Rows:         toRows(svc.Groups.List(), "displayName"),
		})
	}
}

func renderPage(w http.ResponseWriter, r *http.Request, name string, data pageData) {
	logger := zerolog.Ctx(r.Context())

	// Render fully before writing so a template error can still become a 500
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		logger.Error().Err(err).Str("template", name).Msg("Failed to render page")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "max-age=0")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
