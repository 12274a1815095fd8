package handlers

import (
	"net/http"

	"github.com/EO-DataHub/eodhp-scim-services/api/services"
)

// ListUsers godoc
// @Summary List users
// @Description Return every provisioned user.
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.ListResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /Users [get]
func ListUsers(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.ListResourcesService(svc.Users, w, r)
	}
}

// CreateUser godoc
// @Summary Create a user
// @Description Store a user document. Any id in the body is replaced by a server-generated UUID.
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user body object true "SCIM user"
// @Success 201 {object} object
// @Header 201 {string} Location "URL of the new user"
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /Users [post]
func CreateUser(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.CreateResourceService(svc, svc.Users, w, r)
	}
}

// DeleteUser godoc
// @Summary Delete a user
// @Description Remove a user. Deleting an unknown id succeeds.
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} models.StatusResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /Users/{id} [delete]
func DeleteUser(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.DeleteResourceService(svc, svc.Users, w, r)
	}
}

// ListGroups godoc
// @Summary List groups
// @Description Return every provisioned group.
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.ListResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /Groups [get]
func ListGroups(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.ListResourcesService(svc.Groups, w, r)
	}
}

// CreateGroup godoc
// @Summary Create a group
// @Description Store a group document. Any id in the body is replaced by a server-generated UUID.
// @Tags Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param group body object true "SCIM group"
// @Success 201 {object} object
// @Header 201 {string} Location "URL of the new group"
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /Groups [post]
func CreateGroup(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.CreateResourceService(svc, svc.Groups, w, r)
	}
}
