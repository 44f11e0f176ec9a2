// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/kkm-registry/internal/platform/apperr"
	"github.com/taibuivan/kkm-registry/internal/platform/authz"
	requestutil "github.com/taibuivan/kkm-registry/internal/platform/request"
	"github.com/taibuivan/kkm-registry/internal/platform/respond"
	"github.com/taibuivan/kkm-registry/pkg/pagination"
)

// Handler implements the HTTP layer for member profiles.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with the profile endpoints.
// The caller mounts it behind the authorization gate.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listUsers)
	router.Get("/{userId}", handler.getUser)
	router.Patch("/{userId}", handler.updateUser)

	return router
}

type listResponse struct {
	Authorized *authz.Authorized `json:"authorized"`
	Users      []authz.Identity  `json:"users"`
	HasMore    bool              `json:"hasMore"`
}

type userResponse struct {
	Authorized *authz.Authorized `json:"authorized"`
	User       *authz.Identity   `json:"user"`
}

/*
listUsers returns the member directory.

GET /api/v1/users?email=&name=&last_email=&limit=

Response:
  - 200: {authorized, users, hasMore}
  - 403: Caller is not an admin
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	authorized, err := requestutil.RequiredAuthorized(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// The query string is only parsed for admins, so others get 403 whatever they sent.
	if !authz.IsAdmin(authorized) {
		respond.Error(writer, request, apperr.NotAuthorized())
		return
	}

	page, err := pagination.FromRequest(request, CursorLastEmail)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	query := request.URL.Query()
	users, hasMore, err := handler.accountService.List(request.Context(), authorized, ListFilter{
		Email: query.Get("email"),
		Name:  query.Get("name"),
		Page:  page,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if users == nil {
		users = []authz.Identity{}
	}

	respond.Payload(writer, listResponse{Authorized: authorized, Users: users, HasMore: hasMore})
}

/*
getUser returns one profile.

GET /api/v1/users/{userId}

Response:
  - 200: {authorized, user}
  - 403: Caller is neither admin nor the owner
  - 404: Cannot find user
*/
func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
	authorized, err := requestutil.RequiredAuthorized(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.Get(request.Context(), authorized, requestutil.Param(request, "userId"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Payload(writer, userResponse{Authorized: authorized, User: user})
}

/*
updateUser applies a partial profile update.

PATCH /api/v1/users/{userId}

Response:
  - 200: {authorized, user}
  - 403: Not the owner, or a non-admin tried to change a role
  - 406: Nothing to update
*/
func (handler *Handler) updateUser(writer http.ResponseWriter, request *http.Request) {
	authorized, err := requestutil.RequiredAuthorized(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var update ProfileUpdate
	if err := requestutil.DecodeJSON(request, &update); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.Update(request.Context(), authorized, requestutil.Param(request, "userId"), update)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Payload(writer, userResponse{Authorized: authorized, User: user})
}
