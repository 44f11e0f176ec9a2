// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package membership

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/kkm-registry/internal/platform/apperr"
	"github.com/taibuivan/kkm-registry/internal/platform/authz"
	requestutil "github.com/taibuivan/kkm-registry/internal/platform/request"
	"github.com/taibuivan/kkm-registry/internal/platform/respond"
	"github.com/taibuivan/kkm-registry/pkg/pagination"
	"github.com/taibuivan/kkm-registry/pkg/uuid"
)

// Handler implements the HTTP layer for membership requests.
type Handler struct {
	membershipService *Service
}

// NewHandler constructs a new membership [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{membershipService: service}
}

// Routes returns a [chi.Router] for the membership endpoints.
// The caller mounts it behind the authorization gate.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", handler.requestMembership)
	router.Get("/", handler.listMemberships)

	return router
}

type requestResponse struct {
	Authorized  *authz.Authorized `json:"authorized"`
	Status      Status            `json:"user_membership_status"`
	RequestedOn time.Time         `json:"user_membership_requested_on"`
}

type listResponse struct {
	Authorized  *authz.Authorized `json:"authorized"`
	Memberships []Entry           `json:"memberships"`
	HasMore     bool              `json:"hasMore"`
}

/*
requestMembership files a request for the caller.

POST /api/v1/memberships

Response:
  - 200: {authorized, user_membership_status, user_membership_requested_on}
  - 409: A request is already pending
*/
func (handler *Handler) requestMembership(writer http.ResponseWriter, request *http.Request) {
	authorized, err := requestutil.RequiredAuthorized(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	membership, err := handler.membershipService.Request(request.Context(), authorized)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Payload(writer, requestResponse{
		Authorized:  authorized,
		Status:      membership.Status,
		RequestedOn: membership.RequestedOn,
	})
}

/*
listMemberships returns the request queue, oldest first.

GET /api/v1/memberships?email=&name=&status=&last_requested_on=&last_membership_id=&limit=

Response:
  - 200: {authorized, memberships, hasMore}
  - 400: Malformed limit or cursor
  - 403: Caller is not an admin
*/
func (handler *Handler) listMemberships(writer http.ResponseWriter, request *http.Request) {
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

	page, err := pagination.FromRequest(request, CursorLastRequestedOn)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	filter := ListFilter{
		Email:  request.URL.Query().Get("email"),
		Name:   request.URL.Query().Get("name"),
		Status: request.URL.Query().Get("status"),
		Limit:  page.Limit,
	}

	if page.After != "" {
		after, err := time.Parse(time.RFC3339Nano, page.After)
		if err != nil {
			respond.Error(writer, request, apperr.BadRequest("Invalid cursor",
				apperr.FieldError{Field: CursorLastRequestedOn, Message: "Must be an RFC 3339 timestamp"}))
			return
		}
		filter.After = &after
	}

	if lastID := request.URL.Query().Get(CursorLastMembershipID); lastID != "" {
		canonical, ok := uuid.Canonical(lastID)
		if !ok || filter.After == nil {
			respond.Error(writer, request, apperr.BadRequest("Invalid cursor",
				apperr.FieldError{Field: CursorLastMembershipID, Message: "Must be a UUID sent with " + CursorLastRequestedOn}))
			return
		}
		filter.AfterID = canonical
	}

	entries, hasMore, err := handler.membershipService.List(request.Context(), authorized, filter)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if entries == nil {
		entries = []Entry{}
	}

	respond.Payload(writer, listResponse{Authorized: authorized, Memberships: entries, HasMore: hasMore})
}
