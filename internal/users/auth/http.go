// Copyright (c) 2026 KKM Registry. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/kkm-registry/internal/platform/apperr"
	"github.com/taibuivan/kkm-registry/internal/platform/authz"
	"github.com/taibuivan/kkm-registry/internal/platform/constants"
	requestutil "github.com/taibuivan/kkm-registry/internal/platform/request"
	"github.com/taibuivan/kkm-registry/internal/platform/respond"
	"github.com/taibuivan/kkm-registry/internal/platform/sec"
)

// # Definitions & Constructors

// Handler implements the credential HTTP endpoints.
type Handler struct {
	authService *Service
	cookies     *sec.CookieSigner
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service, cookies *sec.CookieSigner) *Handler {
	return &Handler{authService: service, cookies: cookies}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST   /register  : Creates an account and signs it in.
//   - POST   /login     : Authenticates and returns an access token.
//   - GET    /rehydrate : Resumes a session from the bearer token or refresh cookie.
//   - DELETE /logout    : Clears the refresh cookie.
func (handler *Handler) Routes(authorize func(http.Handler) http.Handler) chi.Router {
	router := chi.NewRouter()

	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Delete("/logout", handler.logout)

	router.With(authorize).Get("/rehydrate", handler.rehydrate)

	return router
}

// # Request/Response Payloads

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	AccessToken string          `json:"access_token"`
	AuthUser    *authz.Identity `json:"auth_user"`
}

/*
register handles the creation of a new account.

POST /api/v1/auth/register

Response:
  - 200: {access_token, auth_user} and the refresh_token cookie
  - 401: Missing Credentials, Invalid Email or User already exists
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Register(request.Context(), RegisterInput(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.writeSession(writer, request, session)
}

/*
login authenticates a member.

POST /api/v1/auth/login

Response:
  - 200: {access_token, auth_user} and the refresh_token cookie
  - 401: Email or Password is incorrect
  - 429: Too many failed attempts for this email
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.writeSession(writer, request, session)
}

/*
rehydrate returns the authorized context produced by the gate, including a
renewed access token when the refresh path ran.

GET /api/v1/auth/rehydrate
*/
func (handler *Handler) rehydrate(writer http.ResponseWriter, request *http.Request) {
	authorized, err := requestutil.RequiredAuthorized(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Payload(writer, authorized)
}

/*
logout clears the refresh cookie. Tokens already issued stay valid until they expire.

DELETE /api/v1/auth/logout
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	handler.cookies.ClearRefreshToken(writer)
	respond.Payload(writer, map[string]string{constants.FieldMessage: msgLoggedOut})
}

func (handler *Handler) writeSession(writer http.ResponseWriter, request *http.Request, session *Session) {
	if err := handler.cookies.SetRefreshToken(writer, session.RefreshToken); err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	respond.Payload(writer, sessionResponse{AccessToken: session.AccessToken, AuthUser: session.User})
}
