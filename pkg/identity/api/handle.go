package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/jinzhu/copier"

	"github.com/commercegrid/identity-service/pkg/errors"
	"github.com/commercegrid/identity-service/pkg/identity"
	"github.com/commercegrid/identity-service/pkg/rbac"
)

// Handler exposes the identity lifecycle over HTTP
type Handler struct {
	service   *identity.Service
	tokenAuth *jwtauth.JWTAuth
}

// NewHandler creates a new identity API handler. tokenAuth must be built
// from the same secret and algorithm the token service signs with.
func NewHandler(service *identity.Service, tokenAuth *jwtauth.JWTAuth) *Handler {
	return &Handler{
		service:   service,
		tokenAuth: tokenAuth,
	}
}

// Routes registers the identity routes
func (h *Handler) Routes(r chi.Router) {
	// Public endpoints
	r.Post("/register", h.Register)
	r.Post("/verify", h.Verify)
	r.Post("/resend", h.Resend)
	r.Post("/login", h.Login)

	// Protected endpoints: the jwtauth middleware rejects requests
	// without a verifiable bearer token before the handlers run; the
	// handlers then resolve the live user through the service.
	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(h.tokenAuth))
		r.Use(jwtauth.Authenticator(h.tokenAuth))

		r.Get("/me", h.Me)
		r.Put("/change-role", h.ChangeRole)
		r.Get("/users", h.ListUsers)
	})
}

// Register handles POST /register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}

	result, err := h.service.Register(r.Context(), identity.RegisterParams{
		DisplayName:     req.DisplayName,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toUserResponse(result.User))
}

// Verify handles POST /verify
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}
	if req.Email == "" || req.Code == "" {
		badRequest(w, r, "email and code are required")
		return
	}

	if err := h.service.VerifyEmail(r.Context(), req.Email, req.Code); err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, VerifyResponse{Message: "email verified"})
}

// Resend handles POST /resend
func (h *Handler) Resend(w http.ResponseWriter, r *http.Request) {
	var req ResendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}
	if req.Email == "" {
		badRequest(w, r, "email is required")
		return
	}

	result, err := h.service.ResendCode(r.Context(), req.Email)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, ResendResponse{
		AlreadyVerified: result.AlreadyVerified,
		Code:            result.Code,
	})
}

// Login handles POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		ExpiresAt:   result.ExpiresAt,
	})
}

// Me handles GET /me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, toUserResponse(user.View()))
}

// ChangeRole handles PUT /change-role. Admin only.
func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	caller, err := h.currentUser(r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	var req ChangeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}

	view, err := h.service.ChangeRole(r.Context(), caller.Role, req.Email, req.Role)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, ChangeRoleResponse{
		Message: "role updated",
		User:    toUserResponse(view),
	})
}

// ListUsers handles GET /users. Admin only.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	caller, err := h.currentUser(r)
	if err != nil {
		renderError(w, r, err)
		return
	}
	if err := rbac.RequireRole(caller.Role, rbac.RoleAdmin); err != nil {
		renderError(w, r, err)
		return
	}

	views, err := h.service.ListUsers(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}

	out := make([]UserResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toUserResponse(v))
	}
	render.JSON(w, r, out)
}

// currentUser resolves the live user record from the request's bearer
// token. The jwtauth middleware has already checked the signature; the
// service re-verifies and resolves the subject so the returned role is
// the stored one, not the one embedded in the token.
func (h *Handler) currentUser(r *http.Request) (identity.User, error) {
	tokenStr := jwtauth.TokenFromHeader(r)
	if tokenStr == "" {
		return identity.User{}, errors.New(errors.ErrCodeTokenInvalid, "missing bearer token")
	}
	return h.service.Authenticate(r.Context(), tokenStr)
}

func toUserResponse(view identity.UserView) UserResponse {
	var resp UserResponse
	if err := copier.Copy(&resp, &view); err != nil {
		slog.Error("Failed to map user view", "err", err)
	}
	resp.Role = view.Role.String()
	return resp
}

func badRequest(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, ErrorResponse{Code: string(errors.ErrCodeInvalidInput), Message: message})
}

// renderError maps a coded error to its HTTP status. Internal errors are
// logged with full detail server-side and surfaced as a generic failure.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := errors.MapErrorCodeToHTTPStatus(code)

	message := err.Error()
	if code == errors.ErrCodeInternal {
		slog.Error("Internal error", "path", r.URL.Path, "err", err)
		message = "internal error"
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Code: string(code), Message: message})
}
