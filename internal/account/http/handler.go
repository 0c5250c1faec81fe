package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dwikikusuma/techstore/internal/account/app"
	"github.com/dwikikusuma/techstore/internal/account/domain"
	"github.com/dwikikusuma/techstore/internal/session"
	"github.com/dwikikusuma/techstore/pkg/apperr"
	"github.com/dwikikusuma/techstore/pkg/httpx"
	"github.com/go-chi/chi/v5"
)

// CartDiscarder drops the cart of a session that is logging out.
type CartDiscarder interface {
	Discard(ctx context.Context, sessionID string) error
}

type Handler struct {
	log      *slog.Logger
	service  *app.Service
	sessions *session.Manager
	carts    CartDiscarder
}

func NewHandler(log *slog.Logger, service *app.Service, sessions *session.Manager, carts CartDiscarder) *Handler {
	return &Handler{log: log, service: service, sessions: sessions, carts: carts}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.Get("/status", h.status)
	return r
}

type registerReq struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserDTO struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
}

type authResp struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	User    UserDTO `json:"user"`
}

type statusResp struct {
	LoggedIn bool   `json:"loggedIn"`
	UserID   int64  `json:"userId,omitempty"`
	Email    string `json:"email,omitempty"`
}

func toUserDTO(u domain.User) UserDTO {
	return UserDTO{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, CreatedAt: u.CreatedAt}
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	u, err := h.service.Register(r.Context(), domain.Registration{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if !h.bind(w, r, u) {
		return
	}

	h.log.Info("user registered", "user_id", u.ID)
	httpx.WriteJSON(w, http.StatusCreated, authResp{Success: true, Message: "Registration successful", User: toUserDTO(u)})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	u, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if !h.bind(w, r, u) {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authResp{Success: true, Message: "Login successful", User: toUserDTO(u)})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, apperr.ErrUnauthorized)
		return
	}
	if err := h.carts.Discard(r.Context(), sess.ID); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.sessions.Destroy(r.Context(), w, sess); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logged out"})
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	httpx.WriteJSON(w, http.StatusOK, statusResp{LoggedIn: sess.LoggedIn(), UserID: sess.UserID, Email: sess.Email})
}

func (h *Handler) bind(w http.ResponseWriter, r *http.Request, u domain.User) bool {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, apperr.ErrUnauthorized)
		return false
	}
	if _, err := h.sessions.Bind(r.Context(), sess, u.ID, u.Email); err != nil {
		httpx.WriteError(w, r, err)
		return false
	}
	return true
}
