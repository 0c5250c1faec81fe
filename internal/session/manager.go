package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dwikikusuma/techstore/pkg/httpx"
	"github.com/dwikikusuma/techstore/pkg/logger"
	"github.com/google/uuid"
)

// HeaderName lets non-browser clients carry the session token without cookies.
const HeaderName = "X-Session-Token"

// Toucher is per-session state whose expiry follows the session's.
type Toucher interface {
	Touch(ctx context.Context, sessionID string) error
}

type Manager struct {
	store   Store
	tokens  *Tokens
	cookie  string
	ttl     time.Duration
	now     func() time.Time
	touched []Toucher
}

type Option func(*Manager)

// WithTouch refreshes t every time a request refreshes the session.
func WithTouch(t Toucher) Option {
	return func(m *Manager) { m.touched = append(m.touched, t) }
}

func NewManager(store Store, tokens *Tokens, cookie string, ttl time.Duration, opts ...Option) *Manager {
	m := &Manager{store: store, tokens: tokens, cookie: cookie, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Middleware resolves the caller's session, creating one when the token is
// missing, forged or expired, and refreshes its expiry.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.resolve(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := m.store.Put(r.Context(), sess); err != nil {
			httpx.WriteError(w, r, fmt.Errorf("save session: %w", err))
			return
		}
		for _, t := range m.touched {
			if err := t.Touch(r.Context(), sess.ID); err != nil {
				httpx.WriteError(w, r, fmt.Errorf("refresh session state: %w", err))
				return
			}
		}
		if err := m.writeToken(w, sess.ID); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		ctx := WithContext(r.Context(), sess)
		ctx = logger.WithContext(ctx, logger.FromContext(ctx).With("session_id", sess.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Manager) resolve(r *http.Request) (Session, error) {
	raw := r.Header.Get(HeaderName)
	if raw == "" {
		if c, err := r.Cookie(m.cookie); err == nil {
			raw = c.Value
		}
	}

	if raw != "" {
		if id, err := m.tokens.Parse(raw); err == nil {
			sess, err := m.store.Get(r.Context(), id)
			if err == nil {
				return sess, nil
			}
			if !errors.Is(err, ErrNotFound) {
				return Session{}, err
			}
		}
	}

	return Session{ID: uuid.NewString(), CreatedAt: m.now().UTC()}, nil
}

func (m *Manager) writeToken(w http.ResponseWriter, id string) error {
	token, err := m.tokens.Issue(id, m.now())
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set(HeaderName, token)
	return nil
}

// Bind attaches a user to the session and returns the updated session.
func (m *Manager) Bind(ctx context.Context, sess Session, userID int64, email string) (Session, error) {
	sess.UserID = userID
	sess.Email = email
	if err := m.store.Put(ctx, sess); err != nil {
		return Session{}, fmt.Errorf("bind session: %w", err)
	}
	return sess, nil
}

// Destroy expires the session and clears the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, sess Session) error {
	if err := m.store.Expire(ctx, sess.ID); err != nil {
		return fmt.Errorf("expire session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Del(HeaderName)
	return nil
}
