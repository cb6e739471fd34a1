// Package auth implements the portal's session record and credential
// checks. A session is one tenant slug plus the set of granted demo
// capabilities, carried in a single HTTP cookie and passed by value
// through the handlers.
package auth

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/labstack/echo/v4"
)

// Capability names a demo surface a session may use.
type Capability string

const (
	CapabilityClientPrep   Capability = "client-prep"
	CapabilityStorytelling Capability = "storytelling"
)

const (
	sessionCookieName = "session"
	adminCookieName   = "admin_session"
	sessionMaxAge     = 7 * 24 * time.Hour
)

// Session identifies a validated tenant and what it may do.
type Session struct {
	Slug         string       `json:"slug"`
	Capabilities []Capability `json:"capabilities"`
}

// Has reports whether the session carries a capability.
func (s *Session) Has(capability Capability) bool {
	if s == nil {
		return false
	}
	return slices.Contains(s.Capabilities, capability)
}

// Grant adds a capability if not already present.
func (s *Session) Grant(capability Capability) {
	if !s.Has(capability) {
		s.Capabilities = append(s.Capabilities, capability)
	}
}

// SetSession writes the session cookie. The record carries only the slug
// and capability set, never the access code.
func SetSession(c echo.Context, session *Session, secure bool) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    base64.URLEncoding.EncodeToString(payload),
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// GetSession decodes the session cookie. A missing or malformed cookie
// yields nil, callers treat that as unauthenticated.
func GetSession(c echo.Context) *Session {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	payload, err := base64.URLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var session Session
	if err := json.Unmarshal(payload, &session); err != nil || session.Slug == "" {
		return nil
	}
	return &session
}

// ClearSession expires the session cookie.
func ClearSession(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// SetAdminSession marks the requester as an authenticated admin.
func SetAdminSession(c echo.Context, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     adminCookieName,
		Value:    "1",
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// IsAdmin reports whether the requester carries the admin session cookie.
func IsAdmin(c echo.Context) bool {
	cookie, err := c.Cookie(adminCookieName)
	return err == nil && cookie.Value != ""
}
