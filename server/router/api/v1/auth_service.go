package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lanternworks/lanternworks/internal/profile"
	"github.com/lanternworks/lanternworks/server/auth"
	"github.com/lanternworks/lanternworks/store"
)

type AuthService struct {
	Profile *profile.Profile
	Store   *store.Store
}

type validateAccessRequest struct {
	Slug string `json:"slug"`
	Code string `json:"code"`
}

// ValidateAccess checks a tenant access code and issues the session
// cookie. Unknown slugs and wrong codes return the same error so the
// endpoint does not reveal which tenants exist.
func (s *AuthService) ValidateAccess(c echo.Context) error {
	var req validateAccessRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	if req.Slug == "" || req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "slug and code are required")
	}

	client, err := s.Store.GetClientBySlug(c.Request().Context(), req.Slug)
	if err != nil {
		slog.Error("access validation lookup failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	if client == nil || !auth.VerifyAccessCode(req.Code, client.AccessCode) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid access code")
	}

	// A valid access code grants both demo surfaces.
	session := &auth.Session{
		Slug:         client.Slug,
		Capabilities: []auth.Capability{auth.CapabilityClientPrep, auth.CapabilityStorytelling},
	}
	if err := auth.SetSession(c, session, !s.Profile.IsDev()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

type grantCapabilityRequest struct {
	Password   string `json:"password"`
	Capability string `json:"capability"`
}

// GrantCapability adds one demo capability to an existing session after a
// shared-password check. Used when a tenant's code was issued for one
// surface and they later unlock the other.
func (s *AuthService) GrantCapability(c echo.Context) error {
	session := auth.GetSession(c)
	if session == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req grantCapabilityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}

	capability := auth.Capability(req.Capability)
	if capability != auth.CapabilityClientPrep && capability != auth.CapabilityStorytelling {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown capability")
	}
	if s.Profile.WorkflowPassword == "" || !auth.SafeCompare(req.Password, s.Profile.WorkflowPassword) {
		return echo.NewHTTPError(http.StatusUnauthorized, "incorrect password")
	}

	session.Grant(capability)
	if err := auth.SetSession(c, session, !s.Profile.IsDev()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// Logout clears the session cookie.
func (s *AuthService) Logout(c echo.Context) error {
	auth.ClearSession(c)
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// sessionWithCapability resolves the session and required capability for a
// portal route and verifies the requested slug matches the session's.
func sessionWithCapability(c echo.Context, slug string, capability auth.Capability) (*auth.Session, error) {
	session := auth.GetSession(c)
	if session == nil || !session.Has(capability) {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if slug == "" || slug != session.Slug {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return session, nil
}
