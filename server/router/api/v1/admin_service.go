package v1

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"sort"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/lanternworks/lanternworks/internal/profile"
	"github.com/lanternworks/lanternworks/server/auth"
	"github.com/lanternworks/lanternworks/store"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

type AdminService struct {
	Profile *profile.Profile
	Store   *store.Store
}

type adminValidateRequest struct {
	Password string `json:"password"`
}

// Validate checks the admin password and issues the admin session cookie.
// The comparison runs over fixed-length digests so response timing leaks
// nothing about the configured password.
func (s *AdminService) Validate(c echo.Context) error {
	var req adminValidateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	if s.Profile.AdminPassword == "" || req.Password == "" || !auth.SafeCompare(req.Password, s.Profile.AdminPassword) {
		return echo.NewHTTPError(http.StatusUnauthorized, "incorrect password")
	}
	auth.SetAdminSession(c, !s.Profile.IsDev())
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func requireAdmin(c echo.Context) error {
	if !auth.IsAdmin(c) {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return nil
}

type clientView struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	CreatedTs int64  `json:"createdTs"`
}

// ListClients returns all tenants, newest first.
func (s *AdminService) ListClients(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}

	clients, err := s.Store.ListClients(c.Request().Context(), &store.FindClient{})
	if err != nil {
		slog.Error("failed to list clients", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch clients")
	}

	views := make([]clientView, 0, len(clients))
	for _, cl := range clients {
		views = append(views, clientView{ID: cl.ID, Slug: cl.Slug, Name: cl.Name, CreatedTs: cl.CreatedTs})
	}
	return c.JSON(http.StatusOK, map[string]any{"clients": views})
}

type createClientRequest struct {
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	AccessCode string `json:"accessCode"`
}

type createClientResponse struct {
	clientView
	// AccessCode is the plaintext code, returned exactly once. Only the
	// bcrypt hash is stored.
	AccessCode string `json:"accessCode"`
}

// CreateClient provisions a new tenant.
func (s *AdminService) CreateClient(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}

	var req createClientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	if req.Name == "" || req.Slug == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name and slug are required")
	}
	if !slugPattern.MatchString(req.Slug) {
		return echo.NewHTTPError(http.StatusBadRequest, "slug must contain only lowercase letters, numbers, and hyphens")
	}

	ctx := c.Request().Context()
	existing, err := s.Store.GetClientBySlug(ctx, req.Slug)
	if err != nil {
		slog.Error("failed to check slug uniqueness", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create client")
	}
	if existing != nil {
		return echo.NewHTTPError(http.StatusConflict, "a client with this slug already exists")
	}

	plainCode := req.AccessCode
	if plainCode == "" {
		plainCode = auth.GenerateAccessCode()
	}
	hashed, err := auth.HashAccessCode(plainCode)
	if err != nil {
		slog.Error("failed to hash access code", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create client")
	}

	created, err := s.Store.CreateClient(ctx, &store.Client{
		Slug:       req.Slug,
		Name:       req.Name,
		AccessCode: hashed,
	})
	if err != nil {
		slog.Error("failed to create client", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create client")
	}

	return c.JSON(http.StatusOK, createClientResponse{
		clientView: clientView{ID: created.ID, Slug: created.Slug, Name: created.Name, CreatedTs: created.CreatedTs},
		AccessCode: plainCode,
	})
}

type tenantStats struct {
	clientView
	WorkflowRuns int   `json:"workflowRuns"`
	BookProjects int   `json:"bookProjects"`
	LastActiveTs int64 `json:"lastActiveTs"`
}

type activityItem struct {
	Type       string `json:"type"` // workflow_run or book_project
	ClientSlug string `json:"clientSlug"`
	Title      string `json:"title"`
	CreatedTs  int64  `json:"createdTs"`
}

const recentActivityLimit = 10

// Stats returns per-tenant usage counts for the dashboard. Tenants are
// queried concurrently; one failing tenant fails the whole request, the
// dashboard retries rather than rendering partial numbers.
func (s *AdminService) Stats(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}

	ctx := c.Request().Context()
	clients, err := s.Store.ListClients(ctx, &store.FindClient{})
	if err != nil {
		slog.Error("failed to list clients for stats", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch stats")
	}

	stats := make([]tenantStats, len(clients))
	activity := make([][]activityItem, len(clients))
	g, gctx := errgroup.WithContext(ctx)
	for i, cl := range clients {
		i, cl := i, cl
		g.Go(func() error {
			st, items, err := s.tenantStats(gctx, cl)
			if err != nil {
				return err
			}
			stats[i] = *st
			activity[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("failed to assemble tenant stats", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch stats")
	}

	recent := make([]activityItem, 0)
	for _, items := range activity {
		recent = append(recent, items...)
	}
	sort.Slice(recent, func(i, j int) bool { return recent[i].CreatedTs > recent[j].CreatedTs })
	if len(recent) > recentActivityLimit {
		recent = recent[:recentActivityLimit]
	}

	return c.JSON(http.StatusOK, map[string]any{"tenants": stats, "recentActivity": recent})
}

func (s *AdminService) tenantStats(ctx context.Context, cl *store.Client) (*tenantStats, []activityItem, error) {
	runs, err := s.Store.ListWorkflowRuns(ctx, &store.FindWorkflowRun{ClientID: &cl.ID})
	if err != nil {
		return nil, nil, err
	}
	projects, err := s.Store.ListBookProjects(ctx, &store.FindBookProject{ClientID: &cl.ID})
	if err != nil {
		return nil, nil, err
	}

	lastActive := int64(0)
	items := make([]activityItem, 0, len(runs)+len(projects))
	for _, r := range runs {
		if r.CreatedTs > lastActive {
			lastActive = r.CreatedTs
		}
		items = append(items, activityItem{Type: "workflow_run", ClientSlug: cl.Slug, Title: r.Context, CreatedTs: r.CreatedTs})
	}
	for _, p := range projects {
		if p.CreatedTs > lastActive {
			lastActive = p.CreatedTs
		}
		items = append(items, activityItem{Type: "book_project", ClientSlug: cl.Slug, Title: p.Title, CreatedTs: p.CreatedTs})
	}

	return &tenantStats{
		clientView:   clientView{ID: cl.ID, Slug: cl.Slug, Name: cl.Name, CreatedTs: cl.CreatedTs},
		WorkflowRuns: len(runs),
		BookProjects: len(projects),
		LastActiveTs: lastActive,
	}, items, nil
}
