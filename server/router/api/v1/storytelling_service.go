package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lanternworks/lanternworks/ai/storytelling"
	"github.com/lanternworks/lanternworks/internal/profile"
	"github.com/lanternworks/lanternworks/server/auth"
	"github.com/lanternworks/lanternworks/store"
)

type StorytellingService struct {
	Profile *profile.Profile
	Store   *store.Store
	Engine  *storytelling.Engine
}

// ListProjects returns the tenant's book projects, newest first.
func (s *StorytellingService) ListProjects(c echo.Context) error {
	client, err := s.resolveClient(c, c.QueryParam("slug"))
	if err != nil {
		return err
	}

	projects, err := s.Store.ListBookProjects(c.Request().Context(), &store.FindBookProject{ClientID: &client.ID})
	if err != nil {
		slog.Error("failed to list book projects", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch projects")
	}
	return c.JSON(http.StatusOK, map[string]any{"projects": projects})
}

type createProjectRequest struct {
	Slug         string `json:"slug"`
	Title        string `json:"title"`
	SubjectName  string `json:"subjectName"`
	TargetAge    string `json:"targetAge"`
	ArtStyle     string `json:"artStyle"`
	AncestryData string `json:"ancestryData"`
	OralHistory  string `json:"oralHistory"`
}

// CreateProject creates a book project and runs the story architect once
// to plan its chapter outline. The outline never changes afterwards.
func (s *StorytellingService) CreateProject(c echo.Context) error {
	var req createProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}

	client, err := s.resolveClient(c, req.Slug)
	if err != nil {
		return err
	}
	if req.Title == "" || req.SubjectName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title and subjectName are required")
	}
	if s.Engine == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "model pipelines are not configured")
	}

	ctx := c.Request().Context()
	project := &store.BookProject{
		ClientID:     client.ID,
		Title:        req.Title,
		SubjectName:  req.SubjectName,
		TargetAge:    req.TargetAge,
		ArtStyle:     req.ArtStyle,
		AncestryData: req.AncestryData,
		OralHistory:  req.OralHistory,
	}

	outline, err := s.Engine.GenerateOutline(ctx, project)
	if err != nil {
		slog.Error("story architect failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate book outline")
	}
	project.ChapterOutline = outline

	created, err := s.Store.CreateBookProject(ctx, project)
	if err != nil {
		slog.Error("failed to create book project", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create project")
	}
	return c.JSON(http.StatusOK, map[string]string{"id": created.ID})
}

// GetWorkspace returns a project and its chapters, ordered by chapter
// number. The project must belong to the session's tenant.
func (s *StorytellingService) GetWorkspace(c echo.Context) error {
	session := auth.GetSession(c)
	if session == nil || !session.Has(auth.CapabilityStorytelling) {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	ctx := c.Request().Context()
	project, err := s.Store.GetBookProject(ctx, c.Param("projectId"))
	if err != nil {
		slog.Error("failed to fetch book project", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch project")
	}
	if project == nil {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}

	client, err := s.Store.GetClientBySlug(ctx, session.Slug)
	if err != nil || client == nil || project.ClientID != client.ID {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	chapters, err := s.Store.ListBookChapters(ctx, &store.FindBookChapter{ProjectID: &project.ID})
	if err != nil {
		slog.Error("failed to list chapters", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch chapters")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"project":  project,
		"chapters": chapters,
	})
}

type runChapterRequest struct {
	Slug          string `json:"slug"`
	ProjectID     string `json:"projectId"`
	ChapterNumber int    `json:"chapterNumber"`
	Feedback      string `json:"feedback"`
}

// RunChapter generates or regenerates one chapter.
func (s *StorytellingService) RunChapter(c echo.Context) error {
	var req runChapterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}

	client, err := s.resolveClient(c, req.Slug)
	if err != nil {
		return err
	}
	if req.ProjectID == "" || req.ChapterNumber < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "projectId and chapterNumber are required")
	}
	if s.Engine == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "model pipelines are not configured")
	}

	ctx := c.Request().Context()
	project, err := s.Store.GetBookProject(ctx, req.ProjectID)
	if err != nil {
		slog.Error("failed to fetch book project", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate chapter")
	}
	if project == nil || project.ClientID != client.ID {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}

	result, err := s.Engine.GenerateChapter(ctx, &storytelling.ChapterRequest{
		ProjectID:     req.ProjectID,
		ChapterNumber: req.ChapterNumber,
		Feedback:      req.Feedback,
	})
	if err != nil {
		if errors.Is(err, storytelling.ErrChapterApproved) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "not found")
		}
		slog.Error("chapter generation failed", "project", req.ProjectID, "chapter", req.ChapterNumber, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate chapter")
	}
	return c.JSON(http.StatusOK, result)
}

type chapterStatusRequest struct {
	Slug      string `json:"slug"`
	ChapterID string `json:"chapterId"`
	Status    string `json:"status"`
	Feedback  string `json:"feedback"`
}

// UpdateChapterStatus applies an approval-lifecycle transition to a
// chapter. Illegal transitions are rejected by the store.
func (s *StorytellingService) UpdateChapterStatus(c echo.Context) error {
	var req chapterStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}

	if _, err := s.resolveClient(c, req.Slug); err != nil {
		return err
	}
	if req.ChapterID == "" || req.Status == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "chapterId and status are required")
	}

	var feedback *string
	if req.Feedback != "" {
		feedback = &req.Feedback
	}

	err := s.Store.UpdateBookChapterStatus(c.Request().Context(), req.ChapterID, store.BookChapterStatus(req.Status), feedback)
	if err != nil {
		if errors.Is(err, store.ErrInvalidTransition) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "not found")
		}
		slog.Error("failed to update chapter status", "chapter", req.ChapterID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update chapter")
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (s *StorytellingService) resolveClient(c echo.Context, slug string) (*store.Client, error) {
	session, err := sessionWithCapability(c, slug, auth.CapabilityStorytelling)
	if err != nil {
		return nil, err
	}
	client, lookupErr := s.Store.GetClientBySlug(c.Request().Context(), session.Slug)
	if lookupErr != nil {
		slog.Error("tenant lookup failed", "error", lookupErr)
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	if client == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	return client, nil
}
