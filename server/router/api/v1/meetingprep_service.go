package v1

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/lanternworks/lanternworks/ai/briefing"
	"github.com/lanternworks/lanternworks/internal/profile"
	"github.com/lanternworks/lanternworks/server/auth"
	"github.com/lanternworks/lanternworks/store"
)

// demoDataFiles maps auto-connected source names to their seed export in
// <data>/demo-data. Sources without a file are skipped silently.
var demoDataFiles = map[string]string{
	"Ridgeline":  "ridgeline-portfolio-whitfield.csv",
	"Salesforce": "salesforce-whitfield.txt",
}

type MeetingPrepService struct {
	Profile  *profile.Profile
	Store    *store.Store
	Pipeline *briefing.Pipeline
}

type contactView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Company string `json:"company"`
	Title   string `json:"title"`
}

// ListContacts returns the tenant's saved contact list.
func (s *MeetingPrepService) ListContacts(c echo.Context) error {
	client, err := s.resolveClient(c, c.QueryParam("slug"))
	if err != nil {
		return err
	}

	contacts, err := s.Store.ListContacts(c.Request().Context(), &store.FindContact{ClientID: &client.ID})
	if err != nil {
		slog.Error("failed to list contacts", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch contacts")
	}

	views := make([]contactView, 0, len(contacts))
	for _, ct := range contacts {
		views = append(views, contactView{ID: ct.ID, Name: ct.Name, Company: ct.Company, Title: ct.Title})
	}
	return c.JSON(http.StatusOK, map[string]any{"clients": views})
}

type saveContactsRequest struct {
	Slug     string        `json:"slug"`
	Contacts []contactView `json:"clients"`
}

// SaveContacts replaces the tenant's contact list wholesale, mirroring the
// portal's single-form editing model.
func (s *MeetingPrepService) SaveContacts(c echo.Context) error {
	var req saveContactsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}

	client, err := s.resolveClient(c, req.Slug)
	if err != nil {
		return err
	}

	contacts := make([]*store.Contact, 0, len(req.Contacts))
	for _, ct := range req.Contacts {
		contacts = append(contacts, &store.Contact{ID: ct.ID, Name: ct.Name, Company: ct.Company, Title: ct.Title})
	}
	if err := s.Store.ReplaceContacts(c.Request().Context(), client.ID, contacts); err != nil {
		slog.Error("failed to save contacts", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save contacts")
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

type runWorkflowRequest struct {
	Slug        string                `json:"slug"`
	ClientName  string                `json:"clientName"`
	Company     string                `json:"company"`
	Title       string                `json:"title"`
	Context     string                `json:"context"`
	Attachments []briefing.Attachment `json:"attachments"`
	AutoSources []string              `json:"autoSources"`
}

// RunWorkflow executes the briefing pipeline for one contact. Demo exports
// for auto-connected sources are loaded from the data directory and
// prepended to any manually pasted attachments.
func (s *MeetingPrepService) RunWorkflow(c echo.Context) error {
	var req runWorkflowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}

	if _, err := s.resolveClient(c, req.Slug); err != nil {
		return err
	}
	if req.ClientName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "clientName is required")
	}
	if s.Pipeline == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "model pipelines are not configured")
	}

	attachments := make([]briefing.Attachment, 0, len(req.AutoSources)+len(req.Attachments))
	for _, source := range req.AutoSources {
		content, ok := s.loadDemoData(source)
		if !ok {
			continue
		}
		attachments = append(attachments, briefing.Attachment{Source: source, Content: content})
	}
	attachments = append(attachments, req.Attachments...)

	result, err := s.Pipeline.Run(c.Request().Context(), &briefing.Request{
		ClientName:     req.ClientName,
		Company:        req.Company,
		Title:          req.Title,
		MeetingContext: req.Context,
		Attachments:    attachments,
	})
	if err != nil {
		slog.Error("briefing workflow failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to run workflow")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"keyStats": result.KeyStats,
		"sections": result.Sections,
	})
}

type saveOutputRequest struct {
	Slug           string                 `json:"slug"`
	ContactName    string                 `json:"contactName"`
	ContactCompany string                 `json:"contactCompany"`
	Context        string                 `json:"context"`
	KeyStats       store.KeyStats         `json:"keyStats"`
	Sections       store.BriefingSections `json:"sections"`
}

// SaveOutput persists a completed briefing for later viewing.
func (s *MeetingPrepService) SaveOutput(c echo.Context) error {
	var req saveOutputRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}

	client, err := s.resolveClient(c, req.Slug)
	if err != nil {
		return err
	}
	if req.ContactName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "contactName is required")
	}

	runID, err := s.Store.SaveBriefing(c.Request().Context(), client.ID,
		req.ContactName, req.ContactCompany, req.Context, req.KeyStats, req.Sections)
	if err != nil {
		slog.Error("failed to save briefing output", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save output")
	}
	return c.JSON(http.StatusOK, map[string]string{"id": runID})
}

// ListOutputs returns the tenant's saved briefings, newest first.
func (s *MeetingPrepService) ListOutputs(c echo.Context) error {
	client, err := s.resolveClient(c, c.QueryParam("slug"))
	if err != nil {
		return err
	}

	outputs, err := s.Store.ListWorkflowOutputs(c.Request().Context(), client.ID)
	if err != nil {
		slog.Error("failed to list outputs", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch outputs")
	}
	return c.JSON(http.StatusOK, map[string]any{"outputs": outputs})
}

// GetOutput returns one saved briefing. The view always carries all five
// sections, the store normalizes on read.
func (s *MeetingPrepService) GetOutput(c echo.Context) error {
	session := auth.GetSession(c)
	if session == nil || !session.Has(auth.CapabilityClientPrep) {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	client, err := s.Store.GetClientBySlug(c.Request().Context(), session.Slug)
	if err != nil || client == nil {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}

	output, err := s.Store.GetWorkflowOutput(c.Request().Context(), c.Param("id"))
	if err != nil {
		slog.Error("failed to fetch output", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch output")
	}
	if output == nil {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	return c.JSON(http.StatusOK, output)
}

func (s *MeetingPrepService) resolveClient(c echo.Context, slug string) (*store.Client, error) {
	session, err := sessionWithCapability(c, slug, auth.CapabilityClientPrep)
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

func (s *MeetingPrepService) loadDemoData(source string) (string, bool) {
	filename, ok := demoDataFiles[source]
	if !ok {
		return "", false
	}
	data, err := os.ReadFile(filepath.Join(s.Profile.Data, "demo-data", filename))
	if err != nil {
		return "", false
	}
	return string(data), true
}
