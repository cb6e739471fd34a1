package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lanternworks/lanternworks/internal/profile"
)

// Sentinel errors callers match with errors.Is to map failures onto HTTP
// statuses.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid chapter status transition")
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// ---------------------------------------------------------------------------
// Clients
// ---------------------------------------------------------------------------

func (s *Store) CreateClient(ctx context.Context, create *Client) (*Client, error) {
	if create.ID == "" {
		create.ID = uuid.NewString()
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	return s.driver.CreateClient(ctx, create)
}

func (s *Store) ListClients(ctx context.Context, find *FindClient) ([]*Client, error) {
	return s.driver.ListClients(ctx, find)
}

// GetClientBySlug returns the tenant with the given slug, or nil when no such
// tenant exists.
func (s *Store) GetClientBySlug(ctx context.Context, slug string) (*Client, error) {
	list, err := s.driver.ListClients(ctx, &FindClient{Slug: &slug})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ---------------------------------------------------------------------------
// Contacts
// ---------------------------------------------------------------------------

func (s *Store) CreateContact(ctx context.Context, create *Contact) (*Contact, error) {
	if create.ID == "" {
		create.ID = uuid.NewString()
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	return s.driver.CreateContact(ctx, create)
}

func (s *Store) ListContacts(ctx context.Context, find *FindContact) ([]*Contact, error) {
	return s.driver.ListContacts(ctx, find)
}

// ReplaceContacts overwrites a tenant's contact list wholesale. The portal
// edits contacts as a single form, so partial updates are not needed.
func (s *Store) ReplaceContacts(ctx context.Context, clientID string, contacts []*Contact) error {
	if err := s.driver.DeleteContacts(ctx, &DeleteContact{ClientID: clientID}); err != nil {
		return err
	}
	for _, c := range contacts {
		c.ClientID = clientID
		if _, err := s.CreateContact(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// FindOrCreateContact returns the tenant's contact matching name+company,
// creating it when absent.
func (s *Store) FindOrCreateContact(ctx context.Context, clientID, name, company string) (*Contact, error) {
	existing, err := s.driver.ListContacts(ctx, &FindContact{
		ClientID: &clientID,
		Name:     &name,
		Company:  &company,
	})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing[0], nil
	}
	return s.CreateContact(ctx, &Contact{ClientID: clientID, Name: name, Company: company})
}

// ---------------------------------------------------------------------------
// Workflow runs + briefing outputs
// ---------------------------------------------------------------------------

func (s *Store) CreateWorkflowRun(ctx context.Context, create *WorkflowRun) (*WorkflowRun, error) {
	if create.ID == "" {
		create.ID = uuid.NewString()
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	if create.Status == "" {
		create.Status = WorkflowRunPending
	}
	return s.driver.CreateWorkflowRun(ctx, create)
}

func (s *Store) ListWorkflowRuns(ctx context.Context, find *FindWorkflowRun) ([]*WorkflowRun, error) {
	return s.driver.ListWorkflowRuns(ctx, find)
}

func (s *Store) CreateBriefingOutput(ctx context.Context, create *BriefingOutput) (*BriefingOutput, error) {
	if create.ID == "" {
		create.ID = uuid.NewString()
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	create.Sections.Normalize()
	return s.driver.CreateBriefingOutput(ctx, create)
}

// SaveBriefing persists a completed briefing: find-or-create the contact,
// record a completed run, and attach the output keyed by the run.
func (s *Store) SaveBriefing(ctx context.Context, clientID, contactName, contactCompany, meetingContext string, keyStats KeyStats, sections BriefingSections) (string, error) {
	contact, err := s.FindOrCreateContact(ctx, clientID, contactName, contactCompany)
	if err != nil {
		return "", fmt.Errorf("failed to resolve contact: %w", err)
	}

	now := time.Now().Unix()
	run, err := s.CreateWorkflowRun(ctx, &WorkflowRun{
		ClientID:    clientID,
		ContactID:   contact.ID,
		Context:     meetingContext,
		Status:      WorkflowRunCompleted,
		CreatedTs:   now,
		CompletedTs: now,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create workflow run: %w", err)
	}

	if _, err := s.CreateBriefingOutput(ctx, &BriefingOutput{
		RunID:    run.ID,
		KeyStats: keyStats,
		Sections: sections,
	}); err != nil {
		return "", fmt.Errorf("failed to save briefing output: %w", err)
	}
	return run.ID, nil
}

// GetWorkflowOutput assembles the joined run+contact+output view for one run.
// Returns nil when the run does not exist.
func (s *Store) GetWorkflowOutput(ctx context.Context, runID string) (*WorkflowOutputView, error) {
	runs, err := s.driver.ListWorkflowRuns(ctx, &FindWorkflowRun{ID: &runID})
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return s.assembleOutputView(ctx, runs[0])
}

// ListWorkflowOutputs returns all completed runs for a tenant, newest first.
func (s *Store) ListWorkflowOutputs(ctx context.Context, clientID string) ([]*WorkflowOutputView, error) {
	completed := WorkflowRunCompleted
	runs, err := s.driver.ListWorkflowRuns(ctx, &FindWorkflowRun{ClientID: &clientID, Status: &completed})
	if err != nil {
		return nil, err
	}
	views := make([]*WorkflowOutputView, 0, len(runs))
	for _, run := range runs {
		view, err := s.assembleOutputView(ctx, run)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *Store) assembleOutputView(ctx context.Context, run *WorkflowRun) (*WorkflowOutputView, error) {
	view := &WorkflowOutputView{
		ID:         run.ID,
		ClientName: "Unknown",
		Company:    "Unknown",
		Context:    run.Context,
		CreatedTs:  run.CreatedTs,
	}
	view.Sections.Normalize()

	if run.ContactID != "" {
		contacts, err := s.driver.ListContacts(ctx, &FindContact{ID: &run.ContactID})
		if err != nil {
			return nil, err
		}
		if len(contacts) > 0 {
			view.ClientName = contacts[0].Name
			view.Company = contacts[0].Company
		}
	}

	outputs, err := s.driver.ListBriefingOutputs(ctx, &FindBriefingOutput{RunID: &run.ID})
	if err != nil {
		return nil, err
	}
	if len(outputs) > 0 {
		view.KeyStats = outputs[0].KeyStats
		view.Sections = outputs[0].Sections
		view.Sections.Normalize()
	}
	return view, nil
}

// ---------------------------------------------------------------------------
// Book projects + chapters
// ---------------------------------------------------------------------------

func (s *Store) CreateBookProject(ctx context.Context, create *BookProject) (*BookProject, error) {
	if create.ID == "" {
		create.ID = uuid.NewString()
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	return s.driver.CreateBookProject(ctx, create)
}

func (s *Store) ListBookProjects(ctx context.Context, find *FindBookProject) ([]*BookProject, error) {
	return s.driver.ListBookProjects(ctx, find)
}

// GetBookProject returns one project or nil when absent.
func (s *Store) GetBookProject(ctx context.Context, projectID string) (*BookProject, error) {
	list, err := s.driver.ListBookProjects(ctx, &FindBookProject{ID: &projectID})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// UpdateBookProjectGuide replaces the project's outline and character guide.
// Both fields are read-then-replace documents: drivers overwrite whole values.
func (s *Store) UpdateBookProjectGuide(ctx context.Context, projectID string, outline []ChapterOutlineItem, characterGuide string) error {
	return s.driver.UpdateBookProject(ctx, &UpdateBookProject{
		ID:             projectID,
		ChapterOutline: &outline,
		CharacterGuide: &characterGuide,
	})
}

// UpsertBookChapter creates or replaces the chapter keyed by
// (project, chapter number). Replacement resets status to draft.
func (s *Store) UpsertBookChapter(ctx context.Context, upsert *BookChapter) (*BookChapter, error) {
	if upsert.ID == "" {
		upsert.ID = uuid.NewString()
	}
	if upsert.CreatedTs == 0 {
		upsert.CreatedTs = time.Now().Unix()
	}
	upsert.Status = ChapterStatusDraft
	return s.driver.UpsertBookChapter(ctx, upsert)
}

func (s *Store) ListBookChapters(ctx context.Context, find *FindBookChapter) ([]*BookChapter, error) {
	return s.driver.ListBookChapters(ctx, find)
}

// UpdateBookChapterStatus applies a lifecycle transition, rejecting ones the
// state machine does not allow (notably anything out of approved). Approval
// stamps the approval time; feedback, when provided, is stored verbatim.
func (s *Store) UpdateBookChapterStatus(ctx context.Context, chapterID string, status BookChapterStatus, feedback *string) error {
	chapters, err := s.driver.ListBookChapters(ctx, &FindBookChapter{ID: &chapterID})
	if err != nil {
		return err
	}
	if len(chapters) == 0 {
		return fmt.Errorf("chapter %s: %w", chapterID, ErrNotFound)
	}

	current := chapters[0].Status
	if !current.CanTransitionTo(status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
	}

	update := &UpdateBookChapter{
		ID:       chapterID,
		Status:   &status,
		Feedback: feedback,
	}
	if status == ChapterStatusApproved {
		now := time.Now().Unix()
		update.ApprovedTs = &now
	}
	return s.driver.UpdateBookChapter(ctx, update)
}
