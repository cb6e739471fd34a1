package store

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDriver is an in-memory Driver for facade tests.
type fakeDriver struct {
	clients  []*Client
	contacts []*Contact
	runs     []*WorkflowRun
	outputs  []*BriefingOutput
	projects []*BookProject
	chapters []*BookChapter
}

func (d *fakeDriver) GetDB() *sql.DB                    { return nil }
func (d *fakeDriver) Migrate(ctx context.Context) error { return nil }
func (d *fakeDriver) Close() error                      { return nil }

func (d *fakeDriver) CreateClient(_ context.Context, create *Client) (*Client, error) {
	d.clients = append(d.clients, create)
	return create, nil
}

func (d *fakeDriver) ListClients(_ context.Context, find *FindClient) ([]*Client, error) {
	var list []*Client
	for _, c := range d.clients {
		if find.ID != nil && c.ID != *find.ID {
			continue
		}
		if find.Slug != nil && c.Slug != *find.Slug {
			continue
		}
		list = append(list, c)
	}
	return list, nil
}

func (d *fakeDriver) CreateContact(_ context.Context, create *Contact) (*Contact, error) {
	d.contacts = append(d.contacts, create)
	return create, nil
}

func (d *fakeDriver) ListContacts(_ context.Context, find *FindContact) ([]*Contact, error) {
	var list []*Contact
	for _, c := range d.contacts {
		if find.ID != nil && c.ID != *find.ID {
			continue
		}
		if find.ClientID != nil && c.ClientID != *find.ClientID {
			continue
		}
		if find.Name != nil && c.Name != *find.Name {
			continue
		}
		if find.Company != nil && c.Company != *find.Company {
			continue
		}
		list = append(list, c)
	}
	return list, nil
}

func (d *fakeDriver) DeleteContacts(_ context.Context, delete *DeleteContact) error {
	var kept []*Contact
	for _, c := range d.contacts {
		if c.ClientID != delete.ClientID {
			kept = append(kept, c)
		}
	}
	d.contacts = kept
	return nil
}

func (d *fakeDriver) CreateWorkflowRun(_ context.Context, create *WorkflowRun) (*WorkflowRun, error) {
	d.runs = append(d.runs, create)
	return create, nil
}

func (d *fakeDriver) ListWorkflowRuns(_ context.Context, find *FindWorkflowRun) ([]*WorkflowRun, error) {
	var list []*WorkflowRun
	for _, r := range d.runs {
		if find.ID != nil && r.ID != *find.ID {
			continue
		}
		if find.ClientID != nil && r.ClientID != *find.ClientID {
			continue
		}
		if find.Status != nil && r.Status != *find.Status {
			continue
		}
		list = append(list, r)
	}
	return list, nil
}

func (d *fakeDriver) CreateBriefingOutput(_ context.Context, create *BriefingOutput) (*BriefingOutput, error) {
	d.outputs = append(d.outputs, create)
	return create, nil
}

func (d *fakeDriver) ListBriefingOutputs(_ context.Context, find *FindBriefingOutput) ([]*BriefingOutput, error) {
	var list []*BriefingOutput
	for _, o := range d.outputs {
		if find.ID != nil && o.ID != *find.ID {
			continue
		}
		if find.RunID != nil && o.RunID != *find.RunID {
			continue
		}
		list = append(list, o)
	}
	return list, nil
}

func (d *fakeDriver) CreateBookProject(_ context.Context, create *BookProject) (*BookProject, error) {
	d.projects = append(d.projects, create)
	return create, nil
}

func (d *fakeDriver) ListBookProjects(_ context.Context, find *FindBookProject) ([]*BookProject, error) {
	var list []*BookProject
	for _, p := range d.projects {
		if find.ID != nil && p.ID != *find.ID {
			continue
		}
		if find.ClientID != nil && p.ClientID != *find.ClientID {
			continue
		}
		list = append(list, p)
	}
	return list, nil
}

func (d *fakeDriver) UpdateBookProject(_ context.Context, update *UpdateBookProject) error {
	for _, p := range d.projects {
		if p.ID == update.ID {
			if update.ChapterOutline != nil {
				p.ChapterOutline = *update.ChapterOutline
			}
			if update.CharacterGuide != nil {
				p.CharacterGuide = *update.CharacterGuide
			}
			return nil
		}
	}
	return fmt.Errorf("project %s not found", update.ID)
}

func (d *fakeDriver) UpsertBookChapter(_ context.Context, upsert *BookChapter) (*BookChapter, error) {
	for _, c := range d.chapters {
		if c.ProjectID == upsert.ProjectID && c.ChapterNumber == upsert.ChapterNumber {
			c.Title = upsert.Title
			c.Narrative = upsert.Narrative
			c.IllustrationPrompt = upsert.IllustrationPrompt
			c.ImageURL = upsert.ImageURL
			c.Status = upsert.Status
			return c, nil
		}
	}
	d.chapters = append(d.chapters, upsert)
	return upsert, nil
}

func (d *fakeDriver) ListBookChapters(_ context.Context, find *FindBookChapter) ([]*BookChapter, error) {
	var list []*BookChapter
	for _, c := range d.chapters {
		if find.ID != nil && c.ID != *find.ID {
			continue
		}
		if find.ProjectID != nil && c.ProjectID != *find.ProjectID {
			continue
		}
		if find.ChapterNumber != nil && c.ChapterNumber != *find.ChapterNumber {
			continue
		}
		if find.Status != nil && c.Status != *find.Status {
			continue
		}
		list = append(list, c)
	}
	return list, nil
}

func (d *fakeDriver) UpdateBookChapter(_ context.Context, update *UpdateBookChapter) error {
	for _, c := range d.chapters {
		if c.ID == update.ID {
			if update.Status != nil {
				c.Status = *update.Status
			}
			if update.Feedback != nil {
				c.Feedback = *update.Feedback
			}
			if update.ApprovedTs != nil {
				c.ApprovedTs = *update.ApprovedTs
			}
			return nil
		}
	}
	return fmt.Errorf("chapter %s not found", update.ID)
}

func newTestStore() (*Store, *fakeDriver) {
	driver := &fakeDriver{}
	return New(driver, nil), driver
}

func TestChapterStatusTransitions(t *testing.T) {
	tests := []struct {
		from    BookChapterStatus
		to      BookChapterStatus
		allowed bool
	}{
		{ChapterStatusDraft, ChapterStatusApproved, true},
		{ChapterStatusDraft, ChapterStatusRevisionRequested, true},
		{ChapterStatusDraft, ChapterStatusDraft, true},
		{ChapterStatusRevisionRequested, ChapterStatusDraft, true},
		{ChapterStatusRevisionRequested, ChapterStatusApproved, false},
		{ChapterStatusApproved, ChapterStatusDraft, false},
		{ChapterStatusApproved, ChapterStatusRevisionRequested, false},
		{ChapterStatusApproved, ChapterStatusApproved, false},
	}

	for _, tt := range tests {
		name := fmt.Sprintf("%s to %s", tt.from, tt.to)
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestUpdateBookChapterStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("approving a draft stamps the approval time", func(t *testing.T) {
		s, driver := newTestStore()
		ch, err := s.UpsertBookChapter(ctx, &BookChapter{ProjectID: "p1", ChapterNumber: 1, Narrative: "once upon a time"})
		require.NoError(t, err)

		require.NoError(t, s.UpdateBookChapterStatus(ctx, ch.ID, ChapterStatusApproved, nil))
		assert.Equal(t, ChapterStatusApproved, driver.chapters[0].Status)
		assert.NotZero(t, driver.chapters[0].ApprovedTs)
	})

	t.Run("revision request stores feedback verbatim", func(t *testing.T) {
		s, driver := newTestStore()
		ch, err := s.UpsertBookChapter(ctx, &BookChapter{ProjectID: "p1", ChapterNumber: 1})
		require.NoError(t, err)

		feedback := "make it warmer"
		require.NoError(t, s.UpdateBookChapterStatus(ctx, ch.ID, ChapterStatusRevisionRequested, &feedback))
		assert.Equal(t, "make it warmer", driver.chapters[0].Feedback)
	})

	t.Run("approved chapters are terminal", func(t *testing.T) {
		s, _ := newTestStore()
		ch, err := s.UpsertBookChapter(ctx, &BookChapter{ProjectID: "p1", ChapterNumber: 1})
		require.NoError(t, err)
		require.NoError(t, s.UpdateBookChapterStatus(ctx, ch.ID, ChapterStatusApproved, nil))

		err = s.UpdateBookChapterStatus(ctx, ch.ID, ChapterStatusDraft, nil)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("unknown chapter id", func(t *testing.T) {
		s, _ := newTestStore()
		err := s.UpdateBookChapterStatus(ctx, "no-such-chapter", ChapterStatusApproved, nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpsertBookChapterResetsStatus(t *testing.T) {
	ctx := context.Background()
	s, driver := newTestStore()

	first, err := s.UpsertBookChapter(ctx, &BookChapter{ProjectID: "p1", ChapterNumber: 2, Narrative: "v1"})
	require.NoError(t, err)
	require.NoError(t, s.UpdateBookChapterStatus(ctx, first.ID, ChapterStatusRevisionRequested, nil))

	// Regeneration replaces content in place: same identity, fresh draft.
	second, err := s.UpsertBookChapter(ctx, &BookChapter{ProjectID: "p1", ChapterNumber: 2, Narrative: "v2"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, driver.chapters, 1)
	assert.Equal(t, "v2", driver.chapters[0].Narrative)
	assert.Equal(t, ChapterStatusDraft, driver.chapters[0].Status)
}

func TestSaveBriefingAndOutputViews(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	runID, err := s.SaveBriefing(ctx, "client-1", "Eleanor Whitfield", "Whitfield Family Office", "Quarterly review",
		KeyStats{AUM: "$12.8M", Tenure: "7 years", YTDReturn: "+2.14%", KeyAsk: "ESG screening update"},
		BriefingSections{PortfolioSummary: []string{"AUM of $12.8M as of Q3"}},
	)
	require.NoError(t, err)

	view, err := s.GetWorkflowOutput(ctx, runID)
	require.NoError(t, err)
	require.NotNil(t, view)

	assert.Equal(t, "Eleanor Whitfield", view.ClientName)
	assert.Equal(t, "$12.8M", view.KeyStats.AUM)

	// All five sections present even though only one was supplied.
	assert.NotNil(t, view.Sections.PortfolioSummary)
	assert.NotNil(t, view.Sections.RelationshipHistory)
	assert.NotNil(t, view.Sections.AccountStatus)
	assert.NotNil(t, view.Sections.RecentCommunications)
	assert.NotNil(t, view.Sections.MeetingAgenda)

	// Re-saving for the same contact reuses the contact record.
	_, err = s.SaveBriefing(ctx, "client-1", "Eleanor Whitfield", "Whitfield Family Office", "", KeyStats{}, BriefingSections{})
	require.NoError(t, err)
	contacts, err := s.ListContacts(ctx, &FindContact{})
	require.NoError(t, err)
	assert.Len(t, contacts, 1)

	views, err := s.ListWorkflowOutputs(ctx, "client-1")
	require.NoError(t, err)
	assert.Len(t, views, 2)
}
