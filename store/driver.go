package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for database access.
type Driver interface {
	GetDB() *sql.DB
	Migrate(ctx context.Context) error
	Close() error

	CreateClient(ctx context.Context, create *Client) (*Client, error)
	ListClients(ctx context.Context, find *FindClient) ([]*Client, error)

	CreateContact(ctx context.Context, create *Contact) (*Contact, error)
	ListContacts(ctx context.Context, find *FindContact) ([]*Contact, error)
	DeleteContacts(ctx context.Context, delete *DeleteContact) error

	CreateWorkflowRun(ctx context.Context, create *WorkflowRun) (*WorkflowRun, error)
	ListWorkflowRuns(ctx context.Context, find *FindWorkflowRun) ([]*WorkflowRun, error)

	CreateBriefingOutput(ctx context.Context, create *BriefingOutput) (*BriefingOutput, error)
	ListBriefingOutputs(ctx context.Context, find *FindBriefingOutput) ([]*BriefingOutput, error)

	CreateBookProject(ctx context.Context, create *BookProject) (*BookProject, error)
	ListBookProjects(ctx context.Context, find *FindBookProject) ([]*BookProject, error)
	UpdateBookProject(ctx context.Context, update *UpdateBookProject) error

	UpsertBookChapter(ctx context.Context, upsert *BookChapter) (*BookChapter, error)
	ListBookChapters(ctx context.Context, find *FindBookChapter) ([]*BookChapter, error)
	UpdateBookChapter(ctx context.Context, update *UpdateBookChapter) error
}
