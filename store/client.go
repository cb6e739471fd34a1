package store

// Client is a portal tenant. Each client gets a URL slug and an access code
// that gates its demo workflows.
type Client struct {
	ID         string
	Slug       string
	Name       string
	AccessCode string // bcrypt hash for provisioned tenants, plaintext for legacy seed data
	CreatedTs  int64
}

type FindClient struct {
	ID   *string
	Slug *string
}

// Contact is a meeting-prep contact record owned by a tenant.
type Contact struct {
	ID        string
	ClientID  string
	Name      string
	Company   string
	Title     string
	Email     string
	CreatedTs int64
}

type FindContact struct {
	ID       *string
	ClientID *string
	Name     *string
	Company  *string
}

type DeleteContact struct {
	ClientID string
}
