package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/lanternworks/lanternworks/store"
)

func (d *DB) CreateClient(ctx context.Context, create *store.Client) (*store.Client, error) {
	stmt := `INSERT INTO clients (id, slug, name, access_code, created_ts) VALUES (?, ?, ?, ?, ?)`
	if _, err := d.db.ExecContext(ctx, stmt, create.ID, create.Slug, create.Name, create.AccessCode, create.CreatedTs); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return create, nil
}

func (d *DB) ListClients(ctx context.Context, find *store.FindClient) ([]*store.Client, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.Slug != nil {
		where, args = append(where, "slug = ?"), append(args, *find.Slug)
	}

	query := `
		SELECT id, slug, name, access_code, created_ts
		FROM clients
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Client, 0)
	for rows.Next() {
		c := &store.Client{}
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &c.AccessCode, &c.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clients: %w", err)
	}
	return list, nil
}

func (d *DB) CreateContact(ctx context.Context, create *store.Contact) (*store.Contact, error) {
	stmt := `INSERT INTO contacts (id, client_id, name, company, title, email, created_ts) VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := d.db.ExecContext(ctx, stmt, create.ID, create.ClientID, create.Name, create.Company, create.Title, create.Email, create.CreatedTs); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	return create, nil
}

func (d *DB) ListContacts(ctx context.Context, find *store.FindContact) ([]*store.Contact, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.ClientID != nil {
		where, args = append(where, "client_id = ?"), append(args, *find.ClientID)
	}
	if find.Name != nil {
		where, args = append(where, "name = ?"), append(args, *find.Name)
	}
	if find.Company != nil {
		where, args = append(where, "company = ?"), append(args, *find.Company)
	}

	query := `
		SELECT id, client_id, name, company, title, email, created_ts
		FROM contacts
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Contact, 0)
	for rows.Next() {
		c := &store.Contact{}
		if err := rows.Scan(&c.ID, &c.ClientID, &c.Name, &c.Company, &c.Title, &c.Email, &c.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contacts: %w", err)
	}
	return list, nil
}

func (d *DB) DeleteContacts(ctx context.Context, delete *store.DeleteContact) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM contacts WHERE client_id = ?`, delete.ClientID); err != nil {
		return fmt.Errorf("failed to delete contacts: %w", err)
	}
	return nil
}
