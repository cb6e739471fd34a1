package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lanternworks/lanternworks/store"
)

func (d *DB) CreateWorkflowRun(ctx context.Context, create *store.WorkflowRun) (*store.WorkflowRun, error) {
	fields := []string{"id", "client_id", "contact_id", "context", "status", "created_ts", "completed_ts"}
	args := []any{create.ID, create.ClientID, create.ContactID, create.Context, string(create.Status), create.CreatedTs, create.CompletedTs}

	stmt := `INSERT INTO workflow_runs (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("failed to create workflow_run: %w", err)
	}
	return create, nil
}

func (d *DB) ListWorkflowRuns(ctx context.Context, find *store.FindWorkflowRun) ([]*store.WorkflowRun, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.ClientID != nil {
		where, args = append(where, "client_id = "+placeholder(len(args)+1)), append(args, *find.ClientID)
	}
	if find.Status != nil {
		where, args = append(where, "status = "+placeholder(len(args)+1)), append(args, string(*find.Status))
	}

	query := `
		SELECT id, client_id, contact_id, context, status, created_ts, completed_ts
		FROM workflow_runs
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow_runs: %w", err)
	}
	defer rows.Close()

	list := make([]*store.WorkflowRun, 0)
	for rows.Next() {
		r := &store.WorkflowRun{}
		var status string
		if err := rows.Scan(&r.ID, &r.ClientID, &r.ContactID, &r.Context, &status, &r.CreatedTs, &r.CompletedTs); err != nil {
			return nil, fmt.Errorf("failed to scan workflow_run: %w", err)
		}
		r.Status = store.WorkflowRunStatus(status)
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workflow_runs: %w", err)
	}
	return list, nil
}

func (d *DB) CreateBriefingOutput(ctx context.Context, create *store.BriefingOutput) (*store.BriefingOutput, error) {
	keyStats, err := json.Marshal(create.KeyStats)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key_stats: %w", err)
	}
	sections, err := json.Marshal(create.Sections)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sections: %w", err)
	}

	fields := []string{"id", "run_id", "key_stats", "sections", "created_ts"}
	args := []any{create.ID, create.RunID, string(keyStats), string(sections), create.CreatedTs}

	stmt := `INSERT INTO workflow_outputs (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("failed to create workflow_output: %w", err)
	}
	return create, nil
}

func (d *DB) ListBriefingOutputs(ctx context.Context, find *store.FindBriefingOutput) ([]*store.BriefingOutput, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.RunID != nil {
		where, args = append(where, "run_id = "+placeholder(len(args)+1)), append(args, *find.RunID)
	}

	query := `
		SELECT id, run_id, key_stats, sections, created_ts
		FROM workflow_outputs
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow_outputs: %w", err)
	}
	defer rows.Close()

	list := make([]*store.BriefingOutput, 0)
	for rows.Next() {
		o := &store.BriefingOutput{}
		var keyStats, sections []byte
		if err := rows.Scan(&o.ID, &o.RunID, &keyStats, &sections, &o.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan workflow_output: %w", err)
		}
		if err := json.Unmarshal(keyStats, &o.KeyStats); err != nil {
			return nil, fmt.Errorf("failed to unmarshal key_stats: %w", err)
		}
		if err := json.Unmarshal(sections, &o.Sections); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sections: %w", err)
		}
		o.Sections.Normalize()
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workflow_outputs: %w", err)
	}
	return list, nil
}
