package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lanternworks/lanternworks/store"
)

func (d *DB) CreateBookProject(ctx context.Context, create *store.BookProject) (*store.BookProject, error) {
	outline, err := json.Marshal(create.ChapterOutline)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chapter_outline: %w", err)
	}

	fields := []string{"id", "client_id", "title", "subject_name", "target_age", "art_style", "ancestry_data", "oral_history", "chapter_outline", "character_guide", "created_ts"}
	args := []any{create.ID, create.ClientID, create.Title, create.SubjectName, create.TargetAge, create.ArtStyle, create.AncestryData, create.OralHistory, string(outline), create.CharacterGuide, create.CreatedTs}

	stmt := `INSERT INTO book_projects (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("failed to create book_project: %w", err)
	}
	return create, nil
}

func (d *DB) ListBookProjects(ctx context.Context, find *store.FindBookProject) ([]*store.BookProject, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.ClientID != nil {
		where, args = append(where, "client_id = "+placeholder(len(args)+1)), append(args, *find.ClientID)
	}

	query := `
		SELECT id, client_id, title, subject_name, target_age, art_style, ancestry_data, oral_history, chapter_outline, character_guide, created_ts
		FROM book_projects
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list book_projects: %w", err)
	}
	defer rows.Close()

	list := make([]*store.BookProject, 0)
	for rows.Next() {
		p := &store.BookProject{}
		var outline []byte
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Title, &p.SubjectName, &p.TargetAge, &p.ArtStyle, &p.AncestryData, &p.OralHistory, &outline, &p.CharacterGuide, &p.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan book_project: %w", err)
		}
		if err := json.Unmarshal(outline, &p.ChapterOutline); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chapter_outline: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate book_projects: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateBookProject(ctx context.Context, update *store.UpdateBookProject) error {
	set, args := []string{}, []any{}

	if update.ChapterOutline != nil {
		outline, err := json.Marshal(*update.ChapterOutline)
		if err != nil {
			return fmt.Errorf("failed to marshal chapter_outline: %w", err)
		}
		set, args = append(set, "chapter_outline = "+placeholder(len(args)+1)), append(args, string(outline))
	}
	if update.CharacterGuide != nil {
		set, args = append(set, "character_guide = "+placeholder(len(args)+1)), append(args, *update.CharacterGuide)
	}
	if len(set) == 0 {
		return fmt.Errorf("no fields to update")
	}

	args = append(args, update.ID)
	stmt := `UPDATE book_projects SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to update book_project: %w", err)
	}
	return nil
}

func (d *DB) UpsertBookChapter(ctx context.Context, upsert *store.BookChapter) (*store.BookChapter, error) {
	fields := []string{"id", "project_id", "chapter_number", "title", "narrative", "illustration_prompt", "image_url", "status", "feedback", "created_ts", "approved_ts"}
	args := []any{upsert.ID, upsert.ProjectID, upsert.ChapterNumber, upsert.Title, upsert.Narrative, upsert.IllustrationPrompt, upsert.ImageURL, string(upsert.Status), upsert.Feedback, upsert.CreatedTs, upsert.ApprovedTs}

	// Regeneration keeps the existing row identity: on conflict the
	// (project, chapter number) row is overwritten in place and its id wins.
	stmt := `INSERT INTO book_chapters (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		ON CONFLICT (project_id, chapter_number) DO UPDATE SET
			title = EXCLUDED.title,
			narrative = EXCLUDED.narrative,
			illustration_prompt = EXCLUDED.illustration_prompt,
			image_url = EXCLUDED.image_url,
			status = EXCLUDED.status,
			feedback = '',
			approved_ts = 0
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&upsert.ID); err != nil {
		return nil, fmt.Errorf("failed to upsert book_chapter: %w", err)
	}
	return upsert, nil
}

func (d *DB) ListBookChapters(ctx context.Context, find *store.FindBookChapter) ([]*store.BookChapter, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.ProjectID != nil {
		where, args = append(where, "project_id = "+placeholder(len(args)+1)), append(args, *find.ProjectID)
	}
	if find.ChapterNumber != nil {
		where, args = append(where, "chapter_number = "+placeholder(len(args)+1)), append(args, *find.ChapterNumber)
	}
	if find.Status != nil {
		where, args = append(where, "status = "+placeholder(len(args)+1)), append(args, string(*find.Status))
	}

	query := `
		SELECT id, project_id, chapter_number, title, narrative, illustration_prompt, image_url, status, feedback, created_ts, approved_ts
		FROM book_chapters
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY chapter_number ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list book_chapters: %w", err)
	}
	defer rows.Close()

	list := make([]*store.BookChapter, 0)
	for rows.Next() {
		c := &store.BookChapter{}
		var status string
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.ChapterNumber, &c.Title, &c.Narrative, &c.IllustrationPrompt, &c.ImageURL, &status, &c.Feedback, &c.CreatedTs, &c.ApprovedTs); err != nil {
			return nil, fmt.Errorf("failed to scan book_chapter: %w", err)
		}
		c.Status = store.BookChapterStatus(status)
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate book_chapters: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateBookChapter(ctx context.Context, update *store.UpdateBookChapter) error {
	set, args := []string{}, []any{}

	if update.Status != nil {
		set, args = append(set, "status = "+placeholder(len(args)+1)), append(args, string(*update.Status))
	}
	if update.Feedback != nil {
		set, args = append(set, "feedback = "+placeholder(len(args)+1)), append(args, *update.Feedback)
	}
	if update.ApprovedTs != nil {
		set, args = append(set, "approved_ts = "+placeholder(len(args)+1)), append(args, *update.ApprovedTs)
	}
	if len(set) == 0 {
		return fmt.Errorf("no fields to update")
	}

	args = append(args, update.ID)
	stmt := `UPDATE book_chapters SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to update book_chapter: %w", err)
	}
	return nil
}
