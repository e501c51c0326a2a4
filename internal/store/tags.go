package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ListTags returns every tag ordered by name (binary, case-sensitive).
func (s *SQLStore) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, color FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	return scanTags(rows)
}

// GetTagsForPrompt returns the prompt's tags ordered by name.
func (s *SQLStore) GetTagsForPrompt(ctx context.Context, id int64) ([]Tag, error) {
	query := `SELECT t.id, t.name, t.color
	          FROM tags t
	          INNER JOIN prompt_tags pt ON pt.tag_id = t.id
	          WHERE pt.prompt_id = ?
	          ORDER BY t.name ASC`

	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("getting prompt tags: %w", err)
	}
	return scanTags(rows)
}

// scanTags drains and closes rows of (id, name, color). The result is never nil.
func scanTags(rows *sql.Rows) ([]Tag, error) {
	defer rows.Close()

	tags := []Tag{}
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			return nil, fmt.Errorf("scanning tag row: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tag rows: %w", err)
	}
	return tags, nil
}

// UpsertTag returns the id of the tag with this exact name, creating it when
// absent. The unique index on tags.name is the arbiter between concurrent
// callers: the loser's insert fails and it returns the winner's id instead.
func (s *SQLStore) UpsertTag(ctx context.Context, name, color string) (int64, error) {
	id, found, err := s.findTagIDByName(ctx, name)
	if err != nil {
		return 0, err
	}
	if found {
		return id, nil
	}

	result, err := s.db.ExecContext(ctx, `INSERT INTO tags (name, color) VALUES (?, ?)`, name, color)
	if err != nil {
		if isUniqueViolation(err) {
			id, found, lookupErr := s.findTagIDByName(ctx, name)
			if lookupErr != nil {
				return 0, lookupErr
			}
			if found {
				return id, nil
			}
		}
		return 0, fmt.Errorf("inserting tag: %w", err)
	}

	id, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}
	return id, nil
}

// findTagIDByName looks a tag up by exact name.
func (s *SQLStore) findTagIDByName(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("querying tag by name: %w", err)
	}
	return id, true, nil
}

// UpdateTagColor overwrites the color of an existing tag.
func (s *SQLStore) UpdateTagColor(ctx context.Context, id int64, color string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE tags SET color = ? WHERE id = ?`, color, id); err != nil {
		return fmt.Errorf("updating tag color: %w", err)
	}
	return nil
}

// DeleteTag removes a tag and detaches it from every prompt in one transaction.
func (s *SQLStore) DeleteTag(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning delete tag tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM prompt_tags WHERE tag_id = ?`, id); err != nil {
		return fmt.Errorf("deleting tag associations: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting tag: %w", err)
	}

	return tx.Commit()
}

// SetPromptTags replaces the prompt's tag set. The delete and the inserts
// share one transaction, so readers see either the old set or the new one
// and never an empty or half-built set. The transaction opens with the
// delete so it holds the write lock before it reads anything.
func (s *SQLStore) SetPromptTags(ctx context.Context, id int64, tagIDs []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning set tags tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM prompt_tags WHERE prompt_id = ?`, id); err != nil {
		return fmt.Errorf("clearing prompt tags: %w", err)
	}

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM prompts WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking prompt exists: %w", err)
	}

	// INSERT ... SELECT skips ids with no tags row instead of failing the
	// foreign key.
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO prompt_tags (prompt_id, tag_id) SELECT ?, id FROM tags WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("preparing prompt tag insert: %w", err)
	}
	defer stmt.Close()

	for _, tagID := range dedupeIDs(tagIDs) {
		if _, err := stmt.ExecContext(ctx, id, tagID); err != nil {
			return fmt.Errorf("adding tag %d to prompt: %w", tagID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing set tags tx: %w", err)
	}
	return nil
}

// dedupeIDs drops repeated ids, keeping first occurrences.
func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// isUniqueViolation checks if an SQLite error is a UNIQUE constraint failure
// (extended code SQLITE_CONSTRAINT_UNIQUE, 2067).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
