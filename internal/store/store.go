package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/keyxmakerx/promptshelf/internal/database"
)

// PromptStore is the data-access contract for prompts, tags, and their
// association. Mutations that target a missing id are silent no-ops.
type PromptStore interface {
	// Initialize ensures the schema exists. Safe to call on every start.
	Initialize(ctx context.Context) error

	// ListPrompts returns prompts in the requested order, optionally
	// restricted to one tag. Each prompt appears at most once.
	ListPrompts(ctx context.Context, opts ListOptions) ([]Prompt, error)

	// ListPromptsWithTags is ListPrompts with every prompt's tags attached,
	// sorted case-insensitively by name.
	ListPromptsWithTags(ctx context.Context, opts ListOptions) ([]PromptWithTags, error)

	// GetPrompt returns the prompt and true, or false when it does not exist.
	GetPrompt(ctx context.Context, id int64) (Prompt, bool, error)

	// CreatePrompt stores a new prompt with created_at = updated_at = now.
	CreatePrompt(ctx context.Context, in PromptInput) (int64, error)

	// UpdatePrompt rewrites all four text fields and refreshes updated_at.
	UpdatePrompt(ctx context.Context, id int64, in PromptInput) error

	// TouchPrompt refreshes only updated_at.
	TouchPrompt(ctx context.Context, id int64) error

	// DeletePrompt removes the prompt and its tag associations.
	DeletePrompt(ctx context.Context, id int64) error

	// ListTags returns all tags in ascending name order.
	ListTags(ctx context.Context) ([]Tag, error)

	// GetTagsForPrompt returns the prompt's tags in ascending name order.
	// The slice is empty when the prompt has no tags or does not exist.
	GetTagsForPrompt(ctx context.Context, id int64) ([]Tag, error)

	// UpsertTag returns the id of the tag named name, creating it with color
	// if absent. An existing tag's color is left as it is.
	UpsertTag(ctx context.Context, name, color string) (int64, error)

	// UpdateTagColor overwrites the tag's color.
	UpdateTagColor(ctx context.Context, id int64, color string) error

	// DeleteTag removes the tag and detaches it from every prompt.
	DeleteTag(ctx context.Context, id int64) error

	// SetPromptTags replaces the prompt's whole tag set with tagIDs in one
	// transaction. Duplicate ids collapse; ids of missing tags are skipped.
	SetPromptTags(ctx context.Context, id int64, tagIDs []int64) error
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore implements PromptStore on an SQLite database with hand-written SQL.
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ PromptStore = (*SQLStore)(nil)

// Option configures an SQLStore.
type Option func(*SQLStore)

// WithClock replaces the wall clock used for created_at/updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *SQLStore) {
		s.now = now
	}
}

// New creates a store backed by db. The caller owns db and closes it.
func New(db *sql.DB, opts ...Option) *SQLStore {
	s := &SQLStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize applies the embedded schema migrations.
func (s *SQLStore) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := database.RunMigrations(s.db); err != nil {
		return fmt.Errorf("initializing prompt store: %w", err)
	}
	return nil
}

// timestamp returns the current time in the persisted layout.
func (s *SQLStore) timestamp() string {
	return formatTimestamp(s.now())
}

// --- Prompts ---

const promptColumns = `p.id, p.title, p.summary, p.purpose, p.content, p.created_at, p.updated_at`

// tagFilterClause restricts a query over prompts p to one tag. A subquery
// rather than a join keeps every prompt to a single row.
const tagFilterClause = ` WHERE p.id IN (SELECT pt.prompt_id FROM prompt_tags pt WHERE pt.tag_id = ?)`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanPrompt reads one row selected with promptColumns.
func scanPrompt(row scanner) (Prompt, error) {
	var (
		p                    Prompt
		createdAt, updatedAt string
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Summary, &p.Purpose, &p.Content, &createdAt, &updatedAt); err != nil {
		return Prompt{}, err
	}

	var err error
	if p.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return Prompt{}, err
	}
	if p.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return Prompt{}, err
	}
	return p, nil
}

// ListPrompts returns prompts ordered by opts.Sort, filtered by opts.TagID.
func (s *SQLStore) ListPrompts(ctx context.Context, opts ListOptions) ([]Prompt, error) {
	return s.queryPrompts(ctx, s.db, opts)
}

func (s *SQLStore) queryPrompts(ctx context.Context, q querier, opts ListOptions) ([]Prompt, error) {
	query := `SELECT ` + promptColumns + ` FROM prompts p`
	var args []any
	if opts.TagID != nil {
		query += tagFilterClause
		args = append(args, *opts.TagID)
	}
	query += ` ORDER BY ` + opts.Sort.orderByClause()

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing prompts: %w", err)
	}
	defer rows.Close()

	prompts := []Prompt{}
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning prompt row: %w", err)
		}
		prompts = append(prompts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating prompt rows: %w", err)
	}

	return prompts, nil
}

// ListPromptsWithTags reads the prompt list and the tags of every listed
// prompt inside one transaction, so both come from the same snapshot.
func (s *SQLStore) ListPromptsWithTags(ctx context.Context, opts ListOptions) ([]PromptWithTags, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning list tx: %w", err)
	}
	defer tx.Rollback()

	prompts, err := s.queryPrompts(ctx, tx, opts)
	if err != nil {
		return nil, err
	}

	tagsByPrompt, err := s.queryTagsByPrompt(ctx, tx, opts)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing list tx: %w", err)
	}

	result := make([]PromptWithTags, 0, len(prompts))
	for _, p := range prompts {
		tags := tagsByPrompt[p.ID]
		if tags == nil {
			tags = []Tag{}
		}
		slices.SortStableFunc(tags, func(a, b Tag) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
		result = append(result, PromptWithTags{Prompt: p, Tags: tags})
	}

	return result, nil
}

// queryTagsByPrompt returns the tags of every prompt matched by opts, keyed
// by prompt id, in one query instead of one per prompt.
func (s *SQLStore) queryTagsByPrompt(ctx context.Context, q querier, opts ListOptions) (map[int64][]Tag, error) {
	query := `SELECT pt.prompt_id, t.id, t.name, t.color
	          FROM prompt_tags pt
	          INNER JOIN tags t ON t.id = pt.tag_id`
	var args []any
	if opts.TagID != nil {
		query += ` WHERE pt.prompt_id IN (SELECT f.prompt_id FROM prompt_tags f WHERE f.tag_id = ?)`
		args = append(args, *opts.TagID)
	}
	query += ` ORDER BY t.name ASC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("batch getting prompt tags: %w", err)
	}
	defer rows.Close()

	result := make(map[int64][]Tag)
	for rows.Next() {
		var (
			promptID int64
			t        Tag
		)
		if err := rows.Scan(&promptID, &t.ID, &t.Name, &t.Color); err != nil {
			return nil, fmt.Errorf("scanning batch prompt tag row: %w", err)
		}
		result[promptID] = append(result[promptID], t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating batch prompt tag rows: %w", err)
	}

	return result, nil
}

// GetPrompt retrieves a single prompt by id. A missing prompt is reported
// through the bool, not as an error.
func (s *SQLStore) GetPrompt(ctx context.Context, id int64) (Prompt, bool, error) {
	query := `SELECT ` + promptColumns + ` FROM prompts p WHERE p.id = ?`

	p, err := scanPrompt(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Prompt{}, false, nil
	}
	if err != nil {
		return Prompt{}, false, fmt.Errorf("querying prompt by id: %w", err)
	}
	return p, true, nil
}

// CreatePrompt inserts a prompt and returns its new id.
func (s *SQLStore) CreatePrompt(ctx context.Context, in PromptInput) (int64, error) {
	now := s.timestamp()
	query := `INSERT INTO prompts (title, summary, purpose, content, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query,
		in.Title, in.Summary, in.Purpose, in.Content, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting prompt: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}
	return id, nil
}

// UpdatePrompt overwrites the four text fields and refreshes updated_at.
// updated_at is clamped to created_at so a clock step backwards can never
// leave a prompt edited before it was created.
func (s *SQLStore) UpdatePrompt(ctx context.Context, id int64, in PromptInput) error {
	query := `UPDATE prompts
	          SET title = ?, summary = ?, purpose = ?, content = ?, updated_at = MAX(created_at, ?)
	          WHERE id = ?`

	if _, err := s.db.ExecContext(ctx, query,
		in.Title, in.Summary, in.Purpose, in.Content, s.timestamp(), id,
	); err != nil {
		return fmt.Errorf("updating prompt: %w", err)
	}
	return nil
}

// TouchPrompt refreshes updated_at and nothing else.
func (s *SQLStore) TouchPrompt(ctx context.Context, id int64) error {
	query := `UPDATE prompts SET updated_at = MAX(created_at, ?) WHERE id = ?`

	if _, err := s.db.ExecContext(ctx, query, s.timestamp(), id); err != nil {
		return fmt.Errorf("touching prompt: %w", err)
	}
	return nil
}

// DeletePrompt removes a prompt and its prompt_tags rows. The join rows are
// deleted explicitly in the same transaction; the ON DELETE CASCADE foreign
// key covers them too when foreign keys are enabled on the connection.
func (s *SQLStore) DeletePrompt(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning delete prompt tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM prompt_tags WHERE prompt_id = ?`, id); err != nil {
		return fmt.Errorf("deleting prompt tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM prompts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting prompt: %w", err)
	}

	return tx.Commit()
}
