// Package storage persists generated diagrams and daily usage counters in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mvp-joe/schemagraph/internal/schema"
)

// ErrNotFound is returned when a diagram does not exist or belongs to another user.
var ErrNotFound = errors.New("diagram not found")

// timeFormat sorts lexically in chronological order.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// Diagram is a stored model collection for one repository and user.
type Diagram struct {
	ID         string         `json:"id"`
	Repository string         `json:"repository"`
	UserID     string         `json:"userId"`
	Models     []schema.Model `json:"models"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// Store reads and writes diagrams.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and ensures the schema.
// ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return NewStore(db), nil
}

// NewStore wraps an existing database. The schema must already exist.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertDiagram stores models as the current diagram for (repo, user).
// An existing diagram keeps its ID and creation time; its models are replaced.
func (s *Store) UpsertDiagram(ctx context.Context, repo, user string, models []schema.Model) (*Diagram, error) {
	if models == nil {
		models = []schema.Model{}
	}
	payload, err := json.Marshal(models)
	if err != nil {
		return nil, fmt.Errorf("failed to encode models: %w", err)
	}
	now := s.now().UTC()

	d := &Diagram{Repository: repo, UserID: user, Models: models, UpdatedAt: now}

	var createdAt string
	err = sq.Insert("diagrams").
		Columns("diagram_id", "repository", "user_id", "models", "model_count", "created_at", "updated_at").
		Values(uuid.New().String(), repo, user, string(payload), len(models), now.Format(timeFormat), now.Format(timeFormat)).
		Suffix(`ON CONFLICT(repository, user_id) DO UPDATE SET
			models = excluded.models,
			model_count = excluded.model_count,
			updated_at = excluded.updated_at
		RETURNING diagram_id, created_at`).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&d.ID, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert diagram for %s: %w", repo, err)
	}

	d.CreatedAt, err = time.Parse(timeFormat, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at for diagram %s: %w", d.ID, err)
	}
	return d, nil
}

// GetDiagram returns the diagram with id if it belongs to user.
func (s *Store) GetDiagram(ctx context.Context, id, user string) (*Diagram, error) {
	row := s.selectDiagrams().
		Where(sq.Eq{"diagram_id": id, "user_id": user}).
		RunWith(s.db).
		QueryRowContext(ctx)

	d, err := scanDiagram(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get diagram %s: %w", id, err)
	}
	return d, nil
}

// FindDiagram returns the diagram stored for (repo, user).
func (s *Store) FindDiagram(ctx context.Context, repo, user string) (*Diagram, error) {
	row := s.selectDiagrams().
		Where(sq.Eq{"repository": repo, "user_id": user}).
		RunWith(s.db).
		QueryRowContext(ctx)

	d, err := scanDiagram(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find diagram for %s: %w", repo, err)
	}
	return d, nil
}

// CountRepositories returns how many repositories user has diagrams for.
func (s *Store) CountRepositories(ctx context.Context, user string) (int, error) {
	var count int
	err := sq.Select("COUNT(DISTINCT repository)").
		From("diagrams").
		Where(sq.Eq{"user_id": user}).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count repositories: %w", err)
	}
	return count, nil
}

// ListDiagrams returns user's diagrams, most recently updated first.
// A non-empty repo restricts the list to that repository.
func (s *Store) ListDiagrams(ctx context.Context, user, repo string) ([]*Diagram, error) {
	query := s.selectDiagrams().
		Where(sq.Eq{"user_id": user}).
		OrderBy("updated_at DESC", "diagram_id")
	if repo != "" {
		query = query.Where(sq.Eq{"repository": repo})
	}

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list diagrams: %w", err)
	}
	defer rows.Close()

	diagrams := []*Diagram{}
	for rows.Next() {
		d, err := scanDiagram(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan diagram: %w", err)
		}
		diagrams = append(diagrams, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate diagrams: %w", err)
	}
	return diagrams, nil
}

// DeleteDiagram removes the diagram with id if it belongs to user.
func (s *Store) DeleteDiagram(ctx context.Context, id, user string) error {
	result, err := sq.Delete("diagrams").
		Where(sq.Eq{"diagram_id": id, "user_id": user}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete diagram %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) selectDiagrams() sq.SelectBuilder {
	return sq.Select("diagram_id", "repository", "user_id", "models", "created_at", "updated_at").
		From("diagrams")
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDiagram(row rowScanner) (*Diagram, error) {
	d := &Diagram{}
	var models, createdAt, updatedAt string

	if err := row.Scan(&d.ID, &d.Repository, &d.UserID, &models, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(models), &d.Models); err != nil {
		return nil, fmt.Errorf("failed to decode models of %s: %w", d.ID, err)
	}

	d.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	d.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)
	return d, nil
}
