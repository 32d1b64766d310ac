// Package diagrams generates and stores schema diagrams for repositories,
// enforcing the caller's plan limits.
package diagrams

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mvp-joe/schemagraph/internal/plans"
	"github.com/mvp-joe/schemagraph/internal/scanner"
	"github.com/mvp-joe/schemagraph/internal/schema"
	"github.com/mvp-joe/schemagraph/internal/source"
	"github.com/mvp-joe/schemagraph/internal/storage"
)

// ORMMongoose is the only ORM diagrams can be generated for.
const ORMMongoose = "mongoose"

// NoSchemasMessage is reported when a supported scan finds nothing.
const NoSchemasMessage = "No Mongoose schemas were found in the repository."

// dateLayout is the per-day usage bucket, always in UTC.
const dateLayout = "2006-01-02"

// Scanner produces a model collection from a source.
type Scanner interface {
	Scan(ctx context.Context, src source.Source) (*scanner.Result, error)
}

// Store persists diagrams and usage.
type Store interface {
	UpsertDiagram(ctx context.Context, repo, user string, models []schema.Model) (*storage.Diagram, error)
	FindDiagram(ctx context.Context, repo, user string) (*storage.Diagram, error)
	CountRepositories(ctx context.Context, user string) (int, error)
	Usage(ctx context.Context, user, date string) (int, error)
	IncrementUsage(ctx context.Context, user, date string) (int, error)
}

// Request asks for a diagram of one repository.
type Request struct {
	Repository string        // Key the diagram is stored under
	User       string        // Owner of the diagram and usage
	Plan       string        // Plan name; unknown names are treated as free
	ORM        string        // Empty means mongoose
	Source     source.Source // Where the repository is read from
}

// Outcome is the non-error result of Generate.
type Outcome struct {
	Supported bool             `json:"supported"`
	Message   string           `json:"message,omitempty"`
	Diagram   *storage.Diagram `json:"diagram,omitempty"`
	Scan      *scanner.Result  `json:"scan,omitempty"`
	Used      int              `json:"used"`  // Generations today, including this one
	Limit     int              `json:"limit"` // plans.Unlimited for no cap
}

// Service generates diagrams.
type Service struct {
	scanner Scanner
	store   Store
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for usage dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a service.
func NewService(sc Scanner, store Store, opts ...Option) *Service {
	s := &Service{scanner: sc, store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckORM returns ErrUnsupportedORM for anything but mongoose.
func CheckORM(orm string) error {
	normalized := strings.ToLower(strings.TrimSpace(orm))
	if normalized == "" || normalized == ORMMongoose {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedORM, orm)
}

// Today returns the usage bucket for the service clock.
func (s *Service) Today() string {
	return Date(s.now())
}

// Date returns the usage bucket t falls in.
func Date(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// Generate scans the repository and stores the resulting diagram.
//
// An unsupported ORM and an empty scan are reported through Outcome. Errors
// are a *LimitError when the plan forbids the generation, or wrap
// scanner.ErrTreeUnavailable when the repository cannot be listed.
// Usage is only counted when a diagram is stored.
func (s *Service) Generate(ctx context.Context, req Request) (*Outcome, error) {
	if req.Repository == "" || req.User == "" || req.Source == nil {
		return nil, ErrInvalidRequest
	}

	if err := CheckORM(req.ORM); err != nil {
		return &Outcome{
			Supported: false,
			Message:   fmt.Sprintf("Diagram generation for %q is coming soon.", req.ORM),
		}, nil
	}

	plan := plans.Get(req.Plan)
	today := s.Today()

	used, err := s.store.Usage(ctx, req.User, today)
	if err != nil {
		return nil, err
	}
	if !plan.AllowsDiagram(used) {
		return nil, &LimitError{Kind: LimitDiagrams, Plan: plan.ID, Limit: plan.DiagramsPerDay, Current: used}
	}

	if err := s.checkRepositoryLimit(ctx, plan, req); err != nil {
		return nil, err
	}

	result, err := s.scanner.Scan(ctx, req.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", req.Repository, err)
	}

	if len(result.Models) == 0 {
		return &Outcome{
			Supported: true,
			Message:   NoSchemasMessage,
			Scan:      result,
			Used:      used,
			Limit:     plan.DiagramsPerDay,
		}, nil
	}

	d, err := s.store.UpsertDiagram(ctx, req.Repository, req.User, result.Models)
	if err != nil {
		return nil, err
	}

	used, err = s.store.IncrementUsage(ctx, req.User, today)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Supported: true,
		Diagram:   d,
		Scan:      result,
		Used:      used,
		Limit:     plan.DiagramsPerDay,
	}, nil
}

// checkRepositoryLimit rejects a repository the user has no diagram for yet
// when the plan's repository allowance is used up.
func (s *Service) checkRepositoryLimit(ctx context.Context, plan plans.Plan, req Request) error {
	if plan.RepoLimit == plans.Unlimited {
		return nil
	}

	_, err := s.store.FindDiagram(ctx, req.Repository, req.User)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	count, err := s.store.CountRepositories(ctx, req.User)
	if err != nil {
		return err
	}
	if !plan.AllowsRepository(count) {
		return &LimitError{Kind: LimitRepositories, Plan: plan.ID, Limit: plan.RepoLimit, Current: count}
	}
	return nil
}
