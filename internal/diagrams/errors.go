package diagrams

import (
	"errors"
	"fmt"

	"github.com/mvp-joe/schemagraph/internal/plans"
)

var (
	// ErrLimitReached is matched by every *LimitError.
	ErrLimitReached = errors.New("plan limit reached")

	// ErrUnsupportedORM is returned by CheckORM for ORMs other than mongoose.
	ErrUnsupportedORM = errors.New("unsupported ORM")

	// ErrInvalidRequest is returned when a request lacks a repository, user or source.
	ErrInvalidRequest = errors.New("invalid generate request")
)

// LimitKind names the limit that was reached.
type LimitKind string

const (
	LimitDiagrams     LimitKind = "DIAGRAM_LIMIT_REACHED"
	LimitRepositories LimitKind = "REPO_LIMIT_REACHED"
)

// LimitError reports that a plan does not allow another generation.
type LimitError struct {
	Kind    LimitKind
	Plan    plans.ID
	Limit   int
	Current int
}

// Error returns the error string.
func (e *LimitError) Error() string {
	switch e.Kind {
	case LimitRepositories:
		return fmt.Sprintf("your %s plan allows up to %d repositories; upgrade your plan to add more", e.Plan, e.Limit)
	default:
		return fmt.Sprintf("your %s plan allows %d diagram generation(s) per day; upgrade to generate more", e.Plan, e.Limit)
	}
}

// Is reports whether the target error matches LimitError.
// This allows errors.Is(limitErr, ErrLimitReached) to return true.
func (e *LimitError) Is(err error) bool {
	return err == ErrLimitReached
}

// IsLimitReached returns true if err is or wraps a LimitError.
func IsLimitReached(err error) bool {
	if err == nil {
		return false
	}
	var e *LimitError
	return errors.As(err, &e) || errors.Is(err, ErrLimitReached)
}
