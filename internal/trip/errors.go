package trip

import "fmt"

// ValidationError rejects an operation whose arguments are inconsistent.
// The snapshot is left untouched.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError rejects an operation addressing a record that does not
// exist, including "last" against an empty collection. The snapshot is
// left untouched.
type NotFoundError struct {
	Kind string // "expense", "milestone", "photo"
	ID   string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return "no " + e.Kind + " registered yet"
	}
	return e.Kind + " not found: " + e.ID
}

func notFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}
