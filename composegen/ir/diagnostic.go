package ir

import (
	"fmt"
	"go/token"
)

// Code identifies a diagnostic kind.
type Code string

const (
	// CodeInvalidCompositionUsage: a unit declares both a composition field
	// and an explicit 2xx response.
	CodeInvalidCompositionUsage Code = "SC0001"

	// CodeDuplicateProperty: two contributions to one route group share a
	// property name.
	CodeDuplicateProperty Code = "SC0002"

	// CodeNameCollision: two route groups derive the same generated identifiers.
	CodeNameCollision Code = "SC0003"
)

// Severity of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Descriptor describes a diagnostic kind. Format is a fmt template.
type Descriptor struct {
	Code     Code
	Title    string
	Format   string
	Severity Severity
}

// Diagnostic is one reported problem.
type Diagnostic struct {
	Code     Code
	Severity Severity
	Message  string
	Pos      token.Position
}

// New creates a diagnostic at pos.
func (d Descriptor) New(pos token.Position, args ...any) Diagnostic {
	return Diagnostic{
		Code:     d.Code,
		Severity: d.Severity,
		Message:  fmt.Sprintf(d.Format, args...),
		Pos:      pos,
	}
}

// String formats the diagnostic as "pos: severity code: message".
func (d Diagnostic) String() string {
	if d.Pos.IsValid() {
		return fmt.Sprintf("%s: %s %s: %s", d.Pos, d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%s %s: %s", d.Severity, d.Code, d.Message)
}

var (
	InvalidCompositionUsage = Descriptor{
		Code:     CodeInvalidCompositionUsage,
		Title:    "//compose:response for a 2XX status",
		Format:   "method %s cannot declare a //compose:response for a 2XX HTTP status code alongside //compose:field; use //compose:field only",
		Severity: SeverityError,
	}

	DuplicateProperty = Descriptor{
		Code:     CodeDuplicateProperty,
		Title:    "duplicate composition property",
		Format:   "composition property %q for route %s is already contributed by %s; no model is generated for this route",
		Severity: SeverityError,
	}

	NameCollision = Descriptor{
		Code:     CodeNameCollision,
		Title:    "generated name collision",
		Format:   "generated type %s for route %s collides with the one generated for route %s; no model is generated for this route",
		Severity: SeverityError,
	}
)

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
