package matching

import (
	"github.com/spigell/talent-intake/internal/schema"
	"github.com/spigell/talent-intake/internal/session"
)

// Completeness classifies a profile by how many required fields it has.
type Completeness string

const (
	Complete   Completeness = "complete"
	Partial    Completeness = "partial"
	Incomplete Completeness = "incomplete"
)

// ClassifyCompleteness counts populated required fields: all of them is
// complete, at least half is partial, anything less is incomplete.
func ClassifyCompleteness(p session.Profile) Completeness {
	total := len(schema.RequiredProfileFields)
	populated := total - len(p.MissingRequired())

	switch {
	case populated == total:
		return Complete
	case populated*2 >= total:
		return Partial
	default:
		return Incomplete
	}
}
