package topics

import (
	"fmt"

	"github.com/indianpineappl/upto-date/internal/apperr"
)

// Validate checks that a generated snapshot satisfies the structural
// contract: a non-empty topic list with unique, non-empty topic ids.
// Violations are schema errors; a snapshot is never coerced into shape.
func Validate(s *Snapshot) error {
	if s == nil {
		return &apperr.SchemaError{Reason: "empty snapshot"}
	}
	if len(s.Topics) == 0 {
		return &apperr.SchemaError{Reason: "topics list is empty"}
	}

	seen := make(map[string]struct{}, len(s.Topics))
	for i, t := range s.Topics {
		if t.ID == "" {
			return &apperr.SchemaError{Reason: fmt.Sprintf("topic %d has empty id", i)}
		}
		if _, dup := seen[t.ID]; dup {
			return &apperr.SchemaError{Reason: fmt.Sprintf("duplicate topic id %q", t.ID)}
		}
		seen[t.ID] = struct{}{}
	}

	return nil
}
