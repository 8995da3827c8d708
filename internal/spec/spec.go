// Package spec defines the pluggable per-domain contract for row processing:
// a spec definition pairs a required-column set with a row validator and a
// row-to-command converter, selected at runtime from a name-keyed registry.
package spec

import (
	"github.com/msageha/mgapi/internal/model"
	"github.com/msageha/mgapi/internal/table"
)

// Definition declares one spec type. Both functions must be total over any
// row matching RequiredColumns; Validate is pure, and ToCommand is only
// invoked on rows that passed Validate. A ToCommand error is classified by
// the engine as an exception outcome, never propagated.
type Definition struct {
	// Type is the name the registry and CLI select this definition by.
	Type string

	// RequiredColumns must all be present in an input table, or loading fails.
	RequiredColumns []string

	// Validate reports whether the row may be converted, with the rejection
	// reason surfaced verbatim in the row's message column.
	Validate func(row table.Row) (bool, string)

	// ToCommand converts a valid row into the command payload.
	ToCommand func(row table.Row) (model.Command, error)
}
