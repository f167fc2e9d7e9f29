package composegen

import "github.com/broady/composedoc/composegen/ir"

// Validate enforces the single authoring convention per unit: a unit either
// contributes a composition field or declares its own 2xx response, never
// both. Offending units get one SC0001 diagnostic each and are left out of
// accepted, routes and parameters included.
//
// Non-success responses (4xx, 5xx, default) may accompany a field.
func Validate(units []ir.HandlerUnit) (accepted []ir.HandlerUnit, diags []ir.Diagnostic) {
	for _, u := range units {
		if u.Field != nil && u.HasSuccessResponse() {
			diags = append(diags, ir.InvalidCompositionUsage.New(u.Pos, u.ID()))
			continue
		}
		accepted = append(accepted, u)
	}
	return accepted, diags
}
