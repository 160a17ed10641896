// Package equipment validates equipment-register and connections XML files.
//
// - Schema validation of each document through an XSD engine
// - Semantic checks a schema cannot express: content digests, equation
//   variables and syntax, tabular data, serialised archives
// - Cross-file uniqueness of equipment identifiers
// - A stable error model via Issues (file, line, column, code, message)
//
// Design policy:
// - Keep only the orchestrator and public types in the root package; the
//   validators live under internal/.
// - Diagnostics go through a diag.Sink; counters live in a per-run session.
// - The CLI is under cmd/msl-equipment-validate.
//
// Typical usage:
//
//	v, err := equipment.New(equipment.Options{Roots: []string{"/data"}})
//	res, err := v.Run(ctx, []string{"registers"})
//	fmt.Println(res.Outcome())
package equipment
