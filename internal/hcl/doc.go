// Package hcl provides the concrete HCL implementation of the declarative UI
// parser consumed by the compiler. It is responsible for all source parsing,
// schema validation and cty-to-value conversion; the compiler only sees the
// resulting artifact.Declarations and line/column diagnostics.
package hcl
