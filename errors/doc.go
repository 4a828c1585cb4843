// Package errors provides structured error types for cs-bindgen.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the export identifier it belongs to, a field path, the offending
// type name, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseGenerate, errors.KindUnsupported).
//		Export("shapes::area").
//		Path("inputs", "points").
//		Type("Option<f64>").
//		Detail("no raw representation").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.ModuleStructure("__cs_bindgen_decl_ptr__greet", "missing length entry point")
//	err := errors.ExecutionTrap("greet", "__cs_bindgen_decl_ptr__greet", cause)
//
// All errors implement the standard error interface and support errors.Is/As.
// Errors are never retried: every category is a deterministic design-time failure.
package errors
