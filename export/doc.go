// Package export models the items a module declares for binding: free functions
// (Fn), methods on a named self type (Method), and named user types (Named).
//
// Each export decodes from one JSON declaration blob. A Set collects the exports
// of one module, keyed by identifier, and is never mutated after NewSet returns.
package export
