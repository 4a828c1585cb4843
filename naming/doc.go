// Package naming isolates every naming convention shared between the module
// instrumentation and the generated glue: declaration entry points, drop, index
// and drop-vec symbols, type identity mangling, and identifier casing.
//
// All functions are pure. A Convention can be overridden from configuration so a
// module built with different prefixes can still be loaded.
package naming
