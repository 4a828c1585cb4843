// Package loader recovers export declarations from a compiled WebAssembly module.
//
// For every exported item the module carries a pair of zero-argument entry
// points named by the symbol convention, for example
//
//	__cs_bindgen_decl_ptr__greet() -> i32   // address of the JSON blob
//	__cs_bindgen_decl_len__greet() -> i32   // length of the blob in bytes
//
// The loader compiles the module with wazero, checks the export surface,
// instantiates it without running _start, and calls each pair in turn. The
// byte range is copied out of linear memory before anything else runs in the
// module, then validated as UTF-8 and decoded into an export.Export.
//
// Modules may instead carry their declarations in a custom section (by default
// "cs_bindgen.decls") whose payload is a JSON array of blobs. SourceSection
// reads only that section; SourceAuto prefers it and falls back to execution.
//
// Every failure is an *errors.Error of a distinct kind: module_load,
// module_structure, instantiation, execution_trap or decoding. A failed load
// never yields a partial declaration set.
package loader
