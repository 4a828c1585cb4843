// Package csbindgen generates C# bindings for native libraries from the
// declarations embedded in their WebAssembly build.
//
// The instrumented library is compiled twice: once natively (the artifact the
// generated C# calls through DllImport) and once to wasm32. The wasm build
// carries one JSON declaration blob per exported item, reachable through a pair
// of entry points. cs-bindgen loads the wasm build, recovers every declaration,
// and emits glue source that converts between C# values and the raw C-compatible
// representations crossing the boundary.
//
// # Architecture Overview
//
//	csbindgen/           Root package with core Memory and Allocator interfaces
//	├── schema/          Closed set of type shapes and their JSON form
//	├── export/          Fn, Method and Named declarations, the export Set
//	├── naming/          Symbol conventions, identity mangling, identifier casing
//	├── abi/             Raw representation rules, layout, reference conversions
//	├── loader/          Declaration recovery from a compiled module (wazero)
//	├── generator/       C# glue emission
//	├── witgen/          WIT projection of a declaration set
//	├── config/          YAML/TOML configuration with environment overrides
//	├── pipeline/        Load, generate and write as one operation
//	├── errors/          Structured error types for debugging
//	└── cmd/cs-bindgen/  Command line interface
//
// # Quick Start
//
//	set, err := loader.New().LoadFile(ctx, "target/wasm32-unknown-unknown/release/mylib.wasm")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	src, err := generator.New(generator.Config{Library: "mylib"}).Generate(ctx, set)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("MyLib.g.cs", src, 0o644)
//
// # Ownership
//
// Owned data returned by the library (strings, sequences, handles) belongs to
// the caller and is released exactly once through the library's free entry
// points. Borrowed data passed into the library stays valid only for the
// duration of the call. The generated code encodes these rules; the abi package
// holds a host-side reference implementation used to verify them.
package csbindgen
