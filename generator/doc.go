// Package generator emits C# bindings for a declaration set.
//
// The output is one source file with three layers:
//
//   - raw: an internal static class __bindings holding a DllImport declaration
//     for every function, method, drop, index and drop-vec entry point, plus
//     FromRaw/IntoRaw overloads converting each generated type to and from its
//     raw record.
//   - wrappers: natural-typed members that pin strings and arrays for the
//     duration of the call, convert the result and release owned buffers once.
//     Free functions live in one static class; methods live on their type.
//   - types: value structs with parallel _Raw records, IDisposable handle
//     classes, C# enums for simple enums, and an interface with one struct per
//     variant for complex enums.
//
// Exports render concurrently into fixed slots and are emitted in the set's
// order, so the output is byte-identical for the same input.
package generator
