// Package abi defines how every schema crosses the C-compatible boundary.
//
// Protocol maps a schema and a direction to its raw representation (Repr):
//
//	Bool                 one byte
//	Char                 32-bit code point
//	integers, floats     identical width and signedness
//	String (output)      owned buffer (ptr, len, cap) of UTF-8, freed once by the host
//	String, Str (input)  borrowed UTF-16 slice (ptr, len) pinned for the call
//	Str (output)         borrowed UTF-8 slice, copied immediately
//	Seq<T>               owned buffer (output) or borrowed slice (input) of T
//	value struct         parallel raw record, fields in declaration order
//	simple enum          discriminant integer
//	complex enum         discriminant plus union of variant payload records
//	handle type          opaque pointer released by the type's drop entry point
//
// Option, Map and anonymous tuples have no raw form and are rejected.
//
// Layout computes C struct layouts for a pointer width. Codec, Arena and
// HandleTable form a host-side reference implementation of the conversions:
// they move natural Go values through a linear memory with the same ownership
// transfers the generated glue performs, and report double frees and reads of
// released memory.
package abi
