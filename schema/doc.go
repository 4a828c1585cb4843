// Package schema defines the closed set of type shapes that can describe a value
// crossing the module boundary.
//
// A Schema is one of the payload-free primitives (Unit, Bool, Char, the integer
// and float kinds, String and Str) or a composite: Struct, UnitStruct,
// NewtypeStruct, TupleStruct, Enum, Option, Seq, Slice, Tuple and Map. Named
// composites carry a TypeName whose (module, name) pair is the identity key.
//
// Enums are either simple (every variant is a unit variant) or complex (at least
// one variant carries data). Discriminants follow the usual rule:
//
//	[A, B, C = 5, D, E = -12, F]  =>  [0, 1, 5, 6, -12, -11]
//
// Schemas encode to a self-describing JSON form (see Marshal and Unmarshal) that
// round-trips exactly.
package schema
