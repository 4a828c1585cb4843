package schema

type Kind uint8

const (
	KindUnit Kind = iota
	KindBool
	KindChar
	KindI8
	KindI16
	KindI32
	KindI64
	KindISize
	KindU8
	KindU16
	KindU32
	KindU64
	KindUSize
	KindF32
	KindF64
	KindString
	KindStr
	KindStruct
	KindUnitStruct
	KindNewtypeStruct
	KindTupleStruct
	KindEnum
	KindOption
	KindSeq
	KindSlice
	KindTuple
	KindMap
)

var kindNames = [...]string{
	KindUnit:          "Unit",
	KindBool:          "Bool",
	KindChar:          "Char",
	KindI8:            "I8",
	KindI16:           "I16",
	KindI32:           "I32",
	KindI64:           "I64",
	KindISize:         "ISize",
	KindU8:            "U8",
	KindU16:           "U16",
	KindU32:           "U32",
	KindU64:           "U64",
	KindUSize:         "USize",
	KindF32:           "F32",
	KindF64:           "F64",
	KindString:        "String",
	KindStr:           "Str",
	KindStruct:        "Struct",
	KindUnitStruct:    "UnitStruct",
	KindNewtypeStruct: "NewtypeStruct",
	KindTupleStruct:   "TupleStruct",
	KindEnum:          "Enum",
	KindOption:        "Option",
	KindSeq:           "Seq",
	KindSlice:         "Slice",
	KindTuple:         "Tuple",
	KindMap:           "Map",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsPrimitive reports whether k carries no payload.
func (k Kind) IsPrimitive() bool {
	return k <= KindStr
}

// IsInteger reports whether k is a fixed or pointer-width integer.
func (k Kind) IsInteger() bool {
	return k >= KindI8 && k <= KindUSize
}

// IsSigned reports whether k is a signed integer.
func (k Kind) IsSigned() bool {
	return k >= KindI8 && k <= KindISize
}

// IsFloat reports whether k is a floating point kind.
func (k Kind) IsFloat() bool {
	return k == KindF32 || k == KindF64
}

// IsPointerWidth reports whether k is sized by the target pointer width.
func (k Kind) IsPointerWidth() bool {
	return k == KindISize || k == KindUSize
}

// IsNamed reports whether schemas of kind k carry a TypeName.
func (k Kind) IsNamed() bool {
	return k >= KindStruct && k <= KindEnum
}

// IsText reports whether k is one of the two string kinds.
func (k Kind) IsText() bool {
	return k == KindString || k == KindStr
}

// FixedWidth returns the width in bytes of a fixed-width scalar kind,
// or 0 for pointer-width and non-scalar kinds.
func (k Kind) FixedWidth() uint32 {
	switch k {
	case KindBool, KindI8, KindU8:
		return 1
	case KindI16, KindU16:
		return 2
	case KindI32, KindU32, KindF32, KindChar:
		return 4
	case KindI64, KindU64, KindF64:
		return 8
	default:
		return 0
	}
}

// ParseKind returns the kind whose tag is name.
func ParseKind(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	return 0, false
}
