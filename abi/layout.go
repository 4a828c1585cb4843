package abi

import (
	"github.com/wippyai/cs-bindgen/schema"
)

// Info describes the C layout of a raw representation.
type Info struct {
	Size    uint32
	Align   uint32
	Offsets []uint32 // record fields, or [discriminant, payload] for tagged unions
}

// Layout computes C layouts for a target pointer width.
type Layout struct {
	PointerSize uint32
}

// Wasm32 is the layout of the wasm32 target.
var Wasm32 = Layout{PointerSize: 4}

// Native64 is the layout of 64-bit native targets.
var Native64 = Layout{PointerSize: 8}

// Of returns the layout of r.
func (l Layout) Of(r Repr) Info {
	ps := l.ptr()
	switch t := r.(type) {
	case Scalar:
		w := l.ScalarSize(t.Kind)
		return Info{Size: w, Align: w}
	case Void:
		return Info{Size: 0, Align: 1}
	case *OwnedBuffer:
		return Info{Size: 3 * ps, Align: ps}
	case *BorrowedSlice:
		return Info{Size: 2 * ps, Align: ps}
	case *Handle:
		return Info{Size: ps, Align: ps}
	case *Discriminant:
		w := l.ScalarSize(t.Kind)
		return Info{Size: w, Align: w}
	case *Record:
		return l.record(t)
	case *TaggedUnion:
		return l.union(t)
	default:
		return Info{Size: 0, Align: 1}
	}
}

// ScalarSize returns the width in bytes of a scalar kind.
func (l Layout) ScalarSize(k schema.Kind) uint32 {
	if k.IsPointerWidth() {
		return l.ptr()
	}
	if w := k.FixedWidth(); w != 0 {
		return w
	}
	return 0
}

// Stride returns the distance between consecutive elements of r in a buffer.
func (l Layout) Stride(r Repr) uint32 {
	info := l.Of(r)
	return AlignTo(info.Size, info.Align)
}

func (l Layout) record(r *Record) Info {
	if len(r.Fields) == 0 {
		return Info{Size: 0, Align: 1}
	}

	offsets := make([]uint32, len(r.Fields))
	maxAlign := uint32(1)
	offset := uint32(0)

	for i, field := range r.Fields {
		fieldLayout := l.Of(field.Repr)

		offset = AlignTo(offset, fieldLayout.Align)
		offsets[i] = offset

		if fieldLayout.Align > maxAlign {
			maxAlign = fieldLayout.Align
		}

		offset += fieldLayout.Size
	}

	return Info{
		Size:    AlignTo(offset, maxAlign),
		Align:   maxAlign,
		Offsets: offsets,
	}
}

func (l Layout) union(u *TaggedUnion) Info {
	discSize := l.ScalarSize(u.Disc)

	payloadAlign := uint32(1)
	payloadSize := uint32(0)
	for _, m := range u.Members {
		ml := l.Of(m.Payload)
		if ml.Align > payloadAlign {
			payloadAlign = ml.Align
		}
		if ml.Size > payloadSize {
			payloadSize = ml.Size
		}
	}

	maxAlign := discSize
	if payloadAlign > maxAlign {
		maxAlign = payloadAlign
	}

	payloadOffset := AlignTo(discSize, payloadAlign)
	return Info{
		Size:    AlignTo(payloadOffset+AlignTo(payloadSize, payloadAlign), maxAlign),
		Align:   maxAlign,
		Offsets: []uint32{0, payloadOffset},
	}
}

func (l Layout) ptr() uint32 {
	if l.PointerSize == 0 {
		return 4
	}
	return l.PointerSize
}

// AlignTo rounds offset up to a multiple of align.
func AlignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}
