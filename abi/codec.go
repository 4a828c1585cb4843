package abi

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf16"
	"unicode/utf8"

	csbindgen "github.com/wippyai/cs-bindgen"
	"github.com/wippyai/cs-bindgen/errors"
	"github.com/wippyai/cs-bindgen/schema"
)

type Memory = csbindgen.Memory
type Allocator = csbindgen.Allocator

// StructValue is the natural form of a value-style struct: field values in
// declaration order.
type StructValue struct {
	Fields []any
}

// EnumValue is the natural form of an enum value. Fields is empty for unit variants.
type EnumValue struct {
	Variant string
	Fields  []any
}

type allocation struct {
	ptr   uint32
	size  uint32
	align uint32
}

// Frame owns the borrowed data of one call. Everything allocated for borrowed
// slices is released when the frame closes.
type Frame struct {
	alloc  Allocator
	blocks []allocation
	closed bool
}

func (f *Frame) add(ptr, size, align uint32) {
	f.blocks = append(f.blocks, allocation{ptr: ptr, size: size, align: align})
}

// Close releases the frame's borrowed data. It is safe to call more than once.
func (f *Frame) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	var first error
	for _, b := range f.blocks {
		if err := f.alloc.Free(b.ptr, b.size, b.align); err != nil && first == nil {
			first = err
		}
	}
	f.blocks = nil
	return first
}

// conversion tracks what one IntoRaw call has handed out so far. Owned blocks
// and inserted handles pass to the receiver on success and are taken back
// when the conversion fails part way.
type conversion struct {
	frame   *Frame
	owned   []allocation
	handles []uint32
}

func (c *Codec) rollback(cv *conversion) {
	for _, b := range cv.owned {
		_ = c.alloc.Free(b.ptr, b.size, b.align)
	}
	for _, h := range cv.handles {
		c.handles.Drop(h)
	}
	cv.owned, cv.handles = nil, nil
}

// Codec is a host-side reference implementation of the conversion contract:
// it converts natural Go values to raw bytes and back, allocating and freeing
// linear memory with the same ownership rules the generated glue follows.
type Codec struct {
	protocol *Protocol
	layout   Layout
	mem      Memory
	alloc    Allocator
	handles  *HandleTable
}

// NewCodec creates a codec over the given memory and handle table.
func NewCodec(p *Protocol, layout Layout, mem Memory, alloc Allocator, handles *HandleTable) *Codec {
	if handles == nil {
		handles = NewHandleTable()
	}
	return &Codec{
		protocol: p,
		layout:   layout,
		mem:      mem,
		alloc:    alloc,
		handles:  handles,
	}
}

// NewFrame starts the borrowed-data scope of one call.
func (c *Codec) NewFrame() *Frame {
	return &Frame{alloc: c.alloc}
}

// Handles returns the table backing handle-style values.
func (c *Codec) Handles() *HandleTable {
	return c.handles
}

// IntoRaw consumes v and returns the raw bytes of s travelling in direction dir.
// Owned data is allocated and its ownership passes to the receiver of the raw
// value; borrowed data lives until f is closed.
func (c *Codec) IntoRaw(f *Frame, s schema.Schema, dir Direction, v any) ([]byte, error) {
	r, err := c.protocol.Map(s, dir)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, c.layout.Of(r).Size)
	cv := &conversion{frame: f}
	if err := c.put(cv, r, v, buf, nil); err != nil {
		c.rollback(cv)
		return nil, err
	}
	return buf, nil
}

// FromRaw converts raw bytes of s travelling in direction dir back to a natural
// value. Owned buffers are released exactly once; the raw value must not be
// used afterwards.
func (c *Codec) FromRaw(s schema.Schema, dir Direction, raw []byte) (any, error) {
	r, err := c.protocol.Map(s, dir)
	if err != nil {
		return nil, err
	}
	if uint32(len(raw)) < c.layout.Of(r).Size {
		return nil, errors.OutOfBounds(errors.PhaseABI, 0, c.layout.Of(r).Size)
	}
	return c.get(r, raw, nil)
}

func (c *Codec) put(cv *conversion, r Repr, v any, buf []byte, path []string) error {
	switch t := r.(type) {
	case Scalar:
		return c.putScalar(t.Kind, v, buf, path)
	case Void:
		if v != nil {
			return errors.TypeMismatch(path, "unit", v)
		}
		return nil
	case *OwnedBuffer:
		// Owned storage outlives the call, so nothing inside it may borrow.
		frame := cv.frame
		cv.frame = nil
		ptr, n, err := c.writeBuffer(cv, t.Elem, t.Text, false, v, path)
		cv.frame = frame
		if err != nil {
			return err
		}
		ps := c.layout.ptr()
		putUint(buf, ps, uint64(ptr))
		putUint(buf[ps:], ps, uint64(n))
		putUint(buf[2*ps:], ps, uint64(n))
		return nil
	case *BorrowedSlice:
		ptr, n, err := c.writeBuffer(cv, t.Elem, t.Text, true, v, path)
		if err != nil {
			return err
		}
		ps := c.layout.ptr()
		putUint(buf, ps, uint64(ptr))
		putUint(buf[ps:], ps, uint64(n))
		return nil
	case *Record:
		sv, ok := v.(StructValue)
		if !ok {
			return errors.TypeMismatch(path, t.Type.String(), v)
		}
		return c.putRecord(cv, t, sv.Fields, buf, path)
	case *Discriminant:
		ev, ok := v.(EnumValue)
		if !ok {
			return errors.TypeMismatch(path, t.Enum.Name.String(), v)
		}
		idx := t.Enum.VariantIndex(ev.Variant)
		if idx < 0 {
			return unknownVariant(path, t.Enum, ev.Variant)
		}
		putUint(buf, c.layout.ScalarSize(t.Kind), uint64(t.Enum.Discriminants()[idx]))
		return nil
	case *TaggedUnion:
		ev, ok := v.(EnumValue)
		if !ok {
			return errors.TypeMismatch(path, t.Enum.Name.String(), v)
		}
		idx := t.Enum.VariantIndex(ev.Variant)
		if idx < 0 {
			return unknownVariant(path, t.Enum, ev.Variant)
		}
		info := c.layout.Of(t)
		putUint(buf, c.layout.ScalarSize(t.Disc), uint64(t.Enum.Discriminants()[idx]))
		if m, ok := t.MemberFor(idx); ok {
			return c.putRecord(cv, m.Payload, ev.Fields, buf[info.Offsets[1]:], append(path, ev.Variant))
		}
		if len(ev.Fields) != 0 {
			return errors.TypeMismatch(path, ev.Variant, ev.Fields)
		}
		return nil
	case *Handle:
		var ptr uint32
		switch h := v.(type) {
		case *OwnedHandle:
			ptr = h.Pointer()
			if ptr == 0 {
				return errors.Ownership("handle used after dispose", 0)
			}
		case nil:
			return errors.TypeMismatch(path, t.Type.String(), v)
		default:
			ptr = c.handles.Insert(t.Type, v)
			cv.handles = append(cv.handles, ptr)
		}
		putUint(buf, c.layout.ptr(), uint64(ptr))
		return nil
	}
	return fmt.Errorf("abi: unknown representation %T", r)
}

func (c *Codec) putRecord(cv *conversion, r *Record, fields []any, buf []byte, path []string) error {
	if len(fields) != len(r.Fields) {
		return errors.New(errors.PhaseABI, errors.KindTypeMismatch).
			Path(path...).
			Type(r.Name).
			Detail("expected %d fields, got %d", len(r.Fields), len(fields)).
			Build()
	}
	info := c.layout.Of(r)
	for i, field := range r.Fields {
		if err := c.put(cv, field.Repr, fields[i], buf[info.Offsets[i]:], append(path, field.Name)); err != nil {
			return err
		}
	}
	return nil
}

// writeBuffer allocates and fills the pointed-to storage of a buffer or slice.
// It returns the pointer and the element count.
func (c *Codec) writeBuffer(cv *conversion, elem Repr, text, borrowed bool, v any, path []string) (uint32, uint32, error) {
	if borrowed && cv.frame == nil {
		return 0, 0, errors.InvalidInput(errors.PhaseABI, "borrowed data requires a call frame")
	}
	var (
		data  []byte
		count uint32
		align uint32 = 1
	)

	if text {
		s, ok := v.(string)
		if !ok {
			return 0, 0, errors.TypeMismatch(path, "string", v)
		}
		if sc, ok := elem.(Scalar); ok && sc.Kind == schema.KindU16 {
			units := utf16.Encode([]rune(s))
			data = make([]byte, 2*len(units))
			for i, u := range units {
				binary.LittleEndian.PutUint16(data[2*i:], u)
			}
			count = uint32(len(units))
			align = 2
		} else {
			data = []byte(s)
			count = uint32(len(data))
		}
	} else {
		items, ok := v.([]any)
		if !ok {
			return 0, 0, errors.TypeMismatch(path, "sequence", v)
		}
		stride := c.layout.Stride(elem)
		align = c.layout.Of(elem).Align
		data = make([]byte, stride*uint32(len(items)))
		for i, item := range items {
			if err := c.put(cv, elem, item, data[uint32(i)*stride:], append(path, fmt.Sprintf("[%d]", i))); err != nil {
				return 0, 0, err
			}
		}
		count = uint32(len(items))
	}

	ptr, err := c.alloc.Alloc(uint32(len(data)), align)
	if err != nil {
		return 0, 0, err
	}
	if borrowed {
		cv.frame.add(ptr, uint32(len(data)), align)
	} else {
		cv.owned = append(cv.owned, allocation{ptr: ptr, size: uint32(len(data)), align: align})
	}
	if err := c.mem.Write(ptr, data); err != nil {
		return 0, 0, err
	}
	return ptr, count, nil
}

func (c *Codec) get(r Repr, buf []byte, path []string) (any, error) {
	switch t := r.(type) {
	case Scalar:
		return c.getScalar(t.Kind, buf, path)
	case Void:
		return nil, nil
	case *OwnedBuffer:
		ps := c.layout.ptr()
		ptr := uint32(getUint(buf, ps))
		n := uint32(getUint(buf[ps:], ps))
		v, err := c.readBuffer(t.Elem, t.Text, ptr, n, path)
		size, align := c.bufferExtent(t.Elem, t.Text, n)
		if ferr := c.alloc.Free(ptr, size, align); ferr != nil && err == nil {
			err = ferr
		}
		if err != nil {
			return nil, err
		}
		return v, nil
	case *BorrowedSlice:
		ps := c.layout.ptr()
		ptr := uint32(getUint(buf, ps))
		n := uint32(getUint(buf[ps:], ps))
		return c.readBuffer(t.Elem, t.Text, ptr, n, path)
	case *Record:
		fields, err := c.getRecord(t, buf, path)
		if err != nil {
			return nil, err
		}
		return StructValue{Fields: fields}, nil
	case *Discriminant:
		d := getInt(buf, c.layout.ScalarSize(t.Kind), t.Kind.IsSigned())
		idx, err := variantFor(t.Enum, d, path)
		if err != nil {
			return nil, err
		}
		return EnumValue{Variant: t.Enum.Variants[idx].VariantName()}, nil
	case *TaggedUnion:
		d := getInt(buf, c.layout.ScalarSize(t.Disc), t.Disc.IsSigned())
		idx, err := variantFor(t.Enum, d, path)
		if err != nil {
			return nil, err
		}
		ev := EnumValue{Variant: t.Enum.Variants[idx].VariantName()}
		if m, ok := t.MemberFor(idx); ok {
			info := c.layout.Of(t)
			fields, err := c.getRecord(m.Payload, buf[info.Offsets[1]:], append(path, ev.Variant))
			if err != nil {
				return nil, err
			}
			ev.Fields = fields
		}
		return ev, nil
	case *Handle:
		ptr := uint32(getUint(buf, c.layout.ptr()))
		if ptr == 0 {
			return nil, errors.New(errors.PhaseABI, errors.KindOwnership).
				Path(path...).
				Type(t.Type.String()).
				Detail("null handle").
				Build()
		}
		return NewOwnedHandle(ptr, t.Type, func(p uint32) { c.handles.Drop(p) }), nil
	}
	return nil, fmt.Errorf("abi: unknown representation %T", r)
}

func (c *Codec) getRecord(r *Record, buf []byte, path []string) ([]any, error) {
	info := c.layout.Of(r)
	out := make([]any, len(r.Fields))
	for i, field := range r.Fields {
		v, err := c.get(field.Repr, buf[info.Offsets[i]:], append(path, field.Name))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// bufferExtent returns the byte size and alignment of n elements of storage.
func (c *Codec) bufferExtent(elem Repr, text bool, n uint32) (uint32, uint32) {
	if text {
		if sc, ok := elem.(Scalar); ok && sc.Kind == schema.KindU16 {
			return 2 * n, 2
		}
		return n, 1
	}
	return c.layout.Stride(elem) * n, c.layout.Of(elem).Align
}

// readBuffer copies n elements out of linear memory and returns the natural value.
func (c *Codec) readBuffer(elem Repr, text bool, ptr, n uint32, path []string) (any, error) {
	size, _ := c.bufferExtent(elem, text, n)
	data, err := c.mem.Read(ptr, size)
	if err != nil {
		return nil, err
	}
	if text {
		if sc, ok := elem.(Scalar); ok && sc.Kind == schema.KindU16 {
			units := make([]uint16, n)
			for i := range units {
				units[i] = binary.LittleEndian.Uint16(data[2*i:])
			}
			return string(utf16.Decode(units)), nil
		}
		if !utf8.Valid(data) {
			return nil, errors.New(errors.PhaseABI, errors.KindTypeMismatch).
				Path(path...).
				Detail("invalid UTF-8 in string buffer").
				Build()
		}
		return string(data), nil
	}

	stride := c.layout.Stride(elem)
	items := make([]any, n)
	for i := range items {
		v, err := c.get(elem, data[uint32(i)*stride:], append(path, fmt.Sprintf("[%d]", i)))
		if err != nil {
			return nil, err
		}
		items[i] = v
	}
	return items, nil
}

func (c *Codec) putScalar(k schema.Kind, v any, buf []byte, path []string) error {
	w := c.layout.ScalarSize(k)
	mismatch := func() error { return errors.TypeMismatch(path, k.String(), v) }

	switch k {
	case schema.KindBool:
		b, ok := v.(bool)
		if !ok {
			return mismatch()
		}
		if b {
			buf[0] = 1
		} else {
			buf[0] = 0
		}
	case schema.KindChar:
		r, ok := v.(rune)
		if !ok || !utf8.ValidRune(r) {
			return mismatch()
		}
		putUint(buf, 4, uint64(r))
	case schema.KindF32:
		f, ok := v.(float32)
		if !ok {
			return mismatch()
		}
		putUint(buf, 4, uint64(math.Float32bits(f)))
	case schema.KindF64:
		f, ok := v.(float64)
		if !ok {
			return mismatch()
		}
		putUint(buf, 8, math.Float64bits(f))
	default:
		u, ok := integerBits(k, v)
		if !ok {
			return mismatch()
		}
		putUint(buf, w, u)
	}
	return nil
}

func (c *Codec) getScalar(k schema.Kind, buf []byte, path []string) (any, error) {
	w := c.layout.ScalarSize(k)
	switch k {
	case schema.KindBool:
		return buf[0] != 0, nil
	case schema.KindChar:
		r := rune(getUint(buf, 4))
		if !utf8.ValidRune(r) {
			return nil, errors.New(errors.PhaseABI, errors.KindTypeMismatch).
				Path(path...).
				Detail("invalid code point %#x", uint32(r)).
				Build()
		}
		return r, nil
	case schema.KindF32:
		return math.Float32frombits(uint32(getUint(buf, 4))), nil
	case schema.KindF64:
		return math.Float64frombits(getUint(buf, 8)), nil
	case schema.KindI8:
		return int8(getInt(buf, w, true)), nil
	case schema.KindI16:
		return int16(getInt(buf, w, true)), nil
	case schema.KindI32:
		return int32(getInt(buf, w, true)), nil
	case schema.KindI64, schema.KindISize:
		return getInt(buf, w, true), nil
	case schema.KindU8:
		return uint8(getUint(buf, w)), nil
	case schema.KindU16:
		return uint16(getUint(buf, w)), nil
	case schema.KindU32:
		return uint32(getUint(buf, w)), nil
	case schema.KindU64, schema.KindUSize:
		return getUint(buf, w), nil
	}
	return nil, errors.Unsupported(errors.PhaseABI, k.String(), "not a scalar kind")
}

// integerBits returns the two's complement bits of v if its Go type is the
// natural type of k.
func integerBits(k schema.Kind, v any) (uint64, bool) {
	switch k {
	case schema.KindI8:
		x, ok := v.(int8)
		return uint64(x), ok
	case schema.KindI16:
		x, ok := v.(int16)
		return uint64(x), ok
	case schema.KindI32:
		x, ok := v.(int32)
		return uint64(x), ok
	case schema.KindI64, schema.KindISize:
		x, ok := v.(int64)
		return uint64(x), ok
	case schema.KindU8:
		x, ok := v.(uint8)
		return uint64(x), ok
	case schema.KindU16:
		x, ok := v.(uint16)
		return uint64(x), ok
	case schema.KindU32:
		x, ok := v.(uint32)
		return uint64(x), ok
	case schema.KindU64, schema.KindUSize:
		x, ok := v.(uint64)
		return x, ok
	}
	return 0, false
}

func variantFor(e *schema.Enum, d int64, path []string) (int, error) {
	for i, disc := range e.Discriminants() {
		if disc == d {
			return i, nil
		}
	}
	return 0, errors.New(errors.PhaseABI, errors.KindTypeMismatch).
		Path(path...).
		Type(e.Name.String()).
		Detail("unknown discriminant %d", d).
		Build()
}

func unknownVariant(path []string, e *schema.Enum, name string) error {
	return errors.New(errors.PhaseABI, errors.KindTypeMismatch).
		Path(path...).
		Type(e.Name.String()).
		Detail("unknown variant %q", name).
		Build()
}

func putUint(buf []byte, width uint32, v uint64) {
	for i := uint32(0); i < width; i++ {
		buf[i] = byte(v >> (8 * i))
	}
}

func getUint(buf []byte, width uint32) uint64 {
	var v uint64
	for i := uint32(0); i < width; i++ {
		v |= uint64(buf[i]) << (8 * i)
	}
	return v
}

func getInt(buf []byte, width uint32, signed bool) int64 {
	v := getUint(buf, width)
	if signed && width < 8 {
		shift := 64 - 8*width
		return int64(v<<shift) >> shift
	}
	return int64(v)
}

