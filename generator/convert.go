package generator

import (
	"fmt"

	"github.com/wippyai/cs-bindgen/abi"
	"github.com/wippyai/cs-bindgen/errors"
	"github.com/wippyai/cs-bindgen/schema"
)

// fromRaw returns the statements converting the raw value raw, of
// representation r and schema s, into the natural lvalue dst. Owned buffers
// are released right after their contents are copied out.
func (e *emitter) fromRaw(f *fragment, r abi.Repr, s schema.Schema, raw, dst string) ([]string, error) {
	switch t := r.(type) {
	case abi.Void:
		return nil, nil
	case abi.Scalar:
		if t.Kind == schema.KindBool {
			return []string{fmt.Sprintf("%s = %s != 0;", dst, raw)}, nil
		}
		return []string{fmt.Sprintf("%s = %s;", dst, raw)}, nil
	case *abi.Discriminant, *abi.Record, *abi.TaggedUnion, *abi.Handle:
		return []string{fmt.Sprintf("%s.FromRaw(%s, out %s);", bindingsClass, raw, dst)}, nil
	case *abi.OwnedBuffer:
		if t.Text {
			return []string{
				fmt.Sprintf("%s = %s;", dst, utf8Decode(raw)),
				fmt.Sprintf("%s.%s(%s);", bindingsClass, externIdent(e.cfg.Convention.StringFree), raw),
			}, nil
		}
		list, drop, err := e.listFromRaw(f, t.Elem, elementOf(s), raw)
		if err != nil {
			return nil, err
		}
		if sc, ok := t.Elem.(abi.Scalar); ok {
			f.usePrimitiveVec(sc.Kind)
		}
		return []string{
			fmt.Sprintf("%s = %s;", dst, list),
			fmt.Sprintf("%s.%s(%s);", bindingsClass, externIdent(drop), raw),
		}, nil
	case *abi.BorrowedSlice:
		if t.Text {
			return []string{fmt.Sprintf("%s = %s;", dst, utf8Decode(raw))}, nil
		}
		view := fmt.Sprintf("new %s(%s.Ptr, %s.Length, %s.Length)", rawVecType, raw, raw, raw)
		list, _, err := e.listFromRaw(f, t.Elem, elementOf(s), view)
		if err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("%s = %s;", dst, list)}, nil
	}
	return nil, errors.Unsupported(errors.PhaseGenerate, r.String(), "no conversion from raw")
}

// listFromRaw returns an expression building a List<T> from the RawVec
// expression vec, and the entry point that releases vec when it is owned.
func (e *emitter) listFromRaw(f *fragment, elem abi.Repr, s schema.Schema, vec string) (string, string, error) {
	conv := e.cfg.Convention
	switch t := elem.(type) {
	case abi.Scalar:
		if t.Kind == schema.KindBool {
			expr := fmt.Sprintf("%s.ConvertRawVec<bool, byte>(%s, %s.FromRaw)", bindingsClass, vec, bindingsClass)
			return expr, conv.PrimitiveDropVec(t.Kind), nil
		}
		expr := fmt.Sprintf("%s.CopyRawVec<%s>(%s)", bindingsClass, primitiveType(t.Kind, true), vec)
		return expr, conv.PrimitiveDropVec(t.Kind), nil
	case *abi.Discriminant, *abi.Record, *abi.TaggedUnion, *abi.Handle:
		tn, ok := schema.NameOf(s)
		if !ok {
			return "", "", errors.Unsupported(errors.PhaseGenerate, elem.String(), "element has no declaring type")
		}
		n, ok := e.set.Lookup(tn)
		if !ok {
			return "", "", errors.Generation("", fmt.Sprintf("type %s is not exported", tn))
		}
		nat, err := e.naturalType(s, abi.Output)
		if err != nil {
			return "", "", err
		}
		expr := fmt.Sprintf("%s.FromRawVec<%s, %s>(%s, %s.%s, %s.FromRaw)",
			bindingsClass, nat, rawType(elem), vec, bindingsClass, externIdent(e.indexSymbol(n)), bindingsClass)
		return expr, e.dropVecSymbol(n), nil
	}
	return "", "", errors.Unsupported(errors.PhaseGenerate, elem.String(), "sequence element has no conversion")
}

// intoRaw returns the statements converting the natural value nat into the
// raw lvalue dst. Only representations that may sit inside input data are
// accepted; strings and slices are pinned by the wrapper instead.
func intoRaw(r abi.Repr, nat, dst string) ([]string, error) {
	switch t := r.(type) {
	case abi.Scalar:
		if t.Kind == schema.KindBool {
			return []string{fmt.Sprintf("%s = %s ? (byte)1 : (byte)0;", dst, nat)}, nil
		}
		return []string{fmt.Sprintf("%s = %s;", dst, nat)}, nil
	case *abi.Discriminant, *abi.Record, *abi.TaggedUnion, *abi.Handle:
		return []string{fmt.Sprintf("%s.IntoRaw(%s, out %s);", bindingsClass, nat, dst)}, nil
	}
	return nil, errors.Unsupported(errors.PhaseGenerate, r.String(), "no conversion into raw")
}

func elementOf(s schema.Schema) schema.Schema {
	switch t := s.(type) {
	case *schema.Seq:
		return t.Element
	case *schema.Slice:
		return t.Element
	}
	return nil
}

func utf8Decode(raw string) string {
	return fmt.Sprintf("Encoding.UTF8.GetString((byte*)%s.Ptr.ToPointer(), (int)%s.Length)", raw, raw)
}
