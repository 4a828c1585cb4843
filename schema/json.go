package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Wire format: payload-free kinds encode as their tag string ("I32"); every other
// kind encodes as a single-key object whose key is the tag.
//
//	{"Seq":"U8"}
//	{"Struct":{"name":{"name":"Point","module":"geo"},"fields":[{"name":"x","schema":"F64"}]}}
//	{"Enum":{"name":{...},"variants":[{"Unit":{"name":"A","discriminant":5}}],"repr":"I32"}}

type fieldJSON struct {
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
}

type structJSON struct {
	Name   TypeName    `json:"name"`
	Fields []fieldJSON `json:"fields"`
}

type unitStructJSON struct {
	Name TypeName `json:"name"`
}

type newtypeJSON struct {
	Name  TypeName        `json:"name"`
	Inner json.RawMessage `json:"inner"`
}

type tupleStructJSON struct {
	Name     TypeName          `json:"name"`
	Elements []json.RawMessage `json:"elements"`
}

type enumJSON struct {
	Name     TypeName          `json:"name"`
	Variants []json.RawMessage `json:"variants"`
	Repr     *string           `json:"repr,omitempty"`
}

type mapJSON struct {
	Key   json.RawMessage `json:"key"`
	Value json.RawMessage `json:"value"`
}

type unitVariantJSON struct {
	Name         string `json:"name"`
	Discriminant *int64 `json:"discriminant,omitempty"`
}

type tupleVariantJSON struct {
	Name     string            `json:"name"`
	Elements []json.RawMessage `json:"elements"`
}

type structVariantJSON struct {
	Name   string      `json:"name"`
	Fields []fieldJSON `json:"fields"`
}

// Marshal encodes s in the self-describing wire format.
func Marshal(s Schema) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("schema: cannot marshal nil schema")
	}
	if p, ok := s.(Primitive); ok {
		return json.Marshal(p.kind.String())
	}

	var payload any
	switch t := s.(type) {
	case *Struct:
		fields, err := marshalFields(t.Fields)
		if err != nil {
			return nil, err
		}
		payload = structJSON{Name: t.Name, Fields: fields}
	case *UnitStruct:
		payload = unitStructJSON{Name: t.Name}
	case *NewtypeStruct:
		inner, err := Marshal(t.Inner)
		if err != nil {
			return nil, err
		}
		payload = newtypeJSON{Name: t.Name, Inner: inner}
	case *TupleStruct:
		elems, err := marshalList(t.Elements)
		if err != nil {
			return nil, err
		}
		payload = tupleStructJSON{Name: t.Name, Elements: elems}
	case *Enum:
		variants := make([]json.RawMessage, len(t.Variants))
		for i, v := range t.Variants {
			raw, err := marshalVariant(v)
			if err != nil {
				return nil, err
			}
			variants[i] = raw
		}
		ej := enumJSON{Name: t.Name, Variants: variants}
		if t.Repr != nil {
			r := t.Repr.String()
			ej.Repr = &r
		}
		payload = ej
	case *Option:
		inner, err := Marshal(t.Inner)
		if err != nil {
			return nil, err
		}
		payload = json.RawMessage(inner)
	case *Seq:
		inner, err := Marshal(t.Element)
		if err != nil {
			return nil, err
		}
		payload = json.RawMessage(inner)
	case *Slice:
		inner, err := Marshal(t.Element)
		if err != nil {
			return nil, err
		}
		payload = json.RawMessage(inner)
	case *Tuple:
		elems, err := marshalList(t.Elements)
		if err != nil {
			return nil, err
		}
		payload = elems
	case *Map:
		k, err := Marshal(t.Key)
		if err != nil {
			return nil, err
		}
		v, err := Marshal(t.Value)
		if err != nil {
			return nil, err
		}
		payload = mapJSON{Key: k, Value: v}
	default:
		return nil, fmt.Errorf("schema: unknown schema type %T", s)
	}

	return marshalTagged(s.Kind().String(), payload)
}

// Unmarshal decodes a schema from the self-describing wire format.
func Unmarshal(data []byte) (Schema, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("schema: empty input")
	}

	if data[0] == '"' {
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
		k, ok := ParseKind(tag)
		if !ok || !k.IsPrimitive() {
			return nil, fmt.Errorf("schema: unknown primitive %q", tag)
		}
		return Primitive{kind: k}, nil
	}

	tag, payload, err := splitTagged(data)
	if err != nil {
		return nil, err
	}
	k, ok := ParseKind(tag)
	if !ok || k.IsPrimitive() {
		return nil, fmt.Errorf("schema: unknown tag %q", tag)
	}

	switch k {
	case KindStruct:
		var sj structJSON
		if err := strictUnmarshal(payload, &sj); err != nil {
			return nil, fmt.Errorf("schema: struct: %w", err)
		}
		fields, err := unmarshalFields(sj.Fields)
		if err != nil {
			return nil, err
		}
		return &Struct{Name: sj.Name, Fields: fields}, nil
	case KindUnitStruct:
		var uj unitStructJSON
		if err := strictUnmarshal(payload, &uj); err != nil {
			return nil, fmt.Errorf("schema: unit struct: %w", err)
		}
		return &UnitStruct{Name: uj.Name}, nil
	case KindNewtypeStruct:
		var nj newtypeJSON
		if err := strictUnmarshal(payload, &nj); err != nil {
			return nil, fmt.Errorf("schema: newtype struct: %w", err)
		}
		inner, err := Unmarshal(nj.Inner)
		if err != nil {
			return nil, err
		}
		return &NewtypeStruct{Name: nj.Name, Inner: inner}, nil
	case KindTupleStruct:
		var tj tupleStructJSON
		if err := strictUnmarshal(payload, &tj); err != nil {
			return nil, fmt.Errorf("schema: tuple struct: %w", err)
		}
		elems, err := unmarshalList(tj.Elements)
		if err != nil {
			return nil, err
		}
		return &TupleStruct{Name: tj.Name, Elements: elems}, nil
	case KindEnum:
		return unmarshalEnum(payload)
	case KindOption:
		inner, err := Unmarshal(payload)
		if err != nil {
			return nil, err
		}
		return &Option{Inner: inner}, nil
	case KindSeq:
		elem, err := Unmarshal(payload)
		if err != nil {
			return nil, err
		}
		return &Seq{Element: elem}, nil
	case KindSlice:
		elem, err := Unmarshal(payload)
		if err != nil {
			return nil, err
		}
		return &Slice{Element: elem}, nil
	case KindTuple:
		var raw []json.RawMessage
		if err := json.Unmarshal(payload, &raw); err != nil {
			return nil, fmt.Errorf("schema: tuple: %w", err)
		}
		elems, err := unmarshalList(raw)
		if err != nil {
			return nil, err
		}
		return &Tuple{Elements: elems}, nil
	case KindMap:
		var mj mapJSON
		if err := strictUnmarshal(payload, &mj); err != nil {
			return nil, fmt.Errorf("schema: map: %w", err)
		}
		key, err := Unmarshal(mj.Key)
		if err != nil {
			return nil, err
		}
		val, err := Unmarshal(mj.Value)
		if err != nil {
			return nil, err
		}
		return &Map{Key: key, Value: val}, nil
	}
	return nil, fmt.Errorf("schema: unhandled tag %q", tag)
}

func unmarshalEnum(payload []byte) (Schema, error) {
	var ej enumJSON
	if err := strictUnmarshal(payload, &ej); err != nil {
		return nil, fmt.Errorf("schema: enum: %w", err)
	}
	e := &Enum{Name: ej.Name, Variants: make([]Variant, len(ej.Variants))}
	if ej.Repr != nil {
		k, ok := ParseKind(*ej.Repr)
		if !ok || !k.IsInteger() {
			return nil, fmt.Errorf("schema: enum %s: invalid repr %q", ej.Name, *ej.Repr)
		}
		e.Repr = &k
	}
	for i, raw := range ej.Variants {
		v, err := unmarshalVariant(raw)
		if err != nil {
			return nil, fmt.Errorf("schema: enum %s: %w", ej.Name, err)
		}
		e.Variants[i] = v
	}
	return e, nil
}

func marshalVariant(v Variant) (json.RawMessage, error) {
	switch t := v.(type) {
	case *UnitVariant:
		return marshalTagged("Unit", unitVariantJSON{Name: t.Name, Discriminant: t.Discriminant})
	case *TupleVariant:
		elems, err := marshalList(t.Elements)
		if err != nil {
			return nil, err
		}
		return marshalTagged("Tuple", tupleVariantJSON{Name: t.Name, Elements: elems})
	case *StructVariant:
		fields, err := marshalFields(t.Fields)
		if err != nil {
			return nil, err
		}
		return marshalTagged("Struct", structVariantJSON{Name: t.Name, Fields: fields})
	}
	return nil, fmt.Errorf("schema: unknown variant type %T", v)
}

func unmarshalVariant(data []byte) (Variant, error) {
	tag, payload, err := splitTagged(data)
	if err != nil {
		return nil, err
	}
	switch tag {
	case "Unit":
		var uj unitVariantJSON
		if err := strictUnmarshal(payload, &uj); err != nil {
			return nil, fmt.Errorf("unit variant: %w", err)
		}
		return &UnitVariant{Name: uj.Name, Discriminant: uj.Discriminant}, nil
	case "Tuple":
		var tj tupleVariantJSON
		if err := strictUnmarshal(payload, &tj); err != nil {
			return nil, fmt.Errorf("tuple variant: %w", err)
		}
		elems, err := unmarshalList(tj.Elements)
		if err != nil {
			return nil, err
		}
		return &TupleVariant{Name: tj.Name, Elements: elems}, nil
	case "Struct":
		var sj structVariantJSON
		if err := strictUnmarshal(payload, &sj); err != nil {
			return nil, fmt.Errorf("struct variant: %w", err)
		}
		fields, err := unmarshalFields(sj.Fields)
		if err != nil {
			return nil, err
		}
		return &StructVariant{Name: sj.Name, Fields: fields}, nil
	}
	return nil, fmt.Errorf("unknown variant tag %q", tag)
}

func marshalFields(fields []Field) ([]fieldJSON, error) {
	out := make([]fieldJSON, len(fields))
	for i, f := range fields {
		raw, err := Marshal(f.Schema)
		if err != nil {
			return nil, err
		}
		out[i] = fieldJSON{Name: f.Name, Schema: raw}
	}
	return out, nil
}

func unmarshalFields(fields []fieldJSON) ([]Field, error) {
	out := make([]Field, len(fields))
	for i, f := range fields {
		s, err := Unmarshal(f.Schema)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		out[i] = Field{Name: f.Name, Schema: s}
	}
	return out, nil
}

func marshalList(list []Schema) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, len(list))
	for i, s := range list {
		raw, err := Marshal(s)
		if err != nil {
			return nil, err
		}
		out[i] = raw
	}
	return out, nil
}

func unmarshalList(raw []json.RawMessage) ([]Schema, error) {
	out := make([]Schema, len(raw))
	for i, r := range raw {
		s, err := Unmarshal(r)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func marshalTagged(tag string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	key, _ := json.Marshal(tag)
	var b bytes.Buffer
	b.WriteByte('{')
	b.Write(key)
	b.WriteByte(':')
	b.Write(body)
	b.WriteByte('}')
	return b.Bytes(), nil
}

func splitTagged(data []byte) (string, json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", nil, fmt.Errorf("schema: %w", err)
	}
	if len(obj) != 1 {
		return "", nil, fmt.Errorf("schema: tagged value must have exactly one key, got %d", len(obj))
	}
	for tag, payload := range obj {
		return tag, payload, nil
	}
	return "", nil, nil
}

func strictUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// JSON adapts a Schema for use as a field of a JSON-encoded struct.
type JSON struct {
	Schema Schema
}

func (j JSON) MarshalJSON() ([]byte, error) {
	return Marshal(j.Schema)
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	s, err := Unmarshal(data)
	if err != nil {
		return err
	}
	j.Schema = s
	return nil
}
