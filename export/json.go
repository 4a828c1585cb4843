package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/wippyai/cs-bindgen/schema"
)

// Wire format, one JSON object per declaration blob:
//
//	{"Fn":{"name":"greet","binding":"gen_greet","receiver":null,"inputs":[["num","I32"]],"output":"String"}}
//	{"Method":{"name":"incr","binding":"gen_incr","self_type":{"name":"Counter","module":"app"},"receiver":"RefMut","inputs":[],"output":"Unit"}}
//	{"Named":{"type_name":{...},"binding_style":"Handle","index_fn":"...","drop_vec_fn":"...","schema":{...}}}

type fnJSON struct {
	Name     string         `json:"name"`
	Binding  string         `json:"binding"`
	Receiver *ReceiverStyle `json:"receiver"`
	Inputs   []Param        `json:"inputs"`
	Output   schema.JSON    `json:"output"`
}

type methodJSON struct {
	Name     string          `json:"name"`
	Binding  string          `json:"binding"`
	SelfType schema.TypeName `json:"self_type"`
	Receiver *ReceiverStyle  `json:"receiver"`
	Inputs   []Param         `json:"inputs"`
	Output   schema.JSON     `json:"output"`
}

type namedJSON struct {
	TypeName  schema.TypeName `json:"type_name"`
	Style     BindingStyle    `json:"binding_style"`
	IndexFn   string          `json:"index_fn"`
	DropVecFn string          `json:"drop_vec_fn"`
	Schema    schema.JSON     `json:"schema"`
}

// Marshal encodes e as a declaration blob.
func Marshal(e Export) ([]byte, error) {
	var (
		tag     string
		payload any
	)
	switch t := e.(type) {
	case *Fn:
		tag = "Fn"
		payload = fnJSON{
			Name:     t.Name,
			Binding:  t.Binding,
			Receiver: t.Receiver,
			Inputs:   nonNilParams(t.Inputs),
			Output:   schema.JSON{Schema: orUnit(t.Output)},
		}
	case *Method:
		tag = "Method"
		payload = methodJSON{
			Name:     t.Name,
			Binding:  t.Binding,
			SelfType: t.SelfType,
			Receiver: t.Receiver,
			Inputs:   nonNilParams(t.Inputs),
			Output:   schema.JSON{Schema: orUnit(t.Output)},
		}
	case *Named:
		tag = "Named"
		payload = namedJSON{
			TypeName:  t.TypeName,
			Style:     t.Style,
			IndexFn:   t.IndexFn,
			DropVecFn: t.DropVecFn,
			Schema:    schema.JSON{Schema: t.Schema},
		}
	default:
		return nil, fmt.Errorf("export: unknown export type %T", e)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, `{%q:`, tag)
	b.Write(body)
	b.WriteByte('}')
	return b.Bytes(), nil
}

// Unmarshal decodes a declaration blob.
func Unmarshal(data []byte) (Export, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if len(obj) != 1 {
		return nil, fmt.Errorf("export: declaration must have exactly one key, got %d", len(obj))
	}

	for tag, payload := range obj {
		switch tag {
		case "Fn":
			var fj fnJSON
			if err := strictUnmarshal(payload, &fj); err != nil {
				return nil, fmt.Errorf("export: fn: %w", err)
			}
			if fj.Output.Schema == nil {
				return nil, fmt.Errorf("export: fn %q: missing output", fj.Name)
			}
			return &Fn{
				Name:     fj.Name,
				Binding:  fj.Binding,
				Receiver: fj.Receiver,
				Inputs:   fj.Inputs,
				Output:   fj.Output.Schema,
			}, nil
		case "Method":
			var mj methodJSON
			if err := strictUnmarshal(payload, &mj); err != nil {
				return nil, fmt.Errorf("export: method: %w", err)
			}
			if mj.Output.Schema == nil {
				return nil, fmt.Errorf("export: method %q: missing output", mj.Name)
			}
			return &Method{
				Name:     mj.Name,
				Binding:  mj.Binding,
				SelfType: mj.SelfType,
				Receiver: mj.Receiver,
				Inputs:   mj.Inputs,
				Output:   mj.Output.Schema,
			}, nil
		case "Named":
			var nj namedJSON
			if err := strictUnmarshal(payload, &nj); err != nil {
				return nil, fmt.Errorf("export: named: %w", err)
			}
			if nj.Schema.Schema == nil {
				return nil, fmt.Errorf("export: named %s: missing schema", nj.TypeName)
			}
			return &Named{
				TypeName:  nj.TypeName,
				Style:     nj.Style,
				IndexFn:   nj.IndexFn,
				DropVecFn: nj.DropVecFn,
				Schema:    nj.Schema.Schema,
			}, nil
		default:
			return nil, fmt.Errorf("export: unknown declaration tag %q", tag)
		}
	}
	return nil, nil
}

// MarshalJSON encodes p as a two-element array [name, schema].
func (p Param) MarshalJSON() ([]byte, error) {
	s, err := schema.Marshal(p.Schema)
	if err != nil {
		return nil, err
	}
	name, _ := json.Marshal(p.Name)
	var b bytes.Buffer
	b.WriteByte('[')
	b.Write(name)
	b.WriteByte(',')
	b.Write(s)
	b.WriteByte(']')
	return b.Bytes(), nil
}

func (p *Param) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("parameter must be a [name, schema] pair, got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &p.Name); err != nil {
		return fmt.Errorf("parameter name: %w", err)
	}
	s, err := schema.Unmarshal(pair[1])
	if err != nil {
		return fmt.Errorf("parameter %q: %w", p.Name, err)
	}
	p.Schema = s
	return nil
}

func (r ReceiverStyle) MarshalJSON() ([]byte, error) {
	if int(r) >= len(receiverNames) {
		return nil, fmt.Errorf("invalid receiver style %d", r)
	}
	return json.Marshal(r.String())
}

func (r *ReceiverStyle) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for i, n := range receiverNames {
		if n == s {
			*r = ReceiverStyle(i)
			return nil
		}
	}
	return fmt.Errorf("unknown receiver style %q", s)
}

func (b BindingStyle) MarshalJSON() ([]byte, error) {
	if b != StyleValue && b != StyleHandle {
		return nil, fmt.Errorf("invalid binding style %d", b)
	}
	return json.Marshal(b.String())
}

func (b *BindingStyle) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "Value":
		*b = StyleValue
	case "Handle":
		*b = StyleHandle
	default:
		return fmt.Errorf("unknown binding style %q", s)
	}
	return nil
}

func strictUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func nonNilParams(p []Param) []Param {
	if p == nil {
		return []Param{}
	}
	return p
}

func orUnit(s schema.Schema) schema.Schema {
	if s == nil {
		return schema.Unit
	}
	return s
}
