// Package wasmbin reads and appends top-level sections of core WASM binaries
// without decoding their contents.
package wasmbin

import (
	"bytes"
	"errors"
	"fmt"
)

// Magic and Version form the 8-byte header of a core module.
var (
	Magic   = []byte{0x00, 0x61, 0x73, 0x6d}
	Version = []byte{0x01, 0x00, 0x00, 0x00}
)

// SectionCustom is the id of custom sections.
const SectionCustom byte = 0x00

// ErrNotModule is returned for input that lacks the core module header.
var ErrNotModule = errors.New("not a core wasm module")

// Section is one top-level section. Name is set for custom sections only and
// Payload excludes the custom section name.
type Section struct {
	Name    string
	Payload []byte
	Offset  int
	ID      byte
}

// CheckHeader verifies the magic number and version of a core module.
func CheckHeader(data []byte) error {
	if len(data) < 8 || !bytes.Equal(data[:4], Magic) {
		return ErrNotModule
	}
	if !bytes.Equal(data[4:8], Version) {
		return fmt.Errorf("%w: unsupported version %x", ErrNotModule, data[4:8])
	}
	return nil
}

// Sections splits a module into its top-level sections in file order.
func Sections(data []byte) ([]Section, error) {
	if err := CheckHeader(data); err != nil {
		return nil, err
	}

	r := NewReader(data[8:])
	var out []Section
	for r.Len() > 0 {
		start := r.Position() + 8
		id, err := r.ReadByte()
		if err != nil {
			return nil, r.WrapError("section header", err)
		}
		size, err := r.ReadU32()
		if err != nil {
			return nil, r.WrapError("section size", err)
		}
		payload, err := r.ReadBytes(int(size))
		if err != nil {
			return nil, r.WrapError(fmt.Sprintf("section %d", id), err)
		}

		sec := Section{ID: id, Offset: start, Payload: payload}
		if id == SectionCustom {
			pr := NewReader(payload)
			name, err := pr.ReadName()
			if err != nil {
				return nil, r.WrapError("custom section name", err)
			}
			sec.Name = name
			sec.Payload = payload[pr.Position():]
		}
		out = append(out, sec)
	}
	return out, nil
}

// CustomSections returns the payloads of every custom section called name, in file order.
func CustomSections(data []byte, name string) ([][]byte, error) {
	sections, err := Sections(data)
	if err != nil {
		return nil, err
	}
	var out [][]byte
	for _, s := range sections {
		if s.ID == SectionCustom && s.Name == name {
			out = append(out, s.Payload)
		}
	}
	return out, nil
}

// AppendCustomSection returns a copy of module with a custom section added at
// the end. Custom sections may appear anywhere, so the result stays valid.
func AppendCustomSection(module []byte, name string, payload []byte) ([]byte, error) {
	if _, err := Sections(module); err != nil {
		return nil, err
	}

	body := NewWriter()
	body.WriteName(name)
	body.WriteBytes(payload)

	w := NewWriter()
	w.WriteBytes(module)
	w.Section(SectionCustom, body.Bytes())
	return w.Bytes(), nil
}
