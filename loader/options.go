package loader

import (
	"fmt"
	"strings"

	"github.com/wippyai/cs-bindgen/naming"
)

// DefaultSectionName is the custom section carrying pre-extracted declarations.
const DefaultSectionName = "cs_bindgen.decls"

// Source selects where declarations are read from.
type Source uint8

const (
	// SourceAuto reads the declaration section when present and executes the module otherwise.
	SourceAuto Source = iota
	// SourceExecute always calls the declaration entry points.
	SourceExecute
	// SourceSection only reads the declaration section and never runs module code.
	SourceSection
)

var sourceNames = [...]string{
	SourceAuto:    "auto",
	SourceExecute: "execute",
	SourceSection: "section",
}

func (s Source) String() string {
	if int(s) < len(sourceNames) {
		return sourceNames[s]
	}
	return fmt.Sprintf("source(%d)", s)
}

// ParseSource parses "auto", "execute" or "section".
func ParseSource(name string) (Source, error) {
	for i, n := range sourceNames {
		if strings.EqualFold(n, name) {
			return Source(i), nil
		}
	}
	return SourceAuto, fmt.Errorf("unknown declaration source %q", name)
}

// Engine selects the wazero execution engine.
type Engine uint8

const (
	EngineInterpreter Engine = iota
	EngineCompiler
)

func (e Engine) String() string {
	if e == EngineCompiler {
		return "compiler"
	}
	return "interpreter"
}

// ParseEngine parses "interpreter" or "compiler".
func ParseEngine(name string) (Engine, error) {
	switch strings.ToLower(name) {
	case "", "interpreter":
		return EngineInterpreter, nil
	case "compiler":
		return EngineCompiler, nil
	}
	return EngineInterpreter, fmt.Errorf("unknown engine %q", name)
}

// Options configures a Loader.
type Options struct {
	Convention naming.Convention
	// SectionName is the custom section read by SourceSection and SourceAuto.
	SectionName string
	// MemoryLimitPages caps linear memory per instance in 64KB pages. 0 keeps the wazero default.
	MemoryLimitPages uint32
	Source           Source
	Engine           Engine
}

// Option modifies Options.
type Option func(*Options)

// WithSource selects the declaration source.
func WithSource(s Source) Option {
	return func(o *Options) { o.Source = s }
}

// WithEngine selects the execution engine.
func WithEngine(e Engine) Option {
	return func(o *Options) { o.Engine = e }
}

// WithMemoryLimitPages caps instance memory.
func WithMemoryLimitPages(pages uint32) Option {
	return func(o *Options) { o.MemoryLimitPages = pages }
}

// WithSectionName overrides the declaration section name.
func WithSectionName(name string) Option {
	return func(o *Options) { o.SectionName = name }
}

// WithConvention overrides the symbol convention. Empty prefixes keep their defaults.
func WithConvention(c naming.Convention) Option {
	return func(o *Options) { o.Convention = c }
}

func defaultOptions() Options {
	return Options{
		Convention:  naming.DefaultConvention(),
		SectionName: DefaultSectionName,
	}
}
