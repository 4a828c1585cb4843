package generator

import (
	"strings"

	"github.com/wippyai/cs-bindgen/errors"
)

// overload is the part of a method declaration C# uses to tell members apart.
type overload struct {
	name   string
	params []string
}

func (o overload) key() string {
	return o.name + "(" + strings.Join(o.params, ", ") + ")"
}

// classMembers records the members declared in one generated class. Fields,
// nested types and other non-method members own their name outright; methods
// may share a name only when their parameter types differ.
type classMembers struct {
	class   string
	fixed   map[string]string
	methods map[string]string
	names   map[string]string
}

func newClassMembers(class string) *classMembers {
	return &classMembers{
		class:   class,
		fixed:   map[string]string{},
		methods: map[string]string{},
		names:   map[string]string{},
	}
}

// reserve claims a non-method member for the export id.
func (c *classMembers) reserve(id, name string) error {
	if name == c.class {
		return c.collision(id, name, "member has the name of its enclosing type")
	}
	if prev, dup := c.fixed[name]; dup {
		return c.collision(id, name, "member already declared by "+prev)
	}
	if prev, dup := c.names[name]; dup {
		return c.collision(id, name, "method of the same name declared by "+prev)
	}
	c.fixed[name] = id
	return nil
}

// method claims a method for the export id.
func (c *classMembers) method(id string, o overload) error {
	if o.name == c.class {
		return c.collision(id, o.name, "member has the name of its enclosing type")
	}
	if prev, dup := c.fixed[o.name]; dup {
		return c.collision(id, o.name, "member already declared by "+prev)
	}
	key := o.key()
	if prev, dup := c.methods[key]; dup {
		return c.collision(id, key, "member already declared by "+prev)
	}
	c.methods[key] = id
	if _, ok := c.names[o.name]; !ok {
		c.names[o.name] = id
	}
	return nil
}

func (c *classMembers) collision(id, member, detail string) error {
	return errors.New(errors.PhaseGenerate, errors.KindNameCollision).
		Export(id).
		Type(c.class + "." + member).
		Detail("%s", detail).
		Build()
}
