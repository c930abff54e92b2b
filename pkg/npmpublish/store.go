// SPDX-License-Identifier: MPL-2.0

package npmpublish

// ExtensionName is the name the publishing extension is registered under on
// the host project.
const ExtensionName = "npmPublishing"

type (
	// Container is a collection of named entities. Declaring an existing name
	// returns the existing instance; nothing is ever replaced.
	Container[T any] struct {
		create    func(name string) *T
		normalize func(name string) string
		byName    map[string]*T
		order     []string
		actions   []func(*T)
	}

	// Extension is the publishing configuration attached to a project.
	Extension struct {
		// Defaults is the shared fallback scope.
		Defaults *Defaults
		// Publications holds the declared publications.
		Publications *Container[Publication]
		// Registries holds the declared registries.
		Registries *Container[Registry]

		project Project
	}
)

// NewContainer returns an empty container. create builds a new entity for a
// normalized name; normalize may be nil.
func NewContainer[T any](create func(name string) *T, normalize func(string) string) *Container[T] {
	if normalize == nil {
		normalize = func(s string) string { return s }
	}
	return &Container[T]{
		create:    create,
		normalize: normalize,
		byName:    make(map[string]*T),
	}
}

// Declare returns the entity named name, creating it if needed. New entities
// receive every action registered with ConfigureAll, in registration order.
func (c *Container[T]) Declare(name string) *T {
	key := c.normalize(name)
	if e, ok := c.byName[key]; ok {
		return e
	}
	e := c.create(key)
	c.byName[key] = e
	c.order = append(c.order, key)
	for _, action := range c.actions {
		action(e)
	}
	return e
}

// Configure declares name and applies fn to it.
func (c *Container[T]) Configure(name string, fn func(*T)) *T {
	e := c.Declare(name)
	if fn != nil {
		fn(e)
	}
	return e
}

// ConfigureAll applies fn to every existing entity and to every entity
// declared later.
func (c *Container[T]) ConfigureAll(fn func(*T)) {
	if fn == nil {
		return
	}
	c.actions = append(c.actions, fn)
	for _, name := range c.order {
		fn(c.byName[name])
	}
}

// Find returns the entity named name without declaring it.
func (c *Container[T]) Find(name string) (*T, bool) {
	e, ok := c.byName[c.normalize(name)]
	return e, ok
}

// Names returns the entity names in declaration order.
func (c *Container[T]) Names() []string {
	return append([]string(nil), c.order...)
}

// All returns the entities in declaration order.
func (c *Container[T]) All() []*T {
	all := make([]*T, 0, len(c.order))
	for _, name := range c.order {
		all = append(all, c.byName[name])
	}
	return all
}

// Len returns the number of declared entities.
func (c *Container[T]) Len() int {
	return len(c.order)
}

// NewExtension returns an empty extension for project with built-in defaults.
// Publication names are normalized to lower camel case.
func NewExtension(project Project) *Extension {
	ext := &Extension{
		Defaults: NewDefaults(),
		project:  project,
	}
	ext.Publications = NewContainer(func(name string) *Publication {
		return newPublication(name, ext.project, ext.Defaults)
	}, ToLowerCamelCase)
	ext.Registries = NewContainer(func(name string) *Registry {
		return newRegistry(name, ext.Defaults)
	}, nil)
	return ext
}

// Project returns the project the extension belongs to.
func (e *Extension) Project() Project {
	return e.project
}
