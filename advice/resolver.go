package advice

// Resolver produces the plugin instance named by a Plugin weaver.
type Resolver interface {
	Resolve(id string) (any, bool)
}

type ResolverFunc func(id string) (any, bool)

func (f ResolverFunc) Resolve(id string) (any, bool) {
	return f(id)
}

// Container is an in-memory Resolver.
type Container struct {
	plugins map[string]any
}

func NewContainer() *Container {
	return &Container{plugins: map[string]any{}}
}

func (c *Container) Register(id string, plugin any) {
	if c.plugins == nil {
		c.plugins = map[string]any{}
	}
	c.plugins[id] = plugin
}

func (c *Container) Resolve(id string) (any, bool) {
	plugin, found := c.plugins[id]
	if !found || plugin == nil {
		return nil, false
	}
	return plugin, true
}

// Resolvers asks each resolver in turn and returns the first hit.
type Resolvers []Resolver

func (r Resolvers) Resolve(id string) (any, bool) {
	for _, resolver := range r {
		if resolver == nil {
			continue
		}
		plugin, found := resolver.Resolve(id)
		if found {
			return plugin, true
		}
	}
	return nil, false
}
