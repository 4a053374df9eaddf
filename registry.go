package pgbind

// Registry holds library level type and conversion overlays. They take priority over the built-in defaults and
// yield to connection and query level maps. Built-in defaults are initialized before any Registry exists; a Registry
// starts empty.
type Registry struct {
	types       *TypeMap
	conversions *ConversionMap
}

// NewRegistry returns an empty Registry, isolated from DefaultRegistry.
func NewRegistry() *Registry {
	return &Registry{types: NewTypeMap(), conversions: NewConversionMap()}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process wide Registry used by configs that do not set one.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

func (r *Registry) TypeMap() *TypeMap {
	return r.types
}

func (r *Registry) Conversions() *ConversionMap {
	return r.conversions
}

// resolver walks type and conversion maps in descending priority for every column of a result.
type resolver struct {
	columnTypes ColumnTypes
	typeMaps    []*TypeMap
	conversions []*ConversionMap
}

func newResolver(o *queryOptions, conn *Connection) *resolver {
	reg := conn.registry
	return &resolver{
		columnTypes: o.columnTypes,
		typeMaps:    []*TypeMap{o.typeMap, conn.typeMap, reg.types, builtinTypes},
		conversions: []*ConversionMap{o.conversions, conn.conversions, reg.conversions, builtinConversions},
	}
}

func (rs *resolver) hostType(col int, name string, oid Oid) HostType {
	if t, ok := rs.columnTypes.lookup(col, name); ok {
		return t
	}
	for _, m := range rs.typeMaps {
		if t, ok := m.Lookup(oid); ok {
			return t
		}
	}
	return TypeFor[string]()
}

func (rs *resolver) conversion(oid Oid, t HostType) ConversionFunc {
	for _, m := range rs.conversions {
		if fn, ok := m.Lookup(oid, t); ok {
			return fn
		}
	}
	return func(v Value) (any, error) {
		return ParseText(v, t)
	}
}
