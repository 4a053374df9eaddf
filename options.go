package pgbind

// QueryOption configures one execution.
type QueryOption func(*queryOptions)

type queryOptions struct {
	columnTypes ColumnTypes
	typeMap     *TypeMap
	conversions *ConversionMap
	notNull     NotNull
	throwError  bool
}

// WithColumnTypes overrides the host types of individual columns.
func WithColumnTypes(ct ColumnTypes) QueryOption {
	return func(o *queryOptions) {
		o.columnTypes = ct
	}
}

// WithTypeMap sets the query level type map.
func WithTypeMap(m *TypeMap) QueryOption {
	return func(o *queryOptions) {
		o.typeMap = m
	}
}

// WithConversions sets the query level conversion map.
func WithConversions(m *ConversionMap) QueryOption {
	return func(o *queryOptions) {
		o.conversions = m
	}
}

// WithNotNull asserts that columns never contain NULL.
func WithNotNull(nn NotNull) QueryOption {
	return func(o *queryOptions) {
		o.notNull = nn
	}
}

// WithThrowError overrides Config.ThrowError for one execution.
func WithThrowError(throw bool) QueryOption {
	return func(o *queryOptions) {
		o.throwError = throw
	}
}

func (c *Connection) queryOptions(opts []QueryOption) *queryOptions {
	o := &queryOptions{throwError: c.config.ThrowError}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
