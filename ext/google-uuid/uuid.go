// Package uuid registers github.com/google/uuid.UUID as the host type of uuid.
package uuid

import (
	"github.com/google/uuid"
	"github.com/pgbind/pgbind"
)

// Register makes uuid.UUID the host type of uuid and []uuid.UUID the host type of uuid[] in r.
func Register(r *pgbind.Registry) error {
	if err := pgbind.RegisterType(r.TypeMap(), r.Conversions(), "uuid", Parse); err != nil {
		return err
	}
	return pgbind.RegisterType(r.TypeMap(), r.Conversions(), "_uuid", parseArray)
}

// Parse parses the text of a uuid value.
func Parse(v pgbind.Value) (uuid.UUID, error) {
	return uuid.Parse(v.StringView())
}

func parseArray(v pgbind.Value) ([]uuid.UUID, error) {
	texts, err := pgbind.ParseText(v, pgbind.TypeFor[[]string]())
	if err != nil {
		return nil, err
	}

	ss := texts.([]string)
	us := make([]uuid.UUID, len(ss))
	for i, s := range ss {
		if us[i], err = uuid.Parse(s); err != nil {
			return nil, err
		}
	}
	return us, nil
}
