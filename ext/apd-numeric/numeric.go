// Package numeric registers *apd.Decimal from github.com/cockroachdb/apd as the host type of numeric.
package numeric

import (
	"github.com/cockroachdb/apd"
	"github.com/pgbind/pgbind"
)

// Register makes *apd.Decimal the host type of numeric in r and registers conversions of numeric and numeric[]
// into it. Values of other host types registered for numeric keep working.
func Register(r *pgbind.Registry) error {
	if err := pgbind.RegisterType(r.TypeMap(), r.Conversions(), "numeric", Parse); err != nil {
		return err
	}
	if err := pgbind.RegisterConversion(r.Conversions(), "numeric", parseValue); err != nil {
		return err
	}
	return pgbind.RegisterType(r.TypeMap(), r.Conversions(), "_numeric", parseArray)
}

// Parse parses the text of a numeric value. NaN and the infinities parse to their apd forms.
func Parse(v pgbind.Value) (*apd.Decimal, error) {
	d, _, err := apd.NewFromString(v.StringView())
	if err != nil {
		return nil, err
	}
	return d, nil
}

func parseValue(v pgbind.Value) (apd.Decimal, error) {
	d, err := Parse(v)
	if err != nil {
		return apd.Decimal{}, err
	}
	return *d, nil
}

func parseArray(v pgbind.Value) ([]*apd.Decimal, error) {
	texts, err := pgbind.ParseText(v, pgbind.TypeFor[[]*string]())
	if err != nil {
		return nil, err
	}

	ps := texts.([]*string)
	ds := make([]*apd.Decimal, len(ps))
	for i, s := range ps {
		if s == nil {
			continue
		}
		d, _, err := apd.NewFromString(*s)
		if err != nil {
			return nil, err
		}
		ds[i] = d
	}
	return ds, nil
}
