package statement

import (
	"database/sql"
	"database/sql/driver"
	"math"
	"time"

	"sqlbase/internal/shared"
)

// checkArgs verifies that args fit the placeholders found by analyze and
// that every value is a type the driver binds natively.
func checkArgs(a analysis, args []any) error {
	named := 0
	for _, arg := range args {
		if _, ok := arg.(sql.NamedArg); ok {
			named++
		}
	}

	switch {
	case a.style == styleNamed:
		if named < len(args) {
			return shared.Newf(shared.KindSyntax, "statement uses named placeholders, got %d positional values", len(args)-named)
		}
		if err := checkNames(a.names, args); err != nil {
			return err
		}
	case named > 0:
		return shared.Newf(shared.KindSyntax, "statement uses %s placeholders, got %d named values", a.style, named)
	case len(args) != a.params:
		return shared.Newf(shared.KindSyntax, "statement expects %d values, got %d", a.params, len(args))
	}

	for i, arg := range args {
		name := ""
		if na, ok := arg.(sql.NamedArg); ok {
			name, arg = na.Name, na.Value
		}
		if err := checkValue(arg); err != nil {
			if name != "" {
				return shared.Wrapf(err, "value %q", name)
			}
			return shared.Wrapf(err, "value %d", i+1)
		}
	}
	return nil
}

func checkNames(want []string, args []any) error {
	got := make(map[string]struct{}, len(args))
	for _, arg := range args {
		na := arg.(sql.NamedArg)
		if _, dup := got[na.Name]; dup {
			return shared.Newf(shared.KindSyntax, "named value %q given twice", na.Name)
		}
		got[na.Name] = struct{}{}
	}

	for _, name := range want {
		if _, ok := got[name]; !ok {
			return shared.Newf(shared.KindSyntax, "missing named value %q", name)
		}
		delete(got, name)
	}
	for name := range got {
		return shared.Newf(shared.KindSyntax, "named value %q has no placeholder", name)
	}
	return nil
}

// checkValue accepts the types bound without lossy conversion.
func checkValue(v any) error {
	switch x := v.(type) {
	case nil, bool, string, []byte, time.Time,
		int, int8, int16, int32, int64,
		uint8, uint16, uint32,
		float32, float64:
		return nil
	case uint:
		if uint64(x) > math.MaxInt64 {
			return shared.Newf(shared.KindTypeMismatch, "uint %d overflows INTEGER", x)
		}
		return nil
	case uint64:
		if x > math.MaxInt64 {
			return shared.Newf(shared.KindTypeMismatch, "uint64 %d overflows INTEGER", x)
		}
		return nil
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			if shared.KindOf(err) != shared.KindUnknown {
				return err
			}
			return shared.MarkKind(err, shared.KindTypeMismatch)
		}
		if !driver.IsValue(dv) {
			return shared.Newf(shared.KindTypeMismatch, "%T produced unsupported value %T", v, dv)
		}
		return nil
	default:
		return shared.Newf(shared.KindTypeMismatch, "unsupported value type %T", v)
	}
}
