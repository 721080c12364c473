package rowset

import (
	"strconv"
	"strings"
	"time"

	"sqlbase/internal/shared"
)

// timestampLayouts are tried in order for TIMESTAMP/DATETIME text values.
// SQLite writes CURRENT_TIMESTAMP as the first form; the driver writes bound
// time.Time values as the second.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05",
	isoDate,
}

// Project converts raw tuples plus column metadata into records.
// It keeps the tuple order and maps every column index to its name exactly
// once. A tuple whose arity differs from len(columns) is a driver-level
// inconsistency and yields a projection error.
func Project(tuples [][]any, columns []Column) (RowSet, error) {
	names := make([]string, len(columns))
	converters := make([]converter, len(columns))
	for i, c := range columns {
		if err := shared.InvariantF(c.Name != "", "column %d has no name", i); err != nil {
			return RowSet{}, err
		}
		names[i] = c.Name
		converters[i] = converterFor(c.DeclType)
	}

	cols := make([]Column, len(columns))
	copy(cols, columns)

	records := make([]Record, 0, len(tuples))
	for i, tuple := range tuples {
		if err := shared.InvariantF(len(tuple) == len(columns),
			"row %d has %d values for %d columns", i, len(tuple), len(columns)); err != nil {
			return RowSet{}, err
		}
		values := make([]any, len(tuple))
		for j, v := range tuple {
			values[j] = converters[j](v)
		}
		records = append(records, Record{columns: names, values: values})
	}

	return RowSet{Columns: cols, Records: records}, nil
}

type converter func(any) any

// converterFor picks the conversion for a declared column type.
func converterFor(declType string) converter {
	switch normalizeDeclType(declType) {
	case "BOOLEAN", "BOOL":
		return toBool
	case "DATE":
		return toDate
	case "TIMESTAMP", "DATETIME":
		return toTimestamp
	}
	if textAffinity(declType) {
		return toText
	}
	return passThrough
}

// textAffinity follows SQLite's affinity rule for declared types.
func textAffinity(declType string) bool {
	t := strings.ToUpper(declType)
	return strings.Contains(t, "CHAR") || strings.Contains(t, "CLOB") || strings.Contains(t, "TEXT")
}

// normalizeDeclType drops size arguments, VARCHAR(255) -> VARCHAR.
func normalizeDeclType(declType string) string {
	t := strings.ToUpper(strings.TrimSpace(declType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}

func passThrough(v any) any {
	if b, ok := v.([]byte); ok {
		out := make([]byte, len(b))
		copy(out, b)
		return out
	}
	return v
}

func toText(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func toBool(v any) any {
	switch x := v.(type) {
	case int64:
		return x != 0
	case float64:
		return x != 0
	case bool:
		return x
	case string:
		if b, err := strconv.ParseBool(x); err == nil {
			return b
		}
		return x
	case []byte:
		return toBool(string(x))
	default:
		return v
	}
}

// toDate projects DATE values. Text that is not ISO-8601 is kept as is so
// legacy rows stay readable.
func toDate(v any) any {
	switch x := v.(type) {
	case time.Time:
		return DateOf(x)
	case string:
		if d, err := ParseDate(x); err == nil {
			return d
		}
		if t, ok := parseTimestamp(x); ok {
			return DateOf(t)
		}
		return x
	case []byte:
		return toDate(string(x))
	default:
		return v
	}
}

func toTimestamp(v any) any {
	switch x := v.(type) {
	case string:
		if t, ok := parseTimestamp(x); ok {
			return t
		}
		return x
	case []byte:
		return toTimestamp(string(x))
	default:
		return v
	}
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
