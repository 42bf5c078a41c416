package querybuilder

import (
	"reflect"
	"strings"

	crerr "github.com/cockroachdb/errors"
)

// InsertModels builds one multi-row INSERT from structs tagged with `db`.
// Fields tagged `db:"-"` or without a tag are skipped.
func InsertModels[T any](table string, rows []T, suffix string) (string, []any, error) {
	if len(rows) == 0 {
		return "", nil, crerr.New("insert requires at least one row")
	}

	builder := InsertInto(table).Suffix(suffix)
	for i, row := range rows {
		columns, values, err := taggedFields(row)
		if err != nil {
			return "", nil, crerr.Wrapf(err, "row %d", i)
		}
		if i == 0 {
			builder.Columns(columns...)
		}
		builder.Values(values...)
	}
	return builder.ToSQL()
}

func InsertModel(table string, model any, suffix string) (string, []any, error) {
	return InsertModels(table, []any{model}, suffix)
}

func taggedFields(model any) ([]string, []any, error) {
	v := reflect.ValueOf(model)
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil, crerr.New("model is nil")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, nil, crerr.Newf("model must be a struct, got %s", v.Kind())
	}

	t := v.Type()
	columns := make([]string, 0, t.NumField())
	values := make([]any, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		if name == "" || name == "-" {
			continue
		}
		columns = append(columns, name)
		values = append(values, v.Field(i).Interface())
	}
	if len(columns) == 0 {
		return nil, nil, crerr.New("model has no db columns")
	}
	return columns, values, nil
}
