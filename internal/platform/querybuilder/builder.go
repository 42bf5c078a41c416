// Package querybuilder renders Postgres statements with $n placeholders.
package querybuilder

import (
	"strconv"
	"strings"

	crerr "github.com/cockroachdb/errors"
)

// params accumulates bound arguments and hands out placeholders.
type params struct {
	args []any
}

func (p *params) bind(v any) string {
	p.args = append(p.args, v)
	return "$" + strconv.Itoa(len(p.args))
}

// expand replaces each '?' in expr with the next bound placeholder.
func (p *params) expand(expr string, values []any) string {
	if len(values) == 0 {
		return expr
	}
	var out strings.Builder
	next := 0
	for i := 0; i < len(expr); i++ {
		if expr[i] == '?' && next < len(values) {
			out.WriteString(p.bind(values[next]))
			next++
			continue
		}
		out.WriteByte(expr[i])
	}
	return out.String()
}

type Condition func(p *params) string

func Eq(column string, value any) Condition {
	return func(p *params) string { return column + " = " + p.bind(value) }
}

func Gte(column string, value any) Condition {
	return func(p *params) string { return column + " >= " + p.bind(value) }
}

func In[T any](column string, values []T) Condition {
	return func(p *params) string {
		if len(values) == 0 {
			return "1=0"
		}
		holders := make([]string, 0, len(values))
		for _, v := range values {
			holders = append(holders, p.bind(v))
		}
		return column + " IN (" + strings.Join(holders, ", ") + ")"
	}
}

func IsNull(column string) Condition {
	return func(*params) string { return column + " IS NULL" }
}

func Expr(expr string, values ...any) Condition {
	return func(p *params) string { return p.expand(expr, values) }
}

func renderWhere(buf *strings.Builder, p *params, conds []Condition) {
	for i, cond := range conds {
		if i == 0 {
			buf.WriteString(" WHERE ")
		} else {
			buf.WriteString(" AND ")
		}
		buf.WriteString(cond(p))
	}
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	orderBy []string
	limit   int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: columns}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conds ...Condition) *SelectBuilder {
	b.where = append(b.where, conds...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = n
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 || strings.TrimSpace(b.table) == "" {
		return "", nil, crerr.New("select requires columns and a table")
	}

	var (
		buf strings.Builder
		p   params
	)
	buf.WriteString("SELECT " + strings.Join(b.columns, ", ") + " FROM " + b.table)
	renderWhere(&buf, &p, b.where)
	if len(b.orderBy) > 0 {
		buf.WriteString(" ORDER BY " + strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		buf.WriteString(" LIMIT " + strconv.Itoa(b.limit))
	}
	return buf.String(), p.args, nil
}

type InsertBuilder struct {
	table   string
	columns []string
	rows    [][]any
	suffix  string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = columns
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, values)
	return b
}

// Suffix appends raw SQL such as an ON CONFLICT clause.
func (b *InsertBuilder) Suffix(sql string) *InsertBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" || len(b.columns) == 0 {
		return "", nil, crerr.New("insert requires a table and columns")
	}
	if len(b.rows) == 0 {
		return "", nil, crerr.New("insert requires at least one row")
	}

	var (
		buf strings.Builder
		p   params
	)
	buf.WriteString("INSERT INTO " + b.table + " (" + strings.Join(b.columns, ", ") + ") VALUES ")
	for i, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, crerr.Newf("insert row %d has %d values, expected %d", i, len(row), len(b.columns))
		}
		if i > 0 {
			buf.WriteString(", ")
		}
		holders := make([]string, 0, len(row))
		for _, v := range row {
			holders = append(holders, p.bind(v))
		}
		buf.WriteString("(" + strings.Join(holders, ", ") + ")")
	}
	if b.suffix != "" {
		buf.WriteString(" " + b.suffix)
	}
	return buf.String(), p.args, nil
}

type assignment struct {
	column string
	expr   string
	values []any
}

type UpdateBuilder struct {
	table string
	sets  []assignment
	where []Condition
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.sets = append(b.sets, assignment{column: column, expr: "?", values: []any{value}})
	return b
}

// SetExpr assigns a raw expression; '?' marks bound values.
func (b *UpdateBuilder) SetExpr(column, expr string, values ...any) *UpdateBuilder {
	b.sets = append(b.sets, assignment{column: column, expr: expr, values: values})
	return b
}

func (b *UpdateBuilder) Where(conds ...Condition) *UpdateBuilder {
	b.where = append(b.where, conds...)
	return b
}

func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" || len(b.sets) == 0 {
		return "", nil, crerr.New("update requires a table and assignments")
	}

	var (
		buf strings.Builder
		p   params
	)
	buf.WriteString("UPDATE " + b.table + " SET ")
	for i, set := range b.sets {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(set.column + " = " + p.expand(set.expr, set.values))
	}
	renderWhere(&buf, &p, b.where)
	return buf.String(), p.args, nil
}
