package store

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Order is a sort direction for OrderBy.
type Order int

const (
	Asc Order = iota
	Desc
)

// Field is a single column assignment used by Insert and Update.
type Field struct {
	Column string
	Value  any
}

// Fields is an ordered list of column assignments.
type Fields []Field

// Set appends a column assignment.
func (f *Fields) Set(column string, value any) {
	*f = append(*f, Field{Column: column, Value: value})
}

// Has reports whether column is assigned.
func (f Fields) Has(column string) bool {
	for _, fl := range f {
		if fl.Column == column {
			return true
		}
	}
	return false
}

// Get returns the value assigned to column.
func (f Fields) Get(column string) (any, bool) {
	for _, fl := range f {
		if fl.Column == column {
			return fl.Value, true
		}
	}
	return nil, false
}

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

type predicate struct {
	column string
	op     string
	value  any
}

// Query is a single-table query under construction. Methods that add clauses
// return the receiver so calls can be chained; terminal methods execute.
type Query struct {
	db      *DB
	table   string
	columns []string
	where   []predicate
	orderBy string
	order   Order
	limit   int
}

// From starts a query against table.
func (d *DB) From(table string) *Query {
	return &Query{db: d, table: table}
}

// Columns restricts the selected columns. The default is every column.
func (q *Query) Columns(cols ...string) *Query {
	q.columns = append(q.columns, cols...)
	return q
}

// Eq adds an equality predicate.
func (q *Query) Eq(column string, value any) *Query {
	q.where = append(q.where, predicate{column: column, op: "=", value: value})
	return q
}

// Lte adds a less-than-or-equal predicate.
func (q *Query) Lte(column string, value any) *Query {
	q.where = append(q.where, predicate{column: column, op: "<=", value: value})
	return q
}

// OrderBy sets the sort column and direction.
func (q *Query) OrderBy(column string, o Order) *Query {
	q.orderBy = column
	q.order = o
	return q
}

// Limit caps the number of rows returned.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// All runs a SELECT and scans every row into dest, a pointer to a slice.
func (q *Query) All(ctx context.Context, dest any) error {
	query, args, err := q.selectSQL()
	if err != nil {
		return err
	}
	return q.db.x.SelectContext(ctx, dest, query, args...)
}

// One runs a SELECT expecting a single row. Zero rows yields ErrNotFound.
func (q *Query) One(ctx context.Context, dest any) error {
	query, args, err := q.selectSQL()
	if err != nil {
		return err
	}
	if err := q.db.x.GetContext(ctx, dest, query, args...); err != nil {
		if isNoRows(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Probe runs the SELECT and discards the result. It only reports whether the
// statement could be executed.
func (q *Query) Probe(ctx context.Context) error {
	query, args, err := q.selectSQL()
	if err != nil {
		return err
	}
	rows, err := q.db.x.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
	}
	return rows.Err()
}

// Insert writes one row and scans the stored row back into dest.
func (q *Query) Insert(ctx context.Context, fields Fields, dest any) error {
	if err := checkIdent(q.table); err != nil {
		return err
	}
	if len(fields) == 0 {
		return fmt.Errorf("store: insert into %s without columns", q.table)
	}
	cols := make([]string, len(fields))
	marks := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, f := range fields {
		if err := checkIdent(f.Column); err != nil {
			return err
		}
		cols[i] = f.Column
		marks[i] = "?"
		args[i] = q.db.bindValue(f.Value)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		q.table, strings.Join(cols, ", "), strings.Join(marks, ", "))
	return q.db.x.QueryRowxContext(ctx, q.db.x.Rebind(query), args...).StructScan(dest)
}

// Update applies fields to the rows matching the query's predicates and scans
// the first updated row into dest. Zero matched rows yields ErrNotFound.
func (q *Query) Update(ctx context.Context, fields Fields, dest any) error {
	if err := checkIdent(q.table); err != nil {
		return err
	}
	if len(fields) == 0 {
		return fmt.Errorf("store: update %s without columns", q.table)
	}
	sets := make([]string, len(fields))
	args := make([]any, 0, len(fields)+len(q.where))
	for i, f := range fields {
		if err := checkIdent(f.Column); err != nil {
			return err
		}
		sets[i] = f.Column + " = ?"
		args = append(args, q.db.bindValue(f.Value))
	}
	where, whereArgs, err := q.whereSQL()
	if err != nil {
		return err
	}
	args = append(args, whereArgs...)
	query := fmt.Sprintf("UPDATE %s SET %s%s RETURNING *", q.table, strings.Join(sets, ", "), where)
	if err := q.db.x.QueryRowxContext(ctx, q.db.x.Rebind(query), args...).StructScan(dest); err != nil {
		if isNoRows(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Delete removes the rows matching the query's predicates. Matching nothing
// is not an error.
func (q *Query) Delete(ctx context.Context) error {
	if err := checkIdent(q.table); err != nil {
		return err
	}
	where, args, err := q.whereSQL()
	if err != nil {
		return err
	}
	_, err = q.db.x.ExecContext(ctx, q.db.x.Rebind("DELETE FROM "+q.table+where), args...)
	return err
}

func (q *Query) selectSQL() (string, []any, error) {
	if err := checkIdent(q.table); err != nil {
		return "", nil, err
	}
	cols := "*"
	if len(q.columns) > 0 {
		for _, c := range q.columns {
			if err := checkIdent(c); err != nil {
				return "", nil, err
			}
		}
		cols = strings.Join(q.columns, ", ")
	}
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(cols)
	b.WriteString(" FROM ")
	b.WriteString(q.table)

	where, args, err := q.whereSQL()
	if err != nil {
		return "", nil, err
	}
	b.WriteString(where)

	if q.orderBy != "" {
		if err := checkIdent(q.orderBy); err != nil {
			return "", nil, err
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(q.orderBy)
		if q.order == Desc {
			b.WriteString(" DESC")
		} else {
			b.WriteString(" ASC")
		}
	}
	if q.limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(q.limit))
	}
	return q.db.x.Rebind(b.String()), args, nil
}

func (q *Query) whereSQL() (string, []any, error) {
	if len(q.where) == 0 {
		return "", nil, nil
	}
	parts := make([]string, len(q.where))
	args := make([]any, len(q.where))
	for i, p := range q.where {
		if err := checkIdent(p.column); err != nil {
			return "", nil, err
		}
		parts[i] = p.column + " " + p.op + " ?"
		args[i] = q.db.bindValue(p.value)
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

func checkIdent(name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("store: invalid identifier %q", name)
	}
	return nil
}
