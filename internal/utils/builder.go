package querybuilder

import (
	"fmt"
	"sort"
	"strings"
)

// UpdateData maps column names to their new values for UPDATE statements.
type UpdateData map[string]interface{}

// QueryBuilder assembles parameterized SQL with ? placeholders; callers
// pass the result through sqlx.Rebind for the active driver.
type QueryBuilder interface {
	Select(cols ...string) QueryBuilder
	From(table string) QueryBuilder
	Into(table string) QueryBuilder
	Where(clause string, args ...interface{}) QueryBuilder
	And(clause string, args ...interface{}) QueryBuilder
	OrderBy(col string, asc bool) QueryBuilder

	Insert(cols ...string) QueryBuilder
	Values(values ...interface{}) QueryBuilder
	OnConflict(cols ...string) QueryBuilder
	DoNothing() QueryBuilder
	SetExclude(cols ...string) QueryBuilder

	Update(table string, data UpdateData) QueryBuilder

	Build() (string, []interface{})
}

type condition struct {
	clause string
	args   []interface{}
}

type queryBuilder struct {
	schema      string
	table       string
	cols        []string
	conditions  []condition
	values      [][]interface{}
	updateData  UpdateData
	orderBy     []string
	onConflict  []string
	excludeCols []string
}

func NewQueryBuilder(schema string) QueryBuilder {
	return &queryBuilder{schema: schema}
}

func (q *queryBuilder) Select(cols ...string) QueryBuilder {
	q.cols = append(q.cols, cols...)
	return q
}

func (q *queryBuilder) From(table string) QueryBuilder {
	q.table = table
	return q
}

func (q *queryBuilder) Into(table string) QueryBuilder {
	q.table = table
	return q
}

func (q *queryBuilder) Where(clause string, args ...interface{}) QueryBuilder {
	q.conditions = append(q.conditions, condition{clause: clause, args: args})
	return q
}

func (q *queryBuilder) And(clause string, args ...interface{}) QueryBuilder {
	return q.Where(clause, args...)
}

func (q *queryBuilder) OrderBy(col string, asc bool) QueryBuilder {
	vector := "ASC"
	if !asc {
		vector = "DESC"
	}
	q.orderBy = append(q.orderBy, fmt.Sprintf("%s %s", col, vector))
	return q
}

func (q *queryBuilder) Insert(cols ...string) QueryBuilder {
	q.cols = cols
	return q
}

func (q *queryBuilder) Values(values ...interface{}) QueryBuilder {
	q.values = append(q.values, values)
	return q
}

func (q *queryBuilder) OnConflict(cols ...string) QueryBuilder {
	q.onConflict = cols
	return q
}

func (q *queryBuilder) DoNothing() QueryBuilder {
	q.excludeCols = nil
	return q
}

func (q *queryBuilder) SetExclude(cols ...string) QueryBuilder {
	q.excludeCols = cols
	return q
}

func (q *queryBuilder) Update(table string, data UpdateData) QueryBuilder {
	q.table = table
	q.updateData = data
	return q
}

func (q *queryBuilder) Build() (string, []interface{}) {
	switch {
	case len(q.values) > 0:
		return q.buildInsert()
	case len(q.updateData) > 0:
		return q.buildUpdate()
	default:
		return q.buildSelect()
	}
}

func (q *queryBuilder) buildSelect() (string, []interface{}) {
	query := fmt.Sprintf("SELECT %s FROM %s.%s", strings.Join(q.cols, ", "), q.schema, q.table)
	args := make([]interface{}, 0)
	if len(q.conditions) > 0 {
		clause, condArgs := q.buildConditions()
		query += " WHERE " + clause
		args = append(args, condArgs...)
	}
	if len(q.orderBy) > 0 {
		query += " ORDER BY " + strings.Join(q.orderBy, ", ")
	}
	return query, args
}

func (q *queryBuilder) buildInsert() (string, []interface{}) {
	numOfParam := len(q.cols)
	if numOfParam == 0 {
		return "", nil
	}

	args := make([]interface{}, 0, len(q.values)*numOfParam)
	tuples := make([]string, 0, len(q.values))
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", numOfParam), ", ") + ")"
	for _, row := range q.values {
		if len(row) != numOfParam {
			return "", nil
		}
		args = append(args, row...)
		tuples = append(tuples, placeholder)
	}

	query := fmt.Sprintf("INSERT INTO %s.%s (%s) VALUES %s",
		q.schema, q.table, strings.Join(q.cols, ", "), strings.Join(tuples, ", "))

	if len(q.onConflict) > 0 {
		query += fmt.Sprintf(" ON CONFLICT (%s)", strings.Join(q.onConflict, ", "))
		if len(q.excludeCols) == 0 {
			query += " DO NOTHING"
			return query, args
		}
		sets := make([]string, 0, len(q.excludeCols))
		for _, col := range q.excludeCols {
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		}
		query += " DO UPDATE SET " + strings.Join(sets, ", ")
	}
	return query, args
}

func (q *queryBuilder) buildUpdate() (string, []interface{}) {
	sets := make([]string, 0, len(q.updateData))
	args := make([]interface{}, 0, len(q.updateData))
	// Walk columns in insertion-independent sorted order so the emitted
	// SQL is stable across runs.
	for _, col := range sortedKeys(q.updateData) {
		sets = append(sets, fmt.Sprintf("%s = ?", col))
		args = append(args, q.updateData[col])
	}
	query := fmt.Sprintf("UPDATE %s.%s SET %s", q.schema, q.table, strings.Join(sets, ", "))
	if len(q.conditions) > 0 {
		clause, condArgs := q.buildConditions()
		query += " WHERE " + clause
		args = append(args, condArgs...)
	}
	return query, args
}

func (q *queryBuilder) buildConditions() (string, []interface{}) {
	parts := make([]string, 0, len(q.conditions))
	args := make([]interface{}, 0)
	for _, cond := range q.conditions {
		parts = append(parts, cond.clause)
		args = append(args, cond.args...)
	}
	return strings.Join(parts, " AND "), args
}

func sortedKeys(data UpdateData) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
