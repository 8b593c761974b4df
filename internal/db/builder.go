package db

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/atlas4d/gateway/internal/domain"
	"github.com/atlas4d/gateway/internal/domain/filter"
)

// MaxWindowHours is the hard ceiling for an interval placed in query text.
const MaxWindowHours = 87_600

// SelectBuilder is a fluent builder for bounded SELECT statements.
// Build refuses to produce a statement without a lookback window and a limit.
type SelectBuilder struct {
	columns   []string
	from      string
	joins     []string
	where     []string
	args      []any
	windowCol string
	window    filter.Window
	orderBy   string
	limit     int
}

// Select starts building a SELECT with the given column expressions.
func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: columns}
}

// From sets the source table.
func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.from = table
	return b
}

// LeftJoin adds a LEFT JOIN; rows without a match keep NULL joined columns.
func (b *SelectBuilder) LeftJoin(table, on string) *SelectBuilder {
	b.joins = append(b.joins, "LEFT JOIN "+table+" ON "+on)
	return b
}

// Within bounds column to the lookback window measured from NOW().
func (b *SelectBuilder) Within(column string, w filter.Window) *SelectBuilder {
	b.windowCol = column
	b.window = w
	return b
}

// Where adds a predicate. Each "?" in expr is bound to the next arg as $n.
func (b *SelectBuilder) Where(expr string, args ...any) *SelectBuilder {
	b.where = append(b.where, expr)
	b.args = append(b.args, args...)
	return b
}

// OrderByDesc sets a descending sort column.
func (b *SelectBuilder) OrderByDesc(column string) *SelectBuilder {
	b.orderBy = column + " DESC"
	return b
}

// Limit caps the result set. The value is bound, never inlined.
func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = n
	return b
}

// Build validates the statement and renders it with numbered placeholders.
func (b *SelectBuilder) Build() (*Query, error) {
	if len(b.columns) == 0 {
		return nil, fmt.Errorf("select: no columns")
	}
	if b.from == "" {
		return nil, fmt.Errorf("select: table is required")
	}
	if b.windowCol == "" || b.window.IsZero() {
		return nil, domain.NewFilterError("hours", "lookback window is required")
	}
	hours := b.window.Hours()
	if hours < 1 || hours > MaxWindowHours {
		return nil, domain.NewFilterError("hours", "out of range")
	}
	if b.limit < 1 {
		return nil, domain.NewFilterError("limit", "result cap is required")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(b.columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(b.from)
	for _, j := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(j)
	}

	// The interval is the only value rendered into the text; hours is a range-checked int.
	conds := make([]string, 0, len(b.where)+1)
	conds = append(conds, b.windowCol+" > NOW() - INTERVAL '"+strconv.Itoa(hours)+" hours'")
	conds = append(conds, b.where...)

	args := make([]any, 0, len(b.args)+1)
	n := 0
	for i, c := range conds {
		rendered, used := numberPlaceholders(c, n)
		conds[i] = rendered
		n += used
	}
	if n != len(b.args) {
		return nil, fmt.Errorf("select: %d placeholders for %d args", n, len(b.args))
	}
	args = append(args, b.args...)

	sb.WriteString(" WHERE ")
	sb.WriteString(strings.Join(conds, " AND "))

	if b.orderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(b.orderBy)
	}

	n++
	sb.WriteString(" LIMIT $")
	sb.WriteString(strconv.Itoa(n))
	args = append(args, b.limit)

	return &Query{SQL: sb.String(), Args: args}, nil
}

// numberPlaceholders rewrites each "?" as $n starting after offset.
func numberPlaceholders(expr string, offset int) (string, int) {
	var sb strings.Builder
	used := 0
	for _, r := range expr {
		if r == '?' {
			used++
			sb.WriteString("$")
			sb.WriteString(strconv.Itoa(offset + used))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String(), used
}
