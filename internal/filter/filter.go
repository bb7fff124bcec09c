package filter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/five82/logbook/internal/model"
)

// Expression fields.
const (
	FieldLevel   = "level"
	FieldLogger  = "logger"
	FieldThread  = "thread"
	FieldMessage = "message"
	FieldTime    = "time"
)

// Expression operators.
const (
	OpIn          = "in"
	OpNotIn       = "not_in"
	OpEquals      = "equals"
	OpContains    = "contains"
	OpNotContains = "not_contains"
	OpAfter       = "after"
	OpBefore      = "before"
)

// Combinators for a definition's expressions.
const (
	CombineAnd = "and"
	CombineOr  = "or"
)

// ErrUnknownFilter is returned when a filter id is not configured.
var ErrUnknownFilter = errors.New("unknown filter")

// Expression is one stored predicate over a log row field. Value holds a
// comma-separated list for in/not_in and a clock time (15:04 or 15:04:05) for
// after/before.
type Expression struct {
	Field    string `toml:"field"`
	Operator string `toml:"operator"`
	Value    string `toml:"value"`
}

// Definition is a stored, optionally named filter.
type Definition struct {
	ID          int          `toml:"id"`
	Name        string       `toml:"name,omitempty"`
	Order       int          `toml:"order"`
	Operator    string       `toml:"operator,omitempty"`
	Expressions []Expression `toml:"expressions"`
}

// HasName reports whether a display name was stored.
func (d Definition) HasName() bool {
	return strings.TrimSpace(d.Name) != ""
}

// Combinator returns the normalized combinator, defaulting to "and".
func (d Definition) Combinator() string {
	if strings.EqualFold(strings.TrimSpace(d.Operator), CombineOr) {
		return CombineOr
	}
	return CombineAnd
}

type predicate func(model.LogRow) bool

// Composite is an executable filter built from a Definition.
type Composite struct {
	id    int
	any   bool
	preds []predicate
}

// ID returns the id of the definition the composite was built from.
func (c *Composite) ID() int {
	if c == nil {
		return 0
	}
	return c.id
}

// Match reports whether a single row passes the filter.
func (c *Composite) Match(row model.LogRow) bool {
	if c == nil || len(c.preds) == 0 {
		return true
	}
	if c.any {
		for _, p := range c.preds {
			if p(row) {
				return true
			}
		}
		return false
	}
	for _, p := range c.preds {
		if !p(row) {
			return false
		}
	}
	return true
}

// Filter returns the rows that pass. The input slice is never modified.
func (c *Composite) Filter(rows []model.LogRow) []model.LogRow {
	out := make([]model.LogRow, 0, len(rows))
	for _, row := range rows {
		if c.Match(row) {
			out = append(out, row)
		}
	}
	return out
}

// Compile turns a definition into a Composite.
func Compile(def Definition) (*Composite, error) {
	c := &Composite{id: def.ID, any: def.Combinator() == CombineOr}
	for i, expr := range def.Expressions {
		p, err := compileExpression(expr)
		if err != nil {
			return nil, fmt.Errorf("filter %d expression %d: %w", def.ID, i, err)
		}
		c.preds = append(c.preds, p)
	}
	return c, nil
}

func compileExpression(expr Expression) (predicate, error) {
	field := strings.ToLower(strings.TrimSpace(expr.Field))
	op := strings.ToLower(strings.TrimSpace(expr.Operator))

	if field == FieldTime {
		return compileTime(op, expr.Value)
	}

	get, err := fieldGetter(field)
	if err != nil {
		return nil, err
	}

	switch op {
	case OpIn, OpNotIn:
		set := make(map[string]struct{})
		for _, v := range splitList(expr.Value) {
			set[normalizeValue(field, v)] = struct{}{}
		}
		negate := op == OpNotIn
		return func(row model.LogRow) bool {
			_, ok := set[normalizeValue(field, get(row))]
			return ok != negate
		}, nil
	case OpEquals:
		want := normalizeValue(field, expr.Value)
		return func(row model.LogRow) bool {
			return normalizeValue(field, get(row)) == want
		}, nil
	case OpContains, OpNotContains:
		needle := strings.ToLower(expr.Value)
		negate := op == OpNotContains
		return func(row model.LogRow) bool {
			return strings.Contains(strings.ToLower(get(row)), needle) != negate
		}, nil
	default:
		return nil, fmt.Errorf("unsupported operator %q for field %q", expr.Operator, expr.Field)
	}
}

func compileTime(op, value string) (predicate, error) {
	clock, err := parseClock(value)
	if err != nil {
		return nil, err
	}
	switch op {
	case OpAfter:
		return func(row model.LogRow) bool { return sinceMidnight(row.Time) >= clock }, nil
	case OpBefore:
		return func(row model.LogRow) bool { return sinceMidnight(row.Time) < clock }, nil
	default:
		return nil, fmt.Errorf("unsupported operator %q for field time", op)
	}
}

func fieldGetter(field string) (func(model.LogRow) string, error) {
	switch field {
	case FieldLevel:
		return func(r model.LogRow) string { return string(r.Level) }, nil
	case FieldLogger:
		return func(r model.LogRow) string { return r.Logger }, nil
	case FieldThread:
		return func(r model.LogRow) string { return r.Thread }, nil
	case FieldMessage:
		return func(r model.LogRow) string { return r.Message }, nil
	default:
		return nil, fmt.Errorf("unsupported field %q", field)
	}
}

func normalizeValue(field, v string) string {
	if field == FieldLevel {
		return string(model.ParseLevel(v))
	}
	return strings.ToLower(strings.TrimSpace(v))
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseClock(value string) (time.Duration, error) {
	v := strings.TrimSpace(value)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, v); err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("invalid clock time %q", value)
}

func sinceMidnight(t time.Time) time.Duration {
	return t.Sub(model.Day(t))
}
