package inventory

import (
	"context"
	"fmt"
)

// Accessor reads one property of an entity. It may issue remote calls.
type Accessor[E any] func(ctx context.Context, entity E) (any, error)

// Extract evaluates a single accessor. Errors, panics and absent values all
// yield the sentinel; the fault is returned so the caller can log it, and
// never aborts the enclosing record.
func Extract[E any](ctx context.Context, entity E, get Accessor[E]) (v Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = NA()
			err = fmt.Errorf("accessor panicked: %v", r)
		}
	}()

	raw, err := get(ctx, entity)
	if err != nil {
		return NA(), err
	}
	return valueOf(raw), nil
}

// Field binds a column to the accessor producing it and the record slot it
// fills.
type Field[E, R any] struct {
	Column string
	Get    Accessor[E]
	Ref    func(r *R) *Value
}

// Schema is the ordered field list turning an entity E into a record R.
type Schema[E, R any] struct {
	Kind   Kind
	Fields []Field[E, R]
	// Label names an entity in log lines.
	Label func(E) string
}

func (s Schema[E, R]) Columns() []string {
	columns := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		columns = append(columns, f.Column)
	}
	return columns
}

// Build extracts every field in declaration order. onFault is called for each
// field replaced by the sentinel.
func (s Schema[E, R]) Build(ctx context.Context, entity E, onFault func(column string, err error)) R {
	var record R
	for _, f := range s.Fields {
		v, err := Extract(ctx, entity, f.Get)
		if err != nil && onFault != nil {
			onFault(f.Column, err)
		}
		*f.Ref(&record) = v
	}
	return record
}
