package schema

import (
	"fmt"
	"sort"
)

// Record is an instance of a Kind. Fields that were never set are Absent.
type Record struct {
	kind   *Kind
	values map[string]Value
}

// NewRecord builds a record of kind k from a decoded JSON object. Undeclared
// fields fail with a *MismatchError and missing required fields with
// ErrMissingRequired. Nested records are built recursively.
func NewRecord(k *Kind, raw *Mapping) (*Record, error) {
	if raw == nil {
		raw = NewMapping()
	}

	var unknown []string
	for _, key := range raw.keys {
		if _, ok := k.Field(key); !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		return nil, &MismatchError{Kind: k.Name, Fields: unknown}
	}

	var missing []string
	for _, name := range k.Required {
		if !raw.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %v in %s", ErrMissingRequired, missing, k.Name)
	}

	r := &Record{kind: k, values: make(map[string]Value, len(k.Fields))}
	for _, f := range k.Fields {
		rv, present := raw.Get(f.Name)
		if !present || rv.IsAbsent() {
			switch {
			case !f.Init.IsAbsent():
				r.values[f.Name] = f.Init.Clone()
			case f.Shape.holdsRecords():
				r.values[f.Name] = f.Shape.empty()
			}
			continue
		}

		v, err := convert(f.Shape, rv)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", k.Name, f.Name, err)
		}
		r.values[f.Name] = v
	}
	return r, nil
}

func convert(s Shape, raw Value) (Value, error) {
	if raw.IsAbsent() {
		return raw, nil
	}

	switch s.kind {
	case shapeRecord:
		m := raw.AsMapping()
		if m == nil {
			return Value{}, fmt.Errorf("%w: %s expects an object, got %s", ErrMalformedDocument, s.record.Name, raw.Type())
		}
		r, err := NewRecord(s.record, m)
		if err != nil {
			return Value{}, err
		}
		return Rec(r), nil

	case shapeAttachment:
		m := raw.AsMapping()
		if m == nil {
			return Value{}, fmt.Errorf("%w: attachment expects an object, got %s", ErrMalformedDocument, raw.Type())
		}
		k, err := attachmentKind(m)
		if err != nil {
			return Value{}, err
		}
		r, err := NewRecord(k, m)
		if err != nil {
			return Value{}, err
		}
		return Rec(r), nil

	case shapeList:
		if raw.Type() != TypeSequence {
			return Value{}, fmt.Errorf("%w: expected an array, got %s", ErrMalformedDocument, raw.Type())
		}
		items := make([]Value, 0, len(raw.seq))
		for i, item := range raw.seq {
			v, err := convert(*s.elem, item)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items = append(items, v)
		}
		return Seq(items...), nil

	case shapeMap:
		m := raw.AsMapping()
		if m == nil {
			return Value{}, fmt.Errorf("%w: expected an object, got %s", ErrMalformedDocument, raw.Type())
		}
		out := NewMapping()
		for _, key := range m.keys {
			v, err := convert(*s.elem, m.vals[key])
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", key, err)
			}
			out.Set(key, v)
		}
		return Map(out), nil

	default:
		return raw.Clone(), nil
	}
}

func (r *Record) Kind() *Kind { return r.kind }

// Get returns the value of a field, Absent when unset or undeclared.
func (r *Record) Get(name string) Value {
	return r.values[name]
}

// Set assigns a declared field. Setting Null() clears it.
func (r *Record) Set(name string, v Value) error {
	if _, ok := r.kind.Field(name); !ok {
		return &MismatchError{Kind: r.kind.Name, Fields: []string{name}}
	}
	if v.IsAbsent() {
		delete(r.values, name)
		return nil
	}
	r.values[name] = v
	return nil
}

// Str returns a string field, or "" when it is absent or not a string.
func (r *Record) Str(name string) string {
	s, _ := r.values[name].AsString()
	return s
}

func (r *Record) Num(name string) (float64, bool) {
	return r.values[name].AsFloat()
}

func (r *Record) Items(name string) []Value {
	return r.values[name].Items()
}

func (r *Record) Mapping(name string) *Mapping {
	return r.values[name].AsMapping()
}

func (r *Record) Has(name string) bool {
	return !r.values[name].IsAbsent()
}

func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := &Record{kind: r.kind, values: make(map[string]Value, len(r.values))}
	for k, v := range r.values {
		out.values[k] = v.Clone()
	}
	return out
}

// Records returns the records held by a sequence, skipping other variants.
func Records(items []Value) []*Record {
	out := make([]*Record, 0, len(items))
	for _, item := range items {
		if r := item.AsRecord(); r != nil {
			out = append(out, r)
		}
	}
	return out
}

// RecordValues wraps records back into a sequence.
func RecordValues(records []*Record) Value {
	items := make([]Value, 0, len(records))
	for _, r := range records {
		items = append(items, Rec(r))
	}
	return Seq(items...)
}
