package schema

// ValueType tags the variant held by a Value.
type ValueType uint8

const (
	TypeAbsent ValueType = iota
	TypePrimitive
	TypeSequence
	TypeMapping
	TypeRecord
)

func (t ValueType) String() string {
	switch t {
	case TypePrimitive:
		return "primitive"
	case TypeSequence:
		return "sequence"
	case TypeMapping:
		return "mapping"
	case TypeRecord:
		return "record"
	default:
		return "absent"
	}
}

// Value is one node of a document tree. The zero Value is Absent, which is
// also what JSON null decodes to.
type Value struct {
	typ  ValueType
	prim any // bool, float64 or string
	seq  []Value
	m    *Mapping
	rec  *Record
}

func Null() Value { return Value{} }

func Bool(b bool) Value { return Value{typ: TypePrimitive, prim: b} }

func Number(f float64) Value { return Value{typ: TypePrimitive, prim: f} }

func String(s string) Value { return Value{typ: TypePrimitive, prim: s} }

// Seq builds a sequence. Seq() is an empty sequence, distinct from Absent.
func Seq(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{typ: TypeSequence, seq: items}
}

func Map(m *Mapping) Value {
	if m == nil {
		m = NewMapping()
	}
	return Value{typ: TypeMapping, m: m}
}

func Rec(r *Record) Value {
	if r == nil {
		return Value{}
	}
	return Value{typ: TypeRecord, rec: r}
}

func (v Value) Type() ValueType { return v.typ }

func (v Value) IsAbsent() bool { return v.typ == TypeAbsent }

func (v Value) AsString() (string, bool) {
	s, ok := v.prim.(string)
	return s, ok && v.typ == TypePrimitive
}

func (v Value) AsFloat() (float64, bool) {
	f, ok := v.prim.(float64)
	return f, ok && v.typ == TypePrimitive
}

func (v Value) AsBool() (bool, bool) {
	b, ok := v.prim.(bool)
	return b, ok && v.typ == TypePrimitive
}

// Items returns the elements of a sequence, or nil for any other variant.
func (v Value) Items() []Value {
	if v.typ != TypeSequence {
		return nil
	}
	return v.seq
}

func (v Value) AsMapping() *Mapping {
	if v.typ != TypeMapping {
		return nil
	}
	return v.m
}

func (v Value) AsRecord() *Record {
	if v.typ != TypeRecord {
		return nil
	}
	return v.rec
}

// Clone returns a deep copy.
func (v Value) Clone() Value {
	switch v.typ {
	case TypeSequence:
		items := make([]Value, len(v.seq))
		for i, item := range v.seq {
			items[i] = item.Clone()
		}
		return Value{typ: TypeSequence, seq: items}
	case TypeMapping:
		return Value{typ: TypeMapping, m: v.m.Clone()}
	case TypeRecord:
		return Value{typ: TypeRecord, rec: v.rec.Clone()}
	default:
		return v
	}
}

// Plain converts the tree to nil, bool, float64, string, []any and
// map[string]any. Records become maps of their present fields.
func (v Value) Plain() any {
	switch v.typ {
	case TypePrimitive:
		return v.prim
	case TypeSequence:
		out := make([]any, 0, len(v.seq))
		for _, item := range v.seq {
			out = append(out, item.Plain())
		}
		return out
	case TypeMapping:
		out := make(map[string]any, v.m.Len())
		for _, k := range v.m.keys {
			out[k] = v.m.vals[k].Plain()
		}
		return out
	case TypeRecord:
		out := make(map[string]any, len(v.rec.values))
		for k, fv := range v.rec.values {
			if !fv.IsAbsent() {
				out[k] = fv.Plain()
			}
		}
		return out
	default:
		return nil
	}
}

// Mapping is a string-keyed map that remembers insertion order.
type Mapping struct {
	keys []string
	vals map[string]Value
}

func NewMapping() *Mapping {
	return &Mapping{vals: make(map[string]Value)}
}

func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m *Mapping) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.vals[key]
	return v, ok
}

func (m *Mapping) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores value under key. A new key is appended; an existing key keeps its position.
func (m *Mapping) Set(key string, value Value) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = value
}

func (m *Mapping) Delete(key string) {
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Filter keeps only the entries for which keep returns true, preserving order.
func (m *Mapping) Filter(keep func(key string, value Value) bool) {
	kept := m.keys[:0]
	for _, k := range m.keys {
		if keep(k, m.vals[k]) {
			kept = append(kept, k)
			continue
		}
		delete(m.vals, k)
	}
	m.keys = kept
}

func (m *Mapping) Clone() *Mapping {
	if m == nil {
		return nil
	}
	out := &Mapping{
		keys: make([]string, len(m.keys)),
		vals: make(map[string]Value, len(m.vals)),
	}
	copy(out.keys, m.keys)
	for k, v := range m.vals {
		out.vals[k] = v.Clone()
	}
	return out
}
