package schema

import "sync"

type shapeKind uint8

const (
	shapeAny shapeKind = iota
	shapeRecord
	shapeList
	shapeMap
	shapeAttachment
)

// Shape describes how a raw field value is turned into typed values.
type Shape struct {
	kind   shapeKind
	record *Kind
	elem   *Shape
}

// Any keeps the raw value as decoded.
func Any() Shape { return Shape{} }

func RecordOf(k *Kind) Shape { return Shape{kind: shapeRecord, record: k} }

func ListOf(elem Shape) Shape { return Shape{kind: shapeList, elem: &elem} }

func MapOf(elem Shape) Shape { return Shape{kind: shapeMap, elem: &elem} }

// AttachmentOf selects the attachment kind from the "type" field of each value.
func AttachmentOf() Shape { return Shape{kind: shapeAttachment} }

// holdsRecords reports whether a container shape ends in records, in which
// case a missing value is built as an empty container.
func (s Shape) holdsRecords() bool {
	switch s.kind {
	case shapeList, shapeMap:
		switch s.elem.kind {
		case shapeRecord, shapeAttachment:
			return true
		default:
			return s.elem.holdsRecords()
		}
	}
	return false
}

func (s Shape) empty() Value {
	if s.kind == shapeMap {
		return Map(NewMapping())
	}
	return Seq()
}

// Field is one declared field of a record kind.
type Field struct {
	Name  string
	Shape Shape
	// Init is assigned at construction when the input omits the field.
	Init Value
}

// Defaults is a default table. An entry holding Null() is an explicitly
// absent default; a name with no entry has no default at all.
type Defaults map[string]Value

func (d Defaults) Lookup(name string) (Value, bool) {
	v, ok := d[name]
	return v, ok
}

// Kind describes one record type of the interchange format.
type Kind struct {
	Name   string
	Fields []Field

	// Legacy applies below Threshold, Latest at or above it. A nil Latest
	// reuses Legacy.
	Legacy Defaults
	Latest Defaults

	// Unsupported fields are cleared by StripUnsupported below Threshold.
	Unsupported []string

	Required []string

	once  sync.Once
	index map[string]int
}

// DefaultsFor returns the table selected by v. Callers must Clone values
// they store.
func (k *Kind) DefaultsFor(v Version) Defaults {
	if v.UsesLatestDefaults() && k.Latest != nil {
		return k.Latest
	}
	return k.Legacy
}

// Field returns the declaration of name.
func (k *Kind) Field(name string) (Field, bool) {
	k.buildIndex()
	i, ok := k.index[name]
	if !ok {
		return Field{}, false
	}
	return k.Fields[i], true
}

func (k *Kind) isUnsupported(name string) bool {
	for _, u := range k.Unsupported {
		if u == name {
			return true
		}
	}
	return false
}

func (k *Kind) buildIndex() {
	k.once.Do(func() {
		k.index = make(map[string]int, len(k.Fields))
		for i, f := range k.Fields {
			k.index[f.Name] = i
		}
	})
}

func plain(names ...string) []Field {
	out := make([]Field, len(names))
	for i, n := range names {
		out[i] = Field{Name: n}
	}
	return out
}
