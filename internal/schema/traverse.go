package schema

import "github.com/google/go-cmp/cmp"

// FillDefaults assigns every absent field that has an entry in the table
// selected by ver, then descends into present values.
func FillDefaults(v Value, ver Version) {
	walk(v, func(r *Record) {
		defaults := r.kind.DefaultsFor(ver)
		for _, f := range r.kind.Fields {
			cur := r.values[f.Name]
			if cur.IsAbsent() {
				if def, ok := defaults.Lookup(f.Name); ok && !def.IsAbsent() {
					r.values[f.Name] = def.Clone()
				}
				continue
			}
			FillDefaults(cur, ver)
		}
	})
}

// StripUnsupported clears fields that versions below Threshold do not know.
// Run it before serializing for such a version. The gate uses the
// component-wise Less, so it only fires when every component of ver is below
// the threshold's.
func StripUnsupported(v Value, ver Version) {
	stripFields(v, ver.Less(Threshold))
}

func stripFields(v Value, below bool) {
	walk(v, func(r *Record) {
		for _, f := range r.kind.Fields {
			if below && r.kind.isUnsupported(f.Name) {
				delete(r.values, f.Name)
				continue
			}
			stripFields(r.values[f.Name], below)
		}
	})
}

// Serialize converts v into a tree of primitives, sequences and mappings,
// omitting record fields equal to their default for ver. A field is kept
// when it is absent and its default is explicitly absent, or when it is
// present and differs from its default.
func Serialize(v Value, ver Version) Value {
	switch v.typ {
	case TypeSequence:
		items := make([]Value, 0, len(v.seq))
		for _, item := range v.seq {
			items = append(items, Serialize(item, ver))
		}
		return Seq(items...)
	case TypeMapping:
		out := NewMapping()
		for _, k := range v.m.keys {
			out.Set(k, Serialize(v.m.vals[k], ver))
		}
		return Map(out)
	case TypeRecord:
		return Map(serializeRecord(v.rec, ver))
	default:
		return v
	}
}

func serializeRecord(r *Record, ver Version) *Mapping {
	defaults := r.kind.DefaultsFor(ver)
	out := NewMapping()
	for _, f := range r.kind.Fields {
		cur := r.values[f.Name]
		def, hasDefault := defaults.Lookup(f.Name)

		switch {
		case cur.IsAbsent():
			if hasDefault && def.IsAbsent() {
				out.Set(f.Name, Null())
			}
		case !hasDefault || !Equal(cur, def):
			out.Set(f.Name, Serialize(cur, ver))
		}
	}
	return out
}

// Equal compares two values structurally.
func Equal(a, b Value) bool {
	return cmp.Equal(a.Plain(), b.Plain())
}

// walk calls fn for every record reachable from v without crossing a record
// boundary; fn is responsible for descending into the record's fields.
func walk(v Value, fn func(*Record)) {
	switch v.typ {
	case TypeSequence:
		for _, item := range v.seq {
			walk(item, fn)
		}
	case TypeMapping:
		for _, k := range v.m.keys {
			walk(v.m.vals[k], fn)
		}
	case TypeRecord:
		fn(v.rec)
	}
}

func (r *Record) FillDefaults(ver Version) { FillDefaults(Rec(r), ver) }

func (r *Record) StripUnsupported(ver Version) { StripUnsupported(Rec(r), ver) }

func (r *Record) Serialize(ver Version) *Mapping { return serializeRecord(r, ver) }
