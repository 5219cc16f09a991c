package schema

import (
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

var decodeAPI = jsoniter.ConfigCompatibleWithStandardLibrary

var errUnexpectedToken = errors.New("unexpected token")

// Decode parses JSON into a Value tree, keeping object keys in input order.
func Decode(data []byte) (Value, error) {
	iter := decodeAPI.BorrowIterator(data)
	defer decodeAPI.ReturnIterator(iter)

	v := readValue(iter)
	if iter.Error != nil && !errors.Is(iter.Error, io.EOF) {
		return Value{}, fmt.Errorf("%w: %v", ErrMalformedDocument, iter.Error)
	}
	if next := iter.WhatIsNext(); next != jsoniter.InvalidValue {
		return Value{}, fmt.Errorf("%w: trailing data after top-level value", ErrMalformedDocument)
	}
	return v, nil
}

func readValue(iter *jsoniter.Iterator) Value {
	switch iter.WhatIsNext() {
	case jsoniter.NilValue:
		iter.ReadNil()
		return Null()
	case jsoniter.BoolValue:
		return Bool(iter.ReadBool())
	case jsoniter.NumberValue:
		return Number(iter.ReadFloat64())
	case jsoniter.StringValue:
		return String(iter.ReadString())
	case jsoniter.ArrayValue:
		items := []Value{}
		iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			items = append(items, readValue(it))
			return it.Error == nil
		})
		return Seq(items...)
	case jsoniter.ObjectValue:
		m := NewMapping()
		iter.ReadMapCB(func(it *jsoniter.Iterator, key string) bool {
			m.Set(key, readValue(it))
			return it.Error == nil
		})
		return Map(m)
	default:
		if iter.Error == nil || errors.Is(iter.Error, io.EOF) {
			iter.Error = errUnexpectedToken
		}
		return Null()
	}
}

// Encode writes v as JSON. indent <= 0 produces compact output. Records are
// written with all present fields; use Serialize first to elide defaults.
func Encode(v Value, indent int) ([]byte, error) {
	api := jsoniter.Config{IndentionStep: max(indent, 0), EscapeHTML: false}.Froze()
	stream := api.BorrowStream(nil)
	defer api.ReturnStream(stream)

	writeValue(stream, v)
	if stream.Error != nil {
		return nil, stream.Error
	}
	out := make([]byte, len(stream.Buffer()))
	copy(out, stream.Buffer())
	return out, nil
}

func writeValue(stream *jsoniter.Stream, v Value) {
	switch v.typ {
	case TypePrimitive:
		switch p := v.prim.(type) {
		case bool:
			stream.WriteBool(p)
		case float64:
			stream.WriteFloat64(p)
		case string:
			stream.WriteString(p)
		}
	case TypeSequence:
		if len(v.seq) == 0 {
			stream.WriteEmptyArray()
			return
		}
		stream.WriteArrayStart()
		for i, item := range v.seq {
			if i > 0 {
				stream.WriteMore()
			}
			writeValue(stream, item)
		}
		stream.WriteArrayEnd()
	case TypeMapping:
		writeMapping(stream, v.m)
	case TypeRecord:
		m := NewMapping()
		for _, f := range v.rec.kind.Fields {
			if fv := v.rec.values[f.Name]; !fv.IsAbsent() {
				m.Set(f.Name, fv)
			}
		}
		writeMapping(stream, m)
	default:
		stream.WriteNil()
	}
}

func writeMapping(stream *jsoniter.Stream, m *Mapping) {
	if m.Len() == 0 {
		stream.WriteEmptyObject()
		return
	}
	stream.WriteObjectStart()
	for i, k := range m.keys {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(k)
		writeValue(stream, m.vals[k])
	}
	stream.WriteObjectEnd()
}
