package schema

import (
	"fmt"
)

// DefaultIndent is the indentation used when writing documents.
const DefaultIndent = 4

// Document is a loaded skeleton file: the raw "skeleton" header, the version
// it declares and the typed root record with defaults filled.
type Document struct {
	Skeleton *Mapping
	Version  Version
	Data     *Record
}

// Load decodes a skeleton document, builds its records and fills defaults for
// the version named in skeleton.spine.
func Load(data []byte) (*Document, error) {
	v, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return FromValue(v)
}

// FromValue builds a Document from an already decoded tree. The input is not
// modified.
func FromValue(v Value) (*Document, error) {
	root := v.AsMapping()
	if root == nil {
		return nil, fmt.Errorf("%w: top-level value must be an object", ErrMalformedDocument)
	}

	skelValue, _ := root.Get("skeleton")
	skeleton := skelValue.AsMapping()
	if skeleton == nil {
		return nil, fmt.Errorf("%w: missing skeleton header", ErrMalformedDocument)
	}
	spine, _ := skeleton.Get("spine")
	raw, ok := spine.AsString()
	if !ok {
		return nil, fmt.Errorf("%w: skeleton.spine must be a version string", ErrInvalidVersion)
	}
	ver, err := ParseVersion(raw)
	if err != nil {
		return nil, err
	}

	body := root.Clone()
	body.Delete("skeleton")
	data, err := NewRecord(SkeletonData, body)
	if err != nil {
		return nil, err
	}
	data.FillDefaults(ver)

	return &Document{Skeleton: skeleton.Clone(), Version: ver, Data: data}, nil
}

// Tree returns the serialized document with defaults elided and the skeleton
// header first.
func (d *Document) Tree() *Mapping {
	out := NewMapping()
	out.Set("skeleton", Map(d.Skeleton.Clone()))
	body := d.Data.Serialize(d.Version)
	for _, k := range body.keys {
		out.Set(k, body.vals[k])
	}
	return out
}

// JSON encodes Tree with the given indentation.
func (d *Document) JSON(indent int) ([]byte, error) {
	return Encode(Map(d.Tree()), indent)
}

// Convert retargets the document to another version: unsupported fields are
// stripped, the header is updated and defaults are refilled for the new table.
func (d *Document) Convert(to Version) {
	d.Data.StripUnsupported(to)
	d.Version = to
	d.Skeleton.Set("spine", String(to.String()))
	d.Data.FillDefaults(to)
}

// ImagesFolder returns skeleton.images, defaulting to "./images/".
func (d *Document) ImagesFolder() string {
	v, _ := d.Skeleton.Get("images")
	if s, ok := v.AsString(); ok && s != "" {
		return s
	}
	return "./images/"
}

func (d *Document) Bones() []*Record { return Records(d.Data.Items("bones")) }

func (d *Document) Slots() []*Record { return Records(d.Data.Items("slots")) }

func (d *Document) Skins() []*Record { return Records(d.Data.Items("skins")) }

func (d *Document) Iks() []*Record { return Records(d.Data.Items("ik")) }

// Animations returns the animation mapping (name to Animation record).
func (d *Document) Animations() *Mapping { return d.Data.Mapping("animations") }

// FindByName returns the first record with the given "name".
func FindByName(records []*Record, name string) *Record {
	for _, r := range records {
		if r.Str("name") == name {
			return r
		}
	}
	return nil
}
