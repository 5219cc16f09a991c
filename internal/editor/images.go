package editor

import (
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/Benny93/spine-editor/internal/schema"
	"github.com/Benny93/spine-editor/internal/skeleton"
)

// ImageRef locates the image behind an attachment. Scale is set when the
// slot or its bones carry a [scale:x] tag other than 1.
type ImageRef struct {
	Path  string   `json:"path"`
	Scale *float64 `json:"scale,omitempty"`
}

// Images returns the image references keyed by their path relative to the
// images folder. References are collected when the document is opened and
// dropped as edits remove the attachments behind them.
func (e *Editor) Images() map[string]ImageRef {
	out := make(map[string]ImageRef, len(e.images))
	for k, v := range e.images {
		out[k] = v
	}
	return out
}

// ImagesJSON encodes Images.
func (e *Editor) ImagesJSON() ([]byte, error) {
	return jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(e.images)
}

// WriteImages writes ImagesJSON to path, creating parent directories.
func (e *Editor) WriteImages(path string) error {
	data, err := e.ImagesJSON()
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

func (e *Editor) folder() string {
	v, _ := e.doc.Skeleton.Get("images")
	if s, ok := v.AsString(); ok && s != "" {
		return s
	}
	return e.imagesFolder
}

func (e *Editor) collectImages() (map[string]ImageRef, error) {
	folder := strings.TrimSuffix(e.folder(), "/")
	slots := e.doc.Slots()
	out := make(map[string]ImageRef)

	for _, skin := range e.doc.Skins() {
		entries := skin.Mapping("attachments")
		for _, slotName := range entries.Keys() {
			scale, err := e.slotScale(schema.FindByName(slots, slotName))
			if err != nil {
				return nil, err
			}

			v, _ := entries.Get(slotName)
			atts := v.AsMapping()
			for _, key := range atts.Keys() {
				av, _ := atts.Get(key)
				att := av.AsRecord()
				if schema.IsPathAttachment(att) {
					continue
				}
				rel := skeleton.AttachmentIdentity(key, att)
				ref := ImageRef{Path: folder + "/" + rel}
				if scale != 1 {
					s := scale
					ref.Scale = &s
				}
				out[rel] = ref
			}
		}
	}
	return out, nil
}

// slotScale multiplies the scale tags of the slot, its bone and every
// ancestor bone below "root".
func (e *Editor) slotScale(slot *schema.Record) (float64, error) {
	if slot == nil {
		return 1, nil
	}
	scale, err := schema.ScaleOf(slot.Str("name"))
	if err != nil {
		return 0, err
	}

	bones := e.doc.Bones()
	bone := schema.FindByName(bones, slot.Str("bone"))
	for steps := 0; bone != nil && bone.Str("name") != "root" && steps < len(bones); steps++ {
		s, err := schema.ScaleOf(bone.Str("name"))
		if err != nil {
			return 0, err
		}
		scale *= s
		bone = schema.FindByName(bones, bone.Str("parent"))
	}
	return scale, nil
}

// dropImages removes references whose attachment identity is no longer in
// the structure graph and returns their keys sorted.
func (e *Editor) dropImages() []string {
	var removed []string
	for rel := range e.images {
		if !e.graph.Has(skeleton.NodeID(skeleton.KindAttachment, rel)) {
			removed = append(removed, rel)
		}
	}
	sort.Strings(removed)
	for _, rel := range removed {
		delete(e.images, rel)
	}
	return removed
}
