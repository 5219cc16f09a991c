package editor

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Benny93/spine-editor/internal/schema"
)

// EraseOptions controls erase operations.
type EraseOptions struct {
	// Strict fails the whole operation when a name is missing.
	Strict bool
	// Safe skips the clean pass that normally follows an erase.
	Safe bool
}

// Report summarises an edit.
type Report struct {
	Erased             []string `json:"erased,omitempty"`
	Missing            []string `json:"missing,omitempty"`
	RemovedSlots       []string `json:"removed_slots,omitempty"`
	RemovedAttachments []string `json:"removed_attachments,omitempty"`
	RemovedImages      []string `json:"removed_images,omitempty"`
}

func (r *Report) merge(o Report) {
	r.RemovedSlots = append(r.RemovedSlots, o.RemovedSlots...)
	r.RemovedAttachments = append(r.RemovedAttachments, o.RemovedAttachments...)
	r.RemovedImages = append(r.RemovedImages, o.RemovedImages...)
}

// partition splits names into those has accepts and those it does not,
// dropping duplicates.
func partition(names []string, has func(string) bool) (found, missing []string) {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		if has(n) {
			found = append(found, n)
		} else {
			missing = append(missing, n)
		}
	}
	return found, missing
}

// EraseAnimations deletes the named animations and, unless opts.Safe, cleans
// what they alone kept alive. In strict mode a missing name fails the call
// before anything is changed.
func (e *Editor) EraseAnimations(names []string, opts EraseOptions) (Report, error) {
	anims := e.doc.Animations()
	found, missing := partition(names, anims.Has)
	if len(missing) > 0 && opts.Strict {
		return Report{}, &NotFoundError{What: "animations", Names: missing}
	}

	for _, n := range found {
		anims.Delete(n)
	}
	rep := Report{Erased: found, Missing: missing}
	e.log.Info("erased animations", zap.Strings("animations", found), zap.Strings("missing", missing))

	if opts.Safe {
		return rep, nil
	}
	cleaned, err := e.Clean()
	if err != nil {
		return rep, err
	}
	rep.merge(cleaned)
	return rep, nil
}

type relink struct {
	entries *schema.Mapping
	key     string
	mesh    *schema.Record
}

// EraseSkins deletes the named skins. Linked meshes in the remaining skins
// that borrow a mesh from an erased skin receive a copy of that mesh under
// their own name, path and size. Deform timelines of erased skins are
// dropped, as are image references no remaining attachment uses. Unless
// opts.Safe, a clean pass follows.
func (e *Editor) EraseSkins(names []string, opts EraseOptions) (Report, error) {
	skins := e.doc.Skins()
	found, missing := partition(names, func(n string) bool { return schema.FindByName(skins, n) != nil })
	if len(missing) > 0 && opts.Strict {
		return Report{}, &NotFoundError{What: "skins", Names: missing}
	}

	erased := make(map[string]*schema.Record, len(found))
	for _, n := range found {
		erased[n] = schema.FindByName(skins, n)
	}
	var kept []*schema.Record
	for _, s := range skins {
		if _, gone := erased[s.Str("name")]; !gone {
			kept = append(kept, s)
		}
	}

	var relinks []relink
	for _, s := range kept {
		r, err := linkedMeshCopies(s, erased)
		if err != nil {
			return Report{}, err
		}
		relinks = append(relinks, r...)
	}

	for _, r := range relinks {
		r.entries.Set(r.key, schema.Rec(r.mesh))
	}
	for _, name := range e.doc.Animations().Keys() {
		v, _ := e.doc.Animations().Get(name)
		if deform := v.AsRecord().Mapping("deform"); deform != nil {
			for skin := range erased {
				deform.Delete(skin)
			}
		}
	}
	if err := e.doc.Data.Set("skins", schema.RecordValues(kept)); err != nil {
		return Report{}, err
	}
	if err := e.rebuild(); err != nil {
		return Report{}, err
	}

	rep := Report{Erased: found, Missing: missing, RemovedImages: e.dropImages()}
	e.log.Info("erased skins",
		zap.Strings("skins", found),
		zap.Strings("missing", missing),
		zap.Int("relinked_meshes", len(relinks)),
		zap.Strings("removed_images", rep.RemovedImages))

	if opts.Safe {
		return rep, nil
	}
	cleaned, err := e.Clean()
	if err != nil {
		return rep, err
	}
	rep.merge(cleaned)
	return rep, nil
}

func linkedMeshCopies(skin *schema.Record, erased map[string]*schema.Record) ([]relink, error) {
	var out []relink
	entries := skin.Mapping("attachments")
	for _, slot := range entries.Keys() {
		v, _ := entries.Get(slot)
		atts := v.AsMapping()
		for _, key := range atts.Keys() {
			av, _ := atts.Get(key)
			linked := av.AsRecord()
			if linked == nil || linked.Kind() != schema.LinkedMeshAttachment {
				continue
			}
			source, ok := erased[linked.Str("skin")]
			if !ok {
				continue
			}

			parent := linked.Str("parent")
			if parent == "" {
				parent = key
			}
			sv, _ := source.Mapping("attachments").Get(slot)
			pv, _ := sv.AsMapping().Get(parent)
			mesh := pv.AsRecord()
			if mesh == nil {
				return nil, fmt.Errorf("%w: skin %q slot %q attachment %q wants %q from skin %q",
					ErrDanglingLinkedMesh, skin.Str("name"), slot, key, parent, source.Str("name"))
			}

			mesh = mesh.Clone()
			for _, f := range []string{"name", "path", "width", "height"} {
				if err := mesh.Set(f, linked.Get(f).Clone()); err != nil {
					return nil, err
				}
			}
			out = append(out, relink{entries: atts, key: key, mesh: mesh})
		}
	}
	return out, nil
}
