package editor

import (
	"go.uber.org/zap"

	"github.com/Benny93/spine-editor/internal/pruning"
	"github.com/Benny93/spine-editor/internal/schema"
	"github.com/Benny93/spine-editor/internal/skeleton"
)

type nameSet = map[string]struct{}

func toSet(names []string) nameSet {
	out := make(nameSet, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}

// Clean removes slots that no animation shows and attachments no visible
// slot uses, then every reference to them: skin entries, slot timelines,
// deform timelines, draw order offsets, setup attachments and image
// references. Bones are never removed since meshes may be weighted to them.
func (e *Editor) Clean() (Report, error) {
	if err := e.rebuild(); err != nil {
		return Report{}, err
	}

	var setup []string
	for _, s := range e.doc.Slots() {
		setup = append(setup, s.Str("name"))
	}

	usage := pruning.Analyze(e.doc)
	res, err := pruning.Prune(e.graph, usage)
	if err != nil {
		return Report{}, err
	}

	arrays := skeleton.Flatten(e.graph)
	for field, records := range map[string][]*schema.Record{
		"bones": arrays.Bones,
		"slots": arrays.Slots,
		"ik":    arrays.Iks,
	} {
		if err := e.doc.Data.Set(field, schema.RecordValues(records)); err != nil {
			return Report{}, err
		}
	}
	e.doc.Data.FillDefaults(e.doc.Version)

	removedSlots := toSet(res.Slots)
	unused := toSet(usage.Attachments)
	if err := e.removeSlotRefs(removedSlots, setup); err != nil {
		return Report{}, err
	}
	e.removeAttachmentRefs(unused)

	detached, err := skeleton.RemoveHeadsOfKind(e.graph, skeleton.KindAttachment)
	if err != nil {
		return Report{}, err
	}
	if err := e.rebuild(); err != nil {
		return Report{}, err
	}

	rep := Report{
		RemovedSlots:       res.Slots,
		RemovedAttachments: usage.Attachments,
		RemovedImages:      e.dropImages(),
	}
	e.log.Info("cleaned skeleton",
		zap.Strings("removed_slots", rep.RemovedSlots),
		zap.Strings("removed_attachments", rep.RemovedAttachments),
		zap.Strings("detached_attachments", append(res.Attachments, detached...)),
		zap.Strings("removed_images", rep.RemovedImages))
	return rep, nil
}

func (e *Editor) removeSlotRefs(removed nameSet, setup []string) error {
	if len(removed) == 0 {
		return nil
	}
	for _, skin := range e.doc.Skins() {
		skin.Mapping("attachments").Filter(func(slot string, _ schema.Value) bool {
			_, gone := removed[slot]
			return !gone
		})
	}

	anims := e.doc.Animations()
	for _, name := range anims.Keys() {
		v, _ := anims.Get(name)
		anim := v.AsRecord()
		if timelines := anim.Mapping("slots"); timelines != nil {
			timelines.Filter(func(slot string, _ schema.Value) bool {
				_, gone := removed[slot]
				return !gone
			})
		}
		eachDeformSkin(anim, func(slots *schema.Mapping) {
			slots.Filter(func(slot string, _ schema.Value) bool {
				_, gone := removed[slot]
				return !gone
			})
		})
		if err := pruning.RewriteDrawOrder(anim, setup, removed); err != nil {
			return err
		}
	}
	return nil
}

func (e *Editor) removeAttachmentRefs(unused nameSet) {
	if len(unused) == 0 {
		return
	}
	dropKeys := func(_ string, v schema.Value) bool {
		if keys := v.AsMapping(); keys != nil {
			keys.Filter(func(key string, _ schema.Value) bool {
				_, gone := unused[key]
				return !gone
			})
			return keys.Len() > 0
		}
		return true
	}

	for _, skin := range e.doc.Skins() {
		skin.Mapping("attachments").Filter(dropKeys)
	}
	anims := e.doc.Animations()
	for _, name := range anims.Keys() {
		v, _ := anims.Get(name)
		eachDeformSkin(v.AsRecord(), func(slots *schema.Mapping) {
			slots.Filter(dropKeys)
		})
	}

	for _, slot := range e.doc.Slots() {
		if _, gone := unused[slot.Str("attachment")]; gone {
			_ = slot.Set("attachment", schema.Null())
		}
	}
}

// eachDeformSkin calls fn with the per-skin slot mapping of anim's deform
// timelines and drops skins left empty.
func eachDeformSkin(anim *schema.Record, fn func(slots *schema.Mapping)) {
	deform := anim.Mapping("deform")
	if deform == nil {
		return
	}
	deform.Filter(func(_ string, v schema.Value) bool {
		slots := v.AsMapping()
		if slots == nil {
			return true
		}
		fn(slots)
		return slots.Len() > 0
	})
}
