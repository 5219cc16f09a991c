// Package pruning decides which slots and attachments of a skeleton can never
// be seen and removes them from its structure graph.
package pruning

import (
	"strconv"

	"github.com/Benny93/spine-editor/internal/schema"
)

// Usage lists what no animation ever shows.
type Usage struct {
	// Slots holds unused slot names in declaration order.
	Slots []string

	// Attachments holds unused skin keys in first-seen order.
	Attachments []string
}

type set map[string]struct{}

func (s set) add(v string)      { s[v] = struct{}{} }
func (s set) has(v string) bool { _, ok := s[v]; return ok }

// Transparent reports whether a slot's setup color has zero alpha.
// Colors that do not parse as hex are treated as opaque.
func Transparent(slot *schema.Record) bool {
	c := slot.Str("color")
	if c == "" {
		return false
	}
	rgba, err := strconv.ParseUint(c, 16, 64)
	if err != nil {
		return false
	}
	return rgba&0xFF == 0
}

// Bare reports whether a slot shows nothing in the setup pose: no
// attachment, dark color, blend mode or color.
func Bare(slot *schema.Record) bool {
	for _, f := range []string{"attachment", "dark", "blend", "color"} {
		if slot.Has(f) {
			return false
		}
	}
	return true
}

// KeyframeEmpty reports whether a slot attachment keyframe hides the slot.
func KeyframeEmpty(k *schema.Record) bool {
	return !k.Has("name") || k.Str("name") == "None"
}

// TimelineEmpty reports whether a slot timeline never shows anything: it has
// no color keys and either no attachment keys or a single hiding key at time 0.
// A missing time counts as 0.
func TimelineEmpty(tl *schema.Record) bool {
	if len(tl.Items("color")) > 0 || len(tl.Items("twoColor")) > 0 {
		return false
	}
	keys := schema.Records(tl.Items("attachment"))
	switch len(keys) {
	case 0:
		return true
	case 1:
		t, _ := keys[0].Num("time")
		return KeyframeEmpty(keys[0]) && t == 0
	default:
		return false
	}
}

// UsedAttachments returns the attachment names a slot timeline switches to.
func UsedAttachments(tl *schema.Record) []string {
	var out []string
	for _, k := range schema.Records(tl.Items("attachment")) {
		if !KeyframeEmpty(k) {
			out = append(out, k.Str("name"))
		}
	}
	return out
}

func hasColor(tl *schema.Record) bool {
	return len(tl.Items("color")) > 0 || len(tl.Items("twoColor")) > 0
}

// Analyze collects the slots that are invisible in every animation and the
// skin keys no visible slot ever shows.
//
// A slot starts each animation visible unless its setup color is fully
// transparent or it is bare. Its timeline in that animation then hides it
// when the timeline is empty, when the slot is transparent and the timeline
// never sets a color, or when the slot is bare and the timeline shows no
// attachment; any other timeline makes it visible. A document without
// animations is judged on its setup pose alone.
func Analyze(doc *schema.Document) Usage {
	slots := doc.Slots()
	byName := make(map[string]*schema.Record, len(slots))
	transparent, bare := set{}, set{}
	var defaultVisible []string

	for _, s := range slots {
		name := s.Str("name")
		byName[name] = s
		switch {
		case Transparent(s):
			transparent.add(name)
		case Bare(s):
			bare.add(name)
		default:
			defaultVisible = append(defaultVisible, name)
		}
	}

	var passes []*schema.Mapping
	anims := doc.Animations()
	for _, name := range anims.Keys() {
		v, _ := anims.Get(name)
		var timelines *schema.Mapping
		if a := v.AsRecord(); a != nil {
			timelines = a.Mapping("slots")
		}
		passes = append(passes, timelines)
	}
	if len(passes) == 0 {
		passes = append(passes, nil)
	}

	visible, used := set{}, set{}
	for _, timelines := range passes {
		shown := make(map[string][]string, len(defaultVisible))
		for _, name := range defaultVisible {
			shown[name] = setupAttachment(byName[name])
		}

		for _, name := range timelines.Keys() {
			slot, ok := byName[name]
			if !ok {
				continue
			}
			v, _ := timelines.Get(name)
			tl := v.AsRecord()
			if tl == nil {
				continue
			}

			atts := append(UsedAttachments(tl), setupAttachment(slot)...)
			hidden := TimelineEmpty(tl) ||
				(transparent.has(name) && !hasColor(tl)) ||
				(bare.has(name) && len(atts) == 0)
			if hidden {
				delete(shown, name)
				continue
			}
			shown[name] = atts
		}

		for name, atts := range shown {
			visible.add(name)
			for _, a := range atts {
				used.add(a)
			}
		}
	}

	var u Usage
	for _, s := range slots {
		if name := s.Str("name"); !visible.has(name) {
			u.Slots = append(u.Slots, name)
		}
	}
	seen := set{}
	for _, skin := range doc.Skins() {
		entries := skin.Mapping("attachments")
		for _, slot := range entries.Keys() {
			v, _ := entries.Get(slot)
			for _, key := range v.AsMapping().Keys() {
				if used.has(key) || seen.has(key) {
					continue
				}
				seen.add(key)
				u.Attachments = append(u.Attachments, key)
			}
		}
	}
	return u
}

func setupAttachment(slot *schema.Record) []string {
	if a := slot.Str("attachment"); a != "" {
		return []string{a}
	}
	return nil
}
