package pruning

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Benny93/spine-editor/internal/schema"
)

// ErrUnknownDrawOrderSlot is returned when a draw order keyframe moves a slot
// that is neither in the setup order nor being removed.
var ErrUnknownDrawOrderSlot = errors.New("draw order references unknown slot")

// Offset moves a slot relative to its setup draw order position.
type Offset struct {
	Slot   string
	Offset int
}

// EffectiveOrder applies offsets to the setup order. Moved slots are taken
// out and reinserted at their target index in ascending target order; ties
// keep setup order. Offsets for slots not in setup are ignored.
func EffectiveOrder(setup []string, offsets []Offset) []string {
	moves := make(map[string]int, len(offsets))
	for _, o := range offsets {
		moves[o.Slot] = o.Offset
	}

	type op struct {
		slot   string
		target int
	}
	var ops []op
	out := make([]string, 0, len(setup))
	for i, slot := range setup {
		if off, ok := moves[slot]; ok {
			ops = append(ops, op{slot, i + off})
			continue
		}
		out = append(out, slot)
	}
	sort.SliceStable(ops, func(i, j int) bool { return ops[i].target < ops[j].target })

	for _, o := range ops {
		out = insertAt(out, o.target, o.slot)
	}
	return out
}

// insertAt inserts like a list insert that tolerates out-of-range indexes:
// negative indexes count from the end and anything past either end clamps.
func insertAt(list []string, i int, v string) []string {
	if i < 0 {
		i += len(list)
		if i < 0 {
			i = 0
		}
	}
	if i > len(list) {
		i = len(list)
	}
	list = append(list, "")
	copy(list[i+1:], list[i:])
	list[i] = v
	return list
}

// RecomputeOffsets rewrites the offsets of one draw order keyframe after the
// slots in removed are deleted from setup. The effective order is computed on
// the full setup order, both orders are then filtered and each remaining
// slot's offset becomes its effective index minus its new setup index.
// Offsets that become zero are dropped. Offsets keep their keyframe order;
// a slot named twice keeps the last value at its first position.
func RecomputeOffsets(setup []string, offsets []Offset, removed map[string]struct{}) ([]Offset, error) {
	setupSet := make(set, len(setup))
	for _, s := range setup {
		setupSet.add(s)
	}

	var order []string
	last := make(map[string]int, len(offsets))
	for _, o := range offsets {
		if _, gone := removed[o.Slot]; !gone && !setupSet.has(o.Slot) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownDrawOrderSlot, o.Slot)
		}
		if _, dup := last[o.Slot]; !dup {
			order = append(order, o.Slot)
		}
		last[o.Slot] = o.Offset
	}
	deduped := make([]Offset, 0, len(order))
	for _, s := range order {
		deduped = append(deduped, Offset{Slot: s, Offset: last[s]})
	}

	keep := func(list []string) map[string]int {
		idx := make(map[string]int, len(list))
		for _, s := range list {
			if _, gone := removed[s]; !gone {
				idx[s] = len(idx)
			}
		}
		return idx
	}
	base := keep(setup)
	effective := keep(EffectiveOrder(setup, deduped))

	out := make([]Offset, 0, len(deduped))
	for _, o := range deduped {
		b, ok := base[o.Slot]
		if !ok {
			continue
		}
		if off := effective[o.Slot] - b; off != 0 {
			out = append(out, Offset{Slot: o.Slot, Offset: off})
		}
	}
	return out, nil
}

// RewriteDrawOrder recomputes every draw order keyframe of anim. setup is the
// slot order before removal.
func RewriteDrawOrder(anim *schema.Record, setup []string, removed map[string]struct{}) error {
	for i, kf := range schema.Records(anim.Items("drawOrder")) {
		var offsets []Offset
		for _, r := range schema.Records(kf.Items("offsets")) {
			n, _ := r.Num("offset")
			offsets = append(offsets, Offset{Slot: r.Str("slot"), Offset: int(n)})
		}

		next, err := RecomputeOffsets(setup, offsets, removed)
		if err != nil {
			return fmt.Errorf("drawOrder[%d]: %w", i, err)
		}

		records := make([]*schema.Record, 0, len(next))
		for _, o := range next {
			m := schema.NewMapping()
			m.Set("slot", schema.String(o.Slot))
			m.Set("offset", schema.Number(float64(o.Offset)))
			r, err := schema.NewRecord(schema.DrawOrderOffset, m)
			if err != nil {
				return err
			}
			records = append(records, r)
		}
		if err := kf.Set("offsets", schema.RecordValues(records)); err != nil {
			return err
		}
	}
	return nil
}
