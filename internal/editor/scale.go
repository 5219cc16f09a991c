package editor

import (
	"go.uber.org/zap"

	"github.com/Benny93/spine-editor/internal/schema"
)

// Bone transform modes that do not inherit scale from their parent.
var scaleIndependent = map[string]bool{
	"noScale":             true,
	"noScaleOrReflection": true,
	"onlyTranslation":     true,
}

// Scale multiplies the scale of the root bone and of every bone that does not
// inherit its parent's scale, which scales the whole skeleton.
func (e *Editor) Scale(sx, sy float64) {
	var scaled []string
	for _, b := range e.doc.Bones() {
		if b.Str("name") != "root" && !scaleIndependent[b.Str("transform")] {
			continue
		}
		scaleBone(b, sx, sy)
		scaled = append(scaled, b.Str("name"))
	}
	e.log.Info("scaled skeleton", zap.Float64("x", sx), zap.Float64("y", sy), zap.Strings("bones", scaled))
}

func scaleBone(b *schema.Record, sx, sy float64) {
	for field, factor := range map[string]float64{"scaleX": sx, "scaleY": sy} {
		v, ok := b.Num(field)
		if !ok {
			v = 1
		}
		_ = b.Set(field, schema.Number(v*factor))
	}
}
