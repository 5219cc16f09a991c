package schema

// Record kinds of the skeleton interchange format. Field order is the order
// fields are written back out.

var curveDefaults = Defaults{"curve": Seq()}

var Bone = &Kind{
	Name: "Bone",
	Fields: plain("name", "parent", "color", "scaleX", "transform", "shearY", "scaleY",
		"inheritRotation", "length", "y", "x", "rotation", "shearX", "inheritScale"),
	Legacy: Defaults{
		"x":               Number(0),
		"y":               Number(0),
		"scaleX":          Number(1),
		"scaleY":          Number(1),
		"shearX":          Number(0),
		"shearY":          Number(0),
		"transform":       String("normal"),
		"inheritRotation": Bool(false),
		"rotation":        Number(0),
		"length":          Number(0),
		"inheritScale":    Bool(false),
	},
	Required: []string{"name"},
}

var BoneTranslateKeyframe = &Kind{
	Name:   "BoneTranslateKeyframe",
	Fields: plain("time", "curve", "angle", "x", "y", "c2", "c3", "c4"),
	Legacy: curveDefaults,
	Latest: Defaults{
		"curve": Seq(), "angle": Number(0), "time": Number(0), "x": Number(0), "y": Number(0),
		"c2": Number(0), "c3": Number(1), "c4": Number(1),
	},
	Unsupported: []string{"c2", "c3", "c4"},
}

var BoneRotateKeyframe = &Kind{
	Name:   "BoneRotateKeyframe",
	Fields: plain("time", "curve", "angle", "x", "y", "c2", "c3", "c4"),
	Legacy: curveDefaults,
	Latest: Defaults{
		"curve": Seq(), "angle": Number(0), "x": Number(1), "y": Number(1), "time": Number(0),
		"c2": Number(0), "c3": Number(1), "c4": Number(1),
	},
	Unsupported: []string{"c2", "c3", "c4"},
}

var BoneTimeline = &Kind{
	Name: "BoneTimeline",
	Fields: []Field{
		{Name: "rotate", Shape: ListOf(RecordOf(BoneRotateKeyframe))},
		{Name: "translate", Shape: ListOf(RecordOf(BoneTranslateKeyframe))},
		{Name: "scale", Shape: ListOf(RecordOf(BoneRotateKeyframe))},
		{Name: "shear", Shape: ListOf(RecordOf(BoneTranslateKeyframe))},
	},
	Legacy: Defaults{"rotate": Seq(), "translate": Seq(), "scale": Seq(), "shear": Seq()},
}

var Slot = &Kind{
	Name:     "Slot",
	Fields:   plain("name", "bone", "attachment", "color", "dark", "blend"),
	Legacy:   Defaults{},
	Required: []string{"name", "bone"},
}

var SlotKeyframe = &Kind{
	Name:   "SlotKeyframe",
	Fields: plain("name", "time", "curve", "color", "dark", "light", "c2", "c3", "c4"),
	Legacy: Defaults{"curve": Seq(), "name": Null()},
	Latest: Defaults{
		"curve": Seq(), "name": Null(), "time": Number(0),
		"c2": Number(0), "c3": Number(1), "c4": Number(1),
	},
	Unsupported: []string{"c2", "c3", "c4"},
}

var SlotTimeline = &Kind{
	Name: "SlotTimeline",
	Fields: []Field{
		{Name: "attachment", Shape: ListOf(RecordOf(SlotKeyframe))},
		{Name: "color", Shape: ListOf(RecordOf(SlotKeyframe))},
		{Name: "twoColor", Shape: ListOf(RecordOf(SlotKeyframe))},
	},
	Legacy: Defaults{"attachment": Seq(), "color": Seq(), "twoColor": Seq()},
}

var Skin = &Kind{
	Name: "Skin",
	Fields: []Field{
		{Name: "name"},
		{Name: "attachments", Shape: MapOf(MapOf(AttachmentOf()))},
	},
	Legacy: Defaults{"name": String(""), "attachments": Map(NewMapping())},
}

var Ik = &Kind{
	Name: "Ik",
	Fields: plain("name", "order", "bones", "target", "mix", "bendPositive", "softness",
		"compress", "stretch", "uniform"),
	Legacy: Defaults{
		"name": String(""), "order": Number(0), "bones": Seq(), "target": String(""),
		"bendPositive": Bool(true), "softness": Number(0),
		"compress": Bool(false), "stretch": Bool(false), "uniform": Bool(false),
	},
}

var IkTimeline = &Kind{
	Name:   "IkTimeline",
	Fields: plain("time", "mix", "bendPositive", "curve", "c2", "c3", "c4", "stretch"),
	Legacy: Defaults{"bendPositive": Bool(true), "curve": Seq()},
	Latest: Defaults{
		"time": Number(0), "bendPositive": Bool(true), "stretch": Bool(false), "curve": Seq(),
		"c2": Number(0), "c3": Number(1), "c4": Number(1),
	},
	Unsupported: []string{"c2", "c3", "c4"},
}

var Transform = &Kind{
	Name: "Transform",
	Fields: plain("name", "order", "bone", "bones", "target", "rotation", "x", "y",
		"scaleX", "scaleY", "shearX", "shearY", "rotateMix", "translateMix", "scaleMix",
		"shearMix", "local", "relative"),
	Legacy: Defaults{
		"name": String(""), "order": Number(0), "bone": String(""), "target": String(""),
		"rotation": Number(0), "x": Number(0), "y": Number(0),
		"scaleX": Number(1), "scaleY": Number(1), "shearX": Number(0), "shearY": Number(0),
	},
}

var TransformTimeline = &Kind{
	Name: "TransformTimeline",
	Fields: plain("time", "rotateMix", "translateMix", "scaleMix", "shearMix", "curve",
		"c2", "c3", "c4"),
	Legacy: curveDefaults,
	Latest: Defaults{
		"curve": Seq(), "time": Number(0), "c2": Number(0), "c3": Number(1), "c4": Number(1),
	},
}

var PathConstraint = &Kind{
	Name: "PathConstraint",
	Fields: plain("name", "order", "skin", "bones", "target", "positionMode", "spacingMode",
		"rotateMode", "rotation", "position", "spacing", "rotateMix", "translateMix"),
	Legacy: Defaults{
		"name": String(""), "bones": Seq(), "target": String(""),
		"positionMode": String(""), "spacingMode": String(""), "rotateMode": String(""),
		"rotation": Number(0), "position": Number(0), "spacing": Number(1),
		"rotateMix": Number(1), "translateMix": Number(1), "skin": Bool(false),
	},
}

var PathTimeline = &Kind{
	Name: "PathTimeline",
	Fields: plain("time", "position", "spacing", "rotateMix", "translateMix", "curve",
		"c2", "c3", "c4"),
	Legacy: Defaults{
		"position": Number(0), "spacing": Number(1), "rotateMix": Number(1), "translateMix": Number(1),
	},
	Latest: Defaults{
		"position": Number(0), "spacing": Number(1), "rotateMix": Number(1), "translateMix": Number(1),
		"curve": Seq(), "c2": Number(0), "c3": Number(1), "c4": Number(1),
	},
}

var Event = &Kind{
	Name:   "Event",
	Fields: plain("int", "float", "string", "audio", "volume", "balance"),
	Legacy: Defaults{"int": Number(0), "float": Number(0), "string": String("")},
	Latest: Defaults{
		"int": Number(0), "float": Number(0), "string": String(""),
		"audio": String(""), "volume": Number(1), "balance": Number(0),
	},
}

var EventTimeline = &Kind{
	Name:   "EventTimeline",
	Fields: plain("time", "name", "int", "float", "string", "audio", "volume", "balance"),
	Legacy: Defaults{"name": String(""), "int": Number(0), "float": Number(0), "string": String("")},
	Latest: Defaults{
		"time": Number(0), "name": String(""), "int": Number(0), "float": Number(0),
		"string": String(""), "audio": String(""), "volume": Number(1), "balance": Number(0),
	},
}

var Deform = &Kind{
	Name:   "Deform",
	Fields: plain("vertices", "time", "curve", "offset", "c2", "c3", "c4"),
	Legacy: Defaults{"vertices": Seq(), "curve": Seq()},
	Latest: Defaults{
		"time": Number(0), "vertices": Seq(), "curve": Seq(), "offset": Seq(),
		"c2": Number(0), "c3": Number(1), "c4": Number(1),
	},
}

var DrawOrderOffset = &Kind{
	Name:   "DrawOrderOffset",
	Fields: plain("slot", "offset"),
	Legacy: Defaults{"slot": String(""), "offset": Number(0)},
}

// DrawOrderKeyframe always carries its offsets list, even when empty: an
// empty keyframe resets the draw order to the setup pose.
var DrawOrderKeyframe = &Kind{
	Name: "DrawOrderKeyframe",
	Fields: []Field{
		{Name: "time", Init: Number(0)},
		{Name: "offsets", Shape: ListOf(RecordOf(DrawOrderOffset))},
	},
	Legacy: Defaults{},
	Latest: Defaults{"time": Number(0)},
}

var Animation = &Kind{
	Name: "Animation",
	Fields: []Field{
		{Name: "ik", Shape: MapOf(ListOf(RecordOf(IkTimeline)))},
		{Name: "drawOrder", Shape: ListOf(RecordOf(DrawOrderKeyframe))},
		{Name: "bones", Shape: MapOf(RecordOf(BoneTimeline))},
		{Name: "slots", Shape: MapOf(RecordOf(SlotTimeline))},
		{Name: "events", Shape: ListOf(RecordOf(EventTimeline))},
		{Name: "transform", Shape: MapOf(ListOf(RecordOf(TransformTimeline)))},
		{Name: "deform", Shape: MapOf(MapOf(MapOf(ListOf(RecordOf(Deform)))))},
		{Name: "path", Shape: MapOf(MapOf(ListOf(RecordOf(PathTimeline))))},
	},
	Legacy: Defaults{
		"ik": Map(nil), "drawOrder": Seq(), "bones": Map(nil), "slots": Map(nil),
		"events": Seq(), "transform": Map(nil), "deform": Map(nil), "path": Map(nil),
	},
}

// SkeletonData is the document root without its "skeleton" header.
var SkeletonData = &Kind{
	Name: "SkeletonData",
	Fields: []Field{
		{Name: "bones", Shape: ListOf(RecordOf(Bone))},
		{Name: "slots", Shape: ListOf(RecordOf(Slot))},
		{Name: "skins", Shape: ListOf(RecordOf(Skin))},
		{Name: "events", Shape: MapOf(RecordOf(Event))},
		{Name: "ik", Shape: ListOf(RecordOf(Ik))},
		{Name: "transform", Shape: ListOf(RecordOf(Transform))},
		{Name: "path", Shape: ListOf(RecordOf(PathConstraint))},
		{Name: "animations", Shape: MapOf(RecordOf(Animation))},
	},
	Legacy: Defaults{
		"bones": Seq(), "slots": Seq(), "events": Map(nil), "ik": Seq(),
		"transform": Seq(), "path": Seq(), "animations": Map(nil),
	},
}
