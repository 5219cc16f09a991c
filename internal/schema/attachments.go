package schema

import "fmt"

// Attachment type names as written in the "type" field.
const (
	AttachmentRegion      = "region"
	AttachmentMesh        = "mesh"
	AttachmentLinkedMesh  = "linkedmesh"
	AttachmentPath        = "path"
	AttachmentPoint       = "point"
	AttachmentClipping    = "clipping"
	AttachmentBoundingBox = "boundingbox"
)

var RegionAttachment = &Kind{
	Name:   "RegionAttachment",
	Fields: plain("type", "x", "y", "rotation", "width", "height", "scaleX", "scaleY", "name", "path", "color"),
	Legacy: Defaults{
		"x": Number(0), "y": Number(0), "rotation": Number(0), "scaleX": Number(1), "scaleY": Number(1),
	},
}

var MeshAttachment = &Kind{
	Name: "MeshAttachment",
	Fields: plain("hull", "uvs", "vertices", "height", "width", "edges", "type", "triangles",
		"name", "path", "color"),
	Legacy: Defaults{"uvs": Seq(), "vertices": Seq(), "edges": Seq(), "triangles": Seq()},
}

var LinkedMeshAttachment = &Kind{
	Name:   "LinkedMeshAttachment",
	Fields: plain("path", "height", "width", "name", "parent", "deform", "color", "skin", "type"),
	Legacy: Defaults{},
	Latest: Defaults{"deform": Bool(true)},
}

var PathAttachment = &Kind{
	Name:   "PathAttachment",
	Fields: plain("lengths", "vertexCount", "type", "name", "vertices", "color", "closed", "constantSpeed"),
	Legacy: Defaults{
		"lengths": Seq(), "vertexCount": Number(0), "vertices": Seq(),
		"constantSpeed": Bool(true), "closed": Bool(false),
	},
}

var PointAttachment = &Kind{
	Name:   "PointAttachment",
	Fields: plain("type", "x", "y", "rotation", "color"),
	Legacy: Defaults{"x": Number(0), "y": Number(0), "rotation": Number(0)},
}

var ClippingAttachment = &Kind{
	Name:   "ClippingAttachment",
	Fields: plain("type", "end", "vertexCount", "vertices", "color"),
	Legacy: Defaults{"vertexCount": Number(0), "vertices": Seq()},
}

var BoundingBoxAttachment = &Kind{
	Name:   "BoundingBoxAttachment",
	Fields: plain("type", "vertexCount", "vertices", "color"),
	Legacy: Defaults{},
}

var attachmentKinds = map[string]*Kind{
	AttachmentRegion:      RegionAttachment,
	AttachmentMesh:        MeshAttachment,
	AttachmentLinkedMesh:  LinkedMeshAttachment,
	AttachmentPath:        PathAttachment,
	AttachmentPoint:       PointAttachment,
	AttachmentClipping:    ClippingAttachment,
	AttachmentBoundingBox: BoundingBoxAttachment,
}

func attachmentKind(raw *Mapping) (*Kind, error) {
	tv, _ := raw.Get("type")
	if tv.IsAbsent() {
		return RegionAttachment, nil
	}
	t, ok := tv.AsString()
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownAttachmentType, tv.Plain())
	}
	k, ok := attachmentKinds[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAttachmentType, t)
	}
	return k, nil
}

// AttachmentType returns the attachment type of a skin attachment record.
func AttachmentType(r *Record) string {
	for name, k := range attachmentKinds {
		if r.Kind() == k {
			return name
		}
	}
	return ""
}

// IsPathAttachment reports whether r is a path attachment; these carry no image.
func IsPathAttachment(r *Record) bool {
	return r != nil && r.Kind() == PathAttachment
}
