package chatrelay

import "strings"

// AttachmentKind classifies an attached file by its MIME subtype.
type AttachmentKind int

const (
	AttachmentOther AttachmentKind = iota
	AttachmentDocument
	AttachmentSpreadsheet
	AttachmentVideo
	AttachmentAudio
	AttachmentImage
)

func (k AttachmentKind) String() string {
	switch k {
	case AttachmentDocument:
		return "document"
	case AttachmentSpreadsheet:
		return "spreadsheet"
	case AttachmentVideo:
		return "video"
	case AttachmentAudio:
		return "audio"
	case AttachmentImage:
		return "image"
	default:
		return "other"
	}
}

// subtypeKinds maps MIME subtypes to attachment kinds. Subtypes not listed
// here are AttachmentOther.
var subtypeKinds = map[string]AttachmentKind{
	"pdf":    AttachmentDocument,
	"msword": AttachmentDocument,
	"vnd.openxmlformats-officedocument.wordprocessingml.document": AttachmentDocument,
	"vnd.ms-excel": AttachmentSpreadsheet,
	"vnd.openxmlformats-officedocument.spreadsheetml.sheet": AttachmentSpreadsheet,
	"mp4":   AttachmentVideo,
	"mp3":   AttachmentAudio,
	"mpeg":  AttachmentAudio,
	"x-m4a": AttachmentAudio,
	"png":   AttachmentImage,
	"jpeg":  AttachmentImage,
	"jpg":   AttachmentImage,
}

// subtypeGlyphs overrides the per-kind glyph for specific subtypes.
var subtypeGlyphs = map[string]string{
	"pdf": "📃",
}

var kindGlyphs = map[AttachmentKind]string{
	AttachmentDocument:    "📝",
	AttachmentSpreadsheet: "📊",
	AttachmentVideo:       "🎥",
	AttachmentAudio:       "🎵",
	AttachmentOther:       "📁",
}

// MIMESubtype returns the part of a MIME type after the slash, without
// parameters. A value without a slash is returned as-is.
func MIMESubtype(mimeType string) string {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if _, sub, ok := strings.Cut(mt, "/"); ok {
		return sub
	}
	return mt
}

// ClassifyMIME returns the AttachmentKind for a MIME type such as
// "image/png" or a bare subtype such as "pdf".
func ClassifyMIME(mimeType string) AttachmentKind {
	return subtypeKinds[MIMESubtype(mimeType)]
}

// Attachment is a file the user attached to a turn.
type Attachment struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Kind classifies the attachment by MIME subtype.
func (a Attachment) Kind() AttachmentKind {
	return ClassifyMIME(a.MIMEType)
}

// Glyph returns the emoji shown for the attachment. Images have no glyph
// because they render as an inline preview.
func (a Attachment) Glyph() string {
	if g, ok := subtypeGlyphs[MIMESubtype(a.MIMEType)]; ok {
		return g
	}
	return kindGlyphs[a.Kind()]
}
