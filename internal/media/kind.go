package media

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Kind enumerates the media categories handled by the pipeline.
type Kind int

const (
	KindUnknown Kind = iota
	KindVideo
	KindAudio
	KindImage
	KindSubtitle
	KindDocument
	KindArchive
)

// Kinds lists every concrete kind in declaration order.
var Kinds = []Kind{KindVideo, KindAudio, KindImage, KindSubtitle, KindDocument, KindArchive}

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindImage:
		return "image"
	case KindSubtitle:
		return "subtitle"
	case KindDocument:
		return "document"
	case KindArchive:
		return "archive"
	default:
		return "unknown"
	}
}

// ParseKind converts a lower-case kind name back into a Kind.
func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "video":
		return KindVideo, nil
	case "audio":
		return KindAudio, nil
	case "image":
		return KindImage, nil
	case "subtitle", "subtitles":
		return KindSubtitle, nil
	case "document", "doc":
		return KindDocument, nil
	case "archive":
		return KindArchive, nil
	default:
		return KindUnknown, fmt.Errorf("unknown media kind %q", value)
	}
}

var extensionKinds = map[string]Kind{
	"mkv": KindVideo, "mp4": KindVideo, "m4v": KindVideo, "mov": KindVideo, "avi": KindVideo,
	"webm": KindVideo, "flv": KindVideo, "wmv": KindVideo, "ts": KindVideo, "m2ts": KindVideo,
	"mpg": KindVideo, "mpeg": KindVideo, "3gp": KindVideo, "ogv": KindVideo, "vob": KindVideo,

	"mp3": KindAudio, "m4a": KindAudio, "aac": KindAudio, "flac": KindAudio, "wav": KindAudio,
	"ogg": KindAudio, "opus": KindAudio, "mka": KindAudio, "wma": KindAudio, "ac3": KindAudio,
	"eac3": KindAudio, "dts": KindAudio, "alac": KindAudio, "aiff": KindAudio,

	"jpg": KindImage, "jpeg": KindImage, "png": KindImage, "webp": KindImage, "gif": KindImage,
	"bmp": KindImage, "tiff": KindImage, "avif": KindImage,

	"srt": KindSubtitle, "ass": KindSubtitle, "ssa": KindSubtitle, "vtt": KindSubtitle,
	"sub": KindSubtitle, "sup": KindSubtitle, "ttml": KindSubtitle,

	"pdf": KindDocument, "doc": KindDocument, "docx": KindDocument, "odt": KindDocument,
	"rtf": KindDocument, "txt": KindDocument, "xls": KindDocument, "xlsx": KindDocument,
	"ods": KindDocument, "ppt": KindDocument, "pptx": KindDocument, "odp": KindDocument,
	"epub": KindDocument, "html": KindDocument,

	"zip": KindArchive, "7z": KindArchive, "rar": KindArchive, "tar": KindArchive,
	"gz": KindArchive, "bz2": KindArchive, "xz": KindArchive, "tgz": KindArchive,
}

// KindForExtension maps a file extension (with or without the dot) to a Kind.
func KindForExtension(ext string) Kind {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if kind, ok := extensionKinds[ext]; ok {
		return kind
	}
	return KindUnknown
}

// Detector reports the kind of the file at path.
type Detector func(path string) Kind

// Detect classifies path by extension, sniffing the content when the
// extension is not recognised. Unreadable files are KindUnknown.
func Detect(path string) Kind {
	if kind := KindForExtension(filepath.Ext(path)); kind != KindUnknown {
		return kind
	}
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return KindUnknown
	}
	return KindForMIME(mtype.String())
}

// KindForMIME maps a MIME type string to a Kind.
func KindForMIME(value string) Kind {
	value = strings.ToLower(strings.TrimSpace(value))
	if idx := strings.Index(value, ";"); idx >= 0 {
		value = strings.TrimSpace(value[:idx])
	}
	switch {
	case strings.HasPrefix(value, "video/"):
		return KindVideo
	case strings.HasPrefix(value, "audio/"):
		return KindAudio
	case strings.HasPrefix(value, "image/"):
		return KindImage
	}
	switch value {
	case "text/vtt", "application/x-subrip", "text/x-ssa", "application/ttml+xml":
		return KindSubtitle
	case "application/zip", "application/x-7z-compressed", "application/x-rar-compressed",
		"application/vnd.rar", "application/x-tar", "application/gzip", "application/x-bzip2", "application/x-xz":
		return KindArchive
	case "application/pdf", "application/msword", "application/rtf", "text/rtf", "application/epub+zip",
		"application/vnd.oasis.opendocument.text", "application/vnd.oasis.opendocument.spreadsheet",
		"application/vnd.oasis.opendocument.presentation", "application/vnd.ms-excel", "application/vnd.ms-powerpoint":
		return KindDocument
	}
	if strings.HasPrefix(value, "application/vnd.openxmlformats-officedocument.") {
		return KindDocument
	}
	return KindUnknown
}
