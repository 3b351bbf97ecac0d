package constants

import (
	"mime"
	"strings"
)

// Source formats recorded on extraction results.
const (
	PDF  = "PDF"
	DOC  = "DOC"
	DOCX = "DOCX"
)

// Accepted upload MIME types.
const (
	MimePDF  = "application/pdf"
	MimeDOC  = "application/msword"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// AllowedMimeTypes maps every accepted upload MIME type to its source format.
var AllowedMimeTypes = map[string]string{
	MimePDF:  PDF,
	MimeDOC:  DOC,
	MimeDOCX: DOCX,
}

var extToMime = map[string]string{
	"pdf":  MimePDF,
	"doc":  MimeDOC,
	"docx": MimeDOCX,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// NormalizeMime lowercases a declared MIME type and drops any parameters.
func NormalizeMime(declared string) string {
	declared = strings.TrimSpace(declared)
	if mt, _, err := mime.ParseMediaType(declared); err == nil {
		return mt
	}
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = declared[:i]
	}
	return strings.ToLower(strings.TrimSpace(declared))
}

// MapMimeToFormat returns the source format for a declared MIME type, or "" if unsupported.
func MapMimeToFormat(declared string) string {
	return AllowedMimeTypes[NormalizeMime(declared)]
}

// MapExtToMime returns the upload MIME type for a file extension, or "" if unsupported.
func MapExtToMime(ext string) string {
	return extToMime[NormalizeExt(ext)]
}
