package constants

import "strings"

// Format is the coarse document format driving the acquisition strategy.
type Format string

const (
	PDF   Format = "PDF"
	IMAGE Format = "IMAGE"
	TXT   Format = "TXT"
)

// mediaTypeToFormat maps declared media types onto acquisition formats.
var mediaTypeToFormat = map[string]Format{
	"application/pdf": PDF,
	"image/jpeg":      IMAGE,
	"image/jpg":       IMAGE,
	"image/png":       IMAGE,
	"image/tiff":      IMAGE,
	"image/bmp":       IMAGE,
	"image/webp":      IMAGE,
	"image/heic":      IMAGE,
	"image/heif":      IMAGE,
	"text/plain":      TXT,
}

// MapMediaTypeToFormat resolves a declared media type (possibly with parameters,
// e.g. "text/plain; charset=utf-8") to a Format. Returns "" when unsupported.
func MapMediaTypeToFormat(mediaType string) Format {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mediaTypeToFormat[mt]
}

// SniffFormat checks magic bytes when the declared media type is missing or
// unrecognized. Caller-declared types are not always trustworthy.
func SniffFormat(data []byte) Format {
	if len(data) >= 4 && data[0] == '%' && data[1] == 'P' && data[2] == 'D' && data[3] == 'F' {
		return PDF
	}
	if len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return IMAGE // JPEG
	}
	if len(data) >= 8 && data[0] == 0x89 && data[1] == 'P' && data[2] == 'N' && data[3] == 'G' {
		return IMAGE // PNG
	}
	return ""
}

// IsHEIC reports whether the bytes are an ISO-BMFF container with a
// heic/heif brand. These need an external converter before decoding.
func IsHEIC(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "hevc", "mif1", "msf1":
		return true
	}
	return false
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ExtToMediaType maps common extensions to media types for the CLI path,
// where only a filename is available.
func ExtToMediaType(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return "application/pdf"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "tif", "tiff":
		return "image/tiff"
	case "heic", "heif":
		return "image/heic"
	case "txt":
		return "text/plain"
	default:
		return ""
	}
}
