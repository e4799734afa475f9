package mediatypes

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ImageExtensions maps file extensions to whether they are accepted for upload.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
	".heic": true,
	".heif": true,
	".avif": true,
}

// extensionMimeTypes maps extensions to their canonical MIME type, used when
// a caller only has a file name.
var extensionMimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",
	".avif": "image/avif",
}

// IsImageExtension reports whether the file name carries an accepted image
// extension.
func IsImageExtension(name string) bool {
	return ImageExtensions[strings.ToLower(filepath.Ext(name))]
}

// MimeTypeForName returns the canonical MIME type for a file name, or ""
// if the extension is not a recognized image format.
func MimeTypeForName(name string) string {
	return extensionMimeTypes[strings.ToLower(filepath.Ext(name))]
}

// Extension returns the lowercased file extension, including the dot,
// or "" when there is none.
func Extension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// Sniff detects the MIME type from file content. Content detection is
// authoritative: a .jpg file containing plain text sniffs as text/plain.
func Sniff(data []byte) string {
	return mimetype.Detect(data).String()
}

// IsImageMime reports whether the MIME type has the image/ prefix.
func IsImageMime(mime string) bool {
	return strings.HasPrefix(mime, "image/")
}

// SniffImage detects the MIME type of data and reports whether it is an
// image. The detected type is returned either way so callers can include
// it in rejection messages.
func SniffImage(data []byte) (string, bool) {
	mime := mimetype.Detect(data)
	return mime.String(), strings.HasPrefix(mime.String(), "image/")
}
