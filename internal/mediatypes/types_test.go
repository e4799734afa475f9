package mediatypes

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func TestIsImageExtension(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"photo.jpg", true},
		{"photo.JPEG", true},
		{"scan.png", true},
		{"anim.gif", true},
		{"modern.webp", true},
		{"phone.heic", true},
		{"movie.mp4", false},
		{"doc.pdf", false},
		{"noext", false},
	}

	for _, tt := range tests {
		if got := IsImageExtension(tt.name); got != tt.want {
			t.Errorf("IsImageExtension(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMimeTypeForName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"a.jpg", "image/jpeg"},
		{"a.jpeg", "image/jpeg"},
		{"a.PNG", "image/png"},
		{"a.webp", "image/webp"},
		{"a.txt", ""},
	}

	for _, tt := range tests {
		if got := MimeTypeForName(tt.name); got != tt.want {
			t.Errorf("MimeTypeForName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestSniffImage(t *testing.T) {
	// Real PNG bytes
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}

	mime, ok := SniffImage(buf.Bytes())
	if !ok {
		t.Errorf("SniffImage(png bytes) not recognized as image (got %s)", mime)
	}
	if mime != "image/png" {
		t.Errorf("SniffImage(png bytes) = %s, want image/png", mime)
	}

	// Plain text renamed to .jpg must not pass content detection
	mime, ok = SniffImage([]byte("hello, this is not an image at all"))
	if ok {
		t.Errorf("SniffImage(text) unexpectedly accepted as %s", mime)
	}
	if !IsImageMime("image/jpeg") || IsImageMime("text/plain") {
		t.Error("IsImageMime prefix check broken")
	}
}
