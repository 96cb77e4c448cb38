package filestore

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

// encodePNG renders a solid test image of the given size.
func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func decodeDims(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestNormalizeImage_ResizesLargeImage(t *testing.T) {
	data := encodePNG(t, 800, 400)

	out, err := NormalizeImage(data, 200)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	w, h := decodeDims(t, out)
	if w != 200 || h != 100 {
		t.Errorf("expected 200x100, got %dx%d", w, h)
	}
}

func TestNormalizeImage_SmallImageKeepsDimensions(t *testing.T) {
	data := encodePNG(t, 100, 60)

	out, err := NormalizeImage(data, 200)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	w, h := decodeDims(t, out)
	if w != 100 || h != 60 {
		t.Errorf("expected 100x60, got %dx%d", w, h)
	}
}

func TestNormalizeImage_DisabledReturnsInput(t *testing.T) {
	data := []byte("not even an image")

	out, err := NormalizeImage(data, 0)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if string(out) != string(data) {
		t.Error("expected input returned unchanged when disabled")
	}
}

func TestNormalizeImage_UndecodableFails(t *testing.T) {
	if _, err := NormalizeImage([]byte("garbage"), 200); err == nil {
		t.Error("expected decode error for garbage input")
	}
}
