package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodedImage(t *testing.T, w, h int, asPNG bool) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{G: 200, A: 255})
	}
	var buf bytes.Buffer
	var err error
	if asPNG {
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, nil)
	}
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestProcessShrinksLargeImages(t *testing.T) {
	p := NewProcessor(Config{MaxWidth: 100, MaxHeight: 100, ThumbWidth: 20, ThumbHeight: 20, Quality: 80})

	res, err := p.Process(encodedImage(t, 400, 200, false))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Width != 100 || res.Height != 50 {
		t.Fatalf("expected 100x50, got %dx%d", res.Width, res.Height)
	}
	if res.ContentType != "image/jpeg" || res.Extension != ".jpg" {
		t.Fatalf("unexpected type %s %s", res.ContentType, res.Extension)
	}

	thumb, _, err := image.Decode(bytes.NewReader(res.Thumbnail))
	if err != nil {
		t.Fatalf("decode thumb: %v", err)
	}
	if thumb.Bounds().Dx() != 20 || thumb.Bounds().Dy() != 20 {
		t.Fatalf("unexpected thumb size %v", thumb.Bounds())
	}
}

func TestProcessKeepsPNG(t *testing.T) {
	p := NewProcessor(DefaultConfig())

	res, err := p.Process(encodedImage(t, 50, 50, true))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.ContentType != "image/png" || res.Width != 50 {
		t.Fatalf("unexpected result %+v", res.ContentType)
	}
}

func TestProcessRejectsGarbage(t *testing.T) {
	p := NewProcessor(DefaultConfig())
	if _, err := p.Process([]byte("not an image")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestGeneratePaths(t *testing.T) {
	orig, thumb := GeneratePaths("found", "abc", "v1", ".jpg")
	if orig != "items/found/abc/v1.jpg" || thumb != "items/found/abc/v1_thumb.jpg" {
		t.Fatalf("unexpected paths %s %s", orig, thumb)
	}
}
