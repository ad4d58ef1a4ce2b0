package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nodewee/capture-ocr/pkg/types"
)

// minimal PNG signature plus IHDR start, enough for content sniffing
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestGetFileInfo(t *testing.T) {
	dir := t.TempDir()
	files := map[string][]byte{
		"shot.PNG":    pngHeader,
		"noext":       pngHeader,
		"page.html":   []byte("<html><body>x</body></html>"),
		"notes.txt":   []byte("plain text"),
		"saved.mhtml": []byte("MIME-Version: 1.0\r\n"),
	}
	want := map[string]types.MediaType{
		"shot.PNG":    types.ImageMediaType,
		"noext":       types.ImageMediaType,
		"page.html":   types.PageMediaType,
		"notes.txt":   types.OtherMediaType,
		"saved.mhtml": types.PageMediaType,
	}

	for name, data := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
		info, err := GetFileInfo(path)
		if err != nil {
			t.Fatalf("GetFileInfo(%s): %v", name, err)
		}
		if info.MediaType != want[name] {
			t.Errorf("%s: MediaType = %s, want %s", name, info.MediaType, want[name])
		}
		if info.Size != int64(len(data)) {
			t.Errorf("%s: Size = %d", name, info.Size)
		}
	}

	info, _ := GetFileInfo(filepath.Join(dir, "shot.PNG"))
	if info.Extension != "png" || info.MimeType != "image/png" {
		t.Errorf("shot.PNG: ext=%q mime=%q", info.Extension, info.MimeType)
	}
}

func TestGetFileInfoErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := GetFileInfo(dir); err == nil {
		t.Error("directory should be rejected")
	}
	if _, err := GetFileInfo(filepath.Join(dir, "missing.png")); GetErrorType(err) != ErrorTypeNotFound {
		t.Errorf("missing file err = %v", err)
	}
}

func TestExtensionGroups(t *testing.T) {
	for _, ext := range []string{"png", ".JPG", "webp", "tif"} {
		if !IsImageFile(ext) {
			t.Errorf("IsImageFile(%q) = false", ext)
		}
	}
	for _, ext := range []string{"html", ".MHT"} {
		if !IsPageFile(ext) {
			t.Errorf("IsPageFile(%q) = false", ext)
		}
	}
	if IsImageFile("pdf") || IsPageFile("png") {
		t.Error("unexpected match")
	}
}
