package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"testing"

	"ai-studio-go/internal/model"
)

func TestBuildZipRoundTrip(t *testing.T) {
	files := []model.ProjectFile{
		{Path: "index.html", Content: "<h1>Hi</h1>"},
		{Path: "assets/css/style.css", Content: "body{}"},
		{Path: "js/app.js", Content: "console.log(1)"},
	}

	data, err := BuildZip(files)
	if err != nil {
		t.Fatalf("BuildZip: %v", err)
	}

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if len(r.File) != len(files) {
		t.Fatalf("expected %d entries, got %d", len(files), len(r.File))
	}

	want := map[string]string{}
	for _, f := range files {
		want[f.Path] = f.Content
	}
	for _, entry := range r.File {
		rc, err := entry.Open()
		if err != nil {
			t.Fatalf("open %s: %v", entry.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", entry.Name, err)
		}
		if want[entry.Name] != string(content) {
			t.Fatalf("entry %s: content mismatch, got %q", entry.Name, content)
		}
	}
}

func TestBuildZipRefusesEmptySet(t *testing.T) {
	if _, err := BuildZip(nil); !errors.Is(err, ErrEmptyFileSet) {
		t.Fatalf("expected ErrEmptyFileSet, got %v", err)
	}
	if _, err := BuildZipFromFileSet(model.NewFileSet()); !errors.Is(err, ErrEmptyFileSet) {
		t.Fatalf("expected ErrEmptyFileSet for empty file set, got %v", err)
	}
}
