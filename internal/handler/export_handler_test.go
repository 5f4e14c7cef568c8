package handler

import (
	"archive/zip"
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewExportHandler()
	r.POST("/api/v1/export-zip", h.Export)
	r.POST("/api/v1/preview", h.Preview)
	return r
}

func TestExportReturnsZipArchive(t *testing.T) {
	r := newTestRouter()

	body := `{"files":[{"path":"index.html","content":"<h1>Hi</h1>"},{"path":"css/style.css","content":"h1{}"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/export-zip", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("Content-Type: got %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != "attachment; filename=project.zip" {
		t.Errorf("Content-Disposition: got %q", cd)
	}

	reader, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	if err != nil {
		t.Fatalf("response is not a valid zip: %v", err)
	}
	if len(reader.File) != 2 {
		t.Errorf("zip entries: got %d, want 2", len(reader.File))
	}
}

func TestExportRejectsEmptyFileSet(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/export-zip", strings.NewReader(`{"files":[]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", w.Code)
	}
}

func TestPreviewAssemblesDocument(t *testing.T) {
	r := newTestRouter()

	body := `{"files":[{"path":"index.html","content":"<html><head><link rel='stylesheet' href='style.css'></head><body>ok</body></html>"},{"path":"style.css","content":"body{margin:0}"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/preview", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Errorf("Content-Type: got %q", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), "<style>body{margin:0}</style>") {
		t.Errorf("stylesheet must be inlined, got: %s", w.Body.String())
	}
}

func TestPreviewWithoutRootDocument(t *testing.T) {
	r := newTestRouter()

	body := `{"files":[{"path":"style.css","content":"body{}"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/preview", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "No index.html found") {
		t.Errorf("missing root must yield the placeholder, got: %s", w.Body.String())
	}
}
