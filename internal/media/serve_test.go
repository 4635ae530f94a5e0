package media

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func setupServedFile(t *testing.T, name, content string) *Server {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return NewServer(dir, nil)
}

func TestServeLocator_Full(t *testing.T) {
	srv := setupServedFile(t, "clip.mp4", "0123456789")

	req := httptest.NewRequest("GET", "/content", nil)
	rec := httptest.NewRecorder()

	if err := srv.ServeLocator(rec, req, "clip.mp4"); err != nil {
		t.Fatalf("ServeLocator() error = %v", err)
	}

	if rec.Code != 200 {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "0123456789" {
		t.Errorf("body = %q", got)
	}
	if got := rec.Header().Get("Accept-Ranges"); got != "bytes" {
		t.Errorf("Accept-Ranges = %q", got)
	}
}

func TestServeLocator_Partial(t *testing.T) {
	srv := setupServedFile(t, "clip.mp4", "0123456789")

	req := httptest.NewRequest("GET", "/content", nil)
	req.Header.Set("Range", "bytes=2-5")
	rec := httptest.NewRecorder()

	if err := srv.ServeLocator(rec, req, "clip.mp4"); err != nil {
		t.Fatalf("ServeLocator() error = %v", err)
	}

	if rec.Code != 206 {
		t.Errorf("status = %d, want 206", rec.Code)
	}
	if got := rec.Body.String(); got != "2345" {
		t.Errorf("body = %q, want 2345", got)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 2-5/10" {
		t.Errorf("Content-Range = %q", got)
	}
	if got := rec.Header().Get("Content-Length"); got != "4" {
		t.Errorf("Content-Length = %q", got)
	}
}

func TestServeLocator_Unsatisfiable(t *testing.T) {
	srv := setupServedFile(t, "clip.mp4", "0123456789")

	req := httptest.NewRequest("GET", "/content", nil)
	req.Header.Set("Range", "bytes=50-60")
	rec := httptest.NewRecorder()

	if err := srv.ServeLocator(rec, req, "clip.mp4"); err != nil {
		t.Fatalf("ServeLocator() error = %v", err)
	}

	if rec.Code != 416 {
		t.Errorf("status = %d, want 416", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes */10" {
		t.Errorf("Content-Range = %q", got)
	}
}

func TestServeLocator_MalformedRangeDegradesToFull(t *testing.T) {
	srv := setupServedFile(t, "clip.mp4", "0123456789")

	req := httptest.NewRequest("GET", "/content", nil)
	req.Header.Set("Range", "bytes=nonsense")
	rec := httptest.NewRecorder()

	if err := srv.ServeLocator(rec, req, "clip.mp4"); err != nil {
		t.Fatalf("ServeLocator() error = %v", err)
	}
	if rec.Code != 200 || rec.Body.String() != "0123456789" {
		t.Errorf("status = %d body = %q, want full response", rec.Code, rec.Body.String())
	}
}

func TestServeLocator_Missing(t *testing.T) {
	srv := NewServer(t.TempDir(), nil)

	req := httptest.NewRequest("GET", "/content", nil)
	rec := httptest.NewRecorder()

	if err := srv.ServeLocator(rec, req, "nope.mp4"); err != nil {
		t.Fatalf("ServeLocator() error = %v", err)
	}
	if rec.Code != 404 {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestServeLocator_FlattensPathTraversal(t *testing.T) {
	srv := setupServedFile(t, "safe.mp4", "ok")

	req := httptest.NewRequest("GET", "/content", nil)
	rec := httptest.NewRecorder()

	// A hostile locator resolves to its base name inside the media dir.
	if err := srv.ServeLocator(rec, req, "../../etc/safe.mp4"); err != nil {
		t.Fatalf("ServeLocator() error = %v", err)
	}
	if rec.Code != 200 || rec.Body.String() != "ok" {
		t.Errorf("status = %d body = %q", rec.Code, rec.Body.String())
	}
}
