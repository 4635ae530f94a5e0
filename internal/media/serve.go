package media

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
)

// Server streams stored media bytes back to the editor with HTTP Range
// support, so video and audio previews can scrub.
type Server struct {
	dir    string
	logger *slog.Logger
}

func NewServer(mediaDir string, logger *slog.Logger) *Server {
	return &Server{dir: mediaDir, logger: logger}
}

// ServeLocator writes the file behind a locator to the response. Locators are
// file names assigned by the Ingestor; anything path-like is flattened before
// hitting the filesystem.
func (s *Server) ServeLocator(w http.ResponseWriter, r *http.Request, locator string) error {
	path := filepath.Join(s.dir, filepath.Base(locator))

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "media not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("failed to open media file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat media file: %w", err)
	}

	size := stat.Size()

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", ContentType(locator))

	parsedRange, err := ParseRange(r.Header.Get("Range"), size)

	if err == ErrUnsatisfiable {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	}

	// A malformed Range header degrades to a full response.
	if parsedRange == nil || err == ErrInvalidRange {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
		w.WriteHeader(http.StatusOK)
		_, copyErr := io.Copy(w, file)
		return copyErr
	}

	if _, err := file.Seek(parsedRange.Start, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek media file: %w", err)
	}

	w.Header().Set("Content-Range", parsedRange.ContentRange(size))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", parsedRange.ContentLength()))
	w.WriteHeader(http.StatusPartialContent)

	_, err = io.CopyN(w, file, parsedRange.ContentLength())
	return err
}
