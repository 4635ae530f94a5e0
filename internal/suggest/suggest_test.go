package suggest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestService_Suggest(t *testing.T) {
	s := NewService(time.Millisecond, nil)

	got, err := s.Suggest(context.Background(), "existing script")
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}

	for _, marker := range []string{"[SCENE 1]", "[SCENE 2]", "[SCENE 3]"} {
		if !strings.Contains(got, marker) {
			t.Errorf("suggestion missing %s", marker)
		}
	}
	if !strings.HasPrefix(got, "\n\n") {
		t.Errorf("suggestion must separate itself from existing text, got %q", got[:10])
	}
}

func TestService_Suggest_Cancel(t *testing.T) {
	s := NewService(time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := s.Suggest(ctx, "")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Suggest() error = %v, want context.Canceled", err)
	}
}
