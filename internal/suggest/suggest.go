// Package suggest stands in for the script-suggestion collaborator. It
// returns canned scene beats after a simulated generation delay.
package suggest

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

var beats = []string{
	"\n\n[SCENE 1]\nOpening shot of a sunrise over a modern city skyline.\n\n",
	"[SCENE 2]\nClose-up of hands typing on a laptop keyboard.\n\n",
	"[SCENE 3]\nWide shot of a collaborative workspace with team members discussing ideas.",
}

type Service struct {
	delay  time.Duration
	logger *slog.Logger
}

func NewService(delay time.Duration, logger *slog.Logger) *Service {
	if delay <= 0 {
		delay = 1500 * time.Millisecond
	}
	return &Service{delay: delay, logger: logger}
}

// Suggest returns text to append to the current script. The script argument
// is accepted for contract parity with a real generator; the stub ignores it.
func (s *Service) Suggest(ctx context.Context, script string) (string, error) {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
	}

	if s.logger != nil {
		s.logger.Info("script suggestion generated", "script_len", len(script))
	}
	return strings.Join(beats, ""), nil
}
