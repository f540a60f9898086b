package profile

import (
	"log/slog"
	"sync"
	"time"
)

// Toaster is a MessageView that writes toasts to a structured logger and
// tracks the info messages still on screen
type Toaster struct {
	logger *slog.Logger

	mu    sync.Mutex
	infos []string
}

// NewToaster creates a toaster logging through logger
func NewToaster(logger *slog.Logger) *Toaster {
	return &Toaster{logger: logger}
}

func (t *Toaster) DisplayErrorMessage(message string) {
	t.logger.Error(message, "toast", "error")
}

func (t *Toaster) DisplayInfoMessage(message string, duration time.Duration) {
	t.mu.Lock()
	t.infos = append(t.infos, message)
	t.mu.Unlock()

	t.logger.Info(message, "toast", "info", "duration", duration)
}

func (t *Toaster) ClearLastInfoMessage() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.infos) == 0 {
		return
	}
	last := t.infos[len(t.infos)-1]
	t.infos = t.infos[:len(t.infos)-1]
	t.logger.Debug("Cleared info message", "message", last)
}

// Pending returns the info messages not yet cleared
func (t *Toaster) Pending() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.infos...)
}
