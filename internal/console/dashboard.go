package console

import (
	"context"
	"sync"

	"github.com/spigell/interview-drill/internal/session"
)

// Dashboard keeps the final result so it can be printed once the terminal
// UI has exited.
type Dashboard struct {
	mu     sync.Mutex
	result *session.Result
}

func (d *Dashboard) Show(_ context.Context, result session.Result) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.result = &result
	return nil
}

// Result returns the shown result, if any.
func (d *Dashboard) Result() (session.Result, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.result == nil {
		return session.Result{}, false
	}
	return *d.result, true
}
