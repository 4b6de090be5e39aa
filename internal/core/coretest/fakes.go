// Package coretest provides in-memory fakes of the core transport interfaces.
package coretest

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/Wagner-Erik/ResArcana-sub001/internal/core"
)

var ErrSend = errors.New("send failed")

// Outbound records every frame it is asked to send.
type Outbound struct {
	mu      sync.Mutex
	frames  []core.Frame
	closed  bool
	SendErr error
}

func (o *Outbound) TrySend(f core.Frame) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.SendErr != nil {
		return o.SendErr
	}
	o.frames = append(o.frames, f)
	return nil
}

func (o *Outbound) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
}

func (o *Outbound) Frames() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.frames))
	for i, f := range o.frames {
		out[i] = string(f)
	}
	return out
}

func (o *Outbound) Closed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

// Worker is a worker handle whose state the test drives.
type Worker struct {
	requested atomic.Bool
	gone      atomic.Bool
}

func (w *Worker) Disconnect() { w.requested.Store(true) }

func (w *Worker) Disconnected() bool { return w.gone.Load() }

func (w *Worker) Requested() bool { return w.requested.Load() }

// Drop marks the worker as disconnected.
func (w *Worker) Drop() { w.gone.Store(true) }
