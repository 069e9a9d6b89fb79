package client

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultAlertTimeout = 5 * time.Second

// Alerts raises self-expiring notifications. Every alert is removed after
// its timeout unless dismissed first; dismissal cancels the pending removal.
type Alerts struct {
	d Dispatcher

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

func NewAlerts(d Dispatcher) *Alerts {
	return &Alerts{d: d, timers: map[string]*time.Timer{}}
}

// Set shows msg and returns the alert id. timeout <= 0 uses
// DefaultAlertTimeout.
func (a *Alerts) Set(msg string, typ AlertType, timeout time.Duration) string {
	if timeout <= 0 {
		timeout = DefaultAlertTimeout
	}
	id := uuid.NewString()
	a.d.Dispatch(Action{Type: SetAlert, Payload: Alert{ID: id, Msg: msg, Type: typ}})

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return id
	}
	a.timers[id] = time.AfterFunc(timeout, func() { a.expire(id) })
	return id
}

func (a *Alerts) expire(id string) {
	a.mu.Lock()
	_, pending := a.timers[id]
	delete(a.timers, id)
	a.mu.Unlock()
	if pending {
		a.d.Dispatch(Action{Type: RemoveAlert, Payload: id})
	}
}

// Dismiss removes the alert now and cancels its scheduled removal.
func (a *Alerts) Dismiss(id string) {
	a.mu.Lock()
	t, ok := a.timers[id]
	delete(a.timers, id)
	a.mu.Unlock()
	if ok {
		t.Stop()
	}
	a.d.Dispatch(Action{Type: RemoveAlert, Payload: id})
}

// Pending reports how many alerts still have a scheduled removal.
func (a *Alerts) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.timers)
}

// Close cancels every scheduled removal. Alerts already shown stay in the
// state; later Set calls show alerts without scheduling removal.
func (a *Alerts) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, t := range a.timers {
		t.Stop()
		delete(a.timers, id)
	}
	a.closed = true
}
