// Package actionlog implements the Action Log: a chronological record of
// every remediation action (spec §4.C), journalled by the callers of the
// External Adapters whenever ScaleService/RollbackDeployment/UpdateParameter
// is invoked.
package actionlog

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Action is one remediation attempt and its outcome.
type Action struct {
	ID         string         `json:"id"`
	ActionType string         `json:"action_type"` // scale_ecs|rollback_deployment|update_ssm
	Service    string         `json:"service"`
	Reason     string         `json:"reason,omitempty"`
	Status     string         `json:"status"` // succeeded|failed
	Detail     map[string]any `json:"detail,omitempty"`
	Timestamp  time.Time      `json:"ts"`
}

// Log is a mutex-guarded, append-only, chronological record of actions.
type Log struct {
	mu      sync.Mutex
	actions []Action
}

// New creates an empty Action Log.
func New() *Log {
	return &Log{}
}

// Record appends an action, assigning it a stable id if absent.
func (l *Log) Record(a Action) Action {
	l.mu.Lock()
	defer l.mu.Unlock()

	if a.ID == "" {
		a.ID = "act-" + uuid.New().String()[:8]
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	l.actions = append(l.actions, a)
	return a
}

// All returns a copy of every recorded action, oldest first; mutating the
// returned slice does not affect the log.
func (l *Log) All() []Action {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Action, len(l.actions))
	copy(out, l.actions)
	return out
}

// ForService returns actions recorded against a single service, oldest first.
func (l *Log) ForService(service string) []Action {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Action
	for _, a := range l.actions {
		if a.Service == service {
			out = append(out, a)
		}
	}
	return out
}
