package coordinator

import (
	"context"
	"fmt"
	"sort"

	"github.com/BANCS-Norway/session-coordinator/internal/scope"
)

// ActiveSession summarizes what one taken slot is working on, read from its
// session scope. Reading another session's state is read-only coordination:
// it never mutates the other session's scope.
type ActiveSession struct {
	Instance     string `json:"instance"`
	Status       string `json:"status"`
	CurrentIssue any    `json:"current_issue"`
	TodoCount    int    `json:"todo_count"`
}

// ContextInfo is the coordination snapshot for a machine:project pair: the
// slot registry, which sessions are active, and which slot a new session
// would claim next. It is readable without signing on.
type ContextInfo struct {
	Machine        string            `json:"machine"`
	Project        string            `json:"project"`
	CurrentSession *Session          `json:"current_session"`
	Instances      map[string]string `json:"instances"`
	ActiveSessions []ActiveSession   `json:"active_sessions"`
	FirstAvailable string            `json:"first_available,omitempty"`
}

// SessionState is the per-slot state another session can read for
// coordination.
type SessionState struct {
	Instance     string `json:"instance"`
	CurrentIssue any    `json:"current_issue"`
	Status       any    `json:"status"`
	Todos        any    `json:"todos"`
	LastUpdated  any    `json:"last_updated"`
}

// sessionScope returns the fully qualified scope for a slot's session state.
func (c *Coordinator) sessionScope(instanceID string) string {
	return scope.Join(c.machine, c.project, "session", instanceID)
}

// ContextInfo builds the coordination snapshot. Slots marked taken whose
// session scope holds data contribute an ActiveSession summary.
func (c *Coordinator) ContextInfo(ctx context.Context) (*ContextInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	registry, err := c.loadRegistry(ctx)
	if err != nil {
		return nil, err
	}

	info := &ContextInfo{
		Machine:        c.machine,
		Project:        c.project,
		Instances:      registry,
		ActiveSessions: []ActiveSession{},
		FirstAvailable: firstAvailable(registry),
	}
	if c.session != nil {
		s := *c.session
		info.CurrentSession = &s
	}

	for _, instanceID := range sortedSlots(registry) {
		if registry[instanceID] != StatusTaken {
			continue
		}

		sessionScope := c.sessionScope(instanceID)
		keys, err := c.adapter.ListKeys(ctx, sessionScope)
		if err != nil {
			return nil, fmt.Errorf("read session state for %s: %w", instanceID, err)
		}
		if len(keys) == 0 {
			continue
		}

		currentIssue, _, err := c.adapter.Retrieve(ctx, sessionScope, "current_issue")
		if err != nil {
			return nil, err
		}
		todos, _, err := c.adapter.Retrieve(ctx, sessionScope, "todos")
		if err != nil {
			return nil, err
		}

		todoCount := 0
		if list, ok := todos.([]any); ok {
			todoCount = len(list)
		}

		info.ActiveSessions = append(info.ActiveSessions, ActiveSession{
			Instance:     instanceID,
			Status:       StatusTaken,
			CurrentIssue: currentIssue,
			TodoCount:    todoCount,
		})
	}

	return info, nil
}

// SessionState reads another session's state without interfering with its
// work. Returns nil when the slot has no session scope (not found or not
// active).
func (c *Coordinator) SessionState(ctx context.Context, instanceID string) (*SessionState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sessionScope := c.sessionScope(instanceID)
	keys, err := c.adapter.ListKeys(ctx, sessionScope)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	state := &SessionState{Instance: instanceID}
	for _, field := range []struct {
		key  string
		dest *any
	}{
		{"current_issue", &state.CurrentIssue},
		{"status", &state.Status},
		{"todos", &state.Todos},
		{"last_updated", &state.LastUpdated},
	} {
		value, _, err := c.adapter.Retrieve(ctx, sessionScope, field.key)
		if err != nil {
			return nil, err
		}
		*field.dest = value
	}
	return state, nil
}

// sortedSlots returns registry slot ids in sorted order.
func sortedSlots(registry map[string]string) []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
