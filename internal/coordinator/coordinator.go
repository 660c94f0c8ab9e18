// Package coordinator implements the session registry protocol: claiming
// and releasing named session slots, and scoped data operations namespaced
// to the claimed machine:project context.
//
// A Coordinator is a two-state machine. It starts unsigned; SignOn claims a
// slot and establishes the session context; SignOff releases the slot and
// returns to unsigned. Scoped data operations are only valid while signed
// on. The locking model is cooperative, not adversarial: a requested slot
// is claimed regardless of its recorded status, and the recorded statuses
// are advisory signals between cooperating sessions rather than enforced
// mutual exclusion.
package coordinator

import (
	"context"
	"fmt"
	"sync"

	"github.com/BANCS-Norway/session-coordinator/internal/errors"
	"github.com/BANCS-Norway/session-coordinator/internal/logging"
	"github.com/BANCS-Norway/session-coordinator/internal/scope"
	"github.com/BANCS-Norway/session-coordinator/internal/storage"
)

// Slot statuses recorded in the instance registry.
const (
	StatusAvailable = "available"
	StatusTaken     = "taken"
)

const (
	// instancesScopeName is the reserved sub-scope holding the slot registry.
	instancesScopeName = "instances"
	// registryKey is the single key inside the instances scope.
	registryKey = "registry"
	// fallbackSlot is claimed when no slot is available and none was
	// requested. This mirrors the documented behavior of the registry:
	// the fallback slot may already be taken, so concurrent sign-ons can
	// collide. Callers needing strict exclusivity must layer additional
	// locking on top.
	fallbackSlot = "claude_1"
)

// DefaultSlots returns the slot universe used when no registry has been
// persisted yet: four slots, all available.
func DefaultSlots() map[string]string {
	return map[string]string{
		"claude_1": StatusAvailable,
		"claude_2": StatusAvailable,
		"claude_3": StatusAvailable,
		"claude_4": StatusAvailable,
	}
}

// Session is the transient, in-process context established by SignOn. It is
// never persisted; only the slot status in the instance registry survives
// the process.
type Session struct {
	Machine         string `json:"machine"`
	Project         string `json:"project"`
	SessionID       string `json:"session_id"`
	FullScopePrefix string `json:"full_scope_prefix"`
}

// SignOffResult reports the outcome of SignOff. Session is the released
// context, or nil when there was none to release.
type SignOffResult struct {
	Status  string   `json:"status"`
	Session *Session `json:"session,omitempty"`
}

// Coordinator holds the storage adapter, the detected machine/project
// identity, and the single mutable session slot. It replaces the loose
// per-process globals a server would otherwise accumulate: construct one at
// startup and pass it by reference.
type Coordinator struct {
	adapter storage.Adapter
	machine string
	project string
	prefix  string
	log     *logging.Logger

	mu      sync.Mutex
	session *Session
}

// New creates a Coordinator for the given adapter and identity. A nil
// logger is replaced with a no-op logger.
func New(adapter storage.Adapter, machine, project string, log *logging.Logger) *Coordinator {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Coordinator{
		adapter: adapter,
		machine: machine,
		project: project,
		prefix:  scope.Prefix(machine, project),
		log:     log,
	}
}

// Machine returns the detected machine identifier.
func (c *Coordinator) Machine() string { return c.machine }

// Project returns the detected project identifier.
func (c *Coordinator) Project() string { return c.project }

// Current returns a copy of the active session context, or nil when
// unsigned.
func (c *Coordinator) Current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// instancesScope returns the fully qualified scope of the slot registry.
func (c *Coordinator) instancesScope() string {
	return scope.Join(c.machine, c.project, instancesScopeName)
}

// loadRegistry reads the slot registry, substituting the default universe
// when none has been persisted yet. The registry scope is created lazily on
// the first claim and never deleted.
func (c *Coordinator) loadRegistry(ctx context.Context) (map[string]string, error) {
	value, found, err := c.adapter.Retrieve(ctx, c.instancesScope(), registryKey)
	if err != nil {
		return nil, fmt.Errorf("load instance registry: %w", err)
	}
	if !found {
		return DefaultSlots(), nil
	}

	raw, ok := value.(map[string]any)
	if !ok {
		return nil, errors.NewSessionError("instance registry has unexpected shape", errors.ErrCorruptRecord)
	}
	registry := make(map[string]string, len(raw))
	for slot, status := range raw {
		s, ok := status.(string)
		if !ok {
			s = fmt.Sprint(status)
		}
		registry[slot] = s
	}
	return registry, nil
}

// saveRegistry persists the slot registry.
func (c *Coordinator) saveRegistry(ctx context.Context, registry map[string]string) error {
	if err := c.adapter.Store(ctx, c.instancesScope(), registryKey, registry); err != nil {
		return fmt.Errorf("persist instance registry: %w", err)
	}
	return nil
}

// firstAvailable returns the first available slot by sorted slot id, or ""
// when every slot is taken. Sorted order is the deterministic stand-in for
// registry insertion order and coincides with it for the numbered default
// universe.
func firstAvailable(registry map[string]string) string {
	for _, id := range sortedSlots(registry) {
		if registry[id] == StatusAvailable {
			return id
		}
	}
	return ""
}

// SignOn claims a session slot and establishes the session context.
//
// When requestedID is given, that slot is claimed regardless of its
// recorded status. When omitted, the first available slot (by sorted slot
// id) is claimed; if every slot is taken, SignOn falls back to claiming
// claude_1 anyway — a documented collision window, not enforced
// exclusivity.
func (c *Coordinator) SignOn(ctx context.Context, requestedID string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	registry, err := c.loadRegistry(ctx)
	if err != nil {
		return nil, err
	}

	sessionID := requestedID
	if sessionID == "" {
		sessionID = firstAvailable(registry)
		if sessionID == "" {
			sessionID = fallbackSlot
		}
	}

	registry[sessionID] = StatusTaken
	if err := c.saveRegistry(ctx, registry); err != nil {
		return nil, err
	}

	c.session = &Session{
		Machine:         c.machine,
		Project:         c.project,
		SessionID:       sessionID,
		FullScopePrefix: c.prefix,
	}

	c.log.Info("signed on",
		"session_id", sessionID,
		"machine", c.machine,
		"project", c.project)

	s := *c.session
	return &s, nil
}

// SignOff releases the claimed slot and clears the session context. Calling
// it while unsigned is a no-op that reports "no active session" without
// error, so repeated sign-offs are safe.
func (c *Coordinator) SignOff(ctx context.Context) (*SignOffResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return &SignOffResult{Status: "no active session"}, nil
	}

	registry, err := c.loadRegistry(ctx)
	if err != nil {
		return nil, err
	}
	registry[c.session.SessionID] = StatusAvailable
	if err := c.saveRegistry(ctx, registry); err != nil {
		return nil, err
	}

	released := *c.session
	c.session = nil

	c.log.Info("signed off", "session_id", released.SessionID)

	return &SignOffResult{Status: "signed off", Session: &released}, nil
}

// qualify prepends the session prefix to a logical scope, failing when
// unsigned.
func (c *Coordinator) qualify(logical string) (string, error) {
	if c.session == nil {
		return "", errors.ErrNotSignedOn
	}
	return scope.Qualify(c.session.FullScopePrefix, logical), nil
}

// StoreData stores a value in a session-scoped context. The logical scope
// is automatically prefixed with machine:project.
func (c *Coordinator) StoreData(ctx context.Context, logical, key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	full, err := c.qualify(logical)
	if err != nil {
		return err
	}
	return c.adapter.Store(ctx, full, key, value)
}

// RetrieveData retrieves a value from a session-scoped context.
func (c *Coordinator) RetrieveData(ctx context.Context, logical, key string) (any, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	full, err := c.qualify(logical)
	if err != nil {
		return nil, false, err
	}
	return c.adapter.Retrieve(ctx, full, key)
}

// DeleteData deletes a key from a session-scoped context, reporting whether
// it existed.
func (c *Coordinator) DeleteData(ctx context.Context, logical, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	full, err := c.qualify(logical)
	if err != nil {
		return false, err
	}
	return c.adapter.Delete(ctx, full, key)
}

// ListKeys lists all keys in a session-scoped context.
func (c *Coordinator) ListKeys(ctx context.Context, logical string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	full, err := c.qualify(logical)
	if err != nil {
		return nil, err
	}
	return c.adapter.ListKeys(ctx, full)
}

// ListScopes lists scopes within the session's machine:project namespace,
// with the prefix stripped from results. An empty pattern defaults to every
// scope under the namespace, so unrelated machines and projects are never
// reported.
func (c *Coordinator) ListScopes(ctx context.Context, pattern string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil, errors.ErrNotSignedOn
	}

	if pattern == "" {
		pattern = "*"
	}
	fullPattern := scope.Qualify(c.session.FullScopePrefix, pattern)

	scopes, err := c.adapter.ListScopes(ctx, fullPattern)
	if err != nil {
		return nil, err
	}

	stripped := make([]string, 0, len(scopes))
	for _, s := range scopes {
		stripped = append(stripped, scope.Strip(c.session.FullScopePrefix, s))
	}
	return stripped, nil
}

// DeleteScope deletes an entire session-scoped context and all its keys,
// reporting whether it existed.
func (c *Coordinator) DeleteScope(ctx context.Context, logical string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	full, err := c.qualify(logical)
	if err != nil {
		return false, err
	}
	return c.adapter.DeleteScope(ctx, full)
}
