package session

import (
	"encoding/json"
	"time"
)

// Directive is a user-requested suppression of specific constraints,
// bounded both by wall-clock TTL and by a prompt usage cap.
type Directive struct {
	SessionID     string    `json:"session_id"`
	ConstraintIDs []string  `json:"constraint_ids"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	PromptCount   int       `json:"prompt_count"`
	MaxPrompts    int       `json:"max_prompts"`
}

// Valid reports whether the directive may still be honored: it must be
// inside its TTL and under its usage cap. Anything else means deletion on
// the next read.
func (d *Directive) Valid(now time.Time) bool {
	return now.Before(d.ExpiresAt) && d.PromptCount < d.MaxPrompts
}

func overrideKey(sessionID string) string {
	return "override-" + sessionID
}

// ReadOverride returns the constraint ids suppressed for this session, or
// nil when there is no live directive. A valid read consumes one prompt
// from the usage cap and persists the new count; an expired directive is
// deleted on the spot. A corrupt record returns a StateStoreError the
// caller should log and then treat as "no override".
func (m *Manager) ReadOverride(sessionID string) ([]string, error) {
	key := overrideKey(sessionID)

	data, ok, err := m.store.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var d Directive
	if err := json.Unmarshal(data, &d); err != nil {
		// Left in place deliberately: deleting would mask the bug that
		// produced it. The cycle just proceeds without an override.
		return nil, &StateStoreError{Key: key, Err: err}
	}

	now := m.Now()
	if !d.Valid(now) {
		_ = m.store.Delete(key)
		return nil, nil
	}

	d.PromptCount++
	if updated, err := json.Marshal(&d); err == nil {
		if err := m.store.Put(key, updated); err != nil {
			return nil, err
		}
	}

	return d.ConstraintIDs, nil
}

// WriteOverride replaces any prior directive for the session with a fresh
// one. Directives are never merged; last writer wins.
func (m *Manager) WriteOverride(sessionID string, constraintIDs []string, ttl time.Duration, maxPrompts int) error {
	now := m.Now()
	d := Directive{
		SessionID:     sessionID,
		ConstraintIDs: constraintIDs,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
		MaxPrompts:    maxPrompts,
	}

	data, err := json.Marshal(&d)
	if err != nil {
		return &StateStoreError{Key: overrideKey(sessionID), Err: err}
	}
	return m.store.Put(overrideKey(sessionID), data)
}
