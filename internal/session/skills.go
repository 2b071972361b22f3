package session

import (
	"encoding/json"
	"sort"
	"time"
)

// SkillGrant is a time-boxed capability activation. Grants coexist per
// session keyed by skill name; re-invoking a skill refreshes its expiry.
type SkillGrant struct {
	SkillName string    `json:"skill_name"`
	InvokedAt time.Time `json:"invoked_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Active reports whether the grant is inside its TTL.
func (g *SkillGrant) Active(now time.Time) bool {
	return now.Before(g.ExpiresAt)
}

type grantSet struct {
	Grants map[string]SkillGrant `json:"grants"`
}

func skillKey(sessionID string) string {
	return "skills-" + sessionID
}

// ActiveSkills returns the names of unexpired grants for the session,
// sorted for deterministic output. Expired entries are purged and the purge
// is persisted, so the next reader never sees stale grants. A corrupt
// record returns a StateStoreError the caller treats as "no active skills".
func (m *Manager) ActiveSkills(sessionID string) ([]string, error) {
	key := skillKey(sessionID)

	data, ok, err := m.store.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var set grantSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, &StateStoreError{Key: key, Err: err}
	}

	now := m.Now()
	names := make([]string, 0, len(set.Grants))
	purged := false
	for name, g := range set.Grants {
		if g.Active(now) {
			names = append(names, name)
		} else {
			delete(set.Grants, name)
			purged = true
		}
	}

	if purged {
		if len(set.Grants) == 0 {
			_ = m.store.Delete(key)
		} else if updated, err := json.Marshal(&set); err == nil {
			_ = m.store.Put(key, updated)
		}
	}

	sort.Strings(names)
	return names, nil
}

// RecordSkill upserts a grant with a fresh expiry, preserving grants for
// other skills. A corrupt existing record is replaced rather than merged.
func (m *Manager) RecordSkill(sessionID, skillName string, ttl time.Duration) error {
	key := skillKey(sessionID)

	set := grantSet{Grants: make(map[string]SkillGrant)}
	if data, ok, err := m.store.Get(key); err == nil && ok {
		if err := json.Unmarshal(data, &set); err != nil || set.Grants == nil {
			set = grantSet{Grants: make(map[string]SkillGrant)}
		}
	}

	now := m.Now()
	set.Grants[skillName] = SkillGrant{
		SkillName: skillName,
		InvokedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	data, err := json.Marshal(&set)
	if err != nil {
		return &StateStoreError{Key: key, Err: err}
	}
	return m.store.Put(key, data)
}
