package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() (*Manager, *MemoryStore) {
	store := NewMemoryStore()
	m := NewManager(store)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m.Now = func() time.Time { return base }
	return m, store
}

func advance(m *Manager, d time.Duration) {
	at := m.Now().Add(d)
	m.Now = func() time.Time { return at }
}

func TestOverride_RoundTrip(t *testing.T) {
	m, _ := newTestManager()

	require.NoError(t, m.WriteOverride("s1", []string{"no-eval-usage", "no-debug-logging"}, 10*time.Minute, 3))

	ids, err := m.ReadOverride("s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"no-eval-usage", "no-debug-logging"}, ids)
}

func TestOverride_AbsentIsNil(t *testing.T) {
	m, _ := newTestManager()

	ids, err := m.ReadOverride("nobody")
	require.NoError(t, err)
	assert.Nil(t, ids)
}

func TestOverride_UsageCap(t *testing.T) {
	m, _ := newTestManager()
	require.NoError(t, m.WriteOverride("s1", []string{"a"}, time.Hour, 3))

	// Three prompts inside the cap are honored, the fourth is not.
	for i := 0; i < 3; i++ {
		ids, err := m.ReadOverride("s1")
		require.NoError(t, err)
		assert.NotNil(t, ids, "read %d should honor the directive", i+1)
	}

	ids, err := m.ReadOverride("s1")
	require.NoError(t, err)
	assert.Nil(t, ids, "fourth read must find the cap exhausted")
}

func TestOverride_TTLExpiryDeletesOnRead(t *testing.T) {
	m, store := newTestManager()
	require.NoError(t, m.WriteOverride("s1", []string{"a"}, 10*time.Minute, 3))

	advance(m, 11*time.Minute)

	ids, err := m.ReadOverride("s1")
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, ok, err := store.Get(overrideKey("s1"))
	require.NoError(t, err)
	assert.False(t, ok, "expired directive should be deleted on read")
}

func TestOverride_JustInsideTTL(t *testing.T) {
	m, _ := newTestManager()
	require.NoError(t, m.WriteOverride("s1", []string{"a"}, 10*time.Minute, 3))

	advance(m, 9*time.Minute)

	ids, err := m.ReadOverride("s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
}

func TestOverride_LastWriterWins(t *testing.T) {
	m, _ := newTestManager()
	require.NoError(t, m.WriteOverride("s1", []string{"old-rule"}, time.Hour, 3))
	require.NoError(t, m.WriteOverride("s1", []string{"new-rule"}, time.Hour, 3))

	ids, err := m.ReadOverride("s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"new-rule"}, ids)
}

func TestOverride_CorruptRecord(t *testing.T) {
	m, store := newTestManager()
	require.NoError(t, store.Put(overrideKey("s1"), []byte("not json")))

	ids, err := m.ReadOverride("s1")
	assert.Nil(t, ids)

	var stateErr *StateStoreError
	require.ErrorAs(t, err, &stateErr)

	// The corrupt record stays in place for inspection.
	_, ok, getErr := store.Get(overrideKey("s1"))
	require.NoError(t, getErr)
	assert.True(t, ok)
}

func TestOverride_SessionsIsolated(t *testing.T) {
	m, _ := newTestManager()
	require.NoError(t, m.WriteOverride("s1", []string{"a"}, time.Hour, 3))

	ids, err := m.ReadOverride("s2")
	require.NoError(t, err)
	assert.Nil(t, ids)
}

func TestSkills_TTLBoundary(t *testing.T) {
	m, _ := newTestManager()
	require.NoError(t, m.RecordSkill("s1", "database-migration", 30*time.Minute))

	advance(m, 29*time.Minute)
	names, err := m.ActiveSkills("s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"database-migration"}, names)

	advance(m, 2*time.Minute)
	names, err = m.ActiveSkills("s1")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestSkills_ReinvokeRefreshesExpiry(t *testing.T) {
	m, _ := newTestManager()
	require.NoError(t, m.RecordSkill("s1", "deploy", 30*time.Minute))

	advance(m, 20*time.Minute)
	require.NoError(t, m.RecordSkill("s1", "deploy", 30*time.Minute))

	// 40 minutes after the first invocation, the refreshed grant lives on.
	advance(m, 20*time.Minute)
	names, err := m.ActiveSkills("s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"deploy"}, names)
}

func TestSkills_GrantsCoexistAndPurgeIndependently(t *testing.T) {
	m, store := newTestManager()
	require.NoError(t, m.RecordSkill("s1", "short", 10*time.Minute))
	require.NoError(t, m.RecordSkill("s1", "long", time.Hour))

	advance(m, 30*time.Minute)

	names, err := m.ActiveSkills("s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"long"}, names)

	// The purge is persisted: the stored set no longer carries the expired
	// grant even before the next expiry check.
	data, ok, err := store.Get(skillKey("s1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, string(data), "short")
}

func TestSkills_AllExpiredDeletesRecord(t *testing.T) {
	m, store := newTestManager()
	require.NoError(t, m.RecordSkill("s1", "only", 5*time.Minute))

	advance(m, 10*time.Minute)
	names, err := m.ActiveSkills("s1")
	require.NoError(t, err)
	assert.Empty(t, names)

	_, ok, err := store.Get(skillKey("s1"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSkills_CorruptRecordReplacedOnWrite(t *testing.T) {
	m, store := newTestManager()
	require.NoError(t, store.Put(skillKey("s1"), []byte("garbage")))

	_, err := m.ActiveSkills("s1")
	var stateErr *StateStoreError
	require.ErrorAs(t, err, &stateErr)

	require.NoError(t, m.RecordSkill("s1", "fresh", 30*time.Minute))
	names, err := m.ActiveSkills("s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, names)
}

func TestSkills_SortedOutput(t *testing.T) {
	m, _ := newTestManager()
	require.NoError(t, m.RecordSkill("s1", "zeta", time.Hour))
	require.NoError(t, m.RecordSkill("s1", "alpha", time.Hour))
	require.NoError(t, m.RecordSkill("s1", "mid", time.Hour))

	names, err := m.ActiveSkills("s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestFileStore_RoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, ok, err := store.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put("override-s1", []byte(`{"x":1}`)))
	data, ok, err := store.Get("override-s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"x":1}`, string(data))

	require.NoError(t, store.Delete("override-s1"))
	_, ok, err = store.Get("override-s1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting a missing key is not an error.
	require.NoError(t, store.Delete("override-s1"))
}

func TestFileStore_SanitizesKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	key := "override-../../etc/passwd"
	require.NoError(t, store.Put(key, []byte("data")))

	data, ok, err := store.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "data", string(data))
}

func TestFileStore_UsableThroughManager(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	m := NewManager(store)

	require.NoError(t, m.WriteOverride("s1", []string{"a"}, time.Hour, 3))
	ids, err := m.ReadOverride("s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
}

func TestParseDirective(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   []string
	}{
		{"no marker", "please refactor this function", nil},
		{"single id", "@railguard:allow no-eval-usage", []string{"no-eval-usage"}},
		{
			"multiple ids",
			"fix it @railguard:allow no-eval-usage,no-debug-logging please",
			[]string{"no-eval-usage", "no-debug-logging"},
		},
		{
			"spaces around commas",
			"@railguard:allow a , b ,c",
			[]string{"a", "b", "c"},
		},
		{
			"trailing prose not swallowed",
			"@railguard:allow no-eval-usage and then run the tests",
			[]string{"no-eval-usage"},
		},
		{"marker without ids", "@railguard:allow ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDirective(tt.prompt))
		})
	}
}

func TestStateStoreError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &StateStoreError{Key: "k", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "k")
}
