package engine

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartwarga-dev/warga-store/pkg/schema"
)

// publishRecorder is a test double for the sync relay.
type publishRecorder struct {
	calls []string
}

func (p *publishRecorder) publish(name string, _ json.RawMessage) {
	p.calls = append(p.calls, name)
}

func newTestStore(t *testing.T) (*Store, *publishRecorder) {
	t.Helper()
	p, err := NewPersistence(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	store := NewStore(p, zerolog.Nop())
	rec := &publishRecorder{}
	store.SetPublisher(rec.publish)
	return store, rec
}

func resident(nik, name string) schema.Resident {
	return schema.Resident{NIK: nik, Name: name}
}

func nikOf(r schema.Resident) string { return r.NIK }

func TestUpsertByKey_Uniqueness(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := UpsertByKey(store, ColResidents, OriginLocal, nikOf, resident("3201010101010001", "Siti"))
	require.NoError(t, err)
	_, err = UpsertByKey(store, ColResidents, OriginLocal, nikOf, resident("3201010101010002", "Budi"))
	require.NoError(t, err)

	// Colliding NIK replaces in place, newest upsert wins.
	replaced, err := UpsertByKey(store, ColResidents, OriginLocal, nikOf, resident("3201010101010001", "Siti Aminah"))
	require.NoError(t, err)
	assert.True(t, replaced)

	list, err := Value[[]schema.Resident](store, ColResidents)
	require.NoError(t, err)
	require.Len(t, list, 2)

	// New records are prepended; the updated record kept its position.
	assert.Equal(t, "Budi", list[0].Name)
	assert.Equal(t, "Siti Aminah", list[1].Name)

	keys := map[string]int{}
	for _, r := range list {
		keys[r.NIK]++
	}
	for nik, n := range keys {
		assert.Equal(t, 1, n, "NIK %s appears %d times", nik, n)
	}
}

func TestRemoveByKey(t *testing.T) {
	store, _ := newTestStore(t)

	for _, r := range []schema.Resident{
		resident("3201010101010001", "Siti"),
		resident("3201010101010002", "Budi"),
	} {
		_, err := UpsertByKey(store, ColResidents, OriginLocal, nikOf, r)
		require.NoError(t, err)
	}

	removed, err := RemoveByKey[schema.Resident](store, ColResidents, OriginLocal, nikOf, "3201010101010001")
	require.NoError(t, err)
	assert.True(t, removed)

	list, err := Value[[]schema.Resident](store, ColResidents)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Budi", list[0].Name)

	// Removing an absent key is a no-op.
	removed, err = RemoveByKey[schema.Resident](store, ColResidents, OriginLocal, nikOf, "9999999999999999")
	require.NoError(t, err)
	assert.False(t, removed)

	list, err = Value[[]schema.Resident](store, ColResidents)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEchoSuppression(t *testing.T) {
	store, rec := newTestStore(t)

	remote := json.RawMessage(`[{"nik":"3201010101010001","name":"Siti"}]`)
	require.NoError(t, store.Set(ColResidents, remote, OriginRemote))

	// Applying a remote update must not publish anything.
	assert.Empty(t, rec.calls)

	// A local mutation afterwards publishes normally: the suppression is a
	// property of the single remote call, nothing lingers.
	require.NoError(t, store.Set(ColResidents, remote, OriginLocal))
	assert.Equal(t, []string{ColResidents}, rec.calls)
}

func TestSessionCollectionNeverPublishes(t *testing.T) {
	store, rec := newTestStore(t)

	require.NoError(t, store.Set(ColSession, json.RawMessage(`{"id":"1","name":"Pak RT Budiman"}`), OriginLocal))
	assert.Empty(t, rec.calls)
}

func TestWriteThroughDurability(t *testing.T) {
	dir := t.TempDir()
	p, err := NewPersistence(dir, zerolog.Nop())
	require.NoError(t, err)
	store := NewStore(p, zerolog.Nop())

	_, err = UpsertByKey(store, ColResidents, OriginLocal, nikOf, resident("3201010101010001", "Siti"))
	require.NoError(t, err)

	// A fresh store over the same directory sees exactly the same value.
	reloaded := NewStore(p, zerolog.Nop())
	assert.JSONEq(t, string(store.Get(ColResidents)), string(reloaded.Get(ColResidents)))

	inMem, err := Value[[]schema.Resident](store, ColResidents)
	require.NoError(t, err)
	onDisk, err := Value[[]schema.Resident](reloaded, ColResidents)
	require.NoError(t, err)
	assert.Equal(t, inMem, onDisk)
}

func TestLastWriterWins(t *testing.T) {
	store, _ := newTestStore(t)

	fromClientA := json.RawMessage(`[{"nik":"3201010101010001","name":"Siti"}]`)
	fromClientB := json.RawMessage(`[{"nik":"3201010101010002","name":"Budi"}]`)

	// Two clients published at nearly the same instant; this client happens
	// to receive A then B. The final state is B's value, not a merge.
	require.NoError(t, store.Set(ColResidents, fromClientA, OriginRemote))
	require.NoError(t, store.Set(ColResidents, fromClientB, OriginRemote))

	list, err := Value[[]schema.Resident](store, ColResidents)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Budi", list[0].Name)
}

func TestSetUnknownCollection(t *testing.T) {
	store, rec := newTestStore(t)

	err := store.Set("no-such-collection", json.RawMessage(`{}`), OriginLocal)
	assert.ErrorIs(t, err, ErrUnknownCollection)
	assert.Empty(t, rec.calls)
}

func TestPrepend(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, Prepend(store, ColRequests, OriginLocal, schema.ServiceRequest{ID: "a"}))
	require.NoError(t, Prepend(store, ColRequests, OriginLocal, schema.ServiceRequest{ID: "b"}))

	list, err := Value[[]schema.ServiceRequest](store, ColRequests)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "a", list[1].ID)
}
