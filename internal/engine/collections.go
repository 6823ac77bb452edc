package engine

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// PublishFunc forwards a committed local mutation to the sync channel.
type PublishFunc func(collection string, value json.RawMessage)

// Store holds the in-memory value of every registered collection. Mutations
// are write-through: the in-memory value and the persisted value converge
// before Set returns. A publisher may be attached for multi-client sync;
// without one the store runs in single-client mode.
type Store struct {
	mu        sync.RWMutex
	values    map[string]json.RawMessage
	persister *Persistence
	publish   PublishFunc
	log       zerolog.Logger
}

// NewStore loads every registered collection through the migrator and
// returns a ready store. The persister may be nil in tests.
func NewStore(p *Persistence, log zerolog.Logger) *Store {
	s := &Store{
		values:    make(map[string]json.RawMessage),
		persister: p,
		log:       log,
	}
	for _, cs := range Collections {
		var raw json.RawMessage
		if p != nil {
			raw, _ = p.LoadCollection(cs.Name)
		}
		s.values[cs.Name] = Migrate(cs.Name, raw)
	}
	return s
}

// SetPublisher attaches the sync channel. Only local-origin mutations of
// syncable collections are forwarded to it.
func (s *Store) SetPublisher(fn PublishFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publish = fn
}

// Get returns the current raw value of a collection.
func (s *Store) Get(name string) json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[name]
}

// Set replaces a collection's value. The value is applied in memory, then
// persisted, then published - but only when the mutation originated locally
// and the collection syncs. A remote-origin Set persists without publishing,
// which is the whole echo guard.
func (s *Store) Set(name string, value json.RawMessage, origin Origin) error {
	cs, ok := Spec(name)
	if !ok {
		s.log.Warn().Str("collection", name).Msg("ignoring set for unknown collection")
		return ErrUnknownCollection
	}

	s.mu.Lock()
	s.values[name] = value
	publish := s.publish
	s.mu.Unlock()

	if s.persister != nil {
		if err := s.persister.SaveCollection(name, value); err != nil {
			// Local persistence is a durability aid, not a transaction: the
			// in-memory mutation stands even when the disk write fails.
			s.log.Error().Err(err).Str("collection", name).Msg("failed to persist collection")
		}
	}

	if origin == OriginLocal && cs.Sync && publish != nil {
		publish(name, value)
	}
	return nil
}

// Value decodes a collection's current value into T.
func Value[T any](s *Store, name string) (T, error) {
	var target T
	raw := s.Get(name)
	if raw == nil || string(raw) == "null" {
		return target, nil
	}
	err := json.Unmarshal(raw, &target)
	return target, err
}

// SetValue marshals v and ships it through Set.
func SetValue[T any](s *Store, name string, v T, origin Origin) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(name, raw, origin)
}

// UpsertByKey inserts rec into a list collection, or replaces the record
// whose natural key collides. New records are prepended (newest first);
// replaced records keep their position. Returns true when a record was
// replaced rather than created.
func UpsertByKey[T any](s *Store, name string, origin Origin, keyOf func(T) string, rec T) (bool, error) {
	list, err := Value[[]T](s, name)
	if err != nil {
		return false, err
	}

	replaced := false
	for i := range list {
		if keyOf(list[i]) == keyOf(rec) {
			list[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		list = append([]T{rec}, list...)
	}
	return replaced, SetValue(s, name, list, origin)
}

// RemoveByKey removes the record with the given natural key from a list
// collection. Removing an absent key is a no-op; the second return says
// whether anything was removed.
func RemoveByKey[T any](s *Store, name string, origin Origin, keyOf func(T) string, key string) (bool, error) {
	list, err := Value[[]T](s, name)
	if err != nil {
		return false, err
	}

	kept := make([]T, 0, len(list))
	removed := false
	for _, rec := range list {
		if !removed && keyOf(rec) == key {
			removed = true
			continue
		}
		kept = append(kept, rec)
	}
	if !removed {
		return false, nil
	}
	return true, SetValue(s, name, kept, origin)
}

// Prepend adds rec to the front of a list collection.
func Prepend[T any](s *Store, name string, origin Origin, rec T) error {
	list, err := Value[[]T](s, name)
	if err != nil {
		return err
	}
	return SetValue(s, name, append([]T{rec}, list...), origin)
}
