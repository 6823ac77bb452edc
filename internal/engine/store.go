// Package engine implements the state core of warga-store: a registry of
// named collections, write-through local persistence, schema migration, and
// origin-tagged mutation so remote updates are never re-published.
package engine

import "errors"

var (
	// ErrUnknownCollection is returned when a name is not in the registry.
	ErrUnknownCollection = errors.New("unknown collection")
	// ErrKeyNotFound is returned when a keyed lookup finds no record.
	ErrKeyNotFound = errors.New("key not found")
)

// Origin tags who initiated a mutation. It is an explicit parameter of every
// Set so echo suppression is decided per call, not by ambient state.
type Origin int

const (
	// OriginLocal marks a mutation made by this client. It is persisted and,
	// when a publisher is attached, broadcast to other clients.
	OriginLocal Origin = iota
	// OriginRemote marks a mutation received from another client. It is
	// persisted but never re-published.
	OriginRemote
)

// Shape distinguishes ordered record lists from single-document values.
type Shape int

const (
	ShapeList Shape = iota
	ShapeDocument
)

// Collection names. Each is one independently persisted unit of state.
const (
	ColResidents = "residents"
	ColRequests  = "requests"
	ColAdmins    = "admins"
	ColAudit     = "logs"
	ColConfig    = "rt_config"
	ColDashboard = "dashboard"
	ColSession   = "session"
)

// CollectionSpec describes one registered collection.
type CollectionSpec struct {
	Name  string
	Shape Shape
	// Sync controls whether local mutations are published to the relay.
	// The remembered-login record is per client and never leaves it.
	Sync bool
}

// Collections is the fixed registry. Every load, save and publish is scoped
// to exactly one of these.
var Collections = []CollectionSpec{
	{Name: ColResidents, Shape: ShapeList, Sync: true},
	{Name: ColRequests, Shape: ShapeList, Sync: true},
	{Name: ColAdmins, Shape: ShapeList, Sync: true},
	{Name: ColAudit, Shape: ShapeList, Sync: true},
	{Name: ColConfig, Shape: ShapeDocument, Sync: true},
	{Name: ColDashboard, Shape: ShapeDocument, Sync: true},
	{Name: ColSession, Shape: ShapeDocument, Sync: false},
}

// Spec looks up a collection by name.
func Spec(name string) (CollectionSpec, bool) {
	for _, cs := range Collections {
		if cs.Name == name {
			return cs, true
		}
	}
	return CollectionSpec{}, false
}
