// Package audit records every mutating action into the append-only audit
// collection.
package audit

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/smartwarga-dev/warga-store/internal/engine"
	"github.com/smartwarga-dev/warga-store/pkg/schema"
)

// Recorder prepends timestamped entries to the audit log. Entries are never
// updated, reordered or removed, and there is no retention policy: the log
// grows for the life of the installation.
type Recorder struct {
	store *engine.Store
	actor func() string
	log   zerolog.Logger
}

// NewRecorder wires a recorder to the store. actor resolves the current
// identity at record time; it should return the admin's display name, or
// schema.PublicActor when nobody is logged in.
func NewRecorder(store *engine.Store, actor func() string, log zerolog.Logger) *Recorder {
	return &Recorder{store: store, actor: actor, log: log}
}

// Record appends one entry to the front of the audit collection. ULIDs give
// every entry a sortable id even when two actions land in the same instant.
func (r *Recorder) Record(action, target, kind string) {
	entry := schema.AuditEntry{
		ID:     ulid.Make().String(),
		Action: action,
		Actor:  r.actor(),
		Target: target,
		Time:   time.Now().Format(time.RFC3339),
		Kind:   kind,
	}
	if err := engine.Prepend(r.store, engine.ColAudit, engine.OriginLocal, entry); err != nil {
		r.log.Error().Err(err).Str("action", action).Msg("failed to record audit entry")
	}
}
