// Package sdk is the application client for warga-store. It owns the local
// state collections and, when a relay daemon is reachable, keeps them in
// sync with every other connected client. Without a daemon the client runs
// in single-instance mode on the local store alone.
package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/smartwarga-dev/warga-store/internal/audit"
	"github.com/smartwarga-dev/warga-store/internal/engine"
	"github.com/smartwarga-dev/warga-store/internal/relay"
	"github.com/smartwarga-dev/warga-store/internal/sheets"
	"github.com/smartwarga-dev/warga-store/pkg/schema"
)

var (
	// ErrInvalidNIK is returned when a resident's NIK is not 16 digits.
	ErrInvalidNIK = errors.New("NIK must be 16 digits")
	// ErrInvalidLogin is returned when the credentials match no admin.
	ErrInvalidLogin = errors.New("invalid username or password")
	// ErrNoVaultKey is returned when credential storage is attempted
	// without a configured vault key.
	ErrNoVaultKey = errors.New("no vault key configured")
)

// Options configures a client.
type Options struct {
	// DataDir is where the local store keeps one JSON file per collection.
	DataDir string
	// RelayAddr is the daemon's http(s) address. Empty means: consult
	// WARGA_RELAY_ADDR, and failing that run local-only.
	RelayAddr string
	// VaultKey is the 32-byte key protecting stored credentials. Optional;
	// without it the spreadsheet export stays disabled.
	VaultKey []byte
	Logger   zerolog.Logger
}

// Client is one connected instance of the application.
type Client struct {
	store    *engine.Store
	relay    *relay.Relay
	audit    *audit.Recorder
	exporter *sheets.Exporter
	vaultKey []byte
	log      zerolog.Logger

	mu   sync.RWMutex
	user *schema.AdminUser
}

// New loads every collection from the local store through the migrator,
// then tries the relay: fetch the full-state snapshot, apply it as remote
// updates, and subscribe for the deltas. A missing or unreachable relay is
// not an error - the client degrades to the local store.
func New(ctx context.Context, opts Options) (*Client, error) {
	p, err := engine.NewPersistence(opts.DataDir, opts.Logger)
	if err != nil {
		return nil, err
	}
	store := engine.NewStore(p, opts.Logger)

	c := &Client{
		store:    store,
		vaultKey: opts.VaultKey,
		log:      opts.Logger,
	}
	c.audit = audit.NewRecorder(store, c.actorName, opts.Logger)

	addr := opts.RelayAddr
	if addr == "" {
		addr = os.Getenv("WARGA_RELAY_ADDR")
	}
	if addr != "" {
		c.connectRelay(ctx, addr)
	}

	// Remembered login from the last session, if any.
	if user, err := engine.Value[*schema.AdminUser](store, engine.ColSession); err == nil && user != nil {
		c.user = user
	}

	return c, nil
}

func (c *Client) connectRelay(ctx context.Context, addr string) {
	r, err := relay.Dial(ctx, addr, c.log)
	if err != nil {
		c.log.Warn().Err(err).Str("addr", addr).Msg("relay unreachable, running local-only")
		return
	}

	snapshot, err := r.Snapshot(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("full-state fetch failed, starting from local state")
	}
	for name, value := range snapshot {
		cs, ok := engine.Spec(name)
		if !ok || !cs.Sync {
			continue
		}
		// Snapshot values go through the migrator too: another client may
		// still be publishing a legacy shape.
		c.store.Set(name, engine.Migrate(name, value), engine.OriginRemote)
	}

	r.OnRemoteUpdate(func(name string, value json.RawMessage) {
		c.store.Set(name, value, engine.OriginRemote)
	})
	c.store.SetPublisher(func(name string, value json.RawMessage) {
		if err := r.Publish(name, value); err != nil {
			c.log.Warn().Err(err).Str("collection", name).Msg("publish failed")
		}
	})

	c.relay = r
	c.exporter = &sheets.Exporter{
		Endpoint: r.BaseURL() + "/api/google/sync-sheets",
		Log:      c.log,
	}
}

// Synced reports whether this client is connected to a relay.
func (c *Client) Synced() bool {
	return c.relay != nil
}

// Close shuts down the relay connection, if any.
func (c *Client) Close() error {
	return c.relay.Close()
}

func (c *Client) actorName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user != nil {
		return c.user.Name
	}
	return schema.PublicActor
}

// CurrentUser returns the logged-in admin, or nil.
func (c *Client) CurrentUser() *schema.AdminUser {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}
