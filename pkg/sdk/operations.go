package sdk

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smartwarga-dev/warga-store/internal/engine"
	"github.com/smartwarga-dev/warga-store/internal/vault"
	"github.com/smartwarga-dev/warga-store/pkg/schema"
)

var nikPattern = regexp.MustCompile(`^[0-9]{16}$`)

// --- residents ---

// Residents returns the resident list, newest first.
func (c *Client) Residents() ([]schema.Resident, error) {
	return engine.Value[[]schema.Resident](c.store, engine.ColResidents)
}

// SaveResident creates or updates a resident. The NIK is the natural key: a
// colliding NIK replaces that record in place, a new NIK is prepended.
// Validation happens before any state is touched.
func (c *Client) SaveResident(res schema.Resident) error {
	if !nikPattern.MatchString(res.NIK) {
		return ErrInvalidNIK
	}

	replaced, err := engine.UpsertByKey(c.store, engine.ColResidents, engine.OriginLocal, residentKey, res)
	if err != nil {
		return err
	}

	if replaced {
		c.audit.Record("Update Data Warga", "NIK: "+res.NIK, schema.AuditUpdate)
	} else {
		c.audit.Record("Pendaftaran Warga Baru", "Nama: "+res.Name, schema.AuditCreate)
	}
	c.exportResidents()
	return nil
}

// DeleteResident removes the resident with the given NIK. Deleting an
// unknown NIK is a no-op.
func (c *Client) DeleteResident(nik string) error {
	removed, err := engine.RemoveByKey(c.store, engine.ColResidents, engine.OriginLocal, residentKey, nik)
	if err != nil || !removed {
		return err
	}
	c.audit.Record("Hapus Data Warga", "NIK: "+nik, schema.AuditDelete)
	c.exportResidents()
	return nil
}

func residentKey(r schema.Resident) string { return r.NIK }

// --- letter requests ---

// Requests returns the letter requests, newest first.
func (c *Client) Requests() ([]schema.ServiceRequest, error) {
	return engine.Value[[]schema.ServiceRequest](c.store, engine.ColRequests)
}

// SubmitRequest files a new letter request. Anyone may submit, including
// the anonymous public identity.
func (c *Client) SubmitRequest(req schema.ServiceRequest) (schema.ServiceRequest, error) {
	if !nikPattern.MatchString(req.NIK) {
		return schema.ServiceRequest{}, ErrInvalidNIK
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = schema.StatusPending
	}
	if req.CreatedAt == "" {
		req.CreatedAt = time.Now().Format(time.RFC3339)
	}

	if err := engine.Prepend(c.store, engine.ColRequests, engine.OriginLocal, req); err != nil {
		return schema.ServiceRequest{}, err
	}
	c.audit.Record("Pengajuan Surat", fmt.Sprintf("%s - %s", req.Type, req.ResidentName), schema.AuditCreate)
	return req, nil
}

// UpdateRequestStatus moves a request to a new verification status. The
// request keeps its position in the list.
func (c *Client) UpdateRequestStatus(id string, status schema.RequestStatus) error {
	requests, err := c.Requests()
	if err != nil {
		return err
	}

	found := false
	for i := range requests {
		if requests[i].ID == id {
			requests[i].Status = status
			found = true
			break
		}
	}
	if !found {
		return engine.ErrKeyNotFound
	}

	if err := engine.SetValue(c.store, engine.ColRequests, requests, engine.OriginLocal); err != nil {
		return err
	}
	c.audit.Record("Verifikasi Surat", fmt.Sprintf("ID: %s -> %s", id, status), schema.AuditUpdate)
	return nil
}

// --- admin accounts ---

// Admins returns the admin accounts.
func (c *Client) Admins() ([]schema.AdminUser, error) {
	return engine.Value[[]schema.AdminUser](c.store, engine.ColAdmins)
}

// SaveAdmin creates or updates an admin account by id.
func (c *Client) SaveAdmin(admin schema.AdminUser) error {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	replaced, err := engine.UpsertByKey(c.store, engine.ColAdmins, engine.OriginLocal, adminKey, admin)
	if err != nil {
		return err
	}

	if replaced {
		c.audit.Record("Update Akun Admin", "Username: "+admin.Username, schema.AuditUpdate)
	} else {
		c.audit.Record("Tambah Akun Admin", "Username: "+admin.Username, schema.AuditCreate)
	}
	return nil
}

// DeleteAdmin removes an admin account by id.
func (c *Client) DeleteAdmin(id string) error {
	removed, err := engine.RemoveByKey(c.store, engine.ColAdmins, engine.OriginLocal, adminKey, id)
	if err != nil || !removed {
		return err
	}
	c.audit.Record("Hapus Akun Admin", "ID: "+id, schema.AuditDelete)
	return nil
}

func adminKey(a schema.AdminUser) string { return a.ID }

// --- login ---

// Login checks the credentials against the admin collection. The match is a
// plain string comparison; this is an access convenience, not security.
// A successful login is remembered locally for the next session.
func (c *Client) Login(username, password string) (*schema.AdminUser, error) {
	admins, err := c.Admins()
	if err != nil {
		return nil, err
	}

	for _, admin := range admins {
		if admin.Username == username && admin.Password == password {
			c.mu.Lock()
			c.user = &admin
			c.mu.Unlock()

			if err := engine.SetValue(c.store, engine.ColSession, &admin, engine.OriginLocal); err != nil {
				c.log.Warn().Err(err).Msg("could not remember login")
			}
			c.audit.Record("Login Admin", "Username: "+username, schema.AuditLogin)
			return &admin, nil
		}
	}
	return nil, ErrInvalidLogin
}

// Logout clears the current identity and the remembered login.
func (c *Client) Logout() {
	c.mu.Lock()
	c.user = nil
	c.mu.Unlock()
	if err := c.store.Set(engine.ColSession, json.RawMessage(`null`), engine.OriginLocal); err != nil {
		c.log.Warn().Err(err).Msg("could not clear remembered login")
	}
}

// --- configuration and dashboard ---

// Config returns the site configuration document.
func (c *Client) Config() (schema.RTConfig, error) {
	return engine.Value[schema.RTConfig](c.store, engine.ColConfig)
}

// SaveConfig replaces the site configuration wholesale.
func (c *Client) SaveConfig(cfg schema.RTConfig) error {
	if err := engine.SetValue(c.store, engine.ColConfig, cfg, engine.OriginLocal); err != nil {
		return err
	}
	c.audit.Record("Update Konfigurasi RT", cfg.AppName, schema.AuditUpdate)
	return nil
}

// Dashboard returns the dashboard content document.
func (c *Client) Dashboard() (schema.DashboardInfo, error) {
	return engine.Value[schema.DashboardInfo](c.store, engine.ColDashboard)
}

// SaveDashboard replaces the dashboard content wholesale.
func (c *Client) SaveDashboard(info schema.DashboardInfo) error {
	if err := engine.SetValue(c.store, engine.ColDashboard, info, engine.OriginLocal); err != nil {
		return err
	}
	c.audit.Record("Update Konten Dashboard", info.DashboardTitle, schema.AuditUpdate)
	return nil
}

// AuditLog returns the audit trail, newest first.
func (c *Client) AuditLog() ([]schema.AuditEntry, error) {
	return engine.Value[[]schema.AuditEntry](c.store, engine.ColAudit)
}

// --- spreadsheet export ---

// SetSheetsToken encrypts and stores the spreadsheet OAuth credential blob
// inside the site configuration. Requires a vault key.
func (c *Client) SetSheetsToken(tokensJSON string) error {
	if len(c.vaultKey) == 0 {
		return ErrNoVaultKey
	}
	encrypted, err := vault.Encrypt(tokensJSON, c.vaultKey)
	if err != nil {
		return err
	}

	cfg, err := c.Config()
	if err != nil {
		return err
	}
	cfg.SheetsToken = encrypted
	if err := engine.SetValue(c.store, engine.ColConfig, cfg, engine.OriginLocal); err != nil {
		return err
	}
	c.audit.Record("Simpan Kredensial Spreadsheet", "Google Sheets", schema.AuditUpdate)
	return nil
}

// exportResidents pushes the current resident list to the configured
// spreadsheet as a detached background action. Any failure is logged and
// swallowed; resident saves never depend on it.
func (c *Client) exportResidents() {
	if c.exporter == nil || len(c.vaultKey) == 0 {
		return
	}
	cfg, err := c.Config()
	if err != nil || cfg.SheetsToken == "" {
		return
	}

	tokens, err := vault.Decrypt(cfg.SheetsToken, c.vaultKey)
	if err != nil {
		c.log.Warn().Err(err).Msg("stored sheets credential is unreadable, skipping export")
		return
	}
	residents, err := c.Residents()
	if err != nil {
		return
	}

	c.exporter.ExportAsync(residents, cfg.RTName, spreadsheetIDFromURL(cfg.GoogleSheetURL), json.RawMessage(tokens))
}

// spreadsheetIDFromURL extracts the document id from a Sheets URL like
// https://docs.google.com/spreadsheets/d/<id>/edit.
func spreadsheetIDFromURL(sheetURL string) string {
	_, after, found := strings.Cut(sheetURL, "/d/")
	if !found {
		return ""
	}
	id, _, _ := strings.Cut(after, "/")
	return id
}
