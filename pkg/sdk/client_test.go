package sdk

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartwarga-dev/warga-store/internal/engine"
	"github.com/smartwarga-dev/warga-store/pkg/schema"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	return newTestClientAt(t, t.TempDir())
}

func newTestClientAt(t *testing.T, dir string) *Client {
	t.Helper()
	c, err := New(context.Background(), Options{DataDir: dir, Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func testResident(nik, name string) schema.Resident {
	return schema.Resident{NIK: nik, Name: name, Gender: "Perempuan"}
}

func TestNew_SeedsDefaults(t *testing.T) {
	c := newTestClient(t)

	cfg, err := c.Config()
	require.NoError(t, err)
	assert.Equal(t, "SmartWarga RT 05", cfg.AppName)

	admins, err := c.Admins()
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, schema.RoleSuperAdmin, admins[0].Role)

	dash, err := c.Dashboard()
	require.NoError(t, err)
	assert.Len(t, dash.PatrolItems, 5)

	residents, err := c.Residents()
	require.NoError(t, err)
	assert.Empty(t, residents)

	assert.False(t, c.Synced())
}

func TestLogin(t *testing.T) {
	c := newTestClient(t)

	_, err := c.Login("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidLogin)
	assert.Nil(t, c.CurrentUser())

	user, err := c.Login("admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "Pak RT Budiman", user.Name)
	require.NotNil(t, c.CurrentUser())

	c.Logout()
	assert.Nil(t, c.CurrentUser())
}

func TestLogin_RememberedAcrossSessions(t *testing.T) {
	dir := t.TempDir()

	first := newTestClientAt(t, dir)
	_, err := first.Login("admin", "admin123")
	require.NoError(t, err)

	second := newTestClientAt(t, dir)
	require.NotNil(t, second.CurrentUser())
	assert.Equal(t, "admin", second.CurrentUser().Username)
}

func TestSaveResident_ValidatesNIK(t *testing.T) {
	c := newTestClient(t)

	err := c.SaveResident(testResident("123", "Siti"))
	assert.ErrorIs(t, err, ErrInvalidNIK)

	// Nothing was applied: no resident, no audit entry.
	residents, err := c.Residents()
	require.NoError(t, err)
	assert.Empty(t, residents)

	entries, err := c.AuditLog()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveResident_UpsertAndDelete(t *testing.T) {
	c := newTestClient(t)

	require.NoError(t, c.SaveResident(testResident("3201010101010001", "Siti")))
	require.NoError(t, c.SaveResident(testResident("3201010101010002", "Budi")))

	// Same NIK replaces in place; the list does not grow.
	require.NoError(t, c.SaveResident(testResident("3201010101010001", "Siti Aminah")))

	residents, err := c.Residents()
	require.NoError(t, err)
	require.Len(t, residents, 2)
	assert.Equal(t, "Budi", residents[0].Name)
	assert.Equal(t, "Siti Aminah", residents[1].Name)

	require.NoError(t, c.DeleteResident("3201010101010002"))
	residents, err = c.Residents()
	require.NoError(t, err)
	require.Len(t, residents, 1)

	// Deleting a NIK that is not there changes nothing.
	require.NoError(t, c.DeleteResident("9999999999999999"))
	residents, err = c.Residents()
	require.NoError(t, err)
	assert.Len(t, residents, 1)

	entries, err := c.AuditLog()
	require.NoError(t, err)
	// create, create, update, delete - the no-op delete records nothing.
	require.Len(t, entries, 4)
	assert.Equal(t, "Hapus Data Warga", entries[0].Action)
	assert.Equal(t, schema.PublicActor, entries[0].Actor)
}

func TestAudit_NamesLoggedInActor(t *testing.T) {
	c := newTestClient(t)

	_, err := c.Login("admin", "admin123")
	require.NoError(t, err)
	require.NoError(t, c.SaveResident(testResident("3201010101010001", "Siti")))

	entries, err := c.AuditLog()
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "Pendaftaran Warga Baru", entries[0].Action)
	assert.Equal(t, "Pak RT Budiman", entries[0].Actor)
}

func TestRequestLifecycle(t *testing.T) {
	c := newTestClient(t)

	_, err := c.SubmitRequest(schema.ServiceRequest{NIK: "bad"})
	assert.ErrorIs(t, err, ErrInvalidNIK)

	req, err := c.SubmitRequest(schema.ServiceRequest{
		NIK:          "3201010101010001",
		ResidentName: "Siti",
		Type:         schema.LetterDomisili,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, schema.StatusPending, req.Status)
	assert.NotEmpty(t, req.CreatedAt)

	require.NoError(t, c.UpdateRequestStatus(req.ID, schema.StatusApproved))
	requests, err := c.Requests()
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, schema.StatusApproved, requests[0].Status)

	err = c.UpdateRequestStatus("missing-id", schema.StatusRejected)
	assert.ErrorIs(t, err, engine.ErrKeyNotFound)
}

func TestAdminManagement(t *testing.T) {
	c := newTestClient(t)

	require.NoError(t, c.SaveAdmin(schema.AdminUser{
		Username: "staf1",
		Password: "rahasia",
		Name:     "Bu Staf",
		Role:     schema.RoleStaff,
	}))

	admins, err := c.Admins()
	require.NoError(t, err)
	require.Len(t, admins, 2)
	assert.NotEmpty(t, admins[0].ID)

	_, err = c.Login("staf1", "rahasia")
	require.NoError(t, err)

	require.NoError(t, c.DeleteAdmin(admins[0].ID))
	admins, err = c.Admins()
	require.NoError(t, err)
	assert.Len(t, admins, 1)
}

func TestSetSheetsToken(t *testing.T) {
	c := newTestClient(t)

	err := c.SetSheetsToken(`{"access_token":"tok"}`)
	assert.ErrorIs(t, err, ErrNoVaultKey)

	withKey, err := New(context.Background(), Options{
		DataDir:  t.TempDir(),
		VaultKey: make([]byte, 32),
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	defer withKey.Close()

	require.NoError(t, withKey.SetSheetsToken(`{"access_token":"tok"}`))
	cfg, err := withKey.Config()
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.SheetsToken)
	assert.NotContains(t, cfg.SheetsToken, "tok")
}

func TestSpreadsheetIDFromURL(t *testing.T) {
	assert.Equal(t, "abc123", spreadsheetIDFromURL("https://docs.google.com/spreadsheets/d/abc123/edit#gid=0"))
	assert.Equal(t, "abc123", spreadsheetIDFromURL("https://docs.google.com/spreadsheets/d/abc123"))
	assert.Equal(t, "", spreadsheetIDFromURL("https://example.com/not-a-sheet"))
}
