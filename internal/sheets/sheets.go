// Package sheets pushes the resident list to an external spreadsheet via
// the daemon's sync-sheets endpoint. The export is one-way and best effort:
// it runs after every resident mutation and its failures are logged, never
// surfaced.
package sheets

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartwarga-dev/warga-store/pkg/schema"
)

// Exporter posts resident snapshots to one sync-sheets endpoint.
type Exporter struct {
	Endpoint string
	Client   *http.Client
	Log      zerolog.Logger
}

type exportPayload struct {
	Tokens        json.RawMessage   `json:"tokens"`
	Residents     []schema.Resident `json:"residents"`
	RTName        string            `json:"rtName"`
	SpreadsheetID string            `json:"spreadsheetId,omitempty"`
}

// Export ships the full resident list. tokens is the decrypted OAuth
// credential blob; spreadsheetID may be empty, in which case the daemon
// creates a new spreadsheet.
func (e *Exporter) Export(residents []schema.Resident, rtName, spreadsheetID string, tokens json.RawMessage) error {
	payload, err := json.Marshal(exportPayload{
		Tokens:        tokens,
		Residents:     residents,
		RTName:        rtName,
		SpreadsheetID: spreadsheetID,
	})
	if err != nil {
		return err
	}

	res, err := e.client().Post(e.Endpoint, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("sync-sheets: status %d: %s", res.StatusCode, msg)
	}
	return nil
}

// ExportAsync runs Export on its own goroutine and only logs the outcome.
// Resident saves never wait on the spreadsheet.
func (e *Exporter) ExportAsync(residents []schema.Resident, rtName, spreadsheetID string, tokens json.RawMessage) {
	go func() {
		if err := e.Export(residents, rtName, spreadsheetID, tokens); err != nil {
			e.Log.Warn().Err(err).Msg("spreadsheet export failed")
			return
		}
		e.Log.Debug().Int("residents", len(residents)).Msg("spreadsheet export done")
	}()
}

func (e *Exporter) client() *http.Client {
	if e.Client != nil {
		return e.Client
	}
	return &http.Client{Timeout: 30 * time.Second}
}
