package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smartwarga-dev/warga-store/pkg/schema"
)

// External endpoints, overridable in tests.
var (
	sheetsBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"
	githubBaseURL = "https://api.github.com"
)

var sheetHeaders = []string{
	"NIK", "No KK", "Nama Lengkap", "Tempat Lahir", "Tanggal Lahir",
	"Jenis Kelamin", "Agama", "Pekerjaan", "Golongan Darah",
	"Status Perkawinan", "Provinsi", "Kabupaten/Kota", "Kecamatan", "Kelurahan", "Alamat Lengkap",
}

type syncSheetsInput struct {
	Tokens struct {
		AccessToken string `json:"access_token"`
	} `json:"tokens"`
	Residents     []schema.Resident `json:"residents"`
	RTName        string            `json:"rtName"`
	SpreadsheetID string            `json:"spreadsheetId"`
}

// SyncSheets overwrites Sheet1 of the target spreadsheet with the full
// resident list, creating the spreadsheet first when no id is given. The
// caller supplies previously obtained OAuth tokens; the daemon keeps none.
func (h *Handler) SyncSheets(c *gin.Context) {
	var input syncSheetsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Tokens.AccessToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no tokens provided"})
		return
	}

	spreadsheetID := input.SpreadsheetID
	if spreadsheetID == "" {
		id, err := h.createSpreadsheet(input.Tokens.AccessToken, input.RTName)
		if err != nil {
			h.Log.Error().Err(err).Msg("spreadsheet creation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		spreadsheetID = id
	}

	values := make([][]any, 0, len(input.Residents)+1)
	header := make([]any, len(sheetHeaders))
	for i, col := range sheetHeaders {
		header[i] = col
	}
	values = append(values, header)
	for _, r := range input.Residents {
		address := r.Address
		if address == "" {
			address = "-"
		}
		values = append(values, []any{
			r.NIK, r.NoKK, r.Name, r.POB, r.DOB,
			r.Gender, r.Religion, r.Occupation, r.BloodType,
			string(r.MaritalStatus), r.Province, r.Regency, r.District, r.Village, address,
		})
	}

	if err := h.writeValues(input.Tokens.AccessToken, spreadsheetID, values); err != nil {
		h.Log.Error().Err(err).Str("spreadsheet", spreadsheetID).Msg("sheet update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	sheetURL, err := h.spreadsheetURL(input.Tokens.AccessToken, spreadsheetID)
	if err != nil {
		h.Log.Warn().Err(err).Msg("could not resolve spreadsheet url")
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"spreadsheetId":  spreadsheetID,
		"spreadsheetUrl": sheetURL,
	})
}

func (h *Handler) createSpreadsheet(token, rtName string) (string, error) {
	if rtName == "" {
		rtName = "SmartWarga"
	}
	title := fmt.Sprintf("Database Warga - %s - %s", rtName, time.Now().Format("02/01/2006"))
	body := map[string]any{"properties": map[string]any{"title": title}}

	var out struct {
		SpreadsheetID string `json:"spreadsheetId"`
	}
	if err := h.googleCall(http.MethodPost, sheetsBaseURL, token, body, &out); err != nil {
		return "", err
	}
	return out.SpreadsheetID, nil
}

func (h *Handler) writeValues(token, spreadsheetID string, values [][]any) error {
	endpoint := fmt.Sprintf("%s/%s/values/%s?valueInputOption=RAW",
		sheetsBaseURL, spreadsheetID, url.PathEscape("Sheet1!A1"))
	return h.googleCall(http.MethodPut, endpoint, token, map[string]any{"values": values}, nil)
}

func (h *Handler) spreadsheetURL(token, spreadsheetID string) (string, error) {
	var out struct {
		SpreadsheetURL string `json:"spreadsheetUrl"`
	}
	endpoint := fmt.Sprintf("%s/%s?fields=spreadsheetUrl", sheetsBaseURL, spreadsheetID)
	if err := h.googleCall(http.MethodGet, endpoint, token, nil, &out); err != nil {
		return "", err
	}
	return out.SpreadsheetURL, nil
}

func (h *Handler) googleCall(method, endpoint, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	res, err := h.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("sheets api: status %d: %s", res.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// GithubRepos proxies a read-only listing of the caller's repositories.
// Display-only; nothing here touches the state model.
func (h *Handler) GithubRepos(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || parts[1] == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no token"})
		return
	}

	req, err := http.NewRequest(http.MethodGet, githubBaseURL+"/user/repos?sort=updated&per_page=10", nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	req.Header.Set("Authorization", "token "+parts[1])
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	res, err := h.httpClient().Do(req)
	if err != nil {
		h.Log.Warn().Err(err).Msg("github repo listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch repos"})
		return
	}
	defer res.Body.Close()

	c.DataFromReader(res.StatusCode, res.ContentLength, "application/json", res.Body, nil)
}

func (h *Handler) httpClient() *http.Client {
	if h.HTTP != nil {
		return h.HTTP
	}
	return &http.Client{Timeout: 20 * time.Second}
}
