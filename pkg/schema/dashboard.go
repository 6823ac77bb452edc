package schema

// RTConfig is the site configuration document, replaced wholesale on save.
type RTConfig struct {
	RTName         string `json:"rtName"`
	RTWhatsapp     string `json:"rtWhatsapp"`
	RTEmail        string `json:"rtEmail"`
	AppName        string `json:"appName"`
	AppLogo        string `json:"appLogo"`
	GoogleSheetURL string `json:"googleSheetUrl,omitempty"`
	// SheetsToken holds the spreadsheet OAuth credential, AES-GCM encrypted
	// by the vault before it ever reaches the store.
	SheetsToken string `json:"sheetsToken,omitempty"`
}

// DashboardItem is one card on the public dashboard.
type DashboardItem struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url,omitempty"`
	Date    string `json:"date,omitempty"`
}

// DashboardInfo is the dashboard content document.
type DashboardInfo struct {
	DashboardTitle    string          `json:"dashboardTitle"`
	DashboardSubtitle string          `json:"dashboardSubtitle"`
	GovItems          []DashboardItem `json:"govItems"`
	ActivityItems     []DashboardItem `json:"activityItems"`
	PatrolItems       []DashboardItem `json:"patrolItems"`
}
