package engine

import (
	"encoding/json"
	"fmt"

	"github.com/smartwarga-dev/warga-store/pkg/schema"
)

// First-run seeds. A fresh installation gets a usable site: one super admin,
// the standard RT 05 branding, and illustrative dashboard content.

func defaultAdmins() []schema.AdminUser {
	return []schema.AdminUser{{
		ID:       "1",
		Username: "admin",
		Password: "admin123",
		Name:     "Pak RT Budiman",
		Role:     schema.RoleSuperAdmin,
	}}
}

func defaultConfig() schema.RTConfig {
	return schema.RTConfig{
		RTName:     "Pak RT Budiman",
		RTWhatsapp: "628123456789",
		RTEmail:    "rt05@smartwarga.id",
		AppName:    "SmartWarga RT 05",
		AppLogo:    "https://upload.wikimedia.org/wikipedia/commons/b/bc/Logo_RT_RW.png",
	}
}

// weeklyPatrolItems is the per-day patrol roster, one entry per weekday.
func weeklyPatrolItems() []schema.DashboardItem {
	days := []string{"Senin", "Selasa", "Rabu", "Kamis", "Jumat"}
	items := make([]schema.DashboardItem, len(days))
	for i, day := range days {
		items[i] = schema.DashboardItem{
			ID:      fmt.Sprintf("p%d", i+1),
			Title:   "Ronda Malam - " + day,
			Content: fmt.Sprintf("Regu %d menjaga keamanan lingkungan RT 05.", i+1),
			Date:    "Setiap " + day + ", 22.00 - 04.00",
		}
	}
	return items
}

func defaultDashboard() schema.DashboardInfo {
	return schema.DashboardInfo{
		DashboardTitle:    "SmartWarga RT 05",
		DashboardSubtitle: "Sistem Digital Layanan RT 05 / RW 02",
		GovItems: []schema.DashboardItem{{
			ID:      "g1",
			Title:   "Info Pemerintah",
			Content: "Jadwal vaksinasi dan penyaluran bantuan sosial terbaru dari kelurahan.",
			URL:     "https://www.kemendagri.go.id",
		}},
		ActivityItems: []schema.DashboardItem{{
			ID:      "a1",
			Title:   "Kerja Bakti",
			Content: "Kerja bakti membersihkan selokan setiap akhir bulan.",
			Date:    "Minggu, 07.00",
		}},
		PatrolItems: weeklyPatrolItems(),
	}
}

// DefaultValue returns the documented first-run value for a collection. It
// is also the fallback for malformed persisted data.
func DefaultValue(name string) json.RawMessage {
	switch name {
	case ColResidents, ColRequests, ColAudit:
		return json.RawMessage(`[]`)
	case ColAdmins:
		return mustMarshal(defaultAdmins())
	case ColConfig:
		return mustMarshal(defaultConfig())
	case ColDashboard:
		return mustMarshal(defaultDashboard())
	default:
		return json.RawMessage(`null`)
	}
}

func mustMarshal(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
