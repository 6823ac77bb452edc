package engine

import (
	"encoding/json"
	"strings"
)

// Legacy-shape markers. Each marker maps to exactly one transform, applied
// at most once; a transformed value no longer carries the marker, so the
// whole chain is idempotent.
const (
	// legacyWeeklyTitle marks the old single-entry patrol schedule.
	legacyWeeklyTitle = "Jadwal Mingguan"
	// legacyAppLabel is the retired branding still embedded in content
	// written by older builds.
	legacyAppLabel  = "SmartRT"
	currentAppLabel = "SmartWarga"
)

// migration is one (predicate, transform) pair for a document collection.
type migration struct {
	applies func(doc map[string]any) bool
	apply   func(doc map[string]any) map[string]any
}

// documentMigrations holds the ordered upgrade chain per collection, oldest
// shape first. The chain is walked once per load, front to back.
var documentMigrations = map[string][]migration{
	ColDashboard: {
		{applies: hasFlatGovInfo, apply: liftFlatGovInfo},
		{applies: hasWeeklyPatrolEntry, apply: expandWeeklyPatrol},
		{applies: hasStaleLabel("dashboardTitle", "dashboardSubtitle"), apply: rewriteStaleLabel("dashboardTitle", "dashboardSubtitle")},
	},
	ColConfig: {
		{applies: hasStaleLabel("appName"), apply: rewriteStaleLabel("appName")},
	},
}

// Migrate upgrades a raw persisted value to the collection's current shape.
// Absent or malformed input yields the collection default; current-shape
// input passes through unchanged. Migrate never fails.
func Migrate(name string, raw json.RawMessage) json.RawMessage {
	cs, ok := Spec(name)
	if !ok {
		return raw
	}
	if len(raw) == 0 {
		return DefaultValue(name)
	}

	switch cs.Shape {
	case ShapeList:
		var list []any
		if err := json.Unmarshal(raw, &list); err != nil {
			return DefaultValue(name)
		}
		return raw

	default: // ShapeDocument
		if string(raw) == "null" {
			return DefaultValue(name)
		}
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return DefaultValue(name)
		}

		changed := false
		for _, m := range documentMigrations[name] {
			if m.applies(doc) {
				doc = m.apply(doc)
				changed = true
			}
		}
		if !changed {
			return raw
		}
		out, err := json.Marshal(doc)
		if err != nil {
			return DefaultValue(name)
		}
		return out
	}
}

// --- dashboard: flat govInfo field -> itemized dashboard ---

func hasFlatGovInfo(doc map[string]any) bool {
	_, flat := doc["govInfo"].(string)
	_, itemized := doc["govItems"]
	return flat && !itemized
}

func liftFlatGovInfo(doc map[string]any) map[string]any {
	out := toDoc(defaultDashboard())

	if title, ok := doc["dashboardTitle"].(string); ok && title != "" {
		out["dashboardTitle"] = title
	}
	if sub, ok := doc["dashboardSubtitle"].(string); ok && sub != "" {
		out["dashboardSubtitle"] = sub
	}

	gov := map[string]any{
		"id":      "1",
		"title":   "Info Pemerintah",
		"content": doc["govInfo"],
	}
	if url, ok := doc["govUrl"].(string); ok && url != "" {
		gov["url"] = url
	}
	out["govItems"] = []any{gov}
	return out
}

// --- dashboard: single weekly patrol entry -> five day-keyed entries ---

func hasWeeklyPatrolEntry(doc map[string]any) bool {
	items, ok := doc["patrolItems"].([]any)
	if !ok || len(items) != 1 {
		return false
	}
	entry, ok := items[0].(map[string]any)
	if !ok {
		return false
	}
	title, _ := entry["title"].(string)
	return title == legacyWeeklyTitle
}

func expandWeeklyPatrol(doc map[string]any) map[string]any {
	items := weeklyPatrolItems()
	anyItems := make([]any, len(items))
	for i, item := range items {
		anyItems[i] = toDoc(item)
	}
	doc["patrolItems"] = anyItems
	return doc
}

// --- content migration: stale branding in text fields ---
//
// Applies to current-shape values too, and only rewrites the label
// substring. Idempotent because the replacement no longer matches.

func hasStaleLabel(fields ...string) func(doc map[string]any) bool {
	return func(doc map[string]any) bool {
		for _, f := range fields {
			if s, ok := doc[f].(string); ok && strings.Contains(s, legacyAppLabel) {
				return true
			}
		}
		return false
	}
}

func rewriteStaleLabel(fields ...string) func(doc map[string]any) map[string]any {
	return func(doc map[string]any) map[string]any {
		for _, f := range fields {
			if s, ok := doc[f].(string); ok {
				doc[f] = strings.ReplaceAll(s, legacyAppLabel, currentAppLabel)
			}
		}
		return doc
	}
}

// toDoc round-trips a typed value into the generic map form the migration
// chain operates on.
func toDoc(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		panic(err)
	}
	return doc
}
