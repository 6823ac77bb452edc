package schema

// AuditEntry is one immutable line of the audit trail. Entries are prepended
// (newest first) and never updated or removed.
type AuditEntry struct {
	ID     string `json:"id"`
	Action string `json:"action"`
	Actor  string `json:"user"`
	Target string `json:"target"`
	Time   string `json:"time"`
	Kind   string `json:"type"`
}

// Audit entry kinds.
const (
	AuditCreate = "CREATE"
	AuditUpdate = "UPDATE"
	AuditDelete = "DELETE"
	AuditLogin  = "LOGIN"
)
