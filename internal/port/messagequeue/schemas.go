package messagequeue

// TenantEventPayload is the schema for tenants.* messages.
type TenantEventPayload struct {
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	IsRoot   bool   `json:"is_root"`
	Active   bool   `json:"active"`
	Deleted  bool   `json:"deleted"`
	ActorID  string `json:"actor_id"`
}

// Assignment kinds carried in AssignmentEventPayload.Kind.
const (
	KindUser  = "user"
	KindRole  = "role"
	KindGroup = "group"
)

// AssignmentEventPayload is the schema for assignments.* messages.
// AssignmentID is empty for user assignments, which have no identity of
// their own.
type AssignmentEventPayload struct {
	TenantID     string `json:"tenant_id"`
	Kind         string `json:"kind"`
	PrincipalID  string `json:"principal_id"`
	AssignmentID string `json:"assignment_id,omitempty"`
	Active       bool   `json:"active"`
	Deleted      bool   `json:"deleted"`
	ActorID      string `json:"actor_id"`
}
