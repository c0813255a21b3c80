package messagequeue

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects pass validation.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}
	switch subject {
	case SubjectTenantCreated, SubjectTenantUpdated, SubjectTenantDeleted, SubjectRootEstablished:
		var p TenantEventPayload
		if err := decodeStrict(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		return requireUUID(subject, "tenant_id", p.TenantID)
	case SubjectAssignmentGranted, SubjectAssignmentRevoked, SubjectAssignmentUpdated:
		var p AssignmentEventPayload
		if err := decodeStrict(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		switch p.Kind {
		case KindUser, KindRole, KindGroup:
		default:
			return fmt.Errorf("schema validation failed for %s: unknown kind %q", subject, p.Kind)
		}
		if err := requireUUID(subject, "tenant_id", p.TenantID); err != nil {
			return err
		}
		return requireUUID(subject, "principal_id", p.PrincipalID)
	default:
		return nil
	}
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func requireUUID(subject, field, value string) error {
	if _, err := uuid.Parse(value); err != nil {
		return fmt.Errorf("schema validation failed for %s: %s: %w", subject, field, err)
	}
	return nil
}
