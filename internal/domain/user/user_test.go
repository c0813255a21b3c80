package user

import (
	"testing"

	"github.com/google/uuid"
)

func TestCreateRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateRequest
		wantErr string
	}{
		{name: "valid", req: CreateRequest{Name: "A", Email: "a@b.com"}},
		{name: "missing name", req: CreateRequest{Email: "a@b.com"}, wantErr: "name is required"},
		{name: "blank name", req: CreateRequest{Name: "   ", Email: "a@b.com"}, wantErr: "name is required"},
		{name: "missing email", req: CreateRequest{Name: "A"}, wantErr: "email is required"},
		{name: "invalid email", req: CreateRequest{Name: "A", Email: "bad"}, wantErr: "invalid email format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if got := err.Error(); got != tt.wantErr {
				t.Fatalf("error = %q, want %q", got, tt.wantErr)
			}
		})
	}
}

func TestUserEqual(t *testing.T) {
	id := uuid.New()
	a := &User{ID: id, Name: "Alice", Email: "alice@example.com", Enabled: true}
	b := &User{ID: id, Name: "ALICE", Email: "Alice@Example.com", Enabled: true}

	if !a.Equal(b) || !b.Equal(a) {
		t.Fatal("users differing only in case should be equal")
	}

	var nilA, nilB *User
	if !nilA.Equal(nilB) {
		t.Fatal("two nil users should be equal")
	}
	if a.Equal(nil) || nilA.Equal(a) {
		t.Fatal("nil and non-nil users should differ")
	}

	c := *a
	c.Enabled = false
	if a.Equal(&c) {
		t.Fatal("enabled flag should participate in equality")
	}
}

func TestIsZero(t *testing.T) {
	var u *User
	if !u.IsZero() {
		t.Fatal("nil user should be zero")
	}
	if !(&User{}).IsZero() {
		t.Fatal("empty user should be zero")
	}
	if System(uuid.New()).IsZero() {
		t.Fatal("system user should not be zero")
	}
}
