package tenant

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ahardinathillc/whippet/internal/domain"
)

func rootFixture() *Tenant {
	t := New(uuid.New(), "Acme", "https://acme.example")
	t.root = true
	return t
}

func TestNonRootFlags(t *testing.T) {
	tn := New(uuid.New(), "Beta", "https://beta.example")
	for _, v := range []bool{false, true, false} {
		if err := tn.SetActive(v); err != nil {
			t.Fatalf("SetActive(%v): %v", v, err)
		}
		if tn.Active() != v {
			t.Fatalf("Active = %v, want %v", tn.Active(), v)
		}
		if err := tn.SetDeleted(v); err != nil {
			t.Fatalf("SetDeleted(%v): %v", v, err)
		}
		if tn.Deleted() != v {
			t.Fatalf("Deleted = %v, want %v", tn.Deleted(), v)
		}
	}
}

func TestRootGuards(t *testing.T) {
	tn := rootFixture()

	err := tn.SetActive(false)
	if !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("SetActive(false) error = %v, want ErrInvalidOperation", err)
	}
	if !tn.Active() {
		t.Fatal("root tenant should stay active")
	}

	err = tn.SetDeleted(true)
	if !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("SetDeleted(true) error = %v, want ErrInvalidOperation", err)
	}
	if tn.Deleted() {
		t.Fatal("root tenant should stay undeleted")
	}

	if err := tn.SetActive(true); err != nil {
		t.Fatalf("SetActive(true) on root: %v", err)
	}
	if err := tn.SetDeleted(false); err != nil {
		t.Fatalf("SetDeleted(false) on root: %v", err)
	}
}

func TestTenantEqual(t *testing.T) {
	id := uuid.New()
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	actor := uuid.New()
	build := func() *Tenant {
		tn := New(id, "Acme", "https://acme.example")
		tn.Stamp(now, actor)
		return tn
	}

	a, b := build(), build()
	if !a.Equal(a) {
		t.Fatal("Equal should be reflexive")
	}
	if !a.Equal(b) || !b.Equal(a) {
		t.Fatal("identically built tenants should be equal both ways")
	}

	c := build()
	c.Name = "ACME"
	if !a.Equal(c) {
		t.Fatal("name comparison should ignore case")
	}

	tests := []struct {
		name   string
		mutate func(*Tenant)
	}{
		{"id", func(tn *Tenant) { tn.ID = uuid.New() }},
		{"name", func(tn *Tenant) { tn.Name = "Other" }},
		{"url", func(tn *Tenant) { tn.URL = "https://other.example" }},
		{"active", func(tn *Tenant) { _ = tn.SetActive(false) }},
		{"deleted", func(tn *Tenant) { _ = tn.SetDeleted(true) }},
		{"modified at", func(tn *Tenant) { tn.Touch(now.Add(time.Minute), actor) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := build()
			tt.mutate(d)
			if a.Equal(d) || d.Equal(a) {
				t.Fatalf("tenants differing in %s should not be equal", tt.name)
			}
		})
	}

	var nilA, nilB *Tenant
	if !nilA.Equal(nilB) {
		t.Fatal("two nil tenants should be equal")
	}
	if a.Equal(nil) {
		t.Fatal("tenant should not equal nil")
	}
}

func TestTenantString(t *testing.T) {
	if got := New(uuid.New(), "Acme", "https://acme.example").String(); got != "Acme (https://acme.example)" {
		t.Fatalf("String() = %q", got)
	}
	if got := (&Tenant{}).String(); got != "Not Configured" {
		t.Fatalf("String() = %q, want %q", got, "Not Configured")
	}
	var nilT *Tenant
	if got := nilT.String(); got != "Not Configured" {
		t.Fatalf("nil String() = %q", got)
	}
}

func TestCloneIndependence(t *testing.T) {
	orig := rootFixture()
	c := orig.Clone()
	if c == orig {
		t.Fatal("Clone should return a new instance")
	}
	if !c.Equal(orig) || !c.IsRootTenant() {
		t.Fatal("clone should equal the original and keep the root flag")
	}
	c.Name = "Changed"
	if orig.Name != "Acme" {
		t.Fatalf("mutating the clone changed the original: %q", orig.Name)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	orig := rootFixture()
	orig.Stamp(time.Now(), uuid.New())

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Tenant
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded.Equal(orig) || !decoded.IsRootTenant() {
		t.Fatalf("decoded tenant %+v does not match original", decoded.Snapshot())
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	for _, key := range []string{"id", "name", "url", "is_root", "active", "deleted", "created_at", "created_by", "modified_at", "modified_by"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing JSON key %q", key)
		}
	}
}
