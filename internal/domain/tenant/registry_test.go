package tenant

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ahardinathillc/whippet/internal/domain"
)

var (
	acmeID    = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	systemID  = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	fixedTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
)

func newTestRegistry() *Registry {
	return NewRegistry(StaticSystemUser(systemID), WithClock(func() time.Time { return fixedTime }))
}

type failingResolver struct{ err error }

func (f failingResolver) ResolveSystemUser(context.Context) (uuid.UUID, error) {
	return uuid.Nil, f.err
}

func TestSetRootAcme(t *testing.T) {
	r := newTestRegistry()

	root, err := r.SetRoot(context.Background(), acmeID, "Acme", "https://acme.example")
	if err != nil {
		t.Fatalf("SetRoot: %v", err)
	}
	if root.Name != "Acme" || !root.IsRootTenant() || !root.Active() || root.Deleted() {
		t.Fatalf("unexpected root state: %+v", root.Snapshot())
	}
	if root.CreatedBy != systemID || root.ModifiedBy != systemID {
		t.Fatalf("audit actor = %s/%s, want %s", root.CreatedBy, root.ModifiedBy, systemID)
	}
	if !root.CreatedAt.Equal(fixedTime) || !root.ModifiedAt.Equal(fixedTime) {
		t.Fatalf("audit time = %s/%s, want %s", root.CreatedAt, root.ModifiedAt, fixedTime)
	}
	if !r.Established() {
		t.Fatal("registry should report established")
	}

	_, err = r.SetRoot(context.Background(), uuid.New(), "Other", "https://other.example")
	if !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("second SetRoot error = %v, want ErrInvalidOperation", err)
	}

	got, ok := r.Root()
	if !ok {
		t.Fatal("Root() reported no root")
	}
	if got.ID != acmeID || got.Name != "Acme" {
		t.Fatalf("root changed after failed bootstrap: %s", got)
	}
}

func TestSetRootValidation(t *testing.T) {
	tests := []struct {
		name  string
		id    uuid.UUID
		tname string
		url   string
		param string
	}{
		{"nil id", uuid.Nil, "Acme", "https://acme.example", "id"},
		{"blank name", acmeID, "  ", "https://acme.example", "name"},
		{"empty url", acmeID, "Acme", "", "url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRegistry()
			_, err := r.SetRoot(context.Background(), tt.id, tt.tname, tt.url)
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Fatalf("error = %v, want ErrInvalidArgument", err)
			}
			var ae *domain.ArgumentError
			if !errors.As(err, &ae) || ae.Param != tt.param {
				t.Fatalf("error = %v, want ArgumentError for %q", err, tt.param)
			}
			if r.Established() {
				t.Fatal("failed validation must not establish a root")
			}
			if _, err := r.SetRoot(context.Background(), acmeID, "Acme", "https://acme.example"); err != nil {
				t.Fatalf("bootstrap after failed validation: %v", err)
			}
		})
	}
}

func TestSetRootResolverFailure(t *testing.T) {
	boom := errors.New("identity store offline")
	r := NewRegistry(failingResolver{err: boom})

	_, err := r.SetRoot(context.Background(), acmeID, "Acme", "https://acme.example")
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
	if r.Established() {
		t.Fatal("resolver failure must not establish a root")
	}
	if _, ok := r.Root(); ok {
		t.Fatal("Root() should report no root")
	}
}

func TestRootReturnsCopies(t *testing.T) {
	r := newTestRegistry()
	if _, ok := r.Root(); ok {
		t.Fatal("empty registry should have no root")
	}
	if _, err := r.SetRoot(context.Background(), acmeID, "Acme", "https://acme.example"); err != nil {
		t.Fatalf("SetRoot: %v", err)
	}

	a, _ := r.Root()
	b, _ := r.Root()
	if a == b {
		t.Fatal("Root() should return distinct instances")
	}
	if !a.Equal(b) {
		t.Fatal("copies should compare equal")
	}

	a.Name = "Mutated"
	a.URL = "https://mutated.example"
	c, _ := r.Root()
	if c.Name != "Acme" || b.Name != "Acme" {
		t.Fatal("mutating a copy changed the stored root")
	}
}

func TestConcurrentSetRoot(t *testing.T) {
	r := newTestRegistry()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.SetRoot(context.Background(), uuid.New(), "Acme", "https://acme.example"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := wins.Load(); got != 1 {
		t.Fatalf("successful bootstraps = %d, want 1", got)
	}
}

func TestAdopt(t *testing.T) {
	r := newTestRegistry()

	if err := r.Adopt(New(acmeID, "Acme", "https://acme.example")); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("Adopt(non-root) error = %v, want ErrInvalidArgument", err)
	}
	if err := r.Adopt(nil); !errors.Is(err, domain.ErrNilArgument) {
		t.Fatalf("Adopt(nil) error = %v, want ErrNilArgument", err)
	}

	stored := rootFixture()
	if err := r.Adopt(stored); err != nil {
		t.Fatalf("Adopt: %v", err)
	}
	stored.Name = "Changed"
	got, _ := r.Root()
	if got.Name != "Acme" {
		t.Fatal("Adopt should keep its own copy")
	}

	if err := r.Adopt(rootFixture()); !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("second Adopt error = %v, want ErrInvalidOperation", err)
	}
	if _, err := r.SetRoot(context.Background(), acmeID, "Acme", "https://acme.example"); !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("SetRoot after Adopt error = %v, want ErrInvalidOperation", err)
	}
}

func TestStaticSystemUserNil(t *testing.T) {
	_, err := StaticSystemUser(uuid.Nil).ResolveSystemUser(context.Background())
	if !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("error = %v, want ErrInvalidOperation", err)
	}
}

func TestSetRootWithCommit(t *testing.T) {
	r := newTestRegistry()
	ctx := context.Background()
	storeErr := errors.New("disk full")

	_, err := r.SetRootWith(ctx, acmeID, "Acme", "https://acme.example", func(*Tenant) error { return storeErr })
	if !errors.Is(err, storeErr) {
		t.Fatalf("error = %v, want %v", err, storeErr)
	}
	if r.Established() {
		t.Fatal("failed commit must leave the registry unestablished")
	}

	var committed *Tenant
	got, err := r.SetRootWith(ctx, acmeID, "Acme", "https://acme.example", func(c *Tenant) error {
		committed = c
		return nil
	})
	if err != nil {
		t.Fatalf("SetRootWith: %v", err)
	}
	if committed == nil || !committed.IsRootTenant() || !committed.Equal(got) {
		t.Fatalf("commit saw %v, want %v", committed, got)
	}
}

func TestDefaultRegistry(t *testing.T) {
	saved := Default
	Default = NewRegistry(StaticSystemUser(DefaultSystemUserID), WithClock(func() time.Time { return fixedTime }))
	t.Cleanup(func() { Default = saved })

	if _, ok := RootTenant(); ok {
		t.Fatal("fresh Default registry should have no root")
	}

	Default.SetResolver(StaticSystemUser(systemID))
	root, err := SetRootTenant(context.Background(), acmeID, "Acme", "https://acme.example")
	if err != nil {
		t.Fatalf("SetRootTenant: %v", err)
	}
	if root.CreatedBy != systemID {
		t.Fatalf("created by = %s, want resolver id %s", root.CreatedBy, systemID)
	}

	got, ok := RootTenant()
	if !ok || !got.Equal(root) {
		t.Fatalf("RootTenant() = %v, %t", got, ok)
	}

	_, err = SetRootTenant(context.Background(), uuid.New(), "Other", "https://other.example")
	if !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("second SetRootTenant error = %v, want ErrInvalidOperation", err)
	}
}

func TestSetResolverAfterFailure(t *testing.T) {
	r := NewRegistry(failingResolver{err: errors.New("directory down")})
	if _, err := r.SetRoot(context.Background(), acmeID, "Acme", "https://acme.example"); err == nil {
		t.Fatal("expected resolver failure")
	}

	r.SetResolver(StaticSystemUser(systemID))
	root, err := r.SetRoot(context.Background(), acmeID, "Acme", "https://acme.example")
	if err != nil {
		t.Fatalf("SetRoot after SetResolver: %v", err)
	}
	if root.CreatedBy != systemID {
		t.Fatalf("created by = %s, want %s", root.CreatedBy, systemID)
	}
}
