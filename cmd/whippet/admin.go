package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/ahardinathillc/whippet/internal/config"
	"github.com/ahardinathillc/whippet/internal/domain/tenant"
	"github.com/ahardinathillc/whippet/internal/service"
)

// runAdmin dispatches admin subcommands (bootstrap-root, list-tenants, migrate, show-root).
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "bootstrap-root":
		return runAdminBootstrapRoot(args[1:])
	case "list-tenants":
		return runAdminListTenants(args[1:])
	case "migrate":
		return runAdminMigrate(args[1:])
	case "show-root":
		return runAdminShowRoot(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: whippet admin <command> [options]

Commands:
  bootstrap-root   Establish the root tenant
  list-tenants     List tenants
  migrate          Apply pending database migrations (--down N rolls back)
  show-root        Show the root tenant
  help             Show this help message

Examples:
  whippet admin migrate
  whippet admin migrate --down 1
  whippet admin bootstrap-root --id 6f1c1d5e-8a0b-4c8e-9a55-0d7f3b1e2a10 --name Root --url https://root.example
  whippet admin list-tenants --all
  whippet admin show-root
`)
}

type adminDeps struct {
	cfg        *config.Config
	store      *storeHandle
	tenants    *service.TenantService
	principals *service.PrincipalService
}

func loadAdminDeps(ctx context.Context) (*adminDeps, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	systemID, err := uuid.Parse(cfg.Identity.SystemUserID)
	if err != nil {
		store.close()
		return nil, nil, fmt.Errorf("identity: system_user_id: %w", err)
	}
	registry := tenant.Default
	registry.SetResolver(tenant.StaticSystemUser(systemID))
	deps := &adminDeps{
		cfg:        cfg,
		store:      store,
		tenants:    service.NewTenantService(store, registry, nil, systemID),
		principals: service.NewPrincipalService(store, systemID),
	}
	return deps, store.close, nil
}

func runAdminBootstrapRoot(args []string) error {
	fs := flag.NewFlagSet("bootstrap-root", flag.ContinueOnError)
	idFlag := fs.String("id", "", "root tenant id (generated when empty)")
	name := fs.String("name", "", "root tenant name (required)")
	url := fs.String("url", "", "root tenant access URL (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *name == "" {
		return errors.New("--name is required")
	}
	if *url == "" {
		return errors.New("--url is required")
	}
	id := uuid.New()
	if *idFlag != "" {
		parsed, err := uuid.Parse(*idFlag)
		if err != nil {
			return fmt.Errorf("--id: %w", err)
		}
		id = parsed
	}

	ctx := context.Background()
	deps, cleanup, err := loadAdminDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := deps.principals.EnsureSystemUser(ctx); err != nil {
		return fmt.Errorf("system user: %w", err)
	}
	root, err := deps.tenants.BootstrapRoot(ctx, tenant.BootstrapRequest{ID: id, Name: *name, URL: *url})
	if err != nil {
		return bootstrapError(err, deps.cfg.Locale)
	}

	fmt.Fprintf(os.Stderr, "Root tenant established: %s (id=%s)\n", root.Name, root.ID)
	return nil
}

// bootstrapError keeps err in the chain and uses the localized text as the
// message.
func bootstrapError(err error, locale string) error {
	return &localizedError{msg: "bootstrap root: " + tenant.Localize(err, tenant.Printer(locale)), err: err}
}

type localizedError struct {
	msg string
	err error
}

func (e *localizedError) Error() string { return e.msg }
func (e *localizedError) Unwrap() error { return e.err }

func runAdminListTenants(args []string) error {
	fs := flag.NewFlagSet("list-tenants", flag.ContinueOnError)
	all := fs.Bool("all", false, "include soft-deleted tenants")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	deps, cleanup, err := loadAdminDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	tenants, err := deps.tenants.List(ctx, tenant.ListOptions{IncludeDeleted: *all})
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}
	return printTenants(os.Stdout, isTerminal(os.Stdout), tenants)
}

func runAdminMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	down := fs.Int("down", 0, "roll back the N most recent migrations instead of applying")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *down < 0 {
		return fmt.Errorf("--down must not be negative, got %d", *down)
	}

	ctx := context.Background()
	deps, cleanup, err := loadAdminDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	action := "applied"
	if *down > 0 {
		if err := deps.store.rollback(ctx, *down); err != nil {
			return fmt.Errorf("rollback: %w", err)
		}
		action = "rolled back"
	} else if err := deps.store.migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	v, err := deps.store.version(ctx)
	if err != nil {
		return fmt.Errorf("migration version: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Migrations %s (driver=%s, version=%d)\n", action, deps.cfg.Database.Driver, v)
	return nil
}

func runAdminShowRoot(args []string) error {
	fs := flag.NewFlagSet("show-root", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	deps, cleanup, err := loadAdminDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	root, err := deps.tenants.LoadRoot(ctx)
	if err != nil {
		return fmt.Errorf("show root: %w", err)
	}
	return printTenants(os.Stdout, isTerminal(os.Stdout), []*tenant.Tenant{root})
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}

// printTenants writes a table for humans and JSON for pipes.
func printTenants(w io.Writer, table bool, tenants []*tenant.Tenant) error {
	if !table {
		if tenants == nil {
			tenants = []*tenant.Tenant{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tenants)
	}

	if len(tenants) == 0 {
		_, err := fmt.Fprintln(w, "No tenants found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tURL\tROOT\tACTIVE\tDELETED\tCREATED")
	for _, t := range tenants {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%t\t%t\t%s\n",
			t.ID, t.Name, t.URL, t.IsRootTenant(), t.Active(), t.Deleted(), t.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}
