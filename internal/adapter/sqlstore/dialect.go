package sqlstore

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	_ "github.com/denisenkom/go-mssqldb" // SQL Server driver
	"github.com/pressly/goose/v3/database"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/ahardinathillc/whippet/internal/domain"
)

// Dialect describes how to talk to one database engine through database/sql.
type Dialect struct {
	Name       string           // config name, e.g. "mysql"
	Driver     string           // database/sql driver name
	Goose      database.Dialect // migration dialect
	Migrations string           // directory under migrations/
	Ordinal    bool             // placeholders are @p1, @p2, ... instead of ?
}

// Rebind rewrites ? placeholders for dialects that use ordinal parameters.
func (d Dialect) Rebind(query string) string {
	if !d.Ordinal {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("@p")
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var dialects = map[string]Dialect{
	"mysql": {
		Name: "mysql", Driver: "mysql",
		Goose: database.DialectMySQL, Migrations: "mysql",
	},
	"sqlserver": {
		Name: "sqlserver", Driver: "sqlserver",
		Goose: database.DialectMSSQL, Migrations: "sqlserver", Ordinal: true,
	},
	"sqlite": {
		Name: "sqlite", Driver: "sqlite",
		Goose: database.DialectSQLite3, Migrations: "sqlite",
	},
}

// Lookup returns the named dialect. Unknown names wrap domain.ErrFormat.
func Lookup(name string) (Dialect, error) {
	d, ok := dialects[name]
	if !ok {
		return Dialect{}, fmt.Errorf("dialect %q: %w", name, domain.ErrFormat)
	}
	return d, nil
}

// Dialects lists the supported dialect names in sorted order.
func Dialects() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
