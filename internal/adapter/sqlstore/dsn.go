package sqlstore

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/ahardinathillc/whippet/internal/domain"
)

// envToken matches unexpanded ${VAR} placeholders left behind by container
// templating.
var envToken = regexp.MustCompile(`\$\{[^}]*\}`)

// unsupportedSQLServerKeys are connection-string keywords that go-mssqldb
// does not understand or that select features this service does not use.
var unsupportedSQLServerKeys = map[string]bool{
	"column encryption setting": true,
	"multipleactiveresultsets":  true,
	"persist security info":     true,
	"pooling":                   true,
	"max pool size":             true,
	"min pool size":             true,
	"connection lifetime":       true,
	"enlist":                    true,
}

// SanitizeDSN cleans a connection string for the given dialect: unexpanded
// ${...} tokens are dropped, unsupported SQL Server keywords are removed,
// and MySQL DSNs are normalised with parseTime and clientFoundRows
// enabled.
func SanitizeDSN(dialect, dsn string) (string, error) {
	dsn = strings.TrimSpace(envToken.ReplaceAllString(dsn, ""))
	if dsn == "" {
		return "", fmt.Errorf("sanitize dsn: %w", domain.EmptyArgument("dsn"))
	}

	switch dialect {
	case "mysql":
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", fmt.Errorf("sanitize mysql dsn: %v: %w", err, domain.ErrFormat)
		}
		cfg.ParseTime = true
		cfg.ClientFoundRows = true
		return cfg.FormatDSN(), nil
	case "sqlserver":
		if strings.Contains(dsn, "://") {
			return dsn, nil
		}
		return sanitizeKeyValues(dsn), nil
	case "sqlite":
		return dsn, nil
	default:
		return "", fmt.Errorf("sanitize dsn: dialect %q: %w", dialect, domain.ErrFormat)
	}
}

// sanitizeKeyValues filters a semicolon-separated key=value string.
func sanitizeKeyValues(dsn string) string {
	parts := strings.Split(dsn, ";")
	kept := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		key, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		if unsupportedSQLServerKeys[strings.ToLower(strings.TrimSpace(key))] {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, ";")
}

// inMemory reports whether a SQLite DSN names a private in-memory database,
// which only survives on a single connection.
func inMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
