package store

import (
	"fmt"
	"net/url"
	"strings"
)

// sqliteDSN adds the pragmas and time format the store relies on unless
// the caller already set them.
//
// A file database is shared by several pooled connections. Transactions
// begin IMMEDIATE so a writer takes the lock before its first read, and
// busy_timeout makes a second writer wait for it instead of failing with
// SQLITE_BUSY.
func sqliteDSN(dsn string) string {
	memory := strings.Contains(dsn, ":memory:")

	var params []string
	if !strings.Contains(dsn, "foreign_keys") {
		params = append(params, "_pragma=foreign_keys(1)")
	}
	if !memory {
		if !strings.Contains(dsn, "busy_timeout") {
			params = append(params, "_pragma=busy_timeout(5000)")
		}
		if !strings.Contains(dsn, "journal_mode") {
			params = append(params, "_pragma=journal_mode(WAL)")
		}
		if !strings.Contains(dsn, "_txlock") {
			params = append(params, "_txlock=immediate")
		}
	}
	if !strings.Contains(dsn, "_time_format") {
		params = append(params, "_time_format=sqlite")
	}
	if len(params) == 0 {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// PostgresDSNWithPassword returns dsn with its password replaced by
// password. Both URL and key/value connection strings are accepted.
func PostgresDSNWithPassword(dsn, password string) (string, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parsing postgres dsn: %w", err)
		}
		username := ""
		if u.User != nil {
			username = u.User.Username()
		}
		u.User = url.UserPassword(username, password)
		return u.String(), nil
	}

	var kept []string
	for _, field := range strings.Fields(dsn) {
		if strings.HasPrefix(field, "password=") {
			continue
		}
		kept = append(kept, field)
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(password)
	kept = append(kept, "password='"+escaped+"'")
	return strings.Join(kept, " "), nil
}
