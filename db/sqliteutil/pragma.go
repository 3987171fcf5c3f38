// Package sqliteutil adjusts sqlite DSNs for the modernc driver, which
// takes pragmas as _pragma query parameters.
package sqliteutil

import "strings"

// EnsurePragmas appends _pragma parameters to a sqlite DSN. Each pragma
// is written as name(value); a pragma whose name the DSN already
// carries is left alone so callers never override an explicit choice.
// In-memory databases are returned unchanged.
func EnsurePragmas(dsn string, pragmas ...string) string {
	if dsn == "" || isMemory(dsn) {
		return dsn
	}
	for _, pragma := range pragmas {
		name := pragma
		if idx := strings.IndexByte(pragma, '('); idx >= 0 {
			name = pragma[:idx]
		}
		if strings.Contains(strings.ToLower(dsn), "_pragma="+strings.ToLower(name)) {
			continue
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=" + pragma
	}
	return dsn
}

func isMemory(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(strings.ToLower(dsn), "file::memory:")
}
