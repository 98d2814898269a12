package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fileParams apply to every pooled connection: the record flusher writes
// while ranking and match handlers read.
const fileParams = "_busy_timeout=5000&_journal_mode=WAL"

// DSN turns a file path into a driver DSN. "file:" URIs, including in-memory
// ones, are used as given.
func DSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	return "file:" + path + "?" + fileParams
}

// Open returns a GORM *DB on a SQLite database, creating the file's
// directory when needed.
func Open(path string) (*gorm.DB, error) {
	if !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
	}
	return gorm.Open(sqlite.Open(DSN(path)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}
