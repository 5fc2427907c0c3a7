// Package db contains the sqlite queries and migrations of the build history
// used by the storage package.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
	"modernc.org/sqlite" // sqlite sql.DB driver initialization
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

//go:embed migrations/*.sql
var migrations embed.FS

var (
	registerHook sync.Once
	// goose keeps its configuration in package globals.
	migrateMu sync.Mutex
)

// Open initializes a SQLite DB connection to the specified dbPath. If the
// database file does not exist, it attempts to create it, and then migrates the
// database to the current history schema.
func Open(ctx context.Context, logger *slog.Logger, dbPath string) (*sql.DB, error) {
	if dbPath != MemoryPath {
		if _, err := os.Stat(dbPath); err != nil {
			const userOnlyDirPerms = 0o700
			if err = os.MkdirAll(filepath.Dir(dbPath), userOnlyDirPerms); err != nil {
				return nil, fmt.Errorf("failed to create db parent directory: %w", err)
			}
		}
	}

	if strings.ContainsRune(dbPath, '?') {
		dbPath += "&"
	} else {
		dbPath += "?"
	}
	dbPath += "_time_format=sqlite"

	registerHook.Do(func() {
		sqlite.RegisterConnectionHook(func(conn sqlite.ExecQuerierContext, _ string) error {
			const initSQL = `
			pragma journal_mode = WAL; -- readers don't block the writer
			pragma synchronous = normal; -- don't wait for fsync except on checkpointing
			pragma busy_timeout = 5000; -- concurrent forge invocations wait for the lock
			`
			_, err := conn.ExecContext(context.Background(), initSQL, nil)
			return err
		})
	})

	handle, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create DB handler: %w", err)
	} else if err = handle.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	handle.SetMaxOpenConns(1)

	logger = logger.With(slog.String("db", dbPath))
	migrateMu.Lock()
	defer migrateMu.Unlock()
	goose.SetLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, handle, "migrations"); err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}
	return handle, nil
}
