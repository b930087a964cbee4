// Package dbstore owns the MySQL/TiDB connection, schema migration, and the
// batched persistence helpers used by the writer and trigger packages.
//
// Connection setup follows an auto-create-database DSN rewrite and
// sequential CREATE TABLE IF NOT EXISTS migration, an ON DUPLICATE KEY
// UPDATE trigger upsert, and a batched INSERT IGNORE for events with
// nullable-pointer fields.
package dbstore

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

// DB wraps the raw connection pool.
type DB struct {
	conn *sql.DB
}

// Open connects to the given DSN, auto-creating the target database first
// if it does not exist yet via a DSN-rewrite, generalized to any database
// name rather than a hardcoded one.
func Open(dsn string) (*DB, error) {
	if dbName, baseDSN, ok := splitDatabaseName(dsn); ok {
		baseConn, err := sql.Open("mysql", baseDSN)
		if err != nil {
			return nil, err
		}
		_, err = baseConn.Exec(fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", dbName))
		baseConn.Close()
		if err != nil {
			return nil, fmt.Errorf("dbstore: failed to create database: %w", err)
		}
	}

	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("dbstore: failed to ping database: %w", err)
	}

	return &DB{conn: conn}, nil
}

// GetConn exposes the underlying *sql.DB for components that need raw
// query access (e.g. the HTTP API's read endpoints).
func (db *DB) GetConn() *sql.DB { return db.conn }

// Close closes the underlying connection pool.
func (db *DB) Close() error { return db.conn.Close() }

// splitDatabaseName extracts "/dbname" from a MySQL DSN and returns the
// database name plus a DSN pointed at no specific database, so the caller
// can issue a CREATE DATABASE IF NOT EXISTS before connecting for real.
func splitDatabaseName(dsn string) (dbName, baseDSN string, ok bool) {
	atIdx := strings.LastIndex(dsn, "@")
	slashIdx := strings.Index(dsn[max(atIdx, 0):], "/")
	if slashIdx < 0 {
		return "", "", false
	}
	slashIdx += max(atIdx, 0)
	rest := dsn[slashIdx+1:]
	qIdx := strings.IndexAny(rest, "?")
	name := rest
	if qIdx >= 0 {
		name = rest[:qIdx]
	}
	if name == "" {
		return "", "", false
	}
	base := dsn[:slashIdx+1]
	if qIdx >= 0 {
		base += rest[qIdx:]
	}
	return name, base, true
}
