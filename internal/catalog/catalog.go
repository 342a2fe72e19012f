/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package catalog stores named paths as SVG path data in SQLite or Postgres.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	applog "pathway/internal/log"
	"pathway/internal/svg"
	"pathway/internal/vector"
	"pathway/internal/version"
)

const schemaVersion = 1

// ErrNotFound is returned when no entry has the requested name.
var ErrNotFound = errors.New("catalog: entry not found")

// Entry is one stored path.
type Entry struct {
	Name      string
	FillRule  vector.FillRule
	Data      string // SVG path data, conics already converted
	Segments  int    // raw segment count of the stored geometry
	UpdatedAt time.Time
}

// Path rebuilds the stored path from its path data.
func (e Entry) Path() (*vector.Path, error) {
	p, err := svg.ParsePathData(e.Data)
	if err != nil {
		return nil, fmt.Errorf("entry %q: %w", e.Name, err)
	}
	p.SetFillRule(e.FillRule)
	return p, nil
}

// Catalog is a handle to an open catalog database. It is safe for
// concurrent use.
type Catalog struct {
	db     *sql.DB
	driver string
	tol    float32
}

// Option configures Open.
type Option func(*Catalog)

// WithTolerance sets the conic tolerance used when serializing on Put.
func WithTolerance(tol float32) Option { return func(c *Catalog) { c.tol = tol } }

// Open connects to the catalog and creates its schema if needed. For the
// "sqlite" driver dsn is a file path; for "pgx" it is a Postgres URL.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Catalog, error) {
	l := applog.WithOperation(applog.WithComponent("catalog"), "open").With(slog.String("driver", driver))
	c := &Catalog{driver: driver, tol: vector.DefaultTolerance}
	for _, o := range opts {
		o(c)
	}
	var err error
	switch driver {
	case "sqlite":
		c.db, err = openSQLite(ctx, dsn)
	case "pgx":
		c.db, err = openPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: catalog driver %q", vector.ErrInvalidArgument, driver)
	}
	if err != nil {
		l.Error("open failed", slog.Any("err", err))
		return nil, err
	}
	if err := c.ensureSchema(ctx); err != nil {
		_ = c.db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("catalog ready")
	return c, nil
}

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: empty sqlite path", vector.ErrInvalidArgument)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create catalog dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	return db, nil
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

// DSNWithPassword puts password into a Postgres URL that has a user but no
// password. Other DSNs are returned unchanged.
func DSNWithPassword(dsn, password string) string {
	if password == "" {
		return dsn
	}
	u, err := url.Parse(dsn)
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") || u.User == nil {
		return dsn
	}
	if _, set := u.User.Password(); set {
		return dsn
	}
	u.User = url.UserPassword(u.User.Username(), password)
	return u.String()
}

func (c *Catalog) ensureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS version (
			id         INTEGER PRIMARY KEY CHECK(id=1),
			schema     INTEGER NOT NULL,
			app        TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS paths (
			name       TEXT    PRIMARY KEY,
			fill_rule  TEXT    NOT NULL,
			data       TEXT    NOT NULL,
			segments   INTEGER NOT NULL,
			updated_at TEXT    NOT NULL
		)`,
	}
	for _, q := range ddl {
		if _, err := c.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	var cur int
	err := c.db.QueryRowContext(ctx, c.rebind(`SELECT schema FROM version WHERE id=1`)).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := c.db.ExecContext(ctx, c.rebind(`INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`),
			schemaVersion, version.String(), now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	case cur > schemaVersion:
		return fmt.Errorf("catalog schema %d is newer than supported %d", cur, schemaVersion)
	default:
		if _, err := c.db.ExecContext(ctx, c.rebind(`UPDATE version SET app=?, updated_at=? WHERE id=1`), version.String(), now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// rebind turns ? placeholders into $n for Postgres.
func (c *Catalog) rebind(q string) string {
	if c.driver != "pgx" {
		return q
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

// Put serializes s and stores it under name, replacing any previous entry.
func (c *Catalog) Put(ctx context.Context, name string, s svg.Shape) (Entry, error) {
	if strings.TrimSpace(name) == "" {
		return Entry{}, fmt.Errorf("%w: empty name", vector.ErrInvalidArgument)
	}
	data, err := svg.PathData(s, svg.WithTolerance(c.tol))
	if err != nil {
		return Entry{}, fmt.Errorf("serialize %q: %w", name, err)
	}
	it, err := vector.NewIterator(s)
	if err != nil {
		return Entry{}, err
	}
	n, err := it.RawSize()
	_ = it.Close()
	if err != nil {
		return Entry{}, fmt.Errorf("count %q: %w", name, err)
	}
	e := Entry{Name: name, FillRule: s.FillRule(), Data: data, Segments: n, UpdatedAt: time.Now().UTC().Truncate(time.Second)}
	q := c.rebind(`INSERT INTO paths (name, fill_rule, data, segments, updated_at) VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET fill_rule=excluded.fill_rule, data=excluded.data,
		segments=excluded.segments, updated_at=excluded.updated_at`)
	if _, err := c.db.ExecContext(ctx, q, e.Name, e.FillRule.String(), e.Data, e.Segments, e.UpdatedAt.Format(time.RFC3339)); err != nil {
		return Entry{}, fmt.Errorf("put %q: %w", name, err)
	}
	applog.WithOperation(applog.WithComponent("catalog"), "put").Debug("entry stored",
		slog.String("name", name), slog.Int("segments", n), slog.Int("bytes", len(data)))
	return e, nil
}

type scanner interface{ Scan(dest ...any) error }

func scanEntry(s scanner) (Entry, error) {
	var e Entry
	var rule, ts string
	if err := s.Scan(&e.Name, &rule, &e.Data, &e.Segments, &ts); err != nil {
		return Entry{}, err
	}
	var err error
	if e.FillRule, err = vector.ParseFillRule(rule); err != nil {
		return Entry{}, fmt.Errorf("entry %q: %w", e.Name, err)
	}
	if e.UpdatedAt, err = time.Parse(time.RFC3339, ts); err != nil {
		return Entry{}, fmt.Errorf("entry %q: bad timestamp: %w", e.Name, err)
	}
	return e, nil
}

// Get returns the entry stored under name.
func (c *Catalog) Get(ctx context.Context, name string) (Entry, error) {
	row := c.db.QueryRowContext(ctx, c.rebind(`SELECT name, fill_rule, data, segments, updated_at FROM paths WHERE name=?`), name)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get %q: %w", name, err)
	}
	return e, nil
}

// List returns all entries ordered by name.
func (c *Catalog) List(ctx context.Context) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT name, fill_rule, data, segments, updated_at FROM paths ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			applog.WithComponent("catalog").Warn("rows close", slog.Any("err", err))
		}
	}()
	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return out, nil
}

// Delete removes the entry stored under name.
func (c *Catalog) Delete(ctx context.Context, name string) error {
	res, err := c.db.ExecContext(ctx, c.rebind(`DELETE FROM paths WHERE name=?`), name)
	if err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close catalog: %w", err)
	}
	return nil
}
