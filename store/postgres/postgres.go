/*
 * MIT License
 *
 * Copyright (c) 2022-2025  Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package postgres provides a Store backed by a single jsonb table.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/atomic"

	"github.com/tochemey/quizakt/document"
	gerrors "github.com/tochemey/quizakt/errors"
	"github.com/tochemey/quizakt/store"
)

const tableName = "documents"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		uid        TEXT NOT NULL,
		body       JSONB NOT NULL,
		PRIMARY KEY (collection, uid)
	)`,
	`CREATE INDEX IF NOT EXISTS documents_body_idx ON documents USING GIN (body)`,
}

// Config defines the connection pool settings
type Config struct {
	DSN             string        `yaml:"dsn" env:"DSN"`
	MaxConns        int32         `yaml:"max_conns" env:"MAX_CONNS" env-default:"10"`
	MinConns        int32         `yaml:"min_conns" env:"MIN_CONNS" env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"MAX_CONN_LIFETIME" env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// Store implements store.Store on PostgreSQL
type Store struct {
	pool   *pgxpool.Pool
	sb     sq.StatementBuilderType
	closed *atomic.Bool
}

var _ store.Store = (*Store)(nil)

// Open connects to the database, pings it and creates the documents table
// when missing
func Open(ctx context.Context, config Config) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(config.DSN)
	if err != nil {
		return nil, gerrors.NewStorageError("open", fmt.Errorf("parse database DSN: %w", err))
	}

	if config.MaxConns > 0 {
		poolConfig.MaxConns = config.MaxConns
	}
	if config.MinConns > 0 {
		poolConfig.MinConns = config.MinConns
	}
	if config.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = config.MaxConnLifetime
	}
	if config.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = config.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, gerrors.NewStorageError("open", fmt.Errorf("create connection pool: %w", err))
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, gerrors.NewStorageError("open", fmt.Errorf("ping database: %w", err))
	}

	for _, statement := range schema {
		if _, err := pool.Exec(ctx, statement); err != nil {
			pool.Close()
			return nil, gerrors.NewStorageError("open", fmt.Errorf("create schema: %w", err))
		}
	}

	return &Store{
		pool:   pool,
		sb:     sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		closed: atomic.NewBool(false),
	}, nil
}

// Upsert inserts or replaces the document under uid. xmax is zero only for
// a freshly inserted row.
func (s *Store) Upsert(ctx context.Context, collection, uid string, doc document.Document) (store.UpsertResult, error) {
	if err := s.ensureOpen(); err != nil {
		return store.Neither, err
	}

	prepared, err := store.Prepare(uid, doc)
	if err != nil {
		return store.Neither, err
	}
	body, err := prepared.Marshal()
	if err != nil {
		return store.Neither, gerrors.NewStorageError("upsert", err)
	}

	query, args, err := s.sb.
		Insert(tableName).
		Columns("collection", "uid", "body").
		Values(collection, uid, sq.Expr("?::jsonb", string(body))).
		Suffix("ON CONFLICT (collection, uid) DO UPDATE SET body = EXCLUDED.body RETURNING (xmax = 0) AS inserted").
		ToSql()
	if err != nil {
		return store.Neither, gerrors.NewStorageError("upsert", fmt.Errorf("unable to build sql upsert statement: %w", err))
	}

	var inserted bool
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&inserted); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Neither, nil
		}
		return store.Neither, mapError("upsert", err)
	}

	if inserted {
		return store.Inserted, nil
	}
	return store.Matched, nil
}

// FindOne returns the first document, by uid, matching filter
func (s *Store) FindOne(ctx context.Context, collection string, filter document.Filter) (document.Document, bool, error) {
	docs, err := s.find(ctx, collection, filter, 1)
	if err != nil || len(docs) == 0 {
		return nil, false, err
	}
	return docs[0], true, nil
}

// Find returns every document matching filter ordered by uid
func (s *Store) Find(ctx context.Context, collection string, filter document.Filter) ([]document.Document, error) {
	return s.find(ctx, collection, filter, 0)
}

// DeleteOne removes the document with the given uid
func (s *Store) DeleteOne(ctx context.Context, collection, uid string) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}

	query, args, err := s.sb.
		Delete(tableName).
		Where(sq.Eq{"collection": collection, "uid": uid}).
		ToSql()
	if err != nil {
		return gerrors.NewStorageError("deleteOne", fmt.Errorf("unable to build sql delete statement: %w", err))
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return mapError("deleteOne", err)
	}
	return nil
}

// DeleteMany removes every document matching filter
func (s *Store) DeleteMany(ctx context.Context, collection string, filter document.Filter) (int64, error) {
	if err := s.ensureOpen(); err != nil {
		return 0, err
	}

	where, err := whereClause(collection, filter)
	if err != nil {
		return 0, err
	}

	query, args, err := s.sb.Delete(tableName).Where(where).ToSql()
	if err != nil {
		return 0, gerrors.NewStorageError("deleteMany", fmt.Errorf("unable to build sql delete statement: %w", err))
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, mapError("deleteMany", err)
	}
	return tag.RowsAffected(), nil
}

// Close closes the connection pool
func (s *Store) Close(context.Context) error {
	if s.closed.CompareAndSwap(false, true) {
		s.pool.Close()
	}
	return nil
}

func (s *Store) find(ctx context.Context, collection string, filter document.Filter, limit uint64) ([]document.Document, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	where, err := whereClause(collection, filter)
	if err != nil {
		return nil, err
	}

	builder := s.sb.
		Select("body").
		From(tableName).
		Where(where).
		OrderBy(`uid COLLATE "C"`)
	if limit > 0 {
		builder = builder.Limit(limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, gerrors.NewStorageError("find", fmt.Errorf("unable to build sql select statement: %w", err))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("find", err)
	}
	defer rows.Close()

	var result []document.Document
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, mapError("find", err)
		}
		doc, err := document.Unmarshal(body)
		if err != nil {
			return nil, gerrors.NewStorageError("find", err)
		}
		result = append(result, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("find", err)
	}
	return result, nil
}

func (s *Store) ensureOpen() error {
	if s.closed.Load() {
		return gerrors.NewStorageError("postgres", store.ErrClosed)
	}
	return nil
}

// whereClause translates a filter into jsonb predicates. A scalar also
// matches an array containing it and a nil value matches a missing or null
// field.
func whereClause(collection string, filter document.Filter) (sq.And, error) {
	prepared, err := store.PrepareFilter(filter)
	if err != nil {
		return nil, err
	}

	where := sq.And{sq.Eq{"collection": collection}}
	for _, key := range prepared.Keys() {
		value := prepared[key]
		if key == document.UIDField {
			if uid, ok := value.(string); ok {
				where = append(where, sq.Eq{"uid": uid})
				continue
			}
		}

		if value == nil {
			where = append(where, sq.Expr("(body->(?::text) IS NULL OR body->(?::text) = 'null'::jsonb)", key, key))
			continue
		}

		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, gerrors.NewStorageError("encode", err)
		}
		literal := string(encoded)

		switch value.(type) {
		case []any, map[string]any:
			where = append(where, sq.Expr("body->(?::text) = ?::jsonb", key, literal))
		default:
			where = append(where, sq.Expr(
				"(body->(?::text) = ?::jsonb OR (jsonb_typeof(body->(?::text)) = 'array' AND body->(?::text) @> ?::jsonb))",
				key, literal, key, key, literal))
		}
	}
	return where, nil
}

func mapError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return gerrors.NewStorageError(op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return gerrors.NewStorageError(op, fmt.Errorf("postgres %s: %s", pgErr.Code, pgErr.Message))
	}
	return gerrors.NewStorageError(op, err)
}
