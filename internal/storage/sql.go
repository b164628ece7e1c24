package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"  // Postgres driver registration.
	_ "modernc.org/sqlite" // SQLite driver registration.

	"newsbot/internal/model"
	"newsbot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SQL implements Storage on top of database/sql.
type SQL struct {
	db *sql.DB
	qb sq.StatementBuilderType
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQL, error) {
	return Open(DriverSQLite, dsn)
}

// NewPostgres connects to a Postgres database and runs pending migrations.
func NewPostgres(dsn string) (*SQL, error) {
	return Open(DriverPostgres, dsn)
}

// Open connects to the database with the given driver and runs pending migrations.
func Open(driver, dsn string) (*SQL, error) {
	var placeholder sq.PlaceholderFormat
	switch driver {
	case DriverSQLite:
		placeholder = sq.Question
	case DriverPostgres:
		placeholder = sq.Dollar
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// One connection serializes writers and keeps ":memory:" databases shared.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
		if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set busy timeout: %w", err)
		}
	} else if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if err := migrations.Run(db, driver); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQL{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(placeholder),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQL) Close() error {
	return s.db.Close()
}

// HasBeenPosted checks whether a link has already been delivered.
func (s *SQL) HasBeenPosted(ctx context.Context, link string) (bool, error) {
	query, args, err := s.qb.Select("COUNT(*)").From("sent_links").Where(sq.Eq{"link": link}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}
	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("check posted: %w", err)
	}
	return count > 0, nil
}

// RecordPosted inserts the post unless its link is already present.
func (s *SQL) RecordPosted(ctx context.Context, post model.Post) (bool, error) {
	sentAt := post.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}
	query, args, err := s.qb.Insert("sent_links").
		Columns("link", "title", "source", "sent_at").
		Values(post.Link, post.Title, post.Source, sentAt.UTC().Format(timeLayout)).
		Suffix("ON CONFLICT (link) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}
	return s.execAffected(ctx, "record posted", query, args)
}

// RecentPosts returns the newest recorded posts.
func (s *SQL) RecentPosts(ctx context.Context, limit int) ([]model.Post, error) {
	if limit <= 0 {
		return nil, nil
	}
	query, args, err := s.qb.Select("link", "title", "source", "sent_at").
		From("sent_links").
		OrderBy("sent_at DESC", "link").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var posts []model.Post
	for rows.Next() {
		var p model.Post
		var sentAt string
		if err := rows.Scan(&p.Link, &p.Title, &p.Source, &sentAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		t, err := time.Parse(timeLayout, sentAt)
		if err != nil {
			return nil, fmt.Errorf("parse sent_at of %s: %w", p.Link, err)
		}
		p.SentAt = t
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ListSubscribers returns all subscribed chat IDs in ascending order.
func (s *SQL) ListSubscribers(ctx context.Context) ([]int64, error) {
	query, args, err := s.qb.Select("chat_id").From("subscribers").OrderBy("chat_id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query subscribers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddSubscriber subscribes a chat. Adding an existing subscriber is a no-op.
func (s *SQL) AddSubscriber(ctx context.Context, chatID int64) (bool, error) {
	now := time.Now().UTC().Format(timeLayout)
	query, args, err := s.qb.Insert("subscribers").
		Columns("chat_id", "created_at").
		Values(chatID, now).
		Suffix("ON CONFLICT (chat_id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}
	return s.execAffected(ctx, "add subscriber", query, args)
}

// RemoveSubscriber unsubscribes a chat. Removing an absent subscriber is a no-op.
func (s *SQL) RemoveSubscriber(ctx context.Context, chatID int64) (bool, error) {
	query, args, err := s.qb.Delete("subscribers").Where(sq.Eq{"chat_id": chatID}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}
	return s.execAffected(ctx, "remove subscriber", query, args)
}

func (s *SQL) execAffected(ctx context.Context, op, query string, args []any) (bool, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: rows affected: %w", op, err)
	}
	return n > 0, nil
}
