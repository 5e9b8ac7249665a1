// Package postqueue persists scheduled posts and delivers them when due.
// The scheduled_posts table is an append-only audit trail shared across
// sessions: rows are created PENDING and move exactly once to PUBLISHED or
// FAILED, never deleted.
package postqueue

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/storieswithjai/ghostflow/pkg/collab"
)

// ErrNotPending is returned by Mark when the target row is missing or has
// already reached a terminal status.
var ErrNotPending = errors.New("scheduled post is not pending")

// SQLiteStore is a collab.ScheduledPostStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"); the same database as the checkpoint store works
// fine.
type SQLiteStore struct {
	db *sql.DB
}

var _ collab.ScheduledPostStore = (*SQLiteStore)(nil)

// NewSQLiteStore initializes the required schema in the given database and
// returns a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS scheduled_posts (
			id TEXT PRIMARY KEY,
			draft_text TEXT NOT NULL,
			image_url TEXT,
			scheduled_time TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'PENDING',
			created_at TEXT NOT NULL,
			error_msg TEXT
		);`,
	)
	return err
}

func (s *SQLiteStore) Add(ctx context.Context, draftText, imageURL string, at time.Time) (string, error) {
	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scheduled_posts (id, draft_text, image_url, scheduled_time, status, created_at, error_msg)
		VALUES (?, ?, ?, ?, ?, ?, '')`,
		id,
		draftText,
		imageURL,
		at.UTC().Format(time.RFC3339Nano),
		string(collab.PostPending),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *SQLiteStore) DuePosts(ctx context.Context, now time.Time) ([]collab.ScheduledPost, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, draft_text, image_url, scheduled_time, status, created_at, error_msg
		FROM scheduled_posts
		WHERE status = ? AND scheduled_time <= ?
		ORDER BY scheduled_time`,
		string(collab.PostPending),
		now.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []collab.ScheduledPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

// Mark transitions a pending post to the given terminal status. The WHERE
// clause makes terminal statuses sticky: a row that is already PUBLISHED or
// FAILED cannot be resurrected.
func (s *SQLiteStore) Mark(ctx context.Context, id string, status collab.PostStatus, errMsg string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE scheduled_posts
		SET status = ?, error_msg = ?
		WHERE id = ? AND status = ?`,
		string(status),
		errMsg,
		id,
		string(collab.PostPending),
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotPending
	}
	return nil
}

// Get returns a single post by ID, mostly for inspection and tests.
func (s *SQLiteStore) Get(ctx context.Context, id string) (collab.ScheduledPost, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, draft_text, image_url, scheduled_time, status, created_at, error_msg
		FROM scheduled_posts
		WHERE id = ?`,
		id,
	)
	return scanPost(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(r rowScanner) (collab.ScheduledPost, error) {
	var (
		post         collab.ScheduledPost
		statusStr    string
		scheduledStr string
		createdStr   string
		imageURL     sql.NullString
		errMsg       sql.NullString
	)

	if err := r.Scan(&post.ID, &post.DraftText, &imageURL, &scheduledStr, &statusStr, &createdStr, &errMsg); err != nil {
		return collab.ScheduledPost{}, err
	}

	post.Status = collab.PostStatus(statusStr)
	post.ImageURL = imageURL.String
	post.ErrorMessage = errMsg.String

	scheduled, err := time.Parse(time.RFC3339Nano, scheduledStr)
	if err != nil {
		return collab.ScheduledPost{}, err
	}
	post.ScheduledTime = scheduled

	created, err := time.Parse(time.RFC3339Nano, createdStr)
	if err != nil {
		return collab.ScheduledPost{}, err
	}
	post.CreatedAt = created

	return post, nil
}
