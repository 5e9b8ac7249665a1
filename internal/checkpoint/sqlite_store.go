package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/storieswithjai/ghostflow/pkg/flow"
)

// SQLiteStore is a Store backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

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
		CREATE TABLE IF NOT EXISTS sessions (
			session_key TEXT PRIMARY KEY,
			state BLOB,
			cursor BLOB,
			updated_at TEXT NOT NULL
		);`,
	)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, sessionKey string) (Checkpoint, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT state, cursor
		FROM sessions
		WHERE session_key = ?`,
		sessionKey,
	)

	var stateBytes, cursorBytes []byte
	if err := row.Scan(&stateBytes, &cursorBytes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Checkpoint{}, ErrNotFound
		}
		return Checkpoint{}, err
	}

	state, err := decodeState(stateBytes)
	if err != nil {
		return Checkpoint{}, err
	}
	cursor, err := decodeCursor(cursorBytes)
	if err != nil {
		return Checkpoint{}, err
	}

	return Checkpoint{State: state, Cursor: cursor}, nil
}

func (s *SQLiteStore) Put(ctx context.Context, sessionKey string, cp Checkpoint) error {
	stateBytes, err := encodeState(cp.State)
	if err != nil {
		return err
	}
	cursorBytes, err := encodeCursor(cp.Cursor)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_key, state, cursor, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_key) DO UPDATE SET
			state = excluded.state,
			cursor = excluded.cursor,
			updated_at = excluded.updated_at`,
		sessionKey,
		stateBytes,
		cursorBytes,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// PatchFields merges the update into the stored state inside a transaction,
// leaving the cursor column untouched.
func (s *SQLiteStore) PatchFields(ctx context.Context, sessionKey string, u flow.Update) (flow.State, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return flow.State{}, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT state
		FROM sessions
		WHERE session_key = ?`,
		sessionKey,
	)

	var stateBytes []byte
	if err := row.Scan(&stateBytes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return flow.State{}, ErrNotFound
		}
		return flow.State{}, err
	}

	state, err := decodeState(stateBytes)
	if err != nil {
		return flow.State{}, err
	}

	state = state.Merge(u)

	newBytes, err := encodeState(state)
	if err != nil {
		return flow.State{}, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE sessions
		SET state = ?, updated_at = ?
		WHERE session_key = ?`,
		newBytes,
		time.Now().UTC().Format(time.RFC3339Nano),
		sessionKey,
	); err != nil {
		return flow.State{}, err
	}

	if err := tx.Commit(); err != nil {
		return flow.State{}, err
	}

	return state, nil
}
