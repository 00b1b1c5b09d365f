package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/sidechat/sidechat-server/internal/store"
)

// schema is applied on open. The partial unique index enforces the
// one-pending-request-per-ordered-pair invariant at the storage layer.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	username      TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS friends (
	username TEXT NOT NULL,
	friend   TEXT NOT NULL,
	PRIMARY KEY (username, friend)
);

CREATE TABLE IF NOT EXISTS requests (
	id         TEXT PRIMARY KEY,
	from_user  TEXT NOT NULL,
	to_user    TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'pending',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_requests_pending
	ON requests(from_user, to_user) WHERE status = 'pending';

CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	from_user  TEXT NOT NULL,
	to_user    TEXT NOT NULL,
	kind       TEXT NOT NULL DEFAULT 'text',
	text       TEXT NOT NULL DEFAULT '',
	payload    TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages(from_user, to_user);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file, or ":memory:" for tests.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func isConstraintErr(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) (*store.User, error) {
	query := `INSERT INTO users (username, password_hash) VALUES (?, ?)`
	if _, err := s.db.ExecContext(ctx, query, username, passwordHash); err != nil {
		if isConstraintErr(err) {
			return nil, store.ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetUser(ctx, username)
}

// GetUser retrieves a user with their friend set.
func (s *SQLiteStore) GetUser(ctx context.Context, username string) (*store.User, error) {
	query := `SELECT username, password_hash, created_at FROM users WHERE username = ?`

	var user store.User
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	friends, err := s.listFriends(ctx, username)
	if err != nil {
		return nil, err
	}
	user.Friends = friends

	return &user, nil
}

// ListUsers lists all users with their friend sets.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*store.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT username, created_at FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []*store.User
	for rows.Next() {
		var user store.User
		if err := rows.Scan(&user.Username, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	for _, user := range users {
		friends, err := s.listFriends(ctx, user.Username)
		if err != nil {
			return nil, err
		}
		user.Friends = friends
	}

	return users, nil
}

// UpdateUser renames a user and/or replaces their password hash.
// A rename also rewrites friend rows so the relation stays consistent.
func (s *SQLiteStore) UpdateUser(ctx context.Context, username, newUsername, newPasswordHash string) (*store.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	current := username
	if newUsername != "" && newUsername != username {
		res, err := tx.ExecContext(ctx, `UPDATE users SET username = ? WHERE username = ?`, newUsername, username)
		if err != nil {
			if isConstraintErr(err) {
				return nil, store.ErrDuplicate
			}
			return nil, fmt.Errorf("rename user: %w", err)
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			return nil, store.ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, `UPDATE friends SET username = ? WHERE username = ?`, newUsername, username); err != nil {
			return nil, fmt.Errorf("rename friend rows: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE friends SET friend = ? WHERE friend = ?`, newUsername, username); err != nil {
			return nil, fmt.Errorf("rename friend refs: %w", err)
		}
		current = newUsername
	}

	if newPasswordHash != "" {
		res, err := tx.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE username = ?`, newPasswordHash, current)
		if err != nil {
			return nil, fmt.Errorf("update password: %w", err)
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			return nil, store.ErrNotFound
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return s.GetUser(ctx, current)
}

// AreFriends reports whether other is in username's friend set.
func (s *SQLiteStore) AreFriends(ctx context.Context, username, other string) (bool, error) {
	query := `SELECT COUNT(1) FROM friends WHERE username = ? AND friend = ?`

	var count int
	if err := s.db.QueryRowContext(ctx, query, username, other).Scan(&count); err != nil {
		return false, fmt.Errorf("query friendship: %w", err)
	}
	return count > 0, nil
}

func (s *SQLiteStore) listFriends(ctx context.Context, username string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT friend FROM friends WHERE username = ? ORDER BY friend`, username)
	if err != nil {
		return nil, fmt.Errorf("query friends: %w", err)
	}
	defer rows.Close()

	var friends []string
	for rows.Next() {
		var friend string
		if err := rows.Scan(&friend); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		friends = append(friends, friend)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate friends: %w", err)
	}
	return friends, nil
}

// ==== MessageStore implementation ====

// SaveMessage persists a message and fills in its ID and CreatedAt.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO messages (from_user, to_user, kind, text, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, msg.From, msg.To, string(msg.Kind), msg.Text, msg.Payload, now)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	msg.ID = id
	msg.CreatedAt = now
	return nil
}

// ==== RequestStore implementation ====

// CreateRequest inserts a new pending request.
func (s *SQLiteStore) CreateRequest(ctx context.Context, from, to string) (*store.FriendRequest, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	query := `
		INSERT INTO requests (id, from_user, to_user, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, id, from, to, string(store.StatusPending), now, now); err != nil {
		if isConstraintErr(err) {
			return nil, store.ErrDuplicatePending
		}
		return nil, fmt.Errorf("insert request: %w", err)
	}

	return &store.FriendRequest{
		ID:        id,
		From:      from,
		To:        to,
		Status:    store.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetRequest retrieves a request by ID.
func (s *SQLiteStore) GetRequest(ctx context.Context, id string) (*store.FriendRequest, error) {
	return getRequest(ctx, s.db, id)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getRequest(ctx context.Context, q querier, id string) (*store.FriendRequest, error) {
	query := `
		SELECT id, from_user, to_user, status, created_at, updated_at
		FROM requests
		WHERE id = ?
	`
	var req store.FriendRequest
	var status string
	err := q.QueryRowContext(ctx, query, id).Scan(
		&req.ID,
		&req.From,
		&req.To,
		&status,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query request: %w", err)
	}
	req.Status = store.RequestStatus(status)
	return &req, nil
}

// DecideRequest moves a pending request to a terminal status. Accepting also
// writes both friendship directions; everything commits in one transaction.
func (s *SQLiteStore) DecideRequest(ctx context.Context, id string, status store.RequestStatus) (*store.FriendRequest, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	req, err := getRequest(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != store.StatusPending {
		return nil, store.ErrAlreadyDecided
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE requests SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), now, id,
	); err != nil {
		return nil, fmt.Errorf("update request: %w", err)
	}

	if status == store.StatusAccepted {
		for _, pair := range [][2]string{{req.From, req.To}, {req.To, req.From}} {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO friends (username, friend) VALUES (?, ?)`,
				pair[0], pair[1],
			); err != nil {
				return nil, fmt.Errorf("insert friendship: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	req.Status = status
	req.UpdatedAt = now
	return req, nil
}

// ListPendingRequests lists pending requests addressed to username, oldest first.
func (s *SQLiteStore) ListPendingRequests(ctx context.Context, username string) ([]*store.FriendRequest, error) {
	query := `
		SELECT id, from_user, to_user, status, created_at, updated_at
		FROM requests
		WHERE to_user = ? AND status = ?
		ORDER BY created_at ASC, rowid ASC
	`
	rows, err := s.db.QueryContext(ctx, query, username, string(store.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("query pending requests: %w", err)
	}
	defer rows.Close()

	var requests []*store.FriendRequest
	for rows.Next() {
		var req store.FriendRequest
		var status string
		if err := rows.Scan(&req.ID, &req.From, &req.To, &status, &req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		req.Status = store.RequestStatus(status)
		requests = append(requests, &req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}
	return requests, nil
}
