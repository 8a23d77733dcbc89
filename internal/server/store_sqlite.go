package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/groupplay/invitequest/internal/engine"
	"github.com/groupplay/invitequest/internal/gate"
	"github.com/groupplay/invitequest/internal/quest"
)

// SQLiteStore persists player progress, the invite audit log, group
// thresholds, and admin sessions. It implements engine.Store and the server's
// Store interface.
type SQLiteStore struct {
	db *sql.DB

	// mu serializes read-modify-write player updates. SQLite has a single
	// writer anyway; the mutex keeps the SELECT and UPDATE of one mutation
	// from interleaving with another's inside the busy-timeout window.
	mu sync.Mutex
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const playerColumns = `user_id, username, level, lives, current_game, invites, started_at, failures, score`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (quest.Player, error) {
	var p quest.Player
	var startedAt string
	err := row.Scan(&p.ID, &p.Username, &p.Level, &p.Lives, &p.CurrentGame,
		&p.Invites, &startedAt, &p.Failures, &p.Score)
	if errors.Is(err, sql.ErrNoRows) {
		return p, engine.ErrNotRegistered
	}
	if err != nil {
		return p, err
	}
	p.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return p, fmt.Errorf("parsing started_at: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) Player(ctx context.Context, id int64) (quest.Player, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+playerColumns+` FROM players WHERE user_id = ?
	`, id)
	return scanPlayer(row)
}

func (s *SQLiteStore) CreatePlayer(ctx context.Context, p quest.Player) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO players (user_id, username, level, lives, current_game, invites, started_at, failures, score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Username, p.Level, p.Lives, p.CurrentGame, p.Invites,
		p.StartedAt.UTC().Format(time.RFC3339Nano), p.Failures, p.Score)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return engine.ErrAlreadyRegistered
	}
	return nil
}

// UpdatePlayer applies mutate inside a single transaction so concurrent
// events for the same user never lose each other's writes.
func (s *SQLiteStore) UpdatePlayer(ctx context.Context, id int64, mutate func(*quest.Player) error) (quest.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return quest.Player{}, fmt.Errorf("beginning update: %w", err)
	}
	defer tx.Rollback()

	p, err := scanPlayer(tx.QueryRowContext(ctx, `
		SELECT `+playerColumns+` FROM players WHERE user_id = ?
	`, id))
	if err != nil {
		return quest.Player{}, err
	}

	if err := mutate(&p); err != nil {
		return quest.Player{}, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE players
		SET username = ?, level = ?, lives = ?, current_game = ?, invites = ?, failures = ?, score = ?
		WHERE user_id = ?
	`, p.Username, p.Level, p.Lives, p.CurrentGame, p.Invites, p.Failures, p.Score, id)
	if err != nil {
		return quest.Player{}, fmt.Errorf("updating player %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return quest.Player{}, fmt.Errorf("committing update: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) AppendInvite(ctx context.Context, inviterID, inviteeID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invites (inviter_id, invitee_id, created_at)
		VALUES (?, ?, ?)
	`, inviterID, inviteeID, at.UTC().Format(time.RFC3339Nano))
	return err
}

func (s *SQLiteStore) HasInvite(ctx context.Context, inviterID, inviteeID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM invites WHERE inviter_id = ? AND invitee_id = ? LIMIT 1
	`, inviterID, inviteeID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLiteStore) TopPlayers(ctx context.Context, limit int) ([]quest.Player, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+playerColumns+` FROM players
		WHERE score > 0 AND level = ?
		ORDER BY score DESC
		LIMIT ?
	`, quest.CompletedLevel, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var top []quest.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		top = append(top, p)
	}
	return top, rows.Err()
}

func (s *SQLiteStore) GroupThreshold(ctx context.Context, groupID int64) (int, error) {
	var threshold int
	err := s.db.QueryRowContext(ctx, `
		SELECT threshold FROM groups WHERE group_id = ?
	`, groupID).Scan(&threshold)
	if errors.Is(err, sql.ErrNoRows) {
		return gate.DefaultThreshold, nil
	}
	return threshold, err
}

func (s *SQLiteStore) SetGroupThreshold(ctx context.Context, groupID int64, threshold int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO groups (group_id, threshold) VALUES (?, ?)
		ON CONFLICT(group_id) DO UPDATE SET threshold = excluded.threshold
	`, groupID, threshold)
	return err
}

func (s *SQLiteStore) AdminByEmail(ctx context.Context, email string) (string, string, error) {
	var adminID, passwordHash string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, password_hash FROM admins WHERE email = ?
	`, email).Scan(&adminID, &passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", ErrNotFound
	}
	return adminID, passwordHash, err
}

func (s *SQLiteStore) CreateAdminSession(ctx context.Context, adminID string) (string, error) {
	var sessionID string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO admin_sessions (admin_id)
		VALUES (?)
		RETURNING id
	`, adminID).Scan(&sessionID)
	return sessionID, err
}

func (s *SQLiteStore) DeleteAdminSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE id = ?`, sessionID)
	return err
}

func (s *SQLiteStore) AdminFromSession(ctx context.Context, sessionID string) (adminSession, error) {
	var sess adminSession
	err := s.db.QueryRowContext(ctx, `
		SELECT a.id, a.email
		FROM admin_sessions s
		JOIN admins a ON a.id = s.admin_id
		WHERE s.id = ?
	`, sessionID).Scan(&sess.AdminID, &sess.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return adminSession{}, errNoAdminSession
	}
	return sess, err
}

// EnsureAdmin creates or refreshes the admin account used for the threshold
// endpoints. Called at boot with the configured credentials.
func (s *SQLiteStore) EnsureAdmin(ctx context.Context, email, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admins (id, email, password_hash)
		VALUES (lower(hex(randomblob(16))), ?, ?)
		ON CONFLICT(email) DO UPDATE SET password_hash = excluded.password_hash
	`, email, passwordHash)
	return err
}

var (
	_ Store        = (*SQLiteStore)(nil)
	_ engine.Store = (*SQLiteStore)(nil)
)
