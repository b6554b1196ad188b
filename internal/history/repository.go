package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/tildaslashalef/chatmerge/internal/dataset"
	"github.com/tildaslashalef/chatmerge/internal/loggy"
	"github.com/tildaslashalef/chatmerge/internal/ulid"
)

// ErrNotFound is returned when a session id is unknown
var ErrNotFound = errors.New("merge session not found")

// Repository stores merge sessions
type Repository interface {
	// CreateSession inserts a finished session
	CreateSession(ctx context.Context, s *Session) error

	// GetSession retrieves a session by id
	GetSession(ctx context.Context, id ulid.ULID) (*Session, error)

	// ListSessions retrieves sessions newest first
	ListSessions(ctx context.Context, opts ListOptions) ([]*Session, error)

	// DeleteSession removes a session
	DeleteSession(ctx context.Context, id ulid.ULID) error
}

var sessionColumns = []string{
	"id", "label", "master_dataset", "slave_dataset", "status",
	"chats_merged", "chats_added", "users_replaced", "users_added", "chats_skipped",
	"error_message", "request", "started_at", "completed_at",
}

// SQLRepository implements Repository on SQLite
type SQLRepository struct {
	db      *sql.DB
	logger  *loggy.Logger
	builder sq.StatementBuilderType
}

// NewSQLRepository creates a new SQL repository
func NewSQLRepository(db *sql.DB, logger *loggy.Logger) *SQLRepository {
	return &SQLRepository{
		db:      db,
		logger:  logger,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

// CreateSession inserts a finished session
func (r *SQLRepository) CreateSession(ctx context.Context, s *Session) error {
	var request any
	if len(s.Request) > 0 {
		request = string(s.Request)
	}

	query, args, err := r.builder.Insert("merge_sessions").
		Columns(sessionColumns...).
		Values(
			s.ID, s.Label, string(s.MasterDataset), string(s.SlaveDataset), string(s.Status),
			s.ChatsMerged, s.ChatsAdded, s.UsersReplaced, s.UsersAdded, s.ChatsSkipped,
			s.ErrorMessage, request, s.StartedAt, s.CompletedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("building create session query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("executing create session query: %w", err)
	}

	r.logger.Debug("Recorded merge session", "session_id", s.ID.String(), "status", s.Status)
	return nil
}

// GetSession retrieves a session by id
func (r *SQLRepository) GetSession(ctx context.Context, id ulid.ULID) (*Session, error) {
	query, args, err := r.builder.Select(sessionColumns...).
		From("merge_sessions").
		Where(sq.Eq{"id": id.String()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building get session query: %w", err)
	}

	s, err := scanSession(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("executing get session query: %w", err)
	}
	return s, nil
}

// ListSessions retrieves sessions newest first
func (r *SQLRepository) ListSessions(ctx context.Context, opts ListOptions) ([]*Session, error) {
	q := r.builder.Select(sessionColumns...).
		From("merge_sessions").
		OrderBy("completed_at DESC")

	if opts.MasterDataset != "" {
		q = q.Where(sq.Eq{"master_dataset": string(opts.MasterDataset)})
	}
	if opts.SlaveDataset != "" {
		q = q.Where(sq.Eq{"slave_dataset": string(opts.SlaveDataset)})
	}
	if opts.Status != "" {
		q = q.Where(sq.Eq{"status": string(opts.Status)})
	}
	if opts.Limit > 0 {
		q = q.Limit(uint64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Offset(uint64(opts.Offset))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list sessions query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing list sessions query: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session rows: %w", err)
	}

	return sessions, nil
}

// DeleteSession removes a session
func (r *SQLRepository) DeleteSession(ctx context.Context, id ulid.ULID) error {
	query, args, err := r.builder.Delete("merge_sessions").
		Where(sq.Eq{"id": id.String()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building delete session query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("executing delete session query: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		s       Session
		master  string
		slave   string
		status  string
		request sql.NullString
	)

	err := row.Scan(
		&s.ID, &s.Label, &master, &slave, &status,
		&s.ChatsMerged, &s.ChatsAdded, &s.UsersReplaced, &s.UsersAdded, &s.ChatsSkipped,
		&s.ErrorMessage, &request, &s.StartedAt, &s.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	s.MasterDataset = dataset.Ref(master)
	s.SlaveDataset = dataset.Ref(slave)
	s.Status = Status(status)
	if request.Valid {
		s.Request = []byte(request.String)
	}
	return &s, nil
}
