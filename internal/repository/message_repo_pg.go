package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository interface {
	GetThread(ctx context.Context, id int64) (*domain.Thread, error)
	GetThreadByKey(ctx context.Context, key string) (*domain.Thread, error)
	CreateThread(ctx context.Context, thread *domain.Thread) error
	ListThreadsForUser(ctx context.Context, userID int64) ([]domain.Thread, error)
	CreateMessage(ctx context.Context, msg *domain.Message) error
	GetMessage(ctx context.Context, id int64) (*domain.Message, error)
	ListAfter(ctx context.Context, threadID, afterID int64, limit int) ([]domain.Message, error)
	Flag(ctx context.Context, id, by int64, reason string, at time.Time) error
	Hide(ctx context.Context, id int64) error
}

type PGMessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) MessageRepository {
	return &PGMessageRepository{db: db}
}

const threadColumns = `t.id, t.thread_key, t.owner_id, t.participant_id, COALESCE(t.resource_id, 0), t.created_at, COALESCE(r.title, '')`

func scanThread(row rowScanner) (*domain.Thread, error) {
	var t domain.Thread
	if err := row.Scan(&t.ID, &t.ThreadKey, &t.OwnerID, &t.ParticipantID, &t.ResourceID, &t.CreatedAt, &t.ResourceTitle); err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (r *PGMessageRepository) GetThread(ctx context.Context, id int64) (*domain.Thread, error) {
	return scanThread(r.db.QueryRow(ctx, `SELECT `+threadColumns+`
		FROM message_threads t LEFT JOIN resources r ON r.id = t.resource_id WHERE t.id=$1`, id))
}

func (r *PGMessageRepository) GetThreadByKey(ctx context.Context, key string) (*domain.Thread, error) {
	return scanThread(r.db.QueryRow(ctx, `SELECT `+threadColumns+`
		FROM message_threads t LEFT JOIN resources r ON r.id = t.resource_id WHERE t.thread_key=$1`, key))
}

func (r *PGMessageRepository) CreateThread(ctx context.Context, thread *domain.Thread) error {
	var resourceID *int64
	if thread.ResourceID > 0 {
		resourceID = &thread.ResourceID
	}
	err := r.db.QueryRow(ctx, `INSERT INTO message_threads (thread_key, owner_id, participant_id, resource_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`, thread.ThreadKey, thread.OwnerID, thread.ParticipantID, resourceID).
		Scan(&thread.ID, &thread.CreatedAt)
	return mapErr(err)
}

func (r *PGMessageRepository) ListThreadsForUser(ctx context.Context, userID int64) ([]domain.Thread, error) {
	rows, err := r.db.Query(ctx, `SELECT `+threadColumns+`, last.created_at, COALESCE(last.content, '')
		FROM message_threads t
		LEFT JOIN resources r ON r.id = t.resource_id
		LEFT JOIN LATERAL (
			SELECT m.created_at, m.content FROM messages m
			WHERE m.thread_id = t.id AND NOT m.is_hidden ORDER BY m.id DESC LIMIT 1
		) last ON true
		WHERE t.owner_id=$1 OR t.participant_id=$1
		ORDER BY last.created_at DESC NULLS LAST, t.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	threads := make([]domain.Thread, 0)
	for rows.Next() {
		var t domain.Thread
		if err := rows.Scan(&t.ID, &t.ThreadKey, &t.OwnerID, &t.ParticipantID, &t.ResourceID, &t.CreatedAt, &t.ResourceTitle,
			&t.LastMessageAt, &t.LastMessageText); err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

func (r *PGMessageRepository) CreateMessage(ctx context.Context, msg *domain.Message) error {
	err := r.db.QueryRow(ctx, `WITH ins AS (
			INSERT INTO messages (thread_id, sender_id, receiver_id, content)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, sender_id
		)
		SELECT ins.id, ins.created_at, u.name FROM ins JOIN users u ON u.id = ins.sender_id`,
		msg.ThreadID, msg.SenderID, msg.ReceiverID, msg.Content).
		Scan(&msg.ID, &msg.Timestamp, &msg.SenderName)
	return mapErr(err)
}

const messageColumns = `m.id, m.thread_id, m.sender_id, u.name, m.receiver_id, m.content, m.created_at,
	m.is_flagged, m.flag_reason, m.flagged_by, m.flagged_at, m.is_hidden`

func scanMessage(row rowScanner) (*domain.Message, error) {
	var m domain.Message
	if err := row.Scan(&m.ID, &m.ThreadID, &m.SenderID, &m.SenderName, &m.ReceiverID, &m.Content, &m.Timestamp,
		&m.IsFlagged, &m.FlagReason, &m.FlaggedBy, &m.FlaggedAt, &m.IsHidden); err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

func (r *PGMessageRepository) GetMessage(ctx context.Context, id int64) (*domain.Message, error) {
	return scanMessage(r.db.QueryRow(ctx, `SELECT `+messageColumns+`
		FROM messages m JOIN users u ON u.id = m.sender_id WHERE m.id=$1`, id))
}

// ListAfter returns visible messages with id > afterID in ascending id order.
func (r *PGMessageRepository) ListAfter(ctx context.Context, threadID, afterID int64, limit int) ([]domain.Message, error) {
	rows, err := r.db.Query(ctx, `SELECT `+messageColumns+`
		FROM messages m JOIN users u ON u.id = m.sender_id
		WHERE m.thread_id=$1 AND m.id > $2 AND NOT m.is_hidden
		ORDER BY m.id ASC LIMIT $3`, threadID, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := make([]domain.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}

func (r *PGMessageRepository) Flag(ctx context.Context, id, by int64, reason string, at time.Time) error {
	cmd, err := r.db.Exec(ctx, `UPDATE messages SET is_flagged=true, flag_reason=$2, flagged_by=$3, flagged_at=$4 WHERE id=$1`,
		id, reason, by, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PGMessageRepository) Hide(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE messages SET is_hidden=true WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ MessageRepository = (*PGMessageRepository)(nil)
