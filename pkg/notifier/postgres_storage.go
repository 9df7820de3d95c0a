package notifier

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yapplr/notify"
	"github.com/yapplr/notify/pkg/pg"
)

// PostgresStorage persists notification records in the notifications table
// created by the pkg/pg migrations.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresStorage(pool *pgxpool.Pool) *PostgresStorage {
	return &PostgresStorage{pool: pool}
}

// Ping reports whether the database is reachable. Asserted dynamically by
// the service's health check.
func (ps *PostgresStorage) Ping(ctx context.Context) error {
	return ps.pool.Ping(ctx)
}

// Create implements Storage. Re-inserting an id that is already stored is
// harmless, so a caller retrying after a crash cannot duplicate records.
func (ps *PostgresStorage) Create(ctx context.Context, n *Notification) error {
	_, err := ps.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, actor_id, type, message, post_id, comment_id, read, seen, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, FALSE, $8)`,
		n.ID, n.UserID, n.ActorID, n.Type, n.Message, n.PostID, n.CommentID, n.CreatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// List implements Storage, newest first, message-type excluded.
func (ps *PostgresStorage) List(ctx context.Context, userID uuid.UUID, page Page) ([]Notification, error) {
	rows, err := ps.pool.Query(ctx, `
		SELECT id, user_id, actor_id, type, message, post_id, comment_id, read, read_at, seen, seen_at, created_at
		FROM notifications
		WHERE user_id = $1 AND type <> $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		userID, notify.TypeMessage, page.Limit, page.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var items []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.ActorID, &n.Type, &n.Message,
			&n.PostID, &n.CommentID, &n.Read, &n.ReadAt, &n.Seen, &n.SeenAt, &n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

// CountUnread implements Storage using the partial unread index.
func (ps *PostgresStorage) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := ps.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM notifications
		WHERE user_id = $1 AND NOT read AND type <> $2`,
		userID, notify.TypeMessage,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

// MarkRead implements Storage. The read stamp is written once.
func (ps *PostgresStorage) MarkRead(ctx context.Context, id uuid.UUID) error {
	tag, err := ps.pool.Exec(ctx, `
		UPDATE notifications
		SET read = TRUE, read_at = now()
		WHERE id = $1 AND NOT read`,
		id,
	)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ps.ensureExists(ctx, id)
	}
	return nil
}

// MarkSeen implements Storage.
func (ps *PostgresStorage) MarkSeen(ctx context.Context, id uuid.UUID) error {
	tag, err := ps.pool.Exec(ctx, `
		UPDATE notifications
		SET seen = TRUE, seen_at = now()
		WHERE id = $1 AND NOT seen`,
		id,
	)
	if err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ps.ensureExists(ctx, id)
	}
	return nil
}

// MarkAllRead implements Storage as a single sweep over the partial unread
// index, message-type excluded.
func (ps *PostgresStorage) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	tag, err := ps.pool.Exec(ctx, `
		UPDATE notifications
		SET read = TRUE, read_at = now()
		WHERE user_id = $1 AND NOT read AND type <> $2`,
		userID, notify.TypeMessage,
	)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// MarkAllSeen implements Storage, message-type excluded.
func (ps *PostgresStorage) MarkAllSeen(ctx context.Context, userID uuid.UUID) (int, error) {
	tag, err := ps.pool.Exec(ctx, `
		UPDATE notifications
		SET seen = TRUE, seen_at = now()
		WHERE user_id = $1 AND NOT seen AND type <> $2`,
		userID, notify.TypeMessage,
	)
	if err != nil {
		return 0, fmt.Errorf("mark all seen: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ensureExists distinguishes "row missing" from "row already stamped" after
// a zero-row update.
func (ps *PostgresStorage) ensureExists(ctx context.Context, id uuid.UUID) error {
	var exists bool
	err := ps.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM notifications WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return ErrNotFound
		}
		return fmt.Errorf("check notification: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}
