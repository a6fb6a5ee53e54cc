package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "go-chatline/internal/pkg/chat/application/domain"
	repository "go-chatline/internal/pkg/chat/persistence/repository/port"
)

type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

var _ repository.ChatRepository = (*PgChatRepository)(nil)

var errNilPool = errors.New("PgChatRepository: nil pool")

const messageColumns = `id::text, sender_id::text, COALESCE(receiver_id::text, ''), COALESCE(group_id::text, ''),
	content, msg_type, is_edited, COALESCE(reply_to_id::text, ''), created_at, updated_at`

func (r *PgChatRepository) CreateGroup(ctx context.Context, g chat.Group) (string, error) {
	if r == nil || r.pool == nil {
		return "", errNilPool
	}
	var id string
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO chat."group" (name, admin_id, created_at, updated_at)
			VALUES ($1, $2::uuid, $3, $4)
			RETURNING id::text
		`, g.Name, g.AdminID, g.CreatedAt, g.UpdatedAt).Scan(&id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO chat.group_member (group_id, user_id)
			SELECT $1::uuid, unnest($2::text[])::uuid
			ON CONFLICT DO NOTHING
		`, id, g.MemberIDs)
		return err
	})
	return id, err
}

func (r *PgChatRepository) GetGroup(ctx context.Context, groupID string) (*chat.Group, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	rows, err := r.pool.Query(ctx, `
		SELECT g.id::text, g.name, g.admin_id::text, g.created_at, g.updated_at,
		       ARRAY(SELECT m.user_id::text FROM chat.group_member m WHERE m.group_id = g.id ORDER BY m.user_id)
		FROM chat."group" g
		WHERE g.id = $1::uuid
	`, groupID)
	if err != nil {
		return nil, err
	}
	groups, err := collectGroups(rows)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("group %s: %w", groupID, chat.ErrNotFound)
	}
	return &groups[0], nil
}

func (r *PgChatRepository) ListGroupsForUser(ctx context.Context, userID string) ([]chat.Group, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	rows, err := r.pool.Query(ctx, `
		SELECT g.id::text, g.name, g.admin_id::text, g.created_at, g.updated_at,
		       ARRAY(SELECT m.user_id::text FROM chat.group_member m WHERE m.group_id = g.id ORDER BY m.user_id)
		FROM chat."group" g
		JOIN chat.group_member gm ON gm.group_id = g.id
		WHERE gm.user_id = $1::uuid
		ORDER BY g.updated_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return collectGroups(rows)
}

func (r *PgChatRepository) ListGroupIDsForUser(ctx context.Context, userID string) ([]string, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	rows, err := r.pool.Query(ctx, `
		SELECT group_id::text FROM chat.group_member WHERE user_id = $1::uuid
	`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *PgChatRepository) DeleteGroup(ctx context.Context, groupID string) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM chat.message WHERE group_id = $1::uuid`, groupID); err != nil {
		return err
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM chat."group" WHERE id = $1::uuid`, groupID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("group %s: %w", groupID, chat.ErrNotFound)
	}
	return nil
}

func (r *PgChatRepository) SaveMessage(ctx context.Context, m chat.Message) (string, error) {
	if r == nil || r.pool == nil {
		return "", errNilPool
	}
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chat.message (
			sender_id, receiver_id, group_id, content, msg_type, is_edited, reply_to_id, created_at, updated_at
		) VALUES ($1::uuid, NULLIF($2, '')::uuid, NULLIF($3, '')::uuid, $4, $5, $6, NULLIF($7, '')::uuid, $8, $9)
		RETURNING id::text
	`, m.SenderID, m.ReceiverID, m.GroupID, m.Content, string(m.Type), m.IsEdited, m.ReplyToID, m.CreatedAt, m.UpdatedAt).Scan(&id)
	return id, err
}

func (r *PgChatRepository) GetMessage(ctx context.Context, messageID string) (*chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	rows, err := r.pool.Query(ctx, `SELECT `+messageColumns+` FROM chat.message WHERE id = $1::uuid`, messageID)
	if err != nil {
		return nil, err
	}
	msgs, err := collectMessages(rows)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("message %s: %w", messageID, chat.ErrNotFound)
	}
	return &msgs[0], nil
}

func (r *PgChatRepository) UpdateMessage(ctx context.Context, m chat.Message) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE chat.message
		SET content = $2, is_edited = $3, updated_at = $4
		WHERE id = $1::uuid
	`, m.ID, m.Content, m.IsEdited, m.UpdatedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("message %s: %w", m.ID, chat.ErrNotFound)
	}
	return nil
}

func (r *PgChatRepository) DeleteMessage(ctx context.Context, messageID string) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM chat.message WHERE id = $1::uuid`, messageID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("message %s: %w", messageID, chat.ErrNotFound)
	}
	return nil
}

func (r *PgChatRepository) ListDirectMessages(ctx context.Context, userA, userB string) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM chat.message
		WHERE (sender_id = $1::uuid AND receiver_id = $2::uuid)
		   OR (sender_id = $2::uuid AND receiver_id = $1::uuid)
		ORDER BY created_at ASC
	`, userA, userB)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

func (r *PgChatRepository) ListGroupMessages(ctx context.Context, groupID string) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM chat.message
		WHERE group_id = $1::uuid
		ORDER BY created_at ASC
	`, groupID)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

func collectGroups(rows pgx.Rows) ([]chat.Group, error) {
	defer rows.Close()
	var groups []chat.Group
	for rows.Next() {
		var g chat.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.AdminID, &g.CreatedAt, &g.UpdatedAt, &g.MemberIDs); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return groups, nil
}

func collectMessages(rows pgx.Rows) ([]chat.Message, error) {
	defer rows.Close()
	var msgs []chat.Message
	for rows.Next() {
		var (
			msg     chat.Message
			msgType string
		)
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.GroupID,
			&msg.Content, &msgType, &msg.IsEdited, &msg.ReplyToID, &msg.CreatedAt, &msg.UpdatedAt); err != nil {
			return nil, err
		}
		msg.Type = chat.MessageType(msgType)
		msgs = append(msgs, msg)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return msgs, nil
}
