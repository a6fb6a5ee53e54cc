package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "go-chatline/internal/pkg/chat/application/domain"
	repository "go-chatline/internal/repository/port"
)

type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

var _ repository.UserRepository = (*PgUserRepository)(nil)

func (r *PgUserRepository) FindByID(ctx context.Context, id string) (*chat.User, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgUserRepository: nil pool")
	}
	var u chat.User
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, username, email, avatar, created_at
		FROM chat."user"
		WHERE id = $1::uuid
	`, id).Scan(&u.ID, &u.Username, &u.Email, &u.Avatar, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, chat.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PgUserRepository) ListUsersExcept(ctx context.Context, excludeID string) ([]chat.User, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgUserRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, username, email, avatar, created_at
		FROM chat."user"
		WHERE id <> $1::uuid
		ORDER BY username
	`, excludeID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (chat.User, error) {
		var u chat.User
		err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Avatar, &u.CreatedAt)
		return u, err
	})
}

func (r *PgUserRepository) GetPushSubscription(ctx context.Context, userID string) (*chat.PushSubscription, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgUserRepository: nil pool")
	}
	var sub chat.PushSubscription
	err := r.pool.QueryRow(ctx, `
		SELECT endpoint, p256dh, auth
		FROM chat.push_subscription
		WHERE user_id = $1::uuid
	`, userID).Scan(&sub.Endpoint, &sub.Keys.P256dh, &sub.Keys.Auth)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *PgUserRepository) SavePushSubscription(ctx context.Context, userID string, sub chat.PushSubscription) error {
	if r == nil || r.pool == nil {
		return errors.New("PgUserRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat.push_subscription (user_id, endpoint, p256dh, auth, updated_at)
		VALUES ($1::uuid, $2, $3, $4, now())
		ON CONFLICT (user_id)
		DO UPDATE SET endpoint = EXCLUDED.endpoint,
		              p256dh = EXCLUDED.p256dh,
		              auth = EXCLUDED.auth,
		              updated_at = EXCLUDED.updated_at
	`, userID, sub.Endpoint, sub.Keys.P256dh, sub.Keys.Auth)
	return err
}
