package adapter

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-chatline/internal/infrastructure/database"
	chat "go-chatline/internal/pkg/chat/application/domain"
)

func TestPgUserRepository(t *testing.T) {
	dsn := os.Getenv("TEST_DB_URL")
	if dsn == "" {
		t.Skip("TEST_DB_URL not set")
	}
	ctx := context.Background()
	pool, err := database.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, database.Migrate(ctx, pool))

	var id string
	name := "user-" + uuid.NewString()
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO chat."user" (username, email) VALUES ($1, $2) RETURNING id::text`,
		name, name+"@example.com",
	).Scan(&id))

	repo := NewPgUserRepository(pool)

	u, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, name, u.Username)

	_, err = repo.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, chat.ErrNotFound)

	users, err := repo.ListUsersExcept(ctx, id)
	require.NoError(t, err)
	for _, other := range users {
		assert.NotEqual(t, id, other.ID)
	}

	sub, err := repo.GetPushSubscription(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, sub)

	want := chat.PushSubscription{Endpoint: "https://push.test/1", Keys: chat.PushKeys{P256dh: "p", Auth: "a"}}
	require.NoError(t, repo.SavePushSubscription(ctx, id, want))
	want.Endpoint = "https://push.test/2"
	require.NoError(t, repo.SavePushSubscription(ctx, id, want))

	sub, err = repo.GetPushSubscription(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, want, *sub)
}
