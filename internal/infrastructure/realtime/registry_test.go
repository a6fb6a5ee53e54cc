package realtime

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-chatline/internal/infrastructure/realtime/realtimetest"
)

const waitTimeout = 2 * time.Second

func newTestConn(t *testing.T, userID string) (*Connection, *realtimetest.Socket) {
	t.Helper()
	sock := realtimetest.NewSocket()
	return NewConnection(userID, sock, 16), sock
}

func lastPresence(t *testing.T, sock *realtimetest.Socket, n int) []string {
	t.Helper()
	frames := sock.WaitFor("onlineUsers", n, waitTimeout)
	require.GreaterOrEqual(t, len(frames), n, "expected %d presence frames", n)
	var ids []string
	require.NoError(t, json.Unmarshal(frames[len(frames)-1].Payload, &ids))
	return ids
}

func TestRegistry_PresenceFollowsRegistry(t *testing.T) {
	reg := NewRegistry(zerolog.Nop(), nil)
	defer reg.Close()

	alice, aliceSock := newTestConn(t, "alice")
	require.NoError(t, reg.Register(alice))
	assert.Equal(t, []string{"alice"}, lastPresence(t, aliceSock, 1))

	bob, bobSock := newTestConn(t, "bob")
	require.NoError(t, reg.Register(bob))
	assert.Equal(t, []string{"alice", "bob"}, lastPresence(t, aliceSock, 2))
	assert.Equal(t, []string{"alice", "bob"}, lastPresence(t, bobSock, 1))

	assert.True(t, reg.Unregister(bob.ID))
	assert.Equal(t, []string{"alice"}, lastPresence(t, aliceSock, 3))
	assert.False(t, reg.HasConnection("bob"))
	assert.Equal(t, reg.OnlineUsers(), lastPresence(t, aliceSock, 3))
}

func TestRegistry_UnregisterIsIdempotent(t *testing.T) {
	reg := NewRegistry(zerolog.Nop(), nil)
	defer reg.Close()

	alice, aliceSock := newTestConn(t, "alice")
	bob, _ := newTestConn(t, "bob")
	require.NoError(t, reg.Register(alice))
	require.NoError(t, reg.Register(bob))
	lastPresence(t, aliceSock, 2)

	assert.True(t, reg.Unregister(bob.ID))
	assert.False(t, reg.Unregister(bob.ID))
	assert.False(t, reg.Unregister("unknown"))

	// only the first removal announces presence
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, aliceSock.FramesOfType("onlineUsers"), 3)
}

func TestRegistry_MultipleConnectionsPerUser(t *testing.T) {
	reg := NewRegistry(zerolog.Nop(), nil)
	defer reg.Close()

	tab1, _ := newTestConn(t, "alice")
	tab2, _ := newTestConn(t, "alice")
	require.NoError(t, reg.Register(tab1, "g1"))
	require.NoError(t, reg.Register(tab2))

	assert.Len(t, reg.Lookup("alice"), 2)
	assert.Equal(t, []string{"alice"}, reg.OnlineUsers())

	reg.Unregister(tab1.ID)
	assert.True(t, reg.HasConnection("alice"), "second tab keeps the user online")
	assert.Empty(t, reg.RoomConnections("g1"))

	reg.Unregister(tab2.ID)
	assert.False(t, reg.HasConnection("alice"))
	assert.Empty(t, reg.Lookup("alice"))
}

func TestRegistry_Rooms(t *testing.T) {
	reg := NewRegistry(zerolog.Nop(), nil)
	defer reg.Close()

	alice, _ := newTestConn(t, "alice")
	bob, _ := newTestConn(t, "bob")
	require.NoError(t, reg.Register(alice, "g1", "g2"))
	require.NoError(t, reg.Register(bob, "g1"))

	assert.Len(t, reg.RoomConnections("g1"), 2)
	assert.Len(t, reg.RoomConnections("g2"), 1)
	assert.True(t, reg.InRoom(bob.ID, "g1"))
	assert.False(t, reg.InRoom(bob.ID, "g2"))

	assert.Equal(t, 1, reg.JoinUser("g2", "bob"))
	assert.Equal(t, 0, reg.JoinUser("g2", "carol"))
	assert.True(t, reg.InRoom(bob.ID, "g2"))

	reg.DropRoom("g1")
	assert.Empty(t, reg.RoomConnections("g1"))
	assert.False(t, reg.InRoom(alice.ID, "g1"))
	assert.True(t, reg.InRoom(alice.ID, "g2"))
}

func TestRegistry_ConcurrentChurnKeepsPresenceConsistent(t *testing.T) {
	reg := NewRegistry(zerolog.Nop(), nil)
	defer reg.Close()

	obsSock := realtimetest.NewSocket()
	observer := NewConnection("observer", obsSock, 128)
	require.NoError(t, reg.Register(observer))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := "u" + string(rune('a'+i%5))
			conn, _ := newTestConn(t, user)
			if err := reg.Register(conn); err != nil {
				return
			}
			reg.Unregister(conn.ID)
		}(i)
	}
	wg.Wait()

	// 1 own register + 20 registers + 20 unregisters
	assert.Equal(t, []string{"observer"}, lastPresence(t, obsSock, 41))
	assert.Equal(t, []string{"observer"}, reg.OnlineUsers())
}

func TestRegistry_Close(t *testing.T) {
	reg := NewRegistry(zerolog.Nop(), nil)

	alice, aliceSock := newTestConn(t, "alice")
	require.NoError(t, reg.Register(alice))

	reg.Close()
	assert.Eventually(t, aliceSock.Closed, waitTimeout, 10*time.Millisecond)
	assert.Empty(t, reg.OnlineUsers())

	late, _ := newTestConn(t, "bob")
	assert.ErrorIs(t, reg.Register(late), ErrRegistryClosed)
}

func TestConnection_SlowConsumerIsClosed(t *testing.T) {
	sock := realtimetest.NewSocket()
	conn := NewConnection("alice", sock, 1)

	// write loop not started, so the buffer fills after one frame
	require.NoError(t, conn.Send([]byte(`{"type":"a"}`)))
	assert.ErrorIs(t, conn.Send([]byte(`{"type":"b"}`)), ErrBufferExceeded)
	assert.True(t, conn.Closed())
	assert.ErrorIs(t, conn.Send([]byte(`{"type":"c"}`)), ErrConnectionClosed)
	assert.Eventually(t, sock.Closed, waitTimeout, 10*time.Millisecond)
}
