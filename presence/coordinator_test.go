package presence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duocall/backend/internal/errors"
	"github.com/duocall/backend/internal/log"
)

func newCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	return NewCoordinator(clockwork.NewFakeClock(), log.NewTest(t))
}

func TestJoinFirstDevice(t *testing.T) {
	c := newCoordinator(t)

	res, err := c.Join("c1", "r1", "alice", "d1", "Alice")
	require.NoError(t, err)

	assert.False(t, res.Compat)
	assert.False(t, res.AnotherDevice)
	assert.Equal(t, "alice", res.Session.UserID)
	assert.Equal(t, []string{"c1"}, res.Recipients)
	require.Len(t, res.Roster, 1)
	assert.Equal(t, RosterUser{UserID: "alice", Name: "Alice", Devices: []string{"d1"}}, res.Roster[0])
}

func TestJoinDefaultsNameToUserID(t *testing.T) {
	c := newCoordinator(t)

	res, err := c.Join("c1", "r1", "alice", "d1", "")
	require.NoError(t, err)
	assert.Equal(t, "alice", res.Session.DisplayName)
	assert.Equal(t, "alice", res.Roster[0].Name)
}

func TestJoinAnotherDevice(t *testing.T) {
	c := newCoordinator(t)

	_, err := c.Join("c1", "r1", "alice", "d1", "Alice")
	require.NoError(t, err)

	res, err := c.Join("c2", "r1", "alice", "d2", "Alice")
	require.NoError(t, err)
	assert.True(t, res.AnotherDevice)

	require.Len(t, res.Roster, 1)
	assert.Equal(t, []string{"d1", "d2"}, res.Roster[0].Devices)

	// rejoining with a known device is not "another device"
	res, err = c.Join("c3", "r1", "alice", "d1", "Alice")
	require.NoError(t, err)
	assert.False(t, res.AnotherDevice)
}

func TestJoinCompatMode(t *testing.T) {
	c := newCoordinator(t)

	res, err := c.Join("c1", "r1", "", "", "")
	require.NoError(t, err)
	assert.True(t, res.Compat)
	assert.Nil(t, res.Roster)

	// no presence entry, but transport membership exists
	assert.Empty(t, c.Roster("r1"))
	assert.Equal(t, []string{"c1"}, c.Members("r1"))
}

func TestCapacityEnforcement(t *testing.T) {
	c := newCoordinator(t)

	_, err := c.Join("c1", "r1", "alice", "d1", "Alice")
	require.NoError(t, err)
	_, err = c.Join("c2", "r1", "bob", "d1", "Bob")
	require.NoError(t, err)

	_, err = c.Join("c3", "r1", "carol", "d1", "Carol")
	require.Error(t, err)
	assert.True(t, errors.Is(err, CodeRoomFull))

	// the rejected join left no trace
	assert.Len(t, c.Roster("r1"), 2)
	assert.ElementsMatch(t, []string{"c1", "c2"}, c.Members("r1"))
	_, ok := c.Session("c3")
	assert.False(t, ok)

	// a second device of a present user is not blocked by the limit
	res, err := c.Join("c3", "r1", "alice", "d2", "Alice")
	require.NoError(t, err)
	assert.True(t, res.AnotherDevice)
}

func TestLeaveLastDevice(t *testing.T) {
	c := newCoordinator(t)

	_, err := c.Join("c1", "r1", "alice", "d1", "Alice")
	require.NoError(t, err)
	_, err = c.Join("c2", "r1", "alice", "d2", "Alice")
	require.NoError(t, err)

	dep, ok := c.Leave("c1")
	require.True(t, ok)
	assert.False(t, dep.LastDevice)
	assert.Equal(t, ReasonLeave, dep.Reason)
	require.Len(t, dep.Roster, 1)
	assert.Equal(t, []string{"d2"}, dep.Roster[0].Devices)

	dep, ok = c.Leave("c2")
	require.True(t, ok)
	assert.True(t, dep.LastDevice)
	assert.Empty(t, dep.Roster)
	assert.Empty(t, c.Roster("r1"))
}

func TestDisconnectReason(t *testing.T) {
	c := newCoordinator(t)

	_, err := c.Join("c1", "r1", "alice", "d1", "Alice")
	require.NoError(t, err)

	dep, ok := c.Disconnect("c1")
	require.True(t, ok)
	assert.Equal(t, ReasonDisconnect, dep.Reason)
	assert.True(t, dep.LastDevice)
}

func TestRemovalIdempotent(t *testing.T) {
	c := newCoordinator(t)

	_, err := c.Join("c1", "r1", "alice", "d1", "Alice")
	require.NoError(t, err)

	_, ok := c.Disconnect("c1")
	require.True(t, ok)

	// duplicate disconnect produces nothing to notify
	_, ok = c.Disconnect("c1")
	assert.False(t, ok)

	_, ok = c.Disconnect("never-joined")
	assert.False(t, ok)
}

func TestCompatDisconnect(t *testing.T) {
	c := newCoordinator(t)

	_, err := c.Join("c1", "r1", "", "", "")
	require.NoError(t, err)
	_, err = c.Join("c2", "r1", "alice", "d1", "Alice")
	require.NoError(t, err)

	dep, ok := c.Disconnect("c1")
	require.True(t, ok)
	assert.True(t, dep.Compat)
	assert.Equal(t, "r1", dep.Room)
	assert.Equal(t, []string{"c2"}, dep.Recipients)

	// presence untouched by the compat departure
	assert.Len(t, c.Roster("r1"), 1)
}

func TestRosterSorted(t *testing.T) {
	c := newCoordinator(t)

	_, err := c.Join("c1", "r1", "bob", "z-dev", "Bob")
	require.NoError(t, err)
	_, err = c.Join("c2", "r1", "alice", "d2", "Alice")
	require.NoError(t, err)
	_, err = c.Join("c3", "r1", "alice", "d1", "Alice")
	require.NoError(t, err)

	roster := c.Roster("r1")
	require.Len(t, roster, 2)
	assert.Equal(t, "alice", roster[0].UserID)
	assert.Equal(t, []string{"d1", "d2"}, roster[0].Devices)
	assert.Equal(t, "bob", roster[1].UserID)
	assert.Equal(t, []string{"z-dev"}, roster[1].Devices)
}

func TestRoomsIsolated(t *testing.T) {
	c := newCoordinator(t)

	_, err := c.Join("c1", "r1", "alice", "d1", "Alice")
	require.NoError(t, err)
	_, err = c.Join("c2", "r2", "alice", "d1", "Alice")
	require.NoError(t, err)

	assert.Len(t, c.Roster("r1"), 1)
	assert.Len(t, c.Roster("r2"), 1)
	assert.Equal(t, []string{"c1"}, c.Members("r1"))

	_, ok := c.Leave("c1")
	require.True(t, ok)
	assert.Empty(t, c.Roster("r1"))
	assert.Len(t, c.Roster("r2"), 1)
}

func TestRejoinSupersedes(t *testing.T) {
	c := newCoordinator(t)

	_, err := c.Join("c1", "r1", "alice", "d1", "Alice")
	require.NoError(t, err)

	// same connection joins another room; the old presence is dropped
	_, err = c.Join("c1", "r2", "alice", "d1", "Alice")
	require.NoError(t, err)

	assert.Empty(t, c.Roster("r1"))
	assert.Empty(t, c.Members("r1"))
	assert.Len(t, c.Roster("r2"), 1)
	assert.Equal(t, []string{"c1"}, c.Members("r2"))

	dep, ok := c.Disconnect("c1")
	require.True(t, ok)
	assert.Equal(t, "r2", dep.Room)
	assert.Empty(t, c.Roster("r2"))
}

func TestConcurrentJoinLeave(t *testing.T) {
	c := newCoordinator(t)

	const devices = 16
	var wg sync.WaitGroup
	for i := 0; i < devices; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			connID := fmt.Sprintf("c%d", i)
			deviceID := fmt.Sprintf("d%d", i)
			if _, err := c.Join(connID, "r1", "alice", deviceID, "Alice"); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	roster := c.Roster("r1")
	require.Len(t, roster, 1)
	assert.Len(t, roster[0].Devices, devices)

	for i := 0; i < devices; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Disconnect(fmt.Sprintf("c%d", i))
		}(i)
	}
	wg.Wait()

	assert.Empty(t, c.Roster("r1"))
	assert.Empty(t, c.Members("r1"))
}
