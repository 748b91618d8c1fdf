package presence

import (
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/duocall/backend/internal/errors"
	"github.com/duocall/backend/internal/log"
)

// Coordinator owns the presence mutation protocol. One mutex guards the
// session store, the presence table and the transport membership
// registry together, so a roster snapshot never observes a membership
// change without the matching presence change.
//
// State is mutated inside the lock; broadcasting happens outside, from
// the Recipients snapshot carried on the result.
type Coordinator struct {
	mu       sync.Mutex
	sessions *SessionStore
	table    *Table

	// room -> set of connIDs subscribed to broadcasts
	members   map[string]map[string]struct{}
	conn2room map[string]string

	clock  clockwork.Clock
	logger *log.Logger
}

func NewCoordinator(clock clockwork.Clock, logger *log.Logger) *Coordinator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Coordinator{
		sessions:  NewSessionStore(),
		table:     NewTable(),
		members:   make(map[string]map[string]struct{}),
		conn2room: make(map[string]string),
		clock:     clock,
		logger:    logger,
	}
}

// Join processes a join request. With both userID and deviceID set it
// runs the full presence path; with either missing it falls back to the
// compat path that only records transport membership.
//
// The capacity check happens strictly before any mutation, so a
// rejected join leaves no trace.
func (c *Coordinator) Join(connID, room, userID, deviceID, name string) (*JoinResult, error) {
	if name == "" {
		name = userID
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if userID == "" || deviceID == "" {
		c.addMember(room, connID)
		c.logger.Debug("Compat join",
			log.String("room", room),
			log.String("conn_id", connID))
		return &JoinResult{
			Compat:     true,
			Session:    Session{ConnID: connID, Room: room},
			Recipients: c.recipients(room),
		}, nil
	}

	if c.table.DistinctUsers(room) >= MaxUsersPerRoom && !c.table.Has(room, userID) {
		return nil, errors.Newf(CodeRoomFull, "room %q is full", room)
	}

	// a rejoin supersedes the previous join; stale presence is dropped
	// silently so the table never references a dead session
	if prev, ok := c.sessions.Get(connID); ok {
		c.table.Remove(prev.Room, prev.UserID, prev.DeviceID)
	}

	c.addMember(room, connID)

	sess := Session{
		ConnID:      connID,
		Room:        room,
		UserID:      userID,
		DeviceID:    deviceID,
		DisplayName: name,
		JoinedAt:    c.clock.Now(),
	}
	c.sessions.Put(sess)

	alreadyPresent, deviceAlreadyPresent := c.table.Add(room, userID, deviceID, name)

	c.logger.Info("User joined",
		log.String("room", room),
		log.String("user_id", userID),
		log.String("device_id", deviceID),
		log.Bool("another_device", alreadyPresent && !deviceAlreadyPresent))

	return &JoinResult{
		AnotherDevice: alreadyPresent && !deviceAlreadyPresent,
		Session:       sess,
		Roster:        c.table.Roster(room),
		Recipients:    c.recipients(room),
	}, nil
}

// Leave handles an explicit leave request.
func (c *Coordinator) Leave(connID string) (*Departure, bool) {
	return c.remove(connID, ReasonLeave)
}

// Disconnect handles an abrupt transport loss. It converges on the same
// state and notifications as Leave, differing only in the reason.
func (c *Coordinator) Disconnect(connID string) (*Departure, bool) {
	return c.remove(connID, ReasonDisconnect)
}

func (c *Coordinator) remove(connID string, reason Reason) (*Departure, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, hadMembership := c.conn2room[connID]
	if hadMembership {
		c.removeMember(room, connID)
	}

	sess, ok := c.sessions.Get(connID)
	if !ok {
		// never completed a full join, or already cleaned up
		if !hadMembership {
			return nil, false
		}
		return &Departure{
			Room:       room,
			Reason:     reason,
			Compat:     true,
			Recipients: c.recipients(room),
		}, true
	}

	lastDevice := c.table.Remove(sess.Room, sess.UserID, sess.DeviceID)
	c.sessions.Remove(connID)

	c.logger.Info("User left",
		log.String("room", sess.Room),
		log.String("user_id", sess.UserID),
		log.String("device_id", sess.DeviceID),
		log.String("reason", string(reason)),
		log.Bool("last_device", lastDevice))

	return &Departure{
		Room:       sess.Room,
		UserID:     sess.UserID,
		Name:       sess.DisplayName,
		DeviceID:   sess.DeviceID,
		LastDevice: lastDevice,
		Reason:     reason,
		Roster:     c.table.Roster(sess.Room),
		Recipients: c.recipients(sess.Room),
	}, true
}

// Roster snapshots the room within a single lock acquisition.
func (c *Coordinator) Roster(room string) []RosterUser {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.table.Roster(room)
}

// Members snapshots the transport membership of a room.
func (c *Coordinator) Members(room string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.recipients(room)
}

// Session looks up the join record of a connection.
func (c *Coordinator) Session(connID string) (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sessions.Get(connID)
}

func (c *Coordinator) addMember(room, connID string) {
	if prev, ok := c.conn2room[connID]; ok && prev != room {
		c.removeMember(prev, connID)
	}

	conns, ok := c.members[room]
	if !ok {
		conns = make(map[string]struct{})
		c.members[room] = conns
	}
	conns[connID] = struct{}{}
	c.conn2room[connID] = room
}

func (c *Coordinator) removeMember(room, connID string) {
	if conns, ok := c.members[room]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(c.members, room)
		}
	}
	delete(c.conn2room, connID)
}

func (c *Coordinator) recipients(room string) []string {
	conns := c.members[room]
	out := make([]string, 0, len(conns))
	for connID := range conns {
		out = append(out, connID)
	}
	return out
}
