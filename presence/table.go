package presence

import "sort"

type entry struct {
	name    string
	devices map[string]struct{}
}

// Table is the room presence table: room name to per-user entries. It
// carries no locking of its own; the Coordinator serializes all access.
type Table struct {
	rooms map[string]map[string]*entry
}

func NewTable() *Table {
	return &Table{
		rooms: make(map[string]map[string]*entry),
	}
}

// Add records a device for (room, userID) and updates the display name
// to the latest value. The returned flags describe the state before the
// mutation.
func (t *Table) Add(room, userID, deviceID, name string) (alreadyPresent, deviceAlreadyPresent bool) {
	users, ok := t.rooms[room]
	if !ok {
		users = make(map[string]*entry)
		t.rooms[room] = users
	}

	e, ok := users[userID]
	if !ok {
		e = &entry{devices: make(map[string]struct{})}
		users[userID] = e
	} else {
		alreadyPresent = true
		_, deviceAlreadyPresent = e.devices[deviceID]
	}

	e.devices[deviceID] = struct{}{}
	e.name = name
	return alreadyPresent, deviceAlreadyPresent
}

// Remove drops a device from (room, userID). When the device set empties
// the entry is deleted and lastDevice is true; an emptied room row is
// deleted as well.
func (t *Table) Remove(room, userID, deviceID string) (lastDevice bool) {
	users, ok := t.rooms[room]
	if !ok {
		return false
	}
	e, ok := users[userID]
	if !ok {
		return false
	}

	delete(e.devices, deviceID)
	if len(e.devices) > 0 {
		return false
	}

	delete(users, userID)
	if len(users) == 0 {
		delete(t.rooms, room)
	}
	return true
}

// DistinctUsers counts userIDs present in the room, regardless of how
// many devices each holds.
func (t *Table) DistinctUsers(room string) int {
	return len(t.rooms[room])
}

func (t *Table) Has(room, userID string) bool {
	_, ok := t.rooms[room][userID]
	return ok
}

// Roster snapshots the room, users sorted by userID and devices sorted
// lexically.
func (t *Table) Roster(room string) []RosterUser {
	users := t.rooms[room]
	roster := make([]RosterUser, 0, len(users))

	for userID, e := range users {
		devices := make([]string, 0, len(e.devices))
		for d := range e.devices {
			devices = append(devices, d)
		}
		sort.Strings(devices)

		roster = append(roster, RosterUser{
			UserID:  userID,
			Name:    e.name,
			Devices: devices,
		})
	}

	sort.Slice(roster, func(i, j int) bool {
		return roster[i].UserID < roster[j].UserID
	})
	return roster
}
