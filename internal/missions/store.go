package missions

import (
	"sync"
	"time"

	"haulmon/internal/log"
)

// Snapshot is a deep copy of the state, safe to hand to readers and to the
// persistence layer.
type Snapshot struct {
	Missions      map[string]*Mission `json:"missions"`
	Finished      []*Mission          `json:"finished_missions"`
	Location      string              `json:"current_location"`
	ShipName      string              `json:"ship_name"`
	PlayerName    string              `json:"player_name"`
	MissionStatus string              `json:"mission_status"`
	SessionStart  time.Time           `json:"session_start"`
}

// Saver persists a snapshot. Failures must be absorbed by the caller; a
// write error never corrupts in-memory state.
type Saver func(Snapshot) error

// Store owns the State. The reconciliation loop is the only writer; display
// layers read consistent snapshots concurrently. Each Mutate call is one
// critical section, so a reader never observes a partially-applied event.
type Store struct {
	mu    sync.RWMutex
	state *State
	saver Saver
}

// NewStore creates a store with a fresh session.
func NewStore() *Store {
	return &Store{state: NewState(time.Now())}
}

// SetSaver installs the persistence hook invoked after mutations.
func (s *Store) SetSaver(saver Saver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saver = saver
}

// Mutate runs fn under the write lock. When fn reports a change the saver
// is invoked with a snapshot taken in the same critical section; save
// failures are logged and swallowed.
func (s *Store) Mutate(fn func(*State) bool) bool {
	s.mu.Lock()
	changed := fn(s.state)
	var snap Snapshot
	saver := s.saver
	if changed && saver != nil {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	if changed && saver != nil {
		if err := saver(snap); err != nil {
			log.Warn("failed to persist state", "error", err)
		}
	}
	return changed
}

// View runs fn under the read lock. fn must not retain references to state
// internals beyond the call.
func (s *Store) View(fn func(*State)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.state)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return SnapshotOf(s.state)
}

// SnapshotOf deep-copies st. Callers inside a View or Mutate use it to
// derive a snapshot from the same critical section as other reads.
func SnapshotOf(st *State) Snapshot {
	snap := Snapshot{
		Missions:      make(map[string]*Mission, len(st.Missions)),
		Finished:      make([]*Mission, len(st.Finished)),
		Location:      st.Location,
		ShipName:      st.ShipName,
		PlayerName:    st.PlayerName,
		MissionStatus: st.MissionStatus,
		SessionStart:  st.SessionStart,
	}
	for id, m := range st.Missions {
		snap.Missions[id] = m.clone()
	}
	for i, m := range st.Finished {
		snap.Finished[i] = m.clone()
	}
	return snap
}

// Restore replaces the state from a persisted snapshot. A snapshot whose
// session started on a previous calendar day is rejected and the current
// fresh session kept.
func (s *Store) Restore(snap Snapshot, now time.Time) bool {
	sy, sm, sd := snap.SessionStart.Date()
	ny, nm, nd := now.Date()
	if sy != ny || sm != nm || sd != nd {
		log.Info("persisted session is from another day, starting fresh",
			"session_start", snap.SessionStart.Format("2006-01-02"))
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st := NewState(snap.SessionStart)
	st.Location = snap.Location
	st.ShipName = snap.ShipName
	st.PlayerName = snap.PlayerName
	st.MissionStatus = snap.MissionStatus
	for id, m := range snap.Missions {
		st.Missions[id] = m.clone()
	}
	for _, m := range snap.Finished {
		st.Finished = append(st.Finished, m.clone())
	}
	s.state = st
	log.Info("state restored", "active", len(st.Missions), "finished", len(st.Finished))
	return true
}
