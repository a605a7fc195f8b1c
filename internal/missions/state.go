package missions

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"haulmon/internal/locations"
	"haulmon/internal/log"
)

// Defaults for the session scalars before the log has said anything.
const (
	WaitingForLogin = "Waiting for Login..."
	WaitingForShip  = "Waiting for Ship..."
	Synchronizing   = "Synchronizing..."

	IndicatorReady     = "READY"
	IndicatorActive    = "ACTIVE"
	IndicatorCancelled = "CANCELLED"
)

// State is the full mutable model: the active mission map, the finished
// log (most recent first) and the session scalars. It carries no locking;
// Store serializes access.
type State struct {
	Missions map[string]*Mission `json:"missions"`
	Finished []*Mission          `json:"finished_missions"`

	Location      string    `json:"current_location"`
	ShipName      string    `json:"ship_name"`
	PlayerName    string    `json:"player_name"`
	MissionStatus string    `json:"mission_status"`
	SessionStart  time.Time `json:"session_start"`
}

// NewState returns a fresh session starting now.
func NewState(now time.Time) *State {
	return &State{
		Missions:      make(map[string]*Mission),
		Finished:      nil,
		Location:      Synchronizing,
		ShipName:      WaitingForShip,
		PlayerName:    WaitingForLogin,
		MissionStatus: IndicatorReady,
		SessionStart:  now,
	}
}

// CreateMission adds an ACTIVE mission. Creation is idempotent: an existing
// id is returned untouched.
func (s *State) CreateMission(id, title, source string, now time.Time) *Mission {
	if m, ok := s.Missions[id]; ok {
		return m
	}
	m := &Mission{
		ID:      id,
		Title:   title,
		Items:   make(map[string]CargoItem),
		Status:  StatusActive,
		Source:  source,
		Started: now,
	}
	s.Missions[id] = m
	s.MissionStatus = IndicatorActive
	return m
}

// EnsureMission lazily creates a placeholder when an objective references an
// id the contract line for which was never seen.
func (s *State) EnsureMission(id, source string, now time.Time) *Mission {
	return s.CreateMission(id, UnknownTitle, source, now)
}

// UpsertItem writes an item under its resolved key, overwriting any
// previous value.
func (s *State) UpsertItem(missionID, key string, item CargoItem) bool {
	m, ok := s.Missions[missionID]
	if !ok {
		return false
	}
	m.Items[key] = item
	return true
}

// RemoveManualDuplicates deletes MANUAL items on the mission that match the
// material and fuzzy-match the destination. Manual entries are placeholders
// superseded by authoritative log data.
func (s *State) RemoveManualDuplicates(missionID, material, destination string) int {
	m, ok := s.Missions[missionID]
	if !ok {
		return 0
	}
	removed := 0
	for k, v := range m.Items {
		if v.Origin == OriginManual && v.Material == material && FuzzyLocationMatch(v.Destination, destination) {
			delete(m.Items, k)
			removed++
			log.Info("log data replaced manual item", "material", material, "destination", destination)
		}
	}
	return removed
}

// ArchiveMission moves a mission from the active map to the front of the
// finished log with a frozen copy of its items. Archiving an absent id is a
// silent no-op: the caller may race with an earlier archival.
func (s *State) ArchiveMission(id string, final MissionStatus, now time.Time) bool {
	m, ok := s.Missions[id]
	if !ok {
		return false
	}
	m.Status = final
	if m.EndedAt.IsZero() {
		m.EndedAt = now
	}
	s.Finished = append([]*Mission{m.clone()}, s.Finished...)
	delete(s.Missions, id)
	if len(s.Missions) == 0 && final != StatusCompleted {
		s.MissionStatus = IndicatorCancelled
	}
	return true
}

// ArchiveByTitle archives every ACTIVE mission with the given title except
// exceptID, returning how many were archived.
func (s *State) ArchiveByTitle(title string, final MissionStatus, exceptID string, now time.Time) int {
	var stale []string
	for id, m := range s.Missions {
		if m.Title == title && m.Status == StatusActive && id != exceptID {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		s.ArchiveMission(id, final, now)
	}
	return len(stale)
}

// MergeInto carries the stronger progress from the stale mission's items
// into the current mission before the stale one is archived. COMPLETED
// status and full delivered volume take precedence; otherwise the larger
// delivered quantity wins.
func (s *State) MergeInto(staleID, currentID string) {
	stale, ok := s.Missions[staleID]
	if !ok {
		return
	}
	current, ok := s.Missions[currentID]
	if !ok {
		return
	}
	for kOld, vOld := range stale.Items {
		targetKey, matched := "", false
		if _, ok := current.Items[kOld]; ok {
			targetKey, matched = kOld, true
		} else {
			for kNew, vNew := range current.Items {
				if vNew.Material == vOld.Material && FuzzyLocationMatch(vNew.Destination, vOld.Destination) {
					targetKey, matched = kNew, true
					break
				}
			}
		}
		if !matched {
			continue
		}
		target := current.Items[targetKey]
		if vOld.Status == ItemCompleted {
			target.Status = ItemCompleted
			target.Delivered = target.Volume
			log.Info("merged completion from duplicate mission", "material", vOld.Material, "destination", vOld.Destination)
		} else if vOld.Delivered > target.Delivered {
			target.Delivered = vOld.Delivered
			log.Info("merged progress from duplicate mission", "delivered", vOld.Delivered, "destination", vOld.Destination)
		}
		current.Items[targetKey] = target
	}
}

// PatchLastFinishedReward applies a reward amount to the single most
// recently archived mission. Best-effort: reward lines are not
// mission-scoped, so this assumes end and award arrive in quick succession.
func (s *State) PatchLastFinishedReward(amount int) bool {
	if len(s.Finished) == 0 {
		return false
	}
	s.Finished[0].Value = amount
	return true
}

// DeleteMission removes a mission from the active map without archival.
func (s *State) DeleteMission(id string) bool {
	if _, ok := s.Missions[id]; !ok {
		return false
	}
	delete(s.Missions, id)
	return true
}

// AddManualItem records a caller-supplied DELIVERY leg. The key embeds a
// random suffix so manual entries never collide with log-extracted keys.
func (s *State) AddManualItem(missionID, material string, quantity int, destinationRaw string) (string, bool) {
	m, ok := s.Missions[missionID]
	if !ok {
		return "", false
	}
	material = strings.ToUpper(strings.TrimSpace(material))
	destination := locations.Normalize(destinationRaw)
	key := ItemKey(material, destination, TypeDelivery) + "_" + uuid.NewString()[:8]
	m.Items[key] = CargoItem{
		Material:    material,
		Destination: destination,
		Type:        TypeDelivery,
		Volume:      quantity,
		Delivered:   0,
		Status:      ItemPending,
		Origin:      OriginManual,
		Action:      "MANUAL_ADD",
	}
	return key, true
}

// Reset discards everything and starts a new session.
func (s *State) Reset(now time.Time) {
	*s = *NewState(now)
}
