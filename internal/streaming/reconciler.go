package streaming

import (
	"fmt"
	"time"

	"haulmon/internal/log"
	"haulmon/internal/missions"
)

// Source labels recorded on missions, by the dialect that first saw them.
var dialectSources = map[Dialect]string{
	DialectNative: "LOG (Native)",
	DialectUI:     "LOG (UI)",
	DialectMarker: "LOG (Marker)",
	DialectPush:   "LOG (Native)",
}

// Reconciler applies classified events to the mission store. It is the
// store's single writer; each event is one critical section, so readers
// never observe a half-applied update.
type Reconciler struct {
	store *missions.Store
	now   func() time.Time

	// Last mission created from the UI surface. UI objectives carry no
	// mission id and fall back to it when no active item matches.
	lastUIMission string
}

// NewReconciler creates a reconciler writing to store.
func NewReconciler(store *missions.Store) *Reconciler {
	return &Reconciler{store: store, now: time.Now}
}

// Apply folds one event into the store. It reports whether state changed.
func (r *Reconciler) Apply(ev Event) bool {
	switch ev.Kind {
	case EventContractAccepted:
		return r.applyContractAccepted(ev)
	case EventObjectiveUpdate:
		return r.applyObjective(ev)
	case EventContractEnded:
		return r.applyContractEnded(ev)
	case EventRewardAwarded:
		return r.applyReward(ev)
	case EventLocationUpdate:
		return r.applyLocation(ev)
	case EventIdentityUpdate:
		return r.applyIdentity(ev)
	}
	return false
}

func (r *Reconciler) applyContractAccepted(ev Event) bool {
	return r.store.Mutate(func(st *missions.State) bool {
		if ev.Dialect == DialectMarker {
			_, existed := st.Missions[ev.MissionID]
			m := st.CreateMission(ev.MissionID, fmt.Sprintf("Contract: %s Haul", ev.Material), dialectSources[ev.Dialect], r.now())
			// Marker lines carry no quantities. Seed a placeholder leg so
			// the mission shows up until an objective fills in details.
			if len(m.Items) == 0 {
				key := missions.ItemKey(ev.Material, "Unknown", missions.TypeDelivery)
				m.Items[key] = missions.CargoItem{
					Material:    ev.Material,
					Destination: "See Objective",
					Type:        missions.TypeDelivery,
					Status:      missions.ItemPending,
					Origin:      missions.OriginLog,
					Action:      "HAUL",
				}
				if !existed {
					log.Info("mission discovered via marker", "material", ev.Material, "mission", ev.MissionID)
				}
				return true
			}
			return !existed
		}

		if _, exists := st.Missions[ev.MissionID]; exists {
			return false
		}
		st.CreateMission(ev.MissionID, ev.Title, dialectSources[ev.Dialect], r.now())
		if ev.Dialect == DialectUI {
			r.lastUIMission = ev.MissionID
		}
		log.Info("mission accepted", "title", ev.Title, "mission", ev.MissionID, "source", string(ev.Dialect))
		return true
	})
}

// applyObjective is the heart of reconciliation: route the objective to the
// right mission, correct key drift, retire manual placeholders, then write
// the item and sweep for duplicate missions.
func (r *Reconciler) applyObjective(ev Event) bool {
	return r.store.Mutate(func(st *missions.State) bool {
		typ := missions.TypeDelivery
		if pickupActions[ev.Action] {
			typ = missions.TypePickup
		}
		key := missions.ItemKey(ev.Material, ev.Location, typ)

		targetID := ev.MissionID
		if targetID != "" {
			st.EnsureMission(targetID, dialectSources[ev.Dialect], r.now())
		} else {
			targetID, key = r.routeOrphan(st, ev, key)
			if targetID == "" {
				log.Warn("orphan objective dropped",
					"material", ev.Material, "destination", ev.Location, "dialect", string(ev.Dialect))
				return false
			}
		}

		m := st.Missions[targetID]
		// Key drift: an earlier line may have keyed the same leg under a
		// location variant ("Everus Harbor" vs "Harbor"). Adopt that key.
		if _, ok := m.Items[key]; !ok {
			for k, v := range m.Items {
				if v.Material == ev.Material && missions.FuzzyLocationMatch(v.Destination, ev.Location) {
					key = k
					break
				}
			}
		}

		st.RemoveManualDuplicates(targetID, ev.Material, ev.Location)

		status := missions.ItemPending
		if ev.ExplicitComplete || (ev.Total > 0 && ev.Current >= ev.Total) {
			status = missions.ItemCompleted
		}
		st.UpsertItem(targetID, key, missions.CargoItem{
			Material:    ev.Material,
			Destination: ev.Location,
			Type:        typ,
			Volume:      ev.Total,
			Delivered:   ev.Current,
			Status:      status,
			Origin:      missions.OriginLog,
			Action:      ev.Action,
		})
		log.Info("objective update",
			"action", ev.Action, "progress", fmt.Sprintf("%d/%d", ev.Current, ev.Total),
			"material", ev.Material, "destination", ev.Location, "status", string(status))

		r.sweepDuplicate(st, targetID, m.Items[key])
		return true
	})
}

// routeOrphan finds a home for an objective with no mission id: an active
// mission holding the exact key, then a fuzzy material and destination
// match (adopting the matched key), then the last UI mission for UI lines.
func (r *Reconciler) routeOrphan(st *missions.State, ev Event, key string) (string, string) {
	for id, m := range st.Missions {
		if _, ok := m.Items[key]; ok {
			log.Debug("objective routed by exact key", "mission", id)
			return id, key
		}
	}
	for id, m := range st.Missions {
		for k, v := range m.Items {
			if v.Material == ev.Material && missions.FuzzyLocationMatch(v.Destination, ev.Location) {
				log.Debug("objective routed by fuzzy match", "mission", id, "key", k)
				return id, k
			}
		}
	}
	if ev.Dialect == DialectUI && r.lastUIMission != "" {
		st.EnsureMission(r.lastUIMission, dialectSources[DialectUI], r.now())
		return r.lastUIMission, key
	}
	return "", key
}

// sweepDuplicate archives any other active mission that shares the title
// and an equivalent item with the same total volume. The game re-issues a
// mission under a fresh id after relogs; the older copy is stale. Progress
// merges into the surviving mission before archival.
func (r *Reconciler) sweepDuplicate(st *missions.State, currentID string, item missions.CargoItem) {
	current, ok := st.Missions[currentID]
	if !ok {
		return
	}
	for otherID, other := range st.Missions {
		if otherID == currentID || other.Status != missions.StatusActive || other.Title != current.Title {
			continue
		}
		for _, v := range other.Items {
			if v.Material == item.Material &&
				missions.FuzzyLocationMatch(v.Destination, item.Destination) &&
				v.Volume == item.Volume {
				log.Info("duplicate mission detected", "title", current.Title, "stale", otherID)
				st.MergeInto(otherID, currentID)
				st.ArchiveMission(otherID, missions.StatusCancelled, r.now())
				return
			}
		}
	}
}

func (r *Reconciler) applyContractEnded(ev Event) bool {
	return r.store.Mutate(func(st *missions.State) bool {
		if ev.Title != "" {
			n := st.ArchiveByTitle(ev.Title, missions.StatusCancelled, "", r.now())
			if n > 0 {
				log.Info("mission ended by title", "title", ev.Title, "archived", n)
			}
			return n > 0
		}
		if ev.MissionID == "" {
			return false
		}
		var final missions.MissionStatus
		switch ev.Outcome {
		case OutcomeSuccess:
			final = missions.StatusCompleted
		case OutcomeAbandon:
			final = missions.StatusCancelled
		case OutcomeFail:
			final = missions.StatusFailed
		default:
			log.Warn("unrecognized mission outcome", "mission", ev.MissionID, "outcome", ev.Outcome)
			return false
		}
		if !st.ArchiveMission(ev.MissionID, final, r.now()) {
			return false
		}
		log.Info("mission finished", "mission", ev.MissionID, "outcome", ev.Outcome)
		return true
	})
}

func (r *Reconciler) applyReward(ev Event) bool {
	return r.store.Mutate(func(st *missions.State) bool {
		if !st.PatchLastFinishedReward(ev.Amount) {
			return false
		}
		log.Info("reward detected", "amount", ev.Amount)
		return true
	})
}

func (r *Reconciler) applyLocation(ev Event) bool {
	return r.store.Mutate(func(st *missions.State) bool {
		if st.Location == ev.Location {
			return false
		}
		st.Location = ev.Location
		log.Info("location update", "location", ev.Location)
		return true
	})
}

func (r *Reconciler) applyIdentity(ev Event) bool {
	return r.store.Mutate(func(st *missions.State) bool {
		if ev.Player != "" {
			if st.ShipName == ev.Ship && st.PlayerName == ev.Player {
				return false
			}
			st.ShipName = ev.Ship
			st.PlayerName = ev.Player
			log.Info("identity detected", "player", ev.Player, "ship", ev.Ship)
			return true
		}
		// Model-id fallback only fills the gap before a real channel join.
		if st.ShipName != missions.WaitingForShip || ev.Ship == "" {
			return false
		}
		st.ShipName = ev.Ship
		log.Info("ship detected", "ship", ev.Ship)
		return true
	})
}
