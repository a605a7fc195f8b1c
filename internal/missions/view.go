package missions

import (
	"sort"
	"time"
)

// MaterialGroup aggregates every active item for one material at one
// destination across all contributing missions.
type MaterialGroup struct {
	Material          string     `json:"material"`
	PickupVolume      int        `json:"pickup_vol"`
	DeliverVolume     int        `json:"deliver_vol"`
	DeliveredPickup   int        `json:"delivered_pickup"`
	DeliveredDelivery int        `json:"delivered_delivery"`
	Status            ItemStatus `json:"status"`
	MissionIDs        []string   `json:"mission_ids"`
}

// DestinationGroup is the material breakdown for one destination.
type DestinationGroup struct {
	Destination string          `json:"destination"`
	Materials   []MaterialGroup `json:"materials"`
}

// SessionSummary carries the session scalars and totals for display.
type SessionSummary struct {
	Location       string    `json:"current_location"`
	ShipName       string    `json:"ship_name"`
	PlayerName     string    `json:"player_name"`
	MissionStatus  string    `json:"mission_status"`
	Earnings       int       `json:"earnings"`
	MissionSeconds int       `json:"mission_seconds"`
	SessionSeconds int       `json:"session_seconds"`
	SessionStart   time.Time `json:"session_start"`
}

type groupAccum struct {
	group        MaterialGroup
	missionIDs   map[string]struct{}
	allCompleted bool
}

// Summarize projects the active missions into destination -> material
// groups. Pure: it recomputes from scratch on every call and never caches,
// since the store can mutate between calls. Output order is deterministic.
func Summarize(st *State) []DestinationGroup {
	byDest := make(map[string]map[string]*groupAccum)

	for id, m := range st.Missions {
		for _, item := range m.Items {
			mats, ok := byDest[item.Destination]
			if !ok {
				mats = make(map[string]*groupAccum)
				byDest[item.Destination] = mats
			}
			acc, ok := mats[item.Material]
			if !ok {
				acc = &groupAccum{
					group:        MaterialGroup{Material: item.Material, Status: ItemPending},
					missionIDs:   make(map[string]struct{}),
					allCompleted: true,
				}
				mats[item.Material] = acc
			}

			acc.missionIDs[id] = struct{}{}
			if item.Status != ItemCompleted {
				acc.allCompleted = false
			}
			if item.Type == TypePickup {
				acc.group.PickupVolume += item.Volume
				acc.group.DeliveredPickup += item.Delivered
			} else {
				acc.group.DeliverVolume += item.Volume
				acc.group.DeliveredDelivery += item.Delivered
			}
		}
	}

	out := make([]DestinationGroup, 0, len(byDest))
	for dest, mats := range byDest {
		dg := DestinationGroup{Destination: dest}
		for _, acc := range mats {
			g := acc.group
			// COMPLETED when every contributing item is, or when the
			// delivery total is satisfied (fallback heuristic).
			if acc.allCompleted {
				g.Status = ItemCompleted
			} else if g.DeliverVolume > 0 && g.DeliveredDelivery >= g.DeliverVolume {
				g.Status = ItemCompleted
			}
			for id := range acc.missionIDs {
				g.MissionIDs = append(g.MissionIDs, id)
			}
			sort.Strings(g.MissionIDs)
			dg.Materials = append(dg.Materials, g)
		}
		sort.Slice(dg.Materials, func(i, j int) bool {
			return dg.Materials[i].Material < dg.Materials[j].Material
		})
		out = append(out, dg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Destination < out[j].Destination })
	return out
}

// SummarizeSession computes session totals: earnings and mission time count
// only finished missions that actually COMPLETED.
func SummarizeSession(st *State, now time.Time) SessionSummary {
	sum := SessionSummary{
		Location:      st.Location,
		ShipName:      st.ShipName,
		PlayerName:    st.PlayerName,
		MissionStatus: st.MissionStatus,
		SessionStart:  st.SessionStart,
	}
	for _, f := range st.Finished {
		if f.Status != StatusCompleted {
			continue
		}
		sum.Earnings += f.Value
		if !f.Started.IsZero() && !f.EndedAt.IsZero() && f.EndedAt.After(f.Started) {
			sum.MissionSeconds += int(f.EndedAt.Sub(f.Started).Seconds())
		}
	}
	if now.After(st.SessionStart) {
		sum.SessionSeconds = int(now.Sub(st.SessionStart).Seconds())
	}
	return sum
}
