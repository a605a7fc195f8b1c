// Package missions holds the authoritative model of active and finished
// hauling missions plus the session-wide scalars shown by display layers.
package missions

import (
	"fmt"
	"time"
)

// MissionStatus is the lifecycle state of a mission.
type MissionStatus string

const (
	StatusActive    MissionStatus = "ACTIVE"
	StatusCompleted MissionStatus = "COMPLETED"
	StatusCancelled MissionStatus = "CANCELLED"
	StatusFailed    MissionStatus = "FAILED"
)

// ItemType distinguishes the two legs of a cargo objective.
type ItemType string

const (
	TypePickup   ItemType = "PICKUP"
	TypeDelivery ItemType = "DELIVERY"
)

// ItemStatus is the completion state of one cargo leg.
type ItemStatus string

const (
	ItemPending   ItemStatus = "PENDING"
	ItemCompleted ItemStatus = "COMPLETED"
)

// ItemOrigin records whether an item came from the log or manual entry.
// Manual items are provisional and are replaced by log-extracted ones.
type ItemOrigin string

const (
	OriginLog    ItemOrigin = "LOG"
	OriginManual ItemOrigin = "MANUAL"
)

// UnknownTitle is the sentinel for missions whose contract line has not
// been seen yet.
const UnknownTitle = "Unknown Mission"

// CargoItem is one pickup or delivery leg of a mission.
type CargoItem struct {
	Material    string     `json:"mat"`
	Destination string     `json:"dest"`
	Type        ItemType   `json:"type"`
	Volume      int        `json:"vol"`
	Delivered   int        `json:"delivered"`
	Status      ItemStatus `json:"status"`
	Origin      ItemOrigin `json:"origin"`
	Action      string     `json:"action,omitempty"`
}

// Mission is a player-accepted contract with one or more cargo legs.
type Mission struct {
	ID      string               `json:"id"`
	Title   string               `json:"title"`
	Items   map[string]CargoItem `json:"items"`
	Status  MissionStatus        `json:"status"`
	Source  string               `json:"source,omitempty"`
	Started time.Time            `json:"started"`
	EndedAt time.Time            `json:"ended_at,omitempty"`
	Value   int                  `json:"value"`
}

// ItemKey derives the identifying key for an item within one mission.
// Repeated notifications for the same objective re-derive the same key,
// making progress updates overwrite instead of append.
func ItemKey(material, destination string, typ ItemType) string {
	return fmt.Sprintf("%s_%s_%s", material, destination, typ)
}

// clone deep-copies a mission so archived records are frozen.
func (m *Mission) clone() *Mission {
	cp := *m
	cp.Items = make(map[string]CargoItem, len(m.Items))
	for k, v := range m.Items {
		cp.Items[k] = v
	}
	return &cp
}
