package streaming

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haulmon/internal/missions"
)

// feed runs raw log lines through the classifier and reconciler the way
// the pipeline does.
type harness struct {
	store      *missions.Store
	classifier *Classifier
	reconciler *Reconciler
}

func newHarness() *harness {
	h := &harness{
		store:      missions.NewStore(),
		classifier: NewClassifier(DefaultPatterns()),
	}
	h.reconciler = NewReconciler(h.store)
	h.classifier.now = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }
	return h
}

func (h *harness) feed(lines ...string) {
	for _, line := range lines {
		for _, ev := range h.classifier.Classify(line) {
			h.reconciler.Apply(ev)
		}
	}
}

func TestScenarioNativeMissionLifecycle(t *testing.T) {
	h := newHarness()
	h.feed(
		`<SHUDEvent_OnNotification> Added notification "Contract Accepted: Local Salvage Delivery" [1], MissionId: [`+missionUUID+`]`,
		`<SHUDEvent_OnNotification> Added notification "New Objective: Deliver 0/9 SCU of Silicon to HDPC-Farnesway: " [2], MissionId: [`+missionUUID+`]`,
		`<SHUDEvent_OnNotification> Added notification "Objective Complete: Deliver 9/9 SCU of Silicon to HDPC-Farnesway: " [3], MissionId: [`+missionUUID+`]`,
		`<EndMission> Ending mission for player. MissionId[`+missionUUID+`] CompletionType[Complete] Reason[Done]`,
		`Awarded 50250 aUEC: contract payout`,
	)

	h.store.View(func(st *missions.State) {
		assert.Empty(t, st.Missions)
		require.Len(t, st.Finished, 1)
		f := st.Finished[0]
		assert.Equal(t, "Local Salvage Delivery", f.Title)
		assert.Equal(t, missions.StatusCompleted, f.Status)
		assert.Equal(t, 50250, f.Value)
		key := missions.ItemKey("SILICON", "HDPC-Farnesway", missions.TypeDelivery)
		require.Contains(t, f.Items, key)
		assert.Equal(t, missions.ItemCompleted, f.Items[key].Status)
		assert.Equal(t, 9, f.Items[key].Delivered)
	})
}

func TestScenarioOrphanObjectiveRouting(t *testing.T) {
	h := newHarness()
	h.feed(
		`<SHUDEvent_OnNotification> Added notification "Contract Accepted: Waste Removal" [1], MissionId: [`+missionUUID+`]`,
		`<SHUDEvent_OnNotification> Added notification "New Objective: Deliver 0/6 SCU of Waste to Everus Harbor: " [2], MissionId: [`+missionUUID+`]`,
		// Split log: progress lines arrive without the mission id and with
		// a shortened destination. Both must land on the same item.
		`<SHUDEvent_OnNotification> Added notification "New Objective: Deliver 4/6 SCU of Waste to Harbor: " [3]`,
	)

	key := missions.ItemKey("WASTE", "Everus Harbor", missions.TypeDelivery)
	h.store.View(func(st *missions.State) {
		require.Contains(t, st.Missions, missionUUID)
		m := st.Missions[missionUUID]
		require.Len(t, m.Items, 1)
		require.Contains(t, m.Items, key)
		assert.Equal(t, 4, m.Items[key].Delivered)
	})

	h.feed(`<SHUDEvent_OnNotification> Added notification "Objective Complete: Deliver 6/6 SCU of Waste to Harbor: " [4]`)
	h.store.View(func(st *missions.State) {
		m := st.Missions[missionUUID]
		require.Len(t, m.Items, 1)
		assert.Equal(t, missions.ItemCompleted, m.Items[key].Status)
		assert.Equal(t, 6, m.Items[key].Delivered)
	})
}

func TestScenarioOrphanObjectiveDropped(t *testing.T) {
	h := newHarness()
	h.feed(`<SHUDEvent_OnNotification> Added notification "New Objective: Deliver 1/6 SCU of Gold to Area18: " [1]`)

	h.store.View(func(st *missions.State) {
		assert.Empty(t, st.Missions)
	})
}

func TestScenarioUIObjectiveWithoutAcceptDropped(t *testing.T) {
	h := newHarness()
	// No UI contract was ever accepted, so there is nothing to route to.
	h.feed(`<UpdateNotificationItem> Notification "New Objective: Deliver 0/4 SCU of Gold to Port Tressler: " [11], Action: Add`)

	h.store.View(func(st *missions.State) {
		assert.Empty(t, st.Missions)
	})
}

func TestScenarioUIFallbackMission(t *testing.T) {
	h := newHarness()
	h.feed(
		`<UpdateNotificationItem> Notification "Contract Accepted: Cargo Haul" [10], Action: Add`,
		`<UpdateNotificationItem> Notification "New Objective: Deliver 0/4 SCU of Gold to Port Tressler: " [11], Action: Add`,
	)

	h.store.View(func(st *missions.State) {
		require.Len(t, st.Missions, 1)
		for id, m := range st.Missions {
			assert.Contains(t, id, "ui_")
			assert.Equal(t, "Cargo Haul", m.Title)
			assert.Equal(t, "LOG (UI)", m.Source)
			key := missions.ItemKey("GOLD", "Port Tressler", missions.TypeDelivery)
			assert.Contains(t, m.Items, key)
		}
	})
}

func TestScenarioManualItemSupersededByObjective(t *testing.T) {
	h := newHarness()
	h.feed(`<SHUDEvent_OnNotification> Added notification "Contract Accepted: Gold Run" [1], MissionId: [` + missionUUID + `]`)

	var manualKey string
	h.store.Mutate(func(st *missions.State) bool {
		var ok bool
		manualKey, ok = st.AddManualItem(missionUUID, "gold", 10, "Lorville")
		require.True(t, ok)
		return true
	})

	// The log names the full gateway; the manual entry only said "Lorville".
	// The objective must adopt the manual key, retire the placeholder and
	// leave a single authoritative item.
	h.feed(`<SHUDEvent_OnNotification> Added notification "New Objective: Deliver 0/10 SCU of Gold to Lorville Gateway: " [2], MissionId: [` + missionUUID + `]`)

	h.store.View(func(st *missions.State) {
		m := st.Missions[missionUUID]
		require.Len(t, m.Items, 1)
		require.Contains(t, m.Items, manualKey)
		it := m.Items[manualKey]
		assert.Equal(t, missions.OriginLog, it.Origin)
		assert.Equal(t, "Lorville Gateway", it.Destination)
		assert.Equal(t, 10, it.Volume)
	})
}

func TestScenarioDuplicateMissionMerged(t *testing.T) {
	h := newHarness()
	otherUUID := "ffffffff-0000-1111-2222-333344445555"
	h.feed(
		`<SHUDEvent_OnNotification> Added notification "Contract Accepted: Cargo Haul" [1], MissionId: [`+missionUUID+`]`,
		`<SHUDEvent_OnNotification> Added notification "New Objective: Deliver 4/10 SCU of Waste to Everus Harbor: " [2], MissionId: [`+missionUUID+`]`,
		// Relog: the game re-issues the same contract under a new id.
		`<SHUDEvent_OnNotification> Added notification "Contract Accepted: Cargo Haul" [3], MissionId: [`+otherUUID+`]`,
		`<SHUDEvent_OnNotification> Added notification "New Objective: Deliver 0/10 SCU of Waste to Everus Harbor: " [4], MissionId: [`+otherUUID+`]`,
	)

	h.store.View(func(st *missions.State) {
		// The stale copy is archived CANCELLED; its progress survives.
		require.Len(t, st.Missions, 1)
		require.Contains(t, st.Missions, otherUUID)
		require.Len(t, st.Finished, 1)
		assert.Equal(t, missionUUID, st.Finished[0].ID)
		assert.Equal(t, missions.StatusCancelled, st.Finished[0].Status)

		key := missions.ItemKey("WASTE", "Everus Harbor", missions.TypeDelivery)
		assert.Equal(t, 4, st.Missions[otherUUID].Items[key].Delivered)
	})
}

func TestScenarioCancellationByTitle(t *testing.T) {
	h := newHarness()
	h.feed(
		`<SHUDEvent_OnNotification> Added notification "Contract Accepted: Waste Removal" [1], MissionId: [`+missionUUID+`]`,
		`<SHUDEvent_OnNotification> Added notification "Contract Abandoned: Waste Removal" [2]`,
	)

	h.store.View(func(st *missions.State) {
		assert.Empty(t, st.Missions)
		require.Len(t, st.Finished, 1)
		assert.Equal(t, missions.StatusCancelled, st.Finished[0].Status)
		assert.Equal(t, missions.IndicatorCancelled, st.MissionStatus)
	})
}

func TestScenarioMarkerPlaceholder(t *testing.T) {
	h := newHarness()
	h.feed(`<CLocalMissionPhaseMarker::CreateMarker> Creating objective marker for missionId [` + missionUUID + `] contract [HaulCargo_AToB_NonMetal_Silicon_Stanton1_SmallGrade1]`)

	h.store.View(func(st *missions.State) {
		require.Contains(t, st.Missions, missionUUID)
		m := st.Missions[missionUUID]
		assert.Equal(t, "Contract: Silicon Haul", m.Title)
		require.Len(t, m.Items, 1)
		for _, item := range m.Items {
			assert.Equal(t, "See Objective", item.Destination)
			assert.Zero(t, item.Volume)
		}
	})
}

func TestScenarioEndUnknownMissionIgnored(t *testing.T) {
	h := newHarness()
	h.feed(
		`<EndMission> Ending mission for player. MissionId[`+missionUUID+`] CompletionType[Abandon] Reason[Gone]`,
		`Awarded 1000 aUEC: stray payout`,
	)

	h.store.View(func(st *missions.State) {
		assert.Empty(t, st.Missions)
		assert.Empty(t, st.Finished)
	})
}

func TestScenarioUnrecognizedOutcomeLeavesMissionActive(t *testing.T) {
	h := newHarness()
	h.feed(
		`<SHUDEvent_OnNotification> Added notification "Contract Accepted: Waste Removal" [1], MissionId: [`+missionUUID+`]`,
		`<EndMission> Ending mission for player. MissionId[`+missionUUID+`] CompletionType[Interrupted] Reason[Crash]`,
	)

	h.store.View(func(st *missions.State) {
		assert.Contains(t, st.Missions, missionUUID)
		assert.Empty(t, st.Finished)
	})
}

func TestScenarioIdentityAndLocation(t *testing.T) {
	h := newHarness()
	h.feed(
		`<Vehicle> spawning DRAKE_CORSAIR_123 at pad 3`,
		`<RequestLocationInventory> Player[PilotOne] requested inventory for Location[RR_HUR_LEO]`,
	)
	h.store.View(func(st *missions.State) {
		assert.Equal(t, "DRAKE CORSAIR", st.ShipName)
		assert.Equal(t, "Everus Harbor", st.Location)
	})

	// A real channel join overrides the model-id guess; later model-id
	// sightings no longer apply.
	h.feed(`Player joined channel 'ARGO CAT : PilotOne'`)
	h.feed(`<Vehicle> spawning HULL_C_7 at pad 1`)
	h.store.View(func(st *missions.State) {
		assert.Equal(t, "ARGO CAT", st.ShipName)
		assert.Equal(t, "PilotOne", st.PlayerName)
	})
}

func TestScenarioReplayIsIdempotent(t *testing.T) {
	h := newHarness()
	lines := []string{
		`<SHUDEvent_OnNotification> Added notification "Contract Accepted: Waste Removal" [1], MissionId: [` + missionUUID + `]`,
		`<SHUDEvent_OnNotification> Added notification "New Objective: Deliver 2/6 SCU of Waste to Everus Harbor: " [2], MissionId: [` + missionUUID + `]`,
	}
	h.feed(lines...)
	h.feed(lines...)

	h.store.View(func(st *missions.State) {
		require.Len(t, st.Missions, 1)
		assert.Len(t, st.Missions[missionUUID].Items, 1)
		assert.Empty(t, st.Finished)
	})
}
