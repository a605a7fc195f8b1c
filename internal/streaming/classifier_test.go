package streaming

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const missionUUID = "a1b2c3d4-1111-2222-3333-444455556666"

func newTestClassifier() *Classifier {
	c := NewClassifier(DefaultPatterns())
	c.now = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }
	return c
}

func TestClassifyContractAccepted(t *testing.T) {
	c := newTestClassifier()
	line := `<2024-03-15T10:00:01.000Z> [Notice] <SHUDEvent_OnNotification> Added notification "Contract Accepted: Local Salvage Delivery: Ship Resources" [12345], MissionId: [` + missionUUID + `]`

	events := c.Classify(line)
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, EventContractAccepted, ev.Kind)
	assert.Equal(t, DialectNative, ev.Dialect)
	assert.Equal(t, missionUUID, ev.MissionID)
	assert.Equal(t, "Local Salvage Delivery", ev.Title)

	// The same notification id arrives again on fade-out. Classified once.
	assert.Empty(t, c.Classify(line))
}

func TestClassifyObjectiveNative(t *testing.T) {
	c := newTestClassifier()
	line := `<SHUDEvent_OnNotification> Added notification "New Objective: Deliver 0/9 SCU of Silicon to HDPC-Farnesway: " [12346], MissionId: [` + missionUUID + `]`

	events := c.Classify(line)
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, EventObjectiveUpdate, ev.Kind)
	assert.Equal(t, missionUUID, ev.MissionID)
	assert.Equal(t, "DELIVER", ev.Action)
	assert.Equal(t, 0, ev.Current)
	assert.Equal(t, 9, ev.Total)
	assert.Equal(t, "SILICON", ev.Material)
	assert.Equal(t, "HDPC-Farnesway", ev.Location)
	assert.False(t, ev.ExplicitComplete)
}

func TestClassifyObjectiveComplete(t *testing.T) {
	c := newTestClassifier()
	line := `<SHUDEvent_OnNotification> Added notification "Objective Complete: Deliver 9/9 SCU of Silicon to HDPC-Farnesway: " [12347], MissionId: [` + missionUUID + `]`

	events := c.Classify(line)
	require.Len(t, events, 1)
	assert.True(t, events[0].ExplicitComplete)
	assert.Equal(t, 9, events[0].Current)
}

func TestClassifyObjectiveSingleNumber(t *testing.T) {
	c := newTestClassifier()
	// Fresh objectives sometimes state only the total.
	line := `<SHUDEvent_OnNotification> Added notification "New Objective: Collect 12 SCU of Waste at Everus Harbor: " [12348], MissionId: [` + missionUUID + `]`

	events := c.Classify(line)
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, "COLLECT", ev.Action)
	assert.Equal(t, 0, ev.Current)
	assert.Equal(t, 12, ev.Total)
	assert.Equal(t, "WASTE", ev.Material)
	assert.Equal(t, "Everus Harbor", ev.Location)
}

func TestClassifyObjectiveWithoutMissionID(t *testing.T) {
	c := newTestClassifier()
	line := `<SHUDEvent_OnNotification> Added notification "New Objective: Deliver 2/6 SCU of Waste to Everus Harbor: " [12349]`

	events := c.Classify(line)
	require.Len(t, events, 1)
	assert.Empty(t, events[0].MissionID)
	assert.Equal(t, 2, events[0].Current)
}

func TestClassifyContractCanceled(t *testing.T) {
	c := newTestClassifier()
	line := `<SHUDEvent_OnNotification> Added notification "Contract Canceled: Local Salvage Delivery" [12350]`

	events := c.Classify(line)
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, EventContractEnded, ev.Kind)
	assert.Equal(t, "Local Salvage Delivery", ev.Title)
	assert.Equal(t, OutcomeAbandon, ev.Outcome)
}

func TestClassifyUIContract(t *testing.T) {
	c := newTestClassifier()
	accepted := `<UpdateNotificationItem> Notification "Contract Accepted: Cargo Haul: Stuff" [890], Action: Add`

	events := c.Classify(accepted)
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, EventContractAccepted, ev.Kind)
	assert.Equal(t, DialectUI, ev.Dialect)
	assert.Equal(t, "Cargo Haul", ev.Title)
	assert.Contains(t, ev.MissionID, "ui_")

	objective := `<UpdateNotificationItem> Notification "New Objective: Deliver 1/4 SCU of Gold to Port Tressler: " [891], Action: Add`
	events = c.Classify(objective)
	require.Len(t, events, 1)
	assert.Equal(t, EventObjectiveUpdate, events[0].Kind)
	assert.Equal(t, DialectUI, events[0].Dialect)
	assert.Empty(t, events[0].MissionID)
}

func TestClassifyUIDedupSharedWithNative(t *testing.T) {
	c := newTestClassifier()
	native := `<SHUDEvent_OnNotification> Added notification "Contract Accepted: Cargo Haul" [777], MissionId: [` + missionUUID + `]`
	ui := `<UpdateNotificationItem> Notification "Contract Accepted: Cargo Haul" [777], Action: Add`

	require.Len(t, c.Classify(native), 1)
	// The UI mirror of the same notification must not create a second mission.
	assert.Empty(t, c.Classify(ui))
}

func TestClassifyMarker(t *testing.T) {
	c := newTestClassifier()
	line := `<CLocalMissionPhaseMarker::CreateMarker> Creating objective marker for missionId [` + missionUUID + `] contract [HaulCargo_AToB_NonMetal_Silicon_Stanton1_SmallGrade1]`

	events := c.Classify(line)
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, EventContractAccepted, ev.Kind)
	assert.Equal(t, DialectMarker, ev.Dialect)
	assert.Equal(t, missionUUID, ev.MissionID)
	assert.Equal(t, "Silicon", ev.Material)
}

func TestClassifyMissionEnd(t *testing.T) {
	c := newTestClassifier()
	cases := []struct {
		line    string
		outcome string
		dialect Dialect
	}{
		{`<EndMission> Ending mission for player. MissionId[` + missionUUID + `] CompletionType[Abandon] Reason[PlayerQuit]`, OutcomeAbandon, DialectNative},
		{`<EndMission> Ending mission for player. MissionId[` + missionUUID + `] CompletionType[Complete] Reason[Done]`, OutcomeSuccess, DialectNative},
		{`<MissionEnded> push for mission_id ` + missionUUID + ` mission_state MISSION_STATE_COMPLETED`, OutcomeSuccess, DialectPush},
		{`<MissionEnded> push for mission_id ` + missionUUID + ` mission_state MISSION_STATE_FAILED`, OutcomeFail, DialectPush},
	}
	for _, tc := range cases {
		events := c.Classify(tc.line)
		require.Len(t, events, 1, tc.line)
		assert.Equal(t, EventContractEnded, events[0].Kind)
		assert.Equal(t, tc.outcome, events[0].Outcome)
		assert.Equal(t, tc.dialect, events[0].Dialect)
	}
}

func TestClassifyReward(t *testing.T) {
	c := newTestClassifier()
	events := c.Classify(`<2024-03-15T10:05:00.000Z> Awarded 50250 aUEC: contract payout`)
	require.Len(t, events, 1)
	assert.Equal(t, EventRewardAwarded, events[0].Kind)
	assert.Equal(t, 50250, events[0].Amount)
}

func TestClassifyIdentity(t *testing.T) {
	c := newTestClassifier()
	events := c.Classify(`<2024-03-15T10:00:00.000Z> Player joined channel 'drake cat : PilotOne'`)
	require.Len(t, events, 1)
	assert.Equal(t, EventIdentityUpdate, events[0].Kind)
	assert.Equal(t, "DRAKE CAT", events[0].Ship)
	assert.Equal(t, "PilotOne", events[0].Player)
}

func TestClassifyShipFallback(t *testing.T) {
	c := newTestClassifier()
	events := c.Classify(`<Vehicle> spawning DRAKE_CORSAIR_123 at pad 3`)
	require.Len(t, events, 1)
	assert.Equal(t, "DRAKE CORSAIR", events[0].Ship)
	assert.Empty(t, events[0].Player)
}

func TestClassifyLocation(t *testing.T) {
	c := newTestClassifier()
	events := c.Classify(`<RequestLocationInventory> Player[PilotOne] requested inventory for Location[RR_HUR_LEO]`)
	require.Len(t, events, 1)
	assert.Equal(t, EventLocationUpdate, events[0].Kind)
	assert.Equal(t, "Everus Harbor", events[0].Location)
}

func TestClassifyNoise(t *testing.T) {
	c := newTestClassifier()
	assert.Empty(t, c.Classify(""))
	assert.Empty(t, c.Classify("<2024-03-15T10:00:00.000Z> [Trace] CIG perf frame 16ms"))
	assert.Empty(t, c.Classify(`<SHUDEvent_OnNotification> Added notification "Party invite received" [999]`))
}

func TestPatternOverrides(t *testing.T) {
	ps, err := NewPatterns(map[string]string{"contract_accepted": "Contrato Aceito"})
	require.NoError(t, err)
	c := NewClassifier(ps)
	c.now = func() time.Time { return time.Unix(0, 0) }

	line := `<SHUDEvent_OnNotification> Added notification "Contrato Aceito: Entrega Local" [100], MissionId: [` + missionUUID + `]`
	events := c.Classify(line)
	require.Len(t, events, 1)
	assert.Equal(t, EventContractAccepted, events[0].Kind)

	_, err = NewPatterns(map[string]string{"scu_regex": "("})
	assert.Error(t, err)
	_, err = NewPatterns(map[string]string{"no_such_key": "x"})
	assert.Error(t, err)
}
