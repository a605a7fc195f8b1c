package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haulmon/internal/missions"
)

func openTestDB(t *testing.T) (*SQLiteDatabase, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "haulmon.db")
	db := NewDatabase()
	require.NoError(t, db.Open(path))
	t.Cleanup(func() { db.Close() })
	return db, path
}

func TestLoadSessionEmpty(t *testing.T) {
	db, _ := openTestDB(t)
	_, ok, err := db.LoadSession()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionRoundTrip(t *testing.T) {
	db, path := openTestDB(t)

	start := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	state := missions.NewState(start)
	m := state.CreateMission("m1", "Local Hauling", "LOG (Native)", start)
	key := missions.ItemKey("WASTE", "Everus Harbor", missions.TypeDelivery)
	m.Items[key] = missions.CargoItem{
		Material:    "WASTE",
		Destination: "Everus Harbor",
		Type:        missions.TypeDelivery,
		Volume:      10,
		Delivered:   4,
		Status:      missions.ItemPending,
		Origin:      missions.OriginLog,
		Action:      "DELIVER",
	}
	state.PlayerName = "PilotOne"
	snap := snapshotOf(state)
	require.NoError(t, db.SaveSession(snap))

	// Saving again replaces, never appends.
	require.NoError(t, db.SaveSession(snap))
	require.NoError(t, db.Close())

	reopened := NewDatabase()
	require.NoError(t, reopened.Open(path))
	defer reopened.Close()

	loaded, ok, err := reopened.LoadSession()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "PilotOne", loaded.PlayerName)
	require.Contains(t, loaded.Missions, "m1")
	assert.Equal(t, 4, loaded.Missions["m1"].Items[key].Delivered)
	assert.True(t, loaded.SessionStart.Equal(start))
}

func snapshotOf(st *missions.State) missions.Snapshot {
	return missions.Snapshot{
		Missions:      st.Missions,
		Finished:      st.Finished,
		Location:      st.Location,
		ShipName:      st.ShipName,
		PlayerName:    st.PlayerName,
		MissionStatus: st.MissionStatus,
		SessionStart:  st.SessionStart,
	}
}
