package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/velora-sim/velora/pkg/simulation/race"
	"github.com/velora-sim/velora/pkg/simulation/track"
)

// A subscriber that stays on the channel must see the terminal
// snapshot, since persistence hangs off that delivery.
func TestSubscriberReceivesFinalSnapshot(t *testing.T) {
	prof, err := track.Ring(1000, track.DefaultProfileParams())
	require.NoError(t, err)
	m := NewManager(prof, WithSpeedFactor(5000))
	t.Cleanup(m.Close)

	_, err = m.CreateRace(
		race.WithLapTarget(1),
		race.WithGeneratedCars(1),
		race.WithSeed(3))
	require.NoError(t, err)

	sub := m.Subscribe()
	require.NoError(t, m.StartRace())

	deadline := time.After(30 * time.Second)
	for {
		select {
		case snap, ok := <-sub:
			require.True(t, ok, "subscription closed before the race finished")
			if snap.State == race.Finished.String() {
				require.NotEmpty(t, snap.Cars)
				return
			}
		case <-deadline:
			t.Fatal("no finished snapshot received")
		}
	}
}
