//nolint:dupl,funlen,errcheck //ok for this test code
package raceresult

import (
	"context"
	"log"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velora-sim/velora/pkg/model"
	"github.com/velora-sim/velora/testsupport/testdb"
)

func initTestDb() *pgxpool.Pool {
	return testdb.InitTestDb()
}

func sampleSnapshot(raceID string) *model.Snapshot {
	return &model.Snapshot{
		RaceID:    raceID,
		State:     "Finished",
		SimTime:   245.5,
		LapTarget: 3,
		Weather:   "Clear",
		Cars: []model.CarState{
			{
				ID: 1, Name: "Lightning", Status: "Finished", Lap: 3, PitStops: 1,
				TotalTime: 240.1, FinishTime: 240.1,
				LapTimes: []float64{81.0, 80.2, 78.9},
			},
			{
				ID: 0, Name: "Thunder", Status: "DidNotFinish", Lap: 1,
				TotalTime: 100.0, FinishTime: -1,
				LapTimes: []float64{82.5},
			},
		},
		Events: []model.RaceEvent{
			{Type: model.EventAccident, CarID: 0, SimTime: 95.0, Message: "accident"},
			{Type: model.EventFinish, CarID: 1, SimTime: 240.1, Message: "finished"},
		},
	}
}

func createSampleEntry(db *pgxpool.Pool, raceID string) *model.Snapshot {
	snap := sampleSnapshot(raceID)
	err := pgx.BeginFunc(context.Background(), db, func(tx pgx.Tx) error {
		return SaveSnapshot(context.Background(), tx.Conn(), "Demo Ring", snap)
	})
	if err != nil {
		log.Fatalf("createSampleEntry: %v\n", err)
	}
	return snap
}

func TestSaveSnapshot(t *testing.T) {
	pool := initTestDb()
	tests := []struct {
		name    string
		raceID  string
		wantErr bool
	}{
		{name: "new entry", raceID: "race-2"},
		{name: "duplicate", raceID: "race-1", wantErr: true},
	}
	createSampleEntry(pool, "race-1")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pool.AcquireFunc(context.Background(), func(c *pgxpool.Conn) error {
				return SaveSnapshot(context.Background(), c.Conn(),
					"Demo Ring", sampleSnapshot(tt.raceID))
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("SaveSnapshot error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadById(t *testing.T) {
	pool := initTestDb()
	createSampleEntry(pool, "race-1")
	got, err := LoadById(context.Background(), pool, "race-1")
	if err != nil {
		t.Fatalf("LoadById error = %v", err)
	}
	if got.TrackName != "Demo Ring" || got.LapTarget != 3 {
		t.Errorf("LoadById = %+v", got)
	}
	if _, err := LoadById(context.Background(), pool, "no-such-race"); err == nil {
		t.Errorf("LoadById for unknown id should fail")
	}
}

func TestLoadResults(t *testing.T) {
	pool := initTestDb()
	snap := createSampleEntry(pool, "race-1")
	got, err := LoadResults(context.Background(), pool, "race-1")
	if err != nil {
		t.Fatalf("LoadResults error = %v", err)
	}
	if len(got) != len(snap.Cars) {
		t.Fatalf("LoadResults = %d entries, want %d", len(got), len(snap.Cars))
	}
	// classification order is preserved via the position column
	if got[0].Name != "Lightning" || got[0].Position != 1 {
		t.Errorf("first result = %+v", got[0])
	}
	if got[1].Status != "DidNotFinish" {
		t.Errorf("second result = %+v", got[1])
	}
}

func TestLoadLaps(t *testing.T) {
	pool := initTestDb()
	createSampleEntry(pool, "race-1")
	got, err := LoadLaps(context.Background(), pool, "race-1", 1)
	if err != nil {
		t.Fatalf("LoadLaps error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("LoadLaps = %d entries, want 3", len(got))
	}
	if got[2].Lap != 3 || got[2].LapTime != 78.9 {
		t.Errorf("last lap = %+v", got[2])
	}
}

func TestDeleteById(t *testing.T) {
	pool := initTestDb()
	createSampleEntry(pool, "race-1")
	num, err := DeleteById(context.Background(), pool, "race-1")
	if err != nil {
		t.Fatalf("DeleteById error = %v", err)
	}
	if num != 1 {
		t.Errorf("DeleteById = %d, want 1", num)
	}
	// cascade removes dependent rows
	results, err := LoadResults(context.Background(), pool, "race-1")
	if err != nil {
		t.Fatalf("LoadResults error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results not cascaded, got %d", len(results))
	}
}

func TestLoadAll(t *testing.T) {
	pool := initTestDb()
	createSampleEntry(pool, "race-1")
	createSampleEntry(pool, "race-2")
	got, err := LoadAll(context.Background(), pool)
	if err != nil {
		t.Fatalf("LoadAll error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("LoadAll = %d entries, want 2", len(got))
	}
}
