//nolint:whitespace //can't make both the linter and editor happy :(
package raceresult

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/velora-sim/velora/pkg/model"
	"github.com/velora-sim/velora/pkg/repository"
)

// SaveSnapshot stores a finished race: header, classification, lap
// times and the event log. Cars must already be in leaderboard order.
func SaveSnapshot(
	ctx context.Context,
	conn repository.Querier,
	trackName string,
	snap *model.Snapshot,
) error {
	_, err := conn.Exec(ctx,
		`insert into race (id, track_name, lap_target, sim_duration, weather)
		 values ($1,$2,$3,$4,$5)`,
		snap.RaceID, trackName, snap.LapTarget, snap.SimTime, snap.Weather)
	if err != nil {
		return err
	}
	for pos, c := range snap.Cars {
		_, err = conn.Exec(ctx,
			`insert into race_result
			 (race_id, car_id, name, position, status, laps, pit_stops, total_time, finish_time)
			 values ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			snap.RaceID, c.ID, c.Name, pos+1, c.Status, c.Lap, c.PitStops,
			c.TotalTime, c.FinishTime)
		if err != nil {
			return err
		}
		for i, lt := range c.LapTimes {
			_, err = conn.Exec(ctx,
				`insert into race_lap (race_id, car_id, lap, lap_time)
				 values ($1,$2,$3,$4)`,
				snap.RaceID, c.ID, i+1, lt)
			if err != nil {
				return err
			}
		}
	}
	for _, e := range snap.Events {
		_, err = conn.Exec(ctx,
			`insert into race_event (race_id, car_id, sim_time, event_type, message)
			 values ($1,$2,$3,$4,$5)`,
			snap.RaceID, e.CarID, e.SimTime, string(e.Type), e.Message)
		if err != nil {
			return err
		}
	}
	return nil
}

// deletes a race and its dependent rows, returns number of race rows deleted.
func DeleteById(ctx context.Context, conn repository.Querier, raceID string) (int, error) {
	cmdTag, err := conn.Exec(ctx, "delete from race where id=$1", raceID)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

func LoadById(
	ctx context.Context,
	conn repository.Querier,
	raceID string,
) (*model.DbRace, error) {
	row := conn.QueryRow(ctx,
		fmt.Sprintf("%s where id=$1", raceSelector), raceID)
	var item model.DbRace
	if err := scanRace(&item, row); err != nil {
		return nil, err
	}
	return &item, nil
}

func LoadAll(ctx context.Context, conn repository.Querier) ([]*model.DbRace, error) {
	rows, err := conn.Query(ctx,
		fmt.Sprintf("%s order by recorded desc", raceSelector))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ret []*model.DbRace
	for rows.Next() {
		var item model.DbRace
		if err := scanRace(&item, rows); err != nil {
			return nil, err
		}
		ret = append(ret, &item)
	}
	return ret, rows.Err()
}

func LoadResults(
	ctx context.Context,
	conn repository.Querier,
	raceID string,
) ([]*model.DbRaceResult, error) {
	rows, err := conn.Query(ctx,
		`select race_id, car_id, name, position, status, laps, pit_stops,
		        total_time, finish_time
		 from race_result where race_id=$1 order by position asc`, raceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ret []*model.DbRaceResult
	for rows.Next() {
		var item model.DbRaceResult
		if err := rows.Scan(&item.RaceID, &item.CarID, &item.Name, &item.Position,
			&item.Status, &item.Laps, &item.PitStops,
			&item.TotalTime, &item.FinishTime); err != nil {
			return nil, err
		}
		ret = append(ret, &item)
	}
	return ret, rows.Err()
}

func LoadLaps(
	ctx context.Context,
	conn repository.Querier,
	raceID string,
	carID int,
) ([]*model.DbRaceLap, error) {
	rows, err := conn.Query(ctx,
		`select race_id, car_id, lap, lap_time
		 from race_lap where race_id=$1 and car_id=$2 order by lap asc`,
		raceID, carID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ret []*model.DbRaceLap
	for rows.Next() {
		var item model.DbRaceLap
		if err := rows.Scan(&item.RaceID, &item.CarID, &item.Lap, &item.LapTime); err != nil {
			return nil, err
		}
		ret = append(ret, &item)
	}
	return ret, rows.Err()
}

// little helper
const raceSelector = string(
	`select id, track_name, lap_target, sim_duration, weather, recorded from race`)

func scanRace(e *model.DbRace, row pgx.Row) error {
	return row.Scan(&e.ID, &e.TrackName, &e.LapTarget, &e.SimDuration,
		&e.Weather, &e.Recorded)
}
