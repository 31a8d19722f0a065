package service

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velora-sim/velora/pkg/model"
	"github.com/velora-sim/velora/pkg/repository/raceresult"
)

type ResultService struct {
	pool *pgxpool.Pool
}

func InitResultService(pool *pgxpool.Pool) *ResultService {
	resultService := ResultService{pool: pool}
	return &resultService
}

// SaveRace stores a finished race in a single transaction.
func (s *ResultService) SaveRace(
	ctx context.Context, trackName string, snap *model.Snapshot,
) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return raceresult.SaveSnapshot(ctx, tx.Conn(), trackName, snap)
	})
}

func (s *ResultService) ListRaces(ctx context.Context) ([]*model.DbRace, error) {
	return raceresult.LoadAll(ctx, s.pool)
}

func (s *ResultService) GetRace(ctx context.Context, raceID string) (*model.DbRace, error) {
	return raceresult.LoadById(ctx, s.pool, raceID)
}

func (s *ResultService) GetResults(
	ctx context.Context, raceID string,
) ([]*model.DbRaceResult, error) {
	return raceresult.LoadResults(ctx, s.pool, raceID)
}

func (s *ResultService) DeleteRace(ctx context.Context, raceID string) (int, error) {
	return raceresult.DeleteById(ctx, s.pool, raceID)
}
