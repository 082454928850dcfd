package redisadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"coliseum/contexts/competition/scoring-service/domain/entities"

	"github.com/redis/go-redis/v9"
)

const (
	keyStandingsRank = "standings:rank:"
	keyStandingsInfo = "standings:info:"
	cacheTTL         = 10 * time.Minute
)

// StandingsCache keeps each arena's ranking in a sorted set keyed by points
// and the full standing rows in a companion hash. A whole arena is replaced
// in one pipeline so readers never see a half-written ranking.
type StandingsCache struct {
	client *redis.Client
	logger *slog.Logger
}

func NewStandingsCache(client *redis.Client, logger *slog.Logger) *StandingsCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &StandingsCache{client: client, logger: logger}
}

func (c *StandingsCache) ReplaceArena(ctx context.Context, arenaID string, standings []entities.Standing) error {
	rankKey := keyStandingsRank + arenaID
	infoKey := keyStandingsInfo + arenaID

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, rankKey, infoKey)

	if len(standings) > 0 {
		members := make([]redis.Z, 0, len(standings))
		rows := make(map[string]any, len(standings))
		for _, standing := range standings {
			members = append(members, redis.Z{
				Score:  float64(standing.Points),
				Member: standing.CreatorID,
			})
			data, err := json.Marshal(standing)
			if err != nil {
				return fmt.Errorf("marshal standing %s: %w", standing.CreatorID, err)
			}
			rows[standing.CreatorID] = data
		}
		pipe.ZAdd(ctx, rankKey, members...)
		pipe.HSet(ctx, infoKey, rows)
	}

	pipe.Expire(ctx, rankKey, cacheTTL)
	pipe.Expire(ctx, infoKey, cacheTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *StandingsCache) GetArena(ctx context.Context, arenaID string) ([]entities.Standing, bool, error) {
	rankKey := keyStandingsRank + arenaID
	infoKey := keyStandingsInfo + arenaID

	creatorIDs, err := c.client.ZRevRange(ctx, rankKey, 0, -1).Result()
	if err != nil {
		return nil, false, err
	}
	if len(creatorIDs) == 0 {
		return nil, false, nil
	}

	rows, err := c.client.HMGet(ctx, infoKey, creatorIDs...).Result()
	if err != nil {
		return nil, false, err
	}

	standings := make([]entities.Standing, 0, len(creatorIDs))
	for i, raw := range rows {
		data, ok := raw.(string)
		if !ok {
			// Hash and sorted set drifted apart; treat as a miss so the
			// caller rebuilds from the repository.
			return nil, false, nil
		}
		var standing entities.Standing
		if err := json.Unmarshal([]byte(data), &standing); err != nil {
			return nil, false, fmt.Errorf("unmarshal standing %s: %w", creatorIDs[i], err)
		}
		standings = append(standings, standing)
	}
	return standings, true, nil
}
