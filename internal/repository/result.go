package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const DefaultResultsKey = "results"

// ResultRepository keeps the most recent room results in a capped Redis list, newest first.
type ResultRepository interface {
	Save(ctx context.Context, result entity.RoomResult) error
	List(ctx context.Context, limit int64) ([]entity.RoomResult, error)
}

type dbResult struct {
	client *redis.Client
	key    string
	limit  int64
}

func NewResultRepository(client *redis.Client, key string, limit int64) ResultRepository {
	if key == "" {
		key = DefaultResultsKey
	}

	return &dbResult{
		client: client,
		key:    key,
		limit:  limit,
	}
}

func (that *dbResult) Save(ctx context.Context, result entity.RoomResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("could not marshal result: %w", err)
	}

	pipe := that.client.TxPipeline()
	pipe.LPush(ctx, that.key, resultJSON)
	if that.limit > 0 {
		pipe.LTrim(ctx, that.key, 0, that.limit-1)
	}

	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}

	return nil
}

func (that *dbResult) List(ctx context.Context, limit int64) ([]entity.RoomResult, error) {
	if limit <= 0 {
		return []entity.RoomResult{}, nil
	}

	response, err := that.client.LRange(ctx, that.key, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	results := make([]entity.RoomResult, 0, len(response))
	for _, raw := range response {
		var result entity.RoomResult
		if err = json.Unmarshal([]byte(raw), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}

		results = append(results, result)
	}

	return results, nil
}
