package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"article-forge-api/internal/domain/entity"
	"article-forge-api/internal/domain/repository"
	apperrors "article-forge-api/pkg/errors"
)

const usageKeyPrefix = "keyword:usage:"

// 周期不同则重置为 1，否则自增；脚本在 Redis 内串行执行
var incrementUsageScript = redis.NewScript(`
local period = redis.call('HGET', KEYS[1], 'period_key')
local count
if period == ARGV[1] then
	count = redis.call('HINCRBY', KEYS[1], 'call_count', 1)
else
	redis.call('HSET', KEYS[1], 'period_key', ARGV[1], 'call_count', 1)
	count = 1
end
redis.call('HSET', KEYS[1], 'updated_at', ARGV[2])
return count
`)

// UsageCounterRepository Redis 版关键词调用计数仓储
type UsageCounterRepository struct {
	client *Client
	now    func() time.Time
}

var _ repository.UsageCounterRepository = (*UsageCounterRepository)(nil)

// NewUsageCounterRepository 创建计数仓储
func NewUsageCounterRepository(client *Client) *UsageCounterRepository {
	return &UsageCounterRepository{client: client, now: time.Now}
}

func usageKey(provider entity.KeywordProvider) string {
	return usageKeyPrefix + string(provider)
}

// Increment 原子自增
func (r *UsageCounterRepository) Increment(ctx context.Context, provider entity.KeywordProvider, periodKey string) (*entity.UsageCounter, error) {
	ctx, span := tracer.Start(ctx, "redis.UsageCounterRepository.Increment")
	defer span.End()

	now := r.now().UTC()
	count, err := incrementUsageScript.Run(ctx, r.client.rdb, []string{usageKey(provider)}, periodKey, now.UnixMilli()).Int64()
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeStorageUnavailable, "failed to increment usage counter")
	}
	return &entity.UsageCounter{
		Provider:  provider,
		PeriodKey: periodKey,
		CallCount: count,
		UpdatedAt: now,
	}, nil
}

// List 返回全部已存在的计数
func (r *UsageCounterRepository) List(ctx context.Context) ([]*entity.UsageCounter, error) {
	ctx, span := tracer.Start(ctx, "redis.UsageCounterRepository.List")
	defer span.End()

	providers := entity.KeywordProviders()
	pipe := r.client.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(providers))
	for i, p := range providers {
		cmds[i] = pipe.HGetAll(ctx, usageKey(p))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeStorageUnavailable, "failed to list usage counters")
	}

	counters := make([]*entity.UsageCounter, 0, len(providers))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		count, err := strconv.ParseInt(fields["call_count"], 10, 64)
		if err != nil {
			span.RecordError(err)
			return nil, apperrors.Wrap(err, apperrors.CodeStorageUnavailable, "corrupt usage counter for "+string(providers[i]))
		}
		var updatedMs int64
		if v := fields["updated_at"]; v != "" {
			if updatedMs, err = strconv.ParseInt(v, 10, 64); err != nil {
				span.RecordError(err)
				return nil, apperrors.Wrap(err, apperrors.CodeStorageUnavailable, "corrupt usage counter for "+string(providers[i]))
			}
		}
		counters = append(counters, &entity.UsageCounter{
			Provider:  providers[i],
			PeriodKey: fields["period_key"],
			CallCount: count,
			UpdatedAt: time.UnixMilli(updatedMs).UTC(),
		})
	}
	return counters, nil
}
