// Package wire 提供依赖注入配置
package wire

import (
	"fmt"
	"os"

	"article-forge-api/internal/application/article"
	"article-forge-api/internal/application/job"
	"article-forge-api/internal/application/research"
	"article-forge-api/internal/config"
	"article-forge-api/internal/domain/repository"
	"article-forge-api/internal/domain/service"
	"article-forge-api/internal/infrastructure/keyword"
	"article-forge-api/internal/infrastructure/llm"
	"article-forge-api/internal/infrastructure/messaging"
	"article-forge-api/internal/infrastructure/persistence/postgres"
	"article-forge-api/internal/infrastructure/persistence/redis"
	workflowprompt "article-forge-api/internal/workflow/prompt"
)

// Worker job-worker 运行所需依赖
type Worker struct {
	Consumer *messaging.Consumer
	Jobs     *job.Service
}

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideMessagingProducer 提供消息生产者
func ProvideMessagingProducer(redisClient *redis.Client, cfg *config.Config) *messaging.Producer {
	return messaging.NewProducer(redisClient.Redis(), int64(cfg.Messaging.RedisStream.MaxLen))
}

// ProvideConsumer 提供文章生成任务消费者
func ProvideConsumer(redisClient *redis.Client, cfg *config.Config) *messaging.Consumer {
	rs := cfg.Messaging.RedisStream
	return messaging.NewConsumer(redisClient.Redis(), messaging.ConsumerConfig{
		Stream:        messaging.StreamArticleGen,
		Group:         messaging.ConsumerGroupArticleWorker,
		ConsumerName:  hostnameConsumerName(),
		BlockTimeout:  rs.BlockTimeout,
		ClaimInterval: rs.ClaimInterval,
		RetryLimit:    rs.RetryLimit,
		Backoff:       messaging.BackoffFromConfig(rs.RetryBackoff),
	})
}

// ProvideUsageCounterRepository 按 keyword.store 选择用量账本存储
func ProvideUsageCounterRepository(cfg *config.Config, pg *postgres.Client, redisClient *redis.Client) repository.UsageCounterRepository {
	if cfg.Keyword.Store == "redis" {
		return redis.NewUsageCounterRepository(redisClient)
	}
	return postgres.NewUsageCounterRepository(pg)
}

// ProvideArticleRepository 提供带 Redis 读缓存的文章仓储
func ProvideArticleRepository(pg *postgres.Client, redisClient *redis.Client, cfg *config.Config) repository.ArticleRepository {
	return redis.NewCachedArticleRepository(postgres.NewArticleRepository(pg), redisClient, cfg.Cache.Redis.ArticleTTL)
}

// ProvideKeywordResearchers 提供已配置的关键词数据源客户端
// 未配置 API Key 的数据源不注册
func ProvideKeywordResearchers(cfg *config.Config) []service.KeywordResearcher {
	researchers := make([]service.KeywordResearcher, 0, 2)
	if cfg.Keyword.SerpAPI.APIKey != "" {
		researchers = append(researchers, keyword.NewSerpAPIClient(cfg.Keyword.SerpAPI))
	}
	if cfg.Keyword.Serper.APIKey != "" {
		researchers = append(researchers, keyword.NewSerperClient(cfg.Keyword.Serper))
	}
	return researchers
}

// ProvideResearchService 提供关键词研究服务
func ProvideResearchService(budget research.Budget, recorder research.UsageRecorder, researchers []service.KeywordResearcher, cfg *config.Config) *research.Service {
	return research.NewService(budget, recorder, researchers,
		research.WithCallTimeout(max(cfg.Keyword.SerpAPI.Timeout, cfg.Keyword.Serper.Timeout)))
}

// ProvideGenerator 提供文章生成编排器
func ProvideGenerator(
	registry *llm.Registry,
	prompts *workflowprompt.Registry,
	researcher article.Researcher,
	articles repository.ArticleRepository,
	cfg *config.Config,
) *article.Generator {
	return article.NewGenerator(registry, prompts, researcher, articles, cfg.Generation)
}

// ProvideJobService 提供异步任务服务，任务最多执行次数与消息重投上限一致
func ProvideJobService(
	jobs repository.JobRepository,
	tx repository.Transactor,
	publisher job.Publisher,
	generator job.ArticleGenerator,
	cfg *config.Config,
) *job.Service {
	return job.NewService(jobs, tx, publisher, generator, cfg.Messaging.RedisStream.RetryLimit)
}

func hostnameConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
