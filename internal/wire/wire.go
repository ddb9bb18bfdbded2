//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"article-forge-api/internal/application/article"
	"article-forge-api/internal/application/job"
	"article-forge-api/internal/application/quota"
	"article-forge-api/internal/application/research"
	"article-forge-api/internal/config"
	"article-forge-api/internal/domain/repository"
	"article-forge-api/internal/infrastructure/llm"
	"article-forge-api/internal/infrastructure/messaging"
	"article-forge-api/internal/infrastructure/persistence/postgres"
	"article-forge-api/internal/infrastructure/persistence/redis"
	"article-forge-api/internal/interfaces/http/handler"
	"article-forge-api/internal/interfaces/http/middleware"
	"article-forge-api/internal/interfaces/http/router"
	workflowport "article-forge-api/internal/workflow/port"
	workflowprompt "article-forge-api/internal/workflow/prompt"
)

// InitializeApp 初始化 API 网关（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		DataSet,
		GenerationSet,
		JobSet,
		RouterSet,
	)
	return nil, nil, nil
}

// InitializeWorker 初始化 job-worker
func InitializeWorker(ctx context.Context, cfg *config.Config) (*Worker, func(), error) {
	wire.Build(
		DataSet,
		GenerationSet,
		JobSet,
		ProvideConsumer,
		wire.Struct(new(Worker), "*"),
	)
	return nil, nil, nil
}

// InitializePostgresOnly 仅初始化 PostgreSQL（用于 bootstrap）
func InitializePostgresOnly(ctx context.Context, cfg *config.Config) (*postgres.Client, func(), error) {
	wire.Build(ProvidePostgresClient)
	return nil, nil, nil
}

// DataSet 存储层提供者集合
var DataSet = wire.NewSet(
	ProvidePostgresClient,
	ProvideRedisClient,
	postgres.NewTxManager,
	postgres.NewJobRepository,
	ProvideArticleRepository,
	ProvideUsageCounterRepository,
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.JobRepository), new(*postgres.JobRepository)),
)

// GenerationSet 额度、关键词研究与生成编排提供者集合
var GenerationSet = wire.NewSet(
	quota.NewLedger,
	quota.NewGovernor,
	wire.Bind(new(quota.UsageReader), new(*quota.Ledger)),
	wire.Bind(new(research.Budget), new(*quota.Governor)),
	wire.Bind(new(research.UsageRecorder), new(*quota.Ledger)),
	ProvideKeywordResearchers,
	ProvideResearchService,
	wire.Bind(new(article.Researcher), new(*research.Service)),
	llm.NewRegistry,
	workflowprompt.NewRegistry,
	ProvideGenerator,
)

// JobSet 异步任务提供者集合
var JobSet = wire.NewSet(
	ProvideMessagingProducer,
	wire.Bind(new(job.Publisher), new(*messaging.Producer)),
	wire.Bind(new(job.ArticleGenerator), new(*article.Generator)),
	ProvideJobService,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	redis.NewRateLimiter,
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
	wire.Bind(new(handler.ArticleGenerator), new(*article.Generator)),
	wire.Bind(new(handler.JobService), new(*job.Service)),
	wire.Bind(new(handler.QuotaReader), new(*quota.Governor)),
	handler.NewArticleHandler,
	handler.NewJobHandler,
	handler.NewQuotaHandler,
	handler.NewHealthHandler,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)

var _ workflowport.TextGenerator = (*llm.Registry)(nil)
