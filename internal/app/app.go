package app

import (
	"codequiz_backend/internal/config"
	"codequiz_backend/internal/controller"
	"codequiz_backend/internal/grading"
	"codequiz_backend/internal/repository"
	"codequiz_backend/internal/sandbox"
	"codequiz_backend/internal/service"
	"codequiz_backend/internal/util"
	"codequiz_backend/pkg/configwatcher"
	"codequiz_backend/pkg/database"
	"codequiz_backend/pkg/logger"
	"codequiz_backend/pkg/monitoring"
	"codequiz_backend/pkg/security"
	"codequiz_backend/pkg/tracing"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config    *config.Config
	ConfigDir string
	Router    *gin.Engine
	DB        *gorm.DB
	Redis     *redis.Client

	cfgMu           sync.RWMutex
	configCallbacks []func(*config.Config)
	tracerProvider  *sdktrace.TracerProvider
	ctx             context.Context
	cancel          context.CancelFunc
}

type repositories struct {
	quiz       *repository.QuizRepository
	question   *repository.QuestionRepository
	attempt    *repository.AttemptRepository
	submission *repository.SubmissionRepository
}

type services struct {
	storage  *service.StorageService
	question *service.QuestionService
	grading  *service.GradingService
	quiz     *service.QuizService
}

type controllers struct {
	quiz     *controller.QuizController
	question *controller.QuestionController
	grading  *controller.GradingController
	health   *controller.HealthController
}

type limiters struct {
	general *security.IPRateLimiter
	preview *security.IPRateLimiter
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// currentConfig 热更新后的最新配置
func (a *App) currentConfig() *config.Config {
	a.cfgMu.RLock()
	defer a.cfgMu.RUnlock()
	return a.Config
}

func (a *App) reload(cfg *config.Config) {
	// 运行时标志不来自配置文件
	old := a.currentConfig()
	cfg.ForceMigrate, cfg.MigrateOnly = old.ForceMigrate, old.MigrateOnly

	a.cfgMu.Lock()
	a.Config = cfg
	a.cfgMu.Unlock()

	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
	logger.Log.Info("configuration reloaded")
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		quiz:       repository.NewQuizRepository(db),
		question:   repository.NewQuestionRepository(db),
		attempt:    repository.NewAttemptRepository(db),
		submission: repository.NewSubmissionRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	jsExec := sandbox.NewJSExecutor(cfg.Grading.JSTimeout(), cfg.Grading.JSMaxCallStack, cfg.Grading.MaxSourceBytes)
	// 未启用 Judge0 时其 Supports 恒为 false，只执行 JavaScript
	dispatcher := sandbox.NewDispatcher(jsExec, sandbox.NewJudge0Executor(cfg.Judge0))
	grader := grading.NewGrader(dispatcher, monitoring.GradingObserver{})

	var cache service.ResultCache
	if rdb != nil {
		cache = service.NewRedisResultCache(rdb)
	}

	s.storage = service.NewStorageService(cfg)
	s.question = service.NewQuestionService(repos.question, repos.quiz)
	s.grading = service.NewGradingService(
		grader,
		repos.question,
		repos.quiz,
		repos.attempt,
		repos.submission,
		cache,
		s.storage,
		cfg.Grading,
	)
	s.quiz = service.NewQuizService(repos.quiz, repos.attempt, repos.submission, s.question, s.grading)

	a.RegisterConfigCallback(func(c *config.Config) {
		jsExec.Configure(c.Grading.JSTimeout(), c.Grading.JSMaxCallStack, c.Grading.MaxSourceBytes)
		s.grading.UpdateConfig(c.Grading)
	})

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		quiz:     controller.NewQuizController(s.quiz),
		question: controller.NewQuestionController(s.question),
		grading:  controller.NewGradingController(s.grading),
		health:   controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config, l *limiters) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(l.general.Handler())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())

	// 鉴权中间件从上下文读取当前配置，JWT 密钥可热更新
	router.Use(func(c *gin.Context) {
		c.Set("config", a.currentConfig())
		c.Next()
	})
}

func (a *App) initLimiters(cfg *config.Config) *limiters {
	l := &limiters{
		general: security.NewIPRateLimiter(a.ctx, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window()),
		preview: security.NewIPRateLimiter(a.ctx, cfg.RateLimit.PreviewMaxRequests, cfg.RateLimit.Window()),
	}
	a.RegisterConfigCallback(func(c *config.Config) {
		l.general.SetLimit(c.RateLimit.MaxRequests, c.RateLimit.Window())
		l.preview.SetLimit(c.RateLimit.PreviewMaxRequests, c.RateLimit.Window())
	})
	return l
}

func NewApp(cfg *config.Config, configDir string) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode != "release")
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	// Redis 只用于判题结果缓存，不可用时降级为不缓存
	rdb, err := database.InitRedis(ctx, &cfg.Redis)
	if err != nil {
		logger.Log.Warn("Redis unavailable, grading cache disabled", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config:    cfg,
		ConfigDir: configDir,
		DB:        db,
		Redis:     rdb,
		ctx:       ctx,
		cancel:    cancel,
	}
	if cfg.MigrateOnly {
		return app
	}

	app.RegisterConfigCallback(logger.SetLevel)

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(services, db, rdb)
	lims := app.initLimiters(cfg)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg, lims)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracerProvider = tp
	}

	app.registerRoutes(router, controllers, lims)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks()

	return app
}

func (a *App) startBackgroundTasks() {
	go func() {
		if err := configwatcher.WatchConfig(a.ctx, a.ConfigDir, a.reload); err != nil {
			logger.Log.Error("config watcher stopped", zap.Error(err))
		}
	}()
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// 停止配置监听与限流清理
	a.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	log.Println("Server exiting")
}
