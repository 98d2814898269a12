package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/kasuganosora/pacdefender/api/rest"
	"github.com/kasuganosora/pacdefender/api/sse"
	"github.com/kasuganosora/pacdefender/cache"
	"github.com/kasuganosora/pacdefender/config"
	dbadapter "github.com/kasuganosora/pacdefender/db"
	"github.com/kasuganosora/pacdefender/game/ai"
	"github.com/kasuganosora/pacdefender/game/maze"
	"github.com/kasuganosora/pacdefender/game/sim"
	mw "github.com/kasuganosora/pacdefender/middleware"
	"github.com/kasuganosora/pacdefender/model"
	"github.com/kasuganosora/pacdefender/record"
	"github.com/kasuganosora/pacdefender/resource"
	"github.com/kasuganosora/pacdefender/scheduler"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Cache / PubSub ----
	c, pubsub, err := cache.Open(cfg.Cache)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Maze layouts ----
	res := resource.NewLoader(cfg.Game.MazesDir)
	if err := res.Load(); err != nil {
		log.Fatalf("mazes: %v", err)
	}
	logger.Info("Mazes loaded", zap.Strings("mazes", res.Names()))

	// ---- Strategy / records ----
	rules := maze.Rules{
		EdibleTicks: cfg.Game.EdibleTicks,
		LairTicks:   cfg.Game.LairTicks,
		Lives:       cfg.Game.Lives,
	}
	tuning := ai.Tuning{
		NearPillDistance: cfg.Strategy.NearPillDistance,
		FallbackDistance: cfg.Strategy.FallbackDistance,
		Lookahead:        cfg.Strategy.Lookahead,
	}
	strat := ai.NewStrategy(tuning, logger)
	recSvc := record.New(db, c, cfg.Cache.MatchTTL, logger)

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	rebuild := func(ctx context.Context) {
		n, err := recSvc.RebuildRanking(ctx)
		if err != nil {
			logger.Warn("ranking rebuild failed", zap.Error(err))
			return
		}
		logger.Debug("ranking rebuilt", zap.Int("mazes", n))
	}
	// Warm the leaderboard from the DB once the process is up, then keep it fresh.
	sched.AddDelay("ranking_warmup", time.Second, rebuild)
	if cfg.Game.RankingEvery > 0 {
		sched.AddTicker("ranking_rebuild", cfg.Game.RankingEvery, rebuild)
	}
	limiter := mw.NewRateLimiter(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst)
	sched.AddTicker("ratelimit_sweep", 5*time.Minute, limiter.Sweep)

	// ---- Arena ----
	var arena *sim.Arena
	if cfg.Game.ArenaEnabled {
		m, err := res.Maze(cfg.Game.DefaultMaze)
		if err != nil {
			log.Fatalf("arena: %v", err)
		}
		arena = sim.NewArena(sim.ArenaConfig{
			Maze:         m,
			Rules:        rules,
			Controller:   strat,
			TickInterval: time.Duration(cfg.Game.TickMs) * time.Millisecond,
			MaxTicks:     cfg.Game.MaxTicks,
			Pause:        cfg.Game.ArenaPause,
		}, pubsub, recSvc, logger)
		go arena.Run()
		logger.Info("Arena started", zap.String("maze", m.Name))
	}

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(logger), mw.Logger(logger, "/health", "/api/arena/stream"), mw.Recovery(logger))
	r.Use(limiter.Handler())

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes ----
	mazeH := apirest.NewMazeHandler(res)
	decideH := apirest.NewDecideHandler(res, strat, rules, logger)
	matchH := apirest.NewMatchHandler(res, strat, recSvc, apirest.MatchSettings{
		DefaultMaze: cfg.Game.DefaultMaze,
		MaxTicks:    cfg.Game.MaxTicks,
		Timeout:     cfg.Game.MatchTimeout,
		Rules:       rules,
	}, logger)
	rankH := apirest.NewRankingHandler(db, c, cfg.Game.DefaultMaze, logger)
	sseH := sse.NewHandler(pubsub, logger)

	api := r.Group("/api")
	{
		api.GET("/mazes", mazeH.List)
		api.GET("/mazes/:name", mazeH.Get)
		api.POST("/decide", decideH.Decide)

		matchG := api.Group("/matches")
		matchG.POST("", matchH.Create)
		matchG.GET("/:id", matchH.Get)

		api.GET("/ranking", rankH.Top)

		// ---- SSE ----
		api.GET("/arena/stream", sseH.ServeArena)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logger.Info("Server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if arena != nil {
		arena.Stop()
		select {
		case <-arena.Done():
		case <-ctx.Done():
		}
	}
	sched.Stop()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	recSvc.Stop(ctx)
}
