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

	apirest "github.com/DSnider-CodeSample/TCTB-CodeSample/api/rest"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/api/sse"
	apows "github.com/DSnider-CodeSample/TCTB-CodeSample/api/ws"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/audit"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/cache"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/config"
	dbadapter "github.com/DSnider-CodeSample/TCTB-CodeSample/db"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/hook"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/nav"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/session"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/world"
	mw "github.com/DSnider-CodeSample/TCTB-CodeSample/middleware"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/model"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/scheduler"
	"github.com/gin-gonic/gin"
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

	// Warn loudly if admin endpoints will be disabled.
	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}

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
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Journal ----
	journal := audit.New(db, audit.Options{
		BatchSize:     cfg.Game.JournalBatch,
		FlushInterval: cfg.Game.JournalFlush,
	}, logger)

	// ---- Layouts ----
	layouts := make([]*nav.Layout, 0, len(cfg.Game.Layouts))
	for _, path := range cfg.Game.Layouts {
		l, err := nav.LoadLayout(path)
		if err != nil {
			log.Fatalf("layout: %v", err)
		}
		layouts = append(layouts, l)
	}

	// ---- Scheduler / World ----
	sched := scheduler.New(logger)
	pub := world.NewPublisher(c, pubsub, journal, world.PublisherOptions{
		FeedLen:     cfg.Game.TransitionFeed,
		SnapshotTTL: cfg.Game.SnapshotTTL,
	}, logger)
	hooks := hook.NewRegistry()
	if cfg.Game.MaxSoundRadius > 0 {
		hooks.Register(hook.BeforeSound, 0, "max-sound-radius", world.ClampSoundRadius(cfg.Game.MaxSoundRadius))
	}
	wm := world.NewWorldManager(sched, pub, world.Options{
		Tick:             cfg.Game.TickInterval(),
		SnapshotInterval: cfg.Game.SnapshotInterval,
		Monster:          cfg.Monster,
		Noise:            cfg.Noise,
		Hooks:            hooks,
	}, logger)
	for _, l := range layouts {
		if _, err := wm.Start(context.Background(), l); err != nil {
			log.Fatalf("start room %s: %v", l.Name, err)
		}
	}
	sm := session.NewManager(logger)

	// ---- WS Router ----
	wsRouter := apows.NewRouter(logger)
	apows.NewGameHandlers(wm, logger).RegisterHandlers(wsRouter)

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok", "rooms": wm.ActiveRoomCount()})
	})

	auth := mw.Auth(cfg.Security, c)

	// ---- REST API routes ----
	roomH := apirest.NewRoomHandler(wm, c, journal, logger)
	gameH := apirest.NewGameHandler(wm, logger)
	adminH := apirest.NewAdminHandler(wm, sm, sched, c, cfg.Security, layouts, logger)

	api := r.Group("/api")
	{
		roomsG := api.Group("/rooms")
		roomsG.Use(auth)
		roomsG.GET("", roomH.List)
		roomsG.GET("/:room", roomH.Get)
		roomsG.GET("/:room/cached", roomH.Cached)
		roomsG.GET("/:room/monsters/:id", roomH.Monster)
		roomsG.GET("/:room/transitions", roomH.Transitions)
		roomsG.GET("/:room/journal", roomH.Journal)

		gameG := api.Group("/game")
		gameG.Use(auth, mw.RequireRole(mw.RoleGame))
		gameG.POST("/sound", gameH.Sound)
		gameG.PUT("/player", gameH.SetPlayer)
		gameG.DELETE("/player", gameH.ClearPlayer)
		gameG.POST("/footstep", gameH.Footstep)
		gameG.POST("/monsters/:id/activate", gameH.Activate)
		gameG.POST("/monsters/:id/follow", gameH.Follow)
		gameG.POST("/player-death", gameH.PlayerDeath)

		adminG := api.Group("/admin")
		adminG.Use(mw.IPWhitelist(cfg.Server.AdminIPs), apirest.AdminAuth(cfg.Server.AdminKey))
		adminG.GET("/metrics", adminH.Metrics)
		adminG.GET("/clients", adminH.ListClients)
		adminG.POST("/clients/:id/kick", adminH.KickClient)
		adminG.POST("/tokens", adminH.IssueToken)
		adminG.POST("/tokens/revoke", adminH.RevokeToken)
		adminG.POST("/rooms/:room", adminH.StartRoom)
		adminG.DELETE("/rooms/:room", adminH.StopRoom)
		adminG.GET("/scheduler", adminH.ListSchedulerTasks)
	}

	// ---- WebSocket ----
	wsH := apows.NewHandler(cfg.Security, sm, wm, wsRouter, logger)
	r.GET("/ws", auth, wsH.ServeWS)

	// ---- SSE ----
	sseH := sse.NewHandler(pubsub, logger)
	r.GET("/sse", auth, sseH.ServeSSE)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		logger.Info("Server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sm.CloseAll(2 * time.Second)
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	wm.StopAll(ctx)
	sched.Stop()
	journal.Stop(ctx)
}
