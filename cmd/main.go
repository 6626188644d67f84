package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"counsel-backend/internal/config"
	"counsel-backend/internal/handler"
	"counsel-backend/internal/service"
	"counsel-backend/internal/storage"
	"counsel-backend/internal/stream"
	"counsel-backend/internal/upstream"
	"counsel-backend/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	// 规则集存储
	store := newStorage(cfg)
	if err := store.Init(); err != nil {
		logger.Fatalf("存储初始化失败: %v", err)
	}
	defer store.Close()

	// 上游提供方适配器
	adapter, err := upstream.New(cfg)
	if err != nil {
		logger.Fatalf("上游适配器初始化失败: %v", err)
	}
	logger.Infof("上游提供方: %s", adapter.Name())

	// 会话注册表与编排服务
	streams := stream.NewRegistry(cfg.Stream.BufferSize, cfg.Stream.IdleTimeout)
	analysisService := service.NewAnalysisService(cfg, store, adapter, streams)

	analysisHandler := handler.NewAnalysisHandler(analysisService, cfg)
	ruleSetHandler := handler.NewRuleSetHandler(store)

	router := setupRouter(cfg, analysisHandler, ruleSetHandler)

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Infof("服务器启动在端口 %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// 等待信号优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("服务器正在关闭...")
	if err := server.Close(); err != nil {
		logger.Errorf("服务器关闭失败: %v", err)
	}
	logger.Info("服务器已关闭")
}

func newStorage(cfg *config.Config) storage.Storage {
	switch cfg.Storage.Type {
	case "memory":
		return storage.NewMemoryStorage()
	default:
		return storage.NewDiskStorage(cfg.Storage.DataDir)
	}
}

func setupRouter(cfg *config.Config, analysisHandler *handler.AnalysisHandler, ruleSetHandler *handler.RuleSetHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	api := router.Group("/api")
	{
		analysis := api.Group("/analysis")
		{
			analysis.POST("", analysisHandler.Analyze)
			analysis.GET("/stream/:session_id", analysisHandler.StreamEvents)
			analysis.DELETE("/stream/:session_id", analysisHandler.CancelStream)
		}

		rulesets := api.Group("/rulesets")
		{
			rulesets.POST("", ruleSetHandler.Create)
			rulesets.GET("", ruleSetHandler.List)
			rulesets.GET("/:name", ruleSetHandler.Get)
			rulesets.PUT("/:name", ruleSetHandler.Update)
			rulesets.DELETE("/:name", ruleSetHandler.Delete)
		}
	}

	return router
}
