// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-studio-go/internal/config"
	"ai-studio-go/internal/handler"
	"ai-studio-go/internal/middleware"
	"ai-studio-go/internal/model"
	"ai-studio-go/internal/pipeline"
	"ai-studio-go/internal/repository"
	"ai-studio-go/internal/service"
	"ai-studio-go/pkg/database"
	"ai-studio-go/pkg/es"
	"ai-studio-go/pkg/kafka"
	"ai-studio-go/pkg/llm"
	"ai-studio-go/pkg/log"
	"ai-studio-go/pkg/session"
	"ai-studio-go/pkg/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库和外部依赖
	database.InitMySQL(cfg.Database.MySQL.DSN)
	if err := database.DB.AutoMigrate(
		&model.User{},
		&model.OTP{},
		&model.Chat{},
		&model.Project{},
		&model.FileRecord{},
	); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch); err != nil {
		log.Fatalf("es 初始化失败: %v", err)
	}
	kafka.InitProducer(cfg.Kafka)

	// 4. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	otpRepo := repository.NewOTPRepository(database.DB)
	chatRepo := repository.NewChatRepository(database.DB)
	projectRepo := repository.NewProjectRepository(database.DB)
	fileRepo := repository.NewFileRepository(database.DB)
	conversationRepo := repository.NewConversationRepository(database.RDB)
	generationLock := repository.NewGenerationLock(database.RDB)

	// 5. 初始化 Service (依赖注入)
	sessionManager := session.NewManager(cfg.Session.Secret, cfg.Session.CookieName, cfg.Session.ExpireHours, cfg.Session.Secure)
	llmClient, err := llm.NewClient(context.Background(), cfg.LLM)
	if err != nil {
		log.Fatalf("模型客户端初始化失败: %v", err)
	}
	authService := service.NewAuthService(userRepo, otpRepo)
	generationService := service.NewGenerationService(llmClient, generationLock, kafka.ProduceHistoryEvent)
	chatService := service.NewChatService(llmClient, conversationRepo, kafka.ProduceHistoryEvent)
	historyService := service.NewHistoryService(chatRepo, projectRepo, fileRepo)
	uploadService := service.NewUploadService(fileRepo)
	searchService := service.NewSearchService()

	// 6. 启动后台 Kafka 消费者，负责历史事件落库与索引
	processor := pipeline.NewProcessor(chatRepo, projectRepo)
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.SessionMiddleware(sessionManager))

	// 8. 注册路由
	authHandler := handler.NewAuthHandler(authService, historyService, sessionManager)
	generateHandler := handler.NewGenerateHandler(generationService)
	chatHandler := handler.NewChatHandler(chatService)
	exportHandler := handler.NewExportHandler()
	uploadHandler := handler.NewUploadHandler(uploadService)
	searchHandler := handler.NewSearchHandler(searchService)

	apiV1 := r.Group("/api/v1")
	{
		// Auth 路由组
		auth := apiV1.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/request-otp", middleware.SecurityHeaders(), authHandler.RequestOTP)
			auth.POST("/verify-otp", authHandler.VerifyOTP)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/session", authHandler.Session)
			auth.GET("/history", middleware.RequireLogin(), authHandler.History)
		}

		// 生成、导出、预览、上传、对话
		apiV1.POST("/generate", generateHandler.Generate)
		apiV1.POST("/export-zip", exportHandler.Export)
		apiV1.POST("/preview", exportHandler.Preview)
		apiV1.POST("/upload", uploadHandler.Upload)
		apiV1.POST("/chat", chatHandler.Chat)

		// Chat 路由 (WebSocket)
		apiV1.GET("/chat/stream-token", chatHandler.GetWebsocketStopToken)
		apiV1.GET("/chat/stream", middleware.RequireLogin(), chatHandler.Stream)

		// 需要登录的路由
		apiV1.GET("/projects/search", middleware.RequireLogin(), searchHandler.Search)
	}

	// 9. 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("收到退出信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务关闭失败: %v", err)
	}
	log.Info("服务已退出")
}
