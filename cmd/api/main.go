package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	appbook "github.com/xiebiao/library/internal/application/book"
	appborrow "github.com/xiebiao/library/internal/application/borrow"
	appstats "github.com/xiebiao/library/internal/application/stats"
	appuser "github.com/xiebiao/library/internal/application/user"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/jwt"
	"github.com/xiebiao/library/pkg/response"
)

// main 主程序入口
// 说明：手动依赖注入（wire.go提供等价的Wire装配，运行wire gen后可切换）
func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	fmt.Printf("✓ 配置加载成功\n")
	fmt.Printf("  - 服务端口: %d\n", cfg.Server.Port)
	fmt.Printf("  - 运行模式: %s\n", cfg.Server.Mode)
	fmt.Printf("  - 数据库: %s:%d/%s\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
	fmt.Printf("  - Redis: %s\n", cfg.Redis.Addr())
	fmt.Printf("  - 过期巡检间隔: %s\n", cfg.Borrow.SweepInterval)

	// 2. 初始化数据库连接
	db, err := mysql.NewDB(cfg)
	if err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}

	// 3. 初始化Redis连接
	redisClient, err := redis.NewClient(cfg)
	if err != nil {
		log.Fatalf("初始化Redis失败: %v", err)
	}

	// 4. 依赖注入（手动组装）
	// 依赖注入链：Repository ← Service ← UseCase ← Handler

	// 基础设施层
	userRepo := mysql.NewUserRepository(db)
	bookRepo := mysql.NewBookRepository(db)
	borrowRepo := mysql.NewBorrowRepository(db)
	txManager := mysql.NewTxManager(db)
	sessionStore := redis.NewSessionStore(redisClient)
	jwtManager := jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)

	// 领域层
	userService := user.NewService(userRepo)
	bookService := book.NewService(bookRepo)
	borrowService := borrow.NewService(borrowRepo, bookRepo, userRepo, txManager)

	// 应用层
	registerUseCase := appuser.NewRegisterUseCase(userService)
	loginUseCase := appuser.NewLoginUseCase(userService, jwtManager, sessionStore)
	logoutUseCase := appuser.NewLogoutUseCase(sessionStore)

	publishBookUseCase := appbook.NewPublishBookUseCase(bookService)
	listBooksUseCase := appbook.NewListBooksUseCase(bookService)
	getBookUseCase := appbook.NewGetBookUseCase(bookService, borrowService)
	manageBookUseCase := appbook.NewManageBookUseCase(bookService)

	createBorrowUseCase := appborrow.NewCreateBorrowUseCase(borrowService, userRepo, bookRepo)
	cancelBorrowUseCase := appborrow.NewCancelBorrowUseCase(borrowService, userRepo, bookRepo)
	reviewBorrowUseCase := appborrow.NewReviewBorrowUseCase(borrowService, userRepo, bookRepo)
	confirmReturnUseCase := appborrow.NewConfirmReturnUseCase(borrowService, userRepo, bookRepo)
	getBorrowUseCase := appborrow.NewGetBorrowUseCase(borrowService, userRepo, bookRepo)
	listBorrowsUseCase := appborrow.NewListBorrowsUseCase(borrowService, userRepo, bookRepo)
	sweepUseCase := appborrow.NewSweepExpiredUseCase(borrowService)

	overviewUseCase := appstats.NewOverviewUseCase(userRepo, bookRepo, borrowRepo)

	// 接口层
	userHandler := handler.NewUserHandler(registerUseCase, loginUseCase, logoutUseCase)
	bookHandler := handler.NewBookHandler(publishBookUseCase, listBooksUseCase, getBookUseCase, manageBookUseCase)
	borrowHandler := handler.NewBorrowHandler(
		createBorrowUseCase, cancelBorrowUseCase, reviewBorrowUseCase,
		confirmReturnUseCase, getBorrowUseCase, listBorrowsUseCase, sweepUseCase,
	)
	statsHandler := handler.NewStatsHandler(overviewUseCase)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, sessionStore)

	// 5. 启动过期巡检后台任务
	startSweeper(sweepUseCase, cfg.Borrow.SweepInterval)

	// 6. 初始化Gin引擎
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// 7. 注册路由
	registerRoutes(r, userHandler, bookHandler, borrowHandler, statsHandler, authMiddleware)

	// 8. 启动服务
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	fmt.Printf("\n🚀 服务启动成功！\n")
	fmt.Printf("   访问地址: http://localhost%s\n", addr)
	fmt.Printf("   健康检查: http://localhost%s/ping\n", addr)
	fmt.Printf("   API文档: http://localhost%s/swagger/index.html\n", addr)
	fmt.Printf("\n按Ctrl+C停止服务\n\n")

	if err := r.Run(addr); err != nil {
		log.Fatalf("启动服务失败: %v", err)
	}
}

// startSweeper 启动过期申请巡检任务
// 启动时先跑一次（清掉停机期间积压的过期申请），之后按固定间隔执行
// 巡检幂等，即使部署多副本重复执行也只是空转
func startSweeper(sweepUseCase *appborrow.SweepExpiredUseCase, interval time.Duration) {
	runOnce := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := sweepUseCase.Execute(ctx); err != nil {
			log.Printf("过期巡检失败: %v", err)
		}
	}

	go func() {
		runOnce()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			runOnce()
		}
	}()
}

// registerRoutes 注册路由
func registerRoutes(
	r *gin.Engine,
	userHandler *handler.UserHandler,
	bookHandler *handler.BookHandler,
	borrowHandler *handler.BorrowHandler,
	statsHandler *handler.StatsHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// Swagger文档
	// 访问 http://localhost:8080/swagger/index.html 查看API文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API路由组
	v1 := r.Group("/api/v1")
	{
		// 用户模块
		users := v1.Group("/users")
		{
			users.POST("/register", userHandler.Register) // 公开
			users.POST("/login", userHandler.Login)       // 公开
			users.POST("/logout", authMiddleware.RequireAuth(), userHandler.Logout)
		}

		// 图书模块
		books := v1.Group("/books")
		{
			// 公开接口
			books.GET("", bookHandler.List)
			books.GET("/:id", bookHandler.Get)

			// 馆员接口
			staffOnly := books.Group("")
			staffOnly.Use(authMiddleware.RequireAuth(), authMiddleware.RequireStaff())
			{
				staffOnly.POST("", bookHandler.Publish)
				staffOnly.PUT("/:id", bookHandler.Update)
				staffOnly.PUT("/:id/quantity", bookHandler.UpdateQuantity)
				staffOnly.POST("/:id/deactivate", bookHandler.Deactivate)
				staffOnly.POST("/:id/activate", bookHandler.Activate)
			}
		}

		// 借阅模块（全部需要登录）
		borrows := v1.Group("/borrows")
		borrows.Use(authMiddleware.RequireAuth())
		{
			// 读者接口（角色校验在领域服务内完成）
			borrows.POST("", borrowHandler.Create)
			borrows.POST("/:id/cancel", borrowHandler.Cancel)

			// 读者看自己的、馆员看全部（权限收口在用例内）
			borrows.GET("", borrowHandler.List)
			borrows.GET("/:id", borrowHandler.Get)

			// 馆员接口
			staffOnly := borrows.Group("")
			staffOnly.Use(authMiddleware.RequireStaff())
			{
				staffOnly.POST("/:id/approve", borrowHandler.Approve)
				staffOnly.POST("/:id/reject", borrowHandler.Reject)
				staffOnly.POST("/:id/return", borrowHandler.Return)
				staffOnly.POST("/sweep", borrowHandler.Sweep)
			}
		}

		// 统计模块（馆员）
		stats := v1.Group("/stats")
		stats.Use(authMiddleware.RequireAuth(), authMiddleware.RequireStaff())
		{
			stats.GET("/overview", statsHandler.Overview)
		}
	}
}
