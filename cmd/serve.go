package cmd

import (
	"context"
	"net"
	"time"

	"github.com/vibast-solutions/ms-go-commerce/app/controller"
	"github.com/vibast-solutions/ms-go-commerce/app/middleware"
	"github.com/vibast-solutions/ms-go-commerce/app/repository"
	"github.com/vibast-solutions/ms-go-commerce/app/service"
	"github.com/vibast-solutions/ms-go-commerce/config"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the HTTP (Echo) server for the e-commerce catalog service.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logrus.WithError(err).Error("Failed to disconnect from database")
		}
	}()

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	db := client.Database(cfg.MongoDatabase)
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelIndex()
	for _, ensure := range []func(context.Context) error{
		userRepo.EnsureIndexes,
		productRepo.EnsureIndexes,
		categoryRepo.EnsureIndexes,
	} {
		if err := ensure(indexCtx); err != nil {
			logrus.WithError(err).Fatal("Failed to ensure database indexes")
		}
	}

	mailer, err := service.NewMailer(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create mail client")
	}
	media := service.NewMediaHost(cfg)

	userService := service.NewUserService(userRepo, mailer, media, cfg)
	productService := service.NewProductService(productRepo, categoryRepo, media, cfg)
	categoryService := service.NewCategoryService(categoryRepo, productRepo)

	startHTTPServer(cfg, userService, productService, categoryService)
}

func startHTTPServer(
	cfg *config.Config,
	userService service.UserService,
	productService service.ProductService,
	categoryService service.CategoryService,
) {
	e := echo.New()
	defer e.Close()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	authController := controller.NewAuthController(userService, cfg)
	userController := controller.NewUserController(userService)
	productController := controller.NewProductController(productService)
	categoryController := controller.NewCategoryController(categoryService)

	authMiddleware := middleware.NewAuthMiddleware(userService)
	uploadMiddleware := middleware.NewUploadMiddleware(cfg)

	auth := e.Group("/api/auth")
	auth.POST("/login", authController.Login, authMiddleware.RequireGuest)
	auth.POST("/logout", authController.Logout, authMiddleware.RequireAuth)

	users := e.Group("/api/users")
	users.POST("/process-register", userController.ProcessRegister,
		authMiddleware.RequireGuest, uploadMiddleware.StageImage)
	users.POST("/activate", userController.Activate, authMiddleware.RequireGuest)
	users.POST("/forget-password", userController.ForgetPassword)
	users.PUT("/reset-password", userController.ResetPassword)

	users.GET("", userController.GetUsers,
		authMiddleware.RequireAuth, authMiddleware.RequireAdmin)
	users.PUT("/manage-user/:id", userController.ManageUser,
		authMiddleware.RequireAuth, authMiddleware.RequireAdmin)
	users.GET("/:id", userController.GetUser,
		authMiddleware.RequireAuth, authMiddleware.RequireSelfOrAdmin)
	users.PUT("/:id", userController.UpdateUser,
		authMiddleware.RequireAuth, authMiddleware.RequireSelfOrAdmin, uploadMiddleware.StageImage)
	users.DELETE("/:id", userController.DeleteUser,
		authMiddleware.RequireAuth, authMiddleware.RequireSelfOrAdmin)
	users.PUT("/update-password/:id", userController.UpdatePassword,
		authMiddleware.RequireAuth, authMiddleware.RequireSelfOrAdmin)

	products := e.Group("/api/products")
	products.GET("", productController.GetProducts)
	products.GET("/:slug", productController.GetProduct)
	products.POST("", productController.CreateProduct,
		authMiddleware.RequireAuth, authMiddleware.RequireAdmin, uploadMiddleware.StageImage)
	products.PUT("/:slug", productController.UpdateProduct,
		authMiddleware.RequireAuth, authMiddleware.RequireAdmin, uploadMiddleware.StageImage)
	products.DELETE("/:slug", productController.DeleteProduct,
		authMiddleware.RequireAuth, authMiddleware.RequireAdmin)

	categories := e.Group("/api/categories")
	categories.GET("", categoryController.GetCategories)
	categories.GET("/:slug", categoryController.GetCategory)
	categories.POST("", categoryController.CreateCategory,
		authMiddleware.RequireAuth, authMiddleware.RequireAdmin)
	categories.PUT("/:slug", categoryController.UpdateCategory,
		authMiddleware.RequireAuth, authMiddleware.RequireAdmin)
	categories.DELETE("/:slug", categoryController.DeleteCategory,
		authMiddleware.RequireAuth, authMiddleware.RequireAdmin)

	httpAddr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
	logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
	if err := e.Start(httpAddr); err != nil {
		logrus.WithError(err).Fatal("Failed to start HTTP server")
	}
}
