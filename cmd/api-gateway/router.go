// Package main is the API gateway entry point.
package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/safarinest/hotel-booking-backend/internal/common/config"
	"github.com/safarinest/hotel-booking-backend/internal/common/jwt"
	"github.com/safarinest/hotel-booking-backend/internal/common/metrics"
	commonMiddleware "github.com/safarinest/hotel-booking-backend/internal/common/middleware"
	adminHandler "github.com/safarinest/hotel-booking-backend/internal/handler/admin"
	authHandler "github.com/safarinest/hotel-booking-backend/internal/handler/auth"
	bookingHandler "github.com/safarinest/hotel-booking-backend/internal/handler/booking"
	mpesaHandler "github.com/safarinest/hotel-booking-backend/internal/handler/mpesa"
	paymentHandler "github.com/safarinest/hotel-booking-backend/internal/handler/payment"
	roomHandler "github.com/safarinest/hotel-booking-backend/internal/handler/room"
	"github.com/safarinest/hotel-booking-backend/internal/middleware"
	"github.com/safarinest/hotel-booking-backend/internal/notify"
	"github.com/safarinest/hotel-booking-backend/internal/repository"
	"github.com/safarinest/hotel-booking-backend/internal/scheduler"
	activityService "github.com/safarinest/hotel-booking-backend/internal/service/activity"
	bookingService "github.com/safarinest/hotel-booking-backend/internal/service/booking"
	mpesaService "github.com/safarinest/hotel-booking-backend/internal/service/mpesa"
	paymentService "github.com/safarinest/hotel-booking-backend/internal/service/payment"
	roomService "github.com/safarinest/hotel-booking-backend/internal/service/room"
	userService "github.com/safarinest/hotel-booking-backend/internal/service/user"
	"github.com/safarinest/hotel-booking-backend/pkg/daraja"
)

// setupRouter wires repositories, services and handlers onto the engine
// and returns the background scheduler, not yet started.
func setupRouter(
	r *gin.Engine,
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
) (*scheduler.Scheduler, error) {
	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            cfg.JWT.Secret,
		AccessExpireTime:  cfg.JWT.AccessTokenDuration(),
		RefreshExpireTime: cfg.JWT.RefreshTokenDuration(),
		Issuer:            cfg.JWT.Issuer,
	})

	userRepo := repository.NewUserRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	darajaClient := daraja.NewClient(&daraja.Config{
		Environment:     cfg.Mpesa.Environment,
		ConsumerKey:     cfg.Mpesa.ConsumerKey,
		ConsumerSecret:  cfg.Mpesa.ConsumerSecret,
		ShortCode:       cfg.Mpesa.ShortCode,
		Passkey:         cfg.Mpesa.Passkey,
		CallbackURL:     cfg.Mpesa.CallbackURL,
		TransactionType: cfg.Mpesa.TransactionType,
		Timeout:         cfg.Mpesa.RequestTimeoutDuration(),
	})

	m := metrics.Init("")

	activitySvc := activityService.NewService(activityRepo)
	roomSvc := roomService.NewService(db, roomRepo, bookingRepo, activitySvc)
	bookingSvc := bookingService.NewService(db, bookingRepo, roomRepo, userRepo, activitySvc, cfg.Business.Booking)
	paymentSvc := paymentService.NewService(db, paymentRepo, bookingRepo, activitySvc)
	mpesaSvc := mpesaService.NewService(db, paymentRepo, bookingRepo, paymentSvc, activitySvc, darajaClient, &cfg.Mpesa)
	userSvc, err := userService.NewService(db, userRepo, activitySvc, jwtManager, notify.NewLogSender(logger), &cfg.Crypto)
	if err != nil {
		return nil, err
	}

	authH := authHandler.NewHandler(userSvc)
	roomH := roomHandler.NewHandler(roomSvc, bookingSvc)
	bookingH := bookingHandler.NewHandler(bookingSvc)
	paymentH := paymentHandler.NewHandler(paymentSvc)
	mpesaH := mpesaHandler.NewHandler(mpesaSvc)
	adminH := adminHandler.NewHandler(userSvc, activitySvc)

	activityLogger := commonMiddleware.NewActivityLogger(activityRepo)

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RealIP())
	r.Use(middleware.CORS(nil))
	r.Use(middleware.AccessLog(logger))
	r.Use(m.Middleware())
	if cfg.Tracing.Enabled {
		r.Use(commonMiddleware.Tracing(&commonMiddleware.TracingConfig{
			ServiceName: cfg.Tracing.ServiceName,
			SkipPaths:   []string{"/health", "/ping", "/ready", "/metrics"},
		}))
	}

	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(db, redisClient))
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metrics.Handler())
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		// No authentication: account entry points, the public room
		// catalogue and the gateway-facing M-Pesa endpoints.
		v1.POST("/auth/register", authH.Register)
		v1.POST("/auth/login", authH.Login)
		v1.POST("/auth/refresh", authH.Refresh)

		v1.GET("/rooms", roomH.List)
		v1.GET("/rooms/:id", roomH.Get)
		v1.GET("/rooms/:id/availability", roomH.CheckAvailability)

		v1.POST("/payments/mpesa/callback", mpesaH.Callback)
		v1.POST("/payments/mpesa/timeout", mpesaH.Timeout)

		authed := v1.Group("")
		authed.Use(middleware.Auth(jwtManager))
		authed.Use(activityLogger.Log())
		{
			authed.GET("/auth/profile", authH.GetProfile)
			authed.PUT("/auth/profile", authH.UpdateProfile)
			authed.PUT("/auth/password", authH.ChangePassword)
			authed.GET("/auth/customer-detail", authH.GetCustomerDetail)
			authed.PUT("/auth/customer-detail", authH.SaveCustomerDetail)

			authed.POST("/bookings", bookingH.Create)
			authed.GET("/bookings/my", bookingH.ListMine)
			authed.GET("/bookings/:id", bookingH.Get)
			authed.POST("/bookings/:id/cancel", bookingH.Cancel)
			authed.GET("/bookings/:id/payment", paymentH.GetByBooking)

			authed.POST("/payments", paymentH.Create)
			authed.GET("/payments/my", paymentH.ListMine)
			authed.GET("/payments/:id", paymentH.Get)

			authed.POST("/payments/mpesa/initiate",
				middleware.StkPushRateLimit(redisClient), mpesaH.InitiatePush)
			authed.GET("/payments/mpesa/status/:checkout_request_id", mpesaH.QueryStatus)

			staff := authed.Group("")
			staff.Use(middleware.RequireStaff())
			{
				staff.GET("/bookings", bookingH.List)
				staff.PUT("/bookings/:id/status", bookingH.UpdateStatus)

				staff.GET("/payments", paymentH.List)
				staff.PUT("/payments/:id/status", paymentH.UpdateStatus)

				staff.POST("/rooms", roomH.Create)
				staff.PUT("/rooms/:id", roomH.Update)
				staff.PUT("/rooms/:id/status", roomH.SetStatus)
				staff.DELETE("/rooms/:id", roomH.Delete)
			}

			admin := authed.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.PUT("/bookings/:id", bookingH.Update)
				admin.DELETE("/bookings/:id", bookingH.Delete)
				admin.PUT("/payments/:id/amount", paymentH.UpdateAmount)
				admin.DELETE("/payments/:id", paymentH.Delete)
				admin.GET("/payments/statistics", paymentH.Statistics)

				admin.GET("/admin/users", adminH.ListUsers)
				admin.POST("/admin/users", adminH.CreateUser)
				admin.PUT("/admin/users/:id/status", adminH.SetUserStatus)
				admin.GET("/admin/activity", adminH.ListActivity)
				admin.GET("/admin/activity/:id", adminH.GetActivity)
			}
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    http.StatusNotFound,
			"message": "route not found",
		})
	})

	sched := scheduler.New()
	scheduler.NewTaskHandler(mpesaSvc, roomSvc, activitySvc).Register(sched, &cfg.Business.Payment)

	return sched, nil
}
