package bootstrap

import (
	"context"
	"log"
	"time"

	"festival-cms-be/internal/config"
	"festival-cms-be/internal/controller"
	"festival-cms-be/internal/handler"
	"festival-cms-be/internal/pkg/logger"
	"festival-cms-be/internal/pkg/mailer"
	"festival-cms-be/internal/repository/fallback"
	"festival-cms-be/internal/repository/implementation"
	"festival-cms-be/internal/service"
	"festival-cms-be/internal/websocket"

	pktNats "festival-cms-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	surrealdb "github.com/surrealdb/surrealdb.go"
)

const scoreRecomputeTopic = "score.recompute"

type Container struct {
	// Controllers
	AuthController       controller.IAuthController
	SubmissionController controller.ISubmissionController
	AnnotationController controller.IAnnotationController
	ProgramController    controller.IProgramController

	// Background services, exposed for main.go to run.
	ConsumerService service.IConsumerService

	// WebSockets
	CommentStreamHandler *handler.CommentStreamHandler
	WebSocketHub         *websocket.Hub
}

func NewContainer(db *surrealdb.DB, cfg *config.Config) *Container {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	emailService := mailer.NewEmailService(cfg.SMTP, sysLogger)

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket hub
	wsLogger := logger.NewIsolatedLogger("logs/stream.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Repositories
	annotationRepo := implementation.NewAnnotationRepository(db, sysLogger)
	submissionRepo := implementation.NewSubmissionRepository(db, sysLogger)
	userRepo := implementation.NewUserRepository(db, sysLogger)

	// 4. Services
	engine := fallback.NewEngine(sysLogger)
	publisherService := service.NewPublisherService(pubSub, scoreRecomputeTopic)
	consumerService := service.NewConsumerService(
		pubSub,
		scoreRecomputeTopic,
		annotationRepo,
		submissionRepo,
		sysLogger,
	)

	var eventPublisher service.EventPublisher
	if natsPub != nil {
		eventPublisher = natsPub
	}

	annotationService := service.NewAnnotationService(
		annotationRepo,
		engine,
		publisherService,
		eventPublisher,
		service.DefaultEditPolicy(),
		sysLogger,
	)
	submissionService := service.NewSubmissionService(submissionRepo, annotationService, sysLogger)
	authService := service.NewAuthService(userRepo, cfg.JWT)
	programService := service.NewProgramService(
		submissionRepo,
		time.Duration(cfg.Festival.ProgrammeCacheTTLMinutes)*time.Minute,
		sysLogger,
	)

	// 5. Notification worker
	notifService := service.NewNotificationService(natsSub, wsHub, emailService, cfg.Festival.FlagAlertEmail, wsLogger)
	if natsSub != nil {
		go notifService.Start()
	}

	// 6. Live comment streams
	streamManager := websocket.NewStreamManager(wsHub, annotationService)
	streamHandler := handler.NewCommentStreamHandler(streamManager, wsLogger)

	return &Container{
		AuthController:       controller.NewAuthController(authService),
		SubmissionController: controller.NewSubmissionController(submissionService),
		AnnotationController: controller.NewAnnotationController(annotationService, submissionService),
		ProgramController:    controller.NewProgramController(programService),

		ConsumerService: consumerService,

		CommentStreamHandler: streamHandler,
		WebSocketHub:         wsHub,
	}
}
