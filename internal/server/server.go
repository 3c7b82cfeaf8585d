// Package server contains the HTTP handlers for the writer service API.
package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/javidhasanzade/J-Overflow/internal/config"
	"github.com/javidhasanzade/J-Overflow/internal/database"
	"github.com/javidhasanzade/J-Overflow/internal/messaging"
	"github.com/javidhasanzade/J-Overflow/internal/middleware"
	"github.com/javidhasanzade/J-Overflow/internal/observability"
	"github.com/javidhasanzade/J-Overflow/internal/repository"
	"github.com/javidhasanzade/J-Overflow/internal/search"
	"github.com/javidhasanzade/J-Overflow/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config          *config.Config
	db              *gorm.DB
	redis           *redis.Client
	app             *fiber.App
	relay           *messaging.Relay
	relayCancel     context.CancelFunc
	questionService *service.QuestionService
	tagService      *service.TagService
	searchStore     search.DocumentStore
	log             *observability.Logger
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	rdb, err := connectRedis(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	questionRepo := repository.NewQuestionRepository(db)
	tagRepo := repository.NewTagRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)

	tagService := service.NewTagService(tagRepo)
	questionService := service.NewQuestionService(questionRepo, outboxRepo, tagService)

	publisher := messaging.NewPublisher(rdb, cfg.EventStream)
	relay := messaging.NewRelay(outboxRepo, publisher,
		time.Duration(cfg.OutboxIntervalMS)*time.Millisecond)

	middleware.InitMiddleware(cfg)

	return &Server{
		config:          cfg,
		db:              db,
		redis:           rdb,
		relay:           relay,
		questionService: questionService,
		tagService:      tagService,
		searchStore:     search.NewRedisDocumentStore(rdb, cfg.SearchIndex),
		log:             observability.NewLogger("server"),
	}, nil
}

func connectRedis(addr string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}

// SetupApp builds the Fiber app with middleware and routes.
func (s *Server) SetupApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "joverflow-questions",
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	prom := fiberprometheus.New("joverflow-questions")
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	questions := api.Group("/questions")
	questions.Get("/", s.ListQuestions)
	questions.Get("/:id", s.GetQuestion)
	questions.Post("/", middleware.AuthRequired, s.CreateQuestion)
	questions.Put("/:id", middleware.AuthRequired, s.UpdateQuestion)
	questions.Delete("/:id", middleware.AuthRequired, s.DeleteQuestion)

	questions.Post("/:id/answers", middleware.AuthRequired, s.PostAnswer)
	questions.Put("/:id/answers/:answerId", middleware.AuthRequired, s.UpdateAnswer)
	questions.Delete("/:id/answers/:answerId", middleware.AuthRequired, s.DeleteAnswer)
	questions.Post("/:id/answers/:answerId/accept", middleware.AuthRequired, s.AcceptAnswer)

	api.Get("/tags", s.ListTags)
	api.Get("/search", s.SearchQuestions)

	s.app = app
	return app
}

// Start runs the outbox relay and serves HTTP until Shutdown.
func (s *Server) Start() error {
	if s.app == nil {
		s.SetupApp()
	}

	relayCtx, cancel := context.WithCancel(context.Background())
	s.relayCancel = cancel
	go s.relay.Run(relayCtx)

	s.log.Info("server listening", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops the relay and the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.relayCancel != nil {
		s.relayCancel()
	}
	if s.app != nil {
		return s.app.ShutdownWithContext(ctx)
	}
	return nil
}
