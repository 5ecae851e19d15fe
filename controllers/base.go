package controllers

import (
	"log"
	"net/http"
	"strings"

	"github.com/BeckettFrey/RodRoyale/auth"
	"github.com/BeckettFrey/RodRoyale/cache"
	"github.com/BeckettFrey/RodRoyale/config"
	"github.com/BeckettFrey/RodRoyale/events"
	"github.com/BeckettFrey/RodRoyale/mailer"
	"github.com/BeckettFrey/RodRoyale/middlewares"
	"github.com/BeckettFrey/RodRoyale/models"
	"github.com/BeckettFrey/RodRoyale/seed"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Server struct {
	DB     *gorm.DB
	Router *gin.Engine
	Cfg    config.Settings
	Events *events.Publisher
	Mailer *mailer.Mailer
}

// ===============================
// SERVER INITIALIZATION
// ===============================
func (server *Server) Initialize(cfg config.Settings) {
	server.Cfg = cfg
	auth.Configure(cfg.APISecret)

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Cannot connect to Postgres: %v", err)
	}
	server.DB = db

	// Auto Migrations
	if err := server.DB.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Catch{},
		&models.Pin{},
		&models.ResetPassword{},
	); err != nil {
		log.Fatalf("Error migrating database: %v", err)
	}
	if err := ensureFollowConstraints(server.DB); err != nil {
		log.Printf("warning: follow constraints not ensured: %v", err)
	}
	if err := ensureFollowCounterDefaults(server.DB); err != nil {
		log.Printf("warning: follow counters not normalized: %v", err)
	}

	// Redis init (safe failure)
	if err := cache.Init(cfg.RedisURL); err != nil {
		log.Printf("warning: could not connect to redis: %v", err)
	}

	// Event publishing is optional; a nil publisher drops events.
	if cfg.AMQPURL != "" {
		publisher, err := events.NewPublisher(cfg.AMQPURL)
		if err != nil {
			log.Printf("warning: could not connect to rabbitmq: %v", err)
		} else {
			server.Events = publisher
		}
	}

	server.Mailer = mailer.New(cfg.SendGridKey, cfg.MailFromAddress, cfg.AppBaseURL)

	if cfg.SeedDemoData && !cfg.IsProduction() {
		if err := seed.Load(server.DB); err != nil {
			log.Printf("error seeding demo data: %v", err)
		}
	}

	middlewares.InitPrometheus()

	server.Router = gin.Default()
	server.Router.Use(middlewares.CORSMiddleware(allowedOrigins(cfg)))
	server.Router.Use(middlewares.RateLimitMiddleware())
	server.Router.Use(middlewares.MonitorMiddleware())
	server.initializeRoutes()
}

func (server *Server) Run(addr string) {
	log.Fatal(http.ListenAndServe(addr, server.Router))
}

func allowedOrigins(cfg config.Settings) []string {
	origins := []string{"http://localhost:3000"}
	if base := strings.TrimSpace(cfg.AppBaseURL); base != "" {
		origins = append(origins, base)
	}
	return origins
}

func ensureFollowConstraints(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	var count int64
	if err := db.Raw(
		"SELECT COUNT(1) FROM pg_constraint WHERE conname = ?",
		"follows_no_self_follow",
	).Scan(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		if err := db.Exec(
			"ALTER TABLE follows ADD CONSTRAINT follows_no_self_follow CHECK (follower_id <> followed_id)",
		).Error; err != nil {
			return err
		}
	}
	return nil
}

func ensureFollowCounterDefaults(db *gorm.DB) error {
	if err := db.Exec(
		"UPDATE users SET followers_count = 0 WHERE followers_count IS NULL",
	).Error; err != nil {
		return err
	}
	if err := db.Exec(
		"UPDATE users SET following_count = 0 WHERE following_count IS NULL",
	).Error; err != nil {
		return err
	}
	return nil
}
