package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Settings is the process-wide configuration snapshot. It is built once at
// startup and handed to Server.Initialize; nothing below the HTTP layer reads
// the environment directly.
type Settings struct {
	AppEnv string
	Port   string

	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	RedisURL string
	AMQPURL  string

	S3Bucket  string
	AWSRegion string

	APISecret       string
	SendGridKey     string
	MailFromAddress string
	AppBaseURL      string

	SeedDemoData bool
}

// Load reads settings from the environment (a .env file is loaded by the
// caller beforehand in non-production).
func Load() Settings {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8888")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "rodroyale")
	v.SetDefault("AWS_REGION", "us-east-2")
	v.SetDefault("MAIL_FROM_ADDRESS", "no-reply@rodroyale.app")
	v.SetDefault("APP_BASE_URL", "http://localhost:3000")

	return Settings{
		AppEnv:          strings.ToLower(v.GetString("APP_ENV")),
		Port:            strings.TrimSpace(v.GetString("PORT")),
		DatabaseURL:     v.GetString("DATABASE_URL"),
		DBHost:          v.GetString("DB_HOST"),
		DBPort:          v.GetString("DB_PORT"),
		DBUser:          v.GetString("DB_USER"),
		DBPassword:      v.GetString("DB_PASSWORD"),
		DBName:          v.GetString("DB_NAME"),
		RedisURL:        v.GetString("REDIS_URL"),
		AMQPURL:         v.GetString("AMQP_URL"),
		S3Bucket:        v.GetString("S3_BUCKET"),
		AWSRegion:       v.GetString("AWS_REGION"),
		APISecret:       v.GetString("API_SECRET"),
		SendGridKey:     v.GetString("SENDGRID_API_KEY"),
		MailFromAddress: v.GetString("MAIL_FROM_ADDRESS"),
		AppBaseURL:      v.GetString("APP_BASE_URL"),
		SeedDemoData:    v.GetBool("SEED_DEMO_DATA"),
	}
}

// IsProduction reports whether the snapshot was loaded in production mode.
func (s Settings) IsProduction() bool {
	return s.AppEnv == "production"
}

// DSN builds the postgres connection string. In production DATABASE_URL wins
// and sslmode=require is appended when missing.
func (s Settings) DSN() string {
	if s.IsProduction() && s.DatabaseURL != "" {
		dsn := s.DatabaseURL
		if !strings.Contains(dsn, "sslmode=") {
			if strings.Contains(dsn, "?") {
				dsn += "&sslmode=require"
			} else {
				dsn += "?sslmode=require"
			}
		}
		return dsn
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		s.DBHost, s.DBUser, s.DBPassword, s.DBName, s.DBPort,
	)
}
