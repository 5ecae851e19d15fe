package api

import (
	"fmt"
	"os"
	"strings"

	"github.com/BeckettFrey/RodRoyale/config"
	"github.com/BeckettFrey/RodRoyale/controllers"

	"github.com/joho/godotenv"
)

var server = controllers.Server{}

func init() {
	// Load .env only outside production. In hosted environments, config
	// comes from real environment variables.
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}
}

func Run() {
	_ = godotenv.Load()

	cfg := config.Load()
	server.Initialize(cfg)

	addr := ":" + strings.TrimSpace(cfg.Port)
	fmt.Printf("Listening on %s\n", addr)
	server.Run(addr)
}
