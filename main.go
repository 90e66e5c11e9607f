package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"textile-studio/app"
	"textile-studio/config"
	"textile-studio/db"
)

func main() {
	// Load .env file in development (ignores error if file doesn't exist)
	// In production, variables should be set directly
	if os.Getenv("ENV") != "production" {
		// Use Overload to ensure .env values override system environment variables
		envPath := ".env"
		if err := godotenv.Overload(envPath); err != nil {
			log.Printf("Warning: .env file not found at %s, using system environment variables", envPath)
		} else {
			log.Printf("Successfully loaded environment variables from %s (overriding system variables)", envPath)
			if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON") != "" {
				log.Printf("DEBUG: GOOGLE_APPLICATION_CREDENTIALS_JSON is set (using JSON from environment)")
			} else if credsPath := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credsPath != "" {
				log.Printf("DEBUG: GOOGLE_APPLICATION_CREDENTIALS after loading .env: %s", credsPath)
			}
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize application
	handler, err := app.Initialize(context.Background(), cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer db.CloseDB()

	// Listen on 0.0.0.0 to accept connections from all interfaces (required for Docker/Render)
	addr := "0.0.0.0:" + cfg.Port
	log.Printf("Server starting on %s", addr)
	log.Printf("Add to cart endpoint: POST http://localhost:%s/cart/items", cfg.Port)

	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
