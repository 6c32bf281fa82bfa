package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config carries process configuration resolved from .env / environment.
type Config struct {
	Port        string
	DataDir     string
	JWTSecret   []byte
	Env         string
	FrontendURL string
}

func loadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	cfg := Config{
		Port:        getenv("PORT", "3000"),
		DataDir:     getenv("DATA_DIR", "./data"),
		Env:         getenv("GO_ENV", "development"),
		FrontendURL: os.Getenv("FRONTEND_URL"),
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "your-secret-key"
		log.Println("Warning: JWT_SECRET not set, using default development secret")
	}
	cfg.JWTSecret = []byte(secret)
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
