package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"shareit/internal/api"
	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/seed"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		configPath = flag.String("config", "configs/config.yaml", "path to config.yaml")
		seedPath   = flag.String("seed", "", "path to seed.yaml, defaults to seed.path from config")
		tokenTTL   = flag.Duration("token-ttl", 24*time.Hour, "lifetime of printed tokens")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *seedPath == "" {
		*seedPath = cfg.Seed.Path
	}
	if *seedPath == "" {
		return fmt.Errorf("no seed file: pass -seed or set seed.path")
	}

	fx, err := seed.Load(*seedPath)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.Database, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := seed.Apply(ctx, db, fx, &logger)
	if err != nil {
		return err
	}

	// Tokens are only useful when the API authenticates actors by JWT.
	secret := cfg.API.Auth.JWTSecret
	if secret == "" {
		return nil
	}

	emails := make([]string, 0, len(res.Users))
	for email := range res.Users {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	for _, email := range emails {
		u := res.Users[email]
		token, err := api.IssueToken(secret, u.ID, *tokenTTL)
		if err != nil {
			return fmt.Errorf("issue token for %s: %w", email, err)
		}
		fmt.Printf("%s\t%d\t%s\n", email, u.ID, token)
	}
	return nil
}
