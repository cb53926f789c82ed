package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/oggyb/roomate/internal/auth"
	"github.com/oggyb/roomate/internal/config"
	"github.com/oggyb/roomate/internal/db"
	"github.com/oggyb/roomate/internal/logger"
)

func main() {
	fixturesPath := pflag.StringP("fixtures", "f", "", "YAML fixtures file (defaults to the embedded set)")
	random := pflag.IntP("random", "n", 0, "number of extra random users to generate")
	seed := pflag.Int64("seed", 1, "random generator seed")
	printTokens := pflag.Bool("print-tokens", false, "print a dev JWT for every seeded user")
	tokenTTL := pflag.Duration("token-ttl", 24*time.Hour, "lifetime of printed tokens")
	pflag.Parse()

	// Load configuration
	config.LoadDotEnvs("")
	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.L()

	fx, err := loadFixtures(*fixturesPath)
	if err != nil {
		log.Error("failed to load fixtures", "err", err)
		os.Exit(1)
	}
	if *random > 0 {
		db.GenerateFixtures(fx, *random, rand.New(rand.NewSource(*seed)))
	}

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	if err := db.SeedTestData(database, fx); err != nil {
		log.Error("failed to seed", "err", err)
		os.Exit(1)
	}
	log.Info("seeding completed", "users", len(fx.Users), "swipes", len(fx.Swipes))

	if !*printTokens {
		return
	}
	if err := cfg.Validate(); err != nil {
		log.Error("cannot sign tokens", "env", cfg.App.ENV, "err", err)
		os.Exit(1)
	}
	for _, u := range fx.Users {
		token, err := auth.GenerateToken(u.ID, u.Email, cfg.Auth.JWTSecret, *tokenTTL)
		if err != nil {
			log.Error("failed to sign token", "user", u.ID, "err", err)
			os.Exit(1)
		}
		fmt.Printf("%s\t%s\n", u.ID, token)
	}
}

func loadFixtures(path string) (*db.Fixtures, error) {
	if path == "" {
		return db.DefaultFixtures()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return db.LoadFixtures(f)
}
