// Command create-operator registers an office operator without going through the HTTP API.
// The password is read from OPERATOR_PASSWORD so it stays out of shell history.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"ms-backoffice/internal/auth"
	authdb "ms-backoffice/internal/auth/db"
	"ms-backoffice/internal/config"
	"ms-backoffice/internal/database"
	"ms-backoffice/internal/logger"
)

func main() {
	name := flag.String("name", "", "operator name")
	mobile := flag.String("mobile", "", "10 digit mobile number")
	email := flag.String("email", "", "login email")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger(cfg.Log.Dir, cfg.Log.Prefix+"-admin")
	defer log.Close()

	ctx := context.Background()
	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	svc := auth.NewService(&authdb.DB{Bun: bunDB}, tokens, auth.NewMemoryDenyList(), log)

	op, err := svc.Register(ctx, auth.RegisterInput{
		Name:     *name,
		Mobile:   *mobile,
		Email:    *email,
		Password: os.Getenv("OPERATOR_PASSWORD"),
	})
	if err != nil {
		log.Fatal("AUTH", fmt.Sprintf("Failed to create operator: %v", err))
	}
	log.Info("AUTH", fmt.Sprintf("✅ Operator %d created for %s", op.ID, op.Email))
}
