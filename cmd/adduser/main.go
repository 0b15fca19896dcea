// Command adduser creates an account from the command line, for bootstrapping
// an instance without going through the signup endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"financas/internal/config"
	"financas/internal/log"
	"financas/internal/service"
	"financas/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.ComponentApp, log.Config{Level: slog.LevelWarn})
	log.SetDefault(logger)

	email := flag.String("email", "", "email address for the new account")
	password := flag.String("password", "", "password for the new account")
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: adduser -email user@example.com -password secret")
		os.Exit(2)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	accounts := service.NewAccounts(repo, cfg.SessionTTL, cfg.WebhookDefaultPassword, logger)

	user, _, err := accounts.SignUp(context.Background(), *email, *password, *password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("created user %d (%s)\n", user.ID, user.Email)
}
