// cmd/seeduser creates a back-office user, or resets the password and role of an existing one.
// Usage: go run ./cmd/seeduser --username admin --email admin@sipndash.co.ke --password '...'
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"sipndash/internal/config"
	"sipndash/internal/infra"
	"sipndash/internal/model"
	"sipndash/internal/repository"
	"sipndash/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	username := pflag.String("username", "admin", "login name")
	name := pflag.String("name", "Administrator", "display name")
	email := pflag.String("email", "admin@sipndash.local", "email address")
	password := pflag.String("password", "", "password (min 8 characters)")
	role := pflag.String("role", model.RoleAdmin, "admin | staff")
	pflag.Parse()

	if len(*password) < 8 {
		log.Fatal().Msg("--password must be at least 8 characters")
	}
	if *role != model.RoleAdmin && *role != model.RoleStaff {
		log.Fatal().Str("role", *role).Msg("--role must be admin or staff")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), service.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt")
	}

	ctx := context.Background()
	users := repository.NewUserRepository(db)

	u, err := users.FindByUsername(ctx, *username)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		u = &model.User{
			Username:     *username,
			Name:         *name,
			Email:        *email,
			PasswordHash: string(hash),
			Role:         *role,
			Active:       true,
		}
		err = users.Create(ctx, u)
	case err == nil:
		u.Name = *name
		u.Email = *email
		u.PasswordHash = string(hash)
		u.Role = *role
		u.Active = true
		err = users.Update(ctx, u)
	}
	if err != nil {
		log.Fatal().Err(err).Str("username", *username).Msg("failed to save user")
	}
	fmt.Printf("user %q (%s) saved\n", u.Username, u.Role)
}
