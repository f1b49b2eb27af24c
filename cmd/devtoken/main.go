// Command devtoken prints a signed bearer token for local testing against hrportal.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"hrportal/internal/domain/auth"
	"hrportal/internal/platform/config"
	"hrportal/internal/platform/logger"
)

func main() {
	userID := flag.String("user", "", "user id")
	employeeID := flag.String("employee", "", "linked employee id")
	role := flag.String("role", auth.RoleEmployee, "principal role")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	log := logger.Global()
	if err := config.LoadDotEnv(); err != nil {
		log.Fatal().Err(err).Msg("load .env")
	}
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}
	if *userID == "" {
		log.Fatal().Msg("-user is required")
	}

	token, err := auth.GenerateToken(cfg.JWTSecret, auth.Claims{UserID: *userID, EmployeeID: *employeeID, RoleName: *role}, *ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("sign token")
	}
	fmt.Fprintln(os.Stdout, token)
}
