package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/models"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/service"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/pkg/config"
)

// tokenCommand mints access tokens for local development. It refuses to run in production.
func tokenCommand() *cobra.Command {
	var (
		userID   string
		role     string
		memberID string
		areaID   string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logr, err := bootstrap()
			if err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck

			if cfg.Env == config.EnvProduction {
				return fmt.Errorf("token minting is disabled in %s", config.EnvProduction)
			}

			claims := models.JWTClaims{
				UserID:   userID,
				Role:     models.UserRole(strings.ToUpper(role)),
				MemberID: memberID,
				AreaID:   areaID,
			}
			if _, err := service.ResolveScope(&claims); err != nil {
				return fmt.Errorf("claims do not resolve to a scope: %w", err)
			}

			tokens := service.NewTokenService(service.TokenConfig{
				Secret: cfg.JWT.Secret,
				Issuer: cfg.JWT.Issuer,
				Expiry: cfg.JWT.Expiration,
			})
			token, expiresAt, err := tokens.IssueToken(claims)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\nexpires_at=%s\n", token, expiresAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "dev-user", "user id placed in the token")
	cmd.Flags().StringVar(&role, "role", string(models.RoleJemaat), "SUPERADMIN, ADMIN, PENDETA, MAJELIS or JEMAAT")
	cmd.Flags().StringVar(&memberID, "member", "", "member id for JEMAAT tokens")
	cmd.Flags().StringVar(&areaID, "area", "", "area id for MAJELIS tokens")

	return cmd
}
