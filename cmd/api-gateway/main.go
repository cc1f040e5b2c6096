package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	_ "github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/api/swagger"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/pkg/config"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/pkg/logger"
)

// @title GMIT Betlehem Member Documents API
// @version 1.0.0
// @description Upload and verification of member certificates (baptism, confirmation, marriage).
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const programName = "api-gateway"

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Member document verification service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(migrateCommand())
	rootCmd.AddCommand(tokenCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the process logger shared by every command.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	if _, err := maxprocs.Set(maxprocs.Logger(logr.Sugar().Infof)); err != nil {
		logr.Warn("failed to set GOMAXPROCS", zap.Error(err))
	}
	return cfg, logr, nil
}
