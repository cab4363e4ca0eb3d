package main

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cgps-group/AMRIE/internal/api"
	"github.com/cgps-group/AMRIE/internal/setup"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the interpretation API over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Set Gin mode based on log level
			if logger.IsLevelEnabled(logrus.DebugLevel) {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}

			rt, err := setup.Build(cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			server := api.NewServer(logger, cfg.Server, rt.Interpreter, rt.Decisions)
			if err := server.Start(cmd.Context()); err != nil {
				return err
			}

			logger.Info("Server stopped")
			return nil
		},
	}
}
