package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/iwvelando/pricing-advisor/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pricing API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srvCfg, err := server.LoadConfig(a.conf.Server.ConfigFile)
			if err != nil {
				return err
			}
			srvCfg.SetAddress(a.conf.Server.Address)
			srvCfg.SetAddress(addr)

			logger := a.logger
			if srvCfg.Logging.Level != "" || srvCfg.Logging.Format != "" || srvCfg.Logging.OutputFile != "" {
				if logger, err = initializeLogger(srvCfg.Logging, a.logLevel); err != nil {
					return err
				}
				defer func() { _ = logger.Sync() }()
			}

			o, model, closer, err := a.newOrchestrator()
			if err != nil {
				return err
			}
			defer closer()

			handler := server.NewHandler(logger, o, server.Options{
				MaxUploadSize:  srvCfg.UploadSizeBytes(),
				RequestTimeout: srvCfg.RequestTimeoutDuration(),
				MaxBatch:       a.conf.Batch.MaxRequests,
				Version:        version,
				Model: server.ModelStatus{
					TrainedAt: model.TrainedAt(),
					Trees:     model.Trees(),
					AUC:       model.Metrics().AUC,
					Accuracy:  model.Metrics().Accuracy,
				},
			})

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("starting pricing API",
				zap.String("op", "main.serve"),
				zap.String("address", srvCfg.Address),
				zap.String("model", a.conf.Model.Path),
			)
			return server.Run(ctx, logger, srvCfg, handler)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address override")
	return cmd
}

