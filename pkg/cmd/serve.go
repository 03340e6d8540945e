package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/codeready-toolchain/docmask/pkg/api"
	"github.com/codeready-toolchain/docmask/pkg/cleanup"
	"github.com/codeready-toolchain/docmask/pkg/detector"
	"github.com/codeready-toolchain/docmask/pkg/version"
)

func newServeCmd(o *options) *cobra.Command {
	var httpAddr, grpcAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and the gRPC detector service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			srvCfg := *o.cfg.Server
			if httpAddr != "" {
				srvCfg.HTTPAddr = httpAddr
			}
			if cmd.Flags().Changed("grpc-addr") {
				srvCfg.GRPCAddr = grpcAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			eng, err := newEngine(ctx, o.cfg)
			if err != nil {
				return err
			}
			defer eng.Close()

			httpServer := api.NewServer(eng.redactor(o.cfg.Categories), eng.redactor)
			if eng.runs != nil {
				httpServer.SetAuditLedger(eng.dbClient, eng.runs)
				retention := cleanup.NewService(o.cfg.Audit, eng.runs)
				retention.Start(ctx)
				defer retention.Stop()
			}

			errCh := make(chan error, 2)

			var grpcServer *grpc.Server
			if srvCfg.GRPCAddr != "" {
				lis, err := net.Listen("tcp", srvCfg.GRPCAddr)
				if err != nil {
					return fmt.Errorf("failed to listen on %s: %w", srvCfg.GRPCAddr, err)
				}
				grpcServer = grpc.NewServer()
				detector.RegisterDetectorServer(grpcServer, detector.NewServer(o.cfg.Categories))
				go func() {
					slog.Info("gRPC detector listening", "addr", lis.Addr().String())
					if err := grpcServer.Serve(lis); err != nil {
						errCh <- fmt.Errorf("grpc server: %w", err)
					}
				}()
			}

			go func() {
				if err := httpServer.Start(srvCfg.HTTPAddr); err != nil {
					errCh <- err
				}
			}()

			slog.Info("docmask started", "version", version.Full(), "categories", o.cfg.Categories.Strings())

			var runErr error
			select {
			case <-ctx.Done():
				slog.Info("Shutdown signal received")
			case runErr = <-errCh:
				slog.Error("Server error triggered shutdown", "error", runErr)
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), srvCfg.ShutdownTimeout)
			defer cancel()
			if grpcServer != nil {
				grpcServer.GracefulStop()
			}
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("HTTP server shutdown error", "error", err)
			}
			slog.Info("Shutdown complete")
			return runErr
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http-addr", "", "HTTP listen address (overrides server.http_addr)")
	cmd.Flags().StringVar(&grpcAddr, "grpc-addr", "", "gRPC detector listen address, empty to disable (overrides server.grpc_addr)")
	return cmd
}
