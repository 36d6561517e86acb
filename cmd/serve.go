package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tonotes/handler"
	"tonotes/search"
	"tonotes/usecase"
	"tonotes/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	serveCmd.Flags().StringP("port", "p", "8080", "port to listen on")
	cobra.CheckErr(v.BindPFlag("port", serveCmd.Flags().Lookup("port")))
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	if err := a.cfg.RequireAuth(); err != nil {
		return err
	}
	if err := utils.InitValidator(); err != nil {
		return fmt.Errorf("registering validators: %w", err)
	}
	if err := a.ensureSchema(ctx); err != nil {
		return err
	}

	gin.SetMode(a.cfg.Server.GinMode)

	notes := usecase.NewNotesService(a.notes, a.users, a.records, a.synchronizer)
	searcher := search.NewService(a.index, a.records, a.cfg.Search.EngineTimeout)

	checks := map[string]handler.HealthCheck{
		"mongo":  a.pingMongo,
		"search": a.index.Refresh,
	}
	if a.redis != nil {
		checks["redis"] = a.pingRedis
	}

	router := handler.SetupRouter(handler.RouterConfig{
		Notes:          handler.NewNotesHandler(notes, searcher),
		Admin:          handler.NewAdminHandler(a.synchronizer),
		Health:         handler.NewHealthHandler(checks),
		JWTSecret:      a.cfg.Auth.JWTSecretKey,
		Issuer:         a.cfg.Auth.Issuer,
		AdminUserIDs:   a.cfg.Auth.AdminUserIDs,
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		Logger:         a.logger,
	})

	srv := &http.Server{
		Addr:              ":" + a.cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	a.logger.Info("server stopped")
	return nil
}
