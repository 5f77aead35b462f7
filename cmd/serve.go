package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spigell/talent-intake/internal/channel"
	"github.com/spigell/talent-intake/internal/retention"
	"github.com/spigell/talent-intake/internal/secrets"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the inbound event endpoint and run the retention sweep",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default :8080)")
	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	config, logger := prepare("serve", false)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	messenger, err := newMessenger(config, logger)
	if err != nil {
		logger.Fatal("building the channel messenger", zap.Error(err))
	}

	app, err := buildApplication(ctx, config, messenger, logger)
	if err != nil {
		logger.Fatal("building the application", zap.Error(err))
	}
	defer app.Close()

	sweeper := retention.New(app.store, config.Session.Retention, config.Session.SweepInterval, logger)
	if err := sweeper.Start(ctx); err != nil {
		logger.Fatal("starting retention sweep", zap.Error(err))
	}
	defer sweeper.Stop()

	mux := http.NewServeMux()
	channel.NewHandler(app.machine, version, logger).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         config.Listen,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", config.Listen), zap.Strings("tenants", app.tenants.IDs()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}

	drained := make(chan struct{})
	go func() {
		app.machine.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-shutdownCtx.Done():
		logger.Warn("conversation turns still running at shutdown")
	}
	logger.Info("stopped")
}

// newMessenger posts replies to the channel gateway when one is configured and
// only logs them otherwise.
func newMessenger(config *Config, logger *zap.Logger) (channel.Messenger, error) {
	if config.Channel.SendURL == "" {
		logger.Warn("channel.send-url is not set, replies are only logged")
		return channel.NewLogMessenger(logger), nil
	}
	token, err := secrets.Load(secrets.Source{
		Name:     "channel token",
		Value:    config.Channel.Token,
		File:     config.Channel.TokenFile,
		Env:      envPrefix + "_CHANNEL_TOKEN",
		Optional: true,
	})
	if err != nil {
		return nil, err
	}
	return channel.NewWebhookMessenger(config.Channel.SendURL, token), nil
}
