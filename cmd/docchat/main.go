package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"docsearch-console/internal/bootstrap"
	"docsearch-console/internal/config"
	"docsearch-console/internal/pkg/logger"
	"docsearch-console/internal/tracer"

	"github.com/spf13/cobra"
)

const serviceName = "docsearch-console"

var (
	verbose bool

	cfg            *config.Config
	log            *logger.ZapLogger
	shutdownTracer func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "Chat with the document search backend from a terminal",
	Long: `docchat is an admin console for the document search chat API.

Run without arguments to start an interactive chat session.
Connection settings come from the environment (or a .env file):
API_BASE_URL, API_TOKEN or API_USERNAME/API_PASSWORD.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if verbose {
			log = logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
		} else {
			log = logger.NewFileLogger(cfg.App.LogFilePath)
		}
		shutdownTracer = tracer.InitTracer(tracer.Config{
			Enabled:     cfg.Otel.Enabled,
			Endpoint:    cfg.Otel.Endpoint,
			ServiceName: serviceName,
		}, log)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
		if log != nil {
			_ = log.Sync()
		}
	},
	RunE: runChat,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "also log to the terminal")

	rootCmd.AddCommand(chatCmd, conversationsCmd, deleteCmd, providersCmd, watchCmd)
	providersCmd.Flags().Bool("secondary", false, "list the secondary backend's providers")
	watchCmd.Flags().String("type", "", "only show events of this type")
	watchCmd.Flags().String("durable", "", "durable consumer name (resume where it stopped)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// signalContext is cancelled on Ctrl-C or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func openConsole(ctx context.Context) (*bootstrap.ConsoleContainer, error) {
	container, err := bootstrap.NewConsoleContainer(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.API.BaseURL, err)
	}
	return container, nil
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	container, err := openConsole(ctx)
	if err != nil {
		return err
	}
	defer container.Close()

	s := newSession(container.Chat, container.Bus, cmd.OutOrStdout())
	return s.run(ctx, cmd.InOrStdin())
}
