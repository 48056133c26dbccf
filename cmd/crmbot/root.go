package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Seka35/visual-crm/internal/bot"
	"github.com/Seka35/visual-crm/internal/config"
	"github.com/Seka35/visual-crm/internal/confirm"
	"github.com/Seka35/visual-crm/internal/crm"
	"github.com/Seka35/visual-crm/internal/llm"
	"github.com/Seka35/visual-crm/internal/logger"
	"github.com/Seka35/visual-crm/internal/orchestrator"
	"github.com/Seka35/visual-crm/internal/session"
	"github.com/Seka35/visual-crm/internal/telegram"
	"github.com/Seka35/visual-crm/internal/tools"
	"github.com/Seka35/visual-crm/internal/transcribe"
)

var version = "dev"

const httpShutdownTimeout = 10 * time.Second

var envFile string

var rootCmd = &cobra.Command{
	Use:   "crmbot",
	Short: "Telegram CRM assistant with an LLM tool-calling loop",
	Long: "crmbot is a Telegram bot that manages CRM records (contacts, deals, tasks,\n" +
		"debts, events) through natural-language chat. Mutations always go through a\n" +
		"confirmation step before anything is written.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("crmbot %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path to an extra .env file")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the CLI.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func run(ctx context.Context) (err error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logger.Init(logger.ParseLevel(cfg.LogLevel), cfg.LogPath); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		if err != nil {
			logger.Error("Fatal error: %v", err)
		}
		if closeErr := logger.Global().Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close logger: %v\n", closeErr)
		}
	}()

	tg, err := telegram.NewClient(cfg.TelegramToken)
	if err != nil {
		return err
	}
	me, err := tg.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("telegram handshake failed: %w", err)
	}
	logger.Info("authenticated as @%s", me.Username)

	repo, err := crm.NewClient(cfg.SupabaseURL, cfg.SupabaseKey())
	if err != nil {
		return err
	}

	// A missing OpenAI key leaves the chat pipeline degraded but the bot
	// running; the orchestrator reports the problem per turn.
	var llmClient llm.Client
	var voice bot.Transcriber
	if cfg.OpenAIAPIKey != "" {
		openaiClient, err := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.Model)
		if err != nil {
			return err
		}
		llmClient = openaiClient

		transcriber, err := transcribe.New(cfg.OpenAIAPIKey, "")
		if err != nil {
			return err
		}
		voice = transcriber
	} else {
		logger.Warn("OPENAI_API_KEY not set; conversational turns will report the missing key")
	}

	store, err := session.OpenStore(cfg.SessionDBPath)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer store.Close()
	sessions := session.NewManager(store)
	defer sessions.Flush()

	registry := tools.NewRegistry()
	executor := tools.NewExecutor(registry, repo)
	orch := orchestrator.New(llmClient, registry, executor)
	gate := confirm.NewGate(executor)
	b := bot.New(tg, sessions, repo, orch, gate, voice)

	if err := b.RegisterCommands(ctx); err != nil {
		logger.Warn("could not publish command menu: %v", err)
	}

	if cfg.WebhookURL != "" {
		return runWebhook(ctx, cfg, tg, b)
	}
	return runPolling(ctx, tg, b)
}

func runPolling(ctx context.Context, tg *telegram.Client, b *bot.Bot) error {
	if err := tg.DeleteWebhook(ctx); err != nil {
		logger.Warn("could not clear webhook before polling: %v", err)
	}

	logger.Info("long polling for updates")
	poller := telegram.NewPoller(tg, b.HandleUpdate)
	if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runWebhook(ctx context.Context, cfg *config.Config, tg *telegram.Client, b *bot.Bot) error {
	if err := tg.SetWebhook(ctx, cfg.WebhookURL); err != nil {
		return fmt.Errorf("failed to register webhook: %w", err)
	}

	// The secret path segment is the bot token, which Telegram already
	// requires the webhook URL to keep private.
	webhook := telegram.NewWebhook(cfg.WebhookListen, cfg.TelegramToken, b.HandleUpdate)

	errCh := make(chan error, 1)
	go func() {
		if err := webhook.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()
	return webhook.Shutdown(shutdownCtx)
}
