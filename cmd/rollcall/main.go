// Command rollcall messages squad leaders shortly before a game session
// starts.
//
// Usage:
//
//	rollcall            # run the scheduler until SIGINT/SIGTERM
//	rollcall preview    # one poll: show the decision and eligible players
//
// Configuration comes from the environment (and .env if present); see
// internal/config.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/rollcall/internal/api"
	"github.com/albapepper/rollcall/internal/config"
	"github.com/albapepper/rollcall/internal/crcon"
	"github.com/albapepper/rollcall/internal/i18n"
	"github.com/albapepper/rollcall/internal/notifications"
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:           "rollcall",
		Short:         "Notify squad leaders before a game session starts",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), runScheduler)
		},
	}
	root.AddCommand(previewCmd())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		slog.Error("rollcall failed", "error", err)
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// preview command
// --------------------------------------------------------------------------

func previewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview",
		Short: "Poll once and print the decision and eligible players without sending",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				defer a.client.Close()

				clock, out, targets, err := a.scheduler.Preview(ctx)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "session active:    %v\n", clock.Active)
				fmt.Fprintf(w, "seconds remaining: %d\n", clock.SecondsRemaining)
				fmt.Fprintf(w, "decision:          %s", out.Kind)
				if out.Kind == notifications.OutcomeReadyToArm {
					fmt.Fprintf(w, " (send in %ds)", out.WaitSeconds)
				}
				fmt.Fprintf(w, "\nmessage:           %q\n", a.cfg.Message)
				fmt.Fprintf(w, "eligible players:  %d\n", len(targets))

				sort.Slice(targets, func(i, j int) bool { return targets[i].Player.Name < targets[j].Player.Name })
				for _, t := range targets {
					fmt.Fprintf(w, "  %-24s %-16s %s\n", t.Player.Name, t.Player.Role, t.Player.ID)
				}
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// run
// --------------------------------------------------------------------------

func runScheduler(ctx context.Context, a *app) error {
	if a.env.StatusAddr != "" {
		router := api.NewRouter(a.status, a.cfg)
		go func() {
			if err := api.Serve(ctx, a.env.StatusAddr, router, a.logger); err != nil {
				a.logger.Error("Status server failed", "error", err)
			}
		}()
	}

	if err := a.scheduler.Run(ctx); err != nil {
		return fmt.Errorf("close client: %w", err)
	}
	a.logger.Info("Shutdown complete")
	return nil
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

type app struct {
	env       *config.Config
	cfg       notifications.Config
	client    *crcon.Client
	status    *notifications.Status
	scheduler *notifications.Scheduler
	logger    *slog.Logger
}

// withApp loads configuration, builds the client and scheduler, and runs fn.
func withApp(ctx context.Context, fn func(ctx context.Context, a *app) error) error {
	env, err := config.Load()
	if errors.Is(err, config.ErrMissingToken) {
		return fmt.Errorf("%w (set it in the environment or .env)", err)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: env.LogLevel}))
	slog.SetDefault(logger)

	catalog, err := i18n.Load(env.LanguageFile, env.Language)
	if err != nil {
		return fmt.Errorf("load language table: %w", err)
	}
	if catalog.FellBack {
		logger.Warn(catalog.String("log_fallback_lang", "Language not found, falling back"),
			"requested", catalog.Requested, "using", catalog.Language, "file", env.LanguageFile)
	}
	message := env.MessageContent
	if message == "" {
		message = catalog.Message()
	}

	cfg := notifications.NewConfig(env.PollInterval, env.TargetRoles,
		env.StartThresholdMinutes, env.SendOffsetMinutes, message)
	cfg.Phrases = catalog
	if err := cfg.Validate(); err != nil {
		logger.Warn("Invalid schedule, messages will be sent once per session as soon as it is seen", "error", err)
	}

	client := crcon.NewClient(env.APIBaseURL, env.APIToken, env.APIRateLimit, env.APITimeout, logger)
	status := notifications.NewStatus(time.Now())
	scheduler := notifications.NewScheduler(client, cfg,
		notifications.WithLogger(logger),
		notifications.WithStatus(status))

	logger.Info("Starting rollcall",
		"api_base_url", env.APIBaseURL,
		"language", catalog.Language,
		"target_roles", env.TargetRoles)

	return fn(ctx, &app{
		env:       env,
		cfg:       cfg,
		client:    client,
		status:    status,
		scheduler: scheduler,
		logger:    logger,
	})
}
