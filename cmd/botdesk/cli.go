package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Oudwins/botdesk/internals/botapi"
	"github.com/Oudwins/botdesk/internals/console"
	"github.com/Oudwins/botdesk/internals/desktop"
	"github.com/Oudwins/botdesk/internals/inbox"
	"github.com/Oudwins/botdesk/internals/logging"
	"github.com/Oudwins/botdesk/internals/poller"
	"github.com/Oudwins/botdesk/internals/schemas"
	"github.com/Oudwins/botdesk/internals/term"
	"github.com/Oudwins/botdesk/internals/timeouts"
	"github.com/Oudwins/botdesk/internals/tui"
	"github.com/Oudwins/botdesk/internals/version"

	z "github.com/Oudwins/zog"
)

var ErrUsage = errors.New("usage error")

var (
	cardMetaStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cardFromStyle = lipgloss.NewStyle().Bold(true)
)

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "botdesk",
		Short:         "Operator console for a Telegram bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	})

	persistent := root.PersistentFlags()
	persistent.StringVar(&flags.token, "token", "", "bot token, overrides BOTDESK_TOKEN and the stored token")
	persistent.StringVar(&flags.dataDir, "data-dir", "", "data directory (default ~/.botdesk)")
	persistent.StringVar(&flags.apiHost, "api-host", "", "Bot API host, overrides bot.api_host")
	persistent.BoolVarP(&flags.verbose, "verbose", "v", false, "log debug output")

	root.AddCommand(
		newServeCmd(flags),
		newTokenCmd(flags),
		newWebhookCmd(flags),
		newSendCmd(flags),
		newPollCmd(flags),
		newTUICmd(flags),
		newVersionCmd(),
	)
	return root
}

func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return fmt.Errorf("%w: %v\n\n%s", ErrUsage, err, cmd.UsageString())
		}
		return nil
	}
}

func invalidArgs(details string) error {
	return fmt.Errorf("%w: invalid arguments:\n%s", ErrUsage, details)
}

func newServeCmd(flags *globalFlags) *cobra.Command {
	var open bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the browser console",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd, flags)
			if err != nil {
				return err
			}
			logger, logFile, err := logging.Init(rt.config.Server.DataDir, rt.flags.serveLevel(), os.Stderr)
			if err != nil {
				return err
			}
			defer logFile.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := rt.openStore(ctx)
			if err != nil {
				return fmt.Errorf("open credential store: %w", err)
			}
			server := console.New(rt.config, rt.env, store, logger)
			if err := server.Restore(ctx, rt.overrideToken()); err != nil {
				_ = store.Close()
				return err
			}

			served := make(chan error, 1)
			go func() {
				served <- server.Start()
			}()

			url := rt.env.BASE_URL
			printf(cmd.OutOrStdout(), "Console running at %s\n", term.ClickableLink(url, url))
			if open {
				if err := desktop.OpenURL(url); err != nil {
					logger.Warn("open browser", slog.Any("error", err))
				}
			}

			select {
			case err := <-served:
				_ = server.Shutdown(context.Background())
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&open, "open", false, "open the console in the browser")
	return cmd
}

func newTokenCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the stored bot token",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <token>",
		Short: "Store the bot token",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			request := schemas.TokenRequest{Token: args[0]}
			if issues := schemas.TokenSchema.Validate(&request); len(issues) > 0 {
				return invalidArgs(z.Issues.Prettify(issues))
			}
			rt, err := loadRuntime(cmd, flags)
			if err != nil {
				return err
			}
			store, err := rt.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Save(cmd.Context(), request.Token); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Token saved: %s\n", term.Mask(request.Token))
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored bot token",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd, flags)
			if err != nil {
				return err
			}
			store, err := rt.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Token cleared\n")
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the token in use, masked",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd, flags)
			if err != nil {
				return err
			}
			token, source, err := rt.resolveToken(cmd.Context())
			if err != nil {
				return err
			}
			if token == "" {
				printf(cmd.OutOrStdout(), "No token set\n")
				return nil
			}
			printf(cmd.OutOrStdout(), "%s (from %s)\n", term.Mask(token), source)
			return nil
		},
	}

	cmd.AddCommand(setCmd, clearCmd, showCmd)
	return cmd
}

func newWebhookCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Inspect or change the bot webhook",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Show the webhook status",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			bot, err := botFor(cmd, flags)
			if err != nil {
				return err
			}
			webhook, err := bot.GetWebhookInfo(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if webhook.URL == "" {
				printf(out, "Webhook disabled\n")
				return nil
			}
			printf(out, "URL: %s\n", webhook.URL)
			if webhook.LastErrorMessage != "" {
				printf(out, "Last error: %s\n", webhook.LastErrorMessage)
			}
			printf(out, "Pending updates: %d\n", webhook.PendingUpdateCount)
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <url>",
		Short: "Point the webhook at url",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			request := schemas.WebhookSetRequest{URL: args[0]}
			if issues := schemas.WebhookSetSchema.Validate(&request); len(issues) > 0 {
				return invalidArgs(z.Issues.Prettify(issues))
			}
			bot, err := botFor(cmd, flags)
			if err != nil {
				return err
			}
			ok, err := bot.SetWebhook(cmd.Context(), request.URL)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), ok, "Webhook set", "Webhook was not set")
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove the webhook",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			bot, err := botFor(cmd, flags)
			if err != nil {
				return err
			}
			ok, err := bot.DeleteWebhook(cmd.Context())
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), ok, "Webhook deleted", "Webhook was not deleted")
			return nil
		},
	}

	cmd.AddCommand(infoCmd, setCmd, deleteCmd)
	return cmd
}

func newSendCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "send <chat-id> <text>...",
		Short: "Send a text message to a chat",
		Args:  usageArgs(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			request := schemas.SendMessageRequest{
				ChatID: args[0],
				Text:   strings.Join(args[1:], " "),
			}
			if issues := schemas.SendMessageSchema.Validate(&request); len(issues) > 0 {
				return invalidArgs(z.Issues.Prettify(issues))
			}
			chatID, err := request.ChatIDValue()
			if err != nil {
				return fmt.Errorf("%w: chat_id is out of range", ErrUsage)
			}
			bot, err := botFor(cmd, flags)
			if err != nil {
				return err
			}
			message, err := bot.SendMessage(cmd.Context(), chatID, request.Text)
			if err != nil {
				return err
			}
			if message == nil {
				printf(cmd.OutOrStdout(), "Message sent to %d\n", chatID)
				return nil
			}
			printf(cmd.OutOrStdout(), "Message sent to %d (message id %d)\n", chatID, message.MessageID)
			return nil
		},
	}
}

func newPollCmd(flags *globalFlags) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Print incoming messages until interrupted",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd, flags)
			if err != nil {
				return err
			}
			bot, err := rt.bot(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			box := inbox.New(rt.config.Inbox.Capacity)
			loop := poller.New(bot, func(update botapi.Update) {
				printf(out, "%s\n", formatCard(box.Add(update)))
			},
				poller.WithInterval(rt.config.PollEvery()),
				poller.WithLogger(rt.logger),
				poller.WithFailureObserver(func(err error) {
					rt.logger.Debug("poll cycle failed", slog.Any("error", err))
				}),
			)

			if once {
				delivered, err := loop.PollOnce(cmd.Context())
				if err != nil {
					return err
				}
				if delivered == 0 {
					printf(out, "No new messages\n")
				}
				return nil
			}

			if !loop.Start() {
				return botapi.ErrCredentialMissing
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			printf(out, "Polling every %s, press Ctrl+C to stop\n", rt.config.PollEvery())
			<-ctx.Done()
			loop.Stop()
			loop.Wait()
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single fetch cycle and exit")
	return cmd
}

func newTUICmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal console",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd, flags)
			if err != nil {
				return err
			}
			bot, err := rt.bot(cmd.Context())
			if err != nil {
				return err
			}
			// The screen belongs to the program, so logs only go to the file.
			logger, logFile, err := logging.Init(rt.config.Server.DataDir, rt.flags.level(), nil)
			if err != nil {
				return err
			}
			defer logFile.Close()
			return tui.Run(bot, inbox.New(rt.config.Inbox.Capacity), rt.config.PollEvery(), logger)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			printf(cmd.OutOrStdout(), "%s\n", version.Version())
			return nil
		},
	}
}

func botFor(cmd *cobra.Command, flags *globalFlags) (*botapi.Client, error) {
	rt, err := loadRuntime(cmd, flags)
	if err != nil {
		return nil, err
	}
	return rt.bot(cmd.Context())
}

func printResult(w io.Writer, ok bool, success string, failure string) {
	if ok {
		printf(w, "%s\n", success)
		return
	}
	printf(w, "%s\n", failure)
}

func formatCard(card inbox.Card) string {
	meta := cardMetaStyle.Render(fmt.Sprintf("[%s] chat %d", card.At.Format("15:04:05"), card.ChatID))
	return fmt.Sprintf("%s %s: %s", meta, cardFromStyle.Render(card.From), card.Text)
}
