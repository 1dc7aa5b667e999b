package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Oudwins/botdesk/internals/botapi"
	"github.com/Oudwins/botdesk/internals/conf"
	"github.com/Oudwins/botdesk/internals/credstore"
	"github.com/Oudwins/botdesk/internals/env"
	"github.com/Oudwins/botdesk/internals/logging"
)

type globalFlags struct {
	token   string
	dataDir string
	apiHost string
	verbose bool
}

type tokenSource string

const (
	tokenFromFlag  tokenSource = "--token flag"
	tokenFromEnv   tokenSource = "BOTDESK_TOKEN"
	tokenFromStore tokenSource = "credential store"
)

// cliRuntime is the per-invocation state shared by the commands.
type cliRuntime struct {
	flags  *globalFlags
	env    *env.EnvStruct
	config *conf.Config
	logger *slog.Logger
}

func loadRuntime(cmd *cobra.Command, flags *globalFlags) (*cliRuntime, error) {
	environment, err := env.Load()
	if err != nil {
		return nil, err
	}
	dataDir := flags.dataDir
	if dataDir == "" {
		dataDir = environment.DATA_DIR
	}
	config, err := conf.Load(dataDir)
	if err != nil {
		return nil, err
	}
	if flags.apiHost != "" {
		config.Bot.APIHost = strings.TrimRight(strings.TrimSpace(flags.apiHost), "/")
	}
	return &cliRuntime{
		flags:  flags,
		env:    environment,
		config: config,
		logger: logging.New(cmd.ErrOrStderr(), flags.level(), true),
	}, nil
}

func (f *globalFlags) level() slog.Level {
	if f.verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// serveLevel keeps request logs visible for the long-running console.
func (f *globalFlags) serveLevel() slog.Level {
	if f.verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func (rt *cliRuntime) openStore(ctx context.Context) (*credstore.Store, error) {
	return credstore.Open(ctx, filepath.Join(rt.config.Server.DataDir, credstore.FileName))
}

// resolveToken picks the credential from the flag, then the environment, then
// the store. An empty token with a nil error means none is configured.
func (rt *cliRuntime) resolveToken(ctx context.Context) (string, tokenSource, error) {
	if token := strings.TrimSpace(rt.flags.token); token != "" {
		return token, tokenFromFlag, nil
	}
	if rt.env.TOKEN != "" {
		return rt.env.TOKEN, tokenFromEnv, nil
	}
	store, err := rt.openStore(ctx)
	if err != nil {
		return "", "", err
	}
	defer store.Close()
	token, ok, err := store.Load(ctx)
	if err != nil || !ok {
		return "", "", err
	}
	return token, tokenFromStore, nil
}

// overrideToken is the credential given outside the store, if any.
func (rt *cliRuntime) overrideToken() string {
	if token := strings.TrimSpace(rt.flags.token); token != "" {
		return token
	}
	return rt.env.TOKEN
}

func (rt *cliRuntime) newBot(token string) *botapi.Client {
	return botapi.NewClient(
		botapi.WithAPIHost(rt.config.Bot.APIHost),
		botapi.WithHTTPClient(&http.Client{Timeout: rt.config.RequestTimeout()}),
		botapi.WithCredential(token),
	)
}

// bot returns a client for the resolved credential. Without one it still
// returns a client so calls fail with botapi.ErrCredentialMissing.
func (rt *cliRuntime) bot(ctx context.Context) (*botapi.Client, error) {
	token, source, err := rt.resolveToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	if token != "" {
		rt.logger.Debug("using token", slog.String("source", string(source)))
	}
	return rt.newBot(token), nil
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
