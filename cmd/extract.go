package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/angeloszaimis/audio-relay/config"
	"github.com/angeloszaimis/audio-relay/internal/credentials"
	"github.com/angeloszaimis/audio-relay/internal/handler"
	"github.com/angeloszaimis/audio-relay/pkg/logger"
)

func newExtractCommand(opts *rootOptions) *cobra.Command {
	var creds credentials.Credentials

	cmd := &cobra.Command{
		Use:   "extract <id>",
		Short: "Resolve one video id and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}

			// stdout carries the JSON result
			log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level, false, cfg.Server.Environment)

			a, err := newApp(cfg, log, afero.NewOsFs())
			if err != nil {
				return err
			}

			return runExtract(cmd.Context(), cmd.OutOrStdout(), a.runner, args[0], creds)
		},
	}

	cmd.Flags().StringVar(&creds.Cookie, "cookie", "", "raw Cookie header to send instead of the cookie file")
	cmd.Flags().StringVar(&creds.UserAgent, "user-agent", "", "User-Agent to send")
	cmd.Flags().StringVar(&creds.Token, "token", "", "proof-of-origin token")

	return cmd
}

// runExtract writes the same JSON the /extract endpoint would return.
func runExtract(ctx context.Context, out io.Writer, r handler.Runner, id string, creds credentials.Credentials) error {
	if ctx == nil {
		ctx = context.Background()
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	info, _, err := r.Run(ctx, handler.WatchURL(id), creds)
	if err != nil {
		_ = enc.Encode(map[string]string{"error": err.Error()})
		return err
	}

	return enc.Encode(handler.NewResponse(info))
}
