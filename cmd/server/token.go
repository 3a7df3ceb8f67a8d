package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/workforce-api/internal/service/auth"
	"github.com/spf13/cobra"
)

var errAuthDisabled = errors.New("auth.jwt_secret is not set; tokens cannot be issued")

func tokenCmd(configPath *string) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for API clients",
		Long: `Mint an HS256 bearer token signed with auth.jwt_secret.

Examples:
  taskd token --subject dispatcher
  taskd token --subject ops-console --ttl 720h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfigAndLogger(*configPath)
			if err != nil {
				return err
			}
			if !cfg.Auth.AuthEnabled() {
				return errAuthDisabled
			}

			jwtService, err := auth.NewJWTService(cfg.Auth, log)
			if err != nil {
				return fmt.Errorf("failed to initialize JWT service: %w", err)
			}

			token, err := jwtService.GenerateToken(contextOrBackground(cmd.Context()), subject, ttl)
			if err != nil {
				return fmt.Errorf("failed to generate token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&subject, "subject", "s", "", "identity recorded in the token's sub claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to auth.token_lifetime)")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}
