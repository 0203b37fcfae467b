package main

import (
	"fmt"

	"github.com/boddenberg/home-mind-bridge/internal/domain"
	"github.com/boddenberg/home-mind-bridge/internal/infra/observability"
	"github.com/boddenberg/home-mind-bridge/internal/service"

	"github.com/spf13/cobra"
)

func newValidateCmd(flags *rootFlags) *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that a Home Mind API server is reachable and healthy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			logger := observability.NewLogger(cfg.LogLevel)
			defer logger.Sync()

			api := newAPIClient(cfg, nil, logger)
			validator := service.NewValidator(api, observability.NewMetrics(), logger)

			info, err := validator.Validate(cmd.Context(), apiURL)
			if err != nil {
				return fmt.Errorf("validate %s: %w", domain.NormalizeAPIURL(apiURL), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s at %s\n", info.Title, domain.NormalizeAPIURL(apiURL))
			return nil
		},
	}
	cmd.Flags().StringVar(&apiURL, "api-url", domain.DefaultAPIURL, "Home Mind API base URL")
	return cmd
}
