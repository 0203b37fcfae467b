package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/home-mind-bridge/internal/domain"
	"github.com/boddenberg/home-mind-bridge/internal/infra/observability"
	"github.com/boddenberg/home-mind-bridge/internal/infra/store"
	"github.com/boddenberg/home-mind-bridge/internal/service"

	"github.com/spf13/cobra"
)

type askFlags struct {
	apiURL         string
	userID         string
	conversationID string
	customPrompt   string
	language       string
	voice          bool
}

func newAskCmd(flags *rootFlags) *cobra.Command {
	f := &askFlags{}

	cmd := &cobra.Command{
		Use:   "ask TEXT...",
		Short: "Send one utterance through the bridge and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			logger := observability.NewLogger(cfg.LogLevel)
			defer logger.Sync()

			// A throwaway entry so the agent reads options the same way it does when served.
			entries := store.NewMemoryStore()
			entry := &domain.ConfigEntry{
				EntryID:   service.NewEntryID(),
				Domain:    domain.Domain,
				Title:     domain.EntryTitle,
				Data:      domain.EntryData{APIURL: domain.NormalizeAPIURL(f.apiURL), UserID: f.userID},
				Options:   domain.EntryOptions{CustomPrompt: f.customPrompt},
				CreatedAt: time.Now().UTC(),
				UpdatedAt: time.Now().UTC(),
			}
			if err := entries.Create(cmd.Context(), entry); err != nil {
				return err
			}

			api := newAPIClient(cfg, nil, logger)
			agent := service.NewAgent(entry, api, entries, observability.NewMetrics(), logger)

			in := &domain.ConversationInput{
				Text:           strings.Join(args, " "),
				ConversationID: f.conversationID,
				Language:       f.language,
			}
			if f.voice {
				in.AgentID = "cli"
			}

			result := agent.Process(cmd.Context(), in)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, result.Response.Speech)
			fmt.Fprintf(out, "conversation_id: %s\n", result.ConversationID)
			if result.Response.ResponseType == domain.ResponseTypeError {
				return fmt.Errorf("exchange failed")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.apiURL, "api-url", domain.DefaultAPIURL, "Home Mind API base URL")
	cmd.Flags().StringVar(&f.userID, "user-id", domain.DefaultUserID, "user id sent with the message")
	cmd.Flags().StringVar(&f.conversationID, "conversation-id", "", "continue an existing conversation")
	cmd.Flags().StringVar(&f.customPrompt, "custom-prompt", "", "extra instructions for the AI")
	cmd.Flags().StringVar(&f.language, "language", "en", "language of the utterance")
	cmd.Flags().BoolVar(&f.voice, "voice", false, "mark the utterance as voice input")
	return cmd
}
