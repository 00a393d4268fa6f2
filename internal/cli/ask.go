package cli

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/hyperjump/recall/internal/models"
	"github.com/hyperjump/recall/pkg/utils"
)

var askOpts struct {
	user     string
	date     string
	timezone string
	server   string
	output   string
}

var askCmd = &cobra.Command{
	Use:   "ask [flags] <query...>",
	Short: "Ask a question about your reminders",
	Example: `  recall ask what's on tomorrow
  recall ask --date 2026-03-05 "anything that day?"
  recall ask --output json "what do I have this week"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	f := askCmd.Flags()
	f.StringVar(&askOpts.user, "user", "", "user id (required unless the server derives it from RECALL_TOKEN)")
	f.StringVar(&askOpts.date, "date", "", "explicit target date (YYYY-MM-DD), skips date resolution")
	f.StringVar(&askOpts.timezone, "tz", "", "IANA time zone used for \"today\"")
	f.StringVar(&askOpts.server, "server", defaultServerURL, "server URL (empty = use direct storage)")
	f.StringVarP(&askOpts.output, "output", "o", "text", "output format: text or json")
}

func runAsk(cmd *cobra.Command, args []string) error {
	format, err := ParseOutputFormat(askOpts.output)
	if err != nil {
		return err
	}
	req := &models.SearchRequest{
		Query:      BuildQuery(args),
		UserID:     askOpts.user,
		TargetDate: askOpts.date,
		Timezone:   askOpts.timezone,
	}

	if askOpts.server != "" {
		// Use the HTTP API when a server is running (avoids Bleve/SQLite lock conflicts).
		var payload models.AnswerPayload
		err := newAPIClient(askOpts.server).do(http.MethodPost, "/api/v1/search", nil, req, &payload)
		if err == nil {
			return WriteAnswer(cmd.OutOrStdout(), &payload, format)
		}
		var unreachable *unreachableError
		if !errors.As(err, &unreachable) {
			return err
		}
	}

	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := utils.NewQuietLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	components, err := initializeComponents(cmd.Context(), cfg, logger, false)
	if err != nil {
		return err
	}
	defer components.Close()

	payload, err := components.Engine.Search(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	return WriteAnswer(cmd.OutOrStdout(), payload, format)
}
