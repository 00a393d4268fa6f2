package cli

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/hyperjump/recall/internal/models"
	"github.com/hyperjump/recall/pkg/utils"
)

var remindOpts struct {
	user      string
	date      string
	time      string
	id        string
	completed bool
	server    string
	output    string
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Manage reminders",
}

var remindAddCmd = &cobra.Command{
	Use:     "add [flags] <title...>",
	Short:   "Create or replace a reminder",
	Example: `  recall remind add --user u1 --date 2026-01-29 --time 09:00 Dentist`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runRemindAdd,
}

var remindDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a reminder",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemindDelete,
}

var remindReindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the vector and content indices for a user from storage",
	Long:  "Rebuild the vector and content indices for a user from storage. Runs against storage directly; stop the server first.",
	RunE:  runRemindReindex,
}

func init() {
	remindCmd.PersistentFlags().StringVar(&remindOpts.user, "user", "", "user id")
	remindCmd.PersistentFlags().StringVar(&remindOpts.server, "server", defaultServerURL, "server URL (empty = use direct storage)")
	remindCmd.PersistentFlags().StringVarP(&remindOpts.output, "output", "o", "text", "output format: text or json")

	remindAddCmd.Flags().StringVar(&remindOpts.date, "date", "", "date (YYYY-MM-DD)")
	remindAddCmd.Flags().StringVar(&remindOpts.time, "time", "", "time (HH:MM)")
	remindAddCmd.Flags().StringVar(&remindOpts.id, "id", "", "reminder id (generated when empty; an existing id is replaced)")
	remindAddCmd.Flags().BoolVar(&remindOpts.completed, "completed", false, "mark the reminder completed")

	remindCmd.AddCommand(remindAddCmd)
	remindCmd.AddCommand(remindDeleteCmd)
	remindCmd.AddCommand(remindReindexCmd)
}

// withComponents runs fn against directly opened storage and indices.
func withComponents(cmd *cobra.Command, fn func(c *Components) error) error {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := utils.NewQuietLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	components, err := initializeComponents(cmd.Context(), cfg, logger, debugFlag)
	if err != nil {
		return err
	}
	defer components.Close()
	return fn(components)
}

func runRemindAdd(cmd *cobra.Command, args []string) error {
	format, err := ParseOutputFormat(remindOpts.output)
	if err != nil {
		return err
	}
	input := &models.ReminderInput{
		ID:        remindOpts.id,
		UserID:    remindOpts.user,
		Title:     BuildQuery(args),
		Date:      remindOpts.date,
		Time:      remindOpts.time,
		Completed: remindOpts.completed,
	}

	if remindOpts.server != "" {
		var r models.Reminder
		err := newAPIClient(remindOpts.server).do(http.MethodPost, "/api/v1/reminders", nil, input, &r)
		if err == nil {
			return WriteReminder(cmd.OutOrStdout(), &r, format)
		}
		var unreachable *unreachableError
		if !errors.As(err, &unreachable) {
			return err
		}
	}

	return withComponents(cmd, func(c *Components) error {
		r, err := c.Indexer.IndexReminder(cmd.Context(), input)
		if err != nil {
			return err
		}
		return WriteReminder(cmd.OutOrStdout(), r, format)
	})
}

func runRemindDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	if remindOpts.server != "" {
		q := url.Values{}
		if remindOpts.user != "" {
			q.Set("userId", remindOpts.user)
		}
		err := newAPIClient(remindOpts.server).do(http.MethodDelete, "/api/v1/reminders/"+url.PathEscape(id), q, nil, nil)
		if err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			return nil
		}
		var unreachable *unreachableError
		if !errors.As(err, &unreachable) {
			return err
		}
	}

	if remindOpts.user == "" {
		return errors.New("--user is required")
	}
	return withComponents(cmd, func(c *Components) error {
		if err := c.Indexer.DeleteReminder(cmd.Context(), remindOpts.user, models.ReminderID(id)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
		return nil
	})
}

func runRemindReindex(cmd *cobra.Command, args []string) error {
	if remindOpts.user == "" {
		return errors.New("--user is required")
	}
	return withComponents(cmd, func(c *Components) error {
		n, err := c.Indexer.Reindex(cmd.Context(), remindOpts.user)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reindexed %d reminders for %s\n", n, remindOpts.user)
		return nil
	})
}
