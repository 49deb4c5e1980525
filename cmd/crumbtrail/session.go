package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/crumbtrail/internal/presentation/tui"
	"github.com/aretw0/crumbtrail/pkg/domain"
	"github.com/aretw0/crumbtrail/pkg/render"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and manage stored trails",
	Long:  `List, show, and remove the breadcrumb trails kept in the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List sessions that have a trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ids, err := a.Tracker.Sessions().List(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(ids) == 0 {
			fmt.Fprintln(out, "No sessions found.")
			return nil
		}
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show the trail of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		trail, err := a.Tracker.Sessions().Load(cmd.Context(), args[0])
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				return fmt.Errorf("session %q has no trail", args[0])
			}
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(trail)
		}

		md := render.Markdown(trail, trail.CurrentURL())
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(out, md)
			return nil
		}
		width, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil {
			width = 0
		}
		renderMarkdown, err := tui.NewRenderer(width)
		if err != nil {
			return err
		}
		rendered, err := renderMarkdown(md)
		if err != nil {
			return err
		}
		fmt.Fprint(out, rendered)
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm [session-id...]",
	Short: "Remove one or more trails",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if len(args) == 0 && !all {
			return errors.New("give at least one session id or --all")
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if all {
			args, err = a.Tracker.Sessions().List(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing sessions: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		var errs []error
		for _, id := range args {
			if err := a.Tracker.Clear(cmd.Context(), id); err != nil {
				errs = append(errs, fmt.Errorf("removing %q: %w", id, err))
				continue
			}
			fmt.Fprintf(out, "Removed session '%s'\n", id)
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	sessionShowCmd.Flags().Bool("json", false, "Print the raw trail as JSON")
	sessionRmCmd.Flags().Bool("all", false, "Remove every stored trail")
}
