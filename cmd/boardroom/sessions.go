package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"boardroom/internal/types"
)

var sessionsOwner string

// The sessions subcommands are read-only and open the store directly, so
// they work with no LLM provider configured.
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect stored sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List an owner's sessions, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		sessions, err := st.ListSessions(sessionsOwner)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("no sessions")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKIND\tPHASE\tSTATUS\tSTARTED")
		for _, s := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				s.ID, s.Kind, s.Phase, s.Status, s.StartedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print a session's transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		session, err := st.FindSession(args[0], sessionsOwner)
		if err != nil {
			return err
		}
		messages, err := st.ListMessages(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s session %s (phase %d, %s)\n\n", session.Kind, session.ID, session.Phase, session.Status)
		for _, msg := range messages {
			label := msg.Speaker
			if msg.Meta.DirectorName != "" {
				label = msg.Meta.DirectorName
			}
			if msg.Type == types.TypeGateNote {
				fmt.Printf("  [note] %s\n\n", msg.Content)
				continue
			}
			fmt.Printf("%s [%s]:\n%s\n\n", label, msg.CreatedAt.Format("15:04:05"), msg.Content)
		}
		return nil
	},
}

func init() {
	sessionsCmd.PersistentFlags().StringVarP(&sessionsOwner, "owner", "o", "local", "owner id to act as")
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
}
