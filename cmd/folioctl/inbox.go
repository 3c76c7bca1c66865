package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/folio/backend/internal/client"
	"github.com/folio/backend/internal/inbox"
	"github.com/folio/backend/internal/model"
	"github.com/spf13/cobra"
)

var (
	apiURL     string
	apiToken   string
	inboxQuery string
	onlyUnread bool
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Read and triage contact submissions through the API",
	Long: `Read and triage contact submissions through the API. The token must
carry the admin claim; see grant-admin and mint-token.`,
}

// openInbox loads the session's authorization context once and the
// submission list with it.
func openInbox(ctx context.Context, errOut io.Writer) (*inbox.Inbox, error) {
	token := apiToken
	if token == "" {
		token = os.Getenv("FOLIO_TOKEN")
	}
	c := client.New(apiURL, token)
	authz, err := client.LoadAuthContext(ctx, c)
	if err != nil {
		return nil, err
	}
	notifier := inbox.NotifierFunc(func(n inbox.Notification) {
		fmt.Fprintf(errOut, "%s: %s (%v)\n", n.Level, n.Message, n.Err)
	})
	ib := inbox.New(c, authz, notifier, logger)
	if err := ib.Load(ctx); err != nil {
		return nil, err
	}
	return ib, nil
}

var inboxListCmd = &cobra.Command{
	Use:   "list",
	Short: "List submissions, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ib, err := openInbox(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		ib.SetQuery(inboxQuery)

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tRECEIVED\tFROM\tCATEGORY\tREAD\tMESSAGE")
		for _, s := range ib.Visible() {
			if onlyUnread && s.IsRead {
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s <%s>\t%s\t%v\t%s\n",
				s.ID, s.Timestamp.Local().Format(time.DateTime), s.Name, s.Email, s.Category, s.IsRead, preview(s.Message, 60))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d unread\n", ib.UnreadCount())
		return nil
	},
}

var inboxReadCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Show a submission and mark it read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ib, err := openInbox(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		pending, err := ib.Open(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		s, _ := ib.OpenSubmission()
		printSubmission(cmd.OutOrStdout(), s)
		if pending != nil {
			return pending.Wait(cmd.Context())
		}
		return nil
	},
}

var inboxUnreadCmd = &cobra.Command{
	Use:   "unread <id>",
	Short: "Mark a submission unread",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ib, err := openInbox(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		return ib.MarkRead(cmd.Context(), args[0], false).Wait(cmd.Context())
	},
}

var inboxDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete submissions in one batch; nothing is deleted if any id is unknown",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ib, err := openInbox(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		ids := distinct(args)
		if err := ib.Delete(cmd.Context(), ids...).Wait(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d submission(s)\n", len(ids))
		return nil
	},
}

// distinct drops repeated ids, keeping first-seen order.
func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func printSubmission(w io.Writer, s model.Submission) {
	fmt.Fprintf(w, "From:     %s <%s>\n", s.Name, s.Email)
	fmt.Fprintf(w, "Received: %s\n", s.Timestamp.Local().Format(time.RFC1123))
	fmt.Fprintf(w, "Category: %s\n\n", s.Category)
	fmt.Fprintln(w, s.Message)
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func init() {
	inboxCmd.PersistentFlags().StringVar(&apiURL, "api", "http://localhost:8080", "Folio API base URL")
	inboxCmd.PersistentFlags().StringVar(&apiToken, "token", "", "Admin ID token (default $FOLIO_TOKEN)")
	inboxListCmd.Flags().StringVarP(&inboxQuery, "query", "q", "", "Case-insensitive filter over name, email, message and category")
	inboxListCmd.Flags().BoolVar(&onlyUnread, "unread", false, "Only unread submissions")

	inboxCmd.AddCommand(inboxListCmd, inboxReadCmd, inboxUnreadCmd, inboxDeleteCmd)
	rootCmd.AddCommand(inboxCmd)
}
