package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vcrobe/spashell/contact"
	"github.com/vcrobe/spashell/server"
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "List the contact messages stored by serve",
	Long: `Prints every message in the contacts database, newest first, with the
date shown as DD/MM/YYYY.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		inbox, err := server.OpenInbox(cfg.ContactsDB)
		if err != nil {
			return err
		}
		defer inbox.Close()
		return listInbox(cmd.Context(), inbox, cmd.OutOrStdout())
	},
}

func listInbox(ctx context.Context, inbox *server.Inbox, out io.Writer) error {
	messages, err := inbox.List(ctx)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		_, err := fmt.Fprintln(out, "No messages.")
		return err
	}
	for _, m := range messages {
		date, err := contact.DisplayDate(m.Date, " at ")
		if err != nil {
			date = m.Date
		}
		body := strings.ReplaceAll(m.Message, "<br>", "\n  ")
		if _, err := fmt.Fprintf(out, "%s  %s <%s> [%s]\n%s\n  %s\n\n", date, m.Name, m.Email, m.Status, m.Subject, body); err != nil {
			return err
		}
	}
	return nil
}
