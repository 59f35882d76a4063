package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"newsdiet/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			client, ok, err := ctx.dialDaemon()
			if err != nil {
				return err
			}
			if ok {
				defer client.Close()
				resp, err := client.TestNotification()
				if err != nil {
					if resp != nil && resp.Message != "" {
						fmt.Fprintln(out, resp.Message)
					}
					return err
				}
				switch {
				case resp.Message != "":
					fmt.Fprintln(out, capitalize(resp.Message))
				case resp.Sent:
					fmt.Fprintln(out, "Test notification sent")
				default:
					fmt.Fprintln(out, "Notification not sent")
				}
				return nil
			}

			cfg := ctx.configValue()
			if cfg.Notifications.NtfyTopic == "" {
				fmt.Fprintln(out, "Ntfy topic not configured")
				return nil
			}
			if err := notifications.NewService(cfg).TestNotification(cmd.Context()); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintln(out, "Test notification sent")
			return nil
		},
	}
}
