package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newVisitorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visitors",
		Short: "See your visitors",
		Long:  "List visitors security has logged for you, call them, and issue OTPs for expected guests.",
	}

	cmd.AddCommand(
		newVisitorsListCmd(),
		newVisitorsActiveCmd(),
		newVisitorsShowCmd(),
		newVisitorsCallCmd(),
		newVisitorsOTPCmd(),
	)

	return cmd
}

func newVisitorsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all your visitors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			visitors, err := newAPIClient().ListVisitors()
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(visitors)
			}
			return printVisitorTable(visitors)
		},
	}
}

func newVisitorsActiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "List visitors currently inside",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			visitors, err := newAPIClient().ActiveVisitors()
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(visitors)
			}
			return printVisitorTable(visitors)
		},
	}
}

func newVisitorsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a visitor's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseVisitorID(args[0])
			if err != nil {
				return err
			}
			ticket, err := newAPIClient().VisitorTicket(id)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(ticket)
			}
			printVisitorTicket(ticket)
			return nil
		},
	}
}

func newVisitorsCallCmd() *cobra.Command {
	var platform string

	cmd := &cobra.Command{
		Use:   "call <id>",
		Short: "Call a visitor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseVisitorID(args[0])
			if err != nil {
				return err
			}
			p, err := parsePlatform(platform)
			if err != nil {
				return err
			}
			if err := newAPIClient().CallVisitor(id, p); err != nil {
				return err
			}
			fmt.Println("Calling...")
			return nil
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "web", "device platform (ios|android|web)")

	return cmd
}

func newVisitorsOTPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "otp",
		Short: "Issue an OTP for an expected guest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			otp, err := newAPIClient().IssueOTP()
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(map[string]string{"otp": otp})
			}
			fmt.Printf("OTP: %s\n", otp)
			return nil
		},
	}
}

func parseVisitorID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid visitor ID: %s", s)
	}
	return id, nil
}
