package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/gatepass/internal/client"
	"github.com/evcraddock/gatepass/internal/househelp"
	"github.com/evcraddock/gatepass/internal/telephony"
)

func newStaffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Manage domestic help",
		Long:  "Register domestic help, mark them in and out at the gate, and show their passcodes.",
	}

	cmd.AddCommand(
		newStaffListCmd(),
		newStaffActiveCmd(),
		newStaffAddCmd(),
		newStaffStatusCmd(househelp.StatusIn),
		newStaffStatusCmd(househelp.StatusOut),
		newStaffToggleCmd(),
		newStaffShowCmd(),
		newStaffCallCmd(),
	)

	return cmd
}

func newStaffListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all domestic help",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			workers, err := newAPIClient().ListStaff()
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(workers)
			}
			return printStaffTable(workers)
		},
	}
}

func newStaffActiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "List domestic help currently in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			workers, err := newAPIClient().ActiveStaff()
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(workers)
			}
			return printStaffTable(workers)
		},
	}
}

func newStaffAddCmd() *cobra.Command {
	var category, phone string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register domestic help",
		Long:  "Register a worker and issue their 6-digit gate passcode. Known categories are Cook, Maid, Driver and Gardener.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStaffAdd(strings.Join(args, " "), category, phone)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "kind of work (Cook, Maid, Driver, Gardener)")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")

	return cmd
}

func runStaffAdd(name, category, phone string) error {
	res, err := newAPIClient().RegisterStaff(househelp.Registration{
		Name:     name,
		Category: category,
		Phone:    phone,
	})
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(res)
	}
	if res.Worker == nil {
		return fmt.Errorf("server returned no worker")
	}

	fmt.Println("Domestic help registered successfully!")
	fmt.Printf("Passcode for %s: %s\n", res.Worker.Name, res.Worker.Passcode)
	return nil
}

func newStaffStatusCmd(status househelp.Status) *cobra.Command {
	return &cobra.Command{
		Use:   string(status) + " <id>",
		Short: fmt.Sprintf("Mark domestic help as %s", strings.ToLower(status.Label())),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newAPIClient().SetStatus(args[0], status)
			if err != nil {
				return err
			}
			return printStaffResult(res)
		},
	}
}

func newStaffToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip domestic help between in and out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newAPIClient().ToggleStatus(args[0])
			if err != nil {
				return err
			}
			return printStaffResult(res)
		},
	}
}

func newStaffShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Open a worker's ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticket, err := newAPIClient().SelectStaff(args[0])
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(ticket)
			}
			printStaffTicket(ticket)
			return nil
		},
	}
}

func newStaffCallCmd() *cobra.Command {
	var platform string

	cmd := &cobra.Command{
		Use:   "call <id>",
		Short: "Call domestic help",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePlatform(platform)
			if err != nil {
				return err
			}
			if err := newAPIClient().CallStaff(args[0], p); err != nil {
				return err
			}
			fmt.Println("Calling...")
			return nil
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "web", "device platform (ios|android|web)")

	return cmd
}

func printStaffResult(res *client.StaffResult) error {
	if isJSON() {
		return printJSON(res)
	}
	if res.Worker == nil {
		return fmt.Errorf("server returned no worker")
	}
	fmt.Printf("%s is now %s.\n", res.Worker.Name, res.Worker.Status.Label())
	fmt.Printf("Currently in: %d\n", len(res.Roster))
	return nil
}

// parsePlatform validates the --platform flag.
func parsePlatform(s string) (telephony.Platform, error) {
	switch p := telephony.Platform(strings.ToLower(s)); p {
	case telephony.IOS, telephony.Android, telephony.Web:
		return p, nil
	default:
		return "", fmt.Errorf("platform must be ios, android, or web")
	}
}
