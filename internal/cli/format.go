package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/evcraddock/gatepass/internal/househelp"
	"github.com/evcraddock/gatepass/internal/visitor"
)

// printJSON marshals v as indented JSON and writes it to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printStaffTable prints workers as a formatted table.
func printStaffTable(workers []househelp.Worker) error {
	if len(workers) == 0 {
		fmt.Println("No domestic help registered.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPHONE\tPASSCODE\tSTATUS"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t----\t--------\t-----\t--------\t------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, wk := range workers {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			wk.ID, truncate(wk.Name, 30), wk.Category, wk.Phone, wk.Passcode, wk.Status.Label()); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Printf("\nTotal: %d\n", len(workers))
	return nil
}

// printStaffTicket prints a worker's ticket in text format.
func printStaffTicket(t *househelp.Ticket) {
	fmt.Printf("%s\n", t.Name)
	fmt.Printf("  Category: %s\n", t.Category)
	fmt.Printf("  Phone:    %s\n", t.Phone)
	fmt.Printf("  Passcode: %s\n", t.Passcode)
	fmt.Printf("  Status:   %s\n", t.Status.Label())
	if t.LastEntry != "" {
		fmt.Printf("  Last in:  %s\n", t.LastEntry)
	}
	if t.LastExit != "" {
		fmt.Printf("  Last out: %s\n", t.LastExit)
	}
	fmt.Printf("  ID:       %s\n", t.DismissID)
}

// printVisitorTable prints visitors as a formatted table.
func printVisitorTable(visitors []visitor.Visitor) error {
	if len(visitors) == 0 {
		fmt.Println("No visitors found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tNAME\tPHONE\tSTATUS\tIN\tOUT"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t----\t-----\t------\t--\t---"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, v := range visitors {
		t := visitor.Project(v)
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			t.DismissID, truncate(t.Name, 30), t.Phone, t.PrebookedStatus, orDash(t.TimeIn), orDash(t.TimeOut)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Printf("\nTotal: %d\n", len(visitors))
	return nil
}

// printVisitorTicket prints a visitor's details. Event and OTP are shown
// only when present.
func printVisitorTicket(t *visitor.Ticket) {
	fmt.Printf("%s\n", t.Name)
	fmt.Printf("  Phone:    %s\n", t.Phone)
	fmt.Printf("  Status:   %s\n", t.PrebookedStatus)
	fmt.Printf("  In:       %s\n", orDash(t.TimeIn))
	fmt.Printf("  Out:      %s\n", orDash(t.TimeOut))
	fmt.Printf("  Entry:    %s\n", orDash(t.ModeOfEntry))
	if t.Event != "" {
		fmt.Printf("  Event:    %s\n", t.Event)
	}
	if t.Vehicle != "" {
		fmt.Printf("  Vehicle:  %s\n", t.Vehicle)
	}
	if t.OTP != "" {
		fmt.Printf("  OTP:      %s\n", t.OTP)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
