package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/evcraddock/gatepass/internal/auth"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage resident API keys",
		Long:  "Create, list and delete the API keys residents use to reach the server. Works on the server's database directly.",
	}

	cmd.AddCommand(newKeysCreateCmd(), newKeysListCmd(), newKeysDeleteCmd())

	return cmd
}

func newKeysCreateCmd() *cobra.Command {
	var (
		name     string
		resident int64
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key for a resident",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeysCreate(name, resident)
		},
	}

	cmd.Flags().StringVar(&name, "name", "cli", "label for the key")
	cmd.Flags().Int64Var(&resident, "resident", 0, "resident ID the key acts for")

	return cmd
}

func runKeysCreate(name string, resident int64) error {
	if resident <= 0 {
		return fmt.Errorf("--resident is required")
	}

	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	raw, key, err := auth.NewAPIKeyStore(database).Create(name, resident)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(map[string]interface{}{"id": key.ID, "name": key.Name, "resident_id": key.ResidentID, "key": raw})
	}

	fmt.Printf("API key #%d created for resident %d.\n", key.ID, key.ResidentID)
	fmt.Printf("  %s\n", raw)
	fmt.Println("Store it now, it will not be shown again.")
	return nil
}

func newKeysListCmd() *cobra.Command {
	var resident int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a resident's API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if resident <= 0 {
				return fmt.Errorf("--resident is required")
			}

			database, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(database)

			keys, err := auth.NewAPIKeyStore(database).List(resident)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(keys)
			}
			return printKeyTable(keys)
		},
	}

	cmd.Flags().Int64Var(&resident, "resident", 0, "resident ID")

	return cmd
}

func newKeysDeleteCmd() *cobra.Command {
	var resident int64

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a resident's API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid key ID: %s", args[0])
			}
			if resident <= 0 {
				return fmt.Errorf("--resident is required")
			}

			database, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(database)

			if err := auth.NewAPIKeyStore(database).Delete(id, resident); err != nil {
				return err
			}
			fmt.Printf("API key #%d deleted.\n", id)
			return nil
		},
	}

	cmd.Flags().Int64Var(&resident, "resident", 0, "resident ID that owns the key")

	return cmd
}

func printKeyTable(keys []auth.APIKey) error {
	if len(keys) == 0 {
		fmt.Println("No API keys.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tNAME\tPREFIX\tLAST USED"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, k := range keys {
		lastUsed := "never"
		if k.LastUsedAt != nil {
			lastUsed = k.LastUsedAt.Format("2006-01-02 15:04")
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s…\t%s\n", k.ID, k.Name, k.KeyPrefix, lastUsed); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}
