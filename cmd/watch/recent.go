package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Print the newest stored records as JSON",
	Long: `Print up to N stored records, newest first, as a JSON array of
{id, timestamp, payload} objects. A corrupt store prints an empty array and
exits non-zero.`,
	RunE: runRecent,
}

func init() {
	rootCmd.AddCommand(recentCmd)
	recentCmd.Flags().IntP("limit", "n", 10, "maximum number of records to print")
}

func runRecent(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 1 {
		return errors.New("--limit must be a positive integer")
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	records, fetchErr := a.store.FetchRecent(cmd.Context(), limit)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return err
	}
	return fetchErr
}
