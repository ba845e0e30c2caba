package commands

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"prospect-sync/internal/settings"
	"prospect-sync/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var showSecrets bool

func init() {
	settingsGetCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print the API key unmasked.")
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd, settingsUnsetCmd)
	rootCmd.AddCommand(settingsCmd)
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "The 'settings' subcommand reads and writes the Airtable credentials.",
}

// parseAssignments turns key=value arguments into a map.
func parseAssignments(args []string) (map[string]string, error) {
	values := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got '%s'", arg)
		}
		values[key] = strings.TrimSpace(value)
	}
	return values, nil
}

func displayValue(key, value string) string {
	if key == settings.KeyAPIKey && !showSecrets {
		return maskSecret(value)
	}
	return value
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [keys...]",
	Short: "Prints the given settings, or all of them.",
	Run: func(cmd *cobra.Command, args []string) {
		e, err := newBaseEnv(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to initialize", err)
		}
		defer e.Close()

		values, err := e.store.Get(cmd.Context(), args...)
		if err != nil {
			e.Close()
			serviceutil.Fatal("failed to read settings", err)
		}
		entries, err := e.store.Entries(cmd.Context())
		if err != nil {
			e.Close()
			serviceutil.Fatal("failed to read settings", err)
		}
		updated := map[string]string{}
		for _, entry := range entries {
			updated[entry.Key] = time.Unix(entry.UpdatedAt, 0).Format(time.ANSIC)
		}

		keys := make([]string, 0, len(values))
		for key := range values {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		t := newTable()
		t.AppendHeader(table.Row{"Key", "Value", "Last updated"})
		for _, key := range keys {
			lastUpdated, ok := updated[key]
			if !ok {
				lastUpdated = "(default)"
			}
			t.AppendRow(table.Row{key, displayValue(key, values[key]), lastUpdated})
		}
		t.Render()
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key=value>...",
	Short: fmt.Sprintf("Sets settings, known keys are %s.", strings.Join(settings.Keys(), ", ")),
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		values, err := parseAssignments(args)
		if err != nil {
			serviceutil.Fatal("invalid arguments", err)
		}

		e, err := newBaseEnv(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to initialize", err)
		}
		defer e.Close()

		err = e.store.Set(cmd.Context(), values)
		if err != nil {
			e.Close()
			serviceutil.Fatal("failed to write settings", err)
		}
		fmt.Printf("Saved %d setting(s).\n", len(values))
	},
}

var settingsUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Resets a setting to its default.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e, err := newBaseEnv(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to initialize", err)
		}
		defer e.Close()

		err = e.store.Unset(cmd.Context(), args[0])
		if err != nil {
			e.Close()
			serviceutil.Fatal("failed to unset setting", err)
		}
	},
}
