package commands

import (
	"fmt"
	"log/slog"
	"os"

	"prospect-sync/internal/dispatch"
	"prospect-sync/lib/serviceutil"

	"github.com/spf13/cobra"
)

var extractFlags struct {
	static  bool
	json    bool
	related bool
}

func init() {
	extractCmd.Flags().BoolVar(&extractFlags.static, "static", false, "Fetch the page over http instead of opening it in the browser.")
	extractCmd.Flags().BoolVar(&extractFlags.json, "json", false, "Print the result as json.")
	extractCmd.Flags().BoolVar(&extractFlags.related, "related", false, "Treat the url as a company page and extract only the related entity.")
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract <url> [--static] [--json] [--related]",
	Short: "Extracts a profile (and its company page) without saving anything.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e, err := newEnv(cmd.Context(), extractFlags.static)
		if err != nil {
			serviceutil.Fatal("failed to initialize", err)
		}
		defer e.Close()

		kind := dispatch.ExtractProfile
		if extractFlags.related {
			kind = dispatch.ExtractRelated
		}
		result, err := e.dispatcher.Dispatch(cmd.Context(), dispatch.Command{Kind: kind, URL: args[0]})
		if err != nil {
			e.Close()
			serviceutil.Fatal("failed to extract", err)
		}

		if extractFlags.json {
			var value any = result.Profile
			if result.Related != nil && result.Profile == nil {
				value = result.Related
			}
			err = printJSON(value)
			if err != nil {
				slog.Error("failed to print result", "err", err)
			}
		} else if result.Profile != nil {
			renderRecord(result.Profile.Record, result.Profile.Related)
		} else if result.Related != nil {
			renderRelated(*result.Related)
		}
		fmt.Fprintln(os.Stderr, result.Message)
	},
}
