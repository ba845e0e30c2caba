package commands

import (
	"fmt"
	"os"

	"prospect-sync/internal/dispatch"
	"prospect-sync/lib/serviceutil"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// overrides replace extracted fields before saving, nil means keep.
type overrides struct {
	name        *string
	role        *string
	company     *string
	email       *string
	requestSent *bool
	connected   *bool
	noBrand     bool
}

func (o overrides) apply(extraction *dispatch.Extraction) {
	record := &extraction.Record
	if o.name != nil {
		record.Name = *o.name
	}
	if o.role != nil {
		record.Role = *o.role
	}
	if o.company != nil {
		record.Company = *o.company
	}
	if o.email != nil {
		record.Email = *o.email
	}
	if o.requestSent != nil {
		record.Flags.RequestSent = *o.requestSent
	}
	if o.connected != nil {
		record.Flags.Connected = *o.connected
	}
	if o.noBrand {
		extraction.Related = nil
	}
}

var saveFlags struct {
	static      bool
	name        string
	role        string
	company     string
	email       string
	requestSent bool
	connected   bool
	noBrand     bool
}

func init() {
	flags := saveCmd.Flags()
	flags.BoolVar(&saveFlags.static, "static", false, "Fetch the page over http instead of opening it in the browser.")
	flags.StringVar(&saveFlags.name, "name", "", "Override the extracted name.")
	flags.StringVar(&saveFlags.role, "role", "", "Override the extracted role.")
	flags.StringVar(&saveFlags.company, "company", "", "Override the extracted company.")
	flags.StringVar(&saveFlags.email, "email", "", "Override the extracted email.")
	flags.BoolVar(&saveFlags.requestSent, "request-sent", false, "Override whether a connection request was sent.")
	flags.BoolVar(&saveFlags.connected, "connected", false, "Override whether the connection was accepted.")
	flags.BoolVar(&saveFlags.noBrand, "no-brand", false, "Do not save or link the company page.")
	rootCmd.AddCommand(saveCmd)
}

func overridesFromFlags(flags *pflag.FlagSet) overrides {
	o := overrides{noBrand: saveFlags.noBrand}
	if flags.Changed("name") {
		o.name = &saveFlags.name
	}
	if flags.Changed("role") {
		o.role = &saveFlags.role
	}
	if flags.Changed("company") {
		o.company = &saveFlags.company
	}
	if flags.Changed("email") {
		o.email = &saveFlags.email
	}
	if flags.Changed("request-sent") {
		o.requestSent = &saveFlags.requestSent
	}
	if flags.Changed("connected") {
		o.connected = &saveFlags.connected
	}
	return o
}

var saveCmd = &cobra.Command{
	Use:   "save <url> [--name ...] [--role ...] [--company ...] [--email ...]",
	Short: "Extracts a profile, applies the given overrides and saves it to Airtable.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		e, err := newEnv(ctx, saveFlags.static)
		if err != nil {
			serviceutil.Fatal("failed to initialize", err)
		}
		defer e.Close()

		fatal := func(message string, err error) {
			e.Close()
			serviceutil.Fatal(message, err)
		}

		extracted, err := e.dispatcher.Dispatch(ctx, dispatch.Command{Kind: dispatch.ExtractProfile, URL: args[0]})
		if err != nil {
			fatal("failed to extract", err)
		}
		fmt.Fprintln(os.Stderr, extracted.Message)

		extraction := *extracted.Profile
		overridesFromFlags(cmd.Flags()).apply(&extraction)
		renderRecord(extraction.Record, extraction.Related)

		if extraction.Related != nil {
			fmt.Fprintln(os.Stderr, "Saving brand and prospect to Airtable...")
		} else {
			fmt.Fprintln(os.Stderr, "Saving to Airtable...")
		}
		saved, err := e.dispatcher.Dispatch(ctx, dispatch.Command{
			Kind:    dispatch.SaveRecord,
			Record:  extraction.Record,
			Related: extraction.Related,
		})
		if err != nil {
			fatal("failed to save", err)
		}
		fmt.Fprintln(os.Stderr, saved.Message)
		fmt.Println(saved.Saved.ID)
	},
}
