package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/yourusername/yt-history-go/internal/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read and change preferences",
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		var result struct {
			Settings []domain.Setting `json:"settings"`
		}
		if err := call("GET", "/api/v1/settings", nil, nil, &result); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tVALUE\tDESCRIPTION")
		for _, s := range result.Settings {
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.Key, s.Value, s.Description)
		}
		return w.Flush()
	},
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var s domain.Setting
		if err := call("GET", "/api/v1/settings/"+args[0], nil, nil, &s); err != nil {
			return err
		}
		fmt.Println(s.Value)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := call("PUT", "/api/v1/settings/"+args[0], nil, map[string]string{"value": args[1]}, nil); err != nil {
			return err
		}
		fmt.Printf("%s = %s\n", args[0], args[1])
		return nil
	},
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := call("POST", "/api/v1/settings/reset", nil, nil, nil); err != nil {
			return err
		}
		fmt.Println("Settings reset to defaults")
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsListCmd, settingsGetCmd, settingsSetCmd, settingsResetCmd)
}
