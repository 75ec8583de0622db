package main

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/yourusername/yt-history-go/pkg/logger"
)

var logsCmd = &cobra.Command{
	Use:   "logs [category]",
	Short: "View server logs (download, bandwidth, error, ytdlp)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category := string(logger.CategoryDownload)
		if len(args) == 1 {
			category = args[0]
		}
		date, _ := cmd.Flags().GetString("date")
		limit, _ := cmd.Flags().GetInt("limit")
		search, _ := cmd.Flags().GetString("search")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		q := url.Values{"limit": {strconv.Itoa(limit)}}
		setIfNotEmpty(q, "date", date)

		path := "/api/v1/logs/" + category
		if search != "" {
			path += "/search"
			q.Set("q", search)
		}

		var result struct {
			Entries []logger.LogEntry `json:"entries"`
		}
		if err := call("GET", path, q, nil, &result); err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(result.Entries)
		}
		for _, e := range result.Entries {
			fmt.Printf("%s %-5s %s", e.Timestamp, e.Level, e.Message)
			for k, v := range e.Fields {
				fmt.Printf(" %s=%v", k, v)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	logsCmd.Flags().String("date", "", "Day to read, YYYY-MM-DD (default today)")
	logsCmd.Flags().IntP("limit", "n", 100, "Number of entries")
	logsCmd.Flags().StringP("search", "q", "", "Only entries containing this text")
	logsCmd.Flags().BoolP("json", "j", false, "Output in JSON format")
}
