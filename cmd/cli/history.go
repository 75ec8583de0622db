package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/yourusername/yt-history-go/internal/domain"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Query and manage the download history",
}

// filterQuery collects the filter flags shared by list and export
func filterQuery(cmd *cobra.Command) url.Values {
	q := url.Values{}
	for _, name := range []string{"q", "resolution", "status", "period", "date_from", "date_to"} {
		if value, _ := cmd.Flags().GetString(flagName(name)); value != "" {
			q.Set(name, value)
		}
	}
	return q
}

func flagName(param string) string {
	switch param {
	case "q":
		return "search"
	case "date_from":
		return "from"
	case "date_to":
		return "to"
	default:
		return param
	}
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("search", "q", "", "Title substring")
	cmd.Flags().StringP("resolution", "r", "", "Resolution (e.g. 1080p, audio)")
	cmd.Flags().StringP("status", "s", "", "Status (completed, error, downloading)")
	cmd.Flags().StringP("period", "p", "", "Period (today, week, month, 3months, year, all)")
	cmd.Flags().String("from", "", "Earliest date, YYYY-MM-DD")
	cmd.Flags().String("to", "", "Latest date, YYYY-MM-DD")
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List downloads, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := filterQuery(cmd)
		page, _ := cmd.Flags().GetInt("page")
		perPage, _ := cmd.Flags().GetInt("per-page")
		q.Set("page", strconv.Itoa(page))
		if perPage > 0 {
			q.Set("per_page", strconv.Itoa(perPage))
		}

		var result domain.DownloadPage
		if err := call("GET", "/api/v1/history", q, nil, &result); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tRESOLUTION\tSTATUS\tAVG MBPS\tDATE")
		for _, d := range result.Downloads {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				d.ID,
				truncate(d.Title, 40),
				d.Resolution,
				d.Status,
				formatMbps(d.AvgSpeedMbps),
				d.DownloadDate.Local().Format("2006-01-02 15:04"))
		}
		w.Flush()

		p := result.Pagination
		fmt.Printf("\nPage %d of %d (%d downloads)\n", p.CurrentPage, p.TotalPages, p.TotalCount)
		return nil
	},
}

var historyGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show one download",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var d domain.DownloadRecord
		if err := call("GET", "/api/v1/history/"+args[0], nil, nil, &d); err != nil {
			return err
		}

		fmt.Printf("Download Details:\n")
		fmt.Printf("  ID:         %d\n", d.ID)
		fmt.Printf("  Title:      %s\n", d.Title)
		fmt.Printf("  URL:        %s\n", d.URL)
		fmt.Printf("  Uploader:   %s\n", d.Uploader)
		fmt.Printf("  Resolution: %s\n", d.Resolution)
		fmt.Printf("  Status:     %s\n", d.Status)
		fmt.Printf("  Path:       %s\n", d.DownloadPath)
		fmt.Printf("  Date:       %s\n", d.DownloadDate.Local().Format("2006-01-02 15:04:05"))
		if d.HasBandwidth() {
			fmt.Printf("  Avg speed:  %s Mbps\n", formatMbps(d.AvgSpeedMbps))
			fmt.Printf("  Peak speed: %s Mbps\n", formatMbps(d.PeakSpeedMbps))
		}
		if d.ErrorMessage != "" {
			fmt.Printf("  Error:      %s\n", d.ErrorMessage)
		}
		return nil
	},
}

var historyRemoveCmd = &cobra.Command{
	Use:   "rm [id]",
	Short: "Delete one download from the history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := call("DELETE", "/api/v1/history/"+args[0], nil, nil, nil); err != nil {
			return err
		}
		fmt.Println("Download deleted")
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the whole history",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			fmt.Print("Delete the entire download history? [y/N] ")
			answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if !strings.EqualFold(strings.TrimSpace(answer), "y") {
				fmt.Println("Aborted")
				return nil
			}
		}

		var result struct {
			Removed int64 `json:"removed"`
		}
		if err := call("DELETE", "/api/v1/history", nil, nil, &result); err != nil {
			return err
		}
		fmt.Printf("Removed %d downloads\n", result.Removed)
		return nil
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show history statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		var stats domain.HistoryStats
		if err := call("GET", "/api/v1/history/stats", nil, nil, &stats); err != nil {
			return err
		}

		fmt.Println("History Statistics:")
		fmt.Printf("  Total:       %d\n", stats.Total)
		fmt.Printf("  Completed:   %d\n", stats.Completed)
		fmt.Printf("  Failed:      %d\n", stats.Failed)
		fmt.Printf("  Downloading: %d\n", stats.Downloading)
		fmt.Printf("  Total size:  %.1f MiB\n", float64(stats.TotalSizeBytes)/(1<<20))
		if stats.MostUsedResolution != "" {
			fmt.Printf("  Most used:   %s\n", stats.MostUsedResolution)
		}
		return nil
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export matching downloads as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		var result json.RawMessage
		if err := call("GET", "/api/v1/history/export", filterQuery(cmd), nil, &result); err != nil {
			return err
		}

		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			return printJSON(result)
		}
		if err := os.WriteFile(output, result, 0644); err != nil {
			return err
		}
		fmt.Printf("Exported to %s\n", output)
		return nil
	},
}

var historyBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a copy of the history database",
	RunE: func(cmd *cobra.Command, args []string) error {
		var result struct {
			Path string `json:"path"`
		}
		if err := call("POST", "/api/v1/history/backup", nil, nil, &result); err != nil {
			return err
		}
		fmt.Printf("Backup written to %s\n", result.Path)
		return nil
	},
}

func init() {
	addFilterFlags(historyListCmd)
	historyListCmd.Flags().Int("page", 1, "Page number")
	historyListCmd.Flags().Int("per-page", 0, "Downloads per page (server default when 0)")

	addFilterFlags(historyExportCmd)
	historyExportCmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")

	historyClearCmd.Flags().BoolP("yes", "y", false, "Skip confirmation")

	historyCmd.AddCommand(historyListCmd, historyGetCmd, historyRemoveCmd, historyClearCmd,
		historyStatsCmd, historyExportCmd, historyBackupCmd)
}
