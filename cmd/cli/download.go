package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/yourusername/yt-history-go/internal/app"
	"github.com/yourusername/yt-history-go/internal/domain"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Submit and follow downloads",
}

var downloadAddCmd = &cobra.Command{
	Use:   "add [url]",
	Short: "Download a video, audio track or playlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolution, _ := cmd.Flags().GetString("resolution")
		dir, _ := cmd.Flags().GetString("dir")

		var result struct {
			Jobs []app.Job `json:"jobs"`
		}
		payload := map[string]string{"url": args[0], "resolution": resolution, "directory": dir}
		if err := call("POST", "/api/v1/downloads", nil, payload, &result); err != nil {
			return err
		}

		fmt.Printf("Queued %d download(s)\n", len(result.Jobs))
		for _, job := range result.Jobs {
			fmt.Printf("  %s  %s (%s)\n", job.ID, job.URL, job.Resolution)
		}
		return nil
	},
}

var downloadInfoCmd = &cobra.Command{
	Use:   "info [url]",
	Short: "Show metadata and available resolutions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var result struct {
			Info        domain.MediaInfo `json:"info"`
			Resolutions []string         `json:"resolutions"`
		}
		if err := call("GET", "/api/v1/downloads/info", url.Values{"url": {args[0]}}, nil, &result); err != nil {
			return err
		}

		info := result.Info
		fmt.Printf("Title:       %s\n", info.Title)
		fmt.Printf("Uploader:    %s\n", info.Uploader)
		if info.Duration != nil {
			fmt.Printf("Duration:    %.0fs\n", *info.Duration)
		}
		fmt.Printf("Views:       %d\n", info.ViewCount)
		if info.IsPlaylist {
			fmt.Printf("Playlist:    %d entries\n", len(info.EntryURLs))
		}
		fmt.Printf("Resolutions: %s\n", strings.Join(result.Resolutions, ", "))
		return nil
	},
}

var downloadListCmd = &cobra.Command{
	Use:   "list",
	Short: "List download jobs of the running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		var result struct {
			Jobs []app.Job `json:"jobs"`
		}
		if err := call("GET", "/api/v1/downloads", nil, nil, &result); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tURL\tRESOLUTION\tSTATUS\tPROGRESS\tATTEMPTS")
		for _, job := range result.Jobs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f%%\t%d\n",
				truncate(job.ID, 8),
				truncate(job.URL, 40),
				job.Resolution,
				job.Status,
				job.Percent,
				job.Attempts)
		}
		return w.Flush()
	},
}

var downloadStatusCmd = &cobra.Command{
	Use:   "status [id]",
	Short: "Show one download job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var job app.Job
		if err := call("GET", "/api/v1/downloads/"+args[0], nil, nil, &job); err != nil {
			return err
		}

		fmt.Printf("Job Details:\n")
		fmt.Printf("  ID:       %s\n", job.ID)
		fmt.Printf("  URL:      %s\n", job.URL)
		fmt.Printf("  Status:   %s\n", job.Status)
		fmt.Printf("  Progress: %.1f%%\n", job.Percent)
		fmt.Printf("  Attempts: %d\n", job.Attempts)
		if job.FilePath != "" {
			fmt.Printf("  File:     %s\n", job.FilePath)
		}
		if job.Error != "" {
			fmt.Printf("  Error:    %s\n", job.Error)
		}
		return nil
	},
}

var downloadCancelCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Cancel a download",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := call("POST", "/api/v1/downloads/"+args[0]+"/cancel", nil, nil, nil); err != nil {
			return err
		}
		fmt.Println("Download cancelled successfully")
		return nil
	},
}

var downloadRetryCmd = &cobra.Command{
	Use:   "retry [id]",
	Short: "Retry a failed download",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var job app.Job
		if err := call("POST", "/api/v1/downloads/"+args[0]+"/retry", nil, nil, &job); err != nil {
			return err
		}
		fmt.Printf("Download queued for retry as %s\n", job.ID)
		return nil
	},
}

func init() {
	downloadAddCmd.Flags().StringP("resolution", "r", "", "Resolution (e.g. 720p, audio); defaults to the saved setting")
	downloadAddCmd.Flags().StringP("dir", "d", "", "Target directory; defaults to the saved setting")

	downloadCmd.AddCommand(downloadAddCmd, downloadInfoCmd, downloadListCmd,
		downloadStatusCmd, downloadCancelCmd, downloadRetryCmd)
}
