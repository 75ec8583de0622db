package main

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/yourusername/yt-history-go/internal/domain"
)

var bandwidthCmd = &cobra.Command{
	Use:   "bandwidth",
	Short: "Show download speed statistics",
}

func daysQuery(cmd *cobra.Command) url.Values {
	days, _ := cmd.Flags().GetInt("days")
	return url.Values{"days": {strconv.Itoa(days)}}
}

var bandwidthStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Aggregate speed figures over recent days",
	RunE: func(cmd *cobra.Command, args []string) error {
		var stats domain.BandwidthStatistics
		if err := call("GET", "/api/v1/bandwidth/stats", daysQuery(cmd), nil, &stats); err != nil {
			return err
		}

		fmt.Println("Bandwidth Statistics:")
		fmt.Printf("  Downloads:    %d\n", stats.TotalDownloads)
		fmt.Printf("  Average:      %.2f Mbps\n", stats.AvgSpeedMbps)
		fmt.Printf("  Fastest peak: %.2f Mbps\n", stats.MaxSpeedMbps)
		fmt.Printf("  Slowest avg:  %.2f Mbps\n", stats.MinSpeedMbps)
		fmt.Printf("  Avg duration: %s\n", (time.Duration(stats.AvgDurationSecs) * time.Second).String())
		return nil
	},
}

var bandwidthTrendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Per-day speed figures",
	RunE: func(cmd *cobra.Command, args []string) error {
		var result struct {
			Points []domain.SpeedTrendPoint `json:"points"`
		}
		if err := call("GET", "/api/v1/bandwidth/trend", daysQuery(cmd), nil, &result); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tDOWNLOADS\tAVG MBPS\tPEAK MBPS")
		for _, p := range result.Points {
			fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\n", p.Date, p.DownloadCount, p.AvgSpeedMbps, p.MaxSpeedMbps)
		}
		return w.Flush()
	},
}

var bandwidthSessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Show downloads currently being measured",
	RunE: func(cmd *cobra.Command, args []string) error {
		var result struct {
			Sessions []domain.SessionSnapshot `json:"sessions"`
		}
		if err := call("GET", "/api/v1/bandwidth/sessions", nil, nil, &result); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TOKEN\tSAMPLES\tCURRENT\tAVG\tPEAK\tPROGRESS")
		for _, s := range result.Sessions {
			progress := "-"
			if s.TotalBytes > 0 {
				progress = fmt.Sprintf("%.1f%%", float64(s.DownloadedBytes)/float64(s.TotalBytes)*100)
			}
			fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\t%.2f\t%s\n",
				truncate(s.Token, 8), s.Samples, s.LastSpeedMbps, s.AvgSpeedMbps, s.PeakSpeedMbps, progress)
		}
		return w.Flush()
	},
}

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Show aggregate views of the history",
}

var analyticsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Headline figures for a period",
	RunE: func(cmd *cobra.Command, args []string) error {
		period, _ := cmd.Flags().GetString("period")
		var s domain.AnalyticsSummary
		if err := call("GET", "/api/v1/analytics/summary", url.Values{"period": {period}}, nil, &s); err != nil {
			return err
		}

		fmt.Printf("Analytics (%s):\n", period)
		fmt.Printf("  Downloads:    %d (%d audio, %d video)\n", s.TotalDownloads, s.AudioDownloads, s.VideoDownloads)
		fmt.Printf("  Success rate: %.1f%%\n", s.SuccessRate)
		fmt.Printf("  Channels:     %d\n", s.UniqueChannels)
		fmt.Printf("  Total size:   %.1f MiB\n", float64(s.TotalSizeBytes)/(1<<20))
		return nil
	},
}

var analyticsChannelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "Most downloaded channels",
	RunE: func(cmd *cobra.Command, args []string) error {
		period, _ := cmd.Flags().GetString("period")
		limit, _ := cmd.Flags().GetInt("limit")
		q := url.Values{"period": {period}, "limit": {strconv.Itoa(limit)}}

		var result struct {
			Channels []domain.ChannelCount `json:"channels"`
		}
		if err := call("GET", "/api/v1/analytics/channels", q, nil, &result); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CHANNEL\tDOWNLOADS")
		for _, c := range result.Channels {
			fmt.Fprintf(w, "%s\t%d\n", c.Uploader, c.Count)
		}
		return w.Flush()
	},
}

func init() {
	for _, cmd := range []*cobra.Command{bandwidthStatsCmd, bandwidthTrendCmd} {
		cmd.Flags().IntP("days", "d", 30, "Number of days to cover")
	}
	bandwidthCmd.AddCommand(bandwidthStatsCmd, bandwidthTrendCmd, bandwidthSessionsCmd)

	for _, cmd := range []*cobra.Command{analyticsSummaryCmd, analyticsChannelsCmd} {
		cmd.Flags().StringP("period", "p", "all", "Period (today, week, month, 3months, year, all)")
	}
	analyticsChannelsCmd.Flags().IntP("limit", "n", 10, "Number of channels")
	analyticsCmd.AddCommand(analyticsSummaryCmd, analyticsChannelsCmd)
}
