package infrastructure

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/yourusername/yt-history-go/internal/domain"
	"github.com/yourusername/yt-history-go/pkg/logger"
	"go.uber.org/zap"
)

const (
	progressPrefix = "[progress]"
	filePrefix     = "[file]"
)

var heightPattern = regexp.MustCompile(`(\d{3,4})`)

// YTDLPEngine implements domain.Engine by running yt-dlp
type YTDLPEngine struct {
	binary      string
	logsDir     string
	eventLogger *logger.MultiLogger
	command     func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewYTDLPEngine creates an engine that runs binary and appends its output
// to the daily engine log in logsDir
func NewYTDLPEngine(binary, logsDir string, eventLogger *logger.MultiLogger) *YTDLPEngine {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &YTDLPEngine{
		binary:      binary,
		logsDir:     logsDir,
		eventLogger: eventLogger,
		command:     exec.CommandContext,
	}
}

// FormatSelector maps a resolution label to a yt-dlp format selector
func FormatSelector(resolution string) string {
	if domain.NormalizeResolution(resolution) == domain.AudioResolution {
		return "bestaudio/best"
	}
	if m := heightPattern.FindString(resolution); m != "" {
		return fmt.Sprintf("bestvideo[height<=%s]+bestaudio/best[height<=%s]", m, m)
	}
	return "bestvideo+bestaudio/best"
}

// BuildDownloadArgs returns the yt-dlp arguments for req.
// exec.Command passes them directly, so no shell quoting is applied.
func BuildDownloadArgs(req domain.DownloadRequest) []string {
	return []string{
		"--newline",
		"--progress",
		"--no-simulate",
		"--progress-template", "download:" + progressPrefix + "%(progress)j",
		"--print", "after_move:" + filePrefix + "%(filepath)s",
		"-f", FormatSelector(req.Resolution),
		"-o", "%(title)s [%(id)s].%(ext)s",
		"-P", req.Directory,
		req.URL,
	}
}

// Extract fetches metadata for url without downloading
func (e *YTDLPEngine) Extract(ctx context.Context, url string) (*domain.MediaInfo, error) {
	args := []string{"-J", "--flat-playlist", "--no-warnings", url}

	var stdout, stderr bytes.Buffer
	cmd := e.command(ctx, e.binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("yt-dlp metadata extraction failed: %s", msg)
	}

	return ParseMediaInfo(stdout.Bytes())
}

// ParseMediaInfo converts yt-dlp's -J output into MediaInfo
func ParseMediaInfo(data []byte) (*domain.MediaInfo, error) {
	var raw struct {
		Type           string   `json:"_type"`
		ID             string   `json:"id"`
		Title          string   `json:"title"`
		Duration       *float64 `json:"duration"`
		Uploader       string   `json:"uploader"`
		Channel        string   `json:"channel"`
		Thumbnail      string   `json:"thumbnail"`
		ViewCount      int64    `json:"view_count"`
		LikeCount      int64    `json:"like_count"`
		Description    string   `json:"description"`
		FileSize       *int64   `json:"filesize"`
		FileSizeApprox *float64 `json:"filesize_approx"`
		Formats        []struct {
			Height *int `json:"height"`
		} `json:"formats"`
		Entries []struct {
			URL        string `json:"url"`
			WebpageURL string `json:"webpage_url"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp metadata: %w", err)
	}

	info := &domain.MediaInfo{
		ID:           raw.ID,
		Title:        raw.Title,
		Duration:     raw.Duration,
		Uploader:     raw.Uploader,
		ThumbnailURL: raw.Thumbnail,
		ViewCount:    raw.ViewCount,
		LikeCount:    raw.LikeCount,
		Description:  raw.Description,
		FileSize:     raw.FileSize,
		IsPlaylist:   raw.Type == "playlist",
	}
	if info.Uploader == "" {
		info.Uploader = raw.Channel
	}
	if info.FileSize == nil && raw.FileSizeApprox != nil {
		size := int64(*raw.FileSizeApprox)
		info.FileSize = &size
	}

	seen := map[int]bool{}
	for _, f := range raw.Formats {
		if f.Height != nil && *f.Height > 0 && !seen[*f.Height] {
			seen[*f.Height] = true
			info.Heights = append(info.Heights, *f.Height)
		}
	}

	for _, entry := range raw.Entries {
		url := entry.WebpageURL
		if url == "" {
			url = entry.URL
		}
		if url != "" {
			info.EntryURLs = append(info.EntryURLs, url)
		}
	}

	return info, nil
}

// Download runs yt-dlp for req, forwarding progress lines to onProgress
// and final file paths to onPostprocess
func (e *YTDLPEngine) Download(ctx context.Context, req domain.DownloadRequest, onProgress domain.ProgressFunc, onPostprocess domain.PostprocessFunc) (*domain.DownloadResult, error) {
	if strings.TrimSpace(req.URL) == "" {
		return nil, domain.ErrURLRequired
	}
	if err := os.MkdirAll(req.Directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}
	if onProgress == nil {
		onProgress = func(domain.ProgressEvent) {}
	}

	downloadLog, err := e.openLogFile()
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer downloadLog.Close()

	args := BuildDownloadArgs(req)
	writeLogHeader(downloadLog, req.URL, ShellCommandLine(e.binary, args...))

	// stdout and stderr share one pipe, like cmd 2>&1
	pr, pw := io.Pipe()
	cmd := e.command(ctx, e.binary, args...)
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		writeLogFooter(downloadLog, false, fmt.Sprintf("failed to start yt-dlp: %v", err))
		return nil, fmt.Errorf("failed to start yt-dlp: %w", err)
	}

	var files []string
	scanDone := make(chan error, 1)
	go func() {
		err := ScanEngineOutput(pr, downloadLog, onProgress, func(path string) {
			files = append(files, path)
			if onPostprocess != nil {
				onPostprocess(path)
			}
		})
		// Keep the pipe drained so the process can exit
		io.Copy(io.Discard, pr)
		scanDone <- err
	}()

	waitErr := cmd.Wait()
	pw.Close()
	scanErr := <-scanDone

	if waitErr != nil {
		writeLogFooter(downloadLog, false, fmt.Sprintf("yt-dlp failed: %v", waitErr))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("yt-dlp failed: %w", waitErr)
	}
	if scanErr != nil {
		writeLogFooter(downloadLog, false, fmt.Sprintf("reading yt-dlp output: %v", scanErr))
		return nil, fmt.Errorf("reading yt-dlp output: %w", scanErr)
	}
	if len(files) == 0 {
		writeLogFooter(downloadLog, false, "No files downloaded")
		return nil, errors.New("no files downloaded")
	}

	result := &domain.DownloadResult{FilePath: files[len(files)-1]}
	if stat, err := os.Stat(result.FilePath); err == nil {
		size := stat.Size()
		result.FileSize = &size
	} else if e.eventLogger != nil {
		e.eventLogger.LogAppError("Downloaded file not found", zap.String("path", result.FilePath), zap.Error(err))
	}

	writeLogFooter(downloadLog, true, fmt.Sprintf("Downloaded: %s", result.FilePath))
	return result, nil
}

// ScanEngineOutput copies engine output to log and dispatches progress and
// file lines. Unparseable progress lines are logged and skipped.
func ScanEngineOutput(r io.Reader, log io.Writer, onProgress domain.ProgressFunc, onFile func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, progressPrefix):
			payload := map[string]interface{}{}
			decoder := json.NewDecoder(strings.NewReader(strings.TrimPrefix(line, progressPrefix)))
			decoder.UseNumber()
			if err := decoder.Decode(&payload); err != nil {
				fmt.Fprintf(log, "unparseable progress: %s\n", line)
				continue
			}
			onProgress(domain.ProgressFromMap(payload))
		case strings.HasPrefix(line, filePrefix):
			path := strings.TrimSpace(strings.TrimPrefix(line, filePrefix))
			fmt.Fprintln(log, "file: "+path)
			if path != "" && onFile != nil {
				onFile(path)
			}
		default:
			fmt.Fprintln(log, line)
		}
	}
	return scanner.Err()
}

// openLogFile opens today's engine log; all engine output goes to this file
func (e *YTDLPEngine) openLogFile() (*os.File, error) {
	if err := os.MkdirAll(e.logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}
	path := logger.CategoryLogPath(e.logsDir, logger.CategoryEngine, time.Now().Format("20060102"))
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

func writeLogHeader(w io.Writer, url, cmdLine string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(w, "\n=== [%s] Download: %s ===\n", timestamp, url)
	fmt.Fprintf(w, "$ %s\n", cmdLine)
}

func writeLogFooter(w io.Writer, success bool, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, status, message)
	fmt.Fprint(w, "=== END ===\n\n")
}
