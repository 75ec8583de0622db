package infrastructure

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/yt-history-go/internal/domain"
)

func TestFormatSelector(t *testing.T) {
	assert.Equal(t, "bestvideo[height<=720]+bestaudio/best[height<=720]", FormatSelector("720p"))
	assert.Equal(t, "bestvideo[height<=2160]+bestaudio/best[height<=2160]", FormatSelector("2160p"))
	assert.Equal(t, "bestaudio/best", FormatSelector(domain.AudioResolution))
	assert.Equal(t, "bestaudio/best", FormatSelector("Audio"))
	assert.Equal(t, "bestvideo+bestaudio/best", FormatSelector(""))
	assert.Equal(t, "bestvideo+bestaudio/best", FormatSelector("best"))
}

func TestBuildDownloadArgs(t *testing.T) {
	args := BuildDownloadArgs(domain.DownloadRequest{
		URL:        "https://www.youtube.com/watch?v=abc&list=x",
		Resolution: "1080p",
		Directory:  "/tmp/my videos",
	})

	joined := strings.Join(args, "\x00")
	assert.Contains(t, joined, "--newline")
	assert.Contains(t, joined, "download:[progress]%(progress)j")
	assert.Contains(t, joined, "after_move:[file]%(filepath)s")
	assert.Contains(t, joined, "-P\x00/tmp/my videos")
	assert.Contains(t, joined, "-f\x00bestvideo[height<=1080]+bestaudio/best[height<=1080]")
	assert.Equal(t, "https://www.youtube.com/watch?v=abc&list=x", args[len(args)-1])
}

func TestParseMediaInfo_Video(t *testing.T) {
	data := []byte(`{
		"_type": "video",
		"id": "abc",
		"title": "A video",
		"duration": 212.5,
		"uploader": "Someone",
		"thumbnail": "https://i.ytimg.com/vi/abc/hq.jpg",
		"view_count": 1000,
		"like_count": 50,
		"description": "desc",
		"filesize_approx": 1048576.7,
		"formats": [{"height": 720}, {"height": null}, {"height": 1080}, {"height": 720}]
	}`)

	info, err := ParseMediaInfo(data)
	require.NoError(t, err)
	assert.Equal(t, "A video", info.Title)
	require.NotNil(t, info.Duration)
	assert.Equal(t, 212.5, *info.Duration)
	require.NotNil(t, info.FileSize)
	assert.Equal(t, int64(1048576), *info.FileSize)
	assert.Equal(t, []int{720, 1080}, info.Heights)
	assert.Equal(t, []string{"1080p", "720p", domain.AudioResolution}, info.Resolutions())
	assert.False(t, info.IsPlaylist)
}

func TestParseMediaInfo_Playlist(t *testing.T) {
	data := []byte(`{"_type": "playlist", "title": "List", "channel": "Chan",
		"entries": [{"url": "https://youtu.be/1"}, {"webpage_url": "https://youtu.be/2", "url": "2"}, {}]}`)

	info, err := ParseMediaInfo(data)
	require.NoError(t, err)
	assert.True(t, info.IsPlaylist)
	assert.Equal(t, "Chan", info.Uploader)
	assert.Equal(t, []string{"https://youtu.be/1", "https://youtu.be/2"}, info.EntryURLs)
}

func TestParseMediaInfo_Invalid(t *testing.T) {
	_, err := ParseMediaInfo([]byte("not json"))
	assert.Error(t, err)
}

func TestScanEngineOutput(t *testing.T) {
	output := strings.Join([]string{
		"[youtube] abc: Downloading webpage",
		`[progress]{"status": "downloading", "downloaded_bytes": 1024, "total_bytes": 4096, "speed": 125000, "_speed_str": "122.07KiB/s"}`,
		`[progress]{"status": "downloading", "downloaded_bytes": 2048, "total_bytes": 4096, "speed": null, "_speed_str": "2MB/s"}`,
		`[progress]{broken`,
		"[file]/tmp/out/A video [abc].mp4",
	}, "\n")

	var log bytes.Buffer
	var events []domain.ProgressEvent
	var files []string
	err := ScanEngineOutput(strings.NewReader(output), &log,
		func(e domain.ProgressEvent) { events = append(events, e) },
		func(p string) { files = append(files, p) })
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, 1.0, events[0].Speed.Mbps())
	assert.Equal(t, int64(1024), events[0].DownloadedBytes)
	assert.Equal(t, 16.0, events[1].Speed.Mbps())
	assert.Equal(t, []string{"/tmp/out/A video [abc].mp4"}, files)
	assert.Contains(t, log.String(), "Downloading webpage")
	assert.Contains(t, log.String(), "unparseable progress")
}

// writeFakeBinary creates a shell script standing in for yt-dlp
func writeFakeBinary(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script engine stub requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

func TestYTDLPEngine_Download(t *testing.T) {
	outDir := t.TempDir()
	target := filepath.Join(outDir, "clip.mp4")
	binary := writeFakeBinary(t, `
printf 'data' > "`+target+`"
echo '[progress]{"status": "downloading", "downloaded_bytes": 2, "total_bytes": 4, "speed": 250000}'
echo 'some warning' 1>&2
echo '[progress]{"status": "finished", "downloaded_bytes": 4, "total_bytes": 4}'
echo '[file]`+target+`'
`)
	logsDir := t.TempDir()
	engine := NewYTDLPEngine(binary, logsDir, nil)

	var speeds []float64
	var postprocessed []string
	result, err := engine.Download(context.Background(),
		domain.DownloadRequest{URL: "https://youtu.be/abc", Resolution: "720p", Directory: outDir},
		func(e domain.ProgressEvent) { speeds = append(speeds, e.Speed.Mbps()) },
		func(p string) { postprocessed = append(postprocessed, p) })
	require.NoError(t, err)

	assert.Equal(t, target, result.FilePath)
	require.NotNil(t, result.FileSize)
	assert.Equal(t, int64(4), *result.FileSize)
	assert.Equal(t, []float64{2.0, 0}, speeds)
	assert.Equal(t, []string{target}, postprocessed)

	entries, err := os.ReadDir(logsDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	data, err := os.ReadFile(filepath.Join(logsDir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "SUCCESS")
	assert.Contains(t, string(data), "some warning")
}

func TestYTDLPEngine_DownloadFailure(t *testing.T) {
	binary := writeFakeBinary(t, "echo 'ERROR: Video unavailable' 1>&2\nexit 1\n")
	engine := NewYTDLPEngine(binary, t.TempDir(), nil)

	_, err := engine.Download(context.Background(),
		domain.DownloadRequest{URL: "https://youtu.be/gone", Directory: t.TempDir()}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "yt-dlp failed")
}

func TestYTDLPEngine_DownloadWithoutFiles(t *testing.T) {
	binary := writeFakeBinary(t, "exit 0\n")
	engine := NewYTDLPEngine(binary, t.TempDir(), nil)

	_, err := engine.Download(context.Background(),
		domain.DownloadRequest{URL: "https://youtu.be/x", Directory: t.TempDir()}, nil, nil)
	assert.EqualError(t, err, "no files downloaded")
}

func TestYTDLPEngine_DownloadRequiresURL(t *testing.T) {
	engine := NewYTDLPEngine("yt-dlp", t.TempDir(), nil)
	_, err := engine.Download(context.Background(), domain.DownloadRequest{Directory: t.TempDir()}, nil, nil)
	assert.ErrorIs(t, err, domain.ErrURLRequired)
}

func TestYTDLPEngine_Extract(t *testing.T) {
	binary := writeFakeBinary(t, `echo '{"id": "abc", "title": "Fake", "uploader": "U", "formats": [{"height": 480}]}'`+"\n")
	engine := NewYTDLPEngine(binary, t.TempDir(), nil)

	info, err := engine.Extract(context.Background(), "https://youtu.be/abc")
	require.NoError(t, err)
	assert.Equal(t, "Fake", info.Title)
	assert.Equal(t, []int{480}, info.Heights)

	failing := NewYTDLPEngine(writeFakeBinary(t, "echo 'ERROR: nope' 1>&2\nexit 1\n"), t.TempDir(), nil)
	_, err = failing.Extract(context.Background(), "https://youtu.be/abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERROR: nope")
}
