package main

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const (
	serverBinaryName   = "yt-history-server"
	serverBinaryEnv    = "YTHISTORY_SERVER_BIN"
	serverStartTimeout = 10 * time.Second
	serverPollInterval = 200 * time.Millisecond
)

var probeClient = &http.Client{Timeout: time.Second}

// isServerReady reports whether the server answers its readiness probe
func isServerReady() bool {
	resp, err := probeClient.Get(serverURL + "/ready")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// findServerBinary locates the server next to the CLI, then via the
// environment override, then on PATH and in the usual install locations.
func findServerBinary() (string, error) {
	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), serverBinaryName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	if override := os.Getenv(serverBinaryEnv); override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", fmt.Errorf("%s points to %q: %w", serverBinaryEnv, override, err)
		}
		return override, nil
	}

	if p, err := exec.LookPath(serverBinaryName); err == nil {
		return p, nil
	}

	home, _ := os.UserHomeDir()
	for _, p := range []string{
		filepath.Join("/usr/local/bin", serverBinaryName),
		filepath.Join(home, "go", "bin", serverBinaryName),
		filepath.Join(home, ".local", "bin", serverBinaryName),
	} {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%s binary not found (set %s)", serverBinaryName, serverBinaryEnv)
}

// spawnServer starts the server in the foreground of a detached child so the
// server does not daemonise a second time.
func spawnServer() error {
	serverPath, err := findServerBinary()
	if err != nil {
		return err
	}

	args := []string{"-foreground"}
	if configPath != "" {
		args = append(args, "-config", configPath)
	}

	cmd := exec.Command(serverPath, args...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = nil, nil, nil
	detachProcess(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", serverBinaryName, err)
	}
	return cmd.Process.Release()
}

// waitForServer polls the readiness probe until the server answers or the timeout passes
func waitForServer() error {
	deadline := time.Now().Add(serverStartTimeout)
	for time.Now().Before(deadline) {
		if isServerReady() {
			return nil
		}
		time.Sleep(serverPollInterval)
	}
	return fmt.Errorf("server did not become ready within %v", serverStartTimeout)
}

// ensureServerRunning starts the server when nothing answers at serverURL
func ensureServerRunning() error {
	if isServerReady() {
		return nil
	}

	fmt.Fprintln(os.Stderr, "Server not running, starting...")
	if err := spawnServer(); err != nil {
		return err
	}
	if err := waitForServer(); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "Server started")
	return nil
}
