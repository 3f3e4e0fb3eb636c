package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/watchfire-io/nearby/internal/config"
	"github.com/watchfire-io/nearby/internal/models"
)

const (
	daemonBinary = "nearbyd"

	pollInterval = 100 * time.Millisecond
	startTimeout = 5 * time.Second
	stopTimeout  = 5 * time.Second
)

// daemonArgs are passed to nearbyd when the CLI launches it.
type daemonArgs struct {
	webPort  int // -1 keeps the settings.yaml value
	redisURL string
}

func (a daemonArgs) argv() []string {
	var argv []string
	if a.webPort >= 0 {
		argv = append(argv, "--web-port", strconv.Itoa(a.webPort))
	}
	if a.redisURL != "" {
		argv = append(argv, "--redis-url", a.redisURL)
	}
	return argv
}

// EnsureDaemon makes sure the daemon is running, launching it with default
// arguments if necessary.
func EnsureDaemon() error {
	running, _, err := daemonState()
	if err != nil {
		return err
	}
	if running {
		return nil
	}
	_, err = launchDaemon(daemonArgs{webPort: -1})
	return err
}

// daemonState reports whether nearbyd is alive, clearing a stale daemon.yaml.
func daemonState() (bool, *models.DaemonInfo, error) {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return false, nil, fmt.Errorf("failed to check daemon status: %w", err)
	}
	if !running && info != nil {
		_ = config.RemoveDaemonInfo()
	}
	return running, info, nil
}

// launchDaemon starts nearbyd detached and waits until it has written its
// daemon.yaml.
func launchDaemon(args daemonArgs) (*models.DaemonInfo, error) {
	path, err := findDaemonBinary()
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(path, args.argv()...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start daemon: %w", err)
	}
	// The daemon outlives us; reap it only if it exits early.
	go func() { _ = cmd.Wait() }()

	var info *models.DaemonInfo
	ok := poll(startTimeout, func() bool {
		running, i, err := config.IsDaemonRunning()
		info = i
		return err == nil && running
	})
	if !ok {
		return nil, fmt.Errorf("daemon failed to start within %s", startTimeout)
	}
	return info, nil
}

// poll checks cond every pollInterval until it holds or timeout passes.
func poll(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		time.Sleep(pollInterval)
		if cond() {
			return true
		}
	}
	return false
}

// findDaemonBinary looks on PATH, then next to this executable, then in
// ./build.
func findDaemonBinary() (string, error) {
	if path, err := exec.LookPath(daemonBinary); err == nil {
		return path, nil
	}

	candidates := []string{filepath.Join("build", daemonBinary)}
	if self, err := os.Executable(); err == nil {
		candidates = append([]string{filepath.Join(filepath.Dir(self), daemonBinary)}, candidates...)
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("%s not found. Install or build it first", daemonBinary)
}
