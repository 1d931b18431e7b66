package services

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const commandTimeout = 30 * time.Second

// Command starts and stops a service by running shell-free commands, for
// example "systemctl start systemd-timesyncd".
type Command struct {
	ServiceName string
	StartArgs   []string
	StopArgs    []string

	logger   *slog.Logger
	mu       sync.Mutex
	stopping *exec.Cmd
	cancel   context.CancelFunc
}

// NewCommand splits start and stop on whitespace. An empty stop command
// makes Stop a no-op.
func NewCommand(name, start, stop string, logger *slog.Logger) *Command {
	if logger == nil {
		logger = slog.Default()
	}
	return &Command{
		ServiceName: name,
		StartArgs:   strings.Fields(start),
		StopArgs:    strings.Fields(stop),
		logger:      logger.With("service", name),
	}
}

func (c *Command) Name() string { return c.ServiceName }

func (c *Command) Start() error {
	if len(c.StartArgs) == 0 {
		return fmt.Errorf("%s: no start command", c.ServiceName)
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, c.StartArgs[0], c.StartArgs[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", strings.Join(c.StartArgs, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Stop launches the stop command on the first pass and reaps it on the
// second. Stop(true) alone both launches and waits.
func (c *Command) Stop(wait bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopping == nil {
		c.launchStop()
	}
	if !wait || c.stopping == nil {
		return
	}
	if err := c.stopping.Wait(); err != nil {
		c.logger.Warn("stop command failed", "error", err)
	}
	c.cancel()
	c.stopping, c.cancel = nil, nil
}

func (c *Command) launchStop() {
	if len(c.StopArgs) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	cmd := exec.CommandContext(ctx, c.StopArgs[0], c.StopArgs[1:]...)
	if err := cmd.Start(); err != nil {
		cancel()
		c.logger.Warn("failed to run stop command", "error", err)
		return
	}
	c.stopping, c.cancel = cmd, cancel
}
