package ifupdown

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/shazow/netmgr/network"
)

// CommandRunner runs an external program to completion.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %v: %w: %s", name, args, err, out)
	}
	return nil
}

// File is an interfaces file on disk together with the commands used to
// apply changes to it.
type File struct {
	Path   string
	IfDown string
	IfUp   string
	Runner CommandRunner
	Logger *slog.Logger
}

// NewFile returns a File for path using /sbin/ifdown and /sbin/ifup.
func NewFile(path string, logger *slog.Logger) *File {
	if path == "" {
		path = DefaultPath
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &File{
		Path:   path,
		IfDown: "/sbin/ifdown",
		IfUp:   "/sbin/ifup",
		Runner: ExecRunner{},
		Logger: logger,
	}
}

// Read returns the current configuration of iface.
func (f *File) Read(iface string) (network.IPConfig, error) {
	src, err := os.ReadFile(f.Path)
	if err != nil {
		return network.IPConfig{}, fmt.Errorf("read %s: %w", f.Path, err)
	}
	cfg, ok := Read(src, iface)
	if !ok {
		return cfg, fmt.Errorf("no stanza for %s in %s: %w", iface, f.Path, network.ErrNotFound)
	}
	return cfg, nil
}

// Apply rewrites the file for cfg, atomically replaces it, then cycles the
// interfaces: every declared interface is brought down and the target is
// brought up.
func (f *File) Apply(ctx context.Context, cfg network.IPConfig, typ network.ConnectionType) error {
	info, err := os.Stat(f.Path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", f.Path, err)
	}
	src, err := os.ReadFile(f.Path)
	if err != nil {
		return fmt.Errorf("read %s: %w", f.Path, err)
	}

	out, ifaces := Rewrite(src, cfg, typ)

	tmp := f.Path + ".temp"
	if err := os.WriteFile(tmp, out, info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", f.Path, err)
	}
	f.Logger.Debug("interfaces file rewritten", "path", f.Path, "interface", cfg.Interface)

	for _, iface := range ifaces {
		if err := f.Runner.Run(ctx, f.IfDown, iface); err != nil {
			f.Logger.Warn("ifdown failed", "interface", iface, "error", err)
		}
	}
	if err := f.Runner.Run(ctx, f.IfUp, cfg.Interface); err != nil {
		return fmt.Errorf("bring up %s: %w", cfg.Interface, err)
	}
	return nil
}
