package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/shazow/netmgr/internal/config"
	netlog "github.com/shazow/netmgr/internal/log"
	"github.com/shazow/netmgr/internal/tui"
	"github.com/shazow/netmgr/manager"
)

var (
	// Version is the version of the application. It is set at build time.
	Version string = "dev"
)

// main is the entry point of the application
func main() {
	var (
		rootFlagSet = flag.NewFlagSet("netmgr", flag.ExitOnError)
		configPath  = rootFlagSet.String("config", "", "path to config file, toml or yaml (env: NETMGR_CONFIG)")
		theme       = rootFlagSet.String("theme", "", "path to theme toml file (env: NETMGR_THEME)")
		logFile     = rootFlagSet.String("log-file", "", "write logs to this file (env: NETMGR_LOG_FILE)")
		debug       = rootFlagSet.Bool("debug", false, "log debug messages")
		version     = rootFlagSet.Bool("version", false, "display version")
	)

	var (
		cfg    config.Config
		logger *slog.Logger
	)

	// withManager runs fn against an initialized manager. Dependent services
	// only run for the long-lived commands.
	withManager := func(withServices bool, fn func(m *manager.Manager) error) error {
		c := cfg
		if !withServices {
			c.Services = nil
			c.MetricsListen = ""
		}
		a, err := newApp(c, logger, nil, nil)
		if err != nil {
			return err
		}
		a.start(factories(c)...)
		defer a.close()
		a.manager.PumpNetworkEvents()
		return fn(a.manager)
	}

	listFlagSet := flag.NewFlagSet("list", flag.ExitOnError)
	listJSON := listFlagSet.Bool("json", false, "output in JSON format")
	listCmd := &ffcli.Command{
		Name:      "list",
		ShortHelp: "List connections",
		FlagSet:   listFlagSet,
		Exec: func(ctx context.Context, args []string) error {
			return withManager(false, func(m *manager.Manager) error {
				return runList(os.Stdout, *listJSON, m)
			})
		},
	}

	showFlagSet := flag.NewFlagSet("show", flag.ExitOnError)
	showJSON := showFlagSet.Bool("json", false, "output in JSON format")
	showCmd := &ffcli.Command{
		Name:       "show",
		ShortUsage: "netmgr show <id|name>",
		ShortHelp:  "Show a connection",
		FlagSet:    showFlagSet,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("show requires a connection id or name")
			}
			return withManager(false, func(m *manager.Manager) error {
				return runShow(os.Stdout, *showJSON, args[0], m)
			})
		},
	}

	connectFlagSet := flag.NewFlagSet("connect", flag.ExitOnError)
	connectPassphrase := connectFlagSet.String("passphrase", "", "passphrase for the network")
	connectCmd := &ffcli.Command{
		Name:       "connect",
		ShortUsage: "netmgr connect [--passphrase=...] <id|name>",
		ShortHelp:  "Connect to a network",
		FlagSet:    connectFlagSet,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("connect requires a connection id or name")
			}
			return withManager(false, func(m *manager.Manager) error {
				return runConnect(os.Stdout, args[0], *connectPassphrase, m)
			})
		},
	}

	forgetCmd := &ffcli.Command{
		Name:       "forget",
		ShortUsage: "netmgr forget <id|name>",
		ShortHelp:  "Forget the stored passphrase of a network",
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("forget requires a connection id or name")
			}
			return withManager(false, func(m *manager.Manager) error {
				return runForget(os.Stdout, args[0], m)
			})
		},
	}

	qrCmd := &ffcli.Command{
		Name:       "qr",
		ShortUsage: "netmgr qr <id|name>",
		ShortHelp:  "Print a QR code for joining a wireless network",
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("qr requires a connection id or name")
			}
			return withManager(false, func(m *manager.Manager) error {
				return runQR(os.Stdout, args[0], m)
			})
		},
	}

	watchCmd := &ffcli.Command{
		Name:      "watch",
		ShortHelp: "Track connectivity and run the configured services without the UI",
		Exec: func(ctx context.Context, args []string) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withManager(true, func(m *manager.Manager) error {
				return runWatch(os.Stdout, cfg.Poll.Tick, m, ctx.Done())
			})
		},
	}

	wakeCmd := &ffcli.Command{
		Name:       "wake",
		ShortUsage: "netmgr wake <mac>",
		ShortHelp:  "Send a wake on lan packet",
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("wake requires a hardware address")
			}
			return withManager(false, func(m *manager.Manager) error {
				return runWake(os.Stdout, args[0], m)
			})
		},
	}

	tuiCmd := &ffcli.Command{
		Name:      "tui",
		ShortHelp: "Run the interactive connections view (default)",
		Exec: func(ctx context.Context, args []string) error {
			return runTUI(cfg, logger)
		},
	}

	root := &ffcli.Command{
		ShortUsage:  "netmgr [flags] <subcommand> [args...]",
		FlagSet:     rootFlagSet,
		Subcommands: []*ffcli.Command{tuiCmd, listCmd, showCmd, connectCmd, forgetCmd, qrCmd, watchCmd, wakeCmd},
		Options:     []ff.Option{ff.WithEnvVarPrefix("NETMGR")},
		Exec: func(ctx context.Context, args []string) error {
			return runTUI(cfg, logger)
		},
	}

	// Parse the root flags first so the theme, config and logger are ready
	// before any subcommand runs. root.Run parses them again.
	err := ff.Parse(rootFlagSet, os.Args[1:],
		ff.WithEnvVarPrefix("NETMGR"),
		ff.WithIgnoreUndefined(true),
	)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			root.FlagSet.Usage()
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if *version {
		fmt.Println(Version)
		os.Exit(0)
	}

	if err := tui.LoadTheme(*theme); err != nil {
		fmt.Fprintf(os.Stderr, "error loading theme: %v\n", err)
		os.Exit(1)
	}

	cfg, err = config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	handler, closer, err := openLog(*logFile, *debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	logger = netlog.Init(handler)

	err = root.ParseAndRun(context.Background(), os.Args[1:])
	closer.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// openLog sends records to stderr at warn level when no log file is set and
// a subcommand other than the UI owns the terminal.
func openLog(path string, debug bool) (slog.Handler, io.Closer, error) {
	if path == "" && isCLI(os.Args[1:]) {
		level := slog.LevelWarn
		if debug {
			level = slog.LevelDebug
		}
		return slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}), io.NopCloser(nil), nil
	}
	return netlog.Open(path, debug)
}

// isCLI reports whether args name a subcommand other than tui.
func isCLI(args []string) bool {
	valued := map[string]bool{"config": true, "theme": true, "log-file": true}
	for i := 0; i < len(args); i++ {
		a := args[i]
		if !strings.HasPrefix(a, "-") {
			return a != "tui"
		}
		name := strings.TrimLeft(a, "-")
		if valued[name] {
			i++ // skip the flag's value
		}
	}
	return false
}
