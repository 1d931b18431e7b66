package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shazow/netmgr/internal/config"
	"github.com/shazow/netmgr/internal/qrwifi"
	"github.com/shazow/netmgr/internal/tui"
	"github.com/shazow/netmgr/manager"
	"github.com/shazow/netmgr/network"
)

func runTUI(cfg config.Config, logger *slog.Logger) error {
	session := tui.NewSession(nil)
	a, err := newApp(cfg, logger, session, session)
	if err != nil {
		return err
	}
	a.start(factories(cfg)...)
	defer a.close()

	session.SetBackend(a.manager)
	err = tui.Run(session, tui.Options{
		PollInterval: cfg.Poll.Tick,
		CanManage:    a.manager.CanManageConnections(),
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

func formatConnection(s network.Snapshot) string {
	parts := []string{s.TypeLabel, s.StateLabel}
	if s.Type == network.TypeWireless {
		parts = append(parts, fmt.Sprintf("%d%%", s.Strength), s.EncryptionLabel)
	} else {
		parts = append(parts, fmt.Sprintf("%d Mb/s", s.Speed))
	}
	if s.Address != "" {
		parts = append(parts, s.Address)
	}
	return strings.Join(parts, ", ")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runList(w io.Writer, asJSON bool, m *manager.Manager) error {
	snaps := network.SnapAll(m.Connections())
	if asJSON {
		return writeJSON(w, snaps)
	}
	for _, s := range snaps {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, s.ID, formatConnection(s))
	}
	return nil
}

// findConnection matches an id first, then a unique name.
func findConnection(m *manager.Manager, query string) (network.Connection, error) {
	if c, err := m.Connection(query); err == nil {
		return c, nil
	}
	var found network.Connection
	for _, c := range m.Connections() {
		if c.Name() != query {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%q matches more than one connection, use an id", query)
		}
		found = c
	}
	if found == nil {
		return nil, fmt.Errorf("connection %q: %w", query, network.ErrNotFound)
	}
	return found, nil
}

func runShow(w io.Writer, asJSON bool, query string, m *manager.Manager) error {
	c, err := findConnection(m, query)
	if err != nil {
		return err
	}
	s := network.Snap(c)
	secret, _, err := m.Secret(s.ID)
	if err != nil {
		return fmt.Errorf("failed to get network secret: %w", err)
	}

	if asJSON {
		return writeJSON(w, struct {
			network.Snapshot
			Passphrase string `json:"passphrase,omitempty"`
		}{s, secret})
	}
	fmt.Fprintf(w, "Name: %s\n", s.Name)
	fmt.Fprintf(w, "ID: %s\n", s.ID)
	fmt.Fprintf(w, "Type: %s\n", s.TypeLabel)
	fmt.Fprintf(w, "Interface: %s\n", s.Interface)
	fmt.Fprintf(w, "State: %s\n", s.StateLabel)
	fmt.Fprintf(w, "MAC: %s\n", s.MacAddress)
	if s.Type == network.TypeWireless {
		fmt.Fprintf(w, "Encryption: %s\n", s.EncryptionLabel)
		fmt.Fprintf(w, "Strength: %d%%\n", s.Strength)
		fmt.Fprintf(w, "Passphrase: %s\n", secret)
	}
	fmt.Fprintf(w, "Speed: %d Mb/s\n", s.Speed)
	if s.State == network.StateConnected {
		fmt.Fprintf(w, "Address: %s\n", s.Address)
		fmt.Fprintf(w, "Netmask: %s\n", s.Netmask)
		fmt.Fprintf(w, "Gateway: %s\n", s.Gateway)
	}
	return nil
}

func runConnect(w io.Writer, query, passphrase string, m *manager.Manager) error {
	c, err := findConnection(m, query)
	if err != nil {
		return err
	}
	// A passphrase from the command line answers the prompt once; without
	// one only stored secrets are used.
	var prompter network.Prompter
	if passphrase != "" {
		used := false
		prompter = network.PromptFunc(func(string) (string, bool) {
			if used {
				return "", false
			}
			used = true
			return passphrase, true
		})
	}
	if err := m.Connect(c.ID(), prompter); err != nil {
		if network.IsCancelled(err) {
			return fmt.Errorf("%s needs a passphrase, use --passphrase: %w", c.Name(), err)
		}
		return err
	}
	fmt.Fprintf(w, "Connected to %s\n", c.Name())
	return nil
}

func runForget(w io.Writer, query string, m *manager.Manager) error {
	c, err := findConnection(m, query)
	if err != nil {
		return err
	}
	if err := m.Forget(c.ID()); err != nil {
		return fmt.Errorf("failed to forget connection: %w", err)
	}
	fmt.Fprintf(w, "Forgot %s\n", c.Name())
	return nil
}

func runQR(w io.Writer, query string, m *manager.Manager) error {
	c, err := findConnection(m, query)
	if err != nil {
		return err
	}
	if c.Type() != network.TypeWireless {
		return fmt.Errorf("%s is not a wireless network: %w", c.Name(), network.ErrNotSupported)
	}
	secret, _, err := m.Secret(c.ID())
	if err != nil {
		return fmt.Errorf("failed to get network secret: %w", err)
	}
	ident := network.ParseID(c.ID())
	code, err := qrwifi.Render(ident.ESSID, secret, c.Encryption())
	if err != nil {
		return err
	}
	fmt.Fprint(w, code)
	return nil
}

// runWatch pumps events and prints default connection transitions until
// stop is closed.
func runWatch(w io.Writer, tick time.Duration, m *manager.Manager, stop <-chan struct{}) error {
	t := time.NewTicker(tick)
	defer t.Stop()

	last := m.DefaultConnectionState()
	fmt.Fprintf(w, "%s\t%s\n", last, m.DefaultConnectionName())
	for {
		select {
		case <-stop:
			return nil
		case <-t.C:
		}
		m.PumpNetworkEvents()
		if state := m.DefaultConnectionState(); state != last {
			last = state
			if state == network.StateConnected {
				fmt.Fprintf(w, "%s\t%s\t%s\n", state, m.DefaultConnectionName(), m.DefaultConnectionIP())
			} else {
				fmt.Fprintf(w, "%s\n", state)
			}
		}
	}
}

func runWake(w io.Writer, mac string, m *manager.Manager) error {
	if err := m.SendWakeOnLAN(mac); err != nil {
		if errors.Is(err, network.ErrNotSupported) {
			return fmt.Errorf("wake on lan is not available with this backend: %w", err)
		}
		return err
	}
	fmt.Fprintf(w, "Sent wake on lan to %s\n", mac)
	return nil
}
