package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// PollOff disables polling.
const PollOff = 0

// PollSchedule triggers a callback at a regular interval.
type PollSchedule struct {
	callback func() tea.Msg
	interval time.Duration
}

// NewPollSchedule creates a stopped PollSchedule.
func NewPollSchedule(callback func() tea.Msg) *PollSchedule {
	return &PollSchedule{
		callback: callback,
	}
}

// Interval returns the current interval, PollOff when stopped.
func (s *PollSchedule) Interval() time.Duration { return s.interval }

// SetSchedule sets the poll interval.
func (s *PollSchedule) SetSchedule(interval time.Duration) tea.Cmd {
	isStarting := s.interval == PollOff && interval != PollOff
	s.interval = interval

	if isStarting {
		return tea.Batch(s.callback, s.tick())
	}
	return nil
}

// Update handles messages for the PollSchedule.
func (s *PollSchedule) Update(msg tea.Msg) tea.Cmd {
	if s.interval == PollOff {
		return nil
	}

	switch msg.(type) {
	case tickMsg:
		return tea.Batch(s.callback, s.tick())
	}
	return nil
}

// internal message to trigger a tick
type tickMsg struct{}

func (s *PollSchedule) tick() tea.Cmd {
	if s.interval == PollOff {
		return nil
	}
	return tea.Tick(s.interval, func(t time.Time) tea.Msg {
		return tickMsg{}
	})
}
