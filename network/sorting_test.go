package network

import (
	"reflect"
	"testing"
)

func TestSortSnapshots(t *testing.T) {
	tests := []struct {
		name     string
		snaps    []Snapshot
		expected []Snapshot
	}{
		{
			name: "Sort by connected",
			snaps: []Snapshot{
				{Name: "Idle", State: StateDisconnected},
				{Name: "Up", State: StateConnected},
			},
			expected: []Snapshot{
				{Name: "Up", State: StateConnected},
				{Name: "Idle", State: StateDisconnected},
			},
		},
		{
			name: "Wired before wireless",
			snaps: []Snapshot{
				{Name: "Air", Type: TypeWireless, Strength: 100},
				{Name: "Wired", Type: TypeWired, Strength: 100},
			},
			expected: []Snapshot{
				{Name: "Wired", Type: TypeWired, Strength: 100},
				{Name: "Air", Type: TypeWireless, Strength: 100},
			},
		},
		{
			name: "Sort by strength",
			snaps: []Snapshot{
				{Name: "Weak", Type: TypeWireless, Strength: 10},
				{Name: "Strong", Type: TypeWireless, Strength: 90},
			},
			expected: []Snapshot{
				{Name: "Strong", Type: TypeWireless, Strength: 90},
				{Name: "Weak", Type: TypeWireless, Strength: 10},
			},
		},
		{
			name: "Sort by name then id",
			snaps: []Snapshot{
				{Name: "B", ID: "1"},
				{Name: "A", ID: "2"},
				{Name: "A", ID: "1"},
			},
			expected: []Snapshot{
				{Name: "A", ID: "1"},
				{Name: "A", ID: "2"},
				{Name: "B", ID: "1"},
			},
		},
		{
			name: "Complex sort",
			snaps: []Snapshot{
				{Name: "Visible Weak", Type: TypeWireless, Strength: 20},
				{Name: "Home", Type: TypeWireless, Strength: 60, State: StateConnected},
				{Name: "Wired", Type: TypeWired, Strength: 100},
				{Name: "Visible Strong", Type: TypeWireless, Strength: 90},
			},
			expected: []Snapshot{
				{Name: "Home", Type: TypeWireless, Strength: 60, State: StateConnected},
				{Name: "Wired", Type: TypeWired, Strength: 100},
				{Name: "Visible Strong", Type: TypeWireless, Strength: 90},
				{Name: "Visible Weak", Type: TypeWireless, Strength: 20},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SortSnapshots(tt.snaps)
			if !reflect.DeepEqual(tt.snaps, tt.expected) {
				t.Errorf("SortSnapshots() got = %v, want %v", tt.snaps, tt.expected)
			}
		})
	}
}
