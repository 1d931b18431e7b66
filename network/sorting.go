package network

import "sort"

// SortSnapshots sorts a slice of Snapshot structs in place.
// The sorting order is:
// 1. Connected first.
// 2. Wired before wireless.
// 3. Strongest signal first.
// 4. Fallback to name, then identifier.
func SortSnapshots(snaps []Snapshot) {
	sort.SliceStable(snaps, func(i, j int) bool {
		a := snaps[i]
		b := snaps[j]

		aConnected := a.State == StateConnected
		bConnected := b.State == StateConnected
		if aConnected != bConnected {
			return aConnected
		}

		if a.Type != b.Type {
			return a.Type == TypeWired
		}

		if a.Strength != b.Strength {
			return a.Strength > b.Strength
		}

		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}
