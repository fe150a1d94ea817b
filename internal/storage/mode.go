package storage

// Mode selects the physical storage strategy. The set is closed: exactly
// two strategies exist, both implementing the same capability set, and the
// directory dispatches over the tag exhaustively.
type Mode int

const (
	// ModeSegmented stores each page in an independently mapped block.
	ModeSegmented Mode = iota
	// ModeVirtual slices logical pages out of one reserved address range.
	ModeVirtual
)

func (m Mode) String() string {
	switch m {
	case ModeSegmented:
		return "segmented"
	case ModeVirtual:
		return "virtual"
	default:
		return "unknown"
	}
}
