package join

import (
	"fmt"
	"strings"
)

// Strategy selects the algorithm used to compute a left join
type Strategy int

const (
	StrategyNaive  Strategy = iota // Nested loop over both tables
	StrategyHashed                 // Index the right table, then probe it per left row
)

// String returns the string representation of the strategy
func (s Strategy) String() string {
	switch s {
	case StrategyNaive:
		return "naive"
	case StrategyHashed:
		return "hashed"
	default:
		return "unknown"
	}
}

// ParseStrategy maps a strategy name, as printed by String, back to a Strategy
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "naive":
		return StrategyNaive, nil
	case "hashed", "hash", "":
		return StrategyHashed, nil
	default:
		return 0, fmt.Errorf("unknown join strategy: %q (want naive or hashed)", name)
	}
}
