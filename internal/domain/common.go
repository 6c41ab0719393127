package domain

import (
	"regexp"
	"strings"
)

// Side represents the direction of a journaled trade. The empty value means the side was not recorded.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// ParseSide normalises a caller-supplied side. Empty input yields the absent side.
func ParseSide(s string) (Side, bool) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return "", true
	case SideLong:
		return SideLong, true
	case SideShort:
		return SideShort, true
	default:
		return "", false
	}
}

var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,20}$`)

// ValidSymbol reports whether s, ignoring surrounding whitespace, is a ticker the journal accepts.
func ValidSymbol(s string) bool {
	return symbolPattern.MatchString(strings.TrimSpace(s))
}

// TradeStatus represents the lifecycle state of a trade.
type TradeStatus string

const (
	StatusOpen   TradeStatus = "open"
	StatusClosed TradeStatus = "closed"
)
