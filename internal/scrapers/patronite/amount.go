package patronite

import (
	"math/big"
	"regexp"
	"strings"
)

const (
	ReasonMissing   = "missing"
	ReasonMalformed = "malformed"
	ReasonOverflow  = "overflow"
)

// <digits>[.<digits>] [tys.|mln] [zł], the fraction separator is always a
// dot, a decimal comma does not match.
var amountRegex = regexp.MustCompile(`^\s*(\d+)(?:\.(\d+))?(?:\s+(tys\.|mln))?(?:\s*zł)?\s*$`)

var multipliers = map[string]int64{
	"":     1,
	"tys.": 1_000,
	"mln":  1_000_000,
}

// the site separates numbers from their suffixes with non breaking spaces
var spaceReplacer = strings.NewReplacer("\u00a0", " ", "\u202f", " ")

func defaultedAmount(reason string) Amount {
	return Amount{Value: 0, Defaulted: true, Reason: reason}
}

// MissingAmount is the value of a stat cell that is not on the card.
func MissingAmount() Amount {
	return defaultedAmount(ReasonMissing)
}

// ParseAmount parses a locale formatted magnitude like "4.23 mln zł" into whole
// units. The decimal value is scaled exactly and truncated toward zero, input
// outside of the grammar is defaulted to 0 instead of failing.
func ParseAmount(text string) Amount {
	groups := amountRegex.FindStringSubmatch(spaceReplacer.Replace(text))
	if groups == nil {
		return defaultedAmount(ReasonMalformed)
	}
	whole, fraction, suffix := groups[1], groups[2], groups[3]

	value, ok := new(big.Int).SetString(whole+fraction, 10)
	if !ok {
		return defaultedAmount(ReasonMalformed)
	}
	value.Mul(value, big.NewInt(multipliers[suffix]))
	if len(fraction) > 0 {
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(len(fraction))), nil)
		value.Quo(value, scale)
	}
	if !value.IsInt64() {
		return defaultedAmount(ReasonOverflow)
	}

	return Amount{Value: value.Int64()}
}
