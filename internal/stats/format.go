package stats

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// compactSuffix maps SI prefixes to the short-scale suffixes used on chart axes.
var compactSuffix = map[string]string{
	"M": "M",
	"G": "B",
	"T": "T",
}

// FormatAxisNumber renders v for display: scientific notation below 0.001,
// compact notation (1.23M, 4.5B) from one million up and three significant
// digits with thousands separators in between.
func FormatAxisNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "∞"
	case math.IsInf(v, -1):
		return "-∞"
	case v == 0:
		return "0"
	}

	abs := math.Abs(v)
	if abs < 0.001 {
		return scientific(v)
	}
	if abs >= 1e6 {
		value, prefix := humanize.ComputeSI(v)
		suffix, ok := compactSuffix[prefix]
		if !ok {
			value, suffix = v/1e12, "T"
		}
		return strconv.FormatFloat(roundSignificant(value, 3), 'f', -1, 64) + suffix
	}
	return humanize.Commaf(roundSignificant(v, 3))
}

// roundSignificant rounds v to the given number of significant digits.
func roundSignificant(v float64, digits int) float64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	shift := digits - int(math.Ceil(math.Log10(math.Abs(v))))
	if shift >= 0 {
		pow := math.Pow10(shift)
		return math.Round(v*pow) / pow
	}
	pow := math.Pow10(-shift)
	return math.Round(v/pow) * pow
}

// scientific formats v with two significant digits, e.g. 1.2E-4.
func scientific(v float64) string {
	s := strconv.FormatFloat(v, 'E', 1, 64)
	mantissa, exponent, _ := strings.Cut(s, "E")
	mantissa = strings.TrimSuffix(mantissa, ".0")

	sign := ""
	if strings.HasPrefix(exponent, "-") {
		sign = "-"
	}
	exponent = strings.TrimLeft(exponent, "+-0")
	if exponent == "" {
		exponent = "0"
	}
	return mantissa + "E" + sign + exponent
}
