package node

import (
	"math"
	"strconv"
	"strings"
)

// FormatFloat prints f in shortest round-trip form, always with a fractional
// part or an exponent: 1 -> "1.0", 0.1 -> "0.1", 1e-5 -> "1e-05",
// 1e16 -> "1e+16".
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// FormatInt prints an integer token.
func FormatInt(i int) string { return strconv.Itoa(i) }

// Round rounds f to the given number of decimal digits using the exact
// binary value of f, ties to even.
func Round(f float64, digits int) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(f, 'f', digits, 64), 64)
	if err != nil {
		return f
	}
	return r
}

func formatVec3(v [3]float64, sep string) string {
	return FormatFloat(v[0]) + sep + FormatFloat(v[1]) + sep + FormatFloat(v[2])
}

func formatIVec3(v [3]int) string {
	return FormatInt(v[0]) + "," + FormatInt(v[1]) + "," + FormatInt(v[2])
}
