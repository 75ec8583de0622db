package domain

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	bitsPerByte    = 8
	bitsPerMegabit = 1_000_000

	kibibyte = 1024
	mebibyte = 1_048_576
	gibibyte = 1_073_741_824
)

var speedNumberPattern = regexp.MustCompile(`[0-9.]+`)

// SpeedKind tags how a Speed value was reported by the engine
type SpeedKind int

const (
	SpeedUnknown SpeedKind = iota
	SpeedBytesPerSecond
	SpeedText
	SpeedMbps
)

// Speed is one speed indicator as delivered by a download engine:
// a numeric byte rate, a formatted string such as "1.5MiB/s", or an
// already-normalised megabit rate.
type Speed struct {
	Kind  SpeedKind
	Value float64
	Text  string
}

// SpeedFromBytesPerSecond wraps a numeric byte rate
func SpeedFromBytesPerSecond(bps float64) Speed {
	return Speed{Kind: SpeedBytesPerSecond, Value: bps}
}

// SpeedFromText wraps a formatted speed string
func SpeedFromText(text string) Speed {
	return Speed{Kind: SpeedText, Text: text}
}

// SpeedFromMbps wraps a rate already expressed in megabits per second
func SpeedFromMbps(mbps float64) Speed {
	return Speed{Kind: SpeedMbps, Value: mbps}
}

// Mbps converts the speed to megabits per second. Unparseable input yields 0.
func (s Speed) Mbps() float64 {
	switch s.Kind {
	case SpeedBytesPerSecond:
		return BytesPerSecondToMbps(s.Value)
	case SpeedText:
		return ParseSpeedMbps(s.Text)
	case SpeedMbps:
		return s.Value
	default:
		return 0
	}
}

// String renders the speed the way it was reported
func (s Speed) String() string {
	switch s.Kind {
	case SpeedBytesPerSecond:
		return strconv.FormatFloat(s.Value, 'f', -1, 64) + "B/s"
	case SpeedText:
		return s.Text
	case SpeedMbps:
		return strconv.FormatFloat(s.Value, 'f', 2, 64) + "Mbps"
	default:
		return NotAvailable
	}
}

// BytesPerSecondToMbps converts a byte rate to megabits per second
func BytesPerSecondToMbps(bps float64) float64 {
	return bps * bitsPerByte / bitsPerMegabit
}

// ParseSpeedMbps converts a formatted speed such as "1.5MiB/s" to megabits
// per second. The first number in the string is scaled by the first unit
// that matches, most specific first; with no recognised unit the number is
// taken as bytes per second. Empty, "N/A" and unparseable strings yield 0.
func ParseSpeedMbps(text string) float64 {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" || text == strings.ToLower(NotAvailable) {
		return 0
	}

	match := speedNumberPattern.FindString(text)
	if match == "" {
		return 0
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}

	switch {
	case strings.Contains(text, "kib/s") || strings.Contains(text, "kb/s"):
		return BytesPerSecondToMbps(value * kibibyte)
	case strings.Contains(text, "mib/s"):
		return BytesPerSecondToMbps(value * mebibyte)
	case strings.Contains(text, "mb/s"):
		return value * bitsPerByte
	case strings.Contains(text, "gib/s"):
		return BytesPerSecondToMbps(value * gibibyte)
	case strings.Contains(text, "gb/s"):
		return value * bitsPerByte * 1000
	default:
		return BytesPerSecondToMbps(value)
	}
}
