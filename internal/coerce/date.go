package coerce

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrDateFormat is returned for date format strings that cannot be understood.
var ErrDateFormat = errors.New("invalid date format")

// Named date formats.
const (
	FormatISO8601 = "ISO8601"
	FormatRFC3339 = "RFC3339"
	FormatRFC1123 = "RFC1123"
	FormatUnix    = "unix"
)

// DateFormat parses and formats dates in a single representation.
type DateFormat struct {
	source string
	layout string
	unix   bool
	loc    *time.Location
}

// ParseDateFormat compiles a named format, a Go layout or an LDML pattern.
// A pattern containing digits is taken as a Go layout, otherwise as LDML.
func ParseDateFormat(s string) (DateFormat, error) {
	f := DateFormat{source: s, loc: time.UTC}

	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DateFormat{}, fmt.Errorf("%w: empty", ErrDateFormat)
	case "iso8601":
		f.layout = time.RFC3339
		return f, nil
	case "rfc3339":
		f.layout = time.RFC3339Nano
		return f, nil
	case "rfc1123":
		f.layout = time.RFC1123
		return f, nil
	case "unix":
		f.unix = true
		return f, nil
	}

	if strings.ContainsAny(s, "0123456789") {
		f.layout = s
		return f, nil
	}

	layout, err := ldmlToLayout(s)
	if err != nil {
		return DateFormat{}, err
	}

	f.layout = layout

	return f, nil
}

// MustDateFormat is ParseDateFormat for static formats; it panics on error.
func MustDateFormat(s string) DateFormat {
	f, err := ParseDateFormat(s)
	if err != nil {
		panic(err)
	}

	return f
}

// DefaultDateFormats returns the formats used when a mapping configures none:
// ISO 8601 date-time, "yyyy-MM-dd'T'HH:mm:ss'Z'" and "MM/dd/yyyy", all in UTC.
func DefaultDateFormats() []DateFormat {
	return []DateFormat{
		MustDateFormat(FormatISO8601),
		MustDateFormat("yyyy-MM-dd'T'HH:mm:ss'Z'"),
		MustDateFormat("MM/dd/yyyy"),
	}
}

// In returns a copy of f that interprets zone-less input in loc.
func (f DateFormat) In(loc *time.Location) DateFormat {
	if loc != nil {
		f.loc = loc
	}

	return f
}

// String returns the format as it was written.
func (f DateFormat) String() string { return f.source }

// Layout returns the Go layout, or "" for Unix timestamps.
func (f DateFormat) Layout() string { return f.layout }

// IsUnix reports whether the format is Unix seconds.
func (f DateFormat) IsUnix() bool { return f.unix }

// Parse parses s.
func (f DateFormat) Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	if f.unix {
		secs, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("not a unix timestamp: %q", s)
		}

		return unixTime(secs), nil
	}

	loc := f.loc
	if loc == nil {
		loc = time.UTC
	}

	return time.ParseInLocation(f.layout, s, loc)
}

// Format renders t. Unix formats render whole seconds.
func (f DateFormat) Format(t time.Time) string {
	if f.unix {
		return strconv.FormatInt(t.Unix(), 10)
	}

	if f.loc != nil {
		t = t.In(f.loc)
	}

	return t.Format(f.layout)
}

// ParseDate tries each format in order and returns the first successful parse.
func ParseDate(s string, formats []DateFormat) (time.Time, DateFormat, error) {
	if len(formats) == 0 {
		formats = DefaultDateFormats()
	}

	tried := make([]string, 0, len(formats))

	for _, f := range formats {
		t, err := f.Parse(s)
		if err == nil {
			return t, f, nil
		}

		tried = append(tried, f.String())
	}

	return time.Time{}, DateFormat{}, fmt.Errorf("%q matches none of %s", s, strings.Join(tried, ", "))
}

func unixTime(secs float64) time.Time {
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*float64(time.Second))).UTC()
}

var ldmlTokens = map[string]string{
	"yyyy":  "2006",
	"yy":    "06",
	"y":     "2006",
	"MMMM":  "January",
	"MMM":   "Jan",
	"MM":    "01",
	"M":     "1",
	"dd":    "02",
	"d":     "2",
	"EEEE":  "Monday",
	"EEE":   "Mon",
	"E":     "Mon",
	"HH":    "15",
	"H":     "15",
	"hh":    "03",
	"h":     "3",
	"mm":    "04",
	"m":     "4",
	"ss":    "05",
	"s":     "5",
	"S":     "0",
	"SS":    "00",
	"SSS":   "000",
	"SSSS":  "0000",
	"SSSSS": "00000",
	"a":     "PM",
	"Z":     "-0700",
	"ZZ":    "-0700",
	"ZZZ":   "-0700",
	"ZZZZZ": "-07:00",
	"X":     "Z07",
	"XX":    "Z0700",
	"XXX":   "Z07:00",
	"z":     "MST",
	"zzz":   "MST",
}

// ldmlToLayout translates an LDML (Unicode date pattern) string into a Go layout.
func ldmlToLayout(pattern string) (string, error) {
	var sb strings.Builder

	runes := []rune(pattern)

	for i := 0; i < len(runes); {
		r := runes[i]

		switch {
		case r == '\'':
			if i+1 < len(runes) && runes[i+1] == '\'' {
				sb.WriteRune('\'')

				i += 2

				continue
			}

			i++

			closed := false

			for i < len(runes) {
				if runes[i] != '\'' {
					sb.WriteRune(runes[i])
					i++

					continue
				}

				if i+1 < len(runes) && runes[i+1] == '\'' {
					sb.WriteRune('\'')

					i += 2

					continue
				}

				closed = true
				i++

				break
			}

			if !closed {
				return "", fmt.Errorf("%w %q: unterminated quote", ErrDateFormat, pattern)
			}
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			end := i
			for end < len(runes) && runes[end] == r {
				end++
			}

			token := string(runes[i:end])

			layout, ok := ldmlTokens[token]
			if !ok {
				return "", fmt.Errorf("%w %q: unsupported field %q", ErrDateFormat, pattern, token)
			}

			sb.WriteString(layout)

			i = end
		default:
			sb.WriteRune(r)
			i++
		}
	}

	return sb.String(), nil
}
