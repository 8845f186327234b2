// Package partition routes collaboration edges to per-interval output sinks by
// publication year.
package partition

import (
	"math"
	"strconv"
	"strings"

	"github.com/collabgraph/collabgraph/internal/errors"
)

const (
	defaultPrefix = "all"
	openStart     = "START"
	openEnd       = "END"
)

// Interval is an inclusive range of publication years. Text is the interval as
// it was written on the command line and names the interval's output file.
type Interval struct {
	Start uint64
	End   uint64
	Text  string
}

// Default returns the interval covering every year.
func Default() Interval {
	return Interval{Start: 0, End: math.MaxUint64}
}

// Contains reports whether year lies in [Start, End].
func (i Interval) Contains(year uint64) bool {
	return year >= i.Start && year <= i.End
}

// FileName returns the name of the interval's output file for base: the interval
// text with '-' replaced by '_' followed by '_' and base, or "all_" and base for
// the default interval.
func (i Interval) FileName(base string) string {
	if i.Text == "" {
		return defaultPrefix + "_" + base
	}
	return strings.ReplaceAll(i.Text, "-", "_") + "_" + base
}

// String renders the bounds, with START and END standing for open bounds.
func (i Interval) String() string {
	start, end := openStart, openEnd
	if i.Start != 0 {
		start = strconv.FormatUint(i.Start, 10)
	}
	if i.End != math.MaxUint64 {
		end = strconv.FormatUint(i.End, 10)
	}
	return start + " - " + end
}

// Parse reads a list of year intervals separated by ':' (',' is accepted too).
// Each item is `start-end` with either bound omissible, or a single year. An
// empty list yields the default interval.
func Parse(list string) ([]Interval, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return []Interval{Default()}, nil
	}

	items := strings.FieldsFunc(list, func(r rune) bool { return r == ':' || r == ',' })
	intervals := make([]Interval, 0, len(items))
	for _, item := range items {
		interval, err := parseInterval(strings.TrimSpace(item))
		if err != nil {
			return nil, err
		}
		intervals = append(intervals, interval)
	}
	if len(intervals) == 0 {
		return nil, errors.Configuration("interval list %q has no interval", list)
	}
	return intervals, nil
}

func parseInterval(item string) (Interval, error) {
	interval := Default()
	interval.Text = item

	startText, endText, ranged := strings.Cut(item, "-")
	if !ranged {
		endText = startText
	}

	var err error
	if startText != "" {
		if interval.Start, err = strconv.ParseUint(startText, 10, 64); err != nil {
			return Interval{}, errors.Configuration("interval %q: invalid start year %q", item, startText)
		}
	}
	if endText != "" {
		if interval.End, err = strconv.ParseUint(endText, 10, 64); err != nil {
			return Interval{}, errors.Configuration("interval %q: invalid end year %q", item, endText)
		}
	}
	if interval.Start > interval.End {
		return Interval{}, errors.Configuration("interval %q: start year after end year", item)
	}
	return interval, nil
}
