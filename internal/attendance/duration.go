package attendance

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatDuration renders seconds as zero-padded HH:MM:SS. Hours are not
// wrapped at 24; negative values render as 00:00:00.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

// ParseDuration reads an HH:MM:SS string back into seconds. Anything that is
// not three non-negative integer fields with minutes and seconds below 60,
// or that does not fit in an int64 count of seconds, parses as zero.
func ParseDuration(s string) int64 {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0
	}

	var fields [3]int64
	for i, p := range parts {
		if p == "" || strings.ContainsAny(p, "+-") {
			return 0
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return 0
		}
		fields[i] = v
	}

	h, m, sec := fields[0], fields[1], fields[2]
	if m >= 60 || sec >= 60 {
		return 0
	}
	if h > (math.MaxInt64-m*60-sec)/3600 {
		return 0
	}
	return h*3600 + m*60 + sec
}

// Between is the whole-second span from in to out, both compared as absolute
// instants, formatted as HH:MM:SS.
func Between(in, out time.Time) string {
	return FormatDuration(int64(out.UTC().Sub(in.UTC()) / time.Second))
}
