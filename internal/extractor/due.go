package extractor

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	tomorrowAtRe = regexp.MustCompile(`tomorrow at (\d+):?(\d*) ?(am|pm)`)
	todayAtRe    = regexp.MustCompile(`today at (\d+):?(\d*) ?(am|pm)`)
	relativeRe   = regexp.MustCompile(`in (\d+) (hour|minute)s?`)
)

// normalizeDue turns a model-reported due string into a concrete time.
// ISO-8601 input is taken as-is (naive timestamps get the reference
// zone); beyond that only a fixed set of relative phrases is
// recognized. Anything else yields nil and the task stays due-less.
func normalizeDue(raw string, now time.Time) *time.Time {
	trimmed := strings.TrimSpace(raw)
	s := strings.ToLower(trimmed)
	if s == "" || s == "null" {
		return nil
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, trimmed, now.Location()); err == nil {
			return &t
		}
	}

	switch s {
	case "today":
		return at(now, 0, 17, 0)
	case "tonight":
		return at(now, 0, 23, 59)
	case "tomorrow":
		return at(now, 1, 17, 0)
	case "next week":
		return at(now, 7, 17, 0)
	}

	if strings.Contains(s, "this friday") {
		days := (int(time.Friday) - int(now.Weekday()) + 7) % 7
		return at(now, days, 17, 0)
	}

	if m := tomorrowAtRe.FindStringSubmatch(s); m != nil {
		hour, minute := clockFromMatch(m)
		return at(now, 1, hour, minute)
	}
	if m := todayAtRe.FindStringSubmatch(s); m != nil {
		hour, minute := clockFromMatch(m)
		return at(now, 0, hour, minute)
	}
	if m := relativeRe.FindStringSubmatch(s); m != nil {
		amount, _ := strconv.Atoi(m[1])
		var t time.Time
		if m[2] == "hour" {
			t = now.Add(time.Duration(amount) * time.Hour)
		} else {
			t = now.Add(time.Duration(amount) * time.Minute)
		}
		return &t
	}

	return nil
}

// at returns now shifted by days with the clock set to hour:minute.
func at(now time.Time, days, hour, minute int) *time.Time {
	d := now.AddDate(0, 0, days)
	t := time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, now.Location())
	return &t
}

func clockFromMatch(m []string) (hour, minute int) {
	hour, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	switch m[3] {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	return hour, minute
}
