// Package dates normalizes the wildly inconsistent Date header values found
// in decades-old mail archives into UTC timestamps.
package dates

import (
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/dhcgn/mbox2db/model"
)

var (
	// "+0000.395-508222" and similar garbage glued onto a numeric offset.
	offsetGarbageRe = regexp.MustCompile(`([+-]\d{4})\S+`)
	// "GMT-07:00" and "GMT+0530" style offsets.
	gmtOffsetRe = regexp.MustCompile(`GMT([+-])(\d{2}):?(\d{2})`)
	// "+530" style offsets missing a digit, only at the end of the value.
	threeDigitZoneRe = regexp.MustCompile(`([+-])(\d{3})\s*$`)
	// "9:47:11" style times with an unpadded hour.
	singleDigitHourRe = regexp.MustCompile(`\b(\d):(\d{2}):(\d{2})\b`)
	// ":7" style minutes or seconds.
	singleDigitMinSecRe = regexp.MustCompile(`:(\d)\b`)
)

// zoneReplacer rewrites timezone names to numeric offsets. Long forms are
// listed before their abbreviations so they win. Names not listed here end
// up parsed with offset zero.
var zoneReplacer = strings.NewReplacer(
	"Eastern Daylight Time", "-0400",
	"Eastern Standard Time", "-0500",
	"Central Daylight Time", "-0500",
	"Central Standard Time", "-0600",
	"Mountain Daylight Time", "-0600",
	"Mountain Standard Time", "-0700",
	"Pacific Daylight Time", "-0700",
	"Pacific Standard Time", "-0800",
	" UTC", " +0000",
	" GMT", " +0000",
	" EDT", " -0400",
	" EST", " -0500",
	" CDT", " -0500",
	" CST", " -0600",
	" MDT", " -0600",
	" PDT", " -0700",
	" PST", " -0800",
	" CET", " +0100",
)

// meridiemGlueReplacer splits "10:10:10PM+0200" style values where the
// meridiem got glued between time and offset.
var meridiemGlueReplacer = strings.NewReplacer(
	"PM+", " +",
	"PM-", " -",
	"AM+", " +",
	"AM-", " -",
)

var dayNameReplacer = strings.NewReplacer(
	"Monday", "Mon",
	"Tuesday", "Tue",
	"Wednesday", "Wed",
	"Thursday", "Thu",
	"Thurs,", "Thu,",
	"Friday", "Fri",
	"Saturday", "Sat",
	"Sunday", "Sun",
)

var monthNameReplacer = strings.NewReplacer(
	"January", "Jan",
	"February", "Feb",
	"March", "Mar",
	"April", "Apr",
	"June", "Jun",
	"July", "Jul",
	"August", "Aug",
	"September", "Sep",
	"October", "Oct",
	"November", "Nov",
	"December", "Dec",
)

var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var zonelessLayouts = []string{
	"Mon, 2 Jan 2006 15:04:05",
	"2 Jan 2006 15:04:05",
	"Mon, 2 Jan 06 15:04:05",
	"2 Jan 06 15:04:05",
	"Mon, 2 Jan 2006 15:04",
	"2 Jan 2006 15:04",
}

var twelveHourLayouts = []string{
	"Mon, 2 Jan 2006 3:04:05 PM -0700",
	"Mon, 2 Jan 2006 3:04:05 PM",
	"2 Jan 2006 3:04:05 PM -0700",
	"2 Jan 2006 3:04:05 PM",
	"2 Jan 2006 3:04 PM",
}

var ctimeLayouts = []string{
	"Mon Jan 2 15:04:05 2006",
	"Mon Jan 2 15:04:05 MST 2006",
	"Mon Jan 2 15:04:05 -0700 2006",
}

var monthDayYearLayouts = []string{
	"Jan 2 06",
	"Jan 2 2006",
	"2 Jan 06",
	"2 Jan 2006",
}

var slashLayouts = []string{
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04 PM",
	"1/2/2006 15:04",
	"1/2/2006",
	"1/2/06 15:04:05",
	"1/2/06",
}

// rules are tried in order against the cleaned value. The first match wins,
// so the strict formats come before the loose ones.
var rules = []func(string) (time.Time, bool){
	parseISO,
	parseRFC5322,
	parseWeekdayComma,
	parseZoneless,
	parseTwelveHour,
	parseCtime,
	parseMonthDayYear,
	parseSlash,
}

// Normalize interprets a raw Date header value as a point in time. ISO
// forms are tried on the untouched input first since cleaning could mangle
// their tokens; everything else goes through the repair pass and then the
// rule cascade. An empty result is reported, never invented.
func Normalize(raw string) model.ParsedDate {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return model.ParsedDate{}
	}

	if t, ok := parseISO(trimmed); ok {
		return model.ParsedDate{UTC: t.UTC(), OK: true}
	}

	cleaned := clean(trimmed)
	for _, parse := range rules {
		if t, ok := parse(cleaned); ok {
			return model.ParsedDate{UTC: t.UTC(), OK: true}
		}
	}

	return model.ParsedDate{}
}

// clean repairs the recurring defects seen in archives going back to the
// nineties. Each step is harmless on values that do not exhibit the defect.
func clean(s string) string {
	s = strings.ReplaceAll(s, "--", "-")
	s = strings.ReplaceAll(s, "'", "")
	s = offsetGarbageRe.ReplaceAllString(s, "$1")
	if idx := strings.IndexByte(s, '('); idx >= 0 {
		s = strings.TrimSpace(s[:idx])
	}
	s = gmtOffsetRe.ReplaceAllString(s, "$1$2$3")
	s = zoneReplacer.Replace(s)
	s = threeDigitZoneRe.ReplaceAllString(s, "${1}0$2")
	s = singleDigitHourRe.ReplaceAllString(s, "0$1:$2:$3")
	s = singleDigitMinSecRe.ReplaceAllString(s, ":0$1")
	s = meridiemGlueReplacer.Replace(s)
	s = dayNameReplacer.Replace(s)
	s = monthNameReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func parseLayouts(layouts []string, s string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseISO(s string) (time.Time, bool) {
	return parseLayouts(isoLayouts, s)
}

// parseRFC5322 covers the standard form plus the obsolete variants the
// stdlib accepts, including two-digit years and "-0700 (MST)" trailers.
func parseRFC5322(s string) (time.Time, bool) {
	t, err := mail.ParseDate(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// parseWeekdayComma retries values like "Thu 09 Jun 2005 10:30:00 +0000"
// where the comma after the weekday is missing.
func parseWeekdayComma(s string) (time.Time, bool) {
	first, rest, found := strings.Cut(s, " ")
	if !found || !isWeekday(first) {
		return time.Time{}, false
	}
	return parseRFC5322(first + ", " + rest)
}

func isWeekday(token string) bool {
	switch strings.ToLower(token) {
	case "mon", "tue", "wed", "thu", "fri", "sat", "sun":
		return true
	}
	return false
}

// parseZoneless accepts otherwise well-formed values with no timezone at
// all. They are taken as UTC.
func parseZoneless(s string) (time.Time, bool) {
	return parseLayouts(zonelessLayouts, s)
}

func parseTwelveHour(s string) (time.Time, bool) {
	return parseLayouts(twelveHourLayouts, s)
}

// parseCtime covers "Thu Jun 9 10:30:00 2005", the Unix ctime form some
// old clients wrote into Date headers.
func parseCtime(s string) (time.Time, bool) {
	return parseLayouts(ctimeLayouts, s)
}

func parseMonthDayYear(s string) (time.Time, bool) {
	return parseLayouts(monthDayYearLayouts, s)
}

func parseSlash(s string) (time.Time, bool) {
	return parseLayouts(slashLayouts, s)
}
