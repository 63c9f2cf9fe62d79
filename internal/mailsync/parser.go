package mailsync

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ShippingInfo is what a shipping confirmation email parses down to.
type ShippingInfo struct {
	Carrier        string
	TrackingNumber string
	Description    string
	ExpectedDate   *time.Time
}

// AppointmentInfo is what an appointment confirmation email parses down to.
type AppointmentInfo struct {
	Title string
	When  time.Time
}

var (
	upsTracking   = regexp.MustCompile(`\b1Z[0-9A-Z]{16}\b`)
	uspsTracking  = regexp.MustCompile(`\b9[2-5]\d{20,24}\b`)
	fedexTracking = regexp.MustCompile(`\b\d{12}(?:\d{3})?\b`)

	// "arriving Tuesday, March 4", "expected by March 4", "delivery on March 4"
	expectedDate = regexp.MustCompile(`(?i)(?:arriving|arrives|expected|delivery)\s*(?:by|on)?\s*(?:(?:mon|tues|wednes|thurs|fri|satur|sun)day,?\s+)?(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2})`)

	// "on March 4 at 2:30 PM", "on March 4, 2026 at 2:30 PM"
	appointmentWhen = regexp.MustCompile(`(?i)\bon\s+(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2})(?:,\s*(\d{4}))?(?:\s+at\s+(\d{1,2}):(\d{2})\s*(AM|PM))?`)
)

var monthsByName = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// ParseShipping extracts carrier, tracking number, and expected delivery
// date from a shipping email. Reports false when no tracking number is
// found. Month-and-day dates resolve to the next occurrence relative to now.
func ParseShipping(m *Message, now time.Time) (*ShippingInfo, bool) {
	text := m.Subject + "\n" + m.Body

	info := &ShippingInfo{Description: strings.TrimSpace(m.Subject)}
	switch {
	case upsTracking.MatchString(text):
		info.Carrier = "UPS"
		info.TrackingNumber = upsTracking.FindString(text)
	case uspsTracking.MatchString(text):
		info.Carrier = "USPS"
		info.TrackingNumber = uspsTracking.FindString(text)
	case fedexTracking.MatchString(text):
		info.Carrier = "FedEx"
		info.TrackingNumber = fedexTracking.FindString(text)
	default:
		return nil, false
	}

	if match := expectedDate.FindStringSubmatch(text); match != nil {
		if d, ok := resolveDate(match[1], match[2], now); ok {
			info.ExpectedDate = &d
		}
	}
	return info, true
}

// ParseAppointment extracts the appointment time from a confirmation or
// reminder email. Reports false when no date can be found.
func ParseAppointment(m *Message, now time.Time) (*AppointmentInfo, bool) {
	text := m.Subject + "\n" + m.Body

	match := appointmentWhen.FindStringSubmatch(text)
	if match == nil {
		return nil, false
	}

	month, ok := monthsByName[strings.ToLower(match[1])]
	if !ok {
		return nil, false
	}
	day, err := strconv.Atoi(match[2])
	if err != nil || day < 1 || day > 31 {
		return nil, false
	}

	year := now.Year()
	if match[3] != "" {
		if y, err := strconv.Atoi(match[3]); err == nil {
			year = y
		}
	}

	when := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if match[3] == "" && when.Before(startOfDay(now)) {
		when = when.AddDate(1, 0, 0)
	}

	if match[4] != "" {
		hour, _ := strconv.Atoi(match[4])
		minute, _ := strconv.Atoi(match[5])
		if strings.EqualFold(match[6], "PM") && hour < 12 {
			hour += 12
		}
		if strings.EqualFold(match[6], "AM") && hour == 12 {
			hour = 0
		}
		when = when.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	}

	title := strings.TrimSpace(m.Subject)
	if title == "" {
		title = "Appointment"
	}
	return &AppointmentInfo{Title: title, When: when}, true
}

func resolveDate(monthName, dayStr string, now time.Time) (time.Time, bool) {
	month, ok := monthsByName[strings.ToLower(monthName)]
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}

	d := time.Date(now.Year(), month, day, 0, 0, 0, 0, time.UTC)
	// A shipping date far in the past means the email meant next year.
	if d.Before(startOfDay(now).AddDate(0, 0, -7)) {
		d = d.AddDate(1, 0, 0)
	}
	return d, true
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatWhen renders an appointment time the way notifications display it.
func FormatWhen(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 {
		return t.Format("Monday, Jan 2")
	}
	return fmt.Sprintf("%s at %s", t.Format("Monday, Jan 2"), t.Format("3:04 PM"))
}
