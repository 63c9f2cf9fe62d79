package mailsync

import (
	"testing"
	"time"
)

var parseNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func TestParseShippingUPS(t *testing.T) {
	m := &Message{
		Subject: "Your order has shipped",
		Body:    "Track your package: 1Z999AA10123456784. Arriving Wednesday, March 4.",
	}

	info, ok := ParseShipping(m, parseNow)
	if !ok {
		t.Fatal("expected tracking number to parse")
	}
	if info.Carrier != "UPS" {
		t.Errorf("Carrier = %q, want UPS", info.Carrier)
	}
	if info.TrackingNumber != "1Z999AA10123456784" {
		t.Errorf("TrackingNumber = %q", info.TrackingNumber)
	}
	if info.Description != "Your order has shipped" {
		t.Errorf("Description = %q", info.Description)
	}
	want := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	if info.ExpectedDate == nil || !info.ExpectedDate.Equal(want) {
		t.Errorf("ExpectedDate = %v, want %v", info.ExpectedDate, want)
	}
}

func TestParseShippingCarriers(t *testing.T) {
	cases := []struct {
		body    string
		carrier string
	}{
		{"USPS tracking 9400100000000000000001", "USPS"},
		{"FedEx tracking number 123456789012", "FedEx"},
	}
	for _, tc := range cases {
		info, ok := ParseShipping(&Message{Subject: "Shipped", Body: tc.body}, parseNow)
		if !ok {
			t.Errorf("%q: did not parse", tc.body)
			continue
		}
		if info.Carrier != tc.carrier {
			t.Errorf("%q: Carrier = %q, want %q", tc.body, info.Carrier, tc.carrier)
		}
	}
}

func TestParseShippingNoTracking(t *testing.T) {
	m := &Message{Subject: "Your order confirmation", Body: "Thanks for your order!"}
	if _, ok := ParseShipping(m, parseNow); ok {
		t.Fatal("parsed shipping info from email with no tracking number")
	}
}

func TestParseShippingYearRollover(t *testing.T) {
	// A January date seen in December belongs to next year.
	december := time.Date(2026, 12, 20, 10, 0, 0, 0, time.UTC)
	m := &Message{
		Subject: "Shipped",
		Body:    "1Z999AA10123456784 arriving January 3",
	}
	info, ok := ParseShipping(m, december)
	if !ok {
		t.Fatal("did not parse")
	}
	want := time.Date(2027, 1, 3, 0, 0, 0, 0, time.UTC)
	if info.ExpectedDate == nil || !info.ExpectedDate.Equal(want) {
		t.Errorf("ExpectedDate = %v, want %v", info.ExpectedDate, want)
	}
}

func TestParseAppointmentWithTime(t *testing.T) {
	m := &Message{
		Subject: "Appointment confirmed: Dr. Lee",
		Body:    "Your appointment is on March 4 at 2:30 PM.",
	}

	appt, ok := ParseAppointment(m, parseNow)
	if !ok {
		t.Fatal("expected appointment to parse")
	}
	if appt.Title != "Appointment confirmed: Dr. Lee" {
		t.Errorf("Title = %q", appt.Title)
	}
	want := time.Date(2026, 3, 4, 14, 30, 0, 0, time.UTC)
	if !appt.When.Equal(want) {
		t.Errorf("When = %v, want %v", appt.When, want)
	}
}

func TestParseAppointmentExplicitYear(t *testing.T) {
	m := &Message{
		Subject: "Reminder",
		Body:    "See you on January 15, 2027 at 9:00 AM.",
	}
	appt, ok := ParseAppointment(m, parseNow)
	if !ok {
		t.Fatal("did not parse")
	}
	want := time.Date(2027, 1, 15, 9, 0, 0, 0, time.UTC)
	if !appt.When.Equal(want) {
		t.Errorf("When = %v, want %v", appt.When, want)
	}
}

func TestParseAppointmentDateOnlyRollsForward(t *testing.T) {
	// No year given and the date already passed: next year.
	m := &Message{
		Subject: "Annual checkup",
		Body:    "Scheduled on February 1.",
	}
	appt, ok := ParseAppointment(m, parseNow)
	if !ok {
		t.Fatal("did not parse")
	}
	want := time.Date(2027, 2, 1, 0, 0, 0, 0, time.UTC)
	if !appt.When.Equal(want) {
		t.Errorf("When = %v, want %v", appt.When, want)
	}
}

func TestParseAppointmentNoDate(t *testing.T) {
	m := &Message{Subject: "Appointment", Body: "Please call us to schedule."}
	if _, ok := ParseAppointment(m, parseNow); ok {
		t.Fatal("parsed appointment from email with no date")
	}
}

func TestFormatWhen(t *testing.T) {
	allDay := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	if got := FormatWhen(allDay); got != "Wednesday, Mar 4" {
		t.Errorf("FormatWhen = %q", got)
	}
	timed := time.Date(2026, 3, 4, 14, 30, 0, 0, time.UTC)
	if got := FormatWhen(timed); got != "Wednesday, Mar 4 at 2:30 PM" {
		t.Errorf("FormatWhen = %q", got)
	}
}
