package calendar

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	icsDateLayout = "20060102"
	// maxICSLineOctets excludes the CRLF.
	maxICSLineOctets = 75
)

var icsTextEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\r\n", `\n`, "\n", `\n`, "\r", "")

type Format string

const (
	FormatICS Format = "ics"
	FormatCSV Format = "csv"
)

func ParseFormat(s string) (Format, bool) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatICS:
		return FormatICS, true
	case "", FormatCSV:
		return FormatCSV, true
	}
	return "", false
}

func (f Format) ContentType() string {
	if f == FormatICS {
		return "text/calendar; charset=utf-8"
	}
	return "text/csv; charset=utf-8"
}

func (f Format) Filename() string {
	return "leave-calendar." + string(f)
}

// WriteICS renders events as an iCalendar document with all-day VEVENTs.
// DTEND is exclusive in iCalendar, so it is the day after the last leave day.
func WriteICS(w io.Writer, events []Event, stamp time.Time) error {
	var b strings.Builder
	for _, line := range []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Leave Management//Leave Calendar//EN",
		"CALSCALE:GREGORIAN",
	} {
		writeICSLine(&b, line)
	}
	for _, e := range events {
		start, err := time.Parse(dateLayout, e.Start)
		if err != nil {
			return fmt.Errorf("event %d start: %w", e.ID, err)
		}
		end, err := time.Parse(dateLayout, e.End)
		if err != nil {
			return fmt.Errorf("event %d end: %w", e.ID, err)
		}

		writeICSLine(&b, "BEGIN:VEVENT")
		writeICSLine(&b, fmt.Sprintf("UID:leave-%d@leave-management", e.ID))
		writeICSLine(&b, "DTSTAMP:"+stamp.UTC().Format("20060102T150405Z"))
		writeICSLine(&b, "DTSTART;VALUE=DATE:"+start.Format(icsDateLayout))
		writeICSLine(&b, "DTEND;VALUE=DATE:"+end.AddDate(0, 0, 1).Format(icsDateLayout))
		writeICSLine(&b, "SUMMARY:"+escapeICS(e.Title))
		writeICSLine(&b, "CATEGORIES:"+escapeICS(strings.ToUpper(e.LeaveType)))
		writeICSLine(&b, "END:VEVENT")
	}
	writeICSLine(&b, "END:VCALENDAR")

	_, err := io.WriteString(w, b.String())
	return err
}

func WriteCSV(w io.Writer, events []Event) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "employee_id", "title", "leave_type", "start_date", "end_date", "color"}); err != nil {
		return err
	}
	for _, e := range events {
		row := []string{
			strconv.FormatInt(e.ID, 10),
			strconv.FormatInt(e.EmployeeID, 10),
			e.Title,
			e.LeaveType,
			e.Start,
			e.End,
			e.Color,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// writeICSLine folds a content line so no physical line is longer than 75
// octets. Continuation lines start with a space and folds never split a
// UTF-8 sequence.
func writeICSLine(b *strings.Builder, line string) {
	limit := maxICSLineOctets
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
		limit = maxICSLineOctets - 1
	}
	b.WriteString(line)
	b.WriteString("\r\n")
}

// escapeICS escapes TEXT values. Line breaks become \n and stray carriage
// returns are dropped.
func escapeICS(s string) string {
	return icsTextEscaper.Replace(s)
}
