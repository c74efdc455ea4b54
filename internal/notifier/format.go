package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ctfbot/internal/ctftime"
	logx "ctfbot/pkg/logx"
)

// Announcements display event times in WIB (UTC+7) regardless of where
// the bot runs. FixedZone is the fallback for hosts without tzdata.
var displayZone = loadDisplayZone()

const (
	displayZoneName   = "Asia/Jakarta"
	displayZoneLabel  = "WIB"
	displayTimeLayout = "02 January 2006 15.04"
)

func loadDisplayZone() *time.Location {
	loc, err := time.LoadLocation(displayZoneName)
	if err != nil {
		return time.FixedZone(displayZoneLabel, 7*60*60)
	}
	return loc
}

func formatEventTime(t time.Time) string {
	return t.In(displayZone).Format(displayTimeLayout) + " " + displayZoneLabel
}

func formatEventDuration(d ctftime.Duration) string {
	return fmt.Sprintf("%d days %d hours", d.Days, d.Hours)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// renderText builds the announcement block for one event. It never
// mutates the event.
func renderText(ev ctftime.Event) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🚩 %s\n\n", ev.Title)
	fmt.Fprintf(&b, "Format: %s\n", ev.Format)
	fmt.Fprintf(&b, "Restrictions: %s\n", ev.Restrictions)
	fmt.Fprintf(&b, "Onsite: %s\n", yesNo(ev.Onsite))
	fmt.Fprintf(&b, "Duration: %s\n", formatEventDuration(ev.Duration))
	fmt.Fprintf(&b, "Start: %s\n", formatEventTime(ev.Start))
	fmt.Fprintf(&b, "Finish: %s\n", formatEventTime(ev.Finish))
	fmt.Fprintf(&b, "Location: %s\n", ev.Location)
	if len(ev.Organizers) > 0 {
		names := make([]string, 0, len(ev.Organizers))
		for _, o := range ev.Organizers {
			if strings.TrimSpace(o.Name) != "" {
				names = append(names, o.Name)
			}
		}
		if len(names) > 0 {
			fmt.Fprintf(&b, "Organizers: %s\n", strings.Join(names, ", "))
		}
	}
	if ev.Weight > 0 {
		fmt.Fprintf(&b, "Rating weight: %.2f\n", ev.Weight)
	}

	fmt.Fprintf(&b, "\nCTFtime: %s\n", ev.CTFTimeURL)
	fmt.Fprintf(&b, "Register: %s\n", ev.URL)

	if desc := strings.TrimSpace(ev.Description); desc != "" {
		b.WriteString("\n")
		b.WriteString(desc)
		b.WriteString("\n")
	}
	return b.String()
}

// render produces the full announcement. The logo fetch is best-effort:
// any failure degrades to a text-only message, it never propagates.
func render(ctx context.Context, log logx.Logger, fetch Fetcher, ev ctftime.Event) Announcement {
	msg := Announcement{Text: renderText(ev)}

	if strings.TrimSpace(ev.Logo) == "" {
		return msg
	}
	img, err := fetch.Logo(ctx, ev.Logo)
	if err != nil {
		log.Warn("logo fetch failed; announcing text-only",
			logx.Int64("event_id", ev.ID), logx.String("logo", ev.Logo), logx.Err(err))
		return msg
	}
	msg.Image = img
	return msg
}
