package ctftime

import "time"

// Event is one competition record from the CTFtime event feed.
//
// Events are read-only after parsing. ID is the sole dedup key and is
// stable across fetches.
type Event struct {
	ID            int64       `json:"id"`
	CTFID         int64       `json:"ctf_id"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Format        string      `json:"format"`
	FormatID      int         `json:"format_id"`
	Onsite        bool        `json:"onsite"`
	Restrictions  string      `json:"restrictions"`
	Location      string      `json:"location"`
	URL           string      `json:"url"`
	CTFTimeURL    string      `json:"ctftime_url"`
	Logo          string      `json:"logo"`
	LiveFeed      string      `json:"live_feed"`
	Prizes        string      `json:"prizes"`
	Weight        float64     `json:"weight"`
	Participants  int         `json:"participants"`
	Start         time.Time   `json:"start"`
	Finish        time.Time   `json:"finish"`
	Duration      Duration    `json:"duration"`
	Organizers    []Organizer `json:"organizers"`
	PublicVotable bool        `json:"public_votable"`
	IsVotableNow  bool        `json:"is_votable_now"`
}

// Duration is the event length as reported by the feed.
type Duration struct {
	Days  int `json:"days"`
	Hours int `json:"hours"`
}

type Organizer struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
