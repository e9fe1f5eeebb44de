package loadgen

import (
	"time"

	service "github.com/okian/tourney/internal/app"
	"github.com/okian/tourney/internal/domain/model"
	"github.com/okian/tourney/internal/domain/tiebreak"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Events     int           // Number of events in the season
	Players    int           // Number of players on the roster
	Categories []string      // Categories handed out to players
	Workers    int           // Number of concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	Wait       time.Duration // How long to wait for results to be computed
	Seed       uint64        // Generator seed; 0 picks one from the clock
	OutputFile string        // Where to save the generated season
	Verbose    bool          // Log every failed request
}

// Season is a generated roster and the classifications of its events.
type Season struct {
	Roster []model.RosterEntry         `json:"roster"`
	Events []service.Classification    `json:"events"`
	Cards  map[string][]tiebreak.Entry `json:"cards"`
}

// ackResponse is the body of POST /events/{id}/classification.
type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds run statistics.
type Stats struct {
	EventsGenerated    int
	EventsSubmitted    int
	EventsSuccessful   int
	EventsDuplicate    int
	EventsFailed       int
	EventsComputed     int
	CategoriesVerified int
	RoundsRecorded     int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
