package fixture

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/riskibarqy/fixture-insight/internal/domain/payload"
)

const (
	StatusScheduled = "SCHEDULED"
	StatusLive      = "LIVE"
	StatusFinished  = "FINISHED"
	StatusCancelled = "CANCELLED"
	StatusPostponed = "POSTPONED"
)

// Fixture is one provider match. ID is the provider fixture id and the
// store key. Data holds the provider record exactly as received; the
// scalar fields are projections of it.
type Fixture struct {
	ID         int64
	SeasonID   int64
	LeagueID   int64
	CountryID  int64
	Status     string
	HomeTeamID int64
	AwayTeamID int64
	HomeScore  *int
	AwayScore  *int
	MatchDate  *time.Time
	Data       json.RawMessage

	// Payload is written only by synthesis and survives re-ingestion.
	Payload          *payload.Payload
	PayloadUpdatedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	if status == "" {
		return StatusScheduled
	}
	return status
}

