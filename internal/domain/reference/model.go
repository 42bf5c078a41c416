package reference

import (
	"encoding/json"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
)

type Kind string

const (
	KindContinent Kind = "continent"
	KindCountry   Kind = "country"
	KindLeague    Kind = "league"
	KindTeam      Kind = "team"
	KindPlayer    Kind = "player"
)

var ErrUnknownKind = crerr.New("unknown reference kind")

// Entity is a flat provider reference record used for display names.
type Entity struct {
	Kind      Kind
	ID        int64
	Name      string
	ParentID  int64
	Data      json.RawMessage
	UpdatedAt time.Time
}

func ParseKind(raw string) (Kind, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	value = strings.TrimSuffix(value, "s")
	if value == "countrie" {
		value = "country"
	}
	switch kind := Kind(value); kind {
	case KindContinent, KindCountry, KindLeague, KindTeam, KindPlayer:
		return kind, nil
	}
	return "", crerr.Wrapf(ErrUnknownKind, "%q", raw)
}

// ParentKey names the raw record key holding the parent id.
func (k Kind) ParentKey() string {
	switch k {
	case KindCountry:
		return "continent_id"
	case KindLeague, KindTeam, KindPlayer:
		return "country_id"
	default:
		return ""
	}
}
