package usecase

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/fixture-insight/internal/domain/payload"
)

const maxPlayerStats = 5

// Provider stat type ids for lineup details.
const (
	statTypeGoals         = 52
	statTypeAssists       = 79
	statTypeMinutesPlayed = 119
)

type lineupItem struct {
	PlayerName  string         `json:"player_name"`
	DisplayName string         `json:"display_name"`
	Details     []lineupDetail `json:"details"`
}

type lineupDetail struct {
	TypeID int64 `json:"type_id"`
	Type   *struct {
		Code          string `json:"code"`
		DeveloperName string `json:"developer_name"`
	} `json:"type"`
	Data struct {
		Value any `json:"value"`
	} `json:"data"`
}

func (d lineupDetail) kind() int64 {
	if d.TypeID > 0 {
		return d.TypeID
	}
	if d.Type == nil {
		return 0
	}
	switch strings.ToLower(strings.TrimSpace(firstNonEmpty(d.Type.Code, d.Type.DeveloperName))) {
	case "goals":
		return statTypeGoals
	case "assists":
		return statTypeAssists
	case "minutes-played", "minutes_played":
		return statTypeMinutesPlayed
	}
	return 0
}

// playerStatsFromLineups ranks lineup players that carry detail stats by
// goals, then assists, then minutes. Without any it returns the placeholder list.
func playerStatsFromLineups(raw json.RawMessage) []payload.PlayerStat {
	if !isJSONArray(raw) {
		return payload.DefaultPlayerStats()
	}
	var items []lineupItem
	if err := sonic.Unmarshal(raw, &items); err != nil {
		return payload.DefaultPlayerStats()
	}

	out := make([]payload.PlayerStat, 0, len(items))
	for _, item := range items {
		name := firstNonEmpty(item.DisplayName, item.PlayerName)
		if name == "" || len(item.Details) == 0 {
			continue
		}
		stat := payload.PlayerStat{Name: name}
		for _, detail := range item.Details {
			value := int(numeric(detail.Data.Value))
			switch detail.kind() {
			case statTypeGoals:
				stat.RecentGoals = value
			case statTypeAssists:
				stat.Assists = value
			case statTypeMinutesPlayed:
				stat.MinutesPlayed = value
			}
		}
		out = append(out, stat)
	}
	if len(out) == 0 {
		return payload.DefaultPlayerStats()
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RecentGoals != out[j].RecentGoals {
			return out[i].RecentGoals > out[j].RecentGoals
		}
		if out[i].Assists != out[j].Assists {
			return out[i].Assists > out[j].Assists
		}
		return out[i].MinutesPlayed > out[j].MinutesPlayed
	})
	if len(out) > maxPlayerStats {
		out = out[:maxPlayerStats]
	}
	return out
}

type oddItem struct {
	MarketDescription string `json:"market_description"`
	Name              string `json:"name"`
	Label             string `json:"label"`
	Value             any    `json:"value"`
}

// bettingOddsFromRecord groups provider odds as market -> label -> price.
func bettingOddsFromRecord(raw json.RawMessage) map[string]map[string]float64 {
	if !isJSONArray(raw) {
		return payload.DefaultBettingOdds()
	}
	var items []oddItem
	if err := sonic.Unmarshal(raw, &items); err != nil {
		return payload.DefaultBettingOdds()
	}

	out := make(map[string]map[string]float64)
	for _, item := range items {
		market := marketKey(firstNonEmpty(item.MarketDescription, item.Name))
		label := marketKey(item.Label)
		price := numeric(item.Value)
		if market == "" || label == "" || price <= 0 {
			continue
		}
		if out[market] == nil {
			out[market] = make(map[string]float64)
		}
		out[market][label] = price
	}
	if len(out) == 0 {
		return payload.DefaultBettingOdds()
	}
	return out
}

func marketKey(raw string) string {
	fields := strings.Fields(strings.ToLower(raw))
	return strings.Join(fields, "_")
}

func numeric(value any) float64 {
	switch typed := value.(type) {
	case float64:
		return typed
	case int64:
		return float64(typed)
	case int:
		return float64(typed)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0
		}
		return parsed
	case map[string]any:
		for _, key := range []string{"total", "value", "all"} {
			if v, ok := typed[key]; ok {
				return numeric(v)
			}
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
