package streaming

import (
	"fmt"
	"regexp"
)

// Default pattern strings, keyed the same way the config file overrides
// them. Tag keys are plain substrings gating a line before any regex runs;
// regex keys end in _regex and are compiled on load.
var defaultPatternStrings = map[string]string{
	"notification_event":       "<SHUDEvent_OnNotification>",
	"notif_id_regex":           `Added notification ".*?" \[([0-9]+)\]`,
	"mission_id_regex":         `MissionId:\s*\[([a-f0-9\-]+)\]`,
	"notif_text_regex":         `Added notification "(.*?)"`,
	"notif_text_relaxed_regex": `Added notification "(.*?)(?:"|$)`,
	"contract_accepted":        "Contract Accepted",
	"contract_accepted_regex":  `Contract Accepted:\s*(.+?)(?::|"|\[|$)`,
	"contract_canceled":        "Contract Canceled",
	"contract_abandoned":       "Contract Abandoned",
	"contract_failed":          "Contract Failed",
	"contract_ended_regex":     `Contract (?:Canceled|Abandoned|Failed):\s*(.+?)(?::|"|\[|$)`,
	"new_objective":            "New Objective",
	"objective_complete":       "Objective Complete",
	"scu_regex":                `(?i)(Deliver|Pickup|Dropoff|Transport|Collect)\s+(\d+)(?:[/\s]+(\d+))?\s+SCU\s+(?:of|de)?\s*([A-Za-z0-9\s\(\)\-\.]+?)\s+(?:to|at|for|towards|para|em|de)\s+([A-Za-z0-9\s\(\)\-\.]+?)(?::|"|\[|<|$)`,
	"ui_scu_regex":             `(?i)(Deliver|Pickup|Dropoff|Transport|Collect)\s+(\d+)[/\s]+(\d+)\s+SCU\s+(?:of|de)?\s*([A-Za-z0-9\s\(\)\-\.]+?)\s+(?:to|at|for|towards|para|em|de)\s+([A-Za-z0-9\s\(\)\-\.]+?)(?::|"|\[|<|$)`,
	"marker_event":             "<CLocalMissionPhaseMarker::CreateMarker>",
	"marker_contract_tag":      "contract [",
	"marker_mission_id_regex":  `missionId \[([a-f0-9\-]+)\]`,
	"marker_contract_regex":    `contract \[([a-zA-Z0-9_]+)\]`,
	"ui_notif_event":           "<UpdateNotificationItem>",
	"ui_notif_tag":             "Notification",
	"ui_notif_id_regex":        `Notification ".*?" \[(\d+)\]`,
	"end_mission_event":        "<EndMission>",
	"end_mission_id_regex":     `MissionId\[([a-f0-9\-]+)\]`,
	"end_mission_type_regex":   `CompletionType\[(.+?)\]`,
	"push_end_event":           "<MissionEnded>",
	"push_mission_id_regex":    `mission_id ([a-f0-9\-]+)`,
	"push_state_regex":         `mission_state MISSION_STATE_([A-Z]+)`,
	"reward_regex":             `Awarded\s+(\d+)\s+aUEC`,
	"identity_regex":           `joined channel '(.+?) : (.+?)'`,
	"location_event":           "<RequestLocationInventory>",
	"location_tag":             "Location[",
	"location_regex":           `Location\[(.*?)\]`,
	"ship_fallback_regex":      `(?i)(ARGO_RAFT|CONSTELLATION|CATERPILLAR|C2_HERCULES|FREELANCER|HULL_[A-E]|DRAKE_CORSAIR)_\d+`,
}

// PatternSet holds the line-matching machinery for one game version and
// language. All regexes are compiled once up front.
type PatternSet struct {
	tags    map[string]string
	regexes map[string]*regexp.Regexp
}

// DefaultPatterns compiles the built-in English pattern set.
func DefaultPatterns() *PatternSet {
	ps, err := NewPatterns(nil)
	if err != nil {
		panic(err)
	}
	return ps
}

// NewPatterns compiles the defaults with the given overrides applied.
// Overriding an unknown key is an error so config typos surface at startup.
func NewPatterns(overrides map[string]string) (*PatternSet, error) {
	merged := make(map[string]string, len(defaultPatternStrings))
	for k, v := range defaultPatternStrings {
		merged[k] = v
	}
	for k, v := range overrides {
		if _, ok := merged[k]; !ok {
			return nil, fmt.Errorf("unknown pattern key %q", k)
		}
		merged[k] = v
	}

	ps := &PatternSet{
		tags:    make(map[string]string),
		regexes: make(map[string]*regexp.Regexp),
	}
	for k, v := range merged {
		if isRegexKey(k) {
			re, err := regexp.Compile(v)
			if err != nil {
				return nil, fmt.Errorf("pattern %q: %w", k, err)
			}
			ps.regexes[k] = re
		} else {
			ps.tags[k] = v
		}
	}
	return ps, nil
}

func isRegexKey(key string) bool {
	return len(key) > 6 && key[len(key)-6:] == "_regex"
}

func (ps *PatternSet) tag(key string) string {
	return ps.tags[key]
}

func (ps *PatternSet) re(key string) *regexp.Regexp {
	return ps.regexes[key]
}
