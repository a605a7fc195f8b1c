package streaming

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"haulmon/internal/locations"
	"haulmon/internal/log"
)

// firstGroup returns the first capture group of the first match, or "".
func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

// Pickup-style verbs. Everything else on the objective regex is a delivery.
var pickupActions = map[string]bool{
	"COLLECT":  true,
	"PICKUP":   true,
	"RETRIEVE": true,
	"COLETAR":  true,
	"PEGAR":    true,
}

// Classifier turns raw log lines into normalized events. It keeps the
// notification id set so a fact re-emitted through a second surface
// (StartFade, Remove, the UI mirror of a native notification) is classified
// exactly once.
type Classifier struct {
	patterns *PatternSet
	seenIDs  map[string]bool
	now      func() time.Time
}

// NewClassifier creates a classifier over the given pattern set.
func NewClassifier(patterns *PatternSet) *Classifier {
	return &Classifier{
		patterns: patterns,
		seenIDs:  make(map[string]bool),
		now:      time.Now,
	}
}

// Classify extracts every event carried by one log line. Most lines yield
// nothing; a notification line yields at most one mission event plus any
// identity or location facts riding on it.
func (c *Classifier) Classify(line string) []Event {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	var events []Event

	switch {
	case strings.Contains(line, c.patterns.tag("notification_event")):
		events = append(events, c.classifyNotification(line)...)
	case strings.Contains(line, c.patterns.tag("ui_notif_event")) &&
		strings.Contains(line, c.patterns.tag("ui_notif_tag")):
		events = append(events, c.classifyUINotification(line)...)
	default:
		events = append(events, c.classifyBareMissionLine(line)...)
	}

	if strings.Contains(line, c.patterns.tag("marker_event")) &&
		strings.Contains(line, c.patterns.tag("marker_contract_tag")) {
		events = append(events, c.classifyMarker(line)...)
	}
	events = append(events, c.classifyMissionEnd(line)...)
	events = append(events, c.classifyReward(line)...)
	events = append(events, c.classifyIdentity(line)...)
	events = append(events, c.classifyLocation(line)...)
	return events
}

// classifyNotification handles the backend notification surface, the one
// that carries real mission UUIDs.
func (c *Classifier) classifyNotification(line string) []Event {
	if id := firstGroup(c.patterns.re("notif_id_regex"), line); id != "" {
		if c.seenIDs[id] {
			return nil
		}
		c.seenIDs[id] = true
	}

	missionID := firstGroup(c.patterns.re("mission_id_regex"), line)
	text := firstGroup(c.patterns.re("notif_text_regex"), line)
	if text == "" {
		text = firstGroup(c.patterns.re("notif_text_relaxed_regex"), line)
	}
	if text == "" {
		return nil
	}

	switch {
	case strings.Contains(text, c.patterns.tag("contract_accepted")):
		if missionID == "" {
			return nil
		}
		return []Event{{
			Kind:      EventContractAccepted,
			Dialect:   DialectNative,
			MissionID: missionID,
			Title:     c.contractTitle(text),
		}}

	case strings.Contains(text, c.patterns.tag("contract_canceled")),
		strings.Contains(text, c.patterns.tag("contract_abandoned")),
		strings.Contains(text, c.patterns.tag("contract_failed")):
		return []Event{{
			Kind:      EventContractEnded,
			Dialect:   DialectNative,
			MissionID: missionID,
			Title:     strings.TrimSpace(firstGroup(c.patterns.re("contract_ended_regex"), text)),
			Outcome:   OutcomeAbandon,
		}}

	case strings.Contains(text, c.patterns.tag("new_objective")),
		strings.Contains(text, c.patterns.tag("objective_complete")):
		ev, ok := c.parseObjective(text, c.patterns.re("scu_regex"), missionID, DialectNative)
		if !ok {
			log.Warn("objective text did not parse", "text", text)
			return nil
		}
		return []Event{ev}
	}
	return nil
}

// classifyUINotification handles the on-screen notification mirror. It has
// no mission UUIDs, so accepted contracts get a synthesized id and
// objectives are left for the reconciler to route.
func (c *Classifier) classifyUINotification(line string) []Event {
	if id := firstGroup(c.patterns.re("ui_notif_id_regex"), line); id != "" {
		if c.seenIDs[id] {
			return nil
		}
		c.seenIDs[id] = true
	}

	switch {
	case strings.Contains(line, c.patterns.tag("contract_accepted")):
		return []Event{{
			Kind:      EventContractAccepted,
			Dialect:   DialectUI,
			MissionID: fmt.Sprintf("ui_%d", c.now().UnixMilli()),
			Title:     c.contractTitle(line),
		}}

	case strings.Contains(line, c.patterns.tag("new_objective")),
		strings.Contains(line, c.patterns.tag("objective_complete")):
		ev, ok := c.parseObjective(line, c.patterns.re("ui_scu_regex"), "", DialectUI)
		if !ok {
			log.Warn("ui objective did not parse", "line", line)
			return nil
		}
		return []Event{ev}
	}
	return nil
}

// classifyBareMissionLine covers log builds that print contract and
// objective lines without the notification envelope.
func (c *Classifier) classifyBareMissionLine(line string) []Event {
	missionID := firstGroup(c.patterns.re("mission_id_regex"), line)
	if missionID == "" {
		return nil
	}
	switch {
	case strings.Contains(line, c.patterns.tag("contract_accepted")):
		return []Event{{
			Kind:      EventContractAccepted,
			Dialect:   DialectNative,
			MissionID: missionID,
			Title:     c.contractTitle(line),
		}}
	case strings.Contains(line, c.patterns.tag("new_objective")),
		strings.Contains(line, c.patterns.tag("objective_complete")):
		ev, ok := c.parseObjective(line, c.patterns.re("scu_regex"), missionID, DialectNative)
		if !ok {
			log.Warn("objective line did not parse", "line", line)
			return nil
		}
		return []Event{ev}
	}
	return nil
}

// classifyMarker extracts mission facts from objective marker creation.
// The contract token looks like HaulCargo_AToB_NonMetal_Silicon_Stanton1_SmallGrade1.
func (c *Classifier) classifyMarker(line string) []Event {
	missionID := firstGroup(c.patterns.re("marker_mission_id_regex"), line)
	contract := firstGroup(c.patterns.re("marker_contract_regex"), line)
	if missionID == "" || contract == "" {
		return nil
	}
	parts := strings.Split(contract, "_")
	if len(parts) < 5 {
		return nil
	}
	return []Event{{
		Kind:      EventContractAccepted,
		Dialect:   DialectMarker,
		MissionID: missionID,
		Material:  parts[3],
	}}
}

func (c *Classifier) classifyMissionEnd(line string) []Event {
	switch {
	case strings.Contains(line, c.patterns.tag("end_mission_event")):
		missionID := firstGroup(c.patterns.re("end_mission_id_regex"), line)
		if missionID == "" {
			return nil
		}
		outcome := strings.ToUpper(firstGroup(c.patterns.re("end_mission_type_regex"), line))
		return []Event{{
			Kind:      EventContractEnded,
			Dialect:   DialectNative,
			MissionID: missionID,
			Outcome:   normalizeOutcome(outcome),
		}}

	case strings.Contains(line, c.patterns.tag("push_end_event")):
		missionID := firstGroup(c.patterns.re("push_mission_id_regex"), line)
		if missionID == "" {
			return nil
		}
		outcome := firstGroup(c.patterns.re("push_state_regex"), line)
		return []Event{{
			Kind:      EventContractEnded,
			Dialect:   DialectPush,
			MissionID: missionID,
			Outcome:   normalizeOutcome(outcome),
		}}
	}
	return nil
}

func (c *Classifier) classifyReward(line string) []Event {
	if !strings.Contains(line, "Awarded") || !strings.Contains(line, "aUEC") {
		return nil
	}
	m := c.patterns.re("reward_regex").FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	amount, _ := strconv.Atoi(m[1])
	return []Event{{Kind: EventRewardAwarded, Amount: amount}}
}

func (c *Classifier) classifyIdentity(line string) []Event {
	if m := c.patterns.re("identity_regex").FindStringSubmatch(line); m != nil {
		return []Event{{
			Kind:   EventIdentityUpdate,
			Ship:   strings.ToUpper(strings.TrimSpace(m[1])),
			Player: strings.TrimSpace(m[2]),
		}}
	}
	// Ship model ids appear in many unrelated lines; the reconciler only
	// applies this while the ship is still unknown.
	if m := c.patterns.re("ship_fallback_regex").FindStringSubmatch(line); m != nil {
		ship := strings.ToUpper(strings.ReplaceAll(m[1], "_", " "))
		return []Event{{Kind: EventIdentityUpdate, Ship: ship}}
	}
	return nil
}

func (c *Classifier) classifyLocation(line string) []Event {
	if !strings.Contains(line, c.patterns.tag("location_event")) ||
		!strings.Contains(line, c.patterns.tag("location_tag")) {
		return nil
	}
	raw := firstGroup(c.patterns.re("location_regex"), line)
	if raw == "" {
		return nil
	}
	return []Event{{Kind: EventLocationUpdate, Location: locations.Normalize(raw)}}
}

func (c *Classifier) contractTitle(text string) string {
	title := strings.TrimSpace(firstGroup(c.patterns.re("contract_accepted_regex"), text))
	if title == "" {
		return "Unknown Contract"
	}
	return title
}

// parseObjective applies an SCU regex to text. The native form allows a
// single number, meaning a fresh objective for that total; the UI form
// always carries current/total.
func (c *Classifier) parseObjective(text string, re *regexp.Regexp, missionID string, dialect Dialect) (Event, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return Event{}, false
	}
	action := strings.ToUpper(m[1])
	val1, _ := strconv.Atoi(m[2])
	current, total := 0, val1
	if m[3] != "" {
		current = val1
		total, _ = strconv.Atoi(m[3])
	}
	return Event{
		Kind:             EventObjectiveUpdate,
		Dialect:          dialect,
		MissionID:        missionID,
		Action:           action,
		Current:          current,
		Total:            total,
		Material:         strings.ToUpper(strings.TrimSpace(m[4])),
		Location:         locations.Normalize(m[5]),
		ExplicitComplete: strings.Contains(text, c.patterns.tag("objective_complete")),
	}, true
}

func normalizeOutcome(raw string) string {
	switch raw {
	case "COMPLETE", "COMPLETED", "SUCCESS":
		return OutcomeSuccess
	case "ABANDON", "ABANDONED":
		return OutcomeAbandon
	case "FAIL", "FAILED":
		return OutcomeFail
	case "":
		return OutcomeUnknown
	}
	return raw
}
