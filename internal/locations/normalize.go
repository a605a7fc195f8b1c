// Package locations turns raw in-game location tokens into readable names.
//
// The game log refers to places by internal object-container names like
// "OOC_Stanton1_RRHURLEO" or "Stanton2b_Outpost_CRU". Normalize maps those
// to the proper names a player knows ("Everus Harbor", "Daymar Outpost CRU").
package locations

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Unknown is returned for empty or absent input.
const Unknown = "Unknown"

// bodyRule substitutes an internal celestial-body code for a proper name.
// Moon codes must come before their planet code so "Stanton1a" is not
// shadowed by the "Stanton1" match.
type bodyRule struct {
	re   *regexp.Regexp
	name string
}

var bodyRules = []bodyRule{
	// Hurston & moons
	{regexp.MustCompile(`(?i)Stanton_?1a\b`), "Ariel"},
	{regexp.MustCompile(`(?i)Stanton_?1b\b`), "Aberdeen"},
	{regexp.MustCompile(`(?i)Stanton_?1c\b`), "Magda"},
	{regexp.MustCompile(`(?i)Stanton_?1d\b`), "Ita"},
	{regexp.MustCompile(`(?i)Stanton_?1\b`), "Hurston"},
	// Crusader & moons
	{regexp.MustCompile(`(?i)Stanton_?2a\b`), "Cellin"},
	{regexp.MustCompile(`(?i)Stanton_?2b\b`), "Daymar"},
	{regexp.MustCompile(`(?i)Stanton_?2c\b`), "Yela"},
	{regexp.MustCompile(`(?i)Stanton_?2\b`), "Crusader"},
	// ArcCorp & moons
	{regexp.MustCompile(`(?i)Stanton_?3a\b`), "Lyria"},
	{regexp.MustCompile(`(?i)Stanton_?3b\b`), "Wala"},
	{regexp.MustCompile(`(?i)Stanton_?3\b`), "ArcCorp"},
	// MicroTech & moons
	{regexp.MustCompile(`(?i)Stanton_?4a\b`), "Calliope"},
	{regexp.MustCompile(`(?i)Stanton_?4b\b`), "Clio"},
	{regexp.MustCompile(`(?i)Stanton_?4c\b`), "Euterpe"},
	{regexp.MustCompile(`(?i)Stanton_?4\b`), "MicroTech"},
}

// expandRule expands an abbreviation or fixes a multi-word station name.
// skipIfContains guards rules whose replacement still matches the pattern:
// RE2 has no lookarounds, and without the guard "Aid Shelter" would grow an
// "Aid" on every pass, breaking idempotence.
type expandRule struct {
	re             *regexp.Regexp
	repl           string
	skipIfContains string
}

var expandRules = []expandRule{
	// Internal station codes to real names.
	{re: regexp.MustCompile(`(?i)\bRr\s*Hur\s*Leo\b`), repl: "Everus Harbor"},
	{re: regexp.MustCompile(`(?i)\bRr\s*Mic\s*Leo\b`), repl: "Port Tressler"},
	{re: regexp.MustCompile(`(?i)\bRr\s*Arc\s*Leo\b`), repl: "Baijini Point"},
	{re: regexp.MustCompile(`(?i)\bRr\s*Cru\s*Leo\b`), repl: "Seraphim Station"},

	{re: regexp.MustCompile(`(?i)\bDistCenter\b`), repl: "Distribution Center"},
	{re: regexp.MustCompile(`(?i)\bInt\b`), repl: "Interchange"},
	{re: regexp.MustCompile(`(?i)\bStn\b`), repl: "Station"},
	{re: regexp.MustCompile(`(?i)\bSvc\b`), repl: "Services"},
	{re: regexp.MustCompile(`(?i)\bInd\b`), repl: "Industrial"},
	{re: regexp.MustCompile(`(?i)\bShelter\b`), repl: "Aid Shelter", skipIfContains: "aid shelter"},
	{re: regexp.MustCompile(`(?i)\bMining\b`), repl: "Mining Area", skipIfContains: "mining area"},
	{re: regexp.MustCompile(`(?i)\bProc\b`), repl: "Processing"},
	{re: regexp.MustCompile(`(?i)\bRsrch\b`), repl: "Research"},
	{re: regexp.MustCompile(`(?i)\bPlt\b`), repl: "Plant"},
	{re: regexp.MustCompile(`(?i)\bFarm\b`), repl: "Farms"},
	{re: regexp.MustCompile(`(?i)\bScrap\b`), repl: "Scrapyard"},
	{re: regexp.MustCompile(`(?i)\bLab\b`), repl: "Labs"},
	{re: regexp.MustCompile(`(?i)\bObs\b`), repl: "Observatory"},
	{re: regexp.MustCompile(`(?i)\bGnd\b`), repl: "Ground"},
	{re: regexp.MustCompile(`(?i)\bGate\b`), repl: "Gateway"},

	// Well-known stations referenced by a single token.
	{re: regexp.MustCompile(`(?i)\bBaijini\b`), repl: "Baijini Point", skipIfContains: "baijini point"},
	{re: regexp.MustCompile(`(?i)\bTressler\b`), repl: "Port Tressler", skipIfContains: "port tressler"},
	{re: regexp.MustCompile(`(?i)\bEverus\b`), repl: "Everus Harbor", skipIfContains: "everus harbor"},
	{re: regexp.MustCompile(`(?i)\bRiker\b`), repl: "Riker Memorial", skipIfContains: "riker memorial"},
}

// Acronym tokens re-uppercased after title casing, whole words only.
var acronymRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bOm\b`),
	regexp.MustCompile(`(?i)\bL1\b`),
	regexp.MustCompile(`(?i)\bL2\b`),
	regexp.MustCompile(`(?i)\bL3\b`),
	regexp.MustCompile(`(?i)\bL4\b`),
	regexp.MustCompile(`(?i)\bL5\b`),
	regexp.MustCompile(`(?i)\bHur\b`),
	regexp.MustCompile(`(?i)\bCru\b`),
	regexp.MustCompile(`(?i)\bArc\b`),
	regexp.MustCompile(`(?i)\bMic\b`),
	regexp.MustCompile(`(?i)\bHdpc\b`),
	regexp.MustCompile(`(?i)\bScu\b`),
}

var (
	prefixRe = regexp.MustCompile(`(?i)^(OOC_|ObjectContainer_)`)
	titler   = cases.Title(language.English)
)

// Normalize converts a raw log location token to a readable canonical name.
// It is total (never fails) and idempotent over its own outputs.
func Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return Unknown
	}

	name := prefixRe.ReplaceAllString(raw, "")

	for _, r := range bodyRules {
		name = r.re.ReplaceAllString(name, r.name)
	}

	name = strings.ReplaceAll(name, "_", " ")

	for _, r := range expandRules {
		if r.skipIfContains != "" && strings.Contains(strings.ToLower(name), r.skipIfContains) {
			continue
		}
		name = r.re.ReplaceAllString(name, r.repl)
	}

	name = titler.String(strings.ToLower(name))

	for _, re := range acronymRules {
		name = re.ReplaceAllStringFunc(name, strings.ToUpper)
	}

	return strings.TrimSpace(name)
}
