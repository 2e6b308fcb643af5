package excel

import (
	"regexp"
	"strings"

	"bcall/domain/core"
	"bcall/domain/rollcall"
)

// accentFolder collapses the accented vowels that appear in legislative vote
// vocabularies, so "Sí" and "Si" map identically.
var accentFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ñ", "n",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u", "Ñ", "n",
)

// NormalizeVoteCode maps a raw vote string onto the ternary/missing cell
// representation. Anything outside the known vocabulary is missing, never an
// error: unknown codes (absences, procedural notes) carry no vote signal.
func NormalizeVoteCode(raw string) float64 {
	code := accentFolder.Replace(strings.ToLower(strings.TrimSpace(raw)))
	switch code {
	case "si", "afirmativo", "yes", "yea", "a favor", "1", "+1":
		return rollcall.Yea
	case "no", "negativo", "en contra", "nay", "-1":
		return rollcall.Nay
	case "abstencion", "se abstiene", "abstiene", "dispensado", "presente", "0":
		return rollcall.Abstain
	default:
		return rollcall.Missing()
	}
}

var (
	innerWhitespace = regexp.MustCompile(`\s+`)
	trailingParty   = regexp.MustCompile(`\(([^()]+)\)\s*$`)
)

// CleanLegislatorName turns a raw legislator cell into a stable identifier.
// A trailing parenthetical like "Pérez, Juan (PN)" is treated as party
// metadata, stripped from the identifier and returned separately.
func CleanLegislatorName(raw string) (core.LegislatorID, string) {
	name := strings.TrimSpace(raw)

	party := ""
	if match := trailingParty.FindStringSubmatch(name); match != nil {
		party = strings.TrimSpace(match[1])
		name = strings.TrimSpace(trailingParty.ReplaceAllString(name, ""))
	}

	name = innerWhitespace.ReplaceAllString(name, " ")
	return core.LegislatorID(name), party
}
