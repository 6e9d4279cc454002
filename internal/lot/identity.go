package lot

import (
	"regexp"
	"strings"

	"github.com/lotnotify/lotbridge/internal/model"
)

// StopSet is a token set consulted during model extraction. It is passed
// explicitly so the trim vocabulary can be extended without touching the
// extraction logic.
type StopSet map[string]struct{}

// NewStopSet builds a StopSet from lowercase-insensitive tokens.
func NewStopSet(tokens ...string) StopSet {
	s := make(StopSet, len(tokens))
	for _, t := range tokens {
		s[strings.ToLower(t)] = struct{}{}
	}
	return s
}

// Has reports membership, case-insensitively.
func (s StopSet) Has(token string) bool {
	_, ok := s[strings.ToLower(token)]
	return ok
}

// DefaultStopWords covers known trim levels, drivetrain markers, and
// title-condition words seen in auction slugs. State codes are checked
// separately and need not be listed here.
func DefaultStopWords() StopSet {
	return NewStopSet(
		// trim levels and packages
		"limited", "sport", "xlt", "xl", "lt", "ls", "lx", "ex", "se", "sel",
		"sle", "slt", "sr", "sr5", "le", "xle", "laramie", "lariat", "denali",
		"premium", "touring", "base", "gt", "rt", "srt", "trd", "scat", "pack",
		"big", "horn", "platinum", "king", "ranch",
		// drivetrain markers
		"awd", "4x4", "4x2", "4wd", "2wd", "fwd", "rwd",
		// body and cab styles
		"super", "crew", "cab", "coupe", "sedan", "suv", "van",
		// title-condition words
		"clean", "salvage", "rebuilt", "cert", "title", "flood", "lemon",
	)
}

// stateCodes holds the 50 US state codes plus DC.
var stateCodes = NewStopSet(
	"al", "ak", "az", "ar", "ca", "co", "ct", "de", "fl", "ga", "hi", "id",
	"il", "in", "ia", "ks", "ky", "la", "me", "md", "ma", "mi", "mn", "ms",
	"mo", "mt", "ne", "nv", "nh", "nj", "nm", "ny", "nc", "nd", "oh", "ok",
	"or", "pa", "ri", "sc", "sd", "tn", "tx", "ut", "vt", "va", "wa", "wv",
	"wi", "wy", "dc",
)

var (
	yearPattern     = regexp.MustCompile(`^\d{4}$`)
	locationPattern = regexp.MustCompile(`^[A-Za-z]{2}\b`)
)

// ExtractIdentity derives year/make/model/state from slug tokens.
//
// The year is the only token with a reliable fixed shape, so everything
// else is anchored to it: make is the token right after the year, model is
// up to two following tokens, truncated at the first stop word or state
// code. State is scanned independently across the whole sequence. No year
// means no make/model guesses at all.
func ExtractIdentity(tokens []string, stop StopSet) model.VehicleIdentity {
	var id model.VehicleIdentity

	for _, tok := range tokens {
		if stateCodes.Has(tok) {
			id.State = strings.ToUpper(tok)
			break
		}
	}

	yearIdx := -1
	for i, tok := range tokens {
		if yearPattern.MatchString(tok) {
			yearIdx = i
			break
		}
	}
	if yearIdx == -1 {
		return model.VehicleIdentity{State: id.State}
	}
	id.Year = tokens[yearIdx]

	if yearIdx+1 < len(tokens) {
		id.Make = strings.ToUpper(tokens[yearIdx+1])
	}

	var modelTokens []string
	for i := yearIdx + 2; i < len(tokens) && len(modelTokens) < 2; i++ {
		if stop.Has(tokens[i]) || stateCodes.Has(tokens[i]) {
			break
		}
		modelTokens = append(modelTokens, strings.ToUpper(tokens[i]))
	}
	id.Model = strings.Join(modelTokens, " ")

	return id
}

// StateFromLocation pulls a leading two-letter code out of a free-text
// location like "MI - Detroit". Returns "" when the text does not start
// with an isolated two-letter token.
func StateFromLocation(text string) string {
	m := locationPattern.FindString(strings.TrimSpace(text))
	if m == "" {
		return ""
	}
	return strings.ToUpper(m)
}
