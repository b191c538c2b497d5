package dialog

import (
	"regexp"
	"strings"
)

// Restaurant is one read-only catalog record.
type Restaurant struct {
	Name           string          `yaml:"name"                  json:"name"`
	Cuisine        string          `yaml:"cuisine"               json:"cuisine"`
	Rating         float64         `yaml:"rating"                json:"rating"`
	PriceRange     string          `yaml:"price_range"           json:"price_range"`
	Ambiance       []string        `yaml:"ambiance"              json:"ambiance"`
	Wifi           bool            `yaml:"wifi"                  json:"wifi"`
	Wheelchair     bool            `yaml:"wheelchair_accessible" json:"wheelchair_accessible"`
	Vegan          bool            `yaml:"vegan_options"         json:"vegan_options"`
	Vegetarian     bool            `yaml:"vegetarian_options"    json:"vegetarian_options"`
	IndoorSeating  bool            `yaml:"indoor_seating"        json:"indoor_seating"`
	OutdoorSeating bool            `yaml:"outdoor_seating"       json:"outdoor_seating"`
	Bar            bool            `yaml:"bar_included"          json:"bar_included"`
	Lounge         bool            `yaml:"lounge_included"       json:"lounge_included"`
	LiveMusic      bool            `yaml:"live_music"            json:"live_music"`
	Football       bool            `yaml:"football_watching"     json:"football_watching"`
	Payment        []string        `yaml:"payment_accepted"      json:"payment_accepted"`
	View           []string        `yaml:"view"                  json:"view"`
	Sustainability string          `yaml:"sustainability_rating" json:"sustainability_rating"`
	MenuHighlights []string        `yaml:"menu_highlights"       json:"menu_highlights"`
	OpeningHours   string          `yaml:"opening_hours"         json:"opening_hours"`
	BookingURL     string          `yaml:"booking_url"           json:"booking_url,omitempty"`
	Extras         map[string]bool `yaml:"extras"                json:"extras,omitempty"`
}

// UniqueValues indexes the catalog's known values per multi-valued field,
// so message tokens can be validated against what actually exists. All
// values are stored normalized.
type UniqueValues struct {
	Cuisines       []string
	Ambiance       []string
	Payment        []string
	View           []string
	Sustainability []string
	Dishes         []string
}

// BuildIndex derives the unique-value index from the catalog, preserving
// first-seen order.
func BuildIndex(catalog []Restaurant) *UniqueValues {
	idx := &UniqueValues{}
	seen := make(map[string]map[string]struct{})
	appendUniq := func(field string, dst *[]string, vals ...string) {
		if seen[field] == nil {
			seen[field] = make(map[string]struct{})
		}
		for _, v := range vals {
			v = Normalize(v)
			if v == "" {
				continue
			}
			if _, ok := seen[field][v]; ok {
				continue
			}
			seen[field][v] = struct{}{}
			*dst = append(*dst, v)
		}
	}

	for _, r := range catalog {
		appendUniq("cuisine", &idx.Cuisines, r.Cuisine)
		appendUniq("ambiance", &idx.Ambiance, r.Ambiance...)
		appendUniq("payment", &idx.Payment, r.Payment...)
		appendUniq("view", &idx.View, r.View...)
		appendUniq("sustainability", &idx.Sustainability, r.Sustainability)
		appendUniq("dishes", &idx.Dishes, r.MenuHighlights...)
	}
	return idx
}

// IntersectTokens returns the known values present among the message
// tokens, in token order, duplicates removed.
func IntersectTokens(tokens []string, known []string) []string {
	knownSet := make(map[string]struct{}, len(known))
	for _, k := range known {
		knownSet[k] = struct{}{}
	}
	var out []string
	picked := make(map[string]struct{})
	for _, tok := range tokens {
		if _, ok := knownSet[tok]; !ok {
			continue
		}
		if _, ok := picked[tok]; ok {
			continue
		}
		picked[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// ContainedValues returns the known values that appear as substrings of the
// normalized message, used for free-text dish capture.
func ContainedValues(normalized string, known []string) []string {
	var out []string
	for _, k := range known {
		if strings.Contains(normalized, k) {
			out = append(out, k)
		}
	}
	return out
}

// timePattern matches zero-padded 24-hour clock times.
var timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// ValidTime reports whether s is a well-formed HH:MM time.
func ValidTime(s string) bool { return timePattern.MatchString(s) }

// WithinOpeningHours checks a well-formed HH:MM time against an
// "HH:MM - HH:MM" range, bounds inclusive. Times are zero-padded so the
// lexical comparison is the chronological one.
func WithinOpeningHours(t, openingHours string) bool {
	opens, closes, ok := strings.Cut(openingHours, " - ")
	if !ok {
		return false
	}
	return t >= opens && t <= closes
}
