package dialog

import "strings"

// Match filters the catalog against the accumulated criteria. The scan
// preserves catalog order and applies a per-field-kind comparison: rating
// is a floor, set-valued criteria intersect with set-valued restaurant
// fields and use membership against scalar ones, and everything else is
// trimmed-string equality. A restaurant is included iff every present
// constraint holds; absent constraints never exclude.
func Match(c *Criteria, catalog []Restaurant) []Restaurant {
	var out []Restaurant
	for _, r := range catalog {
		if matches(c, r) {
			out = append(out, r)
		}
	}
	return out
}

func matches(c *Criteria, r Restaurant) bool {
	if want, ok := c.Cuisines.Values(); ok {
		if !containsValue(want, r.Cuisine) {
			return false
		}
	}
	if want, ok := c.Rating.Value(); ok {
		if r.Rating < want {
			return false
		}
	}
	if want, ok := c.PriceRange.Value(); ok {
		if !equalNormalized(r.PriceRange, want) {
			return false
		}
	}
	if want, ok := c.Ambiance.Values(); ok {
		if !intersects(r.Ambiance, want) {
			return false
		}
	}

	boolChecks := []struct {
		field BoolField
		have  bool
	}{
		{c.Wifi, r.Wifi},
		{c.Wheelchair, r.Wheelchair},
		{c.Vegan, r.Vegan},
		{c.Vegetarian, r.Vegetarian},
		{c.IndoorSeating, r.IndoorSeating},
		{c.OutdoorSeating, r.OutdoorSeating},
		{c.Bar, r.Bar},
		{c.Lounge, r.Lounge},
		{c.LiveMusic, r.LiveMusic},
		{c.Football, r.Football},
	}
	for _, chk := range boolChecks {
		if want, ok := chk.field.Value(); ok && chk.have != want {
			return false
		}
	}

	if want, ok := c.Payment.Values(); ok {
		if !intersects(r.Payment, want) {
			return false
		}
	}
	if want, ok := c.View.Values(); ok {
		if !intersects(r.View, want) {
			return false
		}
	}
	if want, ok := c.Sustainability.Value(); ok {
		if !equalNormalized(r.Sustainability, want) {
			return false
		}
	}
	if want, ok := c.Dishes.Values(); ok {
		if !intersects(r.MenuHighlights, want) {
			return false
		}
	}
	for name, f := range c.Extras {
		if want, ok := f.Value(); ok && r.Extras[name] != want {
			return false
		}
	}
	return true
}

func equalNormalized(have, want string) bool {
	return Normalize(have) == Normalize(want)
}

func containsValue(want []string, have string) bool {
	have = Normalize(have)
	for _, w := range want {
		if w == have {
			return true
		}
	}
	return false
}

// intersects reports whether any requested value appears in the
// restaurant's recorded values.
func intersects(have []string, want []string) bool {
	haveSet := make(map[string]struct{}, len(have))
	for _, h := range have {
		haveSet[strings.TrimSpace(strings.ToLower(h))] = struct{}{}
	}
	for _, w := range want {
		if _, ok := haveSet[w]; ok {
			return true
		}
	}
	return false
}
