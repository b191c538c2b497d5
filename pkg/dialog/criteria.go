package dialog

import (
	"fmt"
	"sort"
	"strings"
)

// fieldState tracks the lifecycle of one criteria field. The distinction
// between unset and cleared matters for the relax loop: a cleared field is
// re-asked on the walk back through the questionnaire, an answered one is
// skipped even when the answer was "no preference".
type fieldState int

const (
	stateUnset fieldState = iota
	stateAnswered
	stateCleared
)

// BoolField is a yes/no requirement.
type BoolField struct {
	state fieldState
	has   bool
	value bool
}

func (f *BoolField) Set(v bool) { f.state, f.has, f.value = stateAnswered, true, v }

// Skip marks the field answered with no preference recorded.
func (f *BoolField) Skip()  { f.state, f.has = stateAnswered, false }
func (f *BoolField) Clear() { *f = BoolField{state: stateCleared} }

func (f BoolField) Answered() bool { return f.state == stateAnswered }

// Value returns the constraint and whether one is present.
func (f BoolField) Value() (bool, bool) { return f.value, f.state == stateAnswered && f.has }

// FloatField is a numeric requirement (minimum rating).
type FloatField struct {
	state fieldState
	has   bool
	value float64
}

func (f *FloatField) Set(v float64) { f.state, f.has, f.value = stateAnswered, true, v }
func (f *FloatField) Skip()         { f.state, f.has = stateAnswered, false }
func (f *FloatField) Clear()        { *f = FloatField{state: stateCleared} }

func (f FloatField) Answered() bool { return f.state == stateAnswered }

func (f FloatField) Value() (float64, bool) {
	return f.value, f.state == stateAnswered && f.has
}

// StringField is a single-valued requirement (price range, sustainability).
type StringField struct {
	state fieldState
	value string
}

func (f *StringField) Set(v string) { f.state, f.value = stateAnswered, v }
func (f *StringField) Skip()        { f.state, f.value = stateAnswered, "" }
func (f *StringField) Clear()       { *f = StringField{state: stateCleared} }

func (f StringField) Answered() bool { return f.state == stateAnswered }

func (f StringField) Value() (string, bool) {
	return f.value, f.state == stateAnswered && f.value != ""
}

// SetField is a multi-valued requirement holding catalog-known tokens in
// the order they were matched, duplicates removed.
type SetField struct {
	state  fieldState
	values []string
}

func (f *SetField) Set(vals []string) {
	seen := make(map[string]struct{}, len(vals))
	uniq := make([]string, 0, len(vals))
	for _, v := range vals {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		uniq = append(uniq, v)
	}
	f.state, f.values = stateAnswered, uniq
}

func (f *SetField) Skip()  { f.state, f.values = stateAnswered, nil }
func (f *SetField) Clear() { *f = SetField{state: stateCleared} }

func (f SetField) Answered() bool { return f.state == stateAnswered }

func (f SetField) Values() ([]string, bool) {
	return f.values, f.state == stateAnswered && len(f.values) > 0
}

// Criteria accumulates the restaurant requirements for one session.
// Absence of a constraint (unset, cleared, or answered with no preference)
// never excludes a restaurant.
type Criteria struct {
	Cuisines       SetField
	Rating         FloatField
	PriceRange     StringField
	Ambiance       SetField
	Wifi           BoolField
	Wheelchair     BoolField
	Vegan          BoolField
	Vegetarian     BoolField
	IndoorSeating  BoolField
	OutdoorSeating BoolField
	Bar            BoolField
	Lounge         BoolField
	LiveMusic      BoolField
	Football       BoolField
	Payment        SetField
	View           SetField
	Sustainability StringField
	Dishes         SetField
	Extras         map[string]BoolField
}

// NewCriteria returns an empty accumulator.
func NewCriteria() *Criteria {
	return &Criteria{Extras: make(map[string]BoolField)}
}

// SetExtra records a named boolean extra requirement.
func (c *Criteria) SetExtra(name string, v bool) {
	if c.Extras == nil {
		c.Extras = make(map[string]BoolField)
	}
	var f BoolField
	f.Set(v)
	c.Extras[name] = f
}

// clearGroup maps a user-facing criterion name to the fields it clears.
// Correlated fields answered as one question clear as one unit.
var clearGroups = []struct {
	name     string
	triggers []string
	clear    func(c *Criteria)
}{
	{"cuisine", []string{"cuisine"}, func(c *Criteria) { c.Cuisines.Clear() }},
	{"rating", []string{"rating"}, func(c *Criteria) { c.Rating.Clear() }},
	{"price_range", []string{"price"}, func(c *Criteria) { c.PriceRange.Clear() }},
	{"ambiance", []string{"ambiance", "ambience"}, func(c *Criteria) { c.Ambiance.Clear() }},
	{"wifi", []string{"wifi"}, func(c *Criteria) { c.Wifi.Clear() }},
	{"wheelchair_accessible", []string{"wheelchair", "accessib"}, func(c *Criteria) { c.Wheelchair.Clear() }},
	{"dietary", []string{"vegan", "vegetarian", "dietary"}, func(c *Criteria) { c.Vegan.Clear(); c.Vegetarian.Clear() }},
	{"seating", []string{"seating", "indoor", "outdoor"}, func(c *Criteria) { c.IndoorSeating.Clear(); c.OutdoorSeating.Clear() }},
	{"bar_lounge", []string{"bar", "lounge"}, func(c *Criteria) { c.Bar.Clear(); c.Lounge.Clear() }},
	{"entertainment", []string{"music", "football", "entertainment"}, func(c *Criteria) { c.LiveMusic.Clear(); c.Football.Clear() }},
	{"payment_accepted", []string{"payment"}, func(c *Criteria) { c.Payment.Clear() }},
	{"view", []string{"view"}, func(c *Criteria) { c.View.Clear() }},
	{"sustainability_rating", []string{"sustainab"}, func(c *Criteria) { c.Sustainability.Clear() }},
	{"menu_highlights", []string{"dish", "menu"}, func(c *Criteria) { c.Dishes.Clear() }},
}

// ClearByName clears the criterion whose trigger appears in the normalized
// message, provided that criterion is currently answered. Returns the
// canonical name of the cleared criterion.
func (c *Criteria) ClearByName(normalized string) (string, bool) {
	for _, g := range clearGroups {
		if !c.groupAnswered(g.name) {
			continue
		}
		for _, trig := range g.triggers {
			if strings.Contains(normalized, trig) {
				g.clear(c)
				return g.name, true
			}
		}
	}
	// Named extras clear individually.
	for name, f := range c.Extras {
		if f.Answered() && strings.Contains(normalized, strings.ReplaceAll(name, "_", " ")) ||
			f.Answered() && strings.Contains(normalized, name) {
			delete(c.Extras, name)
			return name, true
		}
	}
	return "", false
}

func (c *Criteria) groupAnswered(name string) bool {
	switch name {
	case "cuisine":
		return c.Cuisines.Answered()
	case "rating":
		return c.Rating.Answered()
	case "price_range":
		return c.PriceRange.Answered()
	case "ambiance":
		return c.Ambiance.Answered()
	case "wifi":
		return c.Wifi.Answered()
	case "wheelchair_accessible":
		return c.Wheelchair.Answered()
	case "dietary":
		return c.Vegan.Answered() || c.Vegetarian.Answered()
	case "seating":
		return c.IndoorSeating.Answered() || c.OutdoorSeating.Answered()
	case "bar_lounge":
		return c.Bar.Answered() || c.Lounge.Answered()
	case "entertainment":
		return c.LiveMusic.Answered() || c.Football.Answered()
	case "payment_accepted":
		return c.Payment.Answered()
	case "view":
		return c.View.Answered()
	case "sustainability_rating":
		return c.Sustainability.Answered()
	case "menu_highlights":
		return c.Dishes.Answered()
	}
	return false
}

// AnsweredNames lists the canonical names of the criteria a user could
// currently ask to change.
func (c *Criteria) AnsweredNames() []string {
	var names []string
	for _, g := range clearGroups {
		if c.groupAnswered(g.name) {
			names = append(names, g.name)
		}
	}
	extraNames := make([]string, 0, len(c.Extras))
	for name, f := range c.Extras {
		if f.Answered() {
			extraNames = append(extraNames, name)
		}
	}
	sort.Strings(extraNames)
	return append(names, extraNames...)
}

// Summary renders the constraints that are actually set, for the
// confirmation prompt.
func (c *Criteria) Summary() string {
	var parts []string
	add := func(name, val string) { parts = append(parts, name+": "+val) }

	if v, ok := c.Cuisines.Values(); ok {
		add("cuisine", strings.Join(v, ", "))
	}
	if v, ok := c.Rating.Value(); ok {
		add("rating", strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.1f", v), "0"), ".")+"+")
	}
	if v, ok := c.PriceRange.Value(); ok {
		add("price range", v)
	}
	if v, ok := c.Ambiance.Values(); ok {
		add("ambiance", strings.Join(v, ", "))
	}
	boolText := func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	}
	for _, bf := range []struct {
		name  string
		field BoolField
	}{
		{"wifi", c.Wifi},
		{"wheelchair accessible", c.Wheelchair},
		{"vegan options", c.Vegan},
		{"vegetarian options", c.Vegetarian},
		{"indoor seating", c.IndoorSeating},
		{"outdoor seating", c.OutdoorSeating},
		{"bar", c.Bar},
		{"lounge", c.Lounge},
		{"live music", c.LiveMusic},
		{"football", c.Football},
	} {
		if v, ok := bf.field.Value(); ok {
			add(bf.name, boolText(v))
		}
	}
	if v, ok := c.Payment.Values(); ok {
		add("payment", strings.Join(v, ", "))
	}
	if v, ok := c.View.Values(); ok {
		add("view", strings.Join(v, ", "))
	}
	if v, ok := c.Sustainability.Value(); ok {
		add("sustainability rating", v)
	}
	if v, ok := c.Dishes.Values(); ok {
		add("dishes", strings.Join(v, ", "))
	}

	extraNames := make([]string, 0, len(c.Extras))
	for name := range c.Extras {
		extraNames = append(extraNames, name)
	}
	sort.Strings(extraNames)
	for _, name := range extraNames {
		if v, ok := c.Extras[name].Value(); ok {
			add(strings.ReplaceAll(name, "_", " "), boolText(v))
		}
	}

	if len(parts) == 0 {
		return "no specific requirements"
	}
	return strings.Join(parts, "; ")
}
