package dialog

import (
	"reflect"
	"testing"
)

func testCatalog() []Restaurant {
	return []Restaurant{
		{
			Name:           "Trattoria Da Enzo",
			Cuisine:        "italian",
			Rating:         4.2,
			PriceRange:     "$$",
			Ambiance:       []string{"cozy", "romantic"},
			Wifi:           true,
			Wheelchair:     true,
			Vegetarian:     true,
			IndoorSeating:  true,
			OutdoorSeating: true,
			Bar:            true,
			Payment:        []string{"card", "cash"},
			View:           []string{"garden"},
			Sustainability: "b",
			MenuHighlights: []string{"carbonara", "tiramisu"},
			OpeningHours:   "17:00 - 23:00",
			BookingURL:     "https://bookings.example.com/da-enzo",
			Extras:         map[string]bool{"parking": true, "dog_friendly": false},
		},
		{
			Name:           "Golden Lotus",
			Cuisine:        "chinese",
			Rating:         4.6,
			PriceRange:     "$$",
			Ambiance:       []string{"casual", "lively"},
			Wifi:           true,
			Vegan:          true,
			Vegetarian:     true,
			IndoorSeating:  true,
			Payment:        []string{"card", "cash", "crypto"},
			View:           []string{"city"},
			Sustainability: "a",
			MenuHighlights: []string{"dumplings", "peking duck"},
			OpeningHours:   "11:30 - 22:00",
			BookingURL:     "https://bookings.example.com/golden-lotus",
			Extras:         map[string]bool{"parking": false, "catering": true},
		},
		{
			Name:           "Nonna Lucia",
			Cuisine:        "italian",
			Rating:         4.7,
			PriceRange:     "$$$",
			Ambiance:       []string{"romantic", "formal"},
			Wifi:           true,
			Wheelchair:     true,
			Vegan:          true,
			Vegetarian:     true,
			IndoorSeating:  true,
			OutdoorSeating: true,
			Bar:            true,
			Lounge:         true,
			LiveMusic:      true,
			Payment:        []string{"card"},
			View:           []string{"sea", "garden"},
			Sustainability: "a",
			MenuHighlights: []string{"risotto", "tiramisu"},
			OpeningHours:   "17:30 - 23:30",
			BookingURL:     "https://bookings.example.com/nonna-lucia",
			Extras:         map[string]bool{"parking": true},
		},
	}
}

func TestBuildIndex(t *testing.T) {
	idx := BuildIndex(testCatalog())

	// First-seen order, duplicates dropped.
	if want := []string{"italian", "chinese"}; !reflect.DeepEqual(idx.Cuisines, want) {
		t.Errorf("Cuisines = %v, want %v", idx.Cuisines, want)
	}
	if want := []string{"cozy", "romantic", "casual", "lively", "formal"}; !reflect.DeepEqual(idx.Ambiance, want) {
		t.Errorf("Ambiance = %v, want %v", idx.Ambiance, want)
	}
	if want := []string{"card", "cash", "crypto"}; !reflect.DeepEqual(idx.Payment, want) {
		t.Errorf("Payment = %v, want %v", idx.Payment, want)
	}
	if want := []string{"b", "a"}; !reflect.DeepEqual(idx.Sustainability, want) {
		t.Errorf("Sustainability = %v, want %v", idx.Sustainability, want)
	}
	if want := []string{"carbonara", "tiramisu", "dumplings", "peking duck", "risotto"}; !reflect.DeepEqual(idx.Dishes, want) {
		t.Errorf("Dishes = %v, want %v", idx.Dishes, want)
	}
}

func TestIntersectTokens(t *testing.T) {
	known := []string{"italian", "chinese", "greek"}
	tests := []struct {
		name   string
		tokens []string
		want   []string
	}{
		{"single", []string{"italian"}, []string{"italian"}},
		{"two in token order", []string{"chinese", "and", "italian"}, []string{"chinese", "italian"}},
		{"dedup", []string{"italian", "italian"}, []string{"italian"}},
		{"none", []string{"burgers"}, nil},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IntersectTokens(tt.tokens, known); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("IntersectTokens(%v) = %v, want %v", tt.tokens, got, tt.want)
			}
		})
	}
}

func TestContainedValues(t *testing.T) {
	known := []string{"peking duck", "dumplings"}
	got := ContainedValues("i would love some peking duck", known)
	if want := []string{"peking duck"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ContainedValues = %v, want %v", got, want)
	}
	if got := ContainedValues("pizza", known); got != nil {
		t.Errorf("ContainedValues = %v, want nil", got)
	}
}

func TestValidTime(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"00:00", true},
		{"09:30", true},
		{"23:59", true},
		{"24:00", false},
		{"9:30", false},
		{"12:60", false},
		{"noonish", false},
		{"12:30pm", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidTime(tt.in); got != tt.want {
			t.Errorf("ValidTime(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWithinOpeningHours(t *testing.T) {
	tests := []struct {
		name  string
		t     string
		hours string
		want  bool
	}{
		{"inside", "19:00", "17:00 - 23:00", true},
		{"at open", "17:00", "17:00 - 23:00", true},
		{"at close", "23:00", "17:00 - 23:00", true},
		{"before open", "16:59", "17:00 - 23:00", false},
		{"after close", "23:01", "17:00 - 23:00", false},
		{"malformed range", "19:00", "17:00-23:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithinOpeningHours(tt.t, tt.hours); got != tt.want {
				t.Errorf("WithinOpeningHours(%q, %q) = %v, want %v", tt.t, tt.hours, got, tt.want)
			}
		})
	}
}
