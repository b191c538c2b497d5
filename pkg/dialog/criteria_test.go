package dialog

import (
	"reflect"
	"strings"
	"testing"
)

func TestFieldLifecycle(t *testing.T) {
	var f BoolField
	if f.Answered() {
		t.Error("zero field should not be answered")
	}
	if _, ok := f.Value(); ok {
		t.Error("zero field should carry no value")
	}

	f.Set(true)
	if !f.Answered() {
		t.Error("set field should be answered")
	}
	if v, ok := f.Value(); !ok || !v {
		t.Errorf("Value() = %v, %v after Set(true)", v, ok)
	}

	f.Clear()
	if f.Answered() {
		t.Error("cleared field should not be answered")
	}
	if _, ok := f.Value(); ok {
		t.Error("cleared field should carry no value")
	}

	// Skip is answered but constrains nothing.
	f.Skip()
	if !f.Answered() {
		t.Error("skipped field should be answered")
	}
	if _, ok := f.Value(); ok {
		t.Error("skipped field should carry no value")
	}
}

func TestSetFieldDedup(t *testing.T) {
	var f SetField
	f.Set([]string{"italian", "chinese", "italian"})
	got, ok := f.Values()
	if !ok {
		t.Fatal("Values() not ok after Set")
	}
	want := []string{"italian", "chinese"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Values() = %v, want %v", got, want)
	}
}

func TestClearByName(t *testing.T) {
	c := NewCriteria()
	c.Cuisines.Set([]string{"italian"})
	c.Rating.Set(4)
	c.PriceRange.Set("$$")
	c.Vegan.Set(true)
	c.Vegetarian.Set(true)
	c.SetExtra("dog_friendly", true)

	tests := []struct {
		message  string
		wantName string
		wantOK   bool
	}{
		{"the price range", "price_range", true},
		{"i want a different rating", "rating", true},
		// Dietary fields clear as one unit.
		{"change the vegan requirement", "dietary", true},
		{"dog friendly", "dog_friendly", true},
		// Wifi was never answered, so it cannot be cleared.
		{"wifi", "", false},
		{"gibberish", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			name, ok := c.ClearByName(Normalize(tt.message))
			if ok != tt.wantOK || name != tt.wantName {
				t.Errorf("ClearByName(%q) = %q, %v; want %q, %v",
					tt.message, name, ok, tt.wantName, tt.wantOK)
			}
		})
	}

	if c.PriceRange.Answered() {
		t.Error("price range should be cleared")
	}
	if c.Vegan.Answered() || c.Vegetarian.Answered() {
		t.Error("dietary fields should both be cleared")
	}
	if c.Cuisines.Answered() != true {
		t.Error("cuisine should be untouched")
	}
}

func TestAnsweredNames(t *testing.T) {
	c := NewCriteria()
	c.Cuisines.Set([]string{"greek"})
	c.Wifi.Skip()
	c.SetExtra("parking", false)

	got := c.AnsweredNames()
	want := []string{"cuisine", "wifi", "parking"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AnsweredNames() = %v, want %v", got, want)
	}
}

func TestSummary(t *testing.T) {
	c := NewCriteria()
	if got := c.Summary(); got != "no specific requirements" {
		t.Errorf("empty Summary() = %q", got)
	}

	c.Cuisines.Set([]string{"italian"})
	c.Rating.Set(4.5)
	c.Wifi.Set(true)
	c.Payment.Skip()
	c.SetExtra("parking", true)

	got := c.Summary()
	for _, want := range []string{"cuisine: italian", "rating: 4.5+", "wifi: yes", "parking: yes"} {
		if !strings.Contains(got, want) {
			t.Errorf("Summary() = %q, missing %q", got, want)
		}
	}
	// Skipped fields carry no constraint and stay out of the summary.
	if strings.Contains(got, "payment") {
		t.Errorf("Summary() = %q, should not mention skipped payment", got)
	}
}
