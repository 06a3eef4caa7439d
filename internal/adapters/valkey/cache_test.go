package valkey

import "testing"

func TestOperation(t *testing.T) {
	cases := map[string]string{
		"buildings:id:5":       "buildings",
		"activities:all":       "activities",
		"geocode:москва":       "geocode",
		"plain":                "plain",
		":leading-colon":       ":leading-colon",
	}
	for key, want := range cases {
		if got := operation(key); got != want {
			t.Errorf("operation(%q) = %q, want %q", key, got, want)
		}
	}
}
