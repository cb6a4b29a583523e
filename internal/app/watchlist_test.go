package app

import (
	"reflect"
	"testing"
)

func TestLoadWatchlistNormalizes(t *testing.T) {
	path := writeFile(t, t.TempDir(), "watchlist.yaml", "plates:\n  - ab-12-cd\n  - ' XY99ZZ '\n")
	plates, err := LoadWatchlist(path)
	if err != nil {
		t.Fatalf("LoadWatchlist: %v", err)
	}
	if want := []string{"AB12CD", "XY99ZZ"}; !reflect.DeepEqual(plates, want) {
		t.Fatalf("plates = %v, want %v", plates, want)
	}
}

func TestLoadWatchlistErrors(t *testing.T) {
	if _, err := LoadWatchlist(" "); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if _, err := LoadWatchlist("/does/not/exist.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
	path := writeFile(t, t.TempDir(), "bad.yaml", "plates: [unterminated\n")
	if _, err := LoadWatchlist(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestMergePlatesKeepsFirstSeenOrder(t *testing.T) {
	got := mergePlates([]string{"AB12CD", "XY99ZZ"}, []string{"XY99ZZ", "KL34MN"})
	if want := []string{"AB12CD", "XY99ZZ", "KL34MN"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("mergePlates = %v, want %v", got, want)
	}
}
