package util

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitCommaSeparated(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"swss", 1},
		{"swss,syncd", 2},
		{"swss, syncd, bgp", 3},
		{"swss,,syncd,", 2},
	}

	for _, tt := range tests {
		got := SplitCommaSeparated(tt.input)
		if len(got) != tt.want {
			t.Errorf("SplitCommaSeparated(%q) = %v (len %d), want len %d", tt.input, got, len(got), tt.want)
		}
	}
}

func TestNaturalLess(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"Ethernet0", "Ethernet8", true},
		{"Ethernet8", "Ethernet16", true},
		{"Ethernet16", "Ethernet8", false},
		{"Ethernet8", "Ethernet8", false},
		{"Ethernet", "Ethernet0", true},
		{"Ethernet1/2", "Ethernet1/10", true},
		{"Ethernet01", "Ethernet1", false},
		{"Ethernet1", "Ethernet01", true},
		{"Eth9", "Ethernet0", true},
	}

	for _, tt := range tests {
		if got := NaturalLess(tt.a, tt.b); got != tt.want {
			t.Errorf("NaturalLess(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestNaturalSort(t *testing.T) {
	names := []string{"Ethernet8", "Ethernet0", "Ethernet16", "Ethernet100", "Ethernet4"}
	NaturalSort(names)

	want := []string{"Ethernet0", "Ethernet4", "Ethernet8", "Ethernet16", "Ethernet100"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("NaturalSort mismatch (-want +got):\n%s", diff)
	}
}
