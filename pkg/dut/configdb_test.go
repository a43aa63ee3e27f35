package dut

import (
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseConfigDBPorts(t *testing.T) {
	in := `{
		"DEVICE_METADATA": {"localhost": {"hwsku": "Force10-S6000"}},
		"PORT": {
			"Ethernet8": {"lanes": "37,38,39,40", "alias": "fortyGigE0/8"},
			"Ethernet0": {"lanes": "29,30,31,32", "alias": "fortyGigE0/0"},
			"Ethernet4": {"lanes": "25,26,27,28", "alias": "fortyGigE0/4"}
		}
	}`
	got, err := ParseConfigDBPorts(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseConfigDBPorts() error = %v", err)
	}
	sort.Strings(got)
	if diff := cmp.Diff([]string{"Ethernet0", "Ethernet4", "Ethernet8"}, got); diff != "" {
		t.Errorf("ports mismatch (-want +got):\n%s", diff)
	}

	if _, err := ParseConfigDBPorts(strings.NewReader("{")); err == nil {
		t.Error("ParseConfigDBPorts(truncated) succeeded")
	}
}
