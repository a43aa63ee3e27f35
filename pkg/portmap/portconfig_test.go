package portmap

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const s6000PortConfig = `# name          lanes                 alias                 index    speed
Ethernet0       29,30,31,32           fortyGigE0/0          0        40000
Ethernet4       25,26,27,28           fortyGigE0/4          1        40000

Ethernet8       37,38,39,40           fortyGigE0/8          2        40000
`

func TestParsePortConfig(t *testing.T) {
	got, err := ParsePortConfig(strings.NewReader(s6000PortConfig))
	if err != nil {
		t.Fatalf("ParsePortConfig() error = %v", err)
	}
	want := []PortConfig{
		{Name: "Ethernet0", Lanes: "29,30,31,32", Alias: "fortyGigE0/0", Index: "0", Speed: "40000"},
		{Name: "Ethernet4", Lanes: "25,26,27,28", Alias: "fortyGigE0/4", Index: "1", Speed: "40000"},
		{Name: "Ethernet8", Lanes: "37,38,39,40", Alias: "fortyGigE0/8", Index: "2", Speed: "40000"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParsePortConfig() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Ethernet0", "Ethernet4", "Ethernet8"}, Names(got)); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"29", "30", "31", "32"}, got[0].LaneList()); diff != "" {
		t.Errorf("LaneList() mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePortConfig_ReorderedColumns(t *testing.T) {
	in := "# name lanes speed alias\nEthernet0 0,1,2,3 100000 etp1\n"
	got, err := ParsePortConfig(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParsePortConfig() error = %v", err)
	}
	want := []PortConfig{{Name: "Ethernet0", Lanes: "0,1,2,3", Speed: "100000", Alias: "etp1"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePortConfig_Malformed(t *testing.T) {
	if _, err := ParsePortConfig(strings.NewReader("Ethernet0\n")); err == nil {
		t.Error("ParsePortConfig() accepted a line without lanes")
	}
}
