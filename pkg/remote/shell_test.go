package remote

import "testing"

func TestQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/usr/bin/all_service.sh", "/usr/bin/all_service.sh"},
		{"saiserver", "saiserver"},
		{"registry.example.com:5000/docker-saiserverv2-brcm:20230531.01", "registry.example.com:5000/docker-saiserverv2-brcm:20230531.01"},
		{"", "''"},
		{"has space", "'has space'"},
		{"{{.State.Running}}", "'{{.State.Running}}'"},
		{"it's", `'it'\''s'`},
		{"~/scripts/run.sh", "~/'scripts/run.sh'"},
		{"$(reboot)", "'$(reboot)'"},
	}
	for _, tt := range tests {
		if got := Quote(tt.in); got != tt.want {
			t.Errorf("Quote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJoin(t *testing.T) {
	got := Join("docker", "inspect", "-f", "{{.State.Running}}", "syncd")
	want := "docker inspect -f '{{.State.Running}}' syncd"
	if got != want {
		t.Errorf("Join() = %q, want %q", got, want)
	}
}
