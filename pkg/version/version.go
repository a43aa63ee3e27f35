// Package version carries build identification stamped in by the linker.
package version

// Version, GitCommit, and BuildDate are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/okaravasi/sonic-mgmt/pkg/version.Version=v1.0.0 \
//	  -X github.com/okaravasi/sonic-mgmt/pkg/version.GitCommit=abc1234 \
//	  -X github.com/okaravasi/sonic-mgmt/pkg/version.BuildDate=2026-01-01T00:00:00Z"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns a formatted version string for display.
func Info() string {
	return Version + " (" + GitCommit + ") built " + BuildDate
}

// IsDev reports whether this binary was built without ldflags.
func IsDev() bool {
	return Version == "dev"
}
