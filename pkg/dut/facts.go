// Package dut gathers facts about the SONiC device under test and manages its
// docker containers and images.
package dut

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okaravasi/sonic-mgmt/pkg/remote"
	"github.com/okaravasi/sonic-mgmt/pkg/util"
)

// VersionFile is where SONiC records the build it is running.
const VersionFile = "/etc/sonic/sonic_version.yml"

// Facts is the subset of sonic_version.yml the harness needs.
type Facts struct {
	AsicType      string `yaml:"asic_type"`
	AsicSubtype   string `yaml:"asic_subtype,omitempty"`
	BuildVersion  string `yaml:"build_version"`
	DebianVersion string `yaml:"debian_version,omitempty"`
	KernelVersion string `yaml:"kernel_version,omitempty"`
	CommitID      string `yaml:"commit_id,omitempty"`
	BuildDate     string `yaml:"build_date,omitempty"`
}

// OSVersion is the image tag the SONiC build publishes its containers under.
func (f *Facts) OSVersion() string {
	return f.BuildVersion
}

// VendorID maps the ASIC type to the short vendor name used in image names.
func (f *Facts) VendorID() (string, error) {
	return VendorID(f.AsicType)
}

// ParseFacts decodes the content of sonic_version.yml.
func ParseFacts(data []byte) (*Facts, error) {
	var f Facts
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("dut: parsing %s: %w", VersionFile, err)
	}
	f.BuildVersion = strings.Trim(f.BuildVersion, "'\"")
	if f.AsicType == "" || f.BuildVersion == "" {
		return nil, fmt.Errorf("dut: %s lacks asic_type or build_version", VersionFile)
	}
	return &f, nil
}

// LoadFacts reads sonic_version.yml from the device.
func LoadFacts(ctx context.Context, e remote.Executor) (*Facts, error) {
	res, err := remote.Run(ctx, e, "cat "+VersionFile)
	if err != nil {
		return nil, fmt.Errorf("dut: reading facts from %s: %w", e.Host(), err)
	}
	f, err := ParseFacts([]byte(strings.Join(res.Stdout, "\n")))
	if err != nil {
		return nil, err
	}
	util.WithHost(e.Host()).Debugf("asic_type=%s build_version=%s", f.AsicType, f.BuildVersion)
	return f, nil
}

// VendorID maps a SONiC asic_type to its vendor short name. Platforms with
// no SAI test image yield *util.UnsupportedVendorError.
func VendorID(asicType string) (string, error) {
	switch asicType {
	case "broadcom":
		return "brcm", nil
	case "mellanox":
		return "mlnx", nil
	case "barefoot":
		return "bfn", nil
	case "marvell", "marvell-prestera":
		return "mrvl", nil
	}
	return "", &util.UnsupportedVendorError{AsicType: asicType}
}
