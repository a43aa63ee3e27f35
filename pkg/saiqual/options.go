package saiqual

import (
	"fmt"
	"time"

	"github.com/okaravasi/sonic-mgmt/pkg/poll"
	"github.com/okaravasi/sonic-mgmt/pkg/util"
)

// Helper scripts installed on the DUT.
const (
	SaiserverScript       = "prepare_saiserver_service.sh"
	ServicesScript        = "all_service.sh"
	WarmbootScript        = "sai_warmboot.sh"
	WarmbootProfileScript = "sai_warm_profile.sh"
)

// Options configures a Controller. DefaultOptions returns the values used
// in the qualification lab.
type Options struct {
	// Container selects the variant: "saiserver" or "syncd".
	Container string

	// SkipSetup adopts an already deployed environment.
	SkipSetup bool
	// KeepEnv leaves the device as is on Revert.
	KeepEnv bool

	EnablePTFSAITest      bool
	EnableSAITest         bool
	EnableT0WarmbootTest  bool
	EnablePTFWarmbootTest bool

	// ScriptsDir is the local directory holding the helper scripts.
	ScriptsDir string
	// RemoteBinDir is where the scripts and the container start scripts
	// live on the DUT.
	RemoteBinDir string
	Scripts      []string

	// Services are the containers that must be down before the test
	// container starts.
	Services []string

	// EndpointHost overrides the RPC host; the DUT's address by default.
	EndpointHost string
	RPCPort      int
	ProbeTimeout time.Duration
	WarmUp       time.Duration

	AlreadyRunning poll.Config
	StartRetry     poll.Config
	RPCCheck       poll.Config
	ServiceStop    poll.Config
	AdoptProbe     poll.Config
	ServiceRecover poll.Config

	// SocketBufferMax is written to net.core.rmem_max and wmem_max before
	// the image download.
	SocketBufferMax int
}

// DefaultOptions returns the saiserver configuration with lab timings.
func DefaultOptions() Options {
	return Options{
		Container:    SaiserverContainer,
		ScriptsDir:   "scripts/sai_qualify",
		RemoteBinDir: "/usr/bin",
		Scripts:      []string{SaiserverScript, ServicesScript, WarmbootScript, WarmbootProfileScript},
		Services: []string{
			"swss", "syncd", "radv", "lldp", "dhcp_relay",
			"teamd", "bgp", "pmon", "telemetry", "acms",
		},
		RPCPort:         9092,
		ProbeTimeout:    3 * time.Second,
		WarmUp:          5 * time.Second,
		AlreadyRunning:  poll.Config{Timeout: time.Second, Interval: time.Second},
		StartRetry:      poll.Config{Timeout: 140 * time.Second, Interval: 35 * time.Second},
		RPCCheck:        poll.Config{Timeout: 32 * time.Second, Interval: 4 * time.Second},
		ServiceStop:     poll.Config{Timeout: 20 * time.Second, Interval: 4 * time.Second},
		AdoptProbe:      poll.Config{Timeout: 8 * time.Second, Interval: 4 * time.Second},
		ServiceRecover:  poll.Config{Timeout: 300 * time.Second, Interval: 10 * time.Second},
		SocketBufferMax: 609430500,
	}
}

// Validate checks the options for values the controller cannot work with.
func (o Options) Validate() error {
	v := &util.ValidationBuilder{}
	v.Add(o.Container == SaiserverContainer || o.Container == SyncdContainer,
		fmt.Sprintf("container must be %q or %q, got %q", SaiserverContainer, SyncdContainer, o.Container))
	v.Add(o.RPCPort > 0 && o.RPCPort < 65536, fmt.Sprintf("rpc port %d out of range", o.RPCPort))
	v.Add(o.RemoteBinDir != "", "remote bin dir is required")
	v.Add(o.SkipSetup || o.ScriptsDir != "", "scripts dir is required unless setup is skipped")
	v.Add(o.ProbeTimeout > 0, "probe timeout must be positive")
	return v.Build()
}

// ContainerName is the name of the container the options select.
func (o Options) ContainerName() string {
	return ContainerName(o.Container)
}

// ThriftVersion is "v2" when any of the thrift-v2 test modes is enabled.
func (o Options) ThriftVersion() string {
	if o.EnablePTFSAITest || o.EnableSAITest || o.EnableT0WarmbootTest || o.EnablePTFWarmbootTest {
		return "v2"
	}
	return ""
}

// Warmboot reports whether the warmboot SAI profile must be set up.
func (o Options) Warmboot() bool {
	return o.EnableT0WarmbootTest || o.EnablePTFWarmbootTest
}

// SaiserverImage is the saiserver image name for vendor.
func (o Options) SaiserverImage(vendor string) string {
	return fmt.Sprintf("docker-saiserver%s-%s", o.ThriftVersion(), vendor)
}

// SyncdImage is the stock syncd image name for vendor.
func SyncdImage(vendor string) string {
	return "docker-syncd-" + vendor
}

// SyncdRPCImage is the RPC build of the syncd image for vendor.
func SyncdRPCImage(vendor string) string {
	return SyncdImage(vendor) + "-rpc"
}

func (o Options) remotePath(name string) string {
	return o.RemoteBinDir + "/" + name
}

// containerScript is the systemd helper that starts and stops the container.
func (o Options) containerScript(action string) string {
	return "sudo " + o.remotePath(o.ContainerName()+".sh") + " " + action
}
