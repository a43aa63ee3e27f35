// Package saiqual deploys the SAI test container on a SONiC DUT, waits for
// its RPC endpoint, prepares the PTF host and reverts the device afterwards.
//
// A Controller owns one container descriptor and walks it through the
// lifecycle
//
//	UNDEPLOYED -> DEPLOYING -> READY | FAILED -> TEARING_DOWN -> UNDEPLOYED
//
// Every remote effect goes through a remote.Executor and a dut.Runtime, so
// the whole lifecycle runs against fakes in tests.
package saiqual

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/okaravasi/sonic-mgmt/pkg/util"
)

// State is the lifecycle state of the test container.
type State int

const (
	Undeployed State = iota
	Deploying
	Ready
	Failed
	TearingDown
)

var stateNames = [...]string{
	Undeployed:  "UNDEPLOYED",
	Deploying:   "DEPLOYING",
	Ready:       "READY",
	Failed:      "FAILED",
	TearingDown: "TEARING_DOWN",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// ParseState is the inverse of State.String.
func ParseState(s string) (State, error) {
	for i, name := range stateNames {
		if strings.EqualFold(s, name) {
			return State(i), nil
		}
	}
	return Undeployed, fmt.Errorf("saiqual: unknown lifecycle state %q", s)
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	v, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// next lists the states each state may move to.
var next = map[State][]State{
	Undeployed:  {Deploying},
	Deploying:   {Ready, Failed},
	Ready:       {TearingDown},
	Failed:      {TearingDown},
	TearingDown: {Undeployed},
}

// CanTransition reports whether the lifecycle allows s -> to.
func (s State) CanTransition(to State) bool {
	for _, allowed := range next[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to State) error {
	if !from.CanTransition(to) {
		return &util.TransitionError{From: from.String(), To: to.String()}
	}
	return nil
}

// Container names.
const (
	SaiserverContainer = "saiserver"
	SyncdContainer     = "syncd"
)

// ContainerName resolves the configured container option: anything other
// than "saiserver" selects the syncd RPC variant.
func ContainerName(option string) string {
	if option == SaiserverContainer {
		return SaiserverContainer
	}
	return SyncdContainer
}

// Descriptor identifies the test container and its RPC endpoint.
type Descriptor struct {
	Name         string `json:"name"`
	EndpointHost string `json:"endpoint_host"`
	EndpointPort int    `json:"endpoint_port"`
}

// Endpoint returns host:port of the RPC server.
func (d Descriptor) Endpoint() string {
	return net.JoinHostPort(d.EndpointHost, strconv.Itoa(d.EndpointPort))
}

// Progress records which remote resources a deployment has touched, so a
// revert only undoes what was done.
type Progress struct {
	ScriptsCopied    bool `json:"scripts_copied,omitempty"`
	ServicesStopped  bool `json:"services_stopped,omitempty"`
	ImagePrepared    bool `json:"image_prepared,omitempty"`
	WarmbootInit     bool `json:"warmboot_init,omitempty"`
	ContainerStarted bool `json:"container_started,omitempty"`
}

// Any reports whether any remote resource was touched.
func (p Progress) Any() bool {
	return p.ScriptsCopied || p.ServicesStopped || p.ImagePrepared || p.WarmbootInit || p.ContainerStarted
}

// fullProgress marks every resource as reached. Used when adopting an
// environment deployed earlier.
func fullProgress(warmboot bool) Progress {
	return Progress{
		ScriptsCopied:    true,
		ServicesStopped:  true,
		ImagePrepared:    true,
		WarmbootInit:     warmboot,
		ContainerStarted: true,
	}
}
