package saiqual

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/okaravasi/sonic-mgmt/pkg/portmap"
	"github.com/okaravasi/sonic-mgmt/pkg/remote"
	"github.com/okaravasi/sonic-mgmt/pkg/util"
)

// PortSource lists the DUT's front-panel port names in any order.
type PortSource func(ctx context.Context) ([]string, error)

// StaticPorts is a PortSource returning a fixed list.
func StaticPorts(names ...string) PortSource {
	return func(context.Context) ([]string, error) {
		return names, nil
	}
}

// PTF prepares the traffic-generation host for a test session.
type PTF struct {
	Exec  remote.Executor
	Ports PortSource
	// LocalDir holds the generated port map; the system temp dir by default.
	LocalDir string
	// RemoteDir receives the port map on the PTF host.
	RemoteDir string

	ports      []string
	remotePath string
	cleaned    bool
}

// NewPTF returns a PTF with the default port map locations.
func NewPTF(e remote.Executor, ports PortSource) *PTF {
	return &PTF{Exec: e, Ports: ports, RemoteDir: portmap.DefaultRemoteDir}
}

// Prepare writes the port map for the DUT's Ethernet ports and pushes it to
// the PTF host.
func (p *PTF) Prepare(ctx context.Context) error {
	if p.Ports == nil {
		return fmt.Errorf("saiqual: %w: no port source for the PTF port map", util.ErrInvalidConfig)
	}
	names, err := p.Ports(ctx)
	if err != nil {
		return fmt.Errorf("saiqual: listing DUT ports: %w", err)
	}

	dir := p.LocalDir
	if dir == "" {
		dir = os.TempDir()
	}
	local := filepath.Join(dir, portmap.FileName)
	sorted, err := portmap.Write(local, names)
	if err != nil {
		return err
	}
	log := util.WithHost(p.Exec.Host())
	if len(sorted) == 0 {
		log.Warnf("None of the %d DUT ports is an Ethernet port, port map is empty", len(names))
	}

	dest, err := portmap.Push(ctx, p.Exec, local, p.remoteDir())
	if err != nil {
		return err
	}
	p.ports = sorted
	p.remotePath = dest
	p.cleaned = false
	log.Infof("Port map with %d ports written to %s", len(sorted), dest)
	return nil
}

func (p *PTF) remoteDir() string {
	if p.RemoteDir == "" {
		return portmap.DefaultRemoteDir
	}
	return p.RemoteDir
}

// Cleanup removes the port map from the PTF host: the one Prepare pushed,
// or the one at the default location left by an earlier run. Calling it
// again does nothing.
func (p *PTF) Cleanup(ctx context.Context) error {
	if p.cleaned {
		return nil
	}
	file := p.remotePath
	if file == "" {
		file = path.Join(p.remoteDir(), portmap.FileName)
	}
	if err := portmap.Delete(ctx, p.Exec, file); err != nil {
		return err
	}
	p.remotePath = ""
	p.cleaned = true
	return nil
}

// MappedPorts returns the ports in the pushed port map, in map order.
func (p *PTF) MappedPorts() []string {
	return p.ports
}

// InterfaceArgs is the ptf --interface list matching the port map.
func (p *PTF) InterfaceArgs() string {
	return portmap.InterfaceArgs(len(p.ports))
}

// InstallSaithrift downloads the python saithrift package at url into
// /root on the PTF host and installs it.
func (p *PTF) InstallSaithrift(ctx context.Context, url string) error {
	if url == "" {
		return fmt.Errorf("saiqual: %w: no URL specified for python saithrift package", util.ErrInvalidConfig)
	}
	pkg := url[strings.LastIndex(url, "/")+1:]
	if pkg == "" {
		return fmt.Errorf("saiqual: %w: %q names no package", util.ErrInvalidConfig, url)
	}
	dest := path.Join("/root", pkg)
	log := util.WithHost(p.Exec.Host())

	remote.RunIgnoreErrors(ctx, p.Exec, "rm -f "+remote.Quote(dest))
	log.Infof("Downloading python saithrift from %s", url)
	if _, err := remote.Run(ctx, p.Exec, remote.Join("curl", "-fsSL", "-o", dest, url)); err != nil {
		return &util.DownloadError{Image: url, Err: err}
	}
	if _, err := remote.Run(ctx, p.Exec, "dpkg -i "+remote.Quote(dest)); err != nil {
		return fmt.Errorf("saiqual: installing %s: %w", pkg, err)
	}
	log.Info("Python saithrift package installed")
	return nil
}
