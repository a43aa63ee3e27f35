// Package portmap generates the file that maps PTF host interfaces to the
// switch's front-panel ports.
//
// The file is a header comment followed by one "<index>@<port>" line per
// Ethernet port, ports in natural order:
//
//	# ptf host interface @ switch front port name
//	0@Ethernet0
//	1@Ethernet4
package portmap

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/okaravasi/sonic-mgmt/pkg/remote"
	"github.com/okaravasi/sonic-mgmt/pkg/util"
)

// Header is the first line of every port map.
const Header = "# ptf host interface @ switch front port name"

// FileName is the name of the port map on both ends.
const FileName = "default_interface_to_front_map.ini"

// DefaultRemoteDir is where the PTF tests look for the port map.
const DefaultRemoteDir = "/tmp"

// DefaultPath is the port map location on the PTF host.
var DefaultPath = path.Join(DefaultRemoteDir, FileName)

// Sort keeps the names starting with "Ethernet" and orders them naturally,
// so Ethernet8 sorts before Ethernet16.
func Sort(ports []string) []string {
	out := make([]string, 0, len(ports))
	for _, p := range ports {
		if strings.HasPrefix(p, "Ethernet") {
			out = append(out, p)
		}
	}
	util.NaturalSort(out)
	return out
}

// Render returns the port map for ports, numbered in the order given.
func Render(ports []string) []byte {
	var b bytes.Buffer
	b.WriteString(Header + "\n")
	for i, p := range ports {
		fmt.Fprintf(&b, "%d@%s\n", i, p)
	}
	return b.Bytes()
}

// Write sorts ports and writes the port map to file, returning the sorted
// list. Without Ethernet ports the file holds only the header.
func Write(file string, ports []string) ([]string, error) {
	sorted := Sort(ports)
	if err := os.WriteFile(file, Render(sorted), 0644); err != nil {
		return nil, fmt.Errorf("portmap: write %s: %w", file, err)
	}
	return sorted, nil
}

// Push copies the local port map into remoteDir on the PTF host and returns
// the remote path.
func Push(ctx context.Context, ptf remote.Executor, localPath, remoteDir string) (string, error) {
	dest := path.Join(remoteDir, filepath.Base(localPath))
	util.WithHost(ptf.Host()).Infof("Copying port map to %s", dest)
	if err := ptf.CopyFile(ctx, localPath, dest); err != nil {
		return "", fmt.Errorf("portmap: push to %s:%s: %w", ptf.Host(), dest, err)
	}
	return dest, nil
}

// Delete removes the port map from the PTF host.
func Delete(ctx context.Context, ptf remote.Executor, file string) error {
	util.WithHost(ptf.Host()).Infof("Deleting %s", file)
	if err := ptf.DeleteFile(ctx, file); err != nil {
		return fmt.Errorf("portmap: delete %s:%s: %w", ptf.Host(), file, err)
	}
	return nil
}

// InterfaceArgs returns the ptf command-line interface list for n ports:
// --interface '0-0@eth0' --interface '0-1@eth1' ...
func InterfaceArgs(n int) string {
	args := make([]string, n)
	for i := range args {
		args[i] = fmt.Sprintf("--interface '0-%d@eth%d'", i, i)
	}
	return strings.Join(args, " ")
}
