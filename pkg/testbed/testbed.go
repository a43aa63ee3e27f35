// Package testbed loads the yaml description of the DUT, PTF host and image
// registry a qualification run uses.
package testbed

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/okaravasi/sonic-mgmt/pkg/dut"
	"github.com/okaravasi/sonic-mgmt/pkg/remote"
	"github.com/okaravasi/sonic-mgmt/pkg/util"
)

// Host is a machine the harness logs into over SSH.
type Host struct {
	Name     string `yaml:"name,omitempty"`
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"password,omitempty"`
	SSHPort  int    `yaml:"ssh_port,omitempty"`
}

// Label is the host's name, or its address when unnamed.
func (h Host) Label() string {
	if h.Name != "" {
		return h.Name
	}
	return h.Host
}

// SSHConfig returns the connection settings for h.
func (h Host) SSHConfig() remote.SSHConfig {
	return remote.SSHConfig{
		Host:     h.Host,
		Port:     h.SSHPort,
		User:     h.User,
		Password: h.Password,
	}
}

// Testbed is the contents of a testbed file.
type Testbed struct {
	Name     string       `yaml:"name,omitempty"`
	DUT      Host         `yaml:"dut"`
	PTF      *Host        `yaml:"ptf,omitempty"`
	Registry dut.Registry `yaml:"registry"`
}

// Load reads and validates a testbed file. ${VAR} references in
// passwords are expanded from the environment.
func Load(path string) (*Testbed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testbed: %w", err)
	}
	tb, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("testbed: %s: %w", path, err)
	}
	return tb, nil
}

// Parse decodes and validates testbed yaml.
func Parse(data []byte) (*Testbed, error) {
	var tb Testbed
	if err := yaml.Unmarshal(data, &tb); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	tb.DUT.Password = os.ExpandEnv(tb.DUT.Password)
	if tb.PTF != nil {
		tb.PTF.Password = os.ExpandEnv(tb.PTF.Password)
	}
	tb.Registry.Password = os.ExpandEnv(tb.Registry.Password)

	if err := tb.Validate(); err != nil {
		return nil, err
	}
	return &tb, nil
}

// Validate checks that every host can be reached.
func (tb *Testbed) Validate() error {
	v := &util.ValidationBuilder{}
	validateHost(v, "dut", tb.DUT)
	if tb.PTF != nil {
		validateHost(v, "ptf", *tb.PTF)
	}
	v.Add(tb.Registry.Password == "" || tb.Registry.Username != "",
		"registry: password given without username")
	return v.Build()
}

func validateHost(v *util.ValidationBuilder, role string, h Host) {
	v.Add(h.Host != "", role+": host is required")
	v.Add(h.User != "", role+": user is required")
	if h.SSHPort < 0 || h.SSHPort > 65535 {
		v.AddErrorf("%s: ssh_port %d out of range", role, h.SSHPort)
	}
}

// PasswordReader reads a secret after showing prompt.
type PasswordReader func(prompt string) (string, error)

// TerminalPasswords reads passwords from in without echo. It returns nil
// when in is not a terminal, so callers never block on a pipe.
func TerminalPasswords(in *os.File, out io.Writer) PasswordReader {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	return func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		pw, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}
}

// LinePasswords reads one password per line from r, echoing the prompt to
// out. Used when stdin is piped.
func LinePasswords(r io.Reader, out io.Writer) PasswordReader {
	br := bufio.NewReader(r)
	return func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		line, err := br.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
}

// FillPasswords asks read for every host password the file left empty. A
// nil read leaves them empty.
func (tb *Testbed) FillPasswords(read PasswordReader) error {
	if read == nil {
		return nil
	}
	hosts := []*Host{&tb.DUT}
	if tb.PTF != nil {
		hosts = append(hosts, tb.PTF)
	}
	for _, h := range hosts {
		if h.Password != "" {
			continue
		}
		pw, err := read(fmt.Sprintf("%s@%s's password: ", h.User, h.Label()))
		if err != nil {
			return fmt.Errorf("testbed: reading password for %s: %w", h.Label(), err)
		}
		h.Password = pw
	}
	return nil
}
