package portmap

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/okaravasi/sonic-mgmt/pkg/util"
)

// PortConfig is one row of a SONiC port_config.ini.
type PortConfig struct {
	Name  string
	Lanes string
	Alias string
	Index string
	Speed string
}

// LaneList returns the port's serdes lanes.
func (p PortConfig) LaneList() []string {
	return util.SplitCommaSeparated(p.Lanes)
}

// ParsePortConfig reads a port_config.ini. The column layout comes from the
// "# name lanes alias ..." header; files without one are read as
// name, lanes, alias, index, speed.
func ParsePortConfig(r io.Reader) ([]PortConfig, error) {
	columns := []string{"name", "lanes", "alias", "index", "speed"}
	var ports []PortConfig

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "#") {
			fields := strings.Fields(strings.TrimPrefix(text, "#"))
			if len(fields) > 0 && fields[0] == "name" {
				columns = fields
			}
			continue
		}

		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, fmt.Errorf("portmap: port_config line %d: expected at least name and lanes", line)
		}
		var pc PortConfig
		for i, col := range columns {
			if i >= len(fields) {
				break
			}
			switch col {
			case "name":
				pc.Name = fields[i]
			case "lanes":
				pc.Lanes = fields[i]
			case "alias":
				pc.Alias = fields[i]
			case "index":
				pc.Index = fields[i]
			case "speed":
				pc.Speed = fields[i]
			}
		}
		ports = append(ports, pc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("portmap: reading port_config: %w", err)
	}
	return ports, nil
}

// Names returns the port names of a parsed port_config.
func Names(ports []PortConfig) []string {
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.Name
	}
	return names
}
