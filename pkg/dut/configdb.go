package dut

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/go-redis/redis/v8"
)

// ConfigDBIndex is the redis database number of SONiC's CONFIG_DB.
const ConfigDBIndex = 4

// ConfigDB reads the running configuration from the device's redis.
type ConfigDB struct {
	client *redis.Client
}

// NewConfigDB connects to CONFIG_DB at addr, normally a Tunnel's LocalAddr.
func NewConfigDB(addr string) *ConfigDB {
	return &ConfigDB{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   ConfigDBIndex,
		}),
	}
}

// Ping tests the connection.
func (c *ConfigDB) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the connection.
func (c *ConfigDB) Close() error {
	return c.client.Close()
}

// TableKeys returns the entry names of a table, without the "TABLE|" prefix.
func (c *ConfigDB) TableKeys(ctx context.Context, table string) ([]string, error) {
	keys, err := c.client.Keys(ctx, table+"|*").Result()
	if err != nil {
		return nil, fmt.Errorf("dut: listing %s keys: %w", table, err)
	}
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		names = append(names, strings.TrimPrefix(key, table+"|"))
	}
	return names, nil
}

// Ports returns the names in the PORT table, unsorted.
func (c *ConfigDB) Ports(ctx context.Context) ([]string, error) {
	return c.TableKeys(ctx, "PORT")
}

// Metadata returns DEVICE_METADATA|localhost (hwsku, platform, hostname...).
func (c *ConfigDB) Metadata(ctx context.Context) (map[string]string, error) {
	return c.client.HGetAll(ctx, "DEVICE_METADATA|localhost").Result()
}

// ParseConfigDBPorts reads the port names from a config_db.json dump.
func ParseConfigDBPorts(r io.Reader) ([]string, error) {
	var db struct {
		Port map[string]map[string]string `json:"PORT"`
	}
	if err := json.NewDecoder(r).Decode(&db); err != nil {
		return nil, fmt.Errorf("dut: parsing config_db: %w", err)
	}
	names := make([]string, 0, len(db.Port))
	for name := range db.Port {
		names = append(names, name)
	}
	return names, nil
}
