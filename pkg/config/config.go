// Package config loads the run configuration of a qualification session.
// Values are layered, lowest first: built-in defaults, persisted settings,
// the yaml config file, SAIQUAL_* environment variables and command-line
// flags.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/okaravasi/sonic-mgmt/pkg/saiqual"
	"github.com/okaravasi/sonic-mgmt/pkg/settings"
	"github.com/okaravasi/sonic-mgmt/pkg/util"
)

// EnvPrefix prefixes the environment variables read for every key.
const EnvPrefix = "SAIQUAL"

// Container runtime backends.
const (
	RuntimeCLI = "cli"
	RuntimeAPI = "api"
)

// Run is the configuration of one qualification run.
type Run struct {
	Container             string `mapstructure:"container"`
	SkipSetup             bool   `mapstructure:"skip_setup"`
	KeepEnv               bool   `mapstructure:"keep_env"`
	EnablePTFSAITest      bool   `mapstructure:"enable_ptf_sai_test"`
	EnableSAITest         bool   `mapstructure:"enable_sai_test"`
	EnableT0WarmbootTest  bool   `mapstructure:"enable_t0_warmboot_test"`
	EnablePTFWarmbootTest bool   `mapstructure:"enable_ptf_warmboot_test"`

	// PortConfigFile and ConfigDBFile are local fallbacks for the DUT port
	// list when CONFIG_DB cannot be read.
	PortConfigFile string `mapstructure:"port_config_file"`
	ConfigDBFile   string `mapstructure:"config_db_file"`

	OriginVersion  string `mapstructure:"origin_version"`
	UpgradeVersion string `mapstructure:"upgrade_version"`

	ScriptsDir string `mapstructure:"scripts_dir"`
	Testbed    string `mapstructure:"testbed"`
	Runtime    string `mapstructure:"runtime"`
	Report     string `mapstructure:"report"`
	StoreDir   string `mapstructure:"store_dir"`

	RPCPort      int           `mapstructure:"rpc_port"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
	StartTimeout time.Duration `mapstructure:"start_timeout"`
}

// Default returns the built-in run configuration.
func Default() Run {
	o := saiqual.DefaultOptions()
	return Run{
		Container:    o.Container,
		ScriptsDir:   settings.DefaultScriptsDir,
		Runtime:      RuntimeCLI,
		RPCPort:      o.RPCPort,
		ProbeTimeout: o.ProbeTimeout,
		StartTimeout: o.StartRetry.Timeout,
	}
}

// keys are the configuration keys, as used in the yaml file.
var keys = []string{
	"container", "skip_setup", "keep_env",
	"enable_ptf_sai_test", "enable_sai_test", "enable_t0_warmboot_test", "enable_ptf_warmboot_test",
	"port_config_file", "config_db_file", "origin_version", "upgrade_version",
	"scripts_dir", "testbed", "runtime", "report", "store_dir",
	"rpc_port", "probe_timeout", "start_timeout",
}

func defaults(d Run) map[string]interface{} {
	return map[string]interface{}{
		"container":                d.Container,
		"skip_setup":               d.SkipSetup,
		"keep_env":                 d.KeepEnv,
		"enable_ptf_sai_test":      d.EnablePTFSAITest,
		"enable_sai_test":          d.EnableSAITest,
		"enable_t0_warmboot_test":  d.EnableT0WarmbootTest,
		"enable_ptf_warmboot_test": d.EnablePTFWarmbootTest,
		"port_config_file":         d.PortConfigFile,
		"config_db_file":           d.ConfigDBFile,
		"origin_version":           d.OriginVersion,
		"upgrade_version":          d.UpgradeVersion,
		"scripts_dir":              d.ScriptsDir,
		"testbed":                  d.Testbed,
		"runtime":                  d.Runtime,
		"report":                   d.Report,
		"store_dir":                d.StoreDir,
		"rpc_port":                 d.RPCPort,
		"probe_timeout":            d.ProbeTimeout,
		"start_timeout":            d.StartTimeout,
	}
}

// Loader layers the configuration sources.
type Loader struct {
	viper *viper.Viper
}

// NewLoader returns a loader holding the built-in defaults.
func NewLoader() *Loader {
	v := viper.New()
	for key, value := range defaults(Default()) {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return &Loader{viper: v}
}

// ApplySettings makes the persisted user settings the new defaults.
func (l *Loader) ApplySettings(s *settings.Settings) {
	if s == nil {
		return
	}
	if s.Testbed != "" {
		l.viper.SetDefault("testbed", s.Testbed)
	}
	if s.ScriptsDir != "" {
		l.viper.SetDefault("scripts_dir", s.ScriptsDir)
	}
	if s.Container != "" {
		l.viper.SetDefault("container", s.Container)
	}
}

// AddFlags defines a flag for every run setting on fs and binds it. Flag
// names use dashes: --skip-setup sets skip_setup.
func (l *Loader) AddFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("container", "", "test container: saiserver or syncd")
	fs.Bool("skip-setup", d.SkipSetup, "adopt an already deployed environment")
	fs.Bool("keep-env", d.KeepEnv, "leave the environment deployed on revert")
	fs.Bool("enable-ptf-sai-test", d.EnablePTFSAITest, "run the PTF SAI tests (thrift v2)")
	fs.Bool("enable-sai-test", d.EnableSAITest, "run the SAI tests (thrift v2)")
	fs.Bool("enable-t0-warmboot-test", d.EnableT0WarmbootTest, "run the T0 warmboot tests")
	fs.Bool("enable-ptf-warmboot-test", d.EnablePTFWarmbootTest, "run the PTF warmboot tests")
	fs.String("port-config-file", "", "local port_config.ini used for the port map")
	fs.String("config-db-file", "", "local config_db.json used for the port map")
	fs.String("origin-version", "", "SAI version the run starts from")
	fs.String("upgrade-version", "", "SAI version the run upgrades to")
	fs.String("scripts-dir", "", "local directory with the DUT helper scripts")
	fs.StringP("testbed", "t", "", "testbed file")
	fs.String("runtime", "", "container runtime backend: cli or api")
	fs.String("report", "", "write a JUnit report to this path")
	fs.String("store-dir", "", "session state directory")
	fs.Int("rpc-port", d.RPCPort, "RPC endpoint port")
	fs.Duration("probe-timeout", d.ProbeTimeout, "timeout of one readiness probe")
	fs.Duration("start-timeout", d.StartTimeout, "total time allowed for the container to start")

	fs.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if isKey(key) {
			l.viper.BindPFlag(key, f)
		}
	})
}

func isKey(key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// Load reads the optional yaml file at path and returns the layered
// configuration.
func (l *Loader) Load(path string) (*Run, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		l.viper.SetConfigFile(path)
		l.viper.SetConfigType("yaml")
		if err := l.viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	var run Run
	if err := l.viper.Unmarshal(&run); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := run.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &run, nil
}

// Validate checks the values the controller options do not cover.
func (r *Run) Validate() error {
	v := &util.ValidationBuilder{}
	v.Add(r.Runtime == RuntimeCLI || r.Runtime == RuntimeAPI,
		fmt.Sprintf("runtime must be %q or %q, got %q", RuntimeCLI, RuntimeAPI, r.Runtime))
	v.Add(r.PortConfigFile == "" || r.ConfigDBFile == "",
		"port_config_file and config_db_file are mutually exclusive")
	v.Add(r.StartTimeout > 0, "start_timeout must be positive")
	if err := v.Build(); err != nil {
		return err
	}
	_, err := r.Options()
	return err
}

// Options returns the controller options for the run.
func (r *Run) Options() (saiqual.Options, error) {
	o := saiqual.DefaultOptions()
	o.Container = r.Container
	o.SkipSetup = r.SkipSetup
	o.KeepEnv = r.KeepEnv
	o.EnablePTFSAITest = r.EnablePTFSAITest
	o.EnableSAITest = r.EnableSAITest
	o.EnableT0WarmbootTest = r.EnableT0WarmbootTest
	o.EnablePTFWarmbootTest = r.EnablePTFWarmbootTest
	o.ScriptsDir = r.ScriptsDir
	o.RPCPort = r.RPCPort
	o.ProbeTimeout = r.ProbeTimeout
	o.StartRetry.Timeout = r.StartTimeout
	if err := o.Validate(); err != nil {
		return saiqual.Options{}, err
	}
	return o, nil
}
