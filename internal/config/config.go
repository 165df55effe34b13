package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	OutputDir     string `mapstructure:"output_dir" yaml:"output_dir"`
	ReportName    string `mapstructure:"report_name" yaml:"report_name"`
	AnomalyColumn string `mapstructure:"anomaly_column" yaml:"anomaly_column"`

	// Charts
	Charts      bool `mapstructure:"charts" yaml:"charts"`
	ChartWidth  int  `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight int  `mapstructure:"chart_height" yaml:"chart_height"`

	// Table parsing
	Delimiter          string `mapstructure:"delimiter" yaml:"delimiter"`
	DecimalSeparator   string `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	ThousandsSeparator string `mapstructure:"thousands_separator" yaml:"thousands_separator"`
	MaxRows            int    `mapstructure:"max_rows" yaml:"max_rows"`

	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

const (
	dirName  = ".datastory"
	fileName = "config.yaml"
)

// Default returns the built-in configuration.
func Default() *Global {
	return &Global{
		OutputDir:   "reports",
		ReportName:  "report.md",
		Charts:      true,
		ChartWidth:  800,
		ChartHeight: 600,
		LogFormat:   "console",
	}
}

// Path resolves the config file location: cfgFile when set, else
// ~/.datastory/config.yaml.
func Path(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName, fileName), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.datastory/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path, err := Path(cfgFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DATASTORY")
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("report_name", d.ReportName)
	v.SetDefault("anomaly_column", "")
	v.SetDefault("charts", d.Charts)
	v.SetDefault("chart_width", d.ChartWidth)
	v.SetDefault("chart_height", d.ChartHeight)
	v.SetDefault("delimiter", "")
	v.SetDefault("decimal_separator", "")
	v.SetDefault("thousands_separator", "")
	v.SetDefault("max_rows", 0)
	v.SetDefault("log_format", d.LogFormat)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, dirName))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; a broken one is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// setters validates and applies a single key.
var setters = map[string]func(c *Global, v string) error{
	"output_dir": func(c *Global, v string) error { c.OutputDir = v; return nil },
	"report_name": func(c *Global, v string) error {
		if v == "" || strings.ContainsAny(v, `/\`) {
			return fmt.Errorf("report_name must be a plain file name")
		}
		c.ReportName = v
		return nil
	},
	"anomaly_column": func(c *Global, v string) error { c.AnomalyColumn = v; return nil },
	"charts": func(c *Global, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("charts must be true or false")
		}
		c.Charts = b
		return nil
	},
	"chart_width":  positiveInt(func(c *Global, n int) { c.ChartWidth = n }),
	"chart_height": positiveInt(func(c *Global, n int) { c.ChartHeight = n }),
	"delimiter": func(c *Global, v string) error {
		if len([]rune(v)) > 1 && v != `\t` {
			return fmt.Errorf("delimiter must be a single character")
		}
		c.Delimiter = v
		return nil
	},
	"decimal_separator": separator(func(c *Global, v string) { c.DecimalSeparator = v }),
	"thousands_separator": func(c *Global, v string) error {
		switch v {
		case "", ",", ".", " ", "'":
			c.ThousandsSeparator = v
			return nil
		}
		return fmt.Errorf("thousands_separator must be one of ',', '.', ' ', \"'\"")
	},
	"max_rows": func(c *Global, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("max_rows must be a non-negative integer")
		}
		c.MaxRows = n
		return nil
	},
	"log_format": func(c *Global, v string) error {
		switch v {
		case "console", "json":
			c.LogFormat = v
			return nil
		}
		return fmt.Errorf("log_format must be console or json")
	},
}

func positiveInt(apply func(c *Global, n int)) func(c *Global, v string) error {
	return func(c *Global, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("value must be a positive integer")
		}
		apply(c, n)
		return nil
	}
}

func separator(apply func(c *Global, v string)) func(c *Global, v string) error {
	return func(c *Global, v string) error {
		switch v {
		case "", ",", ".":
			apply(c, v)
			return nil
		}
		return fmt.Errorf("separator must be ',' or '.'")
	}
}

// Keys lists the settable keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set validates value and assigns it to key.
func (c *Global) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	if err := set(c, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}
