package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
)

type Configuration struct {
	configFs afero.Fs
	dir      string

	Prompt       string `json:"prompt"`
	MaxJobs      int    `json:"max_jobs" validate:"gte=1,lte=4096"`
	Color        string `json:"color" validate:"oneof=auto always never"`
	EventLog     string `json:"event_log"`
	HistoryLimit int    `json:"history_limit" validate:"gte=0,lte=10000"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

func (c *Configuration) fs() afero.Fs {
	if c.configFs == nil {
		return afero.NewOsFs()
	}
	return c.configFs
}

// EventLogPath returns the path of the event log, relative paths are
// resolved against the configuration directory. It's empty if logging is
// disabled.
func (c *Configuration) EventLogPath() string {
	if c.EventLog == "" || filepath.IsAbs(c.EventLog) {
		return c.EventLog
	}
	return filepath.Join(c.dir, c.EventLog)
}

// OpenEventLog opens the event log in an append only state.
func (c *Configuration) OpenEventLog() (afero.File, error) {
	return c.fs().OpenFile(c.EventLogPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ReadEventLog opens the event log for reading.
func (c *Configuration) ReadEventLog() (afero.File, error) {
	return c.fs().OpenFile(c.EventLogPath(), os.O_RDONLY, 0600)
}

// Default returns the built-in configuration.
func Default() *Configuration {
	out := defaultConfig()
	out.dir = "."
	return out
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
