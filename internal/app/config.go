package app

import (
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mapcviz/profit-flow-backend/flowsim"
	"github.com/mapcviz/profit-flow-backend/internal/controller"
)

type Config struct {
	Production bool `env:"PRODUCTION" envDefault:"false"`
	// Levels are {trace, debug, info, warn, error, fatal, panic}.
	LogLevel string `env:"LOGLEVEL" envDefault:"debug"`
	// HTTP timeouts (read and write)
	HTTPTimeout time.Duration `env:"TIMEOUT" envDefault:"5s"`
	Port        string        `env:"PORT" envDefault:"8080"`
	// CSV files, see profitdata for the expected columns.
	ProfitCSV string `env:"PROFIT_CSV" envDefault:"data/profits.csv"`
	HPICSV    string `env:"HPI_CSV" envDefault:"data/hpi.csv"`
	// Optional YAML file with chart/driver tuning overrides.
	ChartTuningFile string `env:"CHART_TUNING" envDefault:""`
}

func GetEnvConfig() Config {
	conf := Config{}
	env.Parse(&conf)
	return conf
}

// chartTuning is the YAML shape of the optional tuning file. Zero
// fields fall back to the flowsim/controller defaults.
type chartTuning struct {
	Chart  flowsim.Config `yaml:"chart"`
	Driver struct {
		FrameIntervalMS int     `yaml:"frame_interval_ms"`
		TimeStep        float64 `yaml:"time_step"`
	} `yaml:"driver"`
}

// LoadChartTuning reads the tuning YAML. An empty path or a missing
// file yields the defaults.
func LoadChartTuning(path string) (flowsim.Config, controller.DriverConfig, error) {
	tuning := chartTuning{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return flowsim.Config{}, controller.DriverConfig{}, errors.Wrap(err, "failed to read chart tuning")
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, &tuning); err != nil {
				return flowsim.Config{}, controller.DriverConfig{}, errors.Wrap(err, "failed to parse chart tuning")
			}
		}
	}
	driver := controller.DriverConfig{
		FrameInterval: time.Duration(tuning.Driver.FrameIntervalMS) * time.Millisecond,
		TimeStep:      tuning.Driver.TimeStep,
	}
	return tuning.Chart, driver, nil
}
