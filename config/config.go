/*
	Settings for a running fperr: where to listen, how to run jobs, where
	to keep results, how loud to be.

	Values come from, in increasing order of precedence: the defaults
	here, a YAML file, and `FPERR_*` environment variables.  A `.env` file
	in the working directory is folded into the environment first.
*/
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/inconshreveable/log15"
	"github.com/joho/godotenv"
	"github.com/spacemonkeygo/errors"
	"gopkg.in/yaml.v2"

	"polydawn.net/fperr/scheduler/dispatch"
)

/*
	Raised for a config file that can't be read or parsed, or settings
	that make no sense (an unknown scheduler, a negative worker count).
*/
var ConfigError *errors.ErrorClass = errors.NewClass("ConfigError")

type Config struct {
	Listen    string       `yaml:"listen"`
	Scheduler string       `yaml:"scheduler"`
	Workers   int          `yaml:"workers"`
	Sample    SampleConfig `yaml:"sample"`
	MemoDir   string       `yaml:"memodir"`
	Results   string       `yaml:"results"`
	Jobs      JobsConfig   `yaml:"jobs"`
	Search    SearchConfig `yaml:"search"`
	Log       LogConfig    `yaml:"log"`
}

type SampleConfig struct {
	Size int     `yaml:"size"`
	Seed *uint64 `yaml:"seed"` // nil: every request without a seed gets a fresh one
}

type JobsConfig struct {
	Max int `yaml:"max"` // finished jobs kept for status queries; 0 keeps all
}

type SearchConfig struct {
	Iterations int `yaml:"iterations"`
	Beam       int `yaml:"beam"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "terminal" or "json"
}

func Defaults() Config {
	return Config{
		Listen:    "127.0.0.1:8000",
		Scheduler: "group",
		Workers:   runtime.NumCPU(),
		Sample:    SampleConfig{Size: 8000},
		Results:   "mem",
		Jobs:      JobsConfig{Max: 10000},
		Search:    SearchConfig{Iterations: 4, Beam: 8},
		Log:       LogConfig{Level: "info", Format: "terminal"},
	}
}

/*
	Load the configuration.  An empty path falls back to `FPERR_CONFIG`;
	if that's empty too, only defaults and the environment apply.
*/
func Load(path string) (Config, error) {
	if err := LoadDotenv(); err != nil {
		return Config{}, err
	}
	cfg := Defaults()
	if path == "" {
		path = os.Getenv("FPERR_CONFIG")
	}
	if path != "" {
		ser, err := os.ReadFile(path)
		if err != nil {
			return Config{}, ConfigError.New("could not read config file: %s", err)
		}
		if err := cfg.parse(ser); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

/*
	Fold `.env` files (default: the one in the working directory) into
	the process environment.  Variables already set win.  Missing files
	are fine.
*/
func LoadDotenv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return ConfigError.New("could not load %s: %s", p, err)
		}
	}
	return nil
}

func (cfg *Config) parse(ser []byte) error {
	ser = untab(ser)
	if err := yaml.UnmarshalStrict(ser, cfg); err != nil {
		return ConfigError.New("could not parse config: %s", err)
	}
	return nil
}

/*
	Expands leading tabs to two spaces each; yaml refuses tabs as
	indentation, and people write config files with them anyway.
*/
func untab(ser []byte) []byte {
	var buf bytes.Buffer
	for i, line := range bytes.Split(ser, []byte{'\n'}) {
		if i > 0 {
			buf.WriteByte('\n')
		}
		n := 0
		for n < len(line) && line[n] == '\t' {
			n++
		}
		buf.Write(bytes.Repeat([]byte("  "), n))
		buf.Write(line[n:])
	}
	return buf.Bytes()
}

func (cfg *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, into *string) {
		if v, ok := lookup(key); ok && v != "" {
			*into = v
		}
	}
	num := func(key string, into *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return ConfigError.New("%s must be a number, not %q", key, v)
		}
		*into = n
		return nil
	}

	str("FPERR_LISTEN", &cfg.Listen)
	str("FPERR_SCHEDULER", &cfg.Scheduler)
	str("FPERR_MEMODIR", &cfg.MemoDir)
	str("FPERR_RESULTS", &cfg.Results)
	str("FPERR_LOG_LEVEL", &cfg.Log.Level)
	str("FPERR_LOG_FORMAT", &cfg.Log.Format)
	for key, into := range map[string]*int{
		"FPERR_WORKERS":           &cfg.Workers,
		"FPERR_SAMPLE_SIZE":       &cfg.Sample.Size,
		"FPERR_MAX_JOBS":          &cfg.Jobs.Max,
		"FPERR_SEARCH_ITERATIONS": &cfg.Search.Iterations,
	} {
		if err := num(key, into); err != nil {
			return err
		}
	}
	if v, ok := lookup("FPERR_SEED"); ok && v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return ConfigError.New("FPERR_SEED must be an unsigned number, not %q", v)
		}
		cfg.Sample.Seed = &seed
	}
	return nil
}

func (cfg *Config) Validate() error {
	if !slices.Contains(schedulerdispatch.Names(), cfg.Scheduler) {
		return ConfigError.New("unknown scheduler %q (want one of %s)", cfg.Scheduler, strings.Join(schedulerdispatch.Names(), ", "))
	}
	if cfg.Workers <= 0 {
		return ConfigError.New("workers must be positive")
	}
	if cfg.Sample.Size <= 0 {
		return ConfigError.New("sample.size must be positive")
	}
	if cfg.Jobs.Max < 0 {
		return ConfigError.New("jobs.max must not be negative")
	}
	if cfg.Search.Iterations <= 0 || cfg.Search.Beam <= 0 {
		return ConfigError.New("search.iterations and search.beam must be positive")
	}
	if cfg.Results != "mem" && !strings.HasPrefix(cfg.Results, "redis://") && !strings.HasPrefix(cfg.Results, "rediss://") {
		return ConfigError.New("results must be \"mem\" or a redis:// url, not %q", cfg.Results)
	}
	if _, err := log15.LvlFromString(cfg.Log.Level); err != nil {
		return ConfigError.New("unknown log level %q", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "terminal", "json":
	default:
		return ConfigError.New("unknown log format %q (want terminal or json)", cfg.Log.Format)
	}
	return nil
}

/*
	Return the path to a dir that will be used to read memoization of
	previous runs -- enabling short-circuit returns if they're encountered
	again -- and also used as the place to record a memo of each run.

	Empty means there will be no memoization.
*/
func (cfg Config) MemoPath() (string, error) {
	if cfg.MemoDir == "" {
		return "", nil
	}
	pth, err := filepath.Abs(cfg.MemoDir)
	if err != nil {
		return "", ConfigError.New("bad memodir: %s", err)
	}
	return pth, nil
}

// LogHandler builds the root log handler the settings call for, writing to w.
func (cfg Config) LogHandler(w io.Writer) log15.Handler {
	format := log15.TerminalFormat()
	if cfg.Log.Format == "json" {
		format = log15.JsonFormat()
	}
	lvl, err := log15.LvlFromString(cfg.Log.Level)
	if err != nil {
		lvl = log15.LvlInfo
	}
	return log15.LvlFilterHandler(lvl, log15.StreamHandler(w, format))
}
