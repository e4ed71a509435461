package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"180s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORS            struct {
			AllowOrigins []string      `yaml:"allow_origins" default:"[\"*\"]"`
			MaxAge       time.Duration `yaml:"max_age" default:"10m"`
		} `yaml:"cors"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Logging struct {
		Level      string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error fatal panic"`
		Format     string `yaml:"format" default:"console" validate:"oneof=json console"`
		Output     string `yaml:"output" default:"stdout"`
		TimeFormat string `yaml:"time_format"`
		Collector  struct {
			Enabled   bool          `yaml:"enabled"`
			Interval  time.Duration `yaml:"interval" default:"30s"`
			Threshold int           `yaml:"threshold" default:"100"`
			Topic     string        `yaml:"topic" default:"regimeshift.logs"`
		} `yaml:"collector"`
	} `yaml:"logging"`
	Data struct {
		PricesPath string `yaml:"prices_path" default:"data/raw/BrentOilPrices.csv"`
		EventsPath string `yaml:"events_path" default:"data/raw/events.csv"`
	} `yaml:"data"`
	Analysis struct {
		Engine         string        `yaml:"engine" default:"gibbs" validate:"oneof=gibbs remote"`
		WindowDays     int           `yaml:"window_days" default:"30" validate:"gte=0"`
		ComputeOnStart bool          `yaml:"compute_on_start" default:"true"`
		MaxRHat        float64       `yaml:"max_rhat" default:"0" validate:"gte=0"`
		RunTimeout     time.Duration `yaml:"run_timeout" default:"0s"`
	} `yaml:"analysis"`
	Sampler struct {
		Draws  int   `yaml:"draws" default:"2000" validate:"gte=1"`
		Tune   int   `yaml:"tune" default:"1000" validate:"gte=0"`
		Chains int   `yaml:"chains" default:"2" validate:"gte=1,lte=64"`
		Seed   int64 `yaml:"seed" default:"42"`
	} `yaml:"sampler"`
	Model struct {
		MuSigma    float64 `yaml:"mu_sigma" default:"0.1" validate:"gt=0"`
		SigmaScale float64 `yaml:"sigma_scale" default:"0.1" validate:"gt=0"`
	} `yaml:"model"`
	Remote struct {
		URL        string        `yaml:"url"`
		Timeout    time.Duration `yaml:"timeout" default:"120s"`
		MaxRetries int           `yaml:"max_retries" default:"2" validate:"gte=0"`
	} `yaml:"remote"`
	History struct {
		Backend    string `yaml:"backend" default:"none" validate:"oneof=none sqlite clickhouse"`
		SQLitePath string `yaml:"sqlite_path" default:"data/regimeshift.db"`
		Table      string `yaml:"table" default:"analysis_runs"`
	} `yaml:"history"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		RunsTopic    string   `yaml:"runs_topic" default:"regimeshift.runs"`
		RerunTopic   string   `yaml:"rerun_topic" default:"regimeshift.rerun"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id" default:"regimeshift"`
			Workers    int           `yaml:"workers" default:"1"`
			BufferSize int           `yaml:"buffer_size" default:"16"`
			RetryMax   int           `yaml:"retry_max" default:"2"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"200ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"1048576"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"regimeshift"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Cache struct {
		TTL           time.Duration `yaml:"ttl" default:"24h"`
		MemoryMaxSize int           `yaml:"memory_max_size" default:"64"`
		Redis         struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Scheduler struct {
		Enabled bool   `yaml:"enabled"`
		Spec    string `yaml:"spec" default:"0 0 6 * * *"`
	} `yaml:"scheduler"`
	RateLimit struct {
		RerunCapacity int     `yaml:"rerun_capacity" default:"2" validate:"gte=1"`
		RerunRefill   float64 `yaml:"rerun_refill_per_sec" default:"0.05" validate:"gt=0"`
	} `yaml:"rate_limit"`
	Report struct {
		OutputDir string `yaml:"output_dir" default:"reports"`
	} `yaml:"report"`
}

var validate = validator.New()

// Default returns a configuration populated from struct defaults only.
func Default() *Config {
	var c Config
	_ = defaults.Set(&c)
	return &c
}

// Load reads and parses a YAML configuration file on top of the defaults.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("REGIMESHIFT_PRICES_PATH"); v != "" {
		c.Data.PricesPath = v
	}
	if v := os.Getenv("REGIMESHIFT_EVENTS_PATH"); v != "" {
		c.Data.EventsPath = v
	}
	if v := os.Getenv("REGIMESHIFT_ENGINE"); v != "" {
		c.Analysis.Engine = v
	}
	if v := os.Getenv("REGIMESHIFT_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("REGIMESHIFT_SEED: %w", err)
		}
		c.Sampler.Seed = seed
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s failed on '%s' (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}
	if c.Data.PricesPath == "" {
		return fmt.Errorf("data.prices_path is required")
	}
	if c.Data.EventsPath == "" {
		return fmt.Errorf("data.events_path is required")
	}
	if c.Analysis.Engine == "remote" && c.Remote.URL == "" {
		return fmt.Errorf("remote.url is required when analysis.engine is 'remote'")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Logging.Collector.Enabled && !c.Kafka.Enabled {
		return fmt.Errorf("logging.collector requires kafka to be enabled")
	}
	return nil
}
