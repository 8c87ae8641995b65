package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"

	"github.com/xenking/pi-generator/internal/docservice"
)

// Output kinds.
const (
	OutputFile = "file"
	OutputS3   = "s3"
)

// Config holds the complete client configuration, loadable from environment
// variables (PI_ prefix), a .env file, or YAML config files.
type Config struct {
	Host       string        `default:"" usage:"Host name the client runs as; localhost selects the local document service"`
	APIBaseURL string        `default:"" env:"API_BASE_URL" usage:"Document service base URL (PI_API_BASE_URL or VITE_API_BASE_URL)"`
	Timeout    time.Duration `default:"90s" usage:"Time budget for a document request"`
	LogoPath   string        `default:"public/logo.png" env:"LOGO_PATH" usage:"Image embedded in generated documents"`
	Output     OutputConfig
	Auth       AuthConfig
	Probe      ProbeConfig
}

// OutputConfig selects where downloaded documents are stored.
type OutputConfig struct {
	Kind string   `default:"file" usage:"Document sink: file or s3"`
	Dir  string   `default:"." usage:"Directory for downloaded documents (file sink)"`
	S3   S3Config `env:"S3" yaml:"s3" json:"s3"`
}

// S3Config configures the S3 document sink.
type S3Config struct {
	Bucket   string `default:"" usage:"Bucket for downloaded documents"`
	Region   string `default:"us-east-1" usage:"Bucket region"`
	Endpoint string `default:"" usage:"Custom S3 endpoint (MinIO, LocalStack)"`
	Prefix   string `default:"" usage:"Object key prefix"`
}

// AuthConfig holds the session gate credentials.
type AuthConfig struct {
	Username string `default:"PIGENERATOR" usage:"Session gate username"`
	Password string `default:"PI@GENERATOR" usage:"Session gate password"`
}

// ProbeConfig controls background readiness probing of the document service.
type ProbeConfig struct {
	Interval time.Duration `default:"30s" usage:"Probe interval; 0 disables probing"`
	Timeout  time.Duration `default:"10s" usage:"Timeout of a single probe"`
}

// LoadConfig loads configuration from a .env file, environment variables and
// YAML config files (extraFiles take precedence over the default locations),
// then applies platform-specific defaults and validates the result.
func LoadConfig(extraFiles ...string) (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		SkipFlags: true,
		EnvPrefix: "PI",
		Files:     append([]string{"config.yaml", "/etc/pi-generator/config.yaml"}, extraFiles...),
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps the build-time variable used by the web
// deployment to the PI_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.APIBaseURL == "" {
		if v := os.Getenv("VITE_API_BASE_URL"); v != "" {
			c.APIBaseURL = v
		}
	}
}

// Validate checks field combinations that defaults cannot express.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return errors.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	switch c.Output.Kind {
	case OutputFile:
	case OutputS3:
		if c.Output.S3.Bucket == "" {
			return errors.New("s3 output requires a bucket: set PI_OUTPUT_S3_BUCKET")
		}
	default:
		return errors.Errorf("unknown output kind %q (want %q or %q)", c.Output.Kind, OutputFile, OutputS3)
	}
	if c.Probe.Interval < 0 {
		return errors.Errorf("probe interval must not be negative, got %s", c.Probe.Interval)
	}
	if c.Probe.Interval > 0 && c.Probe.Timeout <= 0 {
		return errors.Errorf("probe timeout must be positive, got %s", c.Probe.Timeout)
	}
	return nil
}

// BaseURL returns the document service address for this configuration.
func (c *Config) BaseURL() string {
	return docservice.ResolveBaseURL(c.Host, c.APIBaseURL)
}
