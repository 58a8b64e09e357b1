package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

// EnvPrefix prefixes every environment variable read into Config,
// e.g. INVENTORY_BATCH_SIZE.
const EnvPrefix = "INVENTORY"

const (
	DefaultBatchSize  = 200
	DefaultRetryCount = 3
	DefaultRetryDelay = 5 * time.Second
	DefaultWorkers    = 1
	DefaultLogLevel   = "info"
)

// ErrConfiguration is fatal and never retried.
type ErrConfiguration struct {
	error
}

func NewErrConfiguration(format string, args ...any) *ErrConfiguration {
	return &ErrConfiguration{error: errors.Errorf(format, args...)}
}

type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Config is a single collection run's configuration. Environment variables
// provide defaults; command line flags are bound on top of them.
type Config struct {
	Endpoint       string        `envconfig:"ENDPOINT" flag:"endpoint" validate:"required"`
	OutputDir      string        `envconfig:"OUTPUT_DIR" flag:"output-dir" validate:"required"`
	CredentialPath string        `envconfig:"CREDENTIAL_PATH" flag:"credential-path" validate:"required"`
	BatchSize      int           `envconfig:"BATCH_SIZE" default:"200" flag:"batch-size" validate:"gt=0"`
	RetryCount     int           `envconfig:"RETRY_COUNT" default:"3" flag:"retry-count" validate:"gte=0"`
	RetryDelay     time.Duration `envconfig:"RETRY_DELAY" default:"5s" flag:"retry-delay" validate:"gte=0"`
	Workers        int           `envconfig:"WORKERS" default:"1" flag:"workers" validate:"gte=1"`
	Insecure       bool          `envconfig:"INSECURE" default:"true" flag:"insecure"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info" flag:"log-level" validate:"oneof=debug info warn error"`
}

// New reads the defaults from the environment.
func New() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, NewErrConfiguration("reading environment: %v", err)
	}
	return cfg, nil
}

// Validate reports the first invalid field by its flag name.
func (c *Config) Validate() error {
	err := newValidator().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return NewErrConfiguration("invalid configuration: %v", err)
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return NewErrConfiguration("--%s is required", fe.Field())
	case "oneof":
		return NewErrConfiguration("invalid --%s %q: must be one of %s", fe.Field(), fe.Value(), fe.Param())
	default:
		return NewErrConfiguration("invalid --%s %v: must be %s %s", fe.Field(), fe.Value(), comparison(fe.Tag()), fe.Param())
	}
}

// LoadCredentials reads a JSON or YAML document holding a username and a
// password.
func LoadCredentials(path string) (Credentials, error) {
	var creds Credentials

	contents, err := os.ReadFile(path)
	if err != nil {
		return creds, NewErrConfiguration("reading credential file: %v", err)
	}
	if err := yaml.Unmarshal(contents, &creds); err != nil {
		return creds, NewErrConfiguration("parsing credential file %s: %v", path, err)
	}
	if err := newValidator().Struct(creds); err != nil {
		return creds, NewErrConfiguration("credential file %s must set both username and password", path)
	}
	return creds, nil
}

func (c *Config) String() string {
	return fmt.Sprintf("endpoint=%s output-dir=%s batch-size=%d retry-count=%d retry-delay=%s workers=%d insecure=%t log-level=%s",
		c.Endpoint, c.OutputDir, c.BatchSize, c.RetryCount, c.RetryDelay, c.Workers, c.Insecure, c.LogLevel)
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("flag"); name != "" {
			return name
		}
		return strings.ToLower(f.Name)
	})
	return v
}

func comparison(tag string) string {
	switch tag {
	case "gt":
		return ">"
	case "gte":
		return ">="
	case "lt":
		return "<"
	case "lte":
		return "<="
	}
	return tag
}
