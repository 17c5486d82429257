// Package config handles loading and parsing application configuration.
// The config file path comes from (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// A .env file in the working directory, when present, is loaded into the
// environment first, so any env:"..." key below can live there.
//
// One file configures both binaries: cmd/frontcadastro reads http_server,
// api and feedback; cmd/alunos-api-stub reads http_server and stub. Each calls
// Validate on the sections it depends on, so a missing stub section never
// stops the front end from booting (and vice versa).
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// ─────────────────────────────────────────────────────────────────────────────
// Config is the root configuration structure shared by the front end and
// the stub API.
//
// Every field maps to a key in the YAML file AND can be overridden by the
// corresponding environment variable (env:"...").
//
// env-required:"true" is kept for settings both binaries need. Everything
// else is checked by the per-section Validate methods, since a key that is
// mandatory for one binary is meaningless to the other.
// ─────────────────────────────────────────────────────────────────────────────
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-required:"true"`

	// HTTPServer is embedded (not a pointer) so cfg.Addr works directly.
	HTTPServer `yaml:"http_server"`

	API      API      `yaml:"api"`
	Feedback Feedback `yaml:"feedback"`
	Stub     Stub     `yaml:"stub"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. "localhost:8080".
	Addr string `yaml:"address" env:"HTTP_SERVER_ADDR" env-required:"true"`
}

// ─────────────────────────────────────────────────────────────────────────────
// API points the front end at the registration service.
//
//	api:
//	  register_endpoint: http://localhost:8082/api/alunos/cadastro
//	  list_endpoint:     http://localhost:8082/api/alunos
//
// Both are full URLs rather than a base plus paths, so each can point
// anywhere; the page only ever calls these two.
// ─────────────────────────────────────────────────────────────────────────────
type API struct {
	RegisterEndpoint string `yaml:"register_endpoint" env:"API_REGISTER_ENDPOINT"`
	ListEndpoint     string `yaml:"list_endpoint" env:"API_LIST_ENDPOINT"`

	// AcceptAnyContentType parses listing bodies as JSON whatever their
	// declared Content-Type. Off by default: a non-JSON content type is
	// reported as a processing error.
	AcceptAnyContentType bool `yaml:"accept_any_content_type" env:"API_ACCEPT_ANY_CONTENT_TYPE"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Feedback tunes the banner and form-mark timers.
//
// cleanenv parses time.Duration fields from strings such as "5s" or
// "1500ms". BannerDelay hides success and info banners (error banners stay
// until the next action); MarkDelay clears the green marks left on the
// form after a successful registration.
// ─────────────────────────────────────────────────────────────────────────────
type Feedback struct {
	BannerDelay time.Duration `yaml:"banner_delay" env:"FEEDBACK_BANNER_DELAY" env-default:"5s"`
	MarkDelay   time.Duration `yaml:"mark_delay" env:"FEEDBACK_MARK_DELAY" env-default:"3s"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Stub configures the local stand-in for the registration API.
// Only cmd/alunos-api-stub reads it.
// ─────────────────────────────────────────────────────────────────────────────
type Stub struct {
	// StoragePath is the filesystem path to the SQLite .db file.
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH"`
	// Envelope selects how the listing is wrapped: "bare", "alunos" or "data".
	Envelope string `yaml:"envelope" env:"STUB_ENVELOPE" env-default:"alunos"`
}

// Envelope names accepted by Stub.Envelope.
const (
	EnvelopeBare   = "bare"
	EnvelopeAlunos = "alunos"
	EnvelopeData   = "data"
)

// ─────────────────────────────────────────────────────────────────────────────
// Validate checks that both endpoints are usable absolute URLs.
//
// A value still holding a template placeholder (for example
// "http://<host>/api/alunos" left over from a deployment template) is
// rejected at boot instead of failing on the first click. Every bad
// endpoint is reported, joined with errors.Join, so one run shows all of
// them.
// ─────────────────────────────────────────────────────────────────────────────
func (a API) Validate() error {
	var errs []error
	for name, raw := range map[string]string{
		"api.register_endpoint": a.RegisterEndpoint,
		"api.list_endpoint":     a.ListEndpoint,
	} {
		if err := checkEndpoint(raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Validate checks the stub's settings: a storage path and a known envelope.
func (s Stub) Validate() error {
	if s.StoragePath == "" {
		return errors.New("stub.storage_path is required")
	}
	switch s.Envelope {
	case EnvelopeBare, EnvelopeAlunos, EnvelopeData:
		return nil
	default:
		return fmt.Errorf("stub.envelope: unknown envelope %q", s.Envelope)
	}
}

func checkEndpoint(raw string) error {
	if raw == "" {
		return errors.New("not set")
	}
	if strings.ContainsAny(raw, "<>{}") {
		return fmt.Errorf("%q looks like an unfilled placeholder", raw)
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q: missing host", raw)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Load reads the YAML file at path, applies environment overrides and
// defaults, and returns the result.
//
// Unlike MustLoad it returns errors, which is what the tests use.
// ─────────────────────────────────────────────────────────────────────────────
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	// cleanenv.ReadConfig reads the YAML into cfg, then lets env vars
	// override it, then fills env-default values for anything still unset.
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	return &cfg, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// MustLoad reads and returns the application config, exiting the process
// when it cannot.
//
// The "Must" prefix follows the Go convention for functions that fatal
// instead of returning an error: if this function returns, the config was
// parsed.
// ─────────────────────────────────────────────────────────────────────────────
func MustLoad() *Config {
	// ── Source 0: .env ───────────────────────────────────────────────
	// A missing .env is the normal case outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("cannot load .env: %s", err.Error())
	}

	// ── Source 1: environment variable ───────────────────────────────
	configPath := os.Getenv("CONFIG_PATH")

	// ── Source 2: command-line flag ───────────────────────────────────
	//   go run ./cmd/frontcadastro --config=config/local.yaml
	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	if configPath == "" {
		log.Fatal("config path is not set: use --config flag or CONFIG_PATH env var")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err.Error())
	}
	return cfg
}
