// config/config.go
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // Timezone names resolve without system zoneinfo

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port string `yaml:"port"`
}

type OpenSkyConfig struct {
	BaseURL    string        `yaml:"base_url"`
	TokenURL   string        `yaml:"token_url"`
	TimeoutStr string        `yaml:"timeout"`
	Timeout    time.Duration `yaml:"-"` // Parsed duration

	// Secrets, from the environment only
	ClientID     string `yaml:"-"`
	ClientSecret string `yaml:"-"`
}

type ReportConfig struct {
	LookbackStr   string        `yaml:"lookback"`
	WindowCount   int           `yaml:"window_count"`
	WindowSizeStr string        `yaml:"window_size"`
	LabelEvery    int           `yaml:"label_every"`
	Lookback      time.Duration `yaml:"-"` // Parsed duration
	WindowSize    time.Duration `yaml:"-"` // Parsed duration
}

type EmailConfig struct {
	From                 string        `yaml:"from"`
	To                   string        `yaml:"to"`
	FirstName            string        `yaml:"first_name"`
	DeparturesTemplateID string        `yaml:"departures_template_id"`
	ArrivalsTemplateID   string        `yaml:"arrivals_template_id"`
	Host                 string        `yaml:"host"` // SendGrid API host, empty for the default
	TimeoutStr           string        `yaml:"timeout"`
	Timeout              time.Duration `yaml:"-"` // Parsed duration

	APIKey string `yaml:"-"`
}

type PushConfig struct {
	APIURL     string        `yaml:"api_url"`
	TemplateID string        `yaml:"template_id"`
	Segment    string        `yaml:"segment"`
	TimeoutStr string        `yaml:"timeout"`
	Timeout    time.Duration `yaml:"-"` // Parsed duration

	AppID  string `yaml:"-"`
	APIKey string `yaml:"-"`
}

type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

type Config struct {
	Airport  string        `yaml:"airport"`
	Timezone string        `yaml:"timezone"`
	Server   ServerConfig  `yaml:"server"`
	OpenSky  OpenSkyConfig `yaml:"opensky"`
	Report   ReportConfig  `yaml:"report"`
	Email    EmailConfig   `yaml:"email"`
	Push     PushConfig    `yaml:"push"`
	Metrics  MetricsConfig `yaml:"metrics"`

	Location *time.Location `yaml:"-"`
}

// Environment variable names.
const (
	EnvOpenSkyID       = "OPEN_SKY_ID"
	EnvOpenSkySecret   = "OPEN_SKY_SECRET"
	EnvSendGridAPIKey  = "SENDGRID_API_KEY"
	EnvOneSignalAppID  = "ONESIGNAL_APP_ID"
	EnvOneSignalAPIKey = "ONESIGNAL_API_KEY"
	EnvEmailFrom       = "EMAIL_FROM"
	EnvEmailTo         = "EMAIL_TO"
	EnvEmailFirstName  = "EMAIL_FIRST_NAME"
)

// Default returns the LAX departures settings.
func Default() Config {
	return Config{
		Airport:  "KLAX",
		Timezone: "Local",
		Server:   ServerConfig{Port: "8080"},
		OpenSky: OpenSkyConfig{
			BaseURL:    "https://opensky-network.org/api",
			TokenURL:   "https://auth.opensky-network.org/auth/realms/opensky-network/protocol/openid-connect/token",
			TimeoutStr: "30s",
		},
		Report: ReportConfig{
			LookbackStr:   "2h",
			WindowCount:   12,
			WindowSizeStr: "10m",
			LabelEvery:    3,
		},
		Email: EmailConfig{FirstName: "there"},
		Push: PushConfig{
			APIURL:  "https://api.onesignal.com/notifications",
			Segment: "Subscribed Users",
		},
		Metrics: MetricsConfig{Job: "flightbrief"},
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML file,
// an optional .env file and the process environment, in that order.
// An empty configPath skips the YAML file.
func LoadConfig(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.parse(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.OpenSky.ClientID = os.Getenv(EnvOpenSkyID)
	c.OpenSky.ClientSecret = os.Getenv(EnvOpenSkySecret)
	c.Email.APIKey = os.Getenv(EnvSendGridAPIKey)
	c.Push.AppID = os.Getenv(EnvOneSignalAppID)
	c.Push.APIKey = os.Getenv(EnvOneSignalAPIKey)
	if v := os.Getenv(EnvEmailFrom); v != "" {
		c.Email.From = v
	}
	if v := os.Getenv(EnvEmailTo); v != "" {
		c.Email.To = v
	}
	if v := os.Getenv(EnvEmailFirstName); v != "" {
		c.Email.FirstName = v
	}
}

// parse fills the derived fields (durations, location).
func (c *Config) parse() error {
	var err error
	c.Airport = strings.ToUpper(strings.TrimSpace(c.Airport))

	if c.Report.Lookback, err = time.ParseDuration(c.Report.LookbackStr); err != nil {
		return fmt.Errorf("failed to parse report lookback: %w", err)
	}
	if c.Report.WindowSize, err = time.ParseDuration(c.Report.WindowSizeStr); err != nil {
		return fmt.Errorf("failed to parse report window size: %w", err)
	}
	if c.OpenSky.Timeout, err = parseTimeout(c.OpenSky.TimeoutStr, 30*time.Second); err != nil {
		return fmt.Errorf("failed to parse OpenSky timeout: %w", err)
	}
	if c.Email.Timeout, err = parseTimeout(c.Email.TimeoutStr, 15*time.Second); err != nil {
		return fmt.Errorf("failed to parse email timeout: %w", err)
	}
	if c.Push.Timeout, err = parseTimeout(c.Push.TimeoutStr, 15*time.Second); err != nil {
		return fmt.Errorf("failed to parse push timeout: %w", err)
	}

	switch c.Timezone {
	case "", "Local":
		c.Location = time.Local
	default:
		if c.Location, err = time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("failed to load timezone %q: %w", c.Timezone, err)
		}
	}
	return nil
}

// parseTimeout parses a positive duration, falling back to def when empty.
func parseTimeout(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %s", d)
	}
	return d, nil
}

// MissingFieldsError lists every required setting that is absent.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required configuration: " + strings.Join(e.Fields, ", ")
}

// Validate checks the configuration once at startup. Delivery credentials and
// addresses are only required when requireDelivery is set; preview mode only
// talks to OpenSky.
func (c *Config) Validate(requireDelivery bool) error {
	var missing []string
	need := func(value, name string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	need(c.Airport, "airport")
	need(c.OpenSky.ClientID, EnvOpenSkyID)
	need(c.OpenSky.ClientSecret, EnvOpenSkySecret)
	if requireDelivery {
		need(c.Email.APIKey, EnvSendGridAPIKey)
		need(c.Email.From, EnvEmailFrom)
		need(c.Email.To, EnvEmailTo)
		need(c.Push.AppID, EnvOneSignalAppID)
		need(c.Push.APIKey, EnvOneSignalAPIKey)
		need(c.Push.TemplateID, "push.template_id")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}

	if c.Report.WindowCount <= 0 || c.Report.WindowSize <= 0 || c.Report.LabelEvery <= 0 {
		return fmt.Errorf("report window_count, window_size and label_every must be positive (got %d, %s, %d)",
			c.Report.WindowCount, c.Report.WindowSize, c.Report.LabelEvery)
	}
	if c.Report.Lookback <= 0 {
		return fmt.Errorf("report lookback must be positive, got %s", c.Report.Lookback)
	}
	return nil
}

// TemplateFor returns the SendGrid template for a report kind ("departures"
// or "arrivals").
func (c *Config) TemplateFor(kind string) string {
	if kind == "arrivals" {
		return c.Email.ArrivalsTemplateID
	}
	return c.Email.DeparturesTemplateID
}

// LogSummary prints the non-secret settings.
func (c *Config) LogSummary() {
	log.Printf("Configuration loaded. Airport: %s, timezone: %s, lookback: %s, windows: %d x %s (label every %d)",
		c.Airport, c.Location, c.Report.Lookback, c.Report.WindowCount, c.Report.WindowSize, c.Report.LabelEvery)
	if c.Metrics.PushgatewayURL != "" {
		log.Printf("Metrics will be pushed to %s (job %s)", c.Metrics.PushgatewayURL, c.Metrics.Job)
	}
}
