package sync

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/biter777/countries"
	"go.uber.org/config"
)

type Config struct {
	API             APISettings
	Mapping         MappingSettings
	CheckProperties bool
	Report          ReportSettings
}

type APISettings struct {
	Keys struct {
		HubSpot string `yaml:"hubspot"`
		Source  string `yaml:"source"`
	}
	Endpoints struct {
		HubSpot string `yaml:"hubspot"`
		Source  string `yaml:"source"`
	}
	// Timeout applies to each HTTP request made to either API.
	Timeout     time.Duration `yaml:"timeout"`
	SearchLimit int           `yaml:"searchLimit"`
}

type MappingSettings struct {
	// PhoneRegion enables E.164 normalisation of phone numbers when set.
	// Accepts an alpha-2 or alpha-3 code or a country name.
	PhoneRegion string           `yaml:"phoneRegion"`
	Duplicates  DuplicatesPolicy `yaml:"duplicates"`
}

type ReportSettings struct {
	Format string `yaml:"format"`
}

// DuplicatesPolicy decides what happens when a search by email returns more than one contact.
type DuplicatesPolicy string

const (
	// DuplicatesFirst updates the first contact returned by the search.
	DuplicatesFirst DuplicatesPolicy = "first"
	// DuplicatesError reports the record as an ambiguous match and writes nothing.
	DuplicatesError DuplicatesPolicy = "error"
)

const (
	ReportFormatText = "text"
	ReportFormatCSV  = "csv"

	// HTTPRequestTimeout is the default timeout for all HTTP requests to external APIs.
	HTTPRequestTimeout = 60 * time.Second

	DefaultSearchLimit = 10
	// MaxSearchLimit is the largest page size the HubSpot search endpoint accepts.
	MaxSearchLimit = 200
)

// requiredSetting pairs a required config value with the environment variable
// that feeds it in the embedded defaults.
type requiredSetting struct {
	key    string
	envVar string
	value  func(c Config) string
}

var requiredSettings = []requiredSetting{
	{"api.keys.hubspot", "HUBSPOT_API_KEY", func(c Config) string { return c.API.Keys.HubSpot }},
	{"api.endpoints.source", "AWS_API_URL", func(c Config) string { return c.API.Endpoints.Source }},
	{"api.keys.source", "AWS_BEARER_TOKEN", func(c Config) string { return c.API.Keys.Source }},
}

type CompositeEnvVar interface {
	LookupEnv(key string) (string, bool)
}

// OSEnvironment looks values up directly in the process environment.
type OSEnvironment struct{}

func (OSEnvironment) LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// quotedLookup returns variables as double-quoted YAML scalars, since
// config.Expand substitutes them into the raw YAML text before parsing.
// Values always load as the exact string that was set.
func quotedLookup(compev CompositeEnvVar) config.LookupFunc {
	return func(key string) (string, bool) {
		v, ok := compev.LookupEnv(key)
		if !ok {
			return "", false
		}
		return strconv.Quote(v), true
	}
}

type YAMLConfigUnmarshaler struct{}

func (u YAMLConfigUnmarshaler) Unmarshal(compev CompositeEnvVar, sources ...MappingFile) (Config, error) {
	var result Config
	var options []config.YAMLOption
	for _, s := range sources {
		if s.Length > 0 {
			options = append(options, config.Source(s.Reader))
		}
	}
	options = append(options, config.Expand(quotedLookup(compev)))
	yaml, err := config.NewYAML(options...)
	if err != nil {
		return result, fmt.Errorf("failed to read yaml config %w", err)
	}
	readError := func(key string, cause error) error {
		return fmt.Errorf("failed to read '%s' from yaml config %w", key, cause)
	}
	key := "api"
	err = yaml.Get(key).Populate(&result.API)
	if err != nil {
		return result, readError(key, err)
	}
	key = "mapping"
	if yaml.Get(key).HasValue() {
		err = yaml.Get(key).Populate(&result.Mapping)
		if err != nil {
			return result, readError(key, err)
		}
	}
	key = "checkProperties"
	if yaml.Get(key).HasValue() {
		err = yaml.Get(key).Populate(&result.CheckProperties)
		if err != nil {
			return result, readError(key, err)
		}
	}
	key = "report"
	if yaml.Get(key).HasValue() {
		err = yaml.Get(key).Populate(&result.Report)
		if err != nil {
			return result, readError(key, err)
		}
	}
	return result, nil
}

// Validate fills in defaults, normalises the phone region and checks that
// every required value is present.
func (c *Config) Validate() error {
	var missing []string
	for _, s := range requiredSettings {
		if strings.TrimSpace(s.value(*c)) == "" {
			missing = append(missing, s.envVar)
		}
	}
	if len(missing) > 0 {
		return &ConfigError{
			Component: "environment",
			Message:   fmt.Sprintf("required variables are not set: %s", strings.Join(missing, ", ")),
		}
	}

	for _, endpoint := range []struct{ key, value string }{
		{"api.endpoints.source", c.API.Endpoints.Source},
		{"api.endpoints.hubspot", c.API.Endpoints.HubSpot},
	} {
		u, err := url.Parse(endpoint.value)
		if err != nil {
			return &ConfigError{Component: endpoint.key, Message: "invalid URL", Err: err}
		}
		if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
			return &ConfigError{Component: endpoint.key, Message: fmt.Sprintf("invalid URL %q, expected an absolute http(s) URL", endpoint.value)}
		}
	}

	if c.API.Timeout <= 0 {
		c.API.Timeout = HTTPRequestTimeout
	}
	if c.API.SearchLimit <= 0 {
		c.API.SearchLimit = DefaultSearchLimit
	}
	if c.API.SearchLimit > MaxSearchLimit {
		return &ConfigError{Component: "api.searchLimit", Message: fmt.Sprintf("%d exceeds the HubSpot maximum of %d", c.API.SearchLimit, MaxSearchLimit)}
	}

	switch c.Mapping.Duplicates {
	case "":
		c.Mapping.Duplicates = DuplicatesFirst
	case DuplicatesFirst, DuplicatesError:
	default:
		return &ConfigError{Component: "mapping.duplicates", Message: fmt.Sprintf("unsupported policy %q, expected %q or %q", c.Mapping.Duplicates, DuplicatesFirst, DuplicatesError)}
	}

	if c.Mapping.PhoneRegion != "" {
		region, err := NormalisePhoneRegion(c.Mapping.PhoneRegion)
		if err != nil {
			return &ConfigError{Component: "mapping.phoneRegion", Message: err.Error()}
		}
		c.Mapping.PhoneRegion = region
	}

	switch c.Report.Format {
	case "":
		c.Report.Format = ReportFormatText
	case ReportFormatText, ReportFormatCSV:
	default:
		return &ConfigError{Component: "report.format", Message: fmt.Sprintf("unsupported format %q", c.Report.Format)}
	}

	return nil
}

// NormalisePhoneRegion converts a country name or code to the ISO 3166 alpha-2
// region code expected by libphonenumber.
func NormalisePhoneRegion(s string) (string, error) {
	c := countries.ByName(s) // will match on Alpha-2 / Alpha-3 / Name
	if countries.Unknown == c {
		return "", fmt.Errorf("unknown phone region %q", s)
	}
	return c.Alpha2(), nil
}
