package app

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the process level configuration. Sync settings are loaded
// separately by sync.LoadConfigFromEnvironment.
type Config struct {
	// ConfigFile is an optional YAML file layered over the embedded defaults.
	ConfigFile     string
	RecordRequests bool

	LogLevel  string
	LogFormat string
	LogOutput string
}

// envVars are the environment variables hubsync reads.
var envVars = []string{
	"HUBSPOT_API_KEY",
	"HUBSPOT_API_URL",
	"AWS_API_URL",
	"AWS_BEARER_TOKEN",
	"HUBSYNC_CONFIG",
	"HUBSYNC_RECORD_REQUESTS",
	"LOG_LEVEL",
	"LOG_FORMAT",
	"LOG_OUTPUT",
}

// LoadConfig loads .env files into the process environment and reads the
// process configuration through v.
func LoadConfig(v *viper.Viper) *Config {
	loadEnvFiles()

	v.AutomaticEnv()
	for _, name := range envVars {
		_ = v.BindEnv(name)
	}
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "auto")
	v.SetDefault("LOG_OUTPUT", "stderr")

	return &Config{
		ConfigFile:     v.GetString("HUBSYNC_CONFIG"),
		RecordRequests: v.GetBool("HUBSYNC_RECORD_REQUESTS"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
		LogOutput:      v.GetString("LOG_OUTPUT"),
	}
}

// loadEnvFiles loads environment variables from .env files.
// godotenv never overrides a variable that is already set, so .env.local is
// loaded first to take precedence over .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// ViperEnvironment resolves ${VAR} references in the sync config through viper.
type ViperEnvironment struct {
	v *viper.Viper
}

func NewViperEnvironment(v *viper.Viper) ViperEnvironment {
	return ViperEnvironment{v: v}
}

func (e ViperEnvironment) LookupEnv(key string) (string, bool) {
	if !e.v.IsSet(key) {
		return "", false
	}
	return e.v.GetString(key), true
}
