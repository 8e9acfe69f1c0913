package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/clubfinder/clubfinder/internal/envutil"
	"github.com/clubfinder/clubfinder/internal/log"
)

// SupportedVersionPrefix is the prefix every config "version" must carry
const SupportedVersionPrefix = "v1"

const (
	DefaultAddr                = ":8080"
	DefaultCSVPath             = "final.csv"
	DefaultTable               = "organizations"
	DefaultCacheTTL            = 5 * time.Minute
	DefaultFirestoreCollection = "clubfinder_profiles"
)

// secretFields lists, per section, the values that must come from the environment
var secretFields = map[string][]string{
	"identity": {"anonKey", "jwtSecret"},
	"search":   {"databaseURL"},
	"storage":  {"encryptionKey"},
}

// Load loads and processes the config with immediate env var resolution
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse processes raw config bytes the same way Load does
func Parse(data []byte) (Config, error) {
	var rawConfig map[string]any
	if err := json.Unmarshal(data, &rawConfig); err != nil {
		return Config{}, fmt.Errorf("parsing config JSON: %w", err)
	}

	version, ok := rawConfig["version"].(string)
	if !ok {
		return Config{}, fmt.Errorf("config version is required")
	}
	if !strings.HasPrefix(version, SupportedVersionPrefix) {
		return Config{}, fmt.Errorf("unsupported config version: %s", version)
	}

	if err := validateRawConfig(rawConfig); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	// The custom UnmarshalJSON methods resolve env vars immediately
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&config)

	if err := ValidateConfig(&config); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// validateRawConfig rejects secrets written inline before env resolution
func validateRawConfig(rawConfig map[string]any) error {
	for section, fields := range secretFields {
		values, ok := rawConfig[section].(map[string]any)
		if !ok {
			continue
		}
		for _, name := range fields {
			value, exists := values[name]
			if !exists {
				continue
			}
			if _, isString := value.(string); isString {
				return fmt.Errorf("%s.%s must use environment variable reference for security", section, name)
			}
			if refMap, isMap := value.(map[string]any); isMap {
				if _, hasEnv := refMap["$env"]; !hasEnv {
					return fmt.Errorf("%s.%s must use {\"$env\": \"VAR_NAME\"} format", section, name)
				}
			}
		}
	}
	return nil
}

func applyDefaults(config *Config) {
	if config.Server.Addr == "" {
		config.Server.Addr = DefaultAddr
	}
	if config.Identity.Kind == "" {
		config.Identity.Kind = IdentityKindSupabase
	}
	if config.Search.Source == "" {
		config.Search.Source = SearchSourceCSV
	}
	if config.Search.Source == SearchSourceCSV && config.Search.CSVPath == "" {
		config.Search.CSVPath = DefaultCSVPath
	}
	if config.Search.Table == "" {
		config.Search.Table = DefaultTable
	}
	if config.Search.CacheTTL == 0 {
		config.Search.CacheTTL = DefaultCacheTTL
	}
	if config.Storage.Kind == "" {
		config.Storage.Kind = StorageKindMemory
	}
	if config.Storage.FirestoreCollection == "" {
		config.Storage.FirestoreCollection = DefaultFirestoreCollection
	}
}

// ValidateConfig validates the resolved configuration
func ValidateConfig(config *Config) error {
	if config.Server.BaseURL == "" {
		return fmt.Errorf("server.baseURL is required")
	}
	baseURL, err := url.Parse(config.Server.BaseURL)
	if err != nil || baseURL.Host == "" {
		return fmt.Errorf("server.baseURL must be an absolute URL")
	}
	if baseURL.Scheme != "https" && !envutil.IsDev() {
		return fmt.Errorf("server.baseURL must use https outside development mode")
	}

	if err := validateIdentity(&config.Identity); err != nil {
		return fmt.Errorf("identity config: %w", err)
	}

	if config.Calendar.RedirectURI == "" {
		return fmt.Errorf("calendar.redirectUri is required")
	}

	if err := validateSearch(&config.Search); err != nil {
		return fmt.Errorf("search config: %w", err)
	}

	if err := validateStorage(&config.Storage); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}

	if len(config.Server.AllowedOrigins) == 0 {
		log.LogWarn("server.allowedOrigins is empty - CORS will allow any origin")
	}

	return nil
}

func validateIdentity(identity *IdentityConfig) error {
	switch identity.Kind {
	case IdentityKindSupabase:
		if identity.URL == "" {
			return fmt.Errorf("url is required for supabase identity")
		}
		if identity.AnonKey == "" {
			return fmt.Errorf("anonKey is required for supabase identity")
		}
	case IdentityKindJWT:
		if len(identity.JWTSecret) < 32 {
			return fmt.Errorf("jwtSecret must be at least 32 characters (got %d)", len(identity.JWTSecret))
		}
	default:
		return fmt.Errorf("unknown identity kind: %s", identity.Kind)
	}
	return nil
}

func validateSearch(search *SearchConfig) error {
	switch search.Source {
	case SearchSourceCSV:
		if search.CSVPath == "" {
			return fmt.Errorf("csvPath is required for csv source")
		}
	case SearchSourcePostgres:
		if search.DatabaseURL == "" {
			return fmt.Errorf("databaseURL is required for postgres source")
		}
	default:
		return fmt.Errorf("unknown search source: %s", search.Source)
	}
	if search.CacheTTL < 0 {
		return fmt.Errorf("cacheTtl cannot be negative")
	}
	if search.DefaultTopN < 0 {
		return fmt.Errorf("defaultTopN cannot be negative")
	}
	return nil
}

func validateStorage(storage *StorageConfig) error {
	switch storage.Kind {
	case StorageKindMemory:
	case StorageKindFirestore:
		if storage.GCPProject == "" {
			return fmt.Errorf("gcpProject is required when using firestore storage")
		}
		if len(storage.EncryptionKey) != 32 {
			return fmt.Errorf("encryptionKey must be exactly 32 characters (got %d). Generate with: openssl rand -base64 32 | head -c 32", len(storage.EncryptionKey))
		}
	default:
		return fmt.Errorf("unknown storage kind: %s", storage.Kind)
	}
	return nil
}
