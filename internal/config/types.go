package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Secret is a string type that redacts itself when printed
type Secret string

// String implements fmt.Stringer to redact the secret
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "***"
}

// MarshalJSON implements json.Marshaler to prevent secrets in JSON logs
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return json.Marshal("")
	}
	return json.Marshal("***")
}

// IdentityKind selects the backend that resolves bearer tokens to users
type IdentityKind string

const (
	// IdentityKindSupabase asks a Supabase-compatible auth server who owns the token.
	IdentityKindSupabase IdentityKind = "supabase"

	// IdentityKindJWT verifies HS256 access tokens locally with a shared secret.
	IdentityKindJWT IdentityKind = "jwt"
)

// SearchSource selects where the organization catalogue is read from
type SearchSource string

const (
	SearchSourceCSV      SearchSource = "csv"
	SearchSourcePostgres SearchSource = "postgres"
)

// StorageKind selects the profile store
type StorageKind string

const (
	StorageKindMemory    StorageKind = "memory"
	StorageKindFirestore StorageKind = "firestore"
)

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Addr           string   `json:"addr"`
	BaseURL        string   `json:"baseURL"`
	AllowedOrigins []string `json:"allowedOrigins"`
}

// IdentityConfig configures bearer token verification
type IdentityConfig struct {
	Kind      IdentityKind `json:"kind"`
	URL       string       `json:"url,omitempty"`
	AnonKey   Secret       `json:"anonKey,omitempty"`
	JWTSecret Secret       `json:"jwtSecret,omitempty"`
	Audience  string       `json:"audience,omitempty"`
}

// CalendarConfig configures the Google Calendar consent handoff.
// Client credentials are not part of the file. They are read from
// GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET on every request.
type CalendarConfig struct {
	RedirectURI string `json:"redirectUri"`
}

// SearchConfig configures the organization catalogue
type SearchConfig struct {
	Source      SearchSource  `json:"source"`
	CSVPath     string        `json:"csvPath,omitempty"`
	DatabaseURL Secret        `json:"databaseURL,omitempty"`
	Table       string        `json:"table,omitempty"`
	CacheTTL    time.Duration `json:"cacheTtl"`
	DefaultTopN int           `json:"defaultTopN"`
}

// StorageConfig configures where survey profiles are kept
type StorageConfig struct {
	Kind                StorageKind `json:"kind"`
	GCPProject          string      `json:"gcpProject,omitempty"`
	FirestoreDatabase   string      `json:"firestoreDatabase,omitempty"`
	FirestoreCollection string      `json:"firestoreCollection,omitempty"`
	EncryptionKey       Secret      `json:"encryptionKey,omitempty"`
}

// Config represents the config structure with resolved values
type Config struct {
	Server   ServerConfig   `json:"server"`
	Identity IdentityConfig `json:"identity"`
	Calendar CalendarConfig `json:"calendar"`
	Search   SearchConfig   `json:"search"`
	Storage  StorageConfig  `json:"storage"`
}

// ParseConfigValue parses a JSON value that is either a plain string or an
// {"$env": "VAR_NAME"} reference resolved from the process environment.
//
// Explicit references are used instead of $VAR substitution so that shell
// scripts manipulating the config never expand them by accident.
func ParseConfigValue(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, nil
	}

	var ref map[string]string
	if err := json.Unmarshal(raw, &ref); err != nil {
		return "", fmt.Errorf("config value must be string or reference object")
	}

	envVar, ok := ref["$env"]
	if !ok {
		return "", fmt.Errorf("unknown reference type in config value")
	}
	value := os.Getenv(envVar)
	if value == "" {
		return "", fmt.Errorf("environment variable %s not set", envVar)
	}
	// Strip surrounding quotes if present (only matching pairs)
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			value = value[1 : len(value)-1]
		}
	}
	return value, nil
}

// ParseConfigValueSlice parses a slice that may contain references
func ParseConfigValueSlice(raw []json.RawMessage) ([]string, error) {
	values := make([]string, len(raw))
	for i, item := range raw {
		parsed, err := ParseConfigValue(item)
		if err != nil {
			return nil, fmt.Errorf("parsing item %d: %w", i, err)
		}
		values[i] = parsed
	}
	return values, nil
}
