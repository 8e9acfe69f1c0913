package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

// ValidationResult holds validation errors and warnings
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// ValidationError represents a validation issue
type ValidationError struct {
	Path    string
	Message string
}

// IsValid returns true if there are no errors
func (v *ValidationResult) IsValid() bool {
	return len(v.Errors) == 0
}

func (v *ValidationResult) addError(path, message string) {
	v.Errors = append(v.Errors, ValidationError{Path: path, Message: message})
}

func (v *ValidationResult) addWarning(path, message string) {
	v.Warnings = append(v.Warnings, ValidationError{Path: path, Message: message})
}

// ValidateFile validates a config file structure without requiring env vars
func ValidateFile(path string) (*ValidationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return ValidateBytes(data), nil
}

// ValidateBytes validates raw config bytes without resolving env references
func ValidateBytes(data []byte) *ValidationResult {
	result := &ValidationResult{}

	var rawConfig map[string]any
	if err := json.Unmarshal(data, &rawConfig); err != nil {
		result.addError("", fmt.Sprintf("invalid JSON: %v", err))
		return result
	}

	checkBashStyleSyntax(rawConfig, "", result)

	version, ok := rawConfig["version"].(string)
	if !ok {
		result.addError("version", fmt.Sprintf("version field is required. Hint: Add \"version\": \"%s\"", SupportedVersionPrefix))
	} else if !strings.HasPrefix(version, SupportedVersionPrefix) {
		result.addError("version", fmt.Sprintf("unsupported version '%s' - use '%s'", version, SupportedVersionPrefix))
	}

	validateServerStructure(rawConfig, result)
	validateIdentityStructure(rawConfig, result)
	validateCalendarStructure(rawConfig, result)
	validateSearchStructure(rawConfig, result)
	validateStorageStructure(rawConfig, result)
	validateSecretRefs(rawConfig, result)

	return result
}

func validateServerStructure(rawConfig map[string]any, result *ValidationResult) {
	server, ok := rawConfig["server"].(map[string]any)
	if !ok {
		result.addError("server", "server field is required and must be an object")
		return
	}
	if _, ok := server["baseURL"]; !ok {
		result.addError("server.baseURL", "baseURL is required. Example: \"https://clubs.example.com\"")
	}
	if _, ok := server["addr"]; !ok {
		result.addWarning("server.addr", fmt.Sprintf("addr not set, defaulting to %q", DefaultAddr))
	}
	if origins, ok := server["allowedOrigins"].([]any); !ok || len(origins) == 0 {
		result.addWarning("server.allowedOrigins", "no allowed origins - CORS will allow any origin")
	}
}

func validateIdentityStructure(rawConfig map[string]any, result *ValidationResult) {
	identity, ok := rawConfig["identity"].(map[string]any)
	if !ok {
		result.addError("identity", "identity field is required and must be an object")
		return
	}

	kind, _ := identity["kind"].(string)
	switch IdentityKind(kind) {
	case "", IdentityKindSupabase:
		for _, field := range []string{"url", "anonKey"} {
			if _, ok := identity[field]; !ok {
				result.addError("identity."+field, field+" is required for supabase identity")
			}
		}
	case IdentityKindJWT:
		if _, ok := identity["jwtSecret"]; !ok {
			result.addError("identity.jwtSecret", "jwtSecret is required for jwt identity. Hint: Must be at least 32 bytes long for HMAC-SHA256")
		}
	default:
		result.addError("identity.kind", fmt.Sprintf("unknown identity kind '%s'. Options: supabase, jwt", kind))
	}
}

func validateCalendarStructure(rawConfig map[string]any, result *ValidationResult) {
	calendar, ok := rawConfig["calendar"].(map[string]any)
	if !ok {
		result.addError("calendar", "calendar field is required and must be an object")
		return
	}
	if _, ok := calendar["redirectUri"]; !ok {
		result.addError("calendar.redirectUri", "redirectUri is required")
	}
	for _, field := range []string{"clientId", "clientSecret"} {
		if _, ok := calendar[field]; ok {
			result.addWarning("calendar."+field, field+" is ignored - set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET in the environment")
		}
	}
}

func validateSearchStructure(rawConfig map[string]any, result *ValidationResult) {
	search, ok := rawConfig["search"].(map[string]any)
	if !ok {
		return
	}

	source, _ := search["source"].(string)
	switch SearchSource(source) {
	case "", SearchSourceCSV:
	case SearchSourcePostgres:
		if _, ok := search["databaseURL"]; !ok {
			result.addError("search.databaseURL", "databaseURL is required for postgres source")
		}
	default:
		result.addError("search.source", fmt.Sprintf("unknown search source '%s'. Options: csv, postgres", source))
	}

	if ttl, ok := search["cacheTtl"].(string); ok {
		if _, err := time.ParseDuration(ttl); err != nil {
			result.addError("search.cacheTtl", fmt.Sprintf("invalid duration '%s'. Example: \"5m\"", ttl))
		}
	}
	if topN, ok := search["defaultTopN"].(float64); ok && topN < 0 {
		result.addError("search.defaultTopN", "defaultTopN cannot be negative")
	}
}

func validateStorageStructure(rawConfig map[string]any, result *ValidationResult) {
	storage, ok := rawConfig["storage"].(map[string]any)
	if !ok {
		return
	}

	kind, _ := storage["kind"].(string)
	switch StorageKind(kind) {
	case "", StorageKindMemory:
	case StorageKindFirestore:
		if _, ok := storage["gcpProject"]; !ok {
			result.addError("storage.gcpProject", "gcpProject is required when using firestore storage")
		}
		if _, ok := storage["encryptionKey"]; !ok {
			result.addError("storage.encryptionKey", "encryptionKey is required when using firestore storage. Hint: Must be exactly 32 bytes")
		}
	default:
		result.addError("storage.kind", fmt.Sprintf("unknown storage kind '%s'. Options: memory, firestore", kind))
	}
}

func validateSecretRefs(rawConfig map[string]any, result *ValidationResult) {
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
				result.addError(section+"."+name, fmt.Sprintf("%s must use an environment variable reference. Hint: {\"$env\": \"VAR_NAME\"}", name))
			}
		}
	}
}

// checkBashStyleSyntax warns about $VAR and ${VAR} strings, which are never expanded
func checkBashStyleSyntax(value any, path string, result *ValidationResult) {
	bashStyleRegex := regexp.MustCompile(`\$\{?[A-Z_][A-Z0-9_]*\}?`)

	switch v := value.(type) {
	case string:
		for _, match := range bashStyleRegex.FindAllString(v, -1) {
			varName := strings.Trim(match, "${}")
			result.addWarning(path, fmt.Sprintf("found bash-style syntax '%s' - use {\"$env\": \"%s\"} instead", match, varName))
		}
	case map[string]any:
		if _, hasEnv := v["$env"]; hasEnv {
			return
		}
		for key, val := range v {
			newPath := key
			if path != "" {
				newPath = path + "." + key
			}
			checkBashStyleSyntax(val, newPath, result)
		}
	case []any:
		for i, item := range v {
			checkBashStyleSyntax(item, fmt.Sprintf("%s[%d]", path, i), result)
		}
	}
}
