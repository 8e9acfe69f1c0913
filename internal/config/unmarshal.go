package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// UnmarshalJSON implements custom unmarshaling for ServerConfig
func (s *ServerConfig) UnmarshalJSON(data []byte) error {
	type rawServer struct {
		Addr           json.RawMessage   `json:"addr"`
		BaseURL        json.RawMessage   `json:"baseURL"`
		AllowedOrigins []json.RawMessage `json:"allowedOrigins"`
	}

	var raw rawServer
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var err error
	if s.Addr, err = ParseConfigValue(raw.Addr); err != nil {
		return fmt.Errorf("parsing addr: %w", err)
	}
	if s.BaseURL, err = ParseConfigValue(raw.BaseURL); err != nil {
		return fmt.Errorf("parsing baseURL: %w", err)
	}
	if len(raw.AllowedOrigins) > 0 {
		if s.AllowedOrigins, err = ParseConfigValueSlice(raw.AllowedOrigins); err != nil {
			return fmt.Errorf("parsing allowedOrigins: %w", err)
		}
	}
	return nil
}

// UnmarshalJSON implements custom unmarshaling for IdentityConfig
func (c *IdentityConfig) UnmarshalJSON(data []byte) error {
	type rawIdentity struct {
		Kind      IdentityKind    `json:"kind"`
		URL       json.RawMessage `json:"url"`
		AnonKey   json.RawMessage `json:"anonKey"`
		JWTSecret json.RawMessage `json:"jwtSecret"`
		Audience  json.RawMessage `json:"audience"`
	}

	var raw rawIdentity
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.Kind = raw.Kind

	var err error
	if c.URL, err = ParseConfigValue(raw.URL); err != nil {
		return fmt.Errorf("parsing url: %w", err)
	}
	if c.Audience, err = ParseConfigValue(raw.Audience); err != nil {
		return fmt.Errorf("parsing audience: %w", err)
	}

	anonKey, err := ParseConfigValue(raw.AnonKey)
	if err != nil {
		return fmt.Errorf("parsing anonKey: %w", err)
	}
	c.AnonKey = Secret(anonKey)

	jwtSecret, err := ParseConfigValue(raw.JWTSecret)
	if err != nil {
		return fmt.Errorf("parsing jwtSecret: %w", err)
	}
	c.JWTSecret = Secret(jwtSecret)

	return nil
}

// UnmarshalJSON implements custom unmarshaling for CalendarConfig
func (c *CalendarConfig) UnmarshalJSON(data []byte) error {
	type rawCalendar struct {
		RedirectURI json.RawMessage `json:"redirectUri"`
	}

	var raw rawCalendar
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	redirectURI, err := ParseConfigValue(raw.RedirectURI)
	if err != nil {
		return fmt.Errorf("parsing redirectUri: %w", err)
	}
	c.RedirectURI = redirectURI
	return nil
}

// UnmarshalJSON implements custom unmarshaling for SearchConfig
func (c *SearchConfig) UnmarshalJSON(data []byte) error {
	type rawSearch struct {
		Source      SearchSource    `json:"source"`
		CSVPath     json.RawMessage `json:"csvPath"`
		DatabaseURL json.RawMessage `json:"databaseURL"`
		Table       string          `json:"table"`
		CacheTTL    string          `json:"cacheTtl"`
		DefaultTopN int             `json:"defaultTopN"`
	}

	var raw rawSearch
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.Source = raw.Source
	c.Table = raw.Table
	c.DefaultTopN = raw.DefaultTopN

	if raw.CacheTTL != "" {
		ttl, err := time.ParseDuration(raw.CacheTTL)
		if err != nil {
			return fmt.Errorf("parsing cacheTtl: %w", err)
		}
		c.CacheTTL = ttl
	}

	var err error
	if c.CSVPath, err = ParseConfigValue(raw.CSVPath); err != nil {
		return fmt.Errorf("parsing csvPath: %w", err)
	}

	databaseURL, err := ParseConfigValue(raw.DatabaseURL)
	if err != nil {
		return fmt.Errorf("parsing databaseURL: %w", err)
	}
	c.DatabaseURL = Secret(databaseURL)

	return nil
}

// UnmarshalJSON implements custom unmarshaling for StorageConfig
func (c *StorageConfig) UnmarshalJSON(data []byte) error {
	type rawStorage struct {
		Kind                StorageKind     `json:"kind"`
		GCPProject          json.RawMessage `json:"gcpProject"`
		FirestoreDatabase   string          `json:"firestoreDatabase"`
		FirestoreCollection string          `json:"firestoreCollection"`
		EncryptionKey       json.RawMessage `json:"encryptionKey"`
	}

	var raw rawStorage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.Kind = raw.Kind
	c.FirestoreDatabase = raw.FirestoreDatabase
	c.FirestoreCollection = raw.FirestoreCollection

	var err error
	if c.GCPProject, err = ParseConfigValue(raw.GCPProject); err != nil {
		return fmt.Errorf("parsing gcpProject: %w", err)
	}

	key, err := ParseConfigValue(raw.EncryptionKey)
	if err != nil {
		return fmt.Errorf("parsing encryptionKey: %w", err)
	}
	c.EncryptionKey = Secret(key)

	return nil
}
