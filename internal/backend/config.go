package backend

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"healthdash/internal/config"
)

// BackendType names an entry store.
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

var backendTypes = []BackendType{MemoryBackend, SQLiteBackend, PostgresBackend}

func (bt BackendType) String() string { return string(bt) }

func (bt BackendType) IsValid() bool {
	for _, t := range backendTypes {
		if bt == t {
			return true
		}
	}
	return false
}

// ParseBackendType accepts a backend name in any case, with "postgresql"
// as an alias of postgres.
func ParseBackendType(s string) (BackendType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "postgresql" {
		name = string(PostgresBackend)
	}
	bt := BackendType(name)
	if !bt.IsValid() {
		return "", fmt.Errorf("unknown backend %q: must be one of %s", s, strings.Join(GetBackendTypeStrings(), ", "))
	}
	return bt, nil
}

// GetBackendTypeStrings lists the accepted DATA_BACKEND values.
func GetBackendTypeStrings() []string {
	out := make([]string, len(backendTypes))
	for i, t := range backendTypes {
		out[i] = t.String()
	}
	return out
}

// Config is the part of the application config the factory needs.
type Config struct {
	Type BackendType

	SQLiteDBPath string
	DatabaseURL  string

	// AMQP is optional for every backend.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	bt, err := ParseBackendType(appConfig.DataBackend)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Type:         bt,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		DatabaseURL:  appConfig.DatabaseURL,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			errs = append(errs, errors.New("sqlite backend needs a database path"))
		}
	case PostgresBackend:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("postgres backend needs a database URL"))
		}
	case MemoryBackend:
	default:
		errs = append(errs, fmt.Errorf("invalid backend type: %q", c.Type))
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		errs = append(errs, errors.New("AMQP needs both an exchange and a queue"))
	}
	return errors.Join(errs...)
}

// Target describes where the store lives, without credentials, for logs.
func (c Config) Target() string {
	switch c.Type {
	case SQLiteBackend:
		return c.SQLiteDBPath
	case PostgresBackend:
		u, err := url.Parse(c.DatabaseURL)
		if err != nil {
			return "postgres"
		}
		return u.Redacted()
	default:
		return string(c.Type)
	}
}
