package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ndavydov/applicant-sync/internal/tablestore"
)

type storeBackend string

const (
	BackendAirtable storeBackend = "airtable"
	BackendSqlite   storeBackend = "sqlite"
)

type StoreConfig struct {
	Backend              storeBackend      `mapstructure:"backend"`
	AirtableToken        string            `mapstructure:"airtable_token"`
	AirtableBaseID       string            `mapstructure:"airtable_base_id"`
	ConnectionString     string            `mapstructure:"connection_string"`
	MaxRequestsPerSecond float32           `mapstructure:"max_requests_per_second"`
	Schema               tablestore.Schema `mapstructure:"schema"`
}

// applySchemaDefaults fills an absent schema block with the backend's default
// mapping, so the yaml only needs to spell out the tables it renames.
func applySchemaDefaults(config *StoreConfig) {
	if config.Schema.Applicants.Name != "" {
		return
	}
	if config.Backend == BackendSqlite {
		config.Schema = tablestore.PlainSchema()
	} else {
		config.Schema = tablestore.DefaultSchema()
	}
}

func (config StoreConfig) validate() error {

	switch config.Backend {
	case BackendAirtable:
		var missingFields []string
		if config.AirtableToken == "" {
			missingFields = append(missingFields, "airtable_token")
		}
		if config.AirtableBaseID == "" {
			missingFields = append(missingFields, "airtable_base_id")
		}
		if len(missingFields) > 0 {
			return fmt.Errorf("missing required variables: %s", strings.Join(missingFields, ", "))
		}
	case BackendSqlite:
		if config.ConnectionString == "" {
			return fmt.Errorf("missing variable: connection_string")
		}
	default:
		return fmt.Errorf("unknown store backend: %v", config.Backend)
	}

	return nil
}

func (config StoreConfig) bindEnvironmentVariables() error {
	var errs []error

	if err := viper.BindEnv("store.backend", "STORE_BACKEND"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("store.airtable_token", "AIRTABLE_TOKEN"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("store.airtable_base_id", "AIRTABLE_BASE_ID"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("store.connection_string", "DB_CONNECTION_STRING"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return createMultiError(errs)
	}

	return nil
}
