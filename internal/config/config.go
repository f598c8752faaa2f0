package config

import (
	"errors"
	"fmt"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"os"
)

type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Store     StoreConfig     `mapstructure:"store"`
	AI        AIConfig        `mapstructure:"ai"`
	Shortlist ShortlistConfig `mapstructure:"shortlist"`
	Service   ServiceConfig   `mapstructure:"service"`
}

var configFile = "./configs/config.yaml"

func Get() *Config {

	if value, _ := os.LookupEnv("MODE"); value == "test" {
		configFile = "../../configs/config.yaml"
	}
	if value, ok := os.LookupEnv("CONFIG_PATH"); ok {
		configFile = value
	}

	config, err := loadConfig(configFile)
	if err != nil {
		log.Fatal(err)
	}

	return config
}

func loadConfig(file string) (*Config, error) {

	viper.SetConfigFile(file)
	viper.AutomaticEnv()

	setDefaults()

	err := bindEnvironmentVariables()
	if err != nil {
		return nil, err
	}

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}

	config := Config{}
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	applySchemaDefaults(&config.Store)

	err = config.validate()
	if err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("service.metrics_port", 9090)
	viper.SetDefault("service.api_port", 8080)
	viper.SetDefault("store.backend", BackendAirtable)
	viper.SetDefault("store.max_requests_per_second", 5)
	viper.SetDefault("ai.model", "gemini-1.5-flash")
	viper.SetDefault("ai.max_requests_per_minute", 10)
	viper.SetDefault("ai.max_requests_per_day", 1000)
	viper.SetDefault("shortlist.max_preferred_rate", 100)
	viper.SetDefault("shortlist.min_availability", 20)
	viper.SetDefault("shortlist.min_experience_years", 4)
}

func bindEnvironmentVariables() error {
	var errs []error

	store, ai, logger, service := StoreConfig{}, AIConfig{}, LoggerConfig{}, ServiceConfig{}

	if err := store.bindEnvironmentVariables(); err != nil {
		errs = append(errs, fmt.Errorf("StoreConfig: %w", err))
	}

	if err := ai.bindEnvironmentVariables(); err != nil {
		errs = append(errs, fmt.Errorf("AIConfig: %w", err))
	}

	if err := logger.bindEnvironmentVariables(); err != nil {
		errs = append(errs, fmt.Errorf("LoggerConfig: %w", err))
	}

	if err := service.bindEnvironmentVariables(); err != nil {
		errs = append(errs, fmt.Errorf("ServiceConfig: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func (config Config) validate() error {
	var errs []error

	if err := config.Store.validate(); err != nil {
		errs = append(errs, fmt.Errorf("StoreConfig: %w", err))
	}

	if err := config.AI.validate(); err != nil {
		errs = append(errs, fmt.Errorf("AIConfig: %w", err))
	}

	if err := config.Logger.validate(); err != nil {
		errs = append(errs, fmt.Errorf("LoggerConfig: %w", err))
	}

	if err := config.Shortlist.validate(); err != nil {
		errs = append(errs, fmt.Errorf("ShortlistConfig: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func createMultiError(errs []error) error {
	return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
}
