package config

import (
	"github.com/spf13/viper"
)

type ServiceConfig struct {
	APIPort     int `mapstructure:"api_port"`
	MetricsPort int `mapstructure:"metrics_port"`
	// cron expression for the periodic full reconciliation sweep; empty
	// disables the sweeper
	SweepSchedule string `mapstructure:"sweep_schedule"`
	// Telegram notifications are off when the token is empty
	TelegramToken  string `mapstructure:"telegram_token"`
	TelegramChatID int64  `mapstructure:"telegram_chat_id"`
}

func (config ServiceConfig) bindEnvironmentVariables() error {
	var errs []error

	if err := viper.BindEnv("service.telegram_token", "TG_TOKEN"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("service.telegram_chat_id", "TG_CHAT_ID"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return createMultiError(errs)
	}

	return nil
}
