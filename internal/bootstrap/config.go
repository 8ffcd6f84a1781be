package bootstrap

import (
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort     string `mapstructure:"SERVER_PORT"`
	AiBotUrl       string `mapstructure:"AI_BOT_URL"`
	RedisUrl       string `mapstructure:"REDIS_URL"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	MongoUri       string `mapstructure:"MONGO_URI"`
	IsLocalCors    bool   `mapstructure:"LOCAL_CORS"`
	PageLimitGames int    `mapstructure:"PAGE_LIMIT_GAMES"`
	SweepPeriodSec int    `mapstructure:"SWEEP_PERIOD_SEC"`
}

func Setup(cfgPath string) (*Config, error) {
	viper.SetConfigFile(cfgPath)

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
