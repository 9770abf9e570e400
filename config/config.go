package config

import (
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/tradeloop/marketmaker-dev/pkg/autotrader"
	postgres_wrapper "github.com/tradeloop/marketmaker-dev/pkg/infra/postgres"
	redis_wrapper "github.com/tradeloop/marketmaker-dev/pkg/infra/redis"
)

type AppConfig struct {
	ServiceName string                           `yaml:"service_name"`
	Strategy    autotrader.StrategyParams        `yaml:"strategy"`
	JournalDB   *postgres_wrapper.PostgresConfig `yaml:"journal_db"`
	Redis       *redis_wrapper.RedisConfig       `yaml:"redis"`
	// JournalStream is the redis stream order events fan out to.
	JournalStream string `yaml:"journal_stream"`
	// TakerFeeCents is the per-lot fee the simulated venue charges on
	// aggressive executions.
	TakerFeeCents int64 `yaml:"taker_fee_cents"`
}

// Load load config from file and environment variables.
func Load(filePath string) (*AppConfig, error) {
	if len(filePath) == 0 {
		filePath = os.Getenv("CONFIG_FILE")
	}

	fields := []interface{}{
		"func",
		"config.readFromFile",
		"filePath",
		filePath,
	}

	sugar := zap.S().With(fields...)

	sugar.Debug("Load config...")
	zap.S().Debugf("CONFIG_FILE=%v", filePath)

	configBytes, err := os.ReadFile(filePath)
	if err != nil {
		sugar.Error("Failed to load config file")
		return nil, err
	}
	configBytes = []byte(os.ExpandEnv(string(configBytes)))

	cfg := &AppConfig{}

	err = yaml.Unmarshal(configBytes, cfg)
	if err != nil {
		sugar.Error("Failed to parse config file")
		return nil, err
	}
	cfg.applyDefaults()

	zap.S().Debugf("config: %+v", cfg)

	return cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Strategy.TickSize == 0 {
		c.Strategy.TickSize = 100
	}
	if c.Strategy.MaximumAsk == 0 {
		c.Strategy.MaximumAsk = 1<<31 - 1
	}
	if c.Strategy.LotSize == 0 {
		c.Strategy.LotSize = 10
	}
	if c.Strategy.PositionLimit == 0 {
		c.Strategy.PositionLimit = 100
	}
	if c.Strategy.HedgeMaxRetries == 0 {
		c.Strategy.HedgeMaxRetries = 8
	}
	if c.JournalStream == "" {
		c.JournalStream = "marketmaker:order-events"
	}
}
