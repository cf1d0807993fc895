package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "tapbridge/internal/shared/config"
)

type Config struct {
	Server   sharedConfig.ServerConfig   `mapstructure:"server"`
	Database sharedConfig.DatabaseConfig `mapstructure:"database"`
	Logger   sharedConfig.LoggerConfig   `mapstructure:"logger"`
	Redis    sharedConfig.RedisConfig    `mapstructure:"redis"`
	Chain    sharedConfig.ChainConfig    `mapstructure:"chain"`
	Vault    sharedConfig.VaultConfig    `mapstructure:"vault"`
	Bridge   sharedConfig.BridgeConfig   `mapstructure:"bridge"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables
func Load(env string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	viper.SetEnvPrefix("TAPBRIDGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Allow env parameter to override server mode if provided
	if env != "" && env != "default" {
		viper.Set("server.mode", env)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func validate(config *Config) error {
	if config.Chain.RPCURL == "" {
		return fmt.Errorf("chain.rpc_url is required")
	}
	if config.Chain.ChainID == 0 {
		return fmt.Errorf("chain.chain_id is required")
	}
	if config.Bridge.DepositAddress == "" {
		return fmt.Errorf("bridge.deposit_address is required")
	}
	if config.Vault.KeystorePath == "" {
		return fmt.Errorf("vault.keystore_path is required")
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "root")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "tapbridge_dev")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Chain defaults
	viper.SetDefault("chain.gas_price_wei", 1_000_000_000)
	viper.SetDefault("chain.gas_limit", 21000)
	viper.SetDefault("chain.rpc_timeout_ms", 10000)

	// Vault defaults
	viper.SetDefault("vault.passphrase_env", "TAPBRIDGE_VAULT_PASSPHRASE")

	// Bridge defaults
	viper.SetDefault("bridge.required_confirmations", 6)
	viper.SetDefault("bridge.deposit_ttl_minutes", 60)
	viper.SetDefault("bridge.deposit_lookback_blocks", 1000)
	viper.SetDefault("bridge.deposit_poll_seconds", 15)
	viper.SetDefault("bridge.withdrawal_poll_seconds", 10)
	viper.SetDefault("bridge.withdrawal_stale_minutes", 10)
	viper.SetDefault("bridge.nonce_lease_ttl_seconds", 3600)
	viper.SetDefault("bridge.housekeeping_interval_minutes", 5)
}
