package config

import "fmt"

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ChainConfig holds the ledger-chain RPC settings. Gas price and limit are
// static operator-tuned values, not derived from live fee markets.
type ChainConfig struct {
	RPCURL       string `mapstructure:"rpc_url"`
	ChainID      int64  `mapstructure:"chain_id"`
	GasPriceWei  int64  `mapstructure:"gas_price_wei"`
	GasLimit     uint64 `mapstructure:"gas_limit"`
	RPCTimeoutMS int    `mapstructure:"rpc_timeout_ms"`
}

// VaultConfig points at the encrypted keystore blob for the custodial key.
// The passphrase is expected via environment, never via config file.
type VaultConfig struct {
	KeystorePath  string `mapstructure:"keystore_path"`
	PassphraseEnv string `mapstructure:"passphrase_env"`
}

// BridgeConfig holds deposit/withdrawal processing knobs.
type BridgeConfig struct {
	DepositAddress             string `mapstructure:"deposit_address"`
	RequiredConfirmations      int    `mapstructure:"required_confirmations"`
	DepositTTLMinutes          int    `mapstructure:"deposit_ttl_minutes"`
	DepositLookbackBlocks      uint64 `mapstructure:"deposit_lookback_blocks"`
	DepositPollSeconds         int    `mapstructure:"deposit_poll_seconds"`
	WithdrawalPollSeconds      int    `mapstructure:"withdrawal_poll_seconds"`
	WithdrawalStaleMinutes     int    `mapstructure:"withdrawal_stale_minutes"`
	NonceLeaseTTLSeconds       int    `mapstructure:"nonce_lease_ttl_seconds"`
	HousekeepingIntervalMinute int    `mapstructure:"housekeeping_interval_minutes"`
}
