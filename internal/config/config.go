package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"

	"certchain/internal/chain"
)

// Config holds all configuration
type Config struct {
	MySQL    MySQLConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Log      LogConfig
	Chain    ChainConfig
	Wallet   WalletConfig
	Verify   VerifyConfig
	ACME     ACMEConfig
	Operator OperatorConfig
	Migrate  bool
	HTTPAddr string
}

// MySQLConfig holds MySQL configuration
type MySQLConfig struct {
	DSN string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret        string
	ExpireMinutes int
	Issuer        string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string // text or json
}

// ChainConfig holds the RPC endpoint and contract location
type ChainConfig struct {
	ChainID          uint64
	RPCURL           string
	ContractAddress  string
	HistoryFromBlock uint64
}

// Wallet modes
const (
	WalletModeKeystore = "keystore"
	WalletModeExternal = "external"
	WalletModeNone     = "none"
)

// WalletConfig holds the signing wallet configuration
type WalletConfig struct {
	Mode             string
	KeystoreDir      string
	Account          string
	Passphrase       string
	ExternalURL      string
	WatchIntervalSec int
}

// VerifyConfig holds public verification settings
type VerifyConfig struct {
	CacheTTLSec int
}

// ACMEConfig holds portal TLS settings
type ACMEConfig struct {
	Enabled      bool
	Email        string
	Domains      []string
	DirectoryURL string
	CertDir      string
	HTTPPort     string
}

// OperatorConfig seeds the first portal operator during migration
type OperatorConfig struct {
	Username string
	Password string
}

const defaultContractAddress = "0xcc8a9a1d20ba4da17130be63ff12a74229d11fa8"

// source resolves a key with priority ENV > INI > default
type source struct {
	file *ini.File
}

func (s source) get(envKey, iniSection, iniKey, defaultValue string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}
	if s.file != nil {
		if value := s.file.Section(iniSection).Key(iniKey).String(); value != "" {
			return value
		}
	}
	return defaultValue
}

func (s source) getInt(envKey, iniSection, iniKey string, defaultValue int) int {
	if value := os.Getenv(envKey); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	if s.file != nil && s.file.Section(iniSection).HasKey(iniKey) {
		if value, err := s.file.Section(iniSection).Key(iniKey).Int(); err == nil {
			return value
		}
	}
	return defaultValue
}

func (s source) getUint64(envKey, iniSection, iniKey string, defaultValue uint64) uint64 {
	if value := os.Getenv(envKey); value != "" {
		if v, err := strconv.ParseUint(value, 10, 64); err == nil {
			return v
		}
	}
	if s.file != nil && s.file.Section(iniSection).HasKey(iniKey) {
		if v, err := s.file.Section(iniSection).Key(iniKey).Uint64(); err == nil {
			return v
		}
	}
	return defaultValue
}

func (s source) getBool(envKey, iniSection, iniKey string, defaultValue bool) bool {
	if value := os.Getenv(envKey); value != "" {
		return value == "1" || value == "true"
	}
	if s.file != nil && s.file.Section(iniSection).HasKey(iniKey) {
		if value, err := s.file.Section(iniSection).Key(iniKey).Bool(); err == nil {
			return value
		}
	}
	return defaultValue
}

// Load loads configuration from the environment, overlaid on the INI file
// named by CONFIG_FILE when set
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	var src source
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		file, err := ini.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load INI file: %w", err)
		}
		src.file = file
	}
	return build(src)
}

// LoadFromINI loads configuration from an INI file with environment variable override
func LoadFromINI(iniPath string) (*Config, error) {
	_ = godotenv.Load()

	file, err := ini.Load(iniPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load INI file: %w", err)
	}
	return build(source{file: file})
}

func build(src source) (*Config, error) {
	chainID := src.getUint64("CHAIN_ID", "chain", "chain_id", chain.DefaultChainID)

	cfg := &Config{
		MySQL: MySQLConfig{
			DSN: src.get("MYSQL_DSN", "mysql", "dsn", ""),
		},
		Redis: RedisConfig{
			Addr:     src.get("REDIS_ADDR", "redis", "addr", "localhost:6379"),
			Password: src.get("REDIS_PASS", "redis", "pass", ""),
			DB:       src.getInt("REDIS_DB", "redis", "db", 0),
		},
		JWT: JWTConfig{
			Secret:        src.get("JWT_SECRET", "jwt", "secret", ""),
			ExpireMinutes: src.getInt("JWT_EXPIRE_MINUTES", "jwt", "expire_minutes", 1440),
			Issuer:        src.get("JWT_ISSUER", "jwt", "issuer", "certchain"),
		},
		Log: LogConfig{
			Level:  src.get("LOG_LEVEL", "log", "level", "info"),
			Format: src.get("LOG_FORMAT", "log", "format", "text"),
		},
		Chain: ChainConfig{
			ChainID:          chainID,
			RPCURL:           src.get("CHAIN_RPC_URL", "chain", "rpc_url", chain.PublicRPCURLs[chainID]),
			ContractAddress:  src.get("CONTRACT_ADDRESS", "chain", "contract_address", defaultContractAddress),
			HistoryFromBlock: src.getUint64("HISTORY_FROM_BLOCK", "chain", "history_from_block", 0),
		},
		Wallet: WalletConfig{
			Mode:             strings.ToLower(src.get("WALLET_MODE", "wallet", "mode", WalletModeNone)),
			KeystoreDir:      src.get("WALLET_KEYSTORE_DIR", "wallet", "keystore_dir", ""),
			Account:          src.get("WALLET_ACCOUNT", "wallet", "account", ""),
			Passphrase:       src.get("WALLET_PASSPHRASE", "wallet", "passphrase", ""),
			ExternalURL:      src.get("WALLET_EXTERNAL_URL", "wallet", "external_url", ""),
			WatchIntervalSec: src.getInt("WALLET_WATCH_INTERVAL_SEC", "wallet", "watch_interval_sec", 10),
		},
		Verify: VerifyConfig{
			CacheTTLSec: src.getInt("VERIFY_CACHE_TTL_SEC", "verify", "cache_ttl_sec", 30),
		},
		ACME: ACMEConfig{
			Enabled:      src.getBool("ACME_ENABLED", "acme", "enabled", false),
			Email:        src.get("ACME_EMAIL", "acme", "email", ""),
			Domains:      splitList(src.get("ACME_DOMAINS", "acme", "domains", "")),
			DirectoryURL: src.get("ACME_DIRECTORY_URL", "acme", "directory_url", "https://acme-v02.api.letsencrypt.org/directory"),
			CertDir:      src.get("ACME_CERT_DIR", "acme", "cert_dir", "./data/acme"),
			HTTPPort:     src.get("ACME_HTTP_PORT", "acme", "http_port", "80"),
		},
		Operator: OperatorConfig{
			Username: src.get("OPERATOR_USERNAME", "operator", "username", ""),
			Password: src.get("OPERATOR_PASSWORD", "operator", "password", ""),
		},
		Migrate:  src.getBool("MIGRATE", "app", "migrate", false),
		HTTPAddr: src.get("HTTP_ADDR", "http", "addr", ":8080"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Chain.RPCURL == "" {
		return fmt.Errorf("CHAIN_RPC_URL is required for chain %d", c.Chain.ChainID)
	}
	switch c.Wallet.Mode {
	case WalletModeNone:
	case WalletModeKeystore:
		if c.Wallet.KeystoreDir == "" {
			return fmt.Errorf("WALLET_KEYSTORE_DIR is required when WALLET_MODE=keystore")
		}
	case WalletModeExternal:
		if c.Wallet.ExternalURL == "" {
			return fmt.Errorf("WALLET_EXTERNAL_URL is required when WALLET_MODE=external")
		}
	default:
		return fmt.Errorf("unknown WALLET_MODE %q", c.Wallet.Mode)
	}
	if c.ACME.Enabled && (c.ACME.Email == "" || len(c.ACME.Domains) == 0) {
		return fmt.Errorf("ACME_EMAIL and ACME_DOMAINS are required when ACME_ENABLED=1")
	}
	return nil
}

// RequireServer checks the settings only the HTTP portal needs
func (c *Config) RequireServer() error {
	if c.MySQL.DSN == "" {
		return fmt.Errorf("MYSQL_DSN is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
