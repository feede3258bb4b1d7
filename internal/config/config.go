// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"

	"github.com/rovshanmuradov/vibes-presale/internal/program"
)

// EnvPrefix is prepended to every environment override, e.g. VIBES_RPC_LIST.
const EnvPrefix = "VIBES"

type Config struct {
	RPCList      []string `mapstructure:"rpc_list"`
	Commitment   string   `mapstructure:"commitment"`
	RPCTimeoutMs int      `mapstructure:"rpc_timeout_ms"`

	PresaleProgramID string `mapstructure:"presale_program_id"`
	VestingProgramID string `mapstructure:"vesting_program_id"`
	StakingProgramID string `mapstructure:"staking_program_id"`
	PresaleState     string `mapstructure:"presale_state"`
	VibesMint        string `mapstructure:"vibes_mint"`
	UsdcMint         string `mapstructure:"usdc_mint"`

	// Vault authorities are PDAs of presales that pay out from vaults.
	// Leave both empty for a minting presale.
	PresaleVaultAuthority string `mapstructure:"presale_vault_authority"`
	RewardsVaultAuthority string `mapstructure:"rewards_vault_authority"`

	SolDecimals   uint8 `mapstructure:"sol_decimals"`
	UsdcDecimals  uint8 `mapstructure:"usdc_decimals"`
	VibesDecimals uint8 `mapstructure:"vibes_decimals"`

	MinPurchaseSol    float64 `mapstructure:"min_purchase_sol"`
	MinPurchaseUsdc   float64 `mapstructure:"min_purchase_usdc"`
	MaxVibesPerWallet float64 `mapstructure:"max_vibes_per_wallet"`
	TechnicalCapVibes float64 `mapstructure:"technical_cap_vibes"`

	EnableUsdc    bool `mapstructure:"enable_usdc"`
	EnableStaking bool `mapstructure:"enable_staking"`
	EnableVesting bool `mapstructure:"enable_vesting"`

	ConfirmTimeoutSec int  `mapstructure:"confirm_timeout_sec"`
	PollIntervalMs    int  `mapstructure:"poll_interval_ms"`
	SkipPreflight     bool `mapstructure:"skip_preflight"`

	OracleTimeoutMs   int     `mapstructure:"oracle_timeout_ms"`
	OracleCacheSec    int     `mapstructure:"oracle_cache_sec"`
	OracleFallbackUSD float64 `mapstructure:"oracle_fallback_usd"`

	WalletName  string `mapstructure:"wallet_name"`
	PrivateKey  string `mapstructure:"private_key"`
	SessionFile string `mapstructure:"session_file"`

	DebugLogging   bool   `mapstructure:"debug_logging"`
	LogFile        string `mapstructure:"log_file"`
	NotifyFile     string `mapstructure:"notify_file"`
	NotifyCapacity int    `mapstructure:"notify_capacity"`
	MetricsAddr    string `mapstructure:"metrics_addr"`
}

const (
	DefaultRPCTimeoutMs      = 10_000
	DefaultConfirmTimeoutSec = 60
	DefaultPollIntervalMs    = 500
	DefaultOracleTimeoutMs   = 5_000
	DefaultOracleCacheSec    = 30
	DefaultOracleFallbackUSD = 150.0
	DefaultMinPurchaseSol    = 0.1
	DefaultMinPurchaseUsdc   = 1.0
	DefaultMaxVibesPerWallet = 250_000.0
	DefaultTechnicalCapVibes = 1_000_000.0
	DefaultNotifyCapacity    = 200
)

func defaults() map[string]interface{} {
	p := program.DefaultPrograms()
	d := program.DefaultDecimals()
	return map[string]interface{}{
		"rpc_list":                []string{"https://api.mainnet-beta.solana.com"},
		"commitment":              "confirmed",
		"rpc_timeout_ms":          DefaultRPCTimeoutMs,
		"presale_program_id":      p.Presale.String(),
		"vesting_program_id":      p.Vesting.String(),
		"staking_program_id":      p.Staking.String(),
		"presale_state":           p.PresaleState.String(),
		"vibes_mint":              p.VibesMint.String(),
		"usdc_mint":               p.UsdcMint.String(),
		"presale_vault_authority": "",
		"rewards_vault_authority": "",
		"sol_decimals":            d.SOL,
		"usdc_decimals":           d.USDC,
		"vibes_decimals":          d.VIBES,
		"min_purchase_sol":        DefaultMinPurchaseSol,
		"min_purchase_usdc":       DefaultMinPurchaseUsdc,
		"max_vibes_per_wallet":    DefaultMaxVibesPerWallet,
		"technical_cap_vibes":     DefaultTechnicalCapVibes,
		"enable_usdc":             true,
		"enable_staking":          true,
		"enable_vesting":          true,
		"confirm_timeout_sec":     DefaultConfirmTimeoutSec,
		"poll_interval_ms":        DefaultPollIntervalMs,
		"oracle_timeout_ms":       DefaultOracleTimeoutMs,
		"oracle_cache_sec":        DefaultOracleCacheSec,
		"oracle_fallback_usd":     DefaultOracleFallbackUSD,
		"wallet_name":             "Phantom",
		"session_file":            "vibes-session.yaml",
		"log_file":                "logs/vibes.log",
		"notify_capacity":         DefaultNotifyCapacity,
	}
}

// LoadConfig reads path (optional) and applies VIBES_* overrides.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if len(cfg.RPCList) == 0 {
		return errors.New("rpc_list is empty")
	}
	for _, rpcURL := range cfg.RPCList {
		if err := validateURLWithCache(rpcURL, "http"); err != nil {
			return fmt.Errorf("invalid RPC URL: %w", err)
		}
	}
	switch cfg.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("invalid commitment %q", cfg.Commitment)
	}
	if _, err := cfg.Programs(); err != nil {
		return err
	}
	if _, err := cfg.VaultAuthorities(); err != nil {
		return err
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.RPCTimeoutMs <= 0 {
		return errors.New("invalid rpc_timeout_ms")
	}
	if cfg.ConfirmTimeoutSec <= 0 {
		return errors.New("invalid confirm_timeout_sec")
	}
	if cfg.PollIntervalMs <= 0 {
		return errors.New("invalid poll_interval_ms")
	}
	if cfg.OracleTimeoutMs <= 0 {
		return errors.New("invalid oracle_timeout_ms")
	}
	if cfg.OracleCacheSec < 0 {
		return errors.New("invalid oracle_cache_sec")
	}
	if cfg.OracleFallbackUSD <= 0 {
		return errors.New("invalid oracle_fallback_usd")
	}
	if cfg.MinPurchaseSol <= 0 || cfg.MinPurchaseUsdc <= 0 {
		return errors.New("minimum purchase must be positive")
	}
	if cfg.MaxVibesPerWallet <= 0 || cfg.MaxVibesPerWallet > cfg.TechnicalCapVibes {
		return errors.New("max_vibes_per_wallet must be positive and within technical_cap_vibes")
	}
	if cfg.SolDecimals > 18 || cfg.UsdcDecimals > 18 || cfg.VibesDecimals > 18 {
		return errors.New("invalid token decimals")
	}
	if cfg.NotifyCapacity <= 0 {
		return errors.New("invalid notify_capacity")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) || parsed.Host == "" {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	envRPCList := v.GetString("RPC_LIST")
	if envRPCList != "" {
		rpcs := strings.Split(envRPCList, ",")
		var cleanRPCs []string
		for _, rpc := range rpcs {
			clean := strings.TrimSpace(rpc)
			if clean != "" {
				cleanRPCs = append(cleanRPCs, clean)
			}
		}
		if len(cleanRPCs) > 0 {
			cfg.RPCList = cleanRPCs
		}
	}

	if key := v.GetString("PRIVATE_KEY"); key != "" {
		cfg.PrivateKey = key
	}
	return nil
}

// Programs parses the configured addresses.
func (c *Config) Programs() (program.Programs, error) {
	var p program.Programs
	fields := []struct {
		name string
		raw  string
		dst  *solana.PublicKey
	}{
		{"presale_program_id", c.PresaleProgramID, &p.Presale},
		{"vesting_program_id", c.VestingProgramID, &p.Vesting},
		{"staking_program_id", c.StakingProgramID, &p.Staking},
		{"presale_state", c.PresaleState, &p.PresaleState},
		{"vibes_mint", c.VibesMint, &p.VibesMint},
		{"usdc_mint", c.UsdcMint, &p.UsdcMint},
	}
	for _, f := range fields {
		key, err := solana.PublicKeyFromBase58(f.raw)
		if err != nil {
			return program.Programs{}, fmt.Errorf("invalid %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = key
	}
	return p, nil
}

// VaultAuthorities parses the optional vault authority pair. Both keys must
// be set together; none set yields the zero value.
func (c *Config) VaultAuthorities() (program.VaultAuthorities, error) {
	var va program.VaultAuthorities
	if c.PresaleVaultAuthority == "" && c.RewardsVaultAuthority == "" {
		return va, nil
	}
	if c.PresaleVaultAuthority == "" || c.RewardsVaultAuthority == "" {
		return va, errors.New("presale_vault_authority and rewards_vault_authority must be set together")
	}
	var err error
	if va.Presale, err = solana.PublicKeyFromBase58(c.PresaleVaultAuthority); err != nil {
		return program.VaultAuthorities{}, fmt.Errorf("invalid presale_vault_authority %q: %w", c.PresaleVaultAuthority, err)
	}
	if va.Rewards, err = solana.PublicKeyFromBase58(c.RewardsVaultAuthority); err != nil {
		return program.VaultAuthorities{}, fmt.Errorf("invalid rewards_vault_authority %q: %w", c.RewardsVaultAuthority, err)
	}
	if va.Presale.IsZero() || va.Rewards.IsZero() {
		return program.VaultAuthorities{}, errors.New("vault authorities must not be the zero address")
	}
	return va, nil
}

// Decimals returns the configured token exponents.
func (c *Config) Decimals() program.Decimals {
	return program.Decimals{SOL: c.SolDecimals, USDC: c.UsdcDecimals, VIBES: c.VibesDecimals}
}
