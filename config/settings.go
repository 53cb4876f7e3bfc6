package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Settings holds all configuration for the social feed client
type Settings struct {
	// Ethereum RPC Configuration
	RPCURL  string // Node the signing provider dials
	ChainID int64

	// Contract Configuration
	ContractAddress string // Deployed SocialNetwork contract
	GasLimit        uint64 // Fixed gas bound for createPost

	// Signer Configuration
	PrivateKey string // Hex-encoded key held by the local provider

	// Feed Configuration
	ReloadConcurrency int // >1 enables the bounded concurrent reload path

	// Monitoring & Debugging
	MetricsEnabled bool
	MetricsPort    int
	LogLevel       string
}

var (
	// SettingsObj is the global settings instance
	SettingsObj *Settings
)

// LoadConfig loads configuration from environment variables, with an
// optional feedcli.yaml alongside the binary taking lower precedence.
func LoadConfig() error {
	viper.SetConfigName("feedcli")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	viper.SetDefault("RPC_URL", "http://localhost:8545")
	viper.SetDefault("CHAIN_ID", 1337)
	viper.SetDefault("GAS_LIMIT", 3000000)
	viper.SetDefault("RELOAD_CONCURRENCY", 1)
	viper.SetDefault("METRICS_ENABLED", false)
	viper.SetDefault("METRICS_PORT", 9090)
	viper.SetDefault("LOG_LEVEL", "info")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	SettingsObj = &Settings{
		RPCURL:            viper.GetString("RPC_URL"),
		ChainID:           viper.GetInt64("CHAIN_ID"),
		ContractAddress:   viper.GetString("CONTRACT_ADDRESS"),
		GasLimit:          viper.GetUint64("GAS_LIMIT"),
		PrivateKey:        viper.GetString("PRIVATE_KEY"),
		ReloadConcurrency: viper.GetInt("RELOAD_CONCURRENCY"),
		MetricsEnabled:    viper.GetBool("METRICS_ENABLED"),
		MetricsPort:       viper.GetInt("METRICS_PORT"),
		LogLevel:          viper.GetString("LOG_LEVEL"),
	}

	configureLogging()

	if err := validateConfig(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logConfigSummary()

	return nil
}

// configureLogging sets up the logger based on configuration
func configureLogging() {
	switch strings.ToLower(SettingsObj.LogLevel) {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn", "warning":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
}

// validateConfig validates the loaded configuration
func validateConfig() error {
	if SettingsObj.ContractAddress == "" {
		return fmt.Errorf("CONTRACT_ADDRESS is required")
	}
	if !common.IsHexAddress(SettingsObj.ContractAddress) {
		return fmt.Errorf("invalid contract address: %s", SettingsObj.ContractAddress)
	}
	if SettingsObj.GasLimit == 0 {
		return fmt.Errorf("GAS_LIMIT must be positive")
	}
	if SettingsObj.ReloadConcurrency < 1 {
		return fmt.Errorf("RELOAD_CONCURRENCY must be at least 1")
	}
	if SettingsObj.PrivateKey == "" {
		log.Warn("No private key configured - the client will be read-only")
	}
	return nil
}

// logConfigSummary logs a summary of the configuration
func logConfigSummary() {
	log.Info("=== Configuration Loaded ===")
	log.Infof("RPC URL: %s (chain %d)", SettingsObj.RPCURL, SettingsObj.ChainID)
	log.Infof("Contract: %s", SettingsObj.ContractAddress)
	log.Infof("Gas limit: %d", SettingsObj.GasLimit)
	if SettingsObj.ReloadConcurrency > 1 {
		log.Infof("Feed reload: concurrent (%d workers)", SettingsObj.ReloadConcurrency)
	}
	if SettingsObj.MetricsEnabled {
		log.Infof("Metrics: enabled on port %d", SettingsObj.MetricsPort)
	}
	log.Info("============================")
}
