// Package config provides configuration management for the mint service.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tyler-smith/go-bip39"

	"github.com/tentou-tech/mimboku-mint-go/pkg/rounds"
)

// Default values.
var (
	DefaultChainID        = uint64(1315)
	DefaultHost           = "127.0.0.1"
	DefaultPort           = 8599
	DefaultCollectionName = "Mimboku"
	DefaultSymbol         = "MBK"
	DefaultTokenURI       = "ipfs://tokenURI.com"
	DefaultBalance        = new(big.Int).Mul(big.NewInt(10000), big.NewInt(1e18)) // 10000 native units
	DefaultMnemonic       = "test test test test test test test test test test test junk"
)

// Config defines the mint service configuration.
type Config struct {
	// Network configuration
	ChainID uint64 `json:"chainId"`

	// Server configuration
	Host string `json:"host"`
	Port int    `json:"port"`

	// Deployment identity
	ControllerAddress common.Address `json:"controllerAddress"`
	CollectionAddress common.Address `json:"collectionAddress"`
	RelayAddress      common.Address `json:"relayAddress"`

	// Roles
	DefaultAdmin common.Address `json:"defaultAdmin"`
	Operator     common.Address `json:"operator"`

	// Request signer
	SignerAddress common.Address `json:"signerAddress"`
	Mnemonic      string         `json:"mnemonic,omitempty"`

	// Collection metadata
	CollectionName string `json:"collectionName"`
	Symbol         string `json:"symbol"`
	TokenURI       string `json:"tokenURI"`

	// Local accounts funded at startup
	FundedAccounts []common.Address `json:"fundedAccounts,omitempty"`
	DefaultBalance *big.Int         `json:"defaultBalance"`

	// Stages registered at startup
	Stages []rounds.StageMintInfo `json:"stages,omitempty"`

	// Feature flags
	TestMode bool `json:"testMode"`
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		ChainID:        DefaultChainID,
		Host:           DefaultHost,
		Port:           DefaultPort,
		CollectionName: DefaultCollectionName,
		Symbol:         DefaultSymbol,
		TokenURI:       DefaultTokenURI,
		DefaultBalance: new(big.Int).Set(DefaultBalance),
		Mnemonic:       DefaultMnemonic,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.ChainID == 0 {
		errs = append(errs, "chainId must be greater than 0")
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}

	if c.DefaultAdmin == (common.Address{}) {
		errs = append(errs, "defaultAdmin cannot be the zero address")
	}

	if c.Operator == (common.Address{}) {
		errs = append(errs, "operator cannot be the zero address")
	}

	if c.Mnemonic != "" && !bip39.IsMnemonicValid(c.Mnemonic) {
		errs = append(errs, "mnemonic is invalid")
	}

	for _, stage := range c.Stages {
		if stage.Stage == "" {
			errs = append(errs, "stage name cannot be empty")
			continue
		}
		if stage.StartTime > stage.EndTime {
			errs = append(errs, fmt.Sprintf("stage %q: startTime after endTime", stage.Stage))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

// LoadFromFile loads configuration from a JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return MergeWithDefaults(&cfg), nil
}

// MergeWithDefaults merges partial config with default values.
func MergeWithDefaults(partial *Config) *Config {
	def := Default()

	if partial.ChainID != 0 {
		def.ChainID = partial.ChainID
	}
	if partial.Host != "" {
		def.Host = partial.Host
	}
	if partial.Port != 0 {
		def.Port = partial.Port
	}
	if partial.CollectionName != "" {
		def.CollectionName = partial.CollectionName
	}
	if partial.Symbol != "" {
		def.Symbol = partial.Symbol
	}
	if partial.TokenURI != "" {
		def.TokenURI = partial.TokenURI
	}
	if partial.DefaultBalance != nil {
		def.DefaultBalance = partial.DefaultBalance
	}
	if partial.Mnemonic != "" {
		def.Mnemonic = partial.Mnemonic
	}
	def.ControllerAddress = partial.ControllerAddress
	def.CollectionAddress = partial.CollectionAddress
	def.RelayAddress = partial.RelayAddress
	def.DefaultAdmin = partial.DefaultAdmin
	def.Operator = partial.Operator
	def.SignerAddress = partial.SignerAddress
	def.FundedAccounts = partial.FundedAccounts
	def.Stages = partial.Stages
	def.TestMode = partial.TestMode

	return def
}

// Copy creates a deep copy of the configuration.
func (c *Config) Copy() *Config {
	copied := *c

	if c.DefaultBalance != nil {
		copied.DefaultBalance = new(big.Int).Set(c.DefaultBalance)
	}

	if c.FundedAccounts != nil {
		copied.FundedAccounts = make([]common.Address, len(c.FundedAccounts))
		copy(copied.FundedAccounts, c.FundedAccounts)
	}

	if c.Stages != nil {
		copied.Stages = make([]rounds.StageMintInfo, len(c.Stages))
		for i := range c.Stages {
			copied.Stages[i] = c.Stages[i].Copy()
		}
	}

	return &copied
}

// ServerAddr returns the server address string.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
