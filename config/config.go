package config

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"dropvest/crypto"
)

// Config carries the deployment parameters consumed once at construction: the
// allowlist commitment, the vesting curve, the owner identity and the vault
// funding. Everything else about the airdrop is derived from state.
type Config struct {
	RPCAddress  string `toml:"RPCAddress"`
	OpsAddress  string `toml:"OpsAddress"`
	DataDir     string `toml:"DataDir"`
	NetworkName string `toml:"NetworkName"`

	TokenSymbol       string `toml:"TokenSymbol"`
	MerkleRoot        string `toml:"MerkleRoot"`
	Owner             string `toml:"Owner"`
	VestingStart      int64  `toml:"VestingStart"`
	VestingEnd        int64  `toml:"VestingEnd"`
	InstantReleaseBps uint32 `toml:"InstantReleaseBps"`
	VaultFunding      string `toml:"VaultFunding"`
}

// Load reads and validates the configuration at the given path.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file %s does not exist", path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Normalize applies defaults and validates the deployment parameters. Vesting
// bounds are a deployment-time invariant: an end time at or before the start
// time is a configuration error, never handled at claim time.
func (c *Config) Normalize() error {
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = ":8645"
	}
	if strings.TrimSpace(c.OpsAddress) == "" {
		c.OpsAddress = ":9090"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./dropvest-data"
	}
	if strings.TrimSpace(c.NetworkName) == "" {
		c.NetworkName = "dropvest-local"
	}
	if strings.TrimSpace(c.TokenSymbol) == "" {
		c.TokenSymbol = "DROP"
	}
	if c.InstantReleaseBps == 0 {
		c.InstantReleaseBps = 3100
	}
	if c.InstantReleaseBps > 10_000 {
		return fmt.Errorf("config: InstantReleaseBps %d exceeds 10000", c.InstantReleaseBps)
	}
	if c.VestingEnd <= c.VestingStart {
		return fmt.Errorf("config: VestingEnd %d must be after VestingStart %d", c.VestingEnd, c.VestingStart)
	}
	if strings.TrimSpace(c.Owner) == "" {
		return fmt.Errorf("config: Owner address is required")
	}
	if _, err := c.OwnerAddress(); err != nil {
		return err
	}
	if _, err := c.Root(); err != nil {
		return err
	}
	if _, err := c.FundingAmount(); err != nil {
		return err
	}
	return nil
}

// OwnerAddress decodes the configured bech32 owner address.
func (c *Config) OwnerAddress() (crypto.Address, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(c.Owner))
	if err != nil {
		return crypto.Address{}, fmt.Errorf("config: decode owner: %w", err)
	}
	return addr, nil
}

// Root decodes the configured merkle root hex string.
func (c *Config) Root() ([32]byte, error) {
	var root [32]byte
	trimmed := strings.TrimSpace(c.MerkleRoot)
	trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	if trimmed == "" {
		return root, fmt.Errorf("config: MerkleRoot is required")
	}
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return root, fmt.Errorf("config: decode merkle root: %w", err)
	}
	if len(decoded) != len(root) {
		return root, fmt.Errorf("config: merkle root must be 32 bytes, got %d", len(decoded))
	}
	copy(root[:], decoded)
	return root, nil
}

// FundingAmount parses the initial vault funding as a base-10 integer in the
// token's smallest unit. Empty means no funding at genesis.
func (c *Config) FundingAmount() (*big.Int, error) {
	trimmed := strings.TrimSpace(c.VaultFunding)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("config: invalid VaultFunding %q", c.VaultFunding)
	}
	return amount, nil
}
