package deploy

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// configFile is the YAML layout of a deployment config:
//
//	owner: "0x1000000000000000000000000000000000000001"
//	tokens:
//	  - name: Test Dollar
//	    symbol: TUSD
//	withoutTicketIssuer: false
type configFile struct {
	Owner  string `yaml:"owner"`
	Tokens []struct {
		Name   string `yaml:"name"`
		Symbol string `yaml:"symbol"`
	} `yaml:"tokens"`
	WithoutTicketIssuer bool `yaml:"withoutTicketIssuer"`
}

// ParseConfig decodes a YAML deployment config. An empty owner is allowed
// here so flags can supply it; Bootstrap rejects it later.
func ParseConfig(data []byte) (Config, error) {
	var f configFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	var cfg Config
	if f.Owner != "" {
		if !common.IsHexAddress(f.Owner) {
			return Config{}, fmt.Errorf("%w: invalid owner %q", ErrInvalidConfig, f.Owner)
		}
		cfg.Owner = common.HexToAddress(f.Owner)
	}
	for i, t := range f.Tokens {
		if t.Name == "" || t.Symbol == "" {
			return Config{}, fmt.Errorf("%w: token %d needs a name and a symbol", ErrInvalidConfig, i)
		}
		cfg.Tokens = append(cfg.Tokens, TokenConfig{Name: t.Name, Symbol: t.Symbol})
	}
	cfg.WithoutTicketIssuer = f.WithoutTicketIssuer
	return cfg, nil
}

// LoadConfig reads a YAML deployment config from path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("could not read deployment config: %w", err)
	}
	return ParseConfig(data)
}
