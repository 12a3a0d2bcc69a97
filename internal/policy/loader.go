package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/civium/aegis/internal/crypto"
	"github.com/civium/aegis/pkg/types"
)

type LoadedPolicy struct {
	Policy Policy
	Hash   string
	Bytes  []byte
}

// Load reads a YAML action policy and computes its hash from the raw bytes.
func Load(path string) (LoadedPolicy, error) {
	// #nosec G304 -- path comes from operator-configured policy path.
	data, err := os.ReadFile(path)
	if err != nil {
		return LoadedPolicy{}, err
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return LoadedPolicy{}, err
	}
	if err := validate(p); err != nil {
		return LoadedPolicy{}, err
	}

	return LoadedPolicy{
		Policy: p,
		Hash:   "sha256:" + crypto.DigestHex(data),
		Bytes:  data,
	}, nil
}

func validate(p Policy) error {
	if err := validRisk(p.Defaults.Risk); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	for _, rule := range p.Rules {
		if rule.ID == "" {
			return fmt.Errorf("rule without id")
		}
		if err := validRisk(rule.Effect.Risk); err != nil {
			return fmt.Errorf("rule %s: %w", rule.ID, err)
		}
	}
	return nil
}

func validRisk(risk string) error {
	switch types.RiskTier(risk) {
	case "", types.RiskLow, types.RiskHigh:
		return nil
	}
	return fmt.Errorf("unknown risk tier %q", risk)
}
