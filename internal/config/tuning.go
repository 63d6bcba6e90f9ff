package config

import (
	"fmt"
	"maps"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bradstire/wst-reader/internal/domain"
	"github.com/bradstire/wst-reader/internal/enforcer"
)

// LoadTuning reads a YAML tuning file over enforcer.DefaultTuning. Keys the
// file omits keep their defaults, including inside sign profiles. An empty
// path returns the defaults.
func LoadTuning(path string) (enforcer.Tuning, error) {
	t := enforcer.DefaultTuning()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return enforcer.Tuning{}, fmt.Errorf("read tuning %s: %w", path, err)
	}
	if err := mergeTuning(&t, data); err != nil {
		return enforcer.Tuning{}, fmt.Errorf("load tuning %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return enforcer.Tuning{}, fmt.Errorf("invalid tuning %s: %w", path, err)
	}
	return t, nil
}

func mergeTuning(t *enforcer.Tuning, data []byte) error {
	var overrides struct {
		Profiles struct {
			Signs map[string]yaml.Node `yaml:"signs"`
		} `yaml:"profiles"`
	}
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return err
	}

	// Sign maps are decoded into fresh values, so profiles are merged by hand.
	signs := maps.Clone(t.Profiles.Signs)
	if err := yaml.Unmarshal(data, t); err != nil {
		return err
	}
	t.Profiles.Signs = signs

	for key, node := range overrides.Profiles.Signs {
		sign, ok := domain.ParseSign(key)
		if !ok {
			return fmt.Errorf("profile %q: %w", key, domain.ErrUnknownSign)
		}
		p, ok := signs[sign]
		if !ok {
			p = domain.FamilyProfile(sign.Family())
			p.Sign = sign
		}
		if err := node.Decode(&p); err != nil {
			return fmt.Errorf("profile %s: %w", sign, err)
		}
		signs[sign] = p
	}
	return nil
}
