package rules

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load reads a rule set from the given YAML file. Sections present in the
// file replace the corresponding default section wholesale; sections the
// file omits keep their defaults. An empty path returns the defaults.
func Load(path string) (*Set, error) {
	if path == "" {
		return Defaults(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("rules: reading %s: %w", path, err)
	}

	var override Set
	if err := v.Unmarshal(&override); err != nil {
		return nil, fmt.Errorf("rules: decoding %s: %w", path, err)
	}

	s := Defaults()
	if v.IsSet("segment_rules") {
		s.SegmentRules = override.SegmentRules
	}
	if v.IsSet("payment_rules") {
		s.PaymentRules = override.PaymentRules
	}
	if v.IsSet("payment_allow_list") {
		s.PaymentAllowList = override.PaymentAllowList
	}
	if v.IsSet("cohorts") {
		s.Cohorts = override.Cohorts
	}
	if err := s.compile(); err != nil {
		return nil, err
	}
	return s, nil
}
