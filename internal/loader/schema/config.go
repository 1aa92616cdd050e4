package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"vanish/internal/interning"
)

const (
	DefaultInvisibilityDuration Seconds = 5
	DefaultCooldownDuration     Seconds = 15

	// MaxSeconds is the longest duration a time.Duration can hold.
	MaxSeconds Seconds = math.MaxInt64 / Seconds(time.Second)

	DefaultInvisibilityMessage = "🫥 You are now invisible!"
	DefaultVisibilityMessage   = "✨ You are visible again!"
	DefaultCooldownMessage     = "⚠️ Invisibility is on cooldown!"
)

// DefaultTriggerWeapons returns a fresh copy of the stock trigger set.
func DefaultTriggerWeapons() StringList {
	return StringList{"weapon_molotov", "weapon_incgrenade"}
}

//// UTILITY TYPES

// Seconds is a whole number of seconds. YAML accepts either a bare integer
// or a Go duration string ("5s", "1m"); sub-second remainders round up.
type Seconds int

func (s *Seconds) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", value.Line)
	}
	if n, err := strconv.Atoi(value.Value); err == nil {
		*s = Seconds(n)
		return nil
	}
	d, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", value.Line, value.Value, err)
	}
	secs := d / time.Second
	if d%time.Second > 0 {
		secs++
	}
	*s = Seconds(secs)
	return nil
}

// Duration converts s to a time.Duration.
func (s Seconds) Duration() time.Duration {
	return time.Duration(s) * time.Second
}

// StringList decodes from either a single string or a list of strings.
type StringList []string

func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*l = StringList{value.Value}
		return nil
	case yaml.SequenceNode:
		var multi []string
		if err := value.Decode(&multi); err != nil {
			return err
		}
		*l = multi
		return nil
	}
	return fmt.Errorf("line %d: value must be a string or list of strings", value.Line)
}

//// PLUGIN CONFIG

// Config is the immutable configuration handed to the core. Build it with
// Default or a loader, then call Normalize before use.
type Config struct {
	InvisibilityDuration Seconds    `yaml:"invisibility_duration" env:"VANISH_INVISIBILITY_DURATION"`
	CooldownDuration     Seconds    `yaml:"cooldown_duration" env:"VANISH_COOLDOWN_DURATION"`
	InvisibilityMessage  string     `yaml:"invisibility_message" env:"VANISH_INVISIBILITY_MESSAGE"`
	VisibilityMessage    string     `yaml:"visibility_message" env:"VANISH_VISIBILITY_MESSAGE"`
	CooldownMessage      string     `yaml:"cooldown_message" env:"VANISH_COOLDOWN_MESSAGE"`
	TriggerWeapons       StringList `yaml:"trigger_weapons" env:"VANISH_TRIGGER_WEAPONS" envSeparator:","`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		InvisibilityDuration: DefaultInvisibilityDuration,
		CooldownDuration:     DefaultCooldownDuration,
		InvisibilityMessage:  DefaultInvisibilityMessage,
		VisibilityMessage:    DefaultVisibilityMessage,
		CooldownMessage:      DefaultCooldownMessage,
		TriggerWeapons:       DefaultTriggerWeapons(),
	}
}

// Normalize clamps out-of-range values, below one second or beyond
// MaxSeconds, back to their defaults instead of rejecting them. Trigger
// names are trimmed and deduplicated; an empty set falls back to the stock
// weapons.
func (c Config) Normalize() Config {
	if c.InvisibilityDuration < 1 || c.InvisibilityDuration > MaxSeconds {
		c.InvisibilityDuration = DefaultInvisibilityDuration
	}
	if c.CooldownDuration < 1 || c.CooldownDuration > MaxSeconds {
		c.CooldownDuration = DefaultCooldownDuration
	}
	if strings.TrimSpace(c.InvisibilityMessage) == "" {
		c.InvisibilityMessage = DefaultInvisibilityMessage
	}
	if strings.TrimSpace(c.VisibilityMessage) == "" {
		c.VisibilityMessage = DefaultVisibilityMessage
	}
	if strings.TrimSpace(c.CooldownMessage) == "" {
		c.CooldownMessage = DefaultCooldownMessage
	}

	seen := make(map[string]struct{}, len(c.TriggerWeapons))
	weapons := make(StringList, 0, len(c.TriggerWeapons))
	for _, name := range c.TriggerWeapons {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		weapons = append(weapons, interning.Intern(name))
	}
	if len(weapons) == 0 {
		weapons = DefaultTriggerWeapons()
	}
	c.TriggerWeapons = weapons
	return c
}

// IsTrigger reports whether weapon is in the trigger set. Matching is exact.
func (c Config) IsTrigger(weapon string) bool {
	for _, name := range c.TriggerWeapons {
		if name == weapon {
			return true
		}
	}
	return false
}

// Invisibility is how long a successful trigger keeps the player hidden.
func (c Config) Invisibility() time.Duration {
	return c.InvisibilityDuration.Duration()
}

// Cooldown is how long further triggers are rejected after a successful one.
func (c Config) Cooldown() time.Duration {
	return c.CooldownDuration.Duration()
}
