package bots

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Roster lists the bot karts to mint.
type Roster struct {
	// Owner receives every bot kart and is the caller of each mint.
	Owner string `yaml:"owner"`
	// Signer names the signing key in the key store.
	Signer string `yaml:"signer"`
	Bots   []Bot  `yaml:"bots"`
}

// Bot is one roster entry. Exactly one of Script and Source is set; Script
// paths are relative to the roster file.
type Bot struct {
	TokenID string `yaml:"token_id"`
	Name    string `yaml:"name"`
	CID     string `yaml:"cid"`
	Script  string `yaml:"script,omitempty"`
	Source  string `yaml:"source,omitempty"`
}

// LoadRoster reads a roster file and inlines script files into Source.
func LoadRoster(path string) (Roster, error) {
	var r Roster
	b, err := os.ReadFile(path)
	if err != nil {
		return r, err
	}
	if err := yaml.Unmarshal(b, &r); err != nil {
		return r, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	for i := range r.Bots {
		bot := &r.Bots[i]
		if bot.Script == "" {
			continue
		}
		script := bot.Script
		if !filepath.IsAbs(script) {
			script = filepath.Join(dir, script)
		}
		src, err := os.ReadFile(script)
		if err != nil {
			return r, fmt.Errorf("bot %q: %w", bot.TokenID, err)
		}
		bot.Source = string(src)
	}

	if err := r.Validate(); err != nil {
		return r, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return r, nil
}

// Validate checks the roster has an owner and that bots are complete and
// unique by token id.
func (r Roster) Validate() error {
	if strings.TrimSpace(r.Owner) == "" {
		return fmt.Errorf("owner is required")
	}
	if len(r.Bots) == 0 {
		return fmt.Errorf("no bots")
	}
	seen := make(map[string]bool, len(r.Bots))
	for i, b := range r.Bots {
		switch {
		case b.TokenID == "":
			return fmt.Errorf("bots[%d]: token_id is required", i)
		case seen[b.TokenID]:
			return fmt.Errorf("bots[%d]: duplicate token_id %q", i, b.TokenID)
		case b.CID == "":
			return fmt.Errorf("bot %q: cid is required", b.TokenID)
		case strings.TrimSpace(b.Source) == "":
			return fmt.Errorf("bot %q: script or source is required", b.TokenID)
		}
		seen[b.TokenID] = true
	}
	return nil
}
