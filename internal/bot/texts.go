package bot

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/m3rciful/screeningbot/internal/form"
	"github.com/m3rciful/screeningbot/internal/menu"
	"github.com/m3rciful/screeningbot/internal/relay"
)

// Texts bundles every user- and operator-facing string plus the menu
// layout. Zero values fall back to the built-in English defaults.
type Texts struct {
	Form   form.Texts  `yaml:"form"`
	Menu   menu.Texts  `yaml:"menu"`
	Relay  relay.Texts `yaml:"relay"`
	Layout menu.Layout `yaml:"layout"`
	// Operator holds strings only the operator sees.
	Operator OperatorTexts `yaml:"operator"`
}

// OperatorTexts are the replies of operator commands.
type OperatorTexts struct {
	Stats     string `yaml:"stats"`
	Forbidden string `yaml:"forbidden"`
}

func defaultOperatorTexts() OperatorTexts {
	return OperatorTexts{
		Stats:     "Active forms: %d\nQueued: %d, sent: %d, failed: %d, retried: %d\nJournal: %s\nBuild: %s",
		Forbidden: "This command is only available to the operator.",
	}
}

func (o OperatorTexts) merge(over OperatorTexts) OperatorTexts {
	if over.Stats != "" {
		o.Stats = over.Stats
	}
	if over.Forbidden != "" {
		o.Forbidden = over.Forbidden
	}
	return o
}

// LoadTexts reads overrides from a YAML file. An empty path returns the
// defaults.
func LoadTexts(path string) (Texts, error) {
	var t Texts
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Texts{}, fmt.Errorf("bot: read texts: %w", err)
		}
		if err := yaml.Unmarshal(data, &t); err != nil {
			return Texts{}, fmt.Errorf("bot: parse texts: %w", err)
		}
	}
	return t.withDefaults(), nil
}

func (t Texts) withDefaults() Texts {
	t.Form = form.DefaultTexts().Merge(t.Form)
	t.Menu = menu.DefaultTexts().Merge(t.Menu)
	t.Relay = relay.DefaultTexts().Merge(t.Relay)
	if len(t.Layout) == 0 {
		t.Layout = menu.DefaultLayout()
	}
	t.Operator = defaultOperatorTexts().merge(t.Operator)
	return t
}
