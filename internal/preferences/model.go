package preferences

import (
	"slices"
	"strings"
	"time"
)

// Preferences are the clinic-wide UI settings that outlive a session: farms
// typed in by staff that no registered animal belongs to yet, and the doctor
// preselected on new records.
type Preferences struct {
	CustomFarms    []string  `yaml:"custom_farms" json:"custom_farms"`
	SelectedDoctor string    `yaml:"selected_doctor" json:"selected_doctor"`
	UpdatedAt      time.Time `yaml:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// Normalize trims every value, drops blank and duplicate farms and sorts the
// farm list.
func (p *Preferences) Normalize() {
	p.CustomFarms = normalizeFarms(p.CustomFarms)
	p.SelectedDoctor = strings.TrimSpace(p.SelectedDoctor)
}

func (p Preferences) clone() Preferences {
	p.CustomFarms = slices.Clone(p.CustomFarms)
	if p.CustomFarms == nil {
		p.CustomFarms = []string{}
	}
	return p
}

func normalizeFarms(in ...[]string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, list := range in {
		for _, f := range list {
			f = strings.TrimSpace(f)
			if f == "" || seen[f] {
				continue
			}
			seen[f] = true
			out = append(out, f)
		}
	}
	slices.Sort(out)
	return out
}
