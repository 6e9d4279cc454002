// Package profile manages operator profiles: per-profile filter rules,
// economics parameters, and delivery pricing. Profiles live in a yaml file
// edited through the bridge API; the active profile drives the pipeline.
package profile

import (
	"os"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// MileageRules controls odometer-based filtering.
type MileageRules struct {
	RequireActual bool `yaml:"require_actual" json:"require_actual"`
	AllowZeroFL   bool `yaml:"allow_zero_fl" json:"allow_zero_fl"`
}

// Filters holds the blocklists and logical rules applied to each lot.
type Filters struct {
	BlockedTitleTypes      []string     `yaml:"blocked_title_types" json:"blocked_title_types"`
	BlockedPrimaryDamage   []string     `yaml:"blocked_primary_damage" json:"blocked_primary_damage"`
	BlockedSecondaryDamage []string     `yaml:"blocked_secondary_damage" json:"blocked_secondary_damage"`
	BlockedStates          []string     `yaml:"blocked_states" json:"blocked_states"`
	BlockedMileageStatus   []string     `yaml:"blocked_mileage_status" json:"blocked_mileage_status"`
	BlockedSources         []string     `yaml:"blocked_sources" json:"blocked_sources"`
	BlockedSellers         []string     `yaml:"blocked_sellers" json:"blocked_sellers"`
	Mileage                MileageRules `yaml:"mileage" json:"mileage"`
	SellerBlacklist        []string     `yaml:"seller_blacklist" json:"seller_blacklist"`
	HiddenSellerStates     []string     `yaml:"hidden_seller_states" json:"hidden_seller_states"`
	RequireSellerStates    []string     `yaml:"require_seller_states" json:"require_seller_states"`
	ExtraStopWords         []string     `yaml:"extra_stop_words" json:"extra_stop_words"`
}

// Economics parameterizes the target-price calculation.
type Economics struct {
	MMRMultiplier float64 `yaml:"mmr_multiplier" json:"mmr_multiplier"`
	FixedCosts    float64 `yaml:"fixed_costs" json:"fixed_costs"`
	RepairCost    float64 `yaml:"repair_cost" json:"repair_cost"`
	ProfitBuffer  float64 `yaml:"profit_buffer" json:"profit_buffer"`
}

// FixedCity is a per-city delivery override.
type FixedCity struct {
	Price float64 `yaml:"price" json:"price"`
	Dist  float64 `yaml:"dist" json:"dist"`
}

// Delivery parameterizes the delivery-price estimate.
type Delivery struct {
	Multiplier float64              `yaml:"delivery_multiplier" json:"delivery_multiplier"`
	Fixed      map[string]FixedCity `yaml:"fixed" json:"fixed"`
}

// Profile is one named operator configuration.
type Profile struct {
	Filters   Filters   `yaml:"filters" json:"filters"`
	Economics Economics `yaml:"economics" json:"economics"`
	Delivery  Delivery  `yaml:"delivery" json:"delivery"`
}

// File is the on-disk shape: named profiles plus the active selection.
type File struct {
	ActiveProfile string              `yaml:"active_profile" json:"active_profile"`
	Profiles      map[string]*Profile `yaml:"profiles" json:"profiles"`
}

// DefaultProfile returns the settings used when no profile file exists yet.
func DefaultProfile() *Profile {
	return &Profile{
		Filters: Filters{
			Mileage: MileageRules{RequireActual: true, AllowZeroFL: true},
		},
		Economics: Economics{
			MMRMultiplier: 0.97,
			FixedCosts:    1300,
			RepairCost:    3000,
			ProfitBuffer:  1000,
		},
		Delivery: Delivery{
			Multiplier: 0.75,
		},
	}
}

// Manager loads, serves, and persists the profile file. Safe for
// concurrent use by the API handlers and the pipeline.
type Manager struct {
	path string

	mu   sync.RWMutex
	file File
}

// Load reads the profile file at path. A missing file yields a single
// "default" profile rather than an error.
func Load(path string) (*Manager, error) {
	m := &Manager{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, eris.Wrap(err, "profile: read file")
		}
		m.file = File{
			ActiveProfile: "default",
			Profiles:      map[string]*Profile{"default": DefaultProfile()},
		}
		return m, nil
	}

	if err := yaml.Unmarshal(data, &m.file); err != nil {
		return nil, eris.Wrap(err, "profile: parse file")
	}
	if len(m.file.Profiles) == 0 {
		m.file.Profiles = map[string]*Profile{"default": DefaultProfile()}
	}
	if _, ok := m.file.Profiles[m.file.ActiveProfile]; !ok {
		for name := range m.file.Profiles {
			m.file.ActiveProfile = name
			break
		}
	}

	return m, nil
}

// Active returns a copy of the currently active profile.
func (m *Manager) Active() Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.file.Profiles[m.file.ActiveProfile]; ok {
		return *p
	}
	return *DefaultProfile()
}

// Snapshot returns a deep copy of the whole file for the API.
func (m *Manager) Snapshot() File {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := File{
		ActiveProfile: m.file.ActiveProfile,
		Profiles:      make(map[string]*Profile, len(m.file.Profiles)),
	}
	for name, p := range m.file.Profiles {
		cp := *p
		out.Profiles[name] = &cp
	}
	return out
}

// Replace swaps in a new file (from a POST /config) and persists it.
func (m *Manager) Replace(f File) error {
	if len(f.Profiles) == 0 {
		return eris.New("profile: at least one profile required")
	}
	if _, ok := f.Profiles[f.ActiveProfile]; !ok {
		return eris.Errorf("profile: active profile %q does not exist", f.ActiveProfile)
	}

	m.mu.Lock()
	m.file = f
	m.mu.Unlock()

	return m.save()
}

func (m *Manager) save() error {
	m.mu.RLock()
	data, err := yaml.Marshal(m.file)
	m.mu.RUnlock()
	if err != nil {
		return eris.Wrap(err, "profile: marshal file")
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return eris.Wrap(err, "profile: write file")
	}
	return nil
}
