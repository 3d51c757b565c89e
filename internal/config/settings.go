package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/bananalabs-oss/clans/internal/models"
	"github.com/spf13/viper"
)

// Settings holds the gameplay tunables loaded from settings.toml.
type Settings struct {
	Invites      InviteSettings          `mapstructure:"invites"`
	Ad           AdSettings              `mapstructure:"ad"`
	Slots        map[string]SlotSettings `mapstructure:"slots"`
	Features     FeatureSettings         `mapstructure:"features"`
	Restrictions RestrictionSettings     `mapstructure:"restrictions"`
	Clan         ClanSettings            `mapstructure:"clan"`
}

type InviteSettings struct {
	ExpireAfter   time.Duration `mapstructure:"expire_after"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type AdSettings struct {
	SweepInterval time.Duration             `mapstructure:"sweep_interval"`
	Tariffs       map[string]TariffSettings `mapstructure:"tariffs"`
}

type TariffSettings struct {
	Hours int   `mapstructure:"hours"`
	Cost  int64 `mapstructure:"cost"`
}

func (t TariffSettings) Duration() time.Duration {
	return time.Duration(t.Hours) * time.Hour
}

type SlotSettings struct {
	Plus int   `mapstructure:"plus"`
	Cost int64 `mapstructure:"cost"`
}

type FeatureSettings struct {
	ChatCost  int64 `mapstructure:"chat_cost"`
	MOTDCost  int64 `mapstructure:"motd_cost"`
	PartyCost int64 `mapstructure:"party_cost"`
}

type RestrictionSettings struct {
	MinNameLength int `mapstructure:"min_name_length"`
	MaxNameLength int `mapstructure:"max_name_length"`
	MaxMOTDLength int `mapstructure:"max_motd_length"`
	MaxAdLength   int `mapstructure:"max_ad_length"`
}

type ClanSettings struct {
	RenameCost int64 `mapstructure:"rename_cost"`
}

// Tariff looks up the plan for t.
func (s *Settings) Tariff(t models.Tariff) (TariffSettings, bool) {
	plan, ok := s.Ad.Tariffs[strings.ToLower(string(t))]
	return plan, ok && plan.Hours > 0
}

// SlotPlus returns the per-tier member increments keyed by lowercase tier name.
func (s *Settings) SlotPlus() map[string]int {
	out := make(map[string]int, len(s.Slots))
	for tier, slot := range s.Slots {
		out[tier] = slot.Plus
	}
	return out
}

// MaxMembers is the member capacity of a clan at the given tier.
func (s *Settings) MaxMembers(tier models.SlotTier) int {
	return tier.Capacity(s.SlotPlus())
}

// UpgradeCost is the price of moving from tier to tier.Next().
func (s *Settings) UpgradeCost(tier models.SlotTier) int64 {
	return s.Slots[strings.ToLower(string(tier.Next()))].Cost
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("invites.expire_after", 7*24*time.Hour)
	v.SetDefault("invites.sweep_interval", 24*time.Hour)

	v.SetDefault("ad.sweep_interval", time.Hour)
	v.SetDefault("ad.tariffs.tariff_12.hours", 12)
	v.SetDefault("ad.tariffs.tariff_12.cost", 5000)
	v.SetDefault("ad.tariffs.tariff_24.hours", 24)
	v.SetDefault("ad.tariffs.tariff_24.cost", 9000)

	slots := []struct {
		tier models.SlotTier
		plus int
		cost int64
	}{
		{models.SlotsInitial, 10, 0},
		{models.SlotsFirst, 5, 25000},
		{models.SlotsSecond, 5, 50000},
		{models.SlotsThird, 5, 100000},
		{models.SlotsFourth, 5, 200000},
		{models.SlotsFifth, 10, 400000},
		{models.SlotsSixth, 10, 800000},
	}
	for _, s := range slots {
		key := "slots." + strings.ToLower(string(s.tier))
		v.SetDefault(key+".plus", s.plus)
		v.SetDefault(key+".cost", s.cost)
	}

	v.SetDefault("features.chat_cost", 25000)
	v.SetDefault("features.motd_cost", 15000)
	v.SetDefault("features.party_cost", 30000)

	v.SetDefault("restrictions.min_name_length", 3)
	v.SetDefault("restrictions.max_name_length", 12)
	v.SetDefault("restrictions.max_motd_length", 120)
	v.SetDefault("restrictions.max_ad_length", 200)

	v.SetDefault("clan.rename_cost", 10000)
}

// DefaultSettings returns the settings used when no file is present.
func DefaultSettings() *Settings {
	s, err := decode(viper.New())
	if err != nil {
		panic(err)
	}
	return s
}

// LoadSettings reads a TOML settings file over the defaults. A missing file is not an error.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Settings, error) {
	setDefaults(v)

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return &s, nil
}
