package assumptions

import (
	"fmt"
	"strings"

	"github.com/iwvelando/mortgage-trust/pkg/datetime"
	"github.com/iwvelando/mortgage-trust/pkg/mathutil"
)

// Preset names accepted by PresetByName.
const (
	PresetStandardMonthly = "standard-monthly"
	PresetDaily365        = "daily-365"
	PresetDaily360        = "daily-360"
	PresetBiWeekly        = "bi-weekly"
)

var (
	standardMonthly = mustPreset(Config{
		Name:          PresetStandardMonthly,
		Method:        MethodMonthly,
		Frequency:     datetime.Monthly,
		PaymentOrder:  StandardOrder{},
		IncludeEscrow: true,
		Rounding:      mathutil.RoundNearest,
	})
	daily365 = mustPreset(Config{
		Name:          PresetDaily365,
		Method:        MethodDaily,
		DayCountBasis: datetime.Actual365,
		Frequency:     datetime.Monthly,
		PaymentOrder:  StandardOrder{},
		Rounding:      mathutil.RoundNearest,
	})
	daily360 = mustPreset(Config{
		Name:          PresetDaily360,
		Method:        MethodDaily,
		DayCountBasis: datetime.Actual360,
		Frequency:     datetime.Monthly,
		PaymentOrder:  StandardOrder{},
		Rounding:      mathutil.RoundNearest,
	})
	biWeekly = mustPreset(Config{
		Name:         PresetBiWeekly,
		Method:       MethodMonthly,
		Frequency:    datetime.BiWeekly,
		PaymentOrder: StandardOrder{},
		Rounding:     mathutil.RoundNearest,
	})
)

func mustPreset(cfg Config) Set {
	s, err := New(cfg)
	if err != nil {
		panic(fmt.Sprintf("invalid preset %s: %v", cfg.Name, err))
	}
	return s
}

// StandardMonthly is monthly accrual with escrow collected.
func StandardMonthly() Set { return standardMonthly }

// Daily365 is daily simple interest on an actual/365 basis.
func Daily365() Set { return daily365 }

// Daily360 is daily simple interest on an actual/360 basis.
func Daily360() Set { return daily360 }

// BiWeekly is monthly accrual paid every two weeks. Neither generator accepts
// it; it exists for hosts that present the choice.
func BiWeekly() Set { return biWeekly }

// Presets lists every preset in a stable order.
func Presets() []Set {
	return []Set{standardMonthly, daily365, daily360, biWeekly}
}

// PresetByName looks a preset up by its name, ignoring case.
func PresetByName(name string) (Set, error) {
	for _, p := range Presets() {
		if strings.EqualFold(strings.TrimSpace(name), p.Name()) {
			return p, nil
		}
	}
	return Set{}, &ValidationError{Field: "preset", Reason: fmt.Sprintf("unknown preset %q", name)}
}
