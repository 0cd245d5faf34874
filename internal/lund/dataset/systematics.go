package dataset

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownSystematic is returned for systematic names outside the
// weight-vector enumeration.
var ErrUnknownSystematic = errors.New("unknown systematic variation")

// Background-normalization variations scale the nominal weight instead of
// reading a column.
const (
	BkgNormUp   = "bkg_norm_up"
	BkgNormDown = "bkg_norm_down"
)

// sysColumns maps systematic names to columns of the per-event weight
// vector.
var sysColumns = map[string]int{
	"nom_weight":      0,
	"pdf_up":          1,
	"pdf_down":        2,
	"prefire_up":      3,
	"prefire_down":    4,
	"pileup_up":       5,
	"pileup_down":     6,
	"btag_up":         7,
	"btag_down":       8,
	"PS_ISR_up":       9,
	"PS_ISR_down":     10,
	"PS_FSR_up":       11,
	"PS_FSR_down":     12,
	"F_up":            13,
	"F_down":          14,
	"R_up":            15,
	"R_down":          16,
	"RF_up":           17,
	"RF_down":         18,
	"top_ptrw_up":     19,
	"top_ptrw_down":   20,
	"mu_trigger_up":   21,
	"mu_trigger_down": 22,
	"mu_id_up":        23,
	"mu_id_down":      24,
}

// SysColumn returns the weight-vector column of a systematic.
// Background-normalization variations have no column.
func SysColumn(name string) (int, error) {
	col, ok := sysColumns[name]
	if !ok {
		if IsNormVariation(name) {
			return -1, fmt.Errorf("%q has no weight column: %w", name, ErrUnknownSystematic)
		}
		return -1, fmt.Errorf("%w: %q", ErrUnknownSystematic, name)
	}
	return col, nil
}

// IsNormVariation reports whether name is a background-normalization
// variation.
func IsNormVariation(name string) bool {
	return name == BkgNormUp || name == BkgNormDown
}

// ValidSystematic reports whether name is a column systematic or a
// normalization variation.
func ValidSystematic(name string) bool {
	_, ok := sysColumns[name]
	return ok || IsNormVariation(name)
}

// SystematicNames returns every valid name, columns in column order
// followed by the normalization variations.
func SystematicNames() []string {
	names := make([]string, 0, len(sysColumns)+2)
	for n := range sysColumns {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return sysColumns[names[i]] < sysColumns[names[j]] })
	return append(names, BkgNormUp, BkgNormDown)
}
