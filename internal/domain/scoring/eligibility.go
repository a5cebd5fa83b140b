package scoring

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/okian/ranklist/internal/domain/model"
)

// MinRegenSupportedVersion is the oldest document version that records enough
// per-solution detail to be regenerated.
const MinRegenSupportedVersion = "0.3.0"

// CheckRegenerable explains why rl cannot be regenerated, or returns nil.
func CheckRegenerable(rl *model.Ranklist) error {
	if rl == nil {
		return fmt.Errorf("%w: no ranklist", ErrNotRegenerable)
	}
	v := "v" + strings.TrimPrefix(strings.TrimSpace(rl.Version), "v")
	core, _, _ := strings.Cut(v, "+")
	// semver fills in missing minor and patch parts; documents must spell all three
	if !semver.IsValid(v) || semver.Canonical(v) != core {
		return fmt.Errorf("%w: invalid version %q", ErrNotRegenerable, rl.Version)
	}
	if semver.Compare(v, "v"+MinRegenSupportedVersion) < 0 {
		return fmt.Errorf("%w: version %s is older than %s", ErrNotRegenerable, rl.Version, MinRegenSupportedVersion)
	}
	if rl.Sorter == nil || rl.Sorter.Algorithm != model.SorterAlgorithmICPC {
		return fmt.Errorf("%w: sorter algorithm must be %s", ErrNotRegenerable, model.SorterAlgorithmICPC)
	}
	return nil
}

// CanRegenerate reports whether rl's version and sorter allow regeneration.
func CanRegenerate(rl *model.Ranklist) bool {
	return CheckRegenerable(rl) == nil
}
