package policies

import (
	"sort"

	"modwire/internal/types"
)

// PreferencePolicy orders candidate capabilities for the environment:
// highest provider version first, then stable by module id. The
// resolver itself never reorders candidates, so this ordering is the
// resolution preference.
type PreferencePolicy struct{}

func NewPreferencePolicy() PreferencePolicy {
	return PreferencePolicy{}
}

func (p PreferencePolicy) Order(caps []types.Capability) []types.Capability {
	ordered := append([]types.Capability(nil), caps...)
	sort.SliceStable(ordered, func(i, j int) bool {
		vi := ordered[i].Owner().Version()
		vj := ordered[j].Owner().Version()
		switch {
		case vi == nil && vj == nil:
		case vi == nil:
			return false
		case vj == nil:
			return true
		default:
			if cmp := vi.Compare(vj); cmp != 0 {
				return cmp > 0
			}
		}
		return ordered[i].Owner().ID() < ordered[j].Owner().ID()
	})
	return ordered
}
