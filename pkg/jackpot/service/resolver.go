package service

import "github.com/Asvarisch/Jackpot/pkg/jackpot/model"

// findConfigEntry implements the config resolver (§4.2): the single
// ConfigEntry for a slot, or nil when the jackpot has no config, no entries,
// or no entry for that slot. A missing JackpotConfig on a seeded jackpot is
// a programmer error; it surfaces here as an unresolvable entry, which
// callers turn into a policy-registry lookup failure rather than a panic.
func findConfigEntry(jp *model.Jackpot, slot model.Slot) *model.ConfigEntry {
	if jp.Config == nil {
		return nil
	}
	for i := range jp.Config.Entries {
		if jp.Config.Entries[i].Slot == slot {
			return &jp.Config.Entries[i]
		}
	}
	return nil
}

func resolvePolicyKey(jp *model.Jackpot, slot model.Slot) model.PolicyKey {
	entry := findConfigEntry(jp, slot)
	if entry == nil {
		return ""
	}
	return entry.PolicyKey
}

func resolveConfigBlob(jp *model.Jackpot, slot model.Slot) string {
	entry := findConfigEntry(jp, slot)
	if entry == nil {
		return ""
	}
	return entry.ConfigBlob
}
