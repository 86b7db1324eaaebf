package config

import "slices"

// Profile is a named chain-sync checkpoint: a known-good (slot, block hash)
// pair the indexer may start from instead of genesis when no cursor has been
// persisted yet. Networks can carry more than one; GetProfiles returns
// whichever ones are enabled in config, and the indexer picks the earliest.
type Profile struct {
	Name          string
	InterceptSlot uint64
	InterceptHash string
}

func GetProfiles() []Profile {
	var ret []Profile
	if networkProfiles, ok := Profiles[globalConfig.Network]; ok {
		for k, profile := range networkProfiles {
			if slices.Contains(globalConfig.Profiles, k) {
				ret = append(ret, profile)
			}
		}
	}
	return ret
}

func GetAvailableProfiles() []string {
	var ret []string
	if networkProfiles, ok := Profiles[globalConfig.Network]; ok {
		for k := range networkProfiles {
			ret = append(ret, k)
		}
	}
	return ret
}

var Profiles = map[string]map[string]Profile{
	"preview": {
		"recent": {
			Name:          "recent",
			InterceptSlot: 32045163,
			InterceptHash: "825568a8f7272fa8662c5a1fee156fe5dfb932ae8a47c8526b737399c9b3e836",
		},
	},
	"mainnet": {
		"recent": {
			Name:          "recent",
			InterceptSlot: 123703740,
			InterceptHash: "c43d1bb5308d1ad7baa11120291ed2ba620784ebd96ae02a63c5511b3346581a",
		},
	},
}
