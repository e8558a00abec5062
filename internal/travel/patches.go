package travel

import (
	"regexp"

	"github.com/phartmann/traveldiary/internal/datastore"
)

// Plus Code prefix, e.g. "2HCR+WM Krk, Croatia" → "Krk, Croatia".
var plusCodePattern = regexp.MustCompile(`^[A-Z0-9]{4}\+[A-Z0-9]{2,3}\s+`)

// StripPlusCode removes a leading Plus Code from an address.
func StripPlusCode(address string) string {
	return plusCodePattern.ReplaceAllString(address, "")
}

// normalizers are tried in order until one produces a key with a patch.
var normalizers = []func(string) string{
	func(address string) string { return address },
	StripPlusCode,
}

// PatchMatcher looks up user-authored travel patches by address with a
// fallback chain of key normalizations.
type PatchMatcher struct {
	patches map[string]datastore.TravelPatch
}

func NewPatchMatcher(patches map[string]datastore.TravelPatch) *PatchMatcher {
	if patches == nil {
		patches = map[string]datastore.TravelPatch{}
	}
	return &PatchMatcher{patches: patches}
}

// Lookup returns the patch for an address, trying the exact key first and
// the Plus-Code-stripped key second.
func (m *PatchMatcher) Lookup(address string) (datastore.TravelPatch, bool) {
	for _, normalize := range normalizers {
		if patch, ok := m.patches[normalize(address)]; ok {
			return patch, true
		}
	}
	return datastore.TravelPatch{}, false
}
