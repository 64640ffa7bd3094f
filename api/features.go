package api

import (
	"fmt"
	"sort"
	"strings"
)

// CoreFeatures is a bitset of optional WebAssembly core proposals an Engine
// may accept. Flags start at 1<<0 (not 0): a zero-valued CoreFeatures must
// mean "nothing enabled", so 0 itself can never be mistaken for a feature.
type CoreFeatures uint64

const (
	// CoreFeatureMutableGlobal allows globals to be declared mutable. Part
	// of the WebAssembly 1.0 (MVP) spec.
	CoreFeatureMutableGlobal CoreFeatures = 1 << iota
	// CoreFeatureSignExtensionOps adds the sign-extension integer
	// instructions (i32.extend8_s and friends).
	CoreFeatureSignExtensionOps
	// CoreFeatureMultiValue allows a function type to declare more than one
	// result.
	CoreFeatureMultiValue
	// CoreFeatureBulkMemoryOperations adds memory.copy, memory.fill, and
	// table.copy/init/drop.
	CoreFeatureBulkMemoryOperations
	// CoreFeatureReferenceTypes adds funcref/externref as first-class
	// value types, including table.get/set and ref.null/ref.is_null/
	// ref.func.
	CoreFeatureReferenceTypes
	// CoreFeatureSIMD adds the v128 value type and its instruction set.
	CoreFeatureSIMD
	// CoreFeatureNonTrappingFloatToIntConversion adds the saturating
	// float-to-int conversion instructions, which never trap.
	CoreFeatureNonTrappingFloatToIntConversion
)

// CoreFeaturesV1 is the WebAssembly Core 1.0 feature set.
const CoreFeaturesV1 = CoreFeatureMutableGlobal

// CoreFeaturesV2 is the WebAssembly Core 2.0 feature set: everything in V1
// plus every proposal that shipped as part of 2.0.
const CoreFeaturesV2 = CoreFeaturesV1 |
	CoreFeatureSignExtensionOps |
	CoreFeatureMultiValue |
	CoreFeatureBulkMemoryOperations |
	CoreFeatureReferenceTypes |
	CoreFeatureSIMD |
	CoreFeatureNonTrappingFloatToIntConversion

var featureNames = map[CoreFeatures]string{
	CoreFeatureMutableGlobal:                   "mutable-global",
	CoreFeatureSignExtensionOps:                "sign-extension-ops",
	CoreFeatureMultiValue:                      "multi-value",
	CoreFeatureBulkMemoryOperations:             "bulk-memory-operations",
	CoreFeatureReferenceTypes:                   "reference-types",
	CoreFeatureSIMD:                             "simd",
	CoreFeatureNonTrappingFloatToIntConversion:  "nontrapping-float-to-int-conversion",
}

// IsEnabled reports whether every bit set in feature is also set in f.
func (f CoreFeatures) IsEnabled(feature CoreFeatures) bool {
	return f&feature == feature && feature != 0
}

// SetEnabled returns a copy of f with feature's bits set (or cleared, if
// enabled is false). Setting bit 0 is a no-op: CoreFeatures(0) never
// becomes a valid flag.
func (f CoreFeatures) SetEnabled(feature CoreFeatures, enabled bool) CoreFeatures {
	if enabled {
		return f | feature
	}
	return f &^ feature
}

// RequireEnabled returns an error naming the first of required feature's
// bits that is not set in f, or nil if every bit of feature is set.
func (f CoreFeatures) RequireEnabled(feature CoreFeatures) error {
	for bit := CoreFeatures(1); bit != 0; bit <<= 1 {
		name, ok := featureNames[bit]
		if ok && feature&bit == bit && !f.IsEnabled(bit) {
			return fmt.Errorf("feature %q is disabled", name)
		}
	}
	return nil
}

// String renders the set of recognized, enabled flags in f, alphabetically
// and joined with "|". Unrecognized bits are silently omitted.
func (f CoreFeatures) String() string {
	var names []string
	for bit, name := range featureNames {
		if f.IsEnabled(bit) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}
