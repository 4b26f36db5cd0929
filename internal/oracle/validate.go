package oracle

import (
	"fmt"
	"math"

	"github.com/graphtrust/graphtrust/internal/identity"
)

// The oracle is an untrusted boundary: every decoded body passes through
// one of the validators below before the client exposes it. Each endpoint
// family is described by a table of field rules; a violated rule rejects
// the whole response with a ValidationError naming the field and value.

// DistanceInfo is the validated body of GET /distance. Hops is nil when
// no path exists; Paths is nil when the oracle did not report a
// shortest-path count. Extra carries any additional fields (for example
// "bridges") through unvalidated.
type DistanceInfo struct {
	Hops  *int
	Paths *int
	Extra map[string]any
}

// BatchResult maps each target of a batch query to its hop distance;
// a nil value means no path was found.
type BatchResult map[identity.Identity]*int

// fieldRule is one row of an endpoint family's validation table.
// check returns nil when the field value is acceptable.
type fieldRule struct {
	field    string
	required bool
	want     string
	check    func(field string, v any) *ValidationError
}

// Validation tables, one per endpoint family.
var (
	// hops must be present (null is the "no path" answer); only paths
	// may be absent entirely.
	distanceRules = []fieldRule{
		{"hops", true, "null or an integer in [0,100]", scalarCheck(hopsValid)},
		{"paths", false, "null or a non-negative integer", scalarCheck(pathsValid)},
	}
	followsRules = []fieldRule{
		{"follows", true, "an array of 64-hex identities", identityListCheck(false)},
	}
	commonFollowsRules = []fieldRule{
		{"common", true, "an array of 64-hex identities", identityListCheck(false)},
	}
	pathRules = []fieldRule{
		{"path", true, "null or an array of 64-hex identities", identityListCheck(true)},
	}
)

// ValidateDistanceInfo checks the /distance body shape and returns the
// typed result. Fields other than hops and paths pass through in Extra.
func ValidateDistanceInfo(body any) (*DistanceInfo, error) {
	obj, err := applyRules("distance", body, distanceRules)
	if err != nil {
		return nil, err
	}

	info := &DistanceInfo{
		Hops:  asHops(obj["hops"]),
		Paths: asHops(obj["paths"]),
	}
	for k, v := range obj {
		if k == "hops" || k == "paths" {
			continue
		}
		if info.Extra == nil {
			info.Extra = make(map[string]any)
		}
		info.Extra[k] = v
	}
	return info, nil
}

// ValidateBatch checks the /distance/batch body: a non-null object whose
// every key is an identity and every value is a valid hop count.
func ValidateBatch(body any) (BatchResult, error) {
	obj, ok := body.(map[string]any)
	if !ok {
		return nil, &ValidationError{Field: "batch body", Value: body, Want: "a JSON object"}
	}
	out := make(BatchResult, len(obj))
	for k, v := range obj {
		if !identity.Valid(k) {
			return nil, &ValidationError{
				Field: fmt.Sprintf("batch key %q", k),
				Value: k,
				Want:  "a 64-hex identity",
			}
		}
		if !hopsValid(v) {
			return nil, &ValidationError{
				Field: fmt.Sprintf("batch[%q]", k),
				Value: v,
				Want:  "null or an integer in [0,100]",
			}
		}
		out[identity.Identity(k)] = asHops(v)
	}
	return out, nil
}

// ValidateFollows checks the /follows body and returns the follow list
// in the oracle's order.
func ValidateFollows(body any) ([]identity.Identity, error) {
	obj, err := applyRules("follows", body, followsRules)
	if err != nil {
		return nil, err
	}
	return asIdentityList(obj["follows"]), nil
}

// ValidateCommonFollows checks the /common-follows body and returns the
// common-follow list in the oracle's order.
func ValidateCommonFollows(body any) ([]identity.Identity, error) {
	obj, err := applyRules("common-follows", body, commonFollowsRules)
	if err != nil {
		return nil, err
	}
	return asIdentityList(obj["common"]), nil
}

// ValidatePath checks the /path body and returns the hop-by-hop route,
// or nil when the path field is null (no route exists).
func ValidatePath(body any) ([]identity.Identity, error) {
	obj, err := applyRules("path", body, pathRules)
	if err != nil {
		return nil, err
	}
	if obj["path"] == nil {
		return nil, nil
	}
	return asIdentityList(obj["path"]), nil
}

// applyRules asserts body is a non-null object and runs the family's
// rule table over it. The first violation is returned; nothing is
// coerced or dropped.
func applyRules(endpoint string, body any, rules []fieldRule) (map[string]any, error) {
	obj, ok := body.(map[string]any)
	if !ok {
		return nil, &ValidationError{Field: endpoint + " body", Value: body, Want: "a JSON object"}
	}
	for _, r := range rules {
		v, present := obj[r.field]
		if !present {
			if r.required {
				return nil, &ValidationError{Field: r.field, Value: "<absent>", Want: r.want}
			}
			continue
		}
		if verr := r.check(r.field, v); verr != nil {
			if verr.Want == "" {
				verr.Want = r.want
			}
			return nil, verr
		}
	}
	return obj, nil
}

// scalarCheck adapts a plain predicate into a rule check.
func scalarCheck(pred func(any) bool) func(string, any) *ValidationError {
	return func(field string, v any) *ValidationError {
		if !pred(v) {
			return &ValidationError{Field: field, Value: v}
		}
		return nil
	}
}

// identityListCheck verifies an array whose every element matches the
// identity pattern. With allowNull, a JSON null is also acceptable.
// Element violations name the offending index.
func identityListCheck(allowNull bool) func(string, any) *ValidationError {
	return func(field string, v any) *ValidationError {
		if v == nil {
			if allowNull {
				return nil
			}
			return &ValidationError{Field: field, Value: v}
		}
		arr, ok := v.([]any)
		if !ok {
			return &ValidationError{Field: field, Value: v}
		}
		for i, el := range arr {
			s, ok := el.(string)
			if !ok || !identity.Valid(s) {
				return &ValidationError{
					Field: fmt.Sprintf("%s[%d]", field, i),
					Value: el,
					Want:  "a 64-hex identity",
				}
			}
		}
		return nil
	}
}

// hopsValid: null, or an integral JSON number in [0,100]. encoding/json
// decodes numbers to float64, so integrality must be checked explicitly:
// a fractional hop count is a contract violation, not a rounding case.
func hopsValid(v any) bool {
	if v == nil {
		return true
	}
	f, ok := v.(float64)
	return ok && f == math.Trunc(f) && f >= 0 && f <= 100
}

// pathsValid: null/absent, or a non-negative integral JSON number.
func pathsValid(v any) bool {
	if v == nil {
		return true
	}
	f, ok := v.(float64)
	return ok && f == math.Trunc(f) && f >= 0
}

// asHops converts an already-validated hops value to *int (nil for null
// or absent).
func asHops(v any) *int {
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	n := int(f)
	return &n
}

// asIdentityList converts an already-validated identity array.
// The oracle's element order is preserved; an empty array stays an
// empty, non-nil slice.
func asIdentityList(v any) []identity.Identity {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]identity.Identity, 0, len(arr))
	for _, el := range arr {
		out = append(out, identity.Identity(el.(string)))
	}
	return out
}
