// Package segments evaluates segment rule trees against an identity's
// traits to decide segment membership.
package segments

import (
	"crypto/md5" //nolint:gosec // bucketing hash, not a security boundary
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/edgeflag/edgeflag/internal/api"
)

// EvaluationContext carries the identity-side inputs of an evaluation:
// the identifier (used by percentage splits) and the traits keyed by name.
type EvaluationContext struct {
	Identifier string
	Traits     map[string]string
}

// NewEvaluationContext builds a context from an identity document. Later
// duplicates of a trait key win, matching how trait lists are merged on write.
func NewEvaluationContext(doc *api.IdentityDocument) EvaluationContext {
	traits := make(map[string]string, len(doc.IdentityTraits))
	for _, trait := range doc.IdentityTraits {
		traits[trait.Key] = trait.Value
	}
	return EvaluationContext{
		Identifier: doc.Identifier,
		Traits:     traits,
	}
}

// MatchingSegmentIDs returns the IDs of every segment the identity belongs
// to, in the order the segments are defined.
func MatchingSegmentIDs(segments []api.Segment, evalCtx EvaluationContext) []int64 {
	ids := make([]int64, 0, len(segments))
	for _, segment := range segments {
		if Matches(segment, evalCtx) {
			ids = append(ids, segment.ID)
		}
	}
	return ids
}

// Matches reports whether the identity belongs to the segment. A segment
// with no rules matches nothing; otherwise every top-level rule must hold.
func Matches(segment api.Segment, evalCtx EvaluationContext) bool {
	if len(segment.Rules) == 0 {
		return false
	}
	for _, rule := range segment.Rules {
		if !ruleMatches(segment.ID, rule, evalCtx) {
			return false
		}
	}
	return true
}

func ruleMatches(segmentID int64, rule api.SegmentRule, evalCtx EvaluationContext) bool {
	results := make([]bool, 0, len(rule.Conditions)+len(rule.Rules))
	for _, cond := range rule.Conditions {
		results = append(results, conditionMatches(segmentID, cond, evalCtx))
	}
	for _, nested := range rule.Rules {
		results = append(results, ruleMatches(segmentID, nested, evalCtx))
	}

	switch rule.Type {
	case api.RuleTypeAll:
		for _, ok := range results {
			if !ok {
				return false
			}
		}
		return true
	case api.RuleTypeAny:
		for _, ok := range results {
			if ok {
				return true
			}
		}
		return false
	case api.RuleTypeNone:
		for _, ok := range results {
			if ok {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func conditionMatches(segmentID int64, cond api.SegmentCondition, evalCtx EvaluationContext) bool {
	if cond.Operator == api.OperatorPercentageSplit {
		threshold, err := strconv.ParseFloat(cond.Value, 64)
		if err != nil {
			return false
		}
		return splitPercentage(segmentID, evalCtx.Identifier) < threshold
	}

	traitValue, traitSet := evalCtx.Traits[cond.Property]

	switch cond.Operator {
	case api.OperatorIsSet:
		return traitSet
	case api.OperatorIsNotSet:
		return !traitSet
	}

	if !traitSet {
		return false
	}

	switch cond.Operator {
	case api.OperatorEqual:
		return compareValues(traitValue, cond.Value) == 0
	case api.OperatorNotEqual:
		return compareValues(traitValue, cond.Value) != 0
	case api.OperatorContains:
		return strings.Contains(traitValue, cond.Value)
	case api.OperatorNotContains:
		return !strings.Contains(traitValue, cond.Value)
	case api.OperatorGreaterThan:
		return compareValues(traitValue, cond.Value) > 0
	case api.OperatorGreaterThanInclusive:
		return compareValues(traitValue, cond.Value) >= 0
	case api.OperatorLessThan:
		return compareValues(traitValue, cond.Value) < 0
	case api.OperatorLessThanInclusive:
		return compareValues(traitValue, cond.Value) <= 0
	case api.OperatorRegex:
		matched, err := regexp.MatchString(cond.Value, traitValue)
		return err == nil && matched
	default:
		return false
	}
}

// compareValues compares numerically when both sides parse as numbers and
// lexicographically otherwise, so "10" > "9" for numeric traits.
func compareValues(traitValue, condValue string) int {
	tf, terr := strconv.ParseFloat(traitValue, 64)
	cf, cerr := strconv.ParseFloat(condValue, 64)
	if terr == nil && cerr == nil {
		switch {
		case tf < cf:
			return -1
		case tf > cf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(traitValue, condValue)
}

// splitMod keeps hash buckets fine-grained enough for fractional splits.
const splitMod = 9999

// splitPercentage buckets an identity into [0, 100) deterministically. The
// same identifier always lands in the same bucket for a given segment, and
// different segments shuffle identities independently. A bucket of exactly
// 100 would fall outside every split, even a 100% one, so the key is
// repeated and re-hashed until the result lands inside the range.
func splitPercentage(segmentID int64, identifier string) float64 {
	key := fmt.Sprintf("%d,%s", segmentID, identifier)
	for repeats := 1; ; repeats++ {
		input := strings.TrimSuffix(strings.Repeat(key+",", repeats), ",")
		sum := md5.Sum([]byte(input)) //nolint:gosec
		n := new(big.Int).SetBytes(sum[:])
		bucket := new(big.Int).Mod(n, big.NewInt(splitMod)).Int64()
		if pct := float64(bucket) / float64(splitMod-1) * 100; pct < 100 {
			return pct
		}
	}
}
