package engine

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"hdcn-access/internal/logging"
	"hdcn-access/internal/metadata"
)

// RuleEvaluator evaluates conditional rules against record data.
type RuleEvaluator struct {
	exprs  ExpressionEvaluator
	now    func() time.Time
	logger *zap.Logger
}

// NewRuleEvaluator returns an evaluator. A nil exprs gets an ExprLangEvaluator
// and a nil now uses time.Now.
func NewRuleEvaluator(exprs ExpressionEvaluator, now func() time.Time, logger *zap.Logger) *RuleEvaluator {
	if exprs == nil {
		exprs = NewExprLangEvaluator()
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logging.L().Named("rules")
	}
	return &RuleEvaluator{exprs: exprs, now: now, logger: logger}
}

// Matches reports whether rule holds for record. A broken expression is
// logged and treated as not matching.
func (e *RuleEvaluator) Matches(rule metadata.ConditionalRule, record map[string]any) bool {
	if rule.Expression != "" {
		ok, err := e.exprs.EvaluateBool(rule.Expression, map[string]any{"record": record})
		if err != nil {
			e.logger.Debug("rule expression failed", zap.String("expression", rule.Expression), zap.Error(err))
			return false
		}
		return ok
	}

	val, present := record[rule.Field]
	switch rule.Operator {
	case metadata.OpEquals:
		return present && equalValues(val, rule.Value)
	case metadata.OpNotEquals:
		return !(present && equalValues(val, rule.Value))
	case metadata.OpContains:
		return present && containsValue(val, rule.Value)
	case metadata.OpNotContains:
		return !(present && containsValue(val, rule.Value))
	case metadata.OpExists:
		return exists(val)
	case metadata.OpNotExists:
		return !exists(val)
	case metadata.OpAgeLessThan:
		age, ok := AgeOn(val, e.now())
		return ok && float64(age) < toFloat(rule.Value)
	default:
		return false
	}
}

// AnyMatches reports whether at least one rule holds.
func (e *RuleEvaluator) AnyMatches(rules []metadata.ConditionalRule, record map[string]any) bool {
	for _, r := range rules {
		if e.Matches(r, record) {
			return true
		}
	}
	return false
}

// AgeOn returns the age in whole years on day now of someone born on
// birthdate. birthdate may be a time.Time, a YYYY-MM-DD string or RFC 3339.
func AgeOn(birthdate any, now time.Time) (int, bool) {
	born, ok := parseDate(birthdate)
	if !ok || born.After(now) {
		return 0, false
	}
	age := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		age--
	}
	return age, true
}

func parseDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, !d.IsZero()
	case string:
		for _, layout := range []string{time.DateOnly, time.RFC3339, "02-01-2006"} {
			if t, err := time.Parse(layout, strings.TrimSpace(d)); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func exists(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	case []any:
		return len(x) > 0
	case []string:
		return len(x) > 0
	}
	return true
}

func equalValues(a, b any) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func containsValue(haystack, needle any) bool {
	switch h := haystack.(type) {
	case string:
		return strings.Contains(h, fmt.Sprintf("%v", needle))
	case []string:
		for _, item := range h {
			if equalValues(item, needle) {
				return true
			}
		}
	case []any:
		for _, item := range h {
			if equalValues(item, needle) {
				return true
			}
		}
	}
	return false
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	default:
		var f float64
		fmt.Sscanf(fmt.Sprintf("%v", v), "%f", &f)
		return f
	}
}
