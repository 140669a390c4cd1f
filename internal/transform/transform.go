// =============================================================================
// GSTR-2B Reconciler - Transformation Engine
// =============================================================================
//
// This module applies per-column clean-up rules to raw cells before they are
// normalized. Rules come from the dataset section of the configuration file
// and run on a copy of each row, so the original cells remain available for
// the reconciliation workbook.
//
// TRANSFORMATION TYPES:
//   - String manipulations (trim, case conversion, prepend, append)
//   - Substring and regular expression replacement
//   - Prefix and suffix removal
//   - Lookup table replacements
//
// COMMON USE CASES:
//   - Stripping a branch prefix from invoice numbers ("MUM/INV-001")
//   - Replacing a currency symbol in amount columns
//   - Mapping legacy vendor codes to GSTINs
//
// =============================================================================

package transform

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ginjaninja78/gstr2b-reconciliation/internal/types"
)

// =============================================================================
// RULE STRUCTURES
// =============================================================================

// Rule defines how a column's value should be transformed.
type Rule struct {
	// Field is the source column header this rule applies to.
	Field string `yaml:"field"`

	// Actions are applied in order.
	Actions []Action `yaml:"actions"`
}

// Action defines a single transformation action.
type Action struct {
	// Type is the type of transformation.
	// Supported: "trim", "uppercase", "lowercase", "prepend_string",
	// "append_string", "replace", "regex_replace", "trim_prefix",
	// "trim_suffix", "lookup"
	Type string `yaml:"type"`

	// Value is the parameter for the transformation (e.g. the string to
	// prepend, or the replacement text).
	Value string `yaml:"value"`

	// Find is the string or pattern to find (for "replace", "regex_replace").
	Find string `yaml:"find"`

	// LookupTable maps input values to output values (for "lookup").
	LookupTable map[string]string `yaml:"lookup_table"`
}

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer applies a validated set of rules to rows.
type Transformer struct {
	rules  []Rule
	byName map[string]int
	// compiled holds the pattern of every regex_replace action, by rule and
	// action position.
	compiled map[[2]int]*regexp.Regexp
}

// New validates the rules and compiles any patterns they carry. An unknown
// action type or an invalid pattern is reported here rather than per row.
func New(rules []Rule) (*Transformer, error) {
	t := &Transformer{
		rules:    rules,
		byName:   make(map[string]int, len(rules)),
		compiled: make(map[[2]int]*regexp.Regexp),
	}

	for i, rule := range rules {
		if rule.Field == "" {
			return nil, fmt.Errorf("transformation rule %d has no field", i+1)
		}
		if _, dup := t.byName[rule.Field]; dup {
			return nil, fmt.Errorf("field %q has more than one transformation rule", rule.Field)
		}
		t.byName[rule.Field] = i

		for j, action := range rule.Actions {
			switch action.Type {
			case "trim", "uppercase", "lowercase", "prepend_string", "append_string",
				"replace", "trim_prefix", "trim_suffix", "lookup":
			case "regex_replace":
				re, err := regexp.Compile(action.Find)
				if err != nil {
					return nil, fmt.Errorf("field %q: invalid regex pattern %q: %w", rule.Field, action.Find, err)
				}
				t.compiled[[2]int{i, j}] = re
			default:
				return nil, fmt.Errorf("field %q: unknown transformation type: %s", rule.Field, action.Type)
			}
		}
	}

	return t, nil
}

// Empty reports whether the transformer has no rules.
func (t *Transformer) Empty() bool {
	return t == nil || len(t.rules) == 0
}

// Transform applies the rule for fieldName, if any, to value.
func (t *Transformer) Transform(fieldName, value string) string {
	i, ok := t.byName[fieldName]
	if !ok {
		return value
	}

	result := value
	for j, action := range t.rules[i].Actions {
		result = t.apply(result, action, t.compiled[[2]int{i, j}])
	}
	return result
}

// Apply returns a copy of row with every matching rule applied. Cells that
// are absent from the row are left absent; non-string cells are formatted
// before transformation.
func (t *Transformer) Apply(row types.Row) types.Row {
	out := make(types.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	if t.Empty() {
		return out
	}

	for _, rule := range t.rules {
		v, ok := out[rule.Field]
		if !ok || v == nil {
			continue
		}
		s, isString := v.(string)
		if !isString {
			s = fmt.Sprint(v)
		}
		out[rule.Field] = t.Transform(rule.Field, s)
	}
	return out
}

// ApplyAll transforms every row of a table-sized batch.
func (t *Transformer) ApplyAll(rows []types.Row) []types.Row {
	out := make([]types.Row, len(rows))
	for i, row := range rows {
		out[i] = t.Apply(row)
	}
	return out
}

// =============================================================================
// TRANSFORMATION FUNCTIONS
// =============================================================================

// apply applies a single action. Types were checked in New.
func (t *Transformer) apply(value string, action Action, re *regexp.Regexp) string {
	switch action.Type {

	// =========================================================================
	// STRING MANIPULATIONS
	// =========================================================================

	case "trim":
		// Remove leading and trailing whitespace, or the given characters.
		if action.Value != "" {
			return strings.Trim(value, action.Value)
		}
		return strings.TrimSpace(value)

	case "uppercase":
		return strings.ToUpper(value)

	case "lowercase":
		return strings.ToLower(value)

	case "prepend_string":
		// EXAMPLE:
		//   Input: "001"
		//   Action: prepend_string with value "INV-"
		//   Output: "INV-001"
		return action.Value + value

	case "append_string":
		return value + action.Value

	case "trim_prefix":
		// EXAMPLE:
		//   Input: "MUM/INV-001"
		//   Action: trim_prefix with value "MUM/"
		//   Output: "INV-001"
		return strings.TrimPrefix(value, action.Value)

	case "trim_suffix":
		return strings.TrimSuffix(value, action.Value)

	// =========================================================================
	// REPLACEMENTS
	// =========================================================================

	case "replace":
		// EXAMPLE:
		//   Input: "Rs. 1,000"
		//   Action: replace with find "Rs." and value ""
		//   Output: " 1,000"
		if action.Find == "" {
			return value
		}
		return strings.ReplaceAll(value, action.Find, action.Value)

	case "regex_replace":
		return re.ReplaceAllString(value, action.Value)

	// =========================================================================
	// LOOKUP TABLE REPLACEMENTS
	// =========================================================================

	case "lookup":
		// Values missing from the table pass through unchanged.
		if replacement, exists := action.LookupTable[value]; exists {
			return replacement
		}
		return value
	}

	return value
}
