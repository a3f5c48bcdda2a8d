// Package filter implements the type-aware predicate evaluator: it derives
// the legal operator set for a field's data type and evaluates filter
// conditions against a record's attribute map.
package filter

import (
	"strconv"
	"strings"
	"time"

	"github.com/groblegark/krecords/internal/model"
)

// operatorsByType is the closed operator mapping per data type. UI and query
// logic both depend on this exact table; changing it changes which filters a
// saved view can express.
var operatorsByType = map[model.DataType][]model.Operator{
	model.TypeText:     textOperators,
	model.TypeEmail:    textOperators,
	model.TypeURL:      textOperators,
	model.TypeTextarea: textOperators,
	model.TypeRichText: textOperators,
	model.TypeNumber:   numberOperators,
	model.TypeCurrency: numberOperators,
	model.TypeDate:     dateOperators,
	model.TypeDatetime: dateOperators,
	model.TypeBoolean:  {model.OpEquals},
	model.TypePicklist: choiceOperators,
	model.TypeLookup:   choiceOperators,
}

var (
	textOperators = []model.Operator{
		model.OpEquals, model.OpContains, model.OpStartsWith,
		model.OpIsNull, model.OpIsNotNull,
	}
	numberOperators = []model.Operator{
		model.OpEquals, model.OpNotEqual, model.OpGreaterThan, model.OpLessThan,
		model.OpIsNull, model.OpIsNotNull,
	}
	dateOperators = []model.Operator{
		model.OpEquals, model.OpBefore, model.OpAfter,
		model.OpIsNull, model.OpIsNotNull,
	}
	choiceOperators = []model.Operator{
		model.OpEquals, model.OpNotEqual,
		model.OpIsNull, model.OpIsNotNull,
	}
	defaultOperators = []model.Operator{
		model.OpEquals, model.OpIsNull, model.OpIsNotNull,
	}
)

// OperatorsFor returns the legal operator list for a data type, in display
// order. Unknown types fall back to equals/isNull/isNotNull.
func OperatorsFor(dataType model.DataType) []model.Operator {
	if ops, ok := operatorsByType[dataType]; ok {
		return append([]model.Operator(nil), ops...)
	}
	return append([]model.Operator(nil), defaultOperators...)
}

// IsLegal reports whether op is in the operator set of the data type.
func IsLegal(dataType model.DataType, op model.Operator) bool {
	for _, o := range OperatorsFor(dataType) {
		if o == op {
			return true
		}
	}
	return false
}

// DefaultValue returns the type-appropriate empty condition value.
func DefaultValue(dataType model.DataType) string {
	if dataType == model.TypeBoolean {
		return "false"
	}
	return ""
}

// ResetForField rewires a condition after its field changed: the operator
// becomes the first legal operator of the new data type and the value resets
// to the type's empty default.
func ResetForField(c *model.FilterCondition, fieldAPIName string, dataType model.DataType) {
	c.FieldAPIName = fieldAPIName
	c.Operator = OperatorsFor(dataType)[0]
	c.Value = DefaultValue(dataType)
}

// Normalize drops conditions that are not yet specified: an empty value with
// any operator other than isNull/isNotNull means "incomplete", not "match
// everything".
func Normalize(conditions []model.FilterCondition) []model.FilterCondition {
	out := make([]model.FilterCondition, 0, len(conditions))
	for _, c := range conditions {
		if c.Value == "" && c.Operator != model.OpIsNull && c.Operator != model.OpIsNotNull {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Evaluate reports whether the attribute map satisfies one condition, given
// the field's declared data type. Coercion failures evaluate to false, never
// to an error: a stored value that is not a number simply does not match a
// numeric predicate.
func Evaluate(dataType model.DataType, c model.FilterCondition, attrs model.AttributeMap) bool {
	stored, present := attrs[c.FieldAPIName]
	isNull := !present || stored == ""

	switch c.Operator {
	case model.OpIsNull:
		return isNull
	case model.OpIsNotNull:
		return !isNull
	}

	// Every remaining operator needs a stored value to compare against.
	if isNull {
		return false
	}

	switch dataType {
	case model.TypeNumber, model.TypeCurrency:
		return evalNumber(c.Operator, stored, c.Value)
	case model.TypeDate:
		return evalTime(c.Operator, stored, c.Value, true)
	case model.TypeDatetime:
		return evalTime(c.Operator, stored, c.Value, false)
	case model.TypeBoolean:
		return evalBoolean(c.Operator, stored, c.Value)
	default:
		return evalString(c.Operator, stored, c.Value)
	}
}

// EvaluateAll normalizes the conditions and combines them with logical AND.
// dataTypes maps field api_name to declared type; fields absent from the map
// (orphaned attribute data) evaluate with the default operator semantics.
func EvaluateAll(dataTypes map[string]model.DataType, conditions []model.FilterCondition, attrs model.AttributeMap) bool {
	for _, c := range Normalize(conditions) {
		if !Evaluate(dataTypes[c.FieldAPIName], c, attrs) {
			return false
		}
	}
	return true
}

func evalString(op model.Operator, stored, value string) bool {
	switch op {
	case model.OpEquals:
		return stored == value
	case model.OpNotEqual:
		return stored != value
	case model.OpContains:
		return strings.Contains(strings.ToLower(stored), strings.ToLower(value))
	case model.OpStartsWith:
		return strings.HasPrefix(strings.ToLower(stored), strings.ToLower(value))
	}
	return false
}

func evalNumber(op model.Operator, stored, value string) bool {
	s, err := strconv.ParseFloat(strings.TrimSpace(stored), 64)
	if err != nil {
		return false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return false
	}
	switch op {
	case model.OpEquals:
		return s == v
	case model.OpNotEqual:
		return s != v
	case model.OpGreaterThan:
		return s > v
	case model.OpLessThan:
		return s < v
	}
	return false
}

func evalBoolean(op model.Operator, stored, value string) bool {
	s, err := strconv.ParseBool(stored)
	if err != nil {
		return false
	}
	v, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}
	if op == model.OpEquals {
		return s == v
	}
	return false
}

// timeLayouts are the accepted encodings of stored and condition time values.
// Canonical storage is RFC 3339 for datetime and 2006-01-02 for date, but
// conditions typed by a user may carry either form.
var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// truncateToDate drops the time-of-day portion, comparing dates in UTC.
func truncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func evalTime(op model.Operator, stored, value string, dateOnly bool) bool {
	s, ok := parseTime(stored)
	if !ok {
		return false
	}
	v, ok := parseTime(value)
	if !ok {
		return false
	}
	if dateOnly {
		s = truncateToDate(s)
		v = truncateToDate(v)
	}
	switch op {
	case model.OpEquals:
		return s.Equal(v)
	case model.OpBefore:
		return s.Before(v)
	case model.OpAfter:
		return s.After(v)
	}
	return false
}
