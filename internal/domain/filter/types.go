// Package filter defines the composable predicate items pushed down to the
// record store. Repositories translate items into store-level expressions
// (SQL conditions for the PostgreSQL store, in-memory matching for the fake).
package filter

// ComparisonType enumerates supported comparison operators.
type ComparisonType string

const (
	Equal          ComparisonType = "eq"
	NotEqual       ComparisonType = "neq"
	LessOrEqual    ComparisonType = "lte"
	GreaterOrEqual ComparisonType = "gte"
	InList         ComparisonType = "in"
	NotInList      ComparisonType = "nin"
	Contains       ComparisonType = "contains" // substring, case-insensitive
	IsNull         ComparisonType = "null"
	IsNotNull      ComparisonType = "not_null"
)

// Item represents a single predicate over a field.
type Item struct {
	Field    string         `json:"field"`    // field name (snake_case)
	Operator ComparisonType `json:"operator"` // comparison kind
	Value    any            `json:"value"`    // string, number, id, or slice for in/nin
}

// Eq is shorthand for an equality item.
func Eq(field string, value any) Item {
	return Item{Field: field, Operator: Equal, Value: value}
}

// In is shorthand for a set-membership item.
func In(field string, values any) Item {
	return Item{Field: field, Operator: InList, Value: values}
}
