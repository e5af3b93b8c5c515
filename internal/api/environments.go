package api

// EnvironmentDocument is an environment record from the environments table,
// keyed by its API key. It embeds the project and segment definitions needed
// for segment evaluation.
type EnvironmentDocument struct {
	APIKey  string          `json:"api_key" dynamodbav:"api_key"`
	Name    string          `json:"name,omitempty" dynamodbav:"name,omitempty"`
	Project ProjectDocument `json:"project" dynamodbav:"project"`
}

// ProjectDocument is the project an environment belongs to.
type ProjectDocument struct {
	ID       int64     `json:"id" dynamodbav:"id"`
	Name     string    `json:"name,omitempty" dynamodbav:"name,omitempty"`
	Segments []Segment `json:"segments,omitempty" dynamodbav:"segments,omitempty"`
}

// RuleType determines how a segment rule combines its conditions and
// nested rules.
type RuleType string

// Segment rule types.
const (
	RuleTypeAll  RuleType = "ALL"
	RuleTypeAny  RuleType = "ANY"
	RuleTypeNone RuleType = "NONE"
)

// ConditionOperator is the comparison applied by a segment condition.
type ConditionOperator string

// Segment condition operators.
const (
	OperatorEqual                ConditionOperator = "EQUAL"
	OperatorNotEqual             ConditionOperator = "NOT_EQUAL"
	OperatorContains             ConditionOperator = "CONTAINS"
	OperatorNotContains          ConditionOperator = "NOT_CONTAINS"
	OperatorGreaterThan          ConditionOperator = "GREATER_THAN"
	OperatorGreaterThanInclusive ConditionOperator = "GREATER_THAN_INCLUSIVE"
	OperatorLessThan             ConditionOperator = "LESS_THAN"
	OperatorLessThanInclusive    ConditionOperator = "LESS_THAN_INCLUSIVE"
	OperatorRegex                ConditionOperator = "REGEX"
	OperatorIsSet                ConditionOperator = "IS_SET"
	OperatorIsNotSet             ConditionOperator = "IS_NOT_SET"
	OperatorPercentageSplit      ConditionOperator = "PERCENTAGE_SPLIT"
)

// Segment is a named group of identities defined by rules over traits.
type Segment struct {
	ID    int64         `json:"id" dynamodbav:"id"`
	Name  string        `json:"name,omitempty" dynamodbav:"name,omitempty"`
	Rules []SegmentRule `json:"rules,omitempty" dynamodbav:"rules,omitempty"`
}

// SegmentRule combines conditions and nested rules under a rule type.
type SegmentRule struct {
	Type       RuleType           `json:"type" dynamodbav:"type"`
	Rules      []SegmentRule      `json:"rules,omitempty" dynamodbav:"rules,omitempty"`
	Conditions []SegmentCondition `json:"conditions,omitempty" dynamodbav:"conditions,omitempty"`
}

// SegmentCondition compares one identity property or trait against a value.
type SegmentCondition struct {
	Operator ConditionOperator `json:"operator" dynamodbav:"operator"`
	Property string            `json:"property,omitempty" dynamodbav:"property,omitempty"`
	Value    string            `json:"value,omitempty" dynamodbav:"value,omitempty"`
}
