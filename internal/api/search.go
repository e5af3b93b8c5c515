package api

// SearchOperator selects the sort-key condition applied by an identity search.
// The set is closed; attribute/operator pairs are never dispatched reflectively.
type SearchOperator string

// Supported search operators.
const (
	SearchOperatorEqual      SearchOperator = "EQUAL"
	SearchOperatorBeginsWith SearchOperator = "BEGINS_WITH"
)

// Valid reports whether the operator is one of the supported variants.
func (o SearchOperator) Valid() bool {
	switch o {
	case SearchOperatorEqual, SearchOperatorBeginsWith:
		return true
	}
	return false
}

// SearchRequest describes a secondary-index range query over identities.
// It is constructed per call and never persisted.
type SearchRequest struct {
	Attribute string         `json:"attribute" validate:"required"`
	Operator  SearchOperator `json:"operator" validate:"required"`
	Term      string         `json:"term" validate:"required"`
	IndexName string         `json:"index_name" validate:"required"`
}
