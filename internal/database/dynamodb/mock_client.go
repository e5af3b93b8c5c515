package dynamodb

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MockClient is an in-memory implementation of Client for testing.
// It stores items per table keyed by their partition key and emulates the
// subset of Query behavior the repositories rely on: uuid-index point
// lookups, environment partition pages ordered by identifier, the
// overrides-only filter, projections, Limit/ExclusiveStartKey pagination,
// and consumed-capacity reporting.
type MockClient struct {
	mu sync.Mutex

	// Tables maps table name -> partition key value -> item.
	Tables map[string]map[string]map[string]types.AttributeValue

	// PageCapacities is consumed one value per Query call that requests
	// consumed capacity; when exhausted, DefaultPageCapacity applies.
	PageCapacities      []float64
	DefaultPageCapacity float64
	capacityIdx         int

	// Error injection for testing error scenarios.
	PutItemError        error
	GetItemError        error
	QueryError          error
	DeleteItemError     error
	BatchWriteItemError error

	// QueryErrorOnCall makes the Nth Query call (1-based) fail with
	// QueryError instead of every call. Zero disables the behavior.
	QueryErrorOnCall int

	// Call tracking for test assertions.
	PutItemCalls        int
	GetItemCalls        int
	QueryCalls          int
	DeleteItemCalls     int
	BatchWriteItemCalls int

	// CapacityRequested records, per Query call, whether consumed capacity
	// reporting was requested.
	CapacityRequested []bool
}

// NewMockClient creates a new mock DynamoDB client for testing.
func NewMockClient() *MockClient {
	return &MockClient{
		Tables: make(map[string]map[string]map[string]types.AttributeValue),
	}
}

func getStringValue(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func itemPartitionKey(item map[string]types.AttributeValue) string {
	for _, attr := range []string{attrCompositeKey, attrEnvironmentKey} {
		if v, ok := item[attr]; ok {
			return getStringValue(v)
		}
	}
	for _, v := range item {
		if s := getStringValue(v); s != "" {
			return s
		}
	}
	return ""
}

// PutItem stores an item in the mock table.
func (m *MockClient) PutItem(
	_ context.Context,
	params *dynamodb.PutItemInput,
	_ ...func(*dynamodb.Options),
) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PutItemCalls++
	if m.PutItemError != nil {
		return nil, m.PutItemError
	}

	m.storeItem(*params.TableName, params.Item)

	return &dynamodb.PutItemOutput{}, nil
}

func (m *MockClient) storeItem(tableName string, item map[string]types.AttributeValue) {
	if m.Tables[tableName] == nil {
		m.Tables[tableName] = make(map[string]map[string]types.AttributeValue)
	}
	m.Tables[tableName][itemPartitionKey(item)] = item
}

// GetItem retrieves an item from the mock table.
func (m *MockClient) GetItem(
	_ context.Context,
	params *dynamodb.GetItemInput,
	_ ...func(*dynamodb.Options),
) (*dynamodb.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetItemCalls++
	if m.GetItemError != nil {
		return nil, m.GetItemError
	}

	var key string
	for _, v := range params.Key {
		key = getStringValue(v)
		break
	}

	var item map[string]types.AttributeValue
	if table := m.Tables[*params.TableName]; table != nil {
		item = table[key]
	}

	return &dynamodb.GetItemOutput{Item: item}, nil
}

// DeleteItem removes an item from the mock table.
func (m *MockClient) DeleteItem(
	_ context.Context,
	params *dynamodb.DeleteItemInput,
	_ ...func(*dynamodb.Options),
) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteItemCalls++
	if m.DeleteItemError != nil {
		return nil, m.DeleteItemError
	}

	var key string
	for _, v := range params.Key {
		key = getStringValue(v)
		break
	}
	if table := m.Tables[*params.TableName]; table != nil {
		delete(table, key)
	}

	return &dynamodb.DeleteItemOutput{}, nil
}

// BatchWriteItem applies batched put and delete requests.
func (m *MockClient) BatchWriteItem(
	_ context.Context,
	params *dynamodb.BatchWriteItemInput,
	_ ...func(*dynamodb.Options),
) (*dynamodb.BatchWriteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.BatchWriteItemCalls++
	if m.BatchWriteItemError != nil {
		return nil, m.BatchWriteItemError
	}

	for tableName, requests := range params.RequestItems {
		for _, req := range requests {
			switch {
			case req.PutRequest != nil:
				m.storeItem(tableName, req.PutRequest.Item)
			case req.DeleteRequest != nil:
				var key string
				for _, v := range req.DeleteRequest.Key {
					key = getStringValue(v)
					break
				}
				if table := m.Tables[tableName]; table != nil {
					delete(table, key)
				}
			}
		}
	}

	return &dynamodb.BatchWriteItemOutput{}, nil
}

// Query emulates index queries over the stored items.
func (m *MockClient) Query(
	_ context.Context,
	params *dynamodb.QueryInput,
	_ ...func(*dynamodb.Options),
) (*dynamodb.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.QueryCalls++
	capacityRequested := params.ReturnConsumedCapacity == types.ReturnConsumedCapacityTotal
	m.CapacityRequested = append(m.CapacityRequested, capacityRequested)

	if m.QueryError != nil && (m.QueryErrorOnCall == 0 || m.QueryErrorOnCall == m.QueryCalls) {
		return nil, m.QueryError
	}

	items := m.matchItems(m.Tables[*params.TableName], params)

	out := &dynamodb.QueryOutput{}
	items, out.LastEvaluatedKey = paginate(items, params)
	out.Items = applyProjection(items, params)
	out.Count = int32(len(out.Items))

	if capacityRequested {
		units := m.DefaultPageCapacity
		if m.capacityIdx < len(m.PageCapacities) {
			units = m.PageCapacities[m.capacityIdx]
			m.capacityIdx++
		}
		out.ConsumedCapacity = &types.ConsumedCapacity{
			TableName:     params.TableName,
			CapacityUnits: &units,
		}
	}

	return out, nil
}

// keyCondition is one parsed clause of a key condition expression.
type keyCondition struct {
	attr   string
	term   string
	prefix bool
}

var (
	equalityClause   = regexp.MustCompile(`(#\w+) = (:\w+)`)
	beginsWithClause = regexp.MustCompile(`begins_with \((#\w+), (:\w+)\)`)
)

// parseKeyConditions resolves the expression builder's placeholder syntax
// (`#0 = :0`, `begins_with (#1, :1)`) back into attribute/term clauses.
func parseKeyConditions(params *dynamodb.QueryInput) []keyCondition {
	if params.KeyConditionExpression == nil {
		return nil
	}
	expr := *params.KeyConditionExpression

	var conds []keyCondition
	for _, match := range equalityClause.FindAllStringSubmatch(expr, -1) {
		conds = append(conds, keyCondition{
			attr: params.ExpressionAttributeNames[match[1]],
			term: getStringValue(params.ExpressionAttributeValues[match[2]]),
		})
	}
	for _, match := range beginsWithClause.FindAllStringSubmatch(expr, -1) {
		conds = append(conds, keyCondition{
			attr:   params.ExpressionAttributeNames[match[1]],
			term:   getStringValue(params.ExpressionAttributeValues[match[2]]),
			prefix: true,
		})
	}
	return conds
}

// matchItems returns the items satisfying the query's key conditions and
// filter, ordered by identifier (the store-native index ordering).
func (m *MockClient) matchItems(
	table map[string]map[string]types.AttributeValue,
	params *dynamodb.QueryInput,
) []map[string]types.AttributeValue {
	conds := parseKeyConditions(params)
	// The only filter the repositories build is overrides-only.
	overridesOnly := params.FilterExpression != nil

	var items []map[string]types.AttributeValue
	for _, item := range table {
		matches := true
		for _, cond := range conds {
			value := getStringValue(item[cond.attr])
			if cond.prefix && !strings.HasPrefix(value, cond.term) {
				matches = false
				break
			}
			if !cond.prefix && value != cond.term {
				matches = false
				break
			}
		}
		if !matches {
			continue
		}
		if overridesOnly && !hasOverrides(item) {
			continue
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		return getStringValue(items[i]["identifier"]) < getStringValue(items[j]["identifier"])
	})

	return items
}

func hasOverrides(item map[string]types.AttributeValue) bool {
	features, ok := item[attrIdentityFeatures].(*types.AttributeValueMemberL)
	return ok && len(features.Value) > 0
}

// paginate applies ExclusiveStartKey and Limit, returning the page and a
// continuation key when more items remain.
func paginate(
	items []map[string]types.AttributeValue,
	params *dynamodb.QueryInput,
) ([]map[string]types.AttributeValue, map[string]types.AttributeValue) {
	start := 0
	if params.ExclusiveStartKey != nil {
		after := getStringValue(params.ExclusiveStartKey[attrCompositeKey])
		for i, item := range items {
			if getStringValue(item[attrCompositeKey]) == after {
				start = i + 1
				break
			}
		}
	}
	if start > len(items) {
		start = len(items)
	}
	items = items[start:]

	if params.Limit == nil || int(*params.Limit) >= len(items) {
		return items, nil
	}

	page := items[:*params.Limit]
	last := page[len(page)-1]
	lastKey := map[string]types.AttributeValue{
		attrCompositeKey: &types.AttributeValueMemberS{
			Value: getStringValue(last[attrCompositeKey]),
		},
	}
	return page, lastKey
}

// applyProjection restricts items to the attributes named by the projection
// expression, resolving #placeholders through the names map.
func applyProjection(
	items []map[string]types.AttributeValue,
	params *dynamodb.QueryInput,
) []map[string]types.AttributeValue {
	if params.ProjectionExpression == nil {
		return items
	}

	var attrs []string
	for _, part := range strings.Split(*params.ProjectionExpression, ",") {
		part = strings.TrimSpace(part)
		if name, ok := params.ExpressionAttributeNames[part]; ok {
			attrs = append(attrs, name)
		} else {
			attrs = append(attrs, part)
		}
	}

	projected := make([]map[string]types.AttributeValue, len(items))
	for i, item := range items {
		out := make(map[string]types.AttributeValue, len(attrs))
		for _, attr := range attrs {
			if v, ok := item[attr]; ok {
				out[attr] = v
			}
		}
		projected[i] = out
	}
	return projected
}
