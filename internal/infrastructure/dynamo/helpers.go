package dynamo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

// updateExpr is a DynamoDB update expression with its placeholder maps.
type updateExpr struct {
	Expr   string
	Names  map[string]string
	Values map[string]types.AttributeValue
}

// buildUpdateExpr converts a map of field->value into a SET clause and the
// remove list into a REMOVE clause. Fields are emitted in sorted order so the
// expression is deterministic.
func buildUpdateExpr(set map[string]interface{}, remove ...string) (*updateExpr, error) {
	ue := &updateExpr{
		Names:  make(map[string]string),
		Values: make(map[string]types.AttributeValue),
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var setParts, removeParts []string
	i := 0
	for _, k := range keys {
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		av, err := attributevalue.Marshal(set[k])
		if err != nil {
			return nil, fmt.Errorf("marshal field %s: %w", k, err)
		}
		ue.Names[nameKey] = k
		ue.Values[valueKey] = av
		setParts = append(setParts, fmt.Sprintf("%s = %s", nameKey, valueKey))
		i++
	}
	for _, k := range remove {
		nameKey := fmt.Sprintf("#f%d", i)
		ue.Names[nameKey] = k
		removeParts = append(removeParts, nameKey)
		i++
	}
	if i == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	var clauses []string
	if len(setParts) > 0 {
		clauses = append(clauses, "SET "+strings.Join(setParts, ", "))
	}
	if len(removeParts) > 0 {
		clauses = append(clauses, "REMOVE "+strings.Join(removeParts, ", "))
	}
	ue.Expr = strings.Join(clauses, " ")
	return ue, nil
}

// condition adds a condition placeholder pair (#cN / :cN) for attr == value
// and returns the rendered comparison.
func (ue *updateExpr) condition(attr string, value string) string {
	n := len(ue.Names)
	nameKey := fmt.Sprintf("#c%d", n)
	valueKey := fmt.Sprintf(":c%d", n)
	ue.Names[nameKey] = attr
	ue.Values[valueKey] = &types.AttributeValueMemberS{Value: value}
	return fmt.Sprintf("%s = %s", nameKey, valueKey)
}

// exists adds an attribute_exists(attr) condition and returns it.
func (ue *updateExpr) exists(attr string) string {
	nameKey := fmt.Sprintf("#c%d", len(ue.Names))
	ue.Names[nameKey] = attr
	return fmt.Sprintf("attribute_exists(%s)", nameKey)
}

// flag adds a condition that the boolean attr equals want and returns it. A
// missing attribute counts as false.
func (ue *updateExpr) flag(attr string, want bool) string {
	n := len(ue.Names)
	nameKey := fmt.Sprintf("#c%d", n)
	valueKey := fmt.Sprintf(":c%d", n)
	ue.Names[nameKey] = attr
	ue.Values[valueKey] = &types.AttributeValueMemberBOOL{Value: want}
	if want {
		return fmt.Sprintf("%s = %s", nameKey, valueKey)
	}
	return fmt.Sprintf("(attribute_not_exists(%s) OR %s = %s)", nameKey, nameKey, valueKey)
}
