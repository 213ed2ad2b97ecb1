package ddb

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Attribute names of a page item.
const (
	PartitionKey = "pk"
	SortKey      = "sk"
)

// sortKeyPrefix keeps page items apart from any other item kind sharing the
// corpus partition.
const sortKeyPrefix = "page#"

// Record is one corpus page as stored in DynamoDB. All pages of a corpus share
// a partition; the zero-padded sort key preserves corpus order.
type Record struct {
	Corpus string `dynamodbav:"pk"`     // PK field
	Key    string `dynamodbav:"sk"`     // SK field
	Batch  string `dynamodbav:"batch"`  // import that wrote the item
	Object Page   `dynamodbav:"object"` // object field
}

// Page is the payload of a Record.
type Page struct {
	ID string `dynamodbav:"id"`
	// Text is nil when the attribute is absent, which is distinct from an
	// empty page.
	Text *string `dynamodbav:"text"`
}

// PageSortKey returns the sort key for the page at position pos.
func PageSortKey(pos int) string {
	return fmt.Sprintf("%s%010d", sortKeyPrefix, pos)
}

// PageKeyPrefix returns the sort key prefix shared by all page items.
func PageKeyPrefix() string {
	return sortKeyPrefix
}

// NewRecord builds the item for the page at position pos.
func NewRecord(corpus, batch string, pos int, id, text string) Record {
	return Record{
		Corpus: corpus,
		Key:    PageSortKey(pos),
		Batch:  batch,
		Object: Page{ID: id, Text: &text},
	}
}

// MarshalRecord converts a Record into a DynamoDB item.
func MarshalRecord(record Record) (map[string]types.AttributeValue, error) {
	return attributevalue.MarshalMap(record)
}

// UnmarshalRecord converts a DynamoDB item into a Record struct.
func UnmarshalRecord(item map[string]types.AttributeValue) (Record, error) {
	var record Record
	err := attributevalue.UnmarshalMap(item, &record)
	if err != nil {
		return Record{}, err
	}
	return record, nil
}
