package corpus

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/pagex"
	"github.com/letmevibethatforyou/pagex/internal/ddb"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// LoadDynamoDB reads every page of the named corpus from table. Pages are
// returned by DynamoDB in sort key order, which is the corpus order written
// by the importer.
func LoadDynamoDB(ctx context.Context, client dynamodb.QueryAPIClient, table, name string) (*Index, error) {
	ctx, span := tracer.Start(ctx, "corpus.load_dynamodb",
		trace.WithAttributes(
			attribute.String("dynamodb.table", table),
			attribute.String("corpus.name", name),
		),
	)
	defer span.End()

	if table == "" || name == "" {
		err := errors.Wrapf(pagex.ErrLoad, "table and corpus name are required")
		span.RecordError(err)
		span.SetStatus(codes.Error, "missing table or corpus name")
		return nil, err
	}

	paginator := dynamodb.NewQueryPaginator(client, &dynamodb.QueryInput{
		TableName:              aws.String(table),
		KeyConditionExpression: aws.String("#pk = :pk AND begins_with(#sk, :prefix)"),
		ExpressionAttributeNames: map[string]string{
			"#pk": ddb.PartitionKey,
			"#sk": ddb.SortKey,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: name},
			":prefix": &types.AttributeValueMemberS{Value: ddb.PageKeyPrefix()},
		},
		ConsistentRead: aws.Bool(true),
	})

	var entries []Entry
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "query failed")
			return nil, loadError(err, "failed to query corpus %s from table %s", name, table)
		}

		for _, item := range page.Items {
			record, err := ddb.UnmarshalRecord(item)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "malformed page item")
				return nil, loadError(err, "failed to unmarshal page item")
			}
			if record.Object.ID == "" {
				err := errors.Wrapf(pagex.ErrLoad, "page item %s has no identifier", record.Key)
				span.RecordError(err)
				span.SetStatus(codes.Error, "malformed page item")
				return nil, err
			}
			if record.Object.Text == nil {
				err := errors.Wrapf(pagex.ErrLoad, "page %q has no text attribute", record.Object.ID)
				span.RecordError(err)
				span.SetStatus(codes.Error, "malformed page item")
				return nil, err
			}
			entries = append(entries, Entry{ID: record.Object.ID, Text: *record.Object.Text})
		}
	}

	idx, err := NewIndex(entries)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid corpus")
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("corpus.size", idx.Len()),
		attribute.String("corpus.revision", idx.Revision()),
	)
	return idx, nil
}
