package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/joho/godotenv"
	"github.com/letmevibethatforyou/pagex/corpus"
	"github.com/letmevibethatforyou/pagex/internal/app"
	"github.com/letmevibethatforyou/pagex/internal/ddb"
	"github.com/segmentio/ksuid"
	"github.com/urfave/cli/v2"
)

// tableAPI is the subset of the DynamoDB client the importer uses.
type tableAPI interface {
	dynamodb.QueryAPIClient
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

func importCorpus(ctx context.Context, client tableAPI, tableName, name string, idx *corpus.Index) (string, error) {
	batch := ksuid.New().String()

	for pos, e := range idx.Entries() {
		item, err := ddb.MarshalRecord(ddb.NewRecord(name, batch, pos, e.ID, e.Text))
		if err != nil {
			return "", fmt.Errorf("failed to marshal page record: %w", err)
		}

		_, err = client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(tableName),
			Item:      item,
		})
		if err != nil {
			return "", fmt.Errorf("failed to put page %q in DynamoDB: %w", e.ID, err)
		}

		slog.DebugContext(ctx, "imported page", "page_id", e.ID, "position", pos)
	}

	removed, err := removeStale(ctx, client, tableName, name, batch)
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "Successfully imported corpus",
		"corpus", name,
		"pages", idx.Len(),
		"batch", batch,
		"removed", removed,
	)
	return batch, nil
}

// removeStale deletes page items of the corpus written by earlier imports,
// so a shorter corpus does not keep trailing pages from a longer one.
func removeStale(ctx context.Context, client tableAPI, tableName, name, batch string) (int, error) {
	paginator := dynamodb.NewQueryPaginator(client, &dynamodb.QueryInput{
		TableName:              aws.String(tableName),
		KeyConditionExpression: aws.String("#pk = :pk AND begins_with(#sk, :prefix)"),
		FilterExpression:       aws.String("#batch <> :batch"),
		ExpressionAttributeNames: map[string]string{
			"#pk":    ddb.PartitionKey,
			"#sk":    ddb.SortKey,
			"#batch": "batch",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: name},
			":prefix": &types.AttributeValueMemberS{Value: ddb.PageKeyPrefix()},
			":batch":  &types.AttributeValueMemberS{Value: batch},
		},
		ProjectionExpression: aws.String("#pk, #sk, #batch"),
		ConsistentRead:       aws.Bool(true),
	})

	removed := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return removed, fmt.Errorf("failed to list stale pages: %w", err)
		}
		for _, item := range page.Items {
			_, err := client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(tableName),
				Key: map[string]types.AttributeValue{
					ddb.PartitionKey: item[ddb.PartitionKey],
					ddb.SortKey:      item[ddb.SortKey],
				},
			})
			if err != nil {
				return removed, fmt.Errorf("failed to delete stale page: %w", err)
			}
			removed++
		}
	}
	return removed, nil
}

func runAction(c *cli.Context) error {
	ctx := c.Context
	tableName := c.String("table-name")
	name := c.String("corpus-name")
	path := c.String("corpus")

	slog.InfoContext(ctx, "Starting corpus import",
		"corpus_file", path,
		"table", tableName,
		"corpus", name,
	)

	idx, err := corpus.LoadFileContext(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to load corpus: %w", err)
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(cfg)

	if _, err := importCorpus(ctx, client, tableName, name, idx); err != nil {
		return err
	}
	return nil
}

func main() {
	_ = godotenv.Load()
	app.ConfigureLogging()

	cliApp := &cli.App{
		Name:  "importer",
		Usage: "Import a JSON page corpus into DynamoDB",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "corpus",
				Aliases:  []string{"c"},
				Usage:    "Path to the JSON corpus (page id -> text)",
				EnvVars:  []string{"PAGEX_CORPUS"},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "table-name",
				Aliases:  []string{"t"},
				Usage:    "DynamoDB table name",
				EnvVars:  []string{"PAGEX_TABLE", "TABLE_NAME"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "corpus-name",
				Aliases: []string{"n"},
				Usage:   "Corpus partition to write",
				EnvVars: []string{"PAGEX_CORPUS_NAME"},
				Value:   "book",
			},
		},
		Action: runAction,
	}

	if err := cliApp.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}
