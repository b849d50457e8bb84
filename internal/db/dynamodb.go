package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spacesedan/threadflow/internal/clients"
	"github.com/spacesedan/threadflow/internal/models"
)

const COMMENTS_TABLE_NAME = "Comments"

var dbClient *dynamodb.Client

func InitDynamoDB() {
	dbClient = clients.GetDynamoDBClient()
}

// StoreCommentBatch archives a link's flattened comment records. Items are
// written in chunks of 25 (the BatchWriteItem ceiling) with retries for
// unprocessed leftovers.
func StoreCommentBatch(ctx context.Context, linkID string, records []models.CommentRecord) error {
	if dbClient == nil {
		dbClient = clients.GetDynamoDBClient()
	}

	expirationTime := time.Now().Add(24 * time.Hour).Unix()

	const maxBatchSize = 25
	for i := 0; i < len(records); i += maxBatchSize {
		select {
		case <-ctx.Done():
			slog.Warn("[DynamoDB] context canceled")
			return ctx.Err()
		default:
		}

		end := i + maxBatchSize
		if end > len(records) {
			end = len(records)
		}

		writeRequests := make([]types.WriteRequest, 0, maxBatchSize)
		for _, record := range records[i:end] {
			writeRequests = append(writeRequests, types.WriteRequest{
				PutRequest: &types.PutRequest{
					Item: RecordToDynamoDBItem(linkID, record, expirationTime),
				},
			})
		}

		out, err := dbClient.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				COMMENTS_TABLE_NAME: writeRequests,
			},
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] Failed to batch write comments: %w", err)
		}

		retryCount := 0
		backoffDuration := time.Millisecond * 500
		for len(out.UnprocessedItems) > 0 && retryCount < 3 {
			time.Sleep(backoffDuration)
			backoffDuration *= 2
			slog.Warn("[DynamoDB] Retrying unprocessed items...",
				slog.Int("retry_attempt", retryCount+1),
				slog.Int("remaining_items", len(out.UnprocessedItems[COMMENTS_TABLE_NAME])),
			)

			out, err = dbClient.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: out.UnprocessedItems,
			})
			if err != nil {
				slog.Error("[DynamoDB] Error retrying batch write",
					slog.String("error", err.Error()))
				return fmt.Errorf("[DynamoDB] Failed to retry batch write: %w", err)
			}
			retryCount++
		}

		if len(out.UnprocessedItems) > 0 {
			slog.Error("[DynamoDB] Some comments were not written even after retries",
				slog.Int("remaining_items", len(out.UnprocessedItems[COMMENTS_TABLE_NAME])))
		}
	}

	slog.Info("[DynamoDB] Successfully archived comment batch",
		slog.String("link_id", linkID),
		slog.Int("count", len(records)))
	return nil
}

// GetCommentsByLink reads back the archived records for one link.
func GetCommentsByLink(ctx context.Context, linkID string) (models.CommentMap, error) {
	if dbClient == nil {
		dbClient = clients.GetDynamoDBClient()
	}

	input := &dynamodb.QueryInput{
		TableName:              aws.String(COMMENTS_TABLE_NAME),
		KeyConditionExpression: aws.String("link_id = :link_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":link_id": &types.AttributeValueMemberS{Value: linkID},
		},
	}

	comments := make(models.CommentMap)
	paginator := dynamodb.NewQueryPaginator(dbClient, input)

	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("[DynamoDB] Query for comments failed: %w", err)
		}

		var page []models.CommentRecord
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			slog.Error("[DynamoDB] Unable to unmarshal comment page", slog.String("error", err.Error()))
			return nil, err
		}
		for _, record := range page {
			comments[record.ID] = record
		}
	}

	slog.Info("[DynamoDB] Successfully retrieved archived comments",
		slog.String("link_id", linkID),
		slog.Int("count", len(comments)))
	return comments, nil
}

func RecordToDynamoDBItem(linkID string, record models.CommentRecord, expiresAt int64) map[string]types.AttributeValue {
	item := make(map[string]types.AttributeValue)

	item["link_id"] = &types.AttributeValueMemberS{Value: linkID}
	item["id"] = &types.AttributeValueMemberS{Value: record.ID}
	item["body"] = &types.AttributeValueMemberS{Value: record.Body}
	item["ups"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", record.Ups)}
	item["downs"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", record.Downs)}
	item["author"] = &types.AttributeValueMemberS{Value: record.Author}
	item["expires_at"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expiresAt)}

	if record.Parent != "" {
		item["parent"] = &types.AttributeValueMemberS{Value: record.Parent}
	}

	replies := make([]types.AttributeValue, 0, len(record.Replies))
	for _, id := range record.Replies {
		replies = append(replies, &types.AttributeValueMemberS{Value: id})
	}
	item["replies"] = &types.AttributeValueMemberL{Value: replies}

	return item
}
