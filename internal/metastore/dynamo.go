package metastore

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"
)

// DynamoDB key constants for the single-table design.
const (
	batchPKPrefix = "BATCH#"
	shotPKPrefix  = "SHOT#"
	skMeta        = "META"
	skFramePrefix = "FRAME#"
)

// DynamoStore implements Store using AWS DynamoDB.
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
}

// Compile-time interface check.
var _ Store = (*DynamoStore)(nil)

// NewDynamoStore creates a DynamoStore for the given table.
// The client should be initialized from the shared AWS config.
func NewDynamoStore(client *dynamodb.Client, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
	}
}

// --- Internal helpers ---

// batchPK returns the partition key for a batch and its frame records.
func batchPK(batchID string) string {
	return batchPKPrefix + batchID
}

// frameSK returns the sort key for a frame record. Seconds are zero-padded
// so that lexicographic SK order matches timeline order.
func frameSK(second int) string {
	return fmt.Sprintf("%s%06d", skFramePrefix, second)
}

// nowISO returns the current time in the ISO 8601 form used by createdAt and
// completedAt attributes.
func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// putItem marshals a domain object and writes it to DynamoDB with PK and SK.
// The domain object should use dynamodbav:"-" for fields derived from PK/SK.
func (s *DynamoStore) putItem(ctx context.Context, pk, sk string, data interface{}) error {
	item, err := attributevalue.MarshalMap(data)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	// Add key attributes (overwrite any conflicting keys from the data).
	item["PK"] = &types.AttributeValueMemberS{Value: pk}
	item["SK"] = &types.AttributeValueMemberS{Value: sk}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("PutItem PK=%s SK=%s: %w", pk, sk, err)
	}
	return nil
}

// getItem reads a single item from DynamoDB and unmarshals it into out.
// Returns false if the item does not exist (out is not modified).
func (s *DynamoStore) getItem(ctx context.Context, pk, sk string, out interface{}) (bool, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
	})
	if err != nil {
		return false, fmt.Errorf("GetItem PK=%s SK=%s: %w", pk, sk, err)
	}
	if result.Item == nil {
		return false, nil
	}
	if err := attributevalue.UnmarshalMap(result.Item, out); err != nil {
		return false, fmt.Errorf("unmarshal PK=%s SK=%s: %w", pk, sk, err)
	}
	return true, nil
}

// --- Screenshot operations ---

func (s *DynamoStore) PutScreenshot(ctx context.Context, shot *Screenshot) error {
	if shot.CreatedAt == "" {
		shot.CreatedAt = nowISO()
	}

	if err := s.putItem(ctx, shotPKPrefix+shot.ID, skMeta, shot); err != nil {
		return fmt.Errorf("put screenshot %s: %w", shot.ID, err)
	}

	log.Debug().Str("screenshotId", shot.ID).Str("url", shot.URL).Msg("Screenshot metadata persisted to DynamoDB")
	return nil
}

// --- Batch operations ---

func (s *DynamoStore) PutBatch(ctx context.Context, batch *Batch) error {
	if batch.CreatedAt == "" {
		batch.CreatedAt = nowISO()
	}

	if err := s.putItem(ctx, batchPK(batch.ID), skMeta, batch); err != nil {
		return fmt.Errorf("put batch %s: %w", batch.ID, err)
	}

	log.Debug().Str("batchId", batch.ID).Str("status", batch.Status).Msg("Batch persisted to DynamoDB")
	return nil
}

func (s *DynamoStore) GetBatch(ctx context.Context, batchID string) (*Batch, error) {
	var batch Batch
	found, err := s.getItem(ctx, batchPK(batchID), skMeta, &batch)
	if err != nil {
		return nil, fmt.Errorf("get batch %s: %w", batchID, err)
	}
	if !found {
		return nil, nil
	}

	batch.ID = batchID
	return &batch, nil
}

func (s *DynamoStore) CompleteBatch(ctx context.Context, batchID string, done BatchCompletion) error {
	if done.CompletedAt == "" {
		done.CompletedAt = nowISO()
	}

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: batchPK(batchID)},
			"SK": &types.AttributeValueMemberS{Value: skMeta},
		},
		UpdateExpression: aws.String(
			"SET #s = :s, validCount = :v, errorCount = :e, hasDuplicates = :d, resultSummary = :r, completedAt = :c"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status", // "status" is a DynamoDB reserved word
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s": &types.AttributeValueMemberS{Value: StatusCompleted},
			":v": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", done.ValidCount)},
			":e": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", done.ErrorCount)},
			":d": &types.AttributeValueMemberBOOL{Value: done.HasDuplicates},
			":r": &types.AttributeValueMemberS{Value: done.ResultSummary},
			":c": &types.AttributeValueMemberS{Value: done.CompletedAt},
		},
	})
	if err != nil {
		return fmt.Errorf("complete batch %s: %w", batchID, err)
	}

	log.Debug().
		Str("batchId", batchID).
		Int("valid", done.ValidCount).
		Int("errors", done.ErrorCount).
		Msg("Batch marked completed")
	return nil
}

// --- Frame operations ---

func (s *DynamoStore) PutFrame(ctx context.Context, batchID string, frame *Frame) error {
	if frame.CreatedAt == "" {
		frame.CreatedAt = nowISO()
	}

	if err := s.putItem(ctx, batchPK(batchID), frameSK(frame.Second), frame); err != nil {
		return fmt.Errorf("put frame %s/%ds: %w", batchID, frame.Second, err)
	}

	log.Debug().
		Str("batchId", batchID).
		Int("second", frame.Second).
		Bool("success", frame.Success).
		Msg("Frame result persisted")
	return nil
}
