package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/platform/logger"
	"github.com/phrazzld/taskman-api/internal/store"
)

const storeName = "dynamo"

// Client is the narrow DynamoDB client surface this store depends on.
// It is implemented by *dynamodb.Client and by test fakes.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoTaskStore implements the store.TaskStore interface using a DynamoDB
// table keyed by taskId.
type DynamoTaskStore struct {
	client Client
	table  string
}

// NewDynamoTaskStore creates a new DynamoDB implementation of the TaskStore
// interface for the given table.
func NewDynamoTaskStore(client Client, table string) *DynamoTaskStore {
	if client == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("client cannot be nil")
	}
	if table == "" {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("table cannot be empty")
	}
	return &DynamoTaskStore{client: client, table: table}
}

// Ensure DynamoTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*DynamoTaskStore)(nil)

// taskItem is the DynamoDB item shape for a task. Timestamps are stored as
// RFC 3339 strings so items stay readable in the console and sortable as text.
type taskItem struct {
	TaskID      string   `dynamodbav:"taskId"`
	Title       string   `dynamodbav:"title"`
	Description string   `dynamodbav:"description,omitempty"`
	Status      string   `dynamodbav:"status"`
	UserID      string   `dynamodbav:"userId"`
	Attachments []string `dynamodbav:"attachments"`
	DueDate     string   `dynamodbav:"dueDate,omitempty"`
	CreatedAt   string   `dynamodbav:"createdAt"`
	UpdatedAt   string   `dynamodbav:"updatedAt"`
}

// toItem converts a domain task into its DynamoDB item shape.
func toItem(task *domain.Task) taskItem {
	item := taskItem{
		TaskID:      task.ID.String(),
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		UserID:      task.UserID,
		Attachments: task.Attachments,
		CreatedAt:   task.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:   task.UpdatedAt.Format(time.RFC3339Nano),
	}
	if item.Attachments == nil {
		item.Attachments = []string{}
	}
	if task.DueDate != nil {
		item.DueDate = task.DueDate.Format(time.RFC3339Nano)
	}
	return item
}

// toDomain converts a DynamoDB item back into a domain task.
func (item taskItem) toDomain() (*domain.Task, error) {
	id, err := uuid.Parse(item.TaskID)
	if err != nil {
		return nil, fmt.Errorf("invalid taskId %q: %w", item.TaskID, err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid createdAt %q: %w", item.CreatedAt, err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid updatedAt %q: %w", item.UpdatedAt, err)
	}

	task := &domain.Task{
		ID:          id,
		Title:       item.Title,
		Description: item.Description,
		Status:      domain.TaskStatus(item.Status),
		UserID:      item.UserID,
		Attachments: item.Attachments,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
	if task.Attachments == nil {
		task.Attachments = []string{}
	}
	if item.DueDate != "" {
		due, err := time.Parse(time.RFC3339Nano, item.DueDate)
		if err != nil {
			return nil, fmt.Errorf("invalid dueDate %q: %w", item.DueDate, err)
		}
		task.DueDate = &due
	}

	return task, nil
}

// key builds the primary key attribute map for the given task ID.
func key(id uuid.UUID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"taskId": &types.AttributeValueMemberS{Value: id.String()},
	}
}

// Insert implements store.TaskStore.Insert
// The put is conditional on the task ID not already existing.
func (s *DynamoTaskStore) Insert(ctx context.Context, task *domain.Task) error {
	log := logger.FromContext(ctx)

	if err := task.Validate(); err != nil {
		return store.NewStoreError(storeName, "insert", "invalid task", err)
	}

	item, err := attributevalue.MarshalMap(toItem(task))
	if err != nil {
		return store.NewStoreError(storeName, "insert", "failed to marshal item", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(taskId)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return store.NewStoreError(storeName, "insert", "task already exists", store.ErrDuplicate)
		}
		log.Error("failed to put task item",
			"task_id", task.ID,
			"table", s.table,
			"error", err)
		return store.NewStoreError(storeName, "insert", "failed to put item", err)
	}

	return nil
}

// GetByID implements store.TaskStore.GetByID
// Returns store.ErrTaskNotFound if no item exists for the task ID.
func (s *DynamoTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       key(id),
	})
	if err != nil {
		return nil, store.NewStoreError(storeName, "get", "failed to get item", err)
	}
	if len(out.Item) == 0 {
		return nil, store.ErrTaskNotFound
	}

	var item taskItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, store.NewStoreError(storeName, "get", "failed to unmarshal item", err)
	}

	task, err := item.toDomain()
	if err != nil {
		return nil, store.NewStoreError(storeName, "get", "corrupt item", err)
	}
	return task, nil
}

// UpdateFields implements store.TaskStore.UpdateFields
// It builds an update expression setting only the patch's fields plus
// updatedAt, conditional on the item existing.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *DynamoTaskStore) UpdateFields(ctx context.Context, id uuid.UUID, patch domain.TaskPatch) error {
	log := logger.FromContext(ctx)

	expr, err := buildUpdateExpression(patch)
	if err != nil {
		return store.NewStoreError(storeName, "update_fields", "failed to build expression", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       key(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return store.ErrTaskNotFound
		}
		log.Error("failed to update task item",
			"task_id", id,
			"table", s.table,
			"error", err)
		return store.NewStoreError(storeName, "update_fields", "failed to update item", err)
	}

	return nil
}

// Delete implements store.TaskStore.Delete
// The delete is conditional on the item existing.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *DynamoTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContext(ctx)

	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.table),
		Key:                 key(id),
		ConditionExpression: aws.String("attribute_exists(taskId)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return store.ErrTaskNotFound
		}
		log.Error("failed to delete task item",
			"task_id", id,
			"table", s.table,
			"error", err)
		return store.NewStoreError(storeName, "delete", "failed to delete item", err)
	}

	return nil
}

// List implements store.TaskStore.List
// It scans the full table, following pagination until exhaustion.
func (s *DynamoTaskStore) List(ctx context.Context) ([]*domain.Task, error) {
	tasks := make([]*domain.Task, 0)

	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.table),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, store.NewStoreError(storeName, "list", "failed to scan table", err)
		}

		for _, raw := range out.Items {
			var item taskItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, store.NewStoreError(storeName, "list", "failed to unmarshal item", err)
			}
			task, err := item.toDomain()
			if err != nil {
				return nil, store.NewStoreError(storeName, "list", "corrupt item", err)
			}
			tasks = append(tasks, task)
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return tasks, nil
}

// buildUpdateExpression converts a TaskPatch into a DynamoDB update
// expression. updatedAt is always set; the condition requires the item to
// already exist so a missing task surfaces as not-found, not an upsert.
func buildUpdateExpression(patch domain.TaskPatch) (expression.Expression, error) {
	update := expression.Set(
		expression.Name("updatedAt"),
		expression.Value(patch.UpdatedAt.Format(time.RFC3339Nano)),
	)

	if patch.Title != nil {
		update = update.Set(expression.Name("title"), expression.Value(*patch.Title))
	}
	if patch.Description != nil {
		update = update.Set(expression.Name("description"), expression.Value(*patch.Description))
	}
	if patch.Status != nil {
		update = update.Set(expression.Name("status"), expression.Value(string(*patch.Status)))
	}
	if patch.Attachments != nil {
		update = update.Set(expression.Name("attachments"), expression.Value(*patch.Attachments))
	}
	if patch.DueDate != nil {
		update = update.Set(
			expression.Name("dueDate"),
			expression.Value(patch.DueDate.Format(time.RFC3339Nano)),
		)
	}

	return expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("taskId"))).
		Build()
}

// isConditionalCheckFailed checks if the error is a DynamoDB conditional
// check failure, which this store uses to detect missing or duplicate items.
func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
