package dynamo

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient implements the Client interface with overridable behavior.
type fakeClient struct {
	getItemFn    func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	putItemFn    func(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	updateItemFn func(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	deleteItemFn func(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	scanFn       func(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

func (f *fakeClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return f.getItemFn(ctx, params, optFns...)
}

func (f *fakeClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return f.putItemFn(ctx, params, optFns...)
}

func (f *fakeClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return f.updateItemFn(ctx, params, optFns...)
}

func (f *fakeClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return f.deleteItemFn(ctx, params, optFns...)
}

func (f *fakeClient) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return f.scanFn(ctx, params, optFns...)
}

func newTestTask(t *testing.T) *domain.Task {
	t.Helper()
	task, err := domain.NewTask("Write spec", "first draft", "u1", nil)
	require.NoError(t, err)
	return task
}

func TestTaskItemRoundTrip(t *testing.T) {
	due := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	task, err := domain.NewTask("Write spec", "first draft", "u1", &due)
	require.NoError(t, err)
	task.Attachments = []string{"https://bucket.s3.eu-north-1.amazonaws.com/a.pdf"}

	got, err := toItem(task).toDomain()
	require.NoError(t, err)

	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, task.Title, got.Title)
	assert.Equal(t, task.Description, got.Description)
	assert.Equal(t, task.Status, got.Status)
	assert.Equal(t, task.UserID, got.UserID)
	assert.Equal(t, task.Attachments, got.Attachments)
	require.NotNil(t, got.DueDate)
	assert.True(t, got.DueDate.Equal(due))
	assert.True(t, got.CreatedAt.Equal(task.CreatedAt))
	assert.True(t, got.UpdatedAt.Equal(task.UpdatedAt))
}

func TestDynamoTaskStore_Insert(t *testing.T) {
	task := newTestTask(t)

	t.Run("puts conditional item", func(t *testing.T) {
		var captured *dynamodb.PutItemInput
		client := &fakeClient{
			putItemFn: func(ctx context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
				captured = params
				return &dynamodb.PutItemOutput{}, nil
			},
		}

		s := NewDynamoTaskStore(client, "Tasks")
		require.NoError(t, s.Insert(context.Background(), task))

		require.NotNil(t, captured)
		assert.Equal(t, "Tasks", *captured.TableName)
		assert.Equal(t, "attribute_not_exists(taskId)", *captured.ConditionExpression)
		idAttr, ok := captured.Item["taskId"].(*types.AttributeValueMemberS)
		require.True(t, ok)
		assert.Equal(t, task.ID.String(), idAttr.Value)
	})

	t.Run("duplicate ID maps to ErrDuplicate", func(t *testing.T) {
		client := &fakeClient{
			putItemFn: func(ctx context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
				return nil, &types.ConditionalCheckFailedException{}
			},
		}

		s := NewDynamoTaskStore(client, "Tasks")
		err := s.Insert(context.Background(), task)
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})
}

func TestDynamoTaskStore_GetByID(t *testing.T) {
	task := newTestTask(t)

	t.Run("found", func(t *testing.T) {
		item, err := attributevalue.MarshalMap(toItem(task))
		require.NoError(t, err)

		client := &fakeClient{
			getItemFn: func(ctx context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
				return &dynamodb.GetItemOutput{Item: item}, nil
			},
		}

		s := NewDynamoTaskStore(client, "Tasks")
		got, err := s.GetByID(context.Background(), task.ID)
		require.NoError(t, err)
		assert.Equal(t, task.ID, got.ID)
		assert.Equal(t, domain.TaskStatusPending, got.Status)
	})

	t.Run("missing item maps to ErrTaskNotFound", func(t *testing.T) {
		client := &fakeClient{
			getItemFn: func(ctx context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
				return &dynamodb.GetItemOutput{}, nil
			},
		}

		s := NewDynamoTaskStore(client, "Tasks")
		_, err := s.GetByID(context.Background(), uuid.New())
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

func TestDynamoTaskStore_UpdateFields(t *testing.T) {
	t.Run("expression sets only patched fields", func(t *testing.T) {
		var captured *dynamodb.UpdateItemInput
		client := &fakeClient{
			updateItemFn: func(ctx context.Context, params *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
				captured = params
				return &dynamodb.UpdateItemOutput{}, nil
			},
		}

		status := domain.TaskStatusCompleted
		patch := domain.TaskPatch{Status: &status, UpdatedAt: time.Now().UTC()}

		s := NewDynamoTaskStore(client, "Tasks")
		require.NoError(t, s.UpdateFields(context.Background(), uuid.New(), patch))

		require.NotNil(t, captured)
		update := *captured.UpdateExpression
		assert.Contains(t, update, "SET")
		// Two names set: updatedAt and status. Title must not appear.
		names := make([]string, 0, len(captured.ExpressionAttributeNames))
		for _, n := range captured.ExpressionAttributeNames {
			names = append(names, n)
		}
		assert.ElementsMatch(t, []string{"updatedAt", "status", "taskId"}, names)
	})

	t.Run("missing item maps to ErrTaskNotFound", func(t *testing.T) {
		client := &fakeClient{
			updateItemFn: func(ctx context.Context, params *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
				return nil, &types.ConditionalCheckFailedException{}
			},
		}

		s := NewDynamoTaskStore(client, "Tasks")
		err := s.UpdateFields(context.Background(), uuid.New(), domain.TaskPatch{UpdatedAt: time.Now().UTC()})
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

func TestDynamoTaskStore_Delete(t *testing.T) {
	t.Run("missing item maps to ErrTaskNotFound", func(t *testing.T) {
		client := &fakeClient{
			deleteItemFn: func(ctx context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
				return nil, &types.ConditionalCheckFailedException{}
			},
		}

		s := NewDynamoTaskStore(client, "Tasks")
		assert.ErrorIs(t, s.Delete(context.Background(), uuid.New()), store.ErrTaskNotFound)
	})

	t.Run("existing item deleted", func(t *testing.T) {
		var captured *dynamodb.DeleteItemInput
		client := &fakeClient{
			deleteItemFn: func(ctx context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
				captured = params
				return &dynamodb.DeleteItemOutput{}, nil
			},
		}

		id := uuid.New()
		s := NewDynamoTaskStore(client, "Tasks")
		require.NoError(t, s.Delete(context.Background(), id))

		require.NotNil(t, captured)
		assert.Equal(t, "attribute_exists(taskId)", *captured.ConditionExpression)
	})
}

func TestDynamoTaskStore_List(t *testing.T) {
	first := newTestTask(t)
	second := newTestTask(t)

	firstItem, err := attributevalue.MarshalMap(toItem(first))
	require.NoError(t, err)
	secondItem, err := attributevalue.MarshalMap(toItem(second))
	require.NoError(t, err)

	t.Run("follows pagination", func(t *testing.T) {
		calls := 0
		client := &fakeClient{
			scanFn: func(ctx context.Context, params *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
				calls++
				if calls == 1 {
					return &dynamodb.ScanOutput{
						Items:            []map[string]types.AttributeValue{firstItem},
						LastEvaluatedKey: map[string]types.AttributeValue{"taskId": &types.AttributeValueMemberS{Value: first.ID.String()}},
					}, nil
				}
				return &dynamodb.ScanOutput{Items: []map[string]types.AttributeValue{secondItem}}, nil
			},
		}

		s := NewDynamoTaskStore(client, "Tasks")
		tasks, err := s.List(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
		require.Len(t, tasks, 2)
	})

	t.Run("empty table yields empty slice", func(t *testing.T) {
		client := &fakeClient{
			scanFn: func(ctx context.Context, params *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
				return &dynamodb.ScanOutput{}, nil
			},
		}

		s := NewDynamoTaskStore(client, "Tasks")
		tasks, err := s.List(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, tasks)
		assert.Empty(t, tasks)
	})
}
