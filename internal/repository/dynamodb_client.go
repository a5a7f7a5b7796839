package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"travel-agent/internal/domain"
)

const skTask = "TASK#"

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Client stores tasks in a single DynamoDB table keyed by PK/SK.
type Client struct {
	api       dynamodbAPI
	tableName string
}

var _ TaskStore = (*Client)(nil)

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

// taskPK returns the DynamoDB partition key for a task.
func taskPK(id string) string {
	return "TASK#" + id
}

// CreateTask writes a new task; it fails if the ID is already taken.
func (c *Client) CreateTask(ctx context.Context, task domain.Task) error {
	if task.ID == "" {
		return errors.New("repository: CreateTask: id is required")
	}
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                taskItem(task),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return fmt.Errorf("repository: CreateTask %q: %w", task.ID, ErrTaskExists)
		}
		return fmt.Errorf("repository: CreateTask: %w", err)
	}
	return nil
}

// UpdateTask replaces an existing task record.
func (c *Client) UpdateTask(ctx context.Context, task domain.Task) error {
	if task.ID == "" {
		return errors.New("repository: UpdateTask: id is required")
	}
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                taskItem(task),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return fmt.Errorf("repository: UpdateTask %q: %w", task.ID, ErrTaskNotFound)
		}
		return fmt.Errorf("repository: UpdateTask: %w", err)
	}
	return nil
}

// GetTask reads a task by ID with a consistent read.
func (c *Client) GetTask(ctx context.Context, id string) (domain.Task, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: taskPK(id)},
			"SK": &types.AttributeValueMemberS{Value: skTask},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.Task{}, fmt.Errorf("repository: GetTask get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.Task{}, ErrTaskNotFound
	}
	task, err := itemToTask(out.Item)
	if err != nil {
		return domain.Task{}, fmt.Errorf("repository: GetTask decode: %w", err)
	}
	return task, nil
}

func taskItem(t domain.Task) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: taskPK(t.ID)},
		"SK":        &types.AttributeValueMemberS{Value: skTask},
		"taskId":    &types.AttributeValueMemberS{Value: t.ID},
		"state":     &types.AttributeValueMemberS{Value: string(t.State)},
		"input":     &types.AttributeValueMemberS{Value: t.Input},
		"createdAt": &types.AttributeValueMemberS{Value: t.CreatedAt.UTC().Format(time.RFC3339Nano)},
		"updatedAt": &types.AttributeValueMemberS{Value: t.UpdatedAt.UTC().Format(time.RFC3339Nano)},
		"ttl":       &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", t.TTL)},
	}
	if t.Output != "" {
		item["output"] = &types.AttributeValueMemberS{Value: t.Output}
	}
	if t.Error != "" {
		item["error"] = &types.AttributeValueMemberS{Value: t.Error}
	}
	return item
}

// itemToTask converts a DynamoDB attribute map to a Task.
func itemToTask(item map[string]types.AttributeValue) (domain.Task, error) {
	id, err := strAttr(item, "taskId")
	if err != nil {
		return domain.Task{}, err
	}
	state, err := strAttr(item, "state")
	if err != nil {
		return domain.Task{}, err
	}
	input, _ := strAttr(item, "input")   // allow empty
	output, _ := strAttr(item, "output") // allow empty
	errText, _ := strAttr(item, "error") // allow empty

	created, err := timeAttr(item, "createdAt")
	if err != nil {
		return domain.Task{}, err
	}
	updated, err := timeAttr(item, "updatedAt")
	if err != nil {
		return domain.Task{}, err
	}
	ttl, _ := intAttr(item, "ttl")

	return domain.Task{
		ID:        id,
		State:     domain.TaskState(state),
		Input:     input,
		Output:    output,
		Error:     errText,
		CreatedAt: created,
		UpdatedAt: updated,
		TTL:       int64(ttl),
	}, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func timeAttr(item map[string]types.AttributeValue, key string) (time.Time, error) {
	s, err := strAttr(item, key)
	if err != nil {
		return time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return ts, nil
}

func intAttr(item map[string]types.AttributeValue, key string) (int, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
