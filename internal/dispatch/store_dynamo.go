package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/contact-dispatch/pkg/logging"
)

const dynamoExpiresAttr = "expiresAt"

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoStore persists jobs to a DynamoDB table keyed by jobId. The table's
// TTL attribute must be expiresAt; reads also hide records past it since
// DynamoDB deletes lazily.
type DynamoStore struct {
	client    dynamoAPI
	tableName string
	ttl       time.Duration
	now       func() time.Time
	logger    *logging.Logger
}

var _ Store = (*DynamoStore)(nil)

func NewDynamoStore(client dynamoAPI, tableName string, ttl time.Duration, logger *logging.Logger) *DynamoStore {
	if client == nil {
		panic("dispatch: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("dispatch: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		ttl:       ttlOrDefault(ttl),
		now:       time.Now,
		logger:    logger,
	}
}

func (s *DynamoStore) Save(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("dispatch: job cannot be nil")
	}
	ctx, span := storeTracer.Start(ctx, "dispatch.jobstore.dynamodb.save")
	defer span.End()
	span.SetAttributes(attribute.String("dispatch.job_id", job.ID))

	item, err := attributevalue.MarshalMap(job)
	if err != nil {
		return fmt.Errorf("dispatch: failed to marshal job: %w", err)
	}
	item[dynamoExpiresAttr] = &types.AttributeValueMemberN{
		Value: strconv.FormatInt(s.now().Add(s.ttl).Unix(), 10),
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dynamodb put failed")
		return fmt.Errorf("dispatch: failed to persist job: %w", err)
	}
	return nil
}

func (s *DynamoStore) Get(ctx context.Context, jobID string) (*Job, error) {
	ctx, span := storeTracer.Start(ctx, "dispatch.jobstore.dynamodb.get")
	defer span.End()
	span.SetAttributes(attribute.String("dispatch.job_id", jobID))

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"jobId": &types.AttributeValueMemberS{Value: jobID},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dynamodb get failed")
		return nil, fmt.Errorf("dispatch: failed to fetch job: %w", err)
	}
	if out.Item == nil {
		return nil, ErrJobNotFound
	}
	if expired(out.Item, s.now()) {
		s.logger.Debug("dynamodb job past ttl", "job_id", jobID)
		return nil, ErrJobNotFound
	}
	var job Job
	if err := attributevalue.UnmarshalMap(out.Item, &job); err != nil {
		return nil, fmt.Errorf("dispatch: failed to decode job: %w", err)
	}
	return &job, nil
}

func expired(item map[string]types.AttributeValue, now time.Time) bool {
	attr, ok := item[dynamoExpiresAttr].(*types.AttributeValueMemberN)
	if !ok {
		return false
	}
	exp, err := strconv.ParseInt(attr.Value, 10, 64)
	if err != nil {
		return false
	}
	return exp <= now.Unix()
}
