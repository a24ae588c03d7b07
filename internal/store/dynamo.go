package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	logging "github.com/ipfs/go-log/v2"

	"github.com/flowgate/flowgate/internal/config"
	"github.com/flowgate/flowgate/internal/models"
	"github.com/flowgate/flowgate/internal/storage"
)

var log = logging.Logger("store/dynamo")

const requestTimeout = 5 * time.Second

// DynamoDB provides credential storage and run history via AWS DynamoDB
type DynamoDB struct {
	db                  *dynamodb.Client
	initialized         bool
	credentialTableName string
	runTableName        string
}

var _ storage.CredentialStore = (*DynamoDB)(nil)
var _ storage.RunArchive = (*DynamoDB)(nil)

// NewDynamoDBStore creates a new DynamoDB-backed store
func NewDynamoDBStore(config config.DynamoConfig) (*DynamoDB, error) {
	ctx := context.Background()

	// Use custom BaseEndpoint if endpoint is specified
	var opts []func(*awsconfig.LoadOptions) error
	if config.Endpoint != "" {
		opts = append(opts, awsconfig.WithBaseEndpoint(config.Endpoint))

		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID:     "dummy",
				SecretAccessKey: "dummy",
			},
		}))
	}

	if config.Region != "" {
		opts = append(opts, awsconfig.WithRegion(config.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	store := &DynamoDB{
		db:                  dynamodb.NewFromConfig(cfg),
		initialized:         false,
		credentialTableName: config.CredentialTableName,
		runTableName:        config.RunTableName,
	}

	return store, store.initialize(ctx, config)
}

// initialize creates tables if they don't exist. Tables are only created
// in developer mode (custom endpoint set); in production missing tables
// are a hard failure.
func (d *DynamoDB) initialize(ctx context.Context, cfg config.DynamoConfig) error {
	if d.initialized {
		return nil
	}

	tables := []struct {
		name       string
		keySchema  []types.KeySchemaElement
		attributes []types.AttributeDefinition
	}{
		{
			name: cfg.CredentialTableName,
			keySchema: []types.KeySchemaElement{
				{
					AttributeName: aws.String("id"),
					KeyType:       types.KeyTypeHash,
				},
			},
			attributes: []types.AttributeDefinition{
				{
					AttributeName: aws.String("id"),
					AttributeType: types.ScalarAttributeTypeS,
				},
			},
		},
		{
			name: cfg.RunTableName,
			keySchema: []types.KeySchemaElement{
				{
					AttributeName: aws.String("run_id"),
					KeyType:       types.KeyTypeHash,
				},
			},
			attributes: []types.AttributeDefinition{
				{
					AttributeName: aws.String("run_id"),
					AttributeType: types.ScalarAttributeTypeS,
				},
			},
		},
	}

	for _, table := range tables {
		_, err := d.db.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(table.name),
		})

		if err == nil {
			log.Infow("Table already exists", "table_name", table.name)
			continue
		} else if cfg.Endpoint == "" {
			return fmt.Errorf("failed to check if table %s exists: %w", table.name, err)
		} else {
			input := &dynamodb.CreateTableInput{
				TableName:            aws.String(table.name),
				KeySchema:            table.keySchema,
				AttributeDefinitions: table.attributes,
				BillingMode:          types.BillingModePayPerRequest,
			}

			_, err = d.db.CreateTable(ctx, input)
			if err != nil {
				return fmt.Errorf("failed to create table %s: %w", table.name, err)
			}
		}
	}

	d.initialized = true
	log.Infow("DynamoDB store initialized",
		"region", d.db.Options().Region,
		"endpoint", d.db.Options().BaseEndpoint)
	return nil
}

// CreateCredential stores an API key (implements storage.CredentialStore)
func (d *DynamoDB) CreateCredential(cred *models.Credential) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	item := map[string]types.AttributeValue{
		"id":         &types.AttributeValueMemberS{Value: cred.ID},
		"owner":      &types.AttributeValueMemberS{Value: cred.Owner},
		"name":       &types.AttributeValueMemberS{Value: cred.Name},
		"value":      &types.AttributeValueMemberS{Value: cred.Value},
		"created_at": &types.AttributeValueMemberS{Value: cred.CreatedAt.Format(time.RFC3339)},
	}

	_, err := d.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.credentialTableName),
		Item:      item,
	})
	if err != nil {
		log.Errorw("Error storing credential", "id", cred.ID, "owner", cred.Owner, "error", err)
		return fmt.Errorf("failed to store credential: %w", err)
	}

	return nil
}

// GetCredential retrieves an API key by ID (implements storage.CredentialStore)
func (d *DynamoDB) GetCredential(id string) (*models.Credential, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	result, err := d.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.credentialTableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get credential %s: %w", id, err)
	}
	if len(result.Item) == 0 {
		return nil, fmt.Errorf("%w: %s", storage.ErrCredentialNotFound, id)
	}

	return credentialFromItem(result.Item), nil
}

// ListCredentials lists API keys, optionally filtered by owner (implements
// storage.CredentialStore)
func (d *DynamoDB) ListCredentials(owner string) ([]*models.Credential, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	input := &dynamodb.ScanInput{
		TableName: aws.String(d.credentialTableName),
	}
	if owner != "" {
		input.FilterExpression = aws.String("#owner = :owner")
		input.ExpressionAttributeNames = map[string]string{"#owner": "owner"}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: owner},
		}
	}

	result, err := d.db.Scan(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}

	creds := make([]*models.Credential, 0, len(result.Items))
	for _, item := range result.Items {
		creds = append(creds, credentialFromItem(item))
	}

	return creds, nil
}

// DeleteCredential removes an API key (implements storage.CredentialStore)
func (d *DynamoDB) DeleteCredential(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	_, err := d.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.credentialTableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		log.Errorw("Error deleting credential", "id", id, "error", err)
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	return nil
}

// ArchiveRun persists a terminal workflow run for history (implements
// storage.RunArchive)
func (d *DynamoDB) ArchiveRun(run *models.WorkflowRun) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	log.Infow("Archiving run",
		"run_id", run.RunID,
		"status", run.Status)

	item := map[string]types.AttributeValue{
		"run_id": &types.AttributeValueMemberS{Value: run.RunID},
		"status": &types.AttributeValueMemberS{Value: run.Status},
	}

	if run.JobID != "" {
		item["job_id"] = &types.AttributeValueMemberS{Value: run.JobID}
	}
	if run.Endpoint != "" {
		item["endpoint"] = &types.AttributeValueMemberS{Value: run.Endpoint}
	}
	if run.Error != "" {
		item["error"] = &types.AttributeValueMemberS{Value: run.Error}
	}
	if run.Result != nil {
		// Results are opaque JSON; store the serialized form.
		data, err := json.Marshal(run.Result)
		if err != nil {
			return fmt.Errorf("failed to serialize run result: %w", err)
		}
		item["result"] = &types.AttributeValueMemberS{Value: string(data)}
	}

	item["created_at"] = &types.AttributeValueMemberS{Value: run.CreatedAt.Format(time.RFC3339)}
	item["updated_at"] = &types.AttributeValueMemberS{Value: run.UpdatedAt.Format(time.RFC3339)}

	_, err := d.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.runTableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to archive run: %w", err)
	}

	return nil
}

func credentialFromItem(item map[string]types.AttributeValue) *models.Credential {
	cred := &models.Credential{}

	if v, ok := item["id"].(*types.AttributeValueMemberS); ok {
		cred.ID = v.Value
	}
	if v, ok := item["owner"].(*types.AttributeValueMemberS); ok {
		cred.Owner = v.Value
	}
	if v, ok := item["name"].(*types.AttributeValueMemberS); ok {
		cred.Name = v.Value
	}
	if v, ok := item["value"].(*types.AttributeValueMemberS); ok {
		cred.Value = v.Value
	}
	if v, ok := item["created_at"].(*types.AttributeValueMemberS); ok {
		if ts, err := time.Parse(time.RFC3339, v.Value); err == nil {
			cred.CreatedAt = ts
		}
	}

	return cred
}
