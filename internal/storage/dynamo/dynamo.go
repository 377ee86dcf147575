package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"learnhub/internal/storage"
)

const (
	emailIndex         = "email-index"
	emailMaterialIndex = "email-materialId-index"
)

// Tables names the table behind each collection.
type Tables struct {
	Users         string
	Registrations string
	Progress      string
	Materials     string
}

// Storage implements storage.Store on DynamoDB.
type Storage struct {
	client *dynamodb.Client
	tables Tables
}

var _ storage.Store = (*Storage)(nil)

// New builds a client from the default AWS credential chain. A non-empty
// endpoint points it at DynamoDB Local or another compatible service.
func New(ctx context.Context, region, endpoint string, tables Tables) (*Storage, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return &Storage{client: client, tables: tables}, nil
}

func (s *Storage) table(c storage.Collection) (string, error) {
	switch c {
	case storage.Users:
		return s.tables.Users, nil
	case storage.Registrations:
		return s.tables.Registrations, nil
	case storage.Progress:
		return s.tables.Progress, nil
	case storage.Materials:
		return s.tables.Materials, nil
	}
	return "", fmt.Errorf("dynamo: unknown collection %q", c)
}

func (s *Storage) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.tables.Users),
	})
	return err
}

func (s *Storage) Close(context.Context) error { return nil }

// RemoveAttribute scans the collection for records carrying the attribute
// and removes it item by item.
func (s *Storage) RemoveAttribute(ctx context.Context, c storage.Collection, attribute string) (int, error) {
	if attribute == "" || attribute == "id" {
		return 0, fmt.Errorf("dynamo: cannot remove %q", attribute)
	}
	table, err := s.table(c)
	if err != nil {
		return 0, err
	}

	expr, err := expression.NewBuilder().
		WithFilter(expression.AttributeExists(expression.Name(attribute))).
		WithProjection(expression.NamesList(expression.Name("id"))).
		Build()
	if err != nil {
		return 0, err
	}

	type key struct {
		ID string `dynamodbav:"id"`
	}
	keys, err := scanAll[key](ctx, s.client, &dynamodb.ScanInput{
		TableName:                 aws.String(table),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, k := range keys {
		err := s.update(ctx, table, k.ID, expression.Remove(expression.Name(attribute)))
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

// getItem reads one item with a strongly consistent read.
func (s *Storage) getItem(ctx context.Context, table, id string, out any) error {
	res, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return err
	}
	if res.Item == nil {
		return storage.ErrNotFound
	}
	return attributevalue.UnmarshalMap(res.Item, out)
}

// putNew writes an item only if no item with the same id exists.
func (s *Storage) putNew(ctx context.Context, table string, in any) error {
	item, err := attributevalue.MarshalMap(in)
	if err != nil {
		return err
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("id"))).
		Build()
	if err != nil {
		return err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(table),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if isConditionFailed(err) {
		return storage.ErrConflict
	}
	return err
}

// update applies upd to an existing item; it never creates one.
func (s *Storage) update(ctx context.Context, table, id string, upd expression.UpdateBuilder) error {
	expr, err := expression.NewBuilder().
		WithUpdate(upd).
		WithCondition(expression.AttributeExists(expression.Name("id"))).
		Build()
	if err != nil {
		return err
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       idKey(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if isConditionFailed(err) {
		return storage.ErrNotFound
	}
	return err
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

func scanAll[T any](ctx context.Context, client *dynamodb.Client, in *dynamodb.ScanInput) ([]T, error) {
	var out []T
	p := dynamodb.NewScanPaginator(client, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []T
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

func queryAll[T any](ctx context.Context, client *dynamodb.Client, in *dynamodb.QueryInput) ([]T, error) {
	var out []T
	p := dynamodb.NewQueryPaginator(client, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []T
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

// queryByEmail reads every item of an email-keyed index under each stored
// form of the email, optionally narrowed by a sort key condition and a filter.
func queryByEmail[T any](ctx context.Context, client *dynamodb.Client, table, index, email string, sortKey *expression.KeyConditionBuilder, filter *expression.ConditionBuilder) ([]T, error) {
	var out []T
	for _, key := range storage.EmailKeys(email) {
		kc := expression.Key("email").Equal(expression.Value(key))
		if sortKey != nil {
			kc = kc.And(*sortKey)
		}
		b := expression.NewBuilder().WithKeyCondition(kc)
		if filter != nil {
			b = b.WithFilter(*filter)
		}
		expr, err := b.Build()
		if err != nil {
			return nil, err
		}

		items, err := queryAll[T](ctx, client, &dynamodb.QueryInput{
			TableName:                 aws.String(table),
			IndexName:                 aws.String(index),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	return out, nil
}
