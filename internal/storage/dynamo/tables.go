package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const tableWait = 2 * time.Minute

// EnsureTables creates missing tables and their secondary indexes. Meant for
// DynamoDB Local and fresh environments; existing tables are left untouched.
func (s *Storage) EnsureTables(ctx context.Context) error {
	for _, in := range s.tableDefinitions() {
		if err := s.ensureTable(ctx, in); err != nil {
			return fmt.Errorf("ensure table %s: %w", aws.ToString(in.TableName), err)
		}
	}
	return nil
}

func (s *Storage) ensureTable(ctx context.Context, in *dynamodb.CreateTableInput) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: in.TableName})
	if err == nil {
		return nil
	}
	var nf *types.ResourceNotFoundException
	if !errors.As(err, &nf) {
		return err
	}

	if _, err := s.client.CreateTable(ctx, in); err != nil {
		return err
	}

	return dynamodb.NewTableExistsWaiter(s.client).Wait(ctx,
		&dynamodb.DescribeTableInput{TableName: in.TableName}, tableWait)
}

func (s *Storage) tableDefinitions() []*dynamodb.CreateTableInput {
	return []*dynamodb.CreateTableInput{
		newTable(s.tables.Users, []string{"email"},
			emailGSI(emailIndex, "")),
		newTable(s.tables.Registrations, []string{"email"},
			emailGSI(emailIndex, "")),
		newTable(s.tables.Progress, []string{"email", "materialId"},
			emailGSI(emailMaterialIndex, "materialId")),
		newTable(s.tables.Materials, nil),
	}
}

func newTable(name string, indexed []string, gsis ...types.GlobalSecondaryIndex) *dynamodb.CreateTableInput {
	attrs := []types.AttributeDefinition{
		{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
	}
	for _, a := range indexed {
		attrs = append(attrs, types.AttributeDefinition{
			AttributeName: aws.String(a),
			AttributeType: types.ScalarAttributeTypeS,
		})
	}

	in := &dynamodb.CreateTableInput{
		TableName:            aws.String(name),
		AttributeDefinitions: attrs,
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	}
	if len(gsis) > 0 {
		in.GlobalSecondaryIndexes = gsis
	}
	return in
}

func emailGSI(name, rangeKey string) types.GlobalSecondaryIndex {
	keys := []types.KeySchemaElement{
		{AttributeName: aws.String("email"), KeyType: types.KeyTypeHash},
	}
	if rangeKey != "" {
		keys = append(keys, types.KeySchemaElement{
			AttributeName: aws.String(rangeKey),
			KeyType:       types.KeyTypeRange,
		})
	}
	return types.GlobalSecondaryIndex{
		IndexName:  aws.String(name),
		KeySchema:  keys,
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
}
