package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/elektroprotokolle/pruefprotokoll/internal/domain"
)

// DynamoDBArchive mirrors committed protocols into a DynamoDB table keyed by
// protocolId.
type DynamoDBArchive struct {
	svc   *dynamodb.Client
	table string
}

func NewDynamoDBArchive(ctx context.Context, region, table string) (*DynamoDBArchive, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	return &DynamoDBArchive{
		svc:   dynamodb.NewFromConfig(cfg),
		table: table,
	}, nil
}

// protocolItem is the DynamoDB structure for one protocol. The summary
// attributes allow console queries; document holds the full record.
type protocolItem struct {
	ProtocolID   string `dynamodbav:"protocolId"`
	CreatedAt    string `dynamodbav:"createdAt"`
	UpdatedAt    string `dynamodbav:"updatedAt"`
	Anlage       string `dynamodbav:"anlage"`
	Auftraggeber string `dynamodbav:"auftraggeber"`
	Ergebnis     string `dynamodbav:"ergebnis"`
	Document     string `dynamodbav:"document"`
}

func newProtocolItem(p domain.Protocol) (protocolItem, error) {
	doc, err := json.Marshal(p)
	if err != nil {
		return protocolItem{}, fmt.Errorf("failed to marshal protocol: %w", err)
	}
	return protocolItem{
		ProtocolID:   p.ID(),
		CreatedAt:    p.CreatedAt().UTC().Format(time.RFC3339Nano),
		UpdatedAt:    p.UpdatedAt().UTC().Format(time.RFC3339Nano),
		Anlage:       p.Anlage(),
		Auftraggeber: p.Auftraggeber(),
		Ergebnis:     string(p.Ergebnis()),
		Document:     string(doc),
	}, nil
}

func (it protocolItem) protocol() (domain.Protocol, error) {
	if it.Document == "" {
		return domain.Protocol{}, errors.New("item has no document")
	}
	var p domain.Protocol
	if err := json.Unmarshal([]byte(it.Document), &p); err != nil {
		return domain.Protocol{}, fmt.Errorf("failed to decode protocol %s: %w", it.ProtocolID, err)
	}
	return p, nil
}

func (a *DynamoDBArchive) Save(ctx context.Context, p domain.Protocol) error {
	it, err := newProtocolItem(p)
	if err != nil {
		return err
	}
	item, err := attributevalue.MarshalMap(it)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	_, err = a.svc.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(a.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put item in DynamoDB: %w", err)
	}
	return nil
}

func (a *DynamoDBArchive) Delete(ctx context.Context, id string) error {
	_, err := a.svc.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(a.table),
		Key: map[string]types.AttributeValue{
			"protocolId": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete item from DynamoDB: %w", err)
	}
	return nil
}

// Load scans the table and returns every protocol, newest first.
func (a *DynamoDBArchive) Load(ctx context.Context) ([]domain.Protocol, error) {
	var out []domain.Protocol
	paginator := dynamodb.NewScanPaginator(a.svc, &dynamodb.ScanInput{
		TableName: aws.String(a.table),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan DynamoDB: %w", err)
		}

		var items []protocolItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items: %w", err)
		}
		for _, it := range items {
			p, err := it.protocol()
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
	}
	domain.SortNewestFirst(out)
	return out, nil
}
