package dynamodb

import (
	"context"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsv2dynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsv2types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"pizza-authz/internal/domain"
)

type menuRecord struct {
	PK          string  `dynamodbav:"PK"`
	SK          string  `dynamodbav:"SK"`
	EntityType  string  `dynamodbav:"EntityType"`
	ID          int64   `dynamodbav:"ID"`
	Title       string  `dynamodbav:"Title"`
	Description string  `dynamodbav:"Description"`
	Image       string  `dynamodbav:"Image"`
	Price       float64 `dynamodbav:"Price"`
}

type MenuRepository struct{ client *Client }

func NewMenuRepository(client *Client) *MenuRepository {
	return &MenuRepository{client: client}
}

func (r *MenuRepository) Add(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error) {
	next, err := r.client.nextID(ctx, "MENU")
	if err != nil {
		return domain.MenuItem{}, err
	}
	item.ID = next
	err = r.client.putNew(ctx, "DynamoDB.PutMenuItem", menuRecord{
		PK:          menuPK,
		SK:          menuSK(item.ID),
		EntityType:  "MENU_ITEM",
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		Image:       item.Image,
		Price:       item.Price,
	})
	if isConditionalCheckFailure(err) {
		return domain.MenuItem{}, domain.ErrConflict
	}
	if err != nil {
		return domain.MenuItem{}, err
	}
	return item, nil
}

func (r *MenuRepository) List(ctx context.Context) ([]domain.MenuItem, error) {
	items, err := r.client.query(ctx, "DynamoDB.QueryMenu", &awsv2dynamodb.QueryInput{
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]awsv2types.AttributeValue{
			":pk": &awsv2types.AttributeValueMemberS{Value: menuPK},
			":sk": &awsv2types.AttributeValueMemberS{Value: "ITEM#"},
		},
	})
	if err != nil {
		return nil, err
	}
	menu := make([]domain.MenuItem, 0, len(items))
	for _, item := range items {
		var raw menuRecord
		if err := attributevalue.UnmarshalMap(item, &raw); err != nil {
			return nil, err
		}
		menu = append(menu, domain.MenuItem{ID: raw.ID, Title: raw.Title, Description: raw.Description, Image: raw.Image, Price: raw.Price})
	}
	sort.Slice(menu, func(i, j int) bool { return menu[i].ID < menu[j].ID })
	return menu, nil
}
