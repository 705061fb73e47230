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

// Orders live under the diner's partition (USER#<uid> / ORDER#<oid>) so a
// diner's history is one query. ORDER#<oid> / META points back at the owner.

type orderItemRecord struct {
	MenuID      int64   `dynamodbav:"MenuID"`
	Description string  `dynamodbav:"Description"`
	Price       float64 `dynamodbav:"Price"`
}

type orderRecord struct {
	PK          string            `dynamodbav:"PK"`
	SK          string            `dynamodbav:"SK"`
	EntityType  string            `dynamodbav:"EntityType"`
	ID          int64             `dynamodbav:"ID"`
	DinerID     int64             `dynamodbav:"DinerID"`
	FranchiseID int64             `dynamodbav:"FranchiseID"`
	StoreID     int64             `dynamodbav:"StoreID"`
	Items       []orderItemRecord `dynamodbav:"Items"`
	CreatedAt   string            `dynamodbav:"CreatedAt"`
}

type orderRefRecord struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	DinerID    int64  `dynamodbav:"DinerID"`
}

func (r orderRecord) toDomain() domain.Order {
	items := make([]domain.OrderItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, domain.OrderItem{MenuID: it.MenuID, Description: it.Description, Price: it.Price})
	}
	return domain.Order{
		ID:          r.ID,
		DinerID:     r.DinerID,
		FranchiseID: r.FranchiseID,
		StoreID:     r.StoreID,
		Items:       items,
		CreatedAt:   parseTime(r.CreatedAt),
	}
}

type OrderRepository struct{ client *Client }

func NewOrderRepository(client *Client) *OrderRepository {
	return &OrderRepository{client: client}
}

func (r *OrderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	next, err := r.client.nextID(ctx, "ORDER")
	if err != nil {
		return domain.Order{}, err
	}
	order.ID = next
	items := make([]orderItemRecord, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, orderItemRecord{MenuID: it.MenuID, Description: it.Description, Price: it.Price})
	}
	full, err := r.client.putTx(orderRecord{
		PK:          userPK(order.DinerID),
		SK:          orderSK(order.ID),
		EntityType:  "ORDER",
		ID:          order.ID,
		DinerID:     order.DinerID,
		FranchiseID: order.FranchiseID,
		StoreID:     order.StoreID,
		Items:       items,
		CreatedAt:   formatTime(order.CreatedAt),
	}, "attribute_not_exists(PK)")
	if err != nil {
		return domain.Order{}, err
	}
	ref, err := r.client.putTx(orderRefRecord{
		PK:         orderPK(order.ID),
		SK:         metaSK(),
		EntityType: "ORDER_REF",
		DinerID:    order.DinerID,
	}, "attribute_not_exists(PK)")
	if err != nil {
		return domain.Order{}, err
	}
	if err := r.client.transact(ctx, "DynamoDB.CreateOrder", []awsv2types.TransactWriteItem{full, ref}); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, orderID int64) (domain.Order, error) {
	var ref orderRefRecord
	found, err := r.client.getItem(ctx, "DynamoDB.GetOrderRef", orderPK(orderID), metaSK(), &ref)
	if err != nil {
		return domain.Order{}, err
	}
	if !found {
		return domain.Order{}, domain.ErrNotFound
	}
	var raw orderRecord
	found, err = r.client.getItem(ctx, "DynamoDB.GetOrder", userPK(ref.DinerID), orderSK(orderID), &raw)
	if err != nil {
		return domain.Order{}, err
	}
	if !found {
		return domain.Order{}, domain.ErrNotFound
	}
	return raw.toDomain(), nil
}

func (r *OrderRepository) ListByDiner(ctx context.Context, dinerID int64) ([]domain.Order, error) {
	items, err := r.client.query(ctx, "DynamoDB.QueryOrders", &awsv2dynamodb.QueryInput{
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]awsv2types.AttributeValue{
			":pk": &awsv2types.AttributeValueMemberS{Value: userPK(dinerID)},
			":sk": &awsv2types.AttributeValueMemberS{Value: "ORDER#"},
		},
	})
	if err != nil {
		return nil, err
	}
	orders := make([]domain.Order, 0, len(items))
	for _, item := range items {
		var raw orderRecord
		if err := attributevalue.UnmarshalMap(item, &raw); err != nil {
			return nil, err
		}
		orders = append(orders, raw.toDomain())
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}
