package dynamodb

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsv2dynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsv2types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	awsv2xray "github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"github.com/aws/aws-xray-sdk-go/xray"
)

// API is the subset of the DynamoDB client used by the repositories.
type API interface {
	GetItem(ctx context.Context, in *awsv2dynamodb.GetItemInput, opts ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *awsv2dynamodb.PutItemInput, opts ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *awsv2dynamodb.UpdateItemInput, opts ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *awsv2dynamodb.DeleteItemInput, opts ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *awsv2dynamodb.QueryInput, opts ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *awsv2dynamodb.ScanInput, opts ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, in *awsv2dynamodb.TransactWriteItemsInput, opts ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.TransactWriteItemsOutput, error)
}

type Client struct {
	db        API
	tableName string
}

func NewClient(ctx context.Context, region, tableName string) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	awsv2xray.AWSV2Instrumentor(&cfg.APIOptions)
	client := awsv2dynamodb.NewFromConfig(cfg)
	return &Client{db: client, tableName: tableName}, nil
}

// NewClientWithAPI wraps an existing client, mainly for tests.
func NewClientWithAPI(api API, tableName string) *Client {
	return &Client{db: api, tableName: tableName}
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func userPK(userID int64) string           { return "USER#" + itoa(userID) }
func emailPK(email string) string          { return "EMAIL#" + email }
func franchisePK(franchiseID int64) string { return "FRANCHISE#" + itoa(franchiseID) }
func storePK(storeID int64) string         { return "STORE#" + itoa(storeID) }
func storeSK(storeID int64) string         { return "STORE#" + itoa(storeID) }
func orderPK(orderID int64) string         { return "ORDER#" + itoa(orderID) }
func orderSK(orderID int64) string         { return "ORDER#" + itoa(orderID) }
func menuSK(itemID int64) string           { return "ITEM#" + itoa(itemID) }
func tokenPK(token string) string          { return "TOKEN#" + token }
func metaSK() string                       { return "META" }

const (
	menuPK    = "MENU"
	counterPK = "COUNTER"
)

func key(pk, sk string) map[string]awsv2types.AttributeValue {
	return map[string]awsv2types.AttributeValue{
		"PK": &awsv2types.AttributeValueMemberS{Value: pk},
		"SK": &awsv2types.AttributeValueMemberS{Value: sk},
	}
}

func isConditionalCheckFailure(err error) bool {
	var condErr *awsv2types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}

func isTransactionCanceled(err error) bool {
	var txErr *awsv2types.TransactionCanceledException
	return errors.As(err, &txErr)
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// nextID atomically increments the counter for entity and returns the new value.
func (c *Client) nextID(ctx context.Context, entity string) (int64, error) {
	var out *awsv2dynamodb.UpdateItemOutput
	err := xray.Capture(ctx, "DynamoDB.NextID", func(ctx context.Context) error {
		var e error
		out, e = c.db.UpdateItem(ctx, &awsv2dynamodb.UpdateItemInput{
			TableName:                aws.String(c.tableName),
			Key:                      key(counterPK, entity),
			UpdateExpression:         aws.String("ADD #v :one"),
			ExpressionAttributeNames: map[string]string{"#v": "Value"},
			ExpressionAttributeValues: map[string]awsv2types.AttributeValue{
				":one": &awsv2types.AttributeValueMemberN{Value: "1"},
			},
			ReturnValues: awsv2types.ReturnValueUpdatedNew,
		})
		return e
	})
	if err != nil {
		return 0, err
	}
	var next int64
	if err := attributevalue.Unmarshal(out.Attributes["Value"], &next); err != nil {
		return 0, err
	}
	return next, nil
}

func (c *Client) getItem(ctx context.Context, segment, pk, sk string, out any) (bool, error) {
	var res *awsv2dynamodb.GetItemOutput
	err := xray.Capture(ctx, segment, func(ctx context.Context) error {
		var e error
		res, e = c.db.GetItem(ctx, &awsv2dynamodb.GetItemInput{
			TableName:      aws.String(c.tableName),
			Key:            key(pk, sk),
			ConsistentRead: aws.Bool(true),
		})
		return e
	})
	if err != nil {
		return false, err
	}
	if res.Item == nil {
		return false, nil
	}
	return true, attributevalue.UnmarshalMap(res.Item, out)
}

func (c *Client) putNew(ctx context.Context, segment string, record any) error {
	av, err := attributevalue.MarshalMap(record)
	if err != nil {
		return err
	}
	return xray.Capture(ctx, segment, func(ctx context.Context) error {
		_, err := c.db.PutItem(ctx, &awsv2dynamodb.PutItemInput{
			TableName:           aws.String(c.tableName),
			Item:                av,
			ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
		})
		return err
	})
}

func (c *Client) query(ctx context.Context, segment string, in *awsv2dynamodb.QueryInput) ([]map[string]awsv2types.AttributeValue, error) {
	in.TableName = aws.String(c.tableName)
	var items []map[string]awsv2types.AttributeValue
	err := xray.Capture(ctx, segment, func(ctx context.Context) error {
		p := awsv2dynamodb.NewQueryPaginator(c.db, in)
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				return err
			}
			items = append(items, page.Items...)
		}
		return nil
	})
	return items, err
}

func (c *Client) scan(ctx context.Context, segment string, in *awsv2dynamodb.ScanInput) ([]map[string]awsv2types.AttributeValue, error) {
	in.TableName = aws.String(c.tableName)
	var items []map[string]awsv2types.AttributeValue
	err := xray.Capture(ctx, segment, func(ctx context.Context) error {
		p := awsv2dynamodb.NewScanPaginator(c.db, in)
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				return err
			}
			items = append(items, page.Items...)
		}
		return nil
	})
	return items, err
}

func (c *Client) transact(ctx context.Context, segment string, items []awsv2types.TransactWriteItem) error {
	return xray.Capture(ctx, segment, func(ctx context.Context) error {
		_, err := c.db.TransactWriteItems(ctx, &awsv2dynamodb.TransactWriteItemsInput{TransactItems: items})
		return err
	})
}

func (c *Client) putTx(record any, condition string) (awsv2types.TransactWriteItem, error) {
	av, err := attributevalue.MarshalMap(record)
	if err != nil {
		return awsv2types.TransactWriteItem{}, err
	}
	put := &awsv2types.Put{TableName: aws.String(c.tableName), Item: av}
	if condition != "" {
		put.ConditionExpression = aws.String(condition)
	}
	return awsv2types.TransactWriteItem{Put: put}, nil
}

func (c *Client) deleteTx(pk, sk string) awsv2types.TransactWriteItem {
	return awsv2types.TransactWriteItem{Delete: &awsv2types.Delete{
		TableName: aws.String(c.tableName),
		Key:       key(pk, sk),
	}}
}
