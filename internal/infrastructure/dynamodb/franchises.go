package dynamodb

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsv2dynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsv2types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"pizza-authz/internal/domain"
)

// Franchise partition layout:
//
//	FRANCHISE#<id> / META          franchise
//	FRANCHISE#<id> / STORE#<sid>   store
//	STORE#<sid>    / META          store pointer, answers "which franchise owns this store"

type franchiseRecord struct {
	PK         string  `dynamodbav:"PK"`
	SK         string  `dynamodbav:"SK"`
	EntityType string  `dynamodbav:"EntityType"`
	ID         int64   `dynamodbav:"ID"`
	Name       string  `dynamodbav:"Name"`
	AdminIDs   []int64 `dynamodbav:"AdminIDs"`
	CreatedAt  string  `dynamodbav:"CreatedAt"`
}

type storeRecord struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	EntityType  string `dynamodbav:"EntityType"`
	ID          int64  `dynamodbav:"ID"`
	FranchiseID int64  `dynamodbav:"FranchiseID"`
	Name        string `dynamodbav:"Name"`
	CreatedAt   string `dynamodbav:"CreatedAt"`
}

func (r storeRecord) toDomain() domain.Store {
	return domain.Store{ID: r.ID, FranchiseID: r.FranchiseID, Name: r.Name, CreatedAt: parseTime(r.CreatedAt)}
}

type FranchiseRepository struct{ client *Client }

func NewFranchiseRepository(client *Client) *FranchiseRepository {
	return &FranchiseRepository{client: client}
}

func (r *FranchiseRepository) Create(ctx context.Context, franchise domain.Franchise) (domain.Franchise, error) {
	next, err := r.client.nextID(ctx, "FRANCHISE")
	if err != nil {
		return domain.Franchise{}, err
	}
	franchise.ID = next
	franchise.Stores = []domain.Store{}
	err = r.client.putNew(ctx, "DynamoDB.PutFranchise", franchiseRecord{
		PK:         franchisePK(franchise.ID),
		SK:         metaSK(),
		EntityType: "FRANCHISE",
		ID:         franchise.ID,
		Name:       franchise.Name,
		AdminIDs:   franchise.AdminIDs,
		CreatedAt:  formatTime(franchise.CreatedAt),
	})
	if isConditionalCheckFailure(err) {
		return domain.Franchise{}, domain.ErrConflict
	}
	if err != nil {
		return domain.Franchise{}, err
	}
	return franchise, nil
}

func (r *FranchiseRepository) GetByID(ctx context.Context, franchiseID int64) (domain.Franchise, error) {
	items, err := r.client.query(ctx, "DynamoDB.QueryFranchise", &awsv2dynamodb.QueryInput{
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]awsv2types.AttributeValue{
			":pk": &awsv2types.AttributeValueMemberS{Value: franchisePK(franchiseID)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.Franchise{}, err
	}
	franchises, err := assembleFranchises(items)
	if err != nil {
		return domain.Franchise{}, err
	}
	if len(franchises) == 0 {
		return domain.Franchise{}, domain.ErrNotFound
	}
	return franchises[0], nil
}

func (r *FranchiseRepository) Delete(ctx context.Context, franchiseID int64) error {
	franchise, err := r.GetByID(ctx, franchiseID)
	if err != nil {
		return err
	}
	items := []awsv2types.TransactWriteItem{r.client.deleteTx(franchisePK(franchiseID), metaSK())}
	for _, s := range franchise.Stores {
		items = append(items,
			r.client.deleteTx(franchisePK(franchiseID), storeSK(s.ID)),
			r.client.deleteTx(storePK(s.ID), metaSK()),
		)
	}
	return r.client.transact(ctx, "DynamoDB.DeleteFranchise", items)
}

func (r *FranchiseRepository) List(ctx context.Context) ([]domain.Franchise, error) {
	items, err := r.client.scan(ctx, "DynamoDB.ScanFranchises", &awsv2dynamodb.ScanInput{
		FilterExpression: aws.String("begins_with(PK, :p)"),
		ExpressionAttributeValues: map[string]awsv2types.AttributeValue{
			":p": &awsv2types.AttributeValueMemberS{Value: "FRANCHISE#"},
		},
	})
	if err != nil {
		return nil, err
	}
	return assembleFranchises(items)
}

func (r *FranchiseRepository) ListByAdmin(ctx context.Context, userID int64) ([]domain.Franchise, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Franchise, 0, len(all))
	for _, f := range all {
		if slices.Contains(f.AdminIDs, userID) {
			out = append(out, f)
		}
	}
	return out, nil
}

// CreateStore fails with ErrNotFound when the parent franchise is missing.
func (r *FranchiseRepository) CreateStore(ctx context.Context, store domain.Store) (domain.Store, error) {
	next, err := r.client.nextID(ctx, "STORE")
	if err != nil {
		return domain.Store{}, err
	}
	store.ID = next
	rec := storeRecord{
		PK:          franchisePK(store.FranchiseID),
		SK:          storeSK(store.ID),
		EntityType:  "STORE",
		ID:          store.ID,
		FranchiseID: store.FranchiseID,
		Name:        store.Name,
		CreatedAt:   formatTime(store.CreatedAt),
	}
	inFranchise, err := r.client.putTx(rec, "")
	if err != nil {
		return domain.Store{}, err
	}
	rec.PK, rec.SK, rec.EntityType = storePK(store.ID), metaSK(), "STORE_REF"
	pointer, err := r.client.putTx(rec, "attribute_not_exists(PK)")
	if err != nil {
		return domain.Store{}, err
	}
	parentExists := awsv2types.TransactWriteItem{ConditionCheck: &awsv2types.ConditionCheck{
		TableName:           aws.String(r.client.tableName),
		Key:                 key(franchisePK(store.FranchiseID), metaSK()),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	}}
	err = r.client.transact(ctx, "DynamoDB.CreateStore", []awsv2types.TransactWriteItem{parentExists, inFranchise, pointer})
	if isTransactionCanceled(err) {
		return domain.Store{}, fmt.Errorf("franchise %d: %w", store.FranchiseID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Store{}, err
	}
	return store, nil
}

func (r *FranchiseRepository) GetStore(ctx context.Context, storeID int64) (domain.Store, error) {
	var raw storeRecord
	found, err := r.client.getItem(ctx, "DynamoDB.GetStore", storePK(storeID), metaSK(), &raw)
	if err != nil {
		return domain.Store{}, err
	}
	if !found {
		return domain.Store{}, domain.ErrNotFound
	}
	return raw.toDomain(), nil
}

func (r *FranchiseRepository) DeleteStore(ctx context.Context, storeID int64) error {
	store, err := r.GetStore(ctx, storeID)
	if err != nil {
		return err
	}
	return r.client.transact(ctx, "DynamoDB.DeleteStore", []awsv2types.TransactWriteItem{
		r.client.deleteTx(franchisePK(store.FranchiseID), storeSK(storeID)),
		r.client.deleteTx(storePK(storeID), metaSK()),
	})
}

func assembleFranchises(items []map[string]awsv2types.AttributeValue) ([]domain.Franchise, error) {
	byID := map[int64]*domain.Franchise{}
	var stores []domain.Store
	for _, item := range items {
		var head struct {
			EntityType string `dynamodbav:"EntityType"`
		}
		if err := attributevalue.UnmarshalMap(item, &head); err != nil {
			return nil, err
		}
		switch head.EntityType {
		case "FRANCHISE":
			var raw franchiseRecord
			if err := attributevalue.UnmarshalMap(item, &raw); err != nil {
				return nil, err
			}
			byID[raw.ID] = &domain.Franchise{
				ID:        raw.ID,
				Name:      raw.Name,
				AdminIDs:  raw.AdminIDs,
				Stores:    []domain.Store{},
				CreatedAt: parseTime(raw.CreatedAt),
			}
		case "STORE":
			var raw storeRecord
			if err := attributevalue.UnmarshalMap(item, &raw); err != nil {
				return nil, err
			}
			stores = append(stores, raw.toDomain())
		}
	}
	for _, s := range stores {
		if f, ok := byID[s.FranchiseID]; ok {
			f.Stores = append(f.Stores, s)
		}
	}
	out := make([]domain.Franchise, 0, len(byID))
	for _, f := range byID {
		sort.Slice(f.Stores, func(i, j int) bool { return f.Stores[i].ID < f.Stores[j].ID })
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
