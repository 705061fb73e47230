package dynamodb

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsv2dynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsv2types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"pizza-authz/internal/domain"
)

type apiMock struct{ mock.Mock }

func (m *apiMock) GetItem(ctx context.Context, in *awsv2dynamodb.GetItemInput, _ ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(*awsv2dynamodb.GetItemOutput), args.Error(1)
}

func (m *apiMock) PutItem(ctx context.Context, in *awsv2dynamodb.PutItemInput, _ ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(*awsv2dynamodb.PutItemOutput), args.Error(1)
}

func (m *apiMock) UpdateItem(ctx context.Context, in *awsv2dynamodb.UpdateItemInput, _ ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(*awsv2dynamodb.UpdateItemOutput), args.Error(1)
}

func (m *apiMock) DeleteItem(ctx context.Context, in *awsv2dynamodb.DeleteItemInput, _ ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(*awsv2dynamodb.DeleteItemOutput), args.Error(1)
}

func (m *apiMock) Query(ctx context.Context, in *awsv2dynamodb.QueryInput, _ ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.QueryOutput, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(*awsv2dynamodb.QueryOutput), args.Error(1)
}

func (m *apiMock) Scan(ctx context.Context, in *awsv2dynamodb.ScanInput, _ ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.ScanOutput, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(*awsv2dynamodb.ScanOutput), args.Error(1)
}

func (m *apiMock) TransactWriteItems(ctx context.Context, in *awsv2dynamodb.TransactWriteItemsInput, _ ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.TransactWriteItemsOutput, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(*awsv2dynamodb.TransactWriteItemsOutput), args.Error(1)
}

func tracedContext(t *testing.T) context.Context {
	t.Helper()
	ctx, seg := xray.BeginSegment(context.Background(), "dynamodb-test")
	t.Cleanup(func() { seg.Close(nil) })
	return ctx
}

func keyIs(pk, sk string) func(map[string]awsv2types.AttributeValue) bool {
	return func(k map[string]awsv2types.AttributeValue) bool {
		gotPK, ok1 := k["PK"].(*awsv2types.AttributeValueMemberS)
		gotSK, ok2 := k["SK"].(*awsv2types.AttributeValueMemberS)
		return ok1 && ok2 && gotPK.Value == pk && gotSK.Value == sk
	}
}

func marshal(t *testing.T, v any) map[string]awsv2types.AttributeValue {
	t.Helper()
	av, err := attributevalue.MarshalMap(v)
	require.NoError(t, err)
	return av
}

func TestRevocationStore_Lifecycle(t *testing.T) {
	ctx := tracedContext(t)
	api := new(apiMock)
	store := NewRevocationStore(NewClientWithAPI(api, "pizza"))
	exp := time.Now().Add(time.Hour)

	api.On("PutItem", mock.Anything, mock.MatchedBy(func(in *awsv2dynamodb.PutItemInput) bool {
		return *in.TableName == "pizza" && keyIs("TOKEN#tok", "META")(in.Item) && in.ConditionExpression != nil
	})).Return(&awsv2dynamodb.PutItemOutput{}, nil).Once()
	require.NoError(t, store.Register(ctx, "tok", exp))

	api.On("GetItem", mock.Anything, mock.MatchedBy(func(in *awsv2dynamodb.GetItemInput) bool {
		return keyIs("TOKEN#tok", "META")(in.Key) && *in.ConsistentRead
	})).Return(&awsv2dynamodb.GetItemOutput{Item: marshal(t, sessionRecord{
		PK: "TOKEN#tok", SK: "META", EntityType: "SESSION", ExpiresAt: exp.Unix(),
	})}, nil).Once()
	active, err := store.IsActive(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, active)

	api.On("DeleteItem", mock.Anything, mock.MatchedBy(func(in *awsv2dynamodb.DeleteItemInput) bool {
		return keyIs("TOKEN#tok", "META")(in.Key)
	})).Return(&awsv2dynamodb.DeleteItemOutput{}, nil).Twice()
	require.NoError(t, store.Revoke(ctx, "tok"))
	require.NoError(t, store.Revoke(ctx, "tok"))

	api.On("GetItem", mock.Anything, mock.Anything).Return(&awsv2dynamodb.GetItemOutput{}, nil).Once()
	active, err = store.IsActive(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, active)
	api.AssertExpectations(t)
}

func TestRevocationStore_ExpiredItemIsInactive(t *testing.T) {
	ctx := tracedContext(t)
	api := new(apiMock)
	store := NewRevocationStore(NewClientWithAPI(api, "pizza"))

	api.On("GetItem", mock.Anything, mock.Anything).Return(&awsv2dynamodb.GetItemOutput{Item: marshal(t, sessionRecord{
		PK: "TOKEN#tok", SK: "META", EntityType: "SESSION", ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	})}, nil)

	active, err := store.IsActive(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestRevocationStore_DuplicateRegisterIsNotAnError(t *testing.T) {
	ctx := tracedContext(t)
	api := new(apiMock)
	store := NewRevocationStore(NewClientWithAPI(api, "pizza"))
	api.On("PutItem", mock.Anything, mock.Anything).
		Return((*awsv2dynamodb.PutItemOutput)(nil), &awsv2types.ConditionalCheckFailedException{})

	assert.NoError(t, store.Register(ctx, "tok", time.Now().Add(time.Hour)))
}

func TestUserRepository_CreateAssignsIDAndNormalizesEmail(t *testing.T) {
	ctx := tracedContext(t)
	api := new(apiMock)
	repo := NewUserRepository(NewClientWithAPI(api, "pizza"))

	api.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *awsv2dynamodb.UpdateItemInput) bool {
		return keyIs("COUNTER", "USER")(in.Key)
	})).Return(&awsv2dynamodb.UpdateItemOutput{Attributes: map[string]awsv2types.AttributeValue{
		"Value": &awsv2types.AttributeValueMemberN{Value: "7"},
	}}, nil)
	api.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *awsv2dynamodb.TransactWriteItemsInput) bool {
		return len(in.TransactItems) == 2 &&
			keyIs("USER#7", "META")(in.TransactItems[0].Put.Item) &&
			keyIs("EMAIL#amy@pizza.test", "META")(in.TransactItems[1].Put.Item)
	})).Return(&awsv2dynamodb.TransactWriteItemsOutput{}, nil)

	user, err := repo.Create(ctx, domain.User{Name: "Amy", Email: " Amy@Pizza.test ", Roles: []domain.Role{domain.DinerRole()}})
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "amy@pizza.test", user.Email)
	api.AssertExpectations(t)
}

func TestUserRepository_CreateDuplicateEmailConflicts(t *testing.T) {
	ctx := tracedContext(t)
	api := new(apiMock)
	repo := NewUserRepository(NewClientWithAPI(api, "pizza"))

	api.On("UpdateItem", mock.Anything, mock.Anything).Return(&awsv2dynamodb.UpdateItemOutput{Attributes: map[string]awsv2types.AttributeValue{
		"Value": &awsv2types.AttributeValueMemberN{Value: "8"},
	}}, nil)
	api.On("TransactWriteItems", mock.Anything, mock.Anything).
		Return((*awsv2dynamodb.TransactWriteItemsOutput)(nil), &awsv2types.TransactionCanceledException{})

	_, err := repo.Create(ctx, domain.User{Name: "Amy", Email: "amy@pizza.test"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUserRepository_GetByIDRoundTripsRoles(t *testing.T) {
	ctx := tracedContext(t)
	api := new(apiMock)
	repo := NewUserRepository(NewClientWithAPI(api, "pizza"))
	stored := domain.User{
		ID:    3,
		Name:  "Ben",
		Email: "ben@pizza.test",
		Roles: []domain.Role{domain.DinerRole(), domain.FranchiseeRole(4)},
	}
	api.On("GetItem", mock.Anything, mock.MatchedBy(func(in *awsv2dynamodb.GetItemInput) bool {
		return keyIs("USER#3", "META")(in.Key)
	})).Return(&awsv2dynamodb.GetItemOutput{Item: marshal(t, newUserRecord(stored))}, nil)

	got, err := repo.GetByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, stored.Roles, got.Roles)
	assert.Equal(t, "Ben", got.Name)
}

func TestUserRepository_GetByIDNotFound(t *testing.T) {
	ctx := tracedContext(t)
	api := new(apiMock)
	repo := NewUserRepository(NewClientWithAPI(api, "pizza"))
	api.On("GetItem", mock.Anything, mock.Anything).Return(&awsv2dynamodb.GetItemOutput{}, nil)

	_, err := repo.GetByID(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepository_ListScansUsers(t *testing.T) {
	ctx := tracedContext(t)
	api := new(apiMock)
	repo := NewUserRepository(NewClientWithAPI(api, "pizza"))
	api.On("Scan", mock.Anything, mock.Anything).Return(&awsv2dynamodb.ScanOutput{Items: []map[string]awsv2types.AttributeValue{
		marshal(t, newUserRecord(domain.User{ID: 1, Name: "Amy"})),
		marshal(t, newUserRecord(domain.User{ID: 2, Name: "Ben"})),
	}}, nil)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Ben", users[1].Name)
}

func TestFranchiseRepository_GetByIDAssemblesStores(t *testing.T) {
	ctx := tracedContext(t)
	api := new(apiMock)
	repo := NewFranchiseRepository(NewClientWithAPI(api, "pizza"))
	api.On("Query", mock.Anything, mock.Anything).Return(&awsv2dynamodb.QueryOutput{Items: []map[string]awsv2types.AttributeValue{
		marshal(t, franchiseRecord{PK: "FRANCHISE#1", SK: "META", EntityType: "FRANCHISE", ID: 1, Name: "pizzaPocket", AdminIDs: []int64{5}}),
		marshal(t, storeRecord{PK: "FRANCHISE#1", SK: "STORE#3", EntityType: "STORE", ID: 3, FranchiseID: 1, Name: "SLC"}),
		marshal(t, storeRecord{PK: "FRANCHISE#1", SK: "STORE#2", EntityType: "STORE", ID: 2, FranchiseID: 1, Name: "Provo"}),
	}}, nil)

	f, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, f.AdminIDs)
	require.Len(t, f.Stores, 2)
	assert.Equal(t, "Provo", f.Stores[0].Name)
}

func TestFranchiseRepository_CreateStoreMissingFranchise(t *testing.T) {
	ctx := tracedContext(t)
	api := new(apiMock)
	repo := NewFranchiseRepository(NewClientWithAPI(api, "pizza"))
	api.On("UpdateItem", mock.Anything, mock.Anything).Return(&awsv2dynamodb.UpdateItemOutput{Attributes: map[string]awsv2types.AttributeValue{
		"Value": &awsv2types.AttributeValueMemberN{Value: "4"},
	}}, nil)
	api.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *awsv2dynamodb.TransactWriteItemsInput) bool {
		return len(in.TransactItems) == 3 && in.TransactItems[0].ConditionCheck != nil
	})).Return((*awsv2dynamodb.TransactWriteItemsOutput)(nil), &awsv2types.TransactionCanceledException{})

	_, err := repo.CreateStore(ctx, domain.Store{FranchiseID: 42, Name: "Orem"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrderRepository_GetByIDFollowsOwnerPointer(t *testing.T) {
	ctx := tracedContext(t)
	api := new(apiMock)
	repo := NewOrderRepository(NewClientWithAPI(api, "pizza"))
	api.On("GetItem", mock.Anything, mock.MatchedBy(func(in *awsv2dynamodb.GetItemInput) bool {
		return keyIs("ORDER#9", "META")(in.Key)
	})).Return(&awsv2dynamodb.GetItemOutput{Item: marshal(t, orderRefRecord{PK: "ORDER#9", SK: "META", EntityType: "ORDER_REF", DinerID: 2})}, nil)
	api.On("GetItem", mock.Anything, mock.MatchedBy(func(in *awsv2dynamodb.GetItemInput) bool {
		return keyIs("USER#2", "ORDER#9")(in.Key)
	})).Return(&awsv2dynamodb.GetItemOutput{Item: marshal(t, orderRecord{
		PK: "USER#2", SK: "ORDER#9", EntityType: "ORDER", ID: 9, DinerID: 2, FranchiseID: 1, StoreID: 1,
		Items: []orderItemRecord{{MenuID: 1, Description: "Veggie", Price: 0.05}},
	})}, nil)

	order, err := repo.GetByID(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(2), order.DinerID)
	assert.Equal(t, &domain.OrderRef{OwnerUserID: 2}, order.Ref())
	require.Len(t, order.Items, 1)
}
