package dynamodb

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsv2dynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsv2types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"pizza-authz/internal/domain"
)

type roleRecord struct {
	Role     string `dynamodbav:"Role"`
	ObjectID int64  `dynamodbav:"ObjectID,omitempty"`
}

type userRecord struct {
	PK           string       `dynamodbav:"PK"`
	SK           string       `dynamodbav:"SK"`
	EntityType   string       `dynamodbav:"EntityType"`
	ID           int64        `dynamodbav:"ID"`
	Name         string       `dynamodbav:"Name"`
	Email        string       `dynamodbav:"Email"`
	PasswordHash string       `dynamodbav:"PasswordHash"`
	Roles        []roleRecord `dynamodbav:"Roles"`
	CreatedAt    string       `dynamodbav:"CreatedAt"`
	UpdatedAt    string       `dynamodbav:"UpdatedAt"`
}

type emailRecord struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	UserID     int64  `dynamodbav:"UserID"`
}

func newUserRecord(u domain.User) userRecord {
	roles := make([]roleRecord, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, roleRecord{Role: string(r.Kind), ObjectID: r.FranchiseID})
	}
	return userRecord{
		PK:           userPK(u.ID),
		SK:           metaSK(),
		EntityType:   "USER",
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Roles:        roles,
		CreatedAt:    formatTime(u.CreatedAt),
		UpdatedAt:    formatTime(u.UpdatedAt),
	}
}

func (r userRecord) toDomain() domain.User {
	roles := make([]domain.Role, 0, len(r.Roles))
	for _, rr := range r.Roles {
		roles = append(roles, domain.Role{Kind: domain.RoleKind(rr.Role), FranchiseID: rr.ObjectID})
	}
	return domain.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Roles:        roles,
		CreatedAt:    parseTime(r.CreatedAt),
		UpdatedAt:    parseTime(r.UpdatedAt),
	}
}

func newEmailRecord(email string, userID int64) emailRecord {
	return emailRecord{PK: emailPK(email), SK: metaSK(), EntityType: "USER_EMAIL", UserID: userID}
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

type UserRepository struct{ client *Client }

func NewUserRepository(client *Client) *UserRepository {
	return &UserRepository{client: client}
}

// Create writes the user and its email lookup item in one transaction so an
// email can only ever belong to one account.
func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	next, err := r.client.nextID(ctx, "USER")
	if err != nil {
		return domain.User{}, err
	}
	user.ID = next
	user.Email = normalizeEmail(user.Email)

	userPut, err := r.client.putTx(newUserRecord(user), "attribute_not_exists(PK)")
	if err != nil {
		return domain.User{}, err
	}
	emailPut, err := r.client.putTx(newEmailRecord(user.Email, user.ID), "attribute_not_exists(PK)")
	if err != nil {
		return domain.User{}, err
	}
	err = r.client.transact(ctx, "DynamoDB.CreateUser", []awsv2types.TransactWriteItem{userPut, emailPut})
	if isTransactionCanceled(err) {
		return domain.User{}, fmt.Errorf("%w: email %s", domain.ErrConflict, user.Email)
	}
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID int64) (domain.User, error) {
	var raw userRecord
	found, err := r.client.getItem(ctx, "DynamoDB.GetUser", userPK(userID), metaSK(), &raw)
	if err != nil {
		return domain.User{}, err
	}
	if !found {
		return domain.User{}, domain.ErrNotFound
	}
	return raw.toDomain(), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	var raw emailRecord
	found, err := r.client.getItem(ctx, "DynamoDB.GetUserEmail", emailPK(normalizeEmail(email)), metaSK(), &raw)
	if err != nil {
		return domain.User{}, err
	}
	if !found {
		return domain.User{}, domain.ErrNotFound
	}
	return r.GetByID(ctx, raw.UserID)
}

func (r *UserRepository) Update(ctx context.Context, user domain.User) error {
	current, err := r.GetByID(ctx, user.ID)
	if err != nil {
		return err
	}
	user.Email = normalizeEmail(user.Email)

	userPut, err := r.client.putTx(newUserRecord(user), "attribute_exists(PK)")
	if err != nil {
		return err
	}
	items := []awsv2types.TransactWriteItem{userPut}
	if user.Email != current.Email {
		emailPut, err := r.client.putTx(newEmailRecord(user.Email, user.ID), "attribute_not_exists(PK)")
		if err != nil {
			return err
		}
		items = append(items, emailPut, r.client.deleteTx(emailPK(current.Email), metaSK()))
	}
	err = r.client.transact(ctx, "DynamoDB.UpdateUser", items)
	if isTransactionCanceled(err) {
		return fmt.Errorf("%w: email %s", domain.ErrConflict, user.Email)
	}
	return err
}

func (r *UserRepository) Delete(ctx context.Context, userID int64) error {
	current, err := r.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	return r.client.transact(ctx, "DynamoDB.DeleteUser", []awsv2types.TransactWriteItem{
		r.client.deleteTx(userPK(userID), metaSK()),
		r.client.deleteTx(emailPK(current.Email), metaSK()),
	})
}

func (r *UserRepository) List(ctx context.Context) ([]domain.UserSummary, error) {
	items, err := r.client.scan(ctx, "DynamoDB.ScanUsers", &awsv2dynamodb.ScanInput{
		FilterExpression: aws.String("EntityType = :t"),
		ExpressionAttributeValues: map[string]awsv2types.AttributeValue{
			":t": &awsv2types.AttributeValueMemberS{Value: "USER"},
		},
	})
	if err != nil {
		return nil, err
	}
	users := make([]domain.UserSummary, 0, len(items))
	for _, item := range items {
		var raw userRecord
		if err := attributevalue.UnmarshalMap(item, &raw); err != nil {
			return nil, err
		}
		users = append(users, raw.toDomain().Summary())
	}
	return users, nil
}
