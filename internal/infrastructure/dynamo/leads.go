package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/lead-verify/internal/domain"
)

// LeadRepo provides typed DynamoDB operations for the leads table.
// PK: lead_id. The email_verification_token-index GSI is sparse: a lead only
// appears in it while its token attribute is present.
type LeadRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewLeadRepo(client *dynamodb.Client, tableName string) *LeadRepo {
	return &LeadRepo{client: client, tableName: tableName}
}

func (r *LeadRepo) Put(ctx context.Context, l *domain.Lead) error {
	item, err := attributevalue.MarshalMap(l)
	if err != nil {
		return fmt.Errorf("marshal lead: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": fieldLeadID},
	})
	return err
}

func (r *LeadRepo) Get(ctx context.Context, leadID string) (*domain.Lead, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldLeadID, leadID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("lead not found: %w", domain.ErrNotFound)
	}
	var l domain.Lead
	if err := attributevalue.UnmarshalMap(out.Item, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LeadRepo) GetByEmailToken(ctx context.Context, token string) (*domain.Lead, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexEmailToken),
		KeyConditionExpression:    aws.String("#t = :t"),
		ExpressionAttributeNames:  map[string]string{"#t": fieldEmailToken},
		ExpressionAttributeValues: map[string]types.AttributeValue{":t": &types.AttributeValueMemberS{Value: token}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("token not found: %w", domain.ErrNotFound)
	}
	var l domain.Lead
	if err := attributevalue.UnmarshalMap(out.Items[0], &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// SetPhoneOTP stores a fresh OTP, replacing any earlier one.
func (r *LeadRepo) SetPhoneOTP(ctx context.Context, leadID, otp string, expiresAt time.Time) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldPhoneOTP:        otp,
		fieldPhoneOTPExpires: expiresAt.UTC(),
		fieldUpdatedAt:       time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	_, err = r.update(ctx, leadID, ue, ue.exists(fieldLeadID), types.ReturnValueNone)
	return err
}

// ConsumeEmailToken marks the email channel verified, removes the token and
// writes lead_status, but only if the stored token still equals token.
func (r *LeadRepo) ConsumeEmailToken(ctx context.Context, leadID, token string) (*domain.Lead, error) {
	return r.consume(ctx, leadID, credential{
		flag:    fieldEmailVerified,
		other:   fieldPhoneVerified,
		attr:    fieldEmailToken,
		expires: fieldEmailTokenExpires,
		value:   token,
	})
}

// ConsumePhoneOTP marks the phone channel verified, removes the OTP and
// writes lead_status, but only if the stored OTP still equals otp.
func (r *LeadRepo) ConsumePhoneOTP(ctx context.Context, leadID, otp string) (*domain.Lead, error) {
	return r.consume(ctx, leadID, credential{
		flag:    fieldPhoneVerified,
		other:   fieldEmailVerified,
		attr:    fieldPhoneOTP,
		expires: fieldPhoneOTPExpires,
		value:   otp,
	})
}

// credential names the attributes touched when one channel is consumed.
type credential struct {
	flag    string
	other   string
	attr    string
	expires string
	value   string
}

// consume writes the channel flag, lead_status and the credential removal in
// one conditional UpdateItem. An update expression cannot read another
// attribute, so the write is tried with the other channel unset and then set,
// each guarded on that assumption. Flags never revert: if both attempts fail
// the credential did not match.
func (r *LeadRepo) consume(ctx context.Context, leadID string, c credential) (*domain.Lead, error) {
	l, err := r.consumeAssuming(ctx, leadID, c, false)
	if !errors.Is(err, domain.ErrNotFound) {
		return l, err
	}
	return r.consumeAssuming(ctx, leadID, c, true)
}

func (r *LeadRepo) consumeAssuming(ctx context.Context, leadID string, c credential, otherVerified bool) (*domain.Lead, error) {
	ue, err := buildUpdateExpr(
		map[string]interface{}{
			c.flag:          true,
			fieldLeadStatus: string(domain.DeriveState(true, otherVerified).Status()),
			fieldUpdatedAt:  time.Now().UTC(),
		},
		c.attr, c.expires,
	)
	if err != nil {
		return nil, err
	}
	cond := ue.condition(c.attr, c.value) + " AND " + ue.flag(c.other, otherVerified)
	return r.update(ctx, leadID, ue, cond, types.ReturnValueAllNew)
}

// Ping checks that the leads table is reachable.
func (r *LeadRepo) Ping(ctx context.Context) error {
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(r.tableName),
	})
	return err
}

// update runs a conditional UpdateItem. A failed condition is reported as
// domain.ErrNotFound.
func (r *LeadRepo) update(ctx context.Context, leadID string, ue *updateExpr, cond string, rv types.ReturnValue) (*domain.Lead, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldLeadID, leadID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ReturnValues:              rv,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, fmt.Errorf("lead %s: condition failed: %w", leadID, domain.ErrNotFound)
		}
		return nil, err
	}
	if rv == types.ReturnValueNone {
		return nil, nil
	}
	var l domain.Lead
	if err := attributevalue.UnmarshalMap(out.Attributes, &l); err != nil {
		return nil, err
	}
	return &l, nil
}
