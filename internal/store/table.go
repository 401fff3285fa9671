package store

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

	"nft-indexer-sol/internal/config"
)

// DynamoAPI 抽象 DynamoDB 客户端，便于测试注入
type DynamoAPI = dynamodbiface.DynamoDBAPI

var (
	// ErrConditionalWriteSkipped 表示条件写未通过——条目已存在。
	// 这是幂等写的正常结果（重复投递 / 重试），不是错误。
	ErrConditionalWriteSkipped = errors.New("conditional write skipped: item already present")
)

// ddbTable 封装单表的幂等写与查询原语
type ddbTable struct {
	db        DynamoAPI
	tableName string
}

// NewDynamoClient 按配置构造 DynamoDB 客户端；Endpoint 非空时指向本地实例
func NewDynamoClient(cfg config.DynamoConfig) (DynamoAPI, error) {
	awsCfg := aws.NewConfig().WithRegion(cfg.Region)
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, err
	}
	return dynamodb.New(sess), nil
}

// putConditional 以 "分区键不存在或排序键不存在" 为条件写入条目。
// 网络重试把同一逻辑条目重复提交时，第二次写返回 ErrConditionalWriteSkipped。
func (t *ddbTable) putConditional(ctx context.Context, item interface{}, sortKeyAttr string) error {
	m, err := dynamodbattribute.MarshalMap(item)
	if err != nil {
		return err
	}
	_, err = t.db.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(t.tableName),
		Item:                m,
		ConditionExpression: aws.String("attribute_not_exists(#sk)"),
		ExpressionAttributeNames: map[string]*string{
			"#sk": aws.String(sortKeyAttr),
		},
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == dynamodb.ErrCodeConditionalCheckFailedException {
			return ErrConditionalWriteSkipped
		}
		return err
	}
	return nil
}

// put 无条件覆盖写（用于 current-owner 这类必须跟进最新状态的记录）
func (t *ddbTable) put(ctx context.Context, item interface{}) error {
	m, err := dynamodbattribute.MarshalMap(item)
	if err != nil {
		return err
	}
	_, err = t.db.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.tableName),
		Item:      m,
	})
	return err
}

// getItem 按主键读取并反序列化到 out；未命中返回 (false, nil)
func (t *ddbTable) getItem(ctx context.Context, key map[string]*dynamodb.AttributeValue, out interface{}) (bool, error) {
	resp, err := t.db.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(t.tableName),
		Key:       key,
	})
	if err != nil {
		return false, err
	}
	if len(resp.Item) == 0 {
		return false, nil
	}
	if err := dynamodbattribute.UnmarshalMap(resp.Item, out); err != nil {
		return false, err
	}
	return true, nil
}

// queryRange 在单个分区内做排序键范围查询；lower/upper 为空表示开区间端。
// descending 为真时按排序键倒序返回（时间从新到旧）。
// indexName 非空时走该二级索引，skAttr 为索引的排序键属性。
func (t *ddbTable) queryRange(
	ctx context.Context,
	indexName, pkAttr, pkValue, skAttr, lower, upper string,
	descending bool,
) ([]map[string]*dynamodb.AttributeValue, error) {
	expr := "#pk = :pk"
	names := map[string]*string{"#pk": aws.String(pkAttr)}
	values := map[string]*dynamodb.AttributeValue{
		":pk": {S: aws.String(pkValue)},
	}
	switch {
	case lower != "" && upper != "":
		expr += " AND #sk BETWEEN :lo AND :hi"
		names["#sk"] = aws.String(skAttr)
		values[":lo"] = &dynamodb.AttributeValue{S: aws.String(lower)}
		values[":hi"] = &dynamodb.AttributeValue{S: aws.String(upper)}
	case lower != "":
		expr += " AND #sk >= :lo"
		names["#sk"] = aws.String(skAttr)
		values[":lo"] = &dynamodb.AttributeValue{S: aws.String(lower)}
	case upper != "":
		expr += " AND #sk <= :hi"
		names["#sk"] = aws.String(skAttr)
		values[":hi"] = &dynamodb.AttributeValue{S: aws.String(upper)}
	}

	var index *string
	if indexName != "" {
		index = aws.String(indexName)
	}

	var items []map[string]*dynamodb.AttributeValue
	var startKey map[string]*dynamodb.AttributeValue
	for {
		resp, err := t.db.QueryWithContext(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(t.tableName),
			IndexName:                 index,
			KeyConditionExpression:    aws.String(expr),
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: values,
			ScanIndexForward:          aws.Bool(!descending),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, err
		}
		items = append(items, resp.Items...)
		if len(resp.LastEvaluatedKey) == 0 {
			break
		}
		startKey = resp.LastEvaluatedKey
	}
	return items, nil
}
