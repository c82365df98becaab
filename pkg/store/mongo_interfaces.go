package store

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

//go:generate mockgen -source=mongo_interfaces.go -destination=mock_mongo.go -package=store

type ( // Interfaces
	IMongoCollection interface {
		FindOne(context.Context, interface{}, ...*options.FindOneOptions) IMongoSingleResult
		ReplaceOne(context.Context, interface{}, interface{}, ...*options.ReplaceOptions) (IMongoUpdateResult, error)
	}

	IMongoSingleResult interface{ Decode(interface{}) error }
	IMongoUpdateResult interface{}
)

type ( // Structs
	MongoCollection struct {
		Coll *mongo.Collection
	}

	MongoSingleResult struct{ res *mongo.SingleResult }
	MongoUpdateResult struct{ res *mongo.UpdateResult }
)

// MongoSingleResult

func (sr *MongoSingleResult) Decode(v interface{}) error {
	return sr.res.Decode(v)
}

// MongoCollection

func (col *MongoCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) IMongoSingleResult {
	singleResult := col.Coll.FindOne(ctx, filter, opts...)
	return &MongoSingleResult{res: singleResult}
}

func (col *MongoCollection) ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (IMongoUpdateResult, error) {
	updateResult, err := col.Coll.ReplaceOne(ctx, filter, replacement, opts...)
	if err != nil {
		return nil, err
	}
	return &MongoUpdateResult{res: updateResult}, nil
}
