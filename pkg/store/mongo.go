package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoSnapshot struct {
	Slot string `bson:"slot"`
	Data string `bson:"data"`
}

// Mongo keeps one document per slot in a collection.
type Mongo struct {
	snapshots IMongoCollection
}

func NewMongo(coll *mongo.Collection) *Mongo {
	return &Mongo{
		snapshots: &MongoCollection{Coll: coll},
	}
}

func (m *Mongo) Load(ctx context.Context, slot Slot) ([]byte, error) {
	doc := new(mongoSnapshot)
	err := m.snapshots.FindOne(ctx, bson.M{"slot": string(slot)}).Decode(doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("store/mongo: failed finding %s: %w", slot, err)
	}
	return []byte(doc.Data), nil
}

func (m *Mongo) Save(ctx context.Context, slot Slot, data []byte) error {
	doc := &mongoSnapshot{Slot: string(slot), Data: string(data)}
	_, err := m.snapshots.ReplaceOne(ctx, bson.M{"slot": string(slot)}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("store/mongo: failed replacing %s: %w", slot, err)
	}
	return nil
}
