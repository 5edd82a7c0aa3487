package audit

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoSink appends records as documents to a collection.
type MongoSink struct {
	coll *mongo.Collection
}

func NewMongoSink(coll *mongo.Collection) *MongoSink {
	return &MongoSink{coll: coll}
}

func (s *MongoSink) Write(ctx context.Context, rec CallRecord) error {
	_, err := s.coll.InsertOne(ctx, rec)
	return err
}
