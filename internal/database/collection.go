package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cattle-certification-api-server/internal/apperror"
)

// collection là lớp mỏng có kiểu trên *mongo.Collection.
type collection[T any] struct {
	c *mongo.Collection
}

func newCollection[T any](db *mongo.Database, name string) collection[T] {
	return collection[T]{c: db.Collection(name)}
}

func (c collection[T]) insert(ctx context.Context, v T) error {
	_, err := c.c.InsertOne(ctx, v)
	return translate(err)
}

// replace ghi đè document theo _id; trả về ErrNotFound nếu không có.
func (c collection[T]) replace(ctx context.Context, id string, v T) error {
	res, err := c.c.ReplaceOne(ctx, bson.M{"_id": id}, v)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (c collection[T]) upsert(ctx context.Context, id string, v T) error {
	_, err := c.c.ReplaceOne(ctx, bson.M{"_id": id}, v, options.Replace().SetUpsert(true))
	return translate(err)
}

func (c collection[T]) findOne(ctx context.Context, filter any) (T, error) {
	var out T
	if err := c.c.FindOne(ctx, filter).Decode(&out); err != nil {
		var zero T
		return zero, translate(err)
	}
	return out, nil
}

func (c collection[T]) byID(ctx context.Context, id string) (T, error) {
	return c.findOne(ctx, bson.M{"_id": id})
}

// find luôn trả về slice khác nil.
func (c collection[T]) find(ctx context.Context, filter any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := c.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c collection[T]) count(ctx context.Context, filter any) (int64, error) {
	n, err := c.c.CountDocuments(ctx, filter)
	return n, translate(err)
}

// byCreation sắp xếp theo createdAt rồi _id.
func byCreation() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
}
