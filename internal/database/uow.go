package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// UnitOfWork chạy fn trong một transaction MongoDB (cần replica set).
// Commit/abort được gọi thủ công thay vì WithTransaction: fn có lời gọi blockchain và S3 không được phép chạy lại.
type UnitOfWork struct {
	client *mongo.Client
}

func (u UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	// Lời gọi lồng nhau tham gia transaction đang mở.
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := u.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(context.WithoutCancel(ctx))

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := session.StartTransaction(txnOpts); err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}

	sessCtx := mongo.NewSessionContext(ctx, session)
	if err := fn(sessCtx); err != nil {
		if abortErr := session.AbortTransaction(context.WithoutCancel(ctx)); abortErr != nil {
			return errors.Join(err, fmt.Errorf("abort transaction: %w", abortErr))
		}
		return err
	}
	if err := session.CommitTransaction(context.WithoutCancel(ctx)); err != nil {
		return translate(err)
	}
	return nil
}
