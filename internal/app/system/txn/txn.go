// Package txn runs MongoDB multi-document transactions.
//
// Group creation and joins write two or three documents that must land
// together, so there is no non-transactional fallback: a deployment without
// transaction support (standalone mongod, some DocumentDB tiers) fails with
// ErrNotSupported instead of silently writing documents one by one.
package txn

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.uber.org/zap"
)

// ErrNotSupported is returned when the server cannot run transactions.
var ErrNotSupported = errors.New("mongodb transactions are not supported by this deployment (a replica set is required)")

// Run executes fn inside a transaction with snapshot reads and majority
// writes. The driver re-runs fn on TransientTransactionError and retries
// the commit on UnknownTransactionCommitResult, so fn must be safe to call
// more than once.
func Run(ctx context.Context, client *mongo.Client, logger *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fmt.Errorf("%w: %v", ErrNotSupported, err)
		}
		return err
	}
	defer sess.EndSession(context.Background())

	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, opts)
	if err != nil && IsNotSupported(err) {
		if logger != nil {
			logger.Error("mongo transaction rejected by server", zap.Error(err))
		}
		return fmt.Errorf("%w: %v", ErrNotSupported, err)
	}
	return err
}

// IsNotSupported reports whether err indicates that the server (or its
// topology) cannot run sessions or multi-document transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, // IllegalOperation: "Transaction numbers are only allowed on a replica set member or mongos"
			51,  // legacy IllegalOperation on some DocumentDB versions
			263: // OperationNotSupportedInTransaction
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "transaction") && strings.Contains(msg, "replica set"):
		return true
	case strings.Contains(msg, "session") && strings.Contains(msg, "not supported"):
		return true
	case strings.Contains(msg, "transaction") && strings.Contains(msg, "session"):
		return true
	case strings.Contains(msg, "illegal operation"):
		return true
	}
	return false
}

// IsTransient reports whether err carries one of the driver's retryable
// transaction labels. Such errors survive WithTransaction only when its
// internal retry budget (120s) is exhausted or the context expired.
func IsTransient(err error) bool {
	var le mongo.LabeledError
	if errors.As(err, &le) {
		return le.HasErrorLabel("TransientTransactionError") ||
			le.HasErrorLabel("UnknownTransactionCommitResult")
	}
	return false
}
