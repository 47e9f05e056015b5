package repository

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

// Transactor runs fn inside a MongoDB transaction. Repository calls made with
// the context passed to fn join the transaction.
type Transactor struct {
	client  *mongo.Client
	enabled bool
}

// NewTransactor returns a Transactor on db's client. With enabled=false (a
// standalone mongod without a replica set) fn runs without a transaction.
func NewTransactor(db *mongo.Database, enabled bool) *Transactor {
	return &Transactor{client: db.Client(), enabled: enabled}
}

func (t *Transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !t.enabled {
		return fn(ctx)
	}

	return t.client.UseSession(ctx, func(sc mongo.SessionContext) error {
		_, err := sc.WithTransaction(sc, func(txCtx mongo.SessionContext) (interface{}, error) {
			return nil, fn(txCtx)
		})
		if err != nil {
			logrus.WithError(err).Warn("Transaction aborted")
		}
		return err
	})
}
