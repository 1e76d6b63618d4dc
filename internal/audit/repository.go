// Package audit persists ledger events consumed from RabbitMQ into MongoDB.
package audit

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Collection holds one document per consumed event.
const Collection = "audit_logs"

// Entry is the stored form of a ledger event. The event id is the document
// id, so a redelivered event is stored once.
type Entry struct {
	ID          string         `bson:"_id"`
	Kind        string         `bson:"kind"`
	Destination string         `bson:"destination"`
	Body        string         `bson:"body"`
	Attributes  map[string]any `bson:"attributes,omitempty"`
	OccurredAt  time.Time      `bson:"occurred_at"`
	ProcessedAt time.Time      `bson:"processed_at"`
}

// Repository stores audit entries.
type Repository interface {
	Save(ctx context.Context, entry Entry) error
}

// MongoRepository writes entries to the audit_logs collection.
type MongoRepository struct {
	collection *mongo.Collection
}

// NewMongoRepository binds the repository to dbName.audit_logs.
func NewMongoRepository(client *mongo.Client, dbName string) *MongoRepository {
	return &MongoRepository{collection: client.Database(dbName).Collection(Collection)}
}

// Save inserts entry. Inserting an already stored event is not an error.
func (r *MongoRepository) Save(ctx context.Context, entry Entry) error {
	entry.ProcessedAt = time.Now().UTC()
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
