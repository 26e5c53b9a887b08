package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ConnectMongo connects to MongoDB and pings the primary.
func ConnectMongo(ctx context.Context, uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	defer cancelPing()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, client.Database(dbName), nil
}

// mongoSlotDocument is the stored shape. Data is kept as a string so a blob
// written by any client round-trips byte for byte.
type mongoSlotDocument struct {
	ID        string    `bson:"_id"`
	Data      string    `bson:"data"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// MongoInvoiceSlot keeps the blob in one document of the invoice_slots collection.
type MongoInvoiceSlot struct {
	coll *mongo.Collection
	key  string
}

// NewMongoInvoiceSlot は MongoInvoiceSlot を生成する
func NewMongoInvoiceSlot(db *mongo.Database, key string) *MongoInvoiceSlot {
	return &MongoInvoiceSlot{coll: db.Collection("invoice_slots"), key: key}
}

func (s *MongoInvoiceSlot) Get(ctx context.Context) ([]byte, error) {
	var doc mongoSlotDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": s.key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(doc.Data), nil
}

func (s *MongoInvoiceSlot) Put(ctx context.Context, data []byte) error {
	doc := mongoSlotDocument{ID: s.key, Data: string(data), UpdatedAt: time.Now().UTC()}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": s.key}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoInvoiceSlot) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, readpref.Primary())
}
