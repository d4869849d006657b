package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Paidguy/SpotiFLAC-web/internal/constants"
	"github.com/Paidguy/SpotiFLAC-web/internal/domain"
)

type fetchDoc struct {
	ID        string `bson:"_id"`
	URL       string `bson:"url"`
	Type      string `bson:"type"`
	Name      string `bson:"name"`
	Info      string `bson:"info,omitempty"`
	Image     string `bson:"image,omitempty"`
	Data      string `bson:"data,omitempty"`
	Timestamp int64  `bson:"timestamp"`
}

type FetchHistoryRepository struct {
	collection *mongo.Collection
}

func NewFetchHistoryRepository(client *mongo.Client, dbName string) *FetchHistoryRepository {
	return &FetchHistoryRepository{collection: client.Database(dbName).Collection(constants.FetchHistoryCollection)}
}

func (r *FetchHistoryRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "type", Value: 1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, models)
	return err
}

func (r *FetchHistoryRepository) Append(ctx context.Context, rec domain.FetchHistoryRecord) error {
	doc := fetchDoc(rec)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to append fetch history %s: %w", rec.ID, err)
	}
	return nil
}

func (r *FetchHistoryRepository) List(ctx context.Context) ([]domain.FetchHistoryRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []fetchDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	records := make([]domain.FetchHistoryRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, domain.FetchHistoryRecord(doc))
	}
	return records, nil
}

func (r *FetchHistoryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *FetchHistoryRepository) DeleteByType(ctx context.Context, itemType string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"type": itemType})
	return err
}

func (r *FetchHistoryRepository) Clear(ctx context.Context) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{})
	return err
}
