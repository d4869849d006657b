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

type historyDoc struct {
	ID           string `bson:"_id"`
	TrackName    string `bson:"trackName"`
	ArtistName   string `bson:"artistName"`
	AlbumName    string `bson:"albumName"`
	SourceID     string `bson:"sourceId"`
	Service      string `bson:"service"`
	Kind         string `bson:"kind"`
	Format       string `bson:"format"`
	Status       string `bson:"status"`
	ErrorMessage string `bson:"errorMessage,omitempty"`
	FilePath     string `bson:"filePath,omitempty"`
	TotalSize    int64  `bson:"totalSize"`
	StartTime    int64  `bson:"startTime"`
	EndTime      int64  `bson:"endTime"`
	RecordedAt   int64  `bson:"recordedAt"`
}

type HistoryRepository struct {
	collection *mongo.Collection
}

func NewHistoryRepository(client *mongo.Client, dbName string) *HistoryRepository {
	return &HistoryRepository{collection: client.Database(dbName).Collection(constants.DownloadHistoryCollection)}
}

func (r *HistoryRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "recordedAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, models)
	return err
}

// Append replaces any document with the same id.
func (r *HistoryRepository) Append(ctx context.Context, rec domain.HistoryRecord) error {
	doc := toHistoryDoc(rec)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to append history %s: %w", rec.ID, err)
	}
	return nil
}

func (r *HistoryRepository) List(ctx context.Context) ([]domain.HistoryRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "recordedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []historyDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	records := make([]domain.HistoryRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, historyDocToRecord(doc))
	}
	return records, nil
}

func (r *HistoryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *HistoryRepository) Clear(ctx context.Context) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{})
	return err
}

func toHistoryDoc(rec domain.HistoryRecord) historyDoc {
	return historyDoc{
		ID:           rec.ID,
		TrackName:    rec.TrackName,
		ArtistName:   rec.ArtistName,
		AlbumName:    rec.AlbumName,
		SourceID:     rec.SourceID,
		Service:      rec.Service,
		Kind:         string(rec.Kind),
		Format:       rec.Format,
		Status:       string(rec.Status),
		ErrorMessage: rec.ErrorMessage,
		FilePath:     rec.FilePath,
		TotalSize:    rec.TotalSize,
		StartTime:    rec.StartTime,
		EndTime:      rec.EndTime,
		RecordedAt:   rec.RecordedAt,
	}
}

func historyDocToRecord(doc historyDoc) domain.HistoryRecord {
	return domain.HistoryRecord{
		ID:           doc.ID,
		TrackName:    doc.TrackName,
		ArtistName:   doc.ArtistName,
		AlbumName:    doc.AlbumName,
		SourceID:     doc.SourceID,
		Service:      doc.Service,
		Kind:         domain.AssetKind(doc.Kind),
		Format:       doc.Format,
		Status:       domain.ItemStatus(doc.Status),
		ErrorMessage: doc.ErrorMessage,
		FilePath:     doc.FilePath,
		TotalSize:    doc.TotalSize,
		StartTime:    doc.StartTime,
		EndTime:      doc.EndTime,
		RecordedAt:   doc.RecordedAt,
	}
}
