package records

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/labelforge/labelforge/pkg/errors"
)

// MongoSource reads records from a MongoDB collection. Documents use the
// same field names as the CSV columns; _id order makes runs reproducible.
type MongoSource struct {
	URI        string
	Database   string
	Collection string
}

// NewMongoSource creates a MongoDB source.
func NewMongoSource(uri, database, collection string) *MongoSource {
	return &MongoSource{URI: uri, Database: database, Collection: collection}
}

type mongoRecord struct {
	ID           string `bson:"id"`
	QRValue      string `bson:"qr_value,omitempty"`
	BarcodeValue string `bson:"barcode_value,omitempty"`
	MarkerID     *int   `bson:"marker_id,omitempty"`
}

// Load connects, reads every document in _id order and maps it to a record.
// Documents with a blank id are skipped with a warning, matching the CSV
// source's behavior.
func (s *MongoSource) Load(ctx context.Context) ([]Record, []string, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.URI))
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to MongoDB")
	}
	defer func() { _ = client.Disconnect(ctx) }()

	coll := client.Database(s.Database).Collection(s.Collection)
	cur, err := coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "query %s.%s", s.Database, s.Collection)
	}
	defer func() { _ = cur.Close(ctx) }()

	var (
		out      []Record
		warnings []string
	)
	pos := 0
	for cur.Next(ctx) {
		pos++
		var doc mongoRecord
		if err := cur.Decode(&doc); err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode document %d", pos)
		}
		if doc.ID == "" {
			warnings = append(warnings, fmt.Sprintf("document %d has empty 'id', skipping", pos))
			continue
		}
		rec := NewRecord(pos, doc.ID, doc.QRValue, doc.BarcodeValue)
		rec.MarkerID = doc.MarkerID
		out = append(out, rec)
	}
	if err := cur.Err(); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "iterate %s.%s", s.Database, s.Collection)
	}

	if len(out) == 0 {
		return nil, warnings, errors.New(errors.ErrCodeNotFound,
			"no valid records found in %s.%s", s.Database, s.Collection)
	}
	return out, warnings, nil
}
