package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chiron-labs/go-chiron/src/embed"
)

const mongoCloseTimeout = 5 * time.Second

// MongoVector implements VectorStore on MongoDB. Candidate chunks are
// filtered server-side and cosine-ranked in process.
type MongoVector struct {
	client            *mongo.Client
	collection        *mongo.Collection
	counterCollection *mongo.Collection
	embedder          embed.Embedder
}

type mongoChunk struct {
	ID             int64     `bson:"_id"`
	Content        string    `bson:"content"`
	SubjectID      string    `bson:"subject_id"`
	SourceURL      string    `bson:"source_url"`
	SourceScore    float64   `bson:"source_score"`
	TopicPath      string    `bson:"topic_path"`
	Confidence     float64   `bson:"confidence"`
	Contradictions []string  `bson:"contradictions"`
	LastValidated  time.Time `bson:"last_validated"`
	Embedding      []float32 `bson:"embedding"`
}

// NewMongoVector connects to MongoDB and returns a Mongo-backed store.
func NewMongoVector(ctx context.Context, uri, database, collection string, embedder embed.Embedder) (*MongoVector, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}
	if database == "" {
		return nil, errors.New("mongo database name is required")
	}
	if collection == "" {
		collection = "knowledge_chunks"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	if embedder == nil {
		embedder = embed.Dummy{}
	}
	db := client.Database(database)
	return &MongoVector{
		client:            client,
		collection:        db.Collection(collection),
		counterCollection: db.Collection("counters"),
		embedder:          embedder,
	}, nil
}

func (mv *MongoVector) StoreKnowledge(ctx context.Context, chunk *KnowledgeChunk) (int64, error) {
	if mv == nil || mv.collection == nil {
		return 0, nil
	}
	embedding, err := mv.embedder.Embed(ctx, chunk.Content)
	if err != nil {
		return 0, fmt.Errorf("embed chunk: %w", err)
	}
	id, err := mv.nextID(ctx)
	if err != nil {
		return 0, err
	}
	contradictions := chunk.Contradictions
	if contradictions == nil {
		contradictions = []string{}
	}
	lastValidated := chunk.LastValidated
	if lastValidated.IsZero() {
		lastValidated = time.Now().UTC()
	}
	doc := mongoChunk{
		ID:             id,
		Content:        chunk.Content,
		SubjectID:      chunk.SubjectID,
		SourceURL:      chunk.SourceURL,
		SourceScore:    chunk.SourceScore,
		TopicPath:      chunk.TopicPath,
		Confidence:     chunk.Confidence,
		Contradictions: contradictions,
		LastValidated:  lastValidated,
		Embedding:      embedding,
	}
	if _, err := mv.collection.InsertOne(ctx, doc); err != nil {
		return 0, err
	}
	chunk.ID = id
	chunk.LastValidated = lastValidated
	return id, nil
}

func (mv *MongoVector) Search(ctx context.Context, q SearchQuery) ([]KnowledgeChunk, error) {
	if mv == nil || mv.collection == nil {
		return nil, nil
	}
	if q.TopK <= 0 {
		q.TopK = 5
	}
	queryEmbedding, err := mv.embedder.Embed(ctx, q.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	filter := bson.M{"confidence": bson.M{"$gte": q.MinConfidence}}
	if q.SubjectID != "" {
		filter["subject_id"] = q.SubjectID
	}
	cursor, err := mv.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var hits []KnowledgeChunk
	for cursor.Next(ctx) {
		var doc mongoChunk
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		hits = append(hits, KnowledgeChunk{
			ID:             doc.ID,
			Content:        doc.Content,
			SubjectID:      doc.SubjectID,
			SourceURL:      doc.SourceURL,
			SourceScore:    doc.SourceScore,
			TopicPath:      doc.TopicPath,
			Confidence:     doc.Confidence,
			Contradictions: doc.Contradictions,
			LastValidated:  doc.LastValidated,
			Score:          cosineSimilarity(queryEmbedding, doc.Embedding),
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > q.TopK {
		hits = hits[:q.TopK]
	}
	return hits, nil
}

func (mv *MongoVector) Count(ctx context.Context) (int, error) {
	if mv == nil || mv.collection == nil {
		return 0, nil
	}
	n, err := mv.collection.CountDocuments(ctx, bson.M{})
	return int(n), err
}

func (mv *MongoVector) Delete(ctx context.Context, ids []int64) error {
	if mv == nil || mv.collection == nil || len(ids) == 0 {
		return nil
	}
	_, err := mv.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

func (mv *MongoVector) DeleteSubject(ctx context.Context, subjectID string) error {
	if mv == nil || mv.collection == nil {
		return nil
	}
	_, err := mv.collection.DeleteMany(ctx, bson.M{"subject_id": subjectID})
	return err
}

// Close disconnects from MongoDB.
func (mv *MongoVector) Close() error {
	if mv == nil || mv.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), mongoCloseTimeout)
	defer cancel()
	return mv.client.Disconnect(ctx)
}

// nextID allocates a monotonically increasing chunk id through the counters
// collection.
func (mv *MongoVector) nextID(ctx context.Context) (int64, error) {
	var result struct {
		Seq int64 `bson:"seq"`
	}
	err := mv.counterCollection.FindOneAndUpdate(ctx,
		bson.M{"_id": "knowledge_chunks"},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&result)
	if err != nil {
		return 0, err
	}
	return result.Seq, nil
}

var _ VectorStore = (*MongoVector)(nil)
