package store

import (
	"context"

	"Asclepius/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConversationStore is an implementation of ConversationStore using MongoDB.
type MongoConversationStore struct {
	collection *mongo.Collection
}

// NewMongoConversationStore creates a new MongoConversationStore.
func NewMongoConversationStore(db *mongo.Database, collectionName string) *MongoConversationStore {
	return &MongoConversationStore{
		collection: db.Collection(collectionName),
	}
}

// Upsert writes the turn's conversation state. The message sequence,
// preview and update time always win; identity fields only overwrite when
// supplied non-empty, and created_at is set once on insert.
func (s *MongoConversationStore) Upsert(ctx context.Context, conv *models.Conversation) error {
	set := bson.M{
		"messages":   conv.Messages,
		"preview":    conv.Preview,
		"updated_at": conv.UpdatedAt,
	}
	if conv.Role != "" {
		set["role"] = conv.Role
	}
	if conv.PatientID != "" {
		set["patient_id"] = conv.PatientID
	}
	if conv.Title != "" {
		set["title"] = conv.Title
	}

	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"created_at": conv.CreatedAt},
	}
	opts := options.Update().SetUpsert(true)
	_, err := s.collection.UpdateOne(ctx, bson.M{"_id": conv.ID}, update, opts)
	return err
}

// Get retrieves a conversation by its id. Unknown ids return nil, nil.
func (s *MongoConversationStore) Get(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&conv)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

// List returns all conversation summaries, most recently updated first.
// The message sequence is projected out so list calls stay cheap.
func (s *MongoConversationStore) List(ctx context.Context) ([]*models.ConversationSummary, error) {
	opts := options.Find()
	opts.SetSort(bson.D{{Key: "updated_at", Value: -1}})
	opts.SetProjection(bson.M{"messages": 0})

	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var summaries []*models.ConversationSummary
	if err = cursor.All(ctx, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}
