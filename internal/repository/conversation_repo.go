package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/JaiminPatel345/Abhinavam-sub000/internal/models"
)

type ConversationRepository struct {
	coll *mongo.Collection
}

func NewConversationRepository(db *mongo.Database) *ConversationRepository {
	coll := db.Collection("conversations")
	idxs := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "participants", Value: 1}, {Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("participants_updated_idx"),
		},
		{
			// Unique sparse key enforces at most one direct conversation per
			// unordered pair; group conversations carry no direct_key.
			Keys:    bson.D{{Key: "direct_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("direct_key_idx"),
		},
	}
	_, _ = coll.Indexes().CreateMany(context.Background(), idxs)
	return &ConversationRepository{coll: coll}
}

func (r *ConversationRepository) Insert(ctx context.Context, c *models.Conversation) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

func (r *ConversationRepository) FindByID(ctx context.Context, id string) (*models.Conversation, error) {
	var c models.Conversation
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *ConversationRepository) FindDirectByKey(ctx context.Context, key string) (*models.Conversation, error) {
	var c models.Conversation
	if err := r.coll.FindOne(ctx, bson.M{"direct_key": key}).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *ConversationRepository) ListForUser(ctx context.Context, userID string, offset, limit int64) ([]*models.Conversation, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)
	cur, err := r.coll.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*models.Conversation{}
	for cur.Next(ctx) {
		var c models.Conversation
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, cur.Err()
}
