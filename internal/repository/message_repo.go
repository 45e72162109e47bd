package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/JaiminPatel345/Abhinavam-sub000/internal/models"
)

// MessageRepository owns the messages collection and, for the two operations
// that must touch both collections atomically, the conversations collection.
type MessageRepository struct {
	client *mongo.Client
	msgs   *mongo.Collection
	convs  *mongo.Collection
}

func NewMessageRepository(client *mongo.Client, db *mongo.Database) *MessageRepository {
	msgs := db.Collection("messages")
	_, _ = msgs.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("conversation_created_idx"),
	})
	return &MessageRepository{client: client, msgs: msgs, convs: db.Collection("conversations")}
}

// CreateWithLastMessage inserts the message and repoints the owning
// conversation's last_message_id in a single transaction. Either both writes
// commit or neither does.
func (r *MessageRepository) CreateWithLastMessage(ctx context.Context, m *models.Message) error {
	sess, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := r.msgs.InsertOne(sc, m); err != nil {
			return nil, err
		}
		res, err := r.convs.UpdateByID(sc, m.ConversationID, bson.M{"$set": bson.M{
			"last_message_id": m.ID,
			"updated_at":      m.CreatedAt,
		}})
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, ErrNotFound
		}
		return nil, nil
	})
	return err
}

func (r *MessageRepository) FindByID(ctx context.Context, id string) (*models.Message, error) {
	var m models.Message
	if err := r.msgs.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// visibleFilter excludes globally tombstoned messages and those the user has
// deleted for themselves.
func visibleFilter(conversationID, userID string) bson.M {
	return bson.M{
		"conversation_id":      conversationID,
		"deleted_for_everyone": false,
		"deleted_for.user_id":  bson.M{"$ne": userID},
	}
}

func (r *MessageRepository) ListVisible(ctx context.Context, conversationID, userID string, offset, limit int64) ([]*models.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)
	cur, err := r.msgs.Find(ctx, visibleFilter(conversationID, userID), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*models.Message{}
	for cur.Next(ctx) {
		var m models.Message
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, cur.Err()
}

// CountUnread counts messages visible to userID that were sent by somebody
// else and carry no read receipt from userID.
func (r *MessageRepository) CountUnread(ctx context.Context, conversationID, userID string) (int64, error) {
	filter := visibleFilter(conversationID, userID)
	filter["sender_id"] = bson.M{"$ne": userID}
	filter["read_by.user_id"] = bson.M{"$ne": userID}
	return r.msgs.CountDocuments(ctx, filter)
}

// AddReadReceipt appends a read receipt with add-if-absent semantics: the
// filter only matches when no receipt for userID exists yet, so concurrent
// readers never clobber or duplicate each other's entries. Returns false if
// the receipt was already present.
func (r *MessageRepository) AddReadReceipt(ctx context.Context, messageID, userID string, at time.Time) (bool, error) {
	res, err := r.msgs.UpdateOne(ctx,
		bson.M{"_id": messageID, "read_by.user_id": bson.M{"$ne": userID}},
		bson.M{"$push": bson.M{"read_by": models.ReadReceipt{UserID: userID, ReadAt: at}}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// AddDeleteMark appends a per-user tombstone with the same add-if-absent
// guard. Returns false if the user already deleted the message.
func (r *MessageRepository) AddDeleteMark(ctx context.Context, messageID, userID string, at time.Time) (bool, error) {
	res, err := r.msgs.UpdateOne(ctx,
		bson.M{"_id": messageID, "deleted_for.user_id": bson.M{"$ne": userID}},
		bson.M{"$push": bson.M{"deleted_for": models.DeleteMark{UserID: userID, DeletedAt: at}}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// TombstoneForEveryone sets the global tombstone and, when the message was the
// conversation's lastMessage, repoints it to the newest remaining visible
// message (or clears it). The repoint is conditional on last_message_id still
// equalling the deleted message's id, so a concurrent send that already moved
// the pointer forward is never overwritten with a stale value. Both writes run
// in one transaction.
func (r *MessageRepository) TombstoneForEveryone(ctx context.Context, m *models.Message) error {
	sess, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := r.msgs.UpdateByID(sc, m.ID, bson.M{"$set": bson.M{"deleted_for_everyone": true}}); err != nil {
			return nil, err
		}

		next, err := r.newestRemaining(sc, m.ConversationID, m.ID)
		if err != nil {
			return nil, err
		}
		set := bson.M{"last_message_id": ""}
		if next != nil {
			set = bson.M{"last_message_id": next.ID}
		}
		_, err = r.convs.UpdateOne(sc,
			bson.M{"_id": m.ConversationID, "last_message_id": m.ID},
			bson.M{"$set": set},
		)
		return nil, err
	})
	return err
}

func (r *MessageRepository) newestRemaining(ctx context.Context, conversationID, excludeID string) (*models.Message, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	filter := bson.M{
		"conversation_id":      conversationID,
		"_id":                  bson.M{"$ne": excludeID},
		"deleted_for_everyone": false,
	}
	var m models.Message
	if err := r.msgs.FindOne(ctx, filter, opts).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}
