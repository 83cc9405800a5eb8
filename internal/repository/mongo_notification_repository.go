package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/RentalBee/service-rental/internal/common/domain"
	notificationDomain "github.com/RentalBee/service-rental/internal/domain/notification"
)

const notificationsCollection = "notifications"

type notificationDocument struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Title     string    `bson:"title"`
	Message   string    `bson:"message"`
	Type      string    `bson:"type"`
	IsRead    bool      `bson:"is_read"`
	CreatedAt time.Time `bson:"created_at"`
}

// NewMongoClient connects to MongoDB and verifies the connection.
func NewMongoClient(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, nil
}

// MongoNotificationRepository stores the inbox in a MongoDB collection.
type MongoNotificationRepository struct {
	col *mongo.Collection
}

// NewMongoNotificationRepository creates the repository and its inbox index.
func NewMongoNotificationRepository(ctx context.Context, db *mongo.Database) (*MongoNotificationRepository, error) {
	col := db.Collection(notificationsCollection)
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_read", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create notification index: %w", err)
	}
	return &MongoNotificationRepository{col: col}, nil
}

func (r *MongoNotificationRepository) Save(ctx context.Context, n *notificationDomain.Notification) error {
	doc := notificationDocument{
		ID:        n.ID.String(),
		UserID:    n.UserID.String(),
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (r *MongoNotificationRepository) ListUnread(ctx context.Context, userID uuid.UUID, limit int) ([]*notificationDomain.Notification, error) {
	filter := bson.M{"user_id": userID.String(), "is_read": false}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit))
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find notifications: %w", err)
	}
	defer cur.Close(ctx)

	out := []*notificationDomain.Notification{}
	for cur.Next(ctx) {
		var doc notificationDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode notification: %w", err)
		}
		n, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}
	return out, nil
}

// MarkRead is idempotent: an already read notification still matches.
func (r *MongoNotificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	filter := bson.M{"_id": id.String(), "user_id": userID.String()}
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.NewNotFoundError("Notification", id.String())
	}
	return nil
}

func (r *MongoNotificationRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id.String(), "user_id": userID.String()})
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.NewNotFoundError("Notification", id.String())
	}
	return nil
}

func (d notificationDocument) toDomain() (*notificationDomain.Notification, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid notification id %q: %w", d.ID, err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid notification user id %q: %w", d.UserID, err)
	}
	return &notificationDomain.Notification{
		ID:        id,
		UserID:    userID,
		Title:     d.Title,
		Message:   d.Message,
		Type:      notificationDomain.Type(d.Type),
		IsRead:    d.IsRead,
		CreatedAt: d.CreatedAt.UTC(),
	}, nil
}
