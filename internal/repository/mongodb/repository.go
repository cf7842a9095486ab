package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/viberbot/internal/domain/models"
)

const (
	subscribersCollection = "subscribers"
	reportsCollection     = "delivery_reports"
)

// Repository defines the interface for subscriber and report storage.
type Repository interface {
	UpsertSubscriber(ctx context.Context, subscriber models.Subscriber) error
	MarkUnsubscribed(ctx context.Context, userID string, at time.Time) error
	ListActiveSubscribers(ctx context.Context) ([]models.Subscriber, error)
	SaveDeliveryReport(ctx context.Context, report models.DeliveryReport) error
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

// UpsertSubscriber stores the profile and marks the user as subscribed.
// A re-subscription clears the previous unsubscribe date.
func (r *MongoDBRepository) UpsertSubscriber(ctx context.Context, subscriber models.Subscriber) error {
	subscriber.Subscribed = true
	subscriber.UnsubscribedAt = nil
	if subscriber.SubscribedAt.IsZero() {
		subscriber.SubscribedAt = time.Now().UTC()
	}

	_, err := r.db.Collection(subscribersCollection).ReplaceOne(ctx,
		bson.M{"_id": subscriber.ID},
		subscriber,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert subscriber %s: %w", subscriber.ID, err)
	}
	return nil
}

// MarkUnsubscribed flags a user as gone. Unknown users are recorded too so
// the history is complete.
func (r *MongoDBRepository) MarkUnsubscribed(ctx context.Context, userID string, at time.Time) error {
	update := bson.M{"$set": bson.M{"subscribed": false, "unsubscribed_at": at.UTC()}}
	_, err := r.db.Collection(subscribersCollection).UpdateOne(ctx,
		bson.M{"_id": userID},
		update,
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to unsubscribe %s: %w", userID, err)
	}
	return nil
}

// ListActiveSubscribers returns every subscribed user, oldest first.
func (r *MongoDBRepository) ListActiveSubscribers(ctx context.Context) ([]models.Subscriber, error) {
	cursor, err := r.db.Collection(subscribersCollection).Find(ctx,
		bson.M{"subscribed": true},
		options.Find().SetSort(bson.D{{Key: "subscribed_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query subscribers: %w", err)
	}

	var subscribers []models.Subscriber
	if err := cursor.All(ctx, &subscribers); err != nil {
		return nil, fmt.Errorf("failed to decode subscribers: %w", err)
	}
	return subscribers, nil
}

// SaveDeliveryReport saves a delivery report to the database.
func (r *MongoDBRepository) SaveDeliveryReport(ctx context.Context, report models.DeliveryReport) error {
	_, err := r.db.Collection(reportsCollection).InsertOne(ctx, report)
	if err != nil {
		return fmt.Errorf("failed to insert delivery report: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
