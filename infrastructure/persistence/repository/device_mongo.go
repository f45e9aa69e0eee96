package repository

import (
	"context"

	"github.com/hilthontt/trio/domain/model"
	"github.com/hilthontt/trio/domain/repository"
	"github.com/hilthontt/trio/infrastructure/persistence/database"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type mongoDeviceRepository struct {
	collection *mongo.Collection
	tracer     trace.Tracer
}

func NewMongoDeviceRepository(db *mongo.Database, tracer trace.Tracer) repository.DeviceRepository {
	return &mongoDeviceRepository{
		collection: db.Collection(database.DevicesCollection),
		tracer:     tracer,
	}
}

func EnsureDeviceIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	}

	_, err := db.Collection(database.DevicesCollection).Indexes().CreateMany(ctx, indexes)
	return errors.Wrap(err, "failed to create device indexes")
}

func (r *mongoDeviceRepository) Upsert(ctx context.Context, device *model.Device) error {
	ctx, span := r.tracer.Start(ctx, "deviceRepository.Upsert")
	defer span.End()

	span.SetAttributes(
		attribute.String("user.id", device.UserID),
		attribute.String("device.platform", string(device.Platform)),
	)

	update := bson.M{
		"$set": bson.M{
			"user_id":    device.UserID,
			"platform":   device.Platform,
			"updated_at": device.UpdatedAt,
		},
		"$setOnInsert": bson.M{"created_at": device.CreatedAt},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := r.collection.UpdateByID(ctx, device.Token, update, opts); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upsert device")
		return translateMongoError(err, "failed to upsert device")
	}

	span.SetStatus(codes.Ok, "device registered")
	return nil
}

func (r *mongoDeviceRepository) Delete(ctx context.Context, token string) error {
	ctx, span := r.tracer.Start(ctx, "deviceRepository.Delete")
	defer span.End()

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": token})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete device")
		return translateMongoError(err, "failed to delete device")
	}
	if res.DeletedCount == 0 {
		span.SetStatus(codes.Error, "device not found")
		return model.ErrTokenNotFound
	}

	span.SetStatus(codes.Ok, "device unregistered")
	return nil
}

func (r *mongoDeviceRepository) TokensFor(ctx context.Context, userIDs []string) ([]string, error) {
	ctx, span := r.tracer.Start(ctx, "deviceRepository.TokensFor")
	defer span.End()

	span.SetAttributes(attribute.Int("users.count", len(userIDs)))

	if len(userIDs) == 0 {
		return []string{}, nil
	}

	opts := options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": bson.M{"$in": userIDs}}, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to find devices")
		return nil, translateMongoError(err, "failed to find devices")
	}
	defer cursor.Close(ctx)

	var docs []struct {
		Token string `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode devices")
		return nil, translateMongoError(err, "failed to decode devices")
	}

	tokens := make([]string, 0, len(docs))
	for _, d := range docs {
		tokens = append(tokens, d.Token)
	}

	span.SetStatus(codes.Ok, "device tokens retrieved")
	return tokens, nil
}
