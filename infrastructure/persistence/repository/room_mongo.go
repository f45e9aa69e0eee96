package repository

import (
	"context"
	"time"

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

var terminalStates = []model.RoomState{model.RoomStateLeave, model.RoomStateFinish, model.RoomStateTimeout}

type mongoRoomRepository struct {
	collection *mongo.Collection
	tracer     trace.Tracer
}

func NewMongoRoomRepository(db *mongo.Database, tracer trace.Tracer) repository.RoomRepository {
	return &mongoRoomRepository{
		collection: db.Collection(database.RoomsCollection),
		tracer:     tracer,
	}
}

func EnsureRoomIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "state", Value: 1},
				{Key: "expire_at", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "members", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}

	_, err := db.Collection(database.RoomsCollection).Indexes().CreateMany(ctx, indexes)
	return errors.Wrap(err, "failed to create room indexes")
}

func (r *mongoRoomRepository) Create(ctx context.Context, room *model.Room) error {
	ctx, span := r.tracer.Start(ctx, "roomRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("room.id", room.ID),
		attribute.Int("room.members_count", len(room.Members)),
	)

	room.Version = 1
	if _, err := r.collection.InsertOne(ctx, normalize(room)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to insert room")
		if mongo.IsDuplicateKeyError(err) {
			return model.ErrConflict
		}
		return translateMongoError(err, "failed to insert room")
	}

	span.SetStatus(codes.Ok, "room created successfully")
	return nil
}

func (r *mongoRoomRepository) GetByID(ctx context.Context, id string) (*model.Room, error) {
	ctx, span := r.tracer.Start(ctx, "roomRepository.GetByID")
	defer span.End()

	span.SetAttributes(attribute.String("room.id", id))

	var room model.Room
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&room); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get room")
		return nil, translateMongoError(err, "failed to get room")
	}

	span.SetStatus(codes.Ok, "room retrieved successfully")
	return normalize(&room), nil
}

func (r *mongoRoomRepository) FindEligible(ctx context.Context, now time.Time) ([]*model.Room, error) {
	ctx, span := r.tracer.Start(ctx, "roomRepository.FindEligible")
	defer span.End()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"state":     bson.M{"$in": model.FillingStates},
			"expire_at": bson.M{"$gt": now},
		}}},
		{{Key: "$addFields", Value: bson.M{
			"member_count": bson.M{"$size": bson.M{"$ifNull": bson.A{"$members", bson.A{}}}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "member_count", Value: 1},
			{Key: "expire_at", Value: 1},
		}}},
		{{Key: "$project", Value: bson.M{"member_count": 0}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to find eligible rooms")
		return nil, translateMongoError(err, "failed to find eligible rooms")
	}

	rooms, err := decodeRooms(ctx, cursor)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode eligible rooms")
		return nil, err
	}

	span.SetAttributes(attribute.Int("rooms.count", len(rooms)))
	span.SetStatus(codes.Ok, "eligible rooms retrieved")
	return rooms, nil
}

func (r *mongoRoomRepository) FindExpired(ctx context.Context, now time.Time) ([]*model.Room, error) {
	ctx, span := r.tracer.Start(ctx, "roomRepository.FindExpired")
	defer span.End()

	filter := bson.M{
		"state":     bson.M{"$in": model.FillingStates},
		"expire_at": bson.M{"$lt": now},
	}
	opts := options.Find().SetSort(bson.D{{Key: "expire_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to find expired rooms")
		return nil, translateMongoError(err, "failed to find expired rooms")
	}

	rooms, err := decodeRooms(ctx, cursor)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode expired rooms")
		return nil, err
	}

	span.SetAttributes(attribute.Int("rooms.count", len(rooms)))
	span.SetStatus(codes.Ok, "expired rooms retrieved")
	return rooms, nil
}

func (r *mongoRoomRepository) FindActiveByMember(ctx context.Context, userID string) (*model.Room, error) {
	ctx, span := r.tracer.Start(ctx, "roomRepository.FindActiveByMember")
	defer span.End()

	span.SetAttributes(attribute.String("user.id", userID))

	filter := bson.M{
		"members": userID,
		"state":   bson.M{"$in": model.ActiveStates},
	}

	var room model.Room
	if err := r.collection.FindOne(ctx, filter).Decode(&room); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			span.SetStatus(codes.Ok, "user has no active room")
			return nil, model.ErrNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to find active room")
		return nil, translateMongoError(err, "failed to find active room")
	}

	span.SetStatus(codes.Ok, "active room found")
	return normalize(&room), nil
}

func (r *mongoRoomRepository) Save(ctx context.Context, room *model.Room) error {
	ctx, span := r.tracer.Start(ctx, "roomRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("room.id", room.ID),
		attribute.Int64("room.version", room.Version),
		attribute.String("room.state", room.State.String()),
	)

	room = normalize(room)
	filter := bson.M{
		"_id":     room.ID,
		"version": room.Version,
		"state":   bson.M{"$nin": terminalStates},
	}
	update := bson.M{
		"$set": bson.M{
			"title":         room.Title,
			"owner":         room.Owner,
			"members":       room.Members,
			"members_leave": room.MembersLeave,
			"expire_at":     room.ExpireAt,
			"state":         room.State,
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update room")
		return translateMongoError(err, "failed to update room")
	}

	if res.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": room.ID})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to check room existence")
			return translateMongoError(err, "failed to check room existence")
		}
		if count == 0 {
			span.SetStatus(codes.Error, "room not found")
			return model.ErrNotFound
		}
		span.SetStatus(codes.Error, "room version conflict")
		return model.ErrConflict
	}

	room.Version++
	span.SetStatus(codes.Ok, "room saved successfully")
	return nil
}

func (r *mongoRoomRepository) MarkExpired(ctx context.Context, ids []string, now time.Time) ([]*model.Room, error) {
	ctx, span := r.tracer.Start(ctx, "roomRepository.MarkExpired")
	defer span.End()

	span.SetAttributes(attribute.Int("rooms.requested", len(ids)))

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{
		"$set": bson.M{"state": model.RoomStateTimeout},
		"$inc": bson.M{"version": 1},
	}

	expired := make([]*model.Room, 0, len(ids))
	for _, id := range ids {
		filter := bson.M{
			"_id":       id,
			"state":     bson.M{"$in": model.FillingStates},
			"expire_at": bson.M{"$lt": now},
		}

		var room model.Room
		err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&room)
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to expire room")
			return expired, translateMongoError(err, "failed to expire room "+id)
		}
		expired = append(expired, normalize(&room))
	}

	span.SetAttributes(attribute.Int("rooms.expired", len(expired)))
	span.SetStatus(codes.Ok, "rooms expired")
	return expired, nil
}

func (r *mongoRoomRepository) List(ctx context.Context, limit int) ([]*model.Room, error) {
	ctx, span := r.tracer.Start(ctx, "roomRepository.List")
	defer span.End()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list rooms")
		return nil, translateMongoError(err, "failed to list rooms")
	}

	rooms, err := decodeRooms(ctx, cursor)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode rooms")
		return nil, err
	}

	span.SetStatus(codes.Ok, "rooms listed")
	return rooms, nil
}

func decodeRooms(ctx context.Context, cursor *mongo.Cursor) ([]*model.Room, error) {
	defer cursor.Close(ctx)

	var docs []model.Room
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translateMongoError(err, "failed to decode rooms")
	}

	rooms := make([]*model.Room, 0, len(docs))
	for i := range docs {
		rooms = append(rooms, normalize(&docs[i]))
	}
	return rooms, nil
}

// normalize replaces nil member lists so documents never store null arrays.
func normalize(room *model.Room) *model.Room {
	if room.Members == nil {
		room.Members = []string{}
	}
	if room.MembersLeave == nil {
		room.MembersLeave = []string{}
	}
	return room
}

func translateMongoError(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return model.ErrNotFound
	case mongo.IsTimeout(err), mongo.IsNetworkError(err),
		errors.Is(err, context.DeadlineExceeded), errors.Is(err, mongo.ErrClientDisconnected):
		return errors.Wrapf(model.ErrStorageUnavailable, "%s: %v", msg, err)
	default:
		return errors.Wrap(err, msg)
	}
}
