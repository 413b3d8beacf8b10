package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
)

type visits struct {
	col *mongo.Collection
}

func (r *visits) Create(ctx context.Context, v *shared.Visit) error {
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	if v.Interests == nil {
		v.Interests = []string{}
	}
	_, err := r.col.InsertOne(ctx, v)
	return writeErr(err)
}

func (r *visits) Get(ctx context.Context, id primitive.ObjectID) (*shared.Visit, error) {
	return findOne[shared.Visit](ctx, r.col, bson.M{"_id": id})
}

func (r *visits) List(ctx context.Context, f store.VisitFilter) ([]shared.Visit, int64, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	sortField := "createdAt"
	if f.SortBy == "visitDate" {
		sortField = "visitDate"
	}
	order := 1
	if f.SortDesc {
		order = -1
	}
	opts := shared.BuildFindOptions(f.Skip, f.Limit, bson.D{{Key: sortField, Value: order}})
	items, err := findAll[shared.Visit](ctx, r.col, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *visits) UpdateStatus(ctx context.Context, id primitive.ObjectID, status, notes string) (*shared.Visit, error) {
	set := bson.M{"status": status, "updatedAt": time.Now()}
	if notes != "" {
		set["adminNotes"] = notes
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var out shared.Visit
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&out); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (r *visits) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleted(r.col.DeleteOne(ctx, bson.M{"_id": id}))
}

func (r *visits) Stats(ctx context.Context, now time.Time) (*store.VisitStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	stats := &store.VisitStats{ByStatus: make(map[string]int64, len(rows))}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
		stats.Total += row.Count
	}

	stats.Upcoming, err = r.col.CountDocuments(ctx, bson.M{
		"visitDate": bson.M{"$gt": now},
		"status":    bson.M{"$ne": shared.VisitCancelled},
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

type contacts struct {
	col *mongo.Collection
}

func (r *contacts) Create(ctx context.Context, c *shared.Contact) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, c)
	return writeErr(err)
}

func (r *contacts) List(ctx context.Context, limit int64) ([]shared.Contact, error) {
	return findAll[shared.Contact](ctx, r.col, bson.M{}, shared.BuildFindOptions(0, limit, bson.D{{Key: "createdAt", Value: -1}}))
}

func (r *contacts) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleted(r.col.DeleteOne(ctx, bson.M{"_id": id}))
}

type tickets struct {
	col *mongo.Collection
}

func (r *tickets) Create(ctx context.Context, t *shared.SupportTicket) error {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, t)
	return writeErr(err)
}

func (r *tickets) List(ctx context.Context, status string) ([]shared.SupportTicket, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return findAll[shared.SupportTicket](ctx, r.col, filter, shared.BuildFindOptions(0, 0, bson.D{{Key: "createdAt", Value: -1}}))
}

func (r *tickets) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) (*shared.SupportTicket, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}}

	var out shared.SupportTicket
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&out); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (r *tickets) CountByStatus(ctx context.Context, status string) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"status": status})
}

type settings struct {
	col *mongo.Collection
}

func (r *settings) Get(ctx context.Context) (*shared.Settings, error) {
	return findOne[shared.Settings](ctx, r.col, bson.M{})
}

func (r *settings) Save(ctx context.Context, s *shared.Settings) error {
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": s.ID}, s, options.Replace().SetUpsert(true))
	return writeErr(err)
}
