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

type applicants struct {
	col *mongo.Collection
}

func (r *applicants) Create(ctx context.Context, a *shared.Applicant) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, a)
	return writeErr(err)
}

func (r *applicants) Get(ctx context.Context, id primitive.ObjectID) (*shared.Applicant, error) {
	return findOne[shared.Applicant](ctx, r.col, bson.M{"_id": id})
}

func (r *applicants) GetByEmail(ctx context.Context, email string) (*shared.Applicant, error) {
	return findOne[shared.Applicant](ctx, r.col, bson.M{"email": email})
}

func (r *applicants) List(ctx context.Context, f store.ApplicantFilter) ([]shared.Applicant, int64, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := shared.BuildFindOptions(f.Skip, f.Limit, bson.D{{Key: "submissionDate", Value: -1}, {Key: "_id", Value: -1}})
	items, err := findAll[shared.Applicant](ctx, r.col, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *applicants) UpdateStatus(ctx context.Context, id primitive.ObjectID, status, remarks string, reviewedAt time.Time) (*shared.Applicant, error) {
	update := bson.M{"$set": bson.M{
		"status":     status,
		"remarks":    remarks,
		"reviewedAt": reviewedAt,
		"updatedAt":  reviewedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var out shared.Applicant
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&out); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (r *applicants) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleted(r.col.DeleteOne(ctx, bson.M{"_id": id}))
}

func (r *applicants) CountByStatus(ctx context.Context) (map[string]int64, error) {
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

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *applicants) CountByDepartment(ctx context.Context, departmentID primitive.ObjectID) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"departmentId": departmentID})
}
