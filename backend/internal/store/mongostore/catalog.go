package mongostore

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
)

var byOrderThenName = bson.D{{Key: "order", Value: 1}, {Key: "name", Value: 1}}

type faculties struct {
	col *mongo.Collection
}

func (r *faculties) Create(ctx context.Context, f *shared.Faculty) error {
	if f.ID.IsZero() {
		f.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, f)
	return writeErr(err)
}

func (r *faculties) Get(ctx context.Context, id primitive.ObjectID) (*shared.Faculty, error) {
	return findOne[shared.Faculty](ctx, r.col, bson.M{"_id": id})
}

func (r *faculties) GetByCode(ctx context.Context, facultyID string) (*shared.Faculty, error) {
	return findOne[shared.Faculty](ctx, r.col, bson.M{"facultyId": facultyID})
}

func (r *faculties) GetByName(ctx context.Context, name string) (*shared.Faculty, error) {
	return findOne[shared.Faculty](ctx, r.col, bson.M{"name": shared.ExactFold(strings.TrimSpace(name))})
}

func (r *faculties) List(ctx context.Context, includeInactive bool) ([]shared.Faculty, error) {
	filter := bson.M{}
	if !includeInactive {
		filter["isActive"] = true
	}
	return findAll[shared.Faculty](ctx, r.col, filter, shared.BuildFindOptions(0, 0, byOrderThenName))
}

func (r *faculties) Update(ctx context.Context, f *shared.Faculty) error {
	return matched(r.col.ReplaceOne(ctx, bson.M{"_id": f.ID}, f))
}

func (r *faculties) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleted(r.col.DeleteOne(ctx, bson.M{"_id": id}))
}

func (r *faculties) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

type departments struct {
	col *mongo.Collection
}

func (r *departments) Create(ctx context.Context, d *shared.Department) error {
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	if d.Courses == nil {
		d.Courses = []shared.ProgramCourse{}
	}
	_, err := r.col.InsertOne(ctx, d)
	return writeErr(err)
}

func (r *departments) Get(ctx context.Context, id primitive.ObjectID) (*shared.Department, error) {
	return findOne[shared.Department](ctx, r.col, bson.M{"_id": id})
}

func (r *departments) GetByCode(ctx context.Context, departmentID string) (*shared.Department, error) {
	return findOne[shared.Department](ctx, r.col, bson.M{"departmentId": departmentID})
}

func (r *departments) GetByName(ctx context.Context, faculty *primitive.ObjectID, name string) (*shared.Department, error) {
	filter := bson.M{"name": shared.ExactFold(strings.TrimSpace(name))}
	if faculty != nil {
		filter["faculty"] = *faculty
	}
	return findOne[shared.Department](ctx, r.col, filter)
}

func (r *departments) List(ctx context.Context, f store.DepartmentFilter) ([]shared.Department, error) {
	filter := bson.M{}
	if f.Faculty != nil {
		filter["faculty"] = *f.Faculty
	}
	if !f.IncludeInactive {
		filter["isActive"] = true
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		filter["$or"] = bson.A{
			bson.M{"name": shared.ContainsFold(q)},
			bson.M{"description": shared.ContainsFold(q)},
		}
	}
	return findAll[shared.Department](ctx, r.col, filter, shared.BuildFindOptions(0, f.Limit, byOrderThenName))
}

func (r *departments) Update(ctx context.Context, d *shared.Department) error {
	if d.Courses == nil {
		d.Courses = []shared.ProgramCourse{}
	}
	return matched(r.col.ReplaceOne(ctx, bson.M{"_id": d.ID}, d))
}

func (r *departments) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleted(r.col.DeleteOne(ctx, bson.M{"_id": id}))
}

func (r *departments) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

func (r *departments) CountByFaculty(ctx context.Context, faculty primitive.ObjectID) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"faculty": faculty})
}
