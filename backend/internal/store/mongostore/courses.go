package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
)

type courses struct {
	col *mongo.Collection
}

func (r *courses) Create(ctx context.Context, c *shared.Course) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.Students == nil {
		c.Students = []primitive.ObjectID{}
	}
	if c.Materials == nil {
		c.Materials = []string{}
	}
	_, err := r.col.InsertOne(ctx, c)
	return writeErr(err)
}

func (r *courses) Get(ctx context.Context, id primitive.ObjectID) (*shared.Course, error) {
	return findOne[shared.Course](ctx, r.col, bson.M{"_id": id})
}

func (r *courses) GetByCourseID(ctx context.Context, courseID string) (*shared.Course, error) {
	return findOne[shared.Course](ctx, r.col, bson.M{"courseId": courseID})
}

func (r *courses) List(ctx context.Context, activeOnly bool) ([]shared.Course, error) {
	filter := bson.M{}
	if activeOnly {
		filter["isActive"] = true
	}
	return findAll[shared.Course](ctx, r.col, filter, shared.BuildFindOptions(0, 0, bson.D{{Key: "courseId", Value: 1}}))
}

func (r *courses) UpdateDetails(ctx context.Context, c *shared.Course) error {
	materials := c.Materials
	if materials == nil {
		materials = []string{}
	}
	update := bson.M{"$set": bson.M{
		"courseId":    c.CourseID,
		"name":        c.Name,
		"description": c.Description,
		"instructor":  c.Instructor,
		"maxStudents": c.MaxStudents,
		"duration":    c.Duration,
		"schedule":    c.Schedule,
		"materials":   materials,
		"isActive":    c.IsActive,
		"updatedAt":   c.UpdatedAt,
	}}
	return matched(r.col.UpdateOne(ctx, bson.M{"_id": c.ID}, update))
}

func (r *courses) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleted(r.col.DeleteOne(ctx, bson.M{"_id": id}))
}

func (r *courses) CountActive(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"isActive": true})
}

func (r *courses) RemoveStudent(ctx context.Context, student primitive.ObjectID) error {
	_, err := r.col.UpdateMany(ctx, bson.M{"students": student}, bson.M{"$pull": bson.M{"students": student}})
	return err
}

type enrollments struct {
	client   *mongo.Client
	courses  *mongo.Collection
	students *mongo.Collection
}

// Enroll writes the roster first under the capacity predicate, then the
// student's snapshot, inside one transaction.
func (r *enrollments) Enroll(ctx context.Context, op store.EnrollOp) error {
	return shared.WithTransaction(ctx, r.client, func(sessCtx mongo.SessionContext) error {
		now := time.Now()

		courseFilter := bson.M{
			"_id":      op.Course,
			"isActive": true,
			"students": bson.M{"$ne": op.Student},
			"$expr":    bson.M{"$lt": bson.A{bson.M{"$size": "$students"}, "$maxStudents"}},
		}
		courseUpdate := bson.M{
			"$push": bson.M{"students": op.Student},
			"$set":  bson.M{"updatedAt": now},
		}
		res, err := r.courses.UpdateOne(sessCtx, courseFilter, courseUpdate)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return r.enrollMiss(sessCtx, op)
		}

		studentFilter := bson.M{
			"_id":              op.Student,
			"courses.courseId": bson.M{"$ne": op.Snapshot.CourseID},
		}
		studentUpdate := bson.M{
			"$push": bson.M{
				"courses":        op.Snapshot,
				"recentActivity": op.Activity,
			},
			"$set": bson.M{"updatedAt": now},
		}
		res, err = r.students.UpdateOne(sessCtx, studentFilter, studentUpdate)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return store.ErrConflict
		}
		return nil
	})
}

// enrollMiss tells apart the reasons the roster predicate matched nothing
func (r *enrollments) enrollMiss(ctx context.Context, op store.EnrollOp) error {
	course, err := findOne[shared.Course](ctx, r.courses, bson.M{"_id": op.Course})
	if err != nil {
		return err
	}
	switch {
	case !course.IsActive:
		return store.ErrInactive
	case course.HasStudent(op.Student):
		return store.ErrConflict
	}
	return store.ErrCapacity
}

// Unenroll removes both sides of the relationship and any exam registration
// for the course, inside one transaction.
func (r *enrollments) Unenroll(ctx context.Context, op store.UnenrollOp) error {
	return shared.WithTransaction(ctx, r.client, func(sessCtx mongo.SessionContext) error {
		now := time.Now()

		res, err := r.courses.UpdateOne(sessCtx,
			bson.M{"_id": op.Course, "students": op.Student},
			bson.M{"$pull": bson.M{"students": op.Student}, "$set": bson.M{"updatedAt": now}},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return store.ErrConflict
		}

		res, err = r.students.UpdateOne(sessCtx,
			bson.M{"_id": op.Student},
			bson.M{
				"$pull": bson.M{
					"courses": bson.M{"courseId": op.CourseID},
					"exams":   bson.M{"courseId": op.CourseID},
				},
				"$push": bson.M{"recentActivity": op.Activity},
				"$set":  bson.M{"updatedAt": now},
			},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}
