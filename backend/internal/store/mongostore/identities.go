package mongostore

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
)

type students struct {
	col *mongo.Collection
}

func (r *students) Create(ctx context.Context, s *shared.Student) error {
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	// $push and $size need arrays, not nulls.
	if s.Courses == nil {
		s.Courses = []shared.CourseSnapshot{}
	}
	if s.Exams == nil {
		s.Exams = []shared.ExamRegistration{}
	}
	if s.RecentActivity == nil {
		s.RecentActivity = []shared.Activity{}
	}
	_, err := r.col.InsertOne(ctx, s)
	return writeErr(err)
}

func (r *students) Get(ctx context.Context, id primitive.ObjectID) (*shared.Student, error) {
	return findOne[shared.Student](ctx, r.col, bson.M{"_id": id})
}

func (r *students) GetByEmail(ctx context.Context, email string) (*shared.Student, error) {
	return findOne[shared.Student](ctx, r.col, bson.M{"email": email})
}

func (r *students) GetByStudentID(ctx context.Context, studentID string) (*shared.Student, error) {
	return findOne[shared.Student](ctx, r.col, bson.M{"studentId": studentID})
}

func (r *students) GetByPhone(ctx context.Context, phone string) (*shared.Student, error) {
	return findOne[shared.Student](ctx, r.col, bson.M{"phone": phone})
}

func (r *students) List(ctx context.Context, f store.StudentFilter) ([]shared.Student, int64, error) {
	filter := bson.M{}
	if q := strings.TrimSpace(f.Search); q != "" {
		filter["$or"] = bson.A{
			bson.M{"firstName": shared.ContainsFold(q)},
			bson.M{"lastName": shared.ContainsFold(q)},
			bson.M{"email": shared.ContainsFold(q)},
			bson.M{"studentId": shared.ContainsFold(q)},
		}
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := shared.BuildFindOptions(f.Skip, f.Limit, bson.D{{Key: "createdAt", Value: -1}})
	items, err := findAll[shared.Student](ctx, r.col, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *students) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

func (r *students) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleted(r.col.DeleteOne(ctx, bson.M{"_id": id}))
}

func (r *students) set(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updatedAt"] = time.Now()
	return matched(r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields}))
}

func (r *students) UpdateProfile(ctx context.Context, id primitive.ObjectID, p store.StudentProfile) error {
	return r.set(ctx, id, bson.M{
		"firstName": p.FirstName,
		"lastName":  p.LastName,
		"phone":     p.Phone,
		"age":       p.Age,
	})
}

func (r *students) SetOTP(ctx context.Context, id primitive.ObjectID, otp string, expiresAt time.Time) error {
	return r.set(ctx, id, bson.M{"otp": otp, "otpVerified": false, "otpExpiresAt": expiresAt})
}

func (r *students) MarkOTPVerified(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{
		"$set":   bson.M{"otpVerified": true, "updatedAt": time.Now()},
		"$unset": bson.M{"otp": "", "otpExpiresAt": ""},
	}
	return matched(r.col.UpdateOne(ctx, bson.M{"_id": id}, update))
}

func (r *students) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return r.set(ctx, id, bson.M{"passwordHash": hash, "otpVerified": false})
}

func (r *students) SetAdmin(ctx context.Context, id primitive.ObjectID, isAdmin bool) error {
	return r.set(ctx, id, bson.M{"isAdmin": isAdmin})
}

func (r *students) TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return r.set(ctx, id, bson.M{"lastLogin": at})
}

func (r *students) AddExams(ctx context.Context, id primitive.ObjectID, exams []shared.ExamRegistration, activity shared.Activity) error {
	each := make(bson.A, 0, len(exams))
	courseIDs := make([]string, 0, len(exams))
	for _, e := range exams {
		each = append(each, e)
		courseIDs = append(courseIDs, e.CourseID)
	}
	update := bson.M{
		"$push": bson.M{
			"exams":          bson.M{"$each": each},
			"recentActivity": activity,
		},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	filter := bson.M{"_id": id, "exams.courseId": bson.M{"$nin": courseIDs}}
	err := matched(r.col.UpdateOne(ctx, filter, update))
	if errors.Is(err, store.ErrNotFound) {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return store.ErrConflict
	}
	return err
}

func (r *students) RemoveExams(ctx context.Context, id primitive.ObjectID, courseIDs []string, activity shared.Activity) error {
	update := bson.M{
		"$pull": bson.M{"exams": bson.M{"courseId": bson.M{"$in": courseIDs}}},
		"$push": bson.M{"recentActivity": activity},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	return matched(r.col.UpdateOne(ctx, bson.M{"_id": id}, update))
}

type staffMembers struct {
	col *mongo.Collection
}

func (r *staffMembers) Create(ctx context.Context, s *shared.Staff) error {
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, s)
	return writeErr(err)
}

func (r *staffMembers) Get(ctx context.Context, id primitive.ObjectID) (*shared.Staff, error) {
	return findOne[shared.Staff](ctx, r.col, bson.M{"_id": id})
}

func (r *staffMembers) GetByEmail(ctx context.Context, email string) (*shared.Staff, error) {
	return findOne[shared.Staff](ctx, r.col, bson.M{"email": email})
}

func (r *staffMembers) GetByPhone(ctx context.Context, phone string) (*shared.Staff, error) {
	return findOne[shared.Staff](ctx, r.col, bson.M{"phone": phone})
}

func (r *staffMembers) List(ctx context.Context, f store.StaffFilter) ([]shared.Staff, error) {
	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.ActiveOnly {
		filter["isActive"] = true
	}
	return findAll[shared.Staff](ctx, r.col, filter, shared.BuildFindOptions(0, 0, bson.D{{Key: "lastName", Value: 1}}))
}

func (r *staffMembers) Update(ctx context.Context, s *shared.Staff) error {
	return matched(r.col.ReplaceOne(ctx, bson.M{"_id": s.ID}, s))
}

func (r *staffMembers) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleted(r.col.DeleteOne(ctx, bson.M{"_id": id}))
}

func (r *staffMembers) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

func (r *staffMembers) TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return matched(r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"lastLogin": at}}))
}

func (r *staffMembers) SetPassword(ctx context.Context, id primitive.ObjectID, hash string, mustChange bool) error {
	update := bson.M{"$set": bson.M{
		"passwordHash":       hash,
		"mustChangePassword": mustChange,
		"updatedAt":          time.Now(),
	}}
	return matched(r.col.UpdateOne(ctx, bson.M{"_id": id}, update))
}

type admins struct {
	col *mongo.Collection
}

func (r *admins) Create(ctx context.Context, a *shared.Admin) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, a)
	return writeErr(err)
}

func (r *admins) Get(ctx context.Context, id primitive.ObjectID) (*shared.Admin, error) {
	return findOne[shared.Admin](ctx, r.col, bson.M{"_id": id})
}

func (r *admins) GetByEmail(ctx context.Context, email string) (*shared.Admin, error) {
	return findOne[shared.Admin](ctx, r.col, bson.M{"email": email})
}

func (r *admins) TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return matched(r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"lastLogin": at}}))
}

func (r *admins) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return matched(r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"passwordHash": hash,
		"updatedAt":    time.Now(),
	}}))
}
