// Package mongostore implements the store contracts on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
)

// Collection names
const (
	colApplications = "applications"
	colFaculties    = "faculties"
	colDepartments  = "departments"
	colStudents     = "students"
	colStaff        = "staff"
	colAdmins       = "admins"
	colCourses      = "courses"
	colVisits       = "visits"
	colContacts     = "contacts"
	colSupport      = "supports"
	colSettings     = "settings"
)

// New wires every repository to the given database. The client is needed for
// the session transactions of the enrollment repository.
func New(client *mongo.Client, db *mongo.Database) *store.Store {
	return &store.Store{
		Applicants:  &applicants{col: db.Collection(colApplications)},
		Faculties:   &faculties{col: db.Collection(colFaculties)},
		Departments: &departments{col: db.Collection(colDepartments)},
		Students:    &students{col: db.Collection(colStudents)},
		Staff:       &staffMembers{col: db.Collection(colStaff)},
		Admins:      &admins{col: db.Collection(colAdmins)},
		Courses:     &courses{col: db.Collection(colCourses)},
		Enrollments: &enrollments{
			client:   client,
			courses:  db.Collection(colCourses),
			students: db.Collection(colStudents),
		},
		Visits:   &visits{col: db.Collection(colVisits)},
		Contacts: &contacts{col: db.Collection(colContacts)},
		Support:  &tickets{col: db.Collection(colSupport)},
		Settings: &settings{col: db.Collection(colSettings)},
	}
}

var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

// EnsureIndexes creates the unique and query indexes. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
	}
	uniqueFold := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true).SetCollation(caseInsensitive)}
	}
	plain := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys}
	}

	indexes := map[string][]mongo.IndexModel{
		colApplications: {
			unique(bson.D{{Key: "email", Value: 1}}),
			unique(bson.D{{Key: "studentId", Value: 1}}),
			plain(bson.D{{Key: "status", Value: 1}, {Key: "submissionDate", Value: -1}}),
			plain(bson.D{{Key: "departmentId", Value: 1}}),
		},
		colFaculties: {
			unique(bson.D{{Key: "facultyId", Value: 1}}),
			uniqueFold(bson.D{{Key: "name", Value: 1}}),
		},
		colDepartments: {
			unique(bson.D{{Key: "departmentId", Value: 1}}),
			uniqueFold(bson.D{{Key: "faculty", Value: 1}, {Key: "name", Value: 1}}),
		},
		colStudents: {
			unique(bson.D{{Key: "email", Value: 1}}),
			unique(bson.D{{Key: "phone", Value: 1}}),
			unique(bson.D{{Key: "studentId", Value: 1}}),
		},
		colStaff: {
			unique(bson.D{{Key: "email", Value: 1}}),
			unique(bson.D{{Key: "phone", Value: 1}}),
		},
		colAdmins: {
			unique(bson.D{{Key: "email", Value: 1}}),
		},
		colCourses: {
			unique(bson.D{{Key: "courseId", Value: 1}}),
		},
		colVisits: {
			plain(bson.D{{Key: "status", Value: 1}, {Key: "visitDate", Value: 1}}),
		},
		colContacts: {
			plain(bson.D{{Key: "createdAt", Value: -1}}),
		},
		colSupport: {
			plain(bson.D{{Key: "status", Value: 1}}),
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func findOne[T any](ctx context.Context, col *mongo.Collection, filter interface{}, opts ...*options.FindOneOptions) (*T, error) {
	var out T
	if err := col.FindOne(ctx, filter, opts...).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// writeErr maps driver errors onto the store sentinels.
func writeErr(err error) error {
	if err == nil {
		return nil
	}
	if shared.IsDuplicateKey(err) {
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}
	return err
}

// matched turns a zero-match update into ErrNotFound.
func matched(res *mongo.UpdateResult, err error) error {
	if err != nil {
		return writeErr(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func deleted(res *mongo.DeleteResult, err error) error {
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
