// ============================================================================
// backend/cmd/seeder/main.go
// Loads the faculty/department catalogue and starter courses
// ============================================================================

package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"os"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gopkg.in/yaml.v3"

	"schooladmin/backend/internal/catalog"
	"schooladmin/backend/internal/course"
	"schooladmin/backend/internal/logger"
	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
	"schooladmin/backend/internal/store/mongostore"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// seedFile is the layout of catalog.yaml
type seedFile struct {
	catalog.SeedCatalog `yaml:",inline"`
	Courses             []seedCourse `yaml:"courses"`
}

type seedCourse struct {
	CourseID    string   `yaml:"courseId"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	MaxStudents int      `yaml:"maxStudents"`
	Duration    int      `yaml:"duration"`
	Materials   []string `yaml:"materials"`
	Schedule    struct {
		Days      []string `yaml:"days"`
		StartTime string   `yaml:"startTime"`
		EndTime   string   `yaml:"endTime"`
	} `yaml:"schedule"`
}

type seedResult struct {
	Catalog        *catalog.SeedResult
	CoursesCreated int
	CoursesSkipped int
}

func parseSeedFile(data []byte) (*seedFile, error) {
	var doc seedFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &doc, nil
}

// seed upserts the catalogue and creates courses that do not exist yet
func seed(ctx context.Context, st *store.Store, doc *seedFile, withCourses bool) (*seedResult, error) {
	res := &seedResult{}

	cat, err := catalog.NewCatalogService(st).Seed(ctx, doc.SeedCatalog)
	res.Catalog = cat
	if err != nil {
		return res, err
	}
	if !withCourses {
		return res, nil
	}

	courses := course.NewCourseService(st, nil)
	for _, c := range doc.Courses {
		_, err := courses.CreateCourse(ctx, course.CourseInput{
			CourseID:    c.CourseID,
			Name:        c.Name,
			Description: c.Description,
			MaxStudents: c.MaxStudents,
			Duration:    c.Duration,
			Materials:   c.Materials,
			Schedule: shared.Schedule{
				Days:      c.Schedule.Days,
				StartTime: c.Schedule.StartTime,
				EndTime:   c.Schedule.EndTime,
			},
		})
		switch status.Code(err) {
		case codes.OK:
			res.CoursesCreated++
		case codes.AlreadyExists:
			res.CoursesSkipped++
		default:
			return res, fmt.Errorf("course %s: %w", c.CourseID, err)
		}
	}
	return res, nil
}

func main() {
	file := flag.String("file", "", "seed file to load instead of the embedded catalog.yaml")
	withCourses := flag.Bool("courses", true, "also create the starter courses")
	flag.Parse()

	_ = shared.LoadEnv(".env")
	cfg, err := shared.LoadServiceConfig("seeder")
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.StoreDriver != shared.StoreDriverMongo {
		logger.Fatal().Str("store", cfg.StoreDriver).Msg("the seeder needs STORE_DRIVER=mongo")
	}

	data := embeddedCatalog
	if *file != "" {
		if data, err = os.ReadFile(*file); err != nil {
			logger.Fatal().Err(err).Str("file", *file).Msg("cannot read seed file")
		}
	}
	doc, err := parseSeedFile(data)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid seed file")
	}

	client, db, err := shared.ConnectMongoDB(&cfg.MongoDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer func() {
		if err := shared.DisconnectMongoDB(client); err != nil {
			logger.Error().Err(err).Msg("error disconnecting from MongoDB")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		logger.Fatal().Err(err).Msg("failed to create indexes")
	}

	res, err := seed(ctx, mongostore.New(client, db), doc, *withCourses)
	if err != nil {
		cancel()
		_ = shared.DisconnectMongoDB(client)
		logger.Fatal().Err(err).Msg("seeding stopped")
	}
	logger.Info().
		Int("faculties_created", res.Catalog.FacultiesCreated).
		Int("departments_created", res.Catalog.DepartmentsCreated).
		Int("courses_created", res.CoursesCreated).
		Int("courses_skipped", res.CoursesSkipped).
		Msg("seeding completed")
}
