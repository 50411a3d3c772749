package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ccnuzw/task-dispatch/internal/models"
	"github.com/ccnuzw/task-dispatch/internal/repository"
	"github.com/ccnuzw/task-dispatch/internal/schedule"
)

// DistributionServiceTestSuite exercises preview and materialization
// against a real in-memory database
type DistributionServiceTestSuite struct {
	suite.Suite
	db           *gorm.DB
	templateRepo repository.TemplateRepository
	taskRepo     repository.TaskRepository
	dist         *DistributionService
}

func (suite *DistributionServiceTestSuite) SetupTest() {
	var err error
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(
		&models.Organization{},
		&models.Department{},
		&models.User{},
		&models.CollectionPoint{},
		&models.CollectionPointOwner{},
		&models.TaskTemplate{},
		&models.Task{},
	)
	suite.Require().NoError(err)

	suite.templateRepo = repository.NewTemplateRepository(suite.db)
	suite.taskRepo = repository.NewTaskRepository(suite.db)
	orgRepo := repository.NewOrganizationRepository(suite.db)
	pointRepo := repository.NewCollectionPointRepository(suite.db)
	assignments := NewAssignmentService(orgRepo, pointRepo)
	suite.dist = NewDistributionService(suite.templateRepo, suite.taskRepo, pointRepo, assignments)
}

func (suite *DistributionServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *DistributionServiceTestSuite) createUser(name string) *models.User {
	user := &models.User{Name: name, Email: name + "@example.com", IsActive: true}
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

func (suite *DistributionServiceTestSuite) createPoint(name string, pointType models.PointType) *models.CollectionPoint {
	point := &models.CollectionPoint{
		Name:             name,
		PointType:        pointType,
		DefaultCycleType: models.CycleDaily,
		IsActive:         true,
	}
	suite.Require().NoError(suite.db.Create(point).Error)
	return point
}

func (suite *DistributionServiceTestSuite) addOwner(pointID, userID uint64) {
	owner := &models.CollectionPointOwner{PointID: pointID, UserID: userID}
	suite.Require().NoError(suite.db.Create(owner).Error)
}

func (suite *DistributionServiceTestSuite) createPortTemplate() *models.TaskTemplate {
	tpl := &models.TaskTemplate{
		Name:               "Port collection",
		TaskType:           models.TaskTypeCollection,
		CycleType:          models.CycleDaily,
		ScheduleMode:       models.ScheduleTemplateOverride,
		RunAtMinute:        9 * 60,
		DueAtMinute:        17 * 60,
		AllowLate:          true,
		MaxBackfillPeriods: 3,
		AssigneeMode:       models.AssignByPoint,
		TargetPointTypes:   models.StringList{"PORT"},
		IsActive:           true,
	}
	suite.Require().NoError(suite.db.Create(tpl).Error)
	return tpl
}

// TestPreview_PointFanOutWithUnassigned covers the many-owner fan-out and
// the ownerless-point signal: three PORT points, one with two owners, one
// with one owner, one with none.
func (suite *DistributionServiceTestSuite) TestPreview_PointFanOutWithUnassigned() {
	u1 := suite.createUser("alice")
	u2 := suite.createUser("bob")
	u3 := suite.createUser("carol")
	p1 := suite.createPoint("North port", models.PointTypePort)
	p2 := suite.createPoint("South port", models.PointTypePort)
	p3 := suite.createPoint("East port", models.PointTypePort)
	suite.addOwner(p1.ID, u1.ID)
	suite.addOwner(p1.ID, u2.ID)
	suite.addOwner(p2.ID, u3.ID)

	tpl := suite.createPortTemplate()
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	preview, err := suite.dist.Preview(context.Background(), tpl.ID, now)
	suite.Require().NoError(err)

	assert.Equal(suite.T(), 3, preview.TotalTasks)
	assert.Equal(suite.T(), 3, preview.TotalAssignees)
	assert.Equal(suite.T(), "2025-03-10", preview.PeriodKey)
	suite.Require().Len(preview.UnassignedPoints, 1)
	assert.Equal(suite.T(), p3.ID, preview.UnassignedPoints[0].ID)
	assert.Equal(suite.T(), "East port", preview.UnassignedPoints[0].Name)
}

// TestPreview_Idempotent verifies repeated previews with unchanged
// registry state return identical output and create nothing.
func (suite *DistributionServiceTestSuite) TestPreview_Idempotent() {
	u1 := suite.createUser("alice")
	p1 := suite.createPoint("North port", models.PointTypePort)
	suite.addOwner(p1.ID, u1.ID)
	tpl := suite.createPortTemplate()

	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	first, err := suite.dist.Preview(context.Background(), tpl.ID, now)
	suite.Require().NoError(err)
	second, err := suite.dist.Preview(context.Background(), tpl.ID, now)
	suite.Require().NoError(err)

	assert.Equal(suite.T(), first, second)

	var count int64
	suite.db.Model(&models.Task{}).Count(&count)
	assert.Zero(suite.T(), count)
}

// TestMaterialize_Idempotent verifies created=K then created=0/skipped=K
// for the same occurrence.
func (suite *DistributionServiceTestSuite) TestMaterialize_Idempotent() {
	u1 := suite.createUser("alice")
	u2 := suite.createUser("bob")
	p1 := suite.createPoint("North port", models.PointTypePort)
	suite.addOwner(p1.ID, u1.ID)
	suite.addOwner(p1.ID, u2.ID)
	tpl := suite.createPortTemplate()

	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	occ := schedule.NextOccurrence(tpl, now)
	suite.Require().NotNil(occ)

	first, err := suite.dist.Materialize(context.Background(), tpl, *occ)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 2, first.Created)
	assert.Equal(suite.T(), 0, first.Skipped)

	second, err := suite.dist.Materialize(context.Background(), tpl, *occ)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 0, second.Created)
	assert.Equal(suite.T(), 2, second.Skipped)

	var count int64
	suite.db.Model(&models.Task{}).Count(&count)
	assert.Equal(suite.T(), int64(2), count)
}

// TestExecute_OneTimeLifecycle runs a ONE_TIME template once and verifies
// no further occurrence exists afterwards.
func (suite *DistributionServiceTestSuite) TestExecute_OneTimeLifecycle() {
	u1 := suite.createUser("alice")
	activeFrom := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	tpl := &models.TaskTemplate{
		Name:                "Annual verification",
		TaskType:            models.TaskTypeVerification,
		CycleType:           models.CycleOneTime,
		ScheduleMode:        models.ScheduleTemplateOverride,
		ActiveFrom:          &activeFrom,
		DeadlineOffsetHours: 72,
		AssigneeMode:        models.AssignManual,
		AssigneeIDs:         models.Uint64List{u1.ID},
		IsActive:            true,
	}
	suite.Require().NoError(suite.db.Create(tpl).Error)

	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	result, err := suite.dist.Execute(context.Background(), tpl.ID, now)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 1, result.Created)

	reloaded, err := suite.templateRepo.FindByID(context.Background(), tpl.ID)
	suite.Require().NoError(err)
	suite.Require().NotNil(reloaded.LastRunAt)
	assert.Nil(suite.T(), reloaded.NextRunAt)

	_, err = suite.dist.Execute(context.Background(), tpl.ID, now)
	assert.ErrorIs(suite.T(), err, ErrNoUpcomingOccurrence)
}

// TestRunTemplate_BackfillAndBookkeeping processes several missed daily
// periods in one pass and advances the run bookkeeping.
func (suite *DistributionServiceTestSuite) TestRunTemplate_BackfillAndBookkeeping() {
	u1 := suite.createUser("alice")
	u2 := suite.createUser("bob")
	tpl := &models.TaskTemplate{
		Name:               "Daily report",
		TaskType:           models.TaskTypeReport,
		CycleType:          models.CycleDaily,
		ScheduleMode:       models.ScheduleTemplateOverride,
		RunAtMinute:        9 * 60,
		DueAtMinute:        17 * 60,
		AllowLate:          true,
		MaxBackfillPeriods: 10,
		AssigneeMode:       models.AssignManual,
		AssigneeIDs:        models.Uint64List{u1.ID, u2.ID},
		IsActive:           true,
	}
	lastRun := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	tpl.LastRunAt = &lastRun
	suite.Require().NoError(suite.db.Create(tpl).Error)

	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	summary, err := suite.dist.RunTemplate(context.Background(), tpl, now)
	suite.Require().NoError(err)

	// Three missed periods (8th, 9th, 10th), two assignees each.
	assert.Equal(suite.T(), 3, summary.Occurrences)
	assert.Equal(suite.T(), 6, summary.Created)
	assert.Equal(suite.T(), 0, summary.Skipped)

	reloaded, err := suite.templateRepo.FindByID(context.Background(), tpl.ID)
	suite.Require().NoError(err)
	suite.Require().NotNil(reloaded.LastRunAt)
	assert.True(suite.T(), reloaded.LastRunAt.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)))
	suite.Require().NotNil(reloaded.NextRunAt)
	assert.True(suite.T(), reloaded.NextRunAt.Equal(time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)))

	// A second pass over the same window finds nothing new.
	again, err := suite.dist.RunTemplate(context.Background(), reloaded, now)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 0, again.Occurrences)
}

// TestMaterialize_PointInheritedDeadline verifies the deadline-offset due
// expression used when cadence comes from the point registry.
func (suite *DistributionServiceTestSuite) TestMaterialize_PointInheritedDeadline() {
	u1 := suite.createUser("alice")
	point := &models.CollectionPoint{
		Name:               "Central market",
		PointType:          models.PointTypeMarket,
		DefaultCycleType:   models.CycleDaily,
		DefaultRunAtMinute: 10 * 60,
		IsActive:           true,
	}
	suite.Require().NoError(suite.db.Create(point).Error)
	suite.addOwner(point.ID, u1.ID)

	tpl := &models.TaskTemplate{
		Name:                "Market collection",
		TaskType:            models.TaskTypeCollection,
		CycleType:           models.CycleDaily,
		ScheduleMode:        models.SchedulePointDefault,
		DeadlineOffsetHours: 24,
		AssigneeMode:        models.AssignByPoint,
		CollectionPointIDs:  models.Uint64List{point.ID},
		IsActive:            true,
	}
	suite.Require().NoError(suite.db.Create(tpl).Error)

	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	result, err := suite.dist.Execute(context.Background(), tpl.ID, now)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 1, result.Created)

	var task models.Task
	suite.Require().NoError(suite.db.First(&task).Error)
	// Cadence inherited from the point: run 10:00, due 24h later.
	assert.True(suite.T(), task.DueAt.Equal(time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC)))
	assert.Equal(suite.T(), models.TaskStatusPending, task.Status)
}

func TestDistributionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DistributionServiceTestSuite))
}
