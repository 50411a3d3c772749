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
)

type TemplateServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *TemplateService
}

func (suite *TemplateServiceTestSuite) SetupTest() {
	var err error
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(&models.TaskTemplate{})
	suite.Require().NoError(err)

	suite.service = NewTemplateService(repository.NewTemplateRepository(suite.db))
}

func (suite *TemplateServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func validReportTemplate() *models.TaskTemplate {
	return &models.TaskTemplate{
		Name:         "Weekly safety report",
		TaskType:     models.TaskTypeReport,
		CycleType:    models.CycleWeekly,
		RunAtMinute:  9 * 60,
		DueAtMinute:  17 * 60,
		RunDayOfWeek: 1,
		DueDayOfWeek: 5,
		AssigneeMode: models.AssignManual,
		AssigneeIDs:  models.Uint64List{1, 2},
	}
}

func (suite *TemplateServiceTestSuite) TestCreate_Success() {
	tpl, err := suite.service.Create(context.Background(), validReportTemplate())
	suite.Require().NoError(err)
	assert.NotZero(suite.T(), tpl.ID)
	assert.Equal(suite.T(), models.ScheduleTemplateOverride, tpl.ScheduleMode)
	// New templates stay inactive until explicitly activated.
	assert.False(suite.T(), tpl.IsActive)
}

func (suite *TemplateServiceTestSuite) TestCreate_WeeklyDueDayDefaultsToRunDay() {
	tpl := validReportTemplate()
	tpl.RunDayOfWeek = 3
	tpl.DueDayOfWeek = 0

	created, err := suite.service.Create(context.Background(), tpl)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 3, created.DueDayOfWeek)
}

func (suite *TemplateServiceTestSuite) TestCreate_ValidationErrors() {
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name    string
		mutate  func(tpl *models.TaskTemplate)
		wantErr error
	}{
		{
			name:    "blank name",
			mutate:  func(tpl *models.TaskTemplate) { tpl.Name = "   " },
			wantErr: ErrNameRequired,
		},
		{
			name:    "unknown task type",
			mutate:  func(tpl *models.TaskTemplate) { tpl.TaskType = "audit" },
			wantErr: ErrUnknownTaskType,
		},
		{
			name:    "unknown cycle type",
			mutate:  func(tpl *models.TaskTemplate) { tpl.CycleType = "HOURLY" },
			wantErr: ErrUnknownCycleType,
		},
		{
			name:    "unknown schedule mode",
			mutate:  func(tpl *models.TaskTemplate) { tpl.ScheduleMode = "INHERITED" },
			wantErr: ErrUnknownScheduleMode,
		},
		{
			name:    "run minute too large",
			mutate:  func(tpl *models.TaskTemplate) { tpl.RunAtMinute = 1440 },
			wantErr: ErrMinuteOutOfRange,
		},
		{
			name:    "due minute negative",
			mutate:  func(tpl *models.TaskTemplate) { tpl.DueAtMinute = -1 },
			wantErr: ErrMinuteOutOfRange,
		},
		{
			name:    "weekday out of range",
			mutate:  func(tpl *models.TaskTemplate) { tpl.RunDayOfWeek = 8 },
			wantErr: ErrWeekdayOutOfRange,
		},
		{
			name: "month day out of range",
			mutate: func(tpl *models.TaskTemplate) {
				tpl.CycleType = models.CycleMonthly
				tpl.RunDayOfMonth = 32
			},
			wantErr: ErrMonthDayOutOfRange,
		},
		{
			name: "inverted active window",
			mutate: func(tpl *models.TaskTemplate) {
				tpl.ActiveFrom = &from
				tpl.ActiveUntil = &until
			},
			wantErr: ErrActiveWindowInverted,
		},
		{
			name:    "negative backfill",
			mutate:  func(tpl *models.TaskTemplate) { tpl.MaxBackfillPeriods = -1 },
			wantErr: ErrNegativeBackfill,
		},
		{
			name:    "negative deadline offset",
			mutate:  func(tpl *models.TaskTemplate) { tpl.DeadlineOffsetHours = -24 },
			wantErr: ErrNegativeDeadlineOffset,
		},
		{
			name:    "manual without assignees",
			mutate:  func(tpl *models.TaskTemplate) { tpl.AssigneeIDs = nil },
			wantErr: ErrManualAssigneesRequired,
		},
		{
			name: "point mode without scope",
			mutate: func(tpl *models.TaskTemplate) {
				tpl.TaskType = models.TaskTypeCollection
				tpl.AssigneeMode = models.AssignByPoint
				tpl.AssigneeIDs = nil
			},
			wantErr: ErrPointScopeRequired,
		},
		{
			name: "point mode with both selectors",
			mutate: func(tpl *models.TaskTemplate) {
				tpl.TaskType = models.TaskTypeCollection
				tpl.AssigneeMode = models.AssignByPoint
				tpl.AssigneeIDs = nil
				tpl.TargetPointTypes = models.StringList{"PORT"}
				tpl.CollectionPointIDs = models.Uint64List{7}
			},
			wantErr: ErrPointScopeConflict,
		},
		{
			name: "department mode without departments",
			mutate: func(tpl *models.TaskTemplate) {
				tpl.AssigneeMode = models.AssignByDepartment
				tpl.AssigneeIDs = nil
			},
			wantErr: ErrDepartmentsRequired,
		},
		{
			name: "organization mode without organizations",
			mutate: func(tpl *models.TaskTemplate) {
				tpl.AssigneeMode = models.AssignByOrganization
				tpl.AssigneeIDs = nil
			},
			wantErr: ErrOrganizationsRequired,
		},
		{
			name: "collection task without point assignment",
			mutate: func(tpl *models.TaskTemplate) {
				tpl.TaskType = models.TaskTypeCollection
			},
			wantErr: ErrPointBindingRequired,
		},
		{
			name:    "unknown assignee mode",
			mutate:  func(tpl *models.TaskTemplate) { tpl.AssigneeMode = "ROUND_ROBIN" },
			wantErr: ErrUnknownAssigneeMode,
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			tpl := validReportTemplate()
			tc.mutate(tpl)

			_, err := suite.service.Create(context.Background(), tpl)
			assert.ErrorIs(suite.T(), err, tc.wantErr)
		})
	}
}

func (suite *TemplateServiceTestSuite) TestUpdate_PreservesBookkeeping() {
	created, err := suite.service.Create(context.Background(), validReportTemplate())
	suite.Require().NoError(err)

	lastRun := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	suite.Require().NoError(suite.db.Model(created).
		Updates(map[string]interface{}{"last_run_at": lastRun, "is_active": true}).Error)

	updated := validReportTemplate()
	updated.Name = "Renamed report"
	result, err := suite.service.Update(context.Background(), created.ID, updated)
	suite.Require().NoError(err)

	assert.Equal(suite.T(), "Renamed report", result.Name)
	assert.True(suite.T(), result.IsActive)
	suite.Require().NotNil(result.LastRunAt)
	assert.True(suite.T(), result.LastRunAt.Equal(lastRun))
}

func (suite *TemplateServiceTestSuite) TestUpdate_NotFound() {
	_, err := suite.service.Update(context.Background(), 9999, validReportTemplate())
	assert.ErrorIs(suite.T(), err, ErrTemplateNotFound)
}

func (suite *TemplateServiceTestSuite) TestSetActive() {
	created, err := suite.service.Create(context.Background(), validReportTemplate())
	suite.Require().NoError(err)

	activated, err := suite.service.SetActive(context.Background(), created.ID, true)
	suite.Require().NoError(err)
	assert.True(suite.T(), activated.IsActive)

	deactivated, err := suite.service.SetActive(context.Background(), created.ID, false)
	suite.Require().NoError(err)
	assert.False(suite.T(), deactivated.IsActive)
}

func (suite *TemplateServiceTestSuite) TestDelete() {
	created, err := suite.service.Create(context.Background(), validReportTemplate())
	suite.Require().NoError(err)

	suite.Require().NoError(suite.service.Delete(context.Background(), created.ID))

	_, err = suite.service.Get(context.Background(), created.ID)
	assert.ErrorIs(suite.T(), err, ErrTemplateNotFound)
}

func TestTemplateServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TemplateServiceTestSuite))
}
