package controller

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	attModel "ecoguard_backend/internals/features/field/attendance/model"
	contributionModel "ecoguard_backend/internals/features/field/contributions/model"
	projectModel "ecoguard_backend/internals/features/field/projects/model"
	projectRepo "ecoguard_backend/internals/features/field/projects/repository"
	"ecoguard_backend/internals/features/field/rewards/service"
	progressModel "ecoguard_backend/internals/features/progress/progress/model"
	progressService "ecoguard_backend/internals/features/progress/progress/service"
)

type oneProject struct{ p *projectModel.ProjectModel }

func (o oneProject) FindByID(_ context.Context, id uuid.UUID) (*projectModel.ProjectModel, error) {
	if o.p.ProjectID != id {
		return nil, projectRepo.ErrProjectNotFound
	}
	return o.p, nil
}
func (oneProject) ApplyCompletionTotals(context.Context, uuid.UUID, uuid.UUID, float64, int) error {
	return nil
}
func (oneProject) MarkCompleted(context.Context, uuid.UUID, time.Time) error { return nil }

type noRecords struct{}

func (noRecords) ListByProject(context.Context, uuid.UUID) ([]attModel.FieldAttendanceModel, error) {
	return nil, nil
}

type noContributions struct{}

func (noContributions) ListByProject(context.Context, uuid.UUID) ([]contributionModel.DailyContributionModel, error) {
	return nil, nil
}

type alwaysAward struct{}

func (alwaysAward) AwardOnce(context.Context, uuid.UUID, string, int, progressModel.ActivityEntry) (bool, *progressService.Ledger, error) {
	return true, nil, nil
}

func newCompletionApp(progress float64) (*fiber.App, uuid.UUID) {
	p := &projectModel.ProjectModel{
		ProjectID:                   uuid.New(),
		ProjectStatus:               projectModel.ProjectStatusActive,
		ProjectAverageDailyProgress: progress,
		ProjectContributors:         []projectModel.ProjectContributorModel{{ProjectContributorUserID: uuid.New(), ProjectContributorName: "Dewi"}},
	}
	svc := service.NewService(oneProject{p}, noRecords{}, noContributions{}, alwaysAward{}, nil, service.Options{}, zap.NewNop())
	app := fiber.New()
	app.Post("/field/projects/:project_id/complete", NewProjectCompletionController(svc).Complete)
	return app, p.ProjectID
}

func post(t *testing.T, app *fiber.App, path string) (int, gjson.Result) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, path, nil), -1)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, gjson.ParseBytes(raw)
}

func TestComplete_NotEligible(t *testing.T) {
	app, pid := newCompletionApp(80)
	code, body := post(t, app, "/field/projects/"+pid.String()+"/complete")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "NOT_ELIGIBLE", body.Get("error_code").String())
	assert.EqualValues(t, 95, body.Get("details.required_minimum").Float())
}

func TestComplete_OK(t *testing.T) {
	app, pid := newCompletionApp(99)
	code, body := post(t, app, "/field/projects/"+pid.String()+"/complete")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 750, body.Get("data.total_xp").Int())
	assert.EqualValues(t, 750, body.Get("data.contributors.0.xp_rewarded").Int())
	assert.EqualValues(t, 250, body.Get("data.contributors.0.breakdown.performance_xp").Int())
}

func TestComplete_BadID(t *testing.T) {
	app, _ := newCompletionApp(99)
	code, _ := post(t, app, "/field/projects/nope/complete")
	assert.Equal(t, http.StatusBadRequest, code)
}
