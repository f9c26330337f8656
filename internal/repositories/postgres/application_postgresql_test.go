package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/repositories"
	"github.com/kimconnect/internship-service/internal/testutil"
)

func TestApplicationCreate_DuplicatePairIsDetected(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixtures(t, db)
	repo := NewApplicationPostgreSQL(db)
	ctx := context.Background()

	student := fx.Student()
	opp := fx.Opportunity(fx.Employer(true))

	first := &models.Application{StudentID: student.ID, OpportunityID: opp.ID, Status: models.ApplicationPending}
	require.NoError(t, repo.Create(ctx, nil, first))

	second := &models.Application{StudentID: student.ID, OpportunityID: opp.ID, Status: models.ApplicationPending}
	err := repo.Create(ctx, nil, second)
	require.Error(t, err)
	assert.True(t, repositories.IsDuplicateError(err), "got %v", err)
}

func TestApplicationTransitionStatus_CompareAndSet(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixtures(t, db)
	repo := NewApplicationPostgreSQL(db)
	ctx := context.Background()

	app := fx.Application(fx.Student(), fx.Opportunity(fx.Employer(true)), models.ApplicationPending)

	ok, err := repo.TransitionStatus(ctx, nil, app.ID, models.ApplicationPending, models.ApplicationRejected,
		map[string]interface{}{"feedback": "not this time"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TransitionStatus(ctx, nil, app.ID, models.ApplicationPending, models.ApplicationAccepted, nil)
	require.NoError(t, err)
	assert.False(t, ok, "stale from status must not match")

	stored, err := repo.GetByID(ctx, nil, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationRejected, stored.Status)
	require.NotNil(t, stored.Feedback)
	assert.Equal(t, "not this time", *stored.Feedback)
}

func TestApplicationMarkCompleted_OnlyOnceFromAccepted(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixtures(t, db)
	repo := NewApplicationPostgreSQL(db)
	ctx := context.Background()

	student := fx.Student()
	employer := fx.Employer(true)
	pending := fx.Application(student, fx.Opportunity(employer), models.ApplicationPending)
	accepted := fx.Application(student, fx.Opportunity(employer), models.ApplicationAccepted)

	ok, err := repo.MarkCompleted(ctx, nil, pending.ID, uuid.New(), nil)
	require.NoError(t, err)
	assert.False(t, ok)

	certID := uuid.New()
	completedAt := time.Now().UTC()
	ok, err = repo.MarkCompleted(ctx, nil, accepted.ID, certID, map[string]interface{}{"completed_at": completedAt})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkCompleted(ctx, nil, accepted.ID, uuid.New(), nil)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.GetByID(ctx, nil, accepted.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationCompleted, stored.Status)
	require.NotNil(t, stored.CertificateID)
	assert.Equal(t, certID, *stored.CertificateID)
	assert.NotNil(t, stored.CompletedAt)
}

func TestApplicationLists_NewestFirstWithStatusFilter(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixtures(t, db)
	repo := NewApplicationPostgreSQL(db)
	ctx := context.Background()

	student := fx.Student()
	employer := fx.Employer(true)
	a1 := fx.Application(student, fx.Opportunity(employer), models.ApplicationPending)
	a2 := fx.Application(student, fx.Opportunity(employer), models.ApplicationRejected)
	a3 := fx.Application(student, fx.Opportunity(employer), models.ApplicationPending)

	all, err := repo.ListByStudent(ctx, nil, student.ID, repositories.ApplicationFilters{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Inserted oldest to newest
	assert.Equal(t, []uint{a3.ID, a2.ID, a1.ID}, []uint{all[0].ID, all[1].ID, all[2].ID})

	status := models.ApplicationPending
	pending, err := repo.ListByStudent(ctx, nil, student.ID, repositories.ApplicationFilters{Status: &status})
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestSavedOpportunity_IdempotentSaveAndUnsave(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixtures(t, db)
	repo := NewSavedOpportunityPostgreSQL(db)
	ctx := context.Background()

	student := fx.Student()
	opp := fx.Opportunity(fx.Employer(true))

	require.NoError(t, repo.Save(ctx, nil, student.ID, opp.ID))
	require.NoError(t, repo.Save(ctx, nil, student.ID, opp.ID))

	saved, err := repo.ListByStudent(ctx, nil, student.ID)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	require.NotNil(t, saved[0].Opportunity)
	assert.Equal(t, opp.ID, saved[0].Opportunity.ID)

	require.NoError(t, repo.Unsave(ctx, nil, student.ID, opp.ID))
	require.NoError(t, repo.Unsave(ctx, nil, student.ID, opp.ID))

	exists, err := repo.Exists(ctx, nil, student.ID, opp.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}
