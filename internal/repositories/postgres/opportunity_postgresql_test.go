package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimconnect/internship-service/internal/cache"
	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/repositories"
	"github.com/kimconnect/internship-service/internal/testutil"
)

func titles(opps []*models.Opportunity) []string {
	out := make([]string, len(opps))
	for i, o := range opps {
		out[i] = o.Title
	}
	return out
}

func TestOpportunityList_SkillFilterRequiresAll(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixtures(t, db)
	repo := NewOpportunityPostgreSQL(db, cache.NewCacheManager(nil))

	employer := fx.Employer(true)
	golang, sql, docker := fx.Skill("go"), fx.Skill("sql"), fx.Skill("docker")

	both := fx.Opportunity(employer, func(o *models.Opportunity) { o.Title = "both" })
	fx.OpportunitySkills(both, golang, sql)
	onlyGo := fx.Opportunity(employer, func(o *models.Opportunity) { o.Title = "only go" })
	fx.OpportunitySkills(onlyGo, golang)
	all := fx.Opportunity(employer, func(o *models.Opportunity) { o.Title = "all three" })
	fx.OpportunitySkills(all, golang, sql, docker)

	opps, total, err := repo.List(context.Background(), nil, models.ListOpportunitiesParams{
		SkillIDs: []uint{golang.ID, sql.ID, sql.ID},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []string{"all three", "both"}, titles(opps))
	assert.Len(t, opps[1].Skills, 2)
}

func TestOpportunityList_SearchCoversCompanyName(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixtures(t, db)
	repo := NewOpportunityPostgreSQL(db, cache.NewCacheManager(nil))

	acme := fx.Employer(true)
	require.NoError(t, db.Model(acme).Update("company_name", "ACME Robotics").Error)
	other := fx.Employer(true)

	fx.Opportunity(acme, func(o *models.Opportunity) { o.Title = "Firmware intern" })
	fx.Opportunity(other, func(o *models.Opportunity) { o.Title = "Data ROBOTICS intern" })
	fx.Opportunity(other, func(o *models.Opportunity) {
		o.Title = "Analyst"
		o.Description = "help with robotics reporting"
	})
	fx.Opportunity(other, func(o *models.Opportunity) { o.Title = "Marketing" })

	opps, total, err := repo.List(context.Background(), nil, models.ListOpportunitiesParams{Search: "  Robotics "})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.ElementsMatch(t, []string{"Firmware intern", "Data ROBOTICS intern", "Analyst"}, titles(opps))
}

func TestOpportunityList_VisibilityAndPaging(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixtures(t, db)
	repo := NewOpportunityPostgreSQL(db, cache.NewCacheManager(nil))
	ctx := context.Background()

	mine := fx.Employer(true)
	theirs := fx.Employer(true)
	fx.Opportunity(mine, func(o *models.Opportunity) { o.Title = "public 1" })
	fx.Opportunity(mine, func(o *models.Opportunity) { o.Title = "unverified"; o.IsVerified = false })
	fx.Opportunity(theirs, func(o *models.Opportunity) { o.Title = "inactive"; o.IsActive = false })
	fx.Opportunity(theirs, func(o *models.Opportunity) { o.Title = "public 2" })

	public, total, err := repo.List(ctx, nil, models.ListOpportunitiesParams{PublicOnly: true})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []string{"public 2", "public 1"}, titles(public))

	own, _, err := repo.List(ctx, nil, models.ListOpportunitiesParams{EmployerID: &mine.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"unverified", "public 1"}, titles(own))

	page, total, err := repo.List(ctx, nil, models.ListOpportunitiesParams{Page: 1, Size: 3})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Equal(t, []string{"public 1"}, titles(page))
}

func TestOpportunityDelete_CascadesLinksButKeepsApplications(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixtures(t, db)
	repo := NewOpportunityPostgreSQL(db, cache.NewCacheManager(nil))
	saved := NewSavedOpportunityPostgreSQL(db)
	apps := NewApplicationPostgreSQL(db)
	ctx := context.Background()

	employer := fx.Employer(true)
	student := fx.Student()
	opp := fx.Opportunity(employer)
	fx.OpportunitySkills(opp, fx.Skill("go"))
	require.NoError(t, saved.Save(ctx, nil, student.ID, opp.ID))
	app := fx.Application(student, opp, models.ApplicationPending)

	require.NoError(t, repo.Delete(ctx, nil, opp.ID))

	_, err := repo.GetByID(ctx, nil, opp.ID)
	assert.True(t, repositories.IsNotFoundError(err))

	var links int64
	require.NoError(t, db.Model(&models.OpportunitySkill{}).Where("opportunity_id = ?", opp.ID).Count(&links).Error)
	assert.Zero(t, links)

	exists, err := saved.Exists(ctx, nil, student.ID, opp.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	kept, err := apps.GetByID(ctx, nil, app.ID)
	require.NoError(t, err)
	require.NotNil(t, kept.Opportunity)
	assert.Equal(t, opp.Title, kept.Opportunity.Title)

	assert.True(t, repositories.IsNotFoundError(repo.Delete(ctx, nil, opp.ID)))
}

func TestOpportunityGetByID_CachedOutsideTransactions(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixtures(t, db)
	cm, mr := newMiniredisCache(t)
	repo := NewOpportunityPostgreSQL(db, cm)
	ctx := context.Background()

	opp := fx.Opportunity(fx.Employer(true))

	_, err := repo.GetByID(ctx, nil, opp.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists("opportunity:"+cache.OpportunityKey(opp.ID)))

	require.NoError(t, repo.Update(ctx, nil, opp.ID, map[string]interface{}{"title": "renamed"}))
	assert.False(t, mr.Exists("opportunity:"+cache.OpportunityKey(opp.ID)))

	fresh, err := repo.GetByID(ctx, nil, opp.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", fresh.Title)
}
