package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/kimconnect/internship-service/internal/models"
)

// Fixtures inserts rows directly, bypassing services, to arrange test state.
type Fixtures struct {
	t  testing.TB
	db *gorm.DB
	n  int
}

func NewFixtures(t testing.TB, db *gorm.DB) *Fixtures {
	return &Fixtures{t: t, db: db}
}

func (f *Fixtures) next() int {
	f.n++
	return f.n
}

func (f *Fixtures) create(value interface{}) {
	f.t.Helper()
	if err := f.db.Create(value).Error; err != nil {
		f.t.Fatalf("fixture insert failed: %v", err)
	}
}

func (f *Fixtures) User(role models.UserRole, status models.UserStatus) *models.User {
	f.t.Helper()
	n := f.next()
	user := &models.User{
		Email:        fmt.Sprintf("%s%d@example.com", role, n),
		PasswordHash: "x",
		FirstName:    "User",
		LastName:     fmt.Sprintf("%d", n),
		Role:         role,
		Status:       status,
	}
	f.create(user)
	return user
}

// Student creates an active student with a profile.
func (f *Fixtures) Student(mutators ...func(*models.StudentProfile)) *models.StudentProfile {
	f.t.Helper()
	user := f.User(models.RoleStudent, models.UserStatusActive)
	profile := &models.StudentProfile{UserID: user.ID, IsProfileVisible: true}
	for _, m := range mutators {
		m(profile)
	}
	f.create(profile)
	profile.User = user
	return profile
}

// Employer creates an employer profile. Verified employers have an active user.
func (f *Fixtures) Employer(verified bool) *models.EmployerProfile {
	f.t.Helper()
	status := models.UserStatusPending
	if verified {
		status = models.UserStatusActive
	}
	user := f.User(models.RoleEmployer, status)
	profile := &models.EmployerProfile{
		UserID:      user.ID,
		CompanyName: fmt.Sprintf("Company %d", f.next()),
		IsVerified:  verified,
	}
	f.create(profile)
	profile.User = user
	return profile
}

func (f *Fixtures) Skill(name string) *models.Skill {
	f.t.Helper()
	skill := &models.Skill{Name: name}
	f.create(skill)
	return skill
}

func (f *Fixtures) StudentSkills(profile *models.StudentProfile, skills ...*models.Skill) {
	f.t.Helper()
	for _, s := range skills {
		f.create(&models.StudentSkill{StudentProfileID: profile.ID, SkillID: s.ID})
	}
}

// Opportunity creates a public listing unless mutators say otherwise.
// Each call is one second newer than the previous one.
func (f *Fixtures) Opportunity(employer *models.EmployerProfile, mutators ...func(*models.Opportunity)) *models.Opportunity {
	f.t.Helper()
	n := f.next()
	opp := &models.Opportunity{
		EmployerID:   employer.ID,
		Title:        fmt.Sprintf("Internship %d", n),
		Description:  "Work on real projects",
		LocationType: models.LocationRemote,
		IsActive:     true,
		IsVerified:   true,
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, n, 0, time.UTC),
	}
	for _, m := range mutators {
		m(opp)
	}
	f.create(opp)
	return opp
}

func (f *Fixtures) OpportunitySkills(opp *models.Opportunity, skills ...*models.Skill) {
	f.t.Helper()
	for _, s := range skills {
		f.create(&models.OpportunitySkill{OpportunityID: opp.ID, SkillID: s.ID})
	}
}

func (f *Fixtures) Application(student *models.StudentProfile, opp *models.Opportunity, status models.ApplicationStatus) *models.Application {
	f.t.Helper()
	app := &models.Application{StudentID: student.ID, OpportunityID: opp.ID, Status: status}
	f.create(app)
	return app
}
