package models

import (
	"time"
)

type StudentProfile struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	UserID uint `json:"user_id" gorm:"uniqueIndex;not null"`

	Institution      *string `json:"institution" gorm:"size:255"`
	Program          *string `json:"program" gorm:"size:255"`
	YearOfStudy      *int    `json:"year_of_study"`
	Bio              *string `json:"bio" gorm:"type:text"`
	CVURL            *string `json:"cv_url" gorm:"size:500"`
	IsProfileVisible bool    `json:"is_profile_visible" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User   *User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Skills []Skill `json:"skills" gorm:"-"`
}

func (StudentProfile) TableName() string {
	return "student_profiles"
}

// SkillIDs returns the ids of the loaded skills.
func (p *StudentProfile) SkillIDs() []uint {
	ids := make([]uint, 0, len(p.Skills))
	for _, s := range p.Skills {
		ids = append(ids, s.ID)
	}
	return ids
}

type EmployerProfile struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	UserID uint `json:"user_id" gorm:"uniqueIndex;not null"`

	CompanyName  string  `json:"company_name" gorm:"not null;size:255;index"`
	Industry     *string `json:"industry" gorm:"size:255"`
	Description  *string `json:"description" gorm:"type:text"`
	Location     *string `json:"location" gorm:"size:255"`
	Website      *string `json:"website" gorm:"size:500"`
	LogoURL      *string `json:"logo_url" gorm:"size:500"`
	ContactPhone *string `json:"contact_phone" gorm:"size:50"`

	// Only administrators flip this flag
	IsVerified bool `json:"is_verified" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (EmployerProfile) TableName() string {
	return "employer_profiles"
}

type StudentSkill struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	StudentProfileID uint      `json:"student_profile_id" gorm:"not null;uniqueIndex:idx_student_skill"`
	SkillID          uint      `json:"skill_id" gorm:"not null;uniqueIndex:idx_student_skill;index"`
	CreatedAt        time.Time `json:"created_at"`
}

func (StudentSkill) TableName() string {
	return "student_skills"
}
