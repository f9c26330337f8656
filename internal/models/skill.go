package models

import (
	"strings"
	"time"
)

type Skill struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null;size:100"`
	Category  *string   `json:"category" gorm:"size:100"`
	CreatedAt time.Time `json:"created_at"`
}

func (Skill) TableName() string {
	return "skills"
}

// NormalizeSkillName trims, lowercases and collapses inner whitespace so
// "  Go  Lang" and "go lang" resolve to the same skill.
func NormalizeSkillName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
