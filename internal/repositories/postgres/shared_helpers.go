package postgres

import (
	"context"
	"time"

	"github.com/kimconnect/internship-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SharedHelpers contains queries reused by several repositories
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

func (h *SharedHelpers) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return h.db
}

type skillLinkRow struct {
	OwnerID   uint
	ID        uint
	Name      string
	Category  *string
	CreatedAt time.Time
}

// SkillsByOwner loads skills through a link table (student_skills or
// opportunity_skills) keyed by ownerColumn, ordered by skill name.
func (h *SharedHelpers) SkillsByOwner(ctx context.Context, tx *gorm.DB, linkTable, ownerColumn string, ownerIDs []uint) (map[uint][]models.Skill, error) {
	result := make(map[uint][]models.Skill, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return result, nil
	}

	var rows []skillLinkRow
	err := h.getDB(tx).WithContext(ctx).
		Table(linkTable).
		Select(linkTable+"."+ownerColumn+" AS owner_id, skills.id, skills.name, skills.category, skills.created_at").
		Joins("JOIN skills ON skills.id = "+linkTable+".skill_id").
		Where(linkTable+"."+ownerColumn+" IN ?", ownerIDs).
		Order("skills.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.OwnerID] = append(result[row.OwnerID], models.Skill{
			ID:        row.ID,
			Name:      row.Name,
			Category:  row.Category,
			CreatedAt: row.CreatedAt,
		})
	}
	return result, nil
}

// InsertIgnoringDuplicates bulk inserts link rows, skipping ones that already exist.
func (h *SharedHelpers) InsertIgnoringDuplicates(ctx context.Context, tx *gorm.DB, rows interface{}) error {
	return h.getDB(tx).WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rows).Error
}

// UniqueIDs drops zero and repeated ids, keeping first-seen order.
func UniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
