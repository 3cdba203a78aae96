package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/elise-dlc/evalio-api/internal/models"
)

// FormFilter narrows form listings. When OnlyValid is set, only forms whose
// validity window covers Now are returned.
type FormFilter struct {
	AssociationType string
	ProfessorID     *uint
	OnlyValid       bool
	Now             time.Time
	Page            int
	Limit           int
}

// FormRepository defines persistence operations for rubric forms and their
// embedded sections/lines.
type FormRepository interface {
	List(ctx context.Context, filter FormFilter) ([]models.Form, int64, error)
	GetByID(ctx context.Context, id uint) (models.Form, error)
	Create(ctx context.Context, form *models.Form) error
	Update(ctx context.Context, form *models.Form) error
	ReplaceSections(ctx context.Context, form *models.Form, sections []models.Section) error
	ReplaceTargets(ctx context.Context, form *models.Form, students []models.Student, groups []models.Group, subGroups []models.SubGroup) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

type formRepository struct {
	db *gorm.DB
}

// NewFormRepository instantiates the repository.
func NewFormRepository(db *gorm.DB) FormRepository {
	return &formRepository{db: db}
}

func (r *formRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Form{}).
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("sections.position ASC")
		}).
		Preload("Sections.Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("lines.position ASC")
		}).
		Preload("Students").
		Preload("Groups").
		Preload("SubGroups").
		Preload("Promotion")
}

func (r *formRepository) List(ctx context.Context, filter FormFilter) ([]models.Form, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Form{})

	if filter.AssociationType != "" {
		query = query.Where("association_type = ?", filter.AssociationType)
	}
	if filter.ProfessorID != nil {
		query = query.Where("professor_id = ?", *filter.ProfessorID)
	}
	if filter.OnlyValid {
		query = query.Where("valid_from <= ? AND valid_to > ?", filter.Now, filter.Now)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var forms []models.Form
	if err := query.
		Preload("Sections", func(db *gorm.DB) *gorm.DB { return db.Order("sections.position ASC") }).
		Preload("Sections.Lines", func(db *gorm.DB) *gorm.DB { return db.Order("lines.position ASC") }).
		Preload("Students").
		Preload("Groups").
		Preload("SubGroups").
		Preload("Promotion").
		Order("created_at DESC").
		Offset(pageOffset(filter.Page, filter.Limit)).Limit(filter.Limit).
		Find(&forms).Error; err != nil {
		return nil, 0, err
	}

	return forms, total, nil
}

func (r *formRepository) GetByID(ctx context.Context, id uint) (models.Form, error) {
	var form models.Form
	if err := r.baseQuery(ctx).First(&form, id).Error; err != nil {
		return models.Form{}, err
	}

	return form, nil
}

func (r *formRepository) Create(ctx context.Context, form *models.Form) error {
	return r.db.WithContext(ctx).Create(form).Error
}

func (r *formRepository) Update(ctx context.Context, form *models.Form) error {
	return r.db.WithContext(ctx).
		Omit("Sections", "Students", "Groups", "SubGroups", "Promotion").
		Save(form).Error
}

// ReplaceSections swaps the form's section tree for the given one in a
// single transaction. Callers are responsible for carrying stable line UIDs
// over into the replacement.
func (r *formRepository) ReplaceSections(ctx context.Context, form *models.Form, sections []models.Section) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var oldSections []models.Section
		if err := tx.Where("form_id = ?", form.ID).Find(&oldSections).Error; err != nil {
			return err
		}
		for _, section := range oldSections {
			if err := tx.Where("section_id = ?", section.ID).Delete(&models.Line{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("form_id = ?", form.ID).Delete(&models.Section{}).Error; err != nil {
			return err
		}

		for i := range sections {
			sections[i].ID = 0
			sections[i].FormID = form.ID
			for j := range sections[i].Lines {
				sections[i].Lines[j].ID = 0
				sections[i].Lines[j].SectionID = 0
			}
			if err := tx.Create(&sections[i]).Error; err != nil {
				return err
			}
		}

		form.Sections = sections
		return nil
	})
}

// ReplaceTargets swaps the form's association sets atomically. Passing nil
// slices clears the corresponding set, which is how exclusivity is restored
// when the association type changes.
func (r *formRepository) ReplaceTargets(ctx context.Context, form *models.Form, students []models.Student, groups []models.Group, subGroups []models.SubGroup) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(form).Association("Students").Replace(students); err != nil {
			return err
		}
		if err := tx.Model(form).Association("Groups").Replace(groups); err != nil {
			return err
		}
		if err := tx.Model(form).Association("SubGroups").Replace(subGroups); err != nil {
			return err
		}
		return tx.Omit("Sections", "Students", "Groups", "SubGroups", "Promotion").Save(form).Error
	})
}

func (r *formRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var form models.Form
		if err := tx.First(&form, id).Error; err != nil {
			return err
		}
		for _, association := range []string{"Students", "Groups", "SubGroups"} {
			if err := tx.Model(&form).Association(association).Clear(); err != nil {
				return err
			}
		}
		var sections []models.Section
		if err := tx.Where("form_id = ?", form.ID).Find(&sections).Error; err != nil {
			return err
		}
		for _, section := range sections {
			if err := tx.Where("section_id = ?", section.ID).Delete(&models.Line{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("form_id = ?", form.ID).Delete(&models.Section{}).Error; err != nil {
			return err
		}
		return tx.Delete(&form).Error
	})
}

func (r *formRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Form{}).Count(&total).Error
	return total, err
}
