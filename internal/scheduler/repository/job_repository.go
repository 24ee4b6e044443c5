package repository

import (
	"context"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JobRepository defines the interface for job definition data operations.
type JobRepository interface {
	Create(ctx context.Context, job *entity.Job) error
	FindByID(ctx context.Context, id uint) (*entity.Job, error)
	FindByName(ctx context.Context, name string) (*entity.Job, error)
	FindAll(ctx context.Context) ([]entity.Job, error)
	Update(ctx context.Context, job *entity.Job) error
	Upsert(ctx context.Context, job *entity.Job) error
	SetStatus(ctx context.Context, id uint, status entity.JobStatus) error
	Delete(ctx context.Context, id uint) error
}

// NewJobRepository creates a new GORM-based job repository.
func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

type jobRepository struct {
	db *gorm.DB
}

func (r *jobRepository) Create(ctx context.Context, job *entity.Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *jobRepository) FindByID(ctx context.Context, id uint) (*entity.Job, error) {
	var job entity.Job
	if err := r.db.WithContext(ctx).Preload("Schedules").First(&job, id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) FindByName(ctx context.Context, name string) (*entity.Job, error) {
	var job entity.Job
	if err := r.db.WithContext(ctx).Preload("Schedules").Where("name = ?", name).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) FindAll(ctx context.Context) ([]entity.Job, error) {
	var jobs []entity.Job
	if err := r.db.WithContext(ctx).Preload("Schedules").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// Update saves a job and replaces its schedules within a transaction.
func (r *jobRepository) Update(ctx context.Context, job *entity.Job) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", job.ID).Delete(&entity.TaskSchedule{}).Error; err != nil {
			return err
		}
		return tx.Save(job).Error
	})
}

// Upsert creates or updates the job keyed by its unique name. Scheduling
// the same name twice is idempotent.
func (r *jobRepository) Upsert(ctx context.Context, job *entity.Job) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		schedules := job.Schedules
		job.Schedules = nil
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"description", "type", "account_id", "payload",
				"retry_policy", "timeout", "status", "updated_at",
			}),
		}).Create(job).Error; err != nil {
			return err
		}

		var stored entity.Job
		if err := tx.Where("name = ?", job.Name).First(&stored).Error; err != nil {
			return err
		}
		job.ID = stored.ID

		if err := tx.Where("job_id = ?", job.ID).Delete(&entity.TaskSchedule{}).Error; err != nil {
			return err
		}
		for i := range schedules {
			schedules[i].ID = 0
			schedules[i].JobID = job.ID
		}
		job.Schedules = schedules
		if len(schedules) == 0 {
			return nil
		}
		return tx.Create(&schedules).Error
	})
}

func (r *jobRepository) SetStatus(ctx context.Context, id uint, status entity.JobStatus) error {
	return r.db.WithContext(ctx).Model(&entity.Job{}).Where("id = ?", id).Update("status", status).Error
}

// Delete removes a job with its schedules and history.
func (r *jobRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", id).Delete(&entity.TaskExecutionHistory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("job_id = ?", id).Delete(&entity.TaskSchedule{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Job{}, id).Error
	})
}
