package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"Tracksmith/core/timeline"
	"Tracksmith/model"
)

var ErrProjectNotFound = errors.New("project not found")

// ProjectRepository persists timelines by project name.
type ProjectRepository interface {
	// Save replaces the stored project called name with tl.
	Save(ctx context.Context, name, masterPath string, tl *timeline.Timeline) (*model.ProjectRecord, error)
	// Load rebuilds the timeline stored as name with the given geometry.
	Load(ctx context.Context, name string, geom timeline.Geometry) (*timeline.Timeline, *model.ProjectRecord, error)
	List(ctx context.Context) ([]*model.ProjectRecord, error)
	Delete(ctx context.Context, name string) error
}

type gormProjectRepository struct {
	db *gorm.DB
}

func NewGormProjectRepository(db *gorm.DB) ProjectRepository {
	return &gormProjectRepository{db: db}
}

// ToRecords converts tl into track records ordered as on screen.
func ToRecords(tl *timeline.Timeline) []model.TrackRecord {
	tracks := make([]model.TrackRecord, 0, len(tl.Tracks()))
	for i, tr := range tl.Tracks() {
		rec := model.TrackRecord{Position: i, Title: tr.Title(), Selected: tr.Selected()}
		for j, c := range tr.Clips() {
			rec.Clips = append(rec.Clips, model.ClipRecord{
				Position:   j,
				Name:       c.Asset.DisplayName,
				SourcePath: c.SourcePath(),
				Duration:   c.Duration(),
				Start:      c.StartSeconds,
				X:          c.Position.X,
				Y:          c.Position.Y,
			})
		}
		tracks = append(tracks, rec)
	}
	return tracks
}

// FromRecords rebuilds a timeline from stored tracks. Durations come from
// the record; the files are not probed again.
func FromRecords(tracks []model.TrackRecord, geom timeline.Geometry) (*timeline.Timeline, error) {
	tl := timeline.New(geom)
	for _, rec := range tracks {
		tr := tl.AddTrack(rec.Title)
		for _, cr := range rec.Clips {
			c := tr.SetClip(timeline.AudioAsset{
				DisplayName:     cr.Name,
				SourcePath:      cr.SourcePath,
				DurationSeconds: cr.Duration,
			})
			if _, err := tr.MoveClipTo(c.ID, cr.Start); err != nil {
				return nil, err
			}
		}
		if rec.Selected {
			if err := tl.Select(tr.ID()); err != nil {
				return nil, err
			}
		}
	}
	return tl, nil
}

func (r *gormProjectRepository) Save(ctx context.Context, name, masterPath string, tl *timeline.Timeline) (*model.ProjectRecord, error) {
	var project model.ProjectRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("name = ?", name).First(&project).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			project = model.ProjectRecord{ID: uuid.NewString(), Name: name}
		case err != nil:
			return err
		default:
			trackIDs := tx.Model(&model.TrackRecord{}).Select("id").Where("project_id = ?", project.ID)
			if err := tx.Where("track_id IN (?)", trackIDs).Delete(&model.ClipRecord{}).Error; err != nil {
				return err
			}
			if err := tx.Where("project_id = ?", project.ID).Delete(&model.TrackRecord{}).Error; err != nil {
				return err
			}
		}

		project.MasterPath = masterPath
		project.Tracks = ToRecords(tl)
		return tx.Save(&project).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save project %q: %w", name, err)
	}
	return &project, nil
}

func (r *gormProjectRepository) find(ctx context.Context, name string) (*model.ProjectRecord, error) {
	var project model.ProjectRecord
	err := r.db.WithContext(ctx).
		Preload("Tracks", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Tracks.Clips", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("name = ?", name).
		First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, name)
		}
		return nil, err
	}
	return &project, nil
}

func (r *gormProjectRepository) Load(ctx context.Context, name string, geom timeline.Geometry) (*timeline.Timeline, *model.ProjectRecord, error) {
	project, err := r.find(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	tl, err := FromRecords(project.Tracks, geom)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to rebuild project %q: %w", name, err)
	}
	return tl, project, nil
}

func (r *gormProjectRepository) List(ctx context.Context) ([]*model.ProjectRecord, error) {
	var projects []*model.ProjectRecord
	err := r.db.WithContext(ctx).
		Preload("Tracks", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Tracks.Clips").
		Order("updated_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *gormProjectRepository) Delete(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project model.ProjectRecord
		if err := tx.Where("name = ?", name).First(&project).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrProjectNotFound, name)
			}
			return err
		}
		trackIDs := tx.Model(&model.TrackRecord{}).Select("id").Where("project_id = ?", project.ID)
		if err := tx.Where("track_id IN (?)", trackIDs).Delete(&model.ClipRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&model.TrackRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&project).Error
	})
}
