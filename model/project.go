package model

import "time"

// ProjectRecord is a saved timeline.
type ProjectRecord struct {
	ID         string        `json:"id" gorm:"primaryKey;size:36"`
	Name       string        `json:"name" gorm:"size:100;uniqueIndex;not null"`
	MasterPath string        `json:"masterPath" gorm:"size:512"`
	Tracks     []TrackRecord `json:"tracks" gorm:"foreignKey:ProjectID"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

func (ProjectRecord) TableName() string {
	return "projects"
}

// TrackRecord is one track of a saved project, ordered by Position.
type TrackRecord struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	ProjectID string       `json:"projectId" gorm:"size:36;index;not null"`
	Position  int          `json:"position"`
	Title     string       `json:"title" gorm:"size:100"`
	Selected  bool         `json:"selected"`
	Clips     []ClipRecord `json:"clips" gorm:"foreignKey:TrackID"`
}

func (TrackRecord) TableName() string {
	return "project_tracks"
}

// ClipRecord is a placed clip. Start is in seconds.
type ClipRecord struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	TrackID    uint    `json:"trackId" gorm:"index;not null"`
	Position   int     `json:"position"`
	Name       string  `json:"name" gorm:"size:255"`
	SourcePath string  `json:"sourcePath" gorm:"size:1024;not null"`
	Duration   float64 `json:"duration"`
	Start      float64 `json:"start"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
}

func (ClipRecord) TableName() string {
	return "project_clips"
}

// AllModels lists every persisted model for migration.
func AllModels() []interface{} {
	return []interface{}{&ProjectRecord{}, &TrackRecord{}, &ClipRecord{}}
}
