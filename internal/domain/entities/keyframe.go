package entities

import (
	"time"

	"github.com/google/uuid"
)

// Keyframe is one sampled still frame of a video angle.
// Rows are written once and never updated.
type Keyframe struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	AnalysisID       uuid.UUID `json:"analysis_id" gorm:"type:uuid;not null;uniqueIndex:idx_keyframe_position,priority:1"`
	Angle            AngleName `json:"angle" gorm:"type:varchar(10);not null;uniqueIndex:idx_keyframe_position,priority:2"`
	Index            int       `json:"index" gorm:"column:frame_index;not null;uniqueIndex:idx_keyframe_position,priority:3"`
	TimestampSeconds float64   `json:"timestamp_seconds" gorm:"not null"`
	MimeType         string    `json:"mime_type" gorm:"type:varchar(50);not null"`
	ImageBytes       []byte    `json:"-" gorm:"not null"`
	Description      string    `json:"description,omitempty" gorm:"type:text"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// NewKeyframe creates a keyframe for an analysis angle
func NewKeyframe(analysisID uuid.UUID, angle AngleName, index int, ts float64, mimeType string, image []byte) *Keyframe {
	return &Keyframe{
		ID:               uuid.New(),
		AnalysisID:       analysisID,
		Angle:            angle,
		Index:            index,
		TimestampSeconds: ts,
		MimeType:         mimeType,
		ImageBytes:       image,
		CreatedAt:        time.Now(),
	}
}

// TableName specifies the table name for GORM
func (Keyframe) TableName() string {
	return "keyframes"
}
