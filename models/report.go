package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReportStatus values are stored lower-case; parsers accept any casing.
type ReportStatus string

const (
	ReportReported   ReportStatus = "reported"
	ReportValidated  ReportStatus = "validated"
	ReportAssigned   ReportStatus = "assigned"
	ReportInProgress ReportStatus = "in_progress"
	ReportCompleted  ReportStatus = "completed"
	ReportResolved   ReportStatus = "resolved"
	ReportRejected   ReportStatus = "rejected"
)

func ParseReportStatus(s string) (ReportStatus, error) {
	switch v := ReportStatus(strings.ToLower(strings.TrimSpace(s))); v {
	case ReportReported, ReportValidated, ReportAssigned, ReportInProgress,
		ReportCompleted, ReportResolved, ReportRejected:
		return v, nil
	default:
		return "", fmt.Errorf("unknown report status %q", s)
	}
}

type ReportCategory string

const (
	CategoryLighting ReportCategory = "lighting"
	CategoryRoad     ReportCategory = "road"
	CategoryWaste    ReportCategory = "waste"
	CategorySafety   ReportCategory = "safety"
	CategoryOther    ReportCategory = "other"
)

func ParseReportCategory(s string) (ReportCategory, error) {
	switch v := ReportCategory(strings.ToLower(strings.TrimSpace(s))); v {
	case CategoryLighting, CategoryRoad, CategoryWaste, CategorySafety, CategoryOther:
		return v, nil
	default:
		return "", fmt.Errorf("unknown category %q", s)
	}
}

type ReportPriority string

const (
	PriorityLow    ReportPriority = "low"
	PriorityMedium ReportPriority = "medium"
	PriorityHigh   ReportPriority = "high"
	PriorityUrgent ReportPriority = "urgent"
)

func ParseReportPriority(s string) (ReportPriority, error) {
	switch v := ReportPriority(strings.ToLower(strings.TrimSpace(s))); v {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return v, nil
	default:
		return "", fmt.Errorf("unknown priority %q", s)
	}
}

type Location struct {
	Address  string  `bson:"address" json:"address"`
	Lat      float64 `bson:"lat" json:"lat"`
	Lng      float64 `bson:"lng" json:"lng"`
	Zone     string  `bson:"zone" json:"zone"`
	Landmark string  `bson:"landmark,omitempty" json:"landmark,omitempty"`
}

type MediaItem struct {
	Type       string    `bson:"type" json:"type"` // "image" or "video"
	URL        string    `bson:"url" json:"url"`
	Thumbnail  string    `bson:"thumbnail,omitempty" json:"thumbnail,omitempty"`
	UploadedAt time.Time `bson:"uploaded_at" json:"uploaded_at"`
}

// StatusHistoryEntry is one line of a report's append-only audit log.
type StatusHistoryEntry struct {
	Status  ReportStatus       `bson:"status" json:"status"`
	Date    time.Time          `bson:"date" json:"date"`
	UserID  primitive.ObjectID `bson:"user_id" json:"user_id"`
	Comment string             `bson:"comment" json:"comment"`
}

type Engagement struct {
	Views         int `bson:"views" json:"views"`
	Confirmations int `bson:"confirmations" json:"confirmations"`
}

type Report struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title         string               `bson:"title" json:"title"`
	Description   string               `bson:"description" json:"description"`
	Category      ReportCategory       `bson:"category" json:"category"`
	Priority      ReportPriority       `bson:"priority" json:"priority"`
	Status        ReportStatus         `bson:"status" json:"status"`
	Location      Location             `bson:"location" json:"location"`
	CitizenID     primitive.ObjectID   `bson:"citizen_id" json:"citizen_id"`
	Anonymous     bool                 `bson:"anonymous" json:"anonymous"`
	Media         []MediaItem          `bson:"media" json:"media"`
	Engagement    Engagement           `bson:"engagement" json:"engagement"`
	StatusHistory []StatusHistoryEntry `bson:"status_history" json:"status_history"`
	Tags          []string             `bson:"tags" json:"tags"`
	CreatedAt     time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at" json:"updated_at"`
}
