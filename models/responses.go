package models

import (
	"encoding/json"
	"fmt"
)

// IDList accepts either a JSON array of id strings or a single bare id
// string; a bare id is promoted to a one-element list.
type IDList []string

func (l *IDList) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = []string{one}
		return nil
	}
	return fmt.Errorf("expected id string or array of id strings")
}

// ReportCreatePayload is the JSON body for POST /api/v1/reports.
type ReportCreatePayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Priority    string   `json:"priority"`
	Location    Location `json:"location"`
	Anonymous   bool     `json:"anonymous"`
	Tags        []string `json:"tags"`
}

// ReportUpdatePayload is the body for PUT /api/v1/reports/:id. A
// status-bearing edit takes the audited transition path and the other
// fields are ignored for that request, as in the admin edit flow.
type ReportUpdatePayload struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Priority    *string   `json:"priority"`
	Status      *string   `json:"status"`
	Comment     string    `json:"comment"`
	Tags        *[]string `json:"tags"`
}

// ReportStatusPayload is the body for PUT /api/v1/reports/:id/status.
type ReportStatusPayload struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
}

// EngagePayload increments one engagement counter.
type EngagePayload struct {
	Field  string `json:"field"` // "views" or "confirmations"
	Amount int    `json:"amount"`
}

// MediaPayload appends one media record to a report.
type MediaPayload struct {
	Type      string `json:"type"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
}

// InterventionCreatePayload is the JSON body for POST /api/v1/interventions.
type InterventionCreatePayload struct {
	ReportID          string     `json:"report_id"`
	TechnicianIDs     IDList     `json:"technician_ids"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Priority          string     `json:"priority"`
	IsPrimary         bool       `json:"is_primary"`
	Materials         []Material `json:"materials"`
	EstimatedDuration int        `json:"estimated_duration"`
}

// InterventionStatusPayload is the body for PUT /api/v1/interventions/:id/status.
type InterventionStatusPayload struct {
	ReportID string `json:"report_id"`
	Status   string `json:"status"`
}

// InterventionUpdatePayload is the body for PUT /api/v1/interventions/:id.
type InterventionUpdatePayload struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Notes       *string `json:"notes"`
}

type AssignTechniciansPayload struct {
	TechnicianIDs IDList `json:"technician_ids"`
	IsPrimary     bool   `json:"is_primary"`
}

type PhotoPayload struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

type CompleteStepPayload struct {
	StepName string `json:"step_name"`
}

type ProgressPayload struct {
	Percentage  int    `json:"percentage"`
	CurrentStep string `json:"current_step"`
}

// CompletePayload carries the parent report for a completion call.
type CompletePayload struct {
	ReportID string `json:"report_id"`
}

type CreateResp struct {
	OK bool   `json:"ok"`
	ID string `json:"id,omitempty"`
}

type ReportListResp struct {
	OK         bool     `json:"ok"`
	Items      []Report `json:"items"`
	NextCursor string   `json:"next_cursor,omitempty"`
}
