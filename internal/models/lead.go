package models

import (
	"fmt"
	"time"
)

// InterestStatus is the admin-assigned triage label on a lead.
type InterestStatus string

const (
	InterestHigh       InterestStatus = "high"
	InterestMedium     InterestStatus = "medium"
	InterestLow        InterestStatus = "low"
	InterestUnassigned InterestStatus = "unassigned"
)

// InterestStatuses lists every accepted status in display order.
var InterestStatuses = []InterestStatus{InterestHigh, InterestMedium, InterestLow, InterestUnassigned}

func (s InterestStatus) Valid() bool {
	switch s {
	case InterestHigh, InterestMedium, InterestLow, InterestUnassigned:
		return true
	}
	return false
}

// ParseInterestStatus accepts only the exact lowercase enum values.
func ParseInterestStatus(s string) (InterestStatus, error) {
	status := InterestStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("invalid interest status %q: must be one of high, medium, low, unassigned", s)
	}
	return status, nil
}

// LeadSubmission is a validated franchise inquiry before it is stored.
type LeadSubmission struct {
	FullName             string `json:"fullName"`
	Email                string `json:"email"`
	Phone                string `json:"phone"`
	CityState            string `json:"cityState"`
	OwnsBusiness         string `json:"ownsBusiness"`
	BusinessNameIndustry string `json:"businessNameIndustry,omitempty"`
	InterestReason       string `json:"interestReason"`
	EstimatedBudget      string `json:"estimatedBudget"`
	HasSpace             string `json:"hasSpace"`
	SpaceLocationSize    string `json:"spaceLocationSize,omitempty"`
	StartTimeline        string `json:"startTimeline"`
	HeardAboutUs         string `json:"heardAboutUs"`
	Confirm              bool   `json:"confirm"`
}

// Lead is one stored franchise inquiry. Only InterestStatus changes after
// creation.
type Lead struct {
	ID string `json:"id"`
	LeadSubmission
	InterestStatus InterestStatus `json:"interestStatus"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// NewLead stamps a submission with its identity, creation time and the
// default status.
func NewLead(id string, sub LeadSubmission, createdAt time.Time) *Lead {
	return &Lead{
		ID:             id,
		LeadSubmission: sub,
		InterestStatus: InterestUnassigned,
		CreatedAt:      createdAt,
	}
}

// Document is the stored shape of a lead's submitted fields.
func (l *Lead) Document() map[string]interface{} {
	doc := map[string]interface{}{
		"fullName":        l.FullName,
		"email":           l.Email,
		"phone":           l.Phone,
		"cityState":       l.CityState,
		"ownsBusiness":    l.OwnsBusiness,
		"interestReason":  l.InterestReason,
		"estimatedBudget": l.EstimatedBudget,
		"hasSpace":        l.HasSpace,
		"startTimeline":   l.StartTimeline,
		"heardAboutUs":    l.HeardAboutUs,
		"confirm":         l.Confirm,
	}
	if l.BusinessNameIndustry != "" {
		doc["businessNameIndustry"] = l.BusinessNameIndustry
	}
	if l.SpaceLocationSize != "" {
		doc["spaceLocationSize"] = l.SpaceLocationSize
	}
	return doc
}
