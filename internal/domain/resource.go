package domain

import (
	"strings"
	"time"
)

type ResourceStatus string

const (
	ResourceStatusDraft     ResourceStatus = "draft"
	ResourceStatusPublished ResourceStatus = "published"
	ResourceStatusArchived  ResourceStatus = "archived"
)

// Categories lists the catalogue categories in display order.
var Categories = []string{
	"Study Room",
	"Lab Equipment",
	"Event Space",
	"AV Equipment",
	"Tutoring",
	"Other",
}

func ValidCategory(c string) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

// TimeWindow is an "HH:MM"-"HH:MM" opening span within a day.
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WeeklySchedule maps lower-case weekday names to opening windows.
type WeeklySchedule map[string][]TimeWindow

type Resource struct {
	ID                      int64
	OwnerID                 int64
	Title                   string
	Slug                    string
	Description             string
	Category                string
	Location                string
	Capacity                *int
	Equipment               string
	AvailabilityRules       string
	IsRestricted            bool
	Status                  ResourceStatus
	Schedule                WeeklySchedule
	MinBookingMinutes       int
	MaxBookingMinutes       int
	BookingIncrementMinutes int
	BufferMinutes           int
	AdvanceBookingDays      int
	MinLeadTimeHours        int
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

func (r *Resource) Buffer() time.Duration {
	return time.Duration(r.BufferMinutes) * time.Minute
}

func (r *Resource) IsPublished() bool { return r.Status == ResourceStatusPublished }

// EquipmentList splits the stored equipment string.
func (r *Resource) EquipmentList() []string {
	var out []string
	for _, item := range strings.Split(r.Equipment, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// InitialBookingStatus is pending for restricted resources, approved otherwise.
func (r *Resource) InitialBookingStatus() BookingStatus {
	if r.IsRestricted {
		return BookingStatusPending
	}
	return BookingStatusApproved
}

type RatingStats struct {
	Average float64
	Count   int
}

// TopRated requires an average of at least 4.5 over three or more reviews.
func (s RatingStats) TopRated() bool {
	return s.Count >= 3 && s.Average >= 4.5
}
