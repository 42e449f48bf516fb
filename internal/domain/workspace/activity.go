package workspace

import (
	"time"

	"github.com/google/uuid"
)

// Activity types recorded by badge readers, booking and the dashboard
const (
	ActivityBadgeIn        = "badge_in"
	ActivityBadgeOut       = "badge_out"
	ActivityMeetingCheckin = "meeting_checkin"
	ActivityDeskBooking    = "desk_booking"
	ActivityRoomBooking    = "room_booking"
	ActivityLogin          = "login"
)

// ActivityTypes lists the physical activity types
var ActivityTypes = []string{
	ActivityBadgeIn,
	ActivityBadgeOut,
	ActivityMeetingCheckin,
	ActivityDeskBooking,
	ActivityRoomBooking,
}

// UserActivity is one logged interaction of an employee with the workplace
type UserActivity struct {
	ID              uuid.UUID `json:"id"`
	CompanyID       string    `json:"company_id"`
	UserID          string    `json:"user_id"`
	Department      string    `json:"department"`
	ActivityType    string    `json:"activity_type"`
	Location        string    `json:"location"`
	DurationMinutes int       `json:"duration_minutes"`
	Timestamp       time.Time `json:"timestamp"`
}

// NewUserActivity creates an activity record
func NewUserActivity(companyID, userID, department, activityType, location string, duration int, at time.Time) *UserActivity {
	return &UserActivity{
		ID:              uuid.New(),
		CompanyID:       companyID,
		UserID:          userID,
		Department:      department,
		ActivityType:    activityType,
		Location:        location,
		DurationMinutes: duration,
		Timestamp:       at,
	}
}
