package models

import "time"

const (
	ProgramStatusUpcoming  = "Upcoming"
	ProgramStatusActive    = "Active"
	ProgramStatusCompleted = "Completed"
)

type Program struct {
	ID                 int        `json:"id" goqu:"skipinsert"`
	Organization_ID    int        `json:"organization_id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Category           string     `json:"category"`
	Status             string     `json:"status"`
	Image              *string    `json:"image"`
	Event_Start_Date   *time.Time `json:"event_start_date"`
	Event_End_Date     *time.Time `json:"event_end_date"`
	Slug               string     `json:"slug"`
	Is_Approved        bool       `json:"is_approved"`
	Is_Featured        bool       `json:"is_featured"`
	Is_Collaborative   bool       `json:"is_collaborative"`
	Accepts_Volunteers bool       `json:"accepts_volunteers"`
	Created_By         *int       `json:"created_by"`
	Created_At         time.Time  `json:"created_at" goqu:"skipinsert"`
	Updated_At         time.Time  `json:"updated_at" goqu:"skipinsert"`
}

// IsSingleDay reports whether the program runs on exactly one calendar day.
func (p Program) IsSingleDay() bool {
	if p.Event_Start_Date == nil || p.Event_End_Date == nil {
		return false
	}
	return p.Event_Start_Date.Format("2006-01-02") == p.Event_End_Date.Format("2006-01-02")
}

type ProgramDetail struct {
	Program
	Org_Name          string                `json:"org_name"`
	Org_Acronym       string                `json:"org_acronym"`
	Org_Logo          string                `json:"org_logo"`
	Is_Single_Day     bool                  `json:"is_single_day" db:"-"`
	Event_Dates       []string              `json:"event_dates" db:"-"`
	Additional_Images []string              `json:"additional_images" db:"-"`
	Collaborators     []ProgramCollaborator `json:"collaborators" db:"-"`
	// Set only in the management view for programs the admin collaborates on.
	Collaboration_Status string `json:"collaboration_status,omitempty" db:"-"`
}

type ProgramEventDate struct {
	ID         int       `json:"id" goqu:"skipinsert"`
	Program_ID int       `json:"program_id"`
	Event_Date time.Time `json:"event_date"`
}

type ProgramAdditionalImage struct {
	ID         int    `json:"id" goqu:"skipinsert"`
	Program_ID int    `json:"program_id"`
	Image_URL  string `json:"image_url"`
	Position   int    `json:"position"`
}

// ProgramInput is the create/update payload. Any approval flag a client sends is
// not part of the payload and never reaches the database.
type ProgramInput struct {
	Title              string   `json:"title" form:"title" binding:"required,max=200"`
	Description        string   `json:"description" form:"description" binding:"required"`
	Category           string   `json:"category" form:"category" binding:"required,max=100"`
	Status             string   `json:"status" form:"status" binding:"omitempty,oneof=Upcoming Active Completed"`
	Event_Start_Date   string   `json:"event_start_date" form:"event_start_date" binding:"omitempty,datetime=2006-01-02"`
	Event_End_Date     string   `json:"event_end_date" form:"event_end_date" binding:"omitempty,datetime=2006-01-02"`
	Event_Dates        []string `json:"event_dates" form:"event_dates" binding:"omitempty,dive,datetime=2006-01-02"`
	Additional_Images  []string `json:"additional_images" form:"additional_images" binding:"omitempty,dive,url"`
	Collaborators      []int    `json:"collaborators" form:"collaborators" binding:"omitempty,dive,gt=0"`
	Accepts_Volunteers *bool    `json:"accepts_volunteers" form:"accepts_volunteers"`
	Image              string   `json:"image" form:"image_url" binding:"omitempty,url"`
}

// Program delete targets
const (
	DeleteKindProgram    = "program"
	DeleteKindSubmission = "submission"
)

// ProgramDeleteTarget names what a program delete request removes.
type ProgramDeleteTarget struct {
	Kind string
	ID   int
}
