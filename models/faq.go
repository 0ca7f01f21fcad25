package models

import "time"

type FAQ struct {
	ID         int       `json:"id" goqu:"skipinsert"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Status     string    `json:"status"`
	Created_At time.Time `json:"created_at" goqu:"skipinsert"`
	Updated_At time.Time `json:"updated_at" goqu:"skipinsert"`
}

type FAQInput struct {
	Question string `json:"question" binding:"required,max=500"`
	Answer   string `json:"answer" binding:"required"`
	Status   string `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
}
