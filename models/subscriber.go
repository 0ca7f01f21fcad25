package models

import (
	"strings"
	"time"
)

type Subscriber struct {
	ID                int       `json:"id" goqu:"skipinsert"`
	Email             string    `json:"email"`
	Verify_Token      string    `json:"-"`
	Unsubscribe_Token string    `json:"-"`
	Is_Verified       bool      `json:"is_verified"`
	Created_At        time.Time `json:"created_at" goqu:"skipinsert"`
}

type SubscribeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (r *SubscribeRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}
