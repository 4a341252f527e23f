package auth

import "errors"

type LoginDTO struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
	BotToken string `json:"botToken"`
}

type loginResponse struct {
	Token  string `json:"token"`
	Email  string `json:"email"`
	Agency string `json:"agencyId"`
}

type sessionResponse struct {
	Email    string `json:"email"`
	AgencyID string `json:"agencyId"`
}

var (
	errStaffNotFound     = errors.New("staff not found")
	errWrongPassword     = errors.New("wrong password")
	errNotMemberOfAgency = errors.New("not a member of this agency")
)
