package handler

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/osinovi/user-service/internal/domain/entities"
)

// dateLayout is the wire format for birth and expiration dates.
const dateLayout = "2006-01-02"

var (
	emailPattern  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	numberPattern = regexp.MustCompile(`^[0-9]{16}$`)
	holderPattern = regexp.MustCompile(`^[A-Z]{1,32}\s[A-Z]{1,32}$`)
)

// UserRequest is the request body for creating or updating a user.
type UserRequest struct {
	Name      string `json:"name"`
	Surname   string `json:"surname"`
	BirthDate string `json:"birthDate"`
	Email     string `json:"email"`
}

// Validate checks the request constraints and returns the user record to
// persist, or the list of violations.
func (r *UserRequest) Validate() (*entities.User, []string) {
	var violations []string

	if strings.TrimSpace(r.Name) == "" {
		violations = append(violations, "name is required")
	} else if len(r.Name) > 32 {
		violations = append(violations, "name must not exceed 32 characters")
	}

	if strings.TrimSpace(r.Surname) == "" {
		violations = append(violations, "surname is required")
	} else if len(r.Surname) > 32 {
		violations = append(violations, "surname must not exceed 32 characters")
	}

	if r.Email == "" {
		violations = append(violations, "email is required")
	} else if len(r.Email) > 128 {
		violations = append(violations, "email must not exceed 128 characters")
	} else if !emailPattern.MatchString(r.Email) {
		violations = append(violations, "email must be valid")
	}

	var birthDate time.Time
	if r.BirthDate != "" {
		parsed, err := time.Parse(dateLayout, r.BirthDate)
		if err != nil {
			violations = append(violations, fmt.Sprintf("birthDate must match %s", dateLayout))
		} else {
			birthDate = parsed
		}
	}

	if len(violations) > 0 {
		return nil, violations
	}

	return &entities.User{
		Name:      r.Name,
		Surname:   r.Surname,
		BirthDate: birthDate,
		Email:     r.Email,
	}, nil
}

// CardRequest is the request body for creating or updating a card.
type CardRequest struct {
	Number         string `json:"number"`
	Holder         string `json:"holder"`
	ExpirationDate string `json:"expirationDate"`
}

// Validate checks the request constraints and returns the card record to
// persist, or the list of violations.
func (r *CardRequest) Validate() (*entities.Card, []string) {
	var violations []string

	if r.Number == "" {
		violations = append(violations, "number is required")
	} else if !numberPattern.MatchString(r.Number) {
		violations = append(violations, "number must contain exactly 16 digits")
	}

	if r.Holder == "" {
		violations = append(violations, "holder is required")
	} else if !holderPattern.MatchString(r.Holder) {
		violations = append(violations, "holder must contain only uppercase letters and follow the pattern: NAME SURNAME")
	}

	var expirationDate time.Time
	if r.ExpirationDate == "" {
		violations = append(violations, "expirationDate is required")
	} else {
		parsed, err := time.Parse(dateLayout, r.ExpirationDate)
		if err != nil {
			violations = append(violations, fmt.Sprintf("expirationDate must match %s", dateLayout))
		} else {
			expirationDate = parsed
		}
	}

	if len(violations) > 0 {
		return nil, violations
	}

	return &entities.Card{
		Number:         r.Number,
		Holder:         r.Holder,
		ExpirationDate: expirationDate,
	}, nil
}
