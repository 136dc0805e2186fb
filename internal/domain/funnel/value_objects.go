package funnel

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidDirection = errors.New("invalid exchange direction")
	ErrInvalidAmount    = errors.New("amount must be a number greater than zero")
	ErrInvalidDate      = errors.New("date must be in dd.mm.yyyy format")
	ErrInvalidUsername  = errors.New("username format invalid")
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{5,32}$`)

// ParseAmount accepts "1500", "1500.50" and the comma variant "1500,50".
func ParseAmount(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// ParseDealDate parses dd.mm.yyyy into a date at midnight UTC.
func ParseDealDate(raw string) (time.Time, error) {
	t, err := time.Parse("02.01.2006", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// NormalizeUsername strips a leading @ and validates the handle.
func NormalizeUsername(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "@")
	if strings.Contains(s, " ") || !usernameRe.MatchString(s) {
		return "", ErrInvalidUsername
	}
	return s, nil
}
