package exam

import (
	"errors"
	"regexp"
	"sort"
	"strings"
)

var (
	ErrTestNotCompleted  = errors.New("please complete the test first")
	ErrResultUnavailable = errors.New("result is not available yet")
	ErrInvalidUserInfo   = errors.New("invalid candidate details")
)

// Where the candidate should be sent when a precondition fails.
const (
	RedirectTest     = "/test"
	RedirectIdentify = "/login"
	RedirectResults  = "/results"
)

var (
	emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	phonePattern = regexp.MustCompile(`^\d{10}$`)
)

// ValidationError carries one message per offending field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrInvalidUserInfo.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidUserInfo
}

// ValidateUserInfo trims every field and checks name, email and a 10-digit phone.
func ValidateUserInfo(in UserInfo) (UserInfo, error) {
	out := UserInfo{
		Name:  strings.TrimSpace(in.Name),
		Email: strings.TrimSpace(in.Email),
		Phone: strings.TrimSpace(in.Phone),
	}
	fields := map[string]string{}
	if out.Name == "" {
		fields["name"] = "Name is required"
	}
	switch {
	case out.Email == "":
		fields["email"] = "Email is required"
	case !emailPattern.MatchString(out.Email):
		fields["email"] = "Email is invalid"
	}
	switch {
	case out.Phone == "":
		fields["phone"] = "Phone number is required"
	case !phonePattern.MatchString(out.Phone):
		fields["phone"] = "Phone number must be 10 digits"
	}
	if len(fields) > 0 {
		return out, &ValidationError{Fields: fields}
	}
	return out, nil
}

type ResultView struct {
	SessionID string       `json:"session_id"`
	ResultID  string       `json:"result_id"`
	User      UserInfo     `json:"user"`
	Answers   map[int]int  `json:"answers"`
	Score     ScoreSummary `json:"score"`
}

// RedirectFor maps a precondition error to the step the candidate must revisit.
func RedirectFor(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrTestNotCompleted), errors.Is(err, ErrResultUnavailable):
		return RedirectTest, true
	default:
		return "", false
	}
}
