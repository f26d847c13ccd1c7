// Package utils provides small cross-cutting helpers: JSON (de)serialization,
// retry/backoff, pagination, error wrapping, and pointer helpers.
package utils

import (
	"encoding/json"
	"fmt"
	"time"
)

// ToJSON serializes v, returning "" on error.
func ToJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// FromJSON deserializes data into v.
func FromJSON(data string, v interface{}) error {
	return json.Unmarshal([]byte(data), v)
}

// Retry calls fn up to maxAttempts times, sleeping delay between attempts.
func Retry(maxAttempts int, delay time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt < maxAttempts-1 {
			time.Sleep(delay)
		}
	}
	return lastErr
}

// RetryWithBackoff is Retry with exponential backoff (factor 1.5) capped at maxDelay.
func RetryWithBackoff(maxAttempts int, initialDelay time.Duration, maxDelay time.Duration, fn func() error) error {
	var lastErr error
	delay := initialDelay

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt < maxAttempts-1 {
			time.Sleep(delay)
			delay = time.Duration(float64(delay) * 1.5)
			if delay > maxDelay {
				delay = maxDelay
			}
		}
	}
	return lastErr
}

// Pagination captures page/page_size/total for a list endpoint.
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
	Pages    int64 `json:"pages"`
}

// NewPagination clamps page/pageSize to sane bounds and derives Pages.
func NewPagination(page, pageSize int, total int64) *Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 1000 {
		pageSize = 1000
	}

	pages := (total + int64(pageSize) - 1) / int64(pageSize)

	return &Pagination{
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		Pages:    pages,
	}
}

// Offset is the SQL OFFSET for this page.
func (p *Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit is the SQL LIMIT for this page.
func (p *Pagination) Limit() int {
	return p.PageSize
}

// ErrorWrapper carries a stable error code alongside a human message, for
// handlers that need to translate domain errors to an API error body.
type ErrorWrapper struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Cause   error       `json:"-"`
}

// NewErrorWrapper builds an ErrorWrapper around cause.
func NewErrorWrapper(code, message string, cause error) *ErrorWrapper {
	return &ErrorWrapper{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithDetails attaches structured detail to the wrapper.
func (ew *ErrorWrapper) WithDetails(details interface{}) *ErrorWrapper {
	ew.Details = details
	return ew
}

func (ew *ErrorWrapper) Error() string {
	if ew.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", ew.Code, ew.Message, ew.Cause)
	}
	return fmt.Sprintf("[%s] %s", ew.Code, ew.Message)
}

// FormatTime formats t, defaulting to "2006-01-02 15:04:05" when layout is empty.
func FormatTime(t time.Time, layout string) string {
	if layout == "" {
		layout = "2006-01-02 15:04:05"
	}
	return t.Format(layout)
}

// ParseTime parses timeStr, defaulting to "2006-01-02 15:04:05" when layout is empty.
func ParseTime(timeStr string, layout string) (time.Time, error) {
	if layout == "" {
		layout = "2006-01-02 15:04:05"
	}
	return time.Parse(layout, timeStr)
}

func IsEmpty(s string) bool {
	return len(s) == 0
}

func IsNotEmpty(s string) bool {
	return len(s) > 0
}

func StringPtr(s string) *string { return &s }
func IntPtr(i int) *int          { return &i }
func Int64Ptr(i int64) *int64    { return &i }
func Float64Ptr(f float64) *float64 { return &f }
func BoolPtr(b bool) *bool       { return &b }

func DerefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func DerefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

func DerefInt64(i *int64) int64 {
	if i == nil {
		return 0
	}
	return *i
}

func DerefFloat64(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func DerefBool(b *bool) bool {
	if b == nil {
		return false
	}
	return *b
}
