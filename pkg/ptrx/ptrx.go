package ptrx

import "time"

func String(s string) *string { return &s }

func Int(i int) *int { return &i }

func Float64(f float64) *float64 { return &f }

func Bool(b bool) *bool { return &b }

func Time(t time.Time) *time.Time { return &t }

// StringValue dereferences s, returning "" for nil
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Of returns a pointer to any value
func Of[T any](v T) *T { return &v }
