package domain

import (
	"fmt"
	"strings"
)

var (
	AllowedSexValues      = []string{"Male", "Female", "Other"}
	AllowedLocationValues = []string{"Trunk", "Head/Neck", "Extremities", "Palms/Soles", "Oral/Genital"}
)

// PatientMetadata is the structured input of the multi-input classifier.
type PatientMetadata struct {
	Age      int    `json:"age"`
	Sex      string `json:"sex"`
	Location string `json:"location"`
}

// NewPatientMetadata validates the three fields and returns every violation found.
// Enumerations are matched case-insensitively; the caller's spelling is kept.
func NewPatientMetadata(age int, sex, location string) (*PatientMetadata, []FieldError) {
	var violations []FieldError

	if age <= 0 {
		violations = append(violations, FieldError{
			Field:         "metadata.age",
			ValueProvided: age,
			Message:       "age must be a positive integer",
		})
	}
	if !containsFold(AllowedSexValues, sex) {
		violations = append(violations, FieldError{
			Field:         "metadata.sex",
			ValueProvided: sex,
			Message:       fmt.Sprintf("invalid sex, must be one of: %s", strings.Join(AllowedSexValues, ", ")),
		})
	}
	if !containsFold(AllowedLocationValues, location) {
		violations = append(violations, FieldError{
			Field:         "metadata.location",
			ValueProvided: location,
			Message:       fmt.Sprintf("invalid location, must be one of: %s", strings.Join(AllowedLocationValues, ", ")),
		})
	}

	if len(violations) > 0 {
		return nil, violations
	}
	return &PatientMetadata{Age: age, Sex: sex, Location: location}, nil
}

// CacheKey is a normalized rendering used to key cached predictions.
func (m *PatientMetadata) CacheKey() string {
	if m == nil {
		return "-"
	}
	return fmt.Sprintf("%d|%s|%s", m.Age, strings.ToLower(m.Sex), strings.ToLower(m.Location))
}

func containsFold(values []string, v string) bool {
	for _, candidate := range values {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}
