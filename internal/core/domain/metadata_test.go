package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPatientMetadata(t *testing.T) {
	meta, violations := NewPatientMetadata(45, "female", "HEAD/NECK")
	require.Empty(t, violations)
	assert.Equal(t, &PatientMetadata{Age: 45, Sex: "female", Location: "HEAD/NECK"}, meta)

	meta, violations = NewPatientMetadata(-1, "robot", "Back")
	assert.Nil(t, meta)
	require.Len(t, violations, 3)
	assert.Equal(t, "metadata.age", violations[0].Field)
	assert.Equal(t, "metadata.sex", violations[1].Field)
	assert.Equal(t, "metadata.location", violations[2].Field)
	assert.Equal(t, "Back", violations[2].ValueProvided)
}

func TestPatientMetadata_CacheKey(t *testing.T) {
	var none *PatientMetadata
	assert.Equal(t, "-", none.CacheKey())

	a := &PatientMetadata{Age: 30, Sex: "Male", Location: "Trunk"}
	b := &PatientMetadata{Age: 30, Sex: "male", Location: "trunk"}
	assert.Equal(t, a.CacheKey(), b.CacheKey())
}
