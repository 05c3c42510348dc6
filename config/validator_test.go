package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testJobDTO struct {
	Schedule string `validate:"required,cron"`
	ZoneID   string `validate:"required,ianatz"`
	Stage    string `validate:"required,stagename"`
}

func TestDTOValidatorAcceptsValidFields(t *testing.T) {
	dv := NewDTOValidator()
	err := dv.Validate(testJobDTO{Schedule: "0 0 5 * * *", ZoneID: "UTC", Stage: "ingest"})
	assert.NoError(t, err)
}

func TestDTOValidatorRejectsBadCron(t *testing.T) {
	dv := NewDTOValidator()
	err := dv.Validate(testJobDTO{Schedule: "not a cron", ZoneID: "UTC", Stage: "ingest"})
	require.Error(t, err)

	var ve ValidationErrors
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve, 1)
	assert.Equal(t, "Schedule", ve[0].Field)
}

func TestDTOValidatorRejectsBadZone(t *testing.T) {
	dv := NewDTOValidator()
	err := dv.Validate(testJobDTO{Schedule: "0 0 5 * * *", ZoneID: "Not/AZone", Stage: "ingest"})
	require.Error(t, err)

	var ve ValidationErrors
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve, 1)
	assert.Equal(t, "ZoneID", ve[0].Field)
}

func TestDTOValidatorRejectsBadStageName(t *testing.T) {
	dv := NewDTOValidator()
	err := dv.Validate(testJobDTO{Schedule: "0 0 5 * * *", ZoneID: "UTC", Stage: "bad stage!"})
	require.Error(t, err)

	var ve ValidationErrors
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve, 1)
	assert.Equal(t, "Stage", ve[0].Field)
}

func TestDTOValidatorReportsMultipleFields(t *testing.T) {
	dv := NewDTOValidator()
	err := dv.Validate(testJobDTO{})
	require.Error(t, err)

	var ve ValidationErrors
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve, 3)
}

func TestValidatorGenericHelpers(t *testing.T) {
	v := NewValidator()
	v.ValidateRequired("name", "")
	v.ValidateRange("port", 70000, 1, 65535)
	v.ValidateEnum("level", "bogus", []string{"debug", "info"})

	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 3)
}
