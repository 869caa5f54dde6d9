package reminder

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigs(t *testing.T) {
	configs := DefaultConfigs()
	require.Len(t, configs, 3)

	byType := make(map[Type]Config, len(configs))
	for _, c := range configs {
		byType[c.Type] = c
	}

	overdue, ok := byType[TypeInvoiceOverdue]
	require.True(t, ok)
	assert.True(t, overdue.Enabled)
	assert.Equal(t, 1, overdue.DaysAfter)
	assert.Equal(t, Channels{ChannelEmail}, overdue.Channels)

	dueSoon, ok := byType[TypeInvoiceDueSoon]
	require.True(t, ok)
	assert.True(t, dueSoon.Enabled)
	assert.Equal(t, 3, dueSoon.DaysBefore)
	assert.Equal(t, Channels{ChannelEmail}, dueSoon.Channels)

	followup, ok := byType[TypeEstimateFollowup]
	require.True(t, ok)
	assert.False(t, followup.Enabled)
	assert.Equal(t, 7, followup.DaysAfter)
	assert.Equal(t, Channels{ChannelEmail}, followup.Channels)
}

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		typ     Type
		isValid bool
	}{
		{TypeInvoiceOverdue, true},
		{TypeInvoiceDueSoon, true},
		{TypeEstimateFollowup, true},
		{Type("TASK_DUE"), false},
		{Type(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.typ.IsValid())
		})
	}
}

func TestOutcome_IsValid(t *testing.T) {
	assert.True(t, OutcomeSent.IsValid())
	assert.True(t, OutcomeFailed.IsValid())
	assert.True(t, OutcomeLogged.IsValid())
	assert.False(t, Outcome("QUEUED").IsValid())
}

func TestConfigUpdate_Apply(t *testing.T) {
	t.Run("nil fields leave config unchanged", func(t *testing.T) {
		cfg := DefaultConfigs()[0]
		before := cfg

		ConfigUpdate{}.Apply(&cfg)

		assert.Equal(t, before.Enabled, cfg.Enabled)
		assert.Equal(t, before.DaysAfter, cfg.DaysAfter)
		assert.Equal(t, before.DaysBefore, cfg.DaysBefore)
		assert.Equal(t, before.Channels, cfg.Channels)
	})

	t.Run("set fields overwrite", func(t *testing.T) {
		cfg := DefaultConfigs()[0]
		enabled := false
		daysAfter := 5
		templateID := uuid.New()
		channels := Channels{ChannelEmail, ChannelSMS}

		ConfigUpdate{
			Enabled:    &enabled,
			DaysAfter:  &daysAfter,
			TemplateID: &templateID,
			Channels:   &channels,
		}.Apply(&cfg)

		assert.False(t, cfg.Enabled)
		assert.Equal(t, 5, cfg.DaysAfter)
		require.NotNil(t, cfg.TemplateID)
		assert.Equal(t, templateID, *cfg.TemplateID)
		assert.Equal(t, channels, cfg.Channels)
	})
}
