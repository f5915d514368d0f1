package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAction(t *testing.T) {
	tests := []struct {
		dashboard Dashboard
		action    Action
		ok        bool
	}{
		{DashboardLinkedIn, ActionJobSearch, true},
		{DashboardLinkedIn, ActionJobDetails, true},
		{DashboardLinkedIn, ActionProfileUpdate, true},
		{DashboardLinkedIn, ActionArbitraryDetails, false},
		{DashboardOther, ActionArbitraryDetails, true},
		{DashboardOther, ActionJobSearch, false},
		{Dashboard("INDEED"), ActionJobSearch, false},
		{DashboardLinkedIn, Action("linkedin_apply"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.dashboard)+"/"+string(tt.action), func(t *testing.T) {
			err := CheckAction(tt.dashboard, tt.action)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var unsupported *UnsupportedActionError
			require.ErrorAs(t, err, &unsupported)
			assert.Equal(t, tt.action, unsupported.Action)
		})
	}
}

func TestJobFromProfilePayloadDefaultsToAuthorized(t *testing.T) {
	j := JobFromProfilePayload("job-1", "user-1", ProfileUpdatePayload{UserHeadline: "Go dev"})

	assert.True(t, j.AuthorizedUser)
	assert.Equal(t, DashboardLinkedIn, j.Dashboard)
	assert.Equal(t, ActionProfileUpdate, j.Action)
	assert.Equal(t, "Go dev", j.Headline)

	anonymous := false
	j = JobFromProfilePayload("job-2", "user-1", ProfileUpdatePayload{AuthorizedUser: &anonymous})
	assert.False(t, j.AuthorizedUser)
}

func TestJobCookies(t *testing.T) {
	j := Job{UserCookies: []UserCookie{{Name: "li_at", Value: "v", Domain: ".linkedin.com", Path: "/"}}}

	got := j.Cookies()

	require.Len(t, got, 1)
	assert.Equal(t, "li_at", got[0].Name)
	assert.Equal(t, ".linkedin.com", got[0].Domain)
}

func TestStringPtr(t *testing.T) {
	assert.Nil(t, StringPtr(""))
	require.NotNil(t, StringPtr("x"))
	assert.Equal(t, "x", *StringPtr("x"))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "hitting bot protection wall: https://x (HTTP ERROR 429)",
		(&BotProtectionError{URL: "https://x", Reason: "HTTP ERROR 429"}).Error())
	assert.Equal(t, `not supported action: "x" on dashboard "OTHER"`,
		(&UnsupportedActionError{Action: "x", Dashboard: DashboardOther}).Error())
}
