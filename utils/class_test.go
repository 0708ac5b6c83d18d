package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttendanceStatus(t *testing.T) {
	tests := []struct {
		name   string
		result AttendanceResult
		want   string
	}{
		{name: "success", result: AttendanceResult{Code: 0, Message: "OK"}, want: StatusSuccess},
		{name: "already signed", result: AttendanceResult{Code: 10001, Message: "请勿重复签到！"}, want: StatusInfo},
		{name: "failure", result: AttendanceResult{Code: 10002, Message: "用户未登录"}, want: StatusFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.Status())
		})
	}
}

func TestAwardSummary(t *testing.T) {
	assert.Equal(t, "", AttendanceResult{}.AwardSummary())

	r := AttendanceResult{Awards: []Award{{Name: "龙门币", Count: 500}, {Name: "初级作战记录", Count: 2}}}
	assert.Equal(t, " | 获得: 龙门币x500,初级作战记录x2", r.AwardSummary())
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Doctor", Binding{NickName: "Doctor", UID: "1"}.DisplayName())
	assert.Equal(t, "R1", Binding{AppCode: "endfield", RoleID: "R1", UID: "1"}.DisplayName())
	assert.Equal(t, "1", Binding{AppCode: "arknights", UID: "1"}.DisplayName())
	assert.Equal(t, "Unknown", Binding{}.DisplayName())
}

func TestFindPresetByName(t *testing.T) {
	preset, err := FindPresetByName("arknights")
	require.NoError(t, err)
	assert.True(t, preset.Body)
	assert.Equal(t, "https://zonai.skland.com/api/v1/game/attendance", preset.SignURL())

	preset, err = FindPresetByName("endfield")
	require.NoError(t, err)
	assert.True(t, preset.RoleOnly)

	_, err = FindPresetByName("genshin")
	require.Error(t, err)
}

func TestValidateStructFields(t *testing.T) {
	for _, preset := range Presets {
		require.NoError(t, validateStructFields(preset, preset.Name))
	}

	err := validateStructFields(Preset{Name: "broken"}, "Preset 'broken'")
	require.ErrorContains(t, err, "WebsiteName")
}
