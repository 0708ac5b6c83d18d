package core

import (
	utils "skland/utils"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	grantOK = `{"status":0,"data":{"code":"GRANT","uid":"1"},"msg":"OK"}`
	credOK  = `{"code":0,"message":"OK","data":{"cred":"CRED","userId":"1","token":"SIGNTOKEN"}}`

	bindingsOK = `{"code":0,"message":"OK","data":{"list":[
		{"appCode":"arknights","appName":"明日方舟","bindingList":[
			{"uid":"123","isOfficial":true,"isDefault":true,"channelMasterId":"1","channelName":"官服","nickName":"Doctor#1234","isDelete":false,"gameId":1}
		]},
		{"appCode":"endfield","appName":"明日方舟：终末地","bindingList":[
			{"uid":"456","channelName":"官服","roles":[
				{"roleId":"R1","serverId":"S1","nickname":"Endmin"},
				{"roleId":"R2","serverId":"S2","nickname":""}
			]}
		]},
		{"appCode":"exastris","bindingList":[{"uid":"789"}]}
	]}}`

	attendanceOK     = `{"code":0,"message":"OK","data":{"awards":[{"resource":{"id":"4001","name":"龙门币"},"count":500,"type":"daily"}]}}`
	attendanceRepeat = `{"code":10001,"message":"请勿重复签到！","data":{}}`
	attendanceFail   = `{"code":10002,"message":"用户未登录","data":{}}`
)

var (
	arknightsURL = utils.APIHost + "/api/v1/game/attendance"
	endfieldURL  = utils.APIHost + "/web/v1/game/endfield/attendance"
	bindingURL   = utils.APIHost + utils.BindingPath
)

func signRoutes(arknights, endfield string) map[string]stubResponse {
	return map[string]stubResponse{
		DevicesInfoURL:     {body: deviceOK},
		utils.GrantCodeURL: {body: grantOK},
		utils.CredCodeURL:  {body: credOK},
		bindingURL:         {body: bindingsOK},
		arknightsURL:       {body: arknights},
		endfieldURL:        {body: endfield},
	}
}

func TestNewSkylandClient(t *testing.T) {
	client, err := NewSkylandClient(newStub(signRoutes(attendanceOK, attendanceOK)))
	require.NoError(t, err)
	assert.Equal(t, "BXYZ", client.DeviceID)
	assert.Equal(t, AppUserAgent, client.UserAgent)

	_, err = NewSkylandClient(newStub(map[string]stubResponse{
		DevicesInfoURL: {body: `{"code":1902}`},
	}))
	var rejected *FingerprintRejectedError
	require.ErrorAs(t, err, &rejected)
}

func TestLogin(t *testing.T) {
	stub := newStub(signRoutes(attendanceOK, attendanceOK))
	client := testClient(stub)

	cred, err := client.Login(Unauthenticated{Token: "ACCOUNT"})
	require.NoError(t, err)
	assert.Equal(t, Authenticated{Token: "SIGNTOKEN", Cred: "CRED", DeviceID: "BXYZ"}, cred)

	grant := stub.requestsTo(utils.GrantCodeURL)
	require.Len(t, grant, 1)
	assert.Equal(t, `{"appCode":"4ca99fa6b56cc2ba","token":"ACCOUNT","type":0}`, grant[0].Body)
	assert.Equal(t, []string{"BXYZ"}, grant[0].Header["dId"])

	credReq := stub.requestsTo(utils.CredCodeURL)
	require.Len(t, credReq, 1)
	assert.Equal(t, `{"code":"GRANT","kind":1}`, credReq[0].Body)
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name      string
		grant     string
		cred      string
		wantField string
	}{
		{
			name:      "grant rejected",
			grant:     `{"status":100,"msg":"token expired"}`,
			cred:      credOK,
			wantField: "status",
		},
		{
			name:      "grant without code",
			grant:     `{"status":0,"data":{}}`,
			cred:      credOK,
			wantField: "data.code",
		},
		{
			name:      "cred rejected",
			grant:     grantOK,
			cred:      `{"code":10000,"message":"invalid code"}`,
			wantField: "code",
		},
		{
			name:      "cred without token",
			grant:     grantOK,
			cred:      `{"code":0,"data":{"cred":"CRED"}}`,
			wantField: "data.token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newStub(map[string]stubResponse{
				utils.GrantCodeURL: {body: tt.grant},
				utils.CredCodeURL:  {body: tt.cred},
			})

			_, err := testClient(stub).Login(Unauthenticated{Token: "ACCOUNT"})
			var protocol *ProtocolError
			require.ErrorAs(t, err, &protocol)
			assert.Equal(t, tt.wantField, protocol.Field)
		})
	}
}

func TestGetBindings(t *testing.T) {
	stub := newStub(signRoutes(attendanceOK, attendanceOK))
	client := testClient(stub)
	cred := Authenticated{Token: "SIGNTOKEN", Cred: "CRED", DeviceID: "BXYZ"}

	bindings, err := client.GetBindings(cred)
	require.NoError(t, err)

	assert.Equal(t, []utils.Binding{
		{AppCode: "arknights", GameID: 1, UID: "123", NickName: "Doctor#1234", ChannelName: "官服"},
		{AppCode: "endfield", UID: "456", NickName: "Endmin", ChannelName: "官服", RoleID: "R1", ServerID: "S1"},
		{AppCode: "endfield", UID: "456", ChannelName: "官服", RoleID: "R2", ServerID: "S2"},
	}, bindings)

	sent := stub.requestsTo(bindingURL)
	require.Len(t, sent, 1)
	assert.Equal(t, "GET", sent[0].Method)
	assert.Equal(t, []string{"a99ca9b8f325062243ee5f38219ac3fc"}, sent[0].Header["sign"])
	assert.Equal(t, []string{"CRED"}, sent[0].Header["cred"])
	assert.Equal(t, []string{"com.hypergryph.skland"}, sent[0].Header["X-Requested-With"])
}

func TestGetBindingsErrors(t *testing.T) {
	cred := Authenticated{Token: "SIGNTOKEN", Cred: "CRED", DeviceID: "BXYZ"}

	stub := newStub(map[string]stubResponse{
		bindingURL: {body: `{"code":10002,"message":"用户未登录"}`},
	})
	_, err := testClient(stub).GetBindings(cred)
	var protocol *ProtocolError
	require.ErrorAs(t, err, &protocol)
	assert.Contains(t, protocol.Message, "用户未登录")

	stub = newStub(map[string]stubResponse{
		bindingURL: {body: `{"code":0,"data":{}}`},
	})
	_, err = testClient(stub).GetBindings(cred)
	require.ErrorAs(t, err, &protocol)
	assert.Equal(t, "data.list", protocol.Field)
}

func TestSignArknights(t *testing.T) {
	stub := newStub(signRoutes(attendanceOK, attendanceOK))
	client := testClient(stub)
	cred := Authenticated{Token: "SIGNTOKEN", Cred: "CRED", DeviceID: "BXYZ"}

	result, err := client.SignArknights(cred, utils.Binding{AppCode: "arknights", GameID: 1, UID: "123"})
	require.NoError(t, err)
	assert.Equal(t, utils.StatusSuccess, result.Status())
	assert.Equal(t, []utils.Award{{Name: "龙门币", Count: 500}}, result.Awards)

	sent := stub.requestsTo(arknightsURL)
	require.Len(t, sent, 1)
	assert.Equal(t, "POST", sent[0].Method)
	assert.Equal(t, `{"gameId":1,"uid":"123"}`, sent[0].Body)

	wantSign, _, err := SignAt("/api/v1/game/attendance", sent[0].Body, "SIGNTOKEN", "BXYZ", fixedSign)
	require.NoError(t, err)
	assert.Equal(t, []string{wantSign}, sent[0].Header["sign"])
}

func TestSignEndfield(t *testing.T) {
	stub := newStub(signRoutes(attendanceOK, attendanceRepeat))
	client := testClient(stub)
	cred := Authenticated{Token: "SIGNTOKEN", Cred: "CRED", DeviceID: "BXYZ"}

	result, err := client.SignEndfield(cred, utils.Binding{AppCode: "endfield", RoleID: "R1", ServerID: "S1"})
	require.NoError(t, err)
	assert.Equal(t, utils.StatusInfo, result.Status())
	assert.Empty(t, result.Awards)

	sent := stub.requestsTo(endfieldURL)
	require.Len(t, sent, 1)
	assert.Equal(t, "", sent[0].Body)
	assert.Equal(t, []string{"3_R1_S1"}, sent[0].Header["sk-game-role"])

	wantSign, _, err := SignAt("/web/v1/game/endfield/attendance", "", "SIGNTOKEN", "BXYZ", fixedSign)
	require.NoError(t, err)
	assert.Equal(t, []string{wantSign}, sent[0].Header["sign"])
}

func TestAttendPresetShape(t *testing.T) {
	const customURL = utils.APIHost + "/web/v1/game/custom/attendance"
	cred := Authenticated{Token: "SIGNTOKEN", Cred: "CRED", DeviceID: "BXYZ"}
	binding := utils.Binding{AppCode: "custom", GameID: 7, UID: "42", RoleID: "R9", ServerID: "S9"}

	tests := []struct {
		name     string
		preset   utils.Preset
		wantBody string
		wantRole []string
	}{
		{
			name:   "bare",
			preset: utils.Preset{Name: "custom", SignPath: "/web/v1/game/custom/attendance"},
		},
		{
			name:     "body",
			preset:   utils.Preset{Name: "custom", SignPath: "/web/v1/game/custom/attendance", Body: true},
			wantBody: `{"gameId":7,"uid":"42"}`,
		},
		{
			name:     "role",
			preset:   utils.Preset{Name: "custom", SignPath: "/web/v1/game/custom/attendance", RoleOnly: true},
			wantRole: []string{"3_R9_S9"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newStub(map[string]stubResponse{customURL: {body: attendanceOK}})

			result, err := testClient(stub).AttendPreset(cred, tt.preset, binding)
			require.NoError(t, err)
			assert.Equal(t, utils.StatusSuccess, result.Status())

			sent := stub.requestsTo(customURL)
			require.Len(t, sent, 1)
			assert.Equal(t, "POST", sent[0].Method)
			assert.Equal(t, tt.wantBody, sent[0].Body)
			assert.Equal(t, tt.wantRole, sent[0].Header["sk-game-role"])

			wantSign, _, err := SignAt(tt.preset.SignPath, tt.wantBody, "SIGNTOKEN", "BXYZ", fixedSign)
			require.NoError(t, err)
			assert.Equal(t, []string{wantSign}, sent[0].Header["sign"])
		})
	}
}

func TestAttendUnknownGame(t *testing.T) {
	cred := Authenticated{Token: "SIGNTOKEN", Cred: "CRED", DeviceID: "BXYZ"}
	stub := newStub(nil)

	_, err := testClient(stub).Attend(cred, utils.Binding{AppCode: "exastris"})
	require.ErrorContains(t, err, `unsupported game "exastris"`)
	assert.Empty(t, stub.requests)
}

func TestParseAttendance(t *testing.T) {
	result, err := parseAttendance([]byte(`{"code":0,"message":""}`))
	require.NoError(t, err)
	assert.Equal(t, "OK", result.Message)

	_, err = parseAttendance([]byte(`{"message":"no code"}`))
	var protocol *ProtocolError
	require.ErrorAs(t, err, &protocol)
}

func TestRunSign(t *testing.T) {
	stub := newStub(signRoutes(attendanceRepeat, attendanceOK))

	ok, logs := testClient(stub).RunSign("ACCOUNT", []string{"arknights", "endfield"})
	assert.True(t, ok)
	assert.Equal(t, []string{
		"[ARKNIGHTS] Doctor#1234: INFO - 请勿重复签到！",
		"[ENDFIELD] Endmin: SUCCESS - OK | 获得: 龙门币x500",
		"[ENDFIELD] R2: SUCCESS - OK | 获得: 龙门币x500",
	}, logs)
}

func TestRunSignFiltersGames(t *testing.T) {
	stub := newStub(signRoutes(attendanceOK, attendanceFail))

	ok, logs := testClient(stub).RunSign("ACCOUNT", []string{"arknights"})
	assert.True(t, ok)
	require.Len(t, logs, 1)
	assert.True(t, strings.HasPrefix(logs[0], "[ARKNIGHTS]"))
	assert.Empty(t, stub.requestsTo(endfieldURL))
}

func TestRunSignFailures(t *testing.T) {
	stub := newStub(signRoutes(attendanceOK, attendanceFail))
	ok, logs := testClient(stub).RunSign("ACCOUNT", nil)
	assert.False(t, ok)
	assert.Contains(t, logs, "[ENDFIELD] Endmin: FAIL - 用户未登录")

	routes := signRoutes(attendanceOK, attendanceOK)
	routes[utils.GrantCodeURL] = stubResponse{body: `{"status":100,"msg":"token expired"}`}
	ok, logs = testClient(newStub(routes)).RunSign("ACCOUNT", nil)
	assert.False(t, ok)
	require.Len(t, logs, 1)
	assert.True(t, strings.HasPrefix(logs[0], "Login/Init Error: "))
	assert.Contains(t, logs[0], "token expired")
}
