package core

import (
	"fmt"
	utils "skland/utils"
	"strings"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/buger/jsonparser"
	log "github.com/sirupsen/logrus"
)

const AppUserAgent = "Mozilla/5.0 (Linux; Android 12; SKAS/1.0) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/101.0.4951.61 Mobile Safari/537.36"

// Unauthenticated is a session before the grant exchange: only the user's account token.
type Unauthenticated struct {
	Token string
}

// Authenticated is produced by Login and never changes afterwards.
// Token here is the signing token returned by the cred exchange, not the account token.
type Authenticated struct {
	Token    string
	Cred     string
	DeviceID string
}

type SkylandClient struct {
	Client    HttpDoer
	DeviceID  string
	UserAgent string

	// Now is the signing clock, time.Now when nil.
	Now func() time.Time
}

// NewSkylandClient fetches the device id once; it is reused for the client's lifetime.
func NewSkylandClient(client HttpDoer) (*SkylandClient, error) {
	deviceID, err := GetDeviceID(client)
	if err != nil {
		return nil, fmt.Errorf("failed to get device id: %w", err)
	}

	return &SkylandClient{
		Client:    client,
		DeviceID:  deviceID,
		UserAgent: AppUserAgent,
	}, nil
}

func (c *SkylandClient) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *SkylandClient) baseHeaders() fhttp.Header {
	return fhttp.Header{
		"User-Agent":       {c.UserAgent},
		"Accept-Encoding":  {"gzip"},
		"Connection":       {"close"},
		"dId":              {c.DeviceID},
		"X-Requested-With": {"com.hypergryph.skland"},
	}
}

func (c *SkylandClient) signedHeaders(cred Authenticated, path, body string) (fhttp.Header, error) {
	header, err := SignedHeaders(cred, path, body, SignTimestamp(c.now()))
	if err != nil {
		return nil, err
	}

	for key, values := range c.baseHeaders() {
		if _, ok := header[key]; !ok {
			header[key] = values
		}
	}
	header[fhttp.HeaderOrderKey] = append([]string{"user-agent", "accept-encoding", "connection", "x-requested-with"}, header[fhttp.HeaderOrderKey]...)
	return header, nil
}

// Login trades the account token for a grant code, then the grant code for cred and signing token.
func (c *SkylandClient) Login(u Unauthenticated) (Authenticated, error) {
	grantBody, err := postJSON(c.Client, utils.GrantCodeURL, utils.GrantRequest{
		AppCode: utils.AppCode,
		Token:   u.Token,
		Type:    0,
	}, c.baseHeaders())
	if err != nil {
		return Authenticated{}, err
	}

	status, err := jsonInt(grantBody, "status")
	if err != nil {
		return Authenticated{}, err
	}
	if status != 0 {
		return Authenticated{}, &ProtocolError{
			Field:   "status",
			Message: "OAuth grant failed: " + jsonStringOr(grantBody, "unknown error", "msg"),
			Body:    string(grantBody),
		}
	}

	grantCode, err := jsonString(grantBody, "data", "code")
	if err != nil {
		return Authenticated{}, err
	}

	credBody, err := postJSON(c.Client, utils.CredCodeURL, utils.CredRequest{
		Code: grantCode,
		Kind: 1,
	}, c.baseHeaders())
	if err != nil {
		return Authenticated{}, err
	}

	code, err := jsonInt(credBody, "code")
	if err != nil {
		return Authenticated{}, err
	}
	if code != 0 {
		return Authenticated{}, &ProtocolError{
			Field:   "code",
			Message: "get cred failed: " + jsonStringOr(credBody, "unknown error", "message"),
			Body:    string(credBody),
		}
	}

	cred, err := jsonString(credBody, "data", "cred")
	if err != nil {
		return Authenticated{}, err
	}
	token, err := jsonString(credBody, "data", "token")
	if err != nil {
		return Authenticated{}, err
	}

	return Authenticated{Token: token, Cred: cred, DeviceID: c.DeviceID}, nil
}

// GetBindings lists check-in targets for the supported games. Endfield bindings are expanded per role.
func (c *SkylandClient) GetBindings(cred Authenticated) ([]utils.Binding, error) {
	headers, err := c.signedHeaders(cred, utils.BindingPath, "")
	if err != nil {
		return nil, err
	}

	body, err := doRequest(c.Client, "GET", utils.APIHost+utils.BindingPath, nil, headers)
	if err != nil {
		return nil, err
	}

	code, err := jsonInt(body, "code")
	if err != nil {
		return nil, err
	}
	if code != 0 {
		return nil, &ProtocolError{
			Field:   "code",
			Message: "get bindings failed: " + jsonStringOr(body, "unknown error", "message"),
			Body:    string(body),
		}
	}

	if _, _, _, err := jsonparser.Get(body, "data", "list"); err != nil {
		return nil, protocolError(body, []string{"data", "list"}, err)
	}

	var bindings []utils.Binding
	jsonparser.ArrayEach(body, func(app []byte, _ jsonparser.ValueType, _ int, _ error) {
		appCode := jsonStringOr(app, "", "appCode")
		preset, err := utils.FindPresetByName(appCode)
		if err != nil {
			return
		}

		jsonparser.ArrayEach(app, func(item []byte, _ jsonparser.ValueType, _ int, _ error) {
			channelName := jsonStringOr(item, "", "channelName")

			if !preset.RoleOnly {
				gameID, _ := jsonparser.GetInt(item, "gameId")
				bindings = append(bindings, utils.Binding{
					AppCode:     appCode,
					GameID:      gameID,
					UID:         jsonStringOr(item, "", "uid"),
					NickName:    jsonStringOr(item, "", "nickName"),
					ChannelName: channelName,
				})
				return
			}

			jsonparser.ArrayEach(item, func(role []byte, _ jsonparser.ValueType, _ int, _ error) {
				bindings = append(bindings, utils.Binding{
					AppCode:     appCode,
					UID:         jsonStringOr(item, "", "uid"),
					NickName:    jsonStringOr(role, "", "nickname"),
					ChannelName: channelName,
					RoleID:      jsonStringOr(role, "", "roleId"),
					ServerID:    jsonStringOr(role, "", "serverId"),
				})
			}, "roles")
		}, "bindingList")
	}, "data", "list")

	return bindings, nil
}

func (c *SkylandClient) SignArknights(cred Authenticated, binding utils.Binding) (utils.AttendanceResult, error) {
	return c.attendGame("arknights", cred, binding)
}

func (c *SkylandClient) SignEndfield(cred Authenticated, binding utils.Binding) (utils.AttendanceResult, error) {
	return c.attendGame("endfield", cred, binding)
}

// Attend dispatches on the binding's app code.
func (c *SkylandClient) Attend(cred Authenticated, binding utils.Binding) (utils.AttendanceResult, error) {
	return c.attendGame(binding.AppCode, cred, binding)
}

func (c *SkylandClient) attendGame(name string, cred Authenticated, binding utils.Binding) (utils.AttendanceResult, error) {
	preset, err := utils.FindPresetByName(name)
	if err != nil {
		return utils.AttendanceResult{}, fmt.Errorf("unsupported game %q", name)
	}
	return c.AttendPreset(cred, preset, binding)
}

// AttendPreset posts one check-in the way the preset describes it: a {gameId, uid}
// body when Body is set, an sk-game-role header when RoleOnly is set.
func (c *SkylandClient) AttendPreset(cred Authenticated, preset utils.Preset, binding utils.Binding) (utils.AttendanceResult, error) {
	var body []byte
	if preset.Body {
		var err error
		body, err = utils.MarshalCompact(utils.ArknightsSignRequest{GameID: binding.GameID, UID: binding.UID})
		if err != nil {
			return utils.AttendanceResult{}, fmt.Errorf("failed to marshal sign body: %w", err)
		}
	}

	// the signed body must be byte-identical to the sent one
	headers, err := c.signedHeaders(cred, preset.SignPath, string(body))
	if err != nil {
		return utils.AttendanceResult{}, err
	}
	if preset.RoleOnly {
		headers["sk-game-role"] = []string{fmt.Sprintf("3_%s_%s", binding.RoleID, binding.ServerID)}
		headers[fhttp.HeaderOrderKey] = append(headers[fhttp.HeaderOrderKey], "sk-game-role")
	}

	resp, err := doRequest(c.Client, "POST", preset.SignURL(), body, headers)
	if err != nil {
		return utils.AttendanceResult{}, err
	}
	return parseAttendance(resp)
}

func parseAttendance(body []byte) (utils.AttendanceResult, error) {
	code, err := jsonInt(body, "code")
	if err != nil {
		return utils.AttendanceResult{}, err
	}

	result := utils.AttendanceResult{
		Code:    code,
		Message: jsonStringOr(body, "", "message"),
	}
	if result.Message == "" {
		result.Message = "OK"
	}

	jsonparser.ArrayEach(body, func(award []byte, _ jsonparser.ValueType, _ int, _ error) {
		count, _ := jsonparser.GetInt(award, "count")
		result.Awards = append(result.Awards, utils.Award{
			Name:  jsonStringOr(award, "", "resource", "name"),
			Count: count,
		})
	}, "data", "awards")

	return result, nil
}

// RunSign logs in, lists bindings and checks in every binding of the enabled games.
// It returns false when anything failed; the log lines describe each binding.
func (c *SkylandClient) RunSign(token string, games []string) (bool, []string) {
	var logs []string
	allSuccess := true

	cred, err := c.Login(Unauthenticated{Token: token})
	if err != nil {
		return false, []string{fmt.Sprintf("Login/Init Error: %v", err)}
	}

	bindings, err := c.GetBindings(cred)
	if err != nil {
		return false, []string{fmt.Sprintf("Login/Init Error: %v", err)}
	}

	for _, binding := range bindings {
		if len(games) > 0 && !contains(games, binding.AppCode) {
			continue
		}

		game := strings.ToUpper(binding.AppCode)
		name := binding.DisplayName()

		result, err := c.Attend(cred, binding)
		if err != nil {
			allSuccess = false
			logs = append(logs, fmt.Sprintf("[%s] %s: ERROR - %v", game, name, err))
			log.WithFields(log.Fields{"game": binding.AppCode, "binding": name}).Errorf("attendance failed: %v", err)
			continue
		}

		status := result.Status()
		if status == utils.StatusFail {
			allSuccess = false
		}
		logs = append(logs, fmt.Sprintf("[%s] %s: %s - %s%s", game, name, status, result.Message, result.AwardSummary()))
	}

	return allSuccess, logs
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
