package utils

import (
	"fmt"
	"strings"
)

// Binding is one check-in target: an arknights account or a single endfield role.
type Binding struct {
	AppCode     string `json:"appCode"`
	GameID      int64  `json:"gameId"`
	UID         string `json:"uid"`
	NickName    string `json:"nickName"`
	ChannelName string `json:"channelName"`

	// Endfield only
	RoleID   string `json:"roleId"`
	ServerID string `json:"serverId"`
}

func (b Binding) DisplayName() string {
	switch {
	case b.NickName != "":
		return b.NickName
	case b.AppCode == "endfield" && b.RoleID != "":
		return b.RoleID
	case b.UID != "":
		return b.UID
	default:
		return "Unknown"
	}
}

// Attendance Result
type Award struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type AttendanceResult struct {
	Code    int64   `json:"code"`
	Message string  `json:"message"`
	Awards  []Award `json:"awards"`
}

const (
	StatusSuccess = "SUCCESS"
	StatusInfo    = "INFO"
	StatusFail    = "FAIL"
)

// Status classifies the response. "重复" marks an attendance already done today.
func (r AttendanceResult) Status() string {
	switch {
	case r.Code == 0:
		return StatusSuccess
	case strings.Contains(r.Message, "重复"):
		return StatusInfo
	default:
		return StatusFail
	}
}

// AwardSummary renders " | 获得: namexN,..." or "" without awards.
func (r AttendanceResult) AwardSummary() string {
	if len(r.Awards) == 0 {
		return ""
	}

	parts := make([]string, 0, len(r.Awards))
	for _, award := range r.Awards {
		parts = append(parts, fmt.Sprintf("%sx%d", award.Name, award.Count))
	}
	return " | 获得: " + strings.Join(parts, ",")
}

// Grant Exchange
type GrantRequest struct {
	AppCode string `json:"appCode"`
	Token   string `json:"token"`
	Type    int    `json:"type"`
}

type CredRequest struct {
	Code string `json:"code"`
	Kind int    `json:"kind"`
}

// Fingerprint Exchange
type DeviceProfileRequest struct {
	AppID        string `json:"appId"`
	Compress     int    `json:"compress"`
	Data         string `json:"data"`
	Encode       int    `json:"encode"`
	EP           string `json:"ep"`
	Organization string `json:"organization"`
	OS           string `json:"os"`
}

type ArknightsSignRequest struct {
	GameID int64  `json:"gameId"`
	UID    string `json:"uid"`
}
