package core

import (
	utils "skland/utils"
	"strconv"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
)

const (
	SignPlatform = "3"
	SignVName    = "1.0.0"
)

// signHeader field order is part of the signed bytes.
type signHeader struct {
	Platform  string `json:"platform"`
	Timestamp string `json:"timestamp"`
	DID       string `json:"dId"`
	VName     string `json:"vName"`
}

// SignTimestamp is the clock the service expects: unix seconds, two seconds behind.
func SignTimestamp(now time.Time) int64 {
	return now.Unix() - 2
}

func Sign(path, body, token, deviceID string) (string, string, error) {
	return SignAt(path, body, token, deviceID, SignTimestamp(time.Now()))
}

// SignAt returns md5(hex(hmac_sha256(token, path+body+ts+headerJSON))) and the header JSON.
func SignAt(path, body, token, deviceID string, ts int64) (string, string, error) {
	timestamp := strconv.FormatInt(ts, 10)

	headerJSON, err := utils.MarshalCompact(signHeader{
		Platform:  SignPlatform,
		Timestamp: timestamp,
		DID:       deviceID,
		VName:     SignVName,
	})
	if err != nil {
		return "", "", &CryptoError{Op: "sign header", Err: err}
	}

	s := path + body + timestamp + string(headerJSON)
	sign := utils.Md5Hash(utils.HmacSha256Hex(token, s))

	return sign, string(headerJSON), nil
}

// SignedHeaders builds the header set of one signed request. The timestamp header is
// read back out of the signed header JSON so both stay textually identical.
func SignedHeaders(cred Authenticated, path, body string, ts int64) (fhttp.Header, error) {
	sign, headerJSON, err := SignAt(path, body, cred.Token, cred.DeviceID, ts)
	if err != nil {
		return nil, err
	}

	timestamp, err := jsonString([]byte(headerJSON), "timestamp")
	if err != nil {
		return nil, err
	}

	return fhttp.Header{
		"cred":         {cred.Cred},
		"sign":         {sign},
		"dId":          {cred.DeviceID},
		"platform":     {SignPlatform},
		"timestamp":    {timestamp},
		"vName":        {SignVName},
		"Content-Type": {"application/json"},
		fhttp.HeaderOrderKey: {
			"cred",
			"sign",
			"did",
			"platform",
			"timestamp",
			"vname",
			"content-type",
		},
	}, nil
}
