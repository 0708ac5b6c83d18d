package core

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	utils "skland/utils"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	DevicesInfoURL = "https://fp-it.portal101.cn/deviceprofile/v4"

	// RSA-1024 key of the device profile service (SubjectPublicKeyInfo, base64 DER)
	PublicKey = "MIGfMA0GCSqGSIb3DQEBAQUAA4GNADCBiQKBgQCmxMNr7n8ZeT0tE1R9j/mPixoinPkeM+k4VGIn/s0k7N5rJAfnZ0eMER+QhwFvshzo0LNmeUkpR8uIlU/GEVr8mN28sKmwd2gpygqj0ePnBmOW4v0ZVwbSYK+izkhVFk2V/doLoMbWy6b+UnA8mkjvg0iYWRByfRsK2gdl7llqCwIDAQAB"

	AESIV = "0102030405060708"

	FingerprintOK = 1100
)

// PriID derives the AES key from the request uid: the first 16 hex characters of its md5,
// used as ASCII bytes.
func PriID(uid string) string {
	return utils.Md5Hash(uid)[:16]
}

// EncryptPayload runs the obfuscate, JSON, gzip, AES and hex stages over a target that
// already carries "tn".
func EncryptPayload(target map[string]utils.Value, priID string) (string, error) {
	obfuscated, err := ObfuscateTarget(target)
	if err != nil {
		return "", err
	}

	raw, err := utils.MarshalCompact(obfuscated)
	if err != nil {
		return "", &CryptoError{Op: "json", Err: err}
	}

	compressed, err := utils.GzipCompress(raw)
	if err != nil {
		return "", &CryptoError{Op: "gzip", Err: err}
	}

	cipherText, err := utils.EncryptAESCBC(compressed, []byte(priID), []byte(AESIV))
	if err != nil {
		return "", &CryptoError{Op: "aes", Err: err}
	}

	return hex.EncodeToString(cipherText), nil
}

// NewDeviceRequest builds the device profile request body for a fresh uid.
// The returned priID is only needed to decode the payload again.
func NewDeviceRequest(now time.Time) (utils.DeviceProfileRequest, string, error) {
	uid := uuid.New().String()
	priID := PriID(uid)

	pub, err := utils.ParseRSAPublicKey(PublicKey)
	if err != nil {
		return utils.DeviceProfileRequest{}, "", &CryptoError{Op: "parse public key", Err: err}
	}

	ep, err := utils.EncryptRSAPKCS1(pub, []byte(uid))
	if err != nil {
		return utils.DeviceProfileRequest{}, "", &CryptoError{Op: "rsa", Err: err}
	}

	data, err := EncryptPayload(BuildTarget(now), priID)
	if err != nil {
		return utils.DeviceProfileRequest{}, "", err
	}

	return utils.DeviceProfileRequest{
		AppID:        AppID,
		Compress:     2,
		Data:         data,
		Encode:       5,
		EP:           ep,
		Organization: Organization,
		OS:           "web",
	}, priID, nil
}

// GetDeviceID exchanges a freshly built fingerprint for the service's device id ("B" + detail.deviceId).
func GetDeviceID(client HttpDoer) (string, error) {
	payload, _, err := NewDeviceRequest(time.Now())
	if err != nil {
		return "", err
	}

	body, err := postJSON(client, DevicesInfoURL, payload, nil)
	if err != nil {
		return "", err
	}

	code, err := jsonInt(body, "code")
	if err != nil {
		return "", err
	}
	if code != FingerprintOK {
		return "", &FingerprintRejectedError{Code: code, Body: string(body)}
	}

	deviceID, err := jsonString(body, "detail", "deviceId")
	if err != nil {
		return "", err
	}

	log.Debugf("device profile accepted: %s", deviceID)
	return "B" + deviceID, nil
}

// DecodePayload reverses EncryptPayload: it returns the plain field names and
// plaintext values of a "data" hex string, given the request's priID.
func DecodePayload(dataHex, priID string) (map[string]string, error) {
	cipherText, err := hex.DecodeString(dataHex)
	if err != nil {
		return nil, &CryptoError{Op: "hex", Err: err}
	}

	compressed, err := utils.DecryptAESCBC(cipherText, []byte(priID), []byte(AESIV))
	if err != nil {
		return nil, &CryptoError{Op: "aes", Err: err}
	}

	raw, err := utils.GzipDecompress(compressed)
	if err != nil {
		return nil, &CryptoError{Op: "gzip", Err: err}
	}

	return DecodeObfuscated(raw)
}

// DecodeObfuscated maps an obfuscated JSON object back to field names, decrypting DES fields.
func DecodeObfuscated(raw []byte) (map[string]string, error) {
	var fields map[string]any
	if err := utils.UnmarshalNumber(raw, &fields); err != nil {
		return nil, &CryptoError{Op: "json", Err: err}
	}

	result := make(map[string]string, len(fields))
	for name, value := range fields {
		text := fmt.Sprintf("%v", value)

		field, ok := reverseRules[name]
		if !ok {
			result[name] = text
			continue
		}

		rule := desRules[field]
		if !rule.Encrypt {
			result[field] = text
			continue
		}

		cipherText, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, &CryptoError{Op: "base64 " + field, Err: err}
		}
		plainText, err := utils.DecryptDESECB(cipherText, rule.Key)
		if err != nil {
			return nil, &CryptoError{Op: "des " + field, Err: err}
		}
		result[field] = string(plainText)
	}
	return result, nil
}
