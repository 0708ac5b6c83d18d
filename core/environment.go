package core

import (
	utils "skland/utils"
	"time"

	"github.com/google/uuid"
)

const (
	Organization  = "UWXspnCCJN4sfYlNfqps"
	AppID         = "default"
	ProtocolNum   = 102
	SdkVersion    = "3.0.0"
	SubVersion    = "1.0.0"
	EdgeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36 Edg/129.0.0.0"
)

// BrowserEnvironment returns the Edge-on-Windows descriptor with fresh session values.
func BrowserEnvironment(now time.Time) map[string]utils.Value {
	timeNow := now.UnixMilli()

	return map[string]utils.Value{
		"plugins":    utils.String("MicrosoftEdgePDFPluginPortableDocumentFormatinternal-pdf-viewer1,MicrosoftEdgePDFViewermhjfbmdgcfjbbpaeojofohoefgiehjai1"),
		"ua":         utils.String(EdgeUserAgent),
		"canvas":     utils.String("259ffe69"),
		"timezone":   utils.Int(-480),
		"platform":   utils.String("Win32"),
		"url":        utils.String("https://www.skland.com/"),
		"referer":    utils.String(""),
		"res":        utils.String("1920_1080_24_1.25"),
		"clientSize": utils.String("0_0_1080_1920_1920_1080_1920_1080"),
		"status":     utils.String("0011"),

		// Session
		"vpw":   utils.String(uuid.New().String()),
		"svm":   utils.Int(timeNow),
		"trees": utils.String(uuid.New().String()),
		"pmf":   utils.Int(timeNow),
	}
}

// GenerateSmid builds the session marker id: local time, md5 of a fresh uuid, "00",
// then 14 hex chars of md5("smsk_web_" + prefix) and a trailing "0".
func GenerateSmid(now time.Time) string {
	v := now.Format("20060102150405") + utils.Md5Hash(uuid.New().String()) + "00"
	smskWeb := utils.Md5Hash("smsk_web_" + v)[:14]
	return v + smskWeb + "0"
}

func ProtocolMetadata(smid string) map[string]utils.Value {
	return map[string]utils.Value{
		"protocol":     utils.Int(ProtocolNum),
		"organization": utils.String(Organization),
		"appId":        utils.String(AppID),
		"os":           utils.String("web"),
		"version":      utils.String(SdkVersion),
		"sdkver":       utils.String(SdkVersion),
		"box":          utils.String(""),
		"rtype":        utils.String("all"),
		"smid":         utils.String(smid),
		"subVersion":   utils.String(SubVersion),
		"time":         utils.Int(0),
	}
}

// BuildTarget merges environment and metadata, then adds the "tn" integrity tag
// computed over everything else.
func BuildTarget(now time.Time) map[string]utils.Value {
	target := BrowserEnvironment(now)
	for k, v := range ProtocolMetadata(GenerateSmid(now)) {
		target[k] = v
	}
	return WithIntegrityTag(target)
}

func WithIntegrityTag(target map[string]utils.Value) map[string]utils.Value {
	delete(target, "tn")
	tn := utils.Md5Hash(utils.Canonicalize(target))
	target["tn"] = utils.String(tn)
	return target
}
