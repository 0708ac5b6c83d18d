package core

import (
	"sort"

	utils "skland/utils"
)

type FieldRule struct {
	Encrypt        bool
	Key            string // 8 ASCII bytes, empty when Encrypt is false
	ObfuscatedName string
}

// desRules is the field table of the web SDK (v3.0.0). Keys and names are fixed by the service.
var desRules = map[string]FieldRule{
	"appId":        {Encrypt: true, Key: "uy7mzc4h", ObfuscatedName: "xx"},
	"box":          {Encrypt: false, ObfuscatedName: "jf"},
	"canvas":       {Encrypt: true, Key: "snrn887t", ObfuscatedName: "yk"},
	"clientSize":   {Encrypt: true, Key: "cpmjjgsu", ObfuscatedName: "zx"},
	"organization": {Encrypt: true, Key: "78moqjfc", ObfuscatedName: "dp"},
	"os":           {Encrypt: true, Key: "je6vk6t4", ObfuscatedName: "pj"},
	"platform":     {Encrypt: true, Key: "pakxhcd2", ObfuscatedName: "gm"},
	"plugins":      {Encrypt: true, Key: "v51m3pzl", ObfuscatedName: "kq"},
	"pmf":          {Encrypt: true, Key: "2mdeslu3", ObfuscatedName: "vw"},
	"protocol":     {Encrypt: false, ObfuscatedName: "protocol"},
	"referer":      {Encrypt: true, Key: "y7bmrjlc", ObfuscatedName: "ab"},
	"res":          {Encrypt: true, Key: "whxqm2a7", ObfuscatedName: "hf"},
	"rtype":        {Encrypt: true, Key: "x8o2h2bl", ObfuscatedName: "lo"},
	"sdkver":       {Encrypt: true, Key: "9q3dcxp2", ObfuscatedName: "sc"},
	"status":       {Encrypt: true, Key: "2jbrxxw4", ObfuscatedName: "an"},
	"subVersion":   {Encrypt: true, Key: "eo3i2puh", ObfuscatedName: "ns"},
	"svm":          {Encrypt: true, Key: "fzj3kaeh", ObfuscatedName: "qr"},
	"time":         {Encrypt: true, Key: "q2t3odsk", ObfuscatedName: "nb"},
	"timezone":     {Encrypt: true, Key: "1uv05lj5", ObfuscatedName: "as"},
	"tn":           {Encrypt: true, Key: "x9nzj1bp", ObfuscatedName: "py"},
	"trees":        {Encrypt: true, Key: "acfs0xo4", ObfuscatedName: "pi"},
	"ua":           {Encrypt: true, Key: "k92crp1t", ObfuscatedName: "bj"},
	"url":          {Encrypt: true, Key: "y95hjkoo", ObfuscatedName: "cf"},
	"version":      {Encrypt: false, ObfuscatedName: "version"},
	"vpw":          {Encrypt: true, Key: "r9924ab5", ObfuscatedName: "ca"},
}

var reverseRules = func() map[string]string {
	m := make(map[string]string, len(desRules))
	for field, rule := range desRules {
		m[rule.ObfuscatedName] = field
	}
	return m
}()

func LookupRule(field string) (FieldRule, bool) {
	rule, ok := desRules[field]
	return rule, ok
}

// RuleFields returns the table's field names, sorted.
func RuleFields() []string {
	fields := make([]string, 0, len(desRules))
	for f := range desRules {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// ObfuscateField renames a field and, when its rule says so, replaces the value
// with base64(DES-ECB(value)). Fields without a rule come back unchanged.
func ObfuscateField(name string, v utils.Value) (string, utils.Value, error) {
	rule, ok := desRules[name]
	if !ok {
		return name, v, nil
	}
	if !rule.Encrypt {
		return rule.ObfuscatedName, v, nil
	}

	enc, err := utils.EncryptDESField(v.String(), rule.Key)
	if err != nil {
		return "", utils.Value{}, &CryptoError{Op: "des " + name, Err: err}
	}
	return rule.ObfuscatedName, utils.String(enc), nil
}

// ObfuscateTarget applies ObfuscateField to every entry.
func ObfuscateTarget(target map[string]utils.Value) (map[string]utils.Value, error) {
	result := make(map[string]utils.Value, len(target))
	for name, v := range target {
		newName, newValue, err := ObfuscateField(name, v)
		if err != nil {
			return nil, err
		}
		result[newName] = newValue
	}
	return result, nil
}
