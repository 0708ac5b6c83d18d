package utils

import (
	"fmt"
	"reflect"

	log "github.com/sirupsen/logrus"
)

func init() {
	for _, preset := range Presets {
		if err := validateStructFields(preset, "Preset '"+preset.Name+"'"); err != nil {
			log.Warn(err)
		}
	}
}

var optionalFields = map[string]bool{
	"Body":     true,
	"RoleOnly": true,
}

func validateStructFields(data interface{}, context string) error {
	v := reflect.ValueOf(data)
	t := v.Type()

	// Only process structs
	if t.Kind() != reflect.Struct {
		return nil
	}

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		if optionalFields[field.Name] || field.Type.Kind() == reflect.Bool {
			continue
		}

		if fieldValue.Kind() == reflect.Struct {
			if err := validateStructFields(fieldValue.Interface(), context+" > "+field.Name); err != nil {
				return err
			}
			continue
		}

		if fieldValue.IsZero() {
			return fmt.Errorf("%s field '%s' is missing a value", context, field.Name)
		}
	}
	return nil
}

const (
	APIHost  = "https://zonai.skland.com"
	AuthHost = "https://as.hypergryph.com"

	AppCode      = "4ca99fa6b56cc2ba"
	GrantCodeURL = AuthHost + "/user/oauth2/v2/grant"
	CredCodeURL  = APIHost + "/web/v1/user/auth/generate_cred_by_code"
	BindingPath  = "/api/v1/game/player/binding"
)

// Preset describes one game's attendance endpoint.
type Preset struct {
	Name        string `json:"name" yaml:"name"`
	WebsiteName string `json:"website_name" yaml:"website_name"`
	SignPath    string `json:"sign_path" yaml:"sign_path"`

	// Body is true when the signed request carries {gameId, uid}.
	Body bool `json:"body" yaml:"body"`
	// RoleOnly bindings are expanded per role and sent with an sk-game-role header.
	RoleOnly bool `json:"role_only" yaml:"role_only"`
}

func (p Preset) SignURL() string {
	return APIHost + p.SignPath
}

var Presets = []Preset{
	{
		Name:        "arknights",
		WebsiteName: "Arknights",
		SignPath:    "/api/v1/game/attendance",
		Body:        true,
	},
	{
		Name:        "endfield",
		WebsiteName: "Endfield",
		SignPath:    "/web/v1/game/endfield/attendance",
		RoleOnly:    true,
	},
}

func FindPresetByName(query string) (Preset, error) {
	for _, preset := range Presets {
		if preset.Name == query {
			return preset, nil
		}
	}
	return Preset{}, fmt.Errorf("preset not found for query: %s", query)
}
