// Package adform validates the ad creation form: per-field length and
// enum constraints plus the cross-field music requirement.
package adform

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	ObjectiveTraffic     = "Traffic"
	ObjectiveConversions = "Conversions"

	MusicOptionExisting = "existing"
	MusicOptionUpload   = "upload"
	MusicOptionNone     = "none"
)

// CallToActions is the fixed set of CTA labels.
var CallToActions = []string{
	"Learn More",
	"Shop Now",
	"Sign Up",
	"Download",
	"Watch More",
	"Contact Us",
}

// FormData is the full form state. Cross-field rules see the whole
// struct, so single-field validation still runs against it.
type FormData struct {
	CampaignName string `json:"campaignName" validate:"required,min=3,max=100"`
	Objective    string `json:"objective" validate:"required,oneof=Traffic Conversions"`
	AdText       string `json:"adText" validate:"required,max=100"`
	CTA          string `json:"cta" validate:"required,oneof='Learn More' 'Shop Now' 'Sign Up' Download 'Watch More' 'Contact Us'"`
	MusicOption  string `json:"musicOption" validate:"required,oneof=existing upload none"`
	MusicID      string `json:"musicId"`
}

// Errors maps field names to displayable messages. An empty map means
// the form is valid.
type Errors map[string]string

var messages = map[string]map[string]string{
	"campaignName": {
		"required": "Campaign name is required",
		"min":      "Campaign name must be at least 3 characters",
		"max":      "Campaign name cannot exceed 100 characters",
	},
	"objective": {
		"required": "Campaign objective is required",
		"oneof":    "Please select a valid campaign objective",
	},
	"adText": {
		"required": "Ad text is required",
		"max":      "Ad text cannot exceed 100 characters",
	},
	"cta": {
		"required": "Call-to-action is required",
		"oneof":    "Please select a valid call-to-action",
	},
	"musicOption": {
		"required":       "Music selection is required",
		"oneof":          "Please select a valid music option",
		"music_required": "Music is required for Conversion campaigns",
	},
	"musicId": {
		"music_id_required":   "Music ID is required",
		"music_file_required": "Please upload a music file",
		"music_id_min":        "Music ID must be at least 3 characters",
		"music_id_max":        "Music ID is too long",
	},
}

const fallbackMessage = "Invalid value"

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return fld.Name
		}
		return name
	})
	validate.RegisterStructValidation(crossFieldRules, FormData{})
	return &Validator{validate: validate}
}

// crossFieldRules covers what tags cannot express: the Conversions
// objective forbids "none", and the music id constraints depend on the
// selected option.
func crossFieldRules(sl validator.StructLevel) {
	form := sl.Current().Interface().(FormData)

	if form.Objective == ObjectiveConversions && form.MusicOption == MusicOptionNone {
		sl.ReportError(form.MusicOption, "musicOption", "MusicOption", "music_required", "")
	}

	switch form.MusicOption {
	case MusicOptionExisting:
		switch {
		case strings.TrimSpace(form.MusicID) == "":
			sl.ReportError(form.MusicID, "musicId", "MusicID", "music_id_required", "")
		case len(form.MusicID) < 3:
			sl.ReportError(form.MusicID, "musicId", "MusicID", "music_id_min", "")
		case len(form.MusicID) > 50:
			sl.ReportError(form.MusicID, "musicId", "MusicID", "music_id_max", "")
		}
	case MusicOptionUpload:
		if strings.TrimSpace(form.MusicID) == "" {
			sl.ReportError(form.MusicID, "musicId", "MusicID", "music_file_required", "")
		}
	}
}

// ValidateForm runs every rule and collects the field→message map.
func (v *Validator) ValidateForm(form FormData) Errors {
	errs := Errors{}

	err := v.validate.Struct(form)
	if err == nil {
		return errs
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		errs["global"] = fallbackMessage
		return errs
	}

	for _, fieldErr := range validationErrors {
		field := fieldErr.Field()
		if _, seen := errs[field]; seen {
			continue
		}
		message := messages[field][fieldErr.Tag()]
		if message == "" {
			message = fallbackMessage
		}
		errs[field] = message
	}

	return errs
}

// ValidateField re-validates a single field against the current form
// state, as done on blur. Empty result means the field is fine.
func (v *Validator) ValidateField(form FormData, field string) string {
	return v.ValidateForm(form)[field]
}

// Valid reports whether the whole form passes; the submit control is
// enabled only when it does.
func (v *Validator) Valid(form FormData) bool {
	return len(v.ValidateForm(form)) == 0
}
