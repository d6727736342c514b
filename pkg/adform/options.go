package adform

// Option is one selectable value for an enum field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var fieldLabels = map[string]string{
	"campaignName": "Campaign Name",
	"objective":    "Campaign Objective",
	"adText":       "Ad Text",
	"cta":          "Call-to-Action",
	"musicOption":  "Music Selection",
	"musicId":      "Music",
}

func FieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return field
}

func FieldOptions(field string) []Option {
	switch field {
	case "objective":
		return []Option{
			{Value: ObjectiveTraffic, Label: "Traffic"},
			{Value: ObjectiveConversions, Label: "Conversions"},
		}
	case "cta":
		options := make([]Option, 0, len(CallToActions))
		for _, cta := range CallToActions {
			options = append(options, Option{Value: cta, Label: cta})
		}
		return options
	case "musicOption":
		return []Option{
			{Value: MusicOptionExisting, Label: "Use Existing Music ID"},
			{Value: MusicOptionUpload, Label: "Upload Custom Music"},
			{Value: MusicOptionNone, Label: "No Music"},
		}
	}
	return nil
}

// ShowField reports whether a field applies given the rest of the
// form; the music id input only exists for existing/upload selections.
func ShowField(field string, form FormData) bool {
	if field == "musicId" {
		return form.MusicOption == MusicOptionExisting || form.MusicOption == MusicOptionUpload
	}
	return true
}
