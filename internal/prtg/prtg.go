// Package prtg renders the run result in the PRTG EXE/Script Advanced JSON
// format. No computation happens here; all values arrive pre-computed.
package prtg

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/CC-Digital-Innovation/AD-Database-PRTG-Sensor/internal/classify"
	"github.com/CC-Digital-Innovation/AD-Database-PRTG-Sensor/internal/collector"
)

// Channel names emitted by the sensor.
const (
	ChannelDatabaseSize  = "AD Database Size (MB)"
	ChannelWhitespaceMB  = "AD Database Whitespace (MB)"
	ChannelWhitespacePct = "AD Database Whitespace (%)"
	ChannelDriveFree     = "Database Drive Free Space (MB)"
	ChannelDriveUsedPct  = "Database Drive Usage (%)"
)

//go:embed channels.yaml
var channelsYAML []byte

// channelDef is the declared metadata of one channel.
type channelDef struct {
	Name       string   `yaml:"name"`
	Unit       string   `yaml:"unit"`
	MaxWarning *float64 `yaml:"max_warning"`
	MaxError   *float64 `yaml:"max_error"`
	MinWarning *float64 `yaml:"min_warning"`
}

var channelDefs = mustLoadChannelDefs()

func mustLoadChannelDefs() map[string]channelDef {
	var doc struct {
		Channels []channelDef `yaml:"channels"`
	}
	if err := yaml.Unmarshal(channelsYAML, &doc); err != nil {
		panic(fmt.Sprintf("invalid embedded channel definitions: %v", err))
	}
	defs := make(map[string]channelDef, len(doc.Channels))
	for _, c := range doc.Channels {
		defs[c.Name] = c
	}
	return defs
}

// Result is one channel of a successful report.
type Result struct {
	Channel         string `json:"channel"`
	Value           string `json:"value"`
	Float           int    `json:"float"`
	Unit            string `json:"unit,omitempty"`
	CustomUnit      string `json:"customunit,omitempty"`
	LimitMode       int    `json:"limitmode,omitempty"`
	LimitMaxWarning string `json:"limitmaxwarning,omitempty"`
	LimitMaxError   string `json:"limitmaxerror,omitempty"`
	LimitMinWarning string `json:"limitminwarning,omitempty"`
}

// Body is the inner document the platform consumes.
type Body struct {
	Results []Result `json:"result,omitempty"`
	Error   int      `json:"error,omitempty"`
	Text    string   `json:"text"`
}

// Report is the complete sensor output, success XOR failure.
type Report struct {
	PRTG Body `json:"prtg"`
}

// Success renders the computed metrics as the five fixed channels plus the
// summary line the platform shows next to the sensor.
func Success(m collector.Metrics) Report {
	text := fmt.Sprintf("AD Database: %s MB, Whitespace: %s MB (%s%%), Drive Free: %s MB",
		formatValue(m.DatabaseSizeMB),
		formatValue(m.WhitespaceMB),
		formatValue(m.WhitespacePercent),
		formatValue(m.DriveFreeMB))

	return Report{PRTG: Body{
		Results: []Result{
			channel(ChannelDatabaseSize, m.DatabaseSizeMB),
			channel(ChannelWhitespaceMB, m.WhitespaceMB),
			channel(ChannelWhitespacePct, m.WhitespacePercent),
			channel(ChannelDriveFree, m.DriveFreeMB),
			channel(ChannelDriveUsedPct, m.DriveUsedPercent),
		},
		Text: text,
	}}
}

// Failure renders a classified error. The code doubles as the process exit
// signal.
func Failure(c classify.Classification) Report {
	return Report{PRTG: Body{
		Error: c.Code,
		Text:  "Error monitoring AD database: " + c.Message,
	}}
}

// Encode writes the report as a single JSON document.
func (r Report) Encode(w io.Writer) error {
	return json.NewEncoder(w).Encode(r)
}

func channel(name string, value float64) Result {
	def := channelDefs[name]

	r := Result{
		Channel: name,
		Value:   formatValue(value),
		Float:   1,
	}

	if def.Unit == "%" {
		r.Unit = "Percent"
	} else {
		r.Unit = "Custom"
		r.CustomUnit = def.Unit
	}

	if def.MaxWarning != nil || def.MaxError != nil || def.MinWarning != nil {
		r.LimitMode = 1
		if def.MaxWarning != nil {
			r.LimitMaxWarning = formatLimit(*def.MaxWarning)
		}
		if def.MaxError != nil {
			r.LimitMaxError = formatLimit(*def.MaxError)
		}
		if def.MinWarning != nil {
			r.LimitMinWarning = formatLimit(*def.MinWarning)
		}
	}

	return r
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatLimit(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
