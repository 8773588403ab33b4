// Package prompts builds the system prompt that seeds each assistant session.
package prompts

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/stravagpt/stravagpt/internal/strava"
)

// SystemParams contains everything injected into the system prompt.
type SystemParams struct {
	Date    time.Time
	Schema  string
	Athlete strava.Athlete
	Stats   strava.AthleteStats
}

type systemTemplateData struct {
	Date     string
	Schema   string
	Name     string
	Sex      string
	Location string
	Stats    []statLine
}

type statLine struct {
	Category string
	Totals   strava.Totals
}

const systemPromptTemplate = `You are StravaGPT, an assistant with access to the user's Strava activity history.
Current date: {{.Date}}

The athlete you are assisting:
- name: {{.Name}}
- sex: {{.Sex}}
- location: {{.Location}}

Lifetime statistics (count / distance m / elapsed s / elevation m / moving s):
{{- range .Stats}}
- {{.Category}}: {{.Totals.Count}} / {{.Totals.Distance}} / {{.Totals.ElapsedTime}} / {{.Totals.ElevationGain}} / {{.Totals.MovingTime}}
{{- end}}

The activity data is held in an in-memory SQLite table. Its schema:

{{.Schema}}
Distances are meters, times are seconds, speeds are meters per second.
Nested columns (laps, segment_efforts, splits_metric, splits_standard,
best_efforts, map, start_latlng, end_latlng) are JSON text.

Use the query_data tool for anything the lifetime statistics above do not
answer directly. Use get_activity_data for per-second streams of a single
activity, plot_route to render a map of an activity, get_activity_photos for
photos, and search for questions about the wider world. Quote activity names
when referring to them and prefer concise, friendly answers.`

var systemTmpl = template.Must(template.New("system").Parse(systemPromptTemplate))

// System renders the session system prompt. The schema must come from a
// non-empty dataset; callers surface dataset.ErrEmpty before reaching here.
func System(params SystemParams) (string, error) {
	if strings.TrimSpace(params.Schema) == "" {
		return "", fmt.Errorf("prompts: activity schema is required")
	}
	date := params.Date
	if date.IsZero() {
		date = time.Now()
	}
	location := strings.TrimLeft(strings.Join(
		[]string{params.Athlete.City, params.Athlete.State, params.Athlete.Country}, ", "), ", ")
	data := systemTemplateData{
		Date:     date.Format("2006-01-02 15:04:05"),
		Schema:   params.Schema,
		Name:     strings.TrimSpace(params.Athlete.Firstname + " " + params.Athlete.Lastname),
		Sex:      params.Athlete.Sex,
		Location: location,
		Stats: []statLine{
			{Category: "all_ride_totals", Totals: params.Stats.AllRideTotals},
			{Category: "all_run_totals", Totals: params.Stats.AllRunTotals},
			{Category: "all_swim_totals", Totals: params.Stats.AllSwimTotals},
		},
	}
	var buf bytes.Buffer
	if err := systemTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
