package strava

import "encoding/json"

// Activity is one Strava activity row. Nested sub-structures (map, laps,
// segment efforts, splits) stay raw JSON; the dataset stores them as text.
type Activity struct {
	ID                   int64           `json:"id"`
	ExternalID           string          `json:"external_id"`
	UploadID             int64           `json:"upload_id"`
	Name                 string          `json:"name"`
	Description          string          `json:"description"`
	Distance             float64         `json:"distance"`
	MovingTime           int64           `json:"moving_time"`
	ElapsedTime          int64           `json:"elapsed_time"`
	TotalElevationGain   float64         `json:"total_elevation_gain"`
	ElevHigh             float64         `json:"elev_high"`
	ElevLow              float64         `json:"elev_low"`
	Type                 string          `json:"type"`
	SportType            string          `json:"sport_type"`
	StartDate            string          `json:"start_date"`
	StartDateLocal       string          `json:"start_date_local"`
	Timezone             string          `json:"timezone"`
	UTCOffset            float64         `json:"utc_offset"`
	LocationCity         string          `json:"location_city"`
	LocationState        string          `json:"location_state"`
	LocationCountry      string          `json:"location_country"`
	AchievementCount     int64           `json:"achievement_count"`
	KudosCount           int64           `json:"kudos_count"`
	CommentCount         int64           `json:"comment_count"`
	AthleteCount         int64           `json:"athlete_count"`
	PhotoCount           int64           `json:"photo_count"`
	TotalPhotoCount      int64           `json:"total_photo_count"`
	PRCount              int64           `json:"pr_count"`
	WorkoutType          *int64          `json:"workout_type"`
	Trainer              bool            `json:"trainer"`
	Commute              bool            `json:"commute"`
	Manual               bool            `json:"manual"`
	Private              bool            `json:"private"`
	Flagged              bool            `json:"flagged"`
	GearID               string          `json:"gear_id"`
	DeviceName           string          `json:"device_name"`
	AverageSpeed         float64         `json:"average_speed"`
	MaxSpeed             float64         `json:"max_speed"`
	AverageCadence       float64         `json:"average_cadence"`
	AverageTemp          float64         `json:"average_temp"`
	AverageWatts         float64         `json:"average_watts"`
	MaxWatts             float64         `json:"max_watts"`
	WeightedAverageWatts float64         `json:"weighted_average_watts"`
	Kilojoules           float64         `json:"kilojoules"`
	DeviceWatts          bool            `json:"device_watts"`
	HasHeartrate         bool            `json:"has_heartrate"`
	AverageHeartrate     float64         `json:"average_heartrate"`
	MaxHeartrate         float64         `json:"max_heartrate"`
	SufferScore          float64         `json:"suffer_score"`
	Calories             float64         `json:"calories"`
	StartLatLng          json.RawMessage `json:"start_latlng"`
	EndLatLng            json.RawMessage `json:"end_latlng"`
	Map                  json.RawMessage `json:"map"`
	Laps                 json.RawMessage `json:"laps"`
	SegmentEfforts       json.RawMessage `json:"segment_efforts"`
	SplitsMetric         json.RawMessage `json:"splits_metric"`
	SplitsStandard       json.RawMessage `json:"splits_standard"`
	BestEfforts          json.RawMessage `json:"best_efforts"`
}

// Athlete is the authorized athlete's profile.
type Athlete struct {
	ID        int64  `json:"id"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Sex       string `json:"sex"`
	City      string `json:"city"`
	State     string `json:"state"`
	Country   string `json:"country"`
}

// Totals is one lifetime aggregate bucket (per activity category).
type Totals struct {
	Count         int64   `json:"count"`
	Distance      float64 `json:"distance"`
	ElapsedTime   int64   `json:"elapsed_time"`
	ElevationGain float64 `json:"elevation_gain"`
	MovingTime    int64   `json:"moving_time"`
}

// AthleteStats carries lifetime totals per activity category.
type AthleteStats struct {
	AllRideTotals Totals `json:"all_ride_totals"`
	AllRunTotals  Totals `json:"all_run_totals"`
	AllSwimTotals Totals `json:"all_swim_totals"`
}

// Stream is one time-series channel of an activity.
type Stream struct {
	Data         json.RawMessage `json:"data"`
	SeriesType   string          `json:"series_type"`
	OriginalSize int             `json:"original_size"`
	Resolution   string          `json:"resolution"`
}

// StreamSet maps stream type (e.g. "heartrate", "latlng") to its stream.
type StreamSet map[string]Stream

// Values decodes the stream's data points into a generic slice.
func (s Stream) Values() ([]any, error) {
	var out []any
	if len(s.Data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(s.Data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LatLng decodes the stream as (latitude, longitude) pairs.
func (s Stream) LatLng() ([][2]float64, error) {
	var out [][2]float64
	if len(s.Data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(s.Data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StreamTypes enumerates the channel names Strava serves.
var StreamTypes = []string{
	"time", "latlng", "distance", "altitude", "velocity_smooth",
	"heartrate", "cadence", "watts", "temp", "moving", "grade_smooth",
}

// Resolutions enumerates the supported stream resolutions.
var Resolutions = []string{"low", "medium"}
