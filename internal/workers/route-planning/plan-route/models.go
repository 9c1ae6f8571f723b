// internal/workers/route-planning/plan-route/models.go
package planroute

import "rouvia/internal/models"

// Stage names a pipeline state.
type Stage string

const (
	StageReceived           Stage = "RECEIVED"
	StageTranscribed        Stage = "TRANSCRIBED"
	StageIntentParsed       Stage = "INTENT_PARSED"
	StageCandidatesGathered Stage = "CANDIDATES_GATHERED"
	StageStopsSelected      Stage = "STOPS_SELECTED"
	StageResponseBuilt      Stage = "RESPONSE_BUILT"
	StageFailed             Stage = "FAILED"
)

const StatusSuccess = "success"

// Request is one pipeline run. Audio takes precedence over Text.
type Request struct {
	Text        string
	Audio       []byte
	ContentType string
	Origin      *models.LatLng
	UserID      string
	OpenNow     *bool
}

func (r Request) inputKind() string {
	if len(r.Audio) > 0 {
		return "audio"
	}
	return "text"
}

// Input is the plan-route job payload.
type Input struct {
	Text     string         `json:"text"`
	Location *models.LatLng `json:"location,omitempty"`
	UserID   string         `json:"user_id,omitempty"`
	OpenNow  *bool          `json:"open_now,omitempty"`
}

type Output = models.RouteResponse
