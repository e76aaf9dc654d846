package insight

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/klytics/sheetsight/internal/stats"
)

// SystemInstruction is sent with every generation request.
const SystemInstruction = "You are a data analyst expert. Analyze the provided dataset and provide actionable insights, trends, and recommendations in JSON format."

const formatInstruction = "Provide response in JSON format with keys: summary (string), keyFindings (array of {title, value, description}), trends (array of strings), recommendations (array of strings)"

// BuildPrompt serializes the summary into the user prompt.
func BuildPrompt(s *stats.Summary) (string, error) {
	payload, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("could not encode dataset summary: %w", err)
	}
	var b strings.Builder
	b.WriteString("Analyze this dataset and provide insights:\n\n")
	b.Write(payload)
	b.WriteString("\n\n")
	b.WriteString(formatInstruction)
	return b.String(), nil
}

// looseString accepts any JSON scalar and keeps its text. Models often
// return numeric finding values.
type looseString string

func (l *looseString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = looseString(s)
		return nil
	}
	if string(data) == "null" {
		*l = ""
		return nil
	}
	*l = looseString(strings.TrimSpace(string(data)))
	return nil
}

type responseFinding struct {
	Title       looseString `json:"title"`
	Value       looseString `json:"value"`
	Description looseString `json:"description"`
}

type response struct {
	Summary         looseString       `json:"summary"`
	KeyFindings     []responseFinding `json:"keyFindings"`
	Trends          []looseString     `json:"trends"`
	Recommendations []looseString     `json:"recommendations"`
}

// ParseResponse decodes a generator response into a Draft. A response that
// is not the expected JSON document becomes a draft whose summary is the
// raw text; ok reports which happened.
func ParseResponse(raw string) (d Draft, ok bool) {
	var resp response
	if err := json.Unmarshal([]byte(stripFence(raw)), &resp); err != nil {
		return Draft{Summary: raw, KeyFindings: []Finding{}, Trends: []string{}, Recommendations: []string{}}, false
	}

	d.Summary = string(resp.Summary)
	if resp.KeyFindings != nil {
		d.KeyFindings = make([]Finding, len(resp.KeyFindings))
		for i, f := range resp.KeyFindings {
			d.KeyFindings[i] = Finding{Title: string(f.Title), Value: string(f.Value), Description: string(f.Description)}
		}
	}
	d.Trends = toStrings(resp.Trends)
	d.Recommendations = toStrings(resp.Recommendations)
	return d, true
}

func toStrings(ls []looseString) []string {
	if ls == nil {
		return nil
	}
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = string(l)
	}
	return out
}

// stripFence removes a surrounding markdown code fence, if any.
func stripFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	if nl := strings.IndexByte(t, '\n'); nl >= 0 {
		t = t[nl+1:]
	} else {
		t = strings.TrimPrefix(t, "json")
	}
	t = strings.TrimSpace(t)
	return strings.TrimSpace(strings.TrimSuffix(t, "```"))
}
