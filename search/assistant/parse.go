package assistant

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ssep-lab/ssep-search/search"
)

// maxQuotedOutput caps how much raw model output is quoted in errors.
const maxQuotedOutput = 200

// jsonObject matches the outermost {...} span, across lines.
var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// number accepts a JSON number or a string holding one, e.g. "35.0".
type number float64

func (n *number) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if unquoted, err := strconv.Unquote(text); err == nil {
		text = strings.TrimSpace(unquoted)
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", data)
	}
	*n = number(f)
	return nil
}

// rawProposal detects missing keys; a zero value is a valid number.
// note is kept only when it is a string.
type rawProposal struct {
	VoltageKV *number         `json:"V_kV"`
	GapM      *number         `json:"gap_m"`
	Phi       *number         `json:"phi"`
	Stages    *number         `json:"stages"`
	Note      json.RawMessage `json:"note"`
}

func (r rawProposal) note() string {
	var s string
	if err := json.Unmarshal(r.Note, &s); err != nil {
		return ""
	}
	return s
}

// ParseProposal extracts a parameter proposal from model output. The text is
// parsed as JSON directly, else the first-to-last brace span is parsed.
// The result is not sanitized. Failures are *search.ProposalError.
func ParseProposal(text string) (search.ParameterSet, error) {
	var raw rawProposal
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		span := jsonObject.FindString(text)
		if span == "" {
			return search.ParameterSet{}, &search.ProposalError{
				Reason: fmt.Sprintf("model did not return JSON: %s", truncate(text, maxQuotedOutput)),
			}
		}
		raw = rawProposal{}
		if err := json.Unmarshal([]byte(span), &raw); err != nil {
			return search.ParameterSet{}, &search.ProposalError{
				Reason: fmt.Sprintf("malformed JSON: %s", truncate(span, maxQuotedOutput)),
				Err:    err,
			}
		}
	}

	required := []struct {
		key string
		val *number
	}{{"V_kV", raw.VoltageKV}, {"gap_m", raw.GapM}, {"phi", raw.Phi}, {"stages", raw.Stages}}
	for _, r := range required {
		if r.val == nil {
			return search.ParameterSet{}, &search.ProposalError{Reason: "proposal missing key: " + r.key}
		}
	}
	return search.ParameterSet{
		VoltageKV: float64(*raw.VoltageKV),
		GapM:      float64(*raw.GapM),
		Phi:       float64(*raw.Phi),
		Stages:    search.StagesFromFloat(float64(*raw.Stages)),
		Note:      raw.note(),
	}, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
