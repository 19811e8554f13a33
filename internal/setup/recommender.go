// Package setup recommends car setups for a track and weather pair.
package setup

import (
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/pitwall/internal/model"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// ErrMissingInput is returned when the track name or weather is empty.
var ErrMissingInput = errors.New("track name and weather are required")

const trackPlaceholder = "{track}"

// Rule is one track entry. It applies when any Match substring occurs in the
// lowercased track name.
type Rule struct {
	Match           []string           `yaml:"match"`
	Explanation     string             `yaml:"explanation"`
	Details         model.SetupDetails `yaml:"details"`
	Recommendations []string           `yaml:"recommendations"`
}

// Overlay adjusts a track setup for a weather condition. Empty detail fields
// leave the track value unchanged.
type Overlay struct {
	Conditions     []string           `yaml:"conditions"`
	Alert          string             `yaml:"alert"`
	Details        model.SetupDetails `yaml:"details"`
	BrakeBiasShift int                `yaml:"brakeBiasShift"`
	NotesSuffix    string             `yaml:"notesSuffix"`
	Prepend        []string           `yaml:"prepend"`
	Append         []string           `yaml:"append"`
}

type analysis struct {
	Intro   string            `yaml:"intro"`
	Weather map[string]string `yaml:"weather"`
}

type catalog struct {
	Tracks         []string  `yaml:"tracks"`
	FallbackTracks []string  `yaml:"fallbackTracks"`
	Weathers       []string  `yaml:"weathers"`
	Default        Rule      `yaml:"default"`
	Rules          []Rule    `yaml:"rules"`
	Overlays       []Overlay `yaml:"overlays"`
	Analysis       analysis  `yaml:"analysis"`
}

// Recommender answers setup requests from a rule catalog.
type Recommender struct {
	cat catalog
}

// NewDefault returns a recommender backed by the built-in catalog.
func NewDefault() (*Recommender, error) {
	return Parse(defaultCatalog)
}

// Parse builds a recommender from a YAML catalog.
func Parse(data []byte) (*Recommender, error) {
	var cat catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse setup catalog: %w", err)
	}
	if len(cat.Tracks) == 0 {
		return nil, fmt.Errorf("setup catalog has no tracks")
	}
	for i, rule := range cat.Rules {
		if len(rule.Match) == 0 {
			return nil, fmt.Errorf("setup rule %d has no match terms", i)
		}
		for j, term := range rule.Match {
			rule.Match[j] = strings.ToLower(term)
		}
	}
	for _, overlay := range cat.Overlays {
		for j, cond := range overlay.Conditions {
			overlay.Conditions[j] = strings.ToLower(cond)
		}
	}
	return &Recommender{cat: cat}, nil
}

// Tracks lists the selectable tracks in calendar order.
func (r *Recommender) Tracks() []string {
	return append([]string(nil), r.cat.Tracks...)
}

// FallbackTracks is the shorter list clients show when the track list cannot
// be fetched.
func (r *Recommender) FallbackTracks() []string {
	return append([]string(nil), r.cat.FallbackTracks...)
}

// Weathers lists the weather choices offered to users.
func (r *Recommender) Weathers() []string {
	return append([]string(nil), r.cat.Weathers...)
}

// Recommend returns the setup for a track under the given weather.
func (r *Recommender) Recommend(trackName, weather string) (model.Recommendation, error) {
	if trackName == "" || weather == "" {
		return model.Recommendation{}, ErrMissingInput
	}

	rule := r.match(trackName)
	rec := model.Recommendation{
		TrackName:       trackName,
		Weather:         weather,
		Explanation:     strings.ReplaceAll(rule.Explanation, trackPlaceholder, trackName),
		Recommendations: append([]string(nil), rule.Recommendations...),
		SetupDetails:    rule.Details,
	}
	if overlay, ok := r.overlay(weather); ok {
		applyOverlay(&rec, overlay)
	}
	return rec, nil
}

// Analysis returns the long-form weather narrative for a track. The boolean is
// false when the weather has no narrative.
func (r *Recommender) Analysis(trackName, weather string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(weather))
	text, ok := r.cat.Analysis.Weather[key]
	if !ok || strings.TrimSpace(trackName) == "" {
		return "", false
	}
	intro := strings.ReplaceAll(r.cat.Analysis.Intro, trackPlaceholder, trackName)
	intro = strings.ReplaceAll(intro, "{weather}", weather)
	return intro + strings.ReplaceAll(text, trackPlaceholder, trackName), true
}

func (r *Recommender) match(trackName string) Rule {
	track := strings.ToLower(trackName)
	for _, rule := range r.cat.Rules {
		for _, term := range rule.Match {
			if strings.Contains(track, term) {
				return rule
			}
		}
	}
	return r.cat.Default
}

func (r *Recommender) overlay(weather string) (Overlay, bool) {
	key := strings.ToLower(weather)
	for _, overlay := range r.cat.Overlays {
		for _, cond := range overlay.Conditions {
			if cond == key {
				return overlay, true
			}
		}
	}
	return Overlay{}, false
}

func applyOverlay(rec *model.Recommendation, o Overlay) {
	if o.Alert != "" {
		rec.Explanation += "\n\n" + o.Alert
	}
	d := &rec.SetupDetails
	if o.Details.Downforce != "" {
		d.Downforce = o.Details.Downforce
	}
	if o.Details.Suspension != "" {
		d.Suspension = o.Details.Suspension
	}
	if o.Details.TirePressure != "" {
		d.TirePressure = o.Details.TirePressure
	}
	if o.BrakeBiasShift != 0 {
		d.BrakeBias = shiftBias(d.BrakeBias, o.BrakeBiasShift)
	}
	if o.Details.BrakeBias != "" {
		d.BrakeBias = o.Details.BrakeBias
	}
	if o.Details.Notes != "" {
		d.Notes = o.Details.Notes
	}
	d.Notes += o.NotesSuffix

	if len(o.Prepend) > 0 {
		rec.Recommendations = append(append([]string(nil), o.Prepend...), rec.Recommendations...)
	}
	rec.Recommendations = append(rec.Recommendations, o.Append...)
}

// shiftBias moves a percentage such as "59%" by delta points. Values without
// a leading integer are returned unchanged.
func shiftBias(bias string, delta int) string {
	s := strings.TrimSpace(bias)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && (s[end] == '-' || s[end] == '+')) {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return bias
	}
	return strconv.Itoa(n+delta) + "%"
}
