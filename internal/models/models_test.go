package models

import (
	"encoding/json"
	"testing"
)

func TestOptionsUnmarshal(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		wantChoices []string
		wantScale   map[int]string
		wantErr     bool
	}{
		{
			name:        "ordered list for choice questions",
			payload:     `["Never", "Sometimes", "Often"]`,
			wantChoices: []string{"Never", "Sometimes", "Often"},
		},
		{
			name:      "ordinal map for likert questions",
			payload:   `{"1": "Strongly disagree", "2": "Disagree", "3": "Neutral", "4": "Agree", "5": "Strongly agree"}`,
			wantScale: map[int]string{1: "Strongly disagree", 2: "Disagree", 3: "Neutral", 4: "Agree", 5: "Strongly agree"},
		},
		{
			name:    "non-ordinal keys rejected",
			payload: `{"a": "x"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o Options
			err := json.Unmarshal([]byte(tt.payload), &o)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if len(o.Choices) != len(tt.wantChoices) {
				t.Errorf("Choices = %v, want %v", o.Choices, tt.wantChoices)
			}
			for i, c := range tt.wantChoices {
				if o.Choices[i] != c {
					t.Errorf("Choices[%d] = %v, want %v", i, o.Choices[i], c)
				}
			}
			if len(o.Scale) != len(tt.wantScale) {
				t.Errorf("Scale = %v, want %v", o.Scale, tt.wantScale)
			}
			for k, v := range tt.wantScale {
				if o.Scale[k] != v {
					t.Errorf("Scale[%d] = %v, want %v", k, o.Scale[k], v)
				}
			}
		})
	}
}

func TestOptionsOrdered(t *testing.T) {
	likert := Options{Scale: map[int]string{3: "Neutral", 1: "Disagree", 5: "Agree"}}
	got := likert.Ordered()
	want := []string{"Disagree", "Neutral", "Agree"}
	if len(got) != len(want) {
		t.Fatalf("Ordered() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Ordered()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNormMatchBand(t *testing.T) {
	norm := Norm{
		LowMax:  30,
		AvgMin:  31,
		AvgMax:  60,
		HighMin: 61,
		LowText: "below typical range",
		AvgText: "within typical range",
		HighText: "above typical range",
	}

	tests := []struct {
		score float64
		want  Band
	}{
		{0, BandLow},
		{30, BandLow},
		{31, BandAverage},
		{45, BandAverage},
		{60, BandAverage},
		{60.5, BandAverage}, // gap between bands resolves to average
		{61, BandHigh},
		{100, BandHigh},
	}

	for _, tt := range tests {
		if got := norm.MatchBand(tt.score); got != tt.want {
			t.Errorf("MatchBand(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}

	if got := norm.Interpretation(20); got != "below typical range" {
		t.Errorf("Interpretation(20) = %q", got)
	}
	if got := norm.Interpretation(80); got != "above typical range" {
		t.Errorf("Interpretation(80) = %q", got)
	}
}

func TestSessionStatusTerminal(t *testing.T) {
	tests := []struct {
		status SessionStatus
		want   bool
	}{
		{SessionScheduled, false},
		{SessionInProgress, false},
		{SessionCompleted, true},
		{SessionCancelled, true},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}
