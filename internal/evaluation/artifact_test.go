package evaluation

import "testing"

func TestDecodeArtifactWeakTypes(t *testing.T) {
	artifact, err := DecodeArtifact(map[string]any{
		"fullEvaluation":     "Good answers.",
		"overallScore":       "77",
		"technicalScore":     float64(81),
		"communicationScore": 70,
		"sessionId":          "ignored",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if artifact.Text() != "Good answers." {
		t.Fatalf("unexpected text: %q", artifact.Text())
	}
	if artifact.OverallScore == nil || *artifact.OverallScore != 77 {
		t.Fatalf("expected overall score 77, got %v", artifact.OverallScore)
	}
	if artifact.TechnicalScore == nil || *artifact.TechnicalScore != 81 {
		t.Fatalf("expected technical score 81, got %v", artifact.TechnicalScore)
	}
	if artifact.CulturalFitScore != nil {
		t.Fatalf("expected missing cultural fit score")
	}
}

func TestDecodeArtifactKeepsUsableFields(t *testing.T) {
	artifact, err := DecodeArtifact(map[string]any{
		"fullEvaluation": "Overall Score: 60",
		"overallScore":   "excellent",
	})
	if err == nil {
		t.Fatalf("expected a decode error for the non-numeric score")
	}

	if artifact.Text() != "Overall Score: 60" {
		t.Fatalf("expected text to survive the decode error, got %q", artifact.Text())
	}

	if got := Summarize(artifact); got.OverallScore != 60 {
		t.Fatalf("expected text score, got %d", got.OverallScore)
	}
}

func TestSummarizeTextWinsOverStructuredFields(t *testing.T) {
	overall, technical, cultural := 10, 95, 300
	artifact := &Artifact{
		FullEvaluation:   "Overall Score: 88\nSteady delivery.",
		OverallScore:     &overall,
		TechnicalScore:   &technical,
		CulturalFitScore: &cultural,
	}

	got := Summarize(artifact)

	if got.OverallScore != 88 {
		t.Fatalf("text score must win, got %d", got.OverallScore)
	}
	if got.TechnicalScore != 95 {
		t.Fatalf("structured score must fill the missing category, got %d", got.TechnicalScore)
	}
	if got.CulturalFitScore != DefaultScore {
		t.Fatalf("out-of-range structured score must be ignored, got %d", got.CulturalFitScore)
	}
	if got.CommunicationScore != DefaultScore {
		t.Fatalf("expected default communication score, got %d", got.CommunicationScore)
	}
	if got.PerformanceNote != "Steady delivery." {
		t.Fatalf("unexpected note: %q", got.PerformanceNote)
	}
}

func TestSummarizeFallsBackToEvaluationField(t *testing.T) {
	got := Summarize(&Artifact{Evaluation: "Score: 55"})
	if got.OverallScore != 55 || got.FullEvaluation != "Score: 55" {
		t.Fatalf("unexpected summary: %+v", got)
	}

	if got := Summarize(nil); got.OverallScore != DefaultScore {
		t.Fatalf("expected defaults for a nil artifact, got %+v", got)
	}
}
