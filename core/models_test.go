package core

import (
	"testing"
	"time"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "same content produces same ID",
			content: "test content",
		},
		{
			name:    "empty string",
			content: "",
		},
		{
			name:    "long content",
			content: "This agreement shall remain in force for a period of twenty four months",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestContentHash(t *testing.T) {
	data := []byte("the raw document bytes")

	h1 := ContentHash(data)
	h2 := ContentHash(data)

	if h1 != h2 {
		t.Errorf("ContentHash() not deterministic: %s vs %s", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("ContentHash() length = %d, want 64 hex chars", len(h1))
	}
	if h1 == ContentHash([]byte("different bytes")) {
		t.Errorf("ContentHash() collided for different content")
	}
}

func TestDocumentStatus_NextStage(t *testing.T) {
	tests := []struct {
		name   string
		status DocumentStatus
		want   Stage
	}{
		{"pending runs extract", StatusPending, StageExtract},
		{"extracting retries extract", StatusExtracting, StageExtract},
		{"summarizing runs summarize", StatusSummarizing, StageSummarize},
		{"extracting_rules runs rules", StatusExtractingRules, StageRules},
		{"completed has no stage", StatusCompleted, 0},
		{"failed has no stage", StatusFailed, 0},
		{"cancelled has no stage", StatusCancelled, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.NextStage(); got != tt.want {
				t.Errorf("NextStage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDocumentStatus_Terminal(t *testing.T) {
	terminal := []DocumentStatus{StatusCompleted, StatusFailed, StatusCancelled}
	active := []DocumentStatus{StatusPending, StatusExtracting, StatusSummarizing, StatusExtractingRules}

	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%v.Terminal() = false, want true", s)
		}
	}
	for _, s := range active {
		if s.Terminal() {
			t.Errorf("%v.Terminal() = true, want false", s)
		}
	}
}

func TestStage_ActiveStatus(t *testing.T) {
	tests := []struct {
		stage Stage
		want  DocumentStatus
	}{
		{StageExtract, StatusExtracting},
		{StageSummarize, StatusSummarizing},
		{StageRules, StatusExtractingRules},
	}

	for _, tt := range tests {
		if got := tt.stage.ActiveStatus(); got != tt.want {
			t.Errorf("%v.ActiveStatus() = %v, want %v", tt.stage, got, tt.want)
		}
	}
}

func TestPipelineRun_LeaseExpired(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name string
		run  PipelineRun
		want bool
	}{
		{
			name: "live lease",
			run:  PipelineRun{Outcome: OutcomeInProgress, LeaseExpiry: now.Add(time.Minute)},
			want: false,
		},
		{
			name: "lapsed lease",
			run:  PipelineRun{Outcome: OutcomeInProgress, LeaseExpiry: now.Add(-time.Minute)},
			want: true,
		},
		{
			name: "finished run never counts as expired",
			run:  PipelineRun{Outcome: OutcomeSuccess},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.run.LeaseExpired(now); got != tt.want {
				t.Errorf("LeaseExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}
