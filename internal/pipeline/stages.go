package pipeline

import "time"

// Stage is one step of a generation run. Runs move through the stages in
// declaration order and never go back.
type Stage string

const (
	StageInit        Stage = "init"
	StageResearch    Stage = "research"
	StageCompetitors Stage = "competitor_analysis"
	StageGenerate    Stage = "generate"
	StageImages      Stage = "image_generation"
	StagePostProcess Stage = "post_process"
	StageDone        Stage = "done"
)

var stageInfo = map[Stage]struct {
	label   string
	percent int
}{
	StageInit:        {"Starting generation...", 0},
	StageResearch:    {"Performing web research...", 10},
	StageCompetitors: {"Analyzing competitors...", 25},
	StageGenerate:    {"Generating article content...", 40},
	StageImages:      {"Generating images...", 70},
	StagePostProcess: {"Finalizing article...", 90},
	StageDone:        {"Complete!", 100},
}

// Label is the human readable progress text for s.
func (s Stage) Label() string { return stageInfo[s].label }

// Percent is the fixed progress checkpoint for s.
func (s Stage) Percent() int { return stageInfo[s].percent }

// DetailSkipped marks the event of a stage that did not run. Every stage is
// reported so consumers always see the same checkpoints.
const DetailSkipped = "skipped"

// Event reports progress of a run.
type Event struct {
	Stage   Stage     `json:"stage"`
	Label   string    `json:"label"`
	Percent int       `json:"percent"`
	Detail  string    `json:"detail,omitempty"`
	At      time.Time `json:"at"`
}

func newEvent(stage Stage, detail string) Event {
	return Event{
		Stage:   stage,
		Label:   stage.Label(),
		Percent: stage.Percent(),
		Detail:  detail,
		At:      time.Now(),
	}
}
