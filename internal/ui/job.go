package ui

import (
	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"

	"github.com/RevoLabs-IO/video2gif/internal/progress"
)

type jobState struct {
	id    string
	file  string
	stage progress.Stage
	// status is a short human-facing line under the progress bar
	status string
	err    error
	done   bool

	outputPath string
	bytes      int64
	percent    float64 // -1 means unknown
	framesDone int
	framesTot  int

	spinner spinner.Model
	bar     bubblesprogress.Model

	started bool

	logsRing []string
}

func newJobState(id, file string, styles Styles) jobState {
	sp := spinner.New()
	sp.Style = styles.Spinner
	bar := bubblesprogress.New(
		bubblesprogress.WithDefaultGradient(),
		bubblesprogress.WithWidth(40),
	)
	return jobState{
		id:      id,
		file:    file,
		stage:   progress.StageLoading,
		status:  "Queued",
		percent: -1,
		spinner: sp,
		bar:     bar,
	}
}
