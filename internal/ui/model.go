package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	video2gif "github.com/RevoLabs-IO/video2gif"
	"github.com/RevoLabs-IO/video2gif/internal/deps"
	"github.com/RevoLabs-IO/video2gif/internal/format"
	"github.com/RevoLabs-IO/video2gif/internal/model"
	"github.com/RevoLabs-IO/video2gif/internal/progress"
)

type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	// App state (deps)
	depsChecked bool
	depsErr     error
	ffmpegPath  string
	ffprobePath string

	// Jobs
	files    []string
	opts     model.CLIOptions
	jobOrder []string
	jobs     map[string]*jobState
	selected int
	workers  int
	running  int
	next     int // next index in files to start

	// UI
	width, height int
	styles        Styles

	// Internal event channel used by reporters to feed tea messages
	eventCh chan tea.Msg
}

func NewModel(ctx context.Context, files []string, opts model.CLIOptions) Model {
	c, cancel := context.WithCancel(ctx)
	sty := defaultStyles()

	jobs := make(map[string]*jobState, len(files))
	order := make([]string, 0, len(files))
	for i, f := range files {
		id := toID(i)
		js := newJobState(id, f, sty)
		js.bar = bubblesprogress.New(bubblesprogress.WithDefaultGradient(), bubblesprogress.WithWidth(40))
		jobs[id] = &js
		order = append(order, id)
	}

	workers := opts.Jobs
	if workers <= 0 {
		workers = 2
	}

	return Model{
		ctx:      c,
		cancel:   cancel,
		files:    files,
		opts:     opts,
		jobs:     jobs,
		jobOrder: order,
		selected: 0,
		workers:  workers,
		styles:   sty,
		eventCh:  make(chan tea.Msg, 256),
	}
}

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	for _, id := range m.jobOrder {
		sp := m.jobs[id].spinner
		cmds = append(cmds, sp.Tick)
	}
	// Listen for reporter events
	cmds = append(cmds, m.listenEventsCmd())
	// Kick off dependency check
	cmds = append(cmds, m.checkDepsCmd())
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case depsCheckedMsg:
		m.depsChecked = true
		m.depsErr = msg.Err
		m.ffmpegPath = msg.FFmpegPath
		m.ffprobePath = msg.FFprobePath
		if m.depsErr != nil {
			// Mark all as errored
			for _, id := range m.jobOrder {
				js := m.jobs[id]
				js.stage = progress.StageError
				js.status = fmt.Sprintf("Dependency error: %v", m.depsErr)
				js.err = m.depsErr
				js.done = true
			}
			return m, tea.Quit
		}
		// Start initial workers
		return m, m.scheduleNext()

	case jobUpdateMsg:
		u := msg.U
		if js, ok := m.jobs[u.JobID]; ok {
			js.stage = u.Stage
			js.percent = u.Percent
			js.framesDone = u.FramesDone
			js.framesTot = u.FramesTotal
			if u.Message != "" {
				js.status = u.Message
			}
		}
	case jobLogMsg:
		l := msg.L
		if js, ok := m.jobs[l.JobID]; ok {
			// small ring buffer
			line := strings.TrimRight(l.Line, "\r\n")
			if len(js.logsRing) > 1000 {
				js.logsRing = js.logsRing[1:]
			}
			js.logsRing = append(js.logsRing, line)
		}
	case jobResultMsg:
		r := msg.R
		// A result for an unknown or already-settled job must not touch the
		// counters.
		if js, ok := m.jobs[r.JobID]; ok && !js.done {
			js.done = true
			js.err = r.Err
			if r.Err == nil {
				js.stage = progress.StageCompleted
				js.percent = 100
				js.outputPath = r.OutputPath
				js.bytes = r.Bytes
				if r.OutputPath != "" {
					name := filepath.Base(r.OutputPath)
					size := format.HumanizeBytes(r.Bytes)
					js.status = fmt.Sprintf("Saved: %s (%s)", name, size)
				} else {
					js.status = "Completed"
				}
			} else {
				js.stage = progress.StageError
				js.status = video2gif.UserMessage(r.Err)
				js.percent = -1
			}
			m.running--
			// Backfill the freed worker slot and keep listening: this message
			// came through the event listener, so the subscription must be
			// renewed here.
			return m, tea.Batch(m.scheduleNext(), m.listenEventsCmd())
		}
	case allDoneMsg:
		return m, tea.Quit
	}

	// Update per-job components (spinner)
	var cmds []tea.Cmd
	for _, id := range m.jobOrder {
		js := m.jobs[id]
		var c tea.Cmd
		js.spinner, c = js.spinner.Update(msg)
		if c != nil {
			cmds = append(cmds, c)
		}
	}
	// Keep listening for events
	cmds = append(cmds, m.listenEventsCmd())
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	summary := m.viewSummary()
	if summary != "" {
		return m.viewHeader() + "\n\n" + m.viewJobs() + "\n" + summary
	}
	return m.viewHeader() + "\n\n" + m.viewJobs()
}

func (m Model) listenEventsCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return allDoneMsg{}
		case msg := <-m.eventCh:
			return msg
		}
	}
}

func (m Model) checkDepsCmd() tea.Cmd {
	return func() tea.Msg {
		ff, err := deps.FindFFmpeg(m.opts.FFmpeg, m.opts.AssetDir)
		if err != nil {
			return depsCheckedMsg{Err: err}
		}
		fp, err := deps.FindFFprobe(m.opts.FFprobe, m.opts.AssetDir)
		if err != nil {
			return depsCheckedMsg{Err: err}
		}
		return depsCheckedMsg{FFmpegPath: ff, FFprobePath: fp, Err: nil}
	}
}

// scheduleNext starts queued jobs up to the worker limit. The counters are
// advanced here, on the model the caller returns from Update — bubbletea
// only persists that returned value, so mutating them inside a command
// closure would be lost. The returned command does nothing but launch the
// chosen job goroutines (or report completion).
func (m *Model) scheduleNext() tea.Cmd {
	select {
	case <-m.ctx.Done():
		return func() tea.Msg { return allDoneMsg{} }
	default:
	}

	type launch struct{ id, file string }
	var starts []launch
	for m.running < m.workers && m.next < len(m.files) {
		idx := m.next
		m.next++
		js := m.jobs[m.jobOrder[idx]]
		if js == nil || js.started {
			continue
		}
		m.running++
		js.started = true
		js.status = "Queued"
		js.stage = progress.StageLoading
		starts = append(starts, launch{id: js.id, file: m.files[idx]})
	}

	if m.next >= len(m.files) && m.running == 0 {
		return func() tea.Msg { return allDoneMsg{} }
	}
	if len(starts) == 0 {
		return nil
	}
	runner := *m
	return func() tea.Msg {
		for _, s := range starts {
			go runner.runJob(s.id, s.file)
		}
		return nil
	}
}

func (m Model) runJob(jobID, file string) {
	rep := teaReporter{ch: m.eventCh}

	payload, err := os.ReadFile(file)
	if err != nil {
		rep.Result(progress.Result{JobID: jobID, Err: fmt.Errorf("read input: %w", err)})
		return
	}

	convOpts := m.opts.ConversionOptions()
	convOpts.OnProgress = func(p model.Progress) {
		u := progress.Update{
			JobID:       jobID,
			Stage:       p.Stage,
			Percent:     p.Percent,
			FramesDone:  p.FramesDone,
			FramesTotal: p.FramesTotal,
			Message:     stageMessage(p),
		}
		if p.ETASeconds != nil && *p.ETASeconds > 0 {
			eta := time.Duration(*p.ETASeconds * float64(time.Second))
			u.ETA = &eta
		}
		rep.Update(u)
	}

	cfg := m.opts.EngineConfig()
	res, cerr := video2gif.ConvertWithMetadata(m.ctx, payload, convOpts, &cfg)
	if cerr != nil {
		rep.Result(progress.Result{JobID: jobID, Err: cerr})
		return
	}

	for _, w := range res.Warnings {
		rep.Log(progress.Log{JobID: jobID, Stream: progress.StreamStderr, Line: "warning: " + w.Message})
	}

	base := filepath.Base(file)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = "output"
	}
	outPath := filepath.Join(m.opts.OutDir, stem+".gif")
	if werr := os.WriteFile(outPath, res.Data, 0o644); werr != nil {
		rep.Result(progress.Result{JobID: jobID, Err: fmt.Errorf("write output: %w", werr)})
		return
	}

	name := filepath.Base(outPath)
	size := format.HumanizeBytes(int64(len(res.Data)))
	rep.Update(progress.Update{
		JobID:   jobID,
		Stage:   progress.StageCompleted,
		Percent: 100,
		Message: fmt.Sprintf("Saved: %s (%s)", name, size),
	})

	rep.Result(progress.Result{JobID: jobID, OutputPath: outPath, Bytes: int64(len(res.Data)), Err: nil})
}

func stageMessage(p model.Progress) string {
	switch p.Stage {
	case progress.StageLoading:
		return "Loading engine"
	case progress.StageAnalyzing:
		return "Analyzing video"
	case progress.StageProcessing:
		if p.FramesTotal > 0 {
			return fmt.Sprintf("Encoding frame %d/%d", p.FramesDone, p.FramesTotal)
		}
		return "Encoding frames"
	case progress.StageFinalizing:
		return "Finalizing"
	default:
		return ""
	}
}

type teaReporter struct {
	ch chan tea.Msg
}

func (r teaReporter) Update(u progress.Update) {
	// Block on completion messages to ensure they're delivered
	if u.Stage == progress.StageCompleted || u.Stage == progress.StageError {
		r.ch <- jobUpdateMsg{U: u}
		return
	}
	select {
	case r.ch <- jobUpdateMsg{U: u}:
	default:
	}
}
func (r teaReporter) Log(l progress.Log) {
	select {
	case r.ch <- jobLogMsg{L: l}:
	default:
	}
}
func (r teaReporter) Result(res progress.Result) {
	// Always block on Result messages - they're critical
	r.ch <- jobResultMsg{R: res}
}

func toID(i int) string {
	return "job-" + strconv.Itoa(i)
}
