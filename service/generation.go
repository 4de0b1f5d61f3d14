package service

import (
	"errors"
	"strings"
	"sync"

	"github.com/activebook/reportflow/data"
)

var errNothingToSave = errors.New("no completed variant A result to save")

// Phase is the lifecycle of one variant's generation.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStreaming
	PhaseComplete
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseStreaming:
		return "streaming"
	case PhaseComplete:
		return "complete"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// ReportSaver is the persistence collaborator for completed runs.
// *data.ReportStore satisfies it.
type ReportSaver interface {
	Save(rep *data.SavedReport) (string, error)
	UpdateVariantB(id string, b *data.VariantResult) error
}

// variantState tracks one variant. The phase tag replaces loose
// booleans so half-initialized combinations cannot exist.
type variantState struct {
	phase        Phase
	runID        uint64
	result       VariantResult
	pendingSave  bool // A only: auto-save intent for this run
	pendingMerge bool // B only: update intent for this run
}

// Generation owns the observable state of the streaming transform:
// per-variant results, the shared streaming buffers, and the
// exactly-once persistence intents. All methods are safe for
// concurrent use; stale callbacks from superseded runs are no-ops.
type Generation struct {
	mu    sync.Mutex
	saver ReportSaver

	onSuccess func()             // fire-and-forget celebration hook
	notify    func(StreamNotify) // display callback, may be nil

	nextRun  uint64
	variants map[Variant]*variantState
	active   Variant

	activeReportID string
	reportText     string
	tone           Tone
	autoSave       bool
	errMsg         string

	// Shared streaming buffers: only one run is active at a time.
	linkedInStreaming bool
	whatsAppStreaming bool
	linkedInBuf       strings.Builder
	whatsAppBuf       strings.Builder
	chartLoading      bool
	chartTicker       string
}

// GenerationOption configures a Generation.
type GenerationOption func(*Generation)

// WithOnSuccess installs the celebration hook fired after a successful
// run. It is never awaited and a panic inside it is swallowed.
func WithOnSuccess(fn func()) GenerationOption {
	return func(g *Generation) { g.onSuccess = fn }
}

// WithNotify installs the display callback for streaming updates.
// The callback must not call back into the Generation.
func WithNotify(fn func(StreamNotify)) GenerationOption {
	return func(g *Generation) { g.notify = fn }
}

// WithAutoSave controls whether a completed variant A run is persisted
// automatically. Defaults to on.
func WithAutoSave(on bool) GenerationOption {
	return func(g *Generation) { g.autoSave = on }
}

// NewGeneration creates a state machine persisting through saver.
func NewGeneration(saver ReportSaver, opts ...GenerationOption) *Generation {
	g := &Generation{
		saver:    saver,
		autoSave: true,
		active:   VariantA,
		variants: map[Variant]*variantState{
			VariantA: {},
			VariantB: {},
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Run ties a set of stream callbacks to the run token issued by Start.
// Callbacks whose token no longer matches the variant's current run
// leave all state untouched.
type Run struct {
	g       *Generation
	id      uint64
	variant Variant
}

// Variant returns the variant this run generates.
func (r *Run) Variant() Variant { return r.variant }

// Start begins a new run for the given variant and returns its Run.
//
// A fresh variant A run invalidates everything: both variants' results
// and the active-report identity are cleared, since the new A output
// defines a new report. A variant B run keeps A's state and switches
// the active display to B. Either way the shared streaming buffers and
// any previous error are reset, and the previous run for the variant
// is superseded (its late callbacks become no-ops).
func (g *Generation) Start(reportText string, tone Tone, variant Variant) *Run {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nextRun++
	id := g.nextRun

	if variant == VariantA {
		g.variants[VariantA] = &variantState{phase: PhaseStreaming, runID: id, pendingSave: g.autoSave}
		g.variants[VariantB] = &variantState{}
		g.activeReportID = ""
		g.reportText = reportText
		g.tone = tone
	} else {
		g.variants[VariantB] = &variantState{phase: PhaseStreaming, runID: id, pendingMerge: true}
	}
	g.active = variant

	g.errMsg = ""
	g.linkedInStreaming = false
	g.whatsAppStreaming = false
	g.linkedInBuf.Reset()
	g.whatsAppBuf.Reset()
	g.chartLoading = false
	g.chartTicker = ""

	return &Run{g: g, id: id, variant: variant}
}

// SetActiveReport sets the merge target for a later variant B run,
// e.g. when regenerating B for a pack saved in an earlier session.
func (g *Generation) SetActiveReport(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.activeReportID = id
}

// ActiveReportID returns the id of the report the current session is
// attached to, or "" if nothing has been saved yet.
func (g *Generation) ActiveReportID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.activeReportID
}

// Err returns the user-visible error of the last failed run, if any.
func (g *Generation) Err() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.errMsg
}

// Result returns a copy of the variant's accumulated result.
func (g *Generation) Result(v Variant) VariantResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.variants[v].result
}

// PhaseOf returns the variant's current lifecycle phase.
func (g *Generation) PhaseOf(v Variant) Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.variants[v].phase
}

// Buffers returns the current streaming accumulators. After a
// mid-stream failure they hold whatever arrived, for display.
func (g *Generation) Buffers() (linkedIn, whatsApp string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.linkedInBuf.String(), g.whatsAppBuf.String()
}

// Handlers returns the stream callbacks for this run, for wiring into
// Client.TransformStream.
func (r *Run) Handlers() *StreamHandlers {
	return &StreamHandlers{
		OnLinkedInStart:    r.linkedInStart,
		OnLinkedInChunk:    r.linkedInChunk,
		OnLinkedInComplete: r.linkedInComplete,
		OnWhatsAppStart:    r.whatsAppStart,
		OnWhatsAppChunk:    r.whatsAppChunk,
		OnWhatsAppComplete: r.whatsAppComplete,
		OnTickersDetected:  r.tickersDetected,
		OnChartStart:       r.chartStart,
		OnChartComplete:    r.chartComplete,
		OnChartError:       r.chartError,
		OnDone:             r.done,
		OnError:            r.fail,
	}
}

// currentLocked reports whether this run still owns its variant.
// Callers must hold g.mu.
func (g *Generation) currentLocked(r *Run) bool {
	return g.variants[r.variant].runID == r.id
}

func (g *Generation) emit(n StreamNotify) {
	if g.notify != nil {
		g.notify(n)
	}
}

func (r *Run) linkedInStart() {
	g := r.g
	g.mu.Lock()
	if !g.currentLocked(r) {
		g.mu.Unlock()
		return
	}
	g.linkedInStreaming = true
	g.linkedInBuf.Reset()
	g.mu.Unlock()
	g.emit(StreamNotify{Surface: SurfaceLinkedIn, Status: StatusStarted})
}

func (r *Run) linkedInChunk(content string) {
	g := r.g
	g.mu.Lock()
	if !g.currentLocked(r) {
		g.mu.Unlock()
		return
	}
	g.linkedInBuf.WriteString(content)
	g.mu.Unlock()
	g.emit(StreamNotify{Surface: SurfaceLinkedIn, Status: StatusData, Data: content})
}

// linkedInComplete is the only write path for the variant's LinkedIn
// result; the field is replaced whole, never partially mutated.
func (r *Run) linkedInComplete(content string, hashtags []string, characterCount int) {
	g := r.g
	g.mu.Lock()
	if !g.currentLocked(r) {
		g.mu.Unlock()
		return
	}
	g.linkedInStreaming = false
	g.variants[r.variant].result.LinkedIn = &LinkedInResult{
		Content:        content,
		Hashtags:       hashtags,
		CharacterCount: characterCount,
	}
	g.mu.Unlock()
	g.emit(StreamNotify{Surface: SurfaceLinkedIn, Status: StatusFinished})
}

func (r *Run) whatsAppStart() {
	g := r.g
	g.mu.Lock()
	if !g.currentLocked(r) {
		g.mu.Unlock()
		return
	}
	g.whatsAppStreaming = true
	g.whatsAppBuf.Reset()
	g.mu.Unlock()
	g.emit(StreamNotify{Surface: SurfaceWhatsApp, Status: StatusStarted})
}

func (r *Run) whatsAppChunk(content string) {
	g := r.g
	g.mu.Lock()
	if !g.currentLocked(r) {
		g.mu.Unlock()
		return
	}
	g.whatsAppBuf.WriteString(content)
	g.mu.Unlock()
	g.emit(StreamNotify{Surface: SurfaceWhatsApp, Status: StatusData, Data: content})
}

func (r *Run) whatsAppComplete(content string) {
	g := r.g
	g.mu.Lock()
	if !g.currentLocked(r) {
		g.mu.Unlock()
		return
	}
	g.whatsAppStreaming = false
	g.variants[r.variant].result.WhatsApp = &WhatsAppResult{
		FormattedMessage: content,
		PlainText:        WhatsAppPlainText(content),
	}
	g.mu.Unlock()
	g.emit(StreamNotify{Surface: SurfaceWhatsApp, Status: StatusFinished})
}

// tickersDetected overwrites the variant's ticker list; a later
// detection event in the same run supersedes an earlier one.
func (r *Run) tickersDetected(tickers []string) {
	g := r.g
	g.mu.Lock()
	if !g.currentLocked(r) {
		g.mu.Unlock()
		return
	}
	g.variants[r.variant].result.DetectedTickers = tickers
	g.mu.Unlock()
}

func (r *Run) chartStart(ticker string) {
	g := r.g
	g.mu.Lock()
	if !g.currentLocked(r) {
		g.mu.Unlock()
		return
	}
	g.chartLoading = true
	g.chartTicker = ticker
	g.mu.Unlock()
	g.emit(StreamNotify{Surface: SurfaceChart, Status: StatusStarted, Data: ticker})
}

func (r *Run) chartComplete(chart *ChartData) {
	g := r.g
	g.mu.Lock()
	if !g.currentLocked(r) {
		g.mu.Unlock()
		return
	}
	g.chartLoading = false
	g.chartTicker = ""
	if chart != nil {
		g.variants[r.variant].result.PrimaryChart = chart
	}
	g.mu.Unlock()
	g.emit(StreamNotify{Surface: SurfaceChart, Status: StatusFinished})
}

func (r *Run) chartError(message string) {
	g := r.g
	g.mu.Lock()
	if !g.currentLocked(r) {
		g.mu.Unlock()
		return
	}
	g.chartLoading = false
	g.chartTicker = ""
	g.mu.Unlock()
	g.emit(StreamNotify{Surface: SurfaceChart, Status: StatusError, Data: message})
}

// done marks the run complete, fires the celebration hook, and runs
// the persistence trigger for the variant. The trigger consumes its
// intent before touching the store, so a replayed terminal event can
// never save or merge twice.
func (r *Run) done() {
	g := r.g
	g.mu.Lock()
	if !g.currentLocked(r) {
		g.mu.Unlock()
		return
	}
	st := g.variants[r.variant]
	st.phase = PhaseComplete
	g.linkedInStreaming = false
	g.whatsAppStreaming = false

	var save *data.SavedReport
	var mergeID string
	var mergeBundle *data.VariantResult

	switch r.variant {
	case VariantA:
		if st.pendingSave && st.result.LinkedIn != nil {
			st.pendingSave = false
			save = &data.SavedReport{
				Title:      DeriveTitle(st.result.LinkedIn.Content),
				ReportText: g.reportText,
				Tone:       string(g.tone),
				VariantA:   st.result,
			}
		}
	case VariantB:
		if st.pendingMerge && st.result.LinkedIn != nil && g.activeReportID != "" {
			st.pendingMerge = false
			mergeID = g.activeReportID
			bundle := st.result
			mergeBundle = &bundle
		}
	}
	g.mu.Unlock()

	g.celebrate()

	if save != nil {
		id, err := g.saver.Save(save)
		if err != nil {
			// Storage failure is non-fatal: generated content stays
			// visible and usable.
			Warnf("failed to save report: %v", err)
		} else {
			// A new Start may have superseded this run while the save
			// was in flight; the stale id must not attach to it.
			g.mu.Lock()
			if g.currentLocked(r) {
				g.activeReportID = id
			}
			g.mu.Unlock()
			Debugf("report saved as %s", id)
		}
	}
	if mergeBundle != nil {
		if err := g.saver.UpdateVariantB(mergeID, mergeBundle); err != nil {
			Warnf("failed to attach variant B to report %s: %v", mergeID, err)
		} else {
			Debugf("variant B merged into report %s", mergeID)
		}
	}
}

// Abort marks the run failed for errors raised before any stream
// callback could fire (request construction, non-2xx responses).
// Calling it alongside OnError is safe; the first failure wins.
func (r *Run) Abort(err error) {
	r.fail(err)
}

// fail marks the run failed and cancels its persistence intent: a run
// that errors is never auto-saved, even if partial results arrived.
// Completed fields from before the failure are kept for display.
func (r *Run) fail(err error) {
	g := r.g
	g.mu.Lock()
	if !g.currentLocked(r) {
		g.mu.Unlock()
		return
	}
	st := g.variants[r.variant]
	if st.phase == PhaseFailed {
		g.mu.Unlock()
		return
	}
	st.phase = PhaseFailed
	st.pendingSave = false
	st.pendingMerge = false
	g.linkedInStreaming = false
	g.whatsAppStreaming = false
	g.chartLoading = false
	g.errMsg = err.Error()
	g.mu.Unlock()
	g.emit(StreamNotify{Status: StatusError, Data: err.Error()})
}

// celebrate fires the success hook without awaiting it; a panicking
// hook must never disturb state transitions.
func (g *Generation) celebrate() {
	if g.onSuccess == nil {
		return
	}
	hook := g.onSuccess
	go func() {
		defer func() { _ = recover() }()
		hook()
	}()
}

// SaveNow persists the variant A bundle immediately (the manual-save
// path, used when auto-save was disabled). Returns the new report id.
func (g *Generation) SaveNow() (string, error) {
	g.mu.Lock()
	st := g.variants[VariantA]
	if st.result.LinkedIn == nil {
		g.mu.Unlock()
		return "", errNothingToSave
	}
	runID := st.runID
	rep := &data.SavedReport{
		Title:      DeriveTitle(st.result.LinkedIn.Content),
		ReportText: g.reportText,
		Tone:       string(g.tone),
		VariantA:   st.result,
	}
	g.mu.Unlock()

	id, err := g.saver.Save(rep)
	if err != nil {
		return "", err
	}
	g.mu.Lock()
	if g.variants[VariantA].runID == runID {
		g.activeReportID = id
	}
	g.mu.Unlock()
	return id, nil
}
