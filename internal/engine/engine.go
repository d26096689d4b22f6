package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/impulsa-ai/brenda/internal/advisor"
	"github.com/impulsa-ai/brenda/internal/analyzer"
	"github.com/impulsa-ai/brenda/internal/catalog"
	"github.com/impulsa-ai/brenda/internal/composer"
	"github.com/impulsa-ai/brenda/internal/intake"
	"github.com/impulsa-ai/brenda/internal/llm"
	"github.com/impulsa-ai/brenda/internal/memory"
	"github.com/impulsa-ai/brenda/internal/messenger"
	"github.com/impulsa-ai/brenda/internal/observability/metrics"
	"github.com/impulsa-ai/brenda/internal/policy"
	"github.com/impulsa-ai/brenda/internal/tools"
	"github.com/impulsa-ai/brenda/pkg/logging"
)

var tracer = otel.Tracer("brenda.internal.engine")

const (
	// neutralFallback replaces the narrative when the LLM is unavailable.
	neutralFallback = "Gracias por tu mensaje 🙌 Déjame revisarlo con calma; mientras tanto esto te puede servir."
	// apologyText is the single generic failure sentence a turn may emit.
	apologyText = "Uy, tuve un detalle técnico de mi lado. ¿Me repites tu último mensaje, por favor? 🙏"
	// questionPromptText answers the "ask question" menu button.
	questionPromptText = "¡Claro! Pregúntame lo que quieras sobre el curso: contenido, horarios, forma de pago, lo que necesites. 😊"
)

var menuWords = []string{"menu", "menú", "/menu"}

// Options wires the engine. Every field except Metrics is required.
type Options struct {
	Store     memory.Store
	Locks     *memory.UserLocks
	Intake    *intake.Machine
	Analyzer  *analyzer.Analyzer
	Policy    *policy.Policy
	Registry  *tools.Registry
	LLM       llm.Client
	Validator *llm.Validator
	Composer  *composer.Composer
	Advisor   *advisor.Flow
	Catalog   catalog.Gateway
	Sender    messenger.Sender
	Metrics   *metrics.ConversationMetrics
	Logger    *logging.Logger

	TurnBudget     time.Duration
	ToolTimeout    time.Duration
	LLMModel       string
	LLMMaxTokens   int32
	LLMTemperature float32
}

// Engine runs one full conversation turn per inbound messenger update.
type Engine struct {
	opts Options

	logger *logging.Logger
}

// New validates the wiring and returns a ready engine.
func New(opts Options) *Engine {
	for name, missing := range map[string]bool{
		"store":     opts.Store == nil,
		"locks":     opts.Locks == nil,
		"intake":    opts.Intake == nil,
		"analyzer":  opts.Analyzer == nil,
		"policy":    opts.Policy == nil,
		"registry":  opts.Registry == nil,
		"llm":       opts.LLM == nil,
		"validator": opts.Validator == nil,
		"composer":  opts.Composer == nil,
		"advisor":   opts.Advisor == nil,
		"catalog":   opts.Catalog == nil,
		"sender":    opts.Sender == nil,
	} {
		if missing {
			panic(fmt.Sprintf("engine: %s is required", name))
		}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.TurnBudget <= 0 {
		opts.TurnBudget = 30 * time.Second
	}
	if opts.ToolTimeout <= 0 {
		opts.ToolTimeout = 8 * time.Second
	}
	return &Engine{opts: opts, logger: opts.Logger}
}

// HandleUpdate processes one inbound event end to end: load profile, route
// to intake/advisor/free dialogue, persist, send. Turns for the same user
// are serialised; a failure never crosses the turn boundary.
func (e *Engine) HandleUpdate(ctx context.Context, update messenger.Update) {
	unlock := e.opts.Locks.Lock(update.UserID)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, e.opts.TurnBudget)
	defer cancel()

	ctx, span := tracer.Start(ctx, "engine.turn")
	span.SetAttributes(attribute.String("brenda.user_id", update.UserID))
	defer span.End()

	start := time.Now()
	stage := "unknown"
	outcome := "ok"

	defer func() {
		if r := recover(); r != nil {
			outcome = "panic"
			e.logger.Error("turn panicked", "user_id", update.UserID, "panic", fmt.Sprint(r))
			e.send(context.WithoutCancel(ctx), update.UserID, textReply(apologyText))
		}
		e.opts.Metrics.ObserveTurn(stage, outcome, time.Since(start).Seconds())
	}()

	profile, err := e.loadOrCreate(ctx, update)
	if err != nil {
		outcome = "load_failed"
		e.logger.Error("profile load failed", "user_id", update.UserID, "error", err.Error())
		e.send(ctx, update.UserID, textReply(apologyText))
		return
	}
	stage = string(profile.Stage)

	// Every inbound event counts toward the interaction total, intake and
	// advisor turns included.
	profile.TotalMessages++

	var reply messenger.Reply
	switch {
	case isMenuRequest(update.Text) && profile.PrivacyAccepted:
		reply = e.opts.Intake.HandleMenu(profile)
	case e.opts.Intake.Owns(profile):
		reply = e.opts.Intake.Handle(ctx, profile, update)
	case profile.Stage == memory.StageAdvisorHandoff:
		reply = e.advisorTurn(ctx, profile, update)
	default:
		reply = e.freeDialogueTurn(ctx, profile, update)
	}

	// Persistence and delivery outlive the turn budget: an aborted turn
	// must still keep its log entry and answer the user.
	tail := context.WithoutCancel(ctx)
	if err := e.opts.Store.Save(tail, profile); err != nil {
		e.logger.Error("profile save failed", "user_id", profile.UserID, "error", err.Error())
	}
	if len(reply.Parts) > 0 {
		e.send(tail, update.UserID, reply)
	}
}

func (e *Engine) loadOrCreate(ctx context.Context, update messenger.Update) (*memory.UserProfile, error) {
	profile, err := e.opts.Store.Load(ctx, update.UserID)
	if errors.Is(err, memory.ErrProfileNotFound) {
		return memory.NewUserProfile(update.UserID, update.FirstName, update.Username, time.Now()), nil
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (e *Engine) advisorTurn(ctx context.Context, profile *memory.UserProfile, update messenger.Update) messenger.Reply {
	out := e.opts.Advisor.Handle(ctx, profile, update.Text)
	if out.Dispatched {
		e.opts.Metrics.ObserveHandoff()
	}
	profile.AppendLog(memory.MessageRecord{Role: "user", Content: update.Text, Timestamp: time.Now()})
	e.appendAssistantLog(profile, out.Reply, nil)
	return out.Reply
}

// freeDialogueTurn is the main path: analyse, select tools, run them, build
// the narrative, compose. Learned-attribute updates happen only after the
// composer ran; an aborted turn logs the raw message and nothing else.
func (e *Engine) freeDialogueTurn(ctx context.Context, profile *memory.UserProfile, update messenger.Update) messenger.Reply {
	text := update.Text

	if reply, handled := e.handleMenuCallback(ctx, profile, update); handled {
		return reply
	}

	snap := e.opts.Analyzer.Analyze(ctx, profile, text)
	sel := e.opts.Policy.Select(snap, profile, text)
	results := e.runTools(ctx, sel.Tools, profile)

	if ctx.Err() != nil {
		return e.abortTurn(profile, text)
	}

	var narrative string
	if !sel.PurchaseOverride && !hasContactFlow(results) {
		narrative = e.narrative(ctx, profile, snap, text)
		if narrative == "" && len(results) == 0 {
			narrative = neutralFallback
		}
	}

	if ctx.Err() != nil {
		return e.abortTurn(profile, text)
	}

	reply := e.opts.Composer.Compose(narrative, results)

	if hasContactFlow(results) {
		flowReply := e.opts.Advisor.Start(ctx, profile)
		reply.Parts = append(reply.Parts, flowReply.Parts...)
	}

	profile.ApplyDelta(analyzer.Delta(snap))

	analysisJSON, _ := json.Marshal(snap)
	profile.AppendLog(memory.MessageRecord{
		Role:      "user",
		Content:   text,
		Timestamp: time.Now(),
		Analysis:  analysisJSON,
	})
	e.appendAssistantLog(profile, reply, sel.Tools)
	return reply
}

// abortTurn keeps the raw message and skips every learned-attribute write.
func (e *Engine) abortTurn(profile *memory.UserProfile, text string) messenger.Reply {
	e.logger.Warn("turn budget exhausted, aborting", "user_id", profile.UserID)
	profile.AppendLog(memory.MessageRecord{Role: "user", Content: text, Timestamp: time.Now()})
	return textReply(apologyText)
}

func (e *Engine) handleMenuCallback(ctx context.Context, profile *memory.UserProfile, update messenger.Update) (messenger.Reply, bool) {
	switch update.CallbackPayload {
	case intake.CallbackMenuQuestion:
		return textReply(questionPromptText), true
	case intake.CallbackMenuPrices:
		res := e.runTools(ctx, []tools.ID{tools.ShowPricingComparison}, profile)
		return e.opts.Composer.Compose("", res), true
	case intake.CallbackMenuCall:
		return e.opts.Advisor.Start(ctx, profile), true
	}
	return messenger.Reply{}, false
}

func (e *Engine) runTools(ctx context.Context, ids []tools.ID, profile *memory.UserProfile) []tools.Result {
	var results []tools.Result
	for _, id := range ids {
		if ctx.Err() != nil {
			e.logger.Warn("dropping remaining tools, turn budget exhausted", "tool", string(id))
			break
		}
		toolCtx, cancel := context.WithTimeout(ctx, e.opts.ToolTimeout)
		res := e.opts.Registry.Run(toolCtx, id, tools.Input{
			UserID:   profile.UserID,
			CourseID: profile.SelectedCourseID,
			Profile:  profile,
		})
		cancel()

		e.opts.Metrics.ObserveToolRun(string(id), string(res.Type))
		if res.Type == tools.TypeError {
			continue
		}
		results = append(results, res)
	}
	return results
}

// narrative runs the grounded LLM path. Any failure returns the neutral
// fallback so tools still reach the user.
func (e *Engine) narrative(ctx context.Context, profile *memory.UserProfile, snap analyzer.Snapshot, text string) string {
	course, sessions, bonuses := e.loadProjection(ctx, profile.SelectedCourseID)

	req := llm.BuildPrompt(llm.PromptInput{
		Profile:       profile,
		Course:        course,
		Intent:        string(snap.Intent),
		ResponseStyle: snap.ResponseStyle,
		NextFocus:     snap.NextFocus,
		UserMessage:   text,
		MaxTokens:     e.opts.LLMMaxTokens,
		Model:         e.opts.LLMModel,
		Temperature:   e.opts.LLMTemperature,
	})

	start := time.Now()
	resp, err := e.opts.LLM.Complete(ctx, req)
	e.opts.Metrics.ObserveLLMLatency("narrative", time.Since(start).Seconds())
	if err != nil {
		e.logger.Warn("llm narrative failed, continuing with tools only", "user_id", profile.UserID, "error", err.Error())
		return neutralFallback
	}

	checked := e.opts.Validator.Check(resp.Text, course, sessions, bonuses)
	return checked.Text
}

func (e *Engine) loadProjection(ctx context.Context, courseID string) (*catalog.Course, []catalog.Session, []catalog.Bonus) {
	if courseID == "" {
		return nil, nil, nil
	}
	course, err := e.opts.Catalog.GetCourse(ctx, courseID)
	if err != nil {
		e.logger.Warn("course projection load failed", "course_id", courseID, "error", err.Error())
		return nil, nil, nil
	}
	sessions, err := e.opts.Catalog.ListSessions(ctx, courseID)
	if err != nil {
		sessions = nil
	}
	bonuses, err := e.opts.Catalog.ListBonuses(ctx, courseID)
	if err != nil {
		bonuses = nil
	}
	return course, sessions, bonuses
}

func (e *Engine) appendAssistantLog(profile *memory.UserProfile, reply messenger.Reply, used []tools.ID) {
	var texts []string
	for _, p := range reply.Parts {
		if p.Type == messenger.PartText && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	if len(texts) == 0 {
		return
	}
	names := make([]string, 0, len(used))
	for _, id := range used {
		names = append(names, string(id))
	}
	profile.AppendLog(memory.MessageRecord{
		Role:      "assistant",
		Content:   strings.Join(texts, "\n"),
		Timestamp: time.Now(),
		Tools:     names,
	})
}

func (e *Engine) send(ctx context.Context, userID string, reply messenger.Reply) {
	if err := e.opts.Sender.SendReply(ctx, userID, reply); err != nil {
		e.logger.Error("outbound send failed", "user_id", userID, "error", err.Error())
	}
}

func isMenuRequest(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, w := range menuWords {
		if lower == w {
			return true
		}
	}
	return false
}

func hasContactFlow(results []tools.Result) bool {
	for _, res := range results {
		if res.Type == tools.TypeContactFlow {
			return true
		}
	}
	return false
}

func textReply(text string) messenger.Reply {
	return messenger.Reply{Parts: []messenger.Part{messenger.TextPart(text)}}
}
