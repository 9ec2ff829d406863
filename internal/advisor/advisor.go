// Package advisor implements the session-facing search and chat contract:
// retrieval results feed a bounded conversation window, the generation
// capability produces the reply, and every failure degrades to the
// deterministic composer.
package advisor

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kirei-app/kirei/internal/compose"
	"github.com/kirei-app/kirei/internal/conversation"
	"github.com/kirei-app/kirei/internal/domain"
	"github.com/kirei-app/kirei/internal/metrics"
	"github.com/kirei-app/kirei/internal/retrieval"
)

const systemPrompt = `You are an AI advisor specializing in Japanese beauty salons and clinics.
Your role is to help international travelers find, compare, and book beauty treatments in Japan.

You have access to information about providers including names, locations,
services, price ranges, ratings and accessibility.

Guidelines:
1. Be friendly, professional, and helpful
2. Provide clear, accurate information
3. Help users understand their options
4. Explain Japanese beauty culture or terminology when asked
5. Always translate Japanese terms to English
6. Give personalized recommendations based on user preferences

When relevant provider information is supplied, base your answer on it.
If you're not sure about something, be honest and suggest alternatives.`

// apologeticReply is the fixed degradation for unrecovered internal faults.
const apologeticReply = "I'm sorry, something went wrong on my side. Please try again."

// contextRecordLimit caps how many retrieved records are rendered into the
// generation context or the fallback reply.
const contextRecordLimit = 3

// searchCues mark messages that should trigger retrieval before generation.
var searchCues = []string{
	"find", "search", "looking for", "recommend", "best", "clinic", "salon",
	"nail", "hair", "facial", "treatment",
}

// Advisor is the session-facing service.
type Advisor struct {
	retriever Retriever
	sessions  Sessions
	composer  Composer
	generator domain.Generator
	logger    *zap.Logger
	topK      int
	window    int
}

// New creates an Advisor. generator may be nil; the composer then answers
// every chat message.
func New(retriever Retriever, sessions Sessions, composer Composer, generator domain.Generator, logger *zap.Logger) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{
		retriever: retriever,
		sessions:  sessions,
		composer:  composer,
		generator: generator,
		logger:    logger,
		topK:      retrieval.DefaultTopK,
		window:    conversation.DefaultWindow,
	}
}

// WithTuning overrides the retrieval depth and the conversation window sent
// to the generator. Values below 1 keep the current setting.
func (a *Advisor) WithTuning(topK, window int) *Advisor {
	if topK > 0 {
		a.topK = topK
	}
	if window > 0 {
		a.window = window
	}
	return a
}

// Search runs retrieval for a session and returns matching records. The
// session id is minted when empty so follow-up calls can reuse it.
func (a *Advisor) Search(ctx context.Context, query, sessionID string) (string, []domain.Record) {
	id, _ := a.sessions.Session(sessionID)
	records, path := a.retriever.Search(ctx, query, a.topK)
	a.logger.Debug("search served",
		zap.String("session_id", id),
		zap.String("path", string(path)),
		zap.Int("results", len(records)),
	)
	return id, records
}

// Chat processes one user message and returns the reply. Internal errors are
// never surfaced: any unrecovered fault degrades to a fixed apologetic reply
// rather than terminating the session.
func (a *Advisor) Chat(ctx context.Context, message, sessionID string) (id, reply string) {
	id, sess := a.sessions.Session(sessionID)

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("chat panicked", zap.String("session_id", id), zap.Any("panic", r))
			reply = apologeticReply
			sess.Append(domain.RoleAssistant, reply)
		}
	}()

	sess.Append(domain.RoleUser, message)

	var retrieved []domain.Record
	if wantsRetrieval(message) {
		retrieved, _ = a.retriever.Search(ctx, message, a.topK)
	}
	if len(retrieved) > contextRecordLimit {
		retrieved = retrieved[:contextRecordLimit]
	}

	reply = a.reply(ctx, message, sess, retrieved)
	sess.Append(domain.RoleAssistant, reply)
	return id, reply
}

// History returns the full turn log for a session, for diagnostics.
func (a *Advisor) History(sessionID string) []domain.Turn {
	_, sess := a.sessions.Session(sessionID)
	return sess.FullHistory()
}

func (a *Advisor) reply(ctx context.Context, message string, sess *conversation.Context, retrieved []domain.Record) string {
	extraContext := ""
	if len(retrieved) > 0 {
		var b strings.Builder
		b.WriteString("Relevant providers:\n")
		for _, r := range retrieved {
			b.WriteString(compose.FormatRecord(r))
		}
		extraContext = b.String()
	}

	if a.generator == nil {
		metrics.GenerationRequestsTotal.WithLabelValues("fallback").Inc()
		return a.composer.Compose(message, retrieved, len(retrieved) > 0)
	}

	window := sess.ActiveWindow(a.window)
	out, err := a.generator.Generate(ctx, systemPrompt, window, extraContext)
	if err != nil {
		// Transient failure: fall back for this call, keep the capability.
		a.logger.Warn("generation failed, using composer", zap.Error(err))
		metrics.GenerationRequestsTotal.WithLabelValues("error").Inc()
		return a.composer.Compose(message, retrieved, len(retrieved) > 0)
	}

	metrics.GenerationRequestsTotal.WithLabelValues("success").Inc()
	return out
}

// wantsRetrieval detects whether the message asks about providers.
func wantsRetrieval(message string) bool {
	lower := strings.ToLower(message)
	for _, cue := range searchCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}
