package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/pagebrief/internal/gemini"
	"github.com/GriffinCanCode/pagebrief/internal/host"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/monitoring"
)

// Summarizer is the privileged-side backend.
type Summarizer interface {
	Summarize(ctx context.Context, in gemini.Input) (string, error)
	ListModels(ctx context.Context, apiKey string) ([]string, error)
}

// Respond delivers a Response back to the sender.
type Respond func(Response)

// Listener handles runtime messages in the privileged context.
type Listener struct {
	backend Summarizer
	logger  *logging.Logger
	metrics *monitoring.Metrics
	wg      sync.WaitGroup
}

// NewListener creates a listener answering with backend. metrics may be nil.
func NewListener(backend Summarizer, logger *logging.Logger, metrics *monitoring.Metrics) *Listener {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Listener{
		backend: backend,
		logger:  logger.Named("listener"),
		metrics: metrics,
	}
}

// Handle claims msg if its action is known. It returns true when respond will
// be called later, exactly once, and false when the message is left for other
// listeners. The work is detached from ctx cancellation: a dispatched request
// runs to completion.
func (l *Listener) Handle(ctx context.Context, sender host.Sender, msg any, respond Respond) bool {
	wire, err := AsMessage(msg)
	if err != nil {
		l.logger.Debug("Ignoring undecodable message", zap.String("sender", sender.ID), zap.Error(err))
		l.record(string(ActionUnknown), "ignored", 0)
		return false
	}
	req, ok := Decode(wire)
	if !ok {
		l.logger.Debug("Ignoring unknown action", zap.String("sender", sender.ID), zap.String("action", string(wire.Action)))
		l.record(string(ActionUnknown), "ignored", 0)
		return false
	}

	var once sync.Once
	reply := func(resp Response) {
		once.Do(func() { respond(resp) })
	}

	ctx = context.WithoutCancel(ctx)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				l.logger.Error("Handler panicked",
					zap.String("action", string(req.Action())),
					zap.Any("panic", r),
				)
				l.record(string(req.Action()), "error", time.Since(start))
				reply(Fail(fmt.Errorf("internal error: %v", r)))
			}
		}()

		resp := l.dispatch(ctx, req)

		outcome := "ok"
		if !resp.Success {
			outcome = "error"
		}
		l.record(string(req.Action()), outcome, time.Since(start))
		l.logger.Info("Message handled",
			zap.String("sender", sender.ID),
			zap.String("action", string(req.Action())),
			zap.Bool("success", resp.Success),
			zap.Duration("duration", time.Since(start)),
		)
		reply(resp)
	}()

	return true
}

// Wait blocks until every claimed message has been answered.
func (l *Listener) Wait() {
	l.wg.Wait()
}

// dispatch switches over the closed Request set.
func (l *Listener) dispatch(ctx context.Context, req Request) Response {
	switch r := req.(type) {
	case SummarizeRequest:
		summary, err := l.backend.Summarize(ctx, gemini.Input{
			Text:     r.Text,
			APIKey:   r.APIKey,
			Model:    r.Model,
			Language: r.Language,
			Prompt:   r.Prompt,
		})
		if err != nil {
			return Fail(err)
		}
		return OK(summary)

	case ListModelsRequest:
		models, err := l.backend.ListModels(ctx, r.APIKey)
		if err != nil {
			return Fail(err)
		}
		if models == nil {
			models = []string{}
		}
		return OK(models)

	default:
		panic(fmt.Sprintf("bridge: unhandled request type %T", req))
	}
}

func (l *Listener) record(action, outcome string, d time.Duration) {
	if l.metrics != nil {
		l.metrics.RecordBridgeMessage(action, outcome, d)
	}
}
