package host

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/logging"
)

var errNoHandle = errors.New("host facility returned no result")

// Adapter turns any host facility call into a single settle-once result.
type Adapter struct {
	host   Host
	logger *logging.Logger
}

// NewAdapter creates an adapter over h. A nil host is allowed; every call then
// fails with ErrCapabilityUnavailable.
func NewAdapter(h Host, logger *logging.Logger) *Adapter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Adapter{host: h, logger: logger.Named("host")}
}

// Call invokes capability c with args and waits for its single outcome.
//
// The facility is first invoked callback style. If that panics, it is invoked
// once more without a callback and its Handle awaited. Whichever of callback or
// handle reports first wins; later reports are dropped.
func (a *Adapter) Call(ctx context.Context, c Capability, args any) (any, error) {
	if a.host == nil || !a.host.Available() {
		return nil, ErrCapabilityUnavailable
	}
	op := a.host.Facility(ctx, c)
	if op == nil {
		return nil, ErrCapabilityUnavailable
	}

	st := newSettlement()

	handle, thrown := invoke(op, args, func(result any) {
		if err := a.host.LastError(); err != nil {
			st.reject(a.failure(c, err))
			return
		}
		st.resolve(result)
	})
	if thrown != nil {
		a.logger.Debug("Callback-style call threw, retrying handle-style",
			zap.String("capability", string(c)),
			zap.String("thrown", describe(thrown)),
		)
		handle, thrown = invoke(op, args, nil)
		switch {
		case thrown != nil:
			st.reject(a.failure(c, thrown))
		case handle == nil:
			st.reject(a.failure(c, errNoHandle))
		}
	}

	if handle != nil {
		go func() {
			v, err := handle.Await(ctx)
			if err != nil {
				st.reject(a.failure(c, err))
				return
			}
			st.resolve(v)
		}()
	}

	select {
	case out := <-st.ch:
		if out.err != nil {
			a.logger.Debug("Host call rejected",
				zap.String("capability", string(c)),
				zap.Error(out.err),
			)
		}
		return out.value, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *Adapter) failure(c Capability, reason any) error {
	if errors.Is(asError(reason), context.Canceled) || errors.Is(asError(reason), context.DeadlineExceeded) {
		return asError(reason)
	}
	return &Failure{Capability: c, Message: describe(reason)}
}

func asError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return nil
}

// invoke runs op and converts a panic into a thrown value.
func invoke(op Operation, args any, cb Callback) (h Handle, thrown any) {
	defer func() {
		if r := recover(); r != nil {
			h = nil
			thrown = r
		}
	}()
	return op(args, cb), nil
}

type outcome struct {
	value any
	err   error
}

// settlement delivers at most one outcome.
type settlement struct {
	once sync.Once
	ch   chan outcome
}

func newSettlement() *settlement {
	return &settlement{ch: make(chan outcome, 1)}
}

func (s *settlement) resolve(v any) {
	s.once.Do(func() { s.ch <- outcome{value: v} })
}

func (s *settlement) reject(err error) {
	s.once.Do(func() { s.ch <- outcome{err: err} })
}
