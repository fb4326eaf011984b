package services

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"goaspect/internal/models"
	"goaspect/pkg/aop"
)

// LoggingAdvice brackets a call with an entry/exit log line, and — when
// Recorder is set — appends the same two lines to an in-memory journal so
// tests can assert exact call-order without scraping structured log
// output. Context distinguishes two Logging advices bundled onto the same
// method (spec.md §8 scenario 3).
type LoggingAdvice struct {
	aop.BaseAdvice
	Context  string
	Log      *zap.SugaredLogger
	Recorder *[]string
}

func (a *LoggingAdvice) Apply(inv *aop.Invocation, next func() error) error {
	label := inv.Method.Name
	if a.Context != "" {
		label = fmt.Sprintf("%s [%s]", label, a.Context)
	}

	a.record("Entering " + label)
	if a.Log != nil {
		a.Log.Infow("Entering", "method", inv.Method.Name, "context", a.Context)
	}

	err := next()

	a.record("Exiting " + label)
	if a.Log != nil {
		a.Log.Infow("Exiting", "method", inv.Method.Name, "context", a.Context, "error", err)
	}
	return err
}

func (a *LoggingAdvice) record(entry string) {
	if a.Recorder == nil {
		return
	}
	*a.Recorder = append(*a.Recorder, entry)
}

// CachingAdvice short-circuits a call when it has already seen the same
// arguments: the second call with identical args never runs the rest of
// the chain, and returns the exact same result value as the first call
// (spec.md §8 scenario 2).
type CachingAdvice struct {
	aop.BaseAdvice

	mu    sync.Mutex
	cache map[string]*models.Contract
}

func NewCachingAdvice() *CachingAdvice {
	return &CachingAdvice{cache: make(map[string]*models.Contract)}
}

func (a *CachingAdvice) Apply(inv *aop.Invocation, next func() error) error {
	key := fmt.Sprintf("%v", inv.Args)

	a.mu.Lock()
	if cached, ok := a.cache[key]; ok {
		a.mu.Unlock()
		inv.SetReturn(cached)
		return nil
	}
	a.mu.Unlock()

	if err := next(); err != nil {
		return err
	}

	result, _ := inv.Return().(*models.Contract)
	if result != nil {
		a.mu.Lock()
		a.cache[key] = result
		a.mu.Unlock()
	}
	return nil
}

// ValidationAdvice rejects calls whose first float64 argument is not
// strictly greater than 1, and otherwise records that validation passed
// (and when) into the invocation's data map before proceeding.
type ValidationAdvice struct {
	aop.BaseAdvice
}

func (a *ValidationAdvice) Apply(inv *aop.Invocation, next func() error) error {
	if len(inv.Args) > 0 {
		if y, ok := inv.Args[0].(float64); ok && y <= 1 {
			return fmt.Errorf("validation failed: argument must be greater than 1, got %v", y)
		}
	}
	inv.Data["validated"] = true
	inv.Data["validatedAt"] = time.Now()
	return next()
}

// Async1Advice is the outer (default order 0) leg of an async advice
// pair: it simulates awaiting a dependency before letting the call
// proceed, recording when its own body ran.
type Async1Advice struct {
	aop.BaseAdvice
	Delay     time.Duration
	WhenApply *time.Time
}

func (a *Async1Advice) Apply(inv *aop.Invocation, next func() error) error {
	inv.InitializeAwait()
	if a.Delay > 0 {
		time.Sleep(a.Delay)
	}
	if a.WhenApply != nil {
		*a.WhenApply = time.Now()
	}

	fut, err := aop.ProceedAsync(inv, next)
	if err != nil {
		return err
	}
	inv.SetReturn(fut)
	return nil
}

// Async2Advice is the inner leg (explicit order 1): it starts its own,
// independent timer running concurrently with the underlying call and
// records when that timer — not the call itself — completes, so tests can
// assert the wall-clock ordering spec.md §8 scenario 5 describes.
type Async2Advice struct {
	aop.BaseAdvice
	Delay        time.Duration
	WhenOwnTimer *time.Time
}

func (a *Async2Advice) Apply(inv *aop.Invocation, next func() error) error {
	inv.InitializeAwait()

	if a.Delay > 0 {
		go func() {
			time.Sleep(a.Delay)
			if a.WhenOwnTimer != nil {
				*a.WhenOwnTimer = time.Now()
			}
		}()
	}

	fut, err := aop.ProceedAsync(inv, next)
	if err != nil {
		return err
	}
	inv.SetReturn(fut)
	return nil
}
