package orrery

import (
	"fmt"
	"math"
	"time"
)

// epsilon is the completion threshold: a transaction whose progress exceeds
// 1-epsilon is finished.
const epsilon = 1e-5

type txState uint8

const (
	txIdle      txState = iota // created, not registered anywhere
	txOpen                     // on the open stack
	txCommitted                // scheduled
	txRemoved                  // completed, cancelled or terminated
)

// Transaction is a time-scoped batch of property interpolations sharing one
// duration, delay, timing function, speed and finish callback. Create one
// with Scheduler.Begin, configure it through the Scheduler setters, then
// Commit it.
type Transaction struct {
	id    uint64
	state txState

	duration float64
	delay    float64
	offset   float64
	speed    float64
	timing   TimingFunction
	loop     bool
	paused   bool

	startTime               float64
	processedTimeWhenPaused float64
	speedModulatedTime      float64
	t                       float64

	finish     func(terminate bool)
	animations []Animation
}

func newTransaction(id uint64) *Transaction {
	return &Transaction{
		id:     id,
		speed:  1,
		timing: timingLinear,
	}
}

// ID returns the transaction's identifier, unique per Scheduler.
func (tx *Transaction) ID() uint64 { return tx.id }

// T returns the current linear progress in [0, 1].
func (tx *Transaction) T() float64 { return tx.t }

// Duration returns the animation duration in seconds.
func (tx *Transaction) Duration() float64 { return tx.duration }

// Speed returns the current speed multiplier.
func (tx *Transaction) Speed() float64 { return tx.speed }

// IsPaused reports whether the transaction is paused.
func (tx *Transaction) IsPaused() bool { return tx.paused }

// IsCommitted reports whether the transaction is currently scheduled.
func (tx *Transaction) IsCommitted() bool { return tx.state == txCommitted }

// AddAnimation binds a property writer to the transaction. Writers are
// processed in the order they were added.
func (tx *Transaction) AddAnimation(a Animation) {
	tx.animations = append(tx.animations, a)
}

// NumAnimations returns the number of bound property writers.
func (tx *Transaction) NumAnimations() int { return len(tx.animations) }

func (tx *Transaction) String() string {
	return fmt.Sprintf("tx#%d", tx.id)
}

func (tx *Transaction) processAnimations(t float64) {
	tx.t = t
	eased := tx.timing.Ease(t)
	for _, a := range tx.animations {
		a.ProcessFrame(eased)
	}
}

func (tx *Transaction) onTermination() {
	tx.t = 1
	for _, a := range tx.animations {
		a.OnTermination()
	}
	if tx.finish != nil {
		tx.finish(true)
	}
}

// Scheduler owns the open-transaction stack and the committed collection and
// advances committed transactions once per frame. It is the explicit context
// through which transactions are begun, configured and committed; it is not
// safe for concurrent use and must be driven from the render goroutine.
type Scheduler struct {
	open      []*Transaction
	committed []*Transaction
	snapshot  []*Transaction // reused by Update
	clock     func() float64
	nextID    uint64
}

// NewScheduler creates a scheduler driven by the monotonic wall clock.
func NewScheduler() *Scheduler {
	start := time.Now()
	return &Scheduler{
		clock: func() float64 { return time.Since(start).Seconds() },
	}
}

// SetClock replaces the time source. fn returns seconds and must be
// non-decreasing.
func (s *Scheduler) SetClock(fn func() float64) {
	if fn == nil {
		panic("orrery: nil scheduler clock")
	}
	s.clock = fn
}

// Now returns the scheduler clock in seconds.
func (s *Scheduler) Now() float64 {
	return s.clock()
}

// --- Open stack ---

// Begin pushes a new transaction (duration 0, speed 1, linear timing) onto
// the open stack and returns it.
func (s *Scheduler) Begin() *Transaction {
	s.nextID++
	tx := newTransaction(s.nextID)
	s.Add(tx)
	return tx
}

// Add pushes an existing transaction onto the open stack so that property
// changes are captured into it. Panics if the transaction is already open
// or committed.
func (s *Scheduler) Add(tx *Transaction) {
	if tx.state == txOpen || tx.state == txCommitted {
		panic(fmt.Sprintf("orrery: %s is already open or committed", tx))
	}
	tx.state = txOpen
	s.open = append(s.open, tx)
}

// Get returns the top of the open stack, or nil if no transaction is open.
func (s *Scheduler) Get() *Transaction {
	if len(s.open) == 0 {
		return nil
	}
	return s.open[len(s.open)-1]
}

// IsActive reports whether an open transaction with a positive duration
// exists. Property setters use this to decide between interpolation and
// plain assignment.
func (s *Scheduler) IsActive() bool {
	tx := s.Get()
	return tx != nil && tx.duration > 0
}

// mustGet returns the top of the open stack or panics: configuring outside
// a Begin/Commit bracket is a programmer error.
func (s *Scheduler) mustGet(op string) *Transaction {
	tx := s.Get()
	if tx == nil {
		panic("orrery: " + op + " called with no open transaction")
	}
	return tx
}

// SetAnimationDuration sets the duration in seconds of the open transaction.
func (s *Scheduler) SetAnimationDuration(seconds float64) {
	s.mustGet("SetAnimationDuration").duration = seconds
}

// AnimationDuration returns the duration of the open transaction.
func (s *Scheduler) AnimationDuration() float64 {
	return s.mustGet("AnimationDuration").duration
}

// SetAnimationDelay sets the delay in seconds before the open transaction
// starts animating.
func (s *Scheduler) SetAnimationDelay(seconds float64) {
	s.mustGet("SetAnimationDelay").delay = seconds
}

// SetAnimationTimeOffset sets a time offset in seconds added to the elapsed
// time of the open transaction.
func (s *Scheduler) SetAnimationTimeOffset(seconds float64) {
	s.mustGet("SetAnimationTimeOffset").offset = seconds
}

// SetAnimationSpeed sets the speed multiplier of the open transaction.
// 1 is normal speed, 0 freezes it.
func (s *Scheduler) SetAnimationSpeed(speed float64) {
	s.mustGet("SetAnimationSpeed").speed = math.Max(speed, 0)
}

// SetAnimationLoop makes the open transaction replay from the start each
// time it completes.
func (s *Scheduler) SetAnimationLoop(loop bool) {
	s.mustGet("SetAnimationLoop").loop = loop
}

// SetTimingFunction sets the easing curve of the open transaction.
func (s *Scheduler) SetTimingFunction(fn TimingFunction) {
	tx := s.mustGet("SetTimingFunction")
	if fn == nil {
		fn = timingLinear
	}
	tx.timing = fn
}

// SetTimingFunctionType sets one of the built-in easing curves on the open
// transaction.
func (s *Scheduler) SetTimingFunctionType(t TimingFunctionType) {
	s.SetTimingFunction(TimingFunctionFor(t))
}

// SetFinishCallback sets the callback invoked when the open transaction
// completes. terminate is false for each loop iteration and true on the
// final completion.
func (s *Scheduler) SetFinishCallback(fn func(terminate bool)) {
	s.mustGet("SetFinishCallback").finish = fn
}

// Commit pops the open transaction, stamps its start time and schedules it.
// The returned transaction is the handle for Pause, Resume, SetSpeed,
// Cancel and Terminate.
func (s *Scheduler) Commit() *Transaction {
	tx := s.mustGet("Commit")
	s.open[len(s.open)-1] = nil
	s.open = s.open[:len(s.open)-1]

	tx.t = 0
	tx.startTime = s.clock()
	tx.state = txCommitted
	s.committed = append(s.committed, tx)
	return tx
}

// Committed returns the number of scheduled transactions.
func (s *Scheduler) Committed() int {
	return len(s.committed)
}

// NumOpen returns the depth of the open stack.
func (s *Scheduler) NumOpen() int {
	return len(s.open)
}

// --- Per-frame sweep ---

// Update advances every committed transaction to the current clock time,
// applies eased values, fires finish callbacks and removes completed
// transactions.
//
// Finish callbacks may commit, cancel or terminate transactions while the
// sweep runs, so the sweep iterates over a snapshot of the committed
// collection and applies removals to the live collection afterwards.
// Transactions removed by a callback during the sweep are not processed
// again.
func (s *Scheduler) Update() {
	now := s.clock()

	s.snapshot = append(s.snapshot[:0], s.committed...)
	for i, tx := range s.snapshot {
		s.snapshot[i] = nil
		if tx.state != txCommitted || tx.paused {
			continue
		}

		passed := (now-tx.startTime)*tx.speed + tx.speedModulatedTime
		passed += tx.offset
		if passed <= tx.delay {
			continue
		}

		percent := (passed - tx.delay) / tx.duration
		if math.IsInf(percent, 0) || math.IsNaN(percent) || percent > 1-epsilon {
			if tx.loop {
				if tx.finish != nil {
					tx.finish(false)
				}
				if tx.state != txCommitted {
					continue
				}
				tx.startTime = s.clock()
				tx.speedModulatedTime = 0
				tx.processAnimations(0)
			} else {
				tx.onTermination()
			}
		} else {
			tx.processAnimations(percent)
		}
	}
	s.snapshot = s.snapshot[:0]

	kept := s.committed[:0]
	for _, tx := range s.committed {
		if tx.t > 1-epsilon {
			tx.state = txRemoved
			continue
		}
		kept = append(kept, tx)
	}
	for i := len(kept); i < len(s.committed); i++ {
		s.committed[i] = nil
	}
	s.committed = kept
}

// --- Handle operations ---

// Pause freezes a committed transaction at its current progress. Pausing a
// paused or completed transaction logs a warning and does nothing.
func (s *Scheduler) Pause(tx *Transaction) {
	if tx.t == 1 {
		logger.Warn("cannot pause completed transaction", "op", "pause", "transaction", tx.id)
		return
	}
	if tx.paused {
		logger.Warn("cannot pause transaction that is already paused", "op", "pause", "transaction", tx.id)
		return
	}
	tx.processedTimeWhenPaused = s.clock() - tx.startTime
	tx.paused = true
}

// Resume continues a paused transaction from where it was paused; time spent
// paused does not count. Resuming a running or completed transaction logs a
// warning and does nothing.
func (s *Scheduler) Resume(tx *Transaction) {
	if tx.t == 1 {
		logger.Warn("cannot resume completed transaction", "op", "resume", "transaction", tx.id)
		return
	}
	if !tx.paused {
		logger.Warn("cannot resume transaction that is not paused", "op", "resume", "transaction", tx.id)
		return
	}
	tx.startTime = s.clock() - tx.processedTimeWhenPaused
	tx.processedTimeWhenPaused = 0
	tx.paused = false
}

// SetSpeed changes the speed multiplier of a committed transaction without
// a jump in progress: time elapsed at the old speed is folded into an
// accumulator before the new multiplier takes effect.
func (s *Scheduler) SetSpeed(tx *Transaction, speed float64) {
	speed = math.Max(speed, 0)
	now := s.clock()
	if tx.paused {
		tx.speedModulatedTime += tx.processedTimeWhenPaused * tx.speed
		tx.processedTimeWhenPaused = 0
		tx.startTime = now
		tx.speed = speed
		return
	}
	passed := now - tx.startTime
	tx.startTime = now
	tx.speedModulatedTime += passed * tx.speed
	tx.speed = speed
}

// Cancel removes a committed transaction, leaving every bound property at
// its last applied value. The finish callback is not invoked.
func (s *Scheduler) Cancel(tx *Transaction) {
	if !s.remove(tx) {
		logger.Warn("cannot cancel transaction that is not committed", "op", "cancel", "transaction", tx.id)
	}
}

// Terminate removes a committed transaction. With jumpToEnd every bound
// property snaps to its end value and the finish callback fires once with
// terminate=true; otherwise the properties freeze at their current values.
func (s *Scheduler) Terminate(tx *Transaction, jumpToEnd bool) {
	if tx.state != txCommitted {
		logger.Warn("cannot terminate transaction that is not committed", "op", "terminate", "transaction", tx.id)
		return
	}
	// Unschedule first so that a callback observing the scheduler sees the
	// transaction gone, and a nested Terminate is a no-op.
	s.remove(tx)
	if jumpToEnd {
		tx.onTermination()
	}
}

// remove deletes tx from the committed collection, reporting whether it was
// present.
func (s *Scheduler) remove(tx *Transaction) bool {
	for i, c := range s.committed {
		if c == tx {
			copy(s.committed[i:], s.committed[i+1:])
			s.committed[len(s.committed)-1] = nil
			s.committed = s.committed[:len(s.committed)-1]
			tx.state = txRemoved
			return true
		}
	}
	return false
}
