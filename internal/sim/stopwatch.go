package sim

import "time"

// Stopwatch accumulates wall time between Start and Stop calls.
type Stopwatch struct {
	start   time.Time
	elapsed time.Duration
	running bool
	now     func() time.Time
}

func (s *Stopwatch) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *Stopwatch) Start() {
	if s.running {
		return
	}
	s.start = s.clock()
	s.running = true
}

// Stop ends the current interval and returns the accumulated total.
func (s *Stopwatch) Stop() time.Duration {
	if s.running {
		s.elapsed += s.clock().Sub(s.start)
		s.running = false
	}
	return s.elapsed
}

func (s *Stopwatch) Elapsed() time.Duration {
	if s.running {
		return s.elapsed + s.clock().Sub(s.start)
	}
	return s.elapsed
}

func (s *Stopwatch) Reset() {
	s.elapsed = 0
	s.running = false
}
