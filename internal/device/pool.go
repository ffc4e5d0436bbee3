package device

import "sync"

// ScratchPool recycles per-block scratch buffers between launches.
type ScratchPool struct {
	pool sync.Pool
	size int
}

func NewScratchPool(maxWords int) *ScratchPool {
	return &ScratchPool{
		size: maxWords,
		pool: sync.Pool{
			New: func() interface{} {
				buf := make([]float64, maxWords)
				return &buf
			},
		},
	}
}

// Get returns a zeroed buffer of n words.
func (p *ScratchPool) Get(n int) []float64 {
	buf := p.pool.Get().(*[]float64)
	return (*buf)[:n]
}

func (p *ScratchPool) Put(s []float64) {
	if cap(s) != p.size {
		return
	}
	s = s[:cap(s)]
	for i := range s {
		s[i] = 0
	}
	p.pool.Put(&s)
}
