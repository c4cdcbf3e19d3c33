package frame

// Manual is a Scheduler whose frames are pumped by the host, one Frame
// call per refresh.
type Manual struct {
	q      queue
	frames int
}

var _ Scheduler = (*Manual)(nil)

func NewManual() *Manual { return &Manual{} }

func (m *Manual) RequestFrame(fn func()) Handle { return m.q.add(fn) }
func (m *Manual) Cancel(h Handle)               { m.q.cancel(h) }

// Frame runs the callbacks pending at call time and returns how many ran.
func (m *Manual) Frame() int {
	fns := m.q.drain()
	m.frames++
	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

// Pending returns the number of callbacks waiting for the next frame.
func (m *Manual) Pending() int { return m.q.len() }

// Frames returns how many frames have been pumped.
func (m *Manual) Frames() int { return m.frames }
