package client

import "io"

// progressReader reports the fraction of an upload body consumed by
// the transport. Nothing is reported when total is unknown.
type progressReader struct {
	r        io.Reader
	sent     int64
	total    int64
	last     float64
	report   func(float64)
	dispatch func(func())
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.total > 0 {
		p.sent += int64(n)

		frac := min(float64(p.sent)/float64(p.total), 1)
		if frac >= p.last {
			p.last = frac
			report := p.report
			p.dispatch(func() { report(frac) })
		}
	}

	return n, err
}
