package fetchclient

import (
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

const progressLogPeriod = 5 * time.Second

// progressReadCloser считает прочитанные байты и периодически пишет прогресс в лог.
type progressReadCloser struct {
	rc      io.ReadCloser
	logger  *zap.Logger
	total   int64
	current int64
	started time.Time
	lastLog time.Time
	once    sync.Once
}

func newProgressReadCloser(rc io.ReadCloser, logger *zap.Logger, total int64) *progressReadCloser {
	now := time.Now()
	return &progressReadCloser{
		rc:      rc,
		logger:  logger,
		total:   total,
		started: now,
		lastLog: now,
	}
}

func (p *progressReadCloser) Read(b []byte) (int, error) {
	n, err := p.rc.Read(b)
	if n > 0 {
		p.current += int64(n)
		if now := time.Now(); now.Sub(p.lastLog) >= progressLogPeriod {
			p.lastLog = now
			p.logger.Info("download progress", p.fields()...)
		}
	}
	if err == io.EOF {
		p.finish()
	}
	return n, err
}

func (p *progressReadCloser) Close() error {
	p.finish()
	return p.rc.Close()
}

func (p *progressReadCloser) finish() {
	p.once.Do(func() {
		p.logger.Info("download finished", append(p.fields(), zap.Duration("elapsed", time.Since(p.started)))...)
	})
}

func (p *progressReadCloser) fields() []zap.Field {
	fields := []zap.Field{
		zap.Int64("bytes", p.current),
		zap.String("read", humanize.IBytes(uint64(p.current))),
	}
	if p.total > 0 {
		fields = append(fields,
			zap.String("total", humanize.IBytes(uint64(p.total))),
			zap.Float64("percent", float64(p.current)*100/float64(p.total)),
		)
	}
	return fields
}
