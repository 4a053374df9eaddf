package pgbindpool

import (
	"time"

	"github.com/jackc/puddle"
)

// Stat is a snapshot of Pool statistics.
type Stat struct {
	s                    *puddle.Stat
	newConnsCount        int64
	connectRetryCount    int64
	lifetimeDestroyCount int64
}

func (s *Stat) AcquireCount() int64 {
	return s.s.AcquireCount()
}

func (s *Stat) AcquireDuration() time.Duration {
	return s.s.AcquireDuration()
}

func (s *Stat) AcquiredConns() int32 {
	return s.s.AcquiredResources()
}

func (s *Stat) CanceledAcquireCount() int64 {
	return s.s.CanceledAcquireCount()
}

func (s *Stat) ConstructingConns() int32 {
	return s.s.ConstructingResources()
}

func (s *Stat) EmptyAcquireCount() int64 {
	return s.s.EmptyAcquireCount()
}

func (s *Stat) IdleConns() int32 {
	return s.s.IdleResources()
}

func (s *Stat) MaxConns() int32 {
	return s.s.MaxResources()
}

func (s *Stat) TotalConns() int32 {
	return s.s.TotalResources()
}

// NewConnsCount returns the cumulative count of new connections opened.
func (s *Stat) NewConnsCount() int64 {
	return s.newConnsCount
}

// ConnectRetryCount returns the cumulative count of failed connect attempts that were retried.
func (s *Stat) ConnectRetryCount() int64 {
	return s.connectRetryCount
}

// MaxLifetimeDestroyCount returns the cumulative count of connections destroyed because they exceeded
// MaxConnLifetime.
func (s *Stat) MaxLifetimeDestroyCount() int64 {
	return s.lifetimeDestroyCount
}
