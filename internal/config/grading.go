package config

import "time"

type GradingConfig struct {
	// Workers is the size of the grading pool; it also bounds the number of
	// simultaneous sandboxes.
	Workers int
	// MaxAttempts is the retry ceiling for infrastructure failures.
	MaxAttempts int
	// BackoffBase is the first retry delay; subsequent delays double.
	BackoffBase time.Duration
	// DequeueTimeout bounds each blocking pop so workers notice shutdown.
	DequeueTimeout time.Duration
	// LockTTL protects against a crashed worker holding a submission lock.
	LockTTL time.Duration
	// HeartbeatInterval is how often pool workers refresh their record.
	HeartbeatInterval time.Duration
}

func NewGradingConfig() *GradingConfig {
	return &GradingConfig{
		Workers:           getIntEnv("GRADING_WORKERS", 5),
		MaxAttempts:       getIntEnv("GRADING_MAX_ATTEMPTS", 3),
		BackoffBase:       getDurationEnv("GRADING_BACKOFF_BASE", 2*time.Second),
		DequeueTimeout:    getDurationEnv("GRADING_DEQUEUE_TIMEOUT", time.Second),
		LockTTL:           getDurationEnv("GRADING_LOCK_TTL", 10*time.Minute),
		HeartbeatInterval: getDurationEnv("GRADING_HEARTBEAT_INTERVAL", 15*time.Second),
	}
}
