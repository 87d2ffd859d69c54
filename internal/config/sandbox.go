package config

type SandboxConfig struct {
	// MemoryBytes caps container memory; 128 MiB by default.
	MemoryBytes int64
	// CPUQuota caps CPU in fractions of one core; 0.5 by default.
	CPUQuota float64
	// PidsLimit bounds processes spawned by the submission.
	PidsLimit int64
	// WorkspaceDir is the in-container directory the source is written to.
	WorkspaceDir string
	// LanguagesFile optionally overrides the built-in language table (YAML).
	LanguagesFile string
}

func NewSandboxConfig() *SandboxConfig {
	return &SandboxConfig{
		MemoryBytes:   int64(getIntEnv("SANDBOX_MEMORY_MB", 128)) << 20,
		CPUQuota:      float64(getIntEnv("SANDBOX_CPU_PERCENT", 50)) / 100,
		PidsLimit:     int64(getIntEnv("SANDBOX_PIDS_LIMIT", 64)),
		WorkspaceDir:  getEnv("SANDBOX_WORKSPACE_DIR", "/workspace"),
		LanguagesFile: getEnv("SANDBOX_LANGUAGES_FILE", ""),
	}
}
