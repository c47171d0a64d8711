package config

// Config holds all service configuration values.
// Defaults are set in DefaultConfig() and can be overridden via a JSON config file.
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Server     ServerConfig     `json:"server"`
	Containers ContainersConfig `json:"containers"`
	Exec       ExecConfig       `json:"exec"`
	Search     SearchConfig     `json:"search"`
	Workspace  WorkspaceConfig  `json:"workspace"`
	Health     HealthConfig     `json:"health"`
}

type ServerConfig struct {
	ListenAddr string `json:"listen_addr"` // Default: ":8001"
}

type ContainersConfig struct {
	// Names is the fixed set of containers addressable through virtual paths
	// and RunCommand. The first segment of every virtual path must be one of these.
	Names []string `json:"names"` // Default: ["backend", "frontend"]

	// Workdirs maps a container name to the working directory commands run in.
	// Containers absent from the map fall back to "/".
	Workdirs map[string]string `json:"workdirs"`

	// ReloadTargets are restarted by the reload endpoint, in order.
	ReloadTargets []string `json:"reload_targets"` // Default: ["frontend", "backend", "db"]

	// ValidateCommands maps a container name to the command its validation
	// check runs. Containers absent from the map are skipped.
	ValidateCommands map[string]string `json:"validate_commands"`

	// RestartTimeoutSeconds is passed to the container runtime on restart.
	RestartTimeoutSeconds int `json:"restart_timeout_seconds"` // Default: 10
}

type ExecConfig struct {
	// MaxOutputChars caps each captured stream (stdout and stderr independently).
	// Output beyond the cap is cut and marked, never silently dropped.
	MaxOutputChars int `json:"max_output_chars"` // Default: 10000

	// DenyCommands are command words rejected by the safety filter,
	// matched case-insensitively with word boundaries.
	DenyCommands []string `json:"deny_commands"`

	// DenyFragments are literal substrings rejected by the safety filter,
	// matched case-insensitively without word boundaries (paths, traversals).
	DenyFragments []string `json:"deny_fragments"`

	// Container logs
	MaxLogChars     int `json:"max_log_chars"`     // Default: 1000
	DefaultLogLines int `json:"default_log_lines"` // Default: 20
	MaxLogLines     int `json:"max_log_lines"`     // Default: 50
}

type SearchConfig struct {
	// ExcludedDirs are pruned during find; ".*" means any dot-directory.
	ExcludedDirs []string `json:"excluded_dirs"`

	// ExcludedFiles are dropped by exact basename before grep sees them.
	ExcludedFiles []string `json:"excluded_files"`

	// IncludeExtensions is the allow-list of source file extensions.
	IncludeExtensions []string `json:"include_extensions"`

	DefaultContextLines int `json:"default_context_lines"` // Default: 5
	MaxResults          int `json:"max_results"`           // Default: 100
}

type WorkspaceConfig struct {
	// Root is the host mount of the workspace tree (env file, zip export).
	Root string `json:"root"` // Default: "/workspace"

	// EnvFile holds the environment variables surfaced by the env endpoints.
	EnvFile string `json:"env_file"` // Default: "/workspace/.env"

	// ExportExcludedDirs are excluded from zip export in addition to
	// Search.ExcludedDirs (the sidecar's own infrastructure).
	ExportExcludedDirs []string `json:"export_excluded_dirs"`

	// ExportExcludedFiles are excluded from zip export in addition to
	// Search.ExcludedFiles.
	ExportExcludedFiles []string `json:"export_excluded_files"`

	// ExportDropServices are removed from compose.yaml in the exported archive.
	ExportDropServices []string `json:"export_drop_services"`
}

type HealthConfig struct {
	BackendContainer    string `json:"backend_container"`     // Default: "backend"
	FrontendContainer   string `json:"frontend_container"`    // Default: "frontend"
	BackendURL          string `json:"backend_url"`           // Default: "http://backend:8000/"
	FrontendURL         string `json:"frontend_url"`          // Default: "http://frontend:3000"
	ProbeTimeoutSeconds int    `json:"probe_timeout_seconds"` // Default: 5
	SelfContainer       string `json:"self_container"`        // Default: "workspaced"
	DBContainer         string `json:"db_container"`          // Default: "db"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":8001",
		},
		Containers: ContainersConfig{
			Names: []string{"backend", "frontend"},
			Workdirs: map[string]string{
				"backend":  "/backend",
				"frontend": "/frontend",
				"db":       "/",
			},
			ReloadTargets: []string{"frontend", "backend", "db"},
			ValidateCommands: map[string]string{
				"backend":  "python manage.py check --fail-level ERROR",
				"frontend": "npx tsc --noEmit",
			},
			RestartTimeoutSeconds: 10,
		},
		Exec: ExecConfig{
			MaxOutputChars: 10000,
			DenyCommands: []string{
				"env", "printenv",
				"docker", "kubectl",
				"curl", "wget", "ssh", "scp", "nc", "socat", "nsenter",
			},
			DenyFragments: []string{
				"/etc/passwd", "/etc/shadow",
				"/proc/", "/sys/",
				"docker.sock",
				"../../",
			},
			MaxLogChars:     1000,
			DefaultLogLines: 20,
			MaxLogLines:     50,
		},
		Search: SearchConfig{
			ExcludedDirs: []string{
				".*",
				"build", "dist",
				"env", ".env", "venv", ".venv",
				".git", ".next", "node_modules",
				"__pycache__", "__pypackages__",
				".mypy", ".mypy_cache", "mypy_cache",
				".pytest_cache", ".ruff_cache",
			},
			ExcludedFiles: []string{
				".DS_Store", "thumbs.db",
				"package-lock.json", "yarn.lock",
			},
			IncludeExtensions: []string{
				".css", ".html", ".json", ".js", ".jsx",
				".md", ".py", ".ts", ".tsx", ".yaml", ".yml",
			},
			DefaultContextLines: 5,
			MaxResults:          100,
		},
		Workspace: WorkspaceConfig{
			Root:                "/workspace",
			EnvFile:             "/workspace/.env",
			ExportExcludedDirs:  []string{"workspaced", "nginx"},
			ExportExcludedFiles: []string{"boot_script.sh"},
			ExportDropServices:  []string{"workspaced", "proxy"},
		},
		Health: HealthConfig{
			BackendContainer:    "backend",
			FrontendContainer:   "frontend",
			BackendURL:          "http://backend:8000/",
			FrontendURL:         "http://frontend:3000",
			ProbeTimeoutSeconds: 5,
			SelfContainer:       "workspaced",
			DBContainer:         "db",
		},
	}
}
