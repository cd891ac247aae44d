package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vibex/vibectx/internal/config"
)

func TestDefault(t *testing.T) {
	def := config.Default()

	if len(def.Candidates) != 2 || def.Candidates[0] != "VIBEX.md" || def.Candidates[1] != "AGENTS.md" {
		t.Errorf("Candidates = %v", def.Candidates)
	}
	if def.MaxUpLevels != 10 {
		t.Errorf("MaxUpLevels = %d", def.MaxUpLevels)
	}
	if time.Duration(def.StandardTTL) != 5*time.Minute {
		t.Errorf("StandardTTL = %v", time.Duration(def.StandardTTL))
	}
	if time.Duration(def.FullTTL) != 2*time.Minute {
		t.Errorf("FullTTL = %v", time.Duration(def.FullTTL))
	}
	if !def.Watch || !def.Snapshots {
		t.Errorf("Watch/Snapshots = %v/%v, want both on", def.Watch, def.Snapshots)
	}
	if def.Discovery.MaxFiles <= 0 || def.FullDiscovery.MaxFiles <= def.Discovery.MaxFiles {
		t.Errorf("discovery bounds = %d/%d, want expanded full tier",
			def.Discovery.MaxFiles, def.FullDiscovery.MaxFiles)
	}
	if def.LogLevel != "info" {
		t.Errorf("LogLevel = %q", def.LogLevel)
	}
}

func TestNew_FillsZeroFields(t *testing.T) {
	opts, err := config.New(config.Options{GlobalDir: "", Watch: false})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(opts.Candidates) == 0 {
		t.Error("Candidates not defaulted")
	}
	if opts.MaxUpLevels != 10 {
		t.Errorf("MaxUpLevels = %d", opts.MaxUpLevels)
	}
	if opts.GlobalDir != "" {
		t.Errorf("GlobalDir = %q, want empty kept as explicit disable", opts.GlobalDir)
	}
	if opts.Watch {
		t.Error("Watch = true, want bool taken at face value")
	}
	if opts.StandardLimits.MaxEntries != 50 {
		t.Errorf("StandardLimits.MaxEntries = %d", opts.StandardLimits.MaxEntries)
	}
	if time.Duration(opts.WatchDebounce) != 500*time.Millisecond {
		t.Errorf("WatchDebounce = %v", time.Duration(opts.WatchDebounce))
	}
}

func TestNew_NormalizesCandidates(t *testing.T) {
	opts, err := config.New(config.Options{Candidates: []string{"  CONTEXT.md ", "", "NOTES.md"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(opts.Candidates) != 2 || opts.Candidates[0] != "CONTEXT.md" || opts.Candidates[1] != "NOTES.md" {
		t.Errorf("Candidates = %v", opts.Candidates)
	}
}

func TestNew_NegativeLimitsMeanUnbounded(t *testing.T) {
	opts, err := config.New(config.Options{
		StandardLimits: config.Limits{MaxEntries: -1, MaxBytes: -1},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if opts.StandardLimits.MaxEntries != -1 || opts.StandardLimits.MaxBytes != -1 {
		t.Errorf("StandardLimits = %+v, want negatives passed through", opts.StandardLimits)
	}
}

func TestNew_Rejections(t *testing.T) {
	tests := []struct {
		name string
		opts config.Options
		want string
	}{
		{
			name: "negative up levels",
			opts: config.Options{MaxUpLevels: -1},
			want: "max_up_levels",
		},
		{
			name: "bad log level",
			opts: config.Options{LogLevel: "verbose"},
			want: "log_level",
		},
		{
			name: "bad include glob",
			opts: config.Options{Discovery: config.Discovery{IncludePatterns: []string{"[bad"}}},
			want: "invalid include pattern",
		},
		{
			name: "bad exclude glob",
			opts: config.Options{FullDiscovery: config.Discovery{ExcludePatterns: []string{"{unclosed"}}},
			want: "invalid exclude pattern",
		},
		{
			name: "negative debounce",
			opts: config.Options{WatchDebounce: config.Duration(-time.Second)},
			want: "watch_debounce",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.New(tt.opts)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	opts, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.MaxUpLevels != 10 || !opts.Watch {
		t.Errorf("opts = %+v, want defaults", opts)
	}
}

func TestLoad_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
candidates: [CONTEXT.md]
max_up_levels: 3
standard_ttl: 90s
watch: false
discovery:
  include: ["**/*.md", "**/*.txt"]
  max_files: 7
log_level: DEBUG
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	opts, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(opts.Candidates) != 1 || opts.Candidates[0] != "CONTEXT.md" {
		t.Errorf("Candidates = %v", opts.Candidates)
	}
	if opts.MaxUpLevels != 3 {
		t.Errorf("MaxUpLevels = %d", opts.MaxUpLevels)
	}
	if time.Duration(opts.StandardTTL) != 90*time.Second {
		t.Errorf("StandardTTL = %v", time.Duration(opts.StandardTTL))
	}
	if opts.Watch {
		t.Error("Watch = true, want file override")
	}
	if len(opts.Discovery.IncludePatterns) != 2 || opts.Discovery.MaxFiles != 7 {
		t.Errorf("Discovery = %+v", opts.Discovery)
	}
	if opts.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want lowercased", opts.LogLevel)
	}

	// Untouched fields keep their defaults.
	if time.Duration(opts.FullTTL) != 2*time.Minute {
		t.Errorf("FullTTL = %v", time.Duration(opts.FullTTL))
	}
	if !opts.Snapshots {
		t.Error("Snapshots = false, want default")
	}
}

func TestLoad_EnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alt.yaml")
	if err := os.WriteFile(path, []byte("max_up_levels: 4\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(config.EnvConfigPath, path)

	opts, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.MaxUpLevels != 4 {
		t.Errorf("MaxUpLevels = %d, want value from $%s file", opts.MaxUpLevels, config.EnvConfigPath)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("candidates: [unclosed\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_BadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("standard_ttl: soonish\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := config.Load(path)
	if err == nil {
		t.Fatal("expected duration error")
	}
	if !strings.Contains(err.Error(), "duration") {
		t.Errorf("error = %v", err)
	}
}
