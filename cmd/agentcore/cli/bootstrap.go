package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/agentcore/core/internal/core/actuators"
	"github.com/agentcore/core/internal/core/agentloop"
	"github.com/agentcore/core/internal/core/ai"
	"github.com/agentcore/core/internal/core/config"
	"github.com/agentcore/core/internal/core/db"
	"github.com/agentcore/core/internal/core/events"
	"github.com/agentcore/core/internal/core/logging"
	"github.com/agentcore/core/internal/core/memory"
	"github.com/agentcore/core/internal/core/metrics"
	"github.com/agentcore/core/internal/core/session"
	"github.com/agentcore/core/internal/core/skills"
	"github.com/agentcore/core/internal/core/swarm"
)

// app bundles the long-lived subsystems one CLI invocation needs, plus a
// close function releasing the database connection.
type app struct {
	Loop    *agentloop.Loop
	Bus     *events.Bus
	Metrics *metrics.Registry
	close   func()
}

// buildApp wires every subsystem per the Single-Agent Loop's Config,
// grounded on the teacher's cmd/nebo agent-state bootstrap (load config,
// open db, construct actuators, build the provider, then the orchestrator)
// but flattened to this core's single Loop rather than a connected-agent
// daemon.
func buildApp(cfg config.Config) (*app, error) {
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	dbStore, err := db.Open(cfg.Database.SQLitePath, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sessions := session.New(dbStore)
	memories, err := memory.New(dbStore)
	if err != nil {
		_ = dbStore.Close()
		return nil, fmt.Errorf("open memory store: %w", err)
	}
	skillCache, err := skills.NewCache(dbStore)
	if err != nil {
		_ = dbStore.Close()
		return nil, fmt.Errorf("open skill cache: %w", err)
	}

	shell, err := actuators.NewShell()
	if err != nil {
		_ = dbStore.Close()
		return nil, fmt.Errorf("start shell: %w", err)
	}

	workDir := filepath.Join(filepath.Dir(cfg.Database.SQLitePath), "interpreter")
	interpreter, err := actuators.NewInterpreter(workDir)
	if err != nil {
		logger.Warn("python interpreter unavailable, python tool will error at call time", "error", err)
	}

	tts := actuators.NewTTS(cfg.Voice.ElevenLabsAPIKey, cfg.Voice.DefaultVoice)

	if cfg.Anthropic.APIKey == "" {
		logger.Warn("no Anthropic API key configured; set Anthropic.APIKey or ANTHROPIC_API_KEY")
	}
	provider := ai.NewAnthropicProvider(cfg.Anthropic.APIKey, cfg.Anthropic.Model)

	reg := metrics.New()
	governor := ai.NewGovernor(cfg.RateGovernor.InputTokensPerMinute, cfg.RateGovernor.OutputTokensPerMinute).WithMetrics(reg)

	bus := events.NewBus(events.WithSyncDelivery())

	profileDir := filepath.Join(filepath.Dir(cfg.Database.SQLitePath), "browser-profile")

	loop := agentloop.New(agentloop.Config{
		Provider:    provider,
		Governor:    governor,
		Model:       cfg.Anthropic.Model,
		Sessions:    sessions,
		Memories:    memories,
		SkillCache:  skillCache,
		Bus:         bus,
		Shell:       shell,
		Interpreter: interpreter,
		TTS:         tts,
		Metrics:     reg,
		SwarmConfig: swarm.Config{
			MaxParallel:         cfg.Swarm.MaxParallel,
			VerificationEnabled: true,
			CriticEnabled:       true,
			AutoRetry:           true,
			MaxRetries:          cfg.Swarm.MaxRetries,
			SubtaskTimeout:      time.Duration(cfg.Swarm.SubTaskTimeoutSec) * time.Second,
			ParallelExecution:   true,
			// No Confirm hook: this CLI has no UI shell to ask (out of
			// scope per spec.md §1), so a destructive subtask pauses the
			// swarm task (types.TaskPaused) rather than running unchecked.
			ConfirmDestructive: true,
		},
		BrowserProfileDir: profileDir,
		BrowserStealthOn:  cfg.IsStealthModeOn(),
		SwarmPollCeiling:  time.Duration(cfg.Swarm.PollingCeilingSec) * time.Second,
		Logger:            logger,
	})

	return &app{
		Loop:    loop,
		Bus:     bus,
		Metrics: reg,
		close: func() {
			_ = dbStore.Close()
		},
	}, nil
}

func (a *app) Close() {
	if a == nil {
		return
	}
	a.close()
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
