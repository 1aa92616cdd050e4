package logger

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type playerName string

func (p playerName) String() string { return "player:" + string(p) }

func TestZapLogger_Levels(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	logger := NewFromZap(zap.New(core))

	logger.Debug("revert armed", Field{Key: "player", Value: 1})
	logger.Info("player invisible", Field{Key: "player", Value: 1})
	logger.Warn("chat dropped", Field{Key: "player", Value: 1})
	logger.Error("reload failed", Field{Key: "player", Value: 1})

	logs := recorded.All()
	if len(logs) != 4 {
		t.Fatalf("Expected 4 logs, got %d", len(logs))
	}

	expectedLevels := []zapcore.Level{
		zapcore.DebugLevel,
		zapcore.InfoLevel,
		zapcore.WarnLevel,
		zapcore.ErrorLevel,
	}
	for i, log := range logs {
		if log.Level != expectedLevels[i] {
			t.Errorf("Log %d: expected level %v, got %v", i, expectedLevels[i], log.Level)
		}
	}
}

func TestZapLogger_StructuredFields(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	logger := NewFromZap(zap.New(core))

	logger.Info("trigger accepted",
		F("weapon", "weapon_molotov"),
		F("player", 7),
		F("alpha", uint8(0)),
		F("cooldown", 15*time.Second),
		F("invisible", true),
		F("name", playerName("alice")),
		F("err", errors.New("boom")),
	)

	logs := recorded.All()
	if len(logs) != 1 {
		t.Fatalf("Expected 1 log, got %d", len(logs))
	}

	contextMap := logs[0].ContextMap()
	if contextMap["weapon"] != "weapon_molotov" {
		t.Errorf("Expected weapon='weapon_molotov', got '%v'", contextMap["weapon"])
	}
	if contextMap["player"] != int64(7) {
		t.Errorf("Expected player=7, got %v", contextMap["player"])
	}
	if contextMap["cooldown"] != 15*time.Second {
		t.Errorf("Expected cooldown=15s, got %v", contextMap["cooldown"])
	}
	if contextMap["invisible"] != true {
		t.Errorf("Expected invisible=true, got %v", contextMap["invisible"])
	}
	if contextMap["name"] != "player:alice" {
		t.Errorf("Expected name='player:alice', got %v", contextMap["name"])
	}
	if contextMap["err"] != "boom" {
		t.Errorf("Expected err='boom', got %v", contextMap["err"])
	}
}

func TestComponent_TagsLogger(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	logger := Component(NewFromZap(zap.New(core)), "scheduler")

	logger.Info("armed")

	logs := recorded.All()
	if len(logs) != 1 {
		t.Fatalf("Expected 1 log, got %d", len(logs))
	}
	if got := logs[0].ContextMap()["component"]; got != "scheduler" {
		t.Errorf("Expected component='scheduler', got '%v'", got)
	}
}

func TestComponent_NilLogger(t *testing.T) {
	logger := Component(nil, "render")
	logger.Info("should not panic")
}

func TestLoggerConfig_Defaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("Expected default level 'info', got '%s'", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("Expected default format 'json', got '%s'", cfg.Format)
	}
	if !cfg.EnableSampling {
		t.Error("Expected sampling enabled by default")
	}
}

func TestConfigFromEnv_ProductionPreset(t *testing.T) {
	cfg, err := ConfigFromEnv(map[string]string{
		"VANISH_ENV":       "production",
		"VANISH_LOG_LEVEL": "warn",
	})
	if err != nil {
		t.Fatalf("ConfigFromEnv returned error: %v", err)
	}
	if cfg.Development {
		t.Error("Expected production preset")
	}
	if cfg.Level != "warn" {
		t.Errorf("Expected level override 'warn', got '%s'", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("Expected production format 'json', got '%s'", cfg.Format)
	}
}

func TestConfigFromEnv_DevelopmentPreset(t *testing.T) {
	cfg, err := ConfigFromEnv(map[string]string{
		"VANISH_LOG_FORMAT": "json",
	})
	if err != nil {
		t.Fatalf("ConfigFromEnv returned error: %v", err)
	}
	if !cfg.Development {
		t.Error("Expected development preset when VANISH_ENV is unset")
	}
	if cfg.Format != "json" {
		t.Errorf("Expected format override 'json', got '%s'", cfg.Format)
	}
}

func TestConfigFromEnv_BadValue(t *testing.T) {
	_, err := ConfigFromEnv(map[string]string{
		"VANISH_LOG_SAMPLE_INITIAL": "many",
	})
	if err == nil {
		t.Fatal("Expected error for non-numeric sample count")
	}
}

func TestNewZapLogger_Sampling(t *testing.T) {
	logger, err := NewZapLogger(LoggerConfig{
		Level:            "debug",
		Format:           "json",
		EnableSampling:   true,
		SampleInitial:    10,
		SampleThereafter: 100,
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	for i := 0; i < 100; i++ {
		logger.Debug("tick", Field{Key: "iteration", Value: i})
	}
}
