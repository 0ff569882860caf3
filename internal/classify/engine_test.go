package classify

import (
	"context"
	"errors"
	"testing"

	"textveil/internal/config"
	"textveil/internal/model"
)

// mockAI is a test classifier that counts calls.
type mockAI struct {
	callCount int
	block     bool
	err       error
}

// Classify implements AIClassifier.
func (m *mockAI) Classify(_ context.Context, _ string) (bool, error) {
	m.callCount++
	return m.block, m.err
}

// settingsWith returns enabled-keyword settings with the given keyword list
// and an API key so the AI layer is usable unless disabled.
func settingsWith(keywords string) *config.Settings {
	s := config.NewSettings()
	s.Keywords = keywords
	s.APIKey = "sk-test"
	return s
}

// TestEngineKeywordShortCircuit verifies a keyword hit blocks and skips the
// AI layer entirely.
func TestEngineKeywordShortCircuit(t *testing.T) {
	t.Parallel()

	ai := &mockAI{block: false}
	e := NewEngine(settingsWith("spoiler,leak"), WithAIClassifier(ai))

	v := e.Classify(context.Background(), "Huge spoiler: he dies")

	if !v.ShouldBlock {
		t.Error("expected block verdict")
	}
	if v.MatchedBy != model.MatchKeyword {
		t.Errorf("MatchedBy = %s, want keyword", v.MatchedBy)
	}
	if v.MatchedKeyword != "spoiler" {
		t.Errorf("MatchedKeyword = %q, want spoiler", v.MatchedKeyword)
	}
	if ai.callCount != 0 {
		t.Errorf("AI called %d times, want 0 (cost-saving contract)", ai.callCount)
	}
}

// TestEngineEmptyKeywordsNeverBlock verifies the empty-list contract holds
// regardless of the enabled flag.
func TestEngineEmptyKeywordsNeverBlock(t *testing.T) {
	t.Parallel()

	s := settingsWith("")
	s.KeywordFilterEnabled = true
	s.AIFilterEnabled = false

	e := NewEngine(s)
	v := e.Classify(context.Background(), "text mentioning spoiler and everything else")

	if v.ShouldBlock {
		t.Error("empty keyword list must never block")
	}
	if v.MatchedBy != model.MatchNone {
		t.Errorf("MatchedBy = %s, want none", v.MatchedBy)
	}
}

// TestEngineScriptLayer verifies the script layer ordering and verdict.
func TestEngineScriptLayer(t *testing.T) {
	t.Parallel()

	t.Run("simplified text blocks before AI", func(t *testing.T) {
		t.Parallel()

		s := settingsWith("")
		s.ScriptFilterEnabled = true
		ai := &mockAI{block: false}

		e := NewEngine(s, WithAIClassifier(ai))
		v := e.Classify(context.Background(), "简体中文转换测试")

		if !v.ShouldBlock || v.MatchedBy != model.MatchScript {
			t.Errorf("verdict = %+v, want script block", v)
		}
		if ai.callCount != 0 {
			t.Errorf("AI called %d times, want 0", ai.callCount)
		}
	})

	t.Run("keyword layer runs before script layer", func(t *testing.T) {
		t.Parallel()

		s := settingsWith("测试")
		s.ScriptFilterEnabled = true

		e := NewEngine(s)
		v := e.Classify(context.Background(), "简体中文转换测试")

		if v.MatchedBy != model.MatchKeyword {
			t.Errorf("MatchedBy = %s, want keyword (layer order)", v.MatchedBy)
		}
	})

	t.Run("disabled script layer is skipped", func(t *testing.T) {
		t.Parallel()

		s := settingsWith("")
		s.ScriptFilterEnabled = false
		s.AIFilterEnabled = false

		e := NewEngine(s)
		if v := e.Classify(context.Background(), "简体中文转换测试"); v.ShouldBlock {
			t.Errorf("verdict = %+v, want allow", v)
		}
	})
}

// TestEngineAILayer verifies delegation to the remote classifier.
func TestEngineAILayer(t *testing.T) {
	t.Parallel()

	t.Run("AI block verdict", func(t *testing.T) {
		t.Parallel()

		ai := &mockAI{block: true}
		e := NewEngine(settingsWith(""), WithAIClassifier(ai))

		v := e.Classify(context.Background(), "subtle finale discussion")
		if !v.ShouldBlock || v.MatchedBy != model.MatchAI {
			t.Errorf("verdict = %+v, want AI block", v)
		}
		if ai.callCount != 1 {
			t.Errorf("AI called %d times, want 1", ai.callCount)
		}
	})

	t.Run("AI allow verdict", func(t *testing.T) {
		t.Parallel()

		ai := &mockAI{block: false}
		e := NewEngine(settingsWith(""), WithAIClassifier(ai))

		v := e.Classify(context.Background(), "harmless text entirely")
		if v.ShouldBlock {
			t.Error("expected allow")
		}
		if v.MatchedBy != model.MatchAI {
			t.Errorf("MatchedBy = %s, want ai", v.MatchedBy)
		}
	})

	t.Run("disabled AI layer allows with none", func(t *testing.T) {
		t.Parallel()

		s := settingsWith("")
		s.AIFilterEnabled = false

		e := NewEngine(s)
		v := e.Classify(context.Background(), "anything")
		if v.ShouldBlock || v.MatchedBy != model.MatchNone || v.Err != "" {
			t.Errorf("verdict = %+v, want clean allow", v)
		}
	})

	t.Run("missing API key is a configuration gap, not an error", func(t *testing.T) {
		t.Parallel()

		s := settingsWith("")
		s.APIKey = ""

		e := NewEngine(s)
		v := e.Classify(context.Background(), "anything")
		if v.ShouldBlock || v.MatchedBy != model.MatchNone || v.Err != "" {
			t.Errorf("verdict = %+v, want clean allow", v)
		}
	})
}

// TestEngineFailOpen verifies the central safety property: errors never block.
func TestEngineFailOpen(t *testing.T) {
	t.Parallel()

	t.Run("classifier error degrades to allow with detail", func(t *testing.T) {
		t.Parallel()

		ai := &mockAI{err: errors.New("classifier returned status 500")}
		e := NewEngine(settingsWith(""), WithAIClassifier(ai))

		v := e.Classify(context.Background(), "some text")
		if v.ShouldBlock {
			t.Error("error path must never block")
		}
		if v.MatchedBy != model.MatchNone {
			t.Errorf("MatchedBy = %s, want none", v.MatchedBy)
		}
		if v.Err == "" {
			t.Error("expected non-empty error detail")
		}
	})

	t.Run("panicking layer degrades to allow with detail", func(t *testing.T) {
		t.Parallel()

		e := NewEngine(settingsWith(""), WithAIClassifier(panickyAI{}))

		v := e.Classify(context.Background(), "some text")
		if v.ShouldBlock {
			t.Error("fault path must never block")
		}
		if v.Err == "" {
			t.Error("expected non-empty error detail")
		}
	})
}

// panickyAI simulates an internal fault inside a layer.
type panickyAI struct{}

// Classify implements AIClassifier.
func (panickyAI) Classify(_ context.Context, _ string) (bool, error) {
	panic("internal fault")
}

// TestEngineEndToEnd covers the documented end-to-end verdicts.
func TestEngineEndToEnd(t *testing.T) {
	t.Parallel()

	t.Run("keyword settings block spoiler text", func(t *testing.T) {
		t.Parallel()

		s := config.NewSettings()
		s.Keywords = "spoiler"
		s.AIFilterEnabled = false

		v := NewEngine(s).Classify(context.Background(), "Huge spoiler: he dies")
		want := model.Verdict{ShouldBlock: true, MatchedBy: model.MatchKeyword, MatchedKeyword: "spoiler"}
		if v != want {
			t.Errorf("verdict = %+v, want %+v", v, want)
		}
	})

	t.Run("script settings block simplified text", func(t *testing.T) {
		t.Parallel()

		s := config.NewSettings()
		s.Keywords = ""
		s.ScriptFilterEnabled = true
		s.AIFilterEnabled = false

		v := NewEngine(s).Classify(context.Background(), "这是一个简体测试")
		if !v.ShouldBlock || v.MatchedBy != model.MatchScript {
			t.Errorf("verdict = %+v, want script block", v)
		}
	})

	t.Run("all layers disabled always allow", func(t *testing.T) {
		t.Parallel()

		s := config.NewSettings()
		s.KeywordFilterEnabled = false
		s.ScriptFilterEnabled = false
		s.AIFilterEnabled = false

		for _, text := range []string{"spoiler everywhere", "简体中文转换测试", ""} {
			v := NewEngine(s).Classify(context.Background(), text)
			if v.ShouldBlock || v.MatchedBy != model.MatchNone {
				t.Errorf("Classify(%q) = %+v, want allow/none", text, v)
			}
		}
	})
}
