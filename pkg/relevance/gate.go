package relevance

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"subsidy-intake-be/internal/constant"
	"subsidy-intake-be/internal/metrics"
	"subsidy-intake-be/internal/pkg/logger"
	"subsidy-intake-be/pkg/llm"
)

// ErrClassifierUnavailable marks a classifier call that failed outright
var ErrClassifierUnavailable = errors.New("relevance classifier unavailable")

const (
	MinScore = 1
	MaxScore = 5

	// Threshold is fixed policy: scores at or above it are relevant
	Threshold = 3
)

// Assessment is the gate's verdict for one message
type Assessment struct {
	Score      int
	IsRelevant bool
}

// Gate decides whether a message warrants retrieval at all
type Gate struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func NewGate(llmProvider llm.LLMProvider, log logger.ILogger) *Gate {
	return &Gate{
		llmProvider: llmProvider,
		logger:      log,
	}
}

// Assess scores text 1-5. A failing classifier fails open so a possibly valid
// message is still processed; an unusable answer counts as unrelated.
func (g *Gate) Assess(ctx context.Context, text string) Assessment {
	prompt := fmt.Sprintf(constant.RelevanceRubricPrompt, text)

	reply, err := g.llmProvider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: constant.RelevanceSystemPrompt},
		{Role: llm.RoleUser, Content: prompt},
	}, llm.WithTemperature(0.3), llm.WithMaxTokens(10))
	if err != nil {
		g.logger.Warn("RelevanceGate", "Classifier failed, treating message as relevant", map[string]interface{}{
			"error": fmt.Errorf("%w: %v", ErrClassifierUnavailable, err).Error(),
		})
		metrics.RecordRelevance("fail_open")
		return Assessment{Score: Threshold, IsRelevant: true}
	}

	score := ParseScore(reply)
	assessment := Assessment{Score: score, IsRelevant: score >= Threshold}

	verdict := "irrelevant"
	if assessment.IsRelevant {
		verdict = "relevant"
	}
	metrics.RecordRelevance(verdict)

	g.logger.Debug("RelevanceGate", "Message assessed", map[string]interface{}{
		"score":     score,
		"raw_reply": reply,
	})
	return assessment
}

// ParseScore reads the leading integer of a classifier reply ("4." -> 4).
// Anything unparseable or outside 1..5 becomes MinScore.
func ParseScore(reply string) int {
	s := strings.TrimSpace(reply)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return MinScore
	}

	score, err := strconv.Atoi(s[:end])
	if err != nil || score < MinScore || score > MaxScore {
		return MinScore
	}
	return score
}
