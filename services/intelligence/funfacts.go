package ai

import (
	"context"
	"math/rand"
	"strings"

	"barberbot/models"
	"barberbot/utils"

	"go.uber.org/zap"
)

// FunFacts supplies the fun fact appended to a booking confirmation.
// userText is the user's latest message and hints at the language to use.
type FunFacts interface {
	FunFact(ctx context.Context, userText string) string
}

var staticFacts = []string{
	"Hair grows about 1.25 cm a month, a little faster in summer.",
	"A beard left untouched for a lifetime would reach roughly 9 metres.",
	"Човешкият косъм е по-здрав от медна жица със същата дебелина.",
	"Et menneske har rundt 100 000 hårstrå på hodet.",
	"Barbers once doubled as surgeons; the red and white pole remembers it.",
	"Брадата расте по-бързо от косата на главата.",
}

// StaticFunFacts picks from a fixed list.
type StaticFunFacts struct {
	facts []string
}

func NewStaticFunFacts(facts ...string) *StaticFunFacts {
	if len(facts) == 0 {
		facts = staticFacts
	}
	return &StaticFunFacts{facts: facts}
}

func (s *StaticFunFacts) FunFact(context.Context, string) string {
	return s.facts[rand.Intn(len(s.facts))]
}

const funFactPrompt = "Tell one short, surprising fun fact about hair or beards. " +
	"One or two sentences, no introduction. Answer in the language of the user's message."

// ModelFunFacts asks the language model and falls back to a static fact.
type ModelFunFacts struct {
	model    ChatModel
	fallback FunFacts
}

func NewModelFunFacts(model ChatModel, fallback FunFacts) *ModelFunFacts {
	if fallback == nil {
		fallback = NewStaticFunFacts()
	}
	return &ModelFunFacts{model: model, fallback: fallback}
}

func (m *ModelFunFacts) FunFact(ctx context.Context, userText string) string {
	if m.model == nil {
		return m.fallback.FunFact(ctx, userText)
	}
	if strings.TrimSpace(userText) == "" {
		userText = "Fun fact, please."
	}
	fact, err := m.model.Chat(ctx, funFactPrompt, []models.Turn{{Role: models.RoleUser, Content: userText}})
	if err != nil || strings.TrimSpace(fact) == "" {
		utils.GetLogger().Warn("Fun fact from model failed, using built-in list", zap.Error(err))
		return m.fallback.FunFact(ctx, userText)
	}
	return strings.TrimSpace(fact)
}
