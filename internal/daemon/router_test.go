package daemon

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/dcolombo/ordina/internal/telegram"
	"github.com/dcolombo/ordina/pkg/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAgent struct {
	output  string
	err     error
	prompts []string
	keys    []string
}

func (a *stubAgent) Run(ctx context.Context, sess *session.Session, prompt string) (string, error) {
	a.prompts = append(a.prompts, prompt)
	a.keys = append(a.keys, sess.Key())
	return a.output, a.err
}

type stubSender struct {
	messages  map[int64][]string
	typing    []int64
	sendErr   error
	typingErr error
}

func newStubSender() *stubSender {
	return &stubSender{messages: make(map[int64][]string)}
}

func (s *stubSender) SendMessage(chatID int64, text string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.messages[chatID] = append(s.messages[chatID], text)
	return nil
}

func (s *stubSender) SendTyping(chatID int64) error {
	s.typing = append(s.typing, chatID)
	return s.typingErr
}

func newTestRegistry(t *testing.T) *session.Registry {
	t.Helper()

	store, err := session.NewStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return session.NewRegistry(store)
}

func newTestRouter(t *testing.T, agent *stubAgent, sender *stubSender) (*Router, *session.Registry) {
	t.Helper()

	registry := newTestRegistry(t)
	return NewRouter(registry, agent, sender, zerolog.Nop()), registry
}

func TestHandleStart(t *testing.T) {
	sender := newStubSender()
	router, _ := newTestRouter(t, &stubAgent{}, sender)

	err := router.HandleStart(telegram.CommandContext{ChatID: 42})
	require.NoError(t, err)

	require.Len(t, sender.messages[42], 1)
	assert.Contains(t, sender.messages[42][0], "Ciao! 👋 Sono il tuo assistente ordini.")
	assert.Contains(t, sender.messages[42][0], "l'articolo ABC123")
}

func TestHandleHelp(t *testing.T) {
	sender := newStubSender()
	router, _ := newTestRouter(t, &stubAgent{}, sender)

	err := router.HandleHelp(telegram.CommandContext{ChatID: 42})
	require.NoError(t, err)

	require.Len(t, sender.messages[42], 1)
	assert.Contains(t, sender.messages[42][0], "Posso aiutarti a:")
	assert.Contains(t, sender.messages[42][0], "il cliente 90017863 per 10 pezzi di MP002")
}

func TestHandleResetClearsSession(t *testing.T) {
	sender := newStubSender()
	router, registry := newTestRouter(t, &stubAgent{}, sender)

	ctx := context.Background()
	sess := registry.GetOrCreate(42)
	require.NoError(t, sess.Append(ctx, session.Message{Role: "user", Content: "ciao"}))

	err := router.HandleReset(telegram.CommandContext{ChatID: 42})
	require.NoError(t, err)

	assert.False(t, registry.Has(42))
	history, err := registry.GetOrCreate(42).History(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)

	require.Len(t, sender.messages[42], 1)
	assert.Equal(t, "✅ Ho azzerato la memoria della conversazione per questa chat.", sender.messages[42][0])
}

func TestHandleResetWithoutSession(t *testing.T) {
	// Confirmation is sent even when the chat never had a session
	sender := newStubSender()
	router, registry := newTestRouter(t, &stubAgent{}, sender)

	err := router.HandleReset(telegram.CommandContext{ChatID: 99})
	require.NoError(t, err)

	assert.False(t, registry.Has(99))
	require.Len(t, sender.messages[99], 1)
	assert.Equal(t, resetText, sender.messages[99][0])
}

func TestHandleTextRepliesWithAgentOutput(t *testing.T) {
	agent := &stubAgent{output: "Ordine 5678 spedito ieri"}
	sender := newStubSender()
	router, _ := newTestRouter(t, agent, sender)

	err := router.HandleText(telegram.MessageContext{
		ChatID: 42,
		Text:   "  Mostrami lo stato dell'ordine 5678  ",
	})
	require.NoError(t, err)

	// Prompt is trimmed before it reaches the agent
	require.Len(t, agent.prompts, 1)
	assert.Equal(t, "Mostrami lo stato dell'ordine 5678", agent.prompts[0])
	assert.Equal(t, []string{"42"}, agent.keys)

	assert.Equal(t, []int64{42}, sender.typing)
	require.Len(t, sender.messages[42], 1)
	assert.Equal(t, "Ordine 5678 spedito ieri", sender.messages[42][0])
}

func TestHandleTextIgnoresBlankMessages(t *testing.T) {
	agent := &stubAgent{}
	sender := newStubSender()
	router, _ := newTestRouter(t, agent, sender)

	err := router.HandleText(telegram.MessageContext{ChatID: 42, Text: "   "})
	require.NoError(t, err)

	assert.Empty(t, agent.prompts)
	assert.Empty(t, sender.messages)
}

func TestHandleTextAgentErrorSendsApology(t *testing.T) {
	agent := &stubAgent{err: fmt.Errorf("provider call failed")}
	sender := newStubSender()
	router, _ := newTestRouter(t, agent, sender)

	err := router.HandleText(telegram.MessageContext{ChatID: 42, Text: "listino?"})
	require.NoError(t, err)

	require.Len(t, sender.messages[42], 1)
	assert.Equal(t, "❌ Mi spiace, ho avuto un errore interno mentre processavo la tua richiesta.", sender.messages[42][0])
}

func TestHandleTextEmptyOutputSendsFallback(t *testing.T) {
	agent := &stubAgent{output: ""}
	sender := newStubSender()
	router, _ := newTestRouter(t, agent, sender)

	err := router.HandleText(telegram.MessageContext{ChatID: 42, Text: "ciao"})
	require.NoError(t, err)

	require.Len(t, sender.messages[42], 1)
	assert.Equal(t, "Non ho ottenuto alcuna risposta dall'agent.", sender.messages[42][0])
}

func TestHandleTextTypingFailureDoesNotBlockReply(t *testing.T) {
	agent := &stubAgent{output: "ok"}
	sender := newStubSender()
	sender.typingErr = fmt.Errorf("chat action rejected")
	router, _ := newTestRouter(t, agent, sender)

	err := router.HandleText(telegram.MessageContext{ChatID: 42, Text: "ciao"})
	require.NoError(t, err)

	require.Len(t, sender.messages[42], 1)
	assert.Equal(t, "ok", sender.messages[42][0])
}

func TestConversationScenario(t *testing.T) {
	agent := &stubAgent{output: "L'articolo ABC123 costa 9.99 EUR"}
	sender := newStubSender()
	router, registry := newTestRouter(t, agent, sender)

	// /start on a fresh chat
	require.NoError(t, router.HandleStart(telegram.CommandContext{ChatID: 42}))
	assert.Contains(t, sender.messages[42][0], "assistente ordini")

	// price question reaches the agent with chat 42's session
	require.NoError(t, router.HandleText(telegram.MessageContext{
		ChatID: 42,
		Text:   "Che prezzi abbiamo per l'articolo ABC123?",
	}))
	assert.Equal(t, []string{"42"}, agent.keys)
	assert.Equal(t, "L'articolo ABC123 costa 9.99 EUR", sender.messages[42][1])

	// /reset confirms and drops the session
	require.NoError(t, router.HandleReset(telegram.CommandContext{ChatID: 42}))
	assert.Equal(t, resetText, sender.messages[42][2])
	assert.False(t, registry.Has(42))

	// same question again gets a freshly created session with no history
	require.NoError(t, router.HandleText(telegram.MessageContext{
		ChatID: 42,
		Text:   "Che prezzi abbiamo per l'articolo ABC123?",
	}))
	history, err := registry.GetOrCreate(42).History(context.Background())
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestHandleTextSessionPerChat(t *testing.T) {
	agent := &stubAgent{output: "ok"}
	sender := newStubSender()
	router, registry := newTestRouter(t, agent, sender)

	require.NoError(t, router.HandleText(telegram.MessageContext{ChatID: 1, Text: "a"}))
	require.NoError(t, router.HandleText(telegram.MessageContext{ChatID: 2, Text: "b"}))
	require.NoError(t, router.HandleText(telegram.MessageContext{ChatID: 1, Text: "c"}))

	assert.Equal(t, []string{"1", "2", "1"}, agent.keys)
	assert.Equal(t, 2, registry.Len())
}
