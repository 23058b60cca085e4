package manager

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestActionIDUniqueness - идентификаторы последовательных отправок
// попарно различны.
func TestActionIDUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := newActionID()
		_, dup := seen[id]
		require.False(t, dup, "повтор идентификатора %q", id)
		seen[id] = struct{}{}
	}
}

// TestSerializeAction - команда сериализуется в строки "ключ: значение"
// с синтезированным actionid и разделителем блока в конце.
func TestSerializeAction(t *testing.T) {
	raw := serializeAction(Action{
		"action":   "login",
		"username": "admin",
		"secret":   "pw",
		"events":   "on",
	}, "id-1")

	s := string(raw)
	assert.True(t, strings.HasSuffix(s, blockEnd))
	assert.Contains(t, s, "action: login\r\n")
	assert.Contains(t, s, "username: admin\r\n")
	assert.Contains(t, s, "secret: pw\r\n")
	assert.Contains(t, s, "events: on\r\n")
	assert.Contains(t, s, "actionid: id-1\r\n")

	// сериализованный блок разбирается обратно тем же фреймером
	frames := newFrameReader().Feed(raw)
	require.Len(t, frames, 1)
	assert.Equal(t, "id-1", frames[0].Get("ActionID"))
	assert.Equal(t, "login", frames[0].Get("action"))
}

// TestActionName - имя команды извлекается независимо от регистра ключа.
func TestActionName(t *testing.T) {
	assert.Equal(t, "ping", actionName(Action{"action": "ping"}))
	assert.Equal(t, "Ping", actionName(Action{"Action": "Ping"}))
	assert.Empty(t, actionName(Action{"username": "x"}))
}

// TestSendNotConnected - отправка без транспорта возвращает ошибку.
func TestSendNotConnected(t *testing.T) {
	m, err := New(Config{})
	require.NoError(t, err)
	assert.ErrorIs(t, m.Send(Action{"action": "ping"}, nil), ErrNotConnected)
}

// TestResolveUnknownResponse - ответ без ожидающей команды является
// no-op, а не ошибкой: удалённая сторона может прислать ответ повторно.
func TestResolveUnknownResponse(t *testing.T) {
	m, err := New(Config{})
	require.NoError(t, err)

	frames := newFrameReader().Feed([]byte("Response: Success\r\nActionID: ghost\r\n\r\n"))
	require.Len(t, frames, 1)
	require.NotPanics(t, func() { m.processFrame(frames[0]) })
	assert.False(t, m.LoggedIn())
}
