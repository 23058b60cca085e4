package manager

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Action - исходящая команда AMI: набор пар ключ/значение. Имя команды
// передаётся в ключе "action", например Action{"action": "ping"}.
type Action map[string]string

// ResponseFunc вызывается с кадром ответа, сопоставленным команде.
type ResponseFunc func(f *Frame)

// pendingAction - отправленная команда, ожидающая ответа.
type pendingAction struct {
	id     string
	action Action
	cb     ResponseFunc
}

// newActionID генерирует идентификатор команды. UUID v4 исключает
// коллизии даже при плотной череде отправок: исходная схема на грубой
// метке времени допускала совпадение идентификаторов двух быстрых
// подряд идущих команд.
func newActionID() string {
	return uuid.NewString()
}

// serializeAction собирает wire-представление команды: по строке
// "ключ: значение" на поле в произвольном порядке, синтезированный
// заголовок actionid и разделитель блока.
func serializeAction(a Action, id string) []byte {
	var b strings.Builder
	for k, v := range a {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString(crlf)
	}
	b.WriteString("actionid: ")
	b.WriteString(id)
	b.WriteString(crlf)
	b.WriteString(crlf)
	return []byte(b.String())
}

// actionName возвращает имя команды независимо от регистра ключа.
func actionName(a Action) string {
	if name, ok := a["action"]; ok {
		return name
	}
	return a["Action"]
}

// Send отправляет команду на коммутатор и регистрирует её в карте
// ожидающих. Вызов не блокируется в ожидании ответа: ответ придёт
// асинхронно по тому же последовательному пути обработки, и cb (если
// задан) будет вызван с его кадром.
//
// Если сессия завершится раньше ответа, ожидающая команда будет молча
// отброшена, cb не вызовется - повторной отправки не происходит.
func (m *Manager) Send(action Action, cb ResponseFunc) error {
	m.mu.Lock()
	conn := m.conn
	if conn == nil {
		m.mu.Unlock()
		return ErrNotConnected
	}
	id := newActionID()
	m.pending[id] = &pendingAction{id: id, action: action, cb: cb}
	if strings.EqualFold(actionName(action), "login") {
		m.loginActionID = id
	}
	actionsPending.Inc()
	m.mu.Unlock()

	if _, err := conn.Write(serializeAction(action, id)); err != nil {
		m.mu.Lock()
		delete(m.pending, id)
		actionsPending.Dec()
		m.mu.Unlock()
		return err
	}
	return nil
}

// resolveResponse сопоставляет кадр ответа ожидающей команде. Ответ без
// подходящей записи игнорируется: удалённая сторона может прислать ответ
// повторно, либо карта ожидающих была очищена при переподключении.
func (m *Manager) resolveResponse(f *Frame) {
	id := f.Get("actionid")

	m.mu.Lock()
	p, ok := m.pending[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.pending, id)
	actionsPending.Dec()
	loginOK := id == m.loginActionID && f.Get("response") == "Success"
	if loginOK {
		// login_ok валиден только из connected, так что флаг
		// аутентификации поднимается не более одного раза за соединение
		_ = m.fsm.Event(context.Background(), fsmEventLoginOK)
	}
	m.mu.Unlock()

	if loginOK {
		m.logger.Debug().Msg("аутентификация AMI успешна")
	}
	if p.cb != nil {
		p.cb(f)
	}
}
