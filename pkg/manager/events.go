package manager

import (
	"strconv"
	"strings"
	"time"
)

// EventKind - закрытое перечисление известных видов событий AMI.
// Диспетчер сопоставляет значение заголовка Event с этим перечислением,
// поэтому добавление нового вида требует явной ветки в dispatchEvent.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventNewChannel
	EventNewCallerID
	EventDial
	EventBridge
	EventHold
	EventUnhold
	EventUnlink
	EventHangup
	EventCdr
	EventNewState
	EventRegistry
	EventNewExten
)

// eventKindByName - имена событий в том виде, в котором их шлёт Asterisk.
// Сравнение чувствительно к регистру.
var eventKindByName = map[string]EventKind{
	"Newchannel":  EventNewChannel,
	"Newcallerid": EventNewCallerID,
	"Dial":        EventDial,
	"Bridge":      EventBridge,
	"Hold":        EventHold,
	"Unhold":      EventUnhold,
	"Unlink":      EventUnlink,
	"Hangup":      EventHangup,
	"Cdr":         EventCdr,
	"Newstate":    EventNewState,
	"Registry":    EventRegistry,
	"Newexten":    EventNewExten,
}

var eventKindNames = map[EventKind]string{
	EventUnknown:     "unknown",
	EventNewChannel:  "newchannel",
	EventNewCallerID: "newcallerid",
	EventDial:        "dial",
	EventBridge:      "bridge",
	EventHold:        "hold",
	EventUnhold:      "unhold",
	EventUnlink:      "unlink",
	EventHangup:      "hangup",
	EventCdr:         "cdr",
	EventNewState:    "newstate",
	EventRegistry:    "registry",
	EventNewExten:    "newexten",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

func eventKindFromName(name string) EventKind {
	if kind, ok := eventKindByName[name]; ok {
		return kind
	}
	return EventUnknown
}

// cdrTimeLayout - формат временных меток в CDR событиях Asterisk.
const cdrTimeLayout = "2006-01-02 15:04:05"

// dispatchEvent направляет событие обработчику его вида. Событие,
// ссылающееся на неизвестную ногу вызова, молча игнорируется: лента
// событий удалённой стороны не даёт транзакционных гарантий, и сессия,
// установленная посреди разговора, не видела Newchannel его ног.
func (m *Manager) dispatchEvent(f *Frame) {
	kind := eventKindFromName(f.Get("event"))
	eventsTotal.WithLabelValues(kind.String()).Inc()
	m.logger.Debug().
		Str("event", f.Get("event")).
		Str("uniqueid", f.Get("uniqueid")).
		Msg("событие AMI")

	switch kind {
	case EventNewChannel:
		m.handleNewChannel(f)
	case EventNewCallerID:
		m.handleNewCallerID(f)
	case EventDial:
		m.handleDial(f)
	case EventBridge:
		m.handleBridge(f)
	case EventHold:
		m.handleHold(f)
	case EventUnhold:
		m.handleUnhold(f)
	case EventUnlink:
		m.handleUnlink(f)
	case EventHangup:
		m.handleHangup(f)
	case EventCdr:
		m.handleCdr(f)
	case EventNewState, EventRegistry, EventNewExten:
		// намеренно игнорируются
	case EventUnknown:
		// неизвестные события не являются ошибкой протокола
	}
}

// handleNewChannel создаёт новую ногу вызова. Если контекст канала попадает
// в настроенный шаблон входящих контекстов, привилегия ограничена вызовом и
// состояние канала означает звонок (T1) либо только что поднятый канал (SIP),
// нога помечается как входящая и подписчик получает incoming call.
func (m *Manager) handleNewChannel(f *Frame) {
	id := f.Get("uniqueid")

	m.mu.Lock()
	if _, ok := m.participants[id]; ok {
		m.mu.Unlock()
		return
	}
	p := &Participant{
		ID:           id,
		CallerName:   f.Get("calleridname"),
		CallerNumber: f.Get("calleridnum"),
		Extension:    f.Get("exten"),
	}
	m.participants[id] = p
	participantsActive.Inc()
	inbound := m.isInboundLocked(f)
	m.mu.Unlock()

	if inbound {
		m.emitIncomingCall(p)
	}
}

// isInboundLocked классифицирует Newchannel как внешний входящий вызов.
// Вызывается под m.mu.
func (m *Manager) isInboundLocked(f *Frame) bool {
	if m.inboundRe == nil {
		return false
	}
	if !m.inboundRe.MatchString(f.Get("context")) {
		return false
	}
	if f.Get("privilege") != "call,all" {
		return false
	}
	state, desc := f.Get("channelstate"), f.Get("channelstatedesc")
	return (state == "4" && desc == "Ring") || (state == "0" && desc == "Down")
}

// handleNewCallerID дополняет ногу данными Caller ID: номер заполняется,
// только если он ещё не известен, имя перезаписывается реальным значением.
func (m *Manager) handleNewCallerID(f *Frame) {
	m.mu.Lock()
	p, ok := m.participants[f.Get("uniqueid")]
	if !ok {
		m.mu.Unlock()
		return
	}
	if p.CallerNumber == "" {
		p.CallerNumber = f.Get("callerid")
	}
	if name := f.Get("calleridname"); name != "" {
		p.CallerName = name
	}
	m.mu.Unlock()

	m.emitCallerID(p)
}

// handleDial связывает исходную и целевую ноги друг с другом.
// Если какая-то из ног не отслеживается, событие игнорируется.
func (m *Manager) handleDial(f *Frame) {
	m.mu.Lock()
	src, okSrc := m.participants[f.Get("srcuniqueid")]
	dst, okDst := m.participants[f.Get("destuniqueid")]
	if !okSrc || !okDst {
		m.mu.Unlock()
		return
	}
	src.LinkedPeerID = dst.ID
	dst.LinkedPeerID = src.ID
	m.mu.Unlock()

	m.emitDialing(src, dst)
}

// handleBridge отмечает, что ноги соединены и голос пошёл. Номер дальней
// стороны извлекается из имени второго канала: текст между первым "/" и
// первым "-", например "SIP/1001-00000001" даёт "1001".
func (m *Manager) handleBridge(f *Frame) {
	m.mu.Lock()
	p, ok := m.participants[f.Get("uniqueid1")]
	if !ok {
		m.mu.Unlock()
		return
	}
	p.BridgedExtension = bridgedExtension(f.Get("channel2"))
	m.mu.Unlock()

	m.emitCallConnected(p)
}

// bridgedExtension выделяет номер дальней стороны из имени канала.
func bridgedExtension(channel string) string {
	head, _, _ := strings.Cut(channel, "-")
	_, ext, ok := strings.Cut(head, "/")
	if !ok {
		return ""
	}
	return ext
}

func (m *Manager) handleHold(f *Frame) {
	if p, ok := m.lookup(f.Get("uniqueid")); ok {
		m.emitHold(p)
	}
}

func (m *Manager) handleUnhold(f *Frame) {
	if p, ok := m.lookup(f.Get("uniqueid")); ok {
		m.emitUnhold(p)
	}
}

// handleUnlink сообщает о разрыве связи между ногами. Состояние трекера
// не меняется: терминальным переходом ноги является только CDR.
func (m *Manager) handleUnlink(f *Frame) {
	m.mu.Lock()
	p1, ok := m.participants[f.Get("uniqueid1")]
	p2 := m.participants[f.Get("uniqueid2")]
	m.mu.Unlock()
	if !ok {
		return
	}
	m.emitCallDisconnected(p1, p2)
}

// handleHangup сообщает причину завершения ноги. Если Asterisk не прислал
// текст причины, он восстанавливается из таблицы кодов Q.931.
func (m *Manager) handleHangup(f *Frame) {
	p, ok := m.lookup(f.Get("uniqueid"))
	if !ok {
		return
	}
	code, _ := strconv.Atoi(f.Get("cause"))
	text := f.Get("cause-txt")
	if text == "" {
		text = CauseText(code)
	}
	m.emitHangup(p, code, text)
}

// handleCdr обрабатывает итоговую запись о вызове - единственный
// терминальный переход ноги. Обе ноги вызова удаляются из трекера.
func (m *Manager) handleCdr(f *Frame) {
	m.mu.Lock()
	caller, ok := m.participants[f.Get("uniqueid")]
	if !ok {
		m.mu.Unlock()
		return
	}
	var callee *Participant
	if caller.LinkedPeerID != "" {
		callee = m.participants[caller.LinkedPeerID]
	}
	delete(m.participants, caller.ID)
	participantsActive.Dec()
	if callee != nil {
		delete(m.participants, callee.ID)
		participantsActive.Dec()
	}
	m.mu.Unlock()

	report := &CallReport{
		Caller:        caller,
		Callee:        callee,
		StartTime:     parseCdrTime(f.Get("starttime")),
		AnswerTime:    parseCdrTime(f.Get("answertime")),
		EndTime:       parseCdrTime(f.Get("endtime")),
		TotalDuration: secondsDuration(f.Get("duration")),
		TalkDuration:  secondsDuration(f.Get("billableseconds")),
		FinalStatus:   strings.ToLower(f.Get("disposition")),
	}
	m.emitCallReport(report)
}

// lookup возвращает ногу по идентификатору под блокировкой.
func (m *Manager) lookup(id string) (*Participant, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[id]
	return p, ok
}

func parseCdrTime(s string) time.Time {
	t, err := time.Parse(cdrTimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func secondsDuration(s string) time.Duration {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return time.Duration(n) * time.Second
}
