package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"github.com/rs/zerolog"
)

// dialFunc открывает транспорт до коммутатора. Подменяется в тестах.
type dialFunc func(network, address string, timeout time.Duration) (net.Conn, error)

func defaultDial(network, address string, timeout time.Duration) (net.Conn, error) {
	d := net.Dialer{Timeout: timeout}
	return d.Dial(network, address)
}

// Manager - фасад сессии Asterisk Manager Interface.
//
// Manager владеет транспортом и всем состоянием сессии: буфером чтения,
// картой ожидающих команд и картой ног вызовов. Всё это мутирует только
// последовательный путь обработки входящих данных (одна горутина чтения),
// мьютекс защищает лишь доступ из API-горутин. Наружу состояние отдаётся
// только через read-only аксессоры.
//
// Жизненный цикл: Disconnected -> Connecting -> Connected ->
// Authenticated -> Disconnected. Повторный Connect на живой сессии -
// no-op, Login до установки транспорта молча игнорируется.
type Manager struct {
	config    Config
	callbacks Callbacks
	logger    zerolog.Logger
	dial      dialFunc
	inboundRe *regexp.Regexp

	mu            sync.Mutex
	fsm           *fsm.FSM
	conn          net.Conn
	reader        *frameReader
	pending       map[string]*pendingAction
	loginActionID string
	participants  map[string]*Participant
}

// Option настраивает Manager при создании.
type Option func(*Manager)

// WithCallbacks задаёт поверхность уведомлений сессии.
func WithCallbacks(cb Callbacks) Option {
	return func(m *Manager) { m.callbacks = cb }
}

// WithLogger задаёт логгер вместо логгера по умолчанию.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// withDial подменяет установку транспорта; используется тестами.
func withDial(d dialFunc) Option {
	return func(m *Manager) { m.dial = d }
}

// New создаёт менеджер сессии AMI. Не заданные поля конфигурации
// заменяются значениями по умолчанию. Возвращает ошибку, если список
// входящих контекстов не компилируется в регулярное выражение.
func New(cfg Config, opts ...Option) (*Manager, error) {
	cfg = cfg.withDefaults()

	inboundRe, err := cfg.inboundPattern()
	if err != nil {
		return nil, fmt.Errorf("inbound contexts: %w", err)
	}

	logger := zerolog.Nop()
	if cfg.Debug {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.DebugLevel)
	}

	m := &Manager{
		config:       cfg,
		logger:       logger,
		dial:         defaultDial,
		inboundRe:    inboundRe,
		fsm:          newSessionFSM(),
		reader:       newFrameReader(),
		pending:      make(map[string]*pendingAction),
		participants: make(map[string]*Participant),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// State возвращает текущее состояние сессии.
func (m *Manager) State() string { return m.fsm.Current() }

// LoggedIn сообщает, прошла ли сессия аутентификацию. Флаг поднимается
// не более одного раза за соединение и сбрасывается при закрытии.
func (m *Manager) LoggedIn() bool { return m.fsm.Is(StateAuthenticated) }

// Connect устанавливает транспорт до коммутатора и запускает горутину
// чтения. Если сессия уже подключена или подключается - no-op.
//
// При ненулевом ConnectTimeout превышение времени установки соединения
// порождает уведомление OnTimeout и ошибку ErrConnectTimeout; прочие
// ошибки транспорта уходят в OnError.
func (m *Manager) Connect() error {
	m.mu.Lock()
	if !m.fsm.Is(StateDisconnected) {
		m.mu.Unlock()
		return nil
	}
	_ = m.fsm.Event(context.Background(), fsmEventDial)
	dial := m.dial
	addr := m.config.addr()
	timeout := m.config.ConnectTimeout
	m.mu.Unlock()

	conn, err := dial("tcp", addr, timeout)

	m.mu.Lock()
	if err != nil {
		_ = m.fsm.Event(context.Background(), fsmEventClose)
		m.mu.Unlock()
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			m.emitTimeout()
			return fmt.Errorf("%w: %s", ErrConnectTimeout, addr)
		}
		m.emitError(err)
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	m.conn = conn
	m.reader = newFrameReader()
	actionsPending.Sub(float64(len(m.pending)))
	m.pending = make(map[string]*pendingAction)
	m.loginActionID = ""
	participantsActive.Sub(float64(len(m.participants)))
	m.participants = make(map[string]*Participant)
	_ = m.fsm.Event(context.Background(), fsmEventEstablished)
	m.mu.Unlock()

	m.emitConnect()
	go m.readLoop(conn)
	return nil
}

// Login отправляет команду аутентификации с учётными данными из
// конфигурации. Вызов осмыслен только на подключённой и ещё не
// аутентифицированной сессии; иначе он молча игнорируется.
// cb получит сырой кадр ответа и при неуспехе - флаг аутентификации
// в этом случае просто не поднимается, автоматических повторов нет.
func (m *Manager) Login(cb ResponseFunc) {
	if !m.fsm.Is(StateConnected) {
		return
	}
	_ = m.Send(Action{
		"action":   "login",
		"username": m.config.User,
		"secret":   m.config.Password,
		"events":   m.config.Events,
	}, cb)
}

// Logoff отправляет команду завершения сессии. Ответ не ожидается.
func (m *Manager) Logoff() {
	_ = m.Send(Action{"action": "logoff"}, nil)
}

// Ping проверяет живость сессии; cb получит кадр ответа.
func (m *Manager) Ping(cb ResponseFunc) error {
	return m.Send(Action{"action": "ping"}, cb)
}

// Disconnect аккуратно закрывает открытый транспорт; на закрытой сессии
// не делает ничего. Команды, ожидающие ответа на момент закрытия,
// отбрасываются без вызова их колбэков.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// readLoop - единственный последовательный путь обработки входящих
// данных: чтение транспорта, нарезка на кадры, корреляция ответов и
// мутация трекера ног происходят только здесь, строго по порядку и
// без перекрытия.
func (m *Manager) readLoop(conn net.Conn) {
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			m.processChunk(buf[:n])
		}
		if err != nil {
			hadError := !errors.Is(err, io.EOF) &&
				!errors.Is(err, net.ErrClosed) &&
				!errors.Is(err, io.ErrClosedPipe)
			m.teardown(hadError, err)
			return
		}
	}
}

func (m *Manager) processChunk(chunk []byte) {
	m.mu.Lock()
	frames := m.reader.Feed(chunk)
	m.mu.Unlock()

	for _, f := range frames {
		m.processFrame(f)
	}
}

// processFrame диспетчеризует один кадр. Кадр без распознанного вида
// молча отбрасывается - это терпимость к протоколу, а не маскировка
// ошибки: удалённая сторона вправе присылать блоки, которых эта
// версия клиента не понимает.
func (m *Manager) processFrame(f *Frame) {
	framesTotal.Inc()
	switch f.Kind() {
	case frameResponse:
		m.resolveResponse(f)
	case frameEvent:
		m.dispatchEvent(f)
	default:
		framesDropped.Inc()
	}
}

// teardown переводит сессию в disconnected после ошибки или закрытия
// транспорта. Ошибка транспорта сначала уходит в OnError, затем всегда
// следует OnDisconnect.
func (m *Manager) teardown(hadError bool, cause error) {
	m.mu.Lock()
	conn := m.conn
	if conn == nil {
		m.mu.Unlock()
		return
	}
	m.conn = nil
	actionsPending.Sub(float64(len(m.pending)))
	m.pending = make(map[string]*pendingAction)
	m.loginActionID = ""
	_ = m.fsm.Event(context.Background(), fsmEventClose)
	m.mu.Unlock()

	_ = conn.Close()
	if hadError {
		m.emitError(cause)
	}
	m.emitDisconnect(hadError)
}
