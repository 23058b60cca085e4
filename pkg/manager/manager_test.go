package manager

import (
	"bufio"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testServer - ручной конец net.Pipe, изображающий коммутатор.
type testServer struct {
	conn net.Conn
	r    *bufio.Reader
}

// pipeManager создаёт менеджер, чей транспорт подключён к testServer.
func pipeManager(t *testing.T, cfg Config, cb Callbacks) (*Manager, *testServer) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})

	m, err := New(cfg, WithCallbacks(cb), withDial(
		func(network, address string, timeout time.Duration) (net.Conn, error) {
			return client, nil
		},
	))
	require.NoError(t, err)
	return m, &testServer{conn: server, r: bufio.NewReader(server)}
}

func (s *testServer) write(t *testing.T, raw string) {
	t.Helper()
	_ = s.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	_, err := s.conn.Write([]byte(raw))
	require.NoError(t, err)
}

// readAction читает один блок команды и возвращает его кадром.
func (s *testServer) readAction(t *testing.T) *Frame {
	t.Helper()
	_ = s.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var b strings.Builder
	for {
		line, err := s.r.ReadString('\n')
		require.NoError(t, err)
		b.WriteString(line)
		if strings.HasSuffix(b.String(), blockEnd) {
			break
		}
	}
	block := strings.TrimSuffix(b.String(), blockEnd)
	return parseFrame([]byte(block))
}

func waitSignal(t *testing.T, ch <-chan struct{}, msg string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal(msg)
	}
}

// TestConnectLifecycle - подключение, приветственный баннер,
// повторный Connect как no-op и аккуратное отключение.
func TestConnectLifecycle(t *testing.T) {
	connected := make(chan struct{}, 1)
	disconnected := make(chan struct{}, 1)
	var hadError bool

	m, srv := pipeManager(t, Config{}, Callbacks{
		OnConnect: func() { connected <- struct{}{} },
		OnDisconnect: func(he bool) {
			hadError = he
			disconnected <- struct{}{}
		},
	})

	require.NoError(t, m.Connect())
	waitSignal(t, connected, "нет уведомления о подключении")
	assert.Equal(t, StateConnected, m.State())

	// повторный Connect на живой сессии - no-op
	require.NoError(t, m.Connect())

	srv.write(t, "Asterisk Call Manager/1.1\r\n")

	m.Disconnect()
	waitSignal(t, disconnected, "нет уведомления об отключении")
	assert.False(t, hadError)
	assert.Equal(t, StateDisconnected, m.State())
	assert.False(t, m.LoggedIn())

	// Disconnect на закрытой сессии ничего не делает
	m.Disconnect()
}

// TestLoginHandshake - успешный ответ на login поднимает флаг
// аутентификации ровно один раз, до самого отключения.
func TestLoginHandshake(t *testing.T) {
	loginResp := make(chan struct{}, 2)
	m, srv := pipeManager(t, Config{User: "admin", Password: "pw"}, Callbacks{})

	require.NoError(t, m.Connect())
	srv.write(t, "Asterisk Call Manager/1.1\r\n")
	assert.False(t, m.LoggedIn())

	go m.Login(func(f *Frame) {
		assert.Equal(t, "Success", f.Get("response"))
		loginResp <- struct{}{}
	})

	req := srv.readAction(t)
	assert.Equal(t, "login", req.Get("action"))
	assert.Equal(t, "admin", req.Get("username"))
	assert.Equal(t, "pw", req.Get("secret"))
	assert.Equal(t, "on", req.Get("events"))
	id := req.Get("actionid")
	require.NotEmpty(t, id)

	srv.write(t, "Response: Success\r\nActionID: "+id+"\r\nMessage: Authentication accepted\r\n\r\n")
	waitSignal(t, loginResp, "нет ответа на login")
	assert.True(t, m.LoggedIn())
	assert.Equal(t, StateAuthenticated, m.State())

	// повторный ответ с тем же actionid - no-op
	srv.write(t, "Response: Success\r\nActionID: "+id+"\r\n\r\n")
	// повторный Login на аутентифицированной сессии молча игнорируется
	m.Login(func(*Frame) { loginResp <- struct{}{} })

	time.Sleep(50 * time.Millisecond)
	assert.Len(t, loginResp, 0)
	assert.True(t, m.LoggedIn())
}

// TestLoginFailure - неуспешный ответ не поднимает флаг, но колбэк
// получает сырой кадр с причиной отказа.
func TestLoginFailure(t *testing.T) {
	loginResp := make(chan string, 1)
	m, srv := pipeManager(t, Config{User: "admin", Password: "bad"}, Callbacks{})

	require.NoError(t, m.Connect())
	srv.write(t, "Asterisk Call Manager/1.1\r\n")

	go m.Login(func(f *Frame) { loginResp <- f.Get("message") })

	req := srv.readAction(t)
	srv.write(t, "Response: Error\r\nActionID: "+req.Get("actionid")+
		"\r\nMessage: Authentication failed\r\n\r\n")

	select {
	case msg := <-loginResp:
		assert.Equal(t, "Authentication failed", msg)
	case <-time.After(2 * time.Second):
		t.Fatal("нет ответа на login")
	}
	assert.False(t, m.LoggedIn())
}

// TestLoginIgnoredWhenDisconnected - Login без транспорта молча
// игнорируется.
func TestLoginIgnoredWhenDisconnected(t *testing.T) {
	m, err := New(Config{})
	require.NoError(t, err)

	called := false
	m.Login(func(*Frame) { called = true })
	assert.False(t, called)
}

// TestEventsOverTransport - события, пришедшие по транспорту, доходят
// до уведомлений в порядке поступления.
func TestEventsOverTransport(t *testing.T) {
	incoming := make(chan string, 1)
	m, srv := pipeManager(t, Config{}, Callbacks{
		OnIncomingCall: func(p *Participant) { incoming <- p.ID },
	})

	require.NoError(t, m.Connect())
	srv.write(t, "Asterisk Call Manager/1.1\r\n")
	srv.write(t, newChannelA)

	select {
	case id := <-incoming:
		assert.Equal(t, "A", id)
	case <-time.After(2 * time.Second):
		t.Fatal("нет уведомления о входящем вызове")
	}
}

// TestRemoteCloseEmitsDisconnect - закрытие со стороны коммутатора даёт
// OnDisconnect без ошибки.
func TestRemoteCloseEmitsDisconnect(t *testing.T) {
	disconnected := make(chan struct{}, 1)
	var hadError bool
	m, srv := pipeManager(t, Config{}, Callbacks{
		OnDisconnect: func(he bool) {
			hadError = he
			disconnected <- struct{}{}
		},
	})

	require.NoError(t, m.Connect())
	_ = srv.conn.Close()

	waitSignal(t, disconnected, "нет уведомления об отключении")
	assert.False(t, hadError)
}

// TestPendingDiscardedOnDisconnect - команды, ожидающие ответа на момент
// закрытия, отбрасываются без вызова колбэков.
func TestPendingDiscardedOnDisconnect(t *testing.T) {
	m, srv := pipeManager(t, Config{}, Callbacks{})
	require.NoError(t, m.Connect())
	srv.write(t, "Asterisk Call Manager/1.1\r\n")

	answered := false
	go func() {
		_ = m.Ping(func(*Frame) { answered = true })
	}()
	srv.readAction(t) // команда ушла, ответа не будет

	m.Disconnect()
	time.Sleep(50 * time.Millisecond)
	assert.False(t, answered)
}

// timeoutErr реализует net.Error с признаком таймаута.
type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

// TestConnectTimeout - превышение таймаута установки соединения даёт
// OnTimeout и ErrConnectTimeout.
func TestConnectTimeout(t *testing.T) {
	timedOut := make(chan struct{}, 1)
	m, err := New(Config{ConnectTimeout: 10 * time.Millisecond},
		WithCallbacks(Callbacks{
			OnTimeout: func() { timedOut <- struct{}{} },
		}),
		withDial(func(network, address string, timeout time.Duration) (net.Conn, error) {
			assert.Equal(t, 10*time.Millisecond, timeout)
			return nil, timeoutErr{}
		}),
	)
	require.NoError(t, err)

	err = m.Connect()
	assert.ErrorIs(t, err, ErrConnectTimeout)
	waitSignal(t, timedOut, "нет уведомления о таймауте")
	assert.Equal(t, StateDisconnected, m.State())
}

// TestConnectError - прочие ошибки транспорта уходят в OnError.
func TestConnectError(t *testing.T) {
	errored := make(chan struct{}, 1)
	dialErr := errors.New("connection refused")
	m, err := New(Config{},
		WithCallbacks(Callbacks{
			OnError: func(error) { errored <- struct{}{} },
		}),
		withDial(func(network, address string, timeout time.Duration) (net.Conn, error) {
			return nil, dialErr
		}),
	)
	require.NoError(t, err)

	err = m.Connect()
	assert.ErrorIs(t, err, dialErr)
	waitSignal(t, errored, "нет уведомления об ошибке")
	assert.Equal(t, StateDisconnected, m.State())

	// после неудачи сессия снова готова к подключению
	assert.ErrorIs(t, m.Connect(), dialErr)
}
