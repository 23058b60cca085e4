package manager

import "github.com/looplab/fsm"

// Состояния сессии AMI.
// disconnected - транспорт закрыт;
// connecting   - идёт установка TCP соединения;
// connected    - транспорт открыт, аутентификации ещё не было;
// authenticated - получен успешный ответ на login.
const (
	StateDisconnected  = "disconnected"
	StateConnecting    = "connecting"
	StateConnected     = "connected"
	StateAuthenticated = "authenticated"
)

// События машины состояний сессии.
const (
	fsmEventDial        = "dial"
	fsmEventEstablished = "established"
	fsmEventLoginOK     = "login_ok"
	fsmEventClose       = "close"
)

// newSessionFSM строит машину состояний жизненного цикла сессии.
// Закрытие допустимо из любого неначального состояния и всегда сбрасывает
// флаг аутентификации.
func newSessionFSM() *fsm.FSM {
	return fsm.NewFSM(
		StateDisconnected,
		fsm.Events{
			{Name: fsmEventDial, Src: []string{StateDisconnected}, Dst: StateConnecting},
			{Name: fsmEventEstablished, Src: []string{StateConnecting}, Dst: StateConnected},
			{Name: fsmEventLoginOK, Src: []string{StateConnected}, Dst: StateAuthenticated},
			{Name: fsmEventClose, Src: []string{StateConnecting, StateConnected, StateAuthenticated}, Dst: StateDisconnected},
		}, nil,
	)
}
