package manager

import "time"

// Participant представляет одну ногу вызова, как её видит Asterisk.
// Обычный разговор состоит из двух связанных ног.
//
// Нога создаётся событием Newchannel, поля дозаполняются событиями
// Newcallerid, Dial и Bridge, а удаляется нога только при получении её
// CDR. Если удалённая сторона так и не пришлёт CDR, запись останется в
// трекере до конца сессии - это ограничение протокола, а не утечка,
// которую нужно чинить.
type Participant struct {
	// ID - уникальный идентификатор ноги, назначенный Asterisk (Uniqueid)
	ID string
	// CallerName - имя из Caller ID
	CallerName string
	// CallerNumber - номер из Caller ID
	CallerNumber string
	// Extension - добавочный номер, на который пришёл вызов
	Extension string
	// LinkedPeerID - идентификатор парной ноги, заполняется событием Dial
	LinkedPeerID string
	// BridgedExtension - номер дальней стороны, заполняется событием Bridge
	BridgedExtension string
}

// CallReport - итог завершённого вызова, построенный из его CDR.
type CallReport struct {
	Caller *Participant
	Callee *Participant

	StartTime  time.Time
	AnswerTime time.Time
	EndTime    time.Time

	// TotalDuration - полная длительность вызова
	TotalDuration time.Duration
	// TalkDuration - оплачиваемая длительность разговора
	TalkDuration time.Duration

	// FinalStatus - диспозиция вызова в нижнем регистре,
	// например "answered" или "no answer"
	FinalStatus string
}

// Participant возвращает копию отслеживаемой ноги по её идентификатору.
// Карта ног принадлежит сессии и наружу не отдаётся.
func (m *Manager) Participant(id string) (Participant, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[id]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

// ActiveParticipants возвращает число отслеживаемых в данный момент ног.
func (m *Manager) ActiveParticipants() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.participants)
}
