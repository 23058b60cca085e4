package manager

// Callbacks - поверхность уведомлений сессии. Все поля необязательны,
// nil-колбэки пропускаются.
//
// Колбэки вызываются из единственной горутины обработки кадров, строго
// по порядку поступления событий и никогда параллельно друг другу.
// Блокировка внутри колбэка останавливает обработку ленты событий,
// поэтому тяжёлую работу следует выносить в собственные горутины.
type Callbacks struct {
	// OnConnect - транспорт установлен
	OnConnect func()
	// OnDisconnect - транспорт закрыт; hadError указывает, что закрытию
	// предшествовала ошибка транспорта
	OnDisconnect func(hadError bool)
	// OnError - ошибка транспорта; соединение будет принудительно закрыто
	OnError func(err error)
	// OnTimeout - истёк таймаут установки соединения
	OnTimeout func()

	// OnIncomingCall - новая нога классифицирована как внешний входящий вызов
	OnIncomingCall func(p *Participant)
	// OnCallerID - данные Caller ID ноги обновлены
	OnCallerID func(p *Participant)
	// OnDialing - исходная нога набирает целевую
	OnDialing func(src, dst *Participant)
	// OnCallConnected - ноги соединены, голос доступен
	OnCallConnected func(p *Participant)
	// OnHold / OnUnhold - нога поставлена на удержание / снята с него
	OnHold   func(p *Participant)
	OnUnhold func(p *Participant)
	// OnCallDisconnected - связь между ногами разорвана; p2 может быть nil,
	// если вторая нога сессии не известна
	OnCallDisconnected func(p1, p2 *Participant)
	// OnHangup - нога завершена с указанной причиной
	OnHangup func(p *Participant, cause int, causeText string)
	// OnCallReport - вызов завершён, его ноги удалены из трекера
	OnCallReport func(r *CallReport)
}

func (m *Manager) emitConnect() {
	m.logger.Debug().Msg("соединение с AMI установлено")
	if m.callbacks.OnConnect != nil {
		m.callbacks.OnConnect()
	}
}

func (m *Manager) emitDisconnect(hadError bool) {
	m.logger.Debug().Bool("had_error", hadError).Msg("соединение с AMI закрыто")
	if m.callbacks.OnDisconnect != nil {
		m.callbacks.OnDisconnect(hadError)
	}
}

func (m *Manager) emitError(err error) {
	m.logger.Error().Err(err).Msg("ошибка транспорта AMI")
	if m.callbacks.OnError != nil {
		m.callbacks.OnError(err)
	}
}

func (m *Manager) emitTimeout() {
	m.logger.Warn().Msg("таймаут подключения к AMI")
	if m.callbacks.OnTimeout != nil {
		m.callbacks.OnTimeout()
	}
}

func (m *Manager) emitIncomingCall(p *Participant) {
	if m.callbacks.OnIncomingCall != nil {
		m.callbacks.OnIncomingCall(p)
	}
}

func (m *Manager) emitCallerID(p *Participant) {
	if m.callbacks.OnCallerID != nil {
		m.callbacks.OnCallerID(p)
	}
}

func (m *Manager) emitDialing(src, dst *Participant) {
	if m.callbacks.OnDialing != nil {
		m.callbacks.OnDialing(src, dst)
	}
}

func (m *Manager) emitCallConnected(p *Participant) {
	if m.callbacks.OnCallConnected != nil {
		m.callbacks.OnCallConnected(p)
	}
}

func (m *Manager) emitHold(p *Participant) {
	if m.callbacks.OnHold != nil {
		m.callbacks.OnHold(p)
	}
}

func (m *Manager) emitUnhold(p *Participant) {
	if m.callbacks.OnUnhold != nil {
		m.callbacks.OnUnhold(p)
	}
}

func (m *Manager) emitCallDisconnected(p1, p2 *Participant) {
	if m.callbacks.OnCallDisconnected != nil {
		m.callbacks.OnCallDisconnected(p1, p2)
	}
}

func (m *Manager) emitHangup(p *Participant, cause int, causeText string) {
	if m.callbacks.OnHangup != nil {
		m.callbacks.OnHangup(p, cause, causeText)
	}
}

func (m *Manager) emitCallReport(r *CallReport) {
	if m.callbacks.OnCallReport != nil {
		m.callbacks.OnCallReport(r)
	}
}
