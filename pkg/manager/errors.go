package manager

import "errors"

// Ошибки сессии AMI. Ошибки локальные для разбора кадров и
// диспетчеризации не существуют по контракту: неразбираемая строка,
// неизвестное событие или ответ без ожидающей команды молча
// игнорируются, чтобы один кривой блок не ронял общую сессию.
var (
	// ErrNotConnected - операция требует установленного транспорта
	ErrNotConnected = errors.New("manager: not connected")

	// ErrConnectTimeout - соединение не установилось за отведённое время
	ErrConnectTimeout = errors.New("manager: connect timeout")
)
