// Package manager реализует клиент Asterisk Manager Interface (AMI):
// строчного текстового протокола управления и наблюдения телефонного
// коммутатора.
//
// Пакет держит постоянное соединение, аутентифицируется, отправляет
// команды и потребляет асинхронную ленту событий жизненного цикла
// вызовов, сворачивая её в связную модель ног вызова и высокоуровневые
// уведомления приложению.
//
// Основные компоненты:
//   - frameReader нарезает байтовый поток на кадры-блоки заголовков
//   - корреляция команд сопоставляет ответы по actionid
//   - диспетчер событий и трекер ног строят состояние вызовов
//   - Manager связывает всё это и владеет транспортом
//
// Минимальный сценарий:
//
//	m, err := manager.New(manager.Config{
//		User:     "admin",
//		Password: "secret",
//		Host:     "pbx.local",
//	}, manager.WithCallbacks(manager.Callbacks{
//		OnIncomingCall: func(p *manager.Participant) {
//			log.Printf("входящий вызов от %s <%s>", p.CallerName, p.CallerNumber)
//		},
//		OnCallReport: func(r *manager.CallReport) {
//			log.Printf("вызов завершён: %s, разговор %s", r.FinalStatus, r.TalkDuration)
//		},
//	}))
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := m.Connect(); err != nil {
//		log.Fatal(err)
//	}
//	m.Login(nil)
//
// Все колбэки вызываются из одной горутины обработки, строго по порядку
// поступления данных. Лента событий удалённой стороны не транзакционна:
// события о неизвестных ногах, ответы без ожидающей команды и
// неразбираемые строки молча игнорируются.
package manager
