package manager

import (
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Значения конфигурации по умолчанию.
const (
	DefaultHost = "localhost"
	DefaultPort = 5038

	// EventsOn / EventsOff - значения опции Events, передаются в login
	// как есть и управляют подпиской на асинхронную ленту событий.
	EventsOn  = "on"
	EventsOff = "off"
)

// Config описывает параметры сессии AMI. Нулевое значение пригодно к
// использованию: пустые поля заменяются значениями по умолчанию при
// создании менеджера.
//
// env-теги позволяют загрузить ту же структуру из переменных окружения
// (см. cmd/ami_monitor).
type Config struct {
	// User и Password - учётные данные менеджера AMI
	User     string `env:"AMI_USER"`
	Password string `env:"AMI_PASSWORD"`

	// Host и Port - адрес коммутатора
	Host string `env:"AMI_HOST"`
	Port int    `env:"AMI_PORT"`

	// Events - запрашивать ли ленту событий при аутентификации ("on"/"off")
	Events string `env:"AMI_EVENTS"`

	// Debug включает подробную трассировку кадров
	Debug bool `env:"AMI_DEBUG"`

	// Inbound - шаблоны имён контекстов, по которым новая нога
	// классифицируется как внешний входящий вызов
	Inbound []string `env:"AMI_INBOUND"`
	// Outbound и Internal зарезервированы; текущие обработчики их не читают
	Outbound []string `env:"AMI_OUTBOUND"`
	Internal []string `env:"AMI_INTERNAL"`

	// ConnectTimeout - таймаут установки соединения, 0 отключает
	ConnectTimeout time.Duration `env:"AMI_CONNECT_TIMEOUT"`
}

// DefaultConfig возвращает конфигурацию со значениями по умолчанию.
func DefaultConfig() Config {
	return Config{
		Host:    DefaultHost,
		Port:    DefaultPort,
		Events:  EventsOn,
		Inbound: []string{"ext-did"},
	}
}

// withDefaults заполняет не заданные поля значениями по умолчанию.
// Пустой, но ненулевой список Inbound остаётся пустым: это явное
// отключение классификации входящих.
func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Events == "" {
		c.Events = EventsOn
	}
	if c.Inbound == nil {
		c.Inbound = []string{"ext-did"}
	}
	return c
}

// addr возвращает адрес коммутатора в форме host:port.
func (c Config) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// inboundPattern компилирует список входящих контекстов в одно регулярное
// выражение вида ^(a|b)$. Пустой список даёт nil: ни один контекст не
// будет считаться входящим.
func (c Config) inboundPattern() (*regexp.Regexp, error) {
	if len(c.Inbound) == 0 {
		return nil, nil
	}
	return regexp.Compile("^(" + strings.Join(c.Inbound, "|") + ")$")
}
