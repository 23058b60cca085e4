// ami_monitor подключается к Asterisk Manager Interface, аутентифицируется
// и пишет в лог все уведомления о жизненном цикле вызовов. Опционально
// экспортирует метрики протокольного движка в формате Prometheus.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/arzzra/asterisk_manager/pkg/manager"
)

func main() {
	var (
		configPath  = flag.String("config", "", "путь к config.toml (иначе переменные окружения)")
		metricsAddr = flag.String("metrics", "", "адрес экспорта метрик, например :9091")
		debug       = flag.Bool("debug", false, "включить отладочную трассировку")
	)
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		cfg     manager.Config
		mAddr   string
		loadErr error
	)
	if *configPath != "" {
		cfg, mAddr, loadErr = loadFileConfig(*configPath)
	} else {
		cfg, loadErr = loadEnvConfig()
	}
	if loadErr != nil {
		logger.Fatal().Err(loadErr).Msg("конфигурация не загружена")
	}
	if *metricsAddr != "" {
		mAddr = *metricsAddr
	}
	if *debug {
		cfg.Debug = true
	}
	if cfg.Debug {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	m, err := manager.New(cfg,
		manager.WithLogger(logger.With().Str("component", "manager").Logger()),
		manager.WithCallbacks(monitorCallbacks(logger)),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("менеджер не создан")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	if mAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: mAddr, Handler: mux}
		g.Go(func() error {
			logger.Info().Str("addr", mAddr).Msg("экспорт метрик запущен")
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		if err := m.Connect(); err != nil {
			return err
		}
		m.Login(func(f *manager.Frame) {
			logger.Info().
				Str("response", f.Get("response")).
				Str("message", f.Get("message")).
				Msg("ответ на login")
		})
		<-ctx.Done()
		m.Logoff()
		m.Disconnect()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("монитор завершился с ошибкой")
	}
	logger.Info().Msg("монитор остановлен")
}

// monitorCallbacks превращает каждое уведомление сессии в запись лога.
func monitorCallbacks(logger zerolog.Logger) manager.Callbacks {
	return manager.Callbacks{
		OnConnect: func() {
			logger.Info().Msg("подключено к AMI")
		},
		OnDisconnect: func(hadError bool) {
			logger.Info().Bool("had_error", hadError).Msg("отключено от AMI")
		},
		OnError: func(err error) {
			logger.Error().Err(err).Msg("ошибка соединения")
		},
		OnTimeout: func() {
			logger.Error().Msg("таймаут подключения")
		},
		OnIncomingCall: func(p *manager.Participant) {
			logger.Info().
				Str("id", p.ID).
				Str("name", p.CallerName).
				Str("number", p.CallerNumber).
				Str("exten", p.Extension).
				Msg("входящий вызов")
		},
		OnCallerID: func(p *manager.Participant) {
			logger.Info().
				Str("id", p.ID).
				Str("name", p.CallerName).
				Str("number", p.CallerNumber).
				Msg("caller id обновлён")
		},
		OnDialing: func(src, dst *manager.Participant) {
			logger.Info().
				Str("src", src.ID).
				Str("dst", dst.ID).
				Msg("набор номера")
		},
		OnCallConnected: func(p *manager.Participant) {
			logger.Info().
				Str("id", p.ID).
				Str("to", p.BridgedExtension).
				Msg("вызов соединён")
		},
		OnHold: func(p *manager.Participant) {
			logger.Info().Str("id", p.ID).Msg("вызов на удержании")
		},
		OnUnhold: func(p *manager.Participant) {
			logger.Info().Str("id", p.ID).Msg("вызов снят с удержания")
		},
		OnCallDisconnected: func(p1, p2 *manager.Participant) {
			e := logger.Info().Str("p1", p1.ID)
			if p2 != nil {
				e = e.Str("p2", p2.ID)
			}
			e.Msg("ноги вызова разъединены")
		},
		OnHangup: func(p *manager.Participant, cause int, causeText string) {
			logger.Info().
				Str("id", p.ID).
				Int("cause", cause).
				Str("cause_text", causeText).
				Msg("вызов завершён")
		},
		OnCallReport: func(r *manager.CallReport) {
			e := logger.Info().
				Str("caller", r.Caller.ID).
				Str("status", r.FinalStatus).
				Dur("total", r.TotalDuration).
				Dur("talk", r.TalkDuration)
			if r.Callee != nil {
				e = e.Str("callee", r.Callee.ID)
			}
			e.Msg("итог вызова")
		},
	}
}
