package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iamvkosarev/mednote/config"
	"github.com/iamvkosarev/mednote/internal/backend"
	"github.com/iamvkosarev/mednote/internal/capture"
	"github.com/iamvkosarev/mednote/internal/observability/metrics"
	"github.com/iamvkosarev/mednote/internal/ops"
	"github.com/iamvkosarev/mednote/internal/render"
	"github.com/iamvkosarev/mednote/internal/storage/dynamo"
	"github.com/iamvkosarev/mednote/internal/storage/file"
	in_memory "github.com/iamvkosarev/mednote/internal/storage/in-memory"
	key_value "github.com/iamvkosarev/mednote/internal/storage/key-value"
	"github.com/iamvkosarev/mednote/internal/storage/remote"
	"github.com/iamvkosarev/mednote/internal/usecase"
	"github.com/iamvkosarev/mednote/pkg/local"
	"github.com/iamvkosarev/mednote/pkg/logging"
)

const opsShutdownTimeout = 5 * time.Second

// Options replaces pieces of the default wiring. Zero values use the
// configured implementations.
type Options struct {
	Platform   capture.Platform
	HTTPClient *http.Client
}

func Run(ctx context.Context, cfg *config.Config, logger *logging.Logger, in io.Reader, out io.Writer) error {
	return RunWithOptions(ctx, cfg, logger, in, out, Options{})
}

func RunWithOptions(
	ctx context.Context,
	cfg *config.Config,
	logger *logging.Logger,
	in io.Reader,
	out io.Writer,
	opts Options,
) error {
	if logger == nil {
		logger = logging.Default()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	backendClient, err := backend.New(backend.Config{
		BaseURL:           cfg.API.BaseURL,
		Timeout:           cfg.API.Timeout,
		TranscribeTimeout: cfg.API.TranscribeTimeout,
		HTTPClient:        opts.HTTPClient,
		Logger:            logger,
		Metrics:           metrics.NewBackendMetrics(reg),
	})
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	assistant, err := newAssistant(cfg, backendClient, logger)
	if err != nil {
		return err
	}

	chatStorage, preferenceStorage, closeRedis, err := newSessionStorages(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRedis()

	historyStorage, archive, err := newHistoryStorage(ctx, cfg, backendClient, logger)
	if err != nil {
		return err
	}

	platform := opts.Platform
	if platform == nil {
		platform = capture.NewFFmpegPlatform(capture.FFmpegConfig{
			Path:         cfg.Capture.FFmpegPath,
			InputFormat:  cfg.Capture.InputFormat,
			Device:       cfg.Capture.Device,
			StartupGrace: cfg.Capture.StartupGrace,
			Logger:       logger,
		})
	}
	recorder := capture.NewRecorder(
		capture.RecorderDeps{
			Platform: platform,
			Logger:   logger,
			Metrics:  metrics.NewCaptureMetrics(reg),
		}, capture.DefaultConstraints(),
	)

	catalog := local.NewCatalog(logger)

	consultationUsecase := usecase.NewConsultationUsecase(
		usecase.ConsultationUsecaseDeps{
			Capture:   recorder,
			Assistant: assistant,
			Archive:   archive,
			Logger:    logger,
		}, cfg.History.PatientID,
	)

	historyUsecase := usecase.NewHistoryUsecase(
		usecase.HistoryUsecaseDeps{
			Storage: historyStorage,
			Logger:  logger,
		},
	)

	aiChatUsecase := usecase.NewAiChatUsecase(
		usecase.AiChatUsecaseDeps{
			AiChatStorage: chatStorage,
			Assistant:     assistant,
			Catalog:       catalog,
			Logger:        logger,
		},
	)

	languageUsecase := usecase.NewLanguageUsecase(
		usecase.LanguageUsecaseDeps{
			PreferenceStorage: preferenceStorage,
			Logger:            logger,
		}, local.ParseLanguage(cfg.Language.Default),
	)

	if cfg.Ops.Addr != "" {
		stop := serveOps(cfg.Ops.Addr, ops.NewRouter(ops.Config{
			Logger:         logger,
			MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			Backend:        backendClient,
		}), logger)
		defer stop()
	}

	console := NewConsole(
		ConsoleDeps{
			Consultations: consultationUsecase,
			History:       historyUsecase,
			Chat:          aiChatUsecase,
			Language:      languageUsecase,
			Renderer:      render.New(catalog),
			Logger:        logger,
		}, in, out,
	)
	return console.Run(ctx)
}

func newAssistant(cfg *config.Config, backendClient *backend.Client, logger *logging.Logger) (usecase.Assistant, error) {
	if cfg.Assistant.Provider != config.AssistantOpenAI {
		return backendClient, nil
	}
	openAICfg := cfg.OpenAI
	if openAICfg.OpenAIBaseURL != "" {
		baseURL, err := url.JoinPath(openAICfg.OpenAIBaseURL, "/v1")
		if err != nil {
			return nil, fmt.Errorf("failed to build openai base url: %w", err)
		}
		openAICfg.OpenAIBaseURL = baseURL
	}
	logger.Info("using openai assistant", "model", openAICfg.OpenAIModel)
	return usecase.NewOpenAIUsecase(openAICfg, logger), nil
}

// newSessionStorages keeps chats and preferences in redis when an endpoint
// is configured and in process memory otherwise.
func newSessionStorages(
	ctx context.Context,
	cfg *config.Config,
	logger *logging.Logger,
) (usecase.AiChatStorage, usecase.PreferenceStorage, func(), error) {
	if cfg.Redis.Endpoint == "" {
		return in_memory.NewAIChatStorage(), newFilePreferences(cfg.Language.Dir, logger), func() {}, nil
	}
	rdb := redis.NewClient(
		&redis.Options{
			Addr:     cfg.Redis.Endpoint,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
	)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, nil, fmt.Errorf("failed to connect to redis %s: %w", cfg.Redis.Endpoint, err)
	}
	logger.Info("using redis session storage", "endpoint", cfg.Redis.Endpoint)
	closeFn := func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("failed to close redis client", "error", err)
		}
	}
	return key_value.NewAIChatStorage(rdb, cfg.Chat.ConversationIdleTimeout),
		key_value.NewPreferenceStorage(rdb),
		closeFn, nil
}

// newFilePreferences keeps the language on disk. When no directory can be
// used the preference lives only for this session.
func newFilePreferences(dir string, logger *logging.Logger) usecase.PreferenceStorage {
	if dir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			logger.Warn("no user config directory, language will not be saved", "error", err)
			return in_memory.NewPreferenceStorage()
		}
		dir = filepath.Join(configDir, "mednote")
	}
	storage, err := file.NewPreferenceStorage(dir)
	if err != nil {
		logger.Warn("language will not be saved", "error", err)
		return in_memory.NewPreferenceStorage()
	}
	return storage
}

// newHistoryStorage returns the history store and, for stores the client
// writes to itself, the archive that records new consultations.
func newHistoryStorage(
	ctx context.Context,
	cfg *config.Config,
	backendClient *backend.Client,
	logger *logging.Logger,
) (usecase.ConsultationStorage, usecase.ConsultationRecorder, error) {
	if cfg.History.Backend != config.HistoryDynamoDB {
		return remote.NewConsultationStorage(backendClient, cfg.History.MaxRecords, logger), nil, nil
	}
	client, err := dynamo.NewClient(ctx, cfg.DynamoDB.Region, cfg.DynamoDB.EndpointOverride)
	if err != nil {
		return nil, nil, err
	}
	storage, err := dynamo.NewConsultationStorage(
		client, dynamo.Config{
			Table:        cfg.DynamoDB.Table,
			PatientIndex: cfg.DynamoDB.PatientIndex,
			PatientID:    cfg.History.PatientID,
			MaxRecords:   cfg.History.MaxRecords,
			Logger:       logger,
		},
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create dynamodb history: %w", err)
	}
	logger.Info("using dynamodb history", "table", cfg.DynamoDB.Table)
	return storage, storage, nil
}

func serveOps(addr string, handler http.Handler, logger *logging.Logger) func() {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("ops server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server stopped", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), opsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("failed to shut down ops server", "error", err)
		}
	}
}
