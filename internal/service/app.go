package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"firesafe-engine/internal/alerting"
	"firesafe-engine/internal/auth"
	"firesafe-engine/internal/bus"
	"firesafe-engine/internal/catalog"
	commonmqtt "firesafe-engine/internal/common/mqtt"
	"firesafe-engine/internal/config"
	"firesafe-engine/internal/consumer"
	"firesafe-engine/internal/detector"
	"firesafe-engine/internal/evaluator"
	"firesafe-engine/internal/loop"
	"firesafe-engine/internal/repository"
	"firesafe-engine/internal/sensor"
	"firesafe-engine/internal/store"
	"firesafe-engine/internal/timeseries"
	"firesafe-engine/internal/websocket"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// App 引擎（整合各层）
type App struct {
	config      *config.Config
	db          *sql.DB       // 未启用数据库时为 nil
	redisClient *redis.Client // 未启用 Redis 时为 nil
	mqttClient  *commonmqtt.Client
	logger      *zap.Logger

	loop         *loop.Loop
	eventBus     *bus.EventBus
	simulator    *sensor.Simulator
	alertHistory *alerting.HistoryStore
	dispatcher   *alerting.Dispatcher
	hub          *websocket.Hub
	mirror       *consumer.StreamMirror
	mqttConsumer *consumer.MQTTConsumer
	verifier     *auth.TokenVerifier

	review  *ReviewService
	sensors *SensorService

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewApp 创建引擎
func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{config: cfg, logger: logger}

	// 1. 加载规范条款
	rules, err := catalog.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load rule catalog: %w", err)
	}

	// 2. 连接数据库（可选）
	var (
		projects repository.ProjectRepository = repository.NewMemoryProjectRepository()
		reports  repository.ReportRepository  = repository.NewMemoryReportRepository()
	)
	if cfg.DatabaseEnabled {
		db, err := repository.Open(context.Background(), cfg.Database)
		if err != nil {
			return nil, err
		}
		a.db = db
		projects = repository.NewPostgresProjectRepository(db, logger)
		reports = repository.NewPostgresReportRepository(db, logger)
	} else {
		logger.Warn("Database disabled, projects and reports are kept in memory")
	}

	// 3. 连接 Redis（可选）
	var kv store.KV = store.NewMemoryKV()
	if cfg.RedisEnabled {
		client, err := store.OpenRedis(context.Background(), cfg.Redis)
		if err != nil {
			a.closeStores()
			return nil, err
		}
		a.redisClient = client
		kv = store.NewRedisKV(client)
		a.mirror = consumer.NewStreamMirror(client, cfg.Sensor.StreamName, cfg.Sensor.StreamMaxLen, logger)
	} else {
		logger.Warn("Redis disabled, alert history is kept in memory")
	}

	// 4. 事件循环与读数流
	a.loop = loop.New(loop.DefaultQueueSize, logger)
	a.eventBus = bus.NewEventBus(logger)
	ingestor := sensor.NewIngestor(sensor.NewHistory(cfg.Sensor.HistoryCapacity), a.eventBus, logger)
	series := timeseries.NewBuffer(cfg.Series.Capacity, cfg.Series.Decay)
	if cfg.Sensor.Simulation {
		a.simulator = sensor.NewSimulator(ingestor, cfg.Sensor.SimulationSeed, cfg.Sensor.DangerRate, logger)
	}

	// 5. 民防通知
	var notifier alerting.Notifier
	if cfg.Alert.Endpoint != "" {
		notifier = alerting.NewCivilDefenseNotifier(cfg.Alert.Endpoint, cfg.Alert.Path, cfg.Alert.APIKey, cfg.Alert.Timeout, logger)
	} else {
		logger.Info("Civil defense endpoint not configured, using simulated notifier")
		notifier = alerting.NewSimulatedNotifier(time.Now().UnixNano(), cfg.Alert.FailureRate, logger)
	}
	a.alertHistory = alerting.NewHistoryStore(kv, cfg.Alert.HistoryKey, cfg.Alert.HistoryCapacity, logger)
	a.dispatcher = alerting.NewDispatcher(cfg.Alert.ProjectName, notifier, a.alertHistory, cfg.Alert.DispatchDelay,
		func(f func()) {
			if !a.loop.Post(f) {
				logger.Warn("Event loop stopped, dispatch result dropped")
			}
		}, logger)

	// 6. 实时镜像
	a.hub = websocket.NewHub(logger)
	a.dispatcher.AddListener(alerting.NewLogListener(logger))
	a.dispatcher.AddListener(a.hub)

	// 7. 订阅顺序：时间序列 → 通知 → 镜像
	a.eventBus.Subscribe(bus.SubscriberFunc(series.OnReading))
	a.eventBus.Subscribe(a.dispatcher)
	a.eventBus.Subscribe(a.hub)
	if a.mirror != nil {
		a.eventBus.Subscribe(a.mirror)
	}

	// 8. 审查
	eval := evaluator.NewEvaluator(rules, detector.New(), evaluator.NewLockedRand(cfg.Review.Seed), cfg.Review.Workers, logger)
	a.review = NewReviewService(projects, reports, eval, rules, logger)
	a.sensors = NewSensorService(a.loop, ingestor, a.eventBus, series, a.dispatcher, logger)

	// 9. 令牌
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		logger.Warn("JWT_SECRET not set, using a random secret; HTTP ingestion requires tokens issued by this process")
		secret = uuid.NewString()
	}
	a.verifier = auth.NewTokenVerifier(secret, cfg.Auth.Issuer)

	// 10. MQTT（可选）
	if cfg.MQTT.Enabled {
		client, err := commonmqtt.NewClient(&cfg.MQTT, logger)
		if err != nil {
			a.closeStores()
			return nil, err
		}
		a.mqttClient = client
		a.mqttConsumer = consumer.NewMQTTConsumer(client, a.sensors, cfg.Sensor.MQTTTopic, cfg.MQTT.QoS, logger)
	}

	return a, nil
}

// Review 审查服务
func (a *App) Review() *ReviewService { return a.review }

// Sensors 传感器服务
func (a *App) Sensors() *SensorService { return a.sensors }

// Hub WebSocket 镜像
func (a *App) Hub() *websocket.Hub { return a.hub }

// Verifier 令牌校验器
func (a *App) Verifier() *auth.TokenVerifier { return a.verifier }

// Start 启动事件循环和后台任务
func (a *App) Start(ctx context.Context) error {
	a.logger.Info("Starting firesafe engine",
		zap.Bool("database", a.db != nil),
		zap.Bool("redis", a.redisClient != nil),
		zap.Bool("mqtt", a.mqttClient != nil),
		zap.Bool("simulation", a.simulator != nil),
	)

	if err := a.alertHistory.Load(ctx); err != nil {
		a.logger.Warn("Failed to load alert history, starting empty", zap.Error(err))
	}

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.goRun(func() { _ = a.loop.Run(runCtx) })
	a.goRun(func() { a.hub.Run(runCtx) })
	a.goRun(func() { a.alertHistory.Run(runCtx) })
	if a.mirror != nil {
		a.goRun(func() { _ = a.mirror.Run(runCtx) })
	}

	if a.mirror != nil {
		a.restoreHistory(runCtx)
	}

	a.loop.Every(runCtx, a.config.Series.Interval, a.sensors.tick)
	if a.simulator != nil {
		a.loop.Every(runCtx, a.config.Sensor.SimulationInterval, func(time.Time) { a.simulator.Step() })
	}

	if a.mqttConsumer != nil {
		if err := a.mqttConsumer.Start(); err != nil {
			return fmt.Errorf("failed to start mqtt consumer: %w", err)
		}
	}
	return nil
}

// restoreHistory 从读数 Stream 恢复重启前的历史
func (a *App) restoreHistory(ctx context.Context) {
	readings, err := a.mirror.Recent(ctx, int64(a.config.Sensor.HistoryCapacity))
	if err != nil {
		a.logger.Warn("Failed to restore sensor history", zap.Error(err))
		return
	}
	if len(readings) == 0 {
		return
	}
	restored, err := a.sensors.Restore(auth.WithPrincipal(ctx, auth.SystemAdmin), readings)
	if err != nil {
		a.logger.Warn("Failed to restore sensor history", zap.Error(err))
		return
	}
	a.logger.Info("Sensor history restored from stream", zap.Int("readings", restored))
}

func (a *App) goRun(f func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		f()
	}()
}

// Stop 停止服务
func (a *App) Stop() error {
	a.logger.Info("Stopping firesafe engine")

	if a.mqttConsumer != nil {
		if err := a.mqttConsumer.Stop(); err != nil {
			a.logger.Error("Failed to stop mqtt consumer", zap.Error(err))
		}
	}
	if a.mqttClient != nil {
		a.mqttClient.Disconnect()
	}

	a.dispatcher.Stop()
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	a.closeStores()
	return nil
}

func (a *App) closeStores() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("Failed to close database", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("Failed to close redis", zap.Error(err))
		}
	}
}
