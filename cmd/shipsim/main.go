package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/annel0/voxel-ships/internal/blocksync"
	"github.com/annel0/voxel-ships/internal/config"
	"github.com/annel0/voxel-ships/internal/eventbus"
	"github.com/annel0/voxel-ships/internal/fleet"
	"github.com/annel0/voxel-ships/internal/lattice"
	"github.com/annel0/voxel-ships/internal/logging"
	"github.com/annel0/voxel-ships/internal/material"
	"github.com/annel0/voxel-ships/internal/metrics"
	"github.com/annel0/voxel-ships/internal/observability"
	"github.com/annel0/voxel-ships/internal/ship"
	"github.com/annel0/voxel-ships/internal/storage"
	"github.com/annel0/voxel-ships/internal/vec"
	"github.com/annel0/voxel-ships/internal/world"
	"github.com/go-gl/mathgl/mgl64"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config path (default: $SHIPS_CONFIG)")
		ticks      = flag.Int("ticks", 0, "Number of ticks to simulate, 0 runs until interrupted")
		pilot      = flag.Bool("pilot", true, "Sail the raft forward while simulating")
		sinkDemo   = flag.Bool("sink", true, "Also launch an iron block that sinks to the seabed")
		override   = flag.Bool("override", false, "Override unlaunch flags that allow it")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	level, err := logging.ParseLevel(cfg.Log.GetLevel())
	if err != nil {
		log.Fatalf("log level: %v", err)
	}
	logOpts := logging.Options{Level: level}
	if cfg.Log.File {
		logOpts.Dir = "logs"
	}
	logging.Configure(logOpts)
	if err := logging.GetLoggerManager().ApplyLevels(cfg.Log.Components); err != nil {
		log.Fatalf("log components: %v", err)
	}
	if err := logging.InitDefaultLogger("shipsim"); err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *ticks, *pilot, *sinkDemo, *override); err != nil {
		logging.Error("симуляция завершилась с ошибкой: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, ticks int, pilot, sinkDemo, override bool) error {
	shutdownTracing, err := observability.InitTelemetry(ctx, observability.Options{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: cfg.Telemetry.GetServiceName(),
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	materials, err := material.LoadTable(cfg.Materials)
	if err != nil {
		return err
	}

	// метрики
	reg := metrics.NewRegistry()
	sim, err := metrics.NewSimulation(reg)
	if err != nil {
		return err
	}
	if addr := cfg.Metrics.GetAddr(); addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr, reg); err != nil {
				logging.Error("Prometheus HTTP: %v", err)
			}
		}()
	}

	// шина событий
	bus, err := newBus(cfg)
	if err != nil {
		return err
	}
	defer bus.Close()
	if _, err := eventbus.StartLoggingListener(ctx, bus); err != nil {
		return err
	}
	exporter, err := eventbus.NewMetricsExporter(bus, reg, 0)
	if err != nil {
		return err
	}
	go exporter.Run(ctx)

	// хранилища
	store, err := storage.NewShipStore(cfg.Storage.GetDir(), materials)
	if err != nil {
		return err
	}
	defer store.Close()
	poses, err := newPoseRepo(ctx, cfg)
	if err != nil {
		return err
	}
	defer poses.Close()

	// мир
	waterLevel := cfg.Simulation.GetWaterLevel()
	w := world.New(materials, world.NewSeabedGenerator(cfg.Simulation.Seed, waterLevel))
	w.OnBlockChange(func(world.BlockChange) { sim.WorldBlockWrites.Inc() })

	// изменения блоков уходят пакетами в шину, остаток сбрасывается до закрытия шины
	batcher := blocksync.NewBatchManager(bus, cfg.EventBus.GetSource(),
		cfg.EventBus.GetBlockBatch(), cfg.EventBus.GetBlockFlush(), blocksync.NewSmartCompressor())
	w.OnBlockChange(batcher.AddChange)
	syncCtx, stopSync := context.WithCancel(ctx)
	syncDone := make(chan struct{})
	go func() {
		batcher.Run(syncCtx)
		close(syncDone)
	}()
	defer func() {
		stopSync()
		<-syncDone
		logging.Info("отправлено %d изменений блоков в %d пакетах", batcher.Published(), batcher.Batches())
	}()

	shipOpts := ship.DefaultOptions()
	shipOpts.Collisions = cfg.Simulation.CollisionsEnabled()
	if cfg.Simulation.SinkMargin > 0 {
		shipOpts.SinkMargin = cfg.Simulation.SinkMargin
	}
	manager := fleet.NewManager(w, materials, fleet.Options{
		TickInterval: cfg.Simulation.GetTickInterval(),
		MaxBlocks:    cfg.Simulation.GetMaxBlocks(),
		SaveEvery:    cfg.Simulation.SaveEvery,
		Ship:         shipOpts,
	}, fleet.Deps{Store: store, Poses: poses, Bus: bus, Metrics: sim})

	// плот с рулевым и парусом
	raftSeed := vec.Vec3{X: 0, Y: waterLevel, Z: 0}
	blocks := lattice.Raft(5, 7, material.PlanksBlockID)
	blocks[vec.Vec3{X: 2, Y: 1, Z: 5}] = material.HelmBlockID
	for y := 1; y <= 3; y++ {
		blocks[vec.Vec3{X: 2, Y: y, Z: 3}] = material.WoolBlockID
	}
	w.Place(blocks, raftSeed)
	w.AddEntity(world.NewEntity("captain", mgl64.Vec3{1.5, float64(waterLevel + 1), 5.5}, mgl64.Vec3{0.6, 1.8, 0.6}))

	raft, err := manager.Launch(ctx, raftSeed)
	if err != nil {
		return err
	}
	if pilot {
		if err := manager.Pilot(raft.ID(), ship.NewPilotActions(ship.PilotForward), lattice.North); err != nil {
			return err
		}
	}

	if sinkDemo {
		anchorSeed := vec.Vec3{X: 20, Y: waterLevel, Z: 0}
		w.SetBlockID(anchorSeed, material.IronBlockID)
		if _, err := manager.Launch(ctx, anchorSeed); err != nil {
			return err
		}
	}

	if ticks > 0 {
		for i := 0; i < ticks && ctx.Err() == nil; i++ {
			manager.Tick(ctx)
		}
		manager.SaveAll(ctx)
	} else if err := manager.Run(ctx); err != nil {
		return err
	}

	p := raft.Pose()
	logging.Info("плот %s: позиция (%.2f, %.2f, %.2f), рыскание %.2f", raft.ID(), p.Position[0], p.Position[1], p.Position[2], p.Yaw)

	// стоп и возврат плота в мир
	if _, ok := manager.Ship(raft.ID()); !ok {
		return nil
	}
	if err := manager.Pilot(raft.ID(), 0, lattice.North); err != nil {
		return err
	}
	u, err := manager.Unlaunch(context.Background(), raft.ID(), override)
	if errors.Is(err, ship.ErrNotUnlaunchable) {
		logging.Warn("плот нельзя вернуть в мир: %v", err)
		return nil
	}
	if err != nil {
		return err
	}
	logging.Info("плот возвращён в мир: сдвиг %v, поворот %d", u.Translation(), u.Rotation())
	return nil
}

// newBus выбирает JetStream, если задан адрес NATS, иначе шину в памяти
func newBus(cfg *config.Config) (eventbus.EventBus, error) {
	if url := cfg.EventBus.GetURL(); url != "" {
		return eventbus.NewJetStreamBus(url, cfg.EventBus.Stream, cfg.EventBus.GetRetention())
	}
	return eventbus.NewMemoryBus(1024), nil
}

// newPoseRepo выбирает MariaDB, затем Redis, иначе репозиторий в памяти
func newPoseRepo(ctx context.Context, cfg *config.Config) (storage.PoseRepo, error) {
	if dsn := cfg.Maria.GetDSN(); dsn != "" {
		return storage.NewMariaPoseRepo(ctx, dsn)
	}
	if addr := cfg.Redis.GetAddr(); addr != "" {
		rc := storage.DefaultRedisConfig()
		rc.Addr = addr
		rc.Password = cfg.Redis.Password
		rc.DB = cfg.Redis.DB
		return storage.NewRedisPoseRepo(ctx, rc)
	}
	return storage.NewMemoryPoseRepo(), nil
}
