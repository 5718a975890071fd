package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	httpin "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/out/memlock"
	"dispatch/internal/adapters/out/natslock"
	"dispatch/internal/adapters/out/notify"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/redislock"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/jobs"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// notifyDrainTimeout bounds how long Close waits for queued notifications.
const notifyDrainTimeout = 5 * time.Second

type CompositionRoot struct {
	cfg        Config
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	lock       ports.DistributedLock
	dispatcher ports.NotificationDispatcher
	clock      kernel.Clock
	logger     *zap.Logger

	orchestrator *commands.AssignmentOrchestrator
	natsConn     *nats.Conn
	closers      []func() error
}

// NewCompositionRoot connects the configured lock and notification backends.
// Close releases them.
func NewCompositionRoot(ctx context.Context, cfg Config, gormDB *gorm.DB, logger *zap.Logger) (*CompositionRoot, error) {
	c := &CompositionRoot{
		cfg:        cfg,
		gormDB:     gormDB,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB),
		clock:      kernel.SystemClock(),
		logger:     logger,
	}

	lock, err := c.newLock(ctx)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.lock = lock

	dispatcher, err := c.newDispatcher()
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	async := notify.NewAsyncDispatcher(
		notify.NewSafeDispatcher(dispatcher, notify.DefaultBreakerSettings(), logger),
		notify.DefaultAsyncSettings(),
		logger,
	)
	c.closers = append(c.closers, func() error {
		drainCtx, cancel := context.WithTimeout(context.Background(), notifyDrainTimeout)
		defer cancel()
		return async.Close(drainCtx)
	})
	c.dispatcher = async

	c.orchestrator = commands.NewAssignmentOrchestrator(
		c.uowFactoryFunc(), c.dispatcher, cfg.DispatchOptions(), c.clock, logger,
	)
	return c, nil
}

func (c *CompositionRoot) newLock(ctx context.Context) (ports.DistributedLock, error) {
	switch c.cfg.LockBackend {
	case LockBackendMemory:
		c.logger.Warn("using in-process lock; accepts are only serialized within this instance")
		return memlock.New(), nil
	case LockBackendNats:
		conn, err := c.nats()
		if err != nil {
			return nil, err
		}
		js, err := jetstream.New(conn)
		if err != nil {
			return nil, fmt.Errorf("jetstream: %w", err)
		}
		kv, err := natslock.EnsureBucket(ctx, js, c.cfg.NatsLockBucket, 10*c.cfg.LockTTL)
		if err != nil {
			return nil, err
		}
		return natslock.New(kv), nil
	default:
		client := redis.NewClient(&redis.Options{Addr: c.cfg.RedisAddr})
		c.closers = append(c.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis at %s: %w", c.cfg.RedisAddr, err)
		}
		return redislock.New(client), nil
	}
}

func (c *CompositionRoot) newDispatcher() (ports.NotificationDispatcher, error) {
	if c.cfg.NotifyBackend == NotifyBackendNats {
		conn, err := c.nats()
		if err != nil {
			return nil, err
		}
		return notify.NewNatsDispatcher(conn, c.cfg.NatsSubjectPrefix), nil
	}

	dispatcher := notify.NewKafkaDispatcher(c.cfg.KafkaBrokers, c.cfg.KafkaTopic)
	c.closers = append(c.closers, dispatcher.Close)
	return dispatcher, nil
}

// nats returns the shared NATS connection, dialing it on first use.
func (c *CompositionRoot) nats() (*nats.Conn, error) {
	if c.natsConn != nil {
		return c.natsConn, nil
	}
	conn, err := nats.Connect(c.cfg.NatsURL, nats.Name("dispatch"))
	if err != nil {
		return nil, fmt.Errorf("connect nats at %s: %w", c.cfg.NatsURL, err)
	}
	c.natsConn = conn
	c.closers = append(c.closers, func() error {
		conn.Close()
		return nil
	})
	return conn, nil
}

// Close releases every backend connection opened by the root.
func (c *CompositionRoot) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *CompositionRoot) uowFactoryFunc() commands.UoWFactory {
	return FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateRegisterOrderCommandHandler() commands.RegisterOrderCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewRegisterOrderCommandHandler(f)
}

func (c *CompositionRoot) CreateUpsertVendorCommandHandler() commands.UpsertVendorCommandHandler {
	var f commands.VendorUoWFactory = FuncVendorUoWFactory(func() commands.VendorUoW {
		return c.uowFactory.Create()
	})
	return commands.NewUpsertVendorCommandHandler(f)
}

func (c *CompositionRoot) CreateStartAssignmentCommandHandler() commands.StartAssignmentCommandHandler {
	return commands.NewStartAssignmentCommandHandler(c.orchestrator)
}

func (c *CompositionRoot) CreateVendorAcceptCommandHandler() commands.VendorAcceptCommandHandler {
	return commands.NewVendorAcceptCommandHandler(
		c.uowFactoryFunc(),
		c.lock,
		c.orchestrator,
		c.dispatcher,
		c.clock,
		commands.LockSettings{TTL: c.cfg.LockTTL, RequestTimeout: c.cfg.LockRequestTimeout},
		c.logger,
	)
}

func (c *CompositionRoot) CreateVendorRejectCommandHandler() commands.VendorRejectCommandHandler {
	return commands.NewVendorRejectCommandHandler(c.uowFactoryFunc(), c.orchestrator, c.clock, c.logger)
}

func (c *CompositionRoot) CreateForceAssignCommandHandler() commands.ForceAssignCommandHandler {
	return commands.NewForceAssignCommandHandler(c.uowFactoryFunc(), c.dispatcher, c.clock, c.logger)
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	return commands.NewCancelOrderCommandHandler(c.uowFactoryFunc(), c.dispatcher, c.clock, c.logger)
}

func (c *CompositionRoot) CreateAdvanceOrderCommandHandler() commands.AdvanceOrderCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewAdvanceOrderCommandHandler(f, c.dispatcher, c.logger)
}

func (c *CompositionRoot) CreateExpireOffersCommandHandler() commands.ExpireOffersCommandHandler {
	return commands.NewExpireOffersCommandHandler(c.uowFactoryFunc(), c.orchestrator, c.clock, c.logger)
}

func (c *CompositionRoot) CreateGetAssignmentHistoryQueryHandler() queries.GetAssignmentHistoryQueryHandler {
	return queries.NewGetAssignmentHistoryQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetVendorOffersQueryHandler() queries.GetVendorOffersQueryHandler {
	return queries.NewGetVendorOffersQueryHandler(c.gormDB, c.clock)
}

// CreateHTTPServer wires every use case into the REST server.
func (c *CompositionRoot) CreateHTTPServer() *httpin.Server {
	return httpin.NewServer(httpin.Handlers{
		RegisterOrder:     c.CreateRegisterOrderCommandHandler(),
		StartAssignment:   c.CreateStartAssignmentCommandHandler(),
		VendorAccept:      c.CreateVendorAcceptCommandHandler(),
		VendorReject:      c.CreateVendorRejectCommandHandler(),
		ForceAssign:       c.CreateForceAssignCommandHandler(),
		CancelOrder:       c.CreateCancelOrderCommandHandler(),
		AdvanceOrder:      c.CreateAdvanceOrderCommandHandler(),
		UpsertVendor:      c.CreateUpsertVendorCommandHandler(),
		ExpireOffers:      c.CreateExpireOffersCommandHandler(),
		AssignmentHistory: c.CreateGetAssignmentHistoryQueryHandler(),
		VendorOffers:      c.CreateGetVendorOffersQueryHandler(),
	}, c.logger)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(c.CreateExpireOffersCommandHandler(), c.cfg.SweepSpec, c.cfg.SweepLimit, c.logger)
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncVendorUoWFactory func() commands.VendorUoW

func (f FuncVendorUoWFactory) Create() commands.VendorUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
