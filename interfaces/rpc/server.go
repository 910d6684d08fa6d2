package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/felixgeelhaar/pathfinder/application"
	"github.com/felixgeelhaar/pathfinder/domain/config"
	"github.com/felixgeelhaar/pathfinder/domain/search"
	"github.com/felixgeelhaar/pathfinder/infrastructure/distributed/pool"
	"github.com/felixgeelhaar/pathfinder/infrastructure/logging"
	"github.com/felixgeelhaar/pathfinder/infrastructure/observability"
	"github.com/felixgeelhaar/pathfinder/infrastructure/statemachine"
	"github.com/felixgeelhaar/pathfinder/infrastructure/storage"
)

// Server is a gRPC server carrying the PathFinder and health services.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
}

// NewServer registers a handler for nav on a new gRPC server.
func NewServer(nav *application.Navigator, opts ...grpc.ServerOption) *Server {
	opts = append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(RecoveryInterceptor(), LoggingInterceptor()),
	}, opts...)

	s := &Server{
		grpc:   grpc.NewServer(opts...),
		health: health.NewServer(),
	}
	RegisterPathFinderServer(s.grpc, NewHandler(nav))
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s
}

// Serve accepts connections on lis until the server stops.
func (s *Server) Serve(lis net.Listener) error {
	for svc, info := range s.grpc.GetServiceInfo() {
		for _, m := range info.Methods {
			logging.Debug().Add(logging.Method(svc + "/" + m.Name)).Msg("serving method")
		}
	}
	return s.grpc.Serve(lis)
}

// WatchHealth runs check every interval and reports the result as the
// serving status of the PathFinder service and of the server as a whole.
// It returns when ctx ends.
func (s *Server) WatchHealth(ctx context.Context, interval time.Duration, check func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	healthy := true
	for {
		checkCtx, cancel := context.WithTimeout(ctx, interval)
		err := check(checkCtx)
		cancel()
		if ctx.Err() != nil {
			return
		}

		switch {
		case err != nil && healthy:
			logging.Warn().Add(logging.Component("health")).Add(logging.ErrorField(err)).Msg("backend unhealthy")
		case err == nil && !healthy:
			logging.Info().Add(logging.Component("health")).Msg("backend recovered")
		}
		healthy = err == nil

		status := healthpb.HealthCheckResponse_SERVING
		if !healthy {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		s.health.SetServingStatus(ServiceName, status)
		s.health.SetServingStatus("", status)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Shutdown marks the services not serving and stops gracefully, forcing
// the stop when ctx ends first.
func (s *Server) Shutdown(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logging.Warn().Msg("graceful stop timed out, forcing")
		s.grpc.Stop()
		<-done
	}
}

// Run assembles the service from cfg and serves on lis until ctx ends.
// A nil lis listens on cfg.Server.Host:Port.
//
// Resources are released in order: RPC server, health watcher, metric
// callbacks, search pool, storage, telemetry.
func Run(ctx context.Context, cfg config.Config, lis net.Listener) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	algorithm, err := search.ParseAlgorithm(cfg.Search.Algorithm)
	if err != nil {
		return err
	}

	telemetry, err := observability.New(ctx, observability.FromConfig(cfg.Telemetry)...)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer shutdownWith(ctx, cfg, "telemetry", telemetry.Shutdown)

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Add(logging.Component("storage")).Add(logging.ErrorField(err)).Msg("close failed")
		}
	}()

	var searchOpts []search.Option
	if cfg.Search.MaxExpansions > 0 {
		searchOpts = append(searchOpts, search.WithMaxExpansions(cfg.Search.MaxExpansions))
	}
	resolver, err := statemachine.NewResolver(algorithm, searchOpts...)
	if err != nil {
		return err
	}

	workers, err := pool.New[statemachine.Outcome](cfg.Search.PoolSize, pool.WithQueueSize(cfg.Search.QueueSize))
	if err != nil {
		return fmt.Errorf("search pool: %w", err)
	}
	defer workers.Stop()

	instruments, err := observability.NewInstruments(nil)
	if err != nil {
		return err
	}
	nav, err := application.NewNavigator(
		application.NewStateStore(store.Backend, store.Locks, cfg.Lock),
		application.NewCoordinator(workers, resolver),
		application.WithIdentity(cfg.Storage.Key),
		application.WithFieldPolicy(cfg.Field.Policy),
		application.WithTracer(telemetry.Tracer(observability.InstrumentationName)),
		application.WithInstruments(instruments),
	)
	if err != nil {
		return err
	}
	reg, err := instruments.ObserveSnapshot(nav.Snapshot)
	if err != nil {
		return fmt.Errorf("observe snapshot: %w", err)
	}
	defer func() {
		if err := reg.Unregister(); err != nil {
			logging.Error().Add(logging.Component("metrics")).Add(logging.ErrorField(err)).Msg("unregister failed")
		}
	}()

	if lis == nil {
		addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
		lis, err = net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
	}

	limiter := NewRateLimiterFromConfig(cfg.Server.RateLimit)
	srv := NewServer(nav, grpc.ChainUnaryInterceptor(RateLimitInterceptor(limiter)))
	if interval := cfg.Server.HealthInterval.Duration(); interval > 0 {
		watchCtx, stopWatch := context.WithCancel(ctx)
		watched := make(chan struct{})
		go func() {
			defer close(watched)
			srv.WatchHealth(watchCtx, interval, nav.Ready)
		}()
		defer func() {
			stopWatch()
			<-watched
		}()
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(lis)
	}()

	logging.Info().
		Add(logging.Str("addr", lis.Addr().String())).
		Add(logging.Algorithm(algorithm.String())).
		Add(logging.Backend(store.Name)).
		Add(logging.Int("pool_size", workers.Workers())).
		Add(logging.Int("rate_limit_rpm", cfg.Server.RateLimit.RequestsPerMinute)).
		Msg("server started")

	select {
	case <-ctx.Done():
		logging.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		srv.Shutdown(shutdownCtx)
		if err := <-errc; err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	}
}

func shutdownWith(ctx context.Context, cfg config.Config, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := fn(ctx); err != nil {
		logging.Error().Add(logging.Component(name)).Add(logging.ErrorField(err)).Msg("shutdown failed")
	}
}
