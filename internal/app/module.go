// Package app wires the client engine together with fx.
package app

import (
	"context"
	"time"

	"github.com/dondeestamimascota/mascotas/internal/account"
	"github.com/dondeestamimascota/mascotas/internal/api"
	"github.com/dondeestamimascota/mascotas/internal/bus"
	"github.com/dondeestamimascota/mascotas/internal/config"
	"github.com/dondeestamimascota/mascotas/internal/geo"
	"github.com/dondeestamimascota/mascotas/internal/lock"
	"github.com/dondeestamimascota/mascotas/internal/logging"
	"github.com/dondeestamimascota/mascotas/internal/profile"
	"github.com/dondeestamimascota/mascotas/internal/reports"
	"github.com/dondeestamimascota/mascotas/internal/session"
	"github.com/dondeestamimascota/mascotas/internal/state"
	"github.com/dondeestamimascota/mascotas/internal/store"
	intsync "github.com/dondeestamimascota/mascotas/internal/sync"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Params holds the resolved profile and configuration passed to the module.
type Params struct {
	Profile string
	// Binary names the log file and the lock owner.
	Binary string
	Config *config.Config
	// Console mirrors logs to stderr.
	Console bool
	// Exclusive takes the profile lock for the lifetime of the app.
	Exclusive bool
	// AutoSync starts the periodic refresh on start.
	AutoSync bool
}

// Module composes every provider and lifecycle hook of the client.
func Module(p Params) fx.Option {
	if p.Config == nil {
		p.Config = config.Default()
	}
	return fx.Module("mascotas",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			bus.New,
			provideLock,
			provideStore,
			provideSession,
			provideGeocoder,
			provideAPI,
			provideState,
			provideCheckpoints,
			provideSync,
			provideAccount,
			provideReports,
			newRestored,
		),
		fx.Invoke(registerLifecycle),
	)
}

// Logger routes fx's own events to zap instead of stderr.
func Logger() fx.Option {
	return fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: l.Named("fx")}
	})
}

func provideLogger(p Params) (*zap.Logger, error) {
	if err := profile.EnsureDir(p.Profile); err != nil {
		return nil, err
	}
	return logging.New(logging.Options{
		Path:    profile.LogPath(p.Profile, p.Binary),
		Profile: p.Profile,
		Level:   p.Config.LogLevel,
		Console: p.Console,
	})
}

// provideLock returns a nil lock for non-exclusive apps; Release accepts nil.
func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if !p.Exclusive {
		return nil, nil
	}
	l, err := lock.Acquire(profile.Dir(p.Profile), p.Binary)
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired", zap.String("profile", p.Profile))
	return l, nil
}

func provideStore(p Params, logger *zap.Logger) (*store.DB, error) {
	path := profile.DBPath(p.Profile)
	db, result, err := store.OpenMigrated(path)
	if err != nil {
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Debug("migrations up to date", zap.Uint("version", result.Version))
	}
	if ttl := p.Config.GeocodeCacheTTL.Std(); ttl > 0 {
		if n, err := db.PrunePoints(time.Now().Add(-ttl)); err != nil {
			logger.Warn("prune geocode cache", zap.Error(err))
		} else if n > 0 {
			logger.Info("geocode cache pruned", zap.Int64("removed", n))
		}
	}
	logger.Info("store initialized", zap.String("path", path))
	return db, nil
}

func provideSession(db *store.DB) *session.Store {
	return session.New(db)
}

func provideGeocoder(p Params, db *store.DB, logger *zap.Logger) geo.Geocoder {
	client := geo.NewClient(
		geo.WithBaseURL(p.Config.GeorefBaseURL),
		geo.WithRate(p.Config.GeocodeRate),
	)
	return geo.NewCached(client, db, p.Config.GeocodeCacheTTL.Std(), logger.Named("geo"))
}

func provideAPI(p Params, sess *session.Store, logger *zap.Logger) *api.Client {
	return api.NewClient(
		api.WithBaseURL(p.Config.APIBaseURL),
		api.WithTimeout(p.Config.RequestTimeout.Std()),
		api.WithTokenSource(sess),
		api.WithLogger(logger.Named("api")),
	)
}

func provideState(p Params, sess *session.Store, client *api.Client, g geo.Geocoder, b *bus.Bus, logger *zap.Logger) *state.Store {
	return state.New(state.Config{
		Session:        sess,
		Users:          client,
		Geocoder:       g,
		GeocodeTimeout: p.Config.GeocodeTimeout.Std(),
		Bus:            b,
		Logger:         logger.Named("state"),
	})
}

func provideCheckpoints(db *store.DB) *intsync.Checkpoints {
	return intsync.NewCheckpoints(db)
}

func provideSync(p Params, st *state.Store, client *api.Client, cp *intsync.Checkpoints, b *bus.Bus, logger *zap.Logger) *intsync.Engine {
	return intsync.NewEngine(st, client, b, logger.Named("sync"),
		intsync.WithInterval(p.Config.RefreshInterval.Std()),
		intsync.WithCheckpoints(cp),
	)
}

func provideAccount(client *api.Client, sess *session.Store, st *state.Store, logger *zap.Logger) *account.Service {
	return account.NewService(client, sess, st, logger.Named("account"))
}

func provideReports(client *api.Client, st *state.Store, b *bus.Bus, logger *zap.Logger) *reports.Service {
	return reports.NewService(client, st, b, logger.Named("reports"))
}

// Restored reports when the stored session, if any, has been restored.
type Restored struct {
	done chan struct{}
}

func newRestored() *Restored {
	return &Restored{done: make(chan struct{})}
}

// Done closes once the restore attempt started on app start has ended.
func (r *Restored) Done() <-chan struct{} { return r.done }

func registerLifecycle(lc fx.Lifecycle, p Params, lk *lock.Lock, db *store.DB, st *state.Store, engine *intsync.Engine, b *bus.Bus, r *Restored, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			restored := st.InitializeFromStorage(ctx)
			go func() {
				<-restored
				close(r.done)
			}()
			if p.AutoSync {
				engine.Start(ctx)
			}
			logger.Info("client started", zap.String("profile", p.Profile), zap.String("api", p.Config.APIBaseURL))
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			engine.Stop()
			st.Close()
			b.Close()
			err := multierr.Combine(db.Close(), lk.Release())
			if err != nil {
				logger.Warn("shutdown", zap.Error(err))
			}
			logger.Info("client stopped")
			_ = logger.Sync()
			return err
		},
	})
}
