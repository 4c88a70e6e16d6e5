package cmd

import (
	"context"
	"errors"
	"fmt"

	"Tracksmith/cache"
	"Tracksmith/config"
	"Tracksmith/core/edit"
	"Tracksmith/core/engine"
	"Tracksmith/core/mixdown"
	"Tracksmith/core/project"
	"Tracksmith/core/session"
	"Tracksmith/core/staging"
	"Tracksmith/core/timeline"
	"Tracksmith/db"
	"Tracksmith/logger"
	"Tracksmith/repository"
	"Tracksmith/storage"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// app holds everything a command needs to drive an editing session.
type app struct {
	cfg       *config.Config
	workspace *project.Workspace
	state     *session.State
	sess      *session.Session

	redis    *redis.Client
	gdb      *gorm.DB
	projects repository.ProjectRepository
	store    *storage.ExportStore
}

type appOptions struct {
	// project, when set, is loaded from the database instead of starting
	// from empty default tracks.
	project   string
	needDB    bool
	needStore bool
}

func geometryFrom(cfg *config.Config) timeline.Geometry {
	return timeline.Geometry{
		PixelsPerSecond: cfg.PixelsPerSecond,
		TrackWidth:      cfg.TrackWidth,
		TrackHeight:     cfg.TrackHeight,
	}
}

func newAdapter(cfg *config.Config) (engine.Adapter, error) {
	switch cfg.Engine {
	case "ffmpeg", "":
		return engine.NewFFmpegAdapter(cfg.FFmpegPath), nil
	case "exec":
		a, err := engine.NewExecAdapter(cfg.EngineBin)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
	return nil, fmt.Errorf("unknown engine %q", cfg.Engine)
}

// newProber returns the ffprobe duration prober, fronted by redis when it
// is enabled and reachable.
func newProber(ctx context.Context, cfg *config.Config) (timeline.DurationProber, *redis.Client) {
	probe := engine.NewFFprobe(cfg.FFmpegPath)
	if !cfg.RedisEnabled {
		return probe, nil
	}
	client, err := cache.ConnectRedis(ctx, cfg)
	if err != nil {
		logger.Warn("redis unavailable, probing without cache", logger.ErrorField(err))
		return probe, nil
	}
	return cache.NewDurationCache(client, probe, cfg.RedisTTL), client
}

// newApp prepares the workspace and the blank master, then assembles the
// session. The caller must Close the app.
func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if opts.needDB || opts.project != "" {
		a.gdb, err = db.ConnectGormDB(cfg)
		if err != nil {
			return nil, err
		}
		a.projects = repository.NewGormProjectRepository(a.gdb)
	}
	if opts.needStore {
		if !cfg.MinioEnabled() {
			return nil, errors.New("object storage is not configured (set MINIO_ENDPOINT)")
		}
		a.store, err = storage.NewExportStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	adapter, err := newAdapter(cfg)
	if err != nil {
		return nil, err
	}
	prober, client := newProber(ctx, cfg)
	a.redis = client

	geom := geometryFrom(cfg)
	tl := timeline.New(geom).WithDefaultTracks(cfg.DefaultTracks)
	if opts.project != "" {
		tl, _, err = a.projects.Load(ctx, opts.project, geom)
		if err != nil {
			return nil, err
		}
	}

	a.workspace, err = project.Open(cfg.ProjectBase, cfg.ProjectFolder, cfg.MasterFile)
	if err != nil {
		return nil, err
	}
	orch := mixdown.New(adapter, a.workspace.MasterPath(), mixdown.OnMasterUpdated(func(path string) {
		logger.Debug("master file rewritten", logger.String("path", path))
	}))
	if err := orch.PrepareMaster(ctx, cfg.MasterSeconds); err != nil {
		return nil, err
	}

	a.state = &session.State{
		Timeline: tl,
		Staging:  staging.NewArea(prober),
		Dispatcher: edit.NewDispatcher(adapter, edit.WithObserver(func(t edit.Transition) {
			logger.Debug("edit transition",
				logger.Int("track", int(t.Track)),
				logger.String("operation", t.Operation.String()),
				logger.String("from", t.From.String()),
				logger.String("to", t.To.String()))
		})),
		Mixdown: orch,
		Prober:  prober,
	}
	a.sess = session.New(a.state, session.WithTickInterval(cfg.TickInterval))
	return a, nil
}

// run starts the session goroutine and, when INBOX_DIR is set, the inbox
// watcher. Both stop when ctx is cancelled; the returned channel is closed
// once the session has stopped.
func (a *app) run(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := a.sess.Run(ctx); err != nil {
			logger.Error("session stopped with error", logger.ErrorField(err))
		}
	}()

	if a.cfg.InboxDir != "" {
		w := staging.NewWatcher(a.cfg.InboxDir, func(path string) {
			err := a.sess.Do(ctx, func(ctx context.Context, st *session.State) error {
				_, err := st.Stage(ctx, path)
				return err
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("failed to stage dropped file", logger.String("path", path), logger.ErrorField(err))
			}
		})
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error("inbox watcher stopped", logger.String("dir", a.cfg.InboxDir), logger.ErrorField(err))
			}
		}()
	}
	return done
}

// Close removes the project folder and releases the connections.
func (a *app) Close() {
	if a.workspace != nil {
		a.workspace.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.Warn("failed to close redis", logger.ErrorField(err))
		}
	}
	if a.gdb != nil {
		if err := db.CloseGormDB(a.gdb); err != nil {
			logger.Warn("failed to close database", logger.ErrorField(err))
		}
	}
}
