// ballrunner: steer an endless runner by moving an orange ball in front of a
// camera. Serves the dashboard and the player socket, runs the game loop.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-ballrunner/internal/config"
	"github.com/teslashibe/go-ballrunner/internal/log"
	"github.com/teslashibe/go-ballrunner/pkg/camera"
	"github.com/teslashibe/go-ballrunner/pkg/camera/capture"
	"github.com/teslashibe/go-ballrunner/pkg/cloud"
	"github.com/teslashibe/go-ballrunner/pkg/debug"
	"github.com/teslashibe/go-ballrunner/pkg/game"
	"github.com/teslashibe/go-ballrunner/pkg/score"
	"github.com/teslashibe/go-ballrunner/pkg/session"
	"github.com/teslashibe/go-ballrunner/pkg/tracking"
	"github.com/teslashibe/go-ballrunner/pkg/web"
)

var version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "Config file (default: ./ballrunner.yaml if present)")
	port := flag.String("port", "", "HTTP port (overrides server.port)")
	debugFlag := flag.Bool("debug", false, "Enable verbose debug logging")
	debugTracking := flag.Bool("debug-tracking", false, "Log every tracking cycle")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	level := cfg.Log.Level
	if *debugFlag || *debugTracking {
		level = "debug"
	}
	log.Init(level, cfg.Log.Format)
	debug.Enabled = *debugFlag
	debug.Tracking = *debugTracking

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.Error("ballrunner failed", "error", err)
		os.Exit(1)
	}
	log.Info("goodbye")
}

func run(ctx context.Context, cfg *config.Config) error {
	log.Info("ballrunner starting", "version", version, "config", cfg.File)

	// Tracker: a bad config runs the game without ball detection
	var tracker *tracking.Tracker
	if tc, err := cfg.TrackerSettings(); err != nil {
		log.Error("tracker disabled", "error", err)
	} else if tracker, err = tracking.NewTracker(tc); err != nil {
		log.Error("tracker disabled", "error", err)
		tracker = nil
	}

	gc, err := cfg.GameSettings()
	if err != nil {
		return err
	}
	world, err := game.New(gc, cfg.GameRand())
	if err != nil {
		return err
	}

	store, err := openStore(cfg.Store.Path)
	if err != nil {
		return err
	}
	log.Info("scores", "path", store.Path())

	cc, err := cfg.CameraSettings()
	if err != nil {
		return err
	}
	feed := camera.NewFeed()
	defer feed.Close()

	source, err := capture.Open(ctx, cc, feed)
	if err != nil {
		return err
	}

	sc, err := cfg.SessionSettings(cc)
	if err != nil {
		return err
	}
	sess, err := session.New(sc, tracker, world, source, store)
	if err != nil {
		source.Close()
		return err
	}
	defer sess.Close()
	sess.SetPreviewRenderer(capture.Preview)

	// Camera changes from the dashboard reopen the source
	cameras := camera.NewManagerWith(cc)
	cameras.OnConfigChange = func(next camera.Config) error {
		src, err := capture.Open(ctx, next, feed)
		if err != nil {
			return err
		}
		sess.SetSource(src)
		sess.SetMirror(next.Mirror)
		log.Info("camera source changed", "source", next.Source)
		return nil
	}

	srv := web.NewServer(cfg.Server.Port, sess, cameras, cfg.Server.Static)

	players := cloud.NewHub(feed, sess)
	players.RegisterRoutes(srv.App())
	players.RegisterAPIRoutes(srv.App().Group("/api"))
	sess.AddSink(players)

	srv.App().Get("/metrics", func(c *fiber.Ctx) error {
		return c.SendString(metrics(sess, players))
	})

	log.Info("ready",
		"dashboard", "http://localhost:"+cfg.Server.Port,
		"player", "ws://localhost:"+cfg.Server.Port+"/ws/player",
		"camera", cc.Source)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sess.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx) })
	return g.Wait()
}

func openStore(path string) (*score.JSONStore, error) {
	if path == "" {
		return score.NewDefaultStore()
	}
	return score.NewJSONStore(path)
}

// metrics renders counters in the Prometheus text format
func metrics(sess *session.Session, players *cloud.Hub) string {
	st := sess.Status()
	ps := players.GetStats()
	ts, _ := sess.TrackerStats()

	return fmt.Sprintf(`# HELP ballrunner_score Current run score
# TYPE ballrunner_score gauge
ballrunner_score %d

# HELP ballrunner_high_score Best recorded score
# TYPE ballrunner_high_score gauge
ballrunner_high_score %d

# HELP ballrunner_tracker_cycles Tracking cycles run
# TYPE ballrunner_tracker_cycles counter
ballrunner_tracker_cycles %d

# HELP ballrunner_tracker_skipped Tracking requests answered from cache
# TYPE ballrunner_tracker_skipped counter
ballrunner_tracker_skipped %d

# HELP ballrunner_tracker_failures Tracking cycles that could not read the frame
# TYPE ballrunner_tracker_failures counter
ballrunner_tracker_failures %d

# HELP ballrunner_players Connected players
# TYPE ballrunner_players gauge
ballrunner_players %d

# HELP ballrunner_player_frames Frames received from players
# TYPE ballrunner_player_frames counter
ballrunner_player_frames %d
`, st.Game.Score, st.HighScore, ts.Cycles, ts.Skipped, ts.Failures, ps.PlayerCount, ps.FramesReceived)
}
