package main

import (
	"io"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Readm/cluster_map/anim"
	"github.com/Readm/cluster_map/loop"
	"github.com/Readm/cluster_map/plugins/instrumentation"
	"github.com/Readm/cluster_map/scene"
	"github.com/Readm/cluster_map/visual"
)

type replayOptions struct {
	out  string
	at   time.Duration
	seed int64
}

func newReplayCmd(a *app) *cobra.Command {
	opts := replayOptions{}
	cmd := &cobra.Command{
		Use:   "replay FILE",
		Short: "render a recorded event stream to SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := a.load(cmd)
			if err != nil {
				return err
			}
			in, err := os.Open(args[0]) // #nosec G304
			if err != nil {
				return errors.Wrap(err, "opening recording")
			}
			defer in.Close()

			out := cmd.OutOrStdout()
			if opts.out != "" {
				f, err := os.Create(opts.out) // #nosec G304
				if err != nil {
					return errors.Wrap(err, "creating output")
				}
				defer f.Close()
				out = f
			}
			return replay(in, out, config, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write the SVG here instead of stdout")
	cmd.Flags().DurationVar(&opts.at, "at", 0, "stop at this offset into the recording (default: the end)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 1, "seed for arc curvature")
	return cmd
}

// replay runs a recording through a controller on virtual time with deterministic policies.
func replay(in io.Reader, out io.Writer, config *Config, opts replayOptions) error {
	entries, err := instrumentation.ReadEntries(in)
	if err != nil {
		return err
	}

	clock := loop.NewManual(time.Unix(0, 0).UTC())
	graph := scene.NewGraph(config.Viewport.Width, config.Viewport.Height)
	engine := anim.New(clock)
	ids := 0
	controller, err := visual.New(visual.Options{
		Surface:   graph,
		Animator:  engine,
		Scheduler: clock,
		Insert:    visual.AppendInsert{},
		Sources:   visual.FirstSource{},
		Rand:      rand.New(rand.NewSource(opts.seed)), // #nosec G404
		Style:     config.Style(),
		Now:       clock.Now,
		NewID: func() string {
			ids++
			return strconv.Itoa(ids)
		},
	})
	if err != nil {
		return err
	}

	for _, e := range entries {
		ev := e.Event
		clock.AfterFunc(time.Duration(e.AtMS)*time.Millisecond, func() {
			_ = controller.Dispatch(ev)
		})
	}
	var ran int
	if opts.at > 0 {
		ran = clock.Advance(opts.at)
	} else {
		ran = clock.Flush()
	}
	GetLogger().WithField("events", len(entries)).Debugf("replayed %d callbacks", ran)

	engine.Frame()
	return graph.WriteSVG(out)
}
