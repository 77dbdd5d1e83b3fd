package main

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/YelzhanWeb/bulkplan/internal/adapter/render"
	"github.com/YelzhanWeb/bulkplan/internal/app/session"
	"github.com/YelzhanWeb/bulkplan/internal/domain"
)

var timelineOpts struct {
	maxOrders int
	products  []string
	machines  []string
	color     string
	width     int
	commands  []string
	voice     []string
	base      bool
}

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Print the schedule as a terminal chart",
	Long: `Print the schedule as a terminal chart, one row per machine. Commands given
with --command (and recordings given with --voice) are applied in order before
the chart is drawn.`,
	Example: `  bulkplan timeline --max-orders 10
  bulkplan timeline -x "delay order 3 by 1 day" -x "swap ORD-001 and ORD-004"
  bulkplan timeline --product VRAC_HAIR_MASK --machine Filling/Capping --color order`,
	RunE: runTimeline,
}

func init() {
	f := timelineCmd.Flags()
	f.IntVarP(&timelineOpts.maxOrders, "max-orders", "n", render.DefaultMaxOrders, "Orders to show, earliest first")
	f.StringSliceVar(&timelineOpts.products, "product", nil, "Only these products")
	f.StringSliceVar(&timelineOpts.machines, "machine", nil, "Only these machines (id or name)")
	f.StringVar(&timelineOpts.color, "color", string(render.ColorByProduct), "Color by product, order, machine or operation")
	f.IntVarP(&timelineOpts.width, "width", "w", render.DefaultWidth, "Chart width in columns")
	f.StringArrayVarP(&timelineOpts.commands, "command", "x", nil, "Text command to apply before drawing")
	f.StringArrayVar(&timelineOpts.voice, "voice", nil, "Audio file to transcribe and apply before drawing")
	f.BoolVar(&timelineOpts.base, "base", false, "Draw the base schedule instead of the current one")
}

func runTimeline(cmd *cobra.Command, _ []string) error {
	switch render.ColorMode(timelineOpts.color) {
	case render.ColorByProduct, render.ColorByOrder, render.ColorByMachine, render.ColorByOperation:
	default:
		return fmt.Errorf("unknown color mode %q", timelineOpts.color)
	}

	ctx := cmd.Context()
	svc, closeSources, err := newPlannerService(ctx, cfg, lgr, serviceDeps{})
	if err != nil {
		return err
	}
	defer closeSources()

	out := cmd.OutOrStdout()
	for _, text := range timelineOpts.commands {
		res, err := svc.ProcessText(ctx, text, domain.SourceCLI)
		if err != nil {
			return err
		}
		printResult(out, res)
	}
	for _, path := range timelineOpts.voice {
		res, err := applyVoiceFile(cmd, svc, path)
		if err != nil {
			return err
		}
		printResult(out, res)
	}

	sched := svc.Current()
	if timelineOpts.base {
		sched = svc.Base()
	}

	filter := render.Filter{
		MaxOrders: timelineOpts.maxOrders,
		Products:  timelineOpts.products,
		Machines:  timelineOpts.machines,
	}
	chart := render.New(out).Timeline(filter.Apply(sched.Operations()), render.Options{
		Width: timelineOpts.width,
		Color: render.ColorMode(timelineOpts.color),
	})
	_, err = io.WriteString(out, chart)
	return err
}

func applyVoiceFile(cmd *cobra.Command, svc *session.Service, path string) (session.Result, error) {
	audio, err := os.ReadFile(path)
	if err != nil {
		return session.Result{}, fmt.Errorf("read audio: %w", err)
	}

	mimetype := mime.TypeByExtension(filepath.Ext(path))
	res, err := svc.ProcessVoice(cmd.Context(), audio, mimetype)
	if errors.Is(err, session.ErrNoTranscriber) {
		return session.Result{}, errors.New("voice commands need deepgram.api_key or DEEPGRAM_API_KEY")
	}
	return res, err
}

func printResult(w io.Writer, res session.Result) {
	mark := "✅"
	if !res.Accepted {
		mark = "❌"
	}
	if res.Transcript != "" {
		fmt.Fprintf(w, "🎙  %s\n", res.Transcript)
	}
	fmt.Fprintf(w, "%s %s  [%s, %s]\n", mark, res.Message, res.Entry.Source, res.Entry.Time)
}
