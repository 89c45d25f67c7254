package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/apex/log"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/san-kum/nucleosynth/internal/analysis"
	"github.com/san-kum/nucleosynth/internal/catalog"
	"github.com/san-kum/nucleosynth/internal/config"
	"github.com/san-kum/nucleosynth/internal/export"
	"github.com/san-kum/nucleosynth/internal/extract"
	nlog "github.com/san-kum/nucleosynth/internal/log"
	"github.com/san-kum/nucleosynth/internal/loadsave"
	"github.com/san-kum/nucleosynth/internal/model"
	"github.com/san-kum/nucleosynth/internal/network"
	"github.com/san-kum/nucleosynth/internal/paths"
	"github.com/san-kum/nucleosynth/internal/plot"
	"github.com/san-kum/nucleosynth/internal/storage"
	"github.com/san-kum/nucleosynth/internal/table"
	"github.com/san-kum/nucleosynth/internal/tracer"
	"github.com/san-kum/nucleosynth/internal/viz"
)

var (
	configFile string
	rawDir     string
	cacheDir   string
	logLevel   string

	steps    []int
	reload   bool
	noSave   bool
	mass     float64
	group    string
	timestep float64
	outFile  string
	width    int
	height   int
	stroke   string
	theme    string
	step     int

	cfg *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "nucleosynth",
		Short:             "extract, cache and inspect nucleosynthesis mass tracers",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&rawDir, "raw", config.DefaultRawDir, "raw model output directory")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache", config.DefaultCacheDir, "cache directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	extractCmd := &cobra.Command{
		Use:   "extract [model] [tracer]",
		Short: "load a tracer, extracting and caching it if needed",
		Args:  cobra.ExactArgs(2),
		RunE:  runExtract,
	}
	addTracerFlags(extractCmd)

	infoCmd := &cobra.Command{
		Use:   "info [model] [tracer]",
		Short: "summarize a tracer",
		Args:  cobra.ExactArgs(2),
		RunE:  runInfo,
	}
	addTracerFlags(infoCmd)

	plotCmd := &cobra.Command{
		Use:   "plot [model] [tracer] [column]",
		Short: "plot a column or isotope versus time",
		Args:  cobra.ExactArgs(3),
		RunE:  runPlot,
	}
	addTracerFlags(plotCmd)
	plotCmd.Flags().String("kind", string(table.Columns), "table: stir, columns, X or Y")

	sumsCmd := &cobra.Command{
		Use:   "sums [model] [tracer]",
		Short: "composition summed over A or Z at one time",
		Args:  cobra.ExactArgs(2),
		RunE:  runSums,
	}
	addTracerFlags(sumsCmd)
	sumsCmd.Flags().String("kind", string(table.X), "composition: X or Y")
	sumsCmd.Flags().StringVar(&group, "group", string(network.GroupA), "group by A or Z")
	sumsCmd.Flags().Float64Var(&timestep, "timestep", -1, "time (s); the last sample when negative")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [model] [tracer]",
		Short: "write a table as CSV",
		Args:  cobra.ExactArgs(2),
		RunE:  runExportCSV,
	}
	addTracerFlags(exportCSVCmd)
	exportCSVCmd.Flags().String("kind", string(table.Columns), "table: stir, columns, X or Y")
	exportCSVCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [model] [tracer] [column]",
		Short: "write a column versus time as SVG",
		Args:  cobra.ExactArgs(3),
		RunE:  runExportSVG,
	}
	addTracerFlags(exportSVGCmd)
	exportSVGCmd.Flags().String("kind", string(table.Columns), "table: stir, columns, X or Y")
	exportSVGCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().IntVar(&width, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&height, "height", 400, "image height")
	exportSVGCmd.Flags().StringVar(&stroke, "stroke", "#00ff88", "line color")

	viewCmd := &cobra.Command{
		Use:   "view [model] [tracer]",
		Short: "browse a tracer's columns interactively",
		Args:  cobra.ExactArgs(2),
		RunE:  runView,
	}
	addTracerFlags(viewCmd)
	viewCmd.Flags().StringVar(&theme, "theme", viz.ThemeCyberpunk.Name, "color theme: "+strings.Join(viz.ThemeNames(), ", "))

	listCmd := &cobra.Command{
		Use:   "list [model]",
		Short: "list cached tracers",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runList,
	}

	tracersCmd := &cobra.Command{
		Use:   "tracers [model]",
		Short: "list tracer ids with raw output",
		Args:  cobra.ExactArgs(1),
		RunE:  runTracers,
	}
	tracersCmd.Flags().IntVar(&step, "step", 1, "step to scan")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage configuration",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the default configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err == nil {
				return fmt.Errorf("%s already exists", args[0])
			}
			if err := config.Save(args[0], config.DefaultConfig()); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(extractCmd, infoCmd, plotCmd, sumsCmd, exportCSVCmd, exportSVGCmd, viewCmd, listCmd, tracersCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addTracerFlags(cmd *cobra.Command) {
	cmd.Flags().IntSliceVar(&steps, "steps", nil, "steps to stitch, ascending (default from config, 1,2)")
	cmd.Flags().BoolVar(&reload, "reload", false, "ignore the cache and extract from raw output")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not write the cache artifact")
	cmd.Flags().Float64Var(&mass, "mass", config.DefaultMass, "tracer mass (Msun)")
}

// setup loads the config file, applies flags that were set explicitly, and
// configures logging.
func setup(cmd *cobra.Command, args []string) error {
	cfg = config.DefaultConfig()
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	}

	flags := cmd.Flags()
	if flags.Changed("raw") {
		cfg.RawDir = rawDir
	}
	if flags.Changed("cache") {
		cfg.CacheDir = cacheDir
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("mass") {
		cfg.Mass = mass
	}
	if flags.Changed("no-save") {
		cfg.Save = !noSave
	}

	level := logLevel
	if !flags.Changed("log-level") && os.Getenv(nlog.EnvLevel) == "" {
		level = cfg.LogLevel
	}
	return nlog.InitLogger(level)
}

func resolver() paths.Resolver {
	return paths.New(cfg.RawDir, cfg.CacheDir)
}

// openManager wires the extractor, store and catalog. The returned func
// releases the catalog.
func openManager() (*loadsave.Manager, func()) {
	r := resolver()
	opts := []loadsave.Option{loadsave.WithLogger(log.Log)}
	closer := func() {}
	if cfg.Save {
		cat, err := catalog.Open(r.CatalogPath())
		if err != nil {
			log.WithError(err).Warn("catalog unavailable, artifacts will not be indexed")
		} else {
			opts = append(opts, loadsave.WithCatalog(cat))
			closer = func() { cat.Close() }
		}
	}
	extr := extract.NewRaw(r, cfg.Tables, log.Log)
	return loadsave.New(extr, storage.New(r), opts...), closer
}

func loadTracer(args []string) (*tracer.Tracer, error) {
	id, err := strconv.Atoi(args[1])
	if err != nil {
		return nil, fmt.Errorf("invalid tracer id %q: %w", args[1], err)
	}
	m, closer := openManager()
	defer closer()

	return tracer.New(m, args[0], id, cfg.Steps,
		tracer.WithReload(reload),
		tracer.WithSave(cfg.Save),
		tracer.WithMass(cfg.Mass),
	)
}

func runExtract(cmd *cobra.Command, args []string) error {
	tr, err := loadTracer(args)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", tr.Title(), tr.Source())
	if err := tr.SaveErr(); err != nil {
		fmt.Printf("cache: not saved: %v\n", err)
	}
	if tr.Path() != "" {
		size := ""
		if info, err := os.Stat(tr.Path()); err == nil {
			size = " (" + humanize.Bytes(uint64(info.Size())) + ")"
		}
		fmt.Printf("cache: %s%s\n", tr.Path(), size)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tROWS\tCOLUMNS\tSTART\tEND")
	for _, k := range tr.Kinds() {
		writeTableRow(w, string(k), tr.Table(k))
	}
	for _, k := range table.CompKinds {
		if t := tr.Composition(k); t != nil {
			writeTableRow(w, string(k), t)
		}
	}
	return w.Flush()
}

func writeTableRow(w io.Writer, name string, t *table.Table) {
	start, end, _ := t.TimeSpan()
	fmt.Fprintf(w, "%s\t%s\t%d\t%g\t%g\n", name, humanize.Comma(int64(t.Len())), len(t.Names()), start, end)
}

func runInfo(cmd *cobra.Command, args []string) error {
	tr, err := loadTracer(args)
	if err != nil {
		return err
	}
	fmt.Println(viz.Summary(tr, viz.GetTheme(viz.ThemeCyberpunk.Name)))
	return nil
}

// selectTable returns the table named by kind and the scale key for column.
func selectTable(tr *tracer.Tracer, kind, column string) (*table.Table, string, error) {
	if ck, err := table.ParseCompKind(kind); err == nil {
		t := tr.Composition(ck)
		if t == nil {
			return nil, "", tracer.ErrNoOutput
		}
		return t, string(ck), nil
	}
	k, err := table.ParseKind(kind)
	if err != nil {
		return nil, "", err
	}
	t := tr.Table(k)
	if t == nil {
		return nil, "", fmt.Errorf("%w: no %s table", tracer.ErrNoOutput, k)
	}
	return t, column, nil
}

func runPlot(cmd *cobra.Command, args []string) error {
	tr, err := loadTracer(args)
	if err != nil {
		return err
	}
	kind, _ := cmd.Flags().GetString("kind")
	t, scaleKey, err := selectTable(tr, kind, args[2])
	if err != nil {
		return err
	}
	graph, err := plot.New(cfg.Plot).Column(t, args[2], scaleKey, tr.Title())
	if err != nil {
		return err
	}
	fmt.Println(graph)
	if v, at, err := analysis.Peak(t, args[2]); err == nil {
		fmt.Printf("\npeak %s: %.4e at t=%g\n", args[2], v, at)
	}
	return nil
}

func runSums(cmd *cobra.Command, args []string) error {
	kind, _ := cmd.Flags().GetString("kind")
	ck, err := table.ParseCompKind(kind)
	if err != nil {
		return err
	}
	g := network.Group(strings.ToUpper(group))
	if g != network.GroupA && g != network.GroupZ {
		return fmt.Errorf("unknown group %q (want A or Z)", group)
	}

	tr, err := loadTracer(args)
	if err != nil {
		return err
	}
	sums, err := tr.Sums(ck, g)
	if err != nil {
		return err
	}

	row := sums.Len() - 1
	if timestep >= 0 {
		if row, err = analysis.NearestIndex(sums.Times(), timestep); err != nil {
			return err
		}
	}

	graph, err := plot.New(cfg.Plot).Sums(sums, row, ck, g, tr.Title())
	if err != nil {
		return err
	}
	fmt.Println(graph)
	fmt.Println()
	fmt.Println(plot.Heading(fmt.Sprintf("%s %s by %s", tr.Title(), ck, g)))
	return plot.WriteSums(os.Stdout, sums, row, ck, g)
}

func output() (io.Writer, func() error, error) {
	if outFile == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", outFile, err)
	}
	return f, f.Close, nil
}

func runExportCSV(cmd *cobra.Command, args []string) error {
	tr, err := loadTracer(args)
	if err != nil {
		return err
	}
	kind, _ := cmd.Flags().GetString("kind")
	t, _, err := selectTable(tr, kind, "")
	if err != nil {
		return err
	}
	w, done, err := output()
	if err != nil {
		return err
	}
	if err := export.WriteCSV(w, t); err != nil {
		done()
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return done()
}

func runExportSVG(cmd *cobra.Command, args []string) error {
	tr, err := loadTracer(args)
	if err != nil {
		return err
	}
	column := args[2]
	kind, _ := cmd.Flags().GetString("kind")
	t, scaleKey, err := selectTable(tr, kind, column)
	if err != nil {
		return err
	}
	p := plot.New(cfg.Plot)
	svg, err := export.ColumnSVG(t, column, width, height, stroke, p.Scale(scaleKey) == plot.Log)
	if err != nil {
		return err
	}
	w, done, err := output()
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, svg+"\n"); err != nil {
		done()
		return err
	}
	if outFile != "" {
		fmt.Fprintf(os.Stderr, "wrote %s\n", outFile)
	}
	return done()
}

func runView(cmd *cobra.Command, args []string) error {
	tr, err := loadTracer(args)
	if err != nil {
		return err
	}
	b := viz.NewBrowser(tr, plot.New(cfg.Plot), viz.GetTheme(theme))
	_, err = tea.NewProgram(b, tea.WithAltScreen()).Run()
	return err
}

func runList(cmd *cobra.Command, args []string) error {
	r := resolver()
	if _, err := os.Stat(r.CatalogPath()); err != nil {
		fmt.Println("no cached tracers")
		return nil
	}
	cat, err := catalog.Open(r.CatalogPath())
	if err != nil {
		return err
	}
	defer cat.Close()

	modelName := ""
	if len(args) > 0 {
		modelName = args[0]
	}
	entries, err := cat.List(context.Background(), modelName)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no cached tracers")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tTRACER\tSTEPS\tROWS\tSIZE\tSAVED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n",
			e.Key.Model,
			e.Key.TracerID,
			paths.StepsLabel(e.Key.Steps),
			humanize.Comma(int64(e.Rows)),
			humanize.Bytes(uint64(e.Bytes)),
			humanize.Time(e.SavedAt),
		)
	}
	return w.Flush()
}

func runTracers(cmd *cobra.Command, args []string) error {
	m, err := model.Open(resolver(), args[0])
	if err != nil {
		return err
	}
	ids, err := m.Tracers(step)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Printf("no tracers in %s step %d\n", m.Name, step)
		return nil
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	fmt.Printf("%s step %d: %s tracers\n", m.Name, step, humanize.Comma(int64(len(ids))))
	fmt.Println(strings.Join(parts, " "))
	return nil
}
