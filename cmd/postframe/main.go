package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/ivlev/postframe/internal/analyzer"
	"github.com/ivlev/postframe/internal/api"
	"github.com/ivlev/postframe/internal/composition"
	"github.com/ivlev/postframe/internal/config"
	"github.com/ivlev/postframe/internal/emoji"
	"github.com/ivlev/postframe/internal/engine"
	"github.com/ivlev/postframe/internal/export"
	"github.com/ivlev/postframe/internal/renderer"
	"github.com/ivlev/postframe/internal/source"
	"github.com/ivlev/postframe/internal/system"
)

var buildVersion = "dev"

func main() {
	system.InitResourceLimits()

	configPtr := flag.String("config", "postframe.yaml", "Config file (optional)")
	scenePtr := flag.String("scene", "", "Scene YAML (default: newest file in scenes/)")
	outputPtr := flag.String("output", "", "Output PNG (default: generated name in the download dir)")
	photoPtr := flag.String("photo", "", "Photo, PDF or folder (overrides the scene)")
	blurPtr := flag.String("blur-photo", "", "Separate blur background (overrides the scene)")
	pagePtr := flag.Int("page", 0, "PDF page or folder index")
	previewPtr := flag.Bool("preview", false, "Write the preview (guide as in the scene) instead of the export")
	watchPtr := flag.Bool("watch", false, "Re-render when the scene or photo changes")
	servePtr := flag.String("serve", "", "Start the HTTP API on this address, e.g. :8080")
	deliverPtr := flag.String("deliver", "auto", "Delivery: auto, download, share, clipboard")
	presetPtr := flag.String("preset", "", "Device preset: mobile, desktop, offline")
	productPtr := flag.String("product", "", "Product name used in file names")
	overlaysPtr := flag.String("overlays", "", "Overlay asset directory")
	fontsPtr := flag.String("fonts", "", "Extra font directories, comma separated")
	emojiDirPtr := flag.String("emoji-dir", "", "Local twemoji PNG directory")
	detectorPtr := flag.String("detector", "", "Subject detector for crop: contrast, center, none")
	batchPtr := flag.String("batch", "", "Export every scene in this directory")
	workersPtr := flag.Int("workers", 0, "Parallel renders in batch mode")
	statsPtr := flag.Bool("stats", false, "Print timings and memory usage")
	initPtr := flag.Bool("init", false, "Write a default scene to -scene and exit")

	flag.Parse()

	cfg, err := config.Load(*configPtr)
	if err != nil {
		log.Fatalf("[-] Config error: %v", err)
	}
	cfg.BuildVersion = buildVersion

	// Only flags given on the command line override the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scene":
			cfg.ScenePath = *scenePtr
		case "output":
			cfg.OutputPath = *outputPtr
		case "photo":
			cfg.PhotoPath = *photoPtr
		case "blur-photo":
			cfg.BlurPath = *blurPtr
		case "page":
			cfg.Page = *pagePtr
		case "preview":
			cfg.Preview = *previewPtr
		case "watch":
			cfg.Watch = *watchPtr
		case "serve":
			cfg.ServeAddr = *servePtr
		case "deliver":
			cfg.Deliver = *deliverPtr
		case "product":
			cfg.Product = *productPtr
		case "overlays":
			cfg.OverlayDir = *overlaysPtr
		case "fonts":
			cfg.FontDirs = append(cfg.FontDirs, strings.Split(*fontsPtr, ",")...)
		case "emoji-dir":
			cfg.EmojiDir = *emojiDirPtr
		case "detector":
			cfg.Detector = *detectorPtr
		case "workers":
			cfg.Workers = *workersPtr
		case "stats":
			cfg.ShowStats = *statsPtr
		}
	})
	if err := cfg.ApplyPreset(*presetPtr); err != nil {
		log.Fatalf("[-] %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] %v", err)
	}

	if *initPtr {
		path := cfg.ScenePath
		if path == "" {
			path = filepath.Join("scenes", "scene.yaml")
		}
		os.MkdirAll(filepath.Dir(path), 0755)
		sc := composition.DefaultScene()
		if err := composition.WriteScene(&sc, path); err != nil {
			log.Fatalf("[-] Could not write scene: %v", err)
		}
		fmt.Printf("[+++] Scene written: %s\n", path)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app, err := newApp(ctx, cfg)
	if err != nil {
		log.Fatalf("[-] %v", err)
	}

	switch {
	case cfg.ServeAddr != "":
		err = app.serve(ctx)
	case *batchPtr != "":
		err = app.batch(ctx, *batchPtr)
	default:
		err = app.single(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("[-] %v", err)
	}
}

// app holds what every mode shares: fonts, glyphs, overlays and the detector.
type app struct {
	cfg      *config.Config
	fonts    *renderer.FontCache
	glyphs   *emoji.Cache
	overlays *source.Catalog
	detector analyzer.Detector
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	detector, err := analyzer.NewDetector(cfg.Detector)
	if err != nil {
		return nil, err
	}

	var providers emoji.Chain
	if cfg.EmojiDir != "" {
		providers = append(providers, emoji.DirProvider{Dir: cfg.EmojiDir})
	}
	if !cfg.Offline {
		providers = append(providers, emoji.NewHTTPProvider(cfg.EmojiBaseURL, cfg.EmojiTimeout))
	}

	catalog, err := source.LoadCatalog(ctx, cfg.OverlayDir, cfg.Workers)
	if err != nil {
		return nil, err
	}
	fmt.Printf("[*] Overlays loaded: %d/%d from %s\n", catalog.Loaded(), len(composition.OverlayKeys()), cfg.OverlayDir)

	return &app{
		cfg:      cfg,
		fonts:    renderer.NewFontCache(cfg.FontDirs...),
		glyphs:   emoji.NewCache(providers),
		overlays: catalog,
		detector: detector,
	}, nil
}

func (a *app) newRenderer() *renderer.Renderer {
	return renderer.New(a.fonts.Clone(), renderer.WithGlyphs(a.glyphs), renderer.WithOverlays(a.overlays))
}

func (a *app) inputs() engine.Inputs {
	return engine.Inputs{Photo: a.photoPath(a.cfg.PhotoPath), BlurPhoto: a.photoPath(a.cfg.BlurPath), Page: a.cfg.Page}
}

// photoPath resolves a folder to its newest image.
func (a *app) photoPath(p string) string {
	if p == "" {
		return ""
	}
	if fi, err := os.Stat(p); err == nil && fi.IsDir() && a.cfg.Page == 0 {
		if latest, err := system.FindLatestImage(p); err == nil {
			fmt.Printf("[*] Selected photo: %s\n", latest)
			return latest
		}
	}
	return p
}

func (a *app) scenePath() (string, error) {
	if a.cfg.ScenePath != "" {
		return a.cfg.ScenePath, nil
	}
	latest, err := system.FindLatest("scenes", system.SceneExtensions)
	if err != nil {
		return "", fmt.Errorf("%v. Create one with -init", err)
	}
	fmt.Printf("[*] Selected scene: %s\n", latest)
	return latest, nil
}

// loadState reads the scene; bitmaps that fail to load are logged and left out.
func (a *app) loadState(ctx context.Context, path string) (composition.State, error) {
	sc, err := composition.ReadScene(path)
	if err != nil {
		return composition.State{}, err
	}
	st, err := engine.ComposeScene(ctx, sc, filepath.Dir(path), a.inputs(), a.detector)
	if err != nil {
		log.Printf("[!] %v", err)
	}
	a.preload(ctx, st)
	return st, nil
}

func (a *app) preload(ctx context.Context, st composition.State) {
	texts := []string{st.Banner.Text}
	for _, b := range st.Boxes {
		texts = append(texts, b.Text)
	}
	if err := a.glyphs.Preload(ctx, texts...); err != nil {
		log.Printf("[!] %v", err)
	}
}

func (a *app) single(ctx context.Context) error {
	start := time.Now()
	path, err := a.scenePath()
	if err != nil {
		return err
	}
	st, err := a.loadState(ctx, path)
	if err != nil {
		return err
	}

	session := engine.NewSession(a.newRenderer(), st, a.detector)
	if err := session.Refresh(ctx); err != nil {
		return err
	}
	if err := a.emit(ctx, session); err != nil {
		return err
	}
	a.report(time.Since(start))

	if !a.cfg.Watch {
		return nil
	}

	watched := []string{path}
	if in := a.inputs(); in.Photo != "" {
		watched = append(watched, in.Photo)
	}
	fmt.Printf("[*] Watching %s (Ctrl+C to stop)\n", strings.Join(watched, ", "))
	return engine.Watch(ctx, 150*time.Millisecond, func(changed string) {
		start := time.Now()
		st, err := a.loadState(ctx, path)
		if err != nil {
			log.Printf("[!] Reload failed: %v", err)
			return
		}
		if err := session.Apply(ctx, func(composition.State) composition.State { return st }); err != nil {
			log.Printf("[!] Render failed: %v", err)
			return
		}
		if err := a.emit(ctx, session); err != nil {
			log.Printf("[!] %v", err)
		}
		a.report(time.Since(start))
	}, watched...)
}

// emit writes the preview or delivers the export.
func (a *app) emit(ctx context.Context, session *engine.Session) error {
	if a.cfg.Preview {
		out := a.cfg.OutputPath
		if out == "" {
			out = filepath.Join(a.cfg.DownloadDir, "preview.png")
		}
		data, err := export.EncodePNG(session.Surface())
		if err != nil {
			return err
		}
		os.MkdirAll(filepath.Dir(out), 0755)
		if err := os.WriteFile(out, data, 0644); err != nil {
			return err
		}
		fmt.Printf("[+++] Preview: %s\n", out)
		return nil
	}

	exp := export.NewExporter(session, a.cfg.Product, export.FileDownloader{Dir: a.cfg.DownloadDir})

	if a.cfg.OutputPath != "" {
		data, err := exp.ExportFrame(ctx)
		if err != nil {
			return err
		}
		os.MkdirAll(filepath.Dir(a.cfg.OutputPath), 0755)
		if err := os.WriteFile(a.cfg.OutputPath, data, 0644); err != nil {
			return err
		}
		fmt.Printf("[+++] Success! Result: %s\n", a.cfg.OutputPath)
		return nil
	}

	clipboard := a.cfg.ClipboardCommand
	if len(clipboard) == 0 {
		clipboard = export.ClipboardCommand()
	}
	exp.Share = export.CommandSharer{Command: a.cfg.ShareCommand}
	exp.Clipboard = export.CommandClipboard{Command: clipboard}

	method, err := export.ParseMethod(a.cfg.Deliver)
	if err != nil {
		return err
	}
	platform := export.DetectPlatform(a.cfg.Platform == "mobile", a.cfg.ShareCommand, clipboard)

	out, err := exp.Deliver(ctx, method, platform)
	if err != nil {
		return err
	}
	switch {
	case out.Cancelled:
		fmt.Println("[*] Cancelled")
	case out.FellBack:
		fmt.Printf("[+++] Saved instead: %s\n", out.Location)
	default:
		fmt.Printf("[+++] Success! %s: %s\n", out.Method, out.Location)
	}
	return nil
}

func (a *app) batch(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	outDir := a.cfg.OutputPath
	if outDir == "" {
		outDir = a.cfg.DownloadDir
	}

	var jobs []engine.Job
	for _, e := range entries {
		if e.IsDir() || !isScene(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		st, err := a.loadState(ctx, path)
		if err != nil {
			log.Printf("[!] Skipping %s: %v", path, err)
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		jobs = append(jobs, engine.Job{
			Name:   name,
			State:  st,
			Output: filepath.Join(outDir, fmt.Sprintf("%s-%s.png", name, st.Ratio.Slug())),
		})
	}
	if len(jobs) == 0 {
		return fmt.Errorf("no scenes in %s", dir)
	}

	fmt.Printf("[*] Batch: %d scenes, %d workers\n", len(jobs), a.cfg.Workers)
	_, rep := engine.RunBatch(ctx, jobs, a.cfg.Workers, a.newRenderer)
	if a.cfg.ShowStats {
		fmt.Print(rep)
		a.report(rep.Total)
		if err := engine.AppendBenchmark("benchmark.log", a.cfg.BuildVersion, rep); err != nil {
			fmt.Printf("[!] Could not write benchmark.log: %v\n", err)
		}
	}
	if rep.Failed > 0 {
		return fmt.Errorf("%d of %d scenes failed", rep.Failed, rep.Jobs)
	}
	return nil
}

func isScene(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range system.SceneExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func (a *app) serve(ctx context.Context) error {
	s := api.NewServer(a.fonts, a.detector, renderer.WithGlyphs(a.glyphs), renderer.WithOverlays(a.overlays))
	s.Product = a.cfg.Product
	s.Version = a.cfg.BuildVersion
	s.PublicURL = publicURL(a.cfg.ServeAddr)

	fmt.Printf("[*] Serving on %s\n", s.PublicURL)
	if art, err := api.TerminalQR(s.PublicURL); err == nil {
		fmt.Print(art)
	}

	router := api.NewRouter(s)
	errc := make(chan error, 1)
	go func() { errc <- router.Run(a.cfg.ServeAddr) }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errc:
		return err
	}
}

// publicURL guesses a LAN address for addr so a phone on the same network
// can reach the server.
func publicURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
		if conn, err := net.Dial("udp", "8.8.8.8:80"); err == nil {
			host = conn.LocalAddr().(*net.UDPAddr).IP.String()
			conn.Close()
		}
	}
	return "http://" + net.JoinHostPort(host, port)
}

func (a *app) report(elapsed time.Duration) {
	if !a.cfg.ShowStats {
		return
	}
	fmt.Printf("[*] Done in %.2fs\n", elapsed.Seconds())
	if s, err := system.MemoryStats(); err == nil {
		fmt.Printf("[*] Memory: %s\n", s)
	} else {
		log.Printf("[!] Memory stats: %v", err)
	}
}
