package engine

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/ivlev/postframe/internal/composition"
	"github.com/ivlev/postframe/internal/renderer"
	"github.com/ivlev/postframe/internal/system"
)

// Job is one composition to export to Output.
type Job struct {
	Name   string
	State  composition.State
	Output string
}

type Result struct {
	Job Job
	Err error
}

// Report is the timing summary of a batch.
type Report struct {
	Jobs   int
	Failed int
	Total  time.Duration
	Render time.Duration
	Write  time.Duration
}

func (r Report) String() string {
	fps := 0.0
	if r.Total > 0 {
		fps = float64(r.Jobs-r.Failed) / r.Total.Seconds()
	}
	return fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Frames: %d (failed %d)\n"+
			"Total Time: %.2fs\n"+
			"Rendering: %.2fs\n"+
			"Writing: %.2fs\n"+
			"Frames/s: %.2f\n"+
			"----------------------------\n",
		r.Jobs, r.Failed, r.Total.Seconds(), r.Render.Seconds(), r.Write.Seconds(), fps,
	)
}

type rendered struct {
	index int
	img   *image.RGBA
}

// RunBatch exports every job. Renders run on up to workers goroutines, each
// with its own renderer from newRenderer; PNG writes run on a smaller pool.
// Exports never carry the safe-area guide.
func RunBatch(ctx context.Context, jobs []Job, workers int, newRenderer func() *renderer.Renderer) ([]Result, Report) {
	start := time.Now()
	results := make([]Result, len(jobs))
	for i, j := range jobs {
		results[i].Job = j
	}
	if len(jobs) == 0 {
		return results, Report{}
	}

	queue := make(chan int, len(jobs))
	renders := make(chan rendered, len(jobs))

	numRenderWorkers := min(max(workers, 1), len(jobs))
	numWriteWorkers := min(4, len(jobs))

	var wgRender, wgWrite sync.WaitGroup
	for w := 0; w < numRenderWorkers; w++ {
		wgRender.Add(1)
		go func() {
			defer wgRender.Done()
			r := newRenderer()
			for i := range queue {
				f := jobs[i].State.Frame()
				img := system.GetImage(image.Rect(0, 0, f.Width, f.Height))
				if err := r.RenderInto(ctx, img, jobs[i].State, renderer.Options{}); err != nil {
					system.PutImage(img)
					results[i].Err = fmt.Errorf("render: %w", err)
					log.Printf("[!] %s: %v", jobs[i].Name, results[i].Err)
					continue
				}
				renders <- rendered{index: i, img: img}
			}
		}()
	}

	for w := 0; w < numWriteWorkers; w++ {
		wgWrite.Add(1)
		go func() {
			defer wgWrite.Done()
			for res := range renders {
				job := jobs[res.index]
				err := writePNG(job.Output, res.img)
				system.PutImage(res.img)
				if err != nil {
					results[res.index].Err = err
					log.Printf("[!] %s: %v", job.Name, err)
					continue
				}
				fmt.Printf("[>] Ready: %s\n", job.Output)
			}
		}()
	}

	renderStart := time.Now()
	for i := range jobs {
		queue <- i
	}
	close(queue)

	wgRender.Wait()
	renderEnd := time.Now()
	close(renders)
	wgWrite.Wait()

	rep := Report{
		Jobs:   len(jobs),
		Total:  time.Since(start),
		Render: renderEnd.Sub(renderStart),
		Write:  time.Since(renderStart),
	}
	for _, r := range results {
		if r.Err != nil {
			rep.Failed++
		}
	}
	return results, rep
}

func writePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// AppendBenchmark adds one line for rep to the log at path.
func AppendBenchmark(path, build string, rep Report) error {
	entry := fmt.Sprintf("[%s] Build: %s | Frames: %d | Failed: %d | Total: %.2fs | Render: %.2fs | Write: %.2fs\n",
		time.Now().Format("2006-01-02 15:04:05"),
		build, rep.Jobs, rep.Failed, rep.Total.Seconds(), rep.Render.Seconds(), rep.Write.Seconds(),
	)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(entry)
	return err
}
