package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/argo-mcp/argo/internal/executor"
)

// BrowserBackend is the browser-automation collaborator. Only its interface
// lives here; a real deployment wires a concrete client in.
type BrowserBackend interface {
	Navigate(ctx context.Context, url string) error
	Screenshot(ctx context.Context) (ref string, err error)
	ExtractText(ctx context.Context) (string, error)
}

// TravelDataProvider is the out-of-scope travel-research collaborator
//, represented the same way.
type TravelDataProvider interface {
	Search(ctx context.Context, query string) (results string, err error)
}

// BrowserNavigate drives a headless-browser session end to end, emitting
// screenshot progress events as it goes.
func BrowserNavigate(backend BrowserBackend) executor.Processor {
	return func(ctx context.Context, task *executor.TaskExecution, report executor.Reporter) error {
		report.Progress(10, "navigating")
		if err := backend.Navigate(ctx, task.OriginalQuery); err != nil {
			return fmt.Errorf("browser_navigate: navigate: %w", err)
		}
		if report.Cancelled() {
			return nil
		}

		report.Progress(60, "capturing screenshot")
		ref, err := backend.Screenshot(ctx)
		if err != nil {
			return fmt.Errorf("browser_navigate: screenshot: %w", err)
		}
		report.Screenshot(ref)
		if report.Cancelled() {
			return nil
		}

		report.Progress(90, "extracting page text")
		text, err := backend.ExtractText(ctx)
		if err != nil {
			return fmt.Errorf("browser_navigate: extract text: %w", err)
		}
		report.Result(text)
		report.Progress(100, "complete")
		return nil
	}
}

// TravelSearch queries one or more travel-data providers and accumulates
// extractedResults.
func TravelSearch(providers []TravelDataProvider) executor.Processor {
	return func(ctx context.Context, task *executor.TaskExecution, report executor.Reporter) error {
		if len(providers) == 0 {
			return fmt.Errorf("travel_search: no travel-data providers configured")
		}

		results := make([]string, 0, len(providers))
		for i, p := range providers {
			if report.Cancelled() {
				return nil
			}
			percent := 10 + (80 * i / len(providers))
			report.Progress(percent, fmt.Sprintf("querying provider %d/%d", i+1, len(providers)))

			r, err := p.Search(ctx, task.OriginalQuery)
			if err != nil {
				return fmt.Errorf("travel_search: provider %d: %w", i, err)
			}
			results = append(results, r)
		}

		report.Result(fmt.Sprintf("%v", results))
		report.Progress(100, "complete")
		return nil
	}
}

// PageExtract fetches a page and extracts structured content. It reuses the
// browser backend's text-extraction step without a full navigate+screenshot
// cycle.
func PageExtract(backend BrowserBackend) executor.Processor {
	return func(ctx context.Context, task *executor.TaskExecution, report executor.Reporter) error {
		report.Progress(20, "fetching page")
		if err := backend.Navigate(ctx, task.OriginalQuery); err != nil {
			return fmt.Errorf("page_extract: navigate: %w", err)
		}
		if report.Cancelled() {
			return nil
		}

		report.Progress(70, "extracting structured content")
		text, err := backend.ExtractText(ctx)
		if err != nil {
			return fmt.Errorf("page_extract: extract text: %w", err)
		}
		report.Result(text)
		report.Progress(100, "complete")
		return nil
	}
}

// noopBrowserBackend is a harmless stand-in used when no real backend is
// configured, so the task executor always has a routable processor for
// every declared taskType even before a real browser backend is wired in.
type noopBrowserBackend struct{}

func (noopBrowserBackend) Navigate(context.Context, string) error { return nil }
func (noopBrowserBackend) Screenshot(context.Context) (string, error) {
	return fmt.Sprintf("screenshot-%d.png", time.Now().UnixNano()), nil
}
func (noopBrowserBackend) ExtractText(context.Context) (string, error) {
	return "", nil
}

// NoopBrowserBackend returns a BrowserBackend stand-in for deployments that
// have not yet wired a real browser-automation client.
func NoopBrowserBackend() BrowserBackend { return noopBrowserBackend{} }
