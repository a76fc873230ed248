package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Yashvanth1222/SiteScraper/internal/api"
	"github.com/Yashvanth1222/SiteScraper/internal/pipeline"
	"github.com/Yashvanth1222/SiteScraper/internal/publisher"
	"github.com/Yashvanth1222/SiteScraper/internal/scraper"
)

// errSEOFailed makes "score" exit non-zero without printing usage.
var errSEOFailed = errors.New("article failed SEO")

// runCmd creates the "run" subcommand.
func runCmd() *cobra.Command {
	var (
		sites    []string
		date     string
		backends []string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scrape, rewrite and publish in one pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			out, err := a.runAll(cmd.Context(), api.RunRequest{Sites: sites, Date: date, Backends: backends})
			if out != nil {
				printScrape(out.Scraped)
				if out.Pipeline != nil {
					printPipeline(out.Pipeline)
				}
				if out.Publish != nil {
					printPublish(out.Publish)
				}
			}
			return err
		},
	}
	cmd.Flags().StringSliceVar(&sites, "site", nil, "site to scrape (repeatable, default all)")
	cmd.Flags().StringVar(&date, "date", today(), "run date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&backends, "backend", nil, "publish backend: file, s3 (default from config)")
	return cmd
}

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	var sites []string
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Fetch configured sites into raw JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			results, err := a.scrape(cmd.Context(), sites)
			printScrape(results)
			return err
		},
	}
	cmd.Flags().StringSliceVar(&sites, "site", nil, "site to scrape (repeatable, default all)")
	return cmd
}

// rewriteCmd creates the "rewrite" subcommand.
func rewriteCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "rewrite",
		Short: "Deduplicate raw records and rewrite them into articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			summary, err := a.rewrite(cmd.Context(), date)
			if summary != nil {
				printPipeline(summary)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&date, "date", today(), "output date directory (YYYY-MM-DD)")
	return cmd
}

// publishCmd creates the "publish" subcommand.
func publishCmd() *cobra.Command {
	var (
		date       string
		backends   []string
		onlyPassed bool
	)
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Render processed articles to HTML and RSS and publish them",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			summary, err := a.publish(cmd.Context(), date, backends, onlyPassed)
			if err != nil {
				return err
			}
			printPublish(summary)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", today(), "processed date directory (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&backends, "backend", nil, "publish backend: file, s3 (default from config)")
	cmd.Flags().BoolVar(&onlyPassed, "only-passed", false, "skip articles below the SEO pass threshold")
	return cmd
}

// scoreCmd creates the "score" subcommand.
func scoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <file.md>",
		Short: "Score a processed article for SEO",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			meta, body, err := publisher.ParseFrontmatter(string(data))
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			title, _ := meta["title"].(string)
			description, _ := meta["meta_description"].(string)
			var keywords []string
			if kws, ok := meta["keywords"].([]any); ok {
				for _, k := range kws {
					if s, ok := k.(string); ok {
						keywords = append(keywords, s)
					}
				}
			}

			report := a.scorer().Score(title, description, body, keywords)
			fmt.Println(report.String())
			if !report.Passed {
				cmd.SilenceErrors = true
				return errSEOFailed
			}
			return nil
		},
	}
}

// feedCmd creates the "feed" subcommand.
func feedCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Assemble the published RSS items of a day into feed.xml",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			path, n, err := publisher.WriteFeed(a.cfg.Data.PublishedDir(), date, publisher.DefaultChannel(a.cfg.Publisher.BaseURL))
			if err != nil {
				return err
			}
			feed, err := publisher.VerifyFeed(path)
			if err != nil {
				return fmt.Errorf("verify %s: %w", path, err)
			}
			fmt.Printf("Feed written: %s (%d items, parsed %d)\n", path, n, len(feed.Items))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", today(), "published date directory (YYYY-MM-DD)")
	return cmd
}

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API and metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			ctx := cmd.Context()

			svc, err := publisher.NewServiceFromConfig(ctx, a.cfg, nil, a.publishOptions(false), a.metrics, a.logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			srv := api.NewServer(a.cfg.API.Port, a.logger)
			srv.SetScorer(a.scorer())
			srv.SetDedupThreshold(a.cfg.Dedup.Threshold)
			srv.SetArticles(svc)
			srv.SetMetrics(a.metrics.Handler())
			srv.SetRunner(func(ctx context.Context, req api.RunRequest) (any, error) {
				return a.runAll(ctx, req)
			})
			if err := srv.Start(ctx); err != nil {
				return err
			}

			<-ctx.Done()
			a.logger.Info("shutting down API server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func printScrape(results []scraper.Result) {
	if len(results) == 0 {
		return
	}
	fmt.Println("\nScrape:")
	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("   %-12s FAILED  %v\n", r.Site, r.Err)
			continue
		}
		fmt.Printf("   %-12s %3d records  %s\n", r.Site, r.Count, r.Path)
	}
}

func printPipeline(s *pipeline.Summary) {
	fmt.Printf("\nRewrite (%s, run %s):\n", s.Date, s.RunID)
	fmt.Printf("   Records:   %d loaded, %d unique\n", s.Loaded, s.Unique)
	fmt.Printf("   Articles:  %d rewritten, %d errors\n", s.Rewritten, s.Errors)
	fmt.Printf("   SEO:       %d/%d passed\n", s.Passed, s.Rewritten)
	for _, r := range s.Results {
		if r.Error != "" {
			continue
		}
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		fmt.Printf("   [%s %3d] %s\n", status, r.Score, filepath.Base(r.Path))
	}
}

func printPublish(s *publisher.Summary) {
	fmt.Printf("\nPublish (%s):\n", s.Date)
	fmt.Printf("   Articles:  %d formatted, %d filtered\n", s.Formatted, s.Filtered)
	fmt.Printf("   Results:   %d published, %d skipped, %d errors\n", s.Published, s.Skipped, s.Errors)
	for _, r := range s.Results {
		if r.Skipped {
			continue
		}
		fmt.Printf("   %-5s %s\n", r.Backend, r.Location)
	}
}
