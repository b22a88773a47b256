package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/dnswlt/yamlasset/internal/api"
	"github.com/dnswlt/yamlasset/internal/asset"
	"github.com/dnswlt/yamlasset/internal/config"
	"github.com/dnswlt/yamlasset/internal/gitclient"
	"github.com/dnswlt/yamlasset/internal/pipeline"
	"github.com/dnswlt/yamlasset/internal/repo"
	"github.com/dnswlt/yamlasset/internal/report"
	"github.com/dnswlt/yamlasset/internal/store"
	"github.com/peterbourgon/ff/v3"
)

var (
	// Version is the application version.
	// It is set at build time via -ldflags "-X main.Version=...".
	Version = "dev"
)

const usage = `Usage: yamlasset <command> [flags]

Commands:
  process   run the pipeline over all assets and save them
  clone     copy an asset, including its attached metadata
  report    write a markdown and HTML report of attached metadata
  refs      list the branches and tags of the git source
  version   print the version
`

func gitClientAuthFromEnv() *gitclient.Auth {
	user := os.Getenv("YAMLASSET_GIT_USER")
	if user == "" {
		return nil
	}
	pass := os.Getenv("YAMLASSET_GIT_PASSWORD")
	return &gitclient.Auth{
		Username: user,
		Password: pass,
	}
}

// Options contains program options that can be set via command-line flags or environment variables.
type Options struct {
	RootDir    string
	GitURL     string
	GitRef     string
	GitRootDir string
	ConfigFile string
	AssetsDir  string
	OutDir     string
}

func (o *Options) registerSourceFlags(fs *flag.FlagSet) {
	fs.StringVar(&o.RootDir, "root-dir", ".", "Root directory of the local data store")
	fs.StringVar(&o.GitURL, "git-url", "", "URL of the git repository to use as the (read-only) data store")
	fs.StringVar(&o.GitRef, "git-ref", "", "Git ref (branch or tag) to read. Defaults to the default branch")
	fs.StringVar(&o.GitRootDir, "git-root-dir", "", "Directory within the git repository that acts as the store root")
	fs.StringVar(&o.ConfigFile, "config", "", "Path to the configuration YAML file (relative to the store root). Optional")
	fs.StringVar(&o.AssetsDir, "assets-dir", "", "Directory containing the asset YAML files (relative to the store root). Overrides the config")
}

func parseFlags(fs *flag.FlagSet, args []string) {
	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix("YAMLASSET")); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		os.Exit(1)
	}
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "process":
		runProcess(os.Args[2:])
	case "clone":
		runClone(os.Args[2:])
	case "report":
		runReport(os.Args[2:])
	case "refs":
		runRefs(os.Args[2:])
	case "version":
		fmt.Println(Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", os.Args[1], usage)
		os.Exit(1)
	}
}

func runProcess(args []string) {
	var opts Options
	var dryRun bool
	var timeout time.Duration
	fs := flag.NewFlagSet("yamlasset process", flag.ExitOnError)
	opts.registerSourceFlags(fs)
	fs.StringVar(&opts.OutDir, "out-dir", "", "Write processed assets to this local directory instead of the source store")
	fs.BoolVar(&dryRun, "dry-run", false, "Run the pipeline but do not save any assets")
	fs.DurationVar(&timeout, "timeout", 0, "Maximum duration of the pipeline run (0 means no limit)")
	parseFlags(fs, args)
	log.Printf("Using config from flags/env vars: %+v", opts)

	st, bundle := loadStore(opts)
	r := loadRepo(st, bundle)

	reg, err := pipeline.NewRegistry(&bundle.Pipeline)
	if err != nil {
		log.Fatalf("Invalid pipeline configuration: %v", err)
	}
	log.Printf("Starting pipeline run %s with stages %v", reg.RunID(), reg.StageNames())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := reg.RunAll(ctx, r.Assets()); err != nil {
		log.Fatalf("Pipeline run failed: %v", err)
	}

	if dryRun {
		log.Printf("Dry run, not saving %d assets", r.Len())
		return
	}
	if err := r.Save(outputStore(opts, st)); err != nil {
		log.Fatalf("Failed to save assets: %v", err)
	}
}

func runClone(args []string) {
	var opts Options
	var refStr, newName string
	fs := flag.NewFlagSet("yamlasset clone", flag.ExitOnError)
	opts.registerSourceFlags(fs)
	fs.StringVar(&opts.OutDir, "out-dir", "", "Write assets to this local directory instead of the source store")
	fs.StringVar(&refStr, "ref", "", "Reference of the asset to clone, e.g. texture:env/brick-wall")
	fs.StringVar(&newName, "name", "", "Name of the new asset")
	parseFlags(fs, args)
	if refStr == "" || newName == "" {
		log.Fatalf("Both -ref and -name must be specified")
	}
	ref, err := api.ParseRef(refStr)
	if err != nil {
		log.Fatalf("Invalid -ref: %v", err)
	}

	st, bundle := loadStore(opts)
	r := loadRepo(st, bundle)
	cpy, err := r.Clone(ref, newName)
	if err != nil {
		log.Fatalf("Failed to clone %s: %v", ref, err)
	}
	if err := r.Save(outputStore(opts, st)); err != nil {
		log.Fatalf("Failed to save assets: %v", err)
	}
	log.Printf("Cloned %s to %s", ref, cpy.GetRef())
}

func runReport(args []string) {
	var opts Options
	fs := flag.NewFlagSet("yamlasset report", flag.ExitOnError)
	opts.registerSourceFlags(fs)
	fs.StringVar(&opts.OutDir, "out-dir", "report", "Local output directory for the report")
	parseFlags(fs, args)

	st, bundle := loadStore(opts)
	r := loadRepo(st, bundle)
	gen, err := report.NewGenerator(r, bundle.Report)
	if err != nil {
		log.Fatalf("Invalid report configuration: %v", err)
	}
	if err := gen.Generate(store.NewDiskStore(opts.OutDir), "."); err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}
	log.Printf("Report generated in %q", opts.OutDir)
}

func runRefs(args []string) {
	var opts Options
	fs := flag.NewFlagSet("yamlasset refs", flag.ExitOnError)
	opts.registerSourceFlags(fs)
	parseFlags(fs, args)
	if opts.GitURL == "" {
		log.Fatalf("-git-url must be specified")
	}
	src := createGitSource(opts)
	refs, err := src.ListReferences()
	if err != nil {
		log.Fatalf("Failed to list references: %v", err)
	}
	for _, ref := range refs {
		marker := " "
		if ref == src.DefaultRef() {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, ref)
	}
}

func createGitSource(opts Options) *store.GitSource {
	auth := gitClientAuthFromEnv()
	log.Printf("Retrieving assets from git URL %s", opts.GitURL)
	client, err := gitclient.New(opts.GitURL, auth)
	if err != nil {
		log.Fatalf("Failed to retrieve git repo: %v", err)
	}
	ref := opts.GitRef
	if ref == "" {
		ref, err = client.DefaultBranch()
		if err != nil {
			log.Fatalf("No git-ref specified and no default branch found: %v", err)
		}
	}
	log.Printf("Using git ref %q", ref)
	return store.NewGitSource(client, ref, opts.GitRootDir)
}

func createSource(opts Options) store.Source {
	if opts.GitURL != "" {
		return createGitSource(opts)
	} else if opts.RootDir != "" {
		log.Printf("Using local store at %s", opts.RootDir)
		return store.NewDiskStore(opts.RootDir)
	} else {
		log.Fatalf("Neither -root-dir nor -git-url specified")
		return nil
	}
}

// loadStore opens the store selected by opts and reads the config bundle from it.
func loadStore(opts Options) (store.Store, *config.Bundle) {
	st, err := createSource(opts).Store("")
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	bundle := &config.Bundle{AssetsDir: "."}
	if opts.ConfigFile != "" {
		bundle, err = config.Load(st, opts.ConfigFile)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	if opts.AssetsDir != "" {
		bundle.AssetsDir = opts.AssetsDir
	}
	return st, bundle
}

func loadRepo(st store.Store, bundle *config.Bundle) *repo.Repository {
	r, err := repo.Load(st, bundle.Repository, bundle.AssetsDir, asset.NewRegistry())
	if err != nil {
		log.Fatalf("Failed to load assets: %v", err)
	}
	log.Printf("Read %d assets from %d files in %s", r.Len(), len(r.Files()), bundle.AssetsDir)
	return r
}

// outputStore returns the store that processed assets are written to.
func outputStore(opts Options, st store.Store) store.Store {
	if opts.OutDir != "" {
		return store.NewDiskStore(opts.OutDir)
	}
	if opts.GitURL != "" {
		log.Fatalf("The git store is read-only, use -out-dir to write assets to a local directory")
	}
	return st
}
