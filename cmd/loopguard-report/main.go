package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"loopguard/internal/core/version"
	"loopguard/internal/modkit"
	"loopguard/internal/modkit/module"
	"loopguard/internal/platform/config"
	perr "loopguard/internal/platform/errors"
	"loopguard/internal/platform/logger"

	reportdom "loopguard/internal/services/report/domain"
	reportmod "loopguard/internal/services/report/module"
)

const service = "loopguard-report"

func main() { os.Exit(run()) }

func run() int {
	var (
		samplesPath = flag.String("samples", "", "samples YAML (default: embedded samples)")
		profileName = flag.String("profile", "chinese", "parameter profile: a name from -profiles, or chinese | zh | default")
		profilesIn  = flag.String("profiles", "", "YAML profiles file searched before the built-in profiles")
		asJSON      = flag.Bool("json", false, "emit JSON instead of text")
		envFile     = flag.String("env", "", "dotenv file to load (default .env when present)")
		showVer     = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVer {
		fmt.Println(version.Info(service))
		return 0
	}

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	if err := config.LoadDotEnv(envFiles...); err != nil {
		fmt.Fprintln(os.Stderr, "load env:", err)
		return 2
	}
	l := logger.Named(service)

	m, err := reportmod.New(modkit.Deps{Cfg: config.New(), Log: *l}, reportmod.Options{
		Profile:      *profileName,
		ProfilesPath: *profilesIn,
		SamplesPath:  *samplesPath,
	})
	if err != nil {
		l.Error().Err(err).Msg("report module")
		return perr.ExitCode(err)
	}
	module.RegisterModule(m)

	r, ok := module.PortsAs[reportdom.ReporterPort](reportmod.Name)
	if !ok {
		l.Error().Strs("modules", module.Names()).Msg("reporter not registered")
		return 2
	}
	rep, err := r.Build(context.Background())
	if err != nil {
		l.Error().Err(err).Msg("build report")
		return perr.ExitCode(err)
	}
	if err := r.Render(os.Stdout, rep, *asJSON); err != nil {
		l.Error().Err(err).Msg("render report")
		return perr.ExitCode(err)
	}
	if rep.Mismatches > 0 {
		return 1
	}
	return 0
}
