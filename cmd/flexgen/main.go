// flexgen generates textures and meshes offline from texture factory
// descriptions.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/flexgen/internal/config"
	"github.com/Faultbox/flexgen/internal/logger"
	"github.com/Faultbox/flexgen/internal/workers"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Global flags come before the command
	config.ParseFlags()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}
	command, args := args[0], args[1:]

	switch command {
	case "help", "-h", "--help":
		printUsage()
		return
	case "version":
		fmt.Println("flexgen", version)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Sugar.Debugf("Config: %+v", cfg)

	workers.SetLimit(cfg.Workers)

	switch command {
	case "textures", "tex":
		err = cmdTextures(cfg, args)
	case "fillgaps":
		err = cmdFillGaps(cfg, args)
	case "noise":
		err = cmdNoise(cfg, args)
	case "mesh":
		err = cmdMesh(cfg, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`flexgen - offline texture and mesh generator

Usage:
  flexgen [global options] <command> [options]

Global options:
  -config <file>    Config file (default ./flexgen.yaml)
  -debug            Enable debug logging
  -backend <name>   Rendering backend: soft or gl
  -out <dir>        Output directory
  -force            Regenerate outputs that already exist
  -workers <n>      Number of worker goroutines

Commands:
  textures <factory.yaml>...         Generate the textures of factory files
  fillgaps <in> <out>                Fill empty texels from their neighbors
  noise <out.png>                    Generate a Perlin noise texture
  mesh <out.glb>                     Write a tessellated plane model
  version                            Print the version

Examples:
  flexgen -out build textures data/factories/rock.yaml
  flexgen fillgaps -downsample 1 albedo.png albedo_filled.png
  flexgen noise -size 512 -octaves 1,0.5,0.25 clouds.png
  flexgen mesh -steps 16 -lods 3 plane.glb`)
}
