package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mogaika/sdf_robot_importer/config"
	"github.com/mogaika/sdf_robot_importer/importer"
	"github.com/mogaika/sdf_robot_importer/scene"
	"github.com/mogaika/sdf_robot_importer/status"
	"github.com/mogaika/sdf_robot_importer/utils"
	"github.com/mogaika/sdf_robot_importer/utils/gltfutils"
	"github.com/mogaika/sdf_robot_importer/web"
)

func main() {
	var addr, sdfPath, zipPath, glbPath, configPath, logLevel string
	var standalone bool
	flag.StringVar(&addr, "i", "", "Address of server, overrides config")
	flag.StringVar(&sdfPath, "sdf", "", "Path to .sdf description")
	flag.StringVar(&zipPath, "zip", "", "Path to zipped model package")
	flag.StringVar(&glbPath, "glb", "", "Write imported model as binary glTF")
	flag.StringVar(&configPath, "config", "", "Path to yaml settings")
	flag.StringVar(&logLevel, "v", "", "Log level: debug, info, warning, error")
	flag.BoolVar(&standalone, "standalone", false, "Import -sdf without model.config, a missing config is only a warning")
	flag.Parse()

	settings := config.Default()
	if configPath != "" {
		var err error
		if settings, err = config.Load(configPath); err != nil {
			log.Fatal(err)
		}
	}
	if logLevel != "" {
		settings.LogLevel = logLevel
	}
	if addr != "" {
		settings.Addr = addr
	}
	config.Set(settings)

	logger, err := utils.NewLogger(os.Stderr, settings.LogLevel)
	if err != nil {
		log.Fatal(err)
	}

	s := scene.New()

	if sdfPath == "" && zipPath == "" && settings.Addr == "" {
		flag.PrintDefaults()
		return
	}

	if sdfPath == "" && zipPath == "" {
		hub := status.NewHub(logger)
		defer hub.Close()
		if err := web.StartServer(settings.Addr, web.NewServer(s, hub, logger, settings)); err != nil {
			logger.Fatal(err)
		}
		return
	}

	collector := &status.Collector{}
	reporter := status.Multi{collector, status.LogReporter{Log: logger}}
	opts := []importer.Option{importer.WithLogger(logger), importer.WithSettings(settings)}

	var m *scene.Model
	if zipPath != "" {
		m, err = importer.ImportZippedPackage(s, reporter, zipPath, opts...)
	} else if standalone {
		m, err = importer.ImportStandalone(s, reporter, sdfPath, opts...)
	} else {
		m, err = importer.ImportPlain(s, reporter, sdfPath, opts...)
	}
	if err != nil {
		logger.Fatalf("Import failed: %v", err)
	}

	printSummary(os.Stdout, web.NewModelView(s, m), collector)

	if glbPath != "" {
		doc, err := gltfutils.ExportModel(s, m)
		if err != nil {
			logger.Fatal(err)
		}
		f, err := os.Create(glbPath)
		if err != nil {
			logger.Fatal(err)
		}
		defer f.Close()
		if err := gltfutils.ExportBinary(f, doc); err != nil {
			logger.Fatal(err)
		}
		logger.Infof("Written %s", glbPath)
	}
}

func printSummary(w io.Writer, mv *web.ModelView, collector *status.Collector) {
	fmt.Fprintf(w, "Model %q from %s: %d bones, %d geometries\n", mv.Name, mv.FileName, mv.BoneCount, mv.GeometryCount)
	if mv.Meta.ConfigName != "" {
		fmt.Fprintf(w, "  %s v%s by %s <%s>\n", mv.Meta.ConfigName, mv.Meta.Version, mv.Meta.AuthorName, mv.Meta.AuthorEmail)
	}
	for _, b := range mv.Bones {
		fmt.Fprintf(w, "  %-24s parent=%-24s %-9v axis=%-1v revert=%-5v geometries=%d\n",
			b.Name, b.Parent, b.JointMode, b.Axis, b.AxisRevert, len(b.Geometries))
	}
	for _, msg := range collector.Messages() {
		if msg.Type == status.ERROR || msg.Type == status.WARNING {
			fmt.Fprintf(w, "%v: %s\n", msg.Type, msg.Message)
		}
	}
}
