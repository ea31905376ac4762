package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/mogaika/sdf_robot_importer/sdf"
	"github.com/mogaika/sdf_robot_importer/utils"
)

func main() {
	var dump bool
	var logLevel string
	flag.BoolVar(&dump, "dump", false, "Dump parsed document structures")
	flag.StringVar(&logLevel, "v", "warning", "Log level")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] model.sdf\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	logger, err := utils.NewLogger(os.Stderr, logLevel)
	if err != nil {
		log.Fatal(err)
	}

	doc, err := sdf.Parse(flag.Arg(0), logger)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("model %q (sdf %s), %d links, %d joints\n", doc.ModelName, doc.Version, len(doc.Links), len(doc.Joints))
	if !doc.ModelPose.IsZero() {
		fmt.Printf("model pose %v, not applied on import\n", doc.ModelPose)
	}
	for _, chain := range doc.Chains {
		chain.Walk(func(node *sdf.KinematicNode, depth int) {
			indent := strings.Repeat("  ", depth)
			line := indent + node.Link.Name
			if !node.IsRoot() {
				line += fmt.Sprintf(" [%s %s axis %v]", node.Joint.Name, node.Joint.Type, node.Joint.Axis.XYZ)
			}
			if !node.Link.Pose.IsZero() {
				line += fmt.Sprintf(" pose %v", node.Link.Pose)
			}
			fmt.Println(line)
		})
	}

	if dump {
		utils.Dump(doc)
	}
}
