package sdf

import (
	"encoding/xml"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mogaika/sdf_robot_importer/config"
	"github.com/mogaika/sdf_robot_importer/pose"
)

// parent name used by the format for joints fixing a link to the world
const WorldLink = "world"

type Document struct {
	Version   string
	ModelName string
	ModelPose pose.Pose
	Links     []*Link
	Joints    []*Joint
	// links not attached as a child of any joint
	Roots []*Link
	// one tree per root, in root declaration order
	Chains []*KinematicNode
}

func Parse(path string, log logrus.FieldLogger) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open %q", path)
	}
	defer f.Close()

	doc, err := Decode(f, log)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't parse %q", path)
	}
	return doc, nil
}

func Decode(r io.Reader, log logrus.FieldLogger) (*Document, error) {
	var root domRoot

	d := xml.NewDecoder(r)
	d.CharsetReader = config.CharsetReader
	if err := d.Decode(&root); err != nil {
		return nil, errors.Wrapf(err, "Xml decoding")
	}

	dm, err := pickModel(&root, log)
	if err != nil {
		return nil, err
	}

	c := &converter{log: log}
	doc := &Document{
		Version:   root.Version,
		ModelName: dm.Name,
	}
	if doc.ModelPose, err = dm.Pose.value(); err != nil {
		return nil, errors.Wrapf(err, "model %q pose", dm.Name)
	}

	for _, dl := range dm.Links {
		l, err := c.link(dl)
		if err != nil {
			return nil, err
		}
		doc.Links = append(doc.Links, l)
	}
	for _, dj := range dm.Joints {
		j, err := c.joint(dj)
		if err != nil {
			return nil, err
		}
		doc.Joints = append(doc.Joints, j)
	}

	if err := doc.buildTree(log); err != nil {
		return nil, errors.Wrapf(err, "model %q", dm.Name)
	}
	return doc, nil
}

func pickModel(root *domRoot, log logrus.FieldLogger) (*domModel, error) {
	models := root.Models
	for _, w := range root.Worlds {
		models = append(models, w.Models...)
	}
	if len(models) == 0 {
		return nil, errors.Errorf("No model element found")
	}
	if len(models) > 1 {
		log.Warnf("%d models in description, importing %q", len(models), models[0].Name)
	}
	return models[0], nil
}

func (doc *Document) buildTree(log logrus.FieldLogger) error {
	links := make(map[string]*Link, len(doc.Links))
	for _, l := range doc.Links {
		if _, dup := links[l.Name]; dup {
			return errors.Errorf("Duplicate link %q", l.Name)
		}
		links[l.Name] = l
	}

	childJoint := make(map[string]*Joint)
	childrenOf := make(map[string][]*Joint)
	for _, j := range doc.Joints {
		if _, ok := links[j.Child]; !ok {
			return errors.Errorf("Joint %q child link %q not found", j.Name, j.Child)
		}
		if j.Parent == WorldLink {
			log.Debugf("joint %q fixes %q to the world, link stays a root", j.Name, j.Child)
			continue
		}
		if _, ok := links[j.Parent]; !ok {
			return errors.Errorf("Joint %q parent link %q not found", j.Name, j.Parent)
		}
		if other, dup := childJoint[j.Child]; dup {
			return errors.Errorf("Link %q is child of both %q and %q", j.Child, other.Name, j.Name)
		}
		childJoint[j.Child] = j
		childrenOf[j.Parent] = append(childrenOf[j.Parent], j)
	}

	for _, l := range doc.Links {
		if _, isChild := childJoint[l.Name]; !isChild {
			doc.Roots = append(doc.Roots, l)
		}
	}
	if len(doc.Links) > 0 && len(doc.Roots) == 0 {
		return errors.Errorf("Kinematic loop, no root link")
	}

	visited := make(map[string]bool, len(doc.Links))
	var build func(j *Joint, l *Link) *KinematicNode
	build = func(j *Joint, l *Link) *KinematicNode {
		visited[l.Name] = true
		n := &KinematicNode{Joint: j, Link: l}
		for _, cj := range childrenOf[l.Name] {
			n.Children = append(n.Children, build(cj, links[cj.Child]))
		}
		return n
	}

	for _, r := range doc.Roots {
		doc.Chains = append(doc.Chains, build(nil, r))
	}
	for _, l := range doc.Links {
		if !visited[l.Name] {
			return errors.Errorf("Link %q is part of a kinematic loop", l.Name)
		}
	}
	return nil
}
