package glomers

import (
	"fmt"
	"io"

	"github.com/mosaicnetworks/glomers/src/config"
	"github.com/mosaicnetworks/glomers/src/node"
	"github.com/mosaicnetworks/glomers/src/service"
	"github.com/mosaicnetworks/glomers/src/telemetry"
	"github.com/mosaicnetworks/glomers/src/version"
	"github.com/sirupsen/logrus"
)

// Glomers wires one workload to a node runtime reading from In and writing to
// Out, plus the optional HTTP service.
type Glomers struct {
	Config   *config.Config
	Workload Workload
	Node     *node.Node
	Service  *service.Service

	In  io.Reader
	Out io.Writer
}

// NewGlomers ...
func NewGlomers(conf *config.Config, workload Workload, in io.Reader, out io.Writer) *Glomers {
	engine := &Glomers{
		Config:   conf,
		Workload: workload,
		In:       in,
		Out:      out,
	}

	return engine
}

func (g *Glomers) initNode() error {
	if g.Workload.Protocol == nil || g.Workload.Factory == nil {
		return fmt.Errorf("workload %q is incomplete", g.Workload.Name)
	}

	g.Node = node.NewNode(
		g.Config.NodeConfig(),
		g.Workload.Protocol(),
		g.Workload.Factory(g.Config),
		g.In,
		g.Out,
	)

	return nil
}

func (g *Glomers) initService() error {
	if g.Config.ServiceAddr != "" {
		g.Service = service.NewService(g.Config.ServiceAddr, g.Node, g.Config.Logger().WithField("component", "service"))
	}
	return nil
}

// Init validates the configuration and builds the node.
func (g *Glomers) Init() error {
	if err := g.Config.Validate(); err != nil {
		return err
	}

	if err := g.initNode(); err != nil {
		return err
	}

	if err := g.initService(); err != nil {
		return err
	}

	telemetry.SetBuildInfo(version.Version, g.Workload.Name)

	g.Config.Logger().WithFields(logrus.Fields{
		"workload": g.Workload.Name,
		"version":  version.Version,
		"service":  g.Config.ServiceAddr,
	}).Debug("Init")

	return nil
}

// Run starts the service, if any, and runs the node until its input closes.
func (g *Glomers) Run() error {
	if g.Service != nil {
		go g.Service.Serve()
	}

	return g.Node.Run()
}
