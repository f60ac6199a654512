package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/fclink/pkg/env"
	fx "github.com/robotalks/fclink/pkg/framework"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	e := env.NewConfig().MustNewEnv()
	defer e.Close()
	glog.Infof("device %s linked via %s", e.Config.DeviceID, e.Config.LinkURL)

	sched := fx.NewScheduler().Add(e)
	err := fx.NewRunner().
		HandleSignals().
		FailFast().
		Go(e.Runnables()...).
		Go(fx.NamedRun("scheduler", sched)).
		Wait()
	if err != nil {
		glog.Error(err)
	}
}
