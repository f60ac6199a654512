package telemetry

import (
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/fclink/pkg/cli/sh"
	"github.com/robotalks/fclink/pkg/telemetry"
)

var (
	// HeartbeatCmd sends a heartbeat frame with the current time.
	HeartbeatCmd = ishell.Cmd{
		Name:    "heartbeat",
		Aliases: []string{"hb"},
		Help:    "",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			f, err := telemetry.HeartbeatFrame(time.Now())
			if err != nil {
				c.Err(err)
				return
			}
			sh.SendFrame(c, f)
		}),
	}

	// TxStatusCmd sends the free space of the local TX ring.
	TxStatusCmd = ishell.Cmd{
		Name:    "txstatus",
		Aliases: []string{"txs"},
		Help:    "",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			f, err := telemetry.TxStatusFrame(sh.ShellFrom(c).Session.Link.TX().SpaceLeft())
			if err != nil {
				c.Err(err)
				return
			}
			sh.SendFrame(c, f)
		}),
	}
)

func init() {
	sh.AddCmds(
		&HeartbeatCmd,
		&TxStatusCmd,
	)
}
