package telemetry

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/robotalks/fclink/pkg/l0/comm"
)

// Describe formats a frame for display, decoding telemetry payloads.
func Describe(f *comm.Frame) string {
	switch f.Cmd {
	case CmdHeartbeat:
		if ts, err := DecodeHeartbeat(f.Data); err == nil {
			return fmt.Sprintf("heartbeat %s", ts.Format(time.RFC3339Nano))
		}
	case CmdTxStatus:
		if space, err := DecodeTxStatus(f.Data); err == nil {
			return fmt.Sprintf("tx_status space_left=%d", space)
		}
	}
	return fmt.Sprintf("cmd=0x%02x len=%d %s", f.Cmd, len(f.Data), hex.EncodeToString(f.Data))
}
