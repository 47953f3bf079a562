package call

import (
	"context"
	"fmt"
	"time"

	"github.com/ValentinKolb/logicbridge/cmd/util"
	"github.com/ValentinKolb/logicbridge/lib/bridge"
	"github.com/ValentinKolb/logicbridge/lib/envelope"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	CallCmd = &cobra.Command{
		Use:   "call",
		Short: "Send one request envelope and print the response",
		Long: `Encodes the payload into a request envelope of the given case, sends it
through the sync or async entry point and prints the decoded response.

Payloads can be given as plain text, as hex:<digits> or as @<file>.

Examples:
  logic call --case echo --payload ping
  logic call --case topic_list --async --payload @topics.bin --remote /tmp/logic.sock`,
		RunE:    run,
	}
)

func init() {
	key := "case"
	CallCmd.Flags().String(key, "echo", util.WrapString("Case of the request (e.g. echo, configure, topic_list)"))
	key = "payload"
	CallCmd.Flags().String(key, "", util.WrapString("Payload of the request (text, hex:<digits> or @<file>)"))
	key = "async"
	CallCmd.Flags().Bool(key, false, util.WrapString("Use the async entry point"))

	util.SetupRPCClientFlags(CallCmd)
}

func run(cmd *cobra.Command, _ []string) error {
	c, err := envelope.ParseCase(viper.GetString("case"))
	if err != nil {
		return err
	}
	payload, err := util.ParsePayload(viper.GetString("payload"))
	if err != nil {
		return err
	}

	kind := envelope.KindSync
	if viper.GetBool("async") {
		kind = envelope.KindAsync
	}

	caller, err := util.NewCaller()
	if err != nil {
		return err
	}
	defer caller.Close()

	resp, elapsed, err := Invoke(caller, kind, c, payload)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", kind, resp.Case, elapsed)
	fmt.Fprintln(cmd.OutOrStdout(), util.FormatPayload(resp.Payload))
	return nil
}

// Invoke sends one request through caller and decodes the response
func Invoke(caller bridge.ICaller, kind envelope.Kind, c envelope.Case, payload []byte) (envelope.Response, time.Duration, error) {
	codec := envelope.NewWireCodec()
	req, err := codec.EncodeRequest(envelope.NewRequest(kind, c, payload))
	if err != nil {
		return envelope.Response{}, 0, err
	}

	start := time.Now()
	var raw []byte
	if kind == envelope.KindAsync {
		type result struct {
			resp []byte
			err  error
		}
		ch := make(chan result, 1)
		caller.CallAsync(req, func(resp []byte, err error) {
			// resp is only valid during the callback
			ch <- result{append([]byte(nil), resp...), err}
		})
		r := <-ch
		raw, err = r.resp, r.err
	} else {
		raw, err = caller.Call(context.Background(), req)
	}
	elapsed := time.Since(start)
	if err != nil {
		return envelope.Response{}, elapsed, fmt.Errorf("%s call failed: %w", kind, err)
	}

	resp, err := codec.DecodeResponse(kind, raw)
	return resp, elapsed, err
}
